package checkout

import "strings"

// NormalizePhone turns free-form buyer input into an international number
// prefixed with "+". countryCode is the calling code without the plus,
// e.g. "91". It returns "" when fewer than ten digits remain.
func NormalizePhone(phone, countryCode string) string {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, phone)

	// trunk prefix
	if strings.HasPrefix(digits, "0") && len(digits) > 10 {
		digits = digits[1:]
	}

	hasCode := strings.HasPrefix(digits, countryCode)
	switch {
	case len(digits) == 10 && !hasCode:
		return "+" + countryCode + digits
	case len(digits) == 12 && hasCode:
		return "+" + digits
	case len(digits) == 10:
		return "+" + digits
	case len(digits) == 12:
		return "+" + countryCode + digits
	case len(digits) >= 10:
		return "+" + digits
	default:
		return ""
	}
}
