package checkout

import (
	"github.com/graceseason/storefront/internal/storefront/core/domain/entity"
	"github.com/shopspring/decimal"
)

const (
	defaultItemTitle = "Thrift Item"
	fallbackTotal    = "5.00"
)

var hundred = decimal.NewFromInt(100)

// ToMinorUnits converts a major-unit amount to integer minor units,
// rounding half away from zero: 10.005 becomes 1001. Amounts that do not
// fit in an int64 return ErrInvalidAmount.
func ToMinorUnits(amount decimal.Decimal) (int64, error) {
	minor := amount.Mul(hundred).Round(0)
	if !minor.BigInt().IsInt64() {
		return 0, ErrInvalidAmount
	}
	return minor.IntPart(), nil
}

// FinalizeItem is a cart line as received by the finalizer.
type FinalizeItem struct {
	ID       string
	Title    string
	Price    decimal.Decimal
	Quantity int
}

func (i FinalizeItem) quantity() int {
	if i.Quantity <= 0 {
		return 1
	}
	return i.Quantity
}

// BuildLineItems maps cart lines to commerce line items. An empty cart
// yields the single fallback line.
func BuildLineItems(items []FinalizeItem) []entity.CommerceLineItem {
	if len(items) == 0 {
		return []entity.CommerceLineItem{{
			Title:    defaultItemTitle,
			Price:    fallbackTotal,
			Quantity: 1,
		}}
	}

	out := make([]entity.CommerceLineItem, 0, len(items))
	for _, it := range items {
		title := it.Title
		if title == "" {
			title = defaultItemTitle
		}
		out = append(out, entity.CommerceLineItem{
			Title:    title,
			Price:    it.Price.StringFixed(2),
			Quantity: it.quantity(),
		})
	}
	return out
}

// Total is the sum of price × quantity formatted with two decimals, or the
// fallback amount when there are no items.
func Total(items []FinalizeItem) string {
	if len(items) == 0 {
		return fallbackTotal
	}
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.Price.Mul(decimal.NewFromInt(int64(it.quantity()))))
	}
	return total.StringFixed(2)
}
