package entity

import "encoding/json"

// PaymentIntent is an order resource created on the payment gateway. Raw
// holds the gateway response exactly as received.
type PaymentIntent struct {
	ID       string          `json:"id"`
	Amount   int64           `json:"amount"`
	Currency string          `json:"currency"`
	Receipt  string          `json:"receipt"`
	Raw      json.RawMessage `json:"-"`
}

// PaymentCompletion is what the payment widget hands back after the buyer pays.
type PaymentCompletion struct {
	PaymentID string
	OrderID   string
	Signature string
}

// ParsePaymentIntent decodes a gateway order resource, keeping the raw bytes.
func ParsePaymentIntent(raw []byte) (*PaymentIntent, error) {
	var pi PaymentIntent
	if err := json.Unmarshal(raw, &pi); err != nil {
		return nil, err
	}
	pi.Raw = append(json.RawMessage(nil), raw...)
	return &pi, nil
}
