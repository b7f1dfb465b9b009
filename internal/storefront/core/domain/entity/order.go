package entity

type CommerceLineItem struct {
	Title    string `json:"title"`
	Price    string `json:"price"`
	Quantity int    `json:"quantity"`
	Taxable  bool   `json:"taxable"`
}

type Customer struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
	Email     string `json:"email"`
}

type ShippingAddress struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Address1  string `json:"address1"`
	Phone     string `json:"phone"`
	City      string `json:"city"`
	Province  string `json:"province"`
	Country   string `json:"country"`
	Zip       string `json:"zip"`
}

type Transaction struct {
	Kind          string `json:"kind"`
	Status        string `json:"status"`
	Amount        string `json:"amount"`
	Gateway       string `json:"gateway"`
	Authorization string `json:"authorization"`
}

// CommerceOrder is the order submitted to the commerce platform once a
// payment has been verified. Its JSON form is the platform's order payload.
type CommerceOrder struct {
	LineItems       []CommerceLineItem `json:"line_items"`
	Customer        Customer           `json:"customer"`
	ShippingAddress ShippingAddress    `json:"shipping_address"`
	FinancialStatus string             `json:"financial_status"`
	Transactions    []Transaction      `json:"transactions"`
	Note            string             `json:"note"`
	Tags            string             `json:"tags"`
	TotalPrice      string             `json:"total_price"`
	Currency        string             `json:"currency"`
}

// PlacedOrder identifies an order created on the commerce platform.
// Replayed is set when the result came from the finalize log rather than a
// fresh submission.
type PlacedOrder struct {
	OrderID     int64  `json:"orderId"`
	OrderNumber int64  `json:"orderNumber"`
	PaymentID   string `json:"paymentId"`
	Replayed    bool   `json:"-"`
}
