package model

import "time"

// PaymentTransaction is the normalized record of one provider verification.
// Re-verifying the same (reference, channel) updates the existing row.
type PaymentTransaction struct {
	ID         int64     `json:"id"`
	OrderID    int64     `json:"order_id"`
	CustomerID int64     `json:"customer_id"`
	Channel    string    `json:"channel"`
	Reference  string    `json:"reference"`
	Success    bool      `json:"success"`
	Amount     int64     `json:"amount"`
	RawPayload []byte    `json:"-"`
	CreatedAt  time.Time `json:"created_at"`
}

func (PaymentTransaction) TableName() string { return "payment_transactions" }

// OrderPaidEvent is published to the event stream after settlement succeeds.
type OrderPaidEvent struct {
	EventID       string    `json:"event_id"`
	CompanyID     int64     `json:"company_id"`
	OrderID       int64     `json:"order_id"`
	CustomerID    int64     `json:"customer_id"`
	TransactionID int64     `json:"transaction_id"`
	Channel       string    `json:"channel"`
	Reference     string    `json:"reference"`
	Amount        int64     `json:"amount"`
	Currency      string    `json:"currency"`
	PaidAt        time.Time `json:"paid_at"`
}
