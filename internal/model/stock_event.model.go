package model

import (
	"errors"
	"time"
)

type StockAction string

const (
	StockActionAdd      StockAction = "add"
	StockActionSubtract StockAction = "subtract"
)

// StockEvent is one entry of the append-only stock ledger. Rows are never
// updated; the product's inventory column is the persisted running total.
// The event records the requested quantity verbatim even when the resulting
// inventory was clamped at the floor.
type StockEvent struct {
	ID        int64       `json:"id"`
	ProductID int64       `json:"product_id"`
	Action    StockAction `json:"action"`
	Quantity  int64       `json:"quantity"`
	Comment   string      `json:"comment,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
}

func (StockEvent) TableName() string { return "stock_events" }

type StockAdjustRequest struct {
	CompanyID int64
	ProductID int64
	Action    StockAction
	Quantity  int64
	Comment   string
}

func (r StockAdjustRequest) Validate() error {
	if r.CompanyID == 0 {
		return errors.New("company_id is required")
	}
	if r.ProductID == 0 {
		return errors.New("product_id is required")
	}
	if r.Action != StockActionAdd && r.Action != StockActionSubtract {
		return errors.New("action must be add or subtract")
	}
	if r.Quantity <= 0 {
		return errors.New("quantity must be positive")
	}
	return nil
}
