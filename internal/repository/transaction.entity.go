package repository

import (
	"time"

	"github.com/orbio/invoice-gateway/internal/model"
)

type PaymentTransactionEntity struct {
	ID         int64     `db:"id"          gorm:"primaryKey;autoIncrement;column:id"`
	OrderID    int64     `db:"order_id"    gorm:"column:order_id;not null;index"`
	CustomerID int64     `db:"customer_id" gorm:"column:customer_id;not null;index"`
	Channel    string    `db:"channel"     gorm:"column:channel;not null;uniqueIndex:idx_reference_channel"`
	Reference  string    `db:"reference"   gorm:"column:reference;not null;uniqueIndex:idx_reference_channel"`
	Success    bool      `db:"success"     gorm:"column:success;not null;default:false"`
	Amount     int64     `db:"amount"      gorm:"column:amount;not null"`
	RawPayload []byte    `db:"raw_payload" gorm:"column:raw_payload"`
	CreatedAt  time.Time `db:"created_at"  gorm:"column:created_at;autoCreateTime"`
}

func (PaymentTransactionEntity) TableName() string {
	return "payment_transactions"
}

func toTransactionEntity(m *model.PaymentTransaction) *PaymentTransactionEntity {
	if m == nil {
		return nil
	}
	return &PaymentTransactionEntity{
		ID:         m.ID,
		OrderID:    m.OrderID,
		CustomerID: m.CustomerID,
		Channel:    m.Channel,
		Reference:  m.Reference,
		Success:    m.Success,
		Amount:     m.Amount,
		RawPayload: m.RawPayload,
		CreatedAt:  m.CreatedAt,
	}
}

func toTransactionModel(e *PaymentTransactionEntity) *model.PaymentTransaction {
	if e == nil {
		return nil
	}
	return &model.PaymentTransaction{
		ID:         e.ID,
		OrderID:    e.OrderID,
		CustomerID: e.CustomerID,
		Channel:    e.Channel,
		Reference:  e.Reference,
		Success:    e.Success,
		Amount:     e.Amount,
		RawPayload: e.RawPayload,
		CreatedAt:  e.CreatedAt,
	}
}
