package model

import "time"

type Customer struct {
	ID        int64  `json:"id"`
	CompanyID int64  `json:"company_id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
}

func (Customer) TableName() string { return "customers" }

// CustomerOrder is the pivot linking a customer to an order. IsPaid and
// PaidAt record settlement; InvoiceNumber is per customer.
type CustomerOrder struct {
	ID            int64      `json:"id"`
	CustomerID    int64      `json:"customer_id"`
	OrderID       int64      `json:"order_id"`
	IsPaid        bool       `json:"is_paid"`
	PaidAt        *time.Time `json:"paid_at,omitempty"`
	InvoiceNumber int64      `json:"invoice_number"`
}

func (CustomerOrder) TableName() string { return "customer_orders" }
