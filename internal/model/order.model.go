package model

import (
	"errors"
	"time"
)

type Order struct {
	ID          int64      `json:"id"`
	CompanyID   int64      `json:"company_id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Currency    string     `json:"currency"`
	Amount      int64      `json:"amount"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	Reminder    bool       `json:"reminder"`

	// FullyEditable drops to false permanently once any customer pays.
	FullyEditable bool `json:"fully_editable"`

	// Either the inline product fields or Items are set, never both.
	ProductName     string `json:"product_name,omitempty"`
	ProductQuantity int64  `json:"product_quantity,omitempty"`
	ProductPrice    int64  `json:"product_price,omitempty"`

	Items     []*OrderItem `json:"items,omitempty"`
	CreatedAt time.Time    `json:"created_at"`
}

func (Order) TableName() string { return "orders" }

// OrderItem joins an order to a product with the quantity and the unit price
// copied at composition time. Later product price changes never touch it.
type OrderItem struct {
	ID        int64 `json:"id"`
	OrderID   int64 `json:"order_id"`
	ProductID int64 `json:"product_id"`
	Quantity  int64 `json:"quantity"`
	UnitPrice int64 `json:"unit_price"`
}

func (OrderItem) TableName() string { return "order_items" }

// OrderField names an updatable order attribute. Which fields stay writable
// after the first payment is a fixed table, not a runtime diff.
type OrderField string

const (
	OrderFieldTitle       OrderField = "title"
	OrderFieldDescription OrderField = "description"
	OrderFieldDueDate     OrderField = "due_date"
	OrderFieldReminder    OrderField = "reminder"
	OrderFieldCurrency    OrderField = "currency"
	OrderFieldAmount      OrderField = "amount"
	OrderFieldProduct     OrderField = "product"
	OrderFieldItems       OrderField = "items"
)

var editableAfterPayment = map[OrderField]bool{
	OrderFieldTitle:       true,
	OrderFieldDescription: true,
	OrderFieldDueDate:     true,
	OrderFieldReminder:    true,
}

// CanEdit reports whether the field may still be written on this order.
func (o *Order) CanEdit(f OrderField) bool {
	if o.FullyEditable {
		return true
	}
	return editableAfterPayment[f]
}

type OrderItemRequest struct {
	ProductID int64 `json:"product_id"`
	Quantity  int64 `json:"quantity"`
}

type OrderCreateRequest struct {
	CompanyID   int64
	Title       string
	Description string
	Currency    string
	DueDate     *time.Time
	Reminder    bool

	// inline single-product order
	ProductName     string
	ProductQuantity int64
	ProductPrice    int64

	Items []OrderItemRequest
}

func (r OrderCreateRequest) Validate() error {
	if r.CompanyID == 0 {
		return errors.New("company_id is required")
	}
	if r.Currency == "" {
		return errors.New("currency is required")
	}
	if r.ProductName != "" && len(r.Items) > 0 {
		return errors.New("inline product and line items are mutually exclusive")
	}
	if r.ProductName == "" && len(r.Items) == 0 {
		return errors.New("an order needs an inline product or line items")
	}
	if r.ProductName != "" && r.ProductQuantity <= 0 {
		return errors.New("product_quantity must be positive")
	}
	for _, it := range r.Items {
		if it.ProductID == 0 {
			return errors.New("item product_id is required")
		}
		if it.Quantity <= 0 {
			return errors.New("item quantity must be positive")
		}
	}
	if r.Reminder && r.DueDate == nil {
		return errors.New("reminder requires a due date")
	}
	return nil
}

// OrderUpdateRequest carries only the fields present in the request; nil
// pointers mean "unchanged".
type OrderUpdateRequest struct {
	Title       *string
	Description *string
	DueDate     *time.Time
	Reminder    *bool
	Currency    *string
	Amount      *int64
	Items       []OrderItemRequest
}

// Fields lists the order attributes this update touches.
func (r OrderUpdateRequest) Fields() []OrderField {
	var fs []OrderField
	if r.Title != nil {
		fs = append(fs, OrderFieldTitle)
	}
	if r.Description != nil {
		fs = append(fs, OrderFieldDescription)
	}
	if r.DueDate != nil {
		fs = append(fs, OrderFieldDueDate)
	}
	if r.Reminder != nil {
		fs = append(fs, OrderFieldReminder)
	}
	if r.Currency != nil {
		fs = append(fs, OrderFieldCurrency)
	}
	if r.Amount != nil {
		fs = append(fs, OrderFieldAmount)
	}
	if len(r.Items) > 0 {
		fs = append(fs, OrderFieldItems)
	}
	return fs
}

// ReminderDates generates the reminder schedule around a due date: the listed
// day offsets before the due date plus the due date itself.
func ReminderDates(dueDate time.Time, daysBefore []int) []time.Time {
	dates := make([]time.Time, 0, len(daysBefore)+1)
	for _, d := range daysBefore {
		dates = append(dates, dueDate.AddDate(0, 0, -d))
	}
	dates = append(dates, dueDate)
	return dates
}
