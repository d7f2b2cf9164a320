package repository

import (
	"time"

	"github.com/orbio/invoice-gateway/internal/model"
)

type OrderEntity struct {
	ID          int64      `db:"id"          gorm:"primaryKey;autoIncrement;column:id"`
	CompanyID   int64      `db:"company_id"  gorm:"column:company_id;not null;index"`
	Title       string     `db:"title"       gorm:"column:title"`
	Description string     `db:"description" gorm:"column:description"`
	Currency    string     `db:"currency"    gorm:"column:currency;not null"`
	Amount      int64      `db:"amount"      gorm:"column:amount;not null"`
	DueDate     *time.Time `db:"due_date"    gorm:"column:due_date"`
	Reminder    bool       `db:"reminder"    gorm:"column:reminder;not null;default:false"`

	FullyEditable bool `db:"fully_editable" gorm:"column:fully_editable;not null;default:true"`

	ProductName     string `db:"product_name"     gorm:"column:product_name"`
	ProductQuantity int64  `db:"product_quantity" gorm:"column:product_quantity"`
	ProductPrice    int64  `db:"product_price"    gorm:"column:product_price"`

	Items     []*OrderItemEntity `gorm:"foreignKey:OrderID"`
	CreatedAt time.Time          `db:"created_at" gorm:"column:created_at;autoCreateTime"`
}

func (OrderEntity) TableName() string {
	return "orders"
}

type OrderItemEntity struct {
	ID        int64 `db:"id"         gorm:"primaryKey;autoIncrement;column:id"`
	OrderID   int64 `db:"order_id"   gorm:"column:order_id;not null;index"`
	ProductID int64 `db:"product_id" gorm:"column:product_id;not null;index"`
	Quantity  int64 `db:"quantity"   gorm:"column:quantity;not null"`
	UnitPrice int64 `db:"unit_price" gorm:"column:unit_price;not null"`
}

func (OrderItemEntity) TableName() string {
	return "order_items"
}

type CustomerOrderEntity struct {
	ID            int64      `db:"id"             gorm:"primaryKey;autoIncrement;column:id"`
	CustomerID    int64      `db:"customer_id"    gorm:"column:customer_id;not null;uniqueIndex:idx_customer_order"`
	OrderID       int64      `db:"order_id"       gorm:"column:order_id;not null;uniqueIndex:idx_customer_order"`
	IsPaid        bool       `db:"is_paid"        gorm:"column:is_paid;not null;default:false"`
	PaidAt        *time.Time `db:"paid_at"        gorm:"column:paid_at"`
	InvoiceNumber int64      `db:"invoice_number" gorm:"column:invoice_number;not null;default:0"`
}

func (CustomerOrderEntity) TableName() string {
	return "customer_orders"
}

func toOrderEntity(m *model.Order) *OrderEntity {
	if m == nil {
		return nil
	}
	e := &OrderEntity{
		ID:              m.ID,
		CompanyID:       m.CompanyID,
		Title:           m.Title,
		Description:     m.Description,
		Currency:        m.Currency,
		Amount:          m.Amount,
		DueDate:         m.DueDate,
		Reminder:        m.Reminder,
		FullyEditable:   m.FullyEditable,
		ProductName:     m.ProductName,
		ProductQuantity: m.ProductQuantity,
		ProductPrice:    m.ProductPrice,
		CreatedAt:       m.CreatedAt,
	}
	for _, it := range m.Items {
		e.Items = append(e.Items, &OrderItemEntity{
			ID:        it.ID,
			OrderID:   it.OrderID,
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
		})
	}
	return e
}

func toOrderModel(e *OrderEntity) *model.Order {
	if e == nil {
		return nil
	}
	m := &model.Order{
		ID:              e.ID,
		CompanyID:       e.CompanyID,
		Title:           e.Title,
		Description:     e.Description,
		Currency:        e.Currency,
		Amount:          e.Amount,
		DueDate:         e.DueDate,
		Reminder:        e.Reminder,
		FullyEditable:   e.FullyEditable,
		ProductName:     e.ProductName,
		ProductQuantity: e.ProductQuantity,
		ProductPrice:    e.ProductPrice,
		CreatedAt:       e.CreatedAt,
	}
	for _, it := range e.Items {
		m.Items = append(m.Items, &model.OrderItem{
			ID:        it.ID,
			OrderID:   it.OrderID,
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
		})
	}
	return m
}

func toOrderModels(entities []*OrderEntity) []*model.Order {
	if entities == nil {
		return nil
	}
	models := make([]*model.Order, len(entities))
	for i, e := range entities {
		models[i] = toOrderModel(e)
	}
	return models
}

func toCustomerOrderModel(e *CustomerOrderEntity) *model.CustomerOrder {
	if e == nil {
		return nil
	}
	return &model.CustomerOrder{
		ID:            e.ID,
		CustomerID:    e.CustomerID,
		OrderID:       e.OrderID,
		IsPaid:        e.IsPaid,
		PaidAt:        e.PaidAt,
		InvoiceNumber: e.InvoiceNumber,
	}
}
