package repository

import (
	"context"
	"errors"
	"time"

	"github.com/orbio/invoice-gateway/internal/model"
	"github.com/orbio/invoice-gateway/pkg/pg"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrOrderNotFound = errors.New("order not found")
	ErrPivotNotFound = errors.New("customer is not attached to this order")
)

type OrderRepository struct {
	*pg.DB
}

func NewOrderRepository(db *pg.DB) *OrderRepository {
	return &OrderRepository{
		db,
	}
}

func (r *OrderRepository) Create(ctx context.Context, o *model.Order) (*model.Order, error) {
	entity := toOrderEntity(o)

	if err := r.Write(ctx).Create(entity).Error; err != nil {
		return nil, err
	}

	return toOrderModel(entity), nil
}

func (r *OrderRepository) GetByID(ctx context.Context, companyID, orderID int64) (*model.Order, error) {
	var entity OrderEntity
	err := r.Read(ctx).
		Preload("Items").
		Where("id = ? AND company_id = ?", orderID, companyID).
		First(&entity).
		Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}

	return toOrderModel(&entity), nil
}

func (r *OrderRepository) List(ctx context.Context, companyID int64, limit, offset int) ([]*model.Order, int64, error) {
	q := r.Read(ctx).Model(&OrderEntity{}).Where("company_id = ?", companyID)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if limit <= 0 || limit > 1000 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	var entities []*OrderEntity
	if err := q.Preload("Items").Order("created_at DESC").Limit(limit).Offset(offset).Find(&entities).Error; err != nil {
		return nil, 0, err
	}

	return toOrderModels(entities), total, nil
}

// UpdateFields writes only the given columns.
func (r *OrderRepository) UpdateFields(ctx context.Context, companyID, orderID int64, fields map[string]interface{}) error {
	result := r.Write(ctx).
		Model(&OrderEntity{}).
		Where("id = ? AND company_id = ?", orderID, companyID).
		Updates(fields)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrOrderNotFound
	}
	return nil
}

// ReplaceItems swaps the order's line items and amount in one shot. Caller is
// expected to run this inside WithinTransaction.
func (r *OrderRepository) ReplaceItems(ctx context.Context, orderID int64, items []*model.OrderItem, amount int64) error {
	if err := r.Write(ctx).Where("order_id = ?", orderID).Delete(&OrderItemEntity{}).Error; err != nil {
		return err
	}
	for _, it := range items {
		entity := &OrderItemEntity{
			OrderID:   orderID,
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
		}
		if err := r.Write(ctx).Create(entity).Error; err != nil {
			return err
		}
	}
	return r.Write(ctx).
		Model(&OrderEntity{}).
		Where("id = ?", orderID).
		Update("amount", amount).
		Error
}

// AttachCustomer creates the customer/order pivot if it does not exist yet.
// The invoice number is the customer's next sequence value.
func (r *OrderRepository) AttachCustomer(ctx context.Context, customerID, orderID int64) (*model.CustomerOrder, error) {
	var existing CustomerOrderEntity
	err := r.Write(ctx).
		Where("customer_id = ? AND order_id = ?", customerID, orderID).
		First(&existing).
		Error
	if err == nil {
		return toCustomerOrderModel(&existing), nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	// Locking the scan keeps two concurrent first attachments for the same
	// customer from minting the same invoice number.
	var last CustomerOrderEntity
	next := int64(1)
	err = r.Write(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("customer_id = ?", customerID).
		Order("invoice_number DESC").
		First(&last).
		Error
	if err == nil {
		next = last.InvoiceNumber + 1
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	entity := &CustomerOrderEntity{
		CustomerID:    customerID,
		OrderID:       orderID,
		InvoiceNumber: next,
	}
	if err := r.Write(ctx).Create(entity).Error; err != nil {
		return nil, err
	}
	return toCustomerOrderModel(entity), nil
}

func (r *OrderRepository) GetPivot(ctx context.Context, customerID, orderID int64) (*model.CustomerOrder, error) {
	var entity CustomerOrderEntity
	err := r.Read(ctx).
		Where("customer_id = ? AND order_id = ?", customerID, orderID).
		First(&entity).
		Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPivotNotFound
		}
		return nil, err
	}

	return toCustomerOrderModel(&entity), nil
}

// MarkPaid sets the pivot's is_paid/paid_at and freezes the order. A pivot
// that is already paid keeps its original paid_at, so re-settlement of the
// same reference is a no-op here.
func (r *OrderRepository) MarkPaid(ctx context.Context, customerID, orderID int64, paidAt time.Time) error {
	var pivot CustomerOrderEntity
	err := r.Write(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("customer_id = ? AND order_id = ?", customerID, orderID).
		First(&pivot).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrPivotNotFound
		}
		return err
	}

	if !pivot.IsPaid {
		result := r.Write(ctx).
			Model(&CustomerOrderEntity{}).
			Where("id = ? AND is_paid = ?", pivot.ID, false).
			Updates(map[string]interface{}{"is_paid": true, "paid_at": paidAt})
		if result.Error != nil {
			return result.Error
		}
	}

	return r.Write(ctx).
		Model(&OrderEntity{}).
		Where("id = ?", orderID).
		Update("fully_editable", false).
		Error
}
