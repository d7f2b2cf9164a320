package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/orbio/invoice-gateway/internal/model"
	"github.com/orbio/invoice-gateway/pkg/pg"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrProductNotFound    = errors.New("product not found")
	ErrCategoryNotFound   = errors.New("category not found")
	ErrConcurrentUpdate   = errors.New("concurrent update detected")
	ErrMaxRetriesExceeded = errors.New("max retries exceeded")
	ErrDuplicateBarcode   = errors.New("barcode already exists")
)

type ProductRepository struct {
	*pg.DB
}

func NewProductRepository(db *pg.DB) *ProductRepository {
	return &ProductRepository{
		db,
	}
}

func (r *ProductRepository) Create(ctx context.Context, p *model.Product) (*model.Product, error) {
	entity := toProductEntity(p)

	if err := r.Write(ctx).Create(entity).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) && p.Barcode != nil {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateBarcode, *p.Barcode)
		}
		return nil, err
	}

	return toProductModel(entity), nil
}

// GetByID resolves a product scoped to one company. A product belonging to a
// different tenant is indistinguishable from a missing one.
func (r *ProductRepository) GetByID(ctx context.Context, companyID, productID int64) (*model.Product, error) {
	var entity ProductEntity
	err := r.Read(ctx).
		Preload("Prices").
		Preload("Categories").
		Where("id = ? AND company_id = ?", productID, companyID).
		First(&entity).
		Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}

	return toProductModel(&entity), nil
}

func (r *ProductRepository) GetByBarcode(ctx context.Context, companyID int64, barcode string) (*model.Product, error) {
	var entity ProductEntity
	err := r.Read(ctx).
		Preload("Prices").
		Where("barcode = ? AND company_id = ?", barcode, companyID).
		First(&entity).
		Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}

	return toProductModel(&entity), nil
}

func (r *ProductRepository) List(ctx context.Context, companyID int64, limit, offset int) ([]*model.Product, int64, error) {
	q := r.Read(ctx).Model(&ProductEntity{}).Where("company_id = ?", companyID)

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

	var entities []*ProductEntity
	if err := q.Preload("Prices").Order("created_at DESC").Limit(limit).Offset(offset).Find(&entities).Error; err != nil {
		return nil, 0, err
	}

	return toProductModels(entities), total, nil
}

// Delete soft-deletes a product and detaches its price overrides and
// category associations.
func (r *ProductRepository) Delete(ctx context.Context, companyID, productID int64) error {
	result := r.Write(ctx).
		Where("id = ? AND company_id = ?", productID, companyID).
		Delete(&ProductEntity{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrProductNotFound
	}

	if err := r.Write(ctx).Where("product_id = ?", productID).Delete(&ProductPriceEntity{}).Error; err != nil {
		return err
	}
	return r.Write(ctx).Exec("DELETE FROM product_categories WHERE product_entity_id = ?", productID).Error
}

// AdjustInventory applies one stock movement to the product row with
// row-level locking and bounded retry. Add is unconditional; subtract clamps
// at the given floor when the quantity is not covered. Returns the inventory
// after the adjustment.
func (r *ProductRepository) AdjustInventory(ctx context.Context, companyID, productID int64, action model.StockAction, quantity, floor int64) (int64, error) {
	const maxRetries = 3
	const baseDelay = 2 * time.Millisecond

	for attempt := 0; attempt <= maxRetries; attempt++ {
		inv, err := r.adjustInventoryAttempt(ctx, companyID, productID, action, quantity, floor)

		if err == nil {
			return inv, nil
		}

		// permanent errors are not retried
		if errors.Is(err, ErrProductNotFound) {
			return 0, err
		}

		if attempt < maxRetries {
			delay := baseDelay * time.Duration(1<<attempt) // 2ms, 4ms, 8ms
			select {
			case <-ctx.Done():
				return 0, ctx.Err()
			case <-time.After(delay):
				continue
			}
		}
	}

	return 0, fmt.Errorf("%w: failed after %d attempts", ErrMaxRetriesExceeded, maxRetries+1)
}

func (r *ProductRepository) adjustInventoryAttempt(ctx context.Context, companyID, productID int64, action model.StockAction, quantity, floor int64) (int64, error) {
	var entity ProductEntity

	err := r.Write(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ? AND company_id = ?", productID, companyID).
		First(&entity).
		Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, ErrProductNotFound
		}
		return 0, err
	}

	newInventory := entity.Inventory
	switch action {
	case model.StockActionAdd:
		newInventory += quantity
	case model.StockActionSubtract:
		if entity.Inventory > quantity {
			newInventory = entity.Inventory - quantity
		} else {
			newInventory = floor
		}
	}

	result := r.Write(ctx).
		Model(&ProductEntity{}).
		Where("id = ?", productID).
		Update("inventory", newInventory)

	if result.Error != nil {
		return 0, result.Error
	}

	if result.RowsAffected == 0 {
		return 0, ErrConcurrentUpdate
	}

	return newInventory, nil
}

func (r *ProductRepository) GetInventory(ctx context.Context, companyID, productID int64) (int64, error) {
	var entity ProductEntity
	err := r.Read(ctx).
		Select("inventory").
		Where("id = ? AND company_id = ?", productID, companyID).
		First(&entity).
		Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, ErrProductNotFound
		}
		return 0, err
	}

	return entity.Inventory, nil
}

// AttachCategories links categories to a product, skipping ones already
// attached.
func (r *ProductRepository) AttachCategories(ctx context.Context, companyID, productID int64, categoryIDs []int64) error {
	var count int64
	if err := r.Read(ctx).Model(&CategoryEntity{}).
		Where("id IN ? AND company_id = ?", categoryIDs, companyID).
		Count(&count).Error; err != nil {
		return err
	}
	if count != int64(len(categoryIDs)) {
		return ErrCategoryNotFound
	}

	for _, cid := range categoryIDs {
		err := r.Write(ctx).
			Clauses(clause.OnConflict{DoNothing: true}).
			Exec("INSERT INTO product_categories (product_entity_id, category_entity_id) VALUES (?, ?) ON CONFLICT DO NOTHING", productID, cid).
			Error
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *ProductRepository) DetachCategory(ctx context.Context, productID, categoryID int64) error {
	return r.Write(ctx).
		Exec("DELETE FROM product_categories WHERE product_entity_id = ? AND category_entity_id = ?", productID, categoryID).
		Error
}

// SyncCategories replaces the product's category set with exactly the given
// IDs.
func (r *ProductRepository) SyncCategories(ctx context.Context, companyID, productID int64, categoryIDs []int64) error {
	if err := r.Write(ctx).Exec("DELETE FROM product_categories WHERE product_entity_id = ?", productID).Error; err != nil {
		return err
	}
	if len(categoryIDs) == 0 {
		return nil
	}
	return r.AttachCategories(ctx, companyID, productID, categoryIDs)
}

// UpdatePrice upserts a per-currency price override.
func (r *ProductRepository) UpdatePrice(ctx context.Context, productID int64, currency string, price int64) error {
	entity := &ProductPriceEntity{ProductID: productID, Currency: currency, Price: price}
	return r.Write(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "product_id"}, {Name: "currency"}},
			DoUpdates: clause.AssignmentColumns([]string{"price"}),
		}).
		Create(entity).
		Error
}
