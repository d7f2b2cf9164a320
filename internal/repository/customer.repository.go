package repository

import (
	"context"
	"errors"

	"github.com/orbio/invoice-gateway/internal/model"
	"github.com/orbio/invoice-gateway/pkg/pg"
	"gorm.io/gorm"
)

var (
	ErrCustomerNotFound = errors.New("customer not found")
)

type CustomerRepository struct {
	*pg.DB
}

func NewCustomerRepository(db *pg.DB) *CustomerRepository {
	return &CustomerRepository{
		db,
	}
}

func (r *CustomerRepository) Create(ctx context.Context, c *model.Customer) (*model.Customer, error) {
	entity := toCustomerEntity(c)

	if err := r.Write(ctx).Create(entity).Error; err != nil {
		return nil, err
	}

	return toCustomerModel(entity), nil
}

// GetByID resolves a customer scoped to one company.
func (r *CustomerRepository) GetByID(ctx context.Context, companyID, customerID int64) (*model.Customer, error) {
	var entity CustomerEntity
	err := r.Read(ctx).
		Where("id = ? AND company_id = ?", customerID, companyID).
		First(&entity).
		Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCustomerNotFound
		}
		return nil, err
	}

	return toCustomerModel(&entity), nil
}

func (r *CustomerRepository) ListByCompany(ctx context.Context, companyID int64) ([]*model.Customer, error) {
	var entities []*CustomerEntity
	if err := r.Read(ctx).
		Where("company_id = ?", companyID).
		Order("id ASC").
		Find(&entities).Error; err != nil {
		return nil, err
	}
	return toCustomerModels(entities), nil
}
