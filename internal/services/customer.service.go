package services

import (
	"context"
	"errors"

	"github.com/orbio/invoice-gateway/internal/model"
)

type CustomerRepository interface {
	Create(ctx context.Context, c *model.Customer) (*model.Customer, error)
	GetByID(ctx context.Context, companyID, customerID int64) (*model.Customer, error)
	ListByCompany(ctx context.Context, companyID int64) ([]*model.Customer, error)
}

type CustomerService struct {
	customerRepo CustomerRepository
}

func NewCustomerService(customerRepo CustomerRepository) *CustomerService {
	return &CustomerService{customerRepo: customerRepo}
}

func (s *CustomerService) Create(ctx context.Context, companyID int64, name, email string) (*model.Customer, error) {
	if name == "" {
		return nil, errors.New("name is required")
	}
	return s.customerRepo.Create(ctx, &model.Customer{
		CompanyID: companyID,
		Name:      name,
		Email:     email,
	})
}

func (s *CustomerService) Get(ctx context.Context, companyID, customerID int64) (*model.Customer, error) {
	return s.customerRepo.GetByID(ctx, companyID, customerID)
}

func (s *CustomerService) List(ctx context.Context, companyID int64) ([]*model.Customer, error) {
	return s.customerRepo.ListByCompany(ctx, companyID)
}
