package services

import (
	"context"

	"github.com/orbio/invoice-gateway/internal/model"
)

type ProductRepository interface {
	Create(ctx context.Context, p *model.Product) (*model.Product, error)
	GetByID(ctx context.Context, companyID, productID int64) (*model.Product, error)
	GetByBarcode(ctx context.Context, companyID int64, barcode string) (*model.Product, error)
	List(ctx context.Context, companyID int64, limit, offset int) ([]*model.Product, int64, error)
	Delete(ctx context.Context, companyID, productID int64) error
	AttachCategories(ctx context.Context, companyID, productID int64, categoryIDs []int64) error
	DetachCategory(ctx context.Context, productID, categoryID int64) error
	SyncCategories(ctx context.Context, companyID, productID int64, categoryIDs []int64) error
	UpdatePrice(ctx context.Context, productID int64, currency string, price int64) error
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type ProductService struct {
	productRepo ProductRepository
	inventory   *InventoryService
}

func NewProductService(productRepo ProductRepository, inventory *InventoryService) *ProductService {
	return &ProductService{
		productRepo: productRepo,
		inventory:   inventory,
	}
}

// Create persists a product with its currency overrides and category links.
// The opening inventory, when non-zero, is written through the ledger so the
// stock history starts at the true opening balance.
func (s *ProductService) Create(ctx context.Context, req model.ProductCreateRequest) (*model.Product, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	product := &model.Product{
		CompanyID:   req.CompanyID,
		Name:        req.Name,
		Description: req.Description,
		UnitPrice:   req.UnitPrice,
		Barcode:     req.Barcode,
	}
	for currency, price := range req.Prices {
		product.Prices = append(product.Prices, &model.ProductPrice{
			Currency: currency,
			Price:    price,
		})
	}

	var created *model.Product
	err := s.productRepo.WithinTransaction(ctx, func(ctx context.Context) error {
		p, err := s.productRepo.Create(ctx, product)
		if err != nil {
			return err
		}
		created = p

		if len(req.CategoryIDs) > 0 {
			if err := s.productRepo.AttachCategories(ctx, req.CompanyID, p.ID, req.CategoryIDs); err != nil {
				return err
			}
		}

		if req.Inventory > 0 {
			_, err := s.inventory.Adjust(ctx, model.StockAdjustRequest{
				CompanyID: req.CompanyID,
				ProductID: p.ID,
				Action:    model.StockActionAdd,
				Quantity:  req.Inventory,
				Comment:   "opening stock",
			})
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.productRepo.GetByID(ctx, req.CompanyID, created.ID)
}

func (s *ProductService) Get(ctx context.Context, companyID, productID int64) (*model.Product, error) {
	return s.productRepo.GetByID(ctx, companyID, productID)
}

func (s *ProductService) GetByBarcode(ctx context.Context, companyID int64, barcode string) (*model.Product, error) {
	return s.productRepo.GetByBarcode(ctx, companyID, barcode)
}

func (s *ProductService) List(ctx context.Context, companyID int64, limit, offset int) ([]*model.Product, int64, error) {
	return s.productRepo.List(ctx, companyID, limit, offset)
}

func (s *ProductService) Delete(ctx context.Context, companyID, productID int64) error {
	return s.productRepo.Delete(ctx, companyID, productID)
}

// SetPrice upserts the per-currency override for a product.
func (s *ProductService) SetPrice(ctx context.Context, companyID, productID int64, currency string, price int64) (*model.Product, error) {
	if _, err := s.productRepo.GetByID(ctx, companyID, productID); err != nil {
		return nil, err
	}
	if err := s.productRepo.UpdatePrice(ctx, productID, currency, price); err != nil {
		return nil, err
	}
	return s.productRepo.GetByID(ctx, companyID, productID)
}

func (s *ProductService) AttachCategories(ctx context.Context, companyID, productID int64, categoryIDs []int64) (*model.Product, error) {
	if err := s.productRepo.AttachCategories(ctx, companyID, productID, categoryIDs); err != nil {
		return nil, err
	}
	return s.productRepo.GetByID(ctx, companyID, productID)
}

func (s *ProductService) DetachCategory(ctx context.Context, companyID, productID, categoryID int64) (*model.Product, error) {
	if _, err := s.productRepo.GetByID(ctx, companyID, productID); err != nil {
		return nil, err
	}
	if err := s.productRepo.DetachCategory(ctx, productID, categoryID); err != nil {
		return nil, err
	}
	return s.productRepo.GetByID(ctx, companyID, productID)
}

func (s *ProductService) SyncCategories(ctx context.Context, companyID, productID int64, categoryIDs []int64) (*model.Product, error) {
	if err := s.productRepo.SyncCategories(ctx, companyID, productID, categoryIDs); err != nil {
		return nil, err
	}
	return s.productRepo.GetByID(ctx, companyID, productID)
}
