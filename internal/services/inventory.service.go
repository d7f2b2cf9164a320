package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/orbio/invoice-gateway/internal/model"
)

var (
	ErrStockAdjustmentFailed = errors.New("stock adjustment failed")
)

type InventoryProductRepository interface {
	GetByID(ctx context.Context, companyID, productID int64) (*model.Product, error)
	AdjustInventory(ctx context.Context, companyID, productID int64, action model.StockAction, quantity, floor int64) (int64, error)
	GetInventory(ctx context.Context, companyID, productID int64) (int64, error)
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type StockEventRepository interface {
	Create(ctx context.Context, ev *model.StockEvent) (*model.StockEvent, error)
	ListByProduct(ctx context.Context, productID int64) ([]*model.StockEvent, error)
}

// InventoryService owns every inventory mutation. Manual adjustments and
// sale decrements both funnel through the same locked read-modify-write, so
// the ledger and the persisted running total cannot drift apart.
type InventoryService struct {
	productRepo InventoryProductRepository
	stockRepo   StockEventRepository
	manualFloor int64
	saleFloor   int64
}

func NewInventoryService(productRepo InventoryProductRepository, stockRepo StockEventRepository, manualFloor, saleFloor int64) *InventoryService {
	return &InventoryService{
		productRepo: productRepo,
		stockRepo:   stockRepo,
		manualFloor: manualFloor,
		saleFloor:   saleFloor,
	}
}

// Adjust applies a manual stock movement (floor 0 by default).
func (s *InventoryService) Adjust(ctx context.Context, req model.StockAdjustRequest) (*model.StockEvent, error) {
	return s.adjust(ctx, req, s.manualFloor)
}

// AdjustForSale applies a sale-triggered movement (floor 1 by default, after
// the behavior of barcode-scan sales).
func (s *InventoryService) AdjustForSale(ctx context.Context, req model.StockAdjustRequest) (*model.StockEvent, error) {
	return s.adjust(ctx, req, s.saleFloor)
}

func (s *InventoryService) adjust(ctx context.Context, req model.StockAdjustRequest, floor int64) (*model.StockEvent, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var created *model.StockEvent
	err := s.productRepo.WithinTransaction(ctx, func(ctx context.Context) error {
		// the ledger row records the requested quantity verbatim, even
		// when the inventory update below clamps at the floor
		ev, err := s.stockRepo.Create(ctx, &model.StockEvent{
			ProductID: req.ProductID,
			Action:    req.Action,
			Quantity:  req.Quantity,
			Comment:   req.Comment,
		})
		if err != nil {
			return fmt.Errorf("record stock event: %w", err)
		}
		created = ev

		if _, err := s.productRepo.AdjustInventory(ctx, req.CompanyID, req.ProductID, req.Action, req.Quantity, floor); err != nil {
			return fmt.Errorf("update inventory: %w", err)
		}
		return nil
	})
	if err != nil {
		if isNotFound(err) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrStockAdjustmentFailed, err)
	}
	return created, nil
}

// Ledger returns the product's stock events in insertion order.
func (s *InventoryService) Ledger(ctx context.Context, companyID, productID int64) ([]*model.StockEvent, error) {
	if _, err := s.productRepo.GetByID(ctx, companyID, productID); err != nil {
		return nil, err
	}
	return s.stockRepo.ListByProduct(ctx, productID)
}
