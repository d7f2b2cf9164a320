package services

import (
	"context"
	"errors"
	"testing"

	"github.com/orbio/invoice-gateway/internal/model"
	"github.com/orbio/invoice-gateway/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockInventoryProductRepository struct {
	mock.Mock
}

func (m *MockInventoryProductRepository) GetByID(ctx context.Context, companyID, productID int64) (*model.Product, error) {
	args := m.Called(ctx, companyID, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Product), args.Error(1)
}

func (m *MockInventoryProductRepository) AdjustInventory(ctx context.Context, companyID, productID int64, action model.StockAction, quantity, floor int64) (int64, error) {
	args := m.Called(ctx, companyID, productID, action, quantity, floor)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockInventoryProductRepository) GetInventory(ctx context.Context, companyID, productID int64) (int64, error) {
	args := m.Called(ctx, companyID, productID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockInventoryProductRepository) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	args := m.Called(ctx, fn)
	if args.Error(0) != nil {
		return args.Error(0)
	}
	return fn(ctx)
}

type MockStockEventRepository struct {
	mock.Mock
}

func (m *MockStockEventRepository) Create(ctx context.Context, ev *model.StockEvent) (*model.StockEvent, error) {
	args := m.Called(ctx, ev)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.StockEvent), args.Error(1)
}

func (m *MockStockEventRepository) ListByProduct(ctx context.Context, productID int64) ([]*model.StockEvent, error) {
	args := m.Called(ctx, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.StockEvent), args.Error(1)
}

func TestInventoryService_Adjust(t *testing.T) {
	ctx := context.Background()

	t.Run("records the event and updates inventory in one transaction", func(t *testing.T) {
		productRepo := new(MockInventoryProductRepository)
		stockRepo := new(MockStockEventRepository)
		service := NewInventoryService(productRepo, stockRepo, 0, 1)

		req := model.StockAdjustRequest{
			CompanyID: 1,
			ProductID: 5,
			Action:    model.StockActionAdd,
			Quantity:  10,
			Comment:   "restock",
		}

		productRepo.On("WithinTransaction", ctx, mock.AnythingOfType("func(context.Context) error")).
			Return(nil)
		stockRepo.On("Create", ctx, mock.MatchedBy(func(ev *model.StockEvent) bool {
			return ev.ProductID == 5 && ev.Action == model.StockActionAdd && ev.Quantity == 10
		})).Return(&model.StockEvent{ID: 1, ProductID: 5, Action: model.StockActionAdd, Quantity: 10}, nil)
		productRepo.On("AdjustInventory", ctx, int64(1), int64(5), model.StockActionAdd, int64(10), int64(0)).
			Return(int64(10), nil)

		ev, err := service.Adjust(ctx, req)
		require.NoError(t, err)
		assert.Equal(t, int64(10), ev.Quantity)

		productRepo.AssertExpectations(t)
		stockRepo.AssertExpectations(t)
	})

	t.Run("manual and sale adjustments use different floors", func(t *testing.T) {
		productRepo := new(MockInventoryProductRepository)
		stockRepo := new(MockStockEventRepository)
		service := NewInventoryService(productRepo, stockRepo, 0, 1)

		req := model.StockAdjustRequest{
			CompanyID: 1,
			ProductID: 5,
			Action:    model.StockActionSubtract,
			Quantity:  3,
		}

		productRepo.On("WithinTransaction", ctx, mock.Anything).Return(nil)
		stockRepo.On("Create", ctx, mock.Anything).
			Return(&model.StockEvent{ID: 2, ProductID: 5, Action: model.StockActionSubtract, Quantity: 3}, nil)
		productRepo.On("AdjustInventory", ctx, int64(1), int64(5), model.StockActionSubtract, int64(3), int64(0)).
			Return(int64(0), nil).Once()
		productRepo.On("AdjustInventory", ctx, int64(1), int64(5), model.StockActionSubtract, int64(3), int64(1)).
			Return(int64(1), nil).Once()

		_, err := service.Adjust(ctx, req)
		require.NoError(t, err)
		_, err = service.AdjustForSale(ctx, req)
		require.NoError(t, err)

		productRepo.AssertExpectations(t)
	})

	t.Run("invalid request never reaches the repository", func(t *testing.T) {
		productRepo := new(MockInventoryProductRepository)
		stockRepo := new(MockStockEventRepository)
		service := NewInventoryService(productRepo, stockRepo, 0, 1)

		_, err := service.Adjust(ctx, model.StockAdjustRequest{
			CompanyID: 1,
			ProductID: 5,
			Action:    "transfer",
			Quantity:  3,
		})
		assert.Error(t, err)
		productRepo.AssertNotCalled(t, "WithinTransaction", mock.Anything, mock.Anything)
	})

	t.Run("missing product passes through untranslated", func(t *testing.T) {
		productRepo := new(MockInventoryProductRepository)
		stockRepo := new(MockStockEventRepository)
		service := NewInventoryService(productRepo, stockRepo, 0, 1)

		productRepo.On("WithinTransaction", ctx, mock.Anything).
			Return(repository.ErrProductNotFound)

		_, err := service.Adjust(ctx, model.StockAdjustRequest{
			CompanyID: 1,
			ProductID: 404,
			Action:    model.StockActionAdd,
			Quantity:  1,
		})
		assert.ErrorIs(t, err, repository.ErrProductNotFound)
		assert.NotErrorIs(t, err, ErrStockAdjustmentFailed)
	})

	t.Run("other failures wrap ErrStockAdjustmentFailed", func(t *testing.T) {
		productRepo := new(MockInventoryProductRepository)
		stockRepo := new(MockStockEventRepository)
		service := NewInventoryService(productRepo, stockRepo, 0, 1)

		productRepo.On("WithinTransaction", ctx, mock.Anything).
			Return(errors.New("deadlock detected"))

		_, err := service.Adjust(ctx, model.StockAdjustRequest{
			CompanyID: 1,
			ProductID: 5,
			Action:    model.StockActionAdd,
			Quantity:  1,
		})
		assert.ErrorIs(t, err, ErrStockAdjustmentFailed)
	})
}

func TestInventoryService_Ledger(t *testing.T) {
	ctx := context.Background()
	productRepo := new(MockInventoryProductRepository)
	stockRepo := new(MockStockEventRepository)
	service := NewInventoryService(productRepo, stockRepo, 0, 1)

	t.Run("returns events for an existing product", func(t *testing.T) {
		productRepo.On("GetByID", ctx, int64(1), int64(5)).
			Return(&model.Product{ID: 5, CompanyID: 1}, nil).Once()
		stockRepo.On("ListByProduct", ctx, int64(5)).
			Return([]*model.StockEvent{{ID: 1}, {ID: 2}}, nil).Once()

		events, err := service.Ledger(ctx, 1, 5)
		require.NoError(t, err)
		assert.Len(t, events, 2)
	})

	t.Run("missing product aborts before the ledger read", func(t *testing.T) {
		productRepo.On("GetByID", ctx, int64(1), int64(404)).
			Return(nil, repository.ErrProductNotFound).Once()

		_, err := service.Ledger(ctx, 1, 404)
		assert.ErrorIs(t, err, repository.ErrProductNotFound)
		stockRepo.AssertNotCalled(t, "ListByProduct", ctx, int64(404))
	})
}
