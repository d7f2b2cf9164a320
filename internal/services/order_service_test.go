package services

import (
	"context"
	"testing"
	"time"

	"github.com/orbio/invoice-gateway/internal/model"
	"github.com/orbio/invoice-gateway/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) Create(ctx context.Context, o *model.Order) (*model.Order, error) {
	args := m.Called(ctx, o)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

func (m *MockOrderRepository) GetByID(ctx context.Context, companyID, orderID int64) (*model.Order, error) {
	args := m.Called(ctx, companyID, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

func (m *MockOrderRepository) List(ctx context.Context, companyID int64, limit, offset int) ([]*model.Order, int64, error) {
	args := m.Called(ctx, companyID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]*model.Order), args.Get(1).(int64), args.Error(2)
}

func (m *MockOrderRepository) UpdateFields(ctx context.Context, companyID, orderID int64, fields map[string]interface{}) error {
	args := m.Called(ctx, companyID, orderID, fields)
	return args.Error(0)
}

func (m *MockOrderRepository) ReplaceItems(ctx context.Context, orderID int64, items []*model.OrderItem, amount int64) error {
	args := m.Called(ctx, orderID, items, amount)
	return args.Error(0)
}

func (m *MockOrderRepository) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	args := m.Called(ctx, fn)
	if args.Error(0) != nil {
		return args.Error(0)
	}
	return fn(ctx)
}

type MockOrderProductRepository struct {
	mock.Mock
}

func (m *MockOrderProductRepository) GetByID(ctx context.Context, companyID, productID int64) (*model.Product, error) {
	args := m.Called(ctx, companyID, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Product), args.Error(1)
}

func (m *MockOrderProductRepository) GetByBarcode(ctx context.Context, companyID int64, barcode string) (*model.Product, error) {
	args := m.Called(ctx, companyID, barcode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Product), args.Error(1)
}

type MockCompanyRepository struct {
	mock.Mock
}

func (m *MockCompanyRepository) GetCompany(ctx context.Context, companyID int64) (*model.Company, error) {
	args := m.Called(ctx, companyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Company), args.Error(1)
}

func TestOrderService_ResolveItems(t *testing.T) {
	ctx := context.Background()

	t.Run("snapshots unit prices and sums the total", func(t *testing.T) {
		orderRepo := new(MockOrderRepository)
		productRepo := new(MockOrderProductRepository)
		companyRepo := new(MockCompanyRepository)
		service := NewOrderService(orderRepo, productRepo, companyRepo, nil)

		companyRepo.On("GetCompany", ctx, int64(1)).
			Return(&model.Company{ID: 1, BaseCurrency: "NGN"}, nil)
		productRepo.On("GetByID", ctx, int64(1), int64(10)).
			Return(&model.Product{ID: 10, UnitPrice: 400, Prices: []*model.ProductPrice{{Currency: "USD", Price: 500}}}, nil)
		productRepo.On("GetByID", ctx, int64(1), int64(11)).
			Return(&model.Product{ID: 11, UnitPrice: 900, Prices: []*model.ProductPrice{{Currency: "USD", Price: 1000}}}, nil)

		items, total, err := service.ResolveItems(ctx, 1, "USD", []model.OrderItemRequest{
			{ProductID: 10, Quantity: 2},
			{ProductID: 11, Quantity: 3},
		})
		require.NoError(t, err)
		require.Len(t, items, 2)
		assert.Equal(t, int64(500), items[0].UnitPrice)
		assert.Equal(t, int64(1000), items[1].UnitPrice)
		assert.Equal(t, int64(2*500+3*1000), total)
	})

	t.Run("base currency falls back to the unit price", func(t *testing.T) {
		orderRepo := new(MockOrderRepository)
		productRepo := new(MockOrderProductRepository)
		companyRepo := new(MockCompanyRepository)
		service := NewOrderService(orderRepo, productRepo, companyRepo, nil)

		companyRepo.On("GetCompany", ctx, int64(1)).
			Return(&model.Company{ID: 1, BaseCurrency: "NGN"}, nil)
		productRepo.On("GetByID", ctx, int64(1), int64(10)).
			Return(&model.Product{ID: 10, UnitPrice: 400}, nil)

		items, total, err := service.ResolveItems(ctx, 1, "NGN", []model.OrderItemRequest{
			{ProductID: 10, Quantity: 1},
		})
		require.NoError(t, err)
		assert.Equal(t, int64(400), items[0].UnitPrice)
		assert.Equal(t, int64(400), total)
	})

	t.Run("currency without an override is rejected", func(t *testing.T) {
		orderRepo := new(MockOrderRepository)
		productRepo := new(MockOrderProductRepository)
		companyRepo := new(MockCompanyRepository)
		service := NewOrderService(orderRepo, productRepo, companyRepo, nil)

		companyRepo.On("GetCompany", ctx, int64(1)).
			Return(&model.Company{ID: 1, BaseCurrency: "NGN"}, nil)
		productRepo.On("GetByID", ctx, int64(1), int64(10)).
			Return(&model.Product{ID: 10, UnitPrice: 400}, nil)

		_, _, err := service.ResolveItems(ctx, 1, "EUR", []model.OrderItemRequest{
			{ProductID: 10, Quantity: 1},
		})
		assert.ErrorIs(t, err, ErrUnknownCurrency)
	})

	t.Run("one missing product aborts the whole list", func(t *testing.T) {
		orderRepo := new(MockOrderRepository)
		productRepo := new(MockOrderProductRepository)
		companyRepo := new(MockCompanyRepository)
		service := NewOrderService(orderRepo, productRepo, companyRepo, nil)

		companyRepo.On("GetCompany", ctx, int64(1)).
			Return(&model.Company{ID: 1, BaseCurrency: "NGN"}, nil)
		productRepo.On("GetByID", ctx, int64(1), int64(404)).
			Return(nil, repository.ErrProductNotFound)

		_, _, err := service.ResolveItems(ctx, 1, "NGN", []model.OrderItemRequest{
			{ProductID: 404, Quantity: 1},
			{ProductID: 10, Quantity: 1},
		})
		assert.ErrorIs(t, err, repository.ErrProductNotFound)
	})
}

func TestOrderService_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("inline product order computes amount directly", func(t *testing.T) {
		orderRepo := new(MockOrderRepository)
		productRepo := new(MockOrderProductRepository)
		companyRepo := new(MockCompanyRepository)
		service := NewOrderService(orderRepo, productRepo, companyRepo, nil)

		orderRepo.On("Create", ctx, mock.MatchedBy(func(o *model.Order) bool {
			return o.Amount == 1500 && o.ProductName == "Consulting" && o.FullyEditable
		})).Return(&model.Order{ID: 1, Amount: 1500}, nil)

		order, err := service.Create(ctx, model.OrderCreateRequest{
			CompanyID:       1,
			Title:           "March invoice",
			Currency:        "NGN",
			ProductName:     "Consulting",
			ProductQuantity: 3,
			ProductPrice:    500,
		})
		require.NoError(t, err)
		assert.Equal(t, int64(1500), order.Amount)
		productRepo.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("inline product and items are mutually exclusive", func(t *testing.T) {
		orderRepo := new(MockOrderRepository)
		service := NewOrderService(orderRepo, new(MockOrderProductRepository), new(MockCompanyRepository), nil)

		_, err := service.Create(ctx, model.OrderCreateRequest{
			CompanyID:   1,
			Currency:    "NGN",
			ProductName: "Consulting",
			Items:       []model.OrderItemRequest{{ProductID: 10, Quantity: 1}},
		})
		assert.Error(t, err)
		orderRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("reminder without a due date is rejected", func(t *testing.T) {
		service := NewOrderService(new(MockOrderRepository), new(MockOrderProductRepository), new(MockCompanyRepository), nil)

		_, err := service.Create(ctx, model.OrderCreateRequest{
			CompanyID:       1,
			Currency:        "NGN",
			ProductName:     "Consulting",
			ProductQuantity: 1,
			Reminder:        true,
		})
		assert.Error(t, err)
	})

	t.Run("item order resolves prices inside a transaction", func(t *testing.T) {
		orderRepo := new(MockOrderRepository)
		productRepo := new(MockOrderProductRepository)
		companyRepo := new(MockCompanyRepository)
		service := NewOrderService(orderRepo, productRepo, companyRepo, nil)

		companyRepo.On("GetCompany", ctx, int64(1)).
			Return(&model.Company{ID: 1, BaseCurrency: "NGN"}, nil)
		productRepo.On("GetByID", ctx, int64(1), int64(10)).
			Return(&model.Product{ID: 10, UnitPrice: 250}, nil)
		orderRepo.On("WithinTransaction", ctx, mock.Anything).Return(nil)
		orderRepo.On("Create", ctx, mock.MatchedBy(func(o *model.Order) bool {
			return o.Amount == 500 && len(o.Items) == 1
		})).Return(&model.Order{ID: 2, Amount: 500}, nil)

		order, err := service.Create(ctx, model.OrderCreateRequest{
			CompanyID: 1,
			Currency:  "NGN",
			Items:     []model.OrderItemRequest{{ProductID: 10, Quantity: 2}},
		})
		require.NoError(t, err)
		assert.Equal(t, int64(500), order.Amount)
		orderRepo.AssertExpectations(t)
	})
}

func TestOrderService_CreateFromScan(t *testing.T) {
	ctx := context.Background()

	orderRepo := new(MockOrderRepository)
	productRepo := new(MockOrderProductRepository)
	companyRepo := new(MockCompanyRepository)
	invProductRepo := new(MockInventoryProductRepository)
	stockRepo := new(MockStockEventRepository)
	inventory := NewInventoryService(invProductRepo, stockRepo, 0, 1)
	service := NewOrderService(orderRepo, productRepo, companyRepo, inventory)

	barcode := "4006381333931"
	productRepo.On("GetByBarcode", ctx, int64(1), barcode).
		Return(&model.Product{ID: 10, CompanyID: 1, Name: "Espresso beans", UnitPrice: 250, Inventory: 4}, nil)
	companyRepo.On("GetCompany", ctx, int64(1)).
		Return(&model.Company{ID: 1, BaseCurrency: "NGN"}, nil)
	orderRepo.On("WithinTransaction", ctx, mock.Anything).Return(nil)
	orderRepo.On("Create", ctx, mock.MatchedBy(func(o *model.Order) bool {
		return o.Title == "Espresso beans" && o.Amount == 500 && o.Currency == "NGN"
	})).Return(&model.Order{ID: 3, Amount: 500}, nil)

	invProductRepo.On("WithinTransaction", ctx, mock.Anything).Return(nil)
	stockRepo.On("Create", ctx, mock.MatchedBy(func(ev *model.StockEvent) bool {
		return ev.ProductID == 10 && ev.Action == model.StockActionSubtract && ev.Quantity == 2
	})).Return(&model.StockEvent{ID: 1}, nil)
	// the sale floor, not the manual one
	invProductRepo.On("AdjustInventory", ctx, int64(1), int64(10), model.StockActionSubtract, int64(2), int64(1)).
		Return(int64(2), nil)

	order, err := service.CreateFromScan(ctx, 1, barcode, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(500), order.Amount)

	invProductRepo.AssertExpectations(t)
	stockRepo.AssertExpectations(t)
}

func TestOrderService_Update(t *testing.T) {
	ctx := context.Background()

	t.Run("frozen fields are rejected after payment", func(t *testing.T) {
		orderRepo := new(MockOrderRepository)
		service := NewOrderService(orderRepo, new(MockOrderProductRepository), new(MockCompanyRepository), nil)

		orderRepo.On("GetByID", ctx, int64(1), int64(3)).
			Return(&model.Order{ID: 3, CompanyID: 1, Currency: "NGN", FullyEditable: false}, nil)

		currency := "USD"
		_, err := service.Update(ctx, 1, 3, model.OrderUpdateRequest{Currency: &currency})
		assert.ErrorIs(t, err, ErrFrozenField)
		orderRepo.AssertNotCalled(t, "UpdateFields", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("title stays editable after payment", func(t *testing.T) {
		orderRepo := new(MockOrderRepository)
		service := NewOrderService(orderRepo, new(MockOrderProductRepository), new(MockCompanyRepository), nil)

		title := "Final invoice"
		orderRepo.On("GetByID", ctx, int64(1), int64(3)).
			Return(&model.Order{ID: 3, CompanyID: 1, Currency: "NGN", FullyEditable: false}, nil).Once()
		orderRepo.On("WithinTransaction", ctx, mock.Anything).Return(nil)
		orderRepo.On("UpdateFields", ctx, int64(1), int64(3), map[string]interface{}{"title": title}).
			Return(nil)
		orderRepo.On("GetByID", ctx, int64(1), int64(3)).
			Return(&model.Order{ID: 3, CompanyID: 1, Title: title}, nil).Once()

		order, err := service.Update(ctx, 1, 3, model.OrderUpdateRequest{Title: &title})
		require.NoError(t, err)
		assert.Equal(t, title, order.Title)
	})

	t.Run("enabling a reminder requires a due date somewhere", func(t *testing.T) {
		orderRepo := new(MockOrderRepository)
		service := NewOrderService(orderRepo, new(MockOrderProductRepository), new(MockCompanyRepository), nil)

		orderRepo.On("GetByID", ctx, int64(1), int64(3)).
			Return(&model.Order{ID: 3, CompanyID: 1, FullyEditable: true}, nil)

		reminder := true
		_, err := service.Update(ctx, 1, 3, model.OrderUpdateRequest{Reminder: &reminder})
		assert.ErrorIs(t, err, ErrReminderNeedsDueDate)
	})

	t.Run("reminder plus due date in the same request is fine", func(t *testing.T) {
		orderRepo := new(MockOrderRepository)
		service := NewOrderService(orderRepo, new(MockOrderProductRepository), new(MockCompanyRepository), nil)

		due := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
		reminder := true
		orderRepo.On("GetByID", ctx, int64(1), int64(3)).
			Return(&model.Order{ID: 3, CompanyID: 1, FullyEditable: true}, nil)
		orderRepo.On("WithinTransaction", ctx, mock.Anything).Return(nil)
		orderRepo.On("UpdateFields", ctx, int64(1), int64(3), map[string]interface{}{
			"due_date": due,
			"reminder": true,
		}).Return(nil)

		_, err := service.Update(ctx, 1, 3, model.OrderUpdateRequest{DueDate: &due, Reminder: &reminder})
		require.NoError(t, err)
		orderRepo.AssertExpectations(t)
	})

	t.Run("replacing items clears the inline product", func(t *testing.T) {
		orderRepo := new(MockOrderRepository)
		productRepo := new(MockOrderProductRepository)
		companyRepo := new(MockCompanyRepository)
		service := NewOrderService(orderRepo, productRepo, companyRepo, nil)

		orderRepo.On("GetByID", ctx, int64(1), int64(3)).
			Return(&model.Order{
				ID: 3, CompanyID: 1, Currency: "NGN", FullyEditable: true,
				ProductName: "Consulting", ProductQuantity: 2, ProductPrice: 750,
			}, nil).Once()
		orderRepo.On("WithinTransaction", ctx, mock.Anything).Return(nil)
		orderRepo.On("UpdateFields", ctx, int64(1), int64(3), map[string]interface{}{
			"product_name":     "",
			"product_quantity": int64(0),
			"product_price":    int64(0),
		}).Return(nil)
		companyRepo.On("GetCompany", mock.Anything, int64(1)).
			Return(&model.Company{ID: 1, BaseCurrency: "NGN"}, nil)
		productRepo.On("GetByID", mock.Anything, int64(1), int64(10)).
			Return(&model.Product{ID: 10, CompanyID: 1, UnitPrice: 400}, nil)
		orderRepo.On("ReplaceItems", mock.Anything, int64(3), mock.Anything, int64(800)).
			Return(nil)
		orderRepo.On("GetByID", ctx, int64(1), int64(3)).
			Return(&model.Order{
				ID: 3, CompanyID: 1, Currency: "NGN", Amount: 800,
				Items: []*model.OrderItem{{ProductID: 10, Quantity: 2, UnitPrice: 400}},
			}, nil).Once()

		order, err := service.Update(ctx, 1, 3, model.OrderUpdateRequest{
			Items: []model.OrderItemRequest{{ProductID: 10, Quantity: 2}},
		})
		require.NoError(t, err)
		assert.Empty(t, order.ProductName)
		assert.Len(t, order.Items, 1)
		orderRepo.AssertExpectations(t)
	})
}

func TestOrderService_ReminderSchedule(t *testing.T) {
	ctx := context.Background()
	orderRepo := new(MockOrderRepository)
	service := NewOrderService(orderRepo, new(MockOrderProductRepository), new(MockCompanyRepository), nil)

	t.Run("schedule around the due date", func(t *testing.T) {
		due := time.Date(2026, 10, 15, 0, 0, 0, 0, time.UTC)
		orderRepo.On("GetByID", ctx, int64(1), int64(3)).
			Return(&model.Order{ID: 3, CompanyID: 1, DueDate: &due, Reminder: true}, nil).Once()

		dates, err := service.ReminderSchedule(ctx, 1, 3)
		require.NoError(t, err)
		require.Len(t, dates, 4)
		assert.Equal(t, due.AddDate(0, 0, -7), dates[0])
		assert.Equal(t, due.AddDate(0, 0, -3), dates[1])
		assert.Equal(t, due.AddDate(0, 0, -1), dates[2])
		assert.Equal(t, due, dates[3])
	})

	t.Run("no due date, no schedule", func(t *testing.T) {
		orderRepo.On("GetByID", ctx, int64(1), int64(4)).
			Return(&model.Order{ID: 4, CompanyID: 1}, nil).Once()

		_, err := service.ReminderSchedule(ctx, 1, 4)
		assert.ErrorIs(t, err, ErrReminderNeedsDueDate)
	})
}
