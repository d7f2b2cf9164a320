package handlers

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/orbio/invoice-gateway/internal/model"
	"github.com/orbio/invoice-gateway/internal/repository"
	"github.com/orbio/invoice-gateway/internal/services"
	xhttp "github.com/orbio/invoice-gateway/pkg/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
)

type MockOrderService struct {
	mock.Mock
}

func (m *MockOrderService) Create(ctx context.Context, req model.OrderCreateRequest) (*model.Order, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

func (m *MockOrderService) CreateFromScan(ctx context.Context, companyID int64, barcode string, quantity int64) (*model.Order, error) {
	args := m.Called(ctx, companyID, barcode, quantity)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

func (m *MockOrderService) Update(ctx context.Context, companyID, orderID int64, req model.OrderUpdateRequest) (*model.Order, error) {
	args := m.Called(ctx, companyID, orderID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

func (m *MockOrderService) Get(ctx context.Context, companyID, orderID int64) (*model.Order, error) {
	args := m.Called(ctx, companyID, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

func (m *MockOrderService) List(ctx context.Context, companyID int64, limit, offset int) ([]*model.Order, int64, error) {
	args := m.Called(ctx, companyID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]*model.Order), args.Get(1).(int64), args.Error(2)
}

func (m *MockOrderService) ReminderSchedule(ctx context.Context, companyID, orderID int64) ([]time.Time, error) {
	args := m.Called(ctx, companyID, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]time.Time), args.Error(1)
}

func setupTestContext(method, path string, body []byte) *xhttp.RequestCtx {
	ctx := &fasthttp.RequestCtx{}
	ctx.Request.Header.SetMethod(method)
	ctx.Request.SetRequestURI(path)
	ctx.Request.Header.Set(companyHeader, "1")
	if body != nil {
		ctx.Request.SetBody(body)
	}
	return ctx
}

func TestOrderHandler_CreateOrder(t *testing.T) {
	t.Run("successful order creation", func(t *testing.T) {
		svc := new(MockOrderService)
		handler := NewOrderHandler(svc)

		reqBody := createOrderRequest{
			Title:    "March invoice",
			Currency: "NGN",
			Items:    []model.OrderItemRequest{{ProductID: 10, Quantity: 2}},
		}
		bodyBytes, _ := json.Marshal(reqBody)

		svc.On("Create", mock.Anything, mock.MatchedBy(func(req model.OrderCreateRequest) bool {
			return req.CompanyID == 1 && req.Title == "March invoice" && len(req.Items) == 1
		})).Return(&model.Order{ID: 3, Amount: 500, Currency: "NGN"}, nil)

		ctx := setupTestContext("POST", "/orders", bodyBytes)
		handler.CreateOrder(ctx)

		assert.Equal(t, 201, ctx.Response.StatusCode())

		var response model.Order
		require.NoError(t, json.Unmarshal(ctx.Response.Body(), &response))
		assert.Equal(t, int64(3), response.ID)
		assert.Equal(t, int64(500), response.Amount)

		svc.AssertExpectations(t)
	})

	t.Run("missing company header", func(t *testing.T) {
		svc := new(MockOrderService)
		handler := NewOrderHandler(svc)

		ctx := setupTestContext("POST", "/orders", []byte(`{}`))
		ctx.Request.Header.Del(companyHeader)
		handler.CreateOrder(ctx)

		assert.Equal(t, 400, ctx.Response.StatusCode())
		svc.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("invalid JSON", func(t *testing.T) {
		svc := new(MockOrderService)
		handler := NewOrderHandler(svc)

		ctx := setupTestContext("POST", "/orders", []byte("not json"))
		handler.CreateOrder(ctx)

		assert.Equal(t, 400, ctx.Response.StatusCode())
	})
}

func TestOrderHandler_CreateOrderFromScan(t *testing.T) {
	t.Run("quantity defaults to one", func(t *testing.T) {
		svc := new(MockOrderService)
		handler := NewOrderHandler(svc)

		svc.On("CreateFromScan", mock.Anything, int64(1), "4006381333931", int64(1)).
			Return(&model.Order{ID: 4, Amount: 250}, nil)

		ctx := setupTestContext("POST", "/orders/scan", []byte(`{"barcode":"4006381333931"}`))
		handler.CreateOrderFromScan(ctx)

		assert.Equal(t, 201, ctx.Response.StatusCode())
		svc.AssertExpectations(t)
	})

	t.Run("barcode is required", func(t *testing.T) {
		svc := new(MockOrderService)
		handler := NewOrderHandler(svc)

		ctx := setupTestContext("POST", "/orders/scan", []byte(`{"quantity":2}`))
		handler.CreateOrderFromScan(ctx)

		assert.Equal(t, 400, ctx.Response.StatusCode())
		svc.AssertNotCalled(t, "CreateFromScan", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestOrderHandler_UpdateOrder(t *testing.T) {
	t.Run("frozen field maps to forbidden", func(t *testing.T) {
		svc := new(MockOrderService)
		handler := NewOrderHandler(svc)

		svc.On("Update", mock.Anything, int64(1), int64(3), mock.Anything).
			Return(nil, services.ErrFrozenField)

		ctx := setupTestContext("PATCH", "/orders/3", []byte(`{"currency":"USD"}`))
		ctx.SetUserValue("id", "3")
		handler.UpdateOrder(ctx)

		assert.Equal(t, 403, ctx.Response.StatusCode())
	})

	t.Run("unknown order maps to not found", func(t *testing.T) {
		svc := new(MockOrderService)
		handler := NewOrderHandler(svc)

		svc.On("Update", mock.Anything, int64(1), int64(404), mock.Anything).
			Return(nil, repository.ErrOrderNotFound)

		ctx := setupTestContext("PATCH", "/orders/404", []byte(`{"title":"x"}`))
		ctx.SetUserValue("id", "404")
		handler.UpdateOrder(ctx)

		assert.Equal(t, 404, ctx.Response.StatusCode())
	})

	t.Run("invalid id in path", func(t *testing.T) {
		svc := new(MockOrderService)
		handler := NewOrderHandler(svc)

		ctx := setupTestContext("PATCH", "/orders/abc", []byte(`{"title":"x"}`))
		ctx.SetUserValue("id", "abc")
		handler.UpdateOrder(ctx)

		assert.Equal(t, 400, ctx.Response.StatusCode())
	})
}

func TestOrderHandler_ListOrders(t *testing.T) {
	svc := new(MockOrderService)
	handler := NewOrderHandler(svc)

	svc.On("List", mock.Anything, int64(1), 10, 20).
		Return([]*model.Order{{ID: 1}, {ID: 2}}, int64(42), nil)

	ctx := setupTestContext("GET", "/orders?limit=10&offset=20", nil)
	handler.ListOrders(ctx)

	assert.Equal(t, 200, ctx.Response.StatusCode())

	var response orderListResponse
	require.NoError(t, json.Unmarshal(ctx.Response.Body(), &response))
	assert.Len(t, response.Items, 2)
	assert.Equal(t, int64(42), response.Total)
}

func TestOrderHandler_GetReminderSchedule(t *testing.T) {
	svc := new(MockOrderService)
	handler := NewOrderHandler(svc)

	due := time.Date(2026, 10, 15, 0, 0, 0, 0, time.UTC)
	svc.On("ReminderSchedule", mock.Anything, int64(1), int64(3)).
		Return([]time.Time{due.AddDate(0, 0, -7), due.AddDate(0, 0, -3), due.AddDate(0, 0, -1), due}, nil)

	ctx := setupTestContext("GET", "/orders/3/reminders", nil)
	ctx.SetUserValue("id", "3")
	handler.GetReminderSchedule(ctx)

	assert.Equal(t, 200, ctx.Response.StatusCode())

	var response reminderResponse
	require.NoError(t, json.Unmarshal(ctx.Response.Body(), &response))
	assert.Equal(t, int64(3), response.OrderID)
	assert.Len(t, response.Dates, 4)
}
