package handlers

import (
	"context"
	"time"

	"github.com/fasthttp/router"
	"github.com/orbio/invoice-gateway/internal/model"
	xhttp "github.com/orbio/invoice-gateway/pkg/http"
)

type OrderService interface {
	Create(ctx context.Context, req model.OrderCreateRequest) (*model.Order, error)
	CreateFromScan(ctx context.Context, companyID int64, barcode string, quantity int64) (*model.Order, error)
	Update(ctx context.Context, companyID, orderID int64, req model.OrderUpdateRequest) (*model.Order, error)
	Get(ctx context.Context, companyID, orderID int64) (*model.Order, error)
	List(ctx context.Context, companyID int64, limit, offset int) ([]*model.Order, int64, error)
	ReminderSchedule(ctx context.Context, companyID, orderID int64) ([]time.Time, error)
}

type OrderHandler struct {
	svc OrderService
}

func RegisterOrderRoutes(e *router.Group, h *OrderHandler) {
	e.POST("/orders", h.CreateOrder)
	e.POST("/orders/scan", h.CreateOrderFromScan)
	e.GET("/orders", h.ListOrders)
	e.GET("/orders/{id}", h.GetOrder)
	e.PATCH("/orders/{id}", h.UpdateOrder)
	e.GET("/orders/{id}/reminders", h.GetReminderSchedule)
}

func NewOrderHandler(orderService OrderService) *OrderHandler {
	return &OrderHandler{
		svc: orderService,
	}
}

type createOrderRequest struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Currency    string     `json:"currency"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	Reminder    bool       `json:"reminder"`

	ProductName     string `json:"product_name,omitempty"`
	ProductQuantity int64  `json:"product_quantity,omitempty"`
	ProductPrice    int64  `json:"product_price,omitempty"`

	Items []model.OrderItemRequest `json:"items,omitempty"`
}

type scanOrderRequest struct {
	Barcode  string `json:"barcode"`
	Quantity int64  `json:"quantity"`
}

type updateOrderRequest struct {
	Title       *string    `json:"title,omitempty"`
	Description *string    `json:"description,omitempty"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	Reminder    *bool      `json:"reminder,omitempty"`
	Currency    *string    `json:"currency,omitempty"`
	Amount      *int64     `json:"amount,omitempty"`

	Items []model.OrderItemRequest `json:"items,omitempty"`
}

type orderListResponse struct {
	Items []*model.Order `json:"items"`
	Total int64          `json:"total"`
}

type reminderResponse struct {
	OrderID int64       `json:"order_id"`
	Dates   []time.Time `json:"dates"`
}

/* --------------------------------- Routes ----------------------------------- */

func (h *OrderHandler) CreateOrder(ctx *xhttp.RequestCtx) {
	company, ok := requireCompany(ctx)
	if !ok {
		return
	}
	var req createOrderRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, xhttp.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	order, err := h.svc.Create(ctx, model.OrderCreateRequest{
		CompanyID:       company,
		Title:           req.Title,
		Description:     req.Description,
		Currency:        req.Currency,
		DueDate:         req.DueDate,
		Reminder:        req.Reminder,
		ProductName:     req.ProductName,
		ProductQuantity: req.ProductQuantity,
		ProductPrice:    req.ProductPrice,
		Items:           req.Items,
	})
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusCreated, order)
}

func (h *OrderHandler) CreateOrderFromScan(ctx *xhttp.RequestCtx) {
	company, ok := requireCompany(ctx)
	if !ok {
		return
	}
	var req scanOrderRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, xhttp.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	if req.Barcode == "" {
		writeError(ctx, xhttp.StatusBadRequest, "barcode is required")
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}
	order, err := h.svc.CreateFromScan(ctx, company, req.Barcode, req.Quantity)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusCreated, order)
}

func (h *OrderHandler) ListOrders(ctx *xhttp.RequestCtx) {
	company, ok := requireCompany(ctx)
	if !ok {
		return
	}
	limit := queryInt(ctx, "limit", 50)
	offset := queryInt(ctx, "offset", 0)

	items, total, err := h.svc.List(ctx, company, limit, offset)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, orderListResponse{Items: items, Total: total})
}

func (h *OrderHandler) GetOrder(ctx *xhttp.RequestCtx) {
	company, ok := requireCompany(ctx)
	if !ok {
		return
	}
	id, err := pathInt64(ctx, "id")
	if err != nil {
		writeError(ctx, xhttp.StatusBadRequest, "invalid order id")
		return
	}
	order, err := h.svc.Get(ctx, company, id)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, order)
}

func (h *OrderHandler) UpdateOrder(ctx *xhttp.RequestCtx) {
	company, ok := requireCompany(ctx)
	if !ok {
		return
	}
	id, err := pathInt64(ctx, "id")
	if err != nil {
		writeError(ctx, xhttp.StatusBadRequest, "invalid order id")
		return
	}
	var req updateOrderRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, xhttp.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	order, err := h.svc.Update(ctx, company, id, model.OrderUpdateRequest{
		Title:       req.Title,
		Description: req.Description,
		DueDate:     req.DueDate,
		Reminder:    req.Reminder,
		Currency:    req.Currency,
		Amount:      req.Amount,
		Items:       req.Items,
	})
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, order)
}

func (h *OrderHandler) GetReminderSchedule(ctx *xhttp.RequestCtx) {
	company, ok := requireCompany(ctx)
	if !ok {
		return
	}
	id, err := pathInt64(ctx, "id")
	if err != nil {
		writeError(ctx, xhttp.StatusBadRequest, "invalid order id")
		return
	}
	dates, err := h.svc.ReminderSchedule(ctx, company, id)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, reminderResponse{OrderID: id, Dates: dates})
}
