package handlers

import (
	"context"

	"github.com/fasthttp/router"
	"github.com/orbio/invoice-gateway/internal/model"
	xhttp "github.com/orbio/invoice-gateway/pkg/http"
)

type CustomerService interface {
	Create(ctx context.Context, companyID int64, name, email string) (*model.Customer, error)
	Get(ctx context.Context, companyID, customerID int64) (*model.Customer, error)
	List(ctx context.Context, companyID int64) ([]*model.Customer, error)
}

type CustomerHandler struct {
	svc CustomerService
}

func RegisterCustomerRoutes(e *router.Group, h *CustomerHandler) {
	e.POST("/customers", h.CreateCustomer)
	e.GET("/customers", h.ListCustomers)
	e.GET("/customers/{id}", h.GetCustomer)
}

func NewCustomerHandler(customerService CustomerService) *CustomerHandler {
	return &CustomerHandler{
		svc: customerService,
	}
}

type createCustomerRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type customerListResponse struct {
	Items []*model.Customer `json:"items"`
}

func (h *CustomerHandler) CreateCustomer(ctx *xhttp.RequestCtx) {
	company, ok := requireCompany(ctx)
	if !ok {
		return
	}
	var req createCustomerRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, xhttp.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	c, err := h.svc.Create(ctx, company, req.Name, req.Email)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusCreated, c)
}

func (h *CustomerHandler) ListCustomers(ctx *xhttp.RequestCtx) {
	company, ok := requireCompany(ctx)
	if !ok {
		return
	}
	items, err := h.svc.List(ctx, company)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, customerListResponse{Items: items})
}

func (h *CustomerHandler) GetCustomer(ctx *xhttp.RequestCtx) {
	company, ok := requireCompany(ctx)
	if !ok {
		return
	}
	id, err := pathInt64(ctx, "id")
	if err != nil {
		writeError(ctx, xhttp.StatusBadRequest, "invalid customer id")
		return
	}
	c, err := h.svc.Get(ctx, company, id)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, c)
}
