package handlers

import (
	"context"

	"github.com/fasthttp/router"
	"github.com/orbio/invoice-gateway/internal/model"
	xhttp "github.com/orbio/invoice-gateway/pkg/http"
)

type ProductService interface {
	Create(ctx context.Context, req model.ProductCreateRequest) (*model.Product, error)
	Get(ctx context.Context, companyID, productID int64) (*model.Product, error)
	List(ctx context.Context, companyID int64, limit, offset int) ([]*model.Product, int64, error)
	Delete(ctx context.Context, companyID, productID int64) error
	SetPrice(ctx context.Context, companyID, productID int64, currency string, price int64) (*model.Product, error)
	AttachCategories(ctx context.Context, companyID, productID int64, categoryIDs []int64) (*model.Product, error)
	DetachCategory(ctx context.Context, companyID, productID, categoryID int64) (*model.Product, error)
	SyncCategories(ctx context.Context, companyID, productID int64, categoryIDs []int64) (*model.Product, error)
}

type InventoryService interface {
	Adjust(ctx context.Context, req model.StockAdjustRequest) (*model.StockEvent, error)
	Ledger(ctx context.Context, companyID, productID int64) ([]*model.StockEvent, error)
}

type ProductHandler struct {
	svc       ProductService
	inventory InventoryService
}

func RegisterProductRoutes(e *router.Group, h *ProductHandler) {
	e.POST("/products", h.CreateProduct)
	e.GET("/products", h.ListProducts)
	e.GET("/products/{id}", h.GetProduct)
	e.DELETE("/products/{id}", h.DeleteProduct)
	e.PUT("/products/{id}/prices", h.SetPrice)
	e.POST("/products/{id}/categories", h.AttachCategories)
	e.PUT("/products/{id}/categories", h.SyncCategories)
	e.DELETE("/products/{id}/categories/{categoryID}", h.DetachCategory)
	e.POST("/products/{id}/stock", h.AdjustStock)
	e.GET("/products/{id}/stock", h.GetLedger)
}

func NewProductHandler(productService ProductService, inventoryService InventoryService) *ProductHandler {
	return &ProductHandler{
		svc:       productService,
		inventory: inventoryService,
	}
}

type createProductRequest struct {
	Name        string           `json:"name"`
	Description string           `json:"description"`
	UnitPrice   int64            `json:"unit_price"`
	Inventory   int64            `json:"inventory"`
	Barcode     *string          `json:"barcode,omitempty"`
	Prices      map[string]int64 `json:"prices,omitempty"`
	CategoryIDs []int64          `json:"category_ids,omitempty"`
}

type setPriceRequest struct {
	Currency string `json:"currency"`
	Price    int64  `json:"price"`
}

type categoriesRequest struct {
	CategoryIDs []int64 `json:"category_ids"`
}

type adjustStockRequest struct {
	Action   string `json:"action"`
	Quantity int64  `json:"quantity"`
	Comment  string `json:"comment,omitempty"`
}

type productListResponse struct {
	Items []*model.Product `json:"items"`
	Total int64            `json:"total"`
}

type ledgerResponse struct {
	ProductID int64               `json:"product_id"`
	Events    []*model.StockEvent `json:"events"`
}

/* --------------------------------- Routes ----------------------------------- */

func (h *ProductHandler) CreateProduct(ctx *xhttp.RequestCtx) {
	company, ok := requireCompany(ctx)
	if !ok {
		return
	}
	var req createProductRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, xhttp.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	p, err := h.svc.Create(ctx, model.ProductCreateRequest{
		CompanyID:   company,
		Name:        req.Name,
		Description: req.Description,
		UnitPrice:   req.UnitPrice,
		Inventory:   req.Inventory,
		Barcode:     req.Barcode,
		Prices:      req.Prices,
		CategoryIDs: req.CategoryIDs,
	})
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusCreated, p)
}

func (h *ProductHandler) ListProducts(ctx *xhttp.RequestCtx) {
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
	writeJSON(ctx, xhttp.StatusOK, productListResponse{Items: items, Total: total})
}

func (h *ProductHandler) GetProduct(ctx *xhttp.RequestCtx) {
	company, ok := requireCompany(ctx)
	if !ok {
		return
	}
	id, err := pathInt64(ctx, "id")
	if err != nil {
		writeError(ctx, xhttp.StatusBadRequest, "invalid product id")
		return
	}
	p, err := h.svc.Get(ctx, company, id)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, p)
}

func (h *ProductHandler) DeleteProduct(ctx *xhttp.RequestCtx) {
	company, ok := requireCompany(ctx)
	if !ok {
		return
	}
	id, err := pathInt64(ctx, "id")
	if err != nil {
		writeError(ctx, xhttp.StatusBadRequest, "invalid product id")
		return
	}
	if err := h.svc.Delete(ctx, company, id); err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, map[string]string{"status": "deleted"})
}

func (h *ProductHandler) SetPrice(ctx *xhttp.RequestCtx) {
	company, ok := requireCompany(ctx)
	if !ok {
		return
	}
	id, err := pathInt64(ctx, "id")
	if err != nil {
		writeError(ctx, xhttp.StatusBadRequest, "invalid product id")
		return
	}
	var req setPriceRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, xhttp.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	if req.Currency == "" {
		writeError(ctx, xhttp.StatusBadRequest, "currency is required")
		return
	}
	if req.Price < 0 {
		writeError(ctx, xhttp.StatusBadRequest, "price must not be negative")
		return
	}
	p, err := h.svc.SetPrice(ctx, company, id, req.Currency, req.Price)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, p)
}

func (h *ProductHandler) AttachCategories(ctx *xhttp.RequestCtx) {
	company, ok := requireCompany(ctx)
	if !ok {
		return
	}
	id, err := pathInt64(ctx, "id")
	if err != nil {
		writeError(ctx, xhttp.StatusBadRequest, "invalid product id")
		return
	}
	var req categoriesRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, xhttp.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	p, err := h.svc.AttachCategories(ctx, company, id, req.CategoryIDs)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, p)
}

func (h *ProductHandler) SyncCategories(ctx *xhttp.RequestCtx) {
	company, ok := requireCompany(ctx)
	if !ok {
		return
	}
	id, err := pathInt64(ctx, "id")
	if err != nil {
		writeError(ctx, xhttp.StatusBadRequest, "invalid product id")
		return
	}
	var req categoriesRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, xhttp.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	p, err := h.svc.SyncCategories(ctx, company, id, req.CategoryIDs)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, p)
}

func (h *ProductHandler) DetachCategory(ctx *xhttp.RequestCtx) {
	company, ok := requireCompany(ctx)
	if !ok {
		return
	}
	id, err := pathInt64(ctx, "id")
	if err != nil {
		writeError(ctx, xhttp.StatusBadRequest, "invalid product id")
		return
	}
	categoryID, err := pathInt64(ctx, "categoryID")
	if err != nil {
		writeError(ctx, xhttp.StatusBadRequest, "invalid category id")
		return
	}
	p, err := h.svc.DetachCategory(ctx, company, id, categoryID)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, p)
}

func (h *ProductHandler) AdjustStock(ctx *xhttp.RequestCtx) {
	company, ok := requireCompany(ctx)
	if !ok {
		return
	}
	id, err := pathInt64(ctx, "id")
	if err != nil {
		writeError(ctx, xhttp.StatusBadRequest, "invalid product id")
		return
	}
	var req adjustStockRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, xhttp.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	ev, err := h.inventory.Adjust(ctx, model.StockAdjustRequest{
		CompanyID: company,
		ProductID: id,
		Action:    model.StockAction(req.Action),
		Quantity:  req.Quantity,
		Comment:   req.Comment,
	})
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusCreated, ev)
}

func (h *ProductHandler) GetLedger(ctx *xhttp.RequestCtx) {
	company, ok := requireCompany(ctx)
	if !ok {
		return
	}
	id, err := pathInt64(ctx, "id")
	if err != nil {
		writeError(ctx, xhttp.StatusBadRequest, "invalid product id")
		return
	}
	events, err := h.inventory.Ledger(ctx, company, id)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, ledgerResponse{ProductID: id, Events: events})
}
