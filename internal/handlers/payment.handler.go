package handlers

import (
	"context"

	"github.com/fasthttp/router"
	gateway "github.com/orbio/invoice-gateway/internal/gateways"
	"github.com/orbio/invoice-gateway/internal/model"
	xhttp "github.com/orbio/invoice-gateway/pkg/http"
)

type PaymentService interface {
	Initialize(ctx context.Context, companyID, orderID, customerID int64, channel string) (*gateway.InitializeResult, error)
	Settle(ctx context.Context, companyID, orderID, customerID int64, channel, reference string) (*model.PaymentTransaction, error)
	Receipt(ctx context.Context, companyID, customerID int64, channel, reference string) (*model.PaymentTransaction, error)
}

type PaymentHandler struct {
	svc PaymentService
}

func RegisterPaymentRoutes(e *router.Group, h *PaymentHandler) {
	e.POST("/payments/initialize", h.InitializePayment)
	e.POST("/payments/verify", h.VerifyPayment)
	e.GET("/payments/receipt", h.GetReceipt)
}

func NewPaymentHandler(paymentService PaymentService) *PaymentHandler {
	return &PaymentHandler{
		svc: paymentService,
	}
}

type initializePaymentRequest struct {
	OrderID    int64  `json:"order_id"`
	CustomerID int64  `json:"customer_id"`
	Channel    string `json:"channel"`
}

type verifyPaymentRequest struct {
	OrderID    int64  `json:"order_id"`
	CustomerID int64  `json:"customer_id"`
	Channel    string `json:"channel"`
	Reference  string `json:"reference"`
}

type verifyPaymentResponse struct {
	Status      string                    `json:"status"`
	Transaction *model.PaymentTransaction `json:"transaction"`
}

/* --------------------------------- Routes ----------------------------------- */

func (h *PaymentHandler) InitializePayment(ctx *xhttp.RequestCtx) {
	company, ok := requireCompany(ctx)
	if !ok {
		return
	}
	var req initializePaymentRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, xhttp.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	if req.OrderID == 0 || req.CustomerID == 0 || req.Channel == "" {
		writeError(ctx, xhttp.StatusBadRequest, "order_id, customer_id and channel are required")
		return
	}
	result, err := h.svc.Initialize(ctx, company, req.OrderID, req.CustomerID, req.Channel)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, result)
}

func (h *PaymentHandler) VerifyPayment(ctx *xhttp.RequestCtx) {
	company, ok := requireCompany(ctx)
	if !ok {
		return
	}
	var req verifyPaymentRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, xhttp.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	if req.OrderID == 0 || req.CustomerID == 0 || req.Channel == "" || req.Reference == "" {
		writeError(ctx, xhttp.StatusBadRequest, "order_id, customer_id, channel and reference are required")
		return
	}
	txn, err := h.svc.Settle(ctx, company, req.OrderID, req.CustomerID, req.Channel, req.Reference)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, verifyPaymentResponse{Status: "paid", Transaction: txn})
}

func (h *PaymentHandler) GetReceipt(ctx *xhttp.RequestCtx) {
	company, ok := requireCompany(ctx)
	if !ok {
		return
	}
	customerID, err := paramInt64(ctx, "customer_id")
	if err != nil || customerID == 0 {
		writeError(ctx, xhttp.StatusBadRequest, "customer_id is required")
		return
	}
	channel := query(ctx, "channel")
	reference := query(ctx, "reference")
	if channel == "" || reference == "" {
		writeError(ctx, xhttp.StatusBadRequest, "channel and reference are required")
		return
	}
	txn, err := h.svc.Receipt(ctx, company, customerID, channel, reference)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, txn)
}
