package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/orbio/invoice-gateway/internal/model"
	"github.com/orbio/invoice-gateway/pkg/logger"
	"github.com/valyala/fasthttp"
)

const ChannelRave = "rave"

// Rave talks to the Flutterwave/Rave payments API. Unlike paystack, rave
// takes amounts in major currency units as-is, so ToProviderUnits is the
// identity. The asymmetry is real provider behavior, not something to unify.
type Rave struct {
	baseURL string
	timeout time.Duration
	client  *fasthttp.Client
}

func NewRave(baseURL string, timeout time.Duration) *Rave {
	return &Rave{
		baseURL: baseURL,
		timeout: timeout,
		client:  newHTTPClient(timeout),
	}
}

func (r *Rave) Channel() string { return ChannelRave }

func (r *Rave) ToProviderUnits(amount int64) int64 { return amount }

type raveInitRequest struct {
	TxRef       string       `json:"tx_ref"`
	Amount      int64        `json:"amount"`
	Currency    string       `json:"currency"`
	RedirectURL string       `json:"redirect_url"`
	Customer    raveCustomer `json:"customer"`
}

type raveCustomer struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

type raveInitResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Data    struct {
		Link string `json:"link"`
	} `json:"data"`
}

type raveVerifyResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Data    struct {
		Status   string `json:"status"`
		Amount   int64  `json:"amount"`
		Currency string `json:"currency"`
		TxRef    string `json:"tx_ref"`
	} `json:"data"`
}

func (r *Rave) Initialize(ctx context.Context, cfg *model.GatewayConfig, order *model.Order, customer *model.Customer, callbackURL string) (*InitializeResult, error) {
	reference := newReference()
	reqBody, err := json.Marshal(raveInitRequest{
		TxRef:       reference,
		Amount:      r.ToProviderUnits(order.Amount),
		Currency:    order.Currency,
		RedirectURL: callbackURL,
		Customer: raveCustomer{
			Email: customer.Email,
			Name:  customer.Name,
		},
	})
	if err != nil {
		return nil, newGatewayError(ChannelRave, "failed to marshal initialize request", err)
	}

	body, status, err := doRequest(ctx, r.client, r.timeout, "POST", r.baseURL+"/v3/payments", cfg.SecretKey, reqBody)
	if err != nil {
		return nil, newGatewayError(ChannelRave, "initialize call failed", err)
	}

	var resp raveInitResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, newGatewayError(ChannelRave, "failed to decode initialize response", err)
	}
	if status != fasthttp.StatusOK || resp.Status != "success" {
		return nil, newGatewayError(ChannelRave, resp.Message, fmt.Errorf("status code %d", status))
	}

	logger.Info("rave transaction initialized", "order_id", order.ID, "reference", reference)

	return &InitializeResult{
		RedirectURL: resp.Data.Link,
		Reference:   reference,
	}, nil
}

func (r *Rave) Verify(ctx context.Context, cfg *model.GatewayConfig, reference string) (*VerifyResult, error) {
	url := fmt.Sprintf("%s/v3/transactions/verify_by_reference?tx_ref=%s", r.baseURL, reference)
	body, status, err := doRequest(ctx, r.client, r.timeout, "GET", url, cfg.SecretKey, nil)
	if err != nil {
		return nil, newGatewayError(ChannelRave, "verify call failed", err)
	}

	var resp raveVerifyResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, newGatewayError(ChannelRave, "failed to decode verify response", err)
	}
	if status != fasthttp.StatusOK || resp.Status != "success" {
		return nil, newGatewayError(ChannelRave, resp.Message, fmt.Errorf("status code %d", status))
	}

	return &VerifyResult{
		Success:   resp.Data.Status == "successful",
		Amount:    resp.Data.Amount,
		Currency:  resp.Data.Currency,
		Reference: resp.Data.TxRef,
		Raw:       body,
	}, nil
}

func newReference() string {
	return uuid.NewString()
}
