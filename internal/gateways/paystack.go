package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/orbio/invoice-gateway/internal/model"
	"github.com/orbio/invoice-gateway/pkg/logger"
	"github.com/valyala/fasthttp"
)

const ChannelPaystack = "paystack"

// Paystack talks to the Paystack transaction API. Paystack amounts are in
// minor currency units (kobo for NGN), so ToProviderUnits multiplies by 100
// and Verify divides on the way back.
type Paystack struct {
	baseURL string
	timeout time.Duration
	client  *fasthttp.Client
}

func NewPaystack(baseURL string, timeout time.Duration) *Paystack {
	return &Paystack{
		baseURL: baseURL,
		timeout: timeout,
		client:  newHTTPClient(timeout),
	}
}

func (p *Paystack) Channel() string { return ChannelPaystack }

func (p *Paystack) ToProviderUnits(amount int64) int64 { return amount * 100 }

type paystackInitRequest struct {
	Email       string `json:"email"`
	Amount      int64  `json:"amount"`
	Currency    string `json:"currency"`
	Reference   string `json:"reference"`
	CallbackURL string `json:"callback_url"`
}

type paystackInitResponse struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Data    struct {
		AuthorizationURL string `json:"authorization_url"`
		AccessCode       string `json:"access_code"`
		Reference        string `json:"reference"`
	} `json:"data"`
}

type paystackVerifyResponse struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Data    struct {
		Status    string `json:"status"`
		Amount    int64  `json:"amount"`
		Currency  string `json:"currency"`
		Reference string `json:"reference"`
	} `json:"data"`
}

func (p *Paystack) Initialize(ctx context.Context, cfg *model.GatewayConfig, order *model.Order, customer *model.Customer, callbackURL string) (*InitializeResult, error) {
	reference := newReference()
	reqBody, err := json.Marshal(paystackInitRequest{
		Email:       customer.Email,
		Amount:      p.ToProviderUnits(order.Amount),
		Currency:    order.Currency,
		Reference:   reference,
		CallbackURL: callbackURL,
	})
	if err != nil {
		return nil, newGatewayError(ChannelPaystack, "failed to marshal initialize request", err)
	}

	body, status, err := doRequest(ctx, p.client, p.timeout, "POST", p.baseURL+"/transaction/initialize", cfg.SecretKey, reqBody)
	if err != nil {
		return nil, newGatewayError(ChannelPaystack, "initialize call failed", err)
	}

	var resp paystackInitResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, newGatewayError(ChannelPaystack, "failed to decode initialize response", err)
	}
	if status != fasthttp.StatusOK || !resp.Status {
		return nil, newGatewayError(ChannelPaystack, resp.Message, fmt.Errorf("status code %d", status))
	}

	logger.Info("paystack transaction initialized", "order_id", order.ID, "reference", resp.Data.Reference)

	return &InitializeResult{
		RedirectURL: resp.Data.AuthorizationURL,
		Reference:   resp.Data.Reference,
	}, nil
}

func (p *Paystack) Verify(ctx context.Context, cfg *model.GatewayConfig, reference string) (*VerifyResult, error) {
	url := fmt.Sprintf("%s/transaction/verify/%s", p.baseURL, reference)
	body, status, err := doRequest(ctx, p.client, p.timeout, "GET", url, cfg.SecretKey, nil)
	if err != nil {
		return nil, newGatewayError(ChannelPaystack, "verify call failed", err)
	}

	var resp paystackVerifyResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, newGatewayError(ChannelPaystack, "failed to decode verify response", err)
	}
	if status != fasthttp.StatusOK || !resp.Status {
		return nil, newGatewayError(ChannelPaystack, resp.Message, fmt.Errorf("status code %d", status))
	}

	return &VerifyResult{
		Success:   resp.Data.Status == "success",
		Amount:    resp.Data.Amount / 100, // kobo back to major units
		Currency:  resp.Data.Currency,
		Reference: resp.Data.Reference,
		Raw:       body,
	}, nil
}
