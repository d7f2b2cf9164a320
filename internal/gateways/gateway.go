package gateway

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/orbio/invoice-gateway/internal/model"
	"github.com/valyala/fasthttp"
)

var (
	ErrUnknownChannel = errors.New("unknown payment channel")
)

// InitializeResult is the normalized outcome of starting a checkout with a
// provider.
type InitializeResult struct {
	RedirectURL string
	Reference   string
}

// VerifyResult is the normalized outcome of a provider verification. Amount
// is always in major currency units regardless of what the provider speaks.
type VerifyResult struct {
	Success   bool
	Amount    int64
	Currency  string
	Reference string
	Raw       []byte
}

// Gateway abstracts one payment provider. Each implementation owns the
// translation between major currency units and whatever unit its provider
// expects (see ToProviderUnits).
type Gateway interface {
	Channel() string

	// ToProviderUnits converts an amount in major currency units into the
	// unit this provider's API expects.
	ToProviderUnits(amount int64) int64

	Initialize(ctx context.Context, cfg *model.GatewayConfig, order *model.Order, customer *model.Customer, callbackURL string) (*InitializeResult, error)
	Verify(ctx context.Context, cfg *model.GatewayConfig, reference string) (*VerifyResult, error)
}

// GatewayError wraps a failed provider call. The provider's own message is
// kept for the caller; order and customer state stay untouched.
type GatewayError struct {
	Channel string
	Message string
	Err     error
}

func (e *GatewayError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("gateway %s: %s: %v", e.Channel, e.Message, e.Err)
	}
	return fmt.Sprintf("gateway %s: %s", e.Channel, e.Message)
}

func (e *GatewayError) Unwrap() error { return e.Err }

func newGatewayError(channel, message string, err error) *GatewayError {
	return &GatewayError{Channel: channel, Message: message, Err: err}
}

// Registry maps channel names to gateway implementations. Adding a provider
// is a Register call, not a new switch branch.
type Registry struct {
	mu       sync.RWMutex
	gateways map[string]Gateway
}

func NewRegistry(gateways ...Gateway) *Registry {
	r := &Registry{gateways: make(map[string]Gateway)}
	for _, g := range gateways {
		r.Register(g)
	}
	return r
}

func (r *Registry) Register(g Gateway) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.gateways[g.Channel()] = g
}

func (r *Registry) Get(channel string) (Gateway, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	g, ok := r.gateways[channel]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownChannel, channel)
	}
	return g, nil
}

func (r *Registry) Channels() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	channels := make([]string, 0, len(r.gateways))
	for c := range r.gateways {
		channels = append(channels, c)
	}
	return channels
}

// doRequest performs one HTTP call against a provider with a hard deadline.
// The returned body is detached from fasthttp's pooled buffers.
func doRequest(ctx context.Context, client *fasthttp.Client, timeout time.Duration, method, url, bearer string, body []byte) ([]byte, int, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(url)
	req.Header.SetMethod(method)
	req.Header.SetContentType("application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	if body != nil {
		req.SetBody(body)
	}

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(timeout)
	}

	if err := client.DoDeadline(req, resp, deadline); err != nil {
		return nil, 0, fmt.Errorf("request failed: %w", err)
	}

	result := make([]byte, len(resp.Body()))
	copy(result, resp.Body())

	return result, resp.StatusCode(), nil
}

func newHTTPClient(timeout time.Duration) *fasthttp.Client {
	return &fasthttp.Client{
		MaxConnsPerHost:     512,
		ReadTimeout:         timeout,
		WriteTimeout:        timeout,
		MaxIdleConnDuration: 60 * time.Second,
	}
}
