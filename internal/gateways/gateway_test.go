package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/orbio/invoice-gateway/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry(t *testing.T) {
	registry := NewRegistry(
		NewPaystack("http://localhost:8081", time.Second),
		NewRave("http://localhost:8082", time.Second),
	)

	t.Run("resolves registered channels", func(t *testing.T) {
		gw, err := registry.Get(ChannelPaystack)
		require.NoError(t, err)
		assert.Equal(t, ChannelPaystack, gw.Channel())

		gw, err = registry.Get(ChannelRave)
		require.NoError(t, err)
		assert.Equal(t, ChannelRave, gw.Channel())
	})

	t.Run("unknown channel", func(t *testing.T) {
		_, err := registry.Get("stripe")
		assert.ErrorIs(t, err, ErrUnknownChannel)
	})

	t.Run("channels are listed", func(t *testing.T) {
		assert.ElementsMatch(t, []string{ChannelPaystack, ChannelRave}, registry.Channels())
	})
}

func TestToProviderUnits(t *testing.T) {
	paystack := NewPaystack("http://localhost:8081", time.Second)
	rave := NewRave("http://localhost:8082", time.Second)

	// paystack speaks kobo, rave speaks major units
	assert.Equal(t, int64(50000), paystack.ToProviderUnits(500))
	assert.Equal(t, int64(500), rave.ToProviderUnits(500))
}

func TestGatewayError_Unwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := newGatewayError(ChannelPaystack, "verify call failed", cause)

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), ChannelPaystack)
	assert.Contains(t, err.Error(), "verify call failed")
}

func TestPaystack_Verify(t *testing.T) {
	cfg := &model.GatewayConfig{SecretKey: "sk_test_abc"}

	t.Run("successful payment", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "GET", r.Method)
			assert.Equal(t, "/transaction/verify/ref-42", r.URL.Path)
			assert.Equal(t, "Bearer sk_test_abc", r.Header.Get("Authorization"))
			json.NewEncoder(w).Encode(map[string]any{
				"status": true,
				"data": map[string]any{
					"status":    "success",
					"amount":    50000,
					"currency":  "NGN",
					"reference": "ref-42",
				},
			})
		}))
		defer srv.Close()

		result, err := NewPaystack(srv.URL, time.Second).Verify(context.Background(), cfg, "ref-42")
		require.NoError(t, err)
		assert.True(t, result.Success)
		assert.Equal(t, int64(500), result.Amount)
		assert.Equal(t, "NGN", result.Currency)
		assert.Equal(t, "ref-42", result.Reference)
		assert.NotEmpty(t, result.Raw)
	})

	t.Run("declined payment is not a gateway error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(map[string]any{
				"status": true,
				"data": map[string]any{
					"status":    "failed",
					"amount":    50000,
					"currency":  "NGN",
					"reference": "ref-42",
				},
			})
		}))
		defer srv.Close()

		result, err := NewPaystack(srv.URL, time.Second).Verify(context.Background(), cfg, "ref-42")
		require.NoError(t, err)
		assert.False(t, result.Success)
	})

	t.Run("provider 5xx", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
			json.NewEncoder(w).Encode(map[string]any{"status": false, "message": "server error"})
		}))
		defer srv.Close()

		_, err := NewPaystack(srv.URL, time.Second).Verify(context.Background(), cfg, "ref-42")
		var gwErr *GatewayError
		require.ErrorAs(t, err, &gwErr)
		assert.Equal(t, ChannelPaystack, gwErr.Channel)
	})
}

func TestPaystack_Initialize(t *testing.T) {
	cfg := &model.GatewayConfig{SecretKey: "sk_test_abc"}
	order := &model.Order{ID: 7, Amount: 500, Currency: "NGN"}
	customer := &model.Customer{Email: "jo@example.com"}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "POST", r.Method)
		assert.Equal(t, "/transaction/initialize", r.URL.Path)

		var req paystackInitRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "jo@example.com", req.Email)
		assert.Equal(t, int64(50000), req.Amount)
		assert.Equal(t, "https://api.example.com/callback", req.CallbackURL)

		json.NewEncoder(w).Encode(map[string]any{
			"status": true,
			"data": map[string]any{
				"authorization_url": "https://checkout.paystack.com/abc",
				"access_code":       "abc",
				"reference":         req.Reference,
			},
		})
	}))
	defer srv.Close()

	result, err := NewPaystack(srv.URL, time.Second).Initialize(
		context.Background(), cfg, order, customer, "https://api.example.com/callback")
	require.NoError(t, err)
	assert.Equal(t, "https://checkout.paystack.com/abc", result.RedirectURL)
	assert.NotEmpty(t, result.Reference)
}

func TestRave_Verify(t *testing.T) {
	cfg := &model.GatewayConfig{SecretKey: "flw_test_abc"}

	t.Run("successful payment", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/v3/transactions/verify_by_reference", r.URL.Path)
			assert.Equal(t, "ref-42", r.URL.Query().Get("tx_ref"))
			json.NewEncoder(w).Encode(map[string]any{
				"status": "success",
				"data": map[string]any{
					"status":   "successful",
					"amount":   500,
					"currency": "NGN",
					"tx_ref":   "ref-42",
				},
			})
		}))
		defer srv.Close()

		result, err := NewRave(srv.URL, time.Second).Verify(context.Background(), cfg, "ref-42")
		require.NoError(t, err)
		assert.True(t, result.Success)
		assert.Equal(t, int64(500), result.Amount)
		assert.Equal(t, "ref-42", result.Reference)
	})

	t.Run("declined payment", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(map[string]any{
				"status": "success",
				"data": map[string]any{
					"status":   "failed",
					"amount":   500,
					"currency": "NGN",
					"tx_ref":   "ref-42",
				},
			})
		}))
		defer srv.Close()

		result, err := NewRave(srv.URL, time.Second).Verify(context.Background(), cfg, "ref-42")
		require.NoError(t, err)
		assert.False(t, result.Success)
	})

	t.Run("error status", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(map[string]any{"status": "error", "message": "No transaction was found"})
		}))
		defer srv.Close()

		_, err := NewRave(srv.URL, time.Second).Verify(context.Background(), cfg, "ref-42")
		var gwErr *GatewayError
		require.ErrorAs(t, err, &gwErr)
		assert.Equal(t, "No transaction was found", gwErr.Message)
	})
}

func TestRave_Initialize(t *testing.T) {
	cfg := &model.GatewayConfig{SecretKey: "flw_test_abc"}
	order := &model.Order{ID: 7, Amount: 500, Currency: "NGN"}
	customer := &model.Customer{Name: "Jo", Email: "jo@example.com"}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v3/payments", r.URL.Path)

		var req raveInitRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, int64(500), req.Amount)
		assert.Equal(t, "Jo", req.Customer.Name)
		assert.NotEmpty(t, req.TxRef)

		json.NewEncoder(w).Encode(map[string]any{
			"status": "success",
			"data":   map[string]any{"link": "https://checkout.flutterwave.com/abc"},
		})
	}))
	defer srv.Close()

	result, err := NewRave(srv.URL, time.Second).Initialize(
		context.Background(), cfg, order, customer, "https://api.example.com/callback")
	require.NoError(t, err)
	assert.Equal(t, "https://checkout.flutterwave.com/abc", result.RedirectURL)
	assert.NotEmpty(t, result.Reference)
}
