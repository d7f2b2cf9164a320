package main

import (
	"context"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// sandbox is an in-memory stand-in for the Paystack and Rave APIs, meant for
// local development of the payment flow without real provider accounts.

type transaction struct {
	Reference string
	Amount    int64
	Currency  string
	Email     string
	Succeeds  bool
	CreatedAt time.Time
}

type MockProvider struct {
	mu          sync.Mutex
	successRate float64
	minDelay    time.Duration
	maxDelay    time.Duration
	providerID  string
	rng         *rand.Rand
	txns        map[string]*transaction
}

func NewMockProvider(successRate float64, minDelay, maxDelay time.Duration) *MockProvider {
	return &MockProvider{
		successRate: successRate,
		minDelay:    minDelay,
		maxDelay:    maxDelay,
		providerID:  "SANDBOX_" + uuid.New().String()[:8],
		rng:         rand.New(rand.NewSource(time.Now().UnixNano())),
		txns:        make(map[string]*transaction),
	}
}

func (m *MockProvider) record(reference string, amount int64, currency, email string) *transaction {
	m.mu.Lock()
	defer m.mu.Unlock()
	t := &transaction{
		Reference: reference,
		Amount:    amount,
		Currency:  currency,
		Email:     email,
		Succeeds:  m.rng.Float64() < m.successRate,
		CreatedAt: time.Now(),
	}
	m.txns[reference] = t
	return t
}

func (m *MockProvider) lookup(reference string) (*transaction, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.txns[reference]
	return t, ok
}

func (m *MockProvider) randomDelay() time.Duration {
	delta := m.maxDelay - m.minDelay
	if delta <= 0 {
		return m.minDelay
	}
	return m.minDelay + time.Duration(m.rng.Int63n(int64(delta)))
}

type Handler struct {
	provider *MockProvider
}

func NewHandler(provider *MockProvider) *Handler {
	return &Handler{provider: provider}
}

/* ------------------------------ Paystack side ------------------------------ */

type paystackInitRequest struct {
	Email       string `json:"email" binding:"required"`
	Amount      int64  `json:"amount" binding:"required"`
	Currency    string `json:"currency"`
	Reference   string `json:"reference"`
	CallbackURL string `json:"callback_url"`
}

func (h *Handler) PaystackInitialize(c *gin.Context) {
	var req paystackInitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": false, "message": err.Error()})
		return
	}
	reference := req.Reference
	if reference == "" {
		reference = uuid.NewString()
	}

	t := h.provider.record(reference, req.Amount, req.Currency, req.Email)
	log.Info().
		Str("reference", reference).
		Int64("amount", req.Amount).
		Bool("will_succeed", t.Succeeds).
		Msg("paystack transaction initialized")

	c.JSON(http.StatusOK, gin.H{
		"status":  true,
		"message": "Authorization URL created",
		"data": gin.H{
			"authorization_url": "http://localhost:8082/pay/" + reference,
			"access_code":       uuid.NewString()[:12],
			"reference":         reference,
		},
	})
}

func (h *Handler) PaystackVerify(c *gin.Context) {
	reference := c.Param("reference")

	time.Sleep(h.provider.randomDelay())

	t, ok := h.provider.lookup(reference)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"status": false, "message": "Transaction reference not found"})
		return
	}

	status := "success"
	if !t.Succeeds {
		status = "failed"
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  true,
		"message": "Verification successful",
		"data": gin.H{
			"status":    status,
			"amount":    t.Amount,
			"currency":  t.Currency,
			"reference": t.Reference,
		},
	})
}

/* -------------------------------- Rave side -------------------------------- */

type raveInitRequest struct {
	TxRef       string `json:"tx_ref" binding:"required"`
	Amount      int64  `json:"amount" binding:"required"`
	Currency    string `json:"currency"`
	RedirectURL string `json:"redirect_url"`
	Customer    struct {
		Email string `json:"email"`
		Name  string `json:"name"`
	} `json:"customer"`
}

func (h *Handler) RaveInitialize(c *gin.Context) {
	var req raveInitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": err.Error()})
		return
	}

	t := h.provider.record(req.TxRef, req.Amount, req.Currency, req.Customer.Email)
	log.Info().
		Str("tx_ref", req.TxRef).
		Int64("amount", req.Amount).
		Bool("will_succeed", t.Succeeds).
		Msg("rave payment initialized")

	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"message": "Hosted Link",
		"data": gin.H{
			"link": "http://localhost:8082/pay/" + req.TxRef,
		},
	})
}

func (h *Handler) RaveVerify(c *gin.Context) {
	reference := c.Query("tx_ref")
	if reference == "" {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "tx_ref is required"})
		return
	}

	time.Sleep(h.provider.randomDelay())

	t, ok := h.provider.lookup(reference)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"status": "error", "message": "No transaction was found for this id"})
		return
	}

	status := "successful"
	if !t.Succeeds {
		status = "failed"
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"message": "Transaction fetched successfully",
		"data": gin.H{
			"status":   status,
			"amount":   t.Amount,
			"currency": t.Currency,
			"tx_ref":   t.Reference,
		},
	})
}

/* --------------------------------- Control --------------------------------- */

func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":       "healthy",
		"provider_id":  h.provider.providerID,
		"timestamp":    time.Now(),
		"success_rate": h.provider.successRate,
	})
}

// UpdateConfig changes the simulated success rate at runtime.
func (h *Handler) UpdateConfig(c *gin.Context) {
	var cfg struct {
		SuccessRate *float64 `json:"success_rate"`
	}
	if err := c.ShouldBindJSON(&cfg); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}
	if cfg.SuccessRate != nil && *cfg.SuccessRate >= 0 && *cfg.SuccessRate <= 1.0 {
		h.provider.mu.Lock()
		h.provider.successRate = *cfg.SuccessRate
		h.provider.mu.Unlock()
		log.Info().Float64("rate", *cfg.SuccessRate).Msg("updated success rate")
	}
	c.JSON(http.StatusOK, gin.H{"success_rate": h.provider.successRate})
}

func SetupRouter(handler *Handler) *gin.Engine {
	router := gin.Default()

	router.Use(func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("duration", time.Since(start)).
			Msg("request processed")
	})

	router.POST("/transaction/initialize", handler.PaystackInitialize)
	router.GET("/transaction/verify/:reference", handler.PaystackVerify)

	router.POST("/v3/payments", handler.RaveInitialize)
	router.GET("/v3/transactions/verify_by_reference", handler.RaveVerify)

	router.GET("/health", handler.HealthCheck)
	router.PUT("/config", handler.UpdateConfig)

	return router
}

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	port := getEnv("PORT", "8082")
	successRate := getEnvFloat("SUCCESS_RATE", 1)
	minDelay := getEnvDuration("MIN_DELAY", 50*time.Millisecond)
	maxDelay := getEnvDuration("MAX_DELAY", 500*time.Millisecond)

	log.Info().
		Str("port", port).
		Float64("success_rate", successRate).
		Msg("starting payment sandbox")

	provider := NewMockProvider(successRate, minDelay, maxDelay)
	handler := NewHandler(provider)
	router := SetupRouter(handler)

	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Msg("server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("forced shutdown")
	}
	log.Info().Msg("sandbox stopped")
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
