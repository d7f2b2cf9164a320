package main

import (
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/orbio/invoice-gateway/internal/config"
	gateway "github.com/orbio/invoice-gateway/internal/gateways"
	"github.com/orbio/invoice-gateway/internal/handlers"
	"github.com/orbio/invoice-gateway/internal/queue"
	"github.com/orbio/invoice-gateway/internal/repository"
	"github.com/orbio/invoice-gateway/internal/services"
	xhttp "github.com/orbio/invoice-gateway/pkg/http"
	"github.com/orbio/invoice-gateway/pkg/logger"
	"github.com/orbio/invoice-gateway/pkg/pg"
	"github.com/orbio/invoice-gateway/pkg/prom"
	"github.com/orbio/invoice-gateway/pkg/redis"
)

func main() {
	err := config.Load(argContainsEnvPath())
	if err != nil {
		logger.Error("failed to load config", "error", err)
		return
	}

	s := xhttp.NewServer(xhttp.DefaultServerOption)
	s.Server.ReadBufferSize = 1024 * 16
	s.Server.WriteBufferSize = 1024 * 16
	s.Use(xhttp.CompressMiddleware(6))
	s.Use(xhttp.TimeoutMiddleware(time.Second * 15))
	s.Use(xhttp.RequestLoggerMiddleware)
	s.Use(xhttp.RecoverMiddleware)
	s.Router = xhttp.CreateDefaultRouter()

	readConf := pg.Config{
		User:     config.Get().PostgresReadUser,
		Host:     config.Get().PostgresReadHost,
		Port:     config.Get().PostgresReadPort,
		Password: config.Get().PostgresReadPassword,
		Database: config.Get().PostgresReadDatabase,
	}
	writeConf := pg.Config{
		User:     config.Get().PostgresWriteUser,
		Host:     config.Get().PostgresWriteHost,
		Port:     config.Get().PostgresWritePort,
		Password: config.Get().PostgresWritePassword,
		Database: config.Get().PostgresWriteDatabase,
	}

	pgDebug := false
	if config.Get().AppEnv == "dev" {
		pgDebug = true
	}
	db, err := pg.CreateReadWrite(readConf, writeConf, pgDebug)
	if err != nil {
		logger.Error("failed connecting to pg", "error", err)
		return
	}

	redisAdap, err := redis.NewRedisAdapter("default", config.Get().RedisUniversalKeyPrefix, &redis.Options{
		Addrs:      []string{config.Get().RedisAddr},
		ClientName: "default",
		DB:         config.Get().RedisDatabase,
		Username:   config.Get().RedisUsername,
		Password:   config.Get().RedisPassword,
	})
	if err != nil {
		logger.Error("failed connecting to redis", "error", err)
		return
	}

	if config.Get().PromNamespace != "" {
		host, _ := os.Hostname()
		if err := prom.Create(host, config.Get().AppEnv, config.Get().PromNamespace); err != nil {
			logger.Warn("failed to initialize metrics", "error", err)
		}
	}

	paidEvents, err := queue.NewQueue(redisAdap, queue.QueueConfig{
		Name:              config.Get().EventStreamName,
		ConsumerGroup:     config.Get().EventConsumerGroup,
		ConsumerName:      config.Get().EventConsumerName,
		MaxRetries:        config.Get().EventMaxRetries,
		VisibilityTimeout: config.Get().EventVisibilityTimeout,
		PollInterval:      config.Get().EventPollInterval,
		BatchSize:         config.Get().EventBatchSize,
		MaxLen:            config.Get().EventMaxLen,
	})
	if err != nil {
		logger.Error("failed creating event queue", "error", err)
		return
	}

	productRepo := repository.NewProductRepository(db)
	stockRepo := repository.NewStockEventRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	customerRepo := repository.NewCustomerRepository(db)
	gatewayConfigRepo := repository.NewGatewayConfigRepository(db)
	transactionRepo := repository.NewTransactionRepository(db)

	gatewayTimeout := time.Duration(config.Get().GatewayTimeoutMs) * time.Millisecond
	registry := gateway.NewRegistry(
		gateway.NewPaystack(config.Get().PaystackBaseUrl, gatewayTimeout),
		gateway.NewRave(config.Get().RaveBaseUrl, gatewayTimeout),
	)

	// services
	inventoryService := services.NewInventoryService(productRepo, stockRepo,
		config.Get().StockFloorManual, config.Get().StockFloorSale)
	productService := services.NewProductService(productRepo, inventoryService)
	orderService := services.NewOrderService(orderRepo, productRepo, gatewayConfigRepo, inventoryService)
	customerService := services.NewCustomerService(customerRepo)
	paymentService := services.NewPaymentService(registry, gatewayConfigRepo, customerRepo,
		orderRepo, transactionRepo, paidEvents, config.Get().AppBaseUrl+"/api/v1/payments/callback")
	healthService := services.NewHealthService(redisAdap)

	// v1 handlers
	productHandler := handlers.NewProductHandler(productService, inventoryService)
	orderHandler := handlers.NewOrderHandler(orderService)
	customerHandler := handlers.NewCustomerHandler(customerService)
	paymentHandler := handlers.NewPaymentHandler(paymentService)
	healthHandler := handlers.NewHealthHandler(healthService)

	g := s.Router.Group("/api/v1")
	handlers.RegisterProductRoutes(g, productHandler)
	handlers.RegisterOrderRoutes(g, orderHandler)
	handlers.RegisterCustomerRoutes(g, customerHandler)
	handlers.RegisterPaymentRoutes(g, paymentHandler)
	handlers.RegisterHealthRoutes(g, healthHandler)

	c := make(chan os.Signal, 1)
	signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := s.ListenAndServe(config.Get().HttpListenAddr); err != nil {
			logger.Error("error in running http-server", "error", err)
		}
	}()

	<-c
	s.Shutdown()
}

func argContainsEnvPath() string {
	for _, v := range os.Args {
		if strings.Contains(v, "--env=") {
			s := strings.Split(v, "=")
			if _, err := os.Open(s[1]); err != nil {
				logger.Error("failed to open the passed env file, got error" + err.Error())
				return ""
			}
			return s[1]
		}
	}
	return ""
}
