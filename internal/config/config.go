package config

import (
	"time"

	"github.com/Netflix/go-env"
	"github.com/joho/godotenv"
	"github.com/orbio/invoice-gateway/pkg/logger"
	"github.com/pkg/errors"
)

const ConfigTagName = "env"
const ConfigDefaultTagName = "default"

var config *Config

// Config holds every environment-sourced value the services use. Nothing
// outside this struct reads env vars directly.
type Config struct {
	AppEnv     string `env:"APP_ENV" default:"dev"`
	AppName    string `env:"APP_NAME" default:"invoice_gateway"`
	AppDebug   bool   `env:"APP_DEBUG" default:"1"`
	AppBaseUrl string `env:"APP_BASE_URL"`

	HttpListenAddr         string `env:"HTTP_LISTEN_ADDR"`
	HttpServerReadTimeout  int    `env:"HTTP_SERVER_READ_TIMEOUT"`
	HttpServerWriteTimeout int    `env:"HTTP_SERVER_WRITE_TIMEOUT"`

	PostgresReadHost     string `env:"POSTGRES_READ_HOST"`
	PostgresReadPort     string `env:"POSTGRES_READ_PORT"`
	PostgresReadUser     string `env:"POSTGRES_READ_USER"`
	PostgresReadPassword string `env:"POSTGRES_READ_PASSWORD"`
	PostgresReadDatabase string `env:"POSTGRES_READ_DBNAME"`

	PostgresWriteHost     string `env:"POSTGRES_WRITE_HOST"`
	PostgresWritePort     string `env:"POSTGRES_WRITE_PORT"`
	PostgresWriteUser     string `env:"POSTGRES_WRITE_USER"`
	PostgresWritePassword string `env:"POSTGRES_WRITE_PASSWORD"`
	PostgresWriteDatabase string `env:"POSTGRES_WRITE_DBNAME"`

	RedisAddr               string `env:"REDIS_ADDR"`
	RedisUsername           string `env:"REDIS_USER"`
	RedisPassword           string `env:"REDIS_PASS"`
	RedisDatabase           int    `env:"REDIS_DATABASE"`
	RedisUniversalKeyPrefix string `env:"REDIS_UNIVERSAL_KEY_PREFIX"`

	PromNamespace string `env:"PROM_NAMESPACE"`

	LogLevel []string `env:"LOG_LEVEL"`

	EventStreamName        string        `env:"EVENT_STREAM_NAME" default:"orders:paid"`
	EventConsumerGroup     string        `env:"EVENT_CONSUMER_GROUP" default:"notifier"`
	EventConsumerName      string        `env:"EVENT_CONSUMER_NAME"`
	EventMaxRetries        int           `env:"EVENT_MAX_RETRIES"`
	EventVisibilityTimeout time.Duration `env:"EVENT_VISIBILITY_TIMEOUT"`
	EventPollInterval      time.Duration `env:"EVENT_POLL_INTERVAL"`
	EventBatchSize         int64         `env:"EVENT_BATCH_SIZE"`
	EventMaxLen            int64         `env:"EVENT_MAX_LEN"`

	PaystackBaseUrl  string `env:"PAYSTACK_BASE_URL" default:"https://api.paystack.co"`
	RaveBaseUrl      string `env:"RAVE_BASE_URL" default:"https://api.ravepay.co"`
	GatewayTimeoutMs int    `env:"GATEWAY_TIMEOUT_MS" default:"10000"`

	// Stock floors are deliberately distinct per call site: manual
	// adjustments bottom out at 0, barcode-scan sales at 1. Kept
	// configurable instead of hard-coded.
	StockFloorManual int64 `env:"STOCK_FLOOR_MANUAL" default:"0"`
	StockFloorSale   int64 `env:"STOCK_FLOOR_SALE" default:"1"`
}

func Load(path string) error {
	logger.Info("loading configs..", "path", path)
	c := &Config{}
	var err error
	if path != "" {
		logger.Info("trying to publish env from file", "path", path)
		err = godotenv.Load(path)
		if err != nil {
			return errors.New("failed to load configuration file " + path + " error: " + err.Error())
		}
	}

	_, err = env.UnmarshalFromEnviron(c)

	if err != nil {
		return errors.New("failed to map env variables to Configuration object " + " error: " + err.Error())
	}

	config = c
	return nil
}

func Get() *Config {
	if config == nil {
		logger.Panic("Config is not initialized")
	}
	return config
}
