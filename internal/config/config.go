package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

type Config struct {
	HTTPPort string `envconfig:"HTTP_PORT" default:"8080"`
	GRPCPort string `envconfig:"GRPC_PORT" default:"50056"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	DBHost         string `envconfig:"DB_HOST" default:"localhost"`
	DBPort         int    `envconfig:"DB_PORT" default:"5432"`
	DBUser         string `envconfig:"DB_USER" default:"postgres"`
	DBPassword     string `envconfig:"DB_PASSWORD" default:"postgres"`
	DBName         string `envconfig:"DB_NAME" default:"ecommerce"`
	MigrationsPath string `envconfig:"MIGRATIONS_PATH" default:"./internal/repository/migrations"`
	SeedFile       string `envconfig:"SEED_FILE" default:""`

	MongoURI      string `envconfig:"MONGO_URI" default:"mongodb://localhost:27017"`
	MongoDatabase string `envconfig:"MONGO_DATABASE" default:"storefront"`

	RedisAddr     string        `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	RedisPassword string        `envconfig:"REDIS_PASSWORD" default:""`
	CartCacheTTL  time.Duration `envconfig:"CART_CACHE_TTL" default:"10m"`

	KafkaBrokers      string `envconfig:"KAFKA_BROKERS" default:"localhost:9092"`
	OutcomeTopic      string `envconfig:"KAFKA_OUTCOME_TOPIC" default:"checkout-outcomes"`
	CompensationTopic string `envconfig:"KAFKA_COMPENSATION_TOPIC" default:"checkout-compensations"`

	GatewayBaseURL   string        `envconfig:"GATEWAY_BASE_URL" default:"https://api.razorpay.com"`
	GatewayKeyID     string        `envconfig:"GATEWAY_KEY_ID"`
	GatewayKeySecret string        `envconfig:"GATEWAY_KEY_SECRET"`
	GatewayTimeout   time.Duration `envconfig:"GATEWAY_TIMEOUT" default:"10s"`
	WebhookSecret    string        `envconfig:"WEBHOOK_SECRET"`

	Currency              string          `envconfig:"CURRENCY" default:"INR"`
	FreeShippingThreshold decimal.Decimal `envconfig:"FREE_SHIPPING_THRESHOLD" default:"2000"`
	ShippingFee           decimal.Decimal `envconfig:"SHIPPING_FEE" default:"199"`
	ShippingBasis         string          `envconfig:"SHIPPING_BASIS" default:"subtotal"`

	PollInterval        time.Duration `envconfig:"POLL_INTERVAL" default:"10s"`
	PollBackoffStep     time.Duration `envconfig:"POLL_BACKOFF_STEP" default:"0s"`
	ConfirmationTimeout time.Duration `envconfig:"CONFIRMATION_TIMEOUT" default:"180s"`
	CountdownTick       time.Duration `envconfig:"COUNTDOWN_TICK" default:"1s"`
	RequestTimeout      time.Duration `envconfig:"REQUEST_TIMEOUT" default:"5s"`
	CompensationTimeout time.Duration `envconfig:"COMPENSATION_TIMEOUT" default:"10s"`
	ShutdownTimeout     time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"15s"`
	CheckoutIdleTTL     time.Duration `envconfig:"CHECKOUT_IDLE_TTL" default:"30m"`
	EvictionInterval    time.Duration `envconfig:"EVICTION_INTERVAL" default:"1m"`
}

// Load reads an optional .env file, then the environment.
func Load(envFiles ...string) (*Config, error) {
	// a missing .env file is fine, the environment may carry everything
	_ = godotenv.Load(envFiles...)

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.ShippingBasis {
	case "subtotal", "discounted":
	default:
		return fmt.Errorf("invalid SHIPPING_BASIS %q: want subtotal or discounted", c.ShippingBasis)
	}
	if c.PollInterval <= 0 {
		return errors.New("POLL_INTERVAL must be positive")
	}
	if c.ConfirmationTimeout <= 0 {
		return errors.New("CONFIRMATION_TIMEOUT must be positive")
	}
	if c.EvictionInterval <= 0 || c.CheckoutIdleTTL <= 0 {
		return errors.New("EVICTION_INTERVAL and CHECKOUT_IDLE_TTL must be positive")
	}
	if c.ShippingFee.IsNegative() || c.FreeShippingThreshold.IsNegative() {
		return errors.New("shipping amounts must not be negative")
	}
	return nil
}

func (c *Config) Brokers() []string {
	var out []string
	for _, b := range strings.Split(c.KafkaBrokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}
