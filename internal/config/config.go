package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	Server      ServerConfig
	Catalog     CatalogConfig
	Storage     StorageConfig
	DB          DBConfig
	Redis       RedisConfig
	RabbitMQ    RabbitMQConfig
	JWT         JWTConfig
	Checkout    CheckoutConfig
	Fulfillment FulfillmentConfig
}

type ServerConfig struct {
	Port            int           `env:"SERVER_PORT" envDefault:"8080"`
	ReadTimeout     time.Duration `env:"SERVER_READ_TIMEOUT" envDefault:"10s"`
	WriteTimeout    time.Duration `env:"SERVER_WRITE_TIMEOUT" envDefault:"10s"`
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" envDefault:"10s"`
	CORSOrigins     []string      `env:"SERVER_CORS_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000"`
}

type CatalogConfig struct {
	BaseURL   string        `env:"CATALOG_BASE_URL" envDefault:"https://dummyjson.com"`
	Timeout   time.Duration `env:"CATALOG_TIMEOUT" envDefault:"10s"`
	PageLimit int           `env:"CATALOG_PAGE_LIMIT" envDefault:"100"`
	CacheTTL  time.Duration `env:"CATALOG_CACHE_TTL" envDefault:"1h"`
}

// StorageConfig picks the slot backend: memory, redis or postgres.
type StorageConfig struct {
	Driver    string        `env:"STORAGE_DRIVER" envDefault:"memory"`
	RedisTTL  time.Duration `env:"STORAGE_REDIS_TTL" envDefault:"720h"`
	KeyPrefix string        `env:"STORAGE_KEY_PREFIX" envDefault:"storefront:"`
	// IdleTTL drops in-process storefronts unused for this long; they are
	// restored from their slots on the next request.
	IdleTTL time.Duration `env:"STORAGE_IDLE_TTL" envDefault:"30m"`
}

type DBConfig struct {
	Host     string `env:"DB_HOST" envDefault:"localhost"`
	Port     int    `env:"DB_PORT" envDefault:"5432"`
	User     string `env:"DB_USER" envDefault:"postgres"`
	Password string `env:"DB_PASSWORD" envDefault:"postgres"`
	Name     string `env:"DB_NAME" envDefault:"storefront"`
	SSLMode  string `env:"DB_SSLMODE" envDefault:"disable"`
	MaxConns int32  `env:"DB_MAX_CONNS" envDefault:"10"`
}

func (c DBConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Name, c.SSLMode,
	)
}

// RedisConfig with an empty Addr disables the product cache and the
// fulfillment idempotency keys.
type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR" envDefault:""`
	Password string `env:"REDIS_PASSWORD" envDefault:""`
	DB       int    `env:"REDIS_DB" envDefault:"0"`
}

// RabbitMQConfig with an empty URL disables order events.
type RabbitMQConfig struct {
	URL string `env:"RABBITMQ_URL" envDefault:""`
}

type JWTConfig struct {
	Secret     string        `env:"JWT_SECRET" envDefault:"super-secret-key"`
	Expiration time.Duration `env:"JWT_EXPIRATION" envDefault:"24h"`
}

type CheckoutConfig struct {
	ProcessingDelay time.Duration `env:"CHECKOUT_PROCESSING_DELAY" envDefault:"2s"`
	OrderLatency    time.Duration `env:"CHECKOUT_ORDER_LATENCY" envDefault:"0s"`
}

type FulfillmentConfig struct {
	Enabled bool `env:"FULFILLMENT_ENABLED" envDefault:"false"`
}

// Load reads .env when present, then the environment.
func Load(files ...string) (*Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	switch cfg.Storage.Driver {
	case "memory", "redis", "postgres":
	default:
		return nil, fmt.Errorf("parse config: unknown STORAGE_DRIVER %q", cfg.Storage.Driver)
	}
	if cfg.Storage.Driver == "redis" && cfg.Redis.Addr == "" {
		return nil, errors.New("parse config: STORAGE_DRIVER=redis requires REDIS_ADDR")
	}
	return cfg, nil
}
