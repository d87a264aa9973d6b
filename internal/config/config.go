package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

func init() {
	// Load .env if present; environment variables win.
	_ = godotenv.Load()
}

// Config holds all storefront configuration loaded from the environment.
type Config struct {
	App      AppConfig
	Server   ServerConfig
	Session  SessionConfig
	Storage  StorageConfig
	Upstream UpstreamConfig
	Metrics  MetricsConfig
}

type AppConfig struct {
	Name        string `envconfig:"APP_NAME" default:"medicart-storefront"`
	Environment string `envconfig:"APP_ENV" default:"development"`
}

type ServerConfig struct {
	Host            string        `envconfig:"SERVER_HOST" default:"0.0.0.0"`
	Port            int           `envconfig:"SERVER_PORT" default:"8080"`
	ShutdownTimeout time.Duration `envconfig:"SERVER_SHUTDOWN_TIMEOUT" default:"10s"`

	AllowedOrigins []string `envconfig:"CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`
}

type SessionConfig struct {
	JWTSecret      string        `envconfig:"JWT_SECRET"`
	CookieName     string        `envconfig:"SESSION_COOKIE" default:"msid"`
	IdleTTL        time.Duration `envconfig:"SESSION_IDLE_TTL" default:"30m"`
	LoginPerMinute int           `envconfig:"LOGIN_LIMIT_PER_MIN" default:"10"`
}

// StorageConfig selects the durable slot backend for carts and wishlists.
type StorageConfig struct {
	Backend string `envconfig:"STORAGE_BACKEND" default:"memory"` // memory, redis, postgres, or sqlite

	RedisHost     string `envconfig:"REDIS_HOST" default:"localhost"`
	RedisPort     int    `envconfig:"REDIS_PORT" default:"6379"`
	RedisPassword string `envconfig:"REDIS_PASSWORD" default:""`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`

	PostgresDSN string `envconfig:"POSTGRES_DSN" default:""`
	SQLitePath  string `envconfig:"SQLITE_PATH" default:"./data/medicart.db"`
}

type UpstreamConfig struct {
	CatalogURL string `envconfig:"CATALOG_URL" default:"http://localhost:9081"`
	OrderURL   string `envconfig:"ORDER_URL" default:"http://localhost:9082"`
}

type MetricsConfig struct {
	Enabled bool   `envconfig:"METRICS_ENABLED" default:"true"`
	Token   string `envconfig:"METRICS_TOKEN" default:""`
}

func (s *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

func (s *StorageConfig) RedisAddress() string {
	return fmt.Sprintf("%s:%d", s.RedisHost, s.RedisPort)
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return &cfg, nil
}
