package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// Store drivers
const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"
)

// Settlement transports
const (
	SettlementTransportRedis  = "redis"
	SettlementTransportAMQP   = "amqp"
	SettlementTransportMemory = "memory"
	SettlementTransportNone   = "none"
)

type Config struct {
	Debug       bool   `env:"DEBUG" envDefault:"false"`
	ServiceName string `env:"SERVICE_NAME" envDefault:"tweet-giveaway-backend"`
	StoreDriver string `env:"STORE_DRIVER" envDefault:"postgres"`

	Server struct {
		Port          int    `env:"PORT" envDefault:"8080"`
		Origin        string `env:"ORIGIN" envDefault:"http://localhost:3000"`
		PublicBaseURL string `env:"PUBLIC_BASE_URL" envDefault:"http://localhost:3000"`
	}

	Postgres PostgresConfig

	Redis struct {
		Host     string `env:"REDIS_HOST" envDefault:"localhost"`
		Port     int    `env:"REDIS_PORT" envDefault:"6379"`
		Password string `env:"REDIS_PASSWORD" envDefault:""`
		DB       int    `env:"REDIS_DB" envDefault:"0"`
	}

	Auth struct {
		// Secret shared with the identity provider that issues bearer tokens.
		JWTSecret string `env:"AUTH_JWT_SECRET,required"`
		Issuer    string `env:"AUTH_JWT_ISSUER" envDefault:""`
	}

	Twitter struct {
		APIBaseURL   string        `env:"TWITTER_API_BASE_URL" envDefault:"https://api.twitter.com"`
		BearerToken  string        `env:"TWITTER_BEARER_TOKEN"`
		FetchTimeout time.Duration `env:"TWITTER_FETCH_TIMEOUT" envDefault:"8s"`
		CacheSize    int           `env:"TWITTER_CACHE_SIZE" envDefault:"1024"`
	}

	Settlement struct {
		Transport  string        `env:"SETTLEMENT_TRANSPORT" envDefault:"redis"`
		StreamKey  string        `env:"SETTLEMENT_STREAM_KEY" envDefault:"settlement:events"`
		Group      string        `env:"SETTLEMENT_CONSUMER_GROUP" envDefault:"settlement_workers"`
		Consumer   string        `env:"SETTLEMENT_CONSUMER_NAME" envDefault:"settlement_worker_1"`
		AMQPURL    string        `env:"SETTLEMENT_AMQP_URL"`
		Exchange   string        `env:"SETTLEMENT_EXCHANGE" envDefault:"giveaway_events"`
		WebhookURL string        `env:"SETTLEMENT_WEBHOOK_URL"`
		Workers    int           `env:"SETTLEMENT_WORKERS" envDefault:"4"`
		Timeout    time.Duration `env:"SETTLEMENT_TIMEOUT" envDefault:"10s"`
	}

	Claims struct {
		RateLimitPerMinute int `env:"CLAIM_RATE_LIMIT_PER_MINUTE" envDefault:"30"`
	}

	Reconcile struct {
		Enabled  bool   `env:"RECONCILE_ENABLED" envDefault:"true"`
		Schedule string `env:"RECONCILE_SCHEDULE" envDefault:"@every 1m"`
	}
}

type PostgresConfig struct {
	Host            string        `env:"POSTGRES_HOST" envDefault:"localhost"`
	Port            int           `env:"POSTGRES_PORT" envDefault:"5432"`
	User            string        `env:"POSTGRES_USER" envDefault:"postgres"`
	Password        string        `env:"POSTGRES_PASSWORD" envDefault:""`
	Database        string        `env:"POSTGRES_DB" envDefault:"giveaways"`
	SSLMode         string        `env:"POSTGRES_SSLMODE" envDefault:"disable"`
	MaxOpenConns    int           `env:"POSTGRES_MAX_OPEN_CONNS" envDefault:"25"`
	MaxIdleConns    int           `env:"POSTGRES_MAX_IDLE_CONNS" envDefault:"5"`
	ConnMaxLifetime time.Duration `env:"POSTGRES_CONN_MAX_LIFETIME" envDefault:"30m"`
	AutoMigrate     bool          `env:"DB_AUTO_MIGRATE" envDefault:"false"`
}

// Load reads .env (when present) and the process environment into Config.
func Load() (*Config, error) {
	// .env is optional; production sets variables directly
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if strings.TrimSpace(c.Auth.JWTSecret) == "" {
		return fmt.Errorf("AUTH_JWT_SECRET is required")
	}
	switch c.StoreDriver {
	case StoreDriverPostgres, StoreDriverMemory:
	default:
		return fmt.Errorf("invalid STORE_DRIVER: %q", c.StoreDriver)
	}
	switch c.Settlement.Transport {
	case SettlementTransportRedis, SettlementTransportMemory, SettlementTransportNone:
	case SettlementTransportAMQP:
		if c.Settlement.AMQPURL == "" {
			return fmt.Errorf("SETTLEMENT_AMQP_URL is required for amqp transport")
		}
	default:
		return fmt.Errorf("invalid SETTLEMENT_TRANSPORT: %q", c.Settlement.Transport)
	}
	if c.Twitter.FetchTimeout <= 0 {
		return fmt.Errorf("TWITTER_FETCH_TIMEOUT must be positive")
	}
	if c.Settlement.Workers <= 0 {
		c.Settlement.Workers = 1
	}
	c.Server.PublicBaseURL = strings.TrimRight(c.Server.PublicBaseURL, "/")
	return nil
}

// GetDSN builds a lib/pq connection string.
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode)
}

// RedisAddr returns host:port of the redis server.
func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}
