package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

// AuthConfig is the configuration of the Authentication Service binary.
type AuthConfig struct {
	Port     string `env:"AUTH_SERVICE_PORT, default=8000"`
	Env      string `env:"ENV,               default=development"`
	LogLevel string `env:"LOG_LEVEL,         default=info"`

	// StoreDriver selects the credential store: mongo or memory.
	StoreDriver string `env:"STORE_DRIVER, default=mongo"`

	Token     TokenConfig
	RateLimit RateLimitConfig
	Mongo     MongoConfig
}

// TaskConfig is the configuration of the Task Service binary.
type TaskConfig struct {
	Port     string `env:"TASK_SERVICE_PORT, default=8001"`
	Env      string `env:"ENV,               default=development"`
	LogLevel string `env:"LOG_LEVEL,         default=info"`

	StoreDriver string `env:"STORE_DRIVER, default=mongo"`

	AuthServiceURL         string `env:"AUTH_SERVICE_URL,         default=http://localhost:8000"`
	NotificationServiceURL string `env:"NOTIFICATION_SERVICE_URL, default=http://localhost:8002"`
	NotifyWorkers          int    `env:"NOTIFY_WORKERS,           default=4"`

	RateLimit RateLimitConfig
	Mongo     MongoConfig
	Redis     RedisConfig
}

type TokenConfig struct {
	SecretKey     string `env:"SECRET_KEY, required"`
	Algorithm     string `env:"ALGORITHM,                   default=HS256"`
	ExpireMinutes int    `env:"ACCESS_TOKEN_EXPIRE_MINUTES, default=30"`
}

// TTL returns the access token lifetime.
func (t TokenConfig) TTL() time.Duration {
	return time.Duration(t.ExpireMinutes) * time.Minute
}

type RateLimitConfig struct {
	Enabled       bool `env:"ENABLE_RATE_LIMIT,   default=true"`
	Requests      int  `env:"RATE_LIMIT_REQUESTS, default=10"`
	WindowSeconds int  `env:"RATE_LIMIT_WINDOW,   default=60"`
}

// Window returns the sliding window length.
func (r RateLimitConfig) Window() time.Duration {
	return time.Duration(r.WindowSeconds) * time.Second
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=taskhub"`
}

// RedisConfig is optional: an empty Addr disables idempotency keys.
type RedisConfig struct {
	Addr string `env:"REDIS_ADDR"`
	DB   int    `env:"REDIS_DB, default=0"`
}

// LoadAuth reads the Authentication Service configuration from the environment.
func LoadAuth(ctx context.Context) (*AuthConfig, error) {
	var cfg AuthConfig
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if cfg.Token.SecretKey == "" {
		return nil, fmt.Errorf("config: SECRET_KEY must not be empty")
	}
	if cfg.Token.ExpireMinutes <= 0 {
		return nil, fmt.Errorf("config: ACCESS_TOKEN_EXPIRE_MINUTES must be positive, got %d", cfg.Token.ExpireMinutes)
	}
	if err := validateStore(cfg.StoreDriver); err != nil {
		return nil, err
	}
	if err := cfg.RateLimit.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadTask reads the Task Service configuration from the environment.
func LoadTask(ctx context.Context) (*TaskConfig, error) {
	var cfg TaskConfig
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := validateStore(cfg.StoreDriver); err != nil {
		return nil, err
	}
	if err := cfg.RateLimit.validate(); err != nil {
		return nil, err
	}
	if cfg.NotifyWorkers <= 0 {
		return nil, fmt.Errorf("config: NOTIFY_WORKERS must be positive, got %d", cfg.NotifyWorkers)
	}
	return &cfg, nil
}

// validate rejects explicit zero or negative limits; the limiter would
// otherwise swap them for its own defaults without saying so.
func (r RateLimitConfig) validate() error {
	if !r.Enabled {
		return nil
	}
	if r.Requests <= 0 {
		return fmt.Errorf("config: RATE_LIMIT_REQUESTS must be positive, got %d", r.Requests)
	}
	if r.WindowSeconds <= 0 {
		return fmt.Errorf("config: RATE_LIMIT_WINDOW must be positive, got %d", r.WindowSeconds)
	}
	return nil
}

func validateStore(driver string) error {
	switch driver {
	case "mongo", "memory":
		return nil
	default:
		return fmt.Errorf("config: STORE_DRIVER must be mongo or memory, got %q", driver)
	}
}
