package config

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sethvargo/go-envconfig"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
	EnvTest        = "test"

	productionPasswordMin = 6
	relaxedPasswordMin    = 2
)

// ErrMissingJWTSecret is returned when JWT_SECRET is not set.
var ErrMissingJWTSecret = errors.New("config: JWT_SECRET is required")

type Config struct {
	Port     string `env:"PORT,      default=8080"`
	Env      string `env:"ENV,       default=development"`
	LogLevel string `env:"LOG_LEVEL, default=info"`

	Auth    AuthConfig
	HTTP    HTTPConfig
	Uploads UploadConfig
	Mongo   MongoConfig
	Redis   RedisConfig
}

type AuthConfig struct {
	JWTSecret  string        `env:"JWT_SECRET"`
	TokenTTL   time.Duration `env:"TOKEN_TTL,    default=1h"`
	BcryptCost int           `env:"BCRYPT_COST,  default=10"`
	// 0 derives the minimum from Env.
	PasswordMinLength int `env:"PASSWORD_MIN_LENGTH, default=0"`
}

type HTTPConfig struct {
	CookieSecure     bool   `env:"COOKIE_SECURE,      default=false"`
	FrontendOrigin   string `env:"FRONTEND_ORIGIN,    default=http://localhost:5173"`
	RateLimitEnabled bool   `env:"RATE_LIMIT_ENABLED, default=true"`
	TrustProxy       bool   `env:"TRUST_PROXY,        default=false"`
}

type UploadConfig struct {
	Dir      string `env:"UPLOAD_DIR,       default=uploads"`
	MaxBytes int64  `env:"MAX_UPLOAD_BYTES, default=104857600"`
}

type MongoConfig struct {
	URI        string        `env:"MONGO_URI,             default=mongodb://localhost:27017"`
	Database   string        `env:"MONGO_DB,              default=community"`
	Retries    int           `env:"MONGO_CONNECT_RETRIES, default=5"`
	RetryDelay time.Duration `env:"MONGO_RETRY_DELAY,     default=2s"`
}

type RedisConfig struct {
	Addr     string        `env:"REDIS_ADDR,      default=localhost:6379"`
	Password string        `env:"REDIS_PASSWORD"`
	DB       int           `env:"REDIS_DB,        default=0"`
	PoolSize int           `env:"REDIS_POOL_SIZE, default=10"`
	Timeout  time.Duration `env:"REDIS_TIMEOUT,   default=3s"`
}

// Load reads configuration from environment variables using go-envconfig.
func Load(ctx context.Context) (*Config, error) {
	return load(ctx, envconfig.OsLookuper())
}

func load(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: lookuper}); err != nil {
		return nil, fmt.Errorf("config: failed to load configuration: %w", err)
	}
	cfg.Env = strings.ToLower(strings.TrimSpace(cfg.Env))
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate refuses configurations the server must not start with.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Auth.JWTSecret) == "" {
		return ErrMissingJWTSecret
	}
	if c.Auth.PasswordMinLength < 0 {
		return fmt.Errorf("config: PASSWORD_MIN_LENGTH must not be negative")
	}
	if c.Uploads.MaxBytes <= 0 {
		return fmt.Errorf("config: MAX_UPLOAD_BYTES must be positive")
	}
	return nil
}

func (c *Config) IsDevelopment() bool { return c.Env == EnvDevelopment }

func (c *Config) IsProduction() bool { return c.Env == EnvProduction }

// PasswordMinLength is the explicit override when set, otherwise 6 in
// production and 2 elsewhere.
func (c *Config) PasswordMinLength() int {
	if c.Auth.PasswordMinLength > 0 {
		return c.Auth.PasswordMinLength
	}
	if c.IsProduction() {
		return productionPasswordMin
	}
	return relaxedPasswordMin
}
