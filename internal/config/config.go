// Package config loads the server settings from the environment and an optional .env file.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"

	"sns_backend/internal/platform/db"
	"sns_backend/internal/platform/redis"
)

// Config is the full runtime configuration.
type Config struct {
	Port    string `env:"PORT,default=8080"`
	BaseURL string `env:"BASE_URL,default=http://localhost:8080"`

	DB    db.Config
	Redis redis.Config
	JWT   JWT

	BcryptCost int `env:"BCRYPT_COST,default=12"`

	Pagination Pagination

	PublicDir          string        `env:"PUBLIC_DIR,default=public"`
	CORSAllowedOrigins string        `env:"CORS_ALLOWED_ORIGINS"`
	LoginRateLimit     int           `env:"LOGIN_RATE_LIMIT,default=30"`
	PostCacheTTL       time.Duration `env:"POST_CACHE_TTL,default=5m"`
}

// JWT holds the token signing settings.
type JWT struct {
	Secret     string        `env:"JWT_SECRET"`
	AccessTTL  time.Duration `env:"JWT_ACCESS_TTL,default=300s"`
	RefreshTTL time.Duration `env:"JWT_REFRESH_TTL,default=3600s"`
}

// Pagination holds the page size limits.
type Pagination struct {
	DefaultTake int `env:"PAGINATION_DEFAULT_TAKE,default=20"`
	MaxTake     int `env:"PAGINATION_MAX_TAKE,default=100"`
}

// Load reads .env when present, decodes the environment and validates the result.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Info(".env file not found, using process environment")
	}

	var cfg Config
	if err := envdecode.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the settings that cannot be defaulted safely.
func (c Config) Validate() error {
	var errs []error
	if c.JWT.Secret == "" {
		errs = append(errs, errors.New("JWT_SECRET must be set"))
	}
	if c.JWT.AccessTTL <= 0 || c.JWT.RefreshTTL <= 0 {
		errs = append(errs, errors.New("token TTLs must be positive"))
	}
	if c.JWT.AccessTTL > c.JWT.RefreshTTL {
		errs = append(errs, fmt.Errorf("JWT_ACCESS_TTL (%s) must not exceed JWT_REFRESH_TTL (%s)", c.JWT.AccessTTL, c.JWT.RefreshTTL))
	}
	if c.BcryptCost < bcrypt.MinCost || c.BcryptCost > bcrypt.MaxCost {
		errs = append(errs, fmt.Errorf("BCRYPT_COST must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost))
	}
	if c.Pagination.DefaultTake <= 0 || c.Pagination.MaxTake < c.Pagination.DefaultTake {
		errs = append(errs, errors.New("PAGINATION_DEFAULT_TAKE must be positive and not above PAGINATION_MAX_TAKE"))
	}
	return errors.Join(errs...)
}

// AllowedOrigins splits CORS_ALLOWED_ORIGINS on commas.
func (c Config) AllowedOrigins() []string {
	var out []string
	for _, o := range strings.Split(c.CORSAllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}
