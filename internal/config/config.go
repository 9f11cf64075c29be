// Package config loads service configuration from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// minSigningKeyLen is the minimum accepted signing key length in bytes.
// 32 bytes keeps HS256 at its full security margin.
const minSigningKeyLen = 32

type Config struct {
	HTTP    HTTPConfig
	Store   StoreConfig
	Token   TokenConfig
	Limiter LimiterConfig

	// ExposeTestListing enables the unauthenticated GET /api/user/all/testing
	// route. Unsafe outside local development; off by default.
	ExposeTestListing bool `env:"AUTH_EXPOSE_TEST_LISTING" env-default:"false"`
}

type HTTPConfig struct {
	Addr         string        `env:"AUTH_HTTP_ADDR" env-default:":8080"`
	ReadTimeout  time.Duration `env:"AUTH_HTTP_READ_TIMEOUT" env-default:"10s"`
	WriteTimeout time.Duration `env:"AUTH_HTTP_WRITE_TIMEOUT" env-default:"10s"`
	IdleTimeout  time.Duration `env:"AUTH_HTTP_IDLE_TIMEOUT" env-default:"60s"`

	CORSOrigins []string `env:"AUTH_CORS_ORIGINS" env-default:"*" env-separator:","`
}

type StoreConfig struct {
	// Path of the JSON array file backing the record store.
	Path string `env:"AUTH_STORE_PATH" env-default:"data/users.json"`
}

type TokenConfig struct {
	// SigningKey is the HS256 symmetric key. Required; never a compiled-in literal.
	SigningKey string        `env:"AUTH_SIGNING_KEY" env-required:"true"`
	TTL        time.Duration `env:"AUTH_TOKEN_TTL" env-default:"30m"`
	Issuer     string        `env:"AUTH_TOKEN_ISSUER" env-default:"dinneconnect.auth.system"`
}

type LimiterConfig struct {
	Window   time.Duration `env:"AUTH_LIMITER_WINDOW" env-default:"15m"`
	MaxFails int           `env:"AUTH_LIMITER_MAX_FAILS" env-default:"5"`
	BlockFor time.Duration `env:"AUTH_LIMITER_BLOCK_FOR" env-default:"15m"`
}

// Load reads configuration from the environment and validates it.
func Load() (Config, error) {
	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return Config{}, fmt.Errorf("read env: %w", err)
	}
	if len(cfg.Token.SigningKey) < minSigningKeyLen {
		return Config{}, fmt.Errorf("AUTH_SIGNING_KEY must be at least %d bytes", minSigningKeyLen)
	}
	if cfg.Token.TTL <= 0 {
		return Config{}, fmt.Errorf("AUTH_TOKEN_TTL must be positive")
	}
	return cfg, nil
}
