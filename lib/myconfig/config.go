// Package myconfig loads settings from an optional .env file and the environment.
package myconfig

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Storefront client
	GatewayURL    string
	CartURL       string
	OrderURL      string
	DataDir       string
	RefreshBuffer time.Duration
	CartDebounce  time.Duration
	HTTPTimeout   time.Duration
	// ShippingFee is charged per shop, in minor units.
	ShippingFee int64

	// Development backend
	Port       string
	TokenTTL   time.Duration
	SigningKey string
}

const (
	DefaultRefreshBuffer = 5 * time.Minute
	DefaultCartDebounce  = 2 * time.Second
	DefaultHTTPTimeout   = 5 * time.Second
	DefaultTokenTTL      = 60 * time.Minute
)

// Load reads envFile (when it exists) without overriding variables that are already set.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		err := godotenv.Load(envFile)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("error reading %s: %w", envFile, err)
		}
	}

	cfg := &Config{
		GatewayURL: getEnv("SHOPFRONT_GATEWAY_URL", "http://localhost:8080"),
		DataDir:    os.Getenv("SHOPFRONT_DATA_DIR"),
		Port:       getEnv("PORT", "8080"),
		SigningKey: getEnv("SHOPFRONT_SIGNING_KEY", "local-development-only"),
	}
	cfg.CartURL = getEnv("SHOPFRONT_CART_URL", cfg.GatewayURL)
	cfg.OrderURL = getEnv("SHOPFRONT_ORDER_URL", cfg.GatewayURL)

	var err error
	for _, d := range []struct {
		name   string
		target *time.Duration
		def    time.Duration
	}{
		{"SHOPFRONT_REFRESH_BUFFER", &cfg.RefreshBuffer, DefaultRefreshBuffer},
		{"SHOPFRONT_CART_DEBOUNCE", &cfg.CartDebounce, DefaultCartDebounce},
		{"SHOPFRONT_HTTP_TIMEOUT", &cfg.HTTPTimeout, DefaultHTTPTimeout},
		{"SHOPFRONT_TOKEN_TTL", &cfg.TokenTTL, DefaultTokenTTL},
	} {
		*d.target, err = getEnvDuration(d.name, d.def)
		if err != nil {
			return nil, err
		}
	}

	cfg.ShippingFee, err = getEnvAmount("SHOPFRONT_SHIPPING_FEE", 0)
	if err != nil {
		return nil, err
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAmount(key string, defaultValue int64) (int64, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	amount, err := strconv.ParseInt(value, 10, 64)
	if err != nil || amount < 0 {
		return 0, fmt.Errorf("%s must be a non-negative amount in minor units, got %q", key, value)
	}
	return amount, nil
}

// getEnvDuration accepts Go durations ("90s") and plain seconds ("90").
func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	if seconds, err := strconv.Atoi(value); err == nil {
		return time.Duration(seconds) * time.Second, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be a duration, got %q", key, value)
	}
	if d < 0 {
		return 0, fmt.Errorf("%s must not be negative, got %q", key, value)
	}
	return d, nil
}
