package myconfig

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	for _, key := range []string{
		"SHOPFRONT_GATEWAY_URL", "SHOPFRONT_CART_URL", "SHOPFRONT_ORDER_URL", "SHOPFRONT_DATA_DIR",
		"SHOPFRONT_REFRESH_BUFFER", "SHOPFRONT_CART_DEBOUNCE", "SHOPFRONT_HTTP_TIMEOUT",
		"PORT", "SHOPFRONT_TOKEN_TTL", "SHOPFRONT_SIGNING_KEY", "SHOPFRONT_SHIPPING_FEE",
	} {
		t.Setenv(key, "")
	}
}

func TestLoad(t *testing.T) {
	t.Run("Defaults", func(t *testing.T) {
		// given
		clearEnv(t)

		// when
		cfg, err := Load("")

		// then
		require.NoError(t, err)
		assert.Equal(t, "http://localhost:8080", cfg.GatewayURL)
		assert.Equal(t, cfg.GatewayURL, cfg.CartURL)
		assert.Equal(t, cfg.GatewayURL, cfg.OrderURL)
		assert.Equal(t, 5*time.Minute, cfg.RefreshBuffer)
		assert.Equal(t, 2*time.Second, cfg.CartDebounce)
		assert.Equal(t, 5*time.Second, cfg.HTTPTimeout)
		assert.Equal(t, "8080", cfg.Port)
		assert.Equal(t, time.Hour, cfg.TokenTTL)
		assert.Equal(t, int64(0), cfg.ShippingFee)
	})

	t.Run("Environment overrides", func(t *testing.T) {
		// given
		clearEnv(t)
		t.Setenv("SHOPFRONT_CART_URL", "http://cart:9000")
		t.Setenv("SHOPFRONT_CART_DEBOUNCE", "10")
		t.Setenv("SHOPFRONT_REFRESH_BUFFER", "90s")
		t.Setenv("SHOPFRONT_SHIPPING_FEE", "300")

		// when
		cfg, err := Load("")

		// then
		require.NoError(t, err)
		assert.Equal(t, int64(300), cfg.ShippingFee)
		assert.Equal(t, "http://cart:9000", cfg.CartURL)
		assert.Equal(t, 10*time.Second, cfg.CartDebounce)
		assert.Equal(t, 90*time.Second, cfg.RefreshBuffer)
	})

	t.Run("Env file", func(t *testing.T) {
		// given
		clearEnv(t)
		os.Unsetenv("SHOPFRONT_ORDER_URL")
		envFile := filepath.Join(t.TempDir(), ".env")
		require.NoError(t, os.WriteFile(envFile, []byte("SHOPFRONT_ORDER_URL=http://orders:7000\n"), 0o600))

		// when
		cfg, err := Load(envFile)

		// then
		require.NoError(t, err)
		assert.Equal(t, "http://orders:7000", cfg.OrderURL)
	})

	t.Run("Missing env file is fine", func(t *testing.T) {
		clearEnv(t)
		_, err := Load(filepath.Join(t.TempDir(), "absent.env"))
		assert.NoError(t, err)
	})

	t.Run("Invalid duration", func(t *testing.T) {
		// given
		clearEnv(t)
		t.Setenv("SHOPFRONT_HTTP_TIMEOUT", "soon")

		// when
		_, err := Load("")

		// then
		assert.ErrorContains(t, err, "SHOPFRONT_HTTP_TIMEOUT")
	})

	t.Run("Invalid shipping fee", func(t *testing.T) {
		// given
		clearEnv(t)
		t.Setenv("SHOPFRONT_SHIPPING_FEE", "-1")

		// when
		_, err := Load("")

		// then
		assert.ErrorContains(t, err, "SHOPFRONT_SHIPPING_FEE")
	})
}
