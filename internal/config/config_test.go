package config_test

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/satriajanaka/backend-mart/internal/config"
)

func baseEnv() map[string]string {
	return map[string]string{
		"DATABASE_URL": "postgres://localhost:5432/mart",
		"REDIS_URL":    "redis://localhost:6379/0",
		"JWT_SECRET":   "test-secret",
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.LoadForTests(baseEnv())
	require.NoError(t, err)

	require.Equal(t, "development", cfg.AppEnv)
	require.Equal(t, ":8080", cfg.HTTPAddr())
	require.Equal(t, "jwt", cfg.AuthCookieName)
	require.Equal(t, http.SameSiteLaxMode, cfg.CookieSameSite)
	require.Equal(t, 0.15, cfg.PricingTaxRate)
	require.Equal(t, 100.0, cfg.PricingFreeShippingMin)
	require.Equal(t, 10.0, cfg.PricingFlatShipping)
	require.Equal(t, 3, cfg.CatalogPageSize)
	require.Equal(t, time.Minute, cfg.CatalogCacheTTL)
}

func TestLoadRequiresSecrets(t *testing.T) {
	for _, missing := range []string{"DATABASE_URL", "REDIS_URL", "JWT_SECRET"} {
		env := baseEnv()
		env[missing] = ""
		_, err := config.LoadForTests(env)
		require.Error(t, err, missing)
	}
}

func TestLoadOverrides(t *testing.T) {
	env := baseEnv()
	env["PORT"] = "9090"
	env["PRICING_TAX_RATE"] = "0.07"
	env["CATALOG_PAGE_SIZE"] = "5"
	env["COOKIE_SAMESITE"] = "strict"
	env["ACCESS_TOKEN_TTL"] = "1h"

	cfg, err := config.LoadForTests(env)
	require.NoError(t, err)
	require.Equal(t, ":9090", cfg.HTTPAddr())
	require.Equal(t, 0.07, cfg.PricingTaxRate)
	require.Equal(t, 5, cfg.CatalogPageSize)
	require.Equal(t, http.SameSiteStrictMode, cfg.CookieSameSite)
	require.Equal(t, time.Hour, cfg.AccessTokenTTL)
}

func TestLoadBadValuesFallBack(t *testing.T) {
	env := baseEnv()
	env["PRICING_TAX_RATE"] = "not-a-number"
	env["CATALOG_PAGE_SIZE"] = "-2"

	cfg, err := config.LoadForTests(env)
	require.NoError(t, err)
	require.Equal(t, 0.15, cfg.PricingTaxRate)
	require.Equal(t, 3, cfg.CatalogPageSize)
}
