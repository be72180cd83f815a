package config

import (
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsAndEnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9001")
	t.Setenv("CURRENT_SHIFT_CACHE_TTL", "45s")
	t.Setenv("DIVERGENCE_TOLERANCE", "1.50")
	t.Setenv("LOGIN_RATE_LIMIT", "5")
	t.Setenv("BREAKER_OPEN_TIMEOUT", "2m")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 9001, cfg.Port)
	assert.Equal(t, 45*time.Second, cfg.CurrentShiftCacheTTL)
	assert.Equal(t, "1.50", cfg.DivergenceTolerance)
	assert.Equal(t, "200.00", cfg.DefaultInitialCash)
	assert.Equal(t, "0.01", cfg.ReconciliationTolerance)
	assert.Equal(t, 12, cfg.JWTExpirationHours)
	assert.Equal(t, 5, cfg.LoginRateLimit)
	assert.Equal(t, 1000, cfg.APIRateLimit)
	assert.Equal(t, time.Minute, cfg.RateLimitWindow)
	assert.Equal(t, 5, cfg.BreakerFailureThreshold)
	assert.Equal(t, 2*time.Minute, cfg.BreakerOpenTimeout)
}

func TestLocation(t *testing.T) {
	assert.Equal(t, time.UTC, (&Config{}).Location())
	assert.Equal(t, time.UTC, (&Config{Timezone: "Marte/Olympus"}).Location())
	assert.Equal(t, "America/Sao_Paulo", (&Config{Timezone: "America/Sao_Paulo"}).Location().String())
}
