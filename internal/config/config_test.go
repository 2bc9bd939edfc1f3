package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load(filepath.Join(t.TempDir(), "missing.env"))

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, ":8080", cfg.Server.Addr())
	assert.Equal(t, "mysql", cfg.Database.Driver)
	assert.Equal(t, 15*time.Second, cfg.Remote.Timeout)
	assert.Equal(t, []int64{10000, 20000, 50000, 100000}, cfg.Payment.QuickAmounts)
	assert.False(t, cfg.Redis.Enabled())
	assert.False(t, cfg.Features.AllowRegistration)
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("POS_API_BASE_URL", "https://pos.example.com/api/")
	t.Setenv("POS_API_TIMEOUT", "30")
	t.Setenv("JWT_TTL", "2h")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092")
	t.Setenv("PAYMENT_QUICK_AMOUNTS", "5000,10000")
	t.Setenv("ALLOW_REGISTRATION", "true")

	cfg := Load(filepath.Join(t.TempDir(), "missing.env"))

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "https://pos.example.com/api", cfg.Remote.BaseURL)
	assert.Equal(t, 30*time.Second, cfg.Remote.Timeout)
	assert.Equal(t, 2*time.Hour, cfg.Auth.TokenTTL)
	assert.True(t, cfg.Redis.Enabled())
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, []int64{5000, 10000}, cfg.Payment.QuickAmounts)
	assert.True(t, cfg.Features.AllowRegistration)
}

func TestLoad_DotEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("GEMINI_MODEL=gemini-test\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("GEMINI_MODEL") })

	cfg := Load(path)

	assert.Equal(t, "gemini-test", cfg.AI.Model)
}

func TestGetEnvInt64List_InvalidFallsBack(t *testing.T) {
	t.Setenv("PAYMENT_QUICK_AMOUNTS", "5000,abc")

	assert.Equal(t, []int64{1}, getEnvInt64List("PAYMENT_QUICK_AMOUNTS", []int64{1}))
}

func TestGetEnvBool_InvalidFallsBack(t *testing.T) {
	t.Setenv("SETTLEMENT_EVENTS_ENABLED", "maybe")

	assert.True(t, getEnvBool("SETTLEMENT_EVENTS_ENABLED", true))
}
