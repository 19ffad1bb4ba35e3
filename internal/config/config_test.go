package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setBaseEnv(t *testing.T) {
	t.Setenv("APP_ENV", "test")
	t.Setenv("APP_PORT", "8080")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DB_NAME", filepath.Join(t.TempDir(), "p.db"))
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("ACCESS_TOKEN_TTL_MIN", "15")
}

func TestLoadSQLiteNeedsNoServer(t *testing.T) {
	setBaseEnv(t)
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, 15, cfg.AccessTTLMin)
	assert.Equal(t, "logs", cfg.EventLogDir)
	assert.False(t, cfg.EventsEnabled)
}

func TestLoadReportsEveryMissingKey(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("DB_DRIVER", "postgres")
	t.Setenv("JWT_SECRET", "")
	t.Setenv("ACCESS_TOKEN_TTL_MIN", "soon")

	_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.Error(t, err)
	for _, key := range []string{"JWT_SECRET", "DB_USER", "DB_HOST", "DB_PORT", "ACCESS_TOKEN_TTL_MIN"} {
		assert.Contains(t, err.Error(), key)
	}
}

func TestLoadReadsEnvFile(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("APP_PORT", "")
	os.Unsetenv("APP_PORT")
	t.Setenv("RABBITMQ_URL", "")
	os.Unsetenv("RABBITMQ_URL")
	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("APP_PORT=9999\nRABBITMQ_URL=amqp://u:p@broker:5672/\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "9999", cfg.Port)
	assert.Equal(t, "amqp://u:p@broker:5672/", cfg.AMQPURL)
}

func TestRateLimitConfigClamps(t *testing.T) {
	t.Setenv("RATE_LIMIT_CAPACITY", "0")
	t.Setenv("RATE_LIMIT_REFILL_EVERY", "2s")
	t.Setenv("RATE_LIMIT_TTL", "1s")
	cfg := LoadRateLimitConfig()
	assert.Equal(t, 1, cfg.Capacity)
	assert.Equal(t, 2*time.Second, cfg.RefillInterval)
	assert.Equal(t, 10*time.Second, cfg.TTL)
}

func TestCacheConfigMethods(t *testing.T) {
	t.Setenv("CACHE_METHODS", "get, head")
	cfg := LoadCacheConfig()
	assert.True(t, cfg.Methods["GET"])
	assert.True(t, cfg.Methods["HEAD"])
	assert.False(t, cfg.Methods["POST"])
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	NewLogger("warn", "json", &buf).Info("hidden")
	assert.Empty(t, buf.String())

	NewLogger("debug", "text", &buf).Debug("shown", "k", 1)
	assert.Contains(t, buf.String(), "msg=shown")
	assert.Contains(t, buf.String(), "k=1")
}

func TestNewRedisClientDisabled(t *testing.T) {
	_, err := NewRedisClient(RedisConfig{Enabled: false})
	assert.Error(t, err)
}

func TestLoadJWT(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("ACCESS_TOKEN_TTL_MIN", "")
	secret, ttl, err := LoadJWT(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	assert.Equal(t, "s3cret", secret)
	assert.Equal(t, 60, ttl)

	t.Setenv("JWT_SECRET", "")
	_, _, err = LoadJWT(filepath.Join(t.TempDir(), "missing.env"))
	assert.ErrorContains(t, err, "JWT_SECRET")
}
