package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testToken = "waqi-test-token"

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":5000", cfg.HTTPAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.Empty(t, cfg.WAQIToken)
	assert.False(t, cfg.APIConfigured())
	assert.Equal(t, "https://api.waqi.info", cfg.WAQIBaseURL)
	assert.Equal(t, 10*time.Second, cfg.WAQITimeout)
	assert.Equal(t, 256, cfg.WAQICacheSize)
	assert.Equal(t, time.Duration(0), cfg.WAQICacheTTL)
	assert.False(t, cfg.CacheEnabled())
	assert.Equal(t, "best_aqi_model.json", cfg.ModelPath)
	assert.Equal(t, "scaler.json", cfg.ScalerPath)
	assert.Empty(t, cfg.KafkaBrokers)
	assert.Equal(t, "aqi-events", cfg.KafkaTopic)
	assert.False(t, cfg.KafkaEnabled)
}

func TestLoad_CustomEnv(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("SHUTDOWN_TIMEOUT", "30s")
	t.Setenv("WAQI_TOKEN", testToken)
	t.Setenv("WAQI_BASE_URL", "http://localhost:1234")
	t.Setenv("WAQI_TIMEOUT", "3s")
	t.Setenv("WAQI_CACHE_SIZE", "50")
	t.Setenv("WAQI_CACHE_TTL", "5m")
	t.Setenv("MODEL_PATH", "/models/m.json")
	t.Setenv("SCALER_PATH", "/models/s.json")
	t.Setenv("KAFKA_BROKERS", "broker1:9092,broker2:9092")
	t.Setenv("KAFKA_TOPIC", "custom-events")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, testToken, cfg.WAQIToken)
	assert.True(t, cfg.APIConfigured())
	assert.Equal(t, "http://localhost:1234", cfg.WAQIBaseURL)
	assert.Equal(t, 3*time.Second, cfg.WAQITimeout)
	assert.Equal(t, 50, cfg.WAQICacheSize)
	assert.Equal(t, 5*time.Minute, cfg.WAQICacheTTL)
	assert.True(t, cfg.CacheEnabled())
	assert.Equal(t, "/models/m.json", cfg.ModelPath)
	assert.Equal(t, "/models/s.json", cfg.ScalerPath)
	assert.Equal(t, []string{"broker1:9092", "broker2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "custom-events", cfg.KafkaTopic)
	assert.True(t, cfg.KafkaEnabled)
}

func TestLoad_InvalidShutdownTimeout(t *testing.T) {
	t.Setenv("SHUTDOWN_TIMEOUT", "not-a-duration")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SHUTDOWN_TIMEOUT")
}

func TestLoad_InvalidWAQITimeout(t *testing.T) {
	t.Setenv("WAQI_TIMEOUT", "bad")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "WAQI_TIMEOUT")
}

func TestLoad_ZeroWAQITimeout(t *testing.T) {
	t.Setenv("WAQI_TIMEOUT", "0s")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "WAQI_TIMEOUT")
}

func TestLoad_NegativeCacheTTL(t *testing.T) {
	t.Setenv("WAQI_CACHE_TTL", "-1m")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "WAQI_CACHE_TTL")
}

func TestLoad_InvalidCacheSize(t *testing.T) {
	t.Setenv("WAQI_CACHE_SIZE", "0")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "WAQI_CACHE_SIZE")
}

func TestLoad_KafkaEnabledWithoutBrokers(t *testing.T) {
	t.Setenv("KAFKA_ENABLED", "true")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "KAFKA_BROKERS")
}

func TestLoad_KafkaExplicitlyDisabled(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", "localhost:9092")
	t.Setenv("KAFKA_ENABLED", "false")
	cfg, err := Load()
	require.NoError(t, err)
	assert.False(t, cfg.KafkaEnabled)
}
