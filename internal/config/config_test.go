package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://api.weather.gov/alerts/active", cfg.FeedURL)
	assert.Contains(t, cfg.UserAgent, "nws-alert-map")
	assert.Equal(t, 10*time.Second, cfg.RequestTimeout)
	assert.Equal(t, 3, cfg.RetryMax)
	assert.Equal(t, 500*time.Millisecond, cfg.RetryWaitMin)
	assert.Equal(t, 5*time.Second, cfg.RetryWaitMax)
	assert.Equal(t, 8, cfg.ZoneConcurrency)
	assert.InDelta(t, 0.05, cfg.SimplifyTolerance, 1e-12)
	assert.Equal(t, 5*time.Minute, cfg.PollInterval)
	assert.Equal(t, 5*time.Second, cfg.PollRetryBackoff)
	assert.False(t, cfg.RunOnce)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Empty(t, cfg.StatesGeoJSONPath)
	assert.Empty(t, cfg.OutputPath)
	assert.Empty(t, cfg.KafkaBrokers)
	assert.False(t, cfg.KafkaEnabled())
	assert.Equal(t, "enriched-weather-alerts", cfg.KafkaTopic)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
}

func TestLoad_CustomEnv(t *testing.T) {
	t.Setenv("NWS_FEED_URL", "http://localhost:9000/alerts/active?area=TX")
	t.Setenv("NWS_USER_AGENT", "test-agent")
	t.Setenv("NWS_REQUEST_TIMEOUT", "2s")
	t.Setenv("NWS_RETRY_MAX", "0")
	t.Setenv("ZONE_CONCURRENCY", "16")
	t.Setenv("SIMPLIFY_TOLERANCE", "0")
	t.Setenv("POLL_INTERVAL", "1m")
	t.Setenv("RUN_ONCE", "true")
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("OUTPUT_PATH", "/tmp/alerts.geojson")
	t.Setenv("KAFKA_BROKERS", "broker1:9092,broker2:9092")
	t.Setenv("KAFKA_TOPIC", "alerts")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("SHUTDOWN_TIMEOUT", "30s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:9000/alerts/active?area=TX", cfg.FeedURL)
	assert.Equal(t, "test-agent", cfg.UserAgent)
	assert.Equal(t, 2*time.Second, cfg.RequestTimeout)
	assert.Equal(t, 0, cfg.RetryMax)
	assert.Equal(t, 16, cfg.ZoneConcurrency)
	assert.Zero(t, cfg.SimplifyTolerance)
	assert.Equal(t, time.Minute, cfg.PollInterval)
	assert.True(t, cfg.RunOnce)
	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, "/tmp/alerts.geojson", cfg.OutputPath)
	assert.Equal(t, []string{"broker1:9092", "broker2:9092"}, cfg.KafkaBrokers)
	assert.True(t, cfg.KafkaEnabled())
	assert.Equal(t, "alerts", cfg.KafkaTopic)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"unparseable duration", "SHUTDOWN_TIMEOUT", "not-a-duration"},
		{"negative shutdown timeout", "SHUTDOWN_TIMEOUT", "-1s"},
		{"zero poll interval", "POLL_INTERVAL", "0s"},
		{"zone concurrency too low", "ZONE_CONCURRENCY", "0"},
		{"zone concurrency too high", "ZONE_CONCURRENCY", "65"},
		{"retry max too high", "NWS_RETRY_MAX", "11"},
		{"negative tolerance", "SIMPLIFY_TOLERANCE", "-0.1"},
		{"feed url", "NWS_FEED_URL", "not a url"},
		{"log level", "LOG_LEVEL", "verbose"},
		{"log format", "LOG_FORMAT", "xml"},
		{"non-numeric concurrency", "ZONE_CONCURRENCY", "many"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.key)
		})
	}
}

func TestLoad_RetryWaitMaxBelowMin(t *testing.T) {
	t.Setenv("NWS_RETRY_WAIT_MIN", "2s")
	t.Setenv("NWS_RETRY_WAIT_MAX", "1s")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "NWS_RETRY_WAIT_MAX")
}

func TestLoad_KafkaTopicRequiredWithBrokers(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", "localhost:9092")
	t.Setenv("KAFKA_TOPIC", "")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "KAFKA_TOPIC is required")
}

func TestLoad_EmptyUserAgent(t *testing.T) {
	t.Setenv("NWS_USER_AGENT", "")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "NWS_USER_AGENT")
}
