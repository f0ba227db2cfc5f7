package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testMapboxToken = "pk.test-token"

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, []string{"*"}, cfg.CORSAllowedOrigins)
	assert.Equal(t, "tick_tracker.db", cfg.DBPath)
	assert.Empty(t, cfg.SeedFile)
	assert.Equal(t, FeedHTTP, cfg.FeedKind)
	assert.Equal(t, "https://dev-task.elancoapps.com/sightings", cfg.FeedURL)
	assert.Equal(t, 6*time.Second, cfg.FeedTimeout)
	assert.Equal(t, 10000, cfg.FeedMaxRecords)
	assert.Equal(t, []string{"localhost:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "tick-sightings", cfg.KafkaFeedTopic)
	assert.False(t, cfg.MapboxEnabled)
	assert.Empty(t, cfg.MapboxToken)
	assert.Equal(t, 5*time.Second, cfg.MapboxTimeout)
	assert.Equal(t, 1000, cfg.MapboxCacheSize)
}

func TestLoad_CustomEnv(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("SHUTDOWN_TIMEOUT", "30s")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://localhost:3000, https://ticks.example.org")
	t.Setenv("DB_PATH", ":memory:")
	t.Setenv("SEED_FILE", "/data/seed.json")
	t.Setenv("FEED_KIND", "KAFKA")
	t.Setenv("FEED_TIMEOUT", "2s")
	t.Setenv("FEED_MAX_RECORDS", "500")
	t.Setenv("KAFKA_BROKERS", "broker1:9092,broker2:9092")
	t.Setenv("KAFKA_FEED_TOPIC", "custom-feed")
	t.Setenv("MAPBOX_TOKEN", testMapboxToken)
	t.Setenv("MAPBOX_TIMEOUT", "10s")
	t.Setenv("MAPBOX_CACHE_SIZE", "500")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, []string{"http://localhost:3000", "https://ticks.example.org"}, cfg.CORSAllowedOrigins)
	assert.Equal(t, ":memory:", cfg.DBPath)
	assert.Equal(t, "/data/seed.json", cfg.SeedFile)
	assert.Equal(t, FeedKafka, cfg.FeedKind)
	assert.Equal(t, 2*time.Second, cfg.FeedTimeout)
	assert.Equal(t, 500, cfg.FeedMaxRecords)
	assert.Equal(t, []string{"broker1:9092", "broker2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "custom-feed", cfg.KafkaFeedTopic)
	assert.True(t, cfg.MapboxEnabled)
	assert.Equal(t, testMapboxToken, cfg.MapboxToken)
	assert.Equal(t, 10*time.Second, cfg.MapboxTimeout)
	assert.Equal(t, 500, cfg.MapboxCacheSize)
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		value   string
		wantErr string
	}{
		{"shutdown timeout not a duration", "SHUTDOWN_TIMEOUT", "not-a-duration", "SHUTDOWN_TIMEOUT"},
		{"negative shutdown timeout", "SHUTDOWN_TIMEOUT", "-1s", "SHUTDOWN_TIMEOUT"},
		{"feed timeout not a duration", "FEED_TIMEOUT", "soon", "FEED_TIMEOUT"},
		{"zero feed timeout", "FEED_TIMEOUT", "0s", "FEED_TIMEOUT"},
		{"mapbox timeout", "MAPBOX_TIMEOUT", "bad", "MAPBOX_TIMEOUT"},
		{"feed max records zero", "FEED_MAX_RECORDS", "0", "FEED_MAX_RECORDS"},
		{"feed max records not a number", "FEED_MAX_RECORDS", "lots", "FEED_MAX_RECORDS"},
		{"unknown feed kind", "FEED_KIND", "carrier-pigeon", "FEED_KIND"},
		{"mapbox enabled without token", "MAPBOX_ENABLED", "true", "MAPBOX_TOKEN"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoad_FeedNone(t *testing.T) {
	t.Setenv("FEED_KIND", "none")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, FeedNone, cfg.FeedKind)
}

func TestLoad_MapboxTokenImpliesEnabled(t *testing.T) {
	t.Setenv("MAPBOX_TOKEN", testMapboxToken)
	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.MapboxEnabled)
}

func TestLoad_MapboxExplicitlyDisabled(t *testing.T) {
	t.Setenv("MAPBOX_TOKEN", testMapboxToken)
	t.Setenv("MAPBOX_ENABLED", "false")
	cfg, err := Load()
	require.NoError(t, err)
	assert.False(t, cfg.MapboxEnabled)
}

func TestLoad_InvalidMapboxCacheSizeFallsBack(t *testing.T) {
	t.Setenv("MAPBOX_CACHE_SIZE", "-5")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 1000, cfg.MapboxCacheSize)
}
