package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Remote feed transports.
const (
	FeedHTTP  = "http"
	FeedKafka = "kafka"
	FeedNone  = "none"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr           string
	LogLevel           string
	LogFormat          string
	ShutdownTimeout    time.Duration
	CORSAllowedOrigins []string

	// Store and baseline dataset.
	DBPath   string
	SeedFile string

	// Remote feed.
	FeedKind       string
	FeedURL        string
	FeedTimeout    time.Duration
	FeedMaxRecords int
	KafkaBrokers   []string
	KafkaFeedTopic string

	// Mapbox geocoding fallback for locations missing from the reference table.
	MapboxToken     string
	MapboxEnabled   bool
	MapboxTimeout   time.Duration
	MapboxCacheSize int
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	feedTimeout, err := parsePositiveDuration("FEED_TIMEOUT", "6s")
	if err != nil {
		return nil, err
	}

	mapboxTimeout, err := parsePositiveDuration("MAPBOX_TIMEOUT", "5s")
	if err != nil {
		return nil, err
	}

	feedMaxRecords, err := parsePositiveInt("FEED_MAX_RECORDS", 10000)
	if err != nil {
		return nil, err
	}

	mapboxToken := os.Getenv("MAPBOX_TOKEN")
	mapboxEnabled := mapboxToken != ""
	if v := os.Getenv("MAPBOX_ENABLED"); v != "" {
		mapboxEnabled = v == "true"
	}

	cfg := &Config{
		HTTPAddr:           sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:           sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:          sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout:    shutdownTimeout,
		CORSAllowedOrigins: splitList(sharedcfg.EnvOrDefault("CORS_ALLOWED_ORIGINS", "*")),

		DBPath:   sharedcfg.EnvOrDefault("DB_PATH", "tick_tracker.db"),
		SeedFile: os.Getenv("SEED_FILE"),

		FeedKind:       strings.ToLower(sharedcfg.EnvOrDefault("FEED_KIND", FeedHTTP)),
		FeedURL:        sharedcfg.EnvOrDefault("FEED_URL", "https://dev-task.elancoapps.com/sightings"),
		FeedTimeout:    feedTimeout,
		FeedMaxRecords: feedMaxRecords,
		KafkaBrokers:   sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaFeedTopic: sharedcfg.EnvOrDefault("KAFKA_FEED_TOPIC", "tick-sightings"),

		MapboxToken:     mapboxToken,
		MapboxEnabled:   mapboxEnabled,
		MapboxTimeout:   mapboxTimeout,
		MapboxCacheSize: parseMapboxCacheSize(),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.DBPath == "" {
		return errors.New("DB_PATH is required")
	}

	switch c.FeedKind {
	case FeedHTTP:
		if c.FeedURL == "" {
			return errors.New("FEED_URL is required when FEED_KIND is http")
		}
	case FeedKafka:
		if len(c.KafkaBrokers) == 0 {
			return errors.New("KAFKA_BROKERS is required when FEED_KIND is kafka")
		}
		if c.KafkaFeedTopic == "" {
			return errors.New("KAFKA_FEED_TOPIC is required when FEED_KIND is kafka")
		}
	case FeedNone:
	default:
		return fmt.Errorf("invalid FEED_KIND %q: want http, kafka or none", c.FeedKind)
	}

	if c.MapboxEnabled && c.MapboxToken == "" {
		return errors.New("MAPBOX_ENABLED is true but MAPBOX_TOKEN is not set")
	}
	return nil
}

func parsePositiveDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, def))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parsePositiveInt(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s: must be a positive integer", key)
	}
	return n, nil
}

func parseMapboxCacheSize() int {
	if s := os.Getenv("MAPBOX_CACHE_SIZE"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return 1000
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
