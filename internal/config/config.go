package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
)

// Default upstream endpoints. The dataset URL is a published spreadsheet
// export; because it is not same-origin for the dashboard it is fetched
// through a pass-through relay that wraps the dataset URL.
const (
	defaultFeedURL      = "https://docs.google.com/spreadsheets/d/e/2PACX-1vQ-6gU6HgBZJowUJ46zbn55B5BjkO6Gh4bCaCMakplGl9hbmpYskYXu4NvFaJ_FhgDzIn1X4OpNwQFX/pub?gid=0&single=true&output=csv"
	defaultFeedRelayURL = "https://corsproxy.io/?"
	defaultWeatherURL   = "https://api.openweathermap.org/data/2.5/weather"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Persisted state store.
	StateDBPath string

	// Current-conditions service.
	WeatherAPIURL  string
	WeatherAPIKey  string
	WeatherTimeout time.Duration

	// Space-weather dataset and its pass-through relay.
	FeedURL      string
	FeedRelayURL string
	FeedTimeout  time.Duration

	// Static calendar-status document.
	OpStatusPath string

	// Feedback export (feature-flagged via KAFKA_BROKERS).
	KafkaBrokers     []string
	KafkaExportTopic string
	ExportEnabled    bool
}

// Load reads configuration from environment variables, applying defaults
// where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := parseDuration("SHUTDOWN_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	weatherTimeout, err := parseDuration("OPENWEATHER_TIMEOUT", "5s")
	if err != nil {
		return nil, err
	}
	feedTimeout, err := parseDuration("FEED_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}

	brokers := parseBrokers(os.Getenv("KAFKA_BROKERS"))
	exportEnabled := len(brokers) > 0
	if v := os.Getenv("EXPORT_ENABLED"); v != "" {
		exportEnabled = v == "true"
	}

	cfg := &Config{
		HTTPAddr:        envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		LogFormat:       envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		StateDBPath: envOrDefault("STATE_DB_PATH", "console_state.db"),

		WeatherAPIURL:  envOrDefault("OPENWEATHER_URL", defaultWeatherURL),
		WeatherAPIKey:  os.Getenv("OPENWEATHER_API_KEY"),
		WeatherTimeout: weatherTimeout,

		FeedURL:      envOrDefault("FEED_URL", defaultFeedURL),
		FeedRelayURL: envOrDefault("FEED_RELAY_URL", defaultFeedRelayURL),
		FeedTimeout:  feedTimeout,

		OpStatusPath: envOrDefault("OPSTATUS_PATH", "data/operation_status.json"),

		KafkaBrokers:     brokers,
		KafkaExportTopic: envOrDefault("KAFKA_EXPORT_TOPIC", "mission-feedback"),
		ExportEnabled:    exportEnabled,
	}

	if cfg.WeatherAPIKey == "" {
		return nil, errors.New("OPENWEATHER_API_KEY is required")
	}
	if cfg.FeedURL == "" {
		return nil, errors.New("FEED_URL is required")
	}
	if cfg.ExportEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("EXPORT_ENABLED is true but KAFKA_BROKERS is not set")
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseDuration(key, fallback string) (time.Duration, error) {
	d, err := time.ParseDuration(envOrDefault(key, fallback))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parseBrokers(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	brokers := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			brokers = append(brokers, p)
		}
	}
	return brokers
}
