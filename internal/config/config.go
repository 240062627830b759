package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Workflow defaults applied when a request leaves them unset.
	ConfidenceThreshold int
	MaxIterations       int
	DefaultDaysAhead    int

	// Data providers.
	ProviderTimeout       time.Duration
	OpenMeteoBaseURL      string
	OpenMeteoGeocodingURL string
	NASAPowerBaseURL      string
	NASAPowerLookbackDays int
	SoilGridsEnabled      bool
	SoilGridsBaseURL      string

	// Kafka intake is optional; the HTTP API works without it.
	KafkaEnabled           bool
	KafkaBrokers           []string
	KafkaRequestTopic      string
	KafkaResultTopic       string
	KafkaNotificationTopic string
	KafkaGroupID           string
	BatchSize              int
	BatchFlushInterval     time.Duration

	// Mapbox geocoding configuration.
	MapboxToken     string
	MapboxEnabled   bool
	MapboxTimeout   time.Duration
	MapboxCacheSize int

	// Google collaborators: Gemini advisory text and Custom Search.
	GoogleAPIKey   string
	GeminiModel    string
	SearchEngineID string
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	mapboxTimeout, err := parsePositiveDuration("MAPBOX_TIMEOUT", "5s")
	if err != nil {
		return nil, err
	}
	providerTimeout, err := parsePositiveDuration("PROVIDER_TIMEOUT", "12s")
	if err != nil {
		return nil, err
	}

	batchSize, err := sharedcfg.ParseBatchSize()
	if err != nil {
		return nil, err
	}

	flushInterval, err := sharedcfg.ParseBatchFlushInterval()
	if err != nil {
		return nil, err
	}

	threshold, err := parseIntInRange("CONFIDENCE_THRESHOLD", 75, 0, 100)
	if err != nil {
		return nil, err
	}
	maxIterations, err := parseIntInRange("MAX_ITERATIONS", 2, 1, 5)
	if err != nil {
		return nil, err
	}
	daysAhead, err := parseIntInRange("DEFAULT_DAYS_AHEAD", 30, 1, 60)
	if err != nil {
		return nil, err
	}
	lookback, err := parseIntInRange("NASA_POWER_LOOKBACK_DAYS", 30, 1, 365)
	if err != nil {
		return nil, err
	}

	mapboxToken := os.Getenv("MAPBOX_TOKEN")
	mapboxEnabled := mapboxToken != ""
	if v := os.Getenv("MAPBOX_ENABLED"); v != "" {
		mapboxEnabled = v == "true"
	}

	cfg := &Config{
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		ConfidenceThreshold: threshold,
		MaxIterations:       maxIterations,
		DefaultDaysAhead:    daysAhead,

		ProviderTimeout:       providerTimeout,
		OpenMeteoBaseURL:      sharedcfg.EnvOrDefault("OPEN_METEO_BASE_URL", "https://api.open-meteo.com/v1/forecast"),
		OpenMeteoGeocodingURL: sharedcfg.EnvOrDefault("OPEN_METEO_GEOCODING_URL", "https://geocoding-api.open-meteo.com/v1/search"),
		NASAPowerBaseURL:      sharedcfg.EnvOrDefault("NASA_POWER_BASE_URL", "https://power.larc.nasa.gov/api/temporal/daily/point"),
		NASAPowerLookbackDays: lookback,
		SoilGridsEnabled:      os.Getenv("SOILGRIDS_ENABLED") != "false",
		SoilGridsBaseURL:      sharedcfg.EnvOrDefault("SOILGRIDS_BASE_URL", "https://rest.isric.org/soilgrids/v2.0/properties/query"),

		KafkaEnabled:           os.Getenv("KAFKA_ENABLED") == "true",
		KafkaBrokers:           sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaRequestTopic:      sharedcfg.EnvOrDefault("KAFKA_REQUEST_TOPIC", "agri-risk-requests"),
		KafkaResultTopic:       sharedcfg.EnvOrDefault("KAFKA_RESULT_TOPIC", "agri-risk-results"),
		KafkaNotificationTopic: os.Getenv("KAFKA_NOTIFICATION_TOPIC"),
		KafkaGroupID:           sharedcfg.EnvOrDefault("KAFKA_GROUP_ID", "agri-risk-service"),
		BatchSize:              batchSize,
		BatchFlushInterval:     flushInterval,

		MapboxToken:     mapboxToken,
		MapboxEnabled:   mapboxEnabled,
		MapboxTimeout:   mapboxTimeout,
		MapboxCacheSize: parseMapboxCacheSize(),

		GoogleAPIKey:   os.Getenv("GOOGLE_API_KEY"),
		GeminiModel:    sharedcfg.EnvOrDefault("GEMINI_MODEL", "gemini-2.0-flash"),
		SearchEngineID: os.Getenv("GOOGLE_SEARCH_ENGINE_ID"),
	}

	if cfg.KafkaEnabled {
		if len(cfg.KafkaBrokers) == 0 {
			return nil, errors.New("KAFKA_BROKERS is required")
		}
		if cfg.KafkaRequestTopic == "" {
			return nil, errors.New("KAFKA_REQUEST_TOPIC is required")
		}
		if cfg.KafkaResultTopic == "" {
			return nil, errors.New("KAFKA_RESULT_TOPIC is required")
		}
	}
	if cfg.MapboxEnabled && cfg.MapboxToken == "" {
		return nil, errors.New("MAPBOX_ENABLED is true but MAPBOX_TOKEN is not set")
	}

	return cfg, nil
}

// GeminiEnabled reports whether advisory text generation is configured.
func (c *Config) GeminiEnabled() bool {
	return c.GoogleAPIKey != ""
}

// SearchEnabled reports whether web search is configured.
func (c *Config) SearchEnabled() bool {
	return c.GoogleAPIKey != "" && c.SearchEngineID != ""
}

func parsePositiveDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, def))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parseIntInRange(key string, def, lo, hi int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	if n < lo || n > hi {
		return 0, fmt.Errorf("%s must be between %d and %d", key, lo, hi)
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
