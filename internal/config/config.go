package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	KafkaBrokers       []string
	KafkaForecastTopic string
	KafkaOutlookTopic  string
	KafkaGroupID       string
	HTTPAddr           string
	LogLevel           string
	LogFormat          string
	ShutdownTimeout    time.Duration

	// Outlook computation settings.
	AuroraAltitudeMeters float64
	MaxHighlights        int
	MinProbability       float64

	// Site observer; the fixed vantage point outlooks are published for.
	// Optional: when unset the engine only serves ad-hoc HTTP queries.
	ObserverSet       bool
	ObserverLatitude  float64
	ObserverLongitude float64
	ObserverAltitude  float64

	// Mapbox reverse-geocoding configuration.
	MapboxToken     string
	MapboxEnabled   bool
	MapboxTimeout   time.Duration
	MapboxCacheSize int
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := parseDuration("SHUTDOWN_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}

	mapboxTimeout, err := parseDuration("MAPBOX_TIMEOUT", "5s")
	if err != nil {
		return nil, err
	}

	auroraAlt, err := parseFloat("AURORA_ALTITUDE_M", 110_000)
	if err != nil {
		return nil, err
	}
	if auroraAlt <= 0 {
		return nil, errors.New("AURORA_ALTITUDE_M must be positive")
	}

	maxHighlights, err := parseInt("MAX_HIGHLIGHTS", 10)
	if err != nil {
		return nil, err
	}
	if maxHighlights <= 0 || maxHighlights > 100 {
		return nil, errors.New("MAX_HIGHLIGHTS must be in 1..100")
	}

	minProbability, err := parseFloat("MIN_PROBABILITY", 5)
	if err != nil {
		return nil, err
	}
	if minProbability < 0 || minProbability > 100 {
		return nil, errors.New("MIN_PROBABILITY must be in 0..100")
	}

	mapboxToken := os.Getenv("MAPBOX_TOKEN")
	mapboxEnabled := mapboxToken != ""
	if v := os.Getenv("MAPBOX_ENABLED"); v != "" {
		mapboxEnabled = v == "true"
	}

	cfg := &Config{
		KafkaBrokers:       parseBrokers(envOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaForecastTopic: envOrDefault("KAFKA_FORECAST_TOPIC", "ovation-forecasts"),
		KafkaOutlookTopic:  envOrDefault("KAFKA_OUTLOOK_TOPIC", "aurora-outlooks"),
		KafkaGroupID:       envOrDefault("KAFKA_GROUP_ID", "aurora-sight"),
		HTTPAddr:           envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:           envOrDefault("LOG_LEVEL", "info"),
		LogFormat:          envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout:    shutdownTimeout,

		AuroraAltitudeMeters: auroraAlt,
		MaxHighlights:        maxHighlights,
		MinProbability:       minProbability,

		MapboxToken:     mapboxToken,
		MapboxEnabled:   mapboxEnabled,
		MapboxTimeout:   mapboxTimeout,
		MapboxCacheSize: parseMapboxCacheSize(),
	}

	if err := loadObserver(cfg); err != nil {
		return nil, err
	}

	if len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_BROKERS is required")
	}
	if cfg.KafkaForecastTopic == "" {
		return nil, errors.New("KAFKA_FORECAST_TOPIC is required")
	}
	if cfg.KafkaOutlookTopic == "" {
		return nil, errors.New("KAFKA_OUTLOOK_TOPIC is required")
	}
	if cfg.MapboxEnabled && cfg.MapboxToken == "" {
		return nil, errors.New("MAPBOX_ENABLED is true but MAPBOX_TOKEN is not set")
	}

	return cfg, nil
}

// loadObserver reads the optional site observer. Latitude and longitude
// come as a pair; altitude defaults to sea level.
func loadObserver(cfg *Config) error {
	latStr, lonStr := os.Getenv("OBSERVER_LAT"), os.Getenv("OBSERVER_LON")
	if latStr == "" && lonStr == "" {
		return nil
	}
	if latStr == "" || lonStr == "" {
		return errors.New("OBSERVER_LAT and OBSERVER_LON must be set together")
	}

	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil || lat < -90 || lat > 90 {
		return errors.New("invalid OBSERVER_LAT")
	}
	lon, err := strconv.ParseFloat(lonStr, 64)
	if err != nil || lon < -180 || lon >= 180 {
		return errors.New("invalid OBSERVER_LON")
	}

	alt, err := parseFloat("OBSERVER_ALT_M", 0)
	if err != nil {
		return err
	}

	cfg.ObserverSet = true
	cfg.ObserverLatitude = lat
	cfg.ObserverLongitude = lon
	cfg.ObserverAltitude = alt
	return nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseBrokers(raw string) []string {
	parts := strings.Split(raw, ",")
	brokers := make([]string, 0, len(parts))
	for _, p := range parts {
		if b := strings.TrimSpace(p); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}

func parseDuration(key, fallback string) (time.Duration, error) {
	d, err := time.ParseDuration(envOrDefault(key, fallback))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parseFloat(key string, fallback float64) (float64, error) {
	s := os.Getenv(key)
	if s == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return f, nil
}

func parseInt(key string, fallback int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s", key)
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
