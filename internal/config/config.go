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

	// WAQI feed configuration.
	WAQIToken     string
	WAQIBaseURL   string
	WAQITimeout   time.Duration
	WAQICacheSize int
	WAQICacheTTL  time.Duration // 0 disables caching

	// Trained artifacts.
	ModelPath  string
	ScalerPath string

	// Optional event sink.
	KafkaBrokers []string
	KafkaTopic   string
	KafkaEnabled bool
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	waqiTimeout, err := parseDuration("WAQI_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	if waqiTimeout <= 0 {
		return nil, errors.New("invalid WAQI_TIMEOUT")
	}

	cacheTTL, err := parseDuration("WAQI_CACHE_TTL", "0s")
	if err != nil {
		return nil, err
	}
	if cacheTTL < 0 {
		return nil, errors.New("invalid WAQI_CACHE_TTL")
	}

	cacheSize, err := parseCacheSize()
	if err != nil {
		return nil, err
	}

	var brokers []string
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		brokers = sharedcfg.ParseBrokers(v)
	}
	kafkaEnabled := len(brokers) > 0
	if v := os.Getenv("KAFKA_ENABLED"); v != "" {
		kafkaEnabled = v == "true"
	}

	cfg := &Config{
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":5000"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		WAQIToken:     os.Getenv("WAQI_TOKEN"),
		WAQIBaseURL:   sharedcfg.EnvOrDefault("WAQI_BASE_URL", "https://api.waqi.info"),
		WAQITimeout:   waqiTimeout,
		WAQICacheSize: cacheSize,
		WAQICacheTTL:  cacheTTL,

		ModelPath:  sharedcfg.EnvOrDefault("MODEL_PATH", "best_aqi_model.json"),
		ScalerPath: sharedcfg.EnvOrDefault("SCALER_PATH", "scaler.json"),

		KafkaBrokers: brokers,
		KafkaTopic:   sharedcfg.EnvOrDefault("KAFKA_TOPIC", "aqi-events"),
		KafkaEnabled: kafkaEnabled,
	}

	if cfg.KafkaEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_ENABLED is true but KAFKA_BROKERS is not set")
	}
	if cfg.KafkaEnabled && cfg.KafkaTopic == "" {
		return nil, errors.New("KAFKA_TOPIC is required")
	}

	return cfg, nil
}

// APIConfigured reports whether a WAQI token has been provided.
func (c *Config) APIConfigured() bool {
	return c.WAQIToken != ""
}

// CacheEnabled reports whether fetched samples should be cached.
func (c *Config) CacheEnabled() bool {
	return c.WAQICacheTTL > 0
}

func parseDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, def))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func parseCacheSize() (int, error) {
	s := os.Getenv("WAQI_CACHE_SIZE")
	if s == "" {
		return 256, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid WAQI_CACHE_SIZE %q", s)
	}
	return n, nil
}
