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

	// ViaCEP postal code lookup.
	ViaCEPBaseURL   string
	ViaCEPTimeout   time.Duration
	ViaCEPCacheSize int
	ViaCEPRateLimit float64

	DatabaseDriver string
	DatabaseDSN    string

	KafkaEnabled      bool
	KafkaBrokers      []string
	KafkaReportsTopic string

	MediaDir            string
	MediaMaxUploadBytes int64

	DraftTTL time.Duration

	AuthJWTSecret string
	AuthAdminRole string
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	viacepTimeout, err := parsePositiveDuration("VIACEP_TIMEOUT", "5s")
	if err != nil {
		return nil, err
	}
	draftTTL, err := parsePositiveDuration("DRAFT_TTL", "30m")
	if err != nil {
		return nil, err
	}

	cacheSize, err := parseNonNegativeInt("VIACEP_CACHE_SIZE", 1000)
	if err != nil {
		return nil, err
	}
	maxUpload, err := parseNonNegativeInt("MEDIA_MAX_UPLOAD_BYTES", 32<<20)
	if err != nil {
		return nil, err
	}
	if maxUpload == 0 {
		return nil, errors.New("MEDIA_MAX_UPLOAD_BYTES must be positive")
	}

	rateLimit, err := strconv.ParseFloat(sharedcfg.EnvOrDefault("VIACEP_RATE_LIMIT", "10"), 64)
	if err != nil || rateLimit < 0 {
		return nil, errors.New("invalid VIACEP_RATE_LIMIT")
	}

	kafkaEnabled := false
	if v := os.Getenv("KAFKA_ENABLED"); v != "" {
		kafkaEnabled = v == "true"
	}

	cfg := &Config{
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		ViaCEPBaseURL:   sharedcfg.EnvOrDefault("VIACEP_BASE_URL", "https://viacep.com.br"),
		ViaCEPTimeout:   viacepTimeout,
		ViaCEPCacheSize: cacheSize,
		ViaCEPRateLimit: rateLimit,

		DatabaseDriver: sharedcfg.EnvOrDefault("DATABASE_DRIVER", "sqlite"),
		DatabaseDSN:    sharedcfg.EnvOrDefault("DATABASE_DSN", "file:civicreport.db"),

		KafkaEnabled:      kafkaEnabled,
		KafkaBrokers:      sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaReportsTopic: sharedcfg.EnvOrDefault("KAFKA_REPORTS_TOPIC", "citizen-reports"),

		MediaDir:            sharedcfg.EnvOrDefault("MEDIA_DIR", "./media"),
		MediaMaxUploadBytes: int64(maxUpload),

		DraftTTL: draftTTL,

		AuthJWTSecret: os.Getenv("AUTH_JWT_SECRET"),
		AuthAdminRole: sharedcfg.EnvOrDefault("AUTH_ADMIN_ROLE", "admin"),
	}

	switch cfg.DatabaseDriver {
	case "sqlite", "mysql":
	default:
		return nil, fmt.Errorf("unsupported DATABASE_DRIVER %q", cfg.DatabaseDriver)
	}
	if cfg.DatabaseDSN == "" {
		return nil, errors.New("DATABASE_DSN is required")
	}
	if cfg.KafkaEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_ENABLED is true but KAFKA_BROKERS is empty")
	}
	if cfg.KafkaEnabled && cfg.KafkaReportsTopic == "" {
		return nil, errors.New("KAFKA_REPORTS_TOPIC is required")
	}
	if cfg.AuthJWTSecret == "" {
		return nil, errors.New("AUTH_JWT_SECRET is required")
	}

	return cfg, nil
}

func parsePositiveDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, def))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parseNonNegativeInt(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return n, nil
}
