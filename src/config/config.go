package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"finboard-server/src/finance"
)

type Config struct {
	Port           string
	DatabaseURL    string
	JWTSecret      string
	CursorSecret   string
	RecordsTable   string
	PageSize       int
	MaxPageSize    int
	FanOutLimit    int
	JoinStrategy   finance.JoinStrategy
	QueryTimeout   time.Duration
	QueryRetries   int
	AllowedOrigins []string
	LogLevel       string
	Environment    string
	OTLPEndpoint   string
	MetricsPort    string
}

func Load() (Config, error) {
	// Load .env file if present
	_ = godotenv.Load()

	cfg := Config{
		Port:           getEnv("PORT", "8080"),
		DatabaseURL:    getEnv("DATABASE_URL", ""),
		JWTSecret:      getEnv("JWT_SECRET", ""),
		CursorSecret:   getEnv("CURSOR_SECRET", ""),
		RecordsTable:   getEnv("RECORDS_TABLE", "records"),
		JoinStrategy:   finance.JoinStrategy(getEnv("JOIN_STRATEGY", string(finance.PerItem))),
		AllowedOrigins: splitList(getEnv("ALLOWED_ORIGINS", "")),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		Environment:    getEnv("APP_ENV", "development"),
		OTLPEndpoint:   getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		MetricsPort:    getEnv("METRICS_PORT", ""),
	}

	var err error
	if cfg.PageSize, err = getIntEnv("PAGE_SIZE", 25); err != nil {
		return Config{}, err
	}
	if cfg.MaxPageSize, err = getIntEnv("MAX_PAGE_SIZE", 100); err != nil {
		return Config{}, err
	}
	if cfg.FanOutLimit, err = getIntEnv("JOIN_FANOUT_LIMIT", 8); err != nil {
		return Config{}, err
	}
	if cfg.QueryRetries, err = getIntEnv("QUERY_RETRIES", 3); err != nil {
		return Config{}, err
	}
	if cfg.QueryTimeout, err = time.ParseDuration(getEnv("QUERY_TIMEOUT", "5s")); err != nil {
		return Config{}, fmt.Errorf("invalid QUERY_TIMEOUT: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.PageSize < 1 || c.MaxPageSize < c.PageSize {
		return fmt.Errorf("PAGE_SIZE must be between 1 and MAX_PAGE_SIZE (%d)", c.MaxPageSize)
	}
	if c.FanOutLimit < 1 {
		return fmt.Errorf("JOIN_FANOUT_LIMIT must be at least 1")
	}
	if c.QueryRetries < 0 {
		return fmt.Errorf("QUERY_RETRIES must not be negative")
	}
	if c.QueryTimeout <= 0 {
		return fmt.Errorf("QUERY_TIMEOUT must be positive")
	}
	if !c.JoinStrategy.Valid() {
		return fmt.Errorf("invalid JOIN_STRATEGY %q", c.JoinStrategy)
	}
	return nil
}

// RequireServer checks the settings only the HTTP server needs.
func (c Config) RequireServer() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	return nil
}

func (c Config) RequireDatabase() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getIntEnv(key string, fallback int) (int, error) {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
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
