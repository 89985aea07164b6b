package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
	DriverNone     = "none"
)

type Config struct {
	ServerPort  string
	LogLevel    string
	Environment string

	// DBDriver "none" runs without persistence: profiles are served
	// without discovery annotations and the ranking is unavailable.
	DBDriver string
	DBDSN    string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	SentryDSN string

	UpstreamRPS   float64
	UpstreamBurst int

	CORSOrigins []string
}

func Load(logger zerolog.Logger) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logger.Debug().Msg(".env file not found, using environment variables or defaults")
	}

	cfg := &Config{
		ServerPort:    getEnv("SERVER_PORT", "8080"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		Environment:   getEnv("ENVIRONMENT", "development"),
		DBDriver:      strings.ToLower(getEnv("DB_DRIVER", DriverSQLite)),
		DBDSN:         getEnv("DB_DSN", "habbo.db"),
		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		SentryDSN:     getEnv("SENTRY_DSN", ""),
		CORSOrigins:   splitList(getEnv("CORS_ORIGINS", "*")),
	}

	var err error
	if cfg.RedisDB, err = getEnvInt("REDIS_DB", 0); err != nil {
		return nil, err
	}
	if cfg.UpstreamBurst, err = getEnvInt("UPSTREAM_BURST", 40); err != nil {
		return nil, err
	}
	if cfg.UpstreamRPS, err = getEnvFloat("UPSTREAM_RPS", 20); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	logger.Info().
		Str("server_port", cfg.ServerPort).
		Str("log_level", cfg.LogLevel).
		Str("db_driver", cfg.DBDriver).
		Bool("redis", cfg.RedisAddr != "").
		Bool("sentry", cfg.SentryDSN != "").
		Float64("upstream_rps", cfg.UpstreamRPS).
		Msg("configuration loaded")

	return cfg, nil
}

// PersistenceEnabled reports whether a store was configured at all.
func (c *Config) PersistenceEnabled() bool {
	return c.DBDriver != DriverNone && c.DBDSN != ""
}

func (c *Config) validate() error {
	switch c.DBDriver {
	case DriverSQLite, DriverPostgres, DriverNone:
	default:
		return fmt.Errorf("DB_DRIVER must be one of %s, %s, %s: got %q", DriverSQLite, DriverPostgres, DriverNone, c.DBDriver)
	}
	if c.UpstreamRPS <= 0 {
		return fmt.Errorf("UPSTREAM_RPS must be positive: got %v", c.UpstreamRPS)
	}
	if c.UpstreamBurst < 1 {
		return fmt.Errorf("UPSTREAM_BURST must be at least 1: got %d", c.UpstreamBurst)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getEnvFloat(key string, fallback float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return f, nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

var Module = fx.Provide(Load)
