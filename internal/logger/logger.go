package logger

import (
	"os"

	"habbo-tracker/internal/config"

	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

func New() zerolog.Logger {
	return SetLevel(zerolog.DebugLevel)
}

func SetLevel(level zerolog.Level) zerolog.Logger {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	logger := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Caller().
		Logger()

	logger = logger.Level(level)

	return logger
}

// ForConfig narrows the bootstrap logger to the configured level.
func ForConfig(cfg *config.Config, base zerolog.Logger) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		base.Warn().Str("log_level", cfg.LogLevel).Msg("unknown log level, keeping debug")
		return base
	}
	return base.Level(level)
}

var Module = fx.Provide(New)
