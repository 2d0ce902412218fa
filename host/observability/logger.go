// Package observability sets up logging and metrics for the host tools
package observability

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// EnvLogLevel overrides the configured log level when set
const EnvLogLevel = "IMC_LOG_LEVEL"

// InitLogger builds the process logger and installs it as log.Logger
func InitLogger(app, level string, console bool) zerolog.Logger {
	return initLogger(os.Stderr, app, level, console)
}

func initLogger(out io.Writer, app, level string, console bool) zerolog.Logger {
	if env := os.Getenv(EnvLogLevel); env != "" {
		level = env
	}

	if console {
		out = zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: time.RFC3339,
		}
	}

	// Filtering happens per logger; the global default would drop trace
	zerolog.SetGlobalLevel(zerolog.TraceLevel)

	logger := zerolog.New(out).Level(ParseLevel(level)).With().Timestamp().Str("app", app).Logger()
	log.Logger = logger
	return logger
}

// ParseLevel maps a config string to a zerolog level, defaulting to info
func ParseLevel(raw string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "disabled", "off", "none":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}
