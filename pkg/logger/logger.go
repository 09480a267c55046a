package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// New returns an info-level console logger.
func New() zerolog.Logger {
	return NewWithConfig("info", true, false)
}

// NewWithConfig builds the root logger. Unknown levels fall back to info.
func NewWithConfig(level string, pretty, noColor bool) zerolog.Logger {
	return newLogger(os.Stdout, level, pretty, noColor)
}

func newLogger(out io.Writer, level string, pretty, noColor bool) zerolog.Logger {
	if pretty {
		out = zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: time.RFC3339,
			NoColor:    noColor,
		}
	}

	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}

	return zerolog.New(out).
		Level(lvl).
		With().
		Timestamp().
		Str("service", "classroom-service").
		Logger()
}
