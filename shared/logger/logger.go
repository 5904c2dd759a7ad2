// shared/logger/logger.go
package logger

import (
	"io"
	"os"

	"github.com/rs/zerolog"
)

// New builds the JSON logger used by every service. Unknown levels fall back to info.
func New(level string) zerolog.Logger {
	return NewWithWriter(os.Stdout, level)
}

// NewWithWriter is New with an explicit sink, mostly for tests.
func NewWithWriter(w io.Writer, level string) zerolog.Logger {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}

	return zerolog.New(w).
		With().
		Timestamp().
		Caller().
		Logger().
		Level(lvl)
}

// Service returns a child logger tagged with the service name.
func Service(base zerolog.Logger, name string) zerolog.Logger {
	return base.With().Str("service", name).Logger()
}
