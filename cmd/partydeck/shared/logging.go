package shared

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// SetupLogger configures zerolog with pretty console output
func SetupLogger(level string) (zerolog.Logger, error) {
	return newLogger(zerolog.ConsoleWriter{Out: os.Stderr}, level)
}

// SetupStructuredLogger configures zerolog for structured (JSON) output
func SetupStructuredLogger(level string) (zerolog.Logger, error) {
	zerolog.TimeFieldFormat = time.RFC3339Nano
	return newLogger(os.Stderr, level)
}

// SetupFileLogger writes structured logs to w, for modes that own the
// terminal.
func SetupFileLogger(w io.Writer, level string) (zerolog.Logger, error) {
	return newLogger(w, level)
}

func newLogger(w io.Writer, level string) (zerolog.Logger, error) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return zerolog.Nop(), err
	}
	return zerolog.New(w).
		Level(lvl).
		With().
		Timestamp().
		Logger(), nil
}
