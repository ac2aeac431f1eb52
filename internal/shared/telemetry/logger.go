package telemetry

import (
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var (
	loggerMu sync.Mutex
	logger   *zerolog.Logger
)

func get() *zerolog.Logger {
	loggerMu.Lock()
	defer loggerMu.Unlock()
	if logger == nil {
		l := newLogger(os.Stdout)
		logger = &l
	}
	return logger
}

// SetOutput rebuilds the logger against the given writer. Used by tests.
func SetOutput(w io.Writer) {
	loggerMu.Lock()
	defer loggerMu.Unlock()
	l := newLogger(w)
	logger = &l
}

func newLogger(w io.Writer) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339
	zerolog.TimestampFieldName = "ts"
	zerolog.MessageFieldName = "msg"

	return zerolog.New(w).
		Level(parseLevel(os.Getenv("LOG_LEVEL"))).
		With().Timestamp().Logger()
}

func parseLevel(raw string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// Info writes an info-level log line with the given fields.
func Info(msg string, fields map[string]any) {
	get().Info().Fields(fields).Msg(msg)
}

// Warn writes a warn-level log line with the given fields.
func Warn(msg string, fields map[string]any) {
	get().Warn().Fields(fields).Msg(msg)
}

// Error writes an error-level log line with the given fields.
func Error(msg string, fields map[string]any) {
	get().Error().Fields(fields).Msg(msg)
}
