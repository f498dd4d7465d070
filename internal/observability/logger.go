package observability

import (
	"io"
	"log/slog"
	"strings"

	"github.com/couchcryptid/covid-data-etl/internal/config"
)

// NewLogger builds a slog logger writing to w in the configured format and level.
func NewLogger(w io.Writer, cfg *config.Config) *slog.Logger {
	return newLogger(w, cfg.LogFormat, cfg.LogLevel)
}

func newLogger(w io.Writer, format, level string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(level)}
	if strings.EqualFold(format, "text") {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
