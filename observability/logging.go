package observability

import (
	"log/slog"
	"os"
)

// InitLogging routes all diagnostics to stderr so stdout carries nothing but
// the result payload.
func InitLogging(level slog.Level) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	slog.Debug("configured logging", slog.String("level", level.String()))
}
