// internal/logger/logger.go
package logger

import (
	"io"
	"log/slog"
	"os"

	"restkit/internal/config"
)

// Setup returns a text logger for local runs and a JSON logger elsewhere.
func Setup(env string) *slog.Logger {
	return New(os.Stdout, env)
}

func New(w io.Writer, env string) *slog.Logger {
	switch env {
	case config.EnvLocal:
		return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
	case config.EnvDevelopment:
		return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
	default:
		return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}
}
