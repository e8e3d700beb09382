package logger

import (
	"io"
	"log/slog"
	"os"
)

var defaultLogger *slog.Logger

func Init(env string) {
	format := "text"
	level := "debug"
	if env == "production" {
		format = "json"
		level = "info"
	}
	InitWith(format, level, os.Stderr)
}

// InitWith configures the default logger from the observability.logging settings.
func InitWith(format, level string, w io.Writer) {
	var handler slog.Handler

	lvl := slog.LevelInfo
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	}

	if format == "json" {
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: lvl})
	} else {
		handler = slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl})
	}

	defaultLogger = slog.New(handler)
	slog.SetDefault(defaultLogger)
}

func LoggerWrapper() *slog.Logger {
	if defaultLogger == nil {
		// lazy initialize a development logger to avoid nil pointer panics
		Init("development")
	}
	return defaultLogger
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
