package logging

import (
	"io"
	"log/slog"
	"strings"
)

// Attribute keys whose values never reach the log: conversations are
// private and the api key is a secret.
var redactedKeys = map[string]struct{}{
	"api_key":       {},
	"authorization": {},
	"message":       {},
	"answer":        {},
}

const redacted = "[redacted]"

// New builds a logger for service writing to w. format is "json" (default)
// or "text".
func New(w io.Writer, service, level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level:       parseLevel(level),
		ReplaceAttr: redact,
	}
	var handler slog.Handler
	if strings.EqualFold(strings.TrimSpace(format), "text") {
		handler = slog.NewTextHandler(w, opts)
	} else {
		handler = slog.NewJSONHandler(w, opts)
	}
	return slog.New(handler).With("service", service)
}

// NewJSONLoggerTo writes JSON records to w.
func NewJSONLoggerTo(w io.Writer, service, level string) *slog.Logger {
	return New(w, service, level, "json")
}

func redact(groups []string, a slog.Attr) slog.Attr {
	if len(groups) > 0 {
		return a
	}
	if _, ok := redactedKeys[strings.ToLower(a.Key)]; ok {
		return slog.String(a.Key, redacted)
	}
	return a
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
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
