// Package logging provides structured logging setup for reelreviews.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// Setup initializes the default slog logger writing to w.
// Dev mode uses human-readable text at debug level; otherwise JSON at level.
func Setup(w io.Writer, devMode bool, level slog.Level) *slog.Logger {
	var handler slog.Handler
	if devMode {
		handler = slog.NewTextHandler(w, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})
	} else {
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{
			Level: level,
		})
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// ParseLevel maps debug, info, warn and error to a slog level.
// An empty string means info.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}
