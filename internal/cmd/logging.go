package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/chainguard-dev/clog"

	"github.com/cameronsjo/deploybump/internal/config"
)

// newLogger builds the logger for a command. Logs go to w, which is stderr
// in production, so stdout carries only status lines.
func newLogger(cfg *config.Logging, w io.Writer) (*clog.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL %q: %w", cfg.Level, err)
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	switch strings.ToLower(cfg.Format) {
	case "json":
		handler = slog.NewJSONHandler(w, opts)
	case "text", "":
		handler = slog.NewTextHandler(w, opts)
	default:
		return nil, fmt.Errorf("invalid LOG_FORMAT %q (supported: text, json)", cfg.Format)
	}

	return clog.New(handler), nil
}
