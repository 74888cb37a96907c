// Package logging builds the slog.Logger used across instrq. Records are
// rendered by a charmbracelet/log handler.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	charmlog "github.com/charmbracelet/log"

	"github.com/roach88/instrq/internal/config"
)

// New returns a logger writing to w as described by cfg.
func New(w io.Writer, cfg config.LogConfig) (*slog.Logger, error) {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	formatter, err := parseFormatter(cfg.Format)
	if err != nil {
		return nil, err
	}

	handler := charmlog.NewWithOptions(w, charmlog.Options{
		Level:           level,
		ReportTimestamp: cfg.Timestamp,
		TimeFormat:      time.RFC3339,
		Formatter:       formatter,
	})
	return slog.New(handler), nil
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// ParseLevel maps a config level name to a charmbracelet level. Empty means info.
func ParseLevel(raw string) (charmlog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug":
		return charmlog.DebugLevel, nil
	case "", "info":
		return charmlog.InfoLevel, nil
	case "warn", "warning":
		return charmlog.WarnLevel, nil
	case "error":
		return charmlog.ErrorLevel, nil
	default:
		return 0, fmt.Errorf("unknown log level %q", raw)
	}
}

func parseFormatter(raw string) (charmlog.Formatter, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "text":
		return charmlog.TextFormatter, nil
	case "logfmt":
		return charmlog.LogfmtFormatter, nil
	case "json":
		return charmlog.JSONFormatter, nil
	default:
		return 0, fmt.Errorf("unknown log format %q", raw)
	}
}
