package cli

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/leapstack-labs/pickaxe/internal/cli/config"
	"gopkg.in/natefinch/lumberjack.v2"
)

// logBackups is how many rotated log files are kept.
const logBackups = 3

// NewLogger builds the structured logger described by cfg. Logs go to stderr
// unless a log file is configured, in which case the file is rotated by size.
// The returned closer releases the log file and is never nil.
func NewLogger(cfg *config.Config, stderr io.Writer) (*slog.Logger, io.Closer, error) {
	level, err := parseLevel(cfg.EffectiveLogLevel())
	if err != nil {
		return nil, nil, err
	}

	var (
		out    = stderr
		closer io.Closer = nopCloser{}
	)
	if cfg.Log.File != "" {
		lj := &lumberjack.Logger{
			Filename:   cfg.Log.File,
			MaxSize:    cfg.Log.MaxSizeMB,
			MaxBackups: logBackups,
		}
		out, closer = lj, lj
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	switch strings.ToLower(cfg.Log.Format) {
	case "json":
		handler = slog.NewJSONHandler(out, opts)
	case "", "text":
		handler = slog.NewTextHandler(out, opts)
	default:
		_ = closer.Close()
		return nil, nil, fmt.Errorf("invalid log format %q", cfg.Log.Format)
	}

	return slog.New(handler), closer, nil
}

func parseLevel(s string) (slog.Level, error) {
	if strings.EqualFold(s, "warning") {
		s = "warn"
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("invalid log level %q: %w", s, err)
	}
	return level, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
