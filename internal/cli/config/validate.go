package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/leapstack-labs/pickaxe/internal/delimiter"
)

// Validate checks values that can be checked without looking up languages or
// output formats; those registries report their own errors.
func (c *Config) Validate() error {
	var errs []error

	if strings.TrimSpace(c.Language) == "" {
		errs = append(errs, fmt.Errorf("language is required"))
	}
	if _, err := delimiter.ParseTerminator(c.Terminator); err != nil {
		errs = append(errs, fmt.Errorf("invalid terminator: %w", err))
	}
	if c.Timeout < 0 {
		errs = append(errs, fmt.Errorf("timeout must not be negative, got %s", c.Timeout))
	}

	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, fmt.Errorf("invalid log level %q (expected debug, info, warn or error)", c.Log.Level))
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("invalid log format %q (expected text or json)", c.Log.Format))
	}
	if c.Log.MaxSizeMB < 0 {
		errs = append(errs, fmt.Errorf("log.max_size_mb must not be negative"))
	}

	return errors.Join(errs...)
}

// TerminatorRune returns the configured terminator as a rune.
func (c *Config) TerminatorRune() rune {
	r, err := delimiter.ParseTerminator(c.Terminator)
	if err != nil {
		return delimiter.DefaultTerminator
	}
	return r
}
