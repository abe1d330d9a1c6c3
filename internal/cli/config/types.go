// Package config provides configuration management for the pickaxe CLI.
//
// Configuration is layered: built-in defaults, then pickaxe.yaml (or the file
// given with --config), then PICKAXE_ environment variables, then flags that
// were set explicitly on the command line.
package config

import "time"

// Defaults.
const (
	DefaultLanguage           = "starlark"
	DefaultFormat             = "box"
	DefaultTerminator         = ";"
	DefaultPrompt             = "pickaxe> "
	DefaultContinuationPrompt = "      -> "
	DefaultLogLevel           = "info"
	DefaultLogFormat          = "text"
	DefaultLogMaxSizeMB       = 10
	DefaultHistoryFile        = ".pickaxe_history"
)

// Config holds all CLI configuration options.
type Config struct {
	Language           string         `koanf:"language"`
	Format             string         `koanf:"format"`
	Terminator         string         `koanf:"terminator"`
	Prompt             string         `koanf:"prompt"`
	ContinuationPrompt string         `koanf:"continuation_prompt"`
	HistoryFile        string         `koanf:"history_file"`
	Timeout            time.Duration  `koanf:"timeout"`
	Verbose            bool           `koanf:"verbose"`
	Vars               map[string]any `koanf:"vars"`
	Log                LogConfig      `koanf:"log"`
	Database           DatabaseConfig `koanf:"database"`
}

// LogConfig configures the structured logger.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `koanf:"level"`
	// Format is text or json.
	Format string `koanf:"format"`
	// File is a log file path. Empty logs to stderr.
	File string `koanf:"file"`
	// MaxSizeMB is the size at which the log file is rotated.
	MaxSizeMB int `koanf:"max_size_mb"`
}

// DatabaseConfig selects the database used by the sql language.
type DatabaseConfig struct {
	Driver string `koanf:"driver"`
	DSN    string `koanf:"dsn"`
	// Migrations is a directory of goose SQL migrations applied on connect.
	Migrations string `koanf:"migrations"`
}

// EffectiveLogLevel returns the configured level, forced to debug when
// verbose output is on.
func (c *Config) EffectiveLogLevel() string {
	if c.Verbose {
		return "debug"
	}
	return c.Log.Level
}
