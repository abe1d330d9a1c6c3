package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// loggerKey is used to store the logger in context.
type loggerKey struct{}

// configKey is used to store the loaded config in context.
type configKey struct{}

// EnvPrefix prefixes environment variables read as configuration.
const EnvPrefix = "PICKAXE_"

// configNames are the file names searched for in the working directory.
var configNames = []string{"pickaxe.yaml", "pickaxe.yml"}

// flagKeys maps flag names to nested config keys. Other flags map to their
// name with dashes replaced by underscores.
var flagKeys = map[string]string{
	"log-level":  "log.level",
	"log-format": "log.format",
	"log-file":   "log.file",
	"driver":     "database.driver",
	"dsn":        "database.dsn",
	"migrations": "database.migrations",
}

// nestedPrefixes are the sections whose environment variables address a
// nested key: PICKAXE_LOG_MAX_SIZE_MB is log.max_size_mb.
var nestedPrefixes = []string{"log_", "database_"}

// Package-level koanf instance and config file tracking
var (
	k              = koanf.New(".")
	configFileUsed string
)

// findConfigFile finds the config file to use.
// Priority: explicit path > pickaxe.yaml > pickaxe.yml
func findConfigFile(explicit string) string {
	if explicit != "" {
		return explicit
	}
	for _, name := range configNames {
		if _, err := os.Stat(name); err == nil {
			return name
		}
	}
	return ""
}

// ResetConfig resets the koanf instance. Used for testing.
func ResetConfig() {
	k = koanf.New(".")
	configFileUsed = ""
}

// Defaults returns the built-in configuration values keyed by config path.
func Defaults() map[string]any {
	return map[string]any{
		"language":            DefaultLanguage,
		"format":              DefaultFormat,
		"terminator":          DefaultTerminator,
		"prompt":              DefaultPrompt,
		"continuation_prompt": DefaultContinuationPrompt,
		"history_file":        defaultHistoryPath(),
		"timeout":             "0s",
		"verbose":             false,
		"log.level":           DefaultLogLevel,
		"log.format":          DefaultLogFormat,
		"log.file":            "",
		"log.max_size_mb":     DefaultLogMaxSizeMB,
		"database.driver":     "",
		"database.dsn":        "",
		"database.migrations": "",
	}
}

func defaultHistoryPath() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return ""
	}
	return filepath.Join(home, DefaultHistoryFile)
}

// envKey transforms PICKAXE_LOG_LEVEL into log.level and
// PICKAXE_CONTINUATION_PROMPT into continuation_prompt.
func envKey(s string) string {
	key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	for _, prefix := range nestedPrefixes {
		if strings.HasPrefix(key, prefix) {
			return strings.TrimSuffix(prefix, "_") + "." + strings.TrimPrefix(key, prefix)
		}
	}
	return key
}

// flagKey maps a flag name to its config key.
func flagKey(name string) string {
	if key, ok := flagKeys[name]; ok {
		return key
	}
	return strings.ReplaceAll(name, "-", "_")
}

// LoadConfig loads configuration from defaults, the config file, environment
// variables and flags.
// Precedence (highest to lowest): flags > env vars > config file > defaults
func LoadConfig(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	// Reset koanf for fresh load
	k = koanf.New(".")

	// 1. Load defaults
	if err := k.Load(confmap.Provider(Defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Find and load config file
	configFileUsed = findConfigFile(cfgFile)
	if configFileUsed != "" {
		if err := k.Load(file.Provider(configFileUsed), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", configFileUsed, err)
		}
	}

	// 3. Load environment variables (PICKAXE_ prefix)
	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. Load flags (highest priority - overrides env vars and config file)
	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			// Only load flags that were explicitly set
			if !f.Changed || f.Name == "config" {
				return "", nil
			}
			return flagKey(f.Name), posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	// 5. Unmarshal into Config struct
	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	cfg.Database.DSN = expandEnvVars(cfg.Database.DSN)
	cfg.HistoryFile = expandHome(cfg.HistoryFile)
	cfg.Log.File = expandHome(cfg.Log.File)
	cfg.Database.Migrations = expandHome(cfg.Database.Migrations)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// GetConfigFileUsed returns the path to the config file being used, if any.
func GetConfigFileUsed() string {
	return configFileUsed
}

// WithConfig returns a copy of ctx carrying cfg.
func WithConfig(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configKey{}, cfg)
}

// FromContext retrieves the config from the command context, falling back to
// the built-in defaults.
func FromContext(ctx context.Context) *Config {
	if ctx != nil {
		if c, ok := ctx.Value(configKey{}).(*Config); ok {
			return c
		}
	}
	return &Config{
		Language:           DefaultLanguage,
		Format:             DefaultFormat,
		Terminator:         DefaultTerminator,
		Prompt:             DefaultPrompt,
		ContinuationPrompt: DefaultContinuationPrompt,
		Log: LogConfig{
			Level:     DefaultLogLevel,
			Format:    DefaultLogFormat,
			MaxSizeMB: DefaultLogMaxSizeMB,
		},
	}
}

// WithLogger returns a copy of ctx carrying logger.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

// GetLogger retrieves the logger from the command context.
func GetLogger(ctx context.Context) *slog.Logger {
	if ctx != nil {
		if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
			return l
		}
	}
	// Return discard logger as safe fallback
	return slog.New(slog.DiscardHandler)
}

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// expandEnvVars expands ${VAR} patterns in a string with environment variable
// values. Unknown variables are left as they are.
func expandEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		varName := match[2 : len(match)-1]
		if val := os.Getenv(varName); val != "" {
			return val
		}
		return match
	})
}

// expandHome replaces a leading ~/ with the user's home directory.
func expandHome(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[2:])
}
