package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newFlagSet mirrors the persistent flags registered by the root command.
func newFlagSet() *pflag.FlagSet {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String("config", "", "")
	fs.StringP("language", "l", "", "")
	fs.StringP("format", "f", "", "")
	fs.String("terminator", "", "")
	fs.Duration("timeout", 0, "")
	fs.String("driver", "", "")
	fs.String("dsn", "", "")
	fs.String("log-level", "", "")
	fs.String("log-format", "", "")
	fs.String("log-file", "", "")
	fs.BoolP("verbose", "v", false, "")
	return fs
}

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "pickaxe.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())
	ResetConfig()

	cfg, err := LoadConfig("", nil)
	require.NoError(t, err)

	assert.Equal(t, DefaultLanguage, cfg.Language)
	assert.Equal(t, DefaultFormat, cfg.Format)
	assert.Equal(t, ";", cfg.Terminator)
	assert.Equal(t, ';', cfg.TerminatorRune())
	assert.Equal(t, "pickaxe> ", cfg.Prompt)
	assert.Equal(t, "      -> ", cfg.ContinuationPrompt)
	assert.Zero(t, cfg.Timeout)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.Equal(t, DefaultLogMaxSizeMB, cfg.Log.MaxSizeMB)
	assert.Empty(t, GetConfigFileUsed())
}

func TestLoadConfig_FileInWorkingDirectory(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	writeConfig(t, dir, `
language: sql
format: json
timeout: 30s
vars:
  region: eu
  limit: 10
log:
  level: debug
database:
  driver: duckdb
  dsn: analytics.duckdb
`)

	cfg, err := LoadConfig("", nil)
	require.NoError(t, err)

	assert.Equal(t, "pickaxe.yaml", GetConfigFileUsed())
	assert.Equal(t, "sql", cfg.Language)
	assert.Equal(t, "json", cfg.Format)
	assert.Equal(t, 30*time.Second, cfg.Timeout)
	assert.Equal(t, "eu", cfg.Vars["region"])
	assert.EqualValues(t, 10, cfg.Vars["limit"])
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format, "unset nested keys keep their defaults")
	assert.Equal(t, "duckdb", cfg.Database.Driver)
	assert.Equal(t, "analytics.duckdb", cfg.Database.DSN)
}

func TestLoadConfig_ExplicitFile(t *testing.T) {
	t.Chdir(t.TempDir())
	path := writeConfig(t, t.TempDir(), "language: awk\n")

	cfg, err := LoadConfig(path, nil)
	require.NoError(t, err)

	assert.Equal(t, "awk", cfg.Language)
	assert.Equal(t, path, GetConfigFileUsed())
}

func TestLoadConfig_MissingExplicitFile(t *testing.T) {
	t.Chdir(t.TempDir())

	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error reading config file")
}

func TestLoadConfig_EnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	writeConfig(t, dir, "language: sql\nlog:\n  level: warn\n")

	t.Setenv("PICKAXE_LANGUAGE", "awk")
	t.Setenv("PICKAXE_LOG_LEVEL", "error")
	t.Setenv("PICKAXE_LOG_MAX_SIZE_MB", "50")
	t.Setenv("PICKAXE_DATABASE_DSN", "postgres://localhost/db")
	t.Setenv("PICKAXE_CONTINUATION_PROMPT", "... ")

	cfg, err := LoadConfig("", nil)
	require.NoError(t, err)

	assert.Equal(t, "awk", cfg.Language)
	assert.Equal(t, "error", cfg.Log.Level)
	assert.Equal(t, 50, cfg.Log.MaxSizeMB)
	assert.Equal(t, "postgres://localhost/db", cfg.Database.DSN)
	assert.Equal(t, "... ", cfg.ContinuationPrompt)
}

func TestLoadConfig_FlagsOverrideEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("PICKAXE_LANGUAGE", "awk")
	t.Setenv("PICKAXE_FORMAT", "csv")

	fs := newFlagSet()
	require.NoError(t, fs.Parse([]string{
		"--language", "sql",
		"--driver", "sqlite",
		"--dsn", "file.db",
		"--log-level", "warn",
		"--timeout", "2s",
		"--terminator", "$",
	}))

	cfg, err := LoadConfig("", fs)
	require.NoError(t, err)

	assert.Equal(t, "sql", cfg.Language)
	assert.Equal(t, "csv", cfg.Format, "unset flags do not override env")
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "file.db", cfg.Database.DSN)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, 2*time.Second, cfg.Timeout)
	assert.Equal(t, '$', cfg.TerminatorRune())
}

func TestLoadConfig_VerboseForcesDebug(t *testing.T) {
	t.Chdir(t.TempDir())

	fs := newFlagSet()
	require.NoError(t, fs.Parse([]string{"-v"}))

	cfg, err := LoadConfig("", fs)
	require.NoError(t, err)

	assert.True(t, cfg.Verbose)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "debug", cfg.EffectiveLogLevel())
}

func TestLoadConfig_ExpandsDSN(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("PG_PASSWORD", "s3cret")
	t.Setenv("PICKAXE_DATABASE_DSN", "postgres://app:${PG_PASSWORD}@db/app")

	cfg, err := LoadConfig("", nil)
	require.NoError(t, err)

	assert.Equal(t, "postgres://app:s3cret@db/app", cfg.Database.DSN)
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name      string
		yaml      string
		errSubstr string
	}{
		{name: "terminator too long", yaml: "terminator: ';;'\n", errSubstr: "invalid terminator"},
		{name: "newline terminator", yaml: "terminator: \"\\n\"\n", errSubstr: "invalid terminator"},
		{name: "log level", yaml: "log:\n  level: loud\n", errSubstr: "invalid log level"},
		{name: "log format", yaml: "log:\n  format: xml\n", errSubstr: "invalid log format"},
		{name: "negative timeout", yaml: "timeout: -1s\n", errSubstr: "timeout must not be negative"},
		{name: "empty language", yaml: "language: ''\n", errSubstr: "language is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			t.Chdir(dir)
			writeConfig(t, dir, tt.yaml)

			_, err := LoadConfig("", nil)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errSubstr)
		})
	}
}

func TestEnvKey(t *testing.T) {
	assert.Equal(t, "language", envKey("PICKAXE_LANGUAGE"))
	assert.Equal(t, "history_file", envKey("PICKAXE_HISTORY_FILE"))
	assert.Equal(t, "log.max_size_mb", envKey("PICKAXE_LOG_MAX_SIZE_MB"))
	assert.Equal(t, "database.driver", envKey("PICKAXE_DATABASE_DRIVER"))
}

func TestFlagKey(t *testing.T) {
	assert.Equal(t, "log.level", flagKey("log-level"))
	assert.Equal(t, "database.dsn", flagKey("dsn"))
	assert.Equal(t, "database.migrations", flagKey("migrations"))
	assert.Equal(t, "language", flagKey("language"))
}

func TestGetLogger(t *testing.T) {
	assert.NotNil(t, GetLogger(context.Background()))

	logger := GetLogger(context.Background())
	ctx := WithLogger(context.Background(), logger)
	assert.Same(t, logger, GetLogger(ctx))
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(home, "h.txt"), expandHome("~/h.txt"))
	assert.Equal(t, "/abs/h.txt", expandHome("/abs/h.txt"))
}

func TestFromContext(t *testing.T) {
	fallback := FromContext(context.Background())
	assert.Equal(t, DefaultLanguage, fallback.Language)
	assert.NoError(t, fallback.Validate())

	cfg := &Config{Language: "sql"}
	assert.Same(t, cfg, FromContext(WithConfig(context.Background(), cfg)))
}
