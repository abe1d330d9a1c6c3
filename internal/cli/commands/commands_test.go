package commands

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/leapstack-labs/pickaxe/internal/cli/config"
	"github.com/leapstack-labs/pickaxe/internal/render"
	"github.com/leapstack-labs/pickaxe/internal/session"
	"github.com/leapstack-labs/pickaxe/internal/testutil"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	// Register languages used by the tests
	_ "github.com/leapstack-labs/pickaxe/pkg/script/awk"
	_ "github.com/leapstack-labs/pickaxe/pkg/script/starlark"
)

func testConfig(language string) *config.Config {
	cfg := config.FromContext(context.Background())
	cfg.Language = language
	return cfg
}

// newTestCommand returns a command whose context carries cfg and a test
// logger, with output captured in the returned buffer.
func newTestCommand(t *testing.T, cfg *config.Config, stdin string) (*cobra.Command, *bytes.Buffer) {
	t.Helper()
	cmd := &cobra.Command{Use: "test"}
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))

	ctx := config.WithConfig(context.Background(), cfg)
	ctx = config.WithLogger(ctx, testutil.NewTestLogger(t))
	cmd.SetContext(ctx)
	return cmd, &out
}

func writeScript(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestNewRunCommand(t *testing.T) {
	cmd := NewRunCommand()

	assert.Equal(t, "run <file>", cmd.Use)
	assert.NotEmpty(t, cmd.Short, "Short should not be empty")
	assert.NotEmpty(t, cmd.Example, "Example should not be empty")
	assert.NotNil(t, cmd.Flags().Lookup("watch"), "flag %q should exist", "watch")
	assert.Error(t, cmd.Args(cmd, nil), "run requires a file")
}

func TestNewLanguagesCommand(t *testing.T) {
	cmd := NewLanguagesCommand()

	assert.Equal(t, "languages", cmd.Use)
	assert.NotEmpty(t, cmd.Short, "Short should not be empty")
	assert.Contains(t, cmd.Aliases, "langs")
}

func TestRunBatch_Starlark(t *testing.T) {
	path := writeScript(t, "report.star", `
emit(["id", "name"], [[1, "Ann"], [22, "Bob"]])
`)
	cmd, out := newTestCommand(t, testConfig("starlark"), "")

	require.NoError(t, RunBatch(cmd, path))

	want := strings.Join([]string{
		"+----+------+",
		"| id | name |",
		"+----+------+",
		"| 1  | Ann  |",
		"| 22 | Bob  |",
		"+----+------+",
		"",
	}, "\n")
	assert.Equal(t, want, out.String())
}

func TestRunBatch_CompileErrorsFail(t *testing.T) {
	path := writeScript(t, "broken.star", "emit(\n")
	cmd, out := newTestCommand(t, testConfig("starlark"), "")

	err := RunBatch(cmd, path)

	assert.ErrorIs(t, err, session.ErrStatementFailed)
	assert.NotEmpty(t, out.String(), "compile errors are printed")
}

func TestRunBatch_RuntimeFailure(t *testing.T) {
	path := writeScript(t, "fail.star", "x = 1 // 0\n")
	cmd, _ := newTestCommand(t, testConfig("starlark"), "")

	err := RunBatch(cmd, path)

	assert.ErrorIs(t, err, session.ErrStatementFailed)
}

func TestRunBatch_TimeoutIsNotFailure(t *testing.T) {
	path := writeScript(t, "slow.star", "sleep(5)\n")
	cfg := testConfig("starlark")
	cfg.Timeout = 20 * time.Millisecond
	cmd, _ := newTestCommand(t, cfg, "")

	assert.NoError(t, RunBatch(cmd, path))
}

func TestRunBatch_UnknownLanguage(t *testing.T) {
	cmd, _ := newTestCommand(t, testConfig("cobol"), "")

	err := RunBatch(cmd, "unused.cob")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cobol")
}

func TestRunBatch_UnknownFormat(t *testing.T) {
	cfg := testConfig("starlark")
	cfg.Format = "xml"
	cmd, _ := newTestCommand(t, cfg, "")

	err := RunBatch(cmd, "unused.star")

	var unknown *render.UnknownFormatError
	assert.True(t, errors.As(err, &unknown))
}

func TestRunInteractive_StreamInput(t *testing.T) {
	cfg := testConfig("awk")
	cmd, out := newTestCommand(t, cfg, "BEGIN { print \"n\"\nprint 7 };\n")

	require.NoError(t, RunInteractive(cmd))

	want := "pickaxe>       -> +---+\n| n |\n+---+\n| 7 |\n+---+\npickaxe> "
	assert.Equal(t, want, out.String())
}

func TestInventory(t *testing.T) {
	cfg := testConfig("awk")
	cfg.Format = "json"

	tbl := Inventory(cfg)
	require.NoError(t, tbl.Validate())

	selected := map[string]string{}
	for _, row := range tbl.Rows {
		if row[2] == "*" {
			selected[row[0].(string)] = row[1].(string)
		}
	}
	assert.Equal(t, map[string]string{"language": "awk", "format": "json", "driver": "sqlite"}, selected)
}

func TestLanguagesCommand_Output(t *testing.T) {
	cmd := NewLanguagesCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{})
	cmd.SetContext(config.WithConfig(context.Background(), testConfig("starlark")))

	require.NoError(t, cmd.Execute())

	assert.Contains(t, out.String(), "| language | starlark")
	assert.Contains(t, out.String(), "| format   | box")
}

func TestNewStyles_PlainOnNonTerminal(t *testing.T) {
	var buf bytes.Buffer
	styles := NewStyles(&buf)

	assert.Equal(t, "oops", styles.Error.Render("oops"))
	assert.False(t, IsTerminal(&buf))
}
