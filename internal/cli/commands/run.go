package commands

import (
	"context"
	"errors"

	"github.com/leapstack-labs/pickaxe/internal/session"
	"github.com/leapstack-labs/pickaxe/internal/watch"
	"github.com/spf13/cobra"
)

// RunOptions holds options for the run command.
type RunOptions struct {
	Watch bool
}

// NewRunCommand creates the run command.
func NewRunCommand() *cobra.Command {
	opts := &RunOptions{}

	cmd := &cobra.Command{
		Use:   "run <file>",
		Short: "Run a script file as one statement",
		Long: `Load the entire file as a single statement, compile it and run it.

Terminators inside the file are not treated as statement boundaries. With
--watch the file is run again every time it changes, until interrupted.`,
		Example: `  # Run a Starlark script
  pickaxe run report.star

  # Run a SQL script against a DuckDB file
  pickaxe run -l sql --driver duckdb --dsn sales.duckdb totals.sql

  # Re-run whenever the file is saved
  pickaxe run --watch report.star`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.Watch {
				return runWatch(cmd, args[0])
			}
			return RunBatch(cmd, args[0])
		},
	}

	cmd.Flags().BoolVarP(&opts.Watch, "watch", "w", false, "Re-run the file whenever it changes")

	return cmd
}

func runWatch(cmd *cobra.Command, path string) error {
	rt, err := NewRuntime(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = rt.Close() }()

	w, err := watch.New(path, 0, rt.Logger)
	if err != nil {
		return err
	}

	ctx, stop := rt.HandleInterrupts(cmd.Context())
	defer stop()

	runOnce := func(ctx context.Context) {
		if _, err := rt.Session.RunFile(ctx, path); err != nil && !errors.Is(err, session.ErrStatementFailed) {
			rt.Logger.Error("run failed", "path", path, "error", err)
		}
	}

	runOnce(ctx)
	rt.notice(cmd, "watching %s (Ctrl+C to stop)", w.Path())
	return w.Watch(ctx, runOnce)
}
