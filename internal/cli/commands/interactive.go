package commands

import (
	"context"
	"errors"
	"os"

	"github.com/leapstack-labs/pickaxe/internal/session"
	"github.com/spf13/cobra"
)

// RunInteractive runs an interactive session on the command's input. A
// readline console is used when stdin is a terminal.
func RunInteractive(cmd *cobra.Command) error {
	rt, err := NewRuntime(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = rt.Close() }()

	console, err := openConsole(cmd, rt)
	if err != nil {
		return err
	}
	defer func() { _ = console.Close() }()

	ctx, stop := rt.HandleInterrupts(cmd.Context())
	defer stop()

	rt.Logger.Debug("interactive session started", "language", rt.Config.Language, "format", rt.Config.Format)
	err = rt.Session.Interactive(ctx, console)
	stats := rt.Session.Stats()
	rt.Logger.Debug("interactive session ended",
		"statements", stats.Statements,
		"failed", stats.Failed,
		"aborted", stats.Aborted)

	if errors.Is(err, context.Canceled) && errors.Is(context.Cause(ctx), errInterrupted) {
		return nil
	}
	return err
}

func openConsole(cmd *cobra.Command, rt *Runtime) (session.Console, error) {
	in := cmd.InOrStdin()
	if in == os.Stdin && IsTerminal(os.Stdin) {
		return newReadlineConsole(rt.Config.Prompt, rt.Config.HistoryFile, cmd.OutOrStdout())
	}
	return session.NewStreamConsole(in, cmd.OutOrStdout()), nil
}

// RunBatch runs the whole file at path as a single statement. It returns an
// error wrapping session.ErrStatementFailed when the statement fails to
// compile or its run fails.
func RunBatch(cmd *cobra.Command, path string) error {
	rt, err := NewRuntime(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = rt.Close() }()

	ctx, stop := rt.HandleInterrupts(cmd.Context())
	defer stop()

	_, err = rt.Session.RunFile(ctx, path)
	return err
}
