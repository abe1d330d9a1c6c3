package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/leapstack-labs/pickaxe/internal/cli/config"
	"github.com/leapstack-labs/pickaxe/internal/orchestrator"
	"github.com/leapstack-labs/pickaxe/internal/render"
	"github.com/leapstack-labs/pickaxe/internal/session"
	"github.com/leapstack-labs/pickaxe/pkg/script"
	"github.com/spf13/cobra"
)

// Runtime bundles what a command needs to run statements.
type Runtime struct {
	Config   *config.Config
	Logger   *slog.Logger
	Executor *orchestrator.Executor
	Session  *session.Session
	Styles   *Styles
}

// NewRuntime builds the compiler, executor and session for cmd from the
// configuration stored in its context.
func NewRuntime(cmd *cobra.Command) (*Runtime, error) {
	ctx := cmd.Context()
	cfg := config.FromContext(ctx)
	logger := config.GetLogger(ctx)
	out := cmd.OutOrStdout()

	renderer, err := render.Lookup(cfg.Format)
	if err != nil {
		return nil, err
	}

	compiler, err := script.New(cfg.Language, script.Options{
		Logger: logger,
		Stdout: out,
		Vars:   cfg.Vars,
		Driver: cfg.Database.Driver,
		DSN:    cfg.Database.DSN,

		Migrations: cfg.Database.Migrations,
	})
	if err != nil {
		return nil, err
	}

	exec := orchestrator.New(orchestrator.Config{
		Compiler: compiler,
		Logger:   logger.With("language", cfg.Language),
		Timeout:  cfg.Timeout,
	})

	styles := NewStyles(out)
	sess, err := session.New(session.Config{
		Runner:             exec,
		Renderer:           renderer,
		Output:             out,
		Logger:             logger,
		Terminator:         cfg.TerminatorRune(),
		Prompt:             cfg.Prompt,
		ContinuationPrompt: cfg.ContinuationPrompt,
		ErrorStyle:         func(s string) string { return styles.Error.Render(s) },
	})
	if err != nil {
		_ = exec.Close()
		return nil, err
	}

	return &Runtime{
		Config:   cfg,
		Logger:   logger,
		Executor: exec,
		Session:  sess,
		Styles:   styles,
	}, nil
}

// Close releases the compiler.
func (r *Runtime) Close() error {
	return r.Executor.Close()
}

// errInterrupted is the cancellation cause when SIGINT arrives while no
// statement is running.
var errInterrupted = errors.New("interrupted")

// HandleInterrupts makes SIGINT abort the running statement. A SIGINT with
// nothing running cancels the returned context instead. Call stop to restore
// default signal handling.
func (r *Runtime) HandleInterrupts(parent context.Context) (ctx context.Context, stop func()) {
	ctx, cancel := context.WithCancelCause(parent)
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt)
	done := make(chan struct{})

	go func() {
		for {
			select {
			case <-sigs:
				if r.Executor.Abort() {
					r.Logger.Debug("abort requested")
					continue
				}
				cancel(errInterrupted)
			case <-done:
				return
			}
		}
	}()

	return ctx, func() {
		signal.Stop(sigs)
		close(done)
		cancel(nil)
	}
}

// notice prints a styled informational line to stderr.
func (r *Runtime) notice(cmd *cobra.Command, format string, args ...any) {
	_, _ = fmt.Fprintln(cmd.ErrOrStderr(), r.Styles.Notice.Render(fmt.Sprintf(format, args...)))
}
