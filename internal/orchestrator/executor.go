// Package orchestrator compiles statements and runs them on a worker.
//
// An Executor drives one statement at a time: it compiles synchronously,
// reports compile errors without running anything, and otherwise runs the
// program on a dedicated goroutine while the caller receives and renders the
// result tables. Execute returns only after the worker has joined, so the
// next statement never starts compiling while a previous run is still alive.
package orchestrator

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/leapstack-labs/pickaxe/internal/delimiter"
	"github.com/leapstack-labs/pickaxe/pkg/script"
	"golang.org/x/sync/errgroup"
)

// Sink receives result tables on the goroutine that called Execute.
type Sink func(*script.Table)

// Config configures an Executor.
type Config struct {
	Compiler script.Compiler
	Logger   *slog.Logger
	// Timeout bounds each run. Zero means unbounded.
	Timeout time.Duration
}

// Executor runs statements through a compiler.
type Executor struct {
	compiler script.Compiler
	logger   *slog.Logger
	timeout  time.Duration

	// mu serialises statements.
	mu sync.Mutex

	activeMu sync.Mutex
	abort    context.CancelCauseFunc
}

// New creates an Executor.
func New(cfg Config) *Executor {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Executor{
		compiler: cfg.Compiler,
		logger:   logger,
		timeout:  cfg.Timeout,
	}
}

// Execute compiles and runs one statement, handing each result table to sink.
// It blocks until the run has finished and returns its outcome.
func (e *Executor) Execute(ctx context.Context, stmt delimiter.Statement, sink Sink) Outcome {
	e.mu.Lock()
	defer e.mu.Unlock()

	start := time.Now()
	out := Outcome{ID: uuid.New()}
	logger := e.logger.With("statement", out.ID.String(), "source", stmt.String())

	stmtCtx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)
	e.setActive(cancel)
	defer e.setActive(nil)

	logger.Info("compiling", "bytes", len(stmt.Text))
	res := e.compiler.Compile(stmtCtx, stmt.Text)
	if !res.OK() {
		out.Duration = time.Since(start)
		if stmtCtx.Err() != nil {
			out.Kind = RunAborted
			out.Err = context.Cause(stmtCtx)
			logger.Info("program aborted", "cause", out.Err, "phase", "compile")
			return out
		}
		out.Kind = CompileErrors
		out.Errors = res.Errors
		if len(out.Errors) == 0 {
			out.Errors = []string{"compilation failed"}
		}
		logger.Debug("compile failed", "errors", len(out.Errors))
		return out
	}

	logger.Info("running")
	tables, err := e.run(stmtCtx, res.Program, sink)
	out.Tables = tables
	out.Duration = time.Since(start)

	switch {
	case err == nil:
		out.Kind = RunCompleted
		logger.Debug("completed", "tables", tables, "duration", out.Duration)

	case script.IsCancellation(err):
		out.Kind = RunAborted
		out.Err = err
		logger.Info("program aborted", "cause", err, "tables", tables)

	default:
		out.Kind = RunFailed
		out.Err = err
		out.Detail = backtrace(err)
		logger.Error("unexpected failure", "error", err, "detail", out.Detail)
	}
	return out
}

func (e *Executor) run(ctx context.Context, prog script.Program, sink Sink) (int, error) {
	runCtx := ctx
	if e.timeout > 0 {
		var stop context.CancelFunc
		runCtx, stop = context.WithTimeoutCause(ctx, e.timeout, script.ErrTimeout)
		defer stop()
	}

	exec := script.NewExecution(prog)
	results := make(chan *script.Table)
	if err := exec.Subscribe(func(t *script.Table) { results <- t }); err != nil {
		return 0, err
	}

	var g errgroup.Group
	g.Go(func() (err error) {
		defer close(results)
		defer func() {
			if r := recover(); r != nil {
				err = newPanicError(r)
			}
		}()
		return exec.Run(runCtx)
	})

	count := 0
	for t := range results {
		sink(t)
		count++
	}
	return count, g.Wait()
}

// Abort stops the statement that is currently compiling or running, if any.
// It reports whether a statement was interrupted.
func (e *Executor) Abort() bool {
	e.activeMu.Lock()
	defer e.activeMu.Unlock()

	if e.abort == nil {
		return false
	}
	e.abort(script.ErrAborted)
	return true
}

// Close releases the compiler.
func (e *Executor) Close() error {
	return e.compiler.Close()
}

func (e *Executor) setActive(cancel context.CancelCauseFunc) {
	e.activeMu.Lock()
	e.abort = cancel
	e.activeMu.Unlock()
}

type backtracer interface {
	Backtrace() string
}

func backtrace(err error) string {
	var bt backtracer
	if errors.As(err, &bt) {
		return bt.Backtrace()
	}
	return err.Error()
}
