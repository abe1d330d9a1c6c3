// Package session drives pickaxe statements from input to rendered output.
//
// A Session owns the statement buffer, the prompts and the output stream. It
// runs on a single goroutine: each statement is dispatched synchronously and
// the next one is not read until the previous outcome is known.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/leapstack-labs/pickaxe/internal/delimiter"
	"github.com/leapstack-labs/pickaxe/internal/orchestrator"
	"github.com/leapstack-labs/pickaxe/internal/render"
	"github.com/leapstack-labs/pickaxe/pkg/script"
)

// Default prompts.
const (
	DefaultPrompt             = "pickaxe> "
	DefaultContinuationPrompt = "      -> "
)

// ErrStatementFailed is returned by Batch when the statement did not compile
// or its run failed.
var ErrStatementFailed = errors.New("statement failed")

// Runner executes a single statement.
type Runner interface {
	Execute(ctx context.Context, stmt delimiter.Statement, sink orchestrator.Sink) orchestrator.Outcome
}

// Config configures a Session.
type Config struct {
	Runner   Runner
	Renderer render.Renderer
	Output   io.Writer
	Logger   *slog.Logger

	Terminator         rune
	Prompt             string
	ContinuationPrompt string

	// ErrorStyle decorates compile error lines. Nil prints them unchanged.
	ErrorStyle func(string) string
}

// Session is the state of one interactive or batch session.
type Session struct {
	runner     Runner
	renderer   render.Renderer
	out        io.Writer
	logger     *slog.Logger
	terminator rune
	prompt     string
	contPrompt string
	errorStyle func(string) string

	stats Stats
}

// Stats counts statement outcomes.
type Stats struct {
	Statements int
	Completed  int
	Aborted    int
	Failed     int
	Tables     int
}

// New creates a Session, filling unset fields with defaults.
func New(cfg Config) (*Session, error) {
	if cfg.Runner == nil {
		return nil, fmt.Errorf("session requires a runner")
	}
	if cfg.Renderer == nil {
		r, err := render.Lookup(render.DefaultFormat)
		if err != nil {
			return nil, err
		}
		cfg.Renderer = r
	}
	if cfg.Output == nil {
		cfg.Output = io.Discard
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}
	if cfg.Terminator == 0 {
		cfg.Terminator = delimiter.DefaultTerminator
	}
	if err := delimiter.ValidateTerminator(cfg.Terminator); err != nil {
		return nil, err
	}
	if cfg.Prompt == "" {
		cfg.Prompt = DefaultPrompt
	}
	if cfg.ContinuationPrompt == "" {
		cfg.ContinuationPrompt = DefaultContinuationPrompt
	}
	if cfg.ErrorStyle == nil {
		cfg.ErrorStyle = func(s string) string { return s }
	}

	return &Session{
		runner:     cfg.Runner,
		renderer:   cfg.Renderer,
		out:        cfg.Output,
		logger:     cfg.Logger,
		terminator: cfg.Terminator,
		prompt:     cfg.Prompt,
		contPrompt: cfg.ContinuationPrompt,
		errorStyle: cfg.ErrorStyle,
	}, nil
}

// Stats returns the outcome counters so far.
func (s *Session) Stats() Stats {
	return s.stats
}

// Interactive reads statements from console until end of input or until ctx
// is cancelled. End of input ends the session cleanly. Cancelling ctx ends
// the session even while console is blocked waiting for input.
func (s *Session) Interactive(ctx context.Context, console Console) error {
	lexer, err := delimiter.NewLexer(s.terminator)
	if err != nil {
		return err
	}

	feed := newRuneFeed(console)
	defer feed.stop()

	line, start := 1, 0
	console.SetPrompt(s.prompt)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		r, err := feed.next(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if errors.Is(err, ErrInterrupt) {
			if pending := lexer.Pending(); pending != "" {
				s.logger.Debug("pending statement dropped", "bytes", len(pending))
			}
			lexer.Reset()
			start = 0
			console.SetPrompt(s.prompt)
			continue
		}
		if errors.Is(err, io.EOF) {
			if text, ok := lexer.Flush(); ok {
				s.Dispatch(ctx, delimiter.Statement{Text: text, Source: delimiter.StdinSource, Line: start})
			} else if pending := lexer.Pending(); pending != "" {
				s.logger.Debug("unterminated statement discarded at end of input", "bytes", len(pending))
			}
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read input: %w", err)
		}

		if start == 0 && lexer.State() == delimiter.Accumulating {
			start = line
		}

		ev, text := lexer.Feed(r)
		if r == '\n' {
			line++
		}
		switch ev {
		case delimiter.LineBreak:
			console.SetPrompt(s.contPrompt)
		case delimiter.Completed:
			s.Dispatch(ctx, delimiter.Statement{Text: text, Source: delimiter.StdinSource, Line: start})
			start = 0
			console.SetPrompt(s.prompt)
		}
	}
}

// Batch runs stmt as the only statement of the session. It returns an error
// wrapping ErrStatementFailed if the statement did not compile or its run
// failed. An aborted run is not an error.
func (s *Session) Batch(ctx context.Context, stmt delimiter.Statement) (orchestrator.Outcome, error) {
	out := s.Dispatch(ctx, stmt)
	if out.Failed() {
		return out, fmt.Errorf("%s: %w (%s)", stmt.Source, ErrStatementFailed, out.Kind)
	}
	return out, nil
}

// RunFile loads the whole file at path and runs it as one statement.
func (s *Session) RunFile(ctx context.Context, path string) (orchestrator.Outcome, error) {
	stmt, err := delimiter.ReadFile(path)
	if err != nil {
		return orchestrator.Outcome{}, err
	}
	return s.Batch(ctx, stmt)
}

// Dispatch executes stmt, rendering result tables as they arrive and
// printing compile errors one per line.
func (s *Session) Dispatch(ctx context.Context, stmt delimiter.Statement) orchestrator.Outcome {
	out := s.runner.Execute(ctx, stmt, s.renderTable)

	s.stats.Statements++
	s.stats.Tables += out.Tables
	switch out.Kind {
	case orchestrator.CompileErrors:
		s.stats.Failed++
		for _, msg := range out.Errors {
			_, _ = fmt.Fprintln(s.out, s.errorStyle(msg))
		}
	case orchestrator.RunFailed:
		s.stats.Failed++
	case orchestrator.RunAborted:
		s.stats.Aborted++
	case orchestrator.RunCompleted:
		s.stats.Completed++
	}
	return out
}

func (s *Session) renderTable(t *script.Table) {
	if err := s.renderer.Render(s.out, t); err != nil {
		s.logger.Error("failed to render result", "error", err, "columns", len(t.Columns))
	}
}
