// Package starlark runs pickaxe statements as Starlark programs.
//
// Each statement is compiled into a Starlark Program. Running it executes the
// top-level statements on a fresh thread; result tables are produced with the
// emit builtin. Import this package with a blank identifier to register the
// "starlark" language:
//
//	import _ "github.com/leapstack-labs/pickaxe/pkg/script/starlark"
package starlark

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/leapstack-labs/pickaxe/pkg/script"
	"go.starlark.net/resolve"
	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
)

// Name is the registered language name.
const Name = "starlark"

// statementFile is the file name reported in positions and backtraces.
const statementFile = "<statement>"

func init() {
	script.Register(Name, func(opts script.Options) (script.Compiler, error) {
		return New(opts)
	})
}

// fileOptions enables the dialect features that make sense for top-level scripts.
var fileOptions = &syntax.FileOptions{
	Set:             true,
	While:           true,
	TopLevelControl: true,
	GlobalReassign:  true,
}

// Compiler compiles statements into Starlark programs.
type Compiler struct {
	logger      *slog.Logger
	stdout      io.Writer
	predeclared starlark.StringDict
}

// New creates a Starlark compiler. Vars are exposed to scripts as the frozen
// "vars" dict.
func New(opts script.Options) (*Compiler, error) {
	opts = opts.Normalize()

	predeclared := Builtins()

	vars, err := GoToStarlark(opts.Vars)
	if err != nil {
		return nil, fmt.Errorf("failed to convert vars: %w", err)
	}
	if vars == starlark.None {
		vars = starlark.NewDict(0)
	}
	predeclared["vars"] = vars
	predeclared.Freeze()

	return &Compiler{
		logger:      opts.Logger,
		stdout:      opts.Stdout,
		predeclared: predeclared,
	}, nil
}

// Compile parses and resolves source. Every resolver error is reported, in
// source order.
func (c *Compiler) Compile(_ context.Context, source string) script.CompileResult {
	_, prog, err := starlark.SourceProgramOptions(fileOptions, statementFile, source, c.predeclared.Has)
	if err != nil {
		return script.Failed(compileMessages(err)...)
	}
	return script.Compiled(&Program{compiler: c, prog: prog})
}

// Close is a no-op; Starlark holds no external resources.
func (c *Compiler) Close() error {
	return nil
}

func compileMessages(err error) []string {
	var list resolve.ErrorList
	if errors.As(err, &list) {
		msgs := make([]string, 0, len(list))
		for _, e := range list {
			msgs = append(msgs, e.Error())
		}
		return msgs
	}
	return []string{err.Error()}
}

// Program is a compiled Starlark statement.
type Program struct {
	compiler *Compiler
	prog     *starlark.Program
}

// Run executes the program's top-level statements. Cancelling ctx cancels
// the Starlark thread, which stops at the next safe point.
func (p *Program) Run(ctx context.Context, emit func(*script.Table) error) error {
	thread := &starlark.Thread{
		Name: "pickaxe",
		Print: func(_ *starlark.Thread, msg string) {
			_, _ = fmt.Fprintln(p.compiler.stdout, msg)
		},
	}
	thread.SetLocal(emitKey, emit)
	thread.SetLocal(contextKey, ctx)

	stop := context.AfterFunc(ctx, func() {
		thread.Cancel(context.Cause(ctx).Error())
	})
	defer stop()

	_, err := p.prog.Init(thread, p.compiler.predeclared)
	if err != nil {
		p.compiler.logger.Debug("starlark program stopped", "error", err, "steps", thread.ExecutionSteps())
		return err
	}
	return nil
}
