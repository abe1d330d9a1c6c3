package starlark

import (
	"context"
	"fmt"
	"time"

	"github.com/leapstack-labs/pickaxe/pkg/script"
	"go.starlark.net/starlark"
)

// Thread-local keys used by the builtins.
const (
	emitKey    = "pickaxe.emit"
	contextKey = "pickaxe.context"
)

// Builtins returns the predeclared functions available to every statement.
//
//	emit(columns, rows=[])  deliver a result table
//	sleep(seconds)          pause; interrupted when the run is aborted
func Builtins() starlark.StringDict {
	return starlark.StringDict{
		"emit":  starlark.NewBuiltin("emit", emitBuiltin),
		"sleep": starlark.NewBuiltin("sleep", sleepBuiltin),
	}
}

func emitBuiltin(thread *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var columns, rows starlark.Value = nil, starlark.NewList(nil)
	if err := starlark.UnpackArgs(fn.Name(), args, kwargs, "columns", &columns, "rows?", &rows); err != nil {
		return nil, err
	}

	emit, ok := thread.Local(emitKey).(func(*script.Table) error)
	if !ok {
		return nil, fmt.Errorf("%s: no result receiver for this thread", fn.Name())
	}

	header, err := StringsFrom(columns)
	if err != nil {
		return nil, fmt.Errorf("%s: columns: %w", fn.Name(), err)
	}
	cells, err := RowsFrom(rows)
	if err != nil {
		return nil, fmt.Errorf("%s: rows: %w", fn.Name(), err)
	}

	if err := emit(&script.Table{Columns: header, Rows: cells}); err != nil {
		return nil, fmt.Errorf("%s: %w", fn.Name(), err)
	}
	return starlark.None, nil
}

func sleepBuiltin(thread *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var seconds starlark.Value
	if err := starlark.UnpackPositionalArgs(fn.Name(), args, kwargs, 1, &seconds); err != nil {
		return nil, err
	}

	f, ok := starlark.AsFloat(seconds)
	if !ok || f < 0 {
		return nil, fmt.Errorf("%s: got %s, want non-negative number", fn.Name(), seconds.String())
	}

	ctx, ok := thread.Local(contextKey).(context.Context)
	if !ok {
		ctx = context.Background()
	}

	timer := time.NewTimer(time.Duration(f * float64(time.Second)))
	defer timer.Stop()

	select {
	case <-timer.C:
		return starlark.None, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", fn.Name(), context.Cause(ctx))
	}
}
