// Package script defines the contract between pickaxe and the engines that
// compile and run statements.
//
// A language adapter implements Compiler. Compiling a statement yields a
// CompileResult that carries either a runnable Program or the ordered list of
// error messages, never both. A Program is run through an Execution, which
// delivers every result table to a single subscribed callback.
package script

import (
	"context"
	"errors"
)

// Sentinel errors shared by the orchestrator and the language adapters.
var (
	// ErrAborted is the cancellation cause used when a run is aborted on request.
	ErrAborted = errors.New("program aborted")
	// ErrTimeout is the cancellation cause used when a run exceeds its time bound.
	ErrTimeout = errors.New("statement timeout exceeded")
	// ErrAlreadySubscribed is returned when a second result callback is registered.
	ErrAlreadySubscribed = errors.New("result callback already registered")
	// ErrNoSubscriber is returned when Run is called before a callback is registered.
	ErrNoSubscriber = errors.New("no result callback registered")
)

// Compiler turns statement text into a runnable Program.
type Compiler interface {
	// Compile compiles source. The returned result holds a Program if and only
	// if it holds no errors.
	Compile(ctx context.Context, source string) CompileResult

	// Close releases engine resources such as database connections.
	Close() error
}

// Program is a compiled, runnable unit.
//
// Run blocks until the program terminates. It calls emit once per result
// table, in production order. Implementations must observe ctx cancellation
// at safe points and return promptly once it is cancelled.
type Program interface {
	Run(ctx context.Context, emit func(*Table) error) error
}

// CompileResult pairs an optional Program with ordered error messages.
type CompileResult struct {
	Program Program
	Errors  []string
}

// OK reports whether compilation succeeded.
func (r CompileResult) OK() bool {
	return len(r.Errors) == 0 && r.Program != nil
}

// Compiled returns a successful CompileResult.
func Compiled(p Program) CompileResult {
	return CompileResult{Program: p}
}

// Failed returns a CompileResult carrying the given messages and no Program.
func Failed(messages ...string) CompileResult {
	if len(messages) == 0 {
		messages = []string{"compilation failed"}
	}
	return CompileResult{Errors: messages}
}
