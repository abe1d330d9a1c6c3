package orchestrator

import (
	"fmt"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
)

// Kind is the terminal state of one statement.
type Kind int

// Outcome kinds. Every statement ends in exactly one of them.
const (
	// CompileErrors means compilation failed and nothing was run.
	CompileErrors Kind = iota + 1
	// RunCompleted means the program ran to completion.
	RunCompleted
	// RunAborted means the run was stopped on request or by the timeout.
	RunAborted
	// RunFailed means the run failed for any other reason.
	RunFailed
)

func (k Kind) String() string {
	switch k {
	case CompileErrors:
		return "compile_errors"
	case RunCompleted:
		return "completed"
	case RunAborted:
		return "aborted"
	case RunFailed:
		return "failed"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Outcome describes how a statement ended.
type Outcome struct {
	ID   uuid.UUID
	Kind Kind
	// Errors holds the compile error messages, in compiler order.
	Errors []string
	// Tables is the number of result tables handed to the sink.
	Tables int
	// Err is the run error for RunAborted and RunFailed.
	Err error
	// Detail is the backtrace or stack trace of a RunFailed outcome.
	Detail   string
	Duration time.Duration
}

// Failed reports whether the statement should count as an error for exit
// status purposes.
func (o Outcome) Failed() bool {
	return o.Kind == CompileErrors || o.Kind == RunFailed
}

// PanicError is a panic recovered from a worker.
type PanicError struct {
	Value any
	Stack []byte
}

func newPanicError(v any) *PanicError {
	return &PanicError{Value: v, Stack: debug.Stack()}
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

// Backtrace returns the goroutine stack captured at the panic.
func (e *PanicError) Backtrace() string {
	return string(e.Stack)
}

// Unwrap returns the panic value when it is an error.
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}
