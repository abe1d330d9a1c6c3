package script

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// Execution is the executable context built from a Program. A caller
// subscribes one result callback and then calls Run.
type Execution struct {
	program Program

	mu       sync.Mutex
	onResult func(*Table)
	running  bool
}

// NewExecution wraps p in an executable context.
func NewExecution(p Program) *Execution {
	return &Execution{program: p}
}

// Subscribe registers the callback that receives each validated result
// table. Only one callback may be registered.
func (e *Execution) Subscribe(fn func(*Table)) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.onResult != nil {
		return ErrAlreadySubscribed
	}
	e.onResult = fn
	return nil
}

// Run runs the program on the calling goroutine and blocks until it
// terminates. A run cut short by cancellation returns an error wrapping the
// cancellation cause, so errors.Is(err, ErrAborted) and
// errors.Is(err, ErrTimeout) identify intentional stops.
func (e *Execution) Run(ctx context.Context) error {
	e.mu.Lock()
	if e.onResult == nil {
		e.mu.Unlock()
		return ErrNoSubscriber
	}
	if e.running {
		e.mu.Unlock()
		return fmt.Errorf("execution already started")
	}
	e.running = true
	deliver := e.onResult
	e.mu.Unlock()

	emit := func(t *Table) error {
		if err := t.Validate(); err != nil {
			return fmt.Errorf("invalid result table: %w", err)
		}
		deliver(t)
		return nil
	}

	err := e.program.Run(ctx, emit)
	if ctx.Err() != nil {
		cause := context.Cause(ctx)
		if err == nil || !errors.Is(err, cause) {
			return &CancelledError{Cause: cause, Err: err}
		}
	}
	return err
}

// CancelledError is returned by Run when the context was cancelled while the
// program ran. Err is whatever the engine reported, possibly nil.
type CancelledError struct {
	Cause error
	Err   error
}

func (e *CancelledError) Error() string {
	if e.Err == nil {
		return e.Cause.Error()
	}
	return fmt.Sprintf("%v: %v", e.Cause, e.Err)
}

// Unwrap exposes both the cause and the engine error.
func (e *CancelledError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Cause}
	}
	return []error{e.Cause, e.Err}
}

// IsCancellation reports whether err stems from an abort or a timeout.
func IsCancellation(err error) bool {
	return errors.Is(err, ErrAborted) || errors.Is(err, ErrTimeout) || errors.Is(err, context.Canceled)
}
