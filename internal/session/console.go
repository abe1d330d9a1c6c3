package session

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
)

// ErrInterrupt is returned by a Console when the user interrupts the line
// being edited. The session drops the pending statement and carries on.
var ErrInterrupt = errors.New("interrupted")

// Console is a source of interactive input that can show prompts.
type Console interface {
	io.RuneReader
	// SetPrompt makes prompt the prompt for the input that follows.
	SetPrompt(prompt string)
	Close() error
}

// StreamConsole reads runes from a plain stream and writes prompts to an
// output stream as soon as they are set. It is used when input is not a
// terminal.
type StreamConsole struct {
	in  *bufio.Reader
	out io.Writer
}

// NewStreamConsole creates a console over r that prints prompts to w.
func NewStreamConsole(r io.Reader, w io.Writer) *StreamConsole {
	return &StreamConsole{in: bufio.NewReader(r), out: w}
}

// ReadRune reads the next rune.
func (c *StreamConsole) ReadRune() (rune, int, error) {
	return c.in.ReadRune()
}

// SetPrompt prints prompt.
func (c *StreamConsole) SetPrompt(prompt string) {
	_, _ = fmt.Fprint(c.out, prompt)
}

// Close is a no-op; the underlying streams belong to the caller.
func (c *StreamConsole) Close() error {
	return nil
}

// runeResult is one ReadRune result handed back by a runeFeed.
type runeResult struct {
	r   rune
	err error
}

// runeFeed performs blocking ReadRune calls on its own goroutine so the
// session can stop waiting when its context is cancelled. A rune is only read
// when one is requested, so prompts set between reads still apply to the
// next read. A read abandoned on cancellation finishes in the background.
type runeFeed struct {
	requests chan struct{}
	results  chan runeResult
	waiting  bool
}

func newRuneFeed(src io.RuneReader) *runeFeed {
	f := &runeFeed{
		requests: make(chan struct{}, 1),
		results:  make(chan runeResult, 1),
	}
	go func() {
		for range f.requests {
			r, _, err := src.ReadRune()
			f.results <- runeResult{r: r, err: err}
		}
	}()
	return f
}

// next returns the next rune, or ctx's error once ctx is done.
func (f *runeFeed) next(ctx context.Context) (rune, error) {
	if !f.waiting {
		f.requests <- struct{}{}
		f.waiting = true
	}
	select {
	case res := <-f.results:
		f.waiting = false
		return res.r, res.err
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}

// stop ends the reading goroutine once any pending read returns.
func (f *runeFeed) stop() {
	close(f.requests)
}
