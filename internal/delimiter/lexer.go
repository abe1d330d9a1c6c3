// Package delimiter turns character input into complete statements.
//
// Interactive input is fed one rune at a time into a Lexer, a two-state
// machine. In the Accumulating state runes are appended to the pending
// statement. The terminator finalises the statement and switches to
// DiscardingToLineEnd, which drops the rest of the current line; the
// statement is emitted when that line ends. No quoting or nesting is
// recognised: a terminator inside a string literal ends the statement too.
//
// Batch input is read whole and treated as a single statement.
package delimiter

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// DefaultTerminator ends a statement in interactive input.
const DefaultTerminator = ';'

// State is the lexer state.
type State int

// Lexer states.
const (
	Accumulating State = iota
	DiscardingToLineEnd
)

func (s State) String() string {
	switch s {
	case Accumulating:
		return "Accumulating"
	case DiscardingToLineEnd:
		return "DiscardingToLineEnd"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Event is what the caller must do after feeding a rune.
type Event int

// Lexer events.
const (
	// None means nothing visible happened.
	None Event = iota
	// LineBreak means a newline was appended; show the continuation prompt.
	LineBreak
	// Completed means a statement is ready for dispatch.
	Completed
)

// Lexer splits interactive input at a terminator rune.
type Lexer struct {
	terminator rune
	state      State
	buf        strings.Builder
	done       string
}

// NewLexer creates a lexer for the given terminator.
func NewLexer(terminator rune) (*Lexer, error) {
	if err := ValidateTerminator(terminator); err != nil {
		return nil, err
	}
	return &Lexer{terminator: terminator}, nil
}

// ValidateTerminator checks that r can end a statement.
func ValidateTerminator(r rune) error {
	switch {
	case r == '\n' || r == '\r':
		return fmt.Errorf("terminator cannot be a line break")
	case r == utf8.RuneError || r <= 0:
		return fmt.Errorf("invalid terminator %q", r)
	}
	return nil
}

// ParseTerminator converts a configured terminator string to a rune.
func ParseTerminator(s string) (rune, error) {
	if s == "" {
		return DefaultTerminator, nil
	}
	if utf8.RuneCountInString(s) != 1 {
		return 0, fmt.Errorf("terminator must be a single character, got %q", s)
	}
	r, _ := utf8.DecodeRuneInString(s)
	return r, ValidateTerminator(r)
}

// Feed consumes one rune. When it returns Completed, the statement text
// (terminator excluded) is returned and the lexer is back in Accumulating.
func (l *Lexer) Feed(r rune) (Event, string) {
	switch l.state {
	case DiscardingToLineEnd:
		if r != '\n' {
			return None, ""
		}
		stmt := l.done
		l.done = ""
		l.state = Accumulating
		return Completed, stmt

	default:
		switch r {
		case l.terminator:
			l.done = l.buf.String()
			l.buf.Reset()
			l.state = DiscardingToLineEnd
			return None, ""
		case '\n':
			l.buf.WriteRune(r)
			return LineBreak, ""
		default:
			l.buf.WriteRune(r)
			return None, ""
		}
	}
}

// Flush is called at end of input. A statement whose terminator was seen is
// returned even though its line never ended; unterminated text is not.
func (l *Lexer) Flush() (string, bool) {
	if l.state != DiscardingToLineEnd {
		return "", false
	}
	stmt := l.done
	l.done = ""
	l.state = Accumulating
	return stmt, true
}

// Reset drops any pending input.
func (l *Lexer) Reset() {
	l.buf.Reset()
	l.done = ""
	l.state = Accumulating
}

// State returns the current state.
func (l *Lexer) State() State {
	return l.state
}

// Pending returns the text accumulated so far for the next statement.
func (l *Lexer) Pending() string {
	return l.buf.String()
}
