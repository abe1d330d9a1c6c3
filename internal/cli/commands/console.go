package commands

import (
	"errors"
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/chzyer/readline"
	"github.com/leapstack-labs/pickaxe/internal/session"
)

// readlineConsole adapts line-based readline input to the rune-at-a-time
// session console. Each line is delivered followed by a newline.
type readlineConsole struct {
	rl      *readline.Instance
	pending []rune
}

func newReadlineConsole(prompt, historyFile string, out io.Writer) (*readlineConsole, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          prompt,
		HistoryFile:     historyFile,
		InterruptPrompt: "^C",
		Stdout:          out,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize console: %w", err)
	}
	return &readlineConsole{rl: rl}, nil
}

func (c *readlineConsole) ReadRune() (rune, int, error) {
	for len(c.pending) == 0 {
		line, err := c.rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			return 0, 0, session.ErrInterrupt
		}
		if err != nil {
			return 0, 0, err
		}
		c.pending = []rune(line + "\n")
	}
	r := c.pending[0]
	c.pending = c.pending[1:]
	return r, utf8.RuneLen(r), nil
}

func (c *readlineConsole) SetPrompt(prompt string) {
	c.rl.SetPrompt(prompt)
}

func (c *readlineConsole) Close() error {
	return c.rl.Close()
}
