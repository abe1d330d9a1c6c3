package commands

import (
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// Styles holds the terminal styles used for notices. On anything other than
// a terminal every style renders text unchanged.
type Styles struct {
	Error  lipgloss.Style
	Notice lipgloss.Style
}

// NewStyles creates styles for output written to w.
func NewStyles(w io.Writer) *Styles {
	r := lipgloss.NewRenderer(w)
	if IsTerminal(w) {
		r.SetColorProfile(termenv.NewOutput(w).EnvColorProfile())
	} else {
		r.SetColorProfile(termenv.Ascii)
	}

	return &Styles{
		Error:  r.NewStyle().Foreground(lipgloss.Color("9")),
		Notice: r.NewStyle().Foreground(lipgloss.Color("11")),
	}
}

type fder interface {
	Fd() uintptr
}

// IsTerminal reports whether v is a file attached to a terminal.
func IsTerminal(v any) bool {
	f, ok := v.(fder)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd())) //nolint:gosec // file descriptors fit in int
}
