// Package render writes result tables to an output stream.
//
// The default format is "box", a bordered text table whose column widths are
// computed from the whole table before anything is written. Other formats
// exist for piping results into other tools.
package render

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/leapstack-labs/pickaxe/pkg/script"
)

// DefaultFormat is used when no format is configured.
const DefaultFormat = "box"

// Renderer writes one table.
type Renderer interface {
	Render(w io.Writer, t *script.Table) error
}

// RendererFunc adapts a function to Renderer.
type RendererFunc func(w io.Writer, t *script.Table) error

// Render calls f(w, t).
func (f RendererFunc) Render(w io.Writer, t *script.Table) error {
	return f(w, t)
}

var formats = map[string]Renderer{
	"box":      RendererFunc(Box),
	"pretty":   RendererFunc(Pretty),
	"csv":      RendererFunc(CSV),
	"markdown": RendererFunc(Markdown),
	"json":     RendererFunc(JSON),
	"yaml":     RendererFunc(YAML),
}

var aliases = map[string]string{
	"md":    "markdown",
	"yml":   "yaml",
	"table": "box",
}

// Lookup returns the renderer for a format name. The empty name selects the
// default format.
func Lookup(name string) (Renderer, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		key = DefaultFormat
	}
	if alias, ok := aliases[key]; ok {
		key = alias
	}
	r, ok := formats[key]
	if !ok {
		return nil, &UnknownFormatError{Name: name, Available: Formats()}
	}
	return r, nil
}

// Formats returns the supported format names (sorted).
func Formats() []string {
	names := make([]string, 0, len(formats))
	for name := range formats {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// UnknownFormatError is returned when an output format is not supported.
type UnknownFormatError struct {
	Name      string
	Available []string
}

func (e *UnknownFormatError) Error() string {
	if len(e.Available) == 0 {
		return fmt.Sprintf("unknown output format %q", e.Name)
	}
	return fmt.Sprintf("unknown output format %q (available: %s)", e.Name, strings.Join(e.Available, ", "))
}
