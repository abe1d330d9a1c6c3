package delimiter

import (
	"fmt"
	"io"
	"os"
)

// StdinSource names statements read from the console.
const StdinSource = "<stdin>"

// Statement is the text of one submitted unit.
type Statement struct {
	Text   string
	Source string
	// Line is the 1-based input line the statement started on.
	Line int
}

func (s Statement) String() string {
	return fmt.Sprintf("%s:%d", s.Source, s.Line)
}

// ReadBatch reads all remaining input as a single statement.
func ReadBatch(r io.Reader, source string) (Statement, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Statement{}, fmt.Errorf("failed to read %s: %w", source, err)
	}
	return Statement{Text: string(data), Source: source, Line: 1}, nil
}

// ReadFile reads a whole file as a single statement.
func ReadFile(path string) (Statement, error) {
	f, err := os.Open(path)
	if err != nil {
		return Statement{}, fmt.Errorf("failed to open script: %w", err)
	}
	defer func() { _ = f.Close() }()

	return ReadBatch(f, path)
}
