package script

import (
	"fmt"
)

// Table is one completed tabular result: a header and rows of display
// convertible cells.
type Table struct {
	Columns []string
	Rows    [][]any
}

// NewTable creates an empty table with the given header.
func NewTable(columns ...string) *Table {
	return &Table{Columns: columns}
}

// Append adds a row. It does not check the row length; see Validate.
func (t *Table) Append(cells ...any) {
	t.Rows = append(t.Rows, cells)
}

// Validate checks that every row has exactly one cell per column.
func (t *Table) Validate() error {
	if t == nil {
		return fmt.Errorf("nil result table")
	}
	for i, row := range t.Rows {
		if len(row) != len(t.Columns) {
			return &ShapeError{Row: i, Got: len(row), Want: len(t.Columns)}
		}
	}
	return nil
}

// Cell returns the display text of the cell at row, col.
func (t *Table) Cell(row, col int) string {
	return Stringify(t.Rows[row][col])
}

// Stringify converts a cell value to its display text.
func Stringify(v any) string {
	switch val := v.(type) {
	case nil:
		return "NULL"
	case string:
		return val
	case []byte:
		return string(val)
	case fmt.Stringer:
		return val.String()
	default:
		return fmt.Sprint(val)
	}
}

// ShapeError reports a row whose length differs from the header length.
type ShapeError struct {
	Row  int
	Got  int
	Want int
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("row %d has %d cells, header has %d columns", e.Row, e.Got, e.Want)
}
