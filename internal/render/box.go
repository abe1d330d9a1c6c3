package render

import (
	"bufio"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/leapstack-labs/pickaxe/pkg/script"
)

// padding is the minimum space around a value inside its column.
const padding = 2

// ColumnWidths computes the width of each column: the longest of the header
// and every cell, plus padding. Lengths are counted in runes.
func ColumnWidths(t *script.Table) []int {
	widths := make([]int, len(t.Columns))
	for i, col := range t.Columns {
		widths[i] = utf8.RuneCountInString(col) + padding
	}
	for r, row := range t.Rows {
		for i := range row {
			if i >= len(widths) {
				break
			}
			if w := utf8.RuneCountInString(t.Cell(r, i)) + padding; w > widths[i] {
				widths[i] = w
			}
		}
	}
	return widths
}

// Box renders t as a bordered text table:
//
//	+----+------+
//	| id | name |
//	+----+------+
//	| 1  | Ann  |
//	+----+------+
//
// A table with no rows prints the border, header, border and closing border.
func Box(w io.Writer, t *script.Table) error {
	if err := t.Validate(); err != nil {
		return err
	}

	widths := ColumnWidths(t)
	border := boxBorder(widths)

	bw := bufio.NewWriter(w)
	bw.WriteString(border)
	bw.WriteString(boxLine(widths, t.Columns))
	bw.WriteString(border)

	cells := make([]string, len(t.Columns))
	for r := range t.Rows {
		for i := range cells {
			cells[i] = t.Cell(r, i)
		}
		bw.WriteString(boxLine(widths, cells))
	}
	bw.WriteString(border)

	return bw.Flush()
}

func boxBorder(widths []int) string {
	var sb strings.Builder
	for _, w := range widths {
		sb.WriteByte('+')
		sb.WriteString(strings.Repeat("-", w))
	}
	sb.WriteString("+\n")
	return sb.String()
}

func boxLine(widths []int, values []string) string {
	var sb strings.Builder
	for i, w := range widths {
		sb.WriteString("| ")
		sb.WriteString(values[i])
		if n := w - 1 - utf8.RuneCountInString(values[i]); n > 0 {
			sb.WriteString(strings.Repeat(" ", n))
		}
	}
	sb.WriteString("|\n")
	return sb.String()
}
