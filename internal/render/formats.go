package render

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/leapstack-labs/pickaxe/pkg/script"
	"gopkg.in/yaml.v3"
)

func prettyWriter(t *script.Table) table.Writer {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleLight)

	header := make(table.Row, len(t.Columns))
	for i, col := range t.Columns {
		header[i] = col
	}
	tw.AppendHeader(header)

	for r, row := range t.Rows {
		out := make(table.Row, len(row))
		for i := range row {
			out[i] = t.Cell(r, i)
		}
		tw.AppendRow(out)
	}
	return tw
}

// Pretty renders t with go-pretty's light box style followed by a row count.
func Pretty(w io.Writer, t *script.Table) error {
	if err := t.Validate(); err != nil {
		return err
	}
	if _, err := fmt.Fprintln(w, prettyWriter(t).Render()); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "(%d rows)\n", len(t.Rows))
	return err
}

// CSV renders t as comma separated values with a header record.
func CSV(w io.Writer, t *script.Table) error {
	if err := t.Validate(); err != nil {
		return err
	}
	_, err := fmt.Fprintln(w, prettyWriter(t).RenderCSV())
	return err
}

// Markdown renders t as a GitHub flavoured markdown table.
func Markdown(w io.Writer, t *script.Table) error {
	if err := t.Validate(); err != nil {
		return err
	}
	_, err := fmt.Fprintln(w, prettyWriter(t).RenderMarkdown())
	return err
}

type jsonTable struct {
	Columns []string `json:"columns"`
	Rows    [][]any  `json:"rows"`
}

// JSON renders t as an object with "columns" and "rows" arrays. Cells keep
// their native JSON types where possible.
func JSON(w io.Writer, t *script.Table) error {
	if err := t.Validate(); err != nil {
		return err
	}

	out := jsonTable{Columns: t.Columns, Rows: make([][]any, len(t.Rows))}
	if out.Columns == nil {
		out.Columns = []string{}
	}
	for r, row := range t.Rows {
		cells := make([]any, len(row))
		for i, v := range row {
			cells[i] = jsonValue(v)
		}
		out.Rows[r] = cells
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func jsonValue(v any) any {
	switch val := v.(type) {
	case nil, bool, string, float64, float32,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64:
		return val
	default:
		if _, err := json.Marshal(val); err == nil {
			if _, isBytes := val.([]byte); !isBytes {
				return val
			}
		}
		return script.Stringify(val)
	}
}

// YAML renders t as a sequence of mappings, one per row, keys in column order.
func YAML(w io.Writer, t *script.Table) error {
	if err := t.Validate(); err != nil {
		return err
	}

	doc := &yaml.Node{Kind: yaml.SequenceNode}
	for r, row := range t.Rows {
		m := &yaml.Node{Kind: yaml.MappingNode}
		for i, col := range t.Columns {
			key := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: col}
			m.Content = append(m.Content, key, yamlValue(row[i], t.Cell(r, i)))
		}
		doc.Content = append(doc.Content, m)
	}
	if len(doc.Content) == 0 {
		doc.Style = yaml.FlowStyle
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return err
	}
	return enc.Close()
}

func yamlValue(v any, text string) *yaml.Node {
	switch v.(type) {
	case nil:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}
	case bool:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: text}
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: text}
	case float32, float64:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!float", Value: text}
	default:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: text}
	}
}
