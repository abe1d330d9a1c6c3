package starlark

import (
	"fmt"
	"sort"

	"go.starlark.net/starlark"
)

// GoToStarlark converts a Go value to a Starlark value.
// Supported types: nil, string, int, int64, float64, bool, []string, []any, map[string]any.
func GoToStarlark(v any) (starlark.Value, error) {
	if v == nil {
		return starlark.None, nil
	}

	switch val := v.(type) {
	case string:
		return starlark.String(val), nil

	case int:
		return starlark.MakeInt(val), nil

	case int64:
		return starlark.MakeInt64(val), nil

	case float64:
		return starlark.Float(val), nil

	case bool:
		return starlark.Bool(val), nil

	case []string:
		list := make([]starlark.Value, len(val))
		for i, s := range val {
			list[i] = starlark.String(s)
		}
		return starlark.NewList(list), nil

	case []any:
		list := make([]starlark.Value, len(val))
		for i, item := range val {
			sv, err := GoToStarlark(item)
			if err != nil {
				return nil, fmt.Errorf("list index %d: %w", i, err)
			}
			list[i] = sv
		}
		return starlark.NewList(list), nil

	case map[string]any:
		// Insertion order is visible to scripts, so keep it stable.
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		dict := starlark.NewDict(len(val))
		for _, k := range keys {
			sv, err := GoToStarlark(val[k])
			if err != nil {
				return nil, fmt.Errorf("dict key %q: %w", k, err)
			}
			if err := dict.SetKey(starlark.String(k), sv); err != nil {
				return nil, fmt.Errorf("dict setkey %q: %w", k, err)
			}
		}
		return dict, nil

	default:
		return nil, fmt.Errorf("unsupported type: %T", v)
	}
}

// CellValue converts a Starlark value to a table cell.
// Scalars become string, int64, float64, bool or nil; anything else keeps
// its Starlark representation.
func CellValue(v starlark.Value) any {
	switch val := v.(type) {
	case starlark.NoneType:
		return nil

	case starlark.String:
		return string(val)

	case starlark.Int:
		i64, ok := val.Int64()
		if !ok {
			return val.String()
		}
		return i64

	case starlark.Float:
		return float64(val)

	case starlark.Bool:
		return bool(val)

	default:
		return val.String()
	}
}

// StringsFrom converts an iterable of Starlark strings to a Go slice.
func StringsFrom(v starlark.Value) ([]string, error) {
	iterable, ok := v.(starlark.Iterable)
	if !ok {
		return nil, fmt.Errorf("got %s, want iterable", v.Type())
	}

	var out []string
	iter := iterable.Iterate()
	defer iter.Done()

	var item starlark.Value
	for iter.Next(&item) {
		s, ok := starlark.AsString(item)
		if !ok {
			return nil, fmt.Errorf("element %d: got %s, want string", len(out), item.Type())
		}
		out = append(out, s)
	}
	return out, nil
}

// RowsFrom converts an iterable of iterables into table rows.
func RowsFrom(v starlark.Value) ([][]any, error) {
	iterable, ok := v.(starlark.Iterable)
	if !ok {
		return nil, fmt.Errorf("got %s, want iterable", v.Type())
	}

	var rows [][]any
	iter := iterable.Iterate()
	defer iter.Done()

	var item starlark.Value
	for iter.Next(&item) {
		rowIterable, ok := item.(starlark.Iterable)
		if !ok {
			return nil, fmt.Errorf("row %d: got %s, want iterable", len(rows), item.Type())
		}

		var row []any
		cells := rowIterable.Iterate()
		var cell starlark.Value
		for cells.Next(&cell) {
			row = append(row, CellValue(cell))
		}
		cells.Done()

		rows = append(rows, row)
	}
	return rows, nil
}
