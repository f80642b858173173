package formatter

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"sort"
)

// CSVFormatter renders records as comma-separated rows under a header row.
// The header is the sorted union of every record's keys; a record missing
// a key gets an empty cell.
type CSVFormatter struct{}

// NewCSVFormatter creates a new CSV formatter.
func NewCSVFormatter() *CSVFormatter {
	return &CSVFormatter{}
}

// Name returns the formatter name.
func (f *CSVFormatter) Name() string {
	return "csv"
}

// ContentType returns the response Content-Type.
func (f *CSVFormatter) ContentType() string {
	return "text/csv; charset=utf-8"
}

// Format writes the header row followed by one row per record.
func (f *CSVFormatter) Format(_ context.Context, w io.Writer, _ Info, data []map[string]any) error {
	columns := columnsOf(data)
	cw := csv.NewWriter(w)

	if len(columns) > 0 {
		if err := cw.Write(columns); err != nil {
			return err
		}
	}

	row := make([]string, len(columns))
	for _, rec := range data {
		for i, col := range columns {
			cell, err := cellValue(rec[col])
			if err != nil {
				return fmt.Errorf("column %s: %w", col, err)
			}
			row[i] = cell
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

func columnsOf(data []map[string]any) []string {
	seen := make(map[string]bool)
	var columns []string
	for _, rec := range data {
		for k := range rec {
			if !seen[k] {
				seen[k] = true
				columns = append(columns, k)
			}
		}
	}
	sort.Strings(columns)
	return columns
}

// cellValue renders nested values as JSON and scalars as text.
func cellValue(v any) (string, error) {
	switch t := v.(type) {
	case nil:
		return "", nil
	case string:
		return t, nil
	case []byte:
		return string(t), nil
	case bool, int, int32, int64, uint, uint64, float32, float64:
		return fmt.Sprint(t), nil
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return "", err
		}
		return string(b), nil
	}
}
