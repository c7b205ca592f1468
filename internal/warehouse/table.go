// Package warehouse runs read-only SQL against the data warehouse and returns
// dialect-neutral tabular results.
package warehouse

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// ColumnType is the normalized type of a result column.
type ColumnType string

const (
	TypeString    ColumnType = "string"
	TypeInteger   ColumnType = "integer"
	TypeFloat     ColumnType = "float"
	TypeBoolean   ColumnType = "boolean"
	TypeTimestamp ColumnType = "timestamp"
	TypeDate      ColumnType = "date"
	TypeUnknown   ColumnType = "unknown"
)

// Column describes one result column
type Column struct {
	Name string     `json:"name"`
	Type ColumnType `json:"type"`
}

// Table is a complete query result. Row values are one of nil, string, int64,
// float64, bool or time.Time. After a JSON round trip numbers may come back as
// json.Number or float64 and times as strings; the accessors accept all of them.
type Table struct {
	Columns []Column `json:"columns"`
	Rows    [][]any  `json:"rows"`
}

// Len returns the number of rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// ColumnIndex finds a column by name, case-insensitively. Returns -1 if absent.
func (t *Table) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if strings.EqualFold(c.Name, name) {
			return i
		}
	}
	return -1
}

// Reader resolves the named columns once and decodes row values by position
// in the order the names were given.
type Reader struct {
	table   *Table
	indexes []int
}

// NewReader returns a reader over the given columns. Any missing column fails
// with ErrMissingColumn.
func (t *Table) NewReader(columns ...string) (*Reader, error) {
	indexes := make([]int, len(columns))
	for i, name := range columns {
		idx := t.ColumnIndex(name)
		if idx < 0 {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, name)
		}
		indexes[i] = idx
	}
	return &Reader{table: t, indexes: indexes}, nil
}

func (r *Reader) value(row, col int) any {
	return r.table.Rows[row][r.indexes[col]]
}

// IsNull reports whether the value is SQL NULL.
func (r *Reader) IsNull(row, col int) bool {
	return r.value(row, col) == nil
}

// String returns the value as a string; NULL becomes "".
func (r *Reader) String(row, col int) string {
	switch v := r.value(row, col).(type) {
	case nil:
		return ""
	case string:
		return v
	case []byte:
		return string(v)
	case time.Time:
		return v.Format(time.RFC3339)
	default:
		return fmt.Sprint(v)
	}
}

// Int64 returns the value as an integer; NULL becomes 0.
func (r *Reader) Int64(row, col int) (int64, error) {
	v := r.value(row, col)
	n, err := toInt64(v)
	if err != nil {
		return 0, fmt.Errorf("column %s row %d: %w", r.table.Columns[r.indexes[col]].Name, row, err)
	}
	return n, nil
}

// Time returns the value as a time; NULL becomes the zero time.
func (r *Reader) Time(row, col int) (time.Time, error) {
	v := r.value(row, col)
	t, err := toTime(v)
	if err != nil {
		return time.Time{}, fmt.Errorf("column %s row %d: %w", r.table.Columns[r.indexes[col]].Name, row, err)
	}
	return t, nil
}

func toInt64(v any) (int64, error) {
	switch n := v.(type) {
	case nil:
		return 0, nil
	case int64:
		return n, nil
	case int:
		return int64(n), nil
	case int32:
		return int64(n), nil
	case uint64:
		return int64(n), nil
	case float64:
		return int64(math.Round(n)), nil
	case float32:
		return int64(math.Round(float64(n))), nil
	case bool:
		if n {
			return 1, nil
		}
		return 0, nil
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return i, nil
		}
		f, err := n.Float64()
		if err != nil {
			return 0, err
		}
		return int64(math.Round(f)), nil
	case string:
		return parseIntString(n)
	case []byte:
		return parseIntString(string(n))
	default:
		return 0, fmt.Errorf("cannot convert %T to integer", v)
	}
}

func parseIntString(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("cannot convert %q to integer", s)
	}
	return int64(math.Round(f)), nil
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func toTime(v any) (time.Time, error) {
	switch t := v.(type) {
	case nil:
		return time.Time{}, nil
	case time.Time:
		return t, nil
	case string:
		return parseTimeString(t)
	case []byte:
		return parseTimeString(string(t))
	default:
		return time.Time{}, fmt.Errorf("cannot convert %T to time", v)
	}
}

func parseTimeString(s string) (time.Time, error) {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot parse %q as time", s)
}
