package sql

import (
	"fmt"
	"slices"
)

// Frame is an in-memory table holding a query result.
type Frame struct {
	Columns []string
	Rows    [][]any
}

// ScanFrame reads every remaining row of rows into a Frame and closes rows.
// []byte cells are converted to strings.
func ScanFrame(rows ColumnScanner) (_ *Frame, rerr error) {
	defer func() {
		if err := rows.Close(); err != nil && rerr == nil {
			rerr = err
		}
	}()
	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("dialect/sql: read columns: %w", err)
	}
	f := &Frame{Columns: columns}
	for rows.Next() {
		cells := make([]any, len(columns))
		dest := make([]any, len(columns))
		for i := range cells {
			dest[i] = &cells[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("dialect/sql: scan row %d: %w", len(f.Rows), err)
		}
		for i, c := range cells {
			if b, ok := c.([]byte); ok {
				cells[i] = string(b)
			}
		}
		f.Rows = append(f.Rows, cells)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return f, nil
}

// Len returns the number of rows.
func (f *Frame) Len() int { return len(f.Rows) }

// Index returns the position of the named column, or -1.
func (f *Frame) Index(column string) int {
	return slices.Index(f.Columns, column)
}

// Column returns the cells of the named column.
func (f *Frame) Column(column string) ([]any, bool) {
	i := f.Index(column)
	if i < 0 {
		return nil, false
	}
	cells := make([]any, len(f.Rows))
	for n, row := range f.Rows {
		cells[n] = row[i]
	}
	return cells, true
}

// Strings returns the named column formatted as strings. NULL cells become "".
func (f *Frame) Strings(column string) []string {
	cells, ok := f.Column(column)
	if !ok {
		return nil
	}
	out := make([]string, len(cells))
	for i, c := range cells {
		if c != nil {
			out[i] = fmt.Sprint(c)
		}
	}
	return out
}

// Single returns the only column of a one-column frame.
func (f *Frame) Single() ([]any, bool) {
	if len(f.Columns) != 1 {
		return nil, false
	}
	return f.Column(f.Columns[0])
}

// Select returns a new frame restricted to the given columns, in order.
func (f *Frame) Select(columns ...string) (*Frame, error) {
	idx := make([]int, len(columns))
	for i, c := range columns {
		if idx[i] = f.Index(c); idx[i] < 0 {
			return nil, fmt.Errorf("dialect/sql: frame has no column %q", c)
		}
	}
	out := &Frame{Columns: slices.Clone(columns), Rows: make([][]any, len(f.Rows))}
	for n, row := range f.Rows {
		cells := make([]any, len(idx))
		for i, j := range idx {
			cells[i] = row[j]
		}
		out.Rows[n] = cells
	}
	return out, nil
}

// Records returns one map per row, keyed by column name.
func (f *Frame) Records() []map[string]any {
	out := make([]map[string]any, len(f.Rows))
	for n, row := range f.Rows {
		m := make(map[string]any, len(f.Columns))
		for i, c := range f.Columns {
			m[c] = row[i]
		}
		out[n] = m
	}
	return out
}
