// Package table holds an uploaded spreadsheet in memory as an ordered grid of
// string cells and supports in-place column enrichment. Row order and row count
// never change; new columns are appended after the original ones.
package table

import (
	"strconv"
	"strings"
)

// Table is an ordered sequence of rows, each a mapping from column name to a
// string cell. The zero value is not usable; use New or Load.
type Table struct {
	headers []string
	index   map[string]int
	rows    [][]string
}

// New creates a table from a header row and data rows. Row slices shorter than
// the header are allowed; missing cells read as empty.
func New(headers []string, rows [][]string) *Table {
	tbl := &Table{
		headers: append([]string(nil), headers...),
		index:   make(map[string]int, len(headers)),
		rows:    rows,
	}
	for i, h := range headers {
		tbl.index[h] = i
	}

	return tbl
}

// Len returns the number of data rows.
func (t *Table) Len() int {
	return len(t.rows)
}

// Columns returns the column names in order, originals first, appended ones after.
func (t *Table) Columns() []string {
	return t.headers
}

// HasColumn reports whether a column with the given name exists.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.index[name]
	return ok
}

// Row returns a mutable view of the i-th data row.
func (t *Table) Row(i int) Row {
	return Row{table: t, idx: i}
}

// addColumn registers a new column and returns its index.
func (t *Table) addColumn(name string) int {
	col := len(t.headers)
	t.headers = append(t.headers, name)
	t.index[name] = col

	return col
}

// Row is a view into a single table row. It writes through to the owning table.
type Row struct {
	table *Table
	idx   int
}

// Get returns the cell under the named column. The second return value is false
// when the column does not exist at all.
func (r Row) Get(name string) (string, bool) {
	col, ok := r.table.index[name]
	if !ok {
		return "", false
	}

	cells := r.table.rows[r.idx]
	if col >= len(cells) {
		return "", true
	}

	return cells[col], true
}

// Float parses the cell under the named column as a float64. It returns false
// when the column is missing, the cell is blank, or the cell is not numeric.
func (r Row) Float(name string) (float64, bool) {
	raw, ok := r.Get(name)
	if !ok {
		return 0, false
	}

	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}

	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}

	return value, true
}

// Set writes a cell under the named column, creating the column if needed.
func (r Row) Set(name, value string) {
	col, ok := r.table.index[name]
	if !ok {
		col = r.table.addColumn(name)
	}

	cells := r.table.rows[r.idx]
	for len(cells) <= col {
		cells = append(cells, "")
	}
	cells[col] = value
	r.table.rows[r.idx] = cells
}
