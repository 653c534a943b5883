// Package dataset provides the in-memory columnar table the validation
// pipeline operates on. The table is a plain columnar representation behind
// a small fixed interface (load, column access, reorder, samples); no
// correctness property of the pipeline depends on which engine executes the
// column operations.
package dataset

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Type is the declared scalar type of a column.
type Type string

const (
	TypeInt       Type = "int64"
	TypeFloat     Type = "float64"
	TypeTimestamp Type = "timestamp"
	TypeString    Type = "string"
)

// Numeric reports whether columns of this type participate in statistics.
func (t Type) Numeric() bool {
	return t == TypeInt || t == TypeFloat
}

// Column is a single typed column with a null mask. Exactly one of the
// value slices is populated, matching Type.
type Column struct {
	Name    string
	Type    Type
	Ints    []int64
	Floats  []float64
	Times   []time.Time
	Strings []string
	Nulls   []bool
}

// Len returns the number of rows in the column.
func (c *Column) Len() int {
	return len(c.Nulls)
}

// IsNull reports whether row i holds no value.
func (c *Column) IsNull(i int) bool {
	return c.Nulls[i]
}

// NullCount counts null rows in one scan.
func (c *Column) NullCount() int {
	n := 0
	for _, isNull := range c.Nulls {
		if isNull {
			n++
		}
	}
	return n
}

// Float returns the numeric value at row i widened to float64. The second
// result is false for nulls and non-numeric columns.
func (c *Column) Float(i int) (float64, bool) {
	if c.Nulls[i] {
		return 0, false
	}
	switch c.Type {
	case TypeInt:
		return float64(c.Ints[i]), true
	case TypeFloat:
		return c.Floats[i], true
	default:
		return 0, false
	}
}

// Time returns the timestamp at row i. The second result is false for nulls
// and non-timestamp columns.
func (c *Column) Time(i int) (time.Time, bool) {
	if c.Nulls[i] || c.Type != TypeTimestamp {
		return time.Time{}, false
	}
	return c.Times[i], true
}

// Render formats the cell at row i for human-readable samples.
func (c *Column) Render(i int) string {
	if c.Nulls[i] {
		return "<null>"
	}
	switch c.Type {
	case TypeInt:
		return strconv.FormatInt(c.Ints[i], 10)
	case TypeFloat:
		return strconv.FormatFloat(c.Floats[i], 'g', -1, 64)
	case TypeTimestamp:
		return c.Times[i].Format("2006-01-02 15:04:05")
	default:
		return c.Strings[i]
	}
}

// gather builds a new column whose row i is the receiver's row perm[i].
func (c *Column) gather(perm []int) Column {
	out := Column{Name: c.Name, Type: c.Type, Nulls: make([]bool, len(perm))}
	switch c.Type {
	case TypeInt:
		out.Ints = make([]int64, len(perm))
		for i, j := range perm {
			out.Ints[i] = c.Ints[j]
		}
	case TypeFloat:
		out.Floats = make([]float64, len(perm))
		for i, j := range perm {
			out.Floats[i] = c.Floats[j]
		}
	case TypeTimestamp:
		out.Times = make([]time.Time, len(perm))
		for i, j := range perm {
			out.Times[i] = c.Times[j]
		}
	default:
		out.Strings = make([]string, len(perm))
		for i, j := range perm {
			out.Strings[i] = c.Strings[j]
		}
	}
	for i, j := range perm {
		out.Nulls[i] = c.Nulls[j]
	}
	return out
}

// Table is an ordered set of equally sized columns. The column set and
// order are fixed once loaded for a given run.
type Table struct {
	columns []Column
	index   map[string]int
}

// NewTable builds a table from columns, validating shape consistency.
func NewTable(columns []Column) (*Table, error) {
	index := make(map[string]int, len(columns))
	rows := -1
	for i, col := range columns {
		if _, dup := index[col.Name]; dup {
			return nil, fmt.Errorf("duplicate column name %q", col.Name)
		}
		index[col.Name] = i
		if rows == -1 {
			rows = col.Len()
		} else if col.Len() != rows {
			return nil, fmt.Errorf("column %q has %d rows, expected %d", col.Name, col.Len(), rows)
		}
	}
	return &Table{columns: columns, index: index}, nil
}

// NumRows returns N.
func (t *Table) NumRows() int {
	if len(t.columns) == 0 {
		return 0
	}
	return t.columns[0].Len()
}

// NumCols returns P.
func (t *Table) NumCols() int {
	return len(t.columns)
}

// Column returns the named column.
func (t *Table) Column(name string) (*Column, bool) {
	i, ok := t.index[name]
	if !ok {
		return nil, false
	}
	return &t.columns[i], true
}

// Columns returns the columns in declared order.
func (t *Table) Columns() []Column {
	return t.columns
}

// ColumnNames returns the column name sequence in declared order.
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.columns))
	for i, c := range t.columns {
		names[i] = c.Name
	}
	return names
}

// Reorder returns a new table whose row i is the receiver's row perm[i].
// The receiver is left untouched so proofs taken on it stay valid.
func (t *Table) Reorder(perm []int) (*Table, error) {
	if len(perm) != t.NumRows() {
		return nil, fmt.Errorf("permutation has %d entries, table has %d rows", len(perm), t.NumRows())
	}
	columns := make([]Column, len(t.columns))
	for i := range t.columns {
		columns[i] = t.columns[i].gather(perm)
	}
	return NewTable(columns)
}

// Take returns a new table containing the receiver's rows at the given
// indices, in the given order. Unlike Reorder it accepts a subset of rows,
// which is what sampling needs. The receiver is left untouched.
func (t *Table) Take(indices []int) (*Table, error) {
	for _, idx := range indices {
		if idx < 0 || idx >= t.NumRows() {
			return nil, fmt.Errorf("row index %d out of range for table with %d rows", idx, t.NumRows())
		}
	}
	columns := make([]Column, len(t.columns))
	for i := range t.columns {
		columns[i] = t.columns[i].gather(indices)
	}
	return NewTable(columns)
}

// ReplaceColumn returns a new table with the named column swapped for col.
// Used by timestamp normalization, which converts a column without touching
// the rest of the table.
func (t *Table) ReplaceColumn(name string, col Column) (*Table, error) {
	i, ok := t.index[name]
	if !ok {
		return nil, fmt.Errorf("column %q not found", name)
	}
	if col.Len() != t.NumRows() {
		return nil, fmt.Errorf("replacement column has %d rows, table has %d", col.Len(), t.NumRows())
	}
	columns := make([]Column, len(t.columns))
	copy(columns, t.columns)
	col.Name = name
	columns[i] = col
	return NewTable(columns)
}

// RenderRows formats rows [start, end) as aligned text for the summary
// report's head/tail samples.
func (t *Table) RenderRows(start, end int) string {
	if start < 0 {
		start = 0
	}
	if end > t.NumRows() {
		end = t.NumRows()
	}
	if start >= end || t.NumCols() == 0 {
		return "(no rows)"
	}

	widths := make([]int, t.NumCols())
	cells := make([][]string, 0, end-start+1)

	header := make([]string, t.NumCols())
	for j, c := range t.columns {
		header[j] = c.Name
		widths[j] = len(c.Name)
	}
	cells = append(cells, header)

	for i := start; i < end; i++ {
		row := make([]string, t.NumCols())
		for j := range t.columns {
			row[j] = t.columns[j].Render(i)
			if len(row[j]) > widths[j] {
				widths[j] = len(row[j])
			}
		}
		cells = append(cells, row)
	}

	var b strings.Builder
	for _, row := range cells {
		for j, cell := range row {
			if j > 0 {
				b.WriteString("  ")
			}
			b.WriteString(fmt.Sprintf("%-*s", widths[j], cell))
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// Head renders the first n rows.
func (t *Table) Head(n int) string {
	return t.RenderRows(0, n)
}

// Tail renders the last n rows.
func (t *Table) Tail(n int) string {
	return t.RenderRows(t.NumRows()-n, t.NumRows())
}
