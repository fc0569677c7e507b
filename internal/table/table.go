package table

import (
	"fmt"
	"strconv"
)

// Table is an in-memory, column-ordered table of loosely typed cells.
// Column names are unique; rows are stored positionally against the columns.
type Table struct {
	columns []string
	index   map[string]int
	rows    [][]Value
}

// New creates an empty table with the given columns. Duplicate names are
// de-duplicated by appending ".1", ".2", ... to later occurrences.
func New(columns ...string) *Table {
	t := &Table{index: make(map[string]int, len(columns))}
	for _, c := range columns {
		t.addColumn(c)
	}
	return t
}

func (t *Table) addColumn(name string) string {
	name = uniqueName(name, t.index)
	t.index[name] = len(t.columns)
	t.columns = append(t.columns, name)
	return name
}

func uniqueName(name string, taken map[string]int) string {
	if _, ok := taken[name]; !ok {
		return name
	}
	for n := 1; ; n++ {
		candidate := name + "." + strconv.Itoa(n)
		if _, ok := taken[candidate]; !ok {
			return candidate
		}
	}
}

// Columns returns a copy of the column names in order.
func (t *Table) Columns() []string {
	out := make([]string, len(t.columns))
	copy(out, t.columns)
	return out
}

// NumRows returns the number of rows.
func (t *Table) NumRows() int { return len(t.rows) }

// NumCols returns the number of columns.
func (t *Table) NumCols() int { return len(t.columns) }

// Empty reports whether the table has no rows.
func (t *Table) Empty() bool { return len(t.rows) == 0 }

// HasColumn reports whether the named column exists.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.index[name]
	return ok
}

// ColumnIndex returns the position of the named column.
func (t *Table) ColumnIndex(name string) (int, bool) {
	i, ok := t.index[name]
	return i, ok
}

// MissingColumns returns the names from cols that the table lacks, in order.
func (t *Table) MissingColumns(cols ...string) []string {
	var missing []string
	for _, c := range cols {
		if !t.HasColumn(c) {
			missing = append(missing, c)
		}
	}
	return missing
}

// AppendRow appends one row given positionally. Short rows are padded with
// missing cells; long rows are rejected.
func (t *Table) AppendRow(values ...Value) error {
	if len(values) > len(t.columns) {
		return fmt.Errorf("row has %d values but table has %d columns", len(values), len(t.columns))
	}
	row := make([]Value, len(t.columns))
	copy(row, values)
	t.rows = append(t.rows, row)
	return nil
}

// AppendRecord appends one row given as a column → value mapping. Unknown
// columns are rejected; absent columns are missing.
func (t *Table) AppendRecord(rec map[string]Value) error {
	row := make([]Value, len(t.columns))
	for name, v := range rec {
		i, ok := t.index[name]
		if !ok {
			return fmt.Errorf("unknown column %q", name)
		}
		row[i] = v
	}
	t.rows = append(t.rows, row)
	return nil
}

// At returns the cell at row i in the named column; missing when the column
// does not exist.
func (t *Table) At(i int, column string) Value {
	c, ok := t.index[column]
	if !ok {
		return Missing()
	}
	return t.rows[i][c]
}

// Set overwrites a single cell. It reports false when the column is absent.
func (t *Table) Set(i int, column string, v Value) bool {
	c, ok := t.index[column]
	if !ok {
		return false
	}
	t.rows[i][c] = v
	return true
}

// Row returns a copy of row i.
func (t *Table) Row(i int) []Value {
	out := make([]Value, len(t.columns))
	copy(out, t.rows[i])
	return out
}

// Column returns a copy of the named column's cells.
func (t *Table) Column(name string) ([]Value, bool) {
	c, ok := t.index[name]
	if !ok {
		return nil, false
	}
	out := make([]Value, len(t.rows))
	for i, row := range t.rows {
		out[i] = row[c]
	}
	return out, true
}

// SetColumn replaces the named column, appending it when absent.
func (t *Table) SetColumn(name string, values []Value) error {
	if len(values) != len(t.rows) {
		return fmt.Errorf("column %q has %d values but table has %d rows", name, len(values), len(t.rows))
	}
	c, ok := t.index[name]
	if !ok {
		c = len(t.columns)
		t.index[name] = c
		t.columns = append(t.columns, name)
		for i := range t.rows {
			t.rows[i] = append(t.rows[i], Missing())
		}
	}
	for i, v := range values {
		t.rows[i][c] = v
	}
	return nil
}

// MapColumn rewrites every cell of the named column in place. It reports
// false, leaving the table untouched, when the column does not exist.
func (t *Table) MapColumn(name string, fn func(Value) Value) bool {
	c, ok := t.index[name]
	if !ok {
		return false
	}
	for _, row := range t.rows {
		row[c] = fn(row[c])
	}
	return true
}

// RenameColumns renames every column through fn. Names that collide after
// renaming are de-duplicated the same way New does.
func (t *Table) RenameColumns(fn func(string) string) {
	index := make(map[string]int, len(t.columns))
	for i, c := range t.columns {
		name := uniqueName(fn(c), index)
		index[name] = i
		t.columns[i] = name
	}
	t.index = index
}

// Rename renames the columns listed in mapping; others keep their names.
func (t *Table) Rename(mapping map[string]string) {
	if len(mapping) == 0 {
		return
	}
	t.RenameColumns(func(c string) string {
		if to, ok := mapping[c]; ok {
			return to
		}
		return c
	})
}

// Clone returns a deep copy of the table.
func (t *Table) Clone() *Table {
	out := New(t.columns...)
	out.rows = make([][]Value, len(t.rows))
	for i, row := range t.rows {
		out.rows[i] = append([]Value(nil), row...)
	}
	return out
}

// Filter returns a new table holding the rows for which keep returns true.
func (t *Table) Filter(keep func(i int) bool) *Table {
	out := New(t.columns...)
	for i, row := range t.rows {
		if keep(i) {
			out.rows = append(out.rows, append([]Value(nil), row...))
		}
	}
	return out
}

// Records renders every row with Value.Format, for writers.
func (t *Table) Records() [][]string {
	out := make([][]string, len(t.rows))
	for i, row := range t.rows {
		rec := make([]string, len(row))
		for j, v := range row {
			rec[j] = v.Format()
		}
		out[i] = rec
	}
	return out
}

// Named pairs a table with its logical name.
type Named struct {
	Name  string
	Table *Table
}
