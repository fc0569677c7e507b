package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"loanmerge/internal/table"
)

// Table builds a table from text rows. Cells use the loader's NA rules, so ""
// and "NA" become missing.
func Table(t *testing.T, columns []string, rows ...[]string) *table.Table {
	t.Helper()
	tbl, err := table.FromRecords(columns, rows)
	if err != nil {
		t.Fatalf("build table fixture: %v", err)
	}
	return tbl
}

// Column returns the formatted cells of one column, failing when it is absent.
func Column(t *testing.T, tbl *table.Table, name string) []string {
	t.Helper()
	values, ok := tbl.Column(name)
	if !ok {
		t.Fatalf("column %q not in %v", name, tbl.Columns())
	}
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = v.Format()
	}
	return out
}

// WriteCSV writes tbl into dir/name and returns the path.
func WriteCSV(t *testing.T, dir, name string, tbl *table.Table) string {
	t.Helper()
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create fixture: %v", err)
	}
	defer f.Close()
	if err := table.WriteCSV(f, tbl); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return path
}
