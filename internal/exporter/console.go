package exporter

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/mattn/go-runewidth"

	"loanmerge/internal/table"
)

// MissingCell is how missing cells appear in console output.
const MissingCell = "NaN"

// RenderTable writes title followed by t as an aligned text grid. Numeric
// columns are right-aligned. When maxRows is positive only that many rows
// are printed, followed by a count of the omitted ones.
func RenderTable(w io.Writer, title string, t *table.Table, maxRows int) error {
	bw := bufio.NewWriter(w)

	if title != "" {
		fmt.Fprintf(bw, "%s (%d rows)\n", title, t.NumRows())
	}

	shown := t.NumRows()
	if maxRows > 0 && shown > maxRows {
		shown = maxRows
	}

	cols := t.Columns()
	cells := make([][]string, shown)
	widths := make([]int, len(cols))
	numeric := make([]bool, len(cols))
	for j, c := range cols {
		widths[j] = runewidth.StringWidth(c)
		numeric[j] = true
	}
	for i := 0; i < shown; i++ {
		row := t.Row(i)
		cells[i] = make([]string, len(cols))
		for j, v := range row {
			s := v.Format()
			switch v.Kind() {
			case table.KindMissing:
				s = MissingCell
			case table.KindNumber:
			default:
				numeric[j] = false
			}
			cells[i][j] = s
			if width := runewidth.StringWidth(s); width > widths[j] {
				widths[j] = width
			}
		}
	}

	writeLine := func(values []string) {
		parts := make([]string, len(values))
		for j, s := range values {
			if numeric[j] {
				parts[j] = runewidth.FillLeft(s, widths[j])
			} else {
				parts[j] = runewidth.FillRight(s, widths[j])
			}
		}
		fmt.Fprintln(bw, strings.TrimRight(strings.Join(parts, "  "), " "))
	}

	writeLine(cols)
	for _, row := range cells {
		writeLine(row)
	}
	if shown < t.NumRows() {
		fmt.Fprintf(bw, "... %d more rows\n", t.NumRows()-shown)
	}
	return bw.Flush()
}
