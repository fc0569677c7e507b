package exporter

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"loanmerge/internal/table"
)

// SheetName is the worksheet that holds the table in xlsx output.
const SheetName = "Sheet1"

func encodeXLSX(out io.Writer, t *table.Table) error {
	f := excelize.NewFile()
	defer f.Close()

	sw, err := f.NewStreamWriter(SheetName)
	if err != nil {
		return fmt.Errorf("failed to create stream writer: %w", err)
	}

	header := make([]interface{}, t.NumCols())
	for i, c := range t.Columns() {
		header[i] = c
	}
	if err := sw.SetRow("A1", header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for i := 0; i < t.NumRows(); i++ {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, xlsxRow(t.Row(i))); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i, err)
		}
	}
	if err := sw.Flush(); err != nil {
		return fmt.Errorf("failed to flush sheet: %w", err)
	}
	return f.Write(out)
}

// xlsxRow keeps numbers numeric so spreadsheets can sum them. Dates are
// written as text in the same layout the CSV output uses.
func xlsxRow(row []table.Value) []interface{} {
	out := make([]interface{}, len(row))
	for i, v := range row {
		switch v.Kind() {
		case table.KindMissing:
			out[i] = nil
		case table.KindNumber:
			f, _ := v.Float()
			out[i] = f
		default:
			out[i] = v.Format()
		}
	}
	return out
}
