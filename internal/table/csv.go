package table

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// ErrNoHeader is returned when a delimited source has no header row.
var ErrNoHeader = errors.New("missing header row")

// naValues are the cell spellings read as missing, matching what spreadsheet
// exports and pandas-produced files use for "no value".
var naValues = map[string]struct{}{
	"":         {},
	"#N/A":     {},
	"#N/A N/A": {},
	"#NA":      {},
	"-1.#IND":  {},
	"-1.#QNAN": {},
	"-NaN":     {},
	"-nan":     {},
	"1.#IND":   {},
	"1.#QNAN":  {},
	"<NA>":     {},
	"N/A":      {},
	"NA":       {},
	"NULL":     {},
	"NaN":      {},
	"None":     {},
	"n/a":      {},
	"nan":      {},
	"null":     {},
}

// IsNA reports whether a raw cell spelling is read as missing.
func IsNA(s string) bool {
	_, ok := naValues[s]
	return ok
}

// Cell converts raw text into a Value, mapping NA spellings to missing.
func Cell(s string) Value {
	if IsNA(s) {
		return Missing()
	}
	return String(s)
}

// FromRecords builds a table from a header and raw text rows. Short rows are
// padded with missing cells; rows longer than the header are an error.
func FromRecords(header []string, records [][]string) (*Table, error) {
	t := New(header...)
	for n, rec := range records {
		if len(rec) > len(header) {
			return nil, fmt.Errorf("row %d: expected at most %d fields, saw %d", n+2, len(header), len(rec))
		}
		row := make([]Value, len(rec))
		for i, s := range rec {
			row[i] = Cell(s)
		}
		if err := t.AppendRow(row...); err != nil {
			return nil, fmt.Errorf("row %d: %w", n+2, err)
		}
	}
	return t, nil
}

// ReadCSV parses comma-delimited text whose first row is the header.
// A leading UTF-8 BOM is dropped and a bare quote inside an unquoted field is
// kept as text.
func ReadCSV(r io.Reader) (*Table, error) {
	decoded := transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder()))
	reader := csv.NewReader(decoded)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrNoHeader
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	var records [][]string
	for {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		if len(rec) == 1 && rec[0] == "" {
			continue
		}
		records = append(records, rec)
	}
	return FromRecords(header, records)
}

// WriteCSV writes the header and every row using Value.Format.
func WriteCSV(w io.Writer, t *Table) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(t.Columns()); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, rec := range t.Records() {
		if err := writer.Write(rec); err != nil {
			return fmt.Errorf("write row %d: %w", i, err)
		}
	}
	writer.Flush()
	return writer.Error()
}
