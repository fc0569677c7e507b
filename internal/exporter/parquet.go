package exporter

import (
	"encoding/json"
	"fmt"
	"io"
	"regexp"
	"strconv"

	writerfile "github.com/xitongsys/parquet-go-source/writerfile"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/writer"

	"loanmerge/internal/table"
)

const parquetParallelism = 4

var unsafeFieldChars = regexp.MustCompile(`[^A-Za-z0-9_]`)

type parquetField struct {
	column  string
	name    string
	numeric bool
}

func encodeParquet(out io.Writer, t *table.Table) error {
	fields := parquetFields(t)
	pfw := writerfile.NewWriterFile(out)

	pw, err := writer.NewJSONWriter(buildParquetSchema(fields), pfw, parquetParallelism)
	if err != nil {
		return fmt.Errorf("failed to create parquet writer: %w", err)
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY

	for i := 0; i < t.NumRows(); i++ {
		row, err := json.Marshal(projectParquetRow(t.Row(i), fields))
		if err != nil {
			_ = pw.WriteStop()
			return fmt.Errorf("failed to encode row %d: %w", i, err)
		}
		if err := pw.Write(string(row)); err != nil {
			_ = pw.WriteStop()
			return fmt.Errorf("failed to write row %d: %w", i, err)
		}
	}
	if err := pw.WriteStop(); err != nil {
		return fmt.Errorf("failed to finish parquet file: %w", err)
	}
	return nil
}

// parquetFields maps table columns to Parquet-safe field names. A column is
// stored as DOUBLE when every present cell is numeric, otherwise as UTF8 text.
func parquetFields(t *table.Table) []parquetField {
	taken := make(map[string]bool)
	fields := make([]parquetField, 0, t.NumCols())
	for _, c := range t.Columns() {
		name := unsafeFieldChars.ReplaceAllString(c, "_")
		if name == "" {
			name = "column"
		}
		for n := 1; taken[name]; n++ {
			name = unsafeFieldChars.ReplaceAllString(c, "_") + "_" + strconv.Itoa(n)
		}
		taken[name] = true

		values, _ := t.Column(c)
		fields = append(fields, parquetField{column: c, name: name, numeric: allNumeric(values)})
	}
	return fields
}

func allNumeric(values []table.Value) bool {
	seen := false
	for _, v := range values {
		switch v.Kind() {
		case table.KindMissing:
		case table.KindNumber:
			seen = true
		default:
			return false
		}
	}
	return seen
}

func buildParquetSchema(fields []parquetField) string {
	defs := make([]map[string]string, 0, len(fields))
	for _, f := range fields {
		tag := fmt.Sprintf("name=%s, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=OPTIONAL", f.name)
		if f.numeric {
			tag = fmt.Sprintf("name=%s, type=DOUBLE, repetitiontype=OPTIONAL", f.name)
		}
		defs = append(defs, map[string]string{"Tag": tag})
	}
	out := map[string]any{
		"Tag":    "name=parquet_go_root, repetitiontype=REQUIRED",
		"Fields": defs,
	}
	b, _ := json.Marshal(out)
	return string(b)
}

func projectParquetRow(row []table.Value, fields []parquetField) map[string]any {
	out := make(map[string]any, len(fields))
	for i, f := range fields {
		v := row[i]
		switch {
		case v.IsMissing():
			out[f.name] = nil
		case f.numeric:
			n, _ := v.Float()
			out[f.name] = n
		default:
			out[f.name] = v.Format()
		}
	}
	return out
}
