package exporter

import (
	"path/filepath"
	"strings"
)

// Format is an output file format.
type Format string

const (
	FormatCSV     Format = "csv"
	FormatXLSX    Format = "xlsx"
	FormatParquet Format = "parquet"
)

// FormatFromPath picks the format from the file extension. Unknown or
// missing extensions are written as CSV.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		return FormatXLSX
	case ".parquet", ".pq":
		return FormatParquet
	default:
		return FormatCSV
	}
}
