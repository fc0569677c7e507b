// Package exporter writes tables to disk and to the console.
//
// The output format follows the file extension:
//
//	.csv      comma-separated text, optionally with a UTF-8 BOM for Excel
//	.xlsx     a single-sheet workbook written with excelize
//	.parquet  a SNAPPY-compressed Parquet file written with parquet-go
//
// Every file is written to a temporary file in the target directory and
// renamed into place only once writing succeeded, so a failed run never
// leaves a partial output behind.
//
// Example usage:
//
//	w := exporter.NewWriter(logger, exporter.WriteOptions{BOMPrefix: true})
//	if err := w.Write(ctx, "merged.csv", merged); err != nil {
//		return err
//	}
//
// RenderTable prints a table aligned by display width for terminal reports.
package exporter
