package exporter

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	apperrors "loanmerge/internal/errors"
	"loanmerge/internal/table"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// WriteOptions configures output writing behavior
type WriteOptions struct {
	BOMPrefix bool // Add UTF-8 BOM for Excel compatibility
}

// Writer writes tables to files in the format named by the extension.
type Writer struct {
	logger  *slog.Logger
	options WriteOptions
}

// NewWriter creates a new writer instance
func NewWriter(logger *slog.Logger, options WriteOptions) *Writer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Writer{logger: logger, options: options}
}

// Write stores t at path. Missing parent directories are created. Any failure
// is returned as a STORAGE error and leaves no file at path.
func (w *Writer) Write(ctx context.Context, path string, t *table.Table) error {
	format := FormatFromPath(path)

	w.logger.InfoContext(ctx, "Writing output file",
		slog.String("file_path", path),
		slog.String("format", string(format)),
		slog.Int("record_count", t.NumRows()),
		slog.Int("column_count", t.NumCols()))

	var encode func(io.Writer) error
	switch format {
	case FormatXLSX:
		encode = func(out io.Writer) error { return encodeXLSX(out, t) }
	case FormatParquet:
		encode = func(out io.Writer) error { return encodeParquet(out, t) }
	default:
		encode = func(out io.Writer) error { return encodeCSV(out, t, w.options.BOMPrefix) }
	}

	if err := writeAtomic(path, encode); err != nil {
		return apperrors.NewStorageError(fmt.Sprintf("failed to write %s", path), err).
			WithContext("path", path).
			WithContext("format", string(format))
	}
	return nil
}

// WriteCSV writes t as CSV regardless of the extension.
func (w *Writer) WriteCSV(path string, t *table.Table) error {
	if err := writeAtomic(path, func(out io.Writer) error {
		return encodeCSV(out, t, w.options.BOMPrefix)
	}); err != nil {
		return apperrors.NewStorageError(fmt.Sprintf("failed to write %s", path), err).
			WithContext("path", path)
	}
	return nil
}

func encodeCSV(out io.Writer, t *table.Table, bom bool) error {
	if bom {
		if _, err := out.Write(utf8BOM); err != nil {
			return fmt.Errorf("failed to write BOM: %w", err)
		}
	}
	return table.WriteCSV(out, t)
}

// writeAtomic writes through encode into a temporary file next to path and
// renames it over path once everything was written and synced.
func writeAtomic(path string, encode func(io.Writer) error) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	if err = encode(tmp); err != nil {
		return err
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("failed to sync: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("failed to close: %w", err)
	}
	if err = os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("failed to set permissions: %w", err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to rename: %w", err)
	}
	return nil
}
