package loader

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
	"golang.org/x/sync/errgroup"

	apperrors "loanmerge/internal/errors"
	"loanmerge/internal/table"
)

// Source names one local input file.
type Source struct {
	Name string
	Path string
}

// LoadTables checks that every source exists, in declared order, and then
// parses all of them. The first missing file aborts the load before any
// parsing happens. Results keep the declared order.
func LoadTables(ctx context.Context, logger *slog.Logger, sources []Source) ([]table.Named, error) {
	if logger == nil {
		logger = slog.Default()
	}

	for _, src := range sources {
		if _, err := os.Stat(src.Path); err != nil {
			return nil, apperrors.NewFileNotFoundError(src.Name, src.Path, err)
		}
	}

	out := make([]table.Named, len(sources))
	g, gctx := errgroup.WithContext(ctx)
	for i, src := range sources {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			t, err := ReadFile(src.Path)
			if err != nil {
				return apperrors.NewParsingError(fmt.Sprintf("parse %s", src.Name), err).
					WithContext("table", src.Name).
					WithContext("path", src.Path)
			}
			out[i] = table.Named{Name: src.Name, Table: t}
			logger.DebugContext(gctx, "table loaded",
				slog.String("table", src.Name),
				slog.String("path", src.Path),
				slog.Int("rows", t.NumRows()),
				slog.Int("columns", t.NumCols()),
			)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// ReadFile parses a single file, choosing the parser by extension.
// Spreadsheet workbooks use their first sheet; everything else is read as
// comma-delimited text.
func ReadFile(path string) (*table.Table, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return readWorkbook(path)
	default:
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return table.ReadCSV(f)
	}
}

func readWorkbook(path string) (*table.Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, table.ErrNoHeader
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	return fromRows(rows)
}

// fromRows builds a table from ragged rows where the first row is the header.
// Blank rows are skipped. Cells past the last header get "Unnamed: <n>"
// columns so no data is dropped.
func fromRows(rows [][]string) (*table.Table, error) {
	if len(rows) == 0 {
		return nil, table.ErrNoHeader
	}
	header := append([]string(nil), rows[0]...)
	records := make([][]string, 0, len(rows)-1)
	for _, r := range rows[1:] {
		if blank(r) {
			continue
		}
		for len(header) < len(r) {
			header = append(header, fmt.Sprintf("Unnamed: %d", len(header)))
		}
		records = append(records, r)
	}
	return table.FromRecords(header, records)
}

func blank(row []string) bool {
	for _, c := range row {
		if c != "" {
			return false
		}
	}
	return true
}
