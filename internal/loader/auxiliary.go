package loader

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	apperrors "loanmerge/internal/errors"
	"loanmerge/internal/table"
)

const (
	// DefaultExportBaseURL is the public spreadsheet host.
	DefaultExportBaseURL = "https://docs.google.com"
	// DefaultTimeout bounds the remote fetch.
	DefaultTimeout = 30 * time.Second

	maxErrorBody = 512
)

// Fetcher retrieves one sub-sheet of a remote spreadsheet as a table.
type Fetcher interface {
	Fetch(ctx context.Context, sheetID, gid string) (*table.Table, error)
}

// ExportURL builds the CSV export address for a spreadsheet sub-sheet.
func ExportURL(baseURL, sheetID, gid string) string {
	if baseURL == "" {
		baseURL = DefaultExportBaseURL
	}
	q := url.Values{}
	q.Set("format", "csv")
	q.Set("gid", gid)
	return fmt.Sprintf("%s/spreadsheets/d/%s/export?%s",
		strings.TrimRight(baseURL, "/"), url.PathEscape(sheetID), q.Encode())
}

// CSVExportFetcher downloads the sheet through the public CSV export link.
type CSVExportFetcher struct {
	client  *http.Client
	baseURL string
}

// NewCSVExportFetcher creates a fetcher whose requests give up after timeout.
// An empty baseURL uses DefaultExportBaseURL.
func NewCSVExportFetcher(baseURL string, timeout time.Duration) *CSVExportFetcher {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &CSVExportFetcher{
		client:  &http.Client{Timeout: timeout},
		baseURL: baseURL,
	}
}

// Fetch implements Fetcher.
func (f *CSVExportFetcher) Fetch(ctx context.Context, sheetID, gid string) (*table.Table, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ExportURL(f.baseURL, sheetID, gid), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "text/csv")
	req.Header.Set("User-Agent", "loanmerge/1.0")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, fmt.Errorf("export returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	t, err := table.ReadCSV(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse export: %w", err)
	}
	return t, nil
}

// SheetsFetcher reads the sheet through the Sheets v4 API. It is used when
// an API key or service-account credentials are configured.
type SheetsFetcher struct {
	service *sheets.Service
}

// NewSheetsFetcher creates the API client with the given options, for example
// option.WithAPIKey or option.WithCredentialsFile.
func NewSheetsFetcher(ctx context.Context, opts ...option.ClientOption) (*SheetsFetcher, error) {
	svc, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}
	return &SheetsFetcher{service: svc}, nil
}

// Fetch implements Fetcher. The gid is resolved to a sheet title first since
// the values endpoint addresses sheets by name.
func (f *SheetsFetcher) Fetch(ctx context.Context, sheetID, gid string) (*table.Table, error) {
	wanted, err := strconv.ParseInt(gid, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid gid %q: %w", gid, err)
	}

	ss, err := f.service.Spreadsheets.Get(sheetID).Fields("sheets.properties").Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to read spreadsheet metadata: %w", err)
	}

	title := ""
	for _, sh := range ss.Sheets {
		if sh.Properties != nil && sh.Properties.SheetId == wanted {
			title = sh.Properties.Title
			break
		}
	}
	if title == "" {
		return nil, fmt.Errorf("sheet with gid %s not found", gid)
	}

	resp, err := f.service.Spreadsheets.Values.Get(sheetID, quoteSheetTitle(title)).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet values: %w", err)
	}

	rows := make([][]string, len(resp.Values))
	for i, row := range resp.Values {
		rows[i] = make([]string, len(row))
		for j, cell := range row {
			rows[i][j] = fmt.Sprint(cell)
		}
	}
	return fromRows(rows)
}

func quoteSheetTitle(title string) string {
	return "'" + strings.ReplaceAll(title, "'", "''") + "'"
}

// LoadAuxiliary fetches the remote table. Every failure, whether transport,
// status or parse, comes back as a single NETWORK error wrapping the cause.
func LoadAuxiliary(ctx context.Context, logger *slog.Logger, f Fetcher, sheetID, gid string) (*table.Table, error) {
	if logger == nil {
		logger = slog.Default()
	}

	start := time.Now()
	t, err := f.Fetch(ctx, sheetID, gid)
	if err != nil {
		logger.ErrorContext(ctx, "auxiliary fetch failed",
			slog.String("sheet_id", sheetID),
			slog.String("gid", gid),
			slog.String("error", err.Error()),
			slog.Duration("duration", time.Since(start)),
		)
		return nil, apperrors.NewNetworkError("failed to load auxiliary sheet", err).
			WithContext("sheet_id", sheetID).
			WithContext("gid", gid)
	}

	logger.InfoContext(ctx, "auxiliary table loaded",
		slog.String("sheet_id", sheetID),
		slog.Int("rows", t.NumRows()),
		slog.Duration("duration", time.Since(start)),
	)
	return t, nil
}
