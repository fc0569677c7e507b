package operations

import (
	"context"
	"log/slog"

	"google.golang.org/api/option"

	"loanmerge/internal/config"
	"loanmerge/internal/exporter"
	"loanmerge/internal/infrastructure"
	"loanmerge/internal/loader"
	"loanmerge/internal/merge"
)

// NewFetcher picks the auxiliary transport for cfg. The Sheets API is used
// when credentials are configured, otherwise the public CSV export link.
// A disabled auxiliary sheet yields a nil fetcher.
func NewFetcher(ctx context.Context, cfg config.AuxiliaryConfig) (loader.Fetcher, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	if !cfg.UseSheetsAPI() {
		return loader.NewCSVExportFetcher(cfg.BaseURL, cfg.Timeout), nil
	}

	var opts []option.ClientOption
	if cfg.APIKey != "" {
		opts = append(opts, option.WithAPIKey(cfg.APIKey))
	}
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	f, err := loader.NewSheetsFetcher(ctx, opts...)
	if err != nil {
		return nil, err
	}
	return f, nil
}

// NewMergeRegistry registers the merge pipeline steps for cfg in order:
// load, auxiliary, clean, merge, metrics (when analytics are enabled) and
// write. Write runs last so a failing step never leaves output behind.
func NewMergeRegistry(cfg *config.Config, fetcher loader.Fetcher, logger *slog.Logger) (*Registry, error) {
	if logger == nil {
		logger = slog.Default()
	}

	files := cfg.Inputs.Files()
	sources := make([]loader.Source, len(files))
	for i, f := range files {
		sources[i] = loader.Source{Name: f.Name, Path: f.Path}
	}

	writer := exporter.NewWriter(infrastructure.WithComponent(logger, "exporter"),
		exporter.WriteOptions{BOMPrefix: cfg.Output.BOMPrefix})

	steps := []Step{
		NewLoadStep(sources, infrastructure.WithComponent(logger, "loader")),
		NewAuxiliaryStep(fetcher, cfg.Auxiliary.SheetID, cfg.Auxiliary.GID, cfg.Auxiliary.Timeout,
			infrastructure.WithComponent(logger, "loader")),
		NewCleanStep(cfg.Cleaning),
		NewMergeStep(merge.NewMerger(infrastructure.WithComponent(logger, "merge"))),
	}
	if cfg.Analytics.Enabled {
		steps = append(steps, NewMetricsStep(cfg.Analytics.Threshold))
	}
	steps = append(steps, NewWriteStep(writer, cfg.Output.Path, cfg.Analytics.OutDir))

	registry := NewRegistry()
	for _, step := range steps {
		if err := registry.Register(step); err != nil {
			return nil, err
		}
	}
	return registry, nil
}
