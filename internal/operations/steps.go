package operations

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"loanmerge/internal/analytics"
	"loanmerge/internal/cleaning"
	"loanmerge/internal/exporter"
	"loanmerge/internal/loader"
	"loanmerge/internal/merge"
)

// LoadStep reads the local input files
type LoadStep struct {
	BaseStep
	sources []loader.Source
	logger  *slog.Logger
}

// NewLoadStep creates the load step for sources in declared order
func NewLoadStep(sources []loader.Source, logger *slog.Logger) *LoadStep {
	return &LoadStep{
		BaseStep: NewBaseStep(StepLoad, "Load local tables"),
		sources:  sources,
		logger:   logger,
	}
}

// Execute implements Step
func (s *LoadStep) Execute(ctx context.Context, state *RunState) error {
	tables, err := loader.LoadTables(ctx, s.logger, s.sources)
	if err != nil {
		return err
	}
	state.Tables = tables

	rows := 0
	for _, nt := range tables {
		rows += nt.Table.NumRows()
	}
	state.GetStep(s.ID()).SetRows(rows)
	return nil
}

// AuxiliaryStep fetches the remote auxiliary table
type AuxiliaryStep struct {
	BaseStep
	fetcher loader.Fetcher
	sheetID string
	gid     string
	timeout time.Duration
	logger  *slog.Logger
}

// NewAuxiliaryStep creates the auxiliary step. A nil fetcher makes the step
// skip.
func NewAuxiliaryStep(fetcher loader.Fetcher, sheetID, gid string, timeout time.Duration, logger *slog.Logger) *AuxiliaryStep {
	return &AuxiliaryStep{
		BaseStep: NewBaseStep(StepAuxiliary, "Fetch auxiliary sheet"),
		fetcher:  fetcher,
		sheetID:  sheetID,
		gid:      gid,
		timeout:  timeout,
		logger:   logger,
	}
}

// Execute implements Step
func (s *AuxiliaryStep) Execute(ctx context.Context, state *RunState) error {
	if s.fetcher == nil {
		return Skip("auxiliary sheet disabled")
	}
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	aux, err := loader.LoadAuxiliary(ctx, s.logger, s.fetcher, s.sheetID, s.gid)
	if err != nil {
		return err
	}
	state.Auxiliary = aux
	state.GetStep(s.ID()).SetRows(aux.NumRows())
	return nil
}

// CleanStep normalizes column names and coerces the configured columns of
// every loaded table
type CleanStep struct {
	BaseStep
	rules cleaning.Rules
}

// NewCleanStep creates the clean step
func NewCleanStep(rules cleaning.Rules) *CleanStep {
	return &CleanStep{
		BaseStep: NewBaseStep(StepClean, "Normalize and clean tables"),
		rules:    rules,
	}
}

// Execute implements Step
func (s *CleanStep) Execute(ctx context.Context, state *RunState) error {
	rows := 0
	for i := range state.Tables {
		if err := ctx.Err(); err != nil {
			return err
		}
		t := state.Tables[i].Table
		if t == nil {
			continue
		}
		state.Tables[i].Table = cleaning.ApplyBasic(cleaning.StandardizeColumns(t), s.rules)
		rows += t.NumRows()
	}
	if state.Auxiliary != nil {
		state.Auxiliary = cleaning.ApplyBasic(cleaning.StandardizeColumns(state.Auxiliary), s.rules)
		rows += state.Auxiliary.NumRows()
	}
	state.GetStep(s.ID()).SetRows(rows)
	return nil
}

// MergeStep joins the cleaned tables into one
type MergeStep struct {
	BaseStep
	merger *merge.Merger
}

// NewMergeStep creates the merge step
func NewMergeStep(merger *merge.Merger) *MergeStep {
	return &MergeStep{
		BaseStep: NewBaseStep(StepMerge, "Merge tables"),
		merger:   merger,
	}
}

// Execute implements Step
func (s *MergeStep) Execute(ctx context.Context, state *RunState) error {
	merged, report, err := s.merger.Merge(ctx, state.Tables, state.Auxiliary)
	if err != nil {
		return err
	}
	state.Merged = merged
	state.MergeReport = report
	state.GetStep(s.ID()).SetRows(merged.NumRows())
	return nil
}

// WriteStep stores the merged table and, when the metrics step ran and a
// report directory is set, the metric tables.
type WriteStep struct {
	BaseStep
	writer    *exporter.Writer
	path      string
	reportDir string
}

// NewWriteStep creates the write step
func NewWriteStep(writer *exporter.Writer, path, reportDir string) *WriteStep {
	return &WriteStep{
		BaseStep:  NewBaseStep(StepWrite, "Write merged table"),
		writer:    writer,
		path:      path,
		reportDir: reportDir,
	}
}

// Execute implements Step. If the report cannot be written the merged
// output is removed again.
func (s *WriteStep) Execute(ctx context.Context, state *RunState) error {
	if state.Merged == nil {
		return fmt.Errorf("nothing to write: merge has not run")
	}
	if err := s.writer.Write(ctx, s.path, state.Merged); err != nil {
		return err
	}

	if state.Metrics != nil && s.reportDir != "" {
		if err := WriteReport(ctx, s.writer, s.reportDir, state.Metrics); err != nil {
			if rmErr := os.Remove(s.path); rmErr != nil && !os.IsNotExist(rmErr) {
				return errors.Join(err, rmErr)
			}
			return err
		}
	}

	state.OutputPath = s.path
	state.GetStep(s.ID()).SetRows(state.Merged.NumRows())
	return nil
}

// MetricsStep computes the repayment metrics over the merged table
type MetricsStep struct {
	BaseStep
	threshold float64
}

// NewMetricsStep creates the metrics step
func NewMetricsStep(threshold float64) *MetricsStep {
	return &MetricsStep{
		BaseStep:  NewBaseStep(StepMetrics, "Compute metrics"),
		threshold: threshold,
	}
}

// Execute implements Step
func (s *MetricsStep) Execute(ctx context.Context, state *RunState) error {
	if state.Merged == nil || state.Merged.Empty() {
		return Skip("merged table is empty")
	}

	report, err := analytics.BuildReport(state.Merged, s.threshold)
	if err != nil {
		return err
	}
	state.Metrics = report
	state.GetStep(s.ID()).SetRows(report.RepaymentRates.NumRows())
	return nil
}

// WriteReport writes every metric table to dir as <name>.csv.
func WriteReport(ctx context.Context, writer *exporter.Writer, dir string, report *analytics.Report) error {
	for _, nt := range report.Tables() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := writer.WriteCSV(filepath.Join(dir, nt.Name+".csv"), nt.Table); err != nil {
			return err
		}
	}
	return nil
}
