package merge

import (
	"context"
	"fmt"
	"log/slog"

	"loanmerge/internal/cleaning"
	"loanmerge/internal/table"
)

// BaseTable is the logical table preferred as the left side of every join.
const BaseTable = "loan_data"

// AuxiliaryTable is the logical name of the remote table.
const AuxiliaryTable = "auxiliary"

// Step records what one join did.
type Step struct {
	Table      string            `json:"table"`
	How        string            `json:"how"`
	Keys       []string          `json:"keys"`
	Strategy   string            `json:"strategy"`
	Renamed    map[string]string `json:"renamed,omitempty"`
	LeftRows   int               `json:"left_rows"`
	RightRows  int               `json:"right_rows"`
	ResultRows int               `json:"result_rows"`
}

// Report describes a completed merge.
type Report struct {
	Base    string   `json:"base"`
	Skipped []string `json:"skipped,omitempty"`
	Steps   []Step   `json:"steps"`
	Rows    int      `json:"rows"`
	Columns int      `json:"columns"`
}

// Merger joins the loaded tables into one.
type Merger struct {
	logger *slog.Logger
}

// NewMerger creates a Merger that logs key choices to logger.
func NewMerger(logger *slog.Logger) *Merger {
	if logger == nil {
		logger = slog.Default()
	}
	return &Merger{logger: logger}
}

// Merge outer-joins the non-empty tables onto the base table in declared
// order and then left-joins the auxiliary table. Inputs are not modified.
//
// The base is loan_data when present, otherwise the first non-empty table.
// Non-key columns shared with the merged result are renamed to
// <column>_<table> in the incoming table before each outer join. An empty
// key set degrades to a cross join and is logged as a warning.
func (m *Merger) Merge(ctx context.Context, tables []table.Named, auxiliary *table.Table) (*table.Table, Report, error) {
	var report Report

	var inputs []table.Named
	for _, nt := range tables {
		if nt.Table == nil || nt.Table.Empty() {
			report.Skipped = append(report.Skipped, nt.Name)
			continue
		}
		inputs = append(inputs, nt)
	}
	if len(inputs) == 0 {
		m.logger.WarnContext(ctx, "no non-empty tables to merge")
		return table.New(), report, nil
	}

	base := 0
	for i, nt := range inputs {
		if nt.Name == BaseTable {
			base = i
			break
		}
	}
	report.Base = inputs[base].Name

	merged := cleaning.StandardizeColumns(inputs[base].Table.Clone())
	m.logger.InfoContext(ctx, "merge base selected",
		slog.String("table", report.Base),
		slog.Int("rows", merged.NumRows()),
	)

	for i, nt := range inputs {
		if i == base {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, report, err
		}

		incoming := cleaning.StandardizeColumns(nt.Table.Clone())
		res := ResolveKeys(merged, incoming, PreferredKeys)
		renamed := renameShared(merged, incoming, res.Keys, nt.Name)

		step := Step{
			Table:     nt.Name,
			How:       joinOuter.String(),
			Keys:      res.Keys,
			Strategy:  res.Strategy,
			Renamed:   renamed,
			LeftRows:  merged.NumRows(),
			RightRows: incoming.NumRows(),
		}
		m.logKeys(ctx, step)

		out, err := OuterJoin(merged, incoming, res.Keys)
		if err != nil {
			return nil, report, fmt.Errorf("merge %s: %w", nt.Name, err)
		}
		merged = out
		step.ResultRows = merged.NumRows()
		report.Steps = append(report.Steps, step)
	}

	if auxiliary != nil && !auxiliary.Empty() {
		if err := ctx.Err(); err != nil {
			return nil, report, err
		}

		aux := cleaning.StandardizeColumns(auxiliary.Clone())
		res := restricted(merged, aux, AuxiliaryKeys)
		step := Step{
			Table:     AuxiliaryTable,
			How:       joinLeft.String(),
			Keys:      res.Keys,
			Strategy:  res.Strategy,
			LeftRows:  merged.NumRows(),
			RightRows: aux.NumRows(),
		}
		m.logKeys(ctx, step)

		out, err := LeftJoin(merged, aux, res.Keys)
		if err != nil {
			return nil, report, fmt.Errorf("merge %s: %w", AuxiliaryTable, err)
		}
		merged = out
		step.ResultRows = merged.NumRows()
		report.Steps = append(report.Steps, step)
	}

	report.Rows = merged.NumRows()
	report.Columns = merged.NumCols()
	m.logger.InfoContext(ctx, "merge complete",
		slog.String("base", report.Base),
		slog.Int("steps", len(report.Steps)),
		slog.Int("rows", report.Rows),
		slog.Int("columns", report.Columns),
	)
	return merged, report, nil
}

func (m *Merger) logKeys(ctx context.Context, step Step) {
	if len(step.Keys) == 0 {
		m.logger.WarnContext(ctx, "no common join keys, falling back to cross join",
			slog.String("table", step.Table),
			slog.String("how", step.How),
			slog.Int("left_rows", step.LeftRows),
			slog.Int("right_rows", step.RightRows),
		)
		return
	}
	m.logger.InfoContext(ctx, "joining table",
		slog.String("table", step.Table),
		slog.String("how", step.How),
		slog.Any("keys", step.Keys),
		slog.String("strategy", step.Strategy),
		slog.Int("renamed", len(step.Renamed)),
	)
}

// renameShared renames, in incoming, every non-key column that merged already
// has to <column>_<name>. It returns the applied mapping.
func renameShared(merged, incoming *table.Table, keys []string, name string) map[string]string {
	isKey := make(map[string]bool, len(keys))
	for _, k := range keys {
		isKey[k] = true
	}
	mapping := make(map[string]string)
	for _, c := range incoming.Columns() {
		if !isKey[c] && merged.HasColumn(c) {
			mapping[c] = c + "_" + name
		}
	}
	incoming.Rename(mapping)
	if len(mapping) == 0 {
		return nil
	}
	return mapping
}
