package analytics

import (
	"fmt"

	"loanmerge/internal/table"
)

// Report holds every metric table computed for one input.
type Report struct {
	Threshold      float64
	TotalPaid      *table.Table
	TotalDisbursed *table.Table
	RepaymentRates *table.Table
	BelowThreshold *table.Table
	LoansPerPrefix *table.Table
}

// BuildReport computes all metrics over t. A missing required column aborts
// the report.
func BuildReport(t *table.Table, threshold float64) (*Report, error) {
	paid, err := TotalPaid(t)
	if err != nil {
		return nil, fmt.Errorf("total paid: %w", err)
	}
	disbursed, err := TotalDisbursed(t)
	if err != nil {
		return nil, fmt.Errorf("total disbursed: %w", err)
	}
	rates, err := RepaymentRate(paid, disbursed)
	if err != nil {
		return nil, fmt.Errorf("repayment rate: %w", err)
	}
	below, err := CustomersBelowThreshold(rates, threshold)
	if err != nil {
		return nil, fmt.Errorf("below threshold: %w", err)
	}
	prefixes, err := LoansPerPrefix(t)
	if err != nil {
		return nil, fmt.Errorf("loans per prefix: %w", err)
	}

	return &Report{
		Threshold:      threshold,
		TotalPaid:      paid,
		TotalDisbursed: disbursed,
		RepaymentRates: rates,
		BelowThreshold: below,
		LoansPerPrefix: prefixes,
	}, nil
}

// Tables lists the report tables in display order, named for output files.
func (r *Report) Tables() []table.Named {
	return []table.Named{
		{Name: "total_paid", Table: r.TotalPaid},
		{Name: "total_disbursed", Table: r.TotalDisbursed},
		{Name: "repayment_rate", Table: r.RepaymentRates},
		{Name: "customers_below_threshold", Table: r.BelowThreshold},
		{Name: "loans_per_prefix", Table: r.LoansPerPrefix},
	}
}
