package cleaning

import "loanmerge/internal/table"

// Rules lists the columns each cleaner applies to.
type Rules struct {
	Monetary   []string `yaml:"monetary"`
	Percentage []string `yaml:"percentage"`
	Date       []string `yaml:"date"`
}

// DefaultRules names the loan-book columns cleaned after normalization.
// Columns absent from a table are skipped.
func DefaultRules() Rules {
	return Rules{
		Monetary: []string{
			"disbursement_amount",
			"true_total_payment",
			"total_payment",
			"principal_amount",
			"interest_amount",
			"outstanding_balance",
			"collateral_value",
		},
		Percentage: []string{"interest_rate"},
		Date: []string{
			"disbursement_date",
			"due_date",
			"payment_date",
			"maturity_date",
		},
	}
}

// Empty reports whether no cleaner would run.
func (r Rules) Empty() bool {
	return len(r.Monetary) == 0 && len(r.Percentage) == 0 && len(r.Date) == 0
}

// ApplyBasic runs the monetary, then percentage, then date cleaners.
func ApplyBasic(t *table.Table, rules Rules) *table.Table {
	for _, col := range rules.Monetary {
		t = Monetary(t, col)
	}
	for _, col := range rules.Percentage {
		t = Percentage(t, col)
	}
	for _, col := range rules.Date {
		t = Date(t, col)
	}
	return t
}
