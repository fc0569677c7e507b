package analytics

import (
	"sort"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"loanmerge/internal/cleaning"
	apperrors "loanmerge/internal/errors"
	"loanmerge/internal/merge"
	"loanmerge/internal/table"
)

// Column names read and produced by the metrics.
const (
	ColCustomerID     = "customer_id"
	ColLoanID         = "loan_id"
	ColTruePayment    = "true_total_payment"
	ColDisbursement   = "disbursement_amount"
	ColTotalPaid      = "total_amount_paid"
	ColTotalDisbursed = "total_amount_disbursed"
	ColRepaymentRate  = "repayment_rate"
	ColLoanPrefix     = "loan_prefix"
	ColLoanCount      = "loan_count"
	ColAvgPerPrefix   = "avg_loans_per_prefix"
)

// DefaultThreshold is the repayment rate below which customers are flagged.
const DefaultThreshold = 0.8

// TotalPaid sums true_total_payment per customer_id.
func TotalPaid(t *table.Table) (*table.Table, error) {
	return sumByCustomer(t, ColTruePayment, ColTotalPaid)
}

// TotalDisbursed sums disbursement_amount per customer_id.
func TotalDisbursed(t *table.Table) (*table.Table, error) {
	return sumByCustomer(t, ColDisbursement, ColTotalDisbursed)
}

type group struct {
	id  table.Value
	sum decimal.Decimal
}

// sumByCustomer coerces value to numbers and sums them per customer. Cells
// that are not numeric are skipped, so a group with no numeric cells sums to
// 0. Missing customer ids form their own group, ordered last.
func sumByCustomer(t *table.Table, value, result string) (*table.Table, error) {
	if missing := t.MissingColumns(ColCustomerID, value); len(missing) > 0 {
		return nil, apperrors.NewMissingColumnError(missing...)
	}

	ids, _ := t.Column(ColCustomerID)
	amounts, _ := t.Column(value)

	groups := make(map[string]*group)
	var order []*group
	for i, id := range ids {
		g, ok := groups[id.Key()]
		if !ok {
			g = &group{id: id}
			groups[id.Key()] = g
			order = append(order, g)
		}
		if f, ok := cleaning.ToNumber(amounts[i]).Float(); ok {
			g.sum = g.sum.Add(decimal.NewFromFloat(f))
		}
	}

	sort.SliceStable(order, func(i, j int) bool {
		return lessID(order[i].id, order[j].id)
	})

	out := table.New(ColCustomerID, result)
	for _, g := range order {
		if err := out.AppendRow(g.id, table.Number(g.sum.InexactFloat64())); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// lessID orders customer ids with missing last. Ids that read as numbers
// come first in numeric order, the rest follow by rendered text.
func lessID(a, b table.Value) bool {
	if a.IsMissing() || b.IsMissing() {
		return !a.IsMissing() && b.IsMissing()
	}
	as, bs := a.Format(), b.Format()
	x, errA := strconv.ParseFloat(as, 64)
	y, errB := strconv.ParseFloat(bs, 64)
	switch {
	case errA == nil && errB == nil && x != y:
		return x < y
	case (errA == nil) != (errB == nil):
		return errA == nil
	}
	return as < bs
}

// RepaymentRate left-joins the disbursed totals onto the paid totals and
// adds repayment_rate = paid / disbursed. A zero or missing denominator
// yields a missing rate.
func RepaymentRate(paid, disbursed *table.Table) (*table.Table, error) {
	if missing := paid.MissingColumns(ColCustomerID, ColTotalPaid); len(missing) > 0 {
		return nil, apperrors.NewMissingColumnError(missing...)
	}
	if missing := disbursed.MissingColumns(ColCustomerID, ColTotalDisbursed); len(missing) > 0 {
		return nil, apperrors.NewMissingColumnError(missing...)
	}

	out, err := merge.LeftJoin(paid, disbursed, []string{ColCustomerID})
	if err != nil {
		return nil, err
	}

	rates := make([]table.Value, out.NumRows())
	for i := range rates {
		rates[i] = ratio(out.At(i, ColTotalPaid), out.At(i, ColTotalDisbursed))
	}
	if err := out.SetColumn(ColRepaymentRate, rates); err != nil {
		return nil, err
	}
	return out, nil
}

func ratio(num, den table.Value) table.Value {
	n, ok := num.Float()
	if !ok {
		return table.Missing()
	}
	d, ok := den.Float()
	if !ok || d == 0 {
		return table.Missing()
	}
	return table.Number(n / d)
}

// CustomersBelowThreshold keeps the rows whose repayment_rate is strictly
// below threshold. Rows with a missing rate are dropped.
func CustomersBelowThreshold(rates *table.Table, threshold float64) (*table.Table, error) {
	col, ok := rates.Column(ColRepaymentRate)
	if !ok {
		return nil, apperrors.NewMissingColumnError(ColRepaymentRate)
	}
	return rates.Filter(func(i int) bool {
		f, ok := col[i].Float()
		return ok && f < threshold
	}), nil
}

// LoansPerPrefix counts loan ids per prefix, the text before the first "-".
// Rows are ordered by count descending, then prefix. Every row carries the
// mean count across prefixes. A missing loan id is counted under "nan", its
// string form.
func LoansPerPrefix(t *table.Table) (*table.Table, error) {
	ids, ok := t.Column(ColLoanID)
	if !ok {
		return nil, apperrors.NewMissingColumnError(ColLoanID)
	}

	counts := make(map[string]int)
	for _, id := range ids {
		prefix, _, _ := strings.Cut(id.String(), "-")
		counts[prefix]++
	}

	prefixes := make([]string, 0, len(counts))
	total := 0
	for p, n := range counts {
		prefixes = append(prefixes, p)
		total += n
	}
	sort.Slice(prefixes, func(i, j int) bool {
		a, b := prefixes[i], prefixes[j]
		if counts[a] != counts[b] {
			return counts[a] > counts[b]
		}
		return a < b
	})

	out := table.New(ColLoanPrefix, ColLoanCount, ColAvgPerPrefix)
	if len(prefixes) == 0 {
		return out, nil
	}
	avg := decimal.NewFromInt(int64(total)).Div(decimal.NewFromInt(int64(len(prefixes)))).InexactFloat64()
	for _, p := range prefixes {
		if err := out.AppendRow(table.String(p), table.Number(float64(counts[p])), table.Number(avg)); err != nil {
			return nil, err
		}
	}
	return out, nil
}
