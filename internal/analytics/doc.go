// Package analytics computes repayment metrics over a merged loan table.
//
// Amounts are coerced to numbers without stripping currency formatting;
// cells that do not parse are ignored. Sums use decimal arithmetic so
// per-customer totals do not drift with the number of payments.
package analytics
