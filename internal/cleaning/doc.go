// Package cleaning normalizes column names and coerces monetary, percentage
// and date columns.
//
// Every cleaner is a per-column transform that is a no-op when the column is
// absent. A cell that does not coerce becomes missing; coercion never fails
// the table.
package cleaning
