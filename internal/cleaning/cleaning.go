package cleaning

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"loanmerge/internal/table"
)

// ErrorMarker is the spreadsheet error literal stripped before coercion.
const ErrorMarker = "#VALUE!"

var hundred = decimal.NewFromInt(100)

var monetaryReplacer = strings.NewReplacer(
	ErrorMarker, "",
	"$", "",
	",", "",
	"(", "",
	")", "",
)

// dateLayouts are tried in order; month-first wins for ambiguous slashes.
var dateLayouts = []string{
	"2006-1-2",
	"2006-1-2 15:04:05",
	"2006-1-2 15:04",
	time.RFC3339,
	"2006-1-2T15:04:05",
	"2006/1/2",
	"2006/1/2 15:04:05",
	"1/2/2006",
	"1/2/2006 15:04:05",
	"1/2/2006 15:04",
	"1/2/06",
	"1-2-2006",
	"2-Jan-2006",
	"2-Jan-06",
	"2 Jan 2006",
	"2 January 2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"Jan 2 2006",
	"20060102",
}

// Monetary strips currency formatting from the column and coerces it to a
// number. Parentheses are removed, not read as a negative sign, so "(200)"
// becomes 200. Cells that do not parse become missing. An absent column
// leaves the table untouched.
func Monetary(t *table.Table, column string) *table.Table {
	t.MapColumn(column, func(v table.Value) table.Value {
		return parseNumber(monetaryReplacer.Replace(v.String()))
	})
	return t
}

// Percentage strips "%" and scales the number down by 100, so "45%" becomes
// 0.45. Cells that do not parse become missing.
func Percentage(t *table.Table, column string) *table.Table {
	t.MapColumn(column, func(v table.Value) table.Value {
		d, ok := parseDecimal(strings.ReplaceAll(v.String(), "%", ""))
		if !ok {
			return table.Missing()
		}
		return table.Number(d.Div(hundred).InexactFloat64())
	})
	return t
}

// Date strips the spreadsheet error marker and parses the column as a
// calendar date. Cells that do not parse become missing.
func Date(t *table.Table, column string) *table.Table {
	t.MapColumn(column, func(v table.Value) table.Value {
		if v.Kind() == table.KindDate {
			return v
		}
		return ParseDate(strings.ReplaceAll(v.String(), ErrorMarker, ""))
	})
	return t
}

// ToNumber coerces a cell to a number without stripping any formatting.
// Numbers pass through; anything that does not parse becomes missing.
func ToNumber(v table.Value) table.Value {
	if v.Kind() == table.KindNumber {
		return v
	}
	return parseNumber(v.String())
}

func parseNumber(s string) table.Value {
	d, ok := parseDecimal(s)
	if !ok {
		return table.Missing()
	}
	return table.Number(d.InexactFloat64())
}

func parseDecimal(s string) (decimal.Decimal, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Decimal{}, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, false
	}
	return d, true
}

// ParseDate tries each supported layout and returns missing when none match.
func ParseDate(s string) table.Value {
	s = strings.TrimSpace(s)
	if s == "" {
		return table.Missing()
	}
	for _, layout := range dateLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return table.Date(ts)
		}
	}
	return table.Missing()
}
