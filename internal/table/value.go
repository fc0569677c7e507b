package table

import (
	"math"
	"strconv"
	"time"
)

// Kind identifies the dynamic type held by a Value.
type Kind uint8

const (
	KindMissing Kind = iota
	KindString
	KindNumber
	KindDate
)

// String returns the lower-case kind name.
func (k Kind) String() string {
	switch k {
	case KindMissing:
		return "missing"
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindDate:
		return "date"
	default:
		return "unknown"
	}
}

const (
	// DateLayout is used when a date cell has no time-of-day component.
	DateLayout = "2006-01-02"
	// DateTimeLayout is used when a date cell carries a time-of-day.
	DateTimeLayout = "2006-01-02 15:04:05"

	// missingText is what a missing cell stringifies to before re-parsing.
	missingText = "nan"
	// missingKey never collides with a real cell because cells cannot hold NUL.
	missingKey = "\x00missing"
)

// Value is a single loosely typed cell. The zero Value is missing.
type Value struct {
	kind Kind
	str  string
	num  float64
	date time.Time
}

// Missing returns the missing marker.
func Missing() Value { return Value{} }

// String wraps a text cell.
func String(s string) Value { return Value{kind: KindString, str: s} }

// Number wraps a numeric cell. NaN and infinities are stored as missing so
// arithmetic never produces them downstream.
func Number(f float64) Value {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Missing()
	}
	return Value{kind: KindNumber, num: f}
}

// Date wraps a calendar date (optionally with a time of day).
func Date(t time.Time) Value {
	if t.IsZero() {
		return Missing()
	}
	return Value{kind: KindDate, date: t}
}

// Kind reports the dynamic type of the cell.
func (v Value) Kind() Kind { return v.kind }

// IsMissing reports whether the cell holds the missing marker.
func (v Value) IsMissing() bool { return v.kind == KindMissing }

// Text returns the raw text of a string cell.
func (v Value) Text() (string, bool) {
	if v.kind != KindString {
		return "", false
	}
	return v.str, true
}

// Float returns the number held by a numeric cell.
func (v Value) Float() (float64, bool) {
	if v.kind != KindNumber {
		return 0, false
	}
	return v.num, true
}

// Time returns the date held by a date cell.
func (v Value) Time() (time.Time, bool) {
	if v.kind != KindDate {
		return time.Time{}, false
	}
	return v.date, true
}

// String stringifies the cell the way the cleaners expect before re-parsing:
// missing cells become "nan", numbers use their shortest representation and
// dates are rendered with DateLayout or DateTimeLayout.
func (v Value) String() string {
	if v.kind == KindMissing {
		return missingText
	}
	return v.Format()
}

// Format renders the cell for output files. Missing cells render empty.
func (v Value) Format() string {
	switch v.kind {
	case KindString:
		return v.str
	case KindNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case KindDate:
		return formatDate(v.date)
	default:
		return ""
	}
}

// Key returns the canonical form used for grouping and join matching.
// A number and a string with the same rendering compare equal; missing
// only equals missing.
func (v Value) Key() string {
	if v.kind == KindMissing {
		return missingKey
	}
	return v.Format()
}

// Equal reports whether two cells are the same under Key semantics.
func (v Value) Equal(o Value) bool {
	return v.Key() == o.Key()
}

func formatDate(t time.Time) string {
	h, m, s := t.Clock()
	if h == 0 && m == 0 && s == 0 && t.Nanosecond() == 0 {
		return t.Format(DateLayout)
	}
	return t.Format(DateTimeLayout)
}
