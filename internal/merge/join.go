package merge

import (
	"fmt"
	"strings"

	"github.com/zeebo/xxh3"

	apperrors "loanmerge/internal/errors"
	"loanmerge/internal/table"
)

// Suffixes applied to non-key columns present on both sides of a join.
const (
	LeftSuffix  = "_x"
	RightSuffix = "_y"
)

type joinKind int

const (
	joinLeft joinKind = iota
	joinOuter
)

func (k joinKind) String() string {
	if k == joinOuter {
		return "outer"
	}
	return "left"
}

// OuterJoin keeps every row of both tables. Rows are matched on equality of
// the key tuple, with missing matching missing. The result holds the left
// columns followed by the right non-key columns; key cells of right-only rows
// come from the right table. Output order is the left rows (each followed by
// its matches in right order), then the unmatched right rows.
func OuterJoin(left, right *table.Table, keys []string) (*table.Table, error) {
	return join(left, right, keys, joinOuter)
}

// LeftJoin keeps every left row and drops unmatched right rows. Left rows
// without a match get missing cells in the right columns.
func LeftJoin(left, right *table.Table, keys []string) (*table.Table, error) {
	return join(left, right, keys, joinLeft)
}

// keyIndex maps hashed key tuples to right row positions.
type keyIndex struct {
	buckets map[uint64][]int
	tuples  [][]string
}

func buildIndex(t *table.Table, cols []int) *keyIndex {
	idx := &keyIndex{
		buckets: make(map[uint64][]int, t.NumRows()),
		tuples:  make([][]string, t.NumRows()),
	}
	for i := 0; i < t.NumRows(); i++ {
		tuple := keyTuple(t.Row(i), cols)
		idx.tuples[i] = tuple
		h := hashTuple(tuple)
		idx.buckets[h] = append(idx.buckets[h], i)
	}
	return idx
}

// lookup returns the matching right rows in order. Bucket members are
// compared field by field so hash collisions never produce false matches.
func (idx *keyIndex) lookup(tuple []string) []int {
	var out []int
	for _, i := range idx.buckets[hashTuple(tuple)] {
		if equalTuples(idx.tuples[i], tuple) {
			out = append(out, i)
		}
	}
	return out
}

func keyTuple(row []table.Value, cols []int) []string {
	tuple := make([]string, len(cols))
	for i, c := range cols {
		tuple[i] = row[c].Key()
	}
	return tuple
}

func hashTuple(tuple []string) uint64 {
	var b strings.Builder
	for i, k := range tuple {
		if i > 0 {
			b.WriteByte(0x1f)
		}
		b.WriteString(k)
	}
	return xxh3.HashString(b.String())
}

func equalTuples(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func positions(t *table.Table, cols []string) ([]int, error) {
	if missing := t.MissingColumns(cols...); len(missing) > 0 {
		return nil, apperrors.NewMissingColumnError(missing...)
	}
	out := make([]int, len(cols))
	for i, c := range cols {
		out[i], _ = t.ColumnIndex(c)
	}
	return out, nil
}

func join(left, right *table.Table, keys []string, kind joinKind) (*table.Table, error) {
	leftKeys, err := positions(left, keys)
	if err != nil {
		return nil, fmt.Errorf("left side of %s join: %w", kind, err)
	}
	rightKeys, err := positions(right, keys)
	if err != nil {
		return nil, fmt.Errorf("right side of %s join: %w", kind, err)
	}

	isKey := make(map[string]bool, len(keys))
	for _, k := range keys {
		isKey[k] = true
	}

	leftCols := left.Columns()
	rightCols := right.Columns()

	// Right columns carried into the output, by position in the right table.
	var carried []int
	collides := make(map[string]bool)
	for i, c := range rightCols {
		if isKey[c] {
			continue
		}
		carried = append(carried, i)
		if left.HasColumn(c) {
			collides[c] = true
		}
	}

	names := make([]string, 0, len(leftCols)+len(carried))
	for _, c := range leftCols {
		if collides[c] {
			c += LeftSuffix
		}
		names = append(names, c)
	}
	for _, i := range carried {
		c := rightCols[i]
		if collides[c] {
			c += RightSuffix
		}
		names = append(names, c)
	}

	out := table.New(names...)
	idx := buildIndex(right, rightKeys)
	matched := make([]bool, right.NumRows())
	width := len(leftCols) + len(carried)

	emit := func(l, r []table.Value) error {
		row := make([]table.Value, width)
		copy(row, l)
		if r != nil {
			for j, i := range carried {
				row[len(leftCols)+j] = r[i]
			}
		}
		return out.AppendRow(row...)
	}

	for i := 0; i < left.NumRows(); i++ {
		lrow := left.Row(i)
		hits := idx.lookup(keyTuple(lrow, leftKeys))
		if len(hits) == 0 {
			if err := emit(lrow, nil); err != nil {
				return nil, err
			}
			continue
		}
		for _, r := range hits {
			matched[r] = true
			if err := emit(lrow, right.Row(r)); err != nil {
				return nil, err
			}
		}
	}

	if kind == joinOuter {
		for r := 0; r < right.NumRows(); r++ {
			if matched[r] {
				continue
			}
			rrow := right.Row(r)
			lrow := make([]table.Value, len(leftCols))
			for j, lk := range leftKeys {
				lrow[lk] = rrow[rightKeys[j]]
			}
			if err := emit(lrow, rrow); err != nil {
				return nil, err
			}
		}
	}

	return out, nil
}
