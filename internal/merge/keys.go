package merge

import "loanmerge/internal/table"

// Key strategies recorded in the merge report.
const (
	StrategyPreferred = "preferred"
	StrategyShared    = "shared"
	StrategyNone      = "none"
)

// PreferredKeys are tried first when joining local tables, in this order.
var PreferredKeys = []string{"company", "loan_id", "customer_id"}

// AuxiliaryKeys are the only keys used when joining the auxiliary table.
var AuxiliaryKeys = []string{"company", "loan_id"}

// KeyResolution is the outcome of choosing join keys for two tables.
type KeyResolution struct {
	Keys     []string
	Strategy string
}

// ResolveKeys picks the join keys for left and right. The preferred columns
// present in both tables win, in preferred order. Otherwise every column the
// two tables share is used, ordered as in left. When nothing is shared the
// key set is empty.
func ResolveKeys(left, right *table.Table, preferred []string) KeyResolution {
	if keys := intersect(preferred, left, right); len(keys) > 0 {
		return KeyResolution{Keys: keys, Strategy: StrategyPreferred}
	}
	if keys := intersect(left.Columns(), left, right); len(keys) > 0 {
		return KeyResolution{Keys: keys, Strategy: StrategyShared}
	}
	return KeyResolution{Keys: []string{}, Strategy: StrategyNone}
}

// restricted resolves keys using only the given candidates, with no fallback.
func restricted(left, right *table.Table, candidates []string) KeyResolution {
	if keys := intersect(candidates, left, right); len(keys) > 0 {
		return KeyResolution{Keys: keys, Strategy: StrategyPreferred}
	}
	return KeyResolution{Keys: []string{}, Strategy: StrategyNone}
}

func intersect(candidates []string, left, right *table.Table) []string {
	var out []string
	for _, c := range candidates {
		if left.HasColumn(c) && right.HasColumn(c) {
			out = append(out, c)
		}
	}
	return out
}
