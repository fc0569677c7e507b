package cleaning

import (
	"strings"

	"loanmerge/internal/table"
)

// StandardizeName trims the name, lower-cases it and replaces spaces with
// underscores. Applying it twice yields the same result as applying it once.
func StandardizeName(name string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), " ", "_")
}

// StandardizeColumns renames every column with StandardizeName. Row content
// is unchanged. Names that collide after normalization keep the first column
// as-is and suffix later ones (".1", ".2", ...).
func StandardizeColumns(t *table.Table) *table.Table {
	t.RenameColumns(StandardizeName)
	return t
}
