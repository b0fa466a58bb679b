package cleaner

import (
	"github.com/harvestlab/ecomharvest/internal/domain"
)

// mergeKey is the composite dedup key after merging: a record is identified
// by its id within its source.
type mergeKey struct {
	id     rowKey
	source string
}

// Merge unions two normalized tables into one. The column set is the union
// of both inputs' columns (first table's columns keep their order), rows of
// the first input precede rows of the second, and duplicates on
// (id, data_source) are dropped keeping the first occurrence. Cells for
// columns absent in a row's source are filled per the missing-value policy.
// Merging a merged table against itself is a no-op.
func (c *Cleaner) Merge(first, second *domain.Table) *domain.Table {
	c.logf("merging datasets: %d + %d rows", first.Len(), second.Len())

	merged := domain.NewTable(first.Columns()...)
	for _, col := range second.Columns() {
		merged.AddColumn(col)
	}

	seen := make(map[mergeKey]struct{}, first.Len()+second.Len())
	appendRows := func(t *domain.Table) {
		for i := 0; i < t.Len(); i++ {
			row := t.Row(i)
			key := mergeKey{id: keyForRow(row), source: asString(row["data_source"])}
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			dup := make(domain.Row, len(row))
			for k, v := range row {
				dup[k] = v
			}
			merged.Append(dup)
		}
	}
	appendRows(first)
	appendRows(second)

	if removed := first.Len() + second.Len() - merged.Len(); removed > 0 {
		c.logf("removed %d duplicates after merging", removed)
	}

	fillMissing(merged)
	c.logf("datasets merged: %d total products, %d columns", merged.Len(), len(merged.Columns()))
	return merged
}
