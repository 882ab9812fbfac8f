package table

import "github.com/leapstack-labs/tabdb/pkg/core"

// Predicate decides whether a row is kept.
type Predicate func(row Row) bool

// Compile resolves every condition against the table's columns and returns
// a predicate that holds when all conditions hold. Unknown attributes are
// reported before any row is looked at. No conditions means every row.
func (t *Table) Compile(conds []core.Condition) (Predicate, error) {
	if len(conds) == 0 {
		return nil, nil
	}

	type bound struct {
		idx  int
		cond core.Condition
	}
	bounds := make([]bound, len(conds))
	for i, c := range conds {
		idx := t.ColumnIndex(c.Attribute)
		if idx < 0 {
			return nil, core.NotFoundf("unknown attribute %q in table %s", c.Attribute, t.name)
		}
		bounds[i] = bound{idx: idx, cond: c}
	}

	return func(row Row) bool {
		for _, b := range bounds {
			if !Compare(row[b.idx], b.cond.Op, b.cond.Value) {
				return false
			}
		}
		return true
	}, nil
}
