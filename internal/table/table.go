// Package table implements the in-memory relation behind every .tab file:
// ordered columns, ordered rows of text cells and the id counter.
package table

import (
	"slices"
	"strconv"

	"github.com/leapstack-labs/tabdb/pkg/core"
)

// Row is one record. Cell 0 is the row id.
type Row []string

// Table is an in-memory relation. Column 0 is always the id column.
type Table struct {
	name    string
	columns []string
	rows    []Row
	nextID  int
}

// New creates an empty table. Column names are deduplicated
// case-insensitively (first spelling wins) and a supplied id column is
// dropped; id is always prepended.
func New(name string, columns []string) (*Table, error) {
	t := &Table{
		name:    core.NormalizeName(name),
		columns: []string{core.IDColumn},
		nextID:  1,
	}
	for _, col := range columns {
		if !core.ValidCell(col) || col == "" {
			return nil, core.Valuef("invalid column name %q", col)
		}
		if t.ColumnIndex(col) >= 0 {
			continue
		}
		t.columns = append(t.columns, col)
	}
	return t, nil
}

// Restore rebuilds a table from a header and stored rows. The header must
// start with id, ids must be unique positive integers and every row must be
// as wide as the header. The id counter becomes max(id)+1, or 1 when empty.
func Restore(name string, header []string, rows [][]string) (*Table, error) {
	if len(header) == 0 || !core.IsIDColumn(header[0]) {
		return nil, core.Valuef("table %s: header must start with %s", name, core.IDColumn)
	}

	t := &Table{
		name:    core.NormalizeName(name),
		columns: append([]string{core.IDColumn}, header[1:]...),
		rows:    make([]Row, 0, len(rows)),
		nextID:  1,
	}
	seen := make(map[int]bool, len(rows))
	for i, cells := range rows {
		if len(cells) != len(header) {
			return nil, core.Valuef("table %s: row %d has %d fields, expected %d", name, i+1, len(cells), len(header))
		}
		id, err := strconv.Atoi(cells[0])
		if err != nil || id < 1 {
			return nil, core.Valuef("table %s: row %d has invalid id %q", name, i+1, cells[0])
		}
		if seen[id] {
			return nil, core.Valuef("table %s: duplicate id %d", name, id)
		}
		seen[id] = true
		t.nextID = max(t.nextID, id+1)
		t.rows = append(t.rows, slices.Clone(Row(cells)))
	}
	return t, nil
}

// Name returns the lowercase table name.
func (t *Table) Name() string { return t.name }

// Columns returns a copy of the column names, id first.
func (t *Table) Columns() []string { return slices.Clone(t.columns) }

// Rows returns a copy of the rows in insertion order.
func (t *Table) Rows() []Row {
	out := make([]Row, len(t.rows))
	for i, r := range t.rows {
		out[i] = slices.Clone(r)
	}
	return out
}

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.rows) }

// NextID returns the id the next inserted row will receive.
func (t *Table) NextID() int { return t.nextID }

// ColumnIndex returns the position of a column (case-insensitive), or -1.
func (t *Table) ColumnIndex(name string) int {
	return slices.IndexFunc(t.columns, func(c string) bool { return core.SameName(c, name) })
}

// Clone returns a deep copy of the table.
func (t *Table) Clone() *Table {
	return &Table{
		name:    t.name,
		columns: slices.Clone(t.columns),
		rows:    t.Rows(),
		nextID:  t.nextID,
	}
}

// Insert appends a row with the next id and returns that id.
func (t *Table) Insert(values []string) (int, error) {
	if len(values) != len(t.columns)-1 {
		return 0, core.Valuef("table %s expects %d values, got %d", t.name, len(t.columns)-1, len(values))
	}
	for _, v := range values {
		if !core.ValidCell(v) {
			return 0, core.Valuef("value %q contains a control character", v)
		}
	}

	id := t.nextID
	row := make(Row, 0, len(t.columns))
	row = append(row, strconv.Itoa(id))
	row = append(row, values...)
	t.rows = append(t.rows, row)
	t.nextID++
	return id, nil
}

// Select returns copies of the rows matching pred, in insertion order.
// A nil pred matches every row.
func (t *Table) Select(pred Predicate) []Row {
	var out []Row
	for _, r := range t.rows {
		if pred == nil || pred(r) {
			out = append(out, slices.Clone(r))
		}
	}
	return out
}

// Update sets column to value in every row matching pred and returns the
// number of rows changed.
func (t *Table) Update(column, value string, pred Predicate) (int, error) {
	idx := t.ColumnIndex(column)
	if idx < 0 {
		return 0, core.NotFoundf("unknown column %q in table %s", column, t.name)
	}
	if idx == 0 {
		return 0, core.Conflictf("the %s column cannot be updated", core.IDColumn)
	}
	if !core.ValidCell(value) {
		return 0, core.Valuef("value %q contains a control character", value)
	}

	n := 0
	for _, r := range t.rows {
		if pred == nil || pred(r) {
			r[idx] = value
			n++
		}
	}
	return n, nil
}

// Delete removes every row matching pred and returns how many were removed.
// Survivors keep their order and ids.
func (t *Table) Delete(pred Predicate) int {
	before := len(t.rows)
	t.rows = slices.DeleteFunc(t.rows, func(r Row) bool { return pred == nil || pred(r) })
	return before - len(t.rows)
}

// AddColumn appends a column and an empty cell to every row.
func (t *Table) AddColumn(name string) error {
	if !core.ValidCell(name) || name == "" {
		return core.Valuef("invalid column name %q", name)
	}
	if t.ColumnIndex(name) >= 0 {
		return core.Conflictf("column %q already exists in table %s", name, t.name)
	}
	t.columns = append(t.columns, name)
	for i := range t.rows {
		t.rows[i] = append(t.rows[i], "")
	}
	return nil
}

// DropColumn removes a column and its cell from every row.
func (t *Table) DropColumn(name string) error {
	if core.IsIDColumn(name) {
		return core.Conflictf("the %s column cannot be dropped", core.IDColumn)
	}
	idx := t.ColumnIndex(name)
	if idx < 0 {
		return core.NotFoundf("unknown column %q in table %s", name, t.name)
	}
	t.columns = slices.Delete(t.columns, idx, idx+1)
	for i := range t.rows {
		t.rows[i] = slices.Delete(t.rows[i], idx, idx+1)
	}
	return nil
}
