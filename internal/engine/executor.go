package engine

import (
	"fmt"
	"strconv"

	"github.com/leapstack-labs/tabdb/internal/table"
	"github.com/leapstack-labs/tabdb/pkg/core"
	"github.com/leapstack-labs/tabdb/pkg/parser"
)

// exec dispatches a parsed statement. Mutating commands change a clone of
// the table, persist it and only then publish it to the session, so a
// failed write leaves memory and disk in agreement.
func (e *Engine) exec(stmt parser.Statement) (*Result, error) {
	switch s := stmt.(type) {
	case *parser.UseStmt:
		return e.execUse(s)
	case *parser.CreateDatabaseStmt:
		return &Result{}, e.layout.CreateDatabase(s.Database)
	case *parser.DropDatabaseStmt:
		return e.execDropDatabase(s)
	case *parser.CreateTableStmt:
		return e.execCreateTable(s)
	case *parser.DropTableStmt:
		return e.execDropTable(s)
	case *parser.InsertStmt:
		return e.execInsert(s)
	case *parser.SelectStmt:
		return e.execSelect(s)
	case *parser.UpdateStmt:
		return e.execUpdate(s)
	case *parser.DeleteStmt:
		return e.execDelete(s)
	case *parser.AlterTableStmt:
		return e.execAlter(s)
	case *parser.JoinStmt:
		return e.execJoin(s)
	}
	return nil, core.Errorf(core.ErrUnsupported, "unsupported statement %T", stmt)
}

func (e *Engine) execUse(s *parser.UseStmt) (*Result, error) {
	tables, err := e.layout.LoadDatabase(s.Database)
	if err != nil {
		return nil, err
	}
	e.session = newSession(s.Database, tables)
	e.logger.Info("database selected", "database", s.Database, "tables", len(tables))
	return &Result{}, nil
}

func (e *Engine) execDropDatabase(s *parser.DropDatabaseStmt) (*Result, error) {
	if err := e.layout.DropDatabase(s.Database); err != nil {
		return nil, err
	}
	if e.session.database == s.Database {
		e.session = newSession("", nil)
	}
	return &Result{}, nil
}

func (e *Engine) execCreateTable(s *parser.CreateTableStmt) (*Result, error) {
	if err := e.session.requireDatabase(); err != nil {
		return nil, err
	}
	if _, ok := e.session.tables[s.Table]; ok {
		return nil, core.Conflictf("table %s already exists in database %s", s.Table, e.session.database)
	}
	t, err := table.New(s.Table, s.Columns)
	if err != nil {
		return nil, err
	}
	return &Result{}, e.commit(t)
}

func (e *Engine) execDropTable(s *parser.DropTableStmt) (*Result, error) {
	if _, err := e.session.table(s.Table); err != nil {
		return nil, err
	}
	if err := e.layout.DeleteTable(e.session.database, s.Table); err != nil {
		return nil, err
	}
	e.session.remove(s.Table)
	return &Result{}, nil
}

func (e *Engine) execInsert(s *parser.InsertStmt) (*Result, error) {
	t, err := e.session.table(s.Table)
	if err != nil {
		return nil, err
	}
	next := t.Clone()
	if _, err := next.Insert(s.Values); err != nil {
		return nil, err
	}
	return &Result{Affected: 1}, e.commit(next)
}

func (e *Engine) execSelect(s *parser.SelectStmt) (*Result, error) {
	t, err := e.session.table(s.Table)
	if err != nil {
		return nil, err
	}

	columns := t.Columns()
	var proj []int
	if s.Star {
		proj = make([]int, len(columns))
		for i := range columns {
			proj[i] = i
		}
	} else {
		for _, name := range s.Columns {
			idx := t.ColumnIndex(name)
			if idx < 0 {
				return nil, core.NotFoundf("unknown column %q in table %s", name, t.Name())
			}
			proj = append(proj, idx)
		}
	}

	pred, err := t.Compile(s.Where)
	if err != nil {
		return nil, err
	}

	res := &Result{Header: make([]string, len(proj)), Rows: [][]string{}}
	for i, idx := range proj {
		res.Header[i] = columns[idx]
	}
	for _, row := range t.Select(pred) {
		out := make([]string, len(proj))
		for i, idx := range proj {
			out[i] = row[idx]
		}
		res.Rows = append(res.Rows, out)
	}
	return res, nil
}

func (e *Engine) execUpdate(s *parser.UpdateStmt) (*Result, error) {
	t, err := e.session.table(s.Table)
	if err != nil {
		return nil, err
	}
	pred, err := t.Compile([]core.Condition{s.Where})
	if err != nil {
		return nil, err
	}
	next := t.Clone()
	n, err := next.Update(s.SetColumn, s.SetValue, pred)
	if err != nil {
		return nil, err
	}
	return &Result{Affected: n}, e.commit(next)
}

func (e *Engine) execDelete(s *parser.DeleteStmt) (*Result, error) {
	t, err := e.session.table(s.Table)
	if err != nil {
		return nil, err
	}
	pred, err := t.Compile(s.Where)
	if err != nil {
		return nil, err
	}
	next := t.Clone()
	n := next.Delete(pred)
	return &Result{Affected: n}, e.commit(next)
}

func (e *Engine) execAlter(s *parser.AlterTableStmt) (*Result, error) {
	t, err := e.session.table(s.Table)
	if err != nil {
		return nil, err
	}
	next := t.Clone()
	switch s.Action {
	case parser.AlterAdd:
		err = next.AddColumn(s.Column)
	case parser.AlterDrop:
		err = next.DropColumn(s.Column)
	default:
		err = core.Errorf(core.ErrUnsupported, "unsupported ALTER action %q", s.Action)
	}
	if err != nil {
		return nil, err
	}
	return &Result{}, e.commit(next)
}

// execJoin pairs every row of the left table with every row of the right
// table whose join attribute holds the same text. Output rows get fresh
// ids 1..K in nested-loop order and carry every other column of both
// tables, qualified by table name.
func (e *Engine) execJoin(s *parser.JoinStmt) (*Result, error) {
	left, err := e.session.table(s.Left)
	if err != nil {
		return nil, err
	}
	right, err := e.session.table(s.Right)
	if err != nil {
		return nil, err
	}
	li := left.ColumnIndex(s.LeftAttr)
	if li < 0 {
		return nil, core.NotFoundf("unknown attribute %q in table %s", s.LeftAttr, left.Name())
	}
	ri := right.ColumnIndex(s.RightAttr)
	if ri < 0 {
		return nil, core.NotFoundf("unknown attribute %q in table %s", s.RightAttr, right.Name())
	}

	leftCols := carried(left.Columns(), li)
	rightCols := carried(right.Columns(), ri)

	res := &Result{Header: []string{core.IDColumn}, Rows: [][]string{}}
	for _, idx := range leftCols {
		res.Header = append(res.Header, left.Name()+"."+left.Columns()[idx])
	}
	for _, idx := range rightCols {
		res.Header = append(res.Header, right.Name()+"."+right.Columns()[idx])
	}

	rightRows := right.Rows()
	for _, lr := range left.Rows() {
		for _, rr := range rightRows {
			if lr[li] != rr[ri] {
				continue
			}
			out := make([]string, 0, len(res.Header))
			out = append(out, strconv.Itoa(len(res.Rows)+1))
			for _, idx := range leftCols {
				out = append(out, lr[idx])
			}
			for _, idx := range rightCols {
				out = append(out, rr[idx])
			}
			res.Rows = append(res.Rows, out)
		}
	}
	return res, nil
}

// mutates reports whether a statement writes to the storage root.
func mutates(stmt parser.Statement) bool {
	switch stmt.(type) {
	case *parser.UseStmt, *parser.SelectStmt, *parser.JoinStmt:
		return false
	}
	return true
}

// carried returns the column indexes copied into a join result: all but
// the id column and the join attribute.
func carried(columns []string, joinIdx int) []int {
	var out []int
	for i := range columns {
		if i != 0 && i != joinIdx {
			out = append(out, i)
		}
	}
	return out
}

// commit persists t and publishes it to the session.
func (e *Engine) commit(t *table.Table) error {
	if err := e.layout.SaveTable(e.session.database, t); err != nil {
		return fmt.Errorf("table %s not changed: %w", t.Name(), err)
	}
	e.session.put(t)
	return nil
}
