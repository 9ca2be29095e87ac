// Package executor walks a planner.Plan and drives an engine.Engine to
// produce a Result, implementing the statement semantics of spec §4.6:
// column defaulting and AUTOINCREMENT injection on INSERT, WHERE matching
// and projection on SELECT, in-place rewrite with index upkeep on UPDATE,
// and bitmask-clear-plus-index-removal on DELETE.
package executor

import (
	"fmt"

	"github.com/scardb/scardb/internal/ast"
	"github.com/scardb/scardb/internal/enginerr"
	"github.com/scardb/scardb/internal/engine"
	"github.com/scardb/scardb/internal/index"
	"github.com/scardb/scardb/internal/planner"
	"github.com/scardb/scardb/internal/record"
	"github.com/scardb/scardb/internal/value"
)

// Executor runs statements against one Engine.
type Executor struct {
	eng *engine.Engine
}

func New(eng *engine.Engine) *Executor {
	return &Executor{eng: eng}
}

// Execute plans and runs stmt under the engine's statement guard, so that
// planning always sees a schema snapshot consistent with execution.
func (e *Executor) Execute(stmt ast.Statement) (*Result, error) {
	var res *Result
	err := e.eng.Guard(func() error {
		plan, err := planner.BuildPlan(stmt, e.eng.Catalog())
		if err != nil {
			return err
		}
		r, err := e.execPlan(plan)
		if err != nil {
			return err
		}
		res = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (e *Executor) execPlan(p planner.Plan) (*Result, error) {
	switch plan := p.(type) {
	case *planner.CreateTablePlan:
		return e.execCreateTable(plan)
	case *planner.DropTablePlan:
		return e.execDropTable(plan)
	case *planner.InsertPlan:
		return e.execInsert(plan)
	case *planner.SelectPlan:
		return e.execSelect(plan)
	case *planner.UpdatePlan:
		return e.execUpdate(plan)
	case *planner.DeletePlan:
		return e.execDelete(plan)
	default:
		return nil, fmt.Errorf("%w: plan type %T", enginerr.Unsupported, p)
	}
}

func (e *Executor) execCreateTable(p *planner.CreateTablePlan) (*Result, error) {
	if err := e.eng.CreateTable(p.Table, p.Schema); err != nil {
		return nil, err
	}
	return &Result{}, nil
}

func (e *Executor) execDropTable(p *planner.DropTablePlan) (*Result, error) {
	if err := e.eng.DropTable(p.Table); err != nil {
		return nil, err
	}
	return &Result{}, nil
}

func (e *Executor) execInsert(p *planner.InsertPlan) (*Result, error) {
	tbl, err := e.eng.Table(p.Table)
	if err != nil {
		return nil, err
	}

	var affected int64
	for _, raw := range p.Rows {
		row, err := e.buildInsertRow(tbl, p.Columns, raw)
		if err != nil {
			return nil, err
		}
		if _, err := tbl.InsertRow(row); err != nil {
			return nil, err
		}
		affected++
	}
	return &Result{AffectedRows: affected}, nil
}

// buildInsertRow implements spec §4.6 INSERT steps 1-4: map supplied
// values onto schema column positions, inject the next AUTOINCREMENT
// value for any omitted AUTOINCREMENT column, bump the sequence for any
// explicitly supplied AUTOINCREMENT value, and reject a column that is
// neither supplied nor AUTOINCREMENT (this engine has no NULL literal).
func (e *Executor) buildInsertRow(tbl *engine.Table, columns []string, raw []*value.Value) (record.Row, error) {
	schema := tbl.Schema
	colOrder := columns
	if colOrder == nil {
		colOrder = schema.ColumnNames()
	}
	if len(colOrder) != len(raw) {
		return nil, fmt.Errorf("%w: %d columns named, %d values given", enginerr.Unsupported, len(colOrder), len(raw))
	}

	supplied := make([]*value.Value, len(schema.Columns))
	for i, name := range colOrder {
		idx := schema.ColumnIndex(name)
		if idx < 0 {
			return nil, fmt.Errorf("%w: %q", enginerr.UnknownColumn, name)
		}
		supplied[idx] = raw[i]
	}

	cat := e.eng.Catalog()
	row := make(record.Row, len(schema.Columns))
	for i, col := range schema.Columns {
		if supplied[i] != nil {
			v := *supplied[i]
			if v.Kind != col.ValueKind() {
				return nil, fmt.Errorf("%w: column %q expects %s, got %s", enginerr.TypeMismatch, col.Name, col.ValueKind(), v.Kind)
			}
			row[i] = v
			if col.Has(record.FlagAutoIncrement) {
				if err := cat.BumpAutoincrement(tbl.Name, col.Name, v.I); err != nil {
					return nil, err
				}
			}
			continue
		}
		if col.Has(record.FlagAutoIncrement) {
			next, err := cat.NextAutoincrement(tbl.Name, col.Name)
			if err != nil {
				return nil, err
			}
			row[i] = value.Int(next)
			continue
		}
		return nil, fmt.Errorf("%w: column %q requires a value", enginerr.NotNullViolation, col.Name)
	}
	return row, nil
}

func (e *Executor) execSelect(p *planner.SelectPlan) (*Result, error) {
	if join, ok := p.Source.(*planner.JoinPlan); ok {
		return e.execJoinSelect(p, join)
	}

	tableName := accessTableName(p.Source)
	tbl, err := e.eng.Table(tableName)
	if err != nil {
		return nil, err
	}
	cols := selectColumns(p.Columns, tbl.Schema.ColumnNames())
	res := &Result{Columns: cols}

	err = scanAccess(tbl, p.Source, func(_ index.Locator, row record.Row) error {
		if p.Where != nil {
			ok, err := value.Eval(p.Where, rowToMap(tbl.Schema, row))
			if err != nil {
				return err
			}
			if !ok {
				return nil
			}
		}
		projected, err := projectRow(tbl.Schema, row, cols)
		if err != nil {
			return err
		}
		res.Rows = append(res.Rows, projected)
		return nil
	})
	if err != nil {
		return nil, err
	}
	res.AffectedRows = int64(len(res.Rows))
	return res, nil
}

func (e *Executor) execJoinSelect(p *planner.SelectPlan, join *planner.JoinPlan) (*Result, error) {
	leftTbl, err := e.eng.Table(accessTableName(join.Left))
	if err != nil {
		return nil, err
	}
	rightTbl, err := e.eng.Table(accessTableName(join.Right))
	if err != nil {
		return nil, err
	}

	allCols := append(append([]string{}, leftTbl.Schema.ColumnNames()...), rightTbl.Schema.ColumnNames()...)
	cols := selectColumns(p.Columns, allCols)
	res := &Result{Columns: cols}

	err = scanAccess(leftTbl, join.Left, func(_ index.Locator, lrow record.Row) error {
		lv, err := columnValue(leftTbl.Schema, lrow, join.LeftCol)
		if err != nil {
			return err
		}
		return scanAccess(rightTbl, join.Right, func(_ index.Locator, rrow record.Row) error {
			rv, err := columnValue(rightTbl.Schema, rrow, join.RightCol)
			if err != nil {
				return err
			}
			c, err := value.Compare(lv, rv)
			if err != nil {
				return err
			}
			if c != 0 {
				return nil
			}
			jr := joinedRow{leftSchema: leftTbl.Schema, rightSchema: rightTbl.Schema, leftRow: lrow, rightRow: rrow}
			if p.Where != nil {
				ok, err := value.Eval(p.Where, jr.toMap())
				if err != nil {
					return err
				}
				if !ok {
					return nil
				}
			}
			projected, err := jr.project(cols)
			if err != nil {
				return err
			}
			res.Rows = append(res.Rows, projected)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	res.AffectedRows = int64(len(res.Rows))
	return res, nil
}

func (e *Executor) execUpdate(p *planner.UpdatePlan) (*Result, error) {
	tbl, err := e.eng.Table(accessTableName(p.Source))
	if err != nil {
		return nil, err
	}

	pkIdx := tbl.Schema.PKIndex()
	var affected int64
	err = scanAccess(tbl, p.Source, func(loc index.Locator, row record.Row) error {
		if p.Where != nil {
			ok, err := value.Eval(p.Where, rowToMap(tbl.Schema, row))
			if err != nil {
				return err
			}
			if !ok {
				return nil
			}
		}

		newRow := append(record.Row{}, row...)
		for _, a := range p.Assigns {
			idx := tbl.Schema.ColumnIndex(a.Column)
			if idx < 0 {
				return fmt.Errorf("%w: %q", enginerr.UnknownColumn, a.Column)
			}
			col := tbl.Schema.Columns[idx]
			if a.Value.Kind != col.ValueKind() {
				return fmt.Errorf("%w: column %q expects %s, got %s", enginerr.TypeMismatch, col.Name, col.ValueKind(), a.Value.Kind)
			}
			newRow[idx] = a.Value
		}
		// Assigning the PK its current value is not a PK change.
		pkChanged := tbl.HasPK() && !newRow[pkIdx].Equal(row[pkIdx])

		var oldPK, newPK value.Value
		if tbl.HasPK() {
			oldPK = row[pkIdx]
			newPK = newRow[pkIdx]
			if pkChanged {
				if _, exists := tbl.Index().Lookup(newPK); exists {
					return fmt.Errorf("%w: %s", enginerr.DuplicateKey, newPK)
				}
			}
		}

		if err := tbl.WriteInPlace(loc, newRow); err != nil {
			return err
		}
		if pkChanged {
			tbl.Index().Remove(oldPK)
			if err := tbl.Index().Insert(newPK, loc); err != nil {
				return err
			}
		}
		affected++
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &Result{AffectedRows: affected}, nil
}

func (e *Executor) execDelete(p *planner.DeletePlan) (*Result, error) {
	tbl, err := e.eng.Table(accessTableName(p.Source))
	if err != nil {
		return nil, err
	}

	type match struct {
		loc index.Locator
		pk  value.Value
	}
	var matches []match
	err = scanAccess(tbl, p.Source, func(loc index.Locator, row record.Row) error {
		if p.Where != nil {
			ok, err := value.Eval(p.Where, rowToMap(tbl.Schema, row))
			if err != nil {
				return err
			}
			if !ok {
				return nil
			}
		}
		var pk value.Value
		if tbl.HasPK() {
			pk = tbl.PK(row)
		}
		matches = append(matches, match{loc: loc, pk: pk})
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, m := range matches {
		if err := tbl.DeleteAt(m.loc, m.pk, tbl.HasPK()); err != nil {
			return nil, err
		}
	}
	return &Result{AffectedRows: int64(len(matches))}, nil
}

// ---- access-plan helpers ----

func accessTableName(a planner.Access) string {
	switch x := a.(type) {
	case *planner.SeqScanPlan:
		return x.Table
	case *planner.IndexScanPlan:
		return x.Table
	default:
		return ""
	}
}

func scanAccess(tbl *engine.Table, a planner.Access, fn func(loc index.Locator, row record.Row) error) error {
	switch x := a.(type) {
	case *planner.SeqScanPlan:
		return tbl.Scan(fn)
	case *planner.IndexScanPlan:
		// The index only holds keys of the PK column's kind; a literal of
		// another kind fails TypeMismatch, as a full scan's comparison would.
		pkCol := tbl.Schema.Columns[tbl.Schema.PKIndex()]
		if x.Key.Kind != pkCol.ValueKind() {
			return fmt.Errorf("%w: cannot compare %s to %s", enginerr.TypeMismatch, pkCol.ValueKind(), x.Key.Kind)
		}
		loc, ok := tbl.Index().Lookup(x.Key)
		if !ok {
			return nil
		}
		row, err := tbl.RowAt(loc)
		if err != nil {
			return err
		}
		return fn(loc, row)
	default:
		return fmt.Errorf("%w: access plan %T", enginerr.Unsupported, a)
	}
}

// ---- row shaping helpers ----

func rowToMap(schema record.Schema, row record.Row) map[string]value.Value {
	m := make(map[string]value.Value, len(schema.Columns))
	for i, c := range schema.Columns {
		m[c.Name] = row[i]
	}
	return m
}

func columnValue(schema record.Schema, row record.Row, name string) (value.Value, error) {
	idx := schema.ColumnIndex(name)
	if idx < 0 {
		return value.Value{}, fmt.Errorf("%w: %q", enginerr.UnknownColumn, name)
	}
	return row[idx], nil
}

func selectColumns(requested []string, available []string) []string {
	if len(requested) == 0 || (len(requested) == 1 && requested[0] == "*") {
		return available
	}
	return requested
}

func projectRow(schema record.Schema, row record.Row, cols []string) ([]value.Value, error) {
	out := make([]value.Value, len(cols))
	for i, name := range cols {
		idx := schema.ColumnIndex(name)
		if idx < 0 {
			return nil, fmt.Errorf("%w: %q", enginerr.UnknownColumn, name)
		}
		out[i] = row[idx]
	}
	return out, nil
}

// joinedRow is a pair of rows from either side of a nested-loop join,
// addressed by column name as if they were one wide row.
type joinedRow struct {
	leftSchema, rightSchema record.Schema
	leftRow, rightRow       record.Row
}

func (j joinedRow) toMap() map[string]value.Value {
	m := make(map[string]value.Value, len(j.leftSchema.Columns)+len(j.rightSchema.Columns))
	for i, c := range j.leftSchema.Columns {
		m[c.Name] = j.leftRow[i]
	}
	for i, c := range j.rightSchema.Columns {
		m[c.Name] = j.rightRow[i]
	}
	return m
}

func (j joinedRow) project(cols []string) ([]value.Value, error) {
	m := j.toMap()
	out := make([]value.Value, len(cols))
	for i, name := range cols {
		v, ok := m[name]
		if !ok {
			return nil, fmt.Errorf("%w: %q", enginerr.UnknownColumn, name)
		}
		out[i] = v
	}
	return out, nil
}
