package planner

import (
	"fmt"

	"github.com/scardb/scardb/internal/ast"
	"github.com/scardb/scardb/internal/record"
	"github.com/scardb/scardb/internal/value"
)

// SchemaLookup is the slice of catalog.Catalog the planner needs: enough
// to decide access paths without importing the catalog package directly.
type SchemaLookup interface {
	GetSchema(name string) (record.Schema, error)
}

// BuildPlan turns stmt into an executable Plan, resolving table schemas
// through lookup where a planning decision needs them.
func BuildPlan(stmt ast.Statement, lookup SchemaLookup) (Plan, error) {
	switch s := stmt.(type) {
	case *ast.CreateTable:
		return buildCreateTablePlan(s)
	case *ast.DropTable:
		return &DropTablePlan{Table: s.Name}, nil
	case *ast.Insert:
		return &InsertPlan{Table: s.Table, Columns: s.Columns, Rows: s.Rows}, nil
	case *ast.Select:
		return buildSelectPlan(s, lookup)
	case *ast.Update:
		return buildUpdatePlan(s, lookup)
	case *ast.Delete:
		return buildDeletePlan(s, lookup)
	default:
		return nil, fmt.Errorf("planner: unsupported statement type %T", stmt)
	}
}

func buildCreateTablePlan(s *ast.CreateTable) (Plan, error) {
	cols := make([]record.Column, len(s.Columns))
	for i, c := range s.Columns {
		colType, err := mapColumnType(c.Type)
		if err != nil {
			return nil, err
		}
		cols[i] = record.Column{
			Name:  c.Name,
			Type:  colType,
			Width: c.Width,
			Flags: mapColumnFlags(c.Flags),
		}
	}
	return &CreateTablePlan{Table: s.Name, Schema: record.Schema{Columns: cols}}, nil
}

func mapColumnType(t ast.ColumnType) (record.ColumnType, error) {
	switch t {
	case ast.TypeInt:
		return record.TypeInt, nil
	case ast.TypeBoolean:
		return record.TypeBoolean, nil
	case ast.TypeVarchar:
		return record.TypeVarchar, nil
	default:
		return 0, fmt.Errorf("planner: unknown column type %d", t)
	}
}

func mapColumnFlags(f ast.ColumnFlag) record.ColumnFlag {
	var out record.ColumnFlag
	if f&ast.FlagPrimaryKey != 0 {
		out |= record.FlagPrimaryKey
	}
	if f&ast.FlagAutoIncrement != 0 {
		out |= record.FlagAutoIncrement
	}
	if f&ast.FlagNotNull != 0 {
		out |= record.FlagNotNull
	}
	return out
}

// buildAccess picks IndexScanPlan over SeqScanPlan only when allowIndex is
// set and where is exactly `pk = literal` for table's own PK column.
func buildAccess(schema record.Schema, table string, where value.Pred, allowIndex bool) Access {
	if allowIndex && where != nil {
		if pkIdx := schema.PKIndex(); pkIdx >= 0 {
			if key, ok := value.PKEquality(where, schema.Columns[pkIdx].Name); ok {
				return &IndexScanPlan{Table: table, Key: key}
			}
		}
	}
	return &SeqScanPlan{Table: table}
}

func buildSelectPlan(s *ast.Select, lookup SchemaLookup) (Plan, error) {
	var source Access
	switch from := s.From.(type) {
	case *ast.FromTable:
		schema, err := lookup.GetSchema(from.Table)
		if err != nil {
			return nil, err
		}
		source = buildAccess(schema, from.Table, s.Where, true)
	case *ast.FromJoin:
		leftSchema, err := lookup.GetSchema(from.Left)
		if err != nil {
			return nil, err
		}
		if _, err := lookup.GetSchema(from.Right); err != nil {
			return nil, err
		}
		left := buildAccess(leftSchema, from.Left, s.Where, true)
		right := &SeqScanPlan{Table: from.Right}
		source = &JoinPlan{Left: left, Right: right, LeftCol: from.LeftCol, RightCol: from.RightCol}
	default:
		return nil, fmt.Errorf("planner: unsupported FROM clause %T", from)
	}
	return &SelectPlan{Source: source, Where: s.Where, Columns: s.Columns}, nil
}

func buildUpdatePlan(s *ast.Update, lookup SchemaLookup) (Plan, error) {
	schema, err := lookup.GetSchema(s.Table)
	if err != nil {
		return nil, err
	}
	source := buildAccess(schema, s.Table, s.Where, true)
	return &UpdatePlan{Table: s.Table, Source: source, Where: s.Where, Assigns: s.Assigns}, nil
}

func buildDeletePlan(s *ast.Delete, lookup SchemaLookup) (Plan, error) {
	schema, err := lookup.GetSchema(s.Table)
	if err != nil {
		return nil, err
	}
	source := buildAccess(schema, s.Table, s.Where, true)
	return &DeletePlan{Table: s.Table, Source: source, Where: s.Where}, nil
}
