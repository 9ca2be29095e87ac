// Package planner turns an ast.Statement into a Plan: a tree of nodes the
// executor walks directly. The only planning decision this engine makes
// is access-path selection for a single table, per the rule: a WHERE
// clause that is exactly `pk = literal` becomes an index probe, anything
// else becomes a full scan. A join's inner side is always a full scan,
// regardless of its own WHERE shape.
package planner

import (
	"github.com/scardb/scardb/internal/ast"
	"github.com/scardb/scardb/internal/record"
	"github.com/scardb/scardb/internal/value"
)

// Plan is the root interface for every plan node.
type Plan interface {
	planNode()
}

// Access is the interface for nodes that produce rows: SeqScanPlan,
// IndexScanPlan, and JoinPlan all implement it, and also Plan.
type Access interface {
	Plan
	accessNode()
}

type CreateTablePlan struct {
	Table  string
	Schema record.Schema
}

func (*CreateTablePlan) planNode() {}

type DropTablePlan struct {
	Table string
}

func (*DropTablePlan) planNode() {}

// InsertPlan carries Columns/Rows through unchanged from the AST: column
// defaulting, autoincrement injection, and type checking are execution
// concerns (spec §4.6 INSERT steps 1-3), not planning ones.
type InsertPlan struct {
	Table   string
	Columns []string
	Rows    [][]*value.Value
}

func (*InsertPlan) planNode() {}

// SeqScanPlan reads every live row of Table in storage order.
type SeqScanPlan struct {
	Table string
}

func (*SeqScanPlan) planNode()   {}
func (*SeqScanPlan) accessNode() {}

// IndexScanPlan probes Table's PK index for exactly one key. Chosen only
// when a statement's WHERE is `pk = Key` with no surrounding conjunction.
type IndexScanPlan struct {
	Table string
	Key   value.Value
}

func (*IndexScanPlan) planNode()   {}
func (*IndexScanPlan) accessNode() {}

// JoinPlan is a nested-loop inner join: Left is the outer relation, Right
// the inner one, matched on Left row[LeftCol] = Right row[RightCol].
// Right is always scanned in full for every outer row — the index is
// never consulted on the inner side, even if RightCol is Right's PK.
type JoinPlan struct {
	Left, Right       Access
	LeftCol, RightCol string
}

func (*JoinPlan) planNode()   {}
func (*JoinPlan) accessNode() {}

// SelectPlan projects Columns out of rows produced by Source, after
// filtering by Where (nil Where means no filtering beyond what Source
// already guarantees, e.g. an IndexScanPlan's exact-key match).
type SelectPlan struct {
	Source  Access
	Where   value.Pred
	Columns []string
}

func (*SelectPlan) planNode() {}

// UpdatePlan applies Assigns to every row Source produces that also
// satisfies Where.
type UpdatePlan struct {
	Table   string
	Source  Access
	Where   value.Pred
	Assigns []ast.Assignment
}

func (*UpdatePlan) planNode() {}

// DeletePlan removes every row Source produces that also satisfies Where.
type DeletePlan struct {
	Table  string
	Source Access
	Where  value.Pred
}

func (*DeletePlan) planNode() {}
