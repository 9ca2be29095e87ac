package executor

import "github.com/scardb/scardb/internal/value"

// Result is the generic statement result returned to the caller: rows for
// queries, AffectedRows for DML/DDL.
type Result struct {
	Columns []string
	Rows    [][]value.Value

	AffectedRows int64
}
