package executor

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/scardb/scardb/internal/ast"
	"github.com/scardb/scardb/internal/enginerr"
	"github.com/scardb/scardb/internal/engine"
	"github.com/scardb/scardb/internal/value"
)

func newTestExecutor(t *testing.T) *Executor {
	t.Helper()
	eng, err := engine.Open(t.TempDir(), 0)
	require.NoError(t, err)
	t.Cleanup(func() { eng.Close() })
	return New(eng)
}

func createUsers(t *testing.T, e *Executor) {
	t.Helper()
	_, err := e.Execute(&ast.CreateTable{
		Name: "users",
		Columns: []ast.ColumnDef{
			{Name: "id", Type: ast.TypeInt, Flags: ast.FlagPrimaryKey | ast.FlagAutoIncrement | ast.FlagNotNull},
			{Name: "name", Type: ast.TypeVarchar, Width: 16},
		},
	})
	require.NoError(t, err)
}

func insertUser(t *testing.T, e *Executor, id *value.Value, name string) {
	t.Helper()
	n := value.Text(name)
	_, err := e.Execute(&ast.Insert{Table: "users", Rows: [][]*value.Value{{id, &n}}})
	require.NoError(t, err)
}

func TestExecutor_CreateInsertSelect(t *testing.T) {
	e := newTestExecutor(t)
	createUsers(t, e)

	insertUser(t, e, nil, "alice")
	insertUser(t, e, nil, "bob")

	res, err := e.Execute(&ast.Select{From: &ast.FromTable{Table: "users"}})
	require.NoError(t, err)
	require.Len(t, res.Rows, 2)
	require.Equal(t, []string{"id", "name"}, res.Columns)
	require.Equal(t, value.Int(1), res.Rows[0][0])
	require.Equal(t, value.Int(2), res.Rows[1][0])
}

func TestExecutor_SelectPKEqualityUsesIndex(t *testing.T) {
	e := newTestExecutor(t)
	createUsers(t, e)
	insertUser(t, e, nil, "alice")
	insertUser(t, e, nil, "bob")

	res, err := e.Execute(&ast.Select{
		From:  &ast.FromTable{Table: "users"},
		Where: &value.Cmp{Column: "id", Op: value.OpEq, Lit: value.Int(2)},
	})
	require.NoError(t, err)
	require.Len(t, res.Rows, 1)
	require.Equal(t, "bob", res.Rows[0][1].S)
}

func TestExecutor_ExplicitPKBumpsAutoincrement(t *testing.T) {
	e := newTestExecutor(t)
	createUsers(t, e)

	explicit := value.Int(10)
	insertUser(t, e, &explicit, "carol")
	insertUser(t, e, nil, "dave")

	res, err := e.Execute(&ast.Select{From: &ast.FromTable{Table: "users"}})
	require.NoError(t, err)
	require.Len(t, res.Rows, 2)
	require.Equal(t, value.Int(11), res.Rows[1][0])
}

func TestExecutor_DuplicatePKRejected(t *testing.T) {
	e := newTestExecutor(t)
	createUsers(t, e)

	id := value.Int(1)
	insertUser(t, e, &id, "alice")
	_, err := e.Execute(&ast.Insert{
		Table: "users",
		Rows:  [][]*value.Value{{&id, ptr(value.Text("dup"))}},
	})
	require.ErrorIs(t, err, enginerr.DuplicateKey)
}

func TestExecutor_MissingRequiredColumnRejected(t *testing.T) {
	e := newTestExecutor(t)
	createUsers(t, e)

	_, err := e.Execute(&ast.Insert{
		Table:   "users",
		Columns: []string{"id"},
		Rows:    [][]*value.Value{{ptr(value.Int(1))}},
	})
	require.ErrorIs(t, err, enginerr.NotNullViolation)
}

func TestExecutor_UpdateNonPKColumn(t *testing.T) {
	e := newTestExecutor(t)
	createUsers(t, e)
	insertUser(t, e, nil, "alice")

	res, err := e.Execute(&ast.Update{
		Table:   "users",
		Assigns: []ast.Assignment{{Column: "name", Value: value.Text("alicia")}},
		Where:   &value.Cmp{Column: "id", Op: value.OpEq, Lit: value.Int(1)},
	})
	require.NoError(t, err)
	require.Equal(t, int64(1), res.AffectedRows)

	got, err := e.Execute(&ast.Select{From: &ast.FromTable{Table: "users"}})
	require.NoError(t, err)
	require.Equal(t, "alicia", got.Rows[0][1].S)
}

func TestExecutor_UpdatePKMaintainsIndex(t *testing.T) {
	e := newTestExecutor(t)
	createUsers(t, e)
	insertUser(t, e, nil, "alice")

	_, err := e.Execute(&ast.Update{
		Table:   "users",
		Assigns: []ast.Assignment{{Column: "id", Value: value.Int(99)}},
		Where:   &value.Cmp{Column: "id", Op: value.OpEq, Lit: value.Int(1)},
	})
	require.NoError(t, err)

	byOld, err := e.Execute(&ast.Select{From: &ast.FromTable{Table: "users"}, Where: &value.Cmp{Column: "id", Op: value.OpEq, Lit: value.Int(1)}})
	require.NoError(t, err)
	require.Len(t, byOld.Rows, 0)

	byNew, err := e.Execute(&ast.Select{From: &ast.FromTable{Table: "users"}, Where: &value.Cmp{Column: "id", Op: value.OpEq, Lit: value.Int(99)}})
	require.NoError(t, err)
	require.Len(t, byNew.Rows, 1)
}

func TestExecutor_DeleteRemovesRowAndIndexEntry(t *testing.T) {
	e := newTestExecutor(t)
	createUsers(t, e)
	insertUser(t, e, nil, "alice")
	insertUser(t, e, nil, "bob")

	res, err := e.Execute(&ast.Delete{Table: "users", Where: &value.Cmp{Column: "id", Op: value.OpEq, Lit: value.Int(1)}})
	require.NoError(t, err)
	require.Equal(t, int64(1), res.AffectedRows)

	got, err := e.Execute(&ast.Select{From: &ast.FromTable{Table: "users"}})
	require.NoError(t, err)
	require.Len(t, got.Rows, 1)
	require.Equal(t, "bob", got.Rows[0][1].S)

	byPK, err := e.Execute(&ast.Select{From: &ast.FromTable{Table: "users"}, Where: &value.Cmp{Column: "id", Op: value.OpEq, Lit: value.Int(1)}})
	require.NoError(t, err)
	require.Len(t, byPK.Rows, 0)
}

func TestExecutor_InnerJoin(t *testing.T) {
	e := newTestExecutor(t)
	createUsers(t, e)
	insertUser(t, e, nil, "alice")
	insertUser(t, e, nil, "bob")

	_, err := e.Execute(&ast.CreateTable{
		Name: "orders",
		Columns: []ast.ColumnDef{
			{Name: "order_id", Type: ast.TypeInt, Flags: ast.FlagPrimaryKey | ast.FlagAutoIncrement | ast.FlagNotNull},
			{Name: "user_id", Type: ast.TypeInt, Flags: ast.FlagNotNull},
		},
	})
	require.NoError(t, err)

	uid := value.Int(1)
	_, err = e.Execute(&ast.Insert{Table: "orders", Columns: []string{"user_id"}, Rows: [][]*value.Value{{&uid}}})
	require.NoError(t, err)

	res, err := e.Execute(&ast.Select{
		From: &ast.FromJoin{Left: "users", Right: "orders", LeftCol: "id", RightCol: "user_id"},
	})
	require.NoError(t, err)
	require.Len(t, res.Rows, 1)
}

func TestExecutor_DropTable(t *testing.T) {
	e := newTestExecutor(t)
	createUsers(t, e)

	_, err := e.Execute(&ast.DropTable{Name: "users"})
	require.NoError(t, err)

	_, err = e.Execute(&ast.Select{From: &ast.FromTable{Table: "users"}})
	require.ErrorIs(t, err, enginerr.NotFound)
}

func ptr(v value.Value) *value.Value { return &v }
