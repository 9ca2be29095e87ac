package value

import (
	"fmt"

	"github.com/scardb/scardb/internal/enginerr"
)

// Op is a comparison operator usable in a WHERE predicate.
type Op uint8

const (
	OpEq Op = iota
	OpNe
	OpLt
	OpLe
	OpGt
	OpGe
)

// Pred is a small algebraic predicate tree: a leaf compares a named column
// against a literal Value; And/Or/Not combine sub-predicates. Evaluation is
// a flat switch on the node's own type, never a visitor.
type Pred interface {
	predNode()
}

type Cmp struct {
	Column string
	Op     Op
	Lit    Value
}

func (*Cmp) predNode() {}

type And struct{ Left, Right Pred }

func (*And) predNode() {}

type Or struct{ Left, Right Pred }

func (*Or) predNode() {}

type Not struct{ Inner Pred }

func (*Not) predNode() {}

// Eval evaluates p against a row represented as a column-name -> Value map.
func Eval(p Pred, row map[string]Value) (bool, error) {
	switch n := p.(type) {
	case *Cmp:
		v, ok := row[n.Column]
		if !ok {
			return false, fmt.Errorf("%w: column %q", enginerr.UnknownColumn, n.Column)
		}
		c, err := Compare(v, n.Lit)
		if err != nil {
			return false, err
		}
		switch n.Op {
		case OpEq:
			return c == 0, nil
		case OpNe:
			return c != 0, nil
		case OpLt:
			return c < 0, nil
		case OpLe:
			return c <= 0, nil
		case OpGt:
			return c > 0, nil
		case OpGe:
			return c >= 0, nil
		default:
			return false, fmt.Errorf("%w: unknown comparison operator %d", enginerr.Unsupported, n.Op)
		}
	case *And:
		l, err := Eval(n.Left, row)
		if err != nil {
			return false, err
		}
		if !l {
			return false, nil
		}
		return Eval(n.Right, row)
	case *Or:
		l, err := Eval(n.Left, row)
		if err != nil {
			return false, err
		}
		if l {
			return true, nil
		}
		return Eval(n.Right, row)
	case *Not:
		v, err := Eval(n.Inner, row)
		if err != nil {
			return false, err
		}
		return !v, nil
	default:
		return false, fmt.Errorf("%w: predicate node %T", enginerr.Unsupported, p)
	}
}

// PKEquality reports whether p is exactly `pkColumn = literal` with no
// conjunction and no other predicate shape — the one case spec's planner
// may turn into an index probe instead of a full scan.
func PKEquality(p Pred, pkColumn string) (Value, bool) {
	cmp, ok := p.(*Cmp)
	if !ok || cmp.Op != OpEq || cmp.Column != pkColumn {
		return Value{}, false
	}
	return cmp.Lit, true
}
