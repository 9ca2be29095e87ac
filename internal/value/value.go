// Package value models ScarDB's scalar values as a flat tagged sum rather
// than an interface hierarchy: a switch on Kind is clearer and more
// branch-predictable than a visitor built on runtime polymorphism.
package value

import (
	"fmt"

	"github.com/scardb/scardb/internal/enginerr"
)

type Kind uint8

const (
	KindInt Kind = iota
	KindBool
	KindText
)

func (k Kind) String() string {
	switch k {
	case KindInt:
		return "INT"
	case KindBool:
		return "BOOLEAN"
	case KindText:
		return "VARCHAR"
	default:
		return "UNKNOWN"
	}
}

// Value is a scalar of one of ScarDB's three supported types.
type Value struct {
	Kind Kind
	I    int64
	B    bool
	S    string
}

func Int(i int64) Value  { return Value{Kind: KindInt, I: i} }
func Bool(b bool) Value  { return Value{Kind: KindBool, B: b} }
func Text(s string) Value { return Value{Kind: KindText, S: s} }

func (v Value) String() string {
	switch v.Kind {
	case KindInt:
		return fmt.Sprintf("%d", v.I)
	case KindBool:
		return fmt.Sprintf("%t", v.B)
	case KindText:
		return v.S
	default:
		return "<invalid>"
	}
}

// Any converts v to a plain Go value, for callers outside the engine that
// want to range over a result set without importing this package's Kind.
func (v Value) Any() any {
	switch v.Kind {
	case KindInt:
		return v.I
	case KindBool:
		return v.B
	case KindText:
		return v.S
	default:
		return nil
	}
}

func (v Value) Equal(o Value) bool {
	c, err := Compare(v, o)
	return err == nil && c == 0
}

// Compare returns -1/0/1 comparing a to b. String comparison is
// byte-lexicographic over decoded UTF-8. Comparisons between disparate
// kinds fail TypeMismatch, never a silent false.
func Compare(a, b Value) (int, error) {
	if a.Kind != b.Kind {
		return 0, fmt.Errorf("%w: cannot compare %s to %s", enginerr.TypeMismatch, a.Kind, b.Kind)
	}
	switch a.Kind {
	case KindInt:
		switch {
		case a.I < b.I:
			return -1, nil
		case a.I > b.I:
			return 1, nil
		default:
			return 0, nil
		}
	case KindBool:
		switch {
		case a.B == b.B:
			return 0, nil
		case !a.B && b.B:
			return -1, nil
		default:
			return 1, nil
		}
	case KindText:
		switch {
		case a.S < b.S:
			return -1, nil
		case a.S > b.S:
			return 1, nil
		default:
			return 0, nil
		}
	default:
		return 0, fmt.Errorf("%w: unknown value kind %d", enginerr.TypeMismatch, a.Kind)
	}
}
