// Package record defines table schemas and the fixed-width row codec
// derived from them.
package record

import (
	"fmt"

	"github.com/scardb/scardb/internal/enginerr"
	"github.com/scardb/scardb/internal/value"
)

type ColumnFlag uint8

const (
	FlagPrimaryKey ColumnFlag = 1 << iota
	FlagAutoIncrement
	FlagNotNull
)

type ColumnType uint8

const (
	TypeInt ColumnType = iota
	TypeBoolean
	TypeVarchar
)

func (t ColumnType) String() string {
	switch t {
	case TypeInt:
		return "INT"
	case TypeBoolean:
		return "BOOLEAN"
	case TypeVarchar:
		return "VARCHAR"
	default:
		return "UNKNOWN"
	}
}

// Column is one column of a table's schema. Width is only meaningful for
// TypeVarchar (the declared n in VARCHAR(n)).
type Column struct {
	Name  string `yaml:"name"`
	Type  ColumnType `yaml:"type"`
	Width int    `yaml:"width,omitempty"`
	Flags ColumnFlag `yaml:"flags"`
}

func (c Column) Has(f ColumnFlag) bool { return c.Flags&f != 0 }

// EncodedWidth returns the number of bytes this column occupies on disk.
func (c Column) EncodedWidth() int {
	switch c.Type {
	case TypeInt:
		return 8
	case TypeBoolean:
		return 1
	case TypeVarchar:
		return c.Width + 2
	default:
		return 0
	}
}

// ValueKind is the value.Kind that legal values for this column must have.
func (c Column) ValueKind() value.Kind {
	switch c.Type {
	case TypeInt:
		return value.KindInt
	case TypeBoolean:
		return value.KindBool
	default:
		return value.KindText
	}
}

// Schema is the ordered, immutable-after-create column list of a table.
type Schema struct {
	Columns []Column `yaml:"columns"`
}

// Width is W, the sum of encoded column widths — the fixed row width.
func (s Schema) Width() int {
	w := 0
	for _, c := range s.Columns {
		w += c.EncodedWidth()
	}
	return w
}

// SlotCount is S, the number of fixed-width slots a 4096-byte page holds
// for this schema: floor(4032/W). It is not capped here; Validate rejects
// any schema for which it exceeds 512, the bitmask width.
func (s Schema) SlotCount() int {
	w := s.Width()
	if w == 0 {
		return 0
	}
	return PageDataBytes / w
}

func (s Schema) ColumnIndex(name string) int {
	for i, c := range s.Columns {
		if c.Name == name {
			return i
		}
	}
	return -1
}

// PKIndex returns the index of the PRIMARY_KEY column, or -1 if the table
// has none.
func (s Schema) PKIndex() int {
	for i, c := range s.Columns {
		if c.Has(FlagPrimaryKey) {
			return i
		}
	}
	return -1
}

func (s Schema) ColumnNames() []string {
	names := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		names[i] = c.Name
	}
	return names
}

// Validate enforces the schema rules of spec §3/§4.3: at most one PK,
// AUTOINCREMENT requires INT+PK, unique column names, and the page-width
// rule (a schema whose row width yields more than 512 slots is rejected).
func (s Schema) Validate() error {
	seen := make(map[string]bool, len(s.Columns))
	pkCount := 0
	for _, c := range s.Columns {
		if seen[c.Name] {
			return fmt.Errorf("%w: duplicate column %q", enginerr.Unsupported, c.Name)
		}
		seen[c.Name] = true

		if c.Has(FlagPrimaryKey) {
			pkCount++
		}
		if c.Has(FlagAutoIncrement) && (!c.Has(FlagPrimaryKey) || c.Type != TypeInt) {
			return fmt.Errorf("%w: AUTOINCREMENT column %q must be INT PRIMARY_KEY", enginerr.Unsupported, c.Name)
		}
		if c.Type == TypeVarchar && c.Width <= 0 {
			return fmt.Errorf("%w: VARCHAR column %q must declare a positive width", enginerr.Unsupported, c.Name)
		}
	}
	if pkCount > 1 {
		return fmt.Errorf("%w: at most one PRIMARY_KEY column is allowed", enginerr.Unsupported)
	}

	w := s.Width()
	slots := 0
	if w > 0 {
		slots = PageDataBytes / w
	}
	// slots <= 1 catches both w > PageDataBytes (zero rows ever fit) and a
	// row wide enough to leave only one slot per page — a table that can't
	// outlive a single row per page is rejected the same as one that can't
	// hold any.
	if slots <= 1 || slots > MaxSlotsPerPage {
		return fmt.Errorf("%w: row width %d yields %d slots per page", enginerr.SchemaTooWide, w, slots)
	}
	return nil
}
