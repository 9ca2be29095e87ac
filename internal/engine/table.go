package engine

import (
	"fmt"

	"github.com/scardb/scardb/internal/enginerr"
	"github.com/scardb/scardb/internal/index"
	"github.com/scardb/scardb/internal/pager"
	"github.com/scardb/scardb/internal/record"
	"github.com/scardb/scardb/internal/value"
)

// Table is an open handle on one table's storage: its pager, schema, and
// (if the schema declares a PK) its in-memory index. It follows the
// Closed -> Open -> Closed state machine of spec §4.6: statements may
// only run while the handle is open, and a CorruptTable/IoError poisons it
// permanently (the caller must re-open).
type Table struct {
	Name      string
	Schema    record.Schema
	pager     *pager.Pager
	index     *index.Index // nil if Schema has no PRIMARY_KEY column
	pkPos     int          // -1 if Schema has no PRIMARY_KEY column
	poisoned  bool
}

func openTable(name string, schema record.Schema, pg *pager.Pager) (*Table, error) {
	t := &Table{Name: name, Schema: schema, pager: pg, pkPos: schema.PKIndex()}
	if t.pkPos >= 0 {
		t.index = index.New()
		if err := t.rebuildIndex(); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// rebuildIndex scans every page of the table, inserting one index entry
// per set bitmask bit (spec §4.5). A duplicate key found during rebuild
// means the table file is corrupt, not that the newer row wins.
func (t *Table) rebuildIndex() error {
	return t.Scan(func(loc index.Locator, row record.Row) error {
		pk := row[t.pkPos]
		if err := t.index.Insert(pk, loc); err != nil {
			return fmt.Errorf("%w: duplicate primary key %s while rebuilding index: %v", enginerr.CorruptTable, pk, err)
		}
		return nil
	})
}

func (t *Table) ensureUsable() error {
	if t.poisoned {
		return fmt.Errorf("%w: table %q handle is poisoned, re-open it", enginerr.CorruptTable, t.Name)
	}
	return nil
}

func (t *Table) poison(err error) error {
	t.poisoned = true
	return err
}

// Scan visits every live row in ascending (page id, slot id) order.
func (t *Table) Scan(fn func(loc index.Locator, row record.Row) error) error {
	if err := t.ensureUsable(); err != nil {
		return err
	}
	count, err := t.pager.PageCount()
	if err != nil {
		return t.poison(err)
	}

	for pid := uint32(0); pid < count; pid++ {
		pg, err := t.pager.ReadPage(pid)
		if err != nil {
			return t.poison(err)
		}
		for slot := 0; slot < pg.SlotCount(); slot++ {
			if !pg.IsSet(slot) {
				continue
			}
			raw, err := pg.ReadSlot(slot)
			if err != nil {
				return t.poison(err)
			}
			row, err := record.Decode(t.Schema, raw)
			if err != nil {
				return t.poison(err)
			}
			if err := fn(index.Locator{PageID: pid, SlotID: slot}, row); err != nil {
				return err
			}
		}
	}
	return nil
}

// RowAt decodes the row at loc, without checking the bitmask bit (callers
// that got loc from the index trust it points at a live row — spec
// invariant 3).
func (t *Table) RowAt(loc index.Locator) (record.Row, error) {
	if err := t.ensureUsable(); err != nil {
		return nil, err
	}
	pg, err := t.pager.ReadPage(loc.PageID)
	if err != nil {
		return nil, t.poison(err)
	}
	raw, err := pg.ReadSlot(loc.SlotID)
	if err != nil {
		return nil, t.poison(err)
	}
	return record.Decode(t.Schema, raw)
}

// PK extracts row's primary-key value. Callers must only call this on a
// table whose schema declares a PK (HasPK() == true).
func (t *Table) PK(row record.Row) value.Value { return row[t.pkPos] }

func (t *Table) HasPK() bool { return t.pkPos >= 0 }

func (t *Table) Index() *index.Index { return t.index }

// InsertRow places row in the first free slot of the lowest-id page that
// has one (allocating a new page only if none does, spec §4.3/§4.6 step
// 5), maintains the index in lockstep (spec §4.6 step 6), and fails
// DuplicateKey without writing anything if row's PK already exists.
func (t *Table) InsertRow(row record.Row) (index.Locator, error) {
	if err := t.ensureUsable(); err != nil {
		return index.Locator{}, err
	}

	var pk value.Value
	if t.HasPK() {
		pk = t.PK(row)
		if _, exists := t.index.Lookup(pk); exists {
			return index.Locator{}, fmt.Errorf("%w: %s", enginerr.DuplicateKey, pk)
		}
	}

	encoded, err := record.Encode(t.Schema, row)
	if err != nil {
		return index.Locator{}, err
	}

	loc, err := t.placeRow(encoded)
	if err != nil {
		return index.Locator{}, err
	}

	if t.HasPK() {
		if err := t.index.Insert(pk, loc); err != nil {
			return index.Locator{}, t.poison(fmt.Errorf("%w: index out of sync with storage: %v", enginerr.CorruptTable, err))
		}
	}
	return loc, nil
}

// placeRow scans pages in ascending id for a free slot, allocating a new
// page only when none has one.
func (t *Table) placeRow(encoded []byte) (index.Locator, error) {
	count, err := t.pager.PageCount()
	if err != nil {
		return index.Locator{}, t.poison(err)
	}

	for pid := uint32(0); pid < count; pid++ {
		pg, err := t.pager.ReadPage(pid)
		if err != nil {
			return index.Locator{}, t.poison(err)
		}
		if slot, ok := pg.FirstFree(); ok {
			if err := pg.WriteSlot(slot, encoded); err != nil {
				return index.Locator{}, t.poison(err)
			}
			if err := t.pager.WritePage(pid, pg); err != nil {
				return index.Locator{}, t.poison(err)
			}
			return index.Locator{PageID: pid, SlotID: slot}, nil
		}
	}

	pid, err := t.pager.AllocatePage()
	if err != nil {
		return index.Locator{}, t.poison(err)
	}
	pg, err := t.pager.ReadPage(pid)
	if err != nil {
		return index.Locator{}, t.poison(err)
	}
	const slot0 = 0
	if err := pg.WriteSlot(slot0, encoded); err != nil {
		return index.Locator{}, t.poison(err)
	}
	if err := t.pager.WritePage(pid, pg); err != nil {
		return index.Locator{}, t.poison(err)
	}
	return index.Locator{PageID: pid, SlotID: slot0}, nil
}

// WriteInPlace overwrites loc's row bytes without moving it and without
// touching the index — callers that change the PK must manage the index
// themselves (spec §4.6 UPDATE).
func (t *Table) WriteInPlace(loc index.Locator, row record.Row) error {
	if err := t.ensureUsable(); err != nil {
		return err
	}
	encoded, err := record.Encode(t.Schema, row)
	if err != nil {
		return err
	}
	pg, err := t.pager.ReadPage(loc.PageID)
	if err != nil {
		return t.poison(err)
	}
	if err := pg.WriteSlot(loc.SlotID, encoded); err != nil {
		return t.poison(err)
	}
	return t.poisonIfErr(t.pager.WritePage(loc.PageID, pg))
}

// DeleteAt clears loc's bitmask bit and removes its index entry, if any.
// Slot contents are left as-is (spec §4.6 DELETE: "need not be zeroed").
func (t *Table) DeleteAt(loc index.Locator, pk value.Value, hadPK bool) error {
	if err := t.ensureUsable(); err != nil {
		return err
	}
	pg, err := t.pager.ReadPage(loc.PageID)
	if err != nil {
		return t.poison(err)
	}
	if err := pg.Clear(loc.SlotID); err != nil {
		return t.poison(err)
	}
	if err := t.pager.WritePage(loc.PageID, pg); err != nil {
		return t.poison(err)
	}
	if hadPK {
		t.index.Remove(pk)
	}
	return nil
}

func (t *Table) poisonIfErr(err error) error {
	if err != nil {
		return t.poison(err)
	}
	return nil
}

// Sync flushes the table file to stable storage (statement-boundary
// best-effort durability, spec §4.1).
func (t *Table) Sync() error {
	return t.pager.Sync()
}

func (t *Table) Close() error {
	return t.pager.Close()
}
