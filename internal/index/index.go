// Package index implements the in-memory primary-key index: an ordered
// map from PK value to physical locator, backed by google/btree's generic
// BTreeG. The spec requires no on-disk representation for this structure
// at all — it is rebuilt by full scan every time a table is opened — so an
// in-memory library tree is the direct implementation of spec §4.5, not an
// adaptation of anything on-disk.
package index

import (
	"fmt"

	"github.com/google/btree"

	"github.com/scardb/scardb/internal/enginerr"
	"github.com/scardb/scardb/internal/value"
)

const degree = 32

// Locator identifies a live row's physical position.
type Locator struct {
	PageID uint32
	SlotID int
}

type entry struct {
	key value.Value
	loc Locator
}

// Index is an ordered PK value -> Locator map. It only ever holds keys of
// one value.Kind at a time (a table has exactly one PK type), so Less
// never has to reason about cross-kind ordering.
type Index struct {
	tree *btree.BTreeG[entry]
}

func less(a, b entry) bool {
	c, err := value.Compare(a.key, b.key)
	if err != nil {
		// Keys of a single index are always the same kind; a mismatch here
		// means a caller mixed PK kinds, which is a programming error, not
		// a data error worth plumbing through Less's bool-only signature.
		panic(fmt.Sprintf("index: incomparable keys in same index: %v", err))
	}
	return c < 0
}

func New() *Index {
	return &Index{tree: btree.NewG(degree, less)}
}

// Insert adds a new key -> locator entry. Fails DuplicateKey if the key is
// already present.
func (ix *Index) Insert(k value.Value, loc Locator) error {
	if _, exists := ix.tree.Get(entry{key: k}); exists {
		return fmt.Errorf("%w: %s", enginerr.DuplicateKey, k)
	}
	ix.tree.ReplaceOrInsert(entry{key: k, loc: loc})
	return nil
}

// Remove deletes k's entry, if present.
func (ix *Index) Remove(k value.Value) {
	ix.tree.Delete(entry{key: k})
}

// UpdateLocator moves an existing key to a new locator, e.g. after a
// non-PK UPDATE that leaves the row in the same slot is a no-op, but an
// UPDATE that redirected storage would call this.
func (ix *Index) UpdateLocator(k value.Value, loc Locator) error {
	if _, exists := ix.tree.Get(entry{key: k}); !exists {
		return fmt.Errorf("%w: %s", enginerr.NotFound, k)
	}
	ix.tree.ReplaceOrInsert(entry{key: k, loc: loc})
	return nil
}

// Lookup returns k's locator, if present.
func (ix *Index) Lookup(k value.Value) (Locator, bool) {
	e, ok := ix.tree.Get(entry{key: k})
	return e.loc, ok
}

func (ix *Index) Len() int { return ix.tree.Len() }

// Ascend visits entries in key order, in case an eventual range-scan
// feature needs it. Not used by point lookups.
func (ix *Index) Ascend(fn func(k value.Value, loc Locator) bool) {
	ix.tree.Ascend(func(e entry) bool {
		return fn(e.key, e.loc)
	})
}
