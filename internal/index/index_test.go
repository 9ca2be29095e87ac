package index

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/scardb/scardb/internal/enginerr"
	"github.com/scardb/scardb/internal/value"
)

func TestIndex_InsertLookupRemove(t *testing.T) {
	ix := New()

	require.NoError(t, ix.Insert(value.Int(3), Locator{PageID: 0, SlotID: 1}))
	loc, ok := ix.Lookup(value.Int(3))
	require.True(t, ok)
	require.Equal(t, Locator{PageID: 0, SlotID: 1}, loc)

	ix.Remove(value.Int(3))
	_, ok = ix.Lookup(value.Int(3))
	require.False(t, ok)
}

func TestIndex_DuplicateInsertRejected(t *testing.T) {
	ix := New()
	require.NoError(t, ix.Insert(value.Int(1), Locator{PageID: 0, SlotID: 0}))
	err := ix.Insert(value.Int(1), Locator{PageID: 0, SlotID: 5})
	require.ErrorIs(t, err, enginerr.DuplicateKey)
}

func TestIndex_UpdateLocatorMovesEntry(t *testing.T) {
	ix := New()
	require.NoError(t, ix.Insert(value.Int(1), Locator{PageID: 0, SlotID: 0}))
	require.NoError(t, ix.UpdateLocator(value.Int(1), Locator{PageID: 2, SlotID: 4}))

	loc, ok := ix.Lookup(value.Int(1))
	require.True(t, ok)
	require.Equal(t, Locator{PageID: 2, SlotID: 4}, loc)
}

func TestIndex_VarcharKeys(t *testing.T) {
	ix := New()
	require.NoError(t, ix.Insert(value.Text("alice"), Locator{PageID: 1, SlotID: 2}))
	loc, ok := ix.Lookup(value.Text("alice"))
	require.True(t, ok)
	require.Equal(t, Locator{PageID: 1, SlotID: 2}, loc)
}

func TestIndex_AscendVisitsInKeyOrder(t *testing.T) {
	ix := New()
	require.NoError(t, ix.Insert(value.Int(3), Locator{}))
	require.NoError(t, ix.Insert(value.Int(1), Locator{}))
	require.NoError(t, ix.Insert(value.Int(2), Locator{}))

	var seen []int64
	ix.Ascend(func(k value.Value, _ Locator) bool {
		seen = append(seen, k.I)
		return true
	})
	require.Equal(t, []int64{1, 2, 3}, seen)
}
