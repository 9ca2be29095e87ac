package page

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPage_FirstFreePrefersLowestIndex(t *testing.T) {
	p := Zeroed(16)
	require.NoError(t, p.Set(0))
	require.NoError(t, p.Set(2))

	i, ok := p.FirstFree()
	require.True(t, ok)
	require.Equal(t, 1, i)
}

func TestPage_WriteReadSlotRoundTrip(t *testing.T) {
	p := Zeroed(8)
	row := []byte("abcdefgh")

	require.NoError(t, p.WriteSlot(3, row))
	require.True(t, p.IsSet(3))

	got, err := p.ReadSlot(3)
	require.NoError(t, err)
	require.Equal(t, row, got)
}

func TestPage_ClearFreesSlotForReuse(t *testing.T) {
	p := Zeroed(8)
	require.NoError(t, p.WriteSlot(0, []byte("aaaaaaaa")))
	require.NoError(t, p.Clear(0))

	require.False(t, p.IsSet(0))
	i, ok := p.FirstFree()
	require.True(t, ok)
	require.Equal(t, 0, i)
}

func TestPage_SlotCountDerivedFromWidth(t *testing.T) {
	p := Zeroed(4032 / 100) // pick a width that doesn't divide evenly
	require.Equal(t, (4096-64)/p.Width, p.SlotCount())
}

func TestPage_OutOfRangeSlotIsBadSlot(t *testing.T) {
	p := Zeroed(8)
	_, err := p.ReadSlot(p.SlotCount())
	require.ErrorIs(t, err, ErrBadSlot)
}
