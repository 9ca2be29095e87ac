package pager

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/scardb/scardb/internal/enginerr"
)

func TestPager_AllocateWriteReadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "t.db")
	p, err := Open(path, 16, 4)
	require.NoError(t, err)
	defer p.Close()

	id, err := p.AllocatePage()
	require.NoError(t, err)
	require.Equal(t, uint32(0), id)

	pg, err := p.ReadPage(id)
	require.NoError(t, err)
	require.NoError(t, pg.WriteSlot(0, []byte("0123456789abcdef")))
	require.NoError(t, p.WritePage(id, pg))

	reread, err := p.ReadPage(id)
	require.NoError(t, err)
	got, err := reread.ReadSlot(0)
	require.NoError(t, err)
	require.Equal(t, []byte("0123456789abcdef"), got)
}

func TestPager_PageCountIsMultipleOfPageSize(t *testing.T) {
	path := filepath.Join(t.TempDir(), "t.db")
	p, err := Open(path, 16, 0)
	require.NoError(t, err)
	defer p.Close()

	for i := 0; i < 3; i++ {
		_, err := p.AllocatePage()
		require.NoError(t, err)
	}

	count, err := p.PageCount()
	require.NoError(t, err)
	require.Equal(t, uint32(3), count)
}

func TestPager_ReadBeyondCountIsNotFound(t *testing.T) {
	path := filepath.Join(t.TempDir(), "t.db")
	p, err := Open(path, 16, 0)
	require.NoError(t, err)
	defer p.Close()

	_, err = p.ReadPage(0)
	require.ErrorIs(t, err, enginerr.NotFound)
}

func TestPager_CacheIsWriteThrough(t *testing.T) {
	path := filepath.Join(t.TempDir(), "t.db")
	p, err := Open(path, 16, 4)
	require.NoError(t, err)
	defer p.Close()

	id, err := p.AllocatePage()
	require.NoError(t, err)

	pg, err := p.ReadPage(id)
	require.NoError(t, err)
	require.NoError(t, pg.WriteSlot(0, []byte("ffffffffffffffff")))
	require.NoError(t, p.WritePage(id, pg))

	cached, ok := p.cache.get(id)
	require.True(t, ok)
	data, err := cached.ReadSlot(0)
	require.NoError(t, err)
	require.Equal(t, []byte("ffffffffffffffff"), data)
}
