// Package pager provides file-backed access to the pages of one table
// file: reading, in-place writing, and page allocation. It has no opinion
// about what a page's bytes mean — that is record/page's job.
package pager

import (
	"fmt"
	"io"
	"os"

	"github.com/scardb/scardb/internal/enginerr"
	"github.com/scardb/scardb/internal/page"
)

const fileMode0644 = 0o644

// Pager owns one table's .db file. It is not safe for concurrent use by
// multiple goroutines without the engine's statement-level guard (spec §5).
type Pager struct {
	f     *os.File
	width int
	cache *cache
}

// Open opens (creating if absent) the table file at path for pages of the
// given row width. cacheCapacity <= 0 disables the bounded page cache.
func Open(path string, width int, cacheCapacity int) (*Pager, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, fileMode0644)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", enginerr.IoError, path, err)
	}
	p := &Pager{f: f, width: width}
	if cacheCapacity > 0 {
		p.cache = newCache(cacheCapacity)
	}
	return p, nil
}

// PageCount returns the number of whole 4096-byte pages currently in the
// file (spec invariant: file length is always a multiple of 4096).
func (p *Pager) PageCount() (uint32, error) {
	info, err := p.f.Stat()
	if err != nil {
		return 0, fmt.Errorf("%w: stat: %v", enginerr.IoError, err)
	}
	size := info.Size()
	if size%page.Size != 0 {
		return 0, fmt.Errorf("%w: file length %d is not a multiple of %d", enginerr.CorruptTable, size, page.Size)
	}
	return uint32(size / page.Size), nil
}

// ReadPage returns the requested page. NotFound if pageID is beyond the
// current page count.
func (p *Pager) ReadPage(pageID uint32) (*page.Page, error) {
	if cached, ok := p.cacheGet(pageID); ok {
		return cached, nil
	}

	count, err := p.PageCount()
	if err != nil {
		return nil, err
	}
	if pageID >= count {
		return nil, fmt.Errorf("%w: page %d (have %d pages)", enginerr.NotFound, pageID, count)
	}

	buf := make([]byte, page.Size)
	if _, err := p.f.ReadAt(buf, int64(pageID)*page.Size); err != nil && err != io.EOF {
		return nil, fmt.Errorf("%w: read page %d: %v", enginerr.IoError, pageID, err)
	}

	pg, err := page.New(buf, p.width)
	if err != nil {
		return nil, err
	}
	p.cachePut(pageID, pg)
	return pg, nil
}

// WritePage writes pg back to pageID's location, write-through to the
// cache. Not fsynced per call — the engine syncs at statement boundaries.
func (p *Pager) WritePage(pageID uint32, pg *page.Page) error {
	if _, err := p.f.WriteAt(pg.Buf, int64(pageID)*page.Size); err != nil {
		return fmt.Errorf("%w: write page %d: %v", enginerr.IoError, pageID, err)
	}
	p.cachePut(pageID, pg)
	return nil
}

// AllocatePage appends a zeroed page and returns its id, equal to the old
// page count.
func (p *Pager) AllocatePage() (uint32, error) {
	count, err := p.PageCount()
	if err != nil {
		return 0, err
	}
	pg := page.Zeroed(p.width)
	if err := p.WritePage(count, pg); err != nil {
		return 0, err
	}
	return count, nil
}

// Sync flushes the file to stable storage. Called by the engine at
// statement boundaries (best-effort durability, spec §4.1).
func (p *Pager) Sync() error {
	if err := p.f.Sync(); err != nil {
		return fmt.Errorf("%w: sync: %v", enginerr.IoError, err)
	}
	return nil
}

func (p *Pager) Close() error {
	if p.f == nil {
		return nil
	}
	err := p.f.Close()
	p.f = nil
	if err != nil {
		return fmt.Errorf("%w: close: %v", enginerr.IoError, err)
	}
	return nil
}

func (p *Pager) cacheGet(pageID uint32) (*page.Page, bool) {
	if p.cache == nil {
		return nil, false
	}
	return p.cache.get(pageID)
}

func (p *Pager) cachePut(pageID uint32, pg *page.Page) {
	if p.cache == nil {
		return
	}
	p.cache.put(pageID, pg)
}
