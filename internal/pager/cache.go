package pager

import "github.com/scardb/scardb/internal/page"

// cache is a bounded, write-through page cache. Spec §4.1 leaves the
// eviction policy unspecified beyond "write-through on write_page", so a
// simple FIFO over a fixed capacity is enough: there is exactly one writer
// at a time (spec §5), so there is no consistency hazard to design around.
type cache struct {
	capacity int
	entries  map[uint32]*page.Page
	order    []uint32
}

func newCache(capacity int) *cache {
	return &cache{
		capacity: capacity,
		entries:  make(map[uint32]*page.Page, capacity),
	}
}

func (c *cache) get(id uint32) (*page.Page, bool) {
	pg, ok := c.entries[id]
	return pg, ok
}

func (c *cache) put(id uint32, pg *page.Page) {
	if _, exists := c.entries[id]; !exists {
		if len(c.order) >= c.capacity {
			oldest := c.order[0]
			c.order = c.order[1:]
			delete(c.entries, oldest)
		}
		c.order = append(c.order, id)
	}
	c.entries[id] = pg
}
