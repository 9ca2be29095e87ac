// Package page implements ScarDB's on-disk page layout: a 64-byte bitmask
// header followed by a fixed-width slot array. This layout is the
// persistence contract (spec §6) and must stay bit-stable.
package page

import (
	"fmt"

	"github.com/scardb/scardb/internal/enginerr"
	"github.com/scardb/scardb/internal/record"
)

const (
	Size       = record.PageSize
	HeaderSize = record.HeaderSize
)

var (
	ErrBadSlot = fmt.Errorf("%w: slot out of range", enginerr.Unsupported)
	ErrNoSpace = fmt.Errorf("%w: no free slot in page", enginerr.Unsupported)
)

// Page is a 4096-byte buffer: bytes [0,64) are the occupancy bitmask, bytes
// [64,4096) are the slot array. The slot count is derived from the row
// width, never stored.
type Page struct {
	Buf   []byte
	Width int // W, the schema's row width; fixed for the lifetime of the page
}

// New wraps an existing 4096-byte buffer (e.g. freshly zeroed, or just read
// from disk) as a Page of the given row width.
func New(buf []byte, width int) (*Page, error) {
	if len(buf) != Size {
		return nil, fmt.Errorf("%w: page buffer must be %d bytes, got %d", enginerr.IoError, Size, len(buf))
	}
	return &Page{Buf: buf, Width: width}, nil
}

// Zeroed allocates a fresh, empty page of the given row width.
func Zeroed(width int) *Page {
	return &Page{Buf: make([]byte, Size), Width: width}
}

// SlotCount is S = floor((Size-HeaderSize) / Width).
func (p *Page) SlotCount() int {
	if p.Width <= 0 {
		return 0
	}
	return (Size - HeaderSize) / p.Width
}

func (p *Page) slotOffset(i int) int { return HeaderSize + i*p.Width }

func (p *Page) checkSlot(i int) error {
	if i < 0 || i >= p.SlotCount() {
		return ErrBadSlot
	}
	return nil
}

// IsSet reports whether slot i's bitmask bit is set.
func (p *Page) IsSet(i int) bool {
	if p.checkSlot(i) != nil {
		return false
	}
	byteIdx, bit := i/8, uint(i%8)
	return p.Buf[byteIdx]&(1<<bit) != 0
}

func (p *Page) Set(i int) error {
	if err := p.checkSlot(i); err != nil {
		return err
	}
	byteIdx, bit := i/8, uint(i%8)
	p.Buf[byteIdx] |= 1 << bit
	return nil
}

func (p *Page) Clear(i int) error {
	if err := p.checkSlot(i); err != nil {
		return err
	}
	byteIdx, bit := i/8, uint(i%8)
	p.Buf[byteIdx] &^= 1 << bit
	return nil
}

// FirstFree returns the smallest free slot index, so deleted slots are
// always preferred over slots beyond the current high-water mark. Returns
// (-1, false) if every slot is occupied.
func (p *Page) FirstFree() (int, bool) {
	n := p.SlotCount()
	for i := 0; i < n; i++ {
		if !p.IsSet(i) {
			return i, true
		}
	}
	return -1, false
}

// ReadSlot returns the raw W-byte row stored at slot i, regardless of
// whether the bitmask bit is set (callers check occupancy themselves).
func (p *Page) ReadSlot(i int) ([]byte, error) {
	if err := p.checkSlot(i); err != nil {
		return nil, err
	}
	off := p.slotOffset(i)
	return p.Buf[off : off+p.Width], nil
}

// WriteSlot overwrites slot i's bytes and sets its bitmask bit.
func (p *Page) WriteSlot(i int, row []byte) error {
	if err := p.checkSlot(i); err != nil {
		return err
	}
	if len(row) != p.Width {
		return fmt.Errorf("%w: row is %d bytes, page width is %d", enginerr.CorruptRow, len(row), p.Width)
	}
	off := p.slotOffset(i)
	copy(p.Buf[off:off+p.Width], row)
	return p.Set(i)
}
