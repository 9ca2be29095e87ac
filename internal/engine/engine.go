// Package engine ties together the catalog, pager, and index packages
// into the Closed -> Open -> Closed table lifecycle of spec §4.6/§5, and
// provides the engine-wide exclusive guard that serializes every
// statement (spec §5: single-writer, no goroutines inside the engine).
package engine

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/scardb/scardb/internal/catalog"
	"github.com/scardb/scardb/internal/enginerr"
	"github.com/scardb/scardb/internal/pager"
	"github.com/scardb/scardb/internal/record"
)

// DefaultTableCacheCapacity is used by Open when the caller passes a
// capacity <= 0 (e.g. leaving the config's cache.page_capacity unset).
const DefaultTableCacheCapacity = 64

// Engine owns the catalog and every open table handle for one data
// directory. All statement execution goes through Engine.Guard, which
// takes the engine-wide lock for the statement's duration — there is
// never more than one statement in flight.
type Engine struct {
	dataDir       string
	cat           *catalog.Catalog
	cacheCapacity int

	mu     sync.Mutex // the statement guard, per spec §5
	tables map[string]*Table
}

// Open opens the catalog at dataDir and prepares an Engine, sizing every
// table's page cache (internal/pager's bounded write-through cache) to
// cacheCapacity pages. cacheCapacity <= 0 falls back to
// DefaultTableCacheCapacity.
func Open(dataDir string, cacheCapacity int) (*Engine, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: create data dir: %v", enginerr.IoError, err)
	}
	cat, err := catalog.Open(filepath.Join(dataDir, "catalog.yaml"))
	if err != nil {
		return nil, err
	}
	if cacheCapacity <= 0 {
		cacheCapacity = DefaultTableCacheCapacity
	}
	return &Engine{dataDir: dataDir, cat: cat, cacheCapacity: cacheCapacity, tables: make(map[string]*Table)}, nil
}

func (e *Engine) tableFilePath(name string) string {
	return filepath.Join(e.dataDir, name+".db")
}

// Guard runs fn under the engine-wide exclusive lock, then syncs every open
// table file before releasing it: the end of Guard is the statement
// boundary (best-effort durability, spec §4.1). A sync failure is returned
// if fn itself succeeded. Every statement execution path calls this
// exactly once.
func (e *Engine) Guard(fn func() error) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	err := fn()
	for name, t := range e.tables {
		if serr := t.Sync(); serr != nil {
			slog.Warn("engine: statement sync failed", "table", name, "err", serr)
			if err == nil {
				err = serr
			}
		}
	}
	return err
}

// Catalog exposes the schema store to the planner/executor, which need it
// for schema lookups and autoincrement sequence advancement. Callers must
// only touch it from inside Guard.
func (e *Engine) Catalog() *catalog.Catalog { return e.cat }

// CreateTable registers schema in the catalog and creates an empty,
// zero-page table file. Must be called from inside Guard.
func (e *Engine) CreateTable(name string, schema record.Schema) error {
	if err := e.cat.CreateTable(name, schema); err != nil {
		return err
	}
	pg, err := pager.Open(e.tableFilePath(name), schema.Width(), e.cacheCapacity)
	if err != nil {
		return err
	}
	t, err := openTable(name, schema, pg)
	if err != nil {
		pg.Close()
		return err
	}
	e.tables[name] = t
	return nil
}

// DropTable closes the table's handle if open, removes the catalog entry,
// and deletes the table file. Must be called from inside Guard.
func (e *Engine) DropTable(name string) error {
	if t, open := e.tables[name]; open {
		t.Close()
		delete(e.tables, name)
	}
	if err := e.cat.DropTable(name); err != nil {
		return err
	}
	if err := os.Remove(e.tableFilePath(name)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("%w: remove table file: %v", enginerr.IoError, err)
	}
	return nil
}

// Table returns name's open handle, opening it (and rebuilding its index
// by full scan, spec §4.5) on first access. Must be called from inside
// Guard.
func (e *Engine) Table(name string) (*Table, error) {
	if t, ok := e.tables[name]; ok {
		if err := t.ensureUsable(); err != nil {
			delete(e.tables, name)
			return nil, err
		}
		return t, nil
	}

	schema, err := e.cat.GetSchema(name)
	if err != nil {
		return nil, err
	}
	pg, err := pager.Open(e.tableFilePath(name), schema.Width(), e.cacheCapacity)
	if err != nil {
		return nil, err
	}
	t, err := openTable(name, schema, pg)
	if err != nil {
		pg.Close()
		return nil, err
	}
	e.tables[name] = t
	return t, nil
}

func (e *Engine) HasTable(name string) bool { return e.cat.HasTable(name) }

// Close flushes and closes every open table handle. Safe to call once at
// process shutdown.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	var firstErr error
	for name, t := range e.tables {
		if err := t.Sync(); err != nil {
			slog.Warn("engine: close: sync failed", "table", name, "err", err)
			if firstErr == nil {
				firstErr = err
			}
		}
		if err := t.Close(); err != nil {
			slog.Warn("engine: close: table close failed", "table", name, "err", err)
			if firstErr == nil {
				firstErr = err
			}
		}
		delete(e.tables, name)
	}
	return firstErr
}
