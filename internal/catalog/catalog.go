// Package catalog is the durable store of table schemas and autoincrement
// sequences: a single YAML document, atomically rewritten on every
// mutation via write-to-temp-then-rename (spec §4.4/§9).
package catalog

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/scardb/scardb/internal/enginerr"
	"github.com/scardb/scardb/internal/record"
)

type tableEntry struct {
	Schema    record.Schema    `yaml:"schema"`
	Sequences map[string]int64 `yaml:"sequences"`
}

type document struct {
	Tables map[string]*tableEntry `yaml:"tables"`
}

// Catalog is not safe for concurrent use without the engine's statement
// guard (spec §5) — it has its own mutex only to protect against the
// catalog being read while a previous write is still being persisted.
type Catalog struct {
	path string
	mu   sync.Mutex
	doc  document
}

// Open loads the catalog document at path, creating an empty one if it
// does not exist yet.
func Open(path string) (*Catalog, error) {
	c := &Catalog{path: path, doc: document{Tables: make(map[string]*tableEntry)}}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return c, nil
		}
		return nil, fmt.Errorf("%w: read catalog: %v", enginerr.IoError, err)
	}
	if len(data) == 0 {
		return c, nil
	}
	if err := yaml.Unmarshal(data, &c.doc); err != nil {
		return nil, fmt.Errorf("%w: parse catalog: %v", enginerr.CorruptTable, err)
	}
	if c.doc.Tables == nil {
		c.doc.Tables = make(map[string]*tableEntry)
	}
	return c, nil
}

// persist atomically rewrites the catalog document: write to a temp file
// in the same directory, then rename over the old one. A crash between
// the write and the rename leaves the previous document intact.
func (c *Catalog) persist() error {
	data, err := yaml.Marshal(c.doc)
	if err != nil {
		return fmt.Errorf("%w: marshal catalog: %v", enginerr.IoError, err)
	}

	dir := filepath.Dir(c.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("%w: mkdir catalog dir: %v", enginerr.IoError, err)
	}

	tmp, err := os.CreateTemp(dir, ".catalog-*.tmp")
	if err != nil {
		return fmt.Errorf("%w: create temp catalog: %v", enginerr.IoError, err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath) // no-op once the rename below succeeds

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: write temp catalog: %v", enginerr.IoError, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: sync temp catalog: %v", enginerr.IoError, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: close temp catalog: %v", enginerr.IoError, err)
	}
	if err := os.Rename(tmpPath, c.path); err != nil {
		return fmt.Errorf("%w: rename catalog: %v", enginerr.IoError, err)
	}
	return nil
}

// CreateTable validates and registers schema under name. AUTOINCREMENT
// columns start their counter at 1.
func (c *Catalog) CreateTable(name string, schema record.Schema) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.doc.Tables[name]; exists {
		return fmt.Errorf("%w: table %q", enginerr.AlreadyExists, name)
	}
	if err := schema.Validate(); err != nil {
		return err
	}

	seqs := make(map[string]int64)
	for _, col := range schema.Columns {
		if col.Has(record.FlagAutoIncrement) {
			seqs[col.Name] = 1
		}
	}

	c.doc.Tables[name] = &tableEntry{Schema: schema, Sequences: seqs}
	return c.persist()
}

// DropTable removes name's schema and sequences. It does not remove the
// table's .db file — that is the engine's job, since the catalog doesn't
// know the table-file naming convention.
func (c *Catalog) DropTable(name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.doc.Tables[name]; !exists {
		return fmt.Errorf("%w: table %q", enginerr.NotFound, name)
	}
	delete(c.doc.Tables, name)
	return c.persist()
}

func (c *Catalog) GetSchema(name string) (record.Schema, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	t, ok := c.doc.Tables[name]
	if !ok {
		return record.Schema{}, fmt.Errorf("%w: table %q", enginerr.NotFound, name)
	}
	return t.Schema, nil
}

func (c *Catalog) HasTable(name string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.doc.Tables[name]
	return ok
}

func (c *Catalog) TableNames() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	names := make([]string, 0, len(c.doc.Tables))
	for n := range c.doc.Tables {
		names = append(names, n)
	}
	return names
}

// NextAutoincrement returns column's current counter value, then
// increments and persists it. The persisted increment happens before the
// caller uses the value to write a page (spec §4.6 step 7, §9): callers
// must call this before encoding the row, never after.
func (c *Catalog) NextAutoincrement(table, column string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	t, ok := c.doc.Tables[table]
	if !ok {
		return 0, fmt.Errorf("%w: table %q", enginerr.NotFound, table)
	}
	v, ok := t.Sequences[column]
	if !ok {
		return 0, fmt.Errorf("%w: column %q has no autoincrement sequence", enginerr.UnknownColumn, column)
	}

	t.Sequences[column] = v + 1
	if err := c.persist(); err != nil {
		// Roll back the in-memory counter: the persisted document is the
		// source of truth, and we must not hand out a value we never wrote.
		t.Sequences[column] = v
		return 0, err
	}
	return v, nil
}

// BumpAutoincrement raises column's counter so it is strictly greater than
// observed (spec invariant 4): used when an explicit PK value >= the
// current counter is inserted without going through NextAutoincrement.
func (c *Catalog) BumpAutoincrement(table, column string, observed int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	t, ok := c.doc.Tables[table]
	if !ok {
		return fmt.Errorf("%w: table %q", enginerr.NotFound, table)
	}
	if observed+1 > t.Sequences[column] {
		t.Sequences[column] = observed + 1
		return c.persist()
	}
	return nil
}
