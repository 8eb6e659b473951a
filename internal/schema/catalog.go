// Package schema reads the Rime schema catalog from the shared and user data
// directories.
//
// The catalog is the host-side view of what the engine would deploy:
// default.yaml lists the selected schemas, default.custom.yaml may patch that
// list, and every *.schema.yaml file declares one schema. Files in the user
// directory shadow files of the same name in the shared directory.
package schema

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"rimebridge/internal/native"
	"rimebridge/internal/watcher"
)

// ErrNoSchemas is returned by Load when neither directory declares a schema.
var ErrNoSchemas = errors.New("schema: no schemas found")

const (
	defaultFile = "default.yaml"
	customFile  = "default.custom.yaml"
	schemaGlob  = "*.schema.yaml"

	defaultPageSize = 5
)

// Schema describes one *.schema.yaml file.
type Schema struct {
	ID          string
	Name        string
	Version     string
	Authors     []string
	Description string
	Path        string
}

type schemaFile struct {
	Schema struct {
		SchemaID    string   `yaml:"schema_id"`
		Name        string   `yaml:"name"`
		Version     string   `yaml:"version"`
		Author      []string `yaml:"author"`
		Description string   `yaml:"description"`
	} `yaml:"schema"`
}

type listEntry struct {
	Schema string `yaml:"schema"`
}

type defaultConfig struct {
	SchemaList []listEntry `yaml:"schema_list"`
	Menu       struct {
		PageSize int `yaml:"page_size"`
	} `yaml:"menu"`
}

// customConfig holds a patch. Keys are Rime config paths such as
// "schema_list" or "menu/page_size".
type customConfig struct {
	Patch map[string]yaml.Node `yaml:"patch"`
}

// Catalog is a snapshot of the schemas found on disk.
type Catalog struct {
	sharedDir string
	userDir   string
	logger    *slog.Logger

	mu       sync.RWMutex
	schemas  map[string]Schema
	selected []string
	pageSize int
}

// Option configures a Catalog.
type Option func(*Catalog)

// WithLogger sets the logger used for skipped files and reloads.
func WithLogger(l *slog.Logger) Option {
	return func(c *Catalog) { c.logger = l }
}

// New returns an empty catalog over the two data directories. Call Load to
// read it.
func New(sharedDir, userDir string, opts ...Option) *Catalog {
	c := &Catalog{
		sharedDir: sharedDir,
		userDir:   userDir,
		logger:    slog.Default(),
		schemas:   map[string]Schema{},
		pageSize:  defaultPageSize,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Open creates and loads a catalog.
func Open(sharedDir, userDir string, opts ...Option) (*Catalog, error) {
	c := New(sharedDir, userDir, opts...)
	if err := c.Load(); err != nil {
		return nil, err
	}
	return c, nil
}

// Load rereads both directories. On error the previous state is kept.
func (c *Catalog) Load() error {
	schemas := map[string]Schema{}
	for _, dir := range c.dirs() {
		files, err := filepath.Glob(filepath.Join(dir, schemaGlob))
		if err != nil {
			return err
		}
		for _, path := range files {
			s, err := readSchema(path)
			if err != nil {
				c.logger.Warn("skipping schema file", "path", path, "error", err)
				continue
			}
			schemas[s.ID] = s
		}
	}
	if len(schemas) == 0 {
		return ErrNoSchemas
	}

	var def defaultConfig
	if err := c.readYAML(defaultFile, &def); err != nil {
		return err
	}
	selected := make([]string, 0, len(def.SchemaList))
	for _, e := range def.SchemaList {
		selected = append(selected, e.Schema)
	}
	pageSize := def.Menu.PageSize

	var custom customConfig
	if err := c.readYAML(customFile, &custom); err != nil {
		return err
	}
	if node, ok := custom.Patch["schema_list"]; ok {
		var list []listEntry
		if err := node.Decode(&list); err != nil {
			return fmt.Errorf("decode %s schema_list: %w", customFile, err)
		}
		selected = selected[:0]
		for _, e := range list {
			selected = append(selected, e.Schema)
		}
	}
	if node, ok := custom.Patch["menu/page_size"]; ok {
		if err := node.Decode(&pageSize); err != nil {
			return fmt.Errorf("decode %s menu/page_size: %w", customFile, err)
		}
	}
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}

	c.mu.Lock()
	c.schemas = schemas
	c.selected = selected
	c.pageSize = pageSize
	c.mu.Unlock()
	return nil
}

// dirs returns the directories in increasing precedence.
func (c *Catalog) dirs() []string {
	var dirs []string
	if c.sharedDir != "" {
		dirs = append(dirs, c.sharedDir)
	}
	if c.userDir != "" && c.userDir != c.sharedDir {
		dirs = append(dirs, c.userDir)
	}
	return dirs
}

// readYAML decodes the highest-precedence copy of name. A missing file
// leaves v untouched.
func (c *Catalog) readYAML(name string, v any) error {
	dirs := c.dirs()
	for i := len(dirs) - 1; i >= 0; i-- {
		path := filepath.Join(dirs[i], name)
		data, err := os.ReadFile(path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, v); err != nil {
			return fmt.Errorf("decode %s: %w", path, err)
		}
		return nil
	}
	return nil
}

func readSchema(path string) (Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Schema{}, err
	}
	var f schemaFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return Schema{}, err
	}
	id := f.Schema.SchemaID
	if id == "" {
		id = strings.TrimSuffix(filepath.Base(path), ".schema.yaml")
	}
	return Schema{
		ID:          id,
		Name:        f.Schema.Name,
		Version:     f.Schema.Version,
		Authors:     f.Schema.Author,
		Description: f.Schema.Description,
		Path:        path,
	}, nil
}

// Lookup returns the schema with the given ID.
func (c *Catalog) Lookup(id string) (Schema, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s, ok := c.schemas[id]
	return s, ok
}

// PageSize returns menu/page_size, defaulting to 5.
func (c *Catalog) PageSize() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.pageSize
}

// Selected returns the schemas named by schema_list that exist on disk, in
// list order. With no schema_list every available schema is selected.
func (c *Catalog) Selected() *native.SchemaList {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if len(c.selected) == 0 {
		return c.available()
	}
	l := &native.SchemaList{}
	for _, id := range c.selected {
		if s, ok := c.schemas[id]; ok {
			l.List = append(l.List, item(s))
		}
	}
	l.Size = len(l.List)
	return l
}

// Available returns every schema found, sorted by ID.
func (c *Catalog) Available() *native.SchemaList {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.available()
}

func (c *Catalog) available() *native.SchemaList {
	ids := make([]string, 0, len(c.schemas))
	for id := range c.schemas {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	l := &native.SchemaList{Size: len(ids), List: make([]native.SchemaListItem, len(ids))}
	for i, id := range ids {
		l.List[i] = item(c.schemas[id])
	}
	return l
}

// item mirrors the engine, which leaves the name null when a schema has none.
func item(s Schema) native.SchemaListItem {
	it := native.SchemaListItem{SchemaID: native.String(s.ID)}
	if s.Name != "" {
		it.Name = native.String(s.Name)
	}
	return it
}

// Watch reloads the catalog whenever a YAML file in either directory settles
// after a change, then calls onChange. It returns once watching has started
// and stops when ctx is done.
func (c *Catalog) Watch(ctx context.Context, onChange func(*Catalog)) error {
	w, err := watcher.New(c.dirs(), watcher.DefaultOptions())
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	if err := w.Start(); err != nil {
		w.Stop()
		return fmt.Errorf("start watcher: %w", err)
	}

	go func() {
		defer w.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case ev := <-w.Events():
				if err := c.Load(); err != nil {
					c.logger.Warn("schema catalog reload failed", "path", ev.Path, "error", err)
					continue
				}
				c.logger.Info("schema catalog reloaded", "path", ev.Path, "removed", ev.Removed)
				if onChange != nil {
					onChange(c)
				}
			case err := <-w.Errors():
				c.logger.Warn("schema watcher error", "error", err)
			}
		}
	}()
	return nil
}
