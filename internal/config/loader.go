package config

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"
)

// ChangeFunc is called after a successful reload with the previous and the
// new configuration and the names of the sections that differ.
type ChangeFunc func(prev, next *Config, sections []string)

// Loader holds the current configuration and reloads it when the file changes.
type Loader struct {
	path     string
	debounce time.Duration

	mu        sync.RWMutex
	current   *Config
	listeners []ChangeFunc

	errs    chan error
	stop    chan struct{}
	stopped sync.Once
	fsw     *fsnotify.Watcher
}

// NewLoader returns a loader for path. Call Load before Watch.
func NewLoader(path string) *Loader {
	return &Loader{
		path:     path,
		debounce: 100 * time.Millisecond,
		errs:     make(chan error, 1),
		stop:     make(chan struct{}),
	}
}

// Load reads the file and makes it the current configuration.
func (l *Loader) Load() (*Config, error) {
	cfg, err := Load(l.path)
	if err != nil {
		return nil, err
	}
	l.mu.Lock()
	l.current = cfg
	l.mu.Unlock()
	return cfg, nil
}

// Config returns the current configuration.
func (l *Loader) Config() *Config {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.current
}

// OnChange registers fn for successful reloads that changed something.
func (l *Loader) OnChange(fn ChangeFunc) {
	l.mu.Lock()
	l.listeners = append(l.listeners, fn)
	l.mu.Unlock()
}

// Errors delivers reload and watch errors. Errors are dropped while one is
// pending.
func (l *Loader) Errors() <-chan error {
	return l.errs
}

// Watch reloads the file after it settles until ctx is done or Close is
// called. The parent directory is watched since editors replace files.
func (l *Loader) Watch(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	if err := fsw.Add(filepath.Dir(l.path)); err != nil {
		fsw.Close()
		return fmt.Errorf("watch %s: %w", filepath.Dir(l.path), err)
	}
	l.fsw = fsw
	go l.run(ctx, fsw)
	return nil
}

func (l *Loader) run(ctx context.Context, fsw *fsnotify.Watcher) {
	name := filepath.Base(l.path)
	var pending <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return
		case <-l.stop:
			return
		case ev, ok := <-fsw.Events:
			if !ok {
				return
			}
			if filepath.Base(ev.Name) == name && ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				pending = time.After(l.debounce)
			}
		case <-pending:
			pending = nil
			l.reload()
		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			l.report(err)
		}
	}
}

func (l *Loader) report(err error) {
	select {
	case l.errs <- err:
	default:
	}
}

// reload swaps in the file's configuration. An invalid file is reported and
// the current configuration stays.
func (l *Loader) reload() {
	next, err := Load(l.path)
	if err != nil {
		l.report(fmt.Errorf("reload config: %w", err))
		return
	}

	l.mu.Lock()
	prev := l.current
	l.current = next
	listeners := append([]ChangeFunc(nil), l.listeners...)
	l.mu.Unlock()

	sections := Diff(prev, next)
	if len(sections) == 0 {
		return
	}
	for _, fn := range listeners {
		fn(prev, next, sections)
	}
}

// Close stops watching.
func (l *Loader) Close() error {
	var err error
	l.stopped.Do(func() {
		close(l.stop)
		if l.fsw != nil {
			err = l.fsw.Close()
		}
	})
	return err
}

// Diff returns the top-level sections (by their file key) that differ
// between a and b. A nil a differs in every section.
func Diff(a, b *Config) []string {
	if b == nil {
		return nil
	}
	if a == nil {
		a = &Config{}
	}
	va, vb := reflect.ValueOf(a).Elem(), reflect.ValueOf(b).Elem()
	t := va.Type()
	var out []string
	for i := 0; i < t.NumField(); i++ {
		if reflect.DeepEqual(va.Field(i).Interface(), vb.Field(i).Interface()) {
			continue
		}
		key, _, _ := strings.Cut(t.Field(i).Tag.Get("toml"), ",")
		out = append(out, key)
	}
	return out
}

// NeedsRestart reports whether any of sections only takes effect when the
// engine process starts. History settings apply live.
func NeedsRestart(sections []string) bool {
	for _, s := range sections {
		if s != "history" {
			return true
		}
	}
	return false
}

type decodeFunc func(data []byte, cfg *Config) error

var decoders = map[string]decodeFunc{
	".toml": func(data []byte, cfg *Config) error {
		_, err := toml.Decode(string(data), cfg)
		return err
	},
	".json": func(data []byte, cfg *Config) error { return json.Unmarshal(data, cfg) },
	".yaml": func(data []byte, cfg *Config) error { return yaml.Unmarshal(data, cfg) },
	".yml":  func(data []byte, cfg *Config) error { return yaml.Unmarshal(data, cfg) },
}

// loadConfigFromFile decodes path over the defaults. The extension picks the
// format; other names are tried as TOML, JSON and YAML in turn.
func loadConfigFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return DefaultConfig(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(path))
	if decode, ok := decoders[ext]; ok {
		cfg := DefaultConfig()
		if err := decode(data, cfg); err != nil {
			return nil, fmt.Errorf("decode %s: %w", strings.ToUpper(ext[1:]), err)
		}
		return cfg, nil
	}
	for _, ext := range []string{".toml", ".json", ".yaml"} {
		cfg := DefaultConfig()
		if decoders[ext](data, cfg) == nil {
			return cfg, nil
		}
	}
	return nil, errors.New("parse config: not TOML, JSON or YAML")
}

// LoadOrCreate loads the config at path, writing the defaults there first
// when the file does not exist. The boolean reports whether it was created.
func LoadOrCreate(path string) (*Config, bool, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		cfg := DefaultConfig()
		if err := cfg.Save(path); err != nil {
			return nil, false, err
		}
		cfg.ApplyEnvOverrides()
		return cfg, true, cfg.Validate()
	}
	cfg, err := Load(path)
	return cfg, false, err
}
