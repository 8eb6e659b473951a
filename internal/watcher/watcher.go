// Package watcher monitors Rime data directories and reports YAML files whose
// content has settled after a change.
package watcher

import (
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/crypto/blake2b"
)

// Event reports a file whose content changed.
type Event struct {
	Path      string
	Hash      [32]byte
	Size      int64
	Removed   bool
	Timestamp time.Time
}

// Options configures a Watcher.
type Options struct {
	// Debounce is how long a file must stay untouched before it is reported.
	Debounce time.Duration
	// Pattern is matched against base names with filepath.Match.
	Pattern string
}

// DefaultOptions reports YAML files half a second after their last write.
func DefaultOptions() Options {
	return Options{Debounce: 500 * time.Millisecond, Pattern: "*.yaml"}
}

// Watcher monitors directories for changed files.
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	dirs      []string
	opts      Options

	// path -> time of the last filesystem event
	pending map[string]time.Time
	// path -> content hash of the last reported (or initial) version
	known   map[string][32]byte
	stateMu sync.Mutex

	events chan Event
	errors chan error

	done chan struct{}
	wg   sync.WaitGroup
}

// New creates a watcher over dirs.
func New(dirs []string, opts Options) (*Watcher, error) {
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultOptions().Debounce
	}
	if opts.Pattern == "" {
		opts.Pattern = "*"
	}
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{
		fsWatcher: fsWatcher,
		dirs:      dirs,
		opts:      opts,
		pending:   make(map[string]time.Time),
		known:     make(map[string][32]byte),
		events:    make(chan Event, 100),
		errors:    make(chan error, 10),
		done:      make(chan struct{}),
	}, nil
}

// Events returns the channel of change events.
func (w *Watcher) Events() <-chan Event {
	return w.events
}

// Errors returns the channel of errors.
func (w *Watcher) Errors() <-chan error {
	return w.errors
}

// Start begins watching. Directories that do not exist are skipped.
func (w *Watcher) Start() error {
	for _, dir := range w.dirs {
		absDir, err := filepath.Abs(dir)
		if err != nil {
			return err
		}
		info, err := os.Stat(absDir)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return err
		}
		if !info.IsDir() {
			absDir = filepath.Dir(absDir)
		}
		if err := w.fsWatcher.Add(absDir); err != nil {
			return err
		}

		entries, err := os.ReadDir(absDir)
		if err != nil {
			return err
		}
		for _, entry := range entries {
			if !entry.IsDir() && w.matches(entry.Name()) {
				w.trackFile(filepath.Join(absDir, entry.Name()))
			}
		}
	}

	w.wg.Add(2)
	go w.eventLoop()
	go w.debounceLoop()
	return nil
}

// Stop shuts down the watcher and closes its channels.
func (w *Watcher) Stop() error {
	close(w.done)
	w.wg.Wait()
	close(w.events)
	close(w.errors)
	return w.fsWatcher.Close()
}

func (w *Watcher) matches(name string) bool {
	ok, err := filepath.Match(w.opts.Pattern, filepath.Base(name))
	return err == nil && ok
}

// trackFile records the current content of an existing file so an
// unchanged rewrite is not reported.
func (w *Watcher) trackFile(path string) {
	hash, _, err := HashFile(path)
	if err != nil {
		return
	}
	w.stateMu.Lock()
	w.known[path] = hash
	w.stateMu.Unlock()
}

func (w *Watcher) eventLoop() {
	defer w.wg.Done()

	for {
		select {
		case <-w.done:
			return

		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			if event.Op == fsnotify.Chmod || !w.matches(event.Name) {
				continue
			}
			w.stateMu.Lock()
			w.pending[event.Name] = time.Now()
			w.stateMu.Unlock()

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			w.reportError(err)
		}
	}
}

func (w *Watcher) reportError(err error) {
	select {
	case w.errors <- err:
	default:
	}
}

func (w *Watcher) debounceLoop() {
	defer w.wg.Done()

	tick := w.opts.Debounce / 2
	if tick < 10*time.Millisecond {
		tick = 10 * time.Millisecond
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-w.done:
			return
		case now := <-ticker.C:
			w.checkStableFiles(now)
		}
	}
}

// checkStableFiles reports files that have been quiet for the debounce
// interval. File I/O happens without holding the lock.
func (w *Watcher) checkStableFiles(now time.Time) {
	threshold := now.Add(-w.opts.Debounce)

	type stable struct {
		path    string
		lastMod time.Time
	}
	var stableFiles []stable
	w.stateMu.Lock()
	for path, lastMod := range w.pending {
		if lastMod.Before(threshold) {
			stableFiles = append(stableFiles, stable{path, lastMod})
		}
	}
	w.stateMu.Unlock()

	for _, sf := range stableFiles {
		hash, size, err := HashFile(sf.path)
		removed := errors.Is(err, fs.ErrNotExist)
		if err != nil && !removed {
			w.reportError(err)
		}

		w.stateMu.Lock()
		if w.pending[sf.path] != sf.lastMod {
			// Touched again while hashing; wait for it to settle.
			w.stateMu.Unlock()
			continue
		}
		delete(w.pending, sf.path)

		prev, seen := w.known[sf.path]
		var event *Event
		switch {
		case err != nil && !removed:
		case removed:
			if seen {
				delete(w.known, sf.path)
				event = &Event{Path: sf.path, Removed: true, Timestamp: now}
			}
		case !seen || prev != hash:
			w.known[sf.path] = hash
			event = &Event{Path: sf.path, Hash: hash, Size: size, Timestamp: now}
		}
		w.stateMu.Unlock()

		if event != nil {
			select {
			case w.events <- *event:
			case <-w.done:
				return
			}
		}
	}
}

// HashFile computes the BLAKE2b-256 hash of a file using streaming.
func HashFile(path string) ([32]byte, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return [32]byte{}, 0, err
	}
	defer f.Close()

	h, err := blake2b.New256(nil)
	if err != nil {
		return [32]byte{}, 0, err
	}
	size, err := io.Copy(h, f)
	if err != nil {
		return [32]byte{}, 0, err
	}

	var hash [32]byte
	copy(hash[:], h.Sum(nil))
	return hash, size, nil
}

// WatchedPaths returns the directories given to New.
func (w *Watcher) WatchedPaths() []string {
	return w.dirs
}

// TrackedFiles returns the number of files whose content is known.
func (w *Watcher) TrackedFiles() int {
	w.stateMu.Lock()
	defer w.stateMu.Unlock()
	return len(w.known)
}
