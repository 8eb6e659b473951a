package logging

import (
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

// RotateOptions controls log rotation.
type RotateOptions struct {
	// MaxSizeMB is the size in megabytes at which the file is rotated.
	MaxSizeMB int64
	// MaxBackups is the number of rotated files kept.
	MaxBackups int
	// MaxAgeDays removes rotated files older than this. Zero keeps them.
	MaxAgeDays int
	// Compress gzips rotated files.
	Compress bool
}

// DefaultRotateOptions keeps five compressed 10 MB backups for two weeks.
func DefaultRotateOptions() RotateOptions {
	return RotateOptions{MaxSizeMB: 10, MaxBackups: 5, MaxAgeDays: 14, Compress: true}
}

// FileRotator is an io.Writer over a log file that rotates by size.
type FileRotator struct {
	path    string
	opts    RotateOptions
	maxSize int64 // bytes; tests lower it below a megabyte

	mu   sync.Mutex
	file *os.File
	size int64
	seq  int
}

// NewFileRotator opens path for appending, creating its directory.
func NewFileRotator(path string, opts RotateOptions) (*FileRotator, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}
	r := &FileRotator{path: path, opts: opts, maxSize: opts.MaxSizeMB * 1024 * 1024}
	if err := r.openFile(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *FileRotator) openFile() error {
	file, err := os.OpenFile(r.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0640)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	info, err := file.Stat()
	if err != nil {
		file.Close()
		return fmt.Errorf("stat log file: %w", err)
	}
	r.file = file
	r.size = info.Size()
	return nil
}

// Write implements io.Writer.
func (r *FileRotator) Write(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.file == nil {
		if err := r.openFile(); err != nil {
			return 0, err
		}
	}
	if r.maxSize > 0 && r.size > 0 && r.size+int64(len(p)) > r.maxSize {
		if err := r.rotate(); err != nil {
			return 0, fmt.Errorf("rotate log: %w", err)
		}
	}

	n, err := r.file.Write(p)
	r.size += int64(n)
	return n, err
}

func (r *FileRotator) rotate() error {
	if err := r.file.Close(); err != nil {
		return fmt.Errorf("close current log: %w", err)
	}
	r.file = nil

	r.seq++
	ext := filepath.Ext(r.path)
	rotated := fmt.Sprintf("%s-%s.%d%s",
		strings.TrimSuffix(r.path, ext), time.Now().Format("20060102-150405"), r.seq, ext)
	if err := os.Rename(r.path, rotated); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("rename log file: %w", err)
	}

	if r.opts.Compress {
		if err := gzipFile(rotated); err != nil {
			return err
		}
	}
	if err := r.openFile(); err != nil {
		return err
	}
	r.prune()
	return nil
}

func gzipFile(path string) error {
	in, err := os.Open(path)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(path + ".gz")
	if err != nil {
		return err
	}
	gz := gzip.NewWriter(out)
	gz.Name = filepath.Base(path)

	_, err = io.Copy(gz, in)
	if cerr := gz.Close(); err == nil {
		err = cerr
	}
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(path + ".gz")
		return fmt.Errorf("compress %s: %w", path, err)
	}
	return os.Remove(path)
}

// Backups returns rotated files, oldest first.
func (r *FileRotator) Backups() ([]string, error) {
	ext := filepath.Ext(r.path)
	matches, err := filepath.Glob(strings.TrimSuffix(r.path, ext) + "-*" + ext + "*")
	if err != nil {
		return nil, err
	}

	type entry struct {
		path string
		mod  time.Time
	}
	entries := make([]entry, 0, len(matches))
	for _, m := range matches {
		if info, err := os.Stat(m); err == nil {
			entries = append(entries, entry{m, info.ModTime()})
		}
	}
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].mod.Before(entries[j].mod) })

	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.path
	}
	return out, nil
}

func (r *FileRotator) prune() {
	backups, err := r.Backups()
	if err != nil {
		return
	}
	if r.opts.MaxBackups > 0 && len(backups) > r.opts.MaxBackups {
		for _, p := range backups[:len(backups)-r.opts.MaxBackups] {
			os.Remove(p)
		}
		backups = backups[len(backups)-r.opts.MaxBackups:]
	}
	if r.opts.MaxAgeDays > 0 {
		cutoff := time.Now().AddDate(0, 0, -r.opts.MaxAgeDays)
		for _, p := range backups {
			if info, err := os.Stat(p); err == nil && info.ModTime().Before(cutoff) {
				os.Remove(p)
			}
		}
	}
}

// Close closes the underlying file.
func (r *FileRotator) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.file != nil {
		err := r.file.Close()
		r.file = nil
		return err
	}
	return nil
}

// Sync flushes the underlying file.
func (r *FileRotator) Sync() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.file != nil {
		return r.file.Sync()
	}
	return nil
}
