package logging

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"sync"
	"time"
)

// CrashReport describes a panic that reached a guarded entry point.
type CrashReport struct {
	Timestamp    time.Time      `json:"timestamp"`
	Version      string         `json:"version"`
	GOOS         string         `json:"goos"`
	GOARCH       string         `json:"goarch"`
	NumGoroutine int            `json:"num_goroutine"`
	PanicValue   string         `json:"panic_value"`
	StackTrace   string         `json:"stack_trace"`
	Component    string         `json:"component,omitempty"`
	Context      map[string]any `json:"context,omitempty"`
}

// CrashHandler writes crash reports as JSON files.
type CrashHandler struct {
	mu        sync.Mutex
	dir       string
	version   string
	component string
	seq       int
}

// DefaultCrashDir returns $XDG_STATE_HOME/rimebridge/crashes.
func DefaultCrashDir() string {
	return filepath.Join(stateDir(), "crashes")
}

// NewCrashHandler creates a handler writing into dir (DefaultCrashDir if empty).
func NewCrashHandler(dir, component, version string) *CrashHandler {
	if dir == "" {
		dir = DefaultCrashDir()
	}
	return &CrashHandler{dir: dir, component: component, version: version}
}

// Guard runs fn. If fn panics, a crash report is written and the panic
// continues, so a fault in the native layer still terminates the process.
func (h *CrashHandler) Guard(contextInfo map[string]any, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			path, err := h.HandlePanic(r, contextInfo)
			if err != nil {
				fmt.Fprintf(os.Stderr, "rimebridge: write crash report: %v\n", err)
			} else {
				fmt.Fprintf(os.Stderr, "rimebridge: crash report written to %s\n", path)
			}
			panic(r)
		}
	}()
	fn()
}

// HandlePanic writes a crash report for panicValue and returns its path.
func (h *CrashHandler) HandlePanic(panicValue any, contextInfo map[string]any) (string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	report := CrashReport{
		Timestamp:    time.Now().UTC(),
		Version:      h.version,
		GOOS:         runtime.GOOS,
		GOARCH:       runtime.GOARCH,
		NumGoroutine: runtime.NumGoroutine(),
		PanicValue:   fmt.Sprint(panicValue),
		StackTrace:   string(debug.Stack()),
		Component:    h.component,
		Context:      contextInfo,
	}

	if err := os.MkdirAll(h.dir, 0750); err != nil {
		return "", fmt.Errorf("create crash directory: %w", err)
	}
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal crash report: %w", err)
	}

	h.seq++
	name := fmt.Sprintf("crash-%s-%s-%d.json", h.component, report.Timestamp.Format("20060102-150405"), h.seq)
	path := filepath.Join(h.dir, name)
	if err := os.WriteFile(path, data, 0640); err != nil {
		return "", fmt.Errorf("write crash report: %w", err)
	}
	return path, nil
}

// Reports reads the crash reports in the handler's directory.
func (h *CrashHandler) Reports() ([]CrashReport, error) {
	files, err := filepath.Glob(filepath.Join(h.dir, "crash-*.json"))
	if err != nil {
		return nil, err
	}

	reports := make([]CrashReport, 0, len(files))
	for _, file := range files {
		data, err := os.ReadFile(file)
		if err != nil {
			continue
		}
		var report CrashReport
		if err := json.Unmarshal(data, &report); err != nil {
			continue
		}
		reports = append(reports, report)
	}
	return reports, nil
}

// Cleanup removes crash reports older than maxAge.
func (h *CrashHandler) Cleanup(maxAge time.Duration) error {
	files, err := filepath.Glob(filepath.Join(h.dir, "crash-*.json"))
	if err != nil {
		return err
	}
	cutoff := time.Now().Add(-maxAge)
	for _, file := range files {
		if info, err := os.Stat(file); err == nil && info.ModTime().Before(cutoff) {
			os.Remove(file)
		}
	}
	return nil
}
