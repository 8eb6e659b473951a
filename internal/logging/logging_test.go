package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected Level
		hasError bool
	}{
		{"debug", LevelDebug, false},
		{"DEBUG", LevelDebug, false},
		{"info", LevelInfo, false},
		{"warn", LevelWarn, false},
		{"warning", LevelWarn, false},
		{"error", LevelError, false},
		{"invalid", LevelInfo, true},
		{"", LevelInfo, true},
	}

	for _, test := range tests {
		t.Run(test.input, func(t *testing.T) {
			level, err := ParseLevel(test.input)
			if test.hasError && err == nil {
				t.Error("expected error, got nil")
			}
			if !test.hasError && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if !test.hasError && level != test.expected {
				t.Errorf("expected %v, got %v", test.expected, level)
			}
		})
	}
}

func TestLevelString(t *testing.T) {
	for _, level := range []Level{LevelDebug, LevelInfo, LevelWarn, LevelError} {
		parsed, err := ParseLevel(LevelString(level))
		if err != nil || parsed != level {
			t.Errorf("round trip of %v gave %v, %v", level, parsed, err)
		}
	}
}

func TestParseFormat(t *testing.T) {
	if f, err := ParseFormat("json"); err != nil || f != FormatJSON {
		t.Errorf("json: got %v, %v", f, err)
	}
	if f, err := ParseFormat(""); err != nil || f != FormatText {
		t.Errorf("empty: got %v, %v", f, err)
	}
	if _, err := ParseFormat("xml"); err == nil {
		t.Error("expected error for xml")
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Level != LevelInfo {
		t.Errorf("expected default level Info, got %v", cfg.Level)
	}
	if cfg.Output != "stderr" {
		t.Errorf("expected default output stderr, got %s", cfg.Output)
	}
	if !cfg.RedactText {
		t.Error("typed text should be redacted by default")
	}
	if !strings.HasSuffix(cfg.FilePath, filepath.Join("rimebridge", "rimebridge.log")) {
		t.Errorf("unexpected default path %s", cfg.FilePath)
	}
}

func jsonLogger(t *testing.T, buf *bytes.Buffer, redact bool) *Logger {
	t.Helper()
	l, err := New(&Config{
		Level:      LevelDebug,
		Format:     FormatJSON,
		Writer:     buf,
		RedactText: redact,
		Component:  "test",
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return l
}

func decodeLast(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	var rec map[string]any
	if err := json.Unmarshal([]byte(lines[len(lines)-1]), &rec); err != nil {
		t.Fatalf("invalid JSON log line: %v", err)
	}
	return rec
}

func TestJSONFormatAndComponent(t *testing.T) {
	var buf bytes.Buffer
	l := jsonLogger(t, &buf, false)

	l.WithComponent("session").Info("key processed", "keycode", 97)

	rec := decodeLast(t, &buf)
	if rec["msg"] != "key processed" {
		t.Errorf("unexpected msg %v", rec["msg"])
	}
	if rec["component"] != "session" {
		t.Errorf("expected component session, got %v", rec["component"])
	}
	if rec["keycode"] != float64(97) {
		t.Errorf("unexpected keycode %v", rec["keycode"])
	}
}

func TestRedactTypedText(t *testing.T) {
	var buf bytes.Buffer
	l := jsonLogger(t, &buf, true)

	l.Info("commit", "text", "你好", "commit_text", "abc", "schema", "luna_pinyin")

	rec := decodeLast(t, &buf)
	if rec["text"] != "[REDACTED 2 chars]" {
		t.Errorf("text not redacted: %v", rec["text"])
	}
	if rec["commit_text"] != "[REDACTED 3 chars]" {
		t.Errorf("commit_text not redacted: %v", rec["commit_text"])
	}
	if rec["schema"] != "luna_pinyin" {
		t.Errorf("schema should be kept: %v", rec["schema"])
	}
}

func TestNoRedaction(t *testing.T) {
	var buf bytes.Buffer
	l := jsonLogger(t, &buf, false)
	l.Info("commit", "text", "你好")
	if rec := decodeLast(t, &buf); rec["text"] != "你好" {
		t.Errorf("text should be kept: %v", rec["text"])
	}
}

func TestSessionContext(t *testing.T) {
	var buf bytes.Buffer
	l := jsonLogger(t, &buf, false)

	ctx := ContextWithSession(context.Background(), 42)
	l.WithContext(ctx).Info("hello")
	if rec := decodeLast(t, &buf); rec["session"] != float64(42) {
		t.Errorf("expected session 42, got %v", rec["session"])
	}

	if _, ok := SessionFromContext(context.Background()); ok {
		t.Error("empty context should have no session")
	}
	if l.WithContext(context.Background()) != l {
		t.Error("WithContext without session should return the same logger")
	}
}

func TestFileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "rimebridge.log")
	l, err := New(&Config{Level: LevelInfo, Output: "file", FilePath: path, Rotate: DefaultRotateOptions()})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	l.Info("written to file")
	if err := l.Sync(); err != nil {
		t.Errorf("Sync failed: %v", err)
	}
	if err := l.Close(); err != nil {
		t.Errorf("Close failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(data), "written to file") {
		t.Errorf("log file missing record: %q", data)
	}
}

func TestFileRotatorRotation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.log")
	r, err := NewFileRotator(path, RotateOptions{MaxBackups: 2, Compress: true})
	if err != nil {
		t.Fatalf("NewFileRotator failed: %v", err)
	}
	defer r.Close()
	r.maxSize = 64

	line := []byte(strings.Repeat("x", 40) + "\n")
	for i := 0; i < 6; i++ {
		if _, err := r.Write(line); err != nil {
			t.Fatalf("write %d: %v", i, err)
		}
	}

	backups, err := r.Backups()
	if err != nil {
		t.Fatalf("Backups failed: %v", err)
	}
	if len(backups) != 2 {
		t.Fatalf("expected 2 backups after pruning, got %d: %v", len(backups), backups)
	}
	for _, b := range backups {
		if !strings.HasSuffix(b, ".gz") {
			t.Errorf("backup not compressed: %s", b)
		}
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat current log: %v", err)
	}
	if info.Size() != int64(len(line)) {
		t.Errorf("current log should hold one line, has %d bytes", info.Size())
	}
}

func TestCrashHandler(t *testing.T) {
	h := NewCrashHandler(t.TempDir(), "test", "1.0.0")

	path, err := h.HandlePanic("test panic value", map[string]any{"keycode": 97})
	if err != nil {
		t.Fatalf("HandlePanic failed: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("crash report missing: %v", err)
	}

	reports, err := h.Reports()
	if err != nil {
		t.Fatalf("Reports failed: %v", err)
	}
	if len(reports) != 1 {
		t.Fatalf("expected 1 report, got %d", len(reports))
	}
	r := reports[0]
	if r.PanicValue != "test panic value" || r.Version != "1.0.0" || r.Component != "test" {
		t.Errorf("unexpected report: %+v", r)
	}
}

func TestCrashHandlerGuardRepanics(t *testing.T) {
	h := NewCrashHandler(t.TempDir(), "test", "")

	defer func() {
		r := recover()
		if r != "native fault" {
			t.Errorf("expected the original panic to propagate, got %v", r)
		}
		reports, _ := h.Reports()
		if len(reports) != 1 {
			t.Errorf("expected a crash report, got %d", len(reports))
		}
	}()

	h.Guard(nil, func() { panic("native fault") })
	t.Error("Guard returned after a panic")
}

func TestCrashHandlerGuardNoPanic(t *testing.T) {
	h := NewCrashHandler(t.TempDir(), "test", "")
	ran := false
	h.Guard(nil, func() { ran = true })
	if !ran {
		t.Error("function did not run")
	}
	if reports, _ := h.Reports(); len(reports) != 0 {
		t.Errorf("unexpected reports: %d", len(reports))
	}
}

func TestCrashHandlerCleanup(t *testing.T) {
	h := NewCrashHandler(t.TempDir(), "test", "")
	path, err := h.HandlePanic("old", nil)
	if err != nil {
		t.Fatalf("HandlePanic failed: %v", err)
	}
	old := time.Now().Add(-48 * time.Hour)
	if err := os.Chtimes(path, old, old); err != nil {
		t.Fatalf("Chtimes failed: %v", err)
	}
	if _, err := h.HandlePanic("new", nil); err != nil {
		t.Fatalf("HandlePanic failed: %v", err)
	}

	if err := h.Cleanup(24 * time.Hour); err != nil {
		t.Fatalf("Cleanup failed: %v", err)
	}
	reports, _ := h.Reports()
	if len(reports) != 1 || reports[0].PanicValue != "new" {
		t.Errorf("expected only the new report, got %+v", reports)
	}
}
