package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"rimebridge/internal/logging"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Version != Version {
		t.Errorf("expected version %d, got %d", Version, cfg.Version)
	}
	if cfg.Rime.DefaultSchema != "luna_pinyin" {
		t.Errorf("unexpected default schema %q", cfg.Rime.DefaultSchema)
	}
	if cfg.OpenCC.DefaultConfig != "s2t.json" {
		t.Errorf("unexpected OpenCC config %q", cfg.OpenCC.DefaultConfig)
	}
	if !cfg.Logging.RedactText {
		t.Error("typed text should be redacted by default")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should be valid: %v", err)
	}
}

func TestConfigDirHonorsXDG(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg-config")
	t.Setenv("XDG_DATA_HOME", "/tmp/xdg-data")
	if got := ConfigPath(); got != "/tmp/xdg-config/rimebridge/config.toml" {
		t.Errorf("ConfigPath = %s", got)
	}
	if got := DefaultConfig().History.Path; got != "/tmp/xdg-data/rimebridge/history.db" {
		t.Errorf("history path = %s", got)
	}
}

func TestLoadMissingFileGivesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Rime.AppName != DefaultConfig().Rime.AppName {
		t.Errorf("expected defaults, got app name %q", cfg.Rime.AppName)
	}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestLoadFormats(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{"toml", "config.toml", "[rime]\ndefault_schema = \"cangjie5\"\n"},
		{"json", "config.json", `{"rime": {"default_schema": "cangjie5"}}`},
		{"yaml", "config.yaml", "rime:\n  default_schema: cangjie5\n"},
		{"detected", "config", "[rime]\ndefault_schema = \"cangjie5\"\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(writeFile(t, tt.file, tt.content))
			if err != nil {
				t.Fatalf("Load failed: %v", err)
			}
			if cfg.Rime.DefaultSchema != "cangjie5" {
				t.Errorf("expected cangjie5, got %q", cfg.Rime.DefaultSchema)
			}
			// Unset fields keep their defaults.
			if cfg.OpenCC.DefaultConfig != "s2t.json" {
				t.Errorf("default lost: %q", cfg.OpenCC.DefaultConfig)
			}
		})
	}
}

func TestLoadInvalidTOML(t *testing.T) {
	if _, err := Load(writeFile(t, "config.toml", "this is not valid toml {{{")); err == nil {
		t.Error("expected error for invalid TOML")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	cfg := DefaultConfig()
	cfg.History.Limit = 42
	cfg.IBus.EngineName = "rime_test"
	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.History.Limit != 42 || loaded.IBus.EngineName != "rime_test" {
		t.Errorf("values not preserved: %+v %+v", loaded.History, loaded.IBus)
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("RIMEBRIDGE_DEFAULT_SCHEMA", "terra_pinyin")
	t.Setenv("RIMEBRIDGE_HISTORY_ENABLED", "false")
	t.Setenv("RIMEBRIDGE_HISTORY_LIMIT", "7")
	t.Setenv("RIMEBRIDGE_LOG_LEVEL", "DEBUG")
	t.Setenv("RIMEBRIDGE_METRICS_LISTEN", "127.0.0.1:1")
	t.Setenv("RIMEBRIDGE_MIN_LOG_LEVEL", "not a number")

	cfg := DefaultConfig()
	cfg.ApplyEnvOverrides()

	if cfg.Rime.DefaultSchema != "terra_pinyin" {
		t.Errorf("schema override ignored: %q", cfg.Rime.DefaultSchema)
	}
	if cfg.History.Enabled {
		t.Error("history should be disabled")
	}
	if cfg.History.Limit != 7 {
		t.Errorf("limit override ignored: %d", cfg.History.Limit)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("level override ignored: %q", cfg.Logging.Level)
	}
	if cfg.Metrics.Listen != "127.0.0.1:1" {
		t.Errorf("listen override ignored: %q", cfg.Metrics.Listen)
	}
	if cfg.Rime.MinLogLevel != DefaultConfig().Rime.MinLogLevel {
		t.Errorf("malformed integer should be ignored, got %d", cfg.Rime.MinLogLevel)
	}
}

func TestValidateSchemaErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"log level", func(c *Config) { c.Logging.Level = "verbose" }, "logging.level"},
		{"log format", func(c *Config) { c.Logging.Format = "xml" }, "logging.format"},
		{"log size", func(c *Config) { c.Logging.MaxSizeMB = 0 }, "logging.max_size_mb"},
		{"app name", func(c *Config) { c.Rime.AppName = "bridge" }, "rime.app_name"},
		{"min log level", func(c *Config) { c.Rime.MinLogLevel = 9 }, "rime.min_log_level"},
		{"history limit", func(c *Config) { c.History.Limit = -1 }, "history.limit"},
		{"engine name", func(c *Config) { c.IBus.EngineName = "Rime Bridge" }, "ibus.engine_name"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("expected *ValidationError, got %T", err)
			}
			if !strings.Contains(err.Error(), tt.field) {
				t.Errorf("error %q does not name %s", err, tt.field)
			}
		})
	}
}

func TestValidateSemanticErrors(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Logging.Output = "file"
	cfg.Logging.FilePath = ""
	cfg.History.Path = ""
	cfg.Metrics.Enabled = true
	cfg.Metrics.Listen = "nowhere"

	err := cfg.Validate()
	var errs ValidationErrors
	if !errors.As(err, &errs) {
		t.Fatalf("expected ValidationErrors, got %T: %v", err, err)
	}
	if len(errs) != 3 {
		t.Fatalf("expected 3 errors, got %d: %v", len(errs), errs)
	}
	for i, field := range []string{"logging.file_path", "history.path", "metrics.listen"} {
		if errs[i].Field != field {
			t.Errorf("error %d: field %s, want %s", i, errs[i].Field, field)
		}
	}
}

func TestLoadOrCreate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	_, created, err := LoadOrCreate(path)
	if err != nil {
		t.Fatalf("LoadOrCreate failed: %v", err)
	}
	if !created {
		t.Error("expected the file to be created")
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("config not written: %v", err)
	}
	if _, created, err = LoadOrCreate(path); err != nil || created {
		t.Errorf("second call: created=%v err=%v", created, err)
	}
}

func TestLoaderReloadsOnChange(t *testing.T) {
	path := writeFile(t, "config.toml", "[rime]\ndefault_schema = \"luna_pinyin\"\n")
	l := NewLoader(path)
	l.debounce = 10 * time.Millisecond
	defer l.Close()

	if _, err := l.Load(); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	type change struct {
		prev, next *Config
		sections   []string
	}
	changed := make(chan change, 1)
	l.OnChange(func(prev, next *Config, sections []string) {
		select {
		case changed <- change{prev, next, sections}:
		default:
		}
	})
	if err := l.Watch(context.Background()); err != nil {
		t.Fatalf("Watch failed: %v", err)
	}

	if err := os.WriteFile(path, []byte("[rime]\ndefault_schema = \"cangjie5\"\n"), 0600); err != nil {
		t.Fatalf("rewrite config: %v", err)
	}

	select {
	case c := <-changed:
		if c.prev.Rime.DefaultSchema != "luna_pinyin" || c.next.Rime.DefaultSchema != "cangjie5" {
			t.Errorf("reloaded schema %q -> %q", c.prev.Rime.DefaultSchema, c.next.Rime.DefaultSchema)
		}
		if len(c.sections) != 1 || c.sections[0] != "rime" {
			t.Errorf("changed sections = %v", c.sections)
		}
		if l.Config().Rime.DefaultSchema != "cangjie5" {
			t.Error("Config() not updated")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no reload after file change")
	}
}

func TestLoaderWatchStopsWithContext(t *testing.T) {
	path := writeFile(t, "config.toml", "")
	l := NewLoader(path)
	l.debounce = 10 * time.Millisecond
	defer l.Close()
	if _, err := l.Load(); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	calls := make(chan struct{}, 1)
	l.OnChange(func(_, _ *Config, _ []string) { calls <- struct{}{} })

	ctx, cancel := context.WithCancel(context.Background())
	if err := l.Watch(ctx); err != nil {
		t.Fatalf("Watch failed: %v", err)
	}
	cancel()
	time.Sleep(50 * time.Millisecond)

	if err := os.WriteFile(path, []byte("[history]\nlimit = 5\n"), 0600); err != nil {
		t.Fatalf("rewrite config: %v", err)
	}
	select {
	case <-calls:
		t.Fatal("reloaded after the context was cancelled")
	case <-time.After(200 * time.Millisecond):
	}
}

func TestDiff(t *testing.T) {
	a := DefaultConfig()
	if got := Diff(a, a.Clone()); len(got) != 0 {
		t.Errorf("identical configs differ in %v", got)
	}

	b := a.Clone()
	b.History.Limit = 5
	b.Metrics.Enabled = true
	got := Diff(a, b)
	if strings.Join(got, ",") != "history,metrics" {
		t.Errorf("Diff = %v", got)
	}
	if !NeedsRestart(got) {
		t.Error("metrics change should need a restart")
	}
	if NeedsRestart([]string{"history"}) {
		t.Error("history applies live")
	}
	if len(Diff(nil, a)) != 7 {
		t.Errorf("nil previous config should differ everywhere: %v", Diff(nil, a))
	}
}

func TestLoaderKeepsConfigOnInvalidReload(t *testing.T) {
	path := writeFile(t, "config.toml", "")
	l := NewLoader(path)
	defer l.Close()
	if _, err := l.Load(); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if err := os.WriteFile(path, []byte("[logging]\nlevel = \"loud\"\n"), 0600); err != nil {
		t.Fatalf("rewrite config: %v", err)
	}
	l.reload()

	select {
	case err := <-l.Errors():
		if !strings.Contains(err.Error(), "logging.level") {
			t.Errorf("unexpected error: %v", err)
		}
	default:
		t.Fatal("expected a reload error")
	}
	if l.Config().Logging.Level != "info" {
		t.Errorf("previous config should be kept, got level %q", l.Config().Logging.Level)
	}
}

func TestLoggingOptions(t *testing.T) {
	l := DefaultConfig().Logging
	l.Level = "debug"
	l.Format = "json"
	l.Output = "file"
	l.FilePath = "/tmp/rb.log"
	l.MaxSizeMB = 3

	opts, err := l.LoggingOptions("ibus")
	if err != nil {
		t.Fatalf("LoggingOptions: %v", err)
	}
	if opts.Level != logging.LevelDebug || opts.Format != logging.FormatJSON {
		t.Errorf("level/format = %v/%v", opts.Level, opts.Format)
	}
	if opts.FilePath != "/tmp/rb.log" || opts.Rotate.MaxSizeMB != 3 || opts.Component != "ibus" {
		t.Errorf("unexpected options: %+v", opts)
	}

	l.Level = "loud"
	if _, err := l.LoggingOptions(""); err == nil {
		t.Error("expected error for unknown level")
	}
}

func TestTraits(t *testing.T) {
	r := DefaultConfig().Rime
	r.SharedDataDir = "/srv/rime"
	tr := r.Traits()
	if tr.SharedDataDir != "/srv/rime" || tr.AppName != r.AppName || tr.DistributionCode != r.DistributionCode {
		t.Errorf("unexpected traits: %+v", tr)
	}
}
