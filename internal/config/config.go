// Package config handles configuration loading and validation for rimebridge.
package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
)

// Version is the current configuration format version.
const Version = 1

// EnvPrefix prefixes every environment override.
const EnvPrefix = "RIMEBRIDGE_"

// Config is the rimebridge configuration.
type Config struct {
	Version int `toml:"version" json:"version" yaml:"version"`

	Rime    RimeConfig    `toml:"rime" json:"rime" yaml:"rime"`
	OpenCC  OpenCCConfig  `toml:"opencc" json:"opencc" yaml:"opencc"`
	History HistoryConfig `toml:"history" json:"history" yaml:"history"`
	Logging LoggingConfig `toml:"logging" json:"logging" yaml:"logging"`
	Metrics MetricsConfig `toml:"metrics" json:"metrics" yaml:"metrics"`
	IBus    IBusConfig    `toml:"ibus" json:"ibus" yaml:"ibus"`
}

// RimeConfig is passed to the engine at setup.
type RimeConfig struct {
	SharedDataDir       string `toml:"shared_data_dir" json:"shared_data_dir" yaml:"shared_data_dir"`
	UserDataDir         string `toml:"user_data_dir" json:"user_data_dir" yaml:"user_data_dir"`
	LogDir              string `toml:"log_dir" json:"log_dir" yaml:"log_dir"`
	AppName             string `toml:"app_name" json:"app_name" yaml:"app_name"`
	DistributionName    string `toml:"distribution_name" json:"distribution_name" yaml:"distribution_name"`
	DistributionCode    string `toml:"distribution_code_name" json:"distribution_code_name" yaml:"distribution_code_name"`
	DistributionVersion string `toml:"distribution_version" json:"distribution_version" yaml:"distribution_version"`
	DefaultSchema       string `toml:"default_schema" json:"default_schema" yaml:"default_schema"`
	MinLogLevel         int    `toml:"min_log_level" json:"min_log_level" yaml:"min_log_level"`
}

// OpenCCConfig locates OpenCC configurations and dictionaries.
type OpenCCConfig struct {
	DataDir       string `toml:"data_dir" json:"data_dir" yaml:"data_dir"`
	DefaultConfig string `toml:"default_config" json:"default_config" yaml:"default_config"`
}

// HistoryConfig controls the commit history database.
type HistoryConfig struct {
	Enabled bool   `toml:"enabled" json:"enabled" yaml:"enabled"`
	Path    string `toml:"path" json:"path" yaml:"path"`
	// Limit is the number of commits kept. Zero keeps everything.
	Limit int `toml:"limit" json:"limit" yaml:"limit"`
}

// LoggingConfig configures internal/logging.
type LoggingConfig struct {
	Level      string `toml:"level" json:"level" yaml:"level"`
	Format     string `toml:"format" json:"format" yaml:"format"`
	Output     string `toml:"output" json:"output" yaml:"output"`
	FilePath   string `toml:"file_path" json:"file_path" yaml:"file_path"`
	MaxSizeMB  int    `toml:"max_size_mb" json:"max_size_mb" yaml:"max_size_mb"`
	MaxBackups int    `toml:"max_backups" json:"max_backups" yaml:"max_backups"`
	MaxAgeDays int    `toml:"max_age_days" json:"max_age_days" yaml:"max_age_days"`
	RedactText bool   `toml:"redact_text" json:"redact_text" yaml:"redact_text"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `toml:"enabled" json:"enabled" yaml:"enabled"`
	Listen  string `toml:"listen" json:"listen" yaml:"listen"`
}

// IBusConfig configures the IBus frontend.
type IBusConfig struct {
	BusName       string `toml:"bus_name" json:"bus_name" yaml:"bus_name"`
	EngineName    string `toml:"engine_name" json:"engine_name" yaml:"engine_name"`
	ComponentPath string `toml:"component_path" json:"component_path" yaml:"component_path"`
	Layout        string `toml:"layout" json:"layout" yaml:"layout"`
}

// DefaultConfig returns a configuration with default values.
func DefaultConfig() *Config {
	dataDir := DataDir()
	return &Config{
		Version: Version,
		Rime: RimeConfig{
			SharedDataDir:       "/usr/share/rime-data",
			UserDataDir:         filepath.Join(ConfigDir(), "rime"),
			LogDir:              filepath.Join(dataDir, "logs"),
			AppName:             "rime.rimebridge",
			DistributionName:    "Rimebridge",
			DistributionCode:    "rimebridge",
			DistributionVersion: "0.1.0",
			DefaultSchema:       "luna_pinyin",
			MinLogLevel:         1,
		},
		OpenCC: OpenCCConfig{
			DataDir:       "/usr/share/opencc",
			DefaultConfig: "s2t.json",
		},
		History: HistoryConfig{
			Enabled: true,
			Path:    filepath.Join(dataDir, "history.db"),
			Limit:   10000,
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "text",
			Output:     "stderr",
			FilePath:   filepath.Join(dataDir, "logs", "rimebridge.log"),
			MaxSizeMB:  10,
			MaxBackups: 5,
			MaxAgeDays: 14,
			RedactText: true,
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Listen:  "127.0.0.1:9465",
		},
		IBus: IBusConfig{
			BusName:       "org.freedesktop.IBus.Rimebridge",
			EngineName:    "rimebridge",
			ComponentPath: "/usr/share/ibus/component/rimebridge.xml",
			Layout:        "us",
		},
	}
}

// ConfigDir returns $XDG_CONFIG_HOME/rimebridge.
func ConfigDir() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "rimebridge")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "rimebridge")
}

// DataDir returns $XDG_DATA_HOME/rimebridge.
func DataDir() string {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, "rimebridge")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "share", "rimebridge")
}

// ConfigPath returns the default configuration file path.
func ConfigPath() string {
	return filepath.Join(ConfigDir(), "config.toml")
}

// Load reads, overrides from the environment, and validates the file at path.
// A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg, err := loadConfigFromFile(path)
	if err != nil {
		return nil, err
	}
	cfg.ApplyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes cfg to path as TOML.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(c); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Validate runs schema and semantic validation.
func (c *Config) Validate() error {
	return ValidateConfig(c)
}

// Clone returns a deep copy of the configuration.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}

// EnsureDirectories creates the directories the configuration writes into.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.Rime.UserDataDir, c.Rime.LogDir}
	if c.History.Enabled {
		dirs = append(dirs, filepath.Dir(c.History.Path))
	}
	if c.Logging.Output == "file" || c.Logging.Output == "both" {
		dirs = append(dirs, filepath.Dir(c.Logging.FilePath))
	}
	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(expandPath(dir), 0750); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return nil
}

// ApplyEnvOverrides applies RIMEBRIDGE_* environment variables.
func (c *Config) ApplyEnvOverrides() {
	str := func(name string, dst *string) {
		if v := os.Getenv(EnvPrefix + name); v != "" {
			*dst = v
		}
	}
	boolean := func(name string, dst *bool) {
		if v := os.Getenv(EnvPrefix + name); v != "" {
			if b, err := strconv.ParseBool(v); err == nil {
				*dst = b
			}
		}
	}
	integer := func(name string, dst *int) {
		if v := os.Getenv(EnvPrefix + name); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				*dst = n
			}
		}
	}

	str("SHARED_DATA_DIR", &c.Rime.SharedDataDir)
	str("USER_DATA_DIR", &c.Rime.UserDataDir)
	str("RIME_LOG_DIR", &c.Rime.LogDir)
	str("DEFAULT_SCHEMA", &c.Rime.DefaultSchema)
	integer("MIN_LOG_LEVEL", &c.Rime.MinLogLevel)

	str("OPENCC_DATA_DIR", &c.OpenCC.DataDir)
	str("OPENCC_CONFIG", &c.OpenCC.DefaultConfig)

	boolean("HISTORY_ENABLED", &c.History.Enabled)
	str("HISTORY_PATH", &c.History.Path)
	integer("HISTORY_LIMIT", &c.History.Limit)

	if v := os.Getenv(EnvPrefix + "LOG_LEVEL"); v != "" {
		c.Logging.Level = strings.ToLower(v)
	}
	str("LOG_FORMAT", &c.Logging.Format)
	str("LOG_OUTPUT", &c.Logging.Output)
	str("LOG_FILE", &c.Logging.FilePath)
	boolean("LOG_REDACT", &c.Logging.RedactText)

	boolean("METRICS_ENABLED", &c.Metrics.Enabled)
	str("METRICS_LISTEN", &c.Metrics.Listen)

	str("IBUS_ENGINE", &c.IBus.EngineName)
	str("IBUS_COMPONENT", &c.IBus.ComponentPath)
}

func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}
