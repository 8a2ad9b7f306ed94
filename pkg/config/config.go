// Package config handles loading and saving rrg configuration.
//
// Configuration follows the XDG Base Directory specification:
//   - Config:  ~/.config/rrg/config.yaml
//   - State:   ~/.local/state/rrg/ (exports when no directory is configured)
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// AxisConfig controls the date axis.
type AxisConfig struct {
	MinSpanDays int `yaml:"min_span_days,omitempty"` // Axis width when every leaf date coincides
	Columns     int `yaml:"columns,omitempty"`       // Date columns shown at once in the TUI
}

// UIConfig holds UI preference settings.
type UIConfig struct {
	ShowDates  bool `yaml:"show_dates"`            // Date header above the grid
	LabelWidth int  `yaml:"label_width,omitempty"` // Tree column width in cells
}

// ExportConfig controls where exports are written.
type ExportConfig struct {
	Dir string `yaml:"dir,omitempty"`
}

// WatchConfig controls reloading when the records source changes.
type WatchConfig struct {
	Enabled    bool `yaml:"enabled"`
	DebounceMs int  `yaml:"debounce_ms,omitempty"`
}

// Config is the top-level configuration for rrg.
type Config struct {
	WorkflowID string       `yaml:"workflow_id,omitempty"`
	Source     string       `yaml:"source,omitempty"` // Records file or SQLite database
	Axis       AxisConfig   `yaml:"axis,omitempty"`
	UI         UIConfig     `yaml:"ui,omitempty"`
	Export     ExportConfig `yaml:"export,omitempty"`
	Watch      WatchConfig  `yaml:"watch,omitempty"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Axis: AxisConfig{
			MinSpanDays: 1,
			Columns:     14,
		},
		UI: UIConfig{
			ShowDates:  true,
			LabelWidth: 32,
		},
		Watch: WatchConfig{
			Enabled:    true,
			DebounceMs: 200,
		},
	}
}

// MinSpan returns the configured minimum axis span.
func (c Config) MinSpan() time.Duration {
	if c.Axis.MinSpanDays <= 0 {
		return 24 * time.Hour
	}
	return time.Duration(c.Axis.MinSpanDays) * 24 * time.Hour
}

// Debounce returns the watcher debounce duration.
func (c Config) Debounce() time.Duration {
	if c.Watch.DebounceMs <= 0 {
		return 200 * time.Millisecond
	}
	return time.Duration(c.Watch.DebounceMs) * time.Millisecond
}

// ExportDir returns the configured export directory, falling back to the
// XDG state directory.
func (c Config) ExportDir() string {
	if c.Export.Dir != "" {
		return c.Export.Dir
	}
	return StateDir()
}

// ConfigDir returns the XDG config directory for rrg.
func ConfigDir() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "rrg")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "rrg")
}

// StateDir returns the XDG state directory for rrg.
func StateDir() string {
	if dir := os.Getenv("XDG_STATE_HOME"); dir != "" {
		return filepath.Join(dir, "rrg")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".local", "state", "rrg")
}

// ConfigPath returns the full path to config.yaml.
func ConfigPath() string {
	dir := ConfigDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "config.yaml")
}

// Load reads the config file from the XDG config directory.
// Returns DefaultConfig if the file doesn't exist.
func Load() (Config, error) {
	path := ConfigPath()
	if path == "" {
		return DefaultConfig(), nil
	}
	return LoadFrom(path)
}

// LoadFrom reads config from a specific path.
// Returns DefaultConfig if the file doesn't exist.
func LoadFrom(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}

	cfg.Source = expandHome(cfg.Source)
	cfg.Export.Dir = expandHome(cfg.Export.Dir)
	if cfg.Axis.Columns <= 0 {
		cfg.Axis.Columns = DefaultConfig().Axis.Columns
	}

	return cfg, nil
}

// Save writes the config to the XDG config directory.
func Save(cfg Config) error {
	path := ConfigPath()
	if path == "" {
		return fmt.Errorf("cannot determine config directory")
	}
	return SaveTo(cfg, path)
}

// SaveTo writes the config to a specific path.
func SaveTo(cfg Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}
