// Package hooks runs user commands around rerun request exports.
// Hooks are configured via .rrg/hooks.yaml and run before the request
// is written (pre-export) and after it lands on disk (post-export).
package hooks

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// HookPhase represents when a hook runs
type HookPhase string

const (
	// PreExport runs before the request is written. Failure cancels the export.
	PreExport HookPhase = "pre-export"
	// PostExport runs after the request is written. Failure is reported but the file stays.
	PostExport HookPhase = "post-export"
)

// Hook defines a single hook configuration
type Hook struct {
	Name    string            `yaml:"name" json:"name"`
	Command string            `yaml:"command" json:"command"`
	Timeout time.Duration     `yaml:"timeout,omitempty" json:"timeout,omitempty"`
	Env     map[string]string `yaml:"env,omitempty" json:"env,omitempty"`
	OnError string            `yaml:"on_error,omitempty" json:"on_error,omitempty"` // "fail" or "continue"
}

// Config holds all hook configurations
type Config struct {
	Hooks HooksByPhase `yaml:"hooks" json:"hooks"`
}

// HooksByPhase organizes hooks by their execution phase
type HooksByPhase struct {
	PreExport  []Hook `yaml:"pre-export,omitempty" json:"pre-export,omitempty"`
	PostExport []Hook `yaml:"post-export,omitempty" json:"post-export,omitempty"`
}

// ExportContext is passed to hooks as environment variables.
type ExportContext struct {
	RequestPath   string    // RRG_REQUEST_PATH
	WorkflowID    string    // RRG_WORKFLOW_ID
	ExcludedCount int       // RRG_EXCLUDED_COUNT
	Timestamp     time.Time // RRG_TIMESTAMP (RFC3339)
}

// ToEnv converts export context to environment variables
func (c ExportContext) ToEnv() []string {
	return []string{
		fmt.Sprintf("RRG_REQUEST_PATH=%s", c.RequestPath),
		fmt.Sprintf("RRG_WORKFLOW_ID=%s", c.WorkflowID),
		fmt.Sprintf("RRG_EXCLUDED_COUNT=%d", c.ExcludedCount),
		fmt.Sprintf("RRG_TIMESTAMP=%s", c.Timestamp.UTC().Format(time.RFC3339)),
	}
}

// DefaultTimeout is the default hook execution timeout
const DefaultTimeout = 30 * time.Second

// Loader loads hook configuration from .rrg/hooks.yaml
type Loader struct {
	projectDir string
	config     *Config
	warnings   []string
}

// LoaderOption configures the loader
type LoaderOption func(*Loader)

// WithProjectDir sets the project directory (default: current directory)
func WithProjectDir(dir string) LoaderOption {
	return func(l *Loader) {
		l.projectDir = dir
	}
}

// NewLoader creates a new hook loader with options
func NewLoader(opts ...LoaderOption) *Loader {
	l := &Loader{}
	for _, opt := range opts {
		opt(l)
	}
	if l.projectDir == "" {
		l.projectDir, _ = os.Getwd()
	}
	return l
}

// Path returns the hooks file the loader reads.
func (l *Loader) Path() string {
	return filepath.Join(l.projectDir, ".rrg", "hooks.yaml")
}

// Load reads the hooks file. A missing file loads an empty config.
func (l *Loader) Load() error {
	configPath := l.Path()

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			l.config = &Config{}
			return nil
		}
		return fmt.Errorf("reading hooks config: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return fmt.Errorf("parsing %s: %w", configPath, err)
	}

	config.Hooks.PreExport, l.warnings = normalizeHooks(config.Hooks.PreExport, PreExport, l.warnings)
	config.Hooks.PostExport, l.warnings = normalizeHooks(config.Hooks.PostExport, PostExport, l.warnings)

	l.config = &config
	return nil
}

// onErrorDefault is the on_error policy for hooks that leave it unset.
var onErrorDefault = map[HookPhase]string{
	PreExport:  "fail",
	PostExport: "continue",
}

// normalizeHooks fills defaults and drops hooks without a command. Dropped
// hooks are reported in warnings.
func normalizeHooks(hooks []Hook, phase HookPhase, warnings []string) ([]Hook, []string) {
	out := hooks[:0]
	for i, h := range hooks {
		if strings.TrimSpace(h.Command) == "" {
			warnings = append(warnings, fmt.Sprintf("%s hook %d has empty command; skipping", phase, i+1))
			continue
		}
		if h.Name == "" {
			h.Name = fmt.Sprintf("%s-%d", phase, i+1)
		}
		if h.Timeout == 0 {
			h.Timeout = DefaultTimeout
		}
		if h.OnError == "" {
			h.OnError = onErrorDefault[phase]
		}
		out = append(out, h)
	}
	if len(out) == 0 {
		return nil, warnings
	}
	return out, warnings
}

// Config returns the loaded configuration, empty before Load.
func (l *Loader) Config() *Config {
	if l.config == nil {
		return &Config{}
	}
	return l.config
}

// HasHooks reports whether any phase has a hook.
func (l *Loader) HasHooks() bool {
	return len(l.GetHooks(PreExport))+len(l.GetHooks(PostExport)) > 0
}

// GetHooks returns the hooks of phase, or nil for an unknown phase.
func (l *Loader) GetHooks(phase HookPhase) []Hook {
	return l.Config().Hooks.forPhase(phase)
}

func (h HooksByPhase) forPhase(phase HookPhase) []Hook {
	switch phase {
	case PreExport:
		return h.PreExport
	case PostExport:
		return h.PostExport
	}
	return nil
}

// Warnings returns any warnings from loading
func (l *Loader) Warnings() []string {
	return l.warnings
}

// LoadDefault creates a loader for the current directory and loads it.
func LoadDefault() (*Loader, error) {
	loader := NewLoader()
	if err := loader.Load(); err != nil {
		return nil, err
	}
	return loader, nil
}

// UnmarshalYAML accepts timeouts as durations ("5s") or bare seconds ("30").
func (h *Hook) UnmarshalYAML(node *yaml.Node) error {
	// Keep in sync with Hook; only Timeout differs.
	type hookDTO struct {
		Name    string            `yaml:"name"`
		Command string            `yaml:"command"`
		Timeout string            `yaml:"timeout,omitempty"`
		Env     map[string]string `yaml:"env,omitempty"`
		OnError string            `yaml:"on_error,omitempty"`
	}

	var dto hookDTO
	if err := node.Decode(&dto); err != nil {
		return err
	}

	h.Name = dto.Name
	h.Command = dto.Command
	h.Env = dto.Env
	h.OnError = dto.OnError

	if dto.Timeout == "" {
		return nil
	}
	d, err := parseTimeout(dto.Timeout)
	if err != nil {
		return err
	}
	h.Timeout = d
	return nil
}

// parseTimeout reads "5s"-style durations, or bare numbers as seconds since
// YAML hands "timeout: 30" over as the string "30".
func parseTimeout(raw string) (time.Duration, error) {
	if d, err := time.ParseDuration(raw); err == nil {
		return d, nil
	}
	seconds, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid timeout %q: want a duration like 30s", raw)
	}
	return time.Duration(seconds * float64(time.Second)), nil
}
