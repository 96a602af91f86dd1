// Package config loads, validates, and hot-reloads the response-governance
// configuration.
//
// Readers always see an immutable, fully-validated snapshot. A background
// watcher replaces the snapshot wholesale when the backing file changes; a
// malformed edit is rejected and the previous snapshot stays authoritative,
// so a bad deploy of the config file can never disable the service.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Defaults applied when the config file omits a key.
const (
	DefaultOutputTokenThreshold = 4000
	DefaultHardOutputTokenCap   = 16000
	DefaultPageSize             = 20
	DefaultMaxPageSize          = 200
)

// Settings holds fully-resolved governance settings, either global or
// effective for a single endpoint.
type Settings struct {
	// OutputTokenThreshold is the estimated token count above which
	// summarization kicks in (the soft threshold).
	OutputTokenThreshold int `json:"outputTokenThreshold" yaml:"outputTokenThreshold"`

	// HardOutputTokenCap is the estimated token count no single response
	// may exceed.
	HardOutputTokenCap int `json:"hardOutputTokenCap" yaml:"hardOutputTokenCap"`

	// DefaultPageSize is the page size used when a request does not ask
	// for one.
	DefaultPageSize int `json:"defaultPageSize" yaml:"defaultPageSize"`

	// MaxPageSize is the largest page size a request may ask for.
	MaxPageSize int `json:"maxPageSize" yaml:"maxPageSize"`

	// EnableSummarization toggles single-object summarization.
	EnableSummarization bool `json:"enableSummarization" yaml:"enableSummarization"`

	// EnablePagination toggles list pagination.
	EnablePagination bool `json:"enablePagination" yaml:"enablePagination"`
}

// Override is a partial per-endpoint configuration. Nil fields inherit the
// global value; set fields take precedence field-by-field.
type Override struct {
	OutputTokenThreshold *int  `yaml:"outputTokenThreshold,omitempty"`
	HardOutputTokenCap   *int  `yaml:"hardOutputTokenCap,omitempty"`
	DefaultPageSize      *int  `yaml:"defaultPageSize,omitempty"`
	MaxPageSize          *int  `yaml:"maxPageSize,omitempty"`
	EnableSummarization  *bool `yaml:"enableSummarization,omitempty"`
	EnablePagination     *bool `yaml:"enablePagination,omitempty"`
}

// apply returns base with the override's set fields applied.
func (o Override) apply(base Settings) Settings {
	if o.OutputTokenThreshold != nil {
		base.OutputTokenThreshold = *o.OutputTokenThreshold
	}
	if o.HardOutputTokenCap != nil {
		base.HardOutputTokenCap = *o.HardOutputTokenCap
	}
	if o.DefaultPageSize != nil {
		base.DefaultPageSize = *o.DefaultPageSize
	}
	if o.MaxPageSize != nil {
		base.MaxPageSize = *o.MaxPageSize
	}
	if o.EnableSummarization != nil {
		base.EnableSummarization = *o.EnableSummarization
	}
	if o.EnablePagination != nil {
		base.EnablePagination = *o.EnablePagination
	}
	return base
}

// fileConfig is the on-disk shape. All global keys are optional; absent
// keys fall back to defaults.
type fileConfig struct {
	OutputTokenThreshold *int                `yaml:"outputTokenThreshold"`
	HardOutputTokenCap   *int                `yaml:"hardOutputTokenCap"`
	DefaultPageSize      *int                `yaml:"defaultPageSize"`
	MaxPageSize          *int                `yaml:"maxPageSize"`
	EnableSummarization  *bool               `yaml:"enableSummarization"`
	EnablePagination     *bool               `yaml:"enablePagination"`
	Endpoints            map[string]Override `yaml:"endpoints"`
}

// Snapshot is an immutable, validated view of the configuration. Callers
// holding a snapshot are unaffected by concurrent reloads.
type Snapshot struct {
	global    Settings
	overrides map[string]Override
}

// Global returns the global default settings.
func (s *Snapshot) Global() Settings {
	return s.global
}

// Resolve returns the effective settings for an endpoint: global defaults
// overridden field-by-field by the endpoint's override entry, if any.
func (s *Snapshot) Resolve(endpoint string) Settings {
	if o, ok := s.overrides[endpoint]; ok {
		return o.apply(s.global)
	}
	return s.global
}

// Endpoints returns the endpoint paths that carry overrides.
func (s *Snapshot) Endpoints() []string {
	if len(s.overrides) == 0 {
		return nil
	}
	paths := make([]string, 0, len(s.overrides))
	for p := range s.overrides {
		paths = append(paths, p)
	}
	return paths
}

// DefaultSettings returns the built-in global defaults.
func DefaultSettings() Settings {
	return Settings{
		OutputTokenThreshold: DefaultOutputTokenThreshold,
		HardOutputTokenCap:   DefaultHardOutputTokenCap,
		DefaultPageSize:      DefaultPageSize,
		MaxPageSize:          DefaultMaxPageSize,
		EnableSummarization:  true,
		EnablePagination:     true,
	}
}

// DefaultSnapshot returns a snapshot of the built-in defaults with no
// endpoint overrides.
func DefaultSnapshot() *Snapshot {
	return &Snapshot{global: DefaultSettings()}
}

// Parse builds a validated snapshot from raw YAML.
func Parse(data []byte) (*Snapshot, error) {
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("failed to parse governance config: %w", err)
	}

	global := Override{
		OutputTokenThreshold: fc.OutputTokenThreshold,
		HardOutputTokenCap:   fc.HardOutputTokenCap,
		DefaultPageSize:      fc.DefaultPageSize,
		MaxPageSize:          fc.MaxPageSize,
		EnableSummarization:  fc.EnableSummarization,
		EnablePagination:     fc.EnablePagination,
	}.apply(DefaultSettings())

	snapshot := &Snapshot{
		global:    global,
		overrides: fc.Endpoints,
	}

	if err := validate("global", global); err != nil {
		return nil, err
	}
	for endpoint, o := range fc.Endpoints {
		if err := validate(endpoint, o.apply(global)); err != nil {
			return nil, err
		}
	}

	return snapshot, nil
}

// Load reads and parses the config file at path.
func Load(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read governance config: %w", err)
	}
	return Parse(data)
}

// validate checks the invariants every effective configuration must hold.
func validate(scope string, s Settings) error {
	if s.OutputTokenThreshold <= 0 {
		return fmt.Errorf("%s: outputTokenThreshold must be positive, got %d", scope, s.OutputTokenThreshold)
	}
	if s.HardOutputTokenCap <= s.OutputTokenThreshold {
		return fmt.Errorf("%s: hardOutputTokenCap (%d) must exceed outputTokenThreshold (%d)",
			scope, s.HardOutputTokenCap, s.OutputTokenThreshold)
	}
	if s.DefaultPageSize < 1 {
		return fmt.Errorf("%s: defaultPageSize must be at least 1, got %d", scope, s.DefaultPageSize)
	}
	if s.MaxPageSize < s.DefaultPageSize {
		return fmt.Errorf("%s: maxPageSize (%d) must be at least defaultPageSize (%d)",
			scope, s.MaxPageSize, s.DefaultPageSize)
	}
	return nil
}
