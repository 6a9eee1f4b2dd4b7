package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"

	"minipy/internal/report"
	"minipy/internal/semantic"
)

// FileName is the configuration file looked up next to the analysed program.
const FileName = "minipy.toml"

// Config holds the settings read from minipy.toml.
type Config struct {
	Analysis AnalysisConfig `toml:"analysis"`
	Output   OutputConfig   `toml:"output"`

	// Path is the file the settings were read from; empty for defaults.
	Path string `toml:"-"`
}

// AnalysisConfig controls what the semantic passes see.
type AnalysisConfig struct {
	ExtraBuiltins  []string `toml:"extra_builtins"`
	ResolveImports bool     `toml:"resolve_imports"`
	// IgnoreRules lists rule names, e.g. "none-operand", whose diagnostics
	// are dropped from the report.
	IgnoreRules []string `toml:"ignore_rules"`
}

// OutputConfig controls how diagnostics are printed.
type OutputConfig struct {
	LineNumbers string `toml:"line_numbers"`
	EchoSource  bool   `toml:"echo_source"`
	Banner      bool   `toml:"banner"`
}

// Default returns the settings used when no minipy.toml exists.
func Default() *Config {
	return &Config{
		Analysis: AnalysisConfig{ExtraBuiltins: []string{}, IgnoreRules: []string{}},
		Output: OutputConfig{
			LineNumbers: string(report.LineSource),
			EchoSource:  true,
			Banner:      true,
		},
	}
}

// LineMode returns the validated output line mode.
func (c *Config) LineMode() report.LineMode {
	mode, err := report.ParseLineMode(c.Output.LineNumbers)
	if err != nil {
		return report.LineSource
	}
	return mode
}

// Ignored returns the set of rules named in analysis.ignore_rules.
func (c *Config) Ignored() map[semantic.Rule]bool {
	ignored := make(map[semantic.Rule]bool)
	for _, name := range c.Analysis.IgnoreRules {
		if r, ok := semantic.RuleByName(name); ok {
			ignored[r] = true
		}
	}
	return ignored
}

// Load reads the file at path. A missing file yields the defaults; keys not
// present in the file keep their default values.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return nil, fmt.Errorf("%s: unknown keys:\n%s", path, strict.String())
		}
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	cfg.Path = path
	return cfg, nil
}

func (c *Config) validate() error {
	if _, err := report.ParseLineMode(c.Output.LineNumbers); err != nil {
		return fmt.Errorf("output.line_numbers: %w", err)
	}
	for _, name := range c.Analysis.ExtraBuiltins {
		if name == "" {
			return fmt.Errorf("analysis.extra_builtins: empty name")
		}
	}
	for _, name := range c.Analysis.IgnoreRules {
		if _, ok := semantic.RuleByName(name); !ok {
			return fmt.Errorf("analysis.ignore_rules: unknown rule %q", name)
		}
	}
	return nil
}

// Find searches startDir and its parents for minipy.toml.
func Find(startDir string) (string, bool) {
	current := startDir
	for {
		candidate := filepath.Join(current, FileName)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, true
		}
		parent := filepath.Dir(current)
		if parent == current {
			return "", false
		}
		current = parent
	}
}

// Resolve loads the explicit path if one is given, otherwise the nearest
// minipy.toml above sourcePath, otherwise the defaults.
func Resolve(explicit, sourcePath string) (*Config, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return nil, fmt.Errorf("config file: %w", err)
		}
		return Load(explicit)
	}
	dir, err := filepath.Abs(filepath.Dir(sourcePath))
	if err != nil {
		return nil, fmt.Errorf("config search: %w", err)
	}
	if path, ok := Find(dir); ok {
		return Load(path)
	}
	return Default(), nil
}

// Save writes cfg as TOML to path.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}
	data, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
