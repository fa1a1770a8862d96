// Package config loads avrstack's yaml configuration: the safety
// multiplier, MCU RAM-table overrides, and the array-dispatch exclusion
// policy, all of which are configurable rather than baked in.
package config

import (
	"fmt"
	"os"

	"github.com/cosiner/argv"
	"gopkg.in/yaml.v3"

	"github.com/mranakol/avrstack/pkg/mcu"
)

// DefaultSafetyMultiplier is the conservative margin applied to raw_max
// when no config overrides it.
const DefaultSafetyMultiplier = 1.10

// MCUOverride is one yaml-configured target entry.
type MCUOverride struct {
	Name     string `yaml:"name"`
	RAMSize  int    `yaml:"ram_size"`
	RAMStart int    `yaml:"ram_start"`
	StackTop int    `yaml:"stack_top"`
}

// Config is avrstack's top-level configuration file shape.
type Config struct {
	SafetyMultiplier  float64       `yaml:"safety_multiplier"`
	MCUOverrides      []MCUOverride `yaml:"mcu_overrides"`
	PolicyScript      string        `yaml:"policy_script"`
	CompilerFlags     string        `yaml:"compiler_flags"`
	OptimizationLevel string        `yaml:"optimization_level"`
}

// Default returns a Config with spec-mandated defaults.
func Default() Config {
	return Config{
		SafetyMultiplier:  DefaultSafetyMultiplier,
		OptimizationLevel: "-O0",
	}
}

// Load reads and parses a yaml config file, filling in defaults for any
// zero-valued field.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("config: reading %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	if cfg.SafetyMultiplier == 0 {
		cfg.SafetyMultiplier = DefaultSafetyMultiplier
	}
	if cfg.OptimizationLevel == "" {
		cfg.OptimizationLevel = "-O0"
	}
	return cfg, nil
}

// ApplyMCUOverrides merges the config's target entries into t.
func (c Config) ApplyMCUOverrides(t *mcu.Table) {
	for _, o := range c.MCUOverrides {
		t.Add(o.Name, mcu.Properties{RAMSize: o.RAMSize, RAMStart: o.RAMStart, StackTop: o.StackTop})
	}
}

// SplitCompilerFlags tokenizes CompilerFlags the way a shell would,
// honoring quoting, so a flag like `-DNAME="a b"` survives intact. Uses
// argv instead of a naive strings.Fields split.
func (c Config) SplitCompilerFlags() ([]string, error) {
	if c.CompilerFlags == "" {
		return nil, nil
	}
	groups, err := argv.Argv([]rune(c.CompilerFlags), nil, nil)
	if err != nil {
		return nil, fmt.Errorf("config: splitting compiler_flags: %w", err)
	}
	var flags []string
	for _, g := range groups {
		flags = append(flags, g...)
	}
	return flags, nil
}
