// Package config loads the guidance option table (section 6 of the
// design) from an on-disk YAML file, with a gjson-based override path for
// ad hoc `--set` JSON-fragment patches applied after loading.
//
// Grounded on shwoo03-Project/smart web fuzzer's own internal/config, which
// parsed a YAML file into a struct with yaml.v3 tags; the override path is
// grounded on the teacher's own gjson usage in internal/scenario/parser.go
// and internal/crawler/openapi.go, repurposed here from flow/response
// parsing to config-file patching.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/tidwall/gjson"
	"gopkg.in/yaml.v3"

	"github.com/neu-se/covguide/internal/guidance"
)

// Config mirrors the recognized options table exactly.
type Config struct {
	EnableExecutionIndexing bool          `yaml:"enable_execution_indexing"`
	SaveOnlyValid           bool          `yaml:"save_only_valid"`
	MaxInputSize            int           `yaml:"max_input_size"`
	GenerateEOFWhenOut      bool          `yaml:"generate_eof_when_out"`
	SpliceSubtree           bool          `yaml:"splice_subtree"`
	StealResponsibility     bool          `yaml:"steal_responsibility"`
	TotallyRandom           bool          `yaml:"totally_random"`
	TimeoutMillis           int           `yaml:"timeout_ms"`
	MaxDuration             time.Duration `yaml:"max_duration"`
	SeedDir                 string        `yaml:"seed_dir"`
	OutputDir               string        `yaml:"output_dir"`
	Seed                    int64         `yaml:"seed"`
	Verbose                 int           `yaml:"verbose"`
}

// Default returns the documented defaults: MAX_INPUT_SIZE=10240, all
// boolean options off, no per-run timeout.
func Default() *Config {
	return &Config{
		MaxInputSize: 10240,
		MaxDuration:  time.Hour,
		OutputDir:    "./covguide-out",
	}
}

// Load reads a YAML config file at path into a fresh Config seeded with
// Default's values, so an absent field falls back to its documented
// default rather than the zero value.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}

// ApplyOverride patches cfg in place from a single JSON-fragment override,
// e.g. `{"steal_responsibility": true}`, read through gjson so ad hoc CLI
// overrides need no second config grammar. Unknown paths are silently
// ignored, matching the teacher's own permissive scenario-override parser.
func ApplyOverride(cfg *Config, fragment string) {
	result := gjson.Parse(fragment)
	if !result.IsObject() {
		return
	}
	result.ForEach(func(key, value gjson.Result) bool {
		switch key.String() {
		case "enable_execution_indexing":
			cfg.EnableExecutionIndexing = value.Bool()
		case "save_only_valid":
			cfg.SaveOnlyValid = value.Bool()
		case "max_input_size":
			cfg.MaxInputSize = int(value.Int())
		case "generate_eof_when_out":
			cfg.GenerateEOFWhenOut = value.Bool()
		case "splice_subtree":
			cfg.SpliceSubtree = value.Bool()
		case "steal_responsibility":
			cfg.StealResponsibility = value.Bool()
		case "totally_random":
			cfg.TotallyRandom = value.Bool()
		case "timeout_ms":
			cfg.TimeoutMillis = int(value.Int())
		case "max_duration":
			if d, err := time.ParseDuration(value.String()); err == nil {
				cfg.MaxDuration = d
			}
		case "seed_dir":
			cfg.SeedDir = value.String()
		case "output_dir":
			cfg.OutputDir = value.String()
		case "seed":
			cfg.Seed = value.Int()
		case "verbose":
			cfg.Verbose = int(value.Int())
		}
		return true
	})
}

// ToGuidanceConfig translates the loaded option table into the
// internal/guidance.Config the fuzzer itself consumes.
func (c *Config) ToGuidanceConfig() guidance.Config {
	return guidance.Config{
		EnableExecutionIndexing: c.EnableExecutionIndexing,
		SaveOnlyValid:           c.SaveOnlyValid,
		MaxInputSize:            c.MaxInputSize,
		GenerateEOFWhenOut:      c.GenerateEOFWhenOut,
		SpliceSubtree:           c.SpliceSubtree,
		StealResponsibility:     c.StealResponsibility,
		TotallyRandom:           c.TotallyRandom,
		PerRunTimeout:           time.Duration(c.TimeoutMillis) * time.Millisecond,
		MaxDuration:             c.MaxDuration,
		SeedDir:                 c.SeedDir,
		OutputDir:               c.OutputDir,
		Seed:                    c.Seed,
	}
}
