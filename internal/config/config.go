// Package config handles loading project configuration from files.
//
// Configuration can be specified in a JSON file named shadercross.json or
// .shadercrossrc. The config file is searched for in the current directory
// and parent directories.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"slices"

	"github.com/HugoDaniel/shadercross/internal/generator"
	"github.com/HugoDaniel/shadercross/internal/preprocess"
)

// Config represents the configuration file structure.
// All fields are optional and will use default values if not specified.
type Config struct {
	// Targets lists the output languages: "hlsl", "glsl", "metal"
	Targets []string `json:"targets,omitempty"`

	// OutDir is where blobs and per-stage sources are written
	OutDir string `json:"outDir,omitempty"`

	// DumpDefault also emits the default dialect, mostly for debugging
	DumpDefault *bool `json:"dumpDefault,omitempty"`

	// Toolchain selects the C preprocessor: "none", "gcc", "clang", "msvc"
	Toolchain string `json:"toolchain,omitempty"`

	// IncludeDirs are passed to the preprocessor
	IncludeDirs []string `json:"includeDirs,omitempty"`

	// GLSLVersion is the #version of generated GLSL (default 450)
	GLSLVersion *int `json:"glslVersion,omitempty"`

	// HLSLSystemValues emits SV_ semantics in generated HLSL
	HLSLSystemValues *bool `json:"hlslSystemValues,omitempty"`

	// Jobs limits how many shaders compile at once (default: CPU count)
	Jobs *int `json:"jobs,omitempty"`

	// Reflect writes a reflection JSON file next to each shader's outputs
	Reflect *bool `json:"reflect,omitempty"`

	// dir is the directory the config was loaded from. Relative paths in
	// the file resolve against it.
	dir string
}

// ConfigFileNames are the names searched for config files, in order of preference.
var ConfigFileNames = []string{
	"shadercross.json",
	".shadercrossrc",
	".shadercrossrc.json",
}

// Settings is a resolved configuration.
type Settings struct {
	Targets     []generator.Target
	OutDir      string
	Toolchain   preprocess.Toolchain
	IncludeDirs []string
	Generator   generator.Options
	Jobs        int
	Reflect     bool
}

// DefaultTargets are generated when neither the config nor the command
// line names any.
var DefaultTargets = []string{"hlsl", "glsl", "metal"}

// Load searches for a config file starting from the given directory
// and walking up to parent directories. Returns nil if no config file is found.
func Load(startDir string) (*Config, string, error) {
	dir := startDir
	for {
		for _, name := range ConfigFileNames {
			path := filepath.Join(dir, name)
			if _, err := os.Stat(path); err == nil {
				cfg, err := LoadFile(path)
				return cfg, path, err
			}
		}

		// Move to parent directory
		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root, no config found
			return nil, "", nil
		}
		dir = parent
	}
}

// LoadFile loads configuration from a specific file path.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	cfg.dir = filepath.Dir(path)

	return &cfg, nil
}

func (c *Config) resolve(path string) string {
	if path == "" || c.dir == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(c.dir, path)
}

// MergeOptions holds command line values. Nil pointers and empty values
// mean the flag was not given.
type MergeOptions struct {
	Targets          []string
	OutDir           string
	DumpDefault      *bool
	Toolchain        string
	IncludeDirs      []string
	GLSLVersion      *int
	HLSLSystemValues *bool
	Jobs             *int
	Reflect          *bool
}

// ToSettings resolves the config with defaults for unset fields. A nil
// config yields the defaults.
func (c *Config) ToSettings() (Settings, error) {
	return c.Merge(MergeOptions{})
}

// Merge merges CLI options with config file options.
// CLI options override config file options when specified; include
// directories from both are kept, CLI ones first.
func (c *Config) Merge(cli MergeOptions) (Settings, error) {
	if c == nil {
		c = &Config{}
	}

	names := DefaultTargets
	if len(c.Targets) > 0 {
		names = c.Targets
	}
	if len(cli.Targets) > 0 {
		names = cli.Targets
	}
	targets, err := parseTargets(names)
	if err != nil {
		return Settings{}, err
	}

	dumpDefault := pick(cli.DumpDefault, c.DumpDefault, false)
	if dumpDefault && !slices.Contains(targets, generator.TargetDefault) {
		targets = append([]generator.Target{generator.TargetDefault}, targets...)
	}

	toolchainName := c.Toolchain
	if cli.Toolchain != "" {
		toolchainName = cli.Toolchain
	}
	toolchain, err := preprocess.ParseToolchain(toolchainName)
	if err != nil {
		return Settings{}, err
	}

	s := Settings{
		Targets:   targets,
		OutDir:    ".",
		Toolchain: toolchain,
		Generator: generator.Options{
			SystemValues: pick(cli.HLSLSystemValues, c.HLSLSystemValues, false),
			GLSLVersion:  pick(cli.GLSLVersion, c.GLSLVersion, 0),
		},
		Jobs:    pick(cli.Jobs, c.Jobs, runtime.NumCPU()),
		Reflect: pick(cli.Reflect, c.Reflect, false),
	}
	if c.OutDir != "" {
		s.OutDir = c.resolve(c.OutDir)
	}
	if cli.OutDir != "" {
		s.OutDir = cli.OutDir
	}

	s.IncludeDirs = append(s.IncludeDirs, cli.IncludeDirs...)
	for _, dir := range c.IncludeDirs {
		s.IncludeDirs = append(s.IncludeDirs, c.resolve(dir))
	}

	if s.Jobs < 1 {
		return Settings{}, fmt.Errorf("jobs must be at least 1, got %d", s.Jobs)
	}
	if err := generator.CheckGLSLVersion(s.Generator.GLSLVersion); err != nil {
		return Settings{}, err
	}
	return s, nil
}

func parseTargets(names []string) ([]generator.Target, error) {
	var targets []generator.Target
	for _, name := range names {
		t, err := generator.ParseTarget(name)
		if err != nil {
			return nil, err
		}
		if !slices.Contains(targets, t) {
			targets = append(targets, t)
		}
	}
	slices.Sort(targets)
	return targets, nil
}

// pick returns the first non-nil value, or def.
func pick[T any](cli, file *T, def T) T {
	if cli != nil {
		return *cli
	}
	if file != nil {
		return *file
	}
	return def
}
