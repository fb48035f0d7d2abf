// Package config loads bundlekit.yaml and environment overrides.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/dosanma1/bundlekit/internal/compose"
	"github.com/dosanma1/bundlekit/internal/compiler"
	"github.com/dosanma1/bundlekit/internal/declaration"
	"github.com/dosanma1/bundlekit/internal/toolchain"
	"github.com/dosanma1/bundlekit/internal/watch"
	"github.com/dosanma1/bundlekit/internal/workspace"
)

const (
	// EnvPrefix prefixes every environment override, e.g. BUNDLEKIT_DEFAULT_TARGET.
	EnvPrefix = "BUNDLEKIT"

	// DefaultTarget is built by the watch command when no target is named.
	DefaultTarget = "falcon"

	// DefaultDebounce coalesces bursts of file events during watch.
	DefaultDebounce = 100 * time.Millisecond
)

// Config represents the bundlekit.yaml configuration file.
type Config struct {
	// PackagesDir is relative to the workspace root.
	PackagesDir string `yaml:"packages_dir" mapstructure:"packages_dir"`

	// Order lists packages that must build first, in this order.
	Order []string `yaml:"order,omitempty" mapstructure:"order"`

	DefaultTarget string `yaml:"default_target" mapstructure:"default_target"`

	// Browserslist is the legacy bundle query for packages that declare none.
	Browserslist string `yaml:"browserslist" mapstructure:"browserslist"`

	// Entry is the source entry point relative to each package root.
	Entry string `yaml:"entry" mapstructure:"entry"`

	Compiler     CompilerConfig     `yaml:"compiler" mapstructure:"compiler"`
	TypeCheck    ToolConfig         `yaml:"type_check" mapstructure:"type_check"`
	Declarations DeclarationsConfig `yaml:"declarations" mapstructure:"declarations"`
	Watch        WatchConfig        `yaml:"watch" mapstructure:"watch"`
}

// CompilerConfig selects and configures the compiler backend.
type CompilerConfig struct {
	Backend string   `yaml:"backend" mapstructure:"backend"`
	Command string   `yaml:"command,omitempty" mapstructure:"command"`
	Args    []string `yaml:"args,omitempty" mapstructure:"args"`
	// Polyfills is injected into legacy browser bundles by the esbuild backend.
	Polyfills string `yaml:"polyfills,omitempty" mapstructure:"polyfills"`
}

// ToolConfig is an external command line.
type ToolConfig struct {
	Command string   `yaml:"command" mapstructure:"command"`
	Args    []string `yaml:"args,omitempty" mapstructure:"args"`
}

// Tool converts the configuration into a runnable toolchain.Tool.
func (t ToolConfig) Tool() toolchain.Tool {
	return toolchain.Tool{Command: t.Command, Args: t.Args}
}

// DeclarationsConfig configures the declaration rollup.
type DeclarationsConfig struct {
	ToolConfig   `yaml:",inline" mapstructure:",squash"`
	FragmentsDir string `yaml:"fragments_dir" mapstructure:"fragments_dir"`
}

// WatchConfig configures watch sessions.
type WatchConfig struct {
	Debounce time.Duration `yaml:"debounce" mapstructure:"debounce"`
	// Ignore holds glob patterns matched against each path component below src.
	Ignore []string `yaml:"ignore,omitempty" mapstructure:"ignore"`
}

// Default returns the built-in configuration.
func Default() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

// Load reads the configuration. file may be empty, in which case bundlekit.yaml in
// root is used when present. A .env file in root is loaded into the environment
// first, without overriding variables that are already set.
func Load(v *viper.Viper, root, file string) (*Config, error) {
	if err := godotenv.Load(filepath.Join(root, ".env")); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if file == "" {
		candidate := filepath.Join(root, workspace.ConfigFileName)
		if _, err := os.Stat(candidate); err == nil {
			file = candidate
		}
	}
	if file != "" {
		v.SetConfigFile(file)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// setDefaults registers every key so AutomaticEnv can override keys absent from the file.
func setDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("packages_dir", d.PackagesDir)
	v.SetDefault("order", d.Order)
	v.SetDefault("default_target", d.DefaultTarget)
	v.SetDefault("browserslist", d.Browserslist)
	v.SetDefault("entry", d.Entry)
	v.SetDefault("compiler.backend", d.Compiler.Backend)
	v.SetDefault("compiler.command", d.Compiler.Command)
	v.SetDefault("compiler.args", d.Compiler.Args)
	v.SetDefault("compiler.polyfills", d.Compiler.Polyfills)
	v.SetDefault("type_check.command", d.TypeCheck.Command)
	v.SetDefault("type_check.args", d.TypeCheck.Args)
	v.SetDefault("declarations.command", d.Declarations.Command)
	v.SetDefault("declarations.args", d.Declarations.Args)
	v.SetDefault("declarations.fragments_dir", d.Declarations.FragmentsDir)
	v.SetDefault("watch.debounce", d.Watch.Debounce)
	v.SetDefault("watch.ignore", d.Watch.Ignore)
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.PackagesDir == "" {
		return fmt.Errorf("packages_dir is required")
	}
	if filepath.IsAbs(c.PackagesDir) {
		return fmt.Errorf("packages_dir must be relative to the workspace root")
	}

	switch c.Compiler.Backend {
	case compiler.EsbuildName:
	case compiler.ExecName:
		if c.Compiler.Command == "" {
			return fmt.Errorf("compiler.command is required for the %s backend", compiler.ExecName)
		}
	default:
		return fmt.Errorf("unknown compiler.backend %q", c.Compiler.Backend)
	}

	seen := make(map[string]bool)
	for _, name := range c.Order {
		if seen[name] {
			return fmt.Errorf("duplicate package in order: %s", name)
		}
		seen[name] = true
	}

	if c.Watch.Debounce < 0 {
		return fmt.Errorf("watch.debounce must not be negative")
	}
	for _, pattern := range c.Watch.Ignore {
		if _, err := filepath.Match(pattern, ""); err != nil {
			return fmt.Errorf("watch.ignore: bad pattern %q", pattern)
		}
	}
	return nil
}

// applyDefaults sets default values for missing fields.
func (c *Config) applyDefaults() {
	if c.PackagesDir == "" {
		c.PackagesDir = workspace.DefaultPackagesDir
	}
	if c.DefaultTarget == "" {
		c.DefaultTarget = DefaultTarget
	}
	if c.Browserslist == "" {
		c.Browserslist = compose.DefaultBrowserslist
	}
	if c.Entry == "" {
		c.Entry = compose.DefaultEntry
	}
	if c.Compiler.Backend == "" {
		c.Compiler.Backend = compiler.EsbuildName
	}
	if c.TypeCheck.Command == "" {
		c.TypeCheck.Command = toolchain.DefaultTypeCheck.Command
		c.TypeCheck.Args = toolchain.DefaultTypeCheck.Args
	}
	if c.Declarations.Command == "" {
		c.Declarations.Command = declaration.DefaultTool.Command
		c.Declarations.Args = declaration.DefaultTool.Args
	}
	if c.Declarations.FragmentsDir == "" {
		c.Declarations.FragmentsDir = declaration.DefaultFragmentsDir
	}
	if c.Watch.Debounce == 0 {
		c.Watch.Debounce = DefaultDebounce
	}
	if len(c.Watch.Ignore) == 0 {
		c.Watch.Ignore = append([]string(nil), watch.DefaultIgnore...)
	}
}
