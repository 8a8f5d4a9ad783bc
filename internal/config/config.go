// Package config loads cargo-runner settings from TOML files.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/cargo-runner/cargo-runner/internal/catalog"
	"github.com/pelletier/go-toml/v2"
)

const (
	// DefaultTool is the external tool invoked for every job
	DefaultTool = "cargo"

	workspaceConfigPath = ".config/cargo-runner.toml"
)

// ErrInvalidCommand reports a malformed [[command]] table
var ErrInvalidCommand = errors.New("invalid command")

// Config represents the parsed configuration
type Config struct {
	Tool        string    `toml:"tool"`
	Workspace   string    `toml:"workspace"`
	Default     string    `toml:"default"`
	Release     bool      `toml:"release"`
	CargoArgs   string    `toml:"cargo_args"`
	ProgramArgs string    `toml:"program_args"`
	Commands    []Command `toml:"command"`

	// Path is the file the configuration was read from; empty for defaults
	Path string `toml:"-"`
}

// Command is an extra catalog entry
type Command struct {
	Label        string `toml:"label"`
	Subcommand   string `toml:"subcommand"`
	Group        string `toml:"group"` // primary or secondary (default)
	Release      bool   `toml:"release"`
	TrailingArgs bool   `toml:"trailing_args"`
}

// Default returns the configuration used when no file exists
func Default() *Config {
	return &Config{
		Tool:    DefaultTool,
		Default: catalog.DefaultAction,
	}
}

// UserConfigPath returns the per-user configuration file
func UserConfigPath() string {
	return filepath.Join(xdg.ConfigHome, "cargo-runner", "config.toml")
}

// SearchPaths returns the files Load tries, in order. An explicit path is
// the only candidate when given.
func SearchPaths(explicit, workspace string) []string {
	if explicit != "" {
		return []string{explicit}
	}
	var paths []string
	if workspace != "" {
		paths = append(paths, filepath.Join(workspace, workspaceConfigPath))
	}
	return append(paths, UserConfigPath())
}

// Load reads the first configuration file found. A missing file is not an
// error, except when it was named explicitly.
func Load(explicit, workspace string) (*Config, error) {
	for _, path := range SearchPaths(explicit, workspace) {
		cfg, err := Read(path)
		if err != nil {
			return nil, err
		}
		if cfg != nil {
			return cfg, nil
		}
		if explicit != "" {
			return nil, fmt.Errorf("config file not found: %s", explicit)
		}
	}
	return Default(), nil
}

// Read parses one configuration file on top of the defaults.
// Returns nil, nil if the file doesn't exist.
func Read(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	cfg := Default()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	cfg.Path = path

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the extra commands
func (c *Config) Validate() error {
	var errs []error
	for i, cmd := range c.Commands {
		if strings.TrimSpace(cmd.Subcommand) == "" {
			errs = append(errs, fmt.Errorf("%w %d: empty subcommand", ErrInvalidCommand, i+1))
			continue
		}
		if _, err := catalog.ParseGroup(cmd.Group); err != nil {
			errs = append(errs, fmt.Errorf("%w %q: %w", ErrInvalidCommand, cmd.Subcommand, err))
		}
	}
	return errors.Join(errs...)
}

// Catalog returns the built-in catalog extended with the configured commands
func (c *Config) Catalog() *catalog.Catalog {
	primary := catalog.BuiltinPrimary()
	secondary := catalog.BuiltinSecondary()

	for _, cmd := range c.Commands {
		d := catalog.Descriptor{
			Label:              cmd.Label,
			Subcommand:         strings.TrimSpace(cmd.Subcommand),
			SupportsRelease:    cmd.Release,
			AllowsTrailingArgs: cmd.TrailingArgs,
		}
		if d.Label == "" {
			d.Label = d.Subcommand
		}

		group, _ := catalog.ParseGroup(cmd.Group)
		if group == catalog.Primary {
			primary = append(primary, d)
		} else {
			secondary = append(secondary, d)
		}
	}

	return catalog.New(primary, secondary, c.Default)
}
