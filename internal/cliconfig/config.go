// Package cliconfig holds the CLI configuration surface for mrcslice:
// defaults, TOML file config, MRCSLICE_* environment overrides, and the
// flag-precedence plumbing. Precedence is file < env < flags.
package cliconfig

import (
	"fmt"
	"runtime"
	"strconv"

	"github.com/voxelkit/mrcslice/internal/export"
)

// Config holds CLI configuration for mrcslice. The volume path and the
// destination directory are positional arguments and are filled in by the
// command, not by file or environment config.
type Config struct {
	MRCPath string
	DestDir string

	StartAtFrame int    // 1-indexed first frame to export
	StopAtFrame  int    // 1-indexed inclusive last frame; 0 means last frame of the stack
	Endianness   string // "big" or "native"
	Workers      int    // worker pool size; 0 means all CPUs
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		StartAtFrame: 1,
		StopAtFrame:  0,
		Endianness:   string(export.Big),
		Workers:      runtime.NumCPU(),
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.MRCPath == "" {
		return fmt.Errorf("input volume path is required")
	}
	if c.DestDir == "" {
		return fmt.Errorf("destination directory is required")
	}
	if c.StartAtFrame < 1 {
		return fmt.Errorf("start-at-frame must be at least 1, got %d", c.StartAtFrame)
	}
	if c.StopAtFrame != 0 && c.StopAtFrame < c.StartAtFrame {
		return fmt.Errorf("stop-at-frame %d is before start-at-frame %d", c.StopAtFrame, c.StartAtFrame)
	}
	if !export.Endianness(c.Endianness).Valid() {
		return fmt.Errorf("endianness must be %q or %q, got %q", export.Big, export.Native, c.Endianness)
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must not be negative, got %d", c.Workers)
	}
	return nil
}

// configSetter helps apply configuration values while respecting flag
// precedence. It only applies values if the corresponding flag hasn't been
// explicitly set.
type configSetter struct {
	changed map[string]bool
}

func newConfigSetter(changed map[string]bool) *configSetter {
	return &configSetter{changed: changed}
}

// setString sets a string value if not empty and flag not changed.
func (s *configSetter) setString(flag, value string, dst *string) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value
}

// setInt sets an int value if positive and flag not changed.
func (s *configSetter) setInt(flag string, value int, dst *int) {
	if value <= 0 || s.changed[flag] {
		return
	}
	*dst = value
}

// setIntFromString parses a string to int and sets the destination if valid.
// Used for environment variables that come as strings.
func (s *configSetter) setIntFromString(flag, value string, dst *int) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	if i <= 0 {
		return nil
	}
	*dst = i
	return nil
}
