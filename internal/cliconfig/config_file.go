package cliconfig

import (
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"
)

// FileConfig mirrors the file-configurable subset of Config.
type FileConfig struct {
	StartAtFrame int    `toml:"start_at_frame"`
	StopAtFrame  int    `toml:"stop_at_frame"`
	Endianness   string `toml:"endianness"`
	Workers      int    `toml:"workers"`
}

// LoadFileConfig reads and parses a TOML config file from the given path.
func LoadFileConfig(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	if err := toml.Unmarshal(b, &fc); err != nil {
		return fc, err
	}
	return fc, nil
}

// ApplyFileConfig applies configuration from a file to the Config struct.
// It respects flags that have been explicitly set (changed map).
func ApplyFileConfig(cfg *Config, fc FileConfig, changed map[string]bool) {
	s := newConfigSetter(changed)

	s.setInt("start-at-frame", fc.StartAtFrame, &cfg.StartAtFrame)
	s.setInt("stop-at-frame", fc.StopAtFrame, &cfg.StopAtFrame)
	s.setString("endianness", fc.Endianness, &cfg.Endianness)
	s.setInt("workers", fc.Workers, &cfg.Workers)
}

// DefaultConfigPath returns the default configuration file path,
// ~/.mrcslice/config.toml, or "" if the home directory is not accessible.
func DefaultConfigPath() string {
	if h, err := os.UserHomeDir(); err == nil {
		return filepath.Join(h, ".mrcslice", "config.toml")
	}
	return ""
}

// FileExists checks if a file exists at the given path.
func FileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}
