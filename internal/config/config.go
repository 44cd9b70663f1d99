// Package config carries the server's scan policy and settings.
//
// Precedence: defaults, then an optional amblels.yaml in the workspace
// root, then LSP initializationOptions. Only fields present in a source
// overwrite the previous layer.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// FileName is the optional per-workspace config file.
const FileName = "amblels.yaml"

type ScanConfig struct {
	// Recursive walks the whole subtree under the scan root instead of a
	// single directory. Off by default: the workspace unit is one
	// directory of world files.
	Recursive   bool     `yaml:"recursive"    json:"recursive"`
	IgnoredDirs []string `yaml:"ignored_dirs" json:"ignored_dirs"`
	Extension   string   `yaml:"extension"    json:"extension"`
}

type LogConfig struct {
	File string `yaml:"file" json:"file"`
}

type Config struct {
	Scan ScanConfig `yaml:"scan" json:"scan"`
	Log  LogConfig  `yaml:"log"  json:"log"`
}

func Default() Config {
	return Config{
		Scan: ScanConfig{
			Recursive:   false,
			IgnoredDirs: []string{".git", "node_modules", "target", "dist", "build"},
			Extension:   ".amble",
		},
		Log: LogConfig{
			File: filepath.Join(os.TempDir(), "amblels", "amblels.log"),
		},
	}
}

// Load reads the workspace config file under root, if one exists.
func Load(root string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(filepath.Join(root, FileName))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read %s: %w", FileName, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Default(), fmt.Errorf("parse %s: %w", FileName, err)
	}
	return cfg.normalized(), nil
}

// Overlay applies LSP initializationOptions on top of the config. The
// options arrive as decoded JSON of unknown shape; fields present there
// overwrite, everything else stays.
func (c Config) Overlay(options any) (Config, error) {
	if options == nil {
		return c, nil
	}
	data, err := json.Marshal(options)
	if err != nil {
		return c, fmt.Errorf("marshal initialization options: %w", err)
	}
	cfg := c
	if err := json.Unmarshal(data, &cfg); err != nil {
		return c, fmt.Errorf("apply initialization options: %w", err)
	}
	return cfg.normalized(), nil
}

func (c Config) normalized() Config {
	if c.Scan.Extension == "" {
		c.Scan.Extension = ".amble"
	}
	if c.Scan.Extension[0] != '.' {
		c.Scan.Extension = "." + c.Scan.Extension
	}
	return c
}

// IgnoreDir reports whether a directory name is excluded from recursive
// scans.
func (c Config) IgnoreDir(name string) bool {
	for _, ignored := range c.Scan.IgnoredDirs {
		if name == ignored {
			return true
		}
	}
	return false
}
