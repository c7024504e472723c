// Package config loads settings shared by the command line tools.
package config

import (
	"os"
	"path/filepath"
	"runtime"

	"github.com/adrg/xdg"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/pkg/errors"
)

const appName = "pmdwan"

type Config struct {
	SearchDirs    []string    `koanf:"search_dirs"` // where to look for .wan files
	OutputDir     string      `koanf:"output_dir"`
	Scale         int         `koanf:"scale"`   // integer upscaling of exported images (default: 1)
	Workers       int         `koanf:"workers"` // parallel sprite conversions (default: number of CPUs)
	ListenAddress string      `koanf:"listen_address"`
	Print         PrintConfig `koanf:"print"`
	GIF           GIFConfig   `koanf:"gif"`
}

type PrintConfig struct {
	Mode   string `koanf:"mode"` // see imageprint.ParseMode (default: "auto")
	Blanks bool   `koanf:"blanks"`
}

type GIFConfig struct {
	Loop int `koanf:"loop"` // 0 loops forever, -1 plays once
}

// Load reads the given TOML files in order; later files override earlier
// ones. Missing files are skipped. Without arguments the default locations
// are used.
func Load(paths ...string) (*Config, error) {
	if len(paths) == 0 {
		paths = DefaultPaths()
	}
	k := koanf.New(".")
	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
			return nil, errors.Wrapf(err, "config: loading %s", path)
		}
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, errors.Wrap(err, "config: decoding")
	}
	cfg.Normalize()
	return cfg, nil
}

// DefaultPaths lists the config file locations, lowest priority first.
func DefaultPaths() []string {
	return []string{
		filepath.Join(xdg.ConfigHome, appName, "config.toml"),
		appName + ".toml",
	}
}

// DataDirs lists the default directories to search for sprites.
func DataDirs() []string {
	dirs := []string{filepath.Join(xdg.DataHome, appName)}
	for _, d := range xdg.DataDirs {
		dirs = append(dirs, filepath.Join(d, appName))
	}
	return dirs
}

// Normalize expands ~ in paths and applies defaults.
func (c *Config) Normalize() {
	for i, dir := range c.SearchDirs {
		c.SearchDirs[i] = expandPath(dir)
	}
	if len(c.SearchDirs) == 0 {
		c.SearchDirs = append([]string{"."}, DataDirs()...)
	}
	c.OutputDir = expandPath(c.OutputDir)
	if c.OutputDir == "" {
		c.OutputDir = "out"
	}
	if c.Scale <= 0 {
		c.Scale = 1
	}
	if c.Workers <= 0 {
		c.Workers = runtime.NumCPU()
	}
	if c.ListenAddress == "" {
		c.ListenAddress = ":8080"
	}
	if c.Print.Mode == "" {
		c.Print.Mode = "auto"
	}
	if c.GIF.Loop < -1 {
		c.GIF.Loop = 0
	}
}

func expandPath(path string) string {
	if path != "" && path[0] == '~' {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}
