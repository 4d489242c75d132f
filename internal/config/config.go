package config

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config is the optional ferry configuration file.
type Config struct {
	Defaults DefaultsConfig `toml:"defaults"`
}

// DefaultsConfig holds persistent flag defaults. Pointer fields distinguish
// unset from an explicit false or zero.
type DefaultsConfig struct {
	Jobs     *int    `toml:"jobs"`
	Verify   *bool   `toml:"verify"`
	Preserve *bool   `toml:"preserve"`
	Fsync    *bool   `toml:"fsync"`
	Progress *bool   `toml:"progress"`
	BWLimit  *string `toml:"bwlimit"`
}

// Path returns the config file location, rooted at $XDG_CONFIG_HOME with
// the usual ~/.config fallback. Empty when no home can be resolved.
func Path() string {
	if base := os.Getenv("XDG_CONFIG_HOME"); base != "" {
		return filepath.Join(base, "ferry", "config.toml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "ferry", "config.toml")
}

// Load reads the config file at Path. The file is always optional: a
// missing file, like an unresolvable location, yields a zero Config.
func Load() (Config, error) {
	return LoadFile(Path())
}

// LoadFile reads one TOML config file. A missing file is not an error.
func LoadFile(path string) (Config, error) {
	var cfg Config
	if path == "" {
		return cfg, nil
	}

	_, err := toml.DecodeFile(path, &cfg)
	switch {
	case err == nil:
		return cfg, nil
	case errors.Is(err, os.ErrNotExist):
		return Config{}, nil
	default:
		return Config{}, err
	}
}
