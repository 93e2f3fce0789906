package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config represents the global ~/.chatwave/config.toml.
type Config struct {
	DefaultInstance string `toml:"default_instance"`
	DefaultProfile  string `toml:"default_profile"`
	Store           Store  `toml:"store"`
	Log             Log    `toml:"log"`
}

// Store locates the daemon. Empty fields fall back to the instance sockets.
type Store struct {
	// Address is a Unix socket path or host:port for gRPC.
	Address string `toml:"address"`
	// Beacon is a Unix datagram socket path or host:port for UDP.
	Beacon string `toml:"beacon"`
	// Listen is the daemon's optional TCP listen address.
	Listen string `toml:"listen"`
}

// Log configures log output.
type Log struct {
	Level string `toml:"level"`
}

// Load reads config from the given path. Returns zero config and error if file missing.
func Load(path string) (*Config, error) {
	var cfg Config
	_, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadOrDefault reads config from path, returning an empty config when the
// file does not exist.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return &Config{}, nil
	}
	return cfg, err
}

// Save writes config to the given path, creating parent dirs as needed.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	encErr := toml.NewEncoder(f).Encode(cfg)
	if closeErr := f.Close(); closeErr != nil && encErr == nil {
		return closeErr
	}
	return encErr
}
