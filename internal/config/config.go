// Package config holds the server configuration and the ways of building it:
// defaults, a TOML or YAML file, and environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// --- Defaults ---

const (
	DefaultPort           = 8080
	DefaultRootDirectory  = "./public"
	DefaultMaxClients     = 10
	DefaultReadTimeout    = 10 * time.Second
	DefaultWriteTimeout   = 10 * time.Second
	DefaultShutdownGrace  = 5 * time.Second
	DefaultMaxHeaderBytes = 8192
)

// Environment variables consulted by ApplyEnv.
const (
	EnvPort    = "STATICD_PORT"
	EnvPortAlt = "PORT"
	EnvRoot    = "STATICD_ROOT"
)

// ErrUnsupportedFormat is returned by Load for files that are neither TOML nor YAML.
var ErrUnsupportedFormat = errors.New("unsupported config format")

// Config is passed by value into the server and never mutated afterwards.
//
// Port and RootDirectory are not validated. Only the bind rejects a bad port,
// and the root directory may not exist yet.
type Config struct {
	Port          int    `toml:"port" yaml:"port"`
	RootDirectory string `toml:"root_directory" yaml:"root_directory"`

	// MaxClients is the number of connections handled at the same time.
	MaxClients int `toml:"max_clients" yaml:"max_clients"`
	// ReadTimeout and WriteTimeout bound every socket read and write of a connection.
	ReadTimeout  time.Duration `toml:"read_timeout" yaml:"read_timeout"`
	WriteTimeout time.Duration `toml:"write_timeout" yaml:"write_timeout"`
	// ShutdownGrace is how long Stop waits for in-flight connections.
	ShutdownGrace time.Duration `toml:"shutdown_grace" yaml:"shutdown_grace"`
	// MaxHeaderBytes caps how much of the request head is read.
	MaxHeaderBytes int `toml:"max_header_bytes" yaml:"max_header_bytes"`
}

// Default returns the configuration used when nothing overrides it.
func Default() Config {
	return Config{
		Port:           DefaultPort,
		RootDirectory:  DefaultRootDirectory,
		MaxClients:     DefaultMaxClients,
		ReadTimeout:    DefaultReadTimeout,
		WriteTimeout:   DefaultWriteTimeout,
		ShutdownGrace:  DefaultShutdownGrace,
		MaxHeaderBytes: DefaultMaxHeaderBytes,
	}
}

// Load reads a config file on top of the defaults. The format is picked from
// the file extension; keys missing from the file keep their default value.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if _, err := toml.Decode(string(data), &cfg); err != nil {
			return cfg, fmt.Errorf("decoding %s: %w", path, err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("decoding %s: %w", path, err)
		}
	default:
		return cfg, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}

	return cfg, nil
}

// ApplyEnv overrides fields from the environment. lookup is usually os.LookupEnv.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	port, ok := lookup(EnvPort)
	if !ok {
		port, ok = lookup(EnvPortAlt)
	}
	if ok && port != "" {
		p, err := strconv.Atoi(port)
		if err != nil {
			return fmt.Errorf("invalid port %q: %w", port, err)
		}
		c.Port = p
	}

	if root, ok := lookup(EnvRoot); ok && root != "" {
		c.RootDirectory = root
	}
	return nil
}

// Normalize puts the tuning knobs back to their defaults when they are not
// positive. Port and RootDirectory are left untouched.
func (c *Config) Normalize() {
	if c.MaxClients <= 0 {
		c.MaxClients = DefaultMaxClients
	}
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = DefaultReadTimeout
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = DefaultWriteTimeout
	}
	if c.ShutdownGrace <= 0 {
		c.ShutdownGrace = DefaultShutdownGrace
	}
	if c.MaxHeaderBytes <= 0 {
		c.MaxHeaderBytes = DefaultMaxHeaderBytes
	}
}

// Address is the listen address for the configured port on all interfaces.
func (c Config) Address() string {
	return fmt.Sprintf("0.0.0.0:%d", c.Port)
}
