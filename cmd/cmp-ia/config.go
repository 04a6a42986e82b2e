package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/rs/zerolog"
)

const defaultConfigFile = "cmp-ia.toml"

// Config is the content of the toml configuration file.
type Config struct {
	// IdentityDir holds one <name>.key file per local identity.
	IdentityDir string `toml:"identity_dir"`
	// StorePath is the folder of the bbolt database holding protocol outputs.
	StorePath string `toml:"store_path"`
	// LogLevel is a zerolog level name.
	LogLevel string `toml:"log_level"`
	// LogFormat is either "console" or "json".
	LogFormat string `toml:"log_format"`
	// RoundTimeout bounds the time a party waits in a round, as a Go duration. Empty waits forever.
	RoundTimeout string `toml:"round_timeout"`
	// MetricsAddr is the listen address of the prometheus endpoint. Empty disables it.
	MetricsAddr string `toml:"metrics_addr"`
}

// DefaultConfig returns the configuration written by "config init", rooted at folder.
func DefaultConfig(folder string) *Config {
	return &Config{
		IdentityDir:  filepath.Join(folder, "identities"),
		StorePath:    filepath.Join(folder, "db"),
		LogLevel:     zerolog.InfoLevel.String(),
		LogFormat:    "console",
		RoundTimeout: "2m",
	}
}

// LoadConfig decodes the file at path. A missing file gives the defaults, rooted next to path.
func LoadConfig(path string) (*Config, error) {
	conf := DefaultConfig(filepath.Dir(path))
	if _, err := toml.DecodeFile(path, conf); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return conf, nil
		}
		return nil, fmt.Errorf("config: %w", err)
	}
	return conf, nil
}

// Save writes conf to path, failing if it exists.
func (c *Config) Save(path string) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	defer f.Close()
	return toml.NewEncoder(f).Encode(c)
}

// Timeout parses RoundTimeout.
func (c *Config) Timeout() (time.Duration, error) {
	if c.RoundTimeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.RoundTimeout)
	if err != nil {
		return 0, fmt.Errorf("config: invalid round_timeout: %w", err)
	}
	return d, nil
}

// Logger builds the logger described by conf, writing to w.
func (c *Config) Logger(w io.Writer, verbose bool) (zerolog.Logger, error) {
	level, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil {
		return zerolog.Nop(), fmt.Errorf("config: invalid log_level: %w", err)
	}
	if verbose {
		level = zerolog.DebugLevel
	}
	switch strings.ToLower(c.LogFormat) {
	case "json":
	case "", "console":
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}
	default:
		return zerolog.Nop(), fmt.Errorf("config: invalid log_format %q", c.LogFormat)
	}
	return zerolog.New(w).Level(level).With().Timestamp().Logger(), nil
}
