// Package config loads the taskdeck TOML configuration.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// Duration is a time.Duration that unmarshals from TOML strings like "30s".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", string(text), err)
	}
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

type Config struct {
	Server Server `toml:"server"`
	UI     UI     `toml:"ui"`
}

type Server struct {
	BaseURL string `toml:"base_url"`
	// Timeout applies to task, user and comment requests. AITimeout applies
	// to assistant calls, which can be slow while the model generates.
	Timeout   Duration `toml:"timeout"`
	AITimeout Duration `toml:"ai_timeout"`
}

type UI struct {
	Theme string `toml:"theme"`
}

// Defaults returns the configuration used when no file exists.
func Defaults() Config {
	return Config{
		Server: Server{
			BaseURL:   "http://localhost:8000",
			Timeout:   Duration{10 * time.Second},
			AITimeout: Duration{30 * time.Second},
		},
		UI: UI{Theme: "tokyonight"},
	}
}

// DefaultPath returns the config file location under the user config dir.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "taskdeck", "taskdeck.toml"), nil
}

// Load reads the config at path, layering it over defaults. A missing file is
// not an error; the defaults are returned.
func Load(path string) (Config, error) {
	cfg := Defaults()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.Server.BaseURL == "" {
		return fmt.Errorf("server.base_url must not be empty")
	}
	u, err := url.Parse(c.Server.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("server.base_url %q is not a valid URL", c.Server.BaseURL)
	}
	if c.Server.Timeout.Duration <= 0 {
		return fmt.Errorf("server.timeout must be positive")
	}
	if c.Server.AITimeout.Duration <= 0 {
		return fmt.Errorf("server.ai_timeout must be positive")
	}
	return nil
}
