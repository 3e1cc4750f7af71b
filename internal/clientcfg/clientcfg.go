// Package clientcfg reads the CLI's configuration file.
package clientcfg

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config is the hunter CLI configuration.
type Config struct {
	APIBaseURL        string `toml:"api_base_url"`
	OAuthClientID     string `toml:"oauth_client_id"`
	OAuthClientSecret string `toml:"oauth_client_secret"`
	OAuthRedirectURL  string `toml:"oauth_redirect_url"`
	SettingsPath      string `toml:"settings_path"`
	Theme             string `toml:"default_theme"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	home, _ := os.UserHomeDir()
	return &Config{
		APIBaseURL:       "http://localhost:3000",
		OAuthRedirectURL: "urn:ietf:wg:oauth:2.0:oob",
		SettingsPath:     filepath.Join(home, ".hunter", "settings.db"),
		Theme:            "light",
	}
}

// Read decodes a Config from the provided reader. Fields missing from the
// file keep their defaults.
func Read(r io.Reader) (*Config, error) {
	cfg := Default()
	if _, err := toml.NewDecoder(r).Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return cfg, nil
}

// ReadFromFile reads a Config from the given path. A missing file is not
// an error; the defaults apply.
func ReadFromFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return Default(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	cfg, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}
	return cfg, nil
}

// DefaultPath is where the CLI looks for its config file.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "hunter.toml"
	}
	return filepath.Join(home, ".hunter", "config.toml")
}
