// ABOUTME: TOML credentials file for the operator CLI
// ABOUTME: Holds backend settings and the saved session token pair

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/2389/authbridge/internal/config"
)

const defaultCredFile = "~/.config/authbridge/cli.toml"

// credFile is the on-disk CLI state. Env variables override the backend
// section so the file is optional for one-off use.
type credFile struct {
	Backend backendSettings `toml:"backend"`
	Client  clientSettings  `toml:"client"`
	Session savedSession    `toml:"session"`

	path string `toml:"-"`
}

type backendSettings struct {
	URL string `toml:"url"`
	Key string `toml:"key"`
}

type clientSettings struct {
	// Origin is the application origin OAuth callbacks return to.
	Origin string `toml:"origin"`
}

type savedSession struct {
	AccessToken  string `toml:"access_token"`
	RefreshToken string `toml:"refresh_token"`
}

func credFilePath() string {
	if p := os.Getenv("AUTHBRIDGE_CLI_CONFIG"); p != "" {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "cli.toml"
	}
	return filepath.Join(home, ".config", "authbridge", "cli.toml")
}

// loadCredFile reads the credentials file if it exists and layers env
// variables on top. A missing file is not an error.
func loadCredFile() (*credFile, error) {
	cf := &credFile{path: credFilePath()}

	if _, err := os.Stat(cf.path); err == nil {
		if _, err := toml.DecodeFile(cf.path, cf); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", cf.path, err)
		}
	}

	if v := os.Getenv(config.EnvBackendURL); v != "" {
		cf.Backend.URL = v
	}
	if v := os.Getenv(config.EnvBackendKey); v != "" {
		cf.Backend.Key = v
	}
	if v := os.Getenv(config.EnvOrigin); v != "" {
		cf.Client.Origin = v
	}

	return cf, nil
}

// config projects the file onto the core Config so the CLI goes through the
// same guard as everything else.
func (cf *credFile) config() *config.Config {
	return &config.Config{
		Backend: config.BackendConfig{
			URL: cf.Backend.URL,
			Key: cf.Backend.Key,
		},
		Server: config.ServerConfig{
			PublicOrigin: cf.Client.Origin,
		},
	}
}

// save writes the credentials file with owner-only permissions.
func (cf *credFile) save() error {
	if err := os.MkdirAll(filepath.Dir(cf.path), 0o700); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	f, err := os.OpenFile(cf.path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("writing %s: %w", cf.path, err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(cf); err != nil {
		return fmt.Errorf("encoding %s: %w", cf.path, err)
	}
	return nil
}
