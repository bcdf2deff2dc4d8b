// ABOUTME: Configuration loading for authbridge from environment or YAML
// ABOUTME: Backend URL and key presence determines whether the core is configured

package config

import (
	"fmt"
	"net/url"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"
)

// Env variable names read by FromEnv. Absence of any of them is not an error;
// it produces a degraded (unconfigured) Config.
const (
	EnvBackendURL = "AUTHBRIDGE_BACKEND_URL"
	EnvBackendKey = "AUTHBRIDGE_BACKEND_KEY"
	EnvHTTPAddr   = "AUTHBRIDGE_HTTP_ADDR"
	EnvOrigin     = "AUTHBRIDGE_PUBLIC_ORIGIN"
	EnvLogLevel   = "AUTHBRIDGE_LOG_LEVEL"
	EnvLogFormat  = "AUTHBRIDGE_LOG_FORMAT"
)

// Config represents the complete authbridge configuration. It is read once at
// startup and never mutated afterward; every component treats it as read-only.
type Config struct {
	Backend BackendConfig `yaml:"backend"`
	Server  ServerConfig  `yaml:"server"`
	Logging LoggingConfig `yaml:"logging"`
}

// BackendConfig identifies the remote identity backend. Both fields must be
// present for the core to be considered configured.
type BackendConfig struct {
	URL string `yaml:"url"`
	Key string `yaml:"key"`
}

// ServerConfig holds the HTTP surface configuration.
type ServerConfig struct {
	HTTPAddr string `yaml:"http_addr"`
	// PublicOrigin is the externally visible origin of the application,
	// used to derive OAuth callback targets (origin + "/auth/callback").
	PublicOrigin string `yaml:"public_origin"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// IsConfigured reports whether an identity backend is reachable in principle.
// Pure read, no I/O. Every component that would touch the network must consult
// this first and short-circuit when it returns false.
func (c *Config) IsConfigured() bool {
	return c.Backend.URL != "" && c.Backend.Key != ""
}

// FromEnv builds a Config from environment variables alone. Missing variables
// never cause an error: an empty backend section simply yields an unconfigured
// Config and the process degrades gracefully.
func FromEnv() *Config {
	cfg := &Config{
		Backend: BackendConfig{
			URL: os.Getenv(EnvBackendURL),
			Key: os.Getenv(EnvBackendKey),
		},
		Server: ServerConfig{
			HTTPAddr:     os.Getenv(EnvHTTPAddr),
			PublicOrigin: os.Getenv(EnvOrigin),
		},
		Logging: LoggingConfig{
			Level:  os.Getenv(EnvLogLevel),
			Format: os.Getenv(EnvLogFormat),
		},
	}
	cfg.applyDefaults()
	return cfg
}

// Load reads a configuration file from the given path and returns a parsed
// Config. Environment variables in the format ${VAR_NAME} are expanded before
// parsing, so secrets can stay out of the file itself.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	expanded := expandEnvVars(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// expandEnvVars replaces ${VAR_NAME} patterns with the corresponding
// environment variable values. Unset variables expand to the empty string,
// which keeps an absent backend a degraded state rather than a parse error.
func expandEnvVars(s string) string {
	re := regexp.MustCompile(`\$\{([^}]+)\}`)

	return re.ReplaceAllStringFunc(s, func(match string) string {
		varName := re.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}

// Validate checks syntactic sanity of the parsed configuration. A missing
// backend URL or key is NOT a validation failure; only malformed values are.
func (c *Config) Validate() error {
	if c.Backend.URL != "" {
		u, err := url.Parse(c.Backend.URL)
		if err != nil {
			return fmt.Errorf("backend.url is not a valid URL: %w", err)
		}
		if u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("backend.url must be an absolute URL, got %q", c.Backend.URL)
		}
	}

	if c.Server.PublicOrigin != "" {
		u, err := url.Parse(c.Server.PublicOrigin)
		if err != nil {
			return fmt.Errorf("server.public_origin is not a valid URL: %w", err)
		}
		if u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("server.public_origin must be an absolute URL, got %q", c.Server.PublicOrigin)
		}
	}

	switch c.Logging.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn or error, got %q", c.Logging.Level)
	}

	switch c.Logging.Format {
	case "", "text", "json":
	default:
		return fmt.Errorf("logging.format must be text or json, got %q", c.Logging.Format)
	}

	return nil
}

func (c *Config) applyDefaults() {
	if c.Server.HTTPAddr == "" {
		c.Server.HTTPAddr = "0.0.0.0:8080"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}
}
