package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Porch contains connection parameters for the Porch task-queue server.
// The tokens are secrets; Redacted copies are used wherever the config
// is printed.
type Porch struct {
	URL            string `toml:"url"`
	AdminToken     string `toml:"admin_token"`
	PipelineToken  string `toml:"pipeline_token"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Warehouse contains connection parameters for the read-only
// multi-LIMS warehouse database.
type Warehouse struct {
	Path string `toml:"path"`
}

// Mail contains configuration for outgoing notification email.
type Mail struct {
	Domain string `toml:"domain"`
	Host   string `toml:"host"`
	From   string `toml:"from"`
}

// Logging contains configuration for log output.
type Logging struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Config is the root configuration for the notification pipeline.
type Config struct {
	Porch     Porch     `toml:"porch"`
	Warehouse Warehouse `toml:"warehouse"`
	Mail      Mail      `toml:"mail"`
	Logging   Logging   `toml:"logging"`
}

// DefaultConfigPath returns the per-user configuration file location.
func DefaultConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, ".config", "npg-notify", "config.toml"), nil
}

// SampleConfig returns the annotated sample configuration file.
func SampleConfig() string {
	return sampleConfig
}

// Load reads the configuration file at path, or the default location
// when path is empty, layering values over defaults. Environment
// fallbacks for the Porch connection and the mail sender are resolved
// here, exactly once; nothing re-reads the environment later.
func Load(path string) (*Config, error) {
	resolvedPath := strings.TrimSpace(path)
	if resolvedPath == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			return nil, err
		}
		resolvedPath = defaultPath
	}

	cfg := Default()
	data, err := os.ReadFile(resolvedPath)
	switch {
	case err == nil:
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", resolvedPath, err)
		}
	case errors.Is(err, fs.ErrNotExist) && path == "":
		// No file at the default location: environment-only setup.
	default:
		return nil, fmt.Errorf("read config %s: %w", resolvedPath, err)
	}

	cfg.applyEnvironment()
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyEnvironment fills unset fields from the environment. Explicit
// file values always win over the environment.
func (c *Config) applyEnvironment() {
	if c.Porch.URL == "" {
		c.Porch.URL = os.Getenv("PORCH_URL")
	}
	if c.Porch.AdminToken == "" {
		c.Porch.AdminToken = os.Getenv("PORCH_ADMIN_TOKEN")
	}
	if c.Porch.PipelineToken == "" {
		c.Porch.PipelineToken = os.Getenv("PORCH_PIPELINE_TOKEN")
	}
	if c.Mail.From == "" {
		if user := os.Getenv("USER"); user != "" && c.Mail.Domain != "" {
			c.Mail.From = user + "@" + c.Mail.Domain
		}
	}
}

func (c *Config) normalize() {
	c.Porch.URL = strings.TrimSpace(c.Porch.URL)
	c.Mail.Domain = strings.TrimSpace(c.Mail.Domain)
	if c.Mail.Host == "" && c.Mail.Domain != "" {
		c.Mail.Host = "mail." + c.Mail.Domain
	}
}

// Redacted returns a copy safe for display and logging, with secret
// fields masked.
func (c Config) Redacted() Config {
	cp := c
	cp.Porch.AdminToken = redactSecret(cp.Porch.AdminToken)
	cp.Porch.PipelineToken = redactSecret(cp.Porch.PipelineToken)
	return cp
}

func redactSecret(value string) string {
	if value == "" {
		return ""
	}
	return "********"
}
