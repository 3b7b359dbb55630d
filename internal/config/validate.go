package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Validate ensures the configuration is usable. Only the Porch
// connection is universally required; the warehouse and mail sections
// are checked by the commands that consume them.
func (c *Config) Validate() error {
	if err := c.validatePorch(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validatePorch() error {
	if c.Porch.URL == "" {
		return errors.New("porch.url is required; set it in the config file or the PORCH_URL env var")
	}
	parsed, err := url.Parse(c.Porch.URL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("porch.url %q is not an absolute URL", c.Porch.URL)
	}
	if c.Porch.TimeoutSeconds <= 0 {
		return errors.New("porch.timeout_seconds must be positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch strings.ToLower(strings.TrimSpace(c.Logging.Format)) {
	case "", "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	return nil
}

// ValidateWarehouse checks the fields the run command needs.
func (c *Config) ValidateWarehouse() error {
	if strings.TrimSpace(c.Warehouse.Path) == "" {
		return errors.New("warehouse.path is required to look up study contacts")
	}
	return nil
}

// ValidateMail checks the fields needed to send notification email.
func (c *Config) ValidateMail() error {
	if c.Mail.Domain == "" {
		return errors.New("mail.domain is required to send notifications")
	}
	if c.Mail.From == "" {
		return errors.New("mail.from could not be resolved; set it in the config file or the USER env var")
	}
	return nil
}
