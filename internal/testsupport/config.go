package testsupport

import (
	"testing"

	"github.com/wtsi-npg/npg-notifications/internal/config"
)

// ConfigOption allows callers to customize the generated test
// configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with safe test values.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	cfg := config.Default()
	cfg.Porch.URL = "http://porch.invalid"
	cfg.Porch.AdminToken = "test-admin"
	cfg.Porch.PipelineToken = "test-pipeline"
	cfg.Mail.Domain = "example.org"
	cfg.Mail.Host = "mail.example.org"
	cfg.Mail.From = "npg@example.org"

	for _, opt := range opts {
		opt(&cfg)
	}
	return &cfg
}

// WithPorchURL points the config at a test server.
func WithPorchURL(url string) ConfigOption {
	return func(c *config.Config) {
		c.Porch.URL = url
	}
}

// WithWarehousePath sets the warehouse database path.
func WithWarehousePath(path string) ConfigOption {
	return func(c *config.Config) {
		c.Warehouse.Path = path
	}
}
