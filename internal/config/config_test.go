package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/wtsi-npg/npg-notifications/internal/config"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
[porch]
url = "http://localhost:8000"
`)
	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Porch.TimeoutSeconds != 10 {
		t.Fatalf("expected default timeout 10, got %d", cfg.Porch.TimeoutSeconds)
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "console" {
		t.Fatalf("unexpected logging defaults: %+v", cfg.Logging)
	}
}

func TestLoadFileValuesWinOverEnvironment(t *testing.T) {
	t.Setenv("PORCH_URL", "http://env:9999")
	t.Setenv("PORCH_ADMIN_TOKEN", "env-admin")

	path := writeConfig(t, `
[porch]
url = "http://file:8000"
admin_token = "file-admin"
`)
	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Porch.URL != "http://file:8000" {
		t.Fatalf("file value must win over env, got %q", cfg.Porch.URL)
	}
	if cfg.Porch.AdminToken != "file-admin" {
		t.Fatalf("file token must win over env, got %q", cfg.Porch.AdminToken)
	}
}

func TestLoadEnvironmentFallback(t *testing.T) {
	t.Setenv("PORCH_URL", "http://env:9999")
	t.Setenv("PORCH_PIPELINE_TOKEN", "env-pipeline")
	t.Setenv("USER", "alice")

	path := writeConfig(t, `
[mail]
domain = "example.org"
`)
	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Porch.URL != "http://env:9999" {
		t.Fatalf("expected env URL, got %q", cfg.Porch.URL)
	}
	if cfg.Porch.PipelineToken != "env-pipeline" {
		t.Fatalf("expected env pipeline token, got %q", cfg.Porch.PipelineToken)
	}
	if cfg.Mail.From != "alice@example.org" {
		t.Fatalf("expected mail.from resolved from USER, got %q", cfg.Mail.From)
	}
	if cfg.Mail.Host != "mail.example.org" {
		t.Fatalf("expected mail host derived from domain, got %q", cfg.Mail.Host)
	}
}

func TestLoadRejectsMissingURL(t *testing.T) {
	t.Setenv("PORCH_URL", "")
	path := writeConfig(t, `
[logging]
level = "debug"
`)
	if _, err := config.Load(path); err == nil {
		t.Fatal("expected error when porch.url is unset everywhere")
	}
}

func TestLoadRejectsRelativeURL(t *testing.T) {
	path := writeConfig(t, `
[porch]
url = "localhost:8000"
`)
	if _, err := config.Load(path); err == nil {
		t.Fatal("expected error for a non-absolute porch.url")
	}
}

func TestRedactedMasksTokens(t *testing.T) {
	cfg := config.Default()
	cfg.Porch.AdminToken = "admin-secret"
	cfg.Porch.PipelineToken = "pipeline-secret"

	redacted := cfg.Redacted()
	if strings.Contains(redacted.Porch.AdminToken, "secret") ||
		strings.Contains(redacted.Porch.PipelineToken, "secret") {
		t.Fatalf("tokens leaked through redaction: %+v", redacted.Porch)
	}
	if cfg.Porch.AdminToken != "admin-secret" {
		t.Fatal("Redacted must not mutate the original config")
	}
}

func TestValidateWarehouseAndMail(t *testing.T) {
	cfg := config.Default()
	if err := cfg.ValidateWarehouse(); err == nil {
		t.Fatal("expected error for empty warehouse path")
	}
	if err := cfg.ValidateMail(); err == nil {
		t.Fatal("expected error for empty mail domain")
	}
	cfg.Warehouse.Path = "/tmp/mlwh.db"
	cfg.Mail.Domain = "example.org"
	cfg.Mail.From = "npg@example.org"
	if err := cfg.ValidateWarehouse(); err != nil {
		t.Fatalf("ValidateWarehouse returned error: %v", err)
	}
	if err := cfg.ValidateMail(); err != nil {
		t.Fatalf("ValidateMail returned error: %v", err)
	}
}
