package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shaiso/Conductor/internal/domain"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "workers.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{
		"CONDUCTOR_URL_BASE", "X_TENANT_ID", "X_FROM", "X_AUTH_USER_GROUP",
		"POLLING_INTERVAL", "MAX_THREAD_COUNT", "METRICS_ENABLED", "METRICS_PORT",
		"RABBITMQ_URL", "CONFIG_FILE", "DEFAULT_TEMPLATE", "TASK_DOMAIN",
	} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.ConductorURL != DefaultConductorURL {
		t.Errorf("unexpected url: %s", cfg.ConductorURL)
	}
	if cfg.PollInterval != DefaultPollInterval || cfg.MaxThreadCount != DefaultMaxThreadCount {
		t.Errorf("unexpected polling settings: %v %d", cfg.PollInterval, cfg.MaxThreadCount)
	}
	if !cfg.MetricsEnabled || cfg.MetricsPort != DefaultMetricsPort {
		t.Errorf("unexpected metrics settings: %v %d", cfg.MetricsEnabled, cfg.MetricsPort)
	}
	if cfg.WorkerID == "" {
		t.Error("expected non-empty worker id")
	}

	headers := cfg.Headers()
	if headers["x-tenant-id"] != "frinx" || headers["from"] != "fm-base-workers" || headers["x-auth-user-groups"] != "network-admin" {
		t.Errorf("unexpected headers: %v", headers)
	}
	if cfg.TemplateFor("http_get_generic") != nil {
		t.Error("expected no template")
	}
}

func TestLoad_Env(t *testing.T) {
	t.Setenv("CONDUCTOR_URL_BASE", "http://localhost:8080/api")
	t.Setenv("X_TENANT_ID", "acme")
	t.Setenv("POLLING_INTERVAL", "0.25")
	t.Setenv("MAX_THREAD_COUNT", "4")
	t.Setenv("METRICS_ENABLED", "false")
	t.Setenv("WORKER_ID", "host-1")
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("DEFAULT_TEMPLATE", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.ConductorURL != "http://localhost:8080/api" || cfg.TenantID != "acme" || cfg.WorkerID != "host-1" {
		t.Errorf("unexpected config: %+v", cfg)
	}
	if cfg.PollInterval != 250*time.Millisecond {
		t.Errorf("expected 250ms, got %v", cfg.PollInterval)
	}
	if cfg.MaxThreadCount != 4 || cfg.MetricsEnabled {
		t.Errorf("unexpected config: %+v", cfg)
	}
}

func TestLoad_InvalidEnv(t *testing.T) {
	tests := []struct {
		key, value string
	}{
		{"POLLING_INTERVAL", "soon"},
		{"POLLING_INTERVAL", "-1s"},
		{"MAX_THREAD_COUNT", "many"},
		{"METRICS_ENABLED", "maybe"},
		{"METRICS_PORT", "-80"},
	}

	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			t.Setenv("CONFIG_FILE", "")
			t.Setenv("DEFAULT_TEMPLATE", "")
			t.Setenv(tt.key, tt.value)

			if _, err := Load(); !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}

func TestLoad_File(t *testing.T) {
	path := writeFile(t, `
default_template: base
templates:
  - name: base
    retry_count: 3
    timeout_policy: TIME_OUT_WF
    owner_email: ops@example.com
  - name: long
    extends: base
    retry_count: 0
    response_timeout_seconds: 7200
    input_template:
      verbose: true
workers:
  Wait_in_seconds:
    enabled: false
  http_get_generic:
    domain: lab
    template: long
`)
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("DEFAULT_TEMPLATE", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	base := cfg.TemplateFor("other")
	if base == nil || base.Name != "base" || *base.Overrides.RetryCount != 3 {
		t.Fatalf("expected base template, got %+v", base)
	}

	long := cfg.TemplateFor("http_get_generic")
	if long == nil || long.Name != "long" {
		t.Fatalf("expected long template, got %+v", long)
	}
	o := long.Overrides
	if *o.RetryCount != 0 {
		t.Errorf("explicit zero must override parent, got %d", *o.RetryCount)
	}
	if *o.TimeoutPolicy != domain.TimeoutPolicyTimeOutWorkflow || *o.OwnerEmail != "ops@example.com" {
		t.Errorf("parent fields must be inherited: %+v", o)
	}
	if *o.ResponseTimeoutSeconds != 7200 || (*o.InputTemplate)["verbose"] != true {
		t.Errorf("own fields must be kept: %+v", o)
	}

	if !cfg.Paused()["Wait_in_seconds"] || cfg.Paused()["http_get_generic"] {
		t.Errorf("unexpected paused set: %v", cfg.Paused())
	}
	if cfg.Domains()["http_get_generic"] != "lab" {
		t.Errorf("unexpected domains: %v", cfg.Domains())
	}
}

func TestLoad_EnvDefaultTemplateWins(t *testing.T) {
	path := writeFile(t, `
default_template: a
templates:
  - name: a
    retry_count: 1
  - name: b
    retry_count: 2
`)
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("DEFAULT_TEMPLATE", "b")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if tmpl := cfg.TemplateFor("x"); tmpl == nil || tmpl.Name != "b" {
		t.Errorf("expected template b, got %+v", tmpl)
	}
}

func TestLoad_FileErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "broken yaml", content: "templates: [\n"},
		{name: "template without name", content: "templates:\n  - retry_count: 1\n"},
		{name: "duplicate template", content: "templates:\n  - name: a\n  - name: a\n"},
		{name: "unknown parent", content: "templates:\n  - name: a\n    extends: missing\n"},
		{name: "cycle", content: "templates:\n  - name: a\n    extends: b\n  - name: b\n    extends: a\n"},
		{name: "unknown worker template", content: "workers:\n  x:\n    template: missing\n"},
		{name: "unknown default template", content: "default_template: missing\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("CONFIG_FILE", writeFile(t, tt.content))
			t.Setenv("DEFAULT_TEMPLATE", "")

			if _, err := Load(); !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.yaml"))

	if _, err := Load(); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected os.ErrNotExist, got %v", err)
	}
}
