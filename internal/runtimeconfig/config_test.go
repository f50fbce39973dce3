package runtimeconfig_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/goliatone/go-cms-admin/internal/runtimeconfig"
)

func TestDefaultConfigValidates(t *testing.T) {
	if err := runtimeconfig.DefaultConfig().Validate(); err != nil {
		t.Fatalf("Validate() returned unexpected error: %v", err)
	}
}

func TestConfigValidate_RequiresAbsoluteBaseURL(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.API.BaseURL = "/api/v1"

	if err := cfg.Validate(); !errors.Is(err, runtimeconfig.ErrAPIBaseURLInvalid) {
		t.Fatalf("expected ErrAPIBaseURLInvalid, got %v", err)
	}
}

func TestConfigValidate_DashboardRequiresSessionSecret(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Features.Dashboard = true

	if err := cfg.Validate(); !errors.Is(err, runtimeconfig.ErrSessionSecretRequired) {
		t.Fatalf("expected ErrSessionSecretRequired, got %v", err)
	}

	cfg.Dashboard.SessionSecret = "secret"
	cfg.Dashboard.PageLimit = 500
	if err := cfg.Validate(); !errors.Is(err, runtimeconfig.ErrPageLimitInvalid) {
		t.Fatalf("expected ErrPageLimitInvalid, got %v", err)
	}
}

func TestConfigValidate_RejectsUnknownLoggingProvider(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Features.Logger = true
	cfg.Logging.Provider = "syslog"

	if err := cfg.Validate(); !errors.Is(err, runtimeconfig.ErrLoggingProviderUnknown) {
		t.Fatalf("expected ErrLoggingProviderUnknown, got %v", err)
	}
}

func TestConfigValidate_RejectsInvalidLoggingFormat(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Features.Logger = true
	cfg.Logging.Provider = "gologger"
	cfg.Logging.Format = "xml"

	if err := cfg.Validate(); !errors.Is(err, runtimeconfig.ErrLoggingFormatInvalid) {
		t.Fatalf("expected ErrLoggingFormatInvalid, got %v", err)
	}
}

func TestLoad_FileAndEnvironmentOverrides(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "cmsadmin.yaml")
	body := []byte("api:\n  base_url: https://api.example.com/v1\n  timeout: 5s\ncache:\n  size: 64\n")
	if err := os.WriteFile(file, body, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("CMSADMIN_API_TOKEN", "token-123")

	cfg, err := runtimeconfig.Load(runtimeconfig.LoadOptions{
		File:     file,
		EnvFiles: []string{filepath.Join(dir, "missing.env")},
	})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.API.BaseURL != "https://api.example.com/v1" {
		t.Fatalf("expected base url from file, got %q", cfg.API.BaseURL)
	}
	if cfg.API.Timeout != 5*time.Second {
		t.Fatalf("expected 5s timeout, got %s", cfg.API.Timeout)
	}
	if cfg.API.Token != "token-123" {
		t.Fatalf("expected token from env, got %q", cfg.API.Token)
	}
	if cfg.Cache.Size != 64 {
		t.Fatalf("expected cache size 64, got %d", cfg.Cache.Size)
	}
	if cfg.Submission.FallbackMessage != "Something went wrong" {
		t.Fatalf("expected default fallback message, got %q", cfg.Submission.FallbackMessage)
	}
}

func TestLoad_ReadsDotEnv(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	if err := os.WriteFile(envFile, []byte("CMSADMIN_DASHBOARD_PAGE_LIMIT=25\n"), 0o600); err != nil {
		t.Fatalf("write env: %v", err)
	}
	t.Cleanup(func() { os.Unsetenv("CMSADMIN_DASHBOARD_PAGE_LIMIT") })

	cfg, err := runtimeconfig.Load(runtimeconfig.LoadOptions{
		Paths:    []string{dir},
		EnvFiles: []string{envFile},
	})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Dashboard.PageLimit != 25 {
		t.Fatalf("expected page limit 25 from .env, got %d", cfg.Dashboard.PageLimit)
	}
}
