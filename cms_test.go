package cmsadmin_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	cmsadmin "github.com/goliatone/go-cms-admin"
	"github.com/goliatone/go-cms-admin/pkg/testsupport"
)

func newModule(t *testing.T, dashboard bool) *cmsadmin.Module {
	t.Helper()
	backend := testsupport.NewBackend()
	cfg := cmsadmin.DefaultConfig()
	cfg.API.BaseURL = backend.Server(t).URL
	cfg.Features.Dashboard = dashboard
	cfg.Dashboard.SessionSecret = "0123456789abcdef0123456789abcdef"

	module, err := cmsadmin.New(cfg)
	if err != nil {
		t.Fatalf("new module: %v", err)
	}
	return module
}

func TestNewValidatesConfig(t *testing.T) {
	cfg := cmsadmin.DefaultConfig()
	cfg.Uploads.MaxSize = 0

	if _, err := cmsadmin.New(cfg); !errors.Is(err, cmsadmin.ErrUploadMaxSizeInvalid) {
		t.Fatalf("expected ErrUploadMaxSizeInvalid, got %v", err)
	}
}

func TestModuleExposesResources(t *testing.T) {
	module := newModule(t, false)

	if got := len(module.Resources().Keys()); got != 10 {
		t.Fatalf("expected 10 resources, got %d", got)
	}
	m, err := module.Resource("footer")
	if err != nil {
		t.Fatalf("resource: %v", err)
	}
	if !m.Definition().Singleton {
		t.Fatalf("expected footer to be a singleton")
	}
	if _, err := module.Handler(); !errors.Is(err, cmsadmin.ErrDashboardDisabled) {
		t.Fatalf("expected ErrDashboardDisabled, got %v", err)
	}
}

func TestHandlerServesDashboardAndHealth(t *testing.T) {
	module := newModule(t, true)
	handler, err := module.Handler()
	if err != nil {
		t.Fatalf("handler: %v", err)
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204 from health probe, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/dashboard", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 from dashboard home, got %d", rec.Code)
	}
}
