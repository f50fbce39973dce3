package cmsadmin

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/goliatone/go-cms-admin/internal/apiclient"
	"github.com/goliatone/go-cms-admin/internal/di"
	adminhttp "github.com/goliatone/go-cms-admin/internal/http"
	"github.com/goliatone/go-cms-admin/internal/resources"
	"github.com/goliatone/go-cms-admin/internal/submission"
	"github.com/goliatone/go-cms-admin/pkg/interfaces"
)

// ErrDashboardDisabled is returned by Handler when the dashboard feature is
// off.
var ErrDashboardDisabled = errors.New("cmsadmin: dashboard feature is disabled")

const shutdownTimeout = 10 * time.Second

// ResourceModule exports the per-resource contract.
type ResourceModule = resources.Module

// Registry exports the resource registry.
type Registry = *resources.Registry

// Orchestrator exports the submission orchestrator.
type Orchestrator = *submission.Orchestrator

// Dashboard exports the HTTP dashboard.
type Dashboard = *adminhttp.Dashboard

// Toast exports the toast notification DTO.
type Toast = interfaces.Toast

// Module is the top level admin runtime façade.
type Module struct {
	container *di.Container
}

// New constructs the admin runtime from cfg and optional DI overrides.
func New(cfg Config, opts ...di.Option) (*Module, error) {
	container, err := di.NewContainer(cfg, opts...)
	if err != nil {
		return nil, err
	}
	return &Module{container: container}, nil
}

// Container exposes the underlying DI container for advanced integrations.
func (m *Module) Container() *di.Container {
	return m.container
}

// Client returns the REST client.
func (m *Module) Client() *apiclient.Client {
	return m.container.Client()
}

// Resources returns the registry of manageable resources.
func (m *Module) Resources() Registry {
	return m.container.Registry()
}

// Resource returns the module registered under key.
func (m *Module) Resource(key string) (ResourceModule, error) {
	return m.container.Registry().Get(key)
}

// Submissions returns the orchestrator used for form submissions.
func (m *Module) Submissions() Orchestrator {
	return m.container.Orchestrator()
}

// Dashboard returns the dashboard, nil when disabled.
func (m *Module) Dashboard() Dashboard {
	return m.container.Dashboard()
}

// Handler mounts the dashboard and a health probe on a new mux.
func (m *Module) Handler() (http.Handler, error) {
	dashboard := m.container.Dashboard()
	if dashboard == nil {
		return nil, ErrDashboardDisabled
	}
	mux := http.NewServeMux()
	if err := dashboard.Register(mux); err != nil {
		return nil, err
	}
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	return mux, nil
}

// Serve runs the dashboard on addr until ctx is cancelled, then shuts the
// server down gracefully. An empty addr uses the configured one.
func (m *Module) Serve(ctx context.Context, addr string) error {
	handler, err := m.Handler()
	if err != nil {
		return err
	}
	if addr == "" {
		addr = m.container.Config.Dashboard.Addr
	}
	logger := m.container.Logger("admin.server")
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server.listening", "addr", addr, "base_path", m.container.Config.Dashboard.BasePath)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		logger.Info("server.shutdown", "addr", addr)
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return nil
	}
}
