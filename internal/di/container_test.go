package di

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/goliatone/go-command/dispatcher"

	"github.com/goliatone/go-cms-admin/internal/commands/records"
	"github.com/goliatone/go-cms-admin/internal/logging/gologger"
	"github.com/goliatone/go-cms-admin/internal/runtimeconfig"
	"github.com/goliatone/go-cms-admin/pkg/interfaces"
	"github.com/goliatone/go-cms-admin/pkg/testsupport"
)

func testConfig(t *testing.T, backend *testsupport.Backend) runtimeconfig.Config {
	t.Helper()
	cfg := runtimeconfig.DefaultConfig()
	cfg.API.BaseURL = backend.Server(t).URL
	return cfg
}

type recordingNotifier struct {
	mu     sync.Mutex
	toasts []interfaces.Toast
}

func (n *recordingNotifier) Notify(_ context.Context, toast interfaces.Toast) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.toasts = append(n.toasts, toast)
}

func TestNewContainerRejectsInvalidConfig(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.API.BaseURL = ""

	if _, err := NewContainer(cfg); !errors.Is(err, runtimeconfig.ErrAPIBaseURLRequired) {
		t.Fatalf("expected ErrAPIBaseURLRequired, got %v", err)
	}
}

func TestConfigureLoggerProviderUsesGoLoggerAdapter(t *testing.T) {
	cfg := testConfig(t, testsupport.NewBackend())
	cfg.Features.Logger = true
	cfg.Logging.Provider = "gologger"
	cfg.Logging.Level = "debug"
	cfg.Logging.Format = "json"

	container, err := NewContainer(cfg)
	if err != nil {
		t.Fatalf("NewContainer returned error: %v", err)
	}

	provider, ok := container.loggerProvider.(*gologger.Provider)
	if !ok {
		t.Fatalf("expected go-logger provider, got %T", container.loggerProvider)
	}
	if logger := provider.GetLogger("admin.test"); logger == nil {
		t.Fatal("expected logger from go-logger provider, got nil")
	}
}

func TestLoggerProviderDisabledByDefault(t *testing.T) {
	container, err := NewContainer(testConfig(t, testsupport.NewBackend()))
	if err != nil {
		t.Fatalf("NewContainer returned error: %v", err)
	}
	if container.LoggerProvider() != nil {
		t.Fatalf("expected no provider when the logger feature is off")
	}
	if container.Logger("admin.test") == nil {
		t.Fatalf("expected a no-op logger")
	}
	if container.Dashboard() != nil {
		t.Fatalf("expected dashboard to be disabled")
	}
	if container.MarkdownParser() == nil {
		t.Fatalf("expected markdown parser by default")
	}
}

func TestDashboardServesRegistry(t *testing.T) {
	backend := testsupport.NewBackend()
	backend.Seed("books", map[string]any{"title": "The Grappler's Guide", "price": 25})

	cfg := testConfig(t, backend)
	cfg.Features.Dashboard = true
	cfg.Dashboard.SessionSecret = "0123456789abcdef0123456789abcdef"

	container, err := NewContainer(cfg)
	if err != nil {
		t.Fatalf("NewContainer returned error: %v", err)
	}
	mux := http.NewServeMux()
	if err := container.Dashboard().Register(mux); err != nil {
		t.Fatalf("register: %v", err)
	}

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/dashboard/books", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Grappler") {
		t.Fatalf("expected seeded book in list")
	}
}

func TestToastsOutsideRequestsReachNotifier(t *testing.T) {
	backend := testsupport.NewBackend()
	notifier := &recordingNotifier{}
	container, err := NewContainer(testConfig(t, backend), WithNotifier(notifier))
	if err != nil {
		t.Fatalf("NewContainer returned error: %v", err)
	}

	m, err := container.Registry().Get("associates")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	form := m.NewForm()
	if err := form.Bind(context.Background(), url.Values{
		"name": {"Ana Souza"},
		"role": {"Head coach"},
	}, nil); err != nil {
		t.Fatalf("bind: %v", err)
	}
	if _, err := form.Submit(context.Background(), container.Orchestrator(), "/dashboard/associates"); err != nil {
		t.Fatalf("submit: %v", err)
	}

	notifier.mu.Lock()
	defer notifier.mu.Unlock()
	if len(notifier.toasts) != 1 || notifier.toasts[0].Level != interfaces.ToastSuccess {
		t.Fatalf("expected one success toast, got %+v", notifier.toasts)
	}
}

func TestSubscribeCommandsDispatchesRecordCommands(t *testing.T) {
	backend := testsupport.NewBackend()
	id := backend.Seed("books", map[string]any{"title": "Old edition"})[0]
	container, err := NewContainer(testConfig(t, backend))
	if err != nil {
		t.Fatalf("NewContainer returned error: %v", err)
	}

	unsubscribe := container.SubscribeCommands(0)
	t.Cleanup(unsubscribe)

	if err := dispatcher.Dispatch(context.Background(), records.DeleteRecordCommand{Resource: "books", ID: id}); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if backend.Record("books", id) != nil {
		t.Fatalf("expected book to be deleted")
	}
}
