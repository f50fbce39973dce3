package views_test

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-cms-admin/internal/apiclient"
	"github.com/goliatone/go-cms-admin/internal/markdown"
	"github.com/goliatone/go-cms-admin/internal/views"
	"github.com/goliatone/go-cms-admin/pkg/interfaces"
	"github.com/goliatone/go-cms-admin/pkg/testsupport"
)

type event struct {
	ID    string `json:"_id"`
	Title string `json:"title"`
}

func TestLoadListRendersExactlyPageData(t *testing.T) {
	backend := testsupport.NewBackend()
	for i := range 25 {
		title := "open mat"
		if i%2 == 1 {
			title = "foo seminar"
		}
		backend.Seed("events", map[string]any{"title": title})
	}
	client, err := apiclient.New(backend.Server(t).URL)
	if err != nil {
		t.Fatalf("client: %v", err)
	}
	events := apiclient.NewResource[event](client, "/events")

	q := apiclient.ListQuery{Page: 2, Limit: 10, SearchTerm: "foo"}
	view := views.LoadList(context.Background(), q, events.List)

	if view.Status != views.StatusSuccess {
		t.Fatalf("expected success, got %+v", view.Failure)
	}
	if len(view.Items) != 2 {
		t.Fatalf("expected the 2 records of page 2, got %d", len(view.Items))
	}
	want := views.Pagination{Page: 2, Limit: 10, Total: 12, Pages: 2, From: 11, To: 12}
	if diff := cmp.Diff(want, view.Pagination); diff != "" {
		t.Fatalf("pagination mismatch (-want +got):\n%s", diff)
	}
	if view.Pagination.HasNext() || !view.Pagination.HasPrev() {
		t.Fatal("unexpected prev/next state")
	}

	calls := backend.CallsTo(http.MethodGet, "/events")
	if got := calls[0].Query.Encode(); got != "limit=10&page=2&searchTerm=foo" {
		t.Fatalf("unexpected query %q", got)
	}
}

func TestLoadDetailNotFound(t *testing.T) {
	backend := testsupport.NewBackend()
	client, _ := apiclient.New(backend.Server(t).URL)
	events := apiclient.NewResource[event](client, "/events")

	view := views.LoadDetail(context.Background(), func(ctx context.Context) (*event, error) {
		return events.Get(ctx, "missing")
	}, views.WithBack("/dashboard/events"))

	if view.Status != views.StatusError || view.Failure == nil {
		t.Fatalf("expected error state, got %+v", view)
	}
	if !view.Failure.NotFound || view.Failure.Message != views.DefaultNotFoundMessage {
		t.Fatalf("unexpected failure %+v", view.Failure)
	}
	if view.Failure.Back != "/dashboard/events" {
		t.Fatalf("expected back target, got %q", view.Failure.Back)
	}
}

func TestLoadDetailFallbackMessage(t *testing.T) {
	view := views.LoadDetail(context.Background(), func(context.Context) (*event, error) {
		return nil, errors.New("socket closed")
	}, views.WithFallbackMessage("Could not load event"))
	if view.Failure == nil || view.Failure.NotFound || view.Failure.Message != "Could not load event" {
		t.Fatalf("unexpected failure %+v", view.Failure)
	}
}

func TestLoadDetailServerMessage(t *testing.T) {
	view := views.LoadDetail(context.Background(), func(context.Context) (*event, error) {
		return nil, goerrors.New("Token expired", goerrors.CategoryAuth).WithCode(http.StatusUnauthorized)
	})
	if view.Failure == nil || view.Failure.Message != "Token expired" {
		t.Fatalf("unexpected failure %+v", view.Failure)
	}
}

func TestLoadDetailSuccess(t *testing.T) {
	view := views.LoadDetail(context.Background(), func(context.Context) (*event, error) {
		return &event{ID: "e1", Title: "Grading"}, nil
	})
	if view.Status != views.StatusSuccess || view.Record.Title != "Grading" {
		t.Fatalf("unexpected view %+v", view)
	}
}

func TestLoadListError(t *testing.T) {
	view := views.LoadList(context.Background(), apiclient.ListQuery{Page: 1}, func(context.Context, apiclient.ListQuery) (*apiclient.Page[event], error) {
		return nil, errors.New("down")
	})
	if view.Status != views.StatusError || view.Failure.Message != apiclient.DefaultFallbackMessage {
		t.Fatalf("unexpected view %+v", view)
	}
}

func TestPaginationWindow(t *testing.T) {
	p := views.NewPagination(apiclient.Meta{Page: 5, Limit: 10, Total: 95})
	if diff := cmp.Diff([]int{3, 4, 5, 6, 7}, p.Window(5)); diff != "" {
		t.Fatalf("window mismatch (-want +got):\n%s", diff)
	}
	p = views.NewPagination(apiclient.Meta{Page: 1, Limit: 10, Total: 0})
	if p.Window(5) != nil || p.HasNext() || p.From != 0 {
		t.Fatalf("unexpected empty pagination %+v", p)
	}
}

func TestMarkdownRendersSanitizedHTML(t *testing.T) {
	parser := markdown.NewGoldmarkParser(interfaces.ParseOptions{Sanitize: true})
	out := views.Markdown(parser, "**Bring** a gi <script>x()</script>")
	if string(out) == "" || strings.Contains(string(out), "<script") || !strings.Contains(string(out), "<strong>Bring</strong>") {
		t.Fatalf("unexpected markdown output %q", out)
	}
	if views.Markdown(nil, "<b>x</b>") != "&lt;b&gt;x&lt;/b&gt;" {
		t.Fatalf("expected escaped fallback, got %q", views.Markdown(nil, "<b>x</b>"))
	}
}
