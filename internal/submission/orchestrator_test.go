package submission_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"sync"
	"testing"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-cms-admin/internal/apiclient"
	"github.com/goliatone/go-cms-admin/internal/fieldarray"
	"github.com/goliatone/go-cms-admin/internal/submission"
	"github.com/goliatone/go-cms-admin/pkg/interfaces"
	"github.com/goliatone/go-cms-admin/pkg/testsupport"
)

type recordingNotifier struct {
	mu     sync.Mutex
	toasts []interfaces.Toast
}

func (n *recordingNotifier) Notify(_ context.Context, toast interfaces.Toast) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.toasts = append(n.toasts, toast)
}

type heroButton struct {
	ID    string `json:"_id,omitempty"`
	Title string `json:"title"`
	Link  string `json:"link"`
}

func (b heroButton) ItemID() string { return b.ID }

func TestHeroSubmissionIssuesAllCallsAndOneToast(t *testing.T) {
	backend := testsupport.NewBackend()
	heroID := backend.Singleton("hero-section", map[string]any{"title": "Train hard"})
	backend.Seed("hero-section-buttons", map[string]any{"_id": "abc123", "title": "Old", "link": "/old"})

	client, err := apiclient.New(backend.Server(t).URL)
	if err != nil {
		t.Fatalf("client: %v", err)
	}
	hero := apiclient.NewResource[map[string]any](client, "/hero-section")
	buttons := apiclient.NewResource[heroButton](client, "/hero-section-buttons", apiclient.WithRelatedTags(hero.Tag()))

	arr := fieldarray.New("buttons", []heroButton{{ID: "abc123", Title: "Old", Link: "/old"}})
	if _, err := arr.Remove(0); err != nil {
		t.Fatalf("remove: %v", err)
	}
	arr.Append(heroButton{Title: "Get Started", Link: "/contact"})

	plan := submission.NewPlan("hero-section").WithRedirect("/dashboard")
	submission.AddChildren(plan, arr, submission.Children[heroButton]{
		Resource: "hero-section-buttons",
		Create: func(ctx context.Context, key string, b heroButton) error {
			_, err := buttons.Create(ctx, apiclient.JSON(map[string]any{"title": b.Title, "link": b.Link}), key)
			return err
		},
		Update: func(ctx context.Context, key string, b heroButton) error {
			_, err := buttons.Update(ctx, b.ID, apiclient.JSON(map[string]any{"title": b.Title, "link": b.Link}), key)
			return err
		},
		Delete: func(ctx context.Context, key, id string) error {
			return buttons.Delete(ctx, id, key)
		},
	})
	plan.Parent("hero-section", heroID, func(ctx context.Context, key string) error {
		_, err := hero.Update(ctx, heroID, apiclient.Multipart(map[string]any{"title": "Train harder"}), key)
		return err
	})

	notifier := &recordingNotifier{}
	orch := submission.New(submission.WithNotifier(notifier))
	report := orch.Execute(context.Background(), plan)

	if !report.OK() {
		t.Fatalf("expected success, got %v", report.Err)
	}
	if report.Redirect != "/dashboard" {
		t.Fatalf("unexpected redirect %q", report.Redirect)
	}
	if len(notifier.toasts) != 1 || notifier.toasts[0].Level != interfaces.ToastSuccess {
		t.Fatalf("expected a single success toast, got %+v", notifier.toasts)
	}

	creates := backend.CallsTo(http.MethodPost, "/hero-section-buttons")
	deletes := backend.CallsTo(http.MethodDelete, "/hero-section-buttons/abc123")
	parents := backend.CallsTo(http.MethodPatch, "/hero-section/"+heroID)
	if len(creates) != 1 || len(deletes) != 1 || len(parents) != 1 {
		t.Fatalf("expected 1 create, 1 delete, 1 parent update; got %d/%d/%d", len(creates), len(deletes), len(parents))
	}
	if creates[0].Data["title"] != "Get Started" || creates[0].Data["link"] != "/contact" {
		t.Fatalf("unexpected create body %+v", creates[0].Data)
	}
	for _, call := range backend.Calls() {
		if call.Method != http.MethodGet && call.IdempotencyKey == "" {
			t.Fatalf("expected idempotency key on %s %s", call.Method, call.Path)
		}
	}
}

func TestPartialFailureReportsOneRejection(t *testing.T) {
	notifier := &recordingNotifier{}
	orch := submission.New(submission.WithNotifier(notifier), submission.WithWorkers(2))

	serverErr := goerrors.New("Button title taken", goerrors.CategoryConflict)
	plan := submission.NewPlan("services").
		Create("included-services", func(context.Context, string) error { return nil }).
		Update("included-services", "s1", func(context.Context, string) error { return serverErr }).
		Parent("services", "svc", func(context.Context, string) error { return nil })

	report := orch.Execute(context.Background(), plan)
	if report.OK() {
		t.Fatal("expected aggregate failure")
	}
	if report.Message != "Button title taken" {
		t.Fatalf("expected server message, got %q", report.Message)
	}
	if report.Succeeded() != 2 || len(report.Failed()) != 1 {
		t.Fatalf("unexpected per-call results %+v", report.Results)
	}
	if len(notifier.toasts) != 1 || notifier.toasts[0].Level != interfaces.ToastError {
		t.Fatalf("expected a single error toast, got %+v", notifier.toasts)
	}
	var typed *goerrors.Error
	if !errors.As(report.Err, &typed) || typed.TextCode != submission.TextCodeFailed {
		t.Fatalf("expected tagged aggregate error, got %v", report.Err)
	}
}

func TestFallbackMessageForUntypedErrors(t *testing.T) {
	orch := submission.New(submission.WithFallbackMessage("Try again later"))
	plan := submission.NewPlan("books").
		Parent("books", "", func(context.Context, string) error { return errors.New("boom") }).
		Create("books", func(context.Context, string) error { return errors.New("bang") })

	report := orch.Execute(context.Background(), plan)
	if report.Message != "Try again later" {
		t.Fatalf("expected fallback message, got %q", report.Message)
	}
}

func TestRetryReplaysOnlyFailedCallsWithSameKeys(t *testing.T) {
	var (
		mu       sync.Mutex
		attempts = map[string][]string{}
		failOnce = true
	)
	record := func(name string) submission.RunFunc {
		return func(_ context.Context, key string) error {
			mu.Lock()
			defer mu.Unlock()
			attempts[name] = append(attempts[name], key)
			if name == "parent" && failOnce {
				failOnce = false
				return fmt.Errorf("flaky")
			}
			return nil
		}
	}

	keys := 0
	orch := submission.New(submission.WithKeyGenerator(func() string {
		keys++
		return fmt.Sprintf("key-%d", keys)
	}), submission.WithWorkers(1))

	plan := submission.NewPlan("hero-section").
		Create("hero-section-buttons", record("create")).
		Parent("hero-section", "h1", record("parent"))

	first := orch.Execute(context.Background(), plan)
	if first.OK() {
		t.Fatal("expected first attempt to fail")
	}

	second := orch.Retry(context.Background(), first)
	if !second.OK() {
		t.Fatalf("expected retry to succeed, got %v", second.Err)
	}
	if len(attempts["create"]) != 1 {
		t.Fatalf("expected create to run once, ran %d times", len(attempts["create"]))
	}
	if len(attempts["parent"]) != 2 || attempts["parent"][0] != attempts["parent"][1] {
		t.Fatalf("expected parent retried with the same key, got %v", attempts["parent"])
	}
	if len(second.Results) != 2 || second.Succeeded() != 2 {
		t.Fatalf("expected merged results, got %+v", second.Results)
	}
}

func TestRetryOfSuccessfulReportIsNoop(t *testing.T) {
	orch := submission.New()
	report := orch.Execute(context.Background(), submission.NewPlan("x").Parent("x", "1", func(context.Context, string) error { return nil }))
	again := orch.Retry(context.Background(), report)
	if !again.OK() || len(again.Results) != 1 {
		t.Fatalf("unexpected retry result %+v", again)
	}
}

func TestExecuteEmptyPlan(t *testing.T) {
	report := submission.New().Execute(context.Background(), submission.NewPlan("empty"))
	if !errors.Is(report.Err, submission.ErrEmptyPlan) {
		t.Fatalf("expected ErrEmptyPlan, got %v", report.Err)
	}
}

func TestAddChildrenCounts(t *testing.T) {
	arr := fieldarray.New("buttons", []heroButton{{ID: "a"}, {ID: "b"}, {}})
	_, _ = arr.Remove(0)
	noop := func(context.Context, string, heroButton) error { return nil }
	plan := submission.AddChildren(submission.NewPlan("hero"), arr, submission.Children[heroButton]{
		Resource: "buttons",
		Create:   noop,
		Update:   noop,
		Delete:   func(context.Context, string, string) error { return nil },
	})
	if plan.Count(submission.KindDelete) != 1 || plan.Count(submission.KindUpdate) != 1 || plan.Count(submission.KindCreate) != 1 {
		t.Fatalf("unexpected plan %+v", plan.Calls)
	}
}

func TestTokenKeysAreStableAcrossResubmissions(t *testing.T) {
	var (
		mu   sync.Mutex
		keys []string
	)
	record := func(_ context.Context, key string) error {
		mu.Lock()
		defer mu.Unlock()
		keys = append(keys, key)
		return nil
	}
	run := func(title string) []string {
		keys = nil
		plan := submission.NewPlan("hero-section").
			WithToken("form-1").
			Create("hero-section-buttons", record).
			Create("hero-section-buttons", record).
			Add(submission.Call{
				Kind:        submission.KindParent,
				Resource:    "hero-section",
				ID:          "h1",
				Fingerprint: submission.Fingerprint(map[string]any{"title": title}),
				Run:         record,
			})
		submission.New().Execute(context.Background(), plan)
		mu.Lock()
		defer mu.Unlock()
		out := slices.Clone(keys)
		slices.Sort(out)
		return out
	}

	first := run("Train hard")
	if len(first) != 3 {
		t.Fatalf("expected three keys, got %v", first)
	}
	want := []string{
		"form-1:create:hero-section-buttons:0",
		"form-1:create:hero-section-buttons:1",
	}
	if diff := cmp.Diff(want, first[:2]); diff != "" {
		t.Fatalf("create keys mismatch (-want +got):\n%s", diff)
	}
	if !strings.HasPrefix(first[2], "form-1:parent:hero-section:h1:0:") {
		t.Fatalf("unexpected parent key %q", first[2])
	}

	if diff := cmp.Diff(first, run("Train hard")); diff != "" {
		t.Fatalf("expected identical keys for an identical resubmission (-first +second):\n%s", diff)
	}

	edited := run("Train harder")
	if diff := cmp.Diff(first[:2], edited[:2]); diff != "" {
		t.Fatalf("expected create keys to survive edits (-first +edited):\n%s", diff)
	}
	if edited[2] == first[2] {
		t.Fatalf("expected an edited parent to get a new key, got %q twice", first[2])
	}
}
