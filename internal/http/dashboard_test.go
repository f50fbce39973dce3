package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-cms-admin/internal/apiclient"
	"github.com/goliatone/go-cms-admin/internal/resources"
	"github.com/goliatone/go-cms-admin/internal/uploads"
	"github.com/goliatone/go-cms-admin/pkg/interfaces"
	"github.com/goliatone/go-cms-admin/pkg/testsupport"
)

var pngBytes = append([]byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), bytes.Repeat([]byte{0}, 32)...)

type dashboardHarness struct {
	backend *testsupport.Backend
	server  *httptest.Server
	client  *http.Client
}

func setupDashboard(t *testing.T, opts ...Option) *dashboardHarness {
	t.Helper()
	backend := testsupport.NewBackend()
	client, err := apiclient.New(backend.Server(t).URL)
	if err != nil {
		t.Fatalf("api client: %v", err)
	}
	registry := resources.NewRegistry(client, resources.Deps{})
	dashboard, err := NewDashboard(append([]Option{WithRegistry(registry)}, opts...)...)
	if err != nil {
		t.Fatalf("new dashboard: %v", err)
	}
	mux := http.NewServeMux()
	if err := dashboard.Register(mux); err != nil {
		t.Fatalf("register: %v", err)
	}
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookie jar: %v", err)
	}
	return &dashboardHarness{
		backend: backend,
		server:  server,
		client:  &http.Client{Jar: jar},
	}
}

// noFollow returns a client that reports redirects instead of following them.
func (h *dashboardHarness) noFollow() *http.Client {
	return &http.Client{
		Jar: h.client.Jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

func (h *dashboardHarness) get(t *testing.T, client *http.Client, path string) (*http.Response, string) {
	t.Helper()
	resp, err := client.Get(h.server.URL + path)
	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}
	return resp, readBody(t, resp)
}

func (h *dashboardHarness) postForm(t *testing.T, client *http.Client, path string, values url.Values) (*http.Response, string) {
	t.Helper()
	resp, err := client.PostForm(h.server.URL+path, values)
	if err != nil {
		t.Fatalf("POST %s: %v", path, err)
	}
	return resp, readBody(t, resp)
}

type filePart struct {
	field string
	name  string
	data  []byte
}

func (h *dashboardHarness) postMultipart(t *testing.T, client *http.Client, path string, values url.Values, files ...filePart) (*http.Response, string) {
	t.Helper()
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	for key, list := range values {
		for _, v := range list {
			if err := writer.WriteField(key, v); err != nil {
				t.Fatalf("write field: %v", err)
			}
		}
	}
	for _, f := range files {
		part, err := writer.CreateFormFile(f.field, f.name)
		if err != nil {
			t.Fatalf("create part: %v", err)
		}
		if _, err := part.Write(f.data); err != nil {
			t.Fatalf("write part: %v", err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close multipart: %v", err)
	}
	resp, err := client.Post(h.server.URL+path, writer.FormDataContentType(), &body)
	if err != nil {
		t.Fatalf("POST %s: %v", path, err)
	}
	return resp, readBody(t, resp)
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return string(raw)
}

func TestDashboardHomeListsResources(t *testing.T) {
	h := setupDashboard(t)

	resp, body := h.get(t, h.client, "/dashboard")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	for _, want := range []string{`href="/dashboard/blogs"`, `href="/dashboard/hero-section/edit/current"`, "Testimonials"} {
		if !strings.Contains(body, want) {
			t.Fatalf("expected %q in home page", want)
		}
	}
}

func TestDashboardListPaginates(t *testing.T) {
	h := setupDashboard(t)
	for i := 1; i <= 12; i++ {
		h.backend.Seed("blogs", map[string]any{"title": fmt.Sprintf("Post %02d", i), "author": "Coach"})
	}

	resp, body := h.get(t, h.client, "/dashboard/blogs?limit=5")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if !strings.Contains(body, "Post 01") || strings.Contains(body, "Post 06") {
		t.Fatalf("expected only the first page of posts")
	}
	if !strings.Contains(body, `rel="next"`) || !strings.Contains(body, "page=2") {
		t.Fatalf("expected a next page link")
	}
	if strings.Contains(body, `rel="prev"`) {
		t.Fatalf("first page must not link backwards")
	}
	if !strings.Contains(body, "1-5 of 12") {
		t.Fatalf("expected range summary")
	}

	_, body = h.get(t, h.client, "/dashboard/blogs?limit=5&page=3")
	if !strings.Contains(body, "Post 11") || !strings.Contains(body, "Post 12") || strings.Contains(body, `rel="next"`) {
		t.Fatalf("unexpected last page")
	}
}

func TestDashboardListShowsBackendFailure(t *testing.T) {
	h := setupDashboard(t)
	h.backend.Fail(http.MethodGet, "/blogs", http.StatusInternalServerError, "database unavailable")

	resp, body := h.get(t, h.client, "/dashboard/blogs")
	if resp.StatusCode != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", resp.StatusCode)
	}
	if !strings.Contains(body, "database unavailable") {
		t.Fatalf("expected backend message in error panel")
	}
}

func TestDashboardSingletonListRedirectsToEdit(t *testing.T) {
	h := setupDashboard(t)

	resp, _ := h.get(t, h.noFollow(), "/dashboard/hero-section")
	if resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", resp.StatusCode)
	}
	if loc := resp.Header.Get("Location"); loc != "/dashboard/hero-section/edit/current" {
		t.Fatalf("unexpected redirect %q", loc)
	}
}

func TestDashboardUnknownResource(t *testing.T) {
	h := setupDashboard(t)

	resp, body := h.get(t, h.client, "/dashboard/widgets")
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
	if !strings.Contains(body, "does not exist") {
		t.Fatalf("expected not found message")
	}
}

func TestDashboardDetails(t *testing.T) {
	h := setupDashboard(t)
	id := h.backend.Seed("blogs", map[string]any{"title": "Open Mat", "description": "# Bring a partner", "isVisible": true})[0]

	resp, body := h.get(t, h.client, "/dashboard/blogs/details/"+id)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if !strings.Contains(body, "Open Mat") || !strings.Contains(body, "Visible") {
		t.Fatalf("expected record details")
	}

	resp, body = h.get(t, h.client, "/dashboard/blogs/details/missing")
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
	if !strings.Contains(body, `href="/dashboard/blogs"`) {
		t.Fatalf("expected back link to the list")
	}
}

func TestDashboardCreateRedirectsWithFlash(t *testing.T) {
	h := setupDashboard(t)

	resp, body := h.postMultipart(t, h.client, "/dashboard/blogs/add", url.Values{
		"title":       {"Open Mat Friday"},
		"description": {"Bring a partner."},
		"tags":        {"bjj, open mat"},
		"isVisible":   {"true"},
	}, filePart{field: "banner", name: "banner.png", data: pngBytes})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected the list after redirect, got %d", resp.StatusCode)
	}
	if resp.Request.URL.Path != "/dashboard/blogs" {
		t.Fatalf("expected redirect to list, ended at %s", resp.Request.URL.Path)
	}
	if !strings.Contains(body, "Blog created successfully") {
		t.Fatalf("expected success toast on the list")
	}
	if !strings.Contains(body, "Open Mat Friday") {
		t.Fatalf("expected created blog in list")
	}

	posts := h.backend.CallsTo(http.MethodPost, "/blogs")
	if len(posts) != 1 {
		t.Fatalf("expected one create call, got %d", len(posts))
	}
	if diff := cmp.Diff([]string{"banner.png"}, posts[0].Files["banner"]); diff != "" {
		t.Fatalf("banner mismatch (-want +got):\n%s", diff)
	}

	_, body = h.get(t, h.client, "/dashboard/blogs")
	if strings.Contains(body, "Blog created successfully") {
		t.Fatalf("flash toast must only show once")
	}
}

func TestDashboardInvalidSubmissionRerenders(t *testing.T) {
	h := setupDashboard(t)

	resp, body := h.postForm(t, h.client, "/dashboard/blogs/add", url.Values{"isVisible": {"true"}})
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", resp.StatusCode)
	}
	if !strings.Contains(body, "Please correct the highlighted fields") {
		t.Fatalf("expected form message")
	}
	if !strings.Contains(body, `class="error"`) {
		t.Fatalf("expected field errors")
	}
	if calls := h.backend.Calls(); len(calls) != 0 {
		t.Fatalf("expected no backend calls, got %d", len(calls))
	}
}

func TestDashboardBackendFailureKeepsForm(t *testing.T) {
	h := setupDashboard(t)
	h.backend.Fail(http.MethodPost, "/testimonial", http.StatusBadRequest, "Validation failed",
		testsupport.FieldError{Path: "clientName", Message: "clientName already exists"})

	resp, body := h.postMultipart(t, h.client, "/dashboard/testimonials/add", url.Values{
		"clientName":  {"Marco"},
		"clientTitle": {"Black belt"},
		"review":      {"Best academy in town, hands down."},
		"rating":      {"5"},
	}, filePart{field: "clientPhoto", name: "marco.png", data: pngBytes})
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", resp.StatusCode)
	}
	if !strings.Contains(body, "clientName already exists") {
		t.Fatalf("expected backend field error on the form")
	}
	if !strings.Contains(body, `value="Marco"`) {
		t.Fatalf("expected entered values to survive")
	}
	if !strings.Contains(body, "data:image/png;base64,") {
		t.Fatalf("expected the selected photo to be kept as a preview")
	}
}

func TestDashboardFieldArrayActions(t *testing.T) {
	h := setupDashboard(t)
	h.backend.Singleton("hero-section", map[string]any{
		"title":   "Train hard",
		"image":   "https://cdn.test/image/hero.png",
		"buttons": []any{map[string]any{"_id": "abc123", "title": "Join", "link": "/join"}},
	})

	resp, body := h.postForm(t, h.client, "/dashboard/hero-section/edit/current", url.Values{
		"title":           {"Train hard"},
		"image_preview":   {"https://cdn.test/image/hero.png"},
		"buttons.0.id":    {"abc123"},
		"buttons.0.title": {"Join"},
		"buttons.0.link":  {"/join"},
		"_action":         {"remove:buttons:0"},
	})
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 when removing the last button, got %d", resp.StatusCode)
	}
	if !strings.Contains(body, "At least one item is required") {
		t.Fatalf("expected min items toast")
	}

	resp, body = h.postForm(t, h.client, "/dashboard/hero-section/edit/current", url.Values{
		"title":           {"Train hard"},
		"image_preview":   {"https://cdn.test/image/hero.png"},
		"buttons.0.id":    {"abc123"},
		"buttons.0.title": {"Join"},
		"buttons.0.link":  {"/join"},
		"buttons.1.title": {"Get Started"},
		"buttons.1.link":  {"/contact"},
		"_action":         {"remove:buttons:0"},
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if !strings.Contains(body, `name="buttons_deleted" value="abc123"`) {
		t.Fatalf("expected pending deletion to be carried in the form")
	}
	if !strings.Contains(body, `value="Get Started"`) || strings.Contains(body, `value="Join"`) {
		t.Fatalf("expected only the remaining button")
	}
	for _, method := range []string{http.MethodPost, http.MethodPatch, http.MethodPut, http.MethodDelete} {
		if calls := h.backend.CallsTo(method, "/"); len(calls) != 0 {
			t.Fatalf("form actions must not mutate the backend, got %s calls", method)
		}
	}
}

func TestDashboardResubmitDoesNotRepeatCreatedButtons(t *testing.T) {
	h := setupDashboard(t)
	heroID := h.backend.Singleton("hero-section", map[string]any{
		"title":   "Train hard",
		"image":   "https://cdn.test/image/hero.png",
		"buttons": []any{map[string]any{"_id": "abc123", "title": "Join", "link": "/join"}},
	})
	h.backend.Seed("hero-section-buttons", map[string]any{"_id": "abc123", "title": "Join", "link": "/join"})

	_, body := h.get(t, h.client, "/dashboard/hero-section/edit/current")
	if !strings.Contains(body, `name="_token" value="`) {
		t.Fatalf("expected the form to carry a submission token")
	}

	values := url.Values{
		"_token":          {"resubmit-1"},
		"title":           {"Train harder"},
		"image_preview":   {"https://cdn.test/image/hero.png"},
		"buttons.0.id":    {"abc123"},
		"buttons.0.title": {"Join"},
		"buttons.0.link":  {"/join"},
		"buttons.1.title": {"Get Started"},
		"buttons.1.link":  {"/contact"},
	}
	h.backend.Fail(http.MethodPatch, "/hero-section/"+heroID, http.StatusInternalServerError, "Server exploded")

	resp, body := h.postForm(t, h.noFollow(), "/dashboard/hero-section/edit/current", values)
	if resp.StatusCode == http.StatusSeeOther {
		t.Fatalf("expected the failed submission to re-render the form")
	}
	if !strings.Contains(body, `name="_token" value="resubmit-1"`) {
		t.Fatalf("expected the token to survive the failed attempt")
	}
	if n := len(h.backend.Records("hero-section-buttons")); n != 2 {
		t.Fatalf("expected the new button created once, got %d buttons", n)
	}

	resp, _ = h.postForm(t, h.noFollow(), "/dashboard/hero-section/edit/current", values)
	if resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("expected the resubmission to succeed, got %d", resp.StatusCode)
	}
	if n := len(h.backend.Records("hero-section-buttons")); n != 2 {
		t.Fatalf("expected the resubmission to replay the create, got %d buttons", n)
	}
	creates := h.backend.CallsTo(http.MethodPost, "/hero-section-buttons")
	if len(creates) != 2 || creates[0].IdempotencyKey != creates[1].IdempotencyKey {
		t.Fatalf("expected both attempts to share the create key, got %+v", creates)
	}
	if got := h.backend.Record("hero-section", heroID)["title"]; got != "Train harder" {
		t.Fatalf("expected the parent saved, got title %v", got)
	}
}

func TestDashboardDeleteAndVisibility(t *testing.T) {
	n := 0
	h := setupDashboard(t, WithKeyGenerator(func() string {
		n++
		return fmt.Sprintf("key-%d", n)
	}))
	blogID := h.backend.Seed("blogs", map[string]any{"title": "Old news"})[0]
	reviewID := h.backend.Seed("testimonial", map[string]any{"clientName": "Marco", "isVisible": true})[0]

	resp, body := h.postForm(t, h.client, "/dashboard/blogs/delete/"+blogID, url.Values{})
	if resp.Request.URL.Path != "/dashboard/blogs" {
		t.Fatalf("expected redirect to list, ended at %s", resp.Request.URL.Path)
	}
	if !strings.Contains(body, "Blog deleted successfully") {
		t.Fatalf("expected delete toast")
	}
	if h.backend.Record("blogs", blogID)["isDeleted"] != true {
		t.Fatalf("expected soft delete")
	}
	if calls := h.backend.CallsTo(http.MethodPatch, "/blogs/"+blogID); len(calls) != 1 || calls[0].IdempotencyKey != "key-1" {
		t.Fatalf("expected keyed soft delete, got %+v", calls)
	}

	_, body = h.postForm(t, h.client, "/dashboard/testimonials/visibility/"+reviewID, url.Values{"visible": {"false"}})
	if !strings.Contains(body, "Testimonial is now hidden") {
		t.Fatalf("expected visibility toast")
	}
	if h.backend.Record("testimonial", reviewID)["isVisible"] != false {
		t.Fatalf("expected hidden testimonial")
	}

	_, body = h.postForm(t, h.client, "/dashboard/books/visibility/b-1", url.Values{"visible": {"true"}})
	if !strings.Contains(body, "toast-error") {
		t.Fatalf("expected error toast for resources without visibility")
	}
}

func TestDashboardUploadPreview(t *testing.T) {
	h := setupDashboard(t, WithUploadPolicy(uploads.Policy{MaxSize: 64, AllowedTypes: []string{"image/png"}}))

	resp, body := h.postMultipart(t, h.client, "/dashboard/uploads/preview", nil, filePart{field: "file", name: "logo.png", data: pngBytes})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, body)
	}
	var got previewResponse
	if err := json.Unmarshal([]byte(body), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Name != "logo.png" || got.ContentType != "image/png" || got.Size != int64(len(pngBytes)) {
		t.Fatalf("unexpected preview %+v", got)
	}
	if !strings.HasPrefix(got.Preview, "data:image/png;base64,") {
		t.Fatalf("expected data url preview")
	}

	large := append(append([]byte(nil), pngBytes...), bytes.Repeat([]byte{0}, 128)...)
	resp, _ = h.postMultipart(t, h.client, "/dashboard/uploads/preview", nil, filePart{field: "file", name: "big.png", data: large})
	if resp.StatusCode != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d", resp.StatusCode)
	}

	resp, _ = h.postMultipart(t, h.client, "/dashboard/uploads/preview", nil, filePart{field: "file", name: "notes.txt", data: []byte("plain words")})
	if resp.StatusCode != http.StatusUnsupportedMediaType {
		t.Fatalf("expected 415, got %d", resp.StatusCode)
	}

	resp, _ = h.postMultipart(t, h.client, "/dashboard/uploads/preview", url.Values{"other": {"x"}})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 without a file, got %d", resp.StatusCode)
	}
}

func TestFlashNotifierScopesToRequest(t *testing.T) {
	var forwarded []interfaces.Toast
	next := notifierFunc(func(_ context.Context, toast interfaces.Toast) {
		forwarded = append(forwarded, toast)
	})
	notifier := FlashNotifier{Next: next}

	ctx, buf := withToasts(context.Background())
	notifier.Notify(ctx, interfaces.Toast{Level: interfaces.ToastSuccess, Message: "saved"})
	notifier.Notify(context.Background(), interfaces.Toast{Level: interfaces.ToastInfo, Message: "background"})

	if diff := cmp.Diff([]interfaces.Toast{{Level: interfaces.ToastSuccess, Message: "saved"}}, buf.drain()); diff != "" {
		t.Fatalf("buffered toasts mismatch (-want +got):\n%s", diff)
	}
	if len(forwarded) != 1 || forwarded[0].Message != "background" {
		t.Fatalf("expected background toast forwarded, got %+v", forwarded)
	}
	if len(buf.drain()) != 0 {
		t.Fatalf("drain must empty the buffer")
	}
}

type notifierFunc func(context.Context, interfaces.Toast)

func (fn notifierFunc) Notify(ctx context.Context, toast interfaces.Toast) { fn(ctx, toast) }

func TestLinks(t *testing.T) {
	links := NewLinks("dashboard/")

	cases := map[string]string{
		links.Home():                          "/dashboard",
		links.List("blogs", nil):              "/dashboard/blogs",
		links.Add("blogs"):                    "/dashboard/blogs/add",
		links.Edit("blogs", "b1"):             "/dashboard/blogs/edit/b1",
		links.Edit("footer", ""):              "/dashboard/footer/edit/current",
		links.Details("books", "x"):           "/dashboard/books/details/x",
		links.Delete("books", "x"):            "/dashboard/books/delete/x",
		links.Visibility("testimonials", "t"): "/dashboard/testimonials/visibility/t",
		links.Preview():                       "/dashboard/uploads/preview",
	}
	for got, want := range cases {
		if got != want {
			t.Fatalf("expected %q, got %q", want, got)
		}
	}

	page := links.Page("blogs", url.Values{"searchTerm": {"bjj"}}, 3)
	parsed, err := url.Parse(page)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if parsed.Path != "/dashboard/blogs" || parsed.Query().Get("page") != "3" || parsed.Query().Get("searchTerm") != "bjj" {
		t.Fatalf("unexpected page link %q", page)
	}
}

func TestStatusOf(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{nil, http.StatusOK},
		{resources.ErrUnknownResource, http.StatusNotFound},
		{resources.ErrNotSupported, http.StatusBadRequest},
		{uploads.ErrFileTooLarge, http.StatusRequestEntityTooLarge},
		{uploads.ErrTypeNotAllowed, http.StatusUnsupportedMediaType},
		{io.ErrUnexpectedEOF, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		if got := statusOf(tc.err); got != tc.want {
			t.Fatalf("statusOf(%v) = %d, want %d", tc.err, got, tc.want)
		}
	}
}

type recordingLogger struct {
	mu      sync.Mutex
	entries []string
}

func (l *recordingLogger) add(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, msg)
}

func (l *recordingLogger) has(msg string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, e := range l.entries {
		if e == msg {
			return true
		}
	}
	return false
}

func (l *recordingLogger) Trace(msg string, _ ...any) { l.add(msg) }
func (l *recordingLogger) Debug(msg string, _ ...any) { l.add(msg) }
func (l *recordingLogger) Info(msg string, _ ...any)  { l.add(msg) }
func (l *recordingLogger) Warn(msg string, _ ...any)  { l.add(msg) }
func (l *recordingLogger) Error(msg string, _ ...any) { l.add(msg) }
func (l *recordingLogger) Fatal(msg string, _ ...any) { l.add(msg) }

func (l *recordingLogger) WithContext(context.Context) interfaces.Logger { return l }

func TestDashboardViewFailuresUseTheViewsLogger(t *testing.T) {
	viewsLog := &recordingLogger{}
	dashLog := &recordingLogger{}
	h := setupDashboard(t, WithLogger(dashLog), WithViewsLogger(viewsLog))

	resp, _ := h.get(t, h.client, "/dashboard/blogs/details/missing")
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
	if !viewsLog.has("views.detail.failed") {
		t.Fatalf("expected the views logger to record the failure, got %v", viewsLog.entries)
	}
	if dashLog.has("views.detail.failed") {
		t.Fatal("view failures must not go to the dashboard logger")
	}
}
