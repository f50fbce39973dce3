package http

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"

	command "github.com/goliatone/go-command"
	"github.com/google/uuid"
	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"

	"github.com/goliatone/go-cms-admin/internal/apiclient"
	"github.com/goliatone/go-cms-admin/internal/commands/records"
	"github.com/goliatone/go-cms-admin/internal/fieldarray"
	"github.com/goliatone/go-cms-admin/internal/logging"
	"github.com/goliatone/go-cms-admin/internal/resources"
	"github.com/goliatone/go-cms-admin/internal/submission"
	"github.com/goliatone/go-cms-admin/internal/uploads"
	"github.com/goliatone/go-cms-admin/internal/views"
	"github.com/goliatone/go-cms-admin/pkg/interfaces"
)

const (
	DefaultBasePath    = "/dashboard"
	DefaultSessionName = "cms_admin"
	DefaultPageLimit   = 10
	DefaultMaxLimit    = 100
	DefaultMaxMemory   = 32 << 20

	actionField = "_action"
	keyField    = "_key"
	pageWindow  = 5
)

var (
	ErrNilMux           = errors.New("http: mux is nil")
	ErrRegistryRequired = errors.New("http: resource registry is required")
)

// Dashboard serves the resource pages and forms.
type Dashboard struct {
	base         string
	registry     *resources.Registry
	orch         *submission.Orchestrator
	store        sessions.Store
	sessionName  string
	deleter      command.Commander[records.DeleteRecordCommand]
	visibility   command.Commander[records.SetVisibilityCommand]
	policy       uploads.Policy
	logger       interfaces.Logger
	viewsLogger  interfaces.Logger
	defaultLimit int
	maxLimit     int
	maxMemory    int64
	fallback     string
	keys         func() string

	links    *Links
	renderer *renderer
	flashes  flashes
}

// Option configures the dashboard.
type Option func(*Dashboard)

// WithBasePath mounts the dashboard under base.
func WithBasePath(base string) Option {
	return func(d *Dashboard) {
		if strings.TrimSpace(base) != "" {
			d.base = joinPath(base, "")
		}
	}
}

func WithRegistry(registry *resources.Registry) Option {
	return func(d *Dashboard) {
		d.registry = registry
	}
}

// WithOrchestrator sets the submission orchestrator. Its notifier should be
// a FlashNotifier so submission toasts reach the operator.
func WithOrchestrator(orch *submission.Orchestrator) Option {
	return func(d *Dashboard) {
		d.orch = orch
	}
}

// WithSessionStore sets the store that keeps flash toasts between redirects.
func WithSessionStore(store sessions.Store) Option {
	return func(d *Dashboard) {
		d.store = store
	}
}

func WithSessionName(name string) Option {
	return func(d *Dashboard) {
		if strings.TrimSpace(name) != "" {
			d.sessionName = name
		}
	}
}

// WithDeleteHandler overrides the delete command handler.
func WithDeleteHandler(h command.Commander[records.DeleteRecordCommand]) Option {
	return func(d *Dashboard) {
		d.deleter = h
	}
}

// WithVisibilityHandler overrides the visibility command handler.
func WithVisibilityHandler(h command.Commander[records.SetVisibilityCommand]) Option {
	return func(d *Dashboard) {
		d.visibility = h
	}
}

// WithUploadPolicy bounds files posted to the preview endpoint.
func WithUploadPolicy(policy uploads.Policy) Option {
	return func(d *Dashboard) {
		d.policy = policy
	}
}

func WithLogger(logger interfaces.Logger) Option {
	return func(d *Dashboard) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// WithViewsLogger sets the logger read views report load failures to. It
// defaults to the dashboard logger.
func WithViewsLogger(logger interfaces.Logger) Option {
	return func(d *Dashboard) {
		d.viewsLogger = logger
	}
}

// WithPageLimits sets the default and maximum list page sizes.
func WithPageLimits(defaultLimit, maxLimit int) Option {
	return func(d *Dashboard) {
		if defaultLimit > 0 {
			d.defaultLimit = defaultLimit
		}
		if maxLimit > 0 {
			d.maxLimit = maxLimit
		}
	}
}

// WithMaxMemory caps the multipart bytes held in memory per request.
func WithMaxMemory(n int64) Option {
	return func(d *Dashboard) {
		if n > 0 {
			d.maxMemory = n
		}
	}
}

// WithFallbackMessage sets the message shown for failures without one.
func WithFallbackMessage(message string) Option {
	return func(d *Dashboard) {
		if strings.TrimSpace(message) != "" {
			d.fallback = message
		}
	}
}

// WithKeyGenerator sets how idempotency keys for record commands are made.
func WithKeyGenerator(fn func() string) Option {
	return func(d *Dashboard) {
		if fn != nil {
			d.keys = fn
		}
	}
}

// NewDashboard builds a dashboard. The registry is required.
func NewDashboard(opts ...Option) (*Dashboard, error) {
	d := &Dashboard{
		base:         DefaultBasePath,
		sessionName:  DefaultSessionName,
		logger:       logging.NoOp(),
		defaultLimit: DefaultPageLimit,
		maxLimit:     DefaultMaxLimit,
		maxMemory:    DefaultMaxMemory,
		fallback:     apiclient.DefaultFallbackMessage,
		keys:         uuid.NewString,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(d)
		}
	}
	if d.registry == nil {
		return nil, ErrRegistryRequired
	}
	if d.viewsLogger == nil {
		d.viewsLogger = d.logger
	}
	if d.orch == nil {
		d.orch = submission.New(
			submission.WithNotifier(FlashNotifier{}),
			submission.WithLogger(d.logger),
			submission.WithFallbackMessage(d.fallback),
		)
	}
	if d.deleter == nil {
		d.deleter = records.NewDeleteRecordHandler(d.registry, d.logger)
	}
	if d.visibility == nil {
		d.visibility = records.NewSetVisibilityHandler(d.registry, d.logger)
	}
	if d.store == nil {
		store := sessions.NewCookieStore(securecookie.GenerateRandomKey(32))
		store.Options = &sessions.Options{
			Path:     d.base,
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		}
		d.store = store
	}
	renderer, err := newRenderer()
	if err != nil {
		return nil, err
	}
	d.renderer = renderer
	d.links = NewLinks(d.base)
	d.flashes = flashes{store: d.store, name: d.sessionName}
	return d, nil
}

// Links exposes the dashboard URL builder.
func (d *Dashboard) Links() *Links {
	return d.links
}

// Register mounts the dashboard routes on mux.
func (d *Dashboard) Register(mux *http.ServeMux) error {
	if mux == nil {
		return ErrNilMux
	}
	base := d.base
	if base == "/" {
		mux.HandleFunc("GET /{$}", d.home)
	} else {
		mux.HandleFunc("GET "+base, d.home)
		mux.HandleFunc("GET "+base+"/{$}", d.home)
	}
	mux.HandleFunc("POST "+joinPath(base, "uploads/preview"), d.preview)
	mux.HandleFunc("GET "+joinPath(base, "{resource}"), d.list)
	mux.HandleFunc("GET "+joinPath(base, "{resource}/add"), d.addForm)
	mux.HandleFunc("POST "+joinPath(base, "{resource}/add"), d.addSubmit)
	mux.HandleFunc("GET "+joinPath(base, "{resource}/edit/{id}"), d.editForm)
	mux.HandleFunc("POST "+joinPath(base, "{resource}/edit/{id}"), d.editSubmit)
	mux.HandleFunc("GET "+joinPath(base, "{resource}/details/{id}"), d.details)
	mux.HandleFunc("POST "+joinPath(base, "{resource}/delete/{id}"), d.remove)
	mux.HandleFunc("POST "+joinPath(base, "{resource}/visibility/{id}"), d.setVisibility)
	return nil
}

func (d *Dashboard) home(w http.ResponseWriter, r *http.Request) {
	page := homePage{Cards: d.nav("")}
	d.render(w, r, http.StatusOK, pageHome, "Dashboard", "", page, nil)
}

func (d *Dashboard) list(w http.ResponseWriter, r *http.Request) {
	module, ok := d.module(w, r)
	if !ok {
		return
	}
	def := module.Definition()
	if def.Singleton {
		http.Redirect(w, r, d.links.Edit(def.Key, ""), http.StatusSeeOther)
		return
	}

	q := apiclient.ParseListQuery(r.URL.Query(), d.defaultLimit, d.maxLimit)
	view := views.LoadList(r.Context(), q, module.List,
		views.WithBack(d.links.Home()),
		views.WithFallbackMessage(d.fallback),
		views.WithLogger(d.viewsLogger),
	)

	keep := url.Values{}
	keep.Set("limit", fmt.Sprint(q.Limit))
	if q.SearchTerm != "" {
		keep.Set("searchTerm", q.SearchTerm)
	}
	page := listPage{
		Resource:   def,
		Status:     view.Status,
		Failure:    view.Failure,
		Pagination: view.Pagination,
		SearchTerm: q.SearchTerm,
		Limit:      q.Limit,
		ListHref:   d.links.List(def.Key, nil),
		AddHref:    d.links.Add(def.Key),
		PrevHref:   d.links.Page(def.Key, keep, view.Pagination.Prev()),
		NextHref:   d.links.Page(def.Key, keep, view.Pagination.Next()),
	}
	for _, row := range view.Items {
		page.Rows = append(page.Rows, rowView{
			Row:            row,
			DetailsHref:    d.links.Details(def.Key, row.ID),
			EditHref:       d.links.Edit(def.Key, row.ID),
			DeleteHref:     d.links.Delete(def.Key, row.ID),
			VisibilityHref: d.links.Visibility(def.Key, row.ID),
		})
	}
	for _, n := range view.Pagination.Window(pageWindow) {
		page.Pages = append(page.Pages, pageLink{
			Number:  n,
			Href:    d.links.Page(def.Key, keep, n),
			Current: n == view.Pagination.Page,
		})
	}
	d.render(w, r, failureStatus(view.Failure), pageList, def.Label, def.Key, page, nil)
}

func (d *Dashboard) details(w http.ResponseWriter, r *http.Request) {
	module, ok := d.module(w, r)
	if !ok {
		return
	}
	def := module.Definition()
	id := r.PathValue("id")
	view := views.LoadDetail(r.Context(), func(ctx context.Context) (*resources.Details, error) {
		return module.Details(ctx, id)
	},
		views.WithBack(d.backOf(def)),
		views.WithFallbackMessage(d.fallback),
		views.WithLogger(d.viewsLogger),
	)
	page := detailsPage{
		Resource:       def,
		Status:         view.Status,
		Failure:        view.Failure,
		Record:         view.Record,
		BackHref:       d.backOf(def),
		EditHref:       d.links.Edit(def.Key, id),
		DeleteHref:     d.links.Delete(def.Key, id),
		VisibilityHref: d.links.Visibility(def.Key, id),
	}
	title := def.Singular
	if view.Record != nil && view.Record.Title != "" {
		title = view.Record.Title
	}
	d.render(w, r, failureStatus(view.Failure), pageDetails, title, def.Key, page, nil)
}

func (d *Dashboard) addForm(w http.ResponseWriter, r *http.Request) {
	module, ok := d.module(w, r)
	if !ok {
		return
	}
	if module.Definition().Singleton {
		http.Redirect(w, r, d.links.Edit(module.Definition().Key, ""), http.StatusSeeOther)
		return
	}
	d.renderForm(w, r, http.StatusOK, module.NewForm(), nil)
}

func (d *Dashboard) addSubmit(w http.ResponseWriter, r *http.Request) {
	module, ok := d.module(w, r)
	if !ok {
		return
	}
	if module.Definition().Singleton {
		d.fail(w, r, http.StatusBadRequest, resources.ErrNotSupported)
		return
	}
	d.submit(w, r, module.NewForm())
}

func (d *Dashboard) editForm(w http.ResponseWriter, r *http.Request) {
	form, ok := d.loadForm(w, r)
	if !ok {
		return
	}
	d.renderForm(w, r, http.StatusOK, form, nil)
}

func (d *Dashboard) editSubmit(w http.ResponseWriter, r *http.Request) {
	form, ok := d.loadForm(w, r)
	if !ok {
		return
	}
	d.submit(w, r, form)
}

// loadForm fetches the record behind an edit form, rendering the error
// panel when it cannot be loaded.
func (d *Dashboard) loadForm(w http.ResponseWriter, r *http.Request) (resources.Form, bool) {
	module, ok := d.module(w, r)
	if !ok {
		return nil, false
	}
	def := module.Definition()
	id := r.PathValue("id")
	if def.Singleton {
		id = ""
	}
	view := views.LoadDetail(r.Context(), func(ctx context.Context) (*resources.Form, error) {
		form, err := module.EditForm(ctx, id)
		if err != nil {
			return nil, err
		}
		return &form, nil
	},
		views.WithBack(d.backOf(def)),
		views.WithFallbackMessage(d.fallback),
		views.WithLogger(d.viewsLogger),
	)
	if view.Failure != nil {
		d.render(w, r, failureStatus(view.Failure), pageError, def.Label, def.Key, errorPage{Failure: *view.Failure}, nil)
		return nil, false
	}
	return *view.Record, true
}

// submit binds a posted form, then either applies a form action and
// re-renders or runs the submission and redirects on success.
func (d *Dashboard) submit(w http.ResponseWriter, r *http.Request, form resources.Form) {
	ctx, buffer := withToasts(r.Context())
	if err := r.ParseMultipartForm(d.maxMemory); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		d.fail(w, r, http.StatusBadRequest, err)
		return
	}
	var files map[string][]*multipart.FileHeader
	if r.MultipartForm != nil {
		files = r.MultipartForm.File
	}
	if err := form.Bind(ctx, r.PostForm, files); err != nil {
		d.fail(w, r, http.StatusBadRequest, err)
		return
	}

	if action := strings.TrimSpace(r.PostForm.Get(actionField)); action != "" {
		err := form.Do(action)
		switch {
		case err == nil:
			d.renderForm(w, r, http.StatusOK, form, nil)
		case errors.Is(err, fieldarray.ErrMinItems), errors.Is(err, fieldarray.ErrIndexOutOfRange), errors.Is(err, uploads.ErrIndexOutOfRange):
			d.renderForm(w, r, http.StatusUnprocessableEntity, form, []interfaces.Toast{{
				Level:   interfaces.ToastError,
				Message: actionMessage(err),
			}})
		default:
			d.fail(w, r, statusOf(err), err)
		}
		return
	}

	def := form.Definition()
	target := d.links.List(def.Key, nil)
	if def.Singleton {
		target = d.links.Edit(def.Key, "")
	}
	report, err := form.Submit(ctx, d.orch, target)
	if err != nil {
		logging.WithRecord(d.logger, def.Key, form.ID(), "submit").Warn("dashboard.submit.failed", "error", err)
		d.renderForm(w, r, statusOf(err), form, buffer.drain())
		return
	}
	if err := d.flashes.save(w, r, buffer.drain()); err != nil {
		d.logger.Warn("dashboard.flash.save_failed", "error", err)
	}
	if report.Redirect != "" {
		target = report.Redirect
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

func actionMessage(err error) string {
	switch {
	case errors.Is(err, fieldarray.ErrMinItems):
		return "At least one item is required"
	default:
		return "That item no longer exists"
	}
}

func (d *Dashboard) remove(w http.ResponseWriter, r *http.Request) {
	module, ok := d.module(w, r)
	if !ok {
		return
	}
	def := module.Definition()
	cmd := records.DeleteRecordCommand{
		Resource:       def.Key,
		ID:             r.PathValue("id"),
		IdempotencyKey: d.idempotencyKey(r),
	}
	toast := interfaces.Toast{Level: interfaces.ToastSuccess, Message: def.Singular + " deleted successfully"}
	if err := d.deleter.Execute(r.Context(), cmd); err != nil {
		d.logger.Warn("dashboard.delete.failed", "resource", def.Key, "id", cmd.ID, "error", err)
		toast = interfaces.Toast{Level: interfaces.ToastError, Message: apiclient.ErrorMessage(err, d.fallback)}
	}
	d.redirectWith(w, r, d.backOf(def), toast)
}

func (d *Dashboard) setVisibility(w http.ResponseWriter, r *http.Request) {
	module, ok := d.module(w, r)
	if !ok {
		return
	}
	def := module.Definition()
	cmd := records.SetVisibilityCommand{
		Resource:       def.Key,
		ID:             r.PathValue("id"),
		Visible:        parseBool(r.PostFormValue("visible"), true),
		IdempotencyKey: d.idempotencyKey(r),
	}
	state := "hidden"
	if cmd.Visible {
		state = "visible"
	}
	toast := interfaces.Toast{Level: interfaces.ToastSuccess, Message: def.Singular + " is now " + state}
	if err := d.visibility.Execute(r.Context(), cmd); err != nil {
		d.logger.Warn("dashboard.visibility.failed", "resource", def.Key, "id", cmd.ID, "error", err)
		toast = interfaces.Toast{Level: interfaces.ToastError, Message: apiclient.ErrorMessage(err, d.fallback)}
	}
	d.redirectWith(w, r, d.backOf(def), toast)
}

type previewResponse struct {
	Name        string `json:"name"`
	ContentType string `json:"contentType"`
	Size        int64  `json:"size"`
	Preview     string `json:"preview"`
}

// preview validates one uploaded file and echoes it back as a data URL so
// the form can show it before submission.
func (d *Dashboard) preview(w http.ResponseWriter, r *http.Request) {
	if d.policy.MaxSize > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, d.policy.MaxSize+1<<20)
	}
	if err := r.ParseMultipartForm(d.maxMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse{Error: "file_too_large", Message: uploads.ErrFileTooLarge.Error()})
			return
		}
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "bad_request", Message: err.Error()})
		return
	}
	_, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "file_required", Message: "a file is required"})
		return
	}
	file, err := uploads.FromMultipart(r.Context(), header, d.policy)
	if err != nil {
		status := statusOf(err)
		code := "invalid_file"
		switch status {
		case http.StatusRequestEntityTooLarge:
			code = "file_too_large"
		case http.StatusUnsupportedMediaType:
			code = "type_not_allowed"
		default:
			status = http.StatusBadRequest
		}
		writeJSON(w, status, errorResponse{Error: code, Message: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, previewResponse{
		Name:        file.Name,
		ContentType: file.ContentType,
		Size:        file.Size(),
		Preview:     file.DataURL(),
	})
}

func (d *Dashboard) module(w http.ResponseWriter, r *http.Request) (resources.Module, bool) {
	module, err := d.registry.Get(r.PathValue("resource"))
	if err != nil {
		d.render(w, r, http.StatusNotFound, pageError, "Not found", "", errorPage{Failure: views.Failure{
			Message:  views.DefaultNotFoundMessage,
			NotFound: true,
			Back:     d.links.Home(),
		}}, nil)
		return nil, false
	}
	return module, true
}

func (d *Dashboard) renderForm(w http.ResponseWriter, r *http.Request, status int, form resources.Form, toasts []interfaces.Toast) {
	def := form.Definition()
	action := d.links.Add(def.Key)
	if form.Editing() || def.Singleton {
		action = d.links.Edit(def.Key, form.ID())
		if def.Singleton {
			action = d.links.Edit(def.Key, "")
		}
	}
	page := formPage{
		Form:       form.View(),
		Action:     action,
		CancelHref: d.backOf(def),
		PreviewURL: d.links.Preview(),
	}
	title := "Add " + def.Singular
	if form.Editing() {
		title = "Edit " + def.Singular
	}
	d.render(w, r, status, pageForm, title, def.Key, page, toasts)
}

func (d *Dashboard) fail(w http.ResponseWriter, r *http.Request, status int, err error) {
	d.logger.Warn("dashboard.request.failed", "path", r.URL.Path, "error", err)
	failure := views.Failure{Message: apiclient.ErrorMessage(err, d.fallback), Back: d.links.Home()}
	if status == http.StatusNotFound {
		failure.NotFound = true
	}
	d.render(w, r, status, pageError, "Error", "", errorPage{Failure: failure}, nil)
}

// render merges pending flash toasts with the toasts raised by this request.
func (d *Dashboard) render(w http.ResponseWriter, r *http.Request, status int, page, title, active string, content any, toasts []interfaces.Toast) {
	data := layout{
		Title:   title,
		Home:    d.links.Home(),
		Nav:     d.nav(active),
		Toasts:  append(d.flashes.take(w, r), toasts...),
		Content: content,
	}
	if err := d.renderer.render(w, status, page, data); err != nil {
		d.logger.Error("dashboard.render.failed", "page", page, "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

func (d *Dashboard) redirectWith(w http.ResponseWriter, r *http.Request, target string, toasts ...interfaces.Toast) {
	if err := d.flashes.save(w, r, toasts); err != nil {
		d.logger.Warn("dashboard.flash.save_failed", "error", err)
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

func (d *Dashboard) nav(active string) []navItem {
	modules := d.registry.All()
	out := make([]navItem, 0, len(modules))
	for _, m := range modules {
		def := m.Definition()
		out = append(out, navItem{
			Label:  def.Label,
			Href:   d.backOf(def),
			Active: def.Key == active,
		})
	}
	return out
}

// backOf is where an operator returns to after working on a record.
func (d *Dashboard) backOf(def resources.Definition) string {
	if def.Singleton {
		return d.links.Edit(def.Key, "")
	}
	return d.links.List(def.Key, nil)
}

func (d *Dashboard) idempotencyKey(r *http.Request) string {
	if key := strings.TrimSpace(r.PostFormValue(keyField)); key != "" {
		return key
	}
	return d.keys()
}

func failureStatus(f *views.Failure) int {
	switch {
	case f == nil:
		return http.StatusOK
	case f.NotFound:
		return http.StatusNotFound
	default:
		return http.StatusBadGateway
	}
}
