package resources

import (
	"context"
	"html/template"
	"strings"

	"github.com/goliatone/go-cms-admin/internal/apiclient"
	"github.com/goliatone/go-cms-admin/internal/forms"
	"github.com/goliatone/go-cms-admin/internal/logging"
	"github.com/goliatone/go-cms-admin/internal/uploads"
	"github.com/goliatone/go-cms-admin/internal/views"
	"github.com/goliatone/go-cms-admin/pkg/interfaces"
)

// Deps are the collaborators shared by every module.
type Deps struct {
	Markdown interfaces.MarkdownParser
	Policy   uploads.Policy
	Logger   interfaces.Logger
}

// UploadSpec declares a file part of a resource.
type UploadSpec struct {
	Field            string
	Label            string
	Required         bool
	RequiredOnCreate bool
	Gallery          bool
	MaxItems         int
}

type renderFunc func(string) template.HTML

// decl binds a record type R and its draft D to the generic module.
type decl[R any, D forms.Draft] struct {
	def     Definition
	id      func(R) string
	title   func(R) string
	visible func(R) *bool
	row     func(R) Row
	details func(R, renderFunc) []Entry
	blank   func() D
	draft   func(R) D
	fields  func(D) []Field
	payload func(D) map[string]any
	uploads []UploadSpec
	media   func(R) map[string][]string
	arrays  func(*D) []arrayBinding
	opts    []apiclient.ResourceOption
}

type module[R any, D forms.Draft] struct {
	decl decl[R, D]
	api  *apiclient.Resource[R]
	raw  *apiclient.Resource[map[string]any]
	deps Deps
}

func newModule[R any, D forms.Draft](client *apiclient.Client, deps Deps, s decl[R, D]) *module[R, D] {
	if deps.Logger == nil {
		deps.Logger = logging.NoOp()
	}
	opts := append([]apiclient.ResourceOption{apiclient.WithEncoding(s.def.Encoding)}, s.opts...)
	api := apiclient.NewResource[R](client, s.def.Endpoint, opts...)
	return &module[R, D]{
		decl: s,
		api:  api,
		raw:  apiclient.NewResource[map[string]any](client, s.def.Endpoint, apiclient.WithTag(api.Tag())),
		deps: deps,
	}
}

func (m *module[R, D]) Definition() Definition {
	return m.decl.def
}

func (m *module[R, D]) List(ctx context.Context, q apiclient.ListQuery) (*apiclient.Page[Row], error) {
	if m.decl.def.Singleton {
		return nil, ErrNotSupported
	}
	page, err := m.api.List(ctx, q)
	if err != nil {
		return nil, err
	}
	rows := make([]Row, 0, len(page.Data))
	for _, rec := range page.Data {
		row := m.decl.row(rec)
		row.ID = m.decl.id(rec)
		if row.Title == "" {
			row.Title = m.decl.title(rec)
		}
		if m.decl.visible != nil {
			row.Visible = m.decl.visible(rec)
		}
		rows = append(rows, row)
	}
	return &apiclient.Page[Row]{Data: rows, Meta: page.Meta}, nil
}

func (m *module[R, D]) fetch(ctx context.Context, id string) (*R, error) {
	if m.decl.def.Singleton {
		return m.api.Current(ctx)
	}
	return m.api.Get(ctx, id)
}

func (m *module[R, D]) Details(ctx context.Context, id string) (*Details, error) {
	rec, err := m.fetch(ctx, id)
	if err != nil {
		return nil, err
	}
	render := func(source string) template.HTML {
		return views.Markdown(m.deps.Markdown, source)
	}
	details := &Details{
		ID:      m.decl.id(*rec),
		Title:   m.decl.title(*rec),
		Entries: m.decl.details(*rec, render),
	}
	if m.decl.visible != nil {
		details.Visible = m.decl.visible(*rec)
	}
	return details, nil
}

func (m *module[R, D]) NewForm() Form {
	return m.newForm("", m.decl.blank(), nil)
}

func (m *module[R, D]) EditForm(ctx context.Context, id string) (Form, error) {
	rec, err := m.fetch(ctx, id)
	if err != nil {
		if m.decl.def.Singleton && apiclient.IsNotFound(err) {
			return m.NewForm(), nil
		}
		return nil, err
	}
	return m.newForm(m.decl.id(*rec), m.decl.draft(*rec), rec), nil
}

func (m *module[R, D]) Delete(ctx context.Context, id, key string) error {
	switch {
	case m.decl.def.Singleton:
		return ErrNotSupported
	case m.decl.def.SoftDelete:
		return m.api.SoftDelete(ctx, id, key)
	default:
		return m.api.Delete(ctx, id, key)
	}
}

func (m *module[R, D]) SetVisibility(ctx context.Context, id string, visible bool, key string) error {
	if !m.decl.def.Visibility {
		return ErrNotSupported
	}
	return m.api.SetVisibility(ctx, id, visible, key)
}

func (m *module[R, D]) Records(ctx context.Context, q apiclient.ListQuery) (*apiclient.Page[map[string]any], error) {
	if m.decl.def.Singleton {
		rec, err := m.raw.Current(ctx)
		if err != nil {
			return nil, err
		}
		return &apiclient.Page[map[string]any]{
			Data: []map[string]any{*rec},
			Meta: apiclient.Meta{Page: 1, Limit: 1, Total: 1},
		}, nil
	}
	return m.raw.List(ctx, q)
}

func (m *module[R, D]) Record(ctx context.Context, id string) (map[string]any, error) {
	var (
		rec *map[string]any
		err error
	)
	if m.decl.def.Singleton && strings.TrimSpace(id) == "" {
		rec, err = m.raw.Current(ctx)
	} else {
		rec, err = m.raw.Get(ctx, id)
	}
	if err != nil {
		return nil, err
	}
	return *rec, nil
}
