package views

import (
	"context"
	"html/template"
	"strings"

	"github.com/goliatone/go-cms-admin/internal/apiclient"
	"github.com/goliatone/go-cms-admin/internal/logging"
	"github.com/goliatone/go-cms-admin/pkg/interfaces"
)

// Status is the render state of a view.
type Status string

const (
	StatusError   Status = "error"
	StatusSuccess Status = "success"
)

const DefaultNotFoundMessage = "The record you are looking for does not exist"

// Failure is the error panel of a view.
type Failure struct {
	Message  string
	NotFound bool
	Back     string
}

// Detail renders a single record.
type Detail[T any] struct {
	Status  Status
	Record  *T
	Failure *Failure
}

// List renders a page of records.
type List[T any] struct {
	Status     Status
	Items      []T
	Query      apiclient.ListQuery
	Pagination Pagination
	Failure    *Failure
}

// Option configures a load.
type Option func(*loadConfig)

type loadConfig struct {
	back     string
	fallback string
	notFound string
	logger   interfaces.Logger
}

// WithBack sets the target of the error panel's back action.
func WithBack(target string) Option {
	return func(c *loadConfig) {
		c.back = target
	}
}

// WithFallbackMessage sets the message shown for unexpected failures.
func WithFallbackMessage(message string) Option {
	return func(c *loadConfig) {
		if message != "" {
			c.fallback = message
		}
	}
}

// WithNotFoundMessage overrides the not-found message.
func WithNotFoundMessage(message string) Option {
	return func(c *loadConfig) {
		if message != "" {
			c.notFound = message
		}
	}
}

// WithLogger sets the logger for failed loads.
func WithLogger(logger interfaces.Logger) Option {
	return func(c *loadConfig) {
		if logger != nil {
			c.logger = logger
		}
	}
}

func newLoadConfig(opts []Option) loadConfig {
	cfg := loadConfig{
		fallback: apiclient.DefaultFallbackMessage,
		notFound: DefaultNotFoundMessage,
		logger:   logging.NoOp(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

func (c loadConfig) failure(err error) *Failure {
	if apiclient.IsNotFound(err) {
		return &Failure{Message: c.notFound, NotFound: true, Back: c.back}
	}
	return &Failure{Message: apiclient.ErrorMessage(err, c.fallback), Back: c.back}
}

// LoadDetail fetches one record into a detail view.
func LoadDetail[T any](ctx context.Context, fetch func(context.Context) (*T, error), opts ...Option) Detail[T] {
	cfg := newLoadConfig(opts)
	record, err := fetch(ctx)
	if err != nil {
		cfg.logger.Warn("views.detail.failed", "error", err)
		return Detail[T]{Status: StatusError, Failure: cfg.failure(err)}
	}
	if record == nil {
		return Detail[T]{Status: StatusError, Failure: &Failure{Message: cfg.notFound, NotFound: true, Back: cfg.back}}
	}
	return Detail[T]{Status: StatusSuccess, Record: record}
}

// LoadList fetches one page into a list view. Items are exactly the page's
// data; pagination derives from its meta total.
func LoadList[T any](ctx context.Context, q apiclient.ListQuery, fetch func(context.Context, apiclient.ListQuery) (*apiclient.Page[T], error), opts ...Option) List[T] {
	cfg := newLoadConfig(opts)
	page, err := fetch(ctx, q)
	if err != nil {
		cfg.logger.Warn("views.list.failed", "error", err, "page", q.Page)
		return List[T]{Status: StatusError, Query: q, Failure: cfg.failure(err)}
	}
	meta := page.Meta
	if meta.Page == 0 {
		meta.Page = q.Page
	}
	if meta.Limit == 0 {
		meta.Limit = q.Limit
	}
	return List[T]{
		Status:     StatusSuccess,
		Items:      page.Data,
		Query:      q,
		Pagination: NewPagination(meta),
	}
}

// Markdown renders source through parser as trusted HTML. Parser failures
// fall back to escaped text.
func Markdown(parser interfaces.MarkdownParser, source string) template.HTML {
	source = strings.TrimSpace(source)
	if source == "" {
		return ""
	}
	if parser == nil {
		return template.HTML(template.HTMLEscapeString(source))
	}
	out, err := parser.Parse([]byte(source))
	if err != nil {
		return template.HTML(template.HTMLEscapeString(source))
	}
	return template.HTML(out)
}
