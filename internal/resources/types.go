package resources

import (
	"context"
	"errors"
	"html/template"
	"mime/multipart"
	"net/url"

	"github.com/goliatone/go-cms-admin/internal/apiclient"
	"github.com/goliatone/go-cms-admin/internal/submission"
)

var (
	ErrUnknownResource = errors.New("resources: unknown resource")
	ErrNotSupported    = errors.New("resources: operation not supported by resource")
	ErrUnknownAction   = errors.New("resources: unknown form action")
	ErrUnknownField    = errors.New("resources: unknown form field")
)

// Definition describes one manageable resource.
type Definition struct {
	Key        string
	Label      string
	Singular   string
	Endpoint   string
	Singleton  bool
	SoftDelete bool
	Visibility bool
	// Replace sends updates as PUT instead of PATCH.
	Replace  bool
	Encoding apiclient.Encoding
	Columns  []Column
}

// Column is a list table column or a field array column.
type Column struct {
	Name  string
	Label string
	Kind  FieldKind
}

// Row is one record in a list table. Cells align with Definition.Columns.
type Row struct {
	ID      string
	Title   string
	Image   string
	Visible *bool
	Cells   []string
}

// Entry is one labelled value on a details page.
type Entry struct {
	Label  string
	Text   string
	HTML   template.HTML
	Image  string
	Images []string
	List   []string
}

// Details is the read view of a record.
type Details struct {
	ID      string
	Title   string
	Visible *bool
	Entries []Entry
}

// FieldKind selects how a form field renders.
type FieldKind string

const (
	KindText     FieldKind = "text"
	KindTextarea FieldKind = "textarea"
	KindMarkdown FieldKind = "markdown"
	KindNumber   FieldKind = "number"
	KindURL      FieldKind = "url"
	KindEmail    FieldKind = "email"
	KindDate     FieldKind = "date"
	KindTime     FieldKind = "time"
	KindCheckbox FieldKind = "checkbox"
	KindTags     FieldKind = "tags"
	KindImage    FieldKind = "image"
	KindGallery  FieldKind = "gallery"
)

// Field is the render state of one form input.
type Field struct {
	Name     string
	Label    string
	Kind     FieldKind
	Value    string
	Checked  bool
	Required bool
	Error    string
	Help     string
	Preview  string
	Previews []string
	Cleared  bool
}

// ArrayItem is one row of a field array.
type ArrayItem struct {
	Index  int
	ID     string
	Fields []Field
}

// ArrayView is the render state of a field array.
type ArrayView struct {
	Name      string
	Label     string
	Columns   []Column
	Items     []ArrayItem
	Deleted   []string
	CanRemove bool
	Error     string
}

// FormView is everything a template needs to render a form.
type FormView struct {
	Resource Definition
	ID       string
	// Token identifies one submission; posting it back makes a retry reuse
	// the idempotency keys of the failed attempt.
	Token   string
	Editing bool
	Fields  []Field
	Arrays  []ArrayView
	Errors  map[string]string
	Message string
}

// Form is a bound add or edit form of one resource.
type Form interface {
	Definition() Definition
	ID() string
	Editing() bool
	// Bind decodes a form post, including upload previews and new files.
	Bind(ctx context.Context, values url.Values, files map[string][]*multipart.FileHeader) error
	// Do applies a non-submitting action such as "append:buttons",
	// "remove:buttons:1", "clear:banner" or "remove-image:images:0".
	Do(action string) error
	Validate() error
	Submit(ctx context.Context, orch *submission.Orchestrator, redirect string) (submission.Report, error)
	View() FormView
}

// Module exposes one resource to the dashboard and the CLI.
type Module interface {
	Definition() Definition
	List(ctx context.Context, q apiclient.ListQuery) (*apiclient.Page[Row], error)
	Details(ctx context.Context, id string) (*Details, error)
	NewForm() Form
	EditForm(ctx context.Context, id string) (Form, error)
	Delete(ctx context.Context, id, idempotencyKey string) error
	SetVisibility(ctx context.Context, id string, visible bool, idempotencyKey string) error
	// Records and Record return raw backend documents.
	Records(ctx context.Context, q apiclient.ListQuery) (*apiclient.Page[map[string]any], error)
	Record(ctx context.Context, id string) (map[string]any, error)
}
