package http

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"strings"

	"github.com/goliatone/go-cms-admin/internal/resources"
	"github.com/goliatone/go-cms-admin/internal/views"
	"github.com/goliatone/go-cms-admin/pkg/interfaces"
)

//go:embed templates/*.html
var templateFS embed.FS

const (
	pageHome    = "home"
	pageList    = "list"
	pageForm    = "form"
	pageDetails = "details"
	pageError   = "error"
)

type navItem struct {
	Label  string
	Href   string
	Active bool
}

// layout is the data every page renders with.
type layout struct {
	Title   string
	Home    string
	Nav     []navItem
	Toasts  []interfaces.Toast
	Content any
}

type homePage struct {
	Cards []navItem
}

type rowView struct {
	resources.Row
	DetailsHref    string
	EditHref       string
	DeleteHref     string
	VisibilityHref string
}

type pageLink struct {
	Number  int
	Href    string
	Current bool
}

type listPage struct {
	Resource   resources.Definition
	Status     views.Status
	Failure    *views.Failure
	Rows       []rowView
	Pagination views.Pagination
	Pages      []pageLink
	PrevHref   string
	NextHref   string
	SearchTerm string
	Limit      int
	ListHref   string
	AddHref    string
}

type formPage struct {
	Form       resources.FormView
	Action     string
	CancelHref string
	PreviewURL string
}

type detailsPage struct {
	Resource       resources.Definition
	Status         views.Status
	Failure        *views.Failure
	Record         *resources.Details
	EditHref       string
	DeleteHref     string
	VisibilityHref string
	BackHref       string
}

type errorPage struct {
	Failure views.Failure
}

var templateFuncs = template.FuncMap{
	"suffix": func(name, suffix string) string { return name + suffix },
	"action": func(parts ...any) string {
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			out = append(out, fmt.Sprint(p))
		}
		return strings.Join(out, ":")
	},
	"visible": func(v *bool) bool { return v == nil || *v },
	// imageURL lets inline image previews through the URL sanitizer.
	"imageURL": func(v string) any {
		if strings.HasPrefix(v, "data:image/") {
			return template.URL(v)
		}
		return v
	},
	"hasFlag": func(v *bool) bool { return v != nil },
}

type renderer struct {
	pages map[string]*template.Template
}

func newRenderer() (*renderer, error) {
	r := &renderer{pages: map[string]*template.Template{}}
	for _, name := range []string{pageHome, pageList, pageForm, pageDetails, pageError} {
		tpl, err := template.New("layout.html").Funcs(templateFuncs).ParseFS(templateFS,
			"templates/layout.html",
			"templates/"+name+".html",
		)
		if err != nil {
			return nil, fmt.Errorf("http: parse %s template: %w", name, err)
		}
		r.pages[name] = tpl
	}
	return r, nil
}

// render executes a page into a buffer first so template failures never
// leave a half written response.
func (r *renderer) render(w http.ResponseWriter, status int, page string, data layout) error {
	tpl, ok := r.pages[page]
	if !ok {
		return fmt.Errorf("http: unknown page %q", page)
	}
	var buf bytes.Buffer
	if err := tpl.ExecuteTemplate(&buf, "layout", data); err != nil {
		return err
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}
