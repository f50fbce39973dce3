package http

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	urlkit "github.com/goliatone/go-urlkit"
)

const (
	linkGroup = "dashboard"

	routeHome       = "home"
	routeList       = "list"
	routeAdd        = "add"
	routeEdit       = "edit"
	routeDetails    = "details"
	routeDelete     = "delete"
	routeVisibility = "visibility"
	routePreview    = "preview"

	singletonID = "current"

	// Links are reduced to their request URI, the host only satisfies urlkit.
	linkHost = "http://dashboard.local"
)

// Links builds dashboard URLs from a go-urlkit route manager.
type Links struct {
	manager *urlkit.RouteManager
	base    string
}

// NewLinks declares the dashboard routes under base.
func NewLinks(base string) *Links {
	base = joinPath(base, "")
	paths := map[string]string{
		routeHome:       base,
		routeList:       joinPath(base, ":resource"),
		routeAdd:        joinPath(base, ":resource/add"),
		routeEdit:       joinPath(base, ":resource/edit/:id"),
		routeDetails:    joinPath(base, ":resource/details/:id"),
		routeDelete:     joinPath(base, ":resource/delete/:id"),
		routeVisibility: joinPath(base, ":resource/visibility/:id"),
		routePreview:    joinPath(base, "uploads/preview"),
	}
	manager := urlkit.NewRouteManager(&urlkit.Config{
		Groups: []urlkit.GroupConfig{
			{
				Name:    linkGroup,
				BaseURL: linkHost,
				Paths:   paths,
			},
		},
	})
	return &Links{manager: manager, base: base}
}

// Home links to the dashboard index.
func (l *Links) Home() string {
	return l.build(routeHome, nil, nil)
}

// List links to a resource list, optionally with a query.
func (l *Links) List(resource string, query url.Values) string {
	return l.build(routeList, map[string]any{"resource": resource}, query)
}

// Page links to page n of a list, keeping the search term and limit.
func (l *Links) Page(resource string, query url.Values, n int) string {
	next := url.Values{}
	for key, values := range query {
		next[key] = append([]string(nil), values...)
	}
	next.Set("page", strconv.Itoa(n))
	return l.List(resource, next)
}

func (l *Links) Add(resource string) string {
	return l.build(routeAdd, map[string]any{"resource": resource}, nil)
}

// Edit links to the edit form; singletons use a fixed id.
func (l *Links) Edit(resource, id string) string {
	if strings.TrimSpace(id) == "" {
		id = singletonID
	}
	return l.build(routeEdit, map[string]any{"resource": resource, "id": id}, nil)
}

func (l *Links) Details(resource, id string) string {
	return l.build(routeDetails, map[string]any{"resource": resource, "id": id}, nil)
}

func (l *Links) Delete(resource, id string) string {
	return l.build(routeDelete, map[string]any{"resource": resource, "id": id}, nil)
}

func (l *Links) Visibility(resource, id string) string {
	return l.build(routeVisibility, map[string]any{"resource": resource, "id": id}, nil)
}

func (l *Links) Preview() string {
	return l.build(routePreview, nil, nil)
}

// build renders a route and reduces it to a path so links stay relative to
// the host serving the dashboard.
func (l *Links) build(route string, params map[string]any, query url.Values) string {
	raw, err := l.render(route, params, query)
	if err != nil {
		return l.fallback(route, params, query)
	}
	parsed, err := url.Parse(raw)
	if err != nil || parsed.Path == "" {
		return l.fallback(route, params, query)
	}
	return parsed.RequestURI()
}

func (l *Links) render(route string, params map[string]any, query url.Values) (out string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("http: urlkit route %q: %v", route, rec)
		}
	}()
	builder := l.manager.Group(linkGroup).Builder(route)
	for key, value := range params {
		builder.WithParam(key, value)
	}
	for key, values := range query {
		for _, v := range values {
			builder.WithQuery(key, v)
		}
	}
	return builder.Build()
}

func (l *Links) fallback(route string, params map[string]any, query url.Values) string {
	resource := fmt.Sprint(params["resource"])
	id := fmt.Sprint(params["id"])
	var path string
	switch route {
	case routeHome:
		path = l.base
	case routeList:
		path = joinPath(l.base, resource)
	case routePreview:
		path = joinPath(l.base, "uploads/preview")
	case routeAdd:
		path = joinPath(l.base, resource+"/add")
	default:
		path = joinPath(l.base, resource+"/"+route+"/"+id)
	}
	if len(query) > 0 {
		path += "?" + query.Encode()
	}
	return path
}
