package resources

import (
	"fmt"
	"strings"

	"github.com/goliatone/go-cms-admin/internal/apiclient"
)

// Registry holds the modules in navigation order.
type Registry struct {
	modules []Module
	byKey   map[string]Module
}

// NewRegistry declares every resource against client.
func NewRegistry(client *apiclient.Client, deps Deps) *Registry {
	r := &Registry{byKey: map[string]Module{}}
	for _, build := range []func(*apiclient.Client, Deps) Module{
		events,
		blogs,
		books,
		testimonials,
		services,
		associates,
		heroSection,
		aboutHero,
		homepage,
		footer,
	} {
		r.register(build(client, deps))
	}
	return r
}

func (r *Registry) register(m Module) {
	r.modules = append(r.modules, m)
	r.byKey[m.Definition().Key] = m
}

// Get returns the module registered under key.
func (r *Registry) Get(key string) (Module, error) {
	m, ok := r.Lookup(key)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownResource, key)
	}
	return m, nil
}

// Lookup is Get without the error.
func (r *Registry) Lookup(key string) (Module, bool) {
	m, ok := r.byKey[strings.ToLower(strings.TrimSpace(key))]
	return m, ok
}

// All returns the modules in navigation order.
func (r *Registry) All() []Module {
	return append([]Module(nil), r.modules...)
}

// Keys returns the resource keys in navigation order.
func (r *Registry) Keys() []string {
	keys := make([]string, 0, len(r.modules))
	for _, m := range r.modules {
		keys = append(keys, m.Definition().Key)
	}
	return keys
}
