package uploads

import (
	"context"
	"path"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/gabriel-vasile/mimetype"

	"github.com/goliatone/go-cms-admin/internal/apiclient"
)

// Entry is one gallery image: a pending file or a stored URL.
type Entry struct {
	File    *File
	URL     string
	Preview string
}

// Pending reports whether the entry has not been uploaded yet.
func (e Entry) Pending() bool {
	return e.File != nil
}

// Gallery is a multi-image slot; selections accumulate.
type Gallery struct {
	mu       sync.RWMutex
	field    string
	policy   Policy
	maxItems int
	entries  []Entry
	seeded   []string
}

// GalleryOption configures a Gallery.
type GalleryOption func(*Gallery)

// WithGalleryPolicy bounds the files a gallery accepts.
func WithGalleryPolicy(policy Policy) GalleryOption {
	return func(g *Gallery) {
		g.policy = policy
	}
}

// WithMaxItems caps the number of gallery entries.
func WithMaxItems(n int) GalleryOption {
	return func(g *Gallery) {
		if n > 0 {
			g.maxItems = n
		}
	}
}

// NewGallery creates a gallery for the multipart part named field.
func NewGallery(field string, opts ...GalleryOption) *Gallery {
	g := &Gallery{field: field}
	for _, opt := range opts {
		if opt != nil {
			opt(g)
		}
	}
	return g
}

// Field returns the part name.
func (g *Gallery) Field() string {
	return g.field
}

// Seed loads the stored URLs of the record being edited.
func (g *Gallery) Seed(urls ...string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.entries = g.entries[:0]
	g.seeded = g.seeded[:0]
	for _, u := range urls {
		if u = strings.TrimSpace(u); u != "" {
			g.entries = append(g.entries, Entry{URL: u, Preview: u})
			g.seeded = append(g.seeded, u)
		}
	}
}

// Add appends files to the gallery.
func (g *Gallery) Add(ctx context.Context, files ...File) error {
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := g.policy.Check(f); err != nil {
			return err
		}
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, f := range files {
		if g.maxItems > 0 && len(g.entries) >= g.maxItems {
			return ErrIndexOutOfRange
		}
		file := f
		g.entries = append(g.entries, Entry{File: &file, Preview: file.DataURL()})
	}
	return nil
}

// Restore rebuilds entries from posted values, each a data URL or one of the
// seeded URLs, preserving order.
func (g *Gallery) Restore(ctx context.Context, values []string) error {
	g.mu.RLock()
	seeded := slices.Clone(g.seeded)
	g.mu.RUnlock()
	entries := make([]Entry, 0, len(values))
	for i, value := range values {
		value = strings.TrimSpace(value)
		switch {
		case value == "":
			continue
		case IsDataURL(value):
			f, err := ParseDataURL(ctx, value, "", g.policy)
			if err != nil {
				return err
			}
			f.Name = g.field + "-" + strconv.Itoa(i) + extensionOf(f)
			entries = append(entries, Entry{File: &f, Preview: value})
		case slices.Contains(seeded, value):
			entries = append(entries, Entry{URL: value, Preview: value})
		default:
			return ErrUnknownURL
		}
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.entries = entries
	return nil
}

// Remove drops the entry at index.
func (g *Gallery) Remove(index int) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if index < 0 || index >= len(g.entries) {
		return ErrIndexOutOfRange
	}
	g.entries = slices.Delete(g.entries, index, index+1)
	return nil
}

// Entries returns a copy of the gallery entries.
func (g *Gallery) Entries() []Entry {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return slices.Clone(g.entries)
}

// Previews returns the preview of every entry in order.
func (g *Gallery) Previews() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]string, 0, len(g.entries))
	for _, e := range g.entries {
		out = append(out, e.Preview)
	}
	return out
}

// Apply writes the kept URLs under the field and returns one part per
// pending file.
func (g *Gallery) Apply(data map[string]any) []apiclient.FilePart {
	g.mu.RLock()
	defer g.mu.RUnlock()
	urls := make([]string, 0, len(g.entries))
	var parts []apiclient.FilePart
	for _, e := range g.entries {
		if e.File != nil {
			parts = append(parts, e.File.Part(g.field))
			continue
		}
		urls = append(urls, e.URL)
	}
	data[g.field] = urls
	return parts
}

// Commit replaces the entries with the canonical URLs returned by the server.
func (g *Gallery) Commit(urls []string) {
	g.Seed(urls...)
}

func extensionOf(f File) string {
	if ext := path.Ext(f.Name); ext != "" {
		return ext
	}
	return mimetype.Detect(f.Data).Extension()
}
