package uploads

import (
	"context"
	"strings"
	"sync"

	"github.com/goliatone/go-cms-admin/internal/apiclient"
)

// Selection is what a slot contributes to a submission: either a new file
// part or the existing URL, never both.
type Selection struct {
	Field string
	File  *apiclient.FilePart
	URL   string
}

// Empty reports whether the slot contributes nothing.
func (s Selection) Empty() bool {
	return s.File == nil && s.URL == ""
}

// Apply writes the selection into a payload. A file drops any URL under the
// same field from data; an existing URL is passed through under the field.
func (s Selection) Apply(data map[string]any) []apiclient.FilePart {
	switch {
	case s.File != nil:
		delete(data, s.Field)
		return []apiclient.FilePart{*s.File}
	case s.URL != "":
		data[s.Field] = s.URL
	}
	return nil
}

// SlotOption configures a Slot.
type SlotOption func(*Slot)

// Required makes Resolve fail when neither a file nor a URL is held.
func Required() SlotOption {
	return func(s *Slot) {
		s.required = true
	}
}

// WithPolicy bounds the files a slot accepts.
func WithPolicy(policy Policy) SlotOption {
	return func(s *Slot) {
		s.policy = policy
	}
}

// Slot holds a single upload. The last selection wins.
type Slot struct {
	mu       sync.RWMutex
	field    string
	required bool
	policy   Policy
	file     *File
	preview  string
	existing string
	seeded   string
}

// NewSlot creates a slot for the multipart part named field.
func NewSlot(field string, opts ...SlotOption) *Slot {
	s := &Slot{field: field}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Field returns the part name.
func (s *Slot) Field() string {
	return s.field
}

// IsRequired reports whether the slot must resolve to a value.
func (s *Slot) IsRequired() bool {
	return s.required
}

// Policy returns the upload policy of the slot.
func (s *Slot) Policy() Policy {
	return s.policy
}

// Seed sets the URL of the record being edited.
func (s *Slot) Seed(url string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.existing = strings.TrimSpace(url)
	s.seeded = s.existing
	s.file = nil
	s.preview = s.existing
}

// Select holds f, replacing any previous selection, and renders its preview.
func (s *Slot) Select(ctx context.Context, f File) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.policy.Check(f); err != nil {
		return err
	}
	preview := f.DataURL()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.file = &f
	s.preview = preview
	return nil
}

// Restore re-selects a file from a posted preview data URL. A remote URL is
// only accepted when it is the one the slot was seeded with.
func (s *Slot) Restore(ctx context.Context, value string) error {
	value = strings.TrimSpace(value)
	switch {
	case value == "":
		return nil
	case IsDataURL(value):
		f, err := ParseDataURL(ctx, value, "", s.policy)
		if err != nil {
			return err
		}
		f.Name = s.field + extensionOf(f)
		return s.Select(ctx, f)
	default:
		s.mu.RLock()
		seeded := s.seeded
		s.mu.RUnlock()
		if value != seeded {
			return ErrUnknownURL
		}
		s.Seed(value)
		return nil
	}
}

// Clear drops the selection and the existing URL. No request is issued.
func (s *Slot) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.file = nil
	s.preview = ""
	s.existing = ""
}

// Preview returns the inline data URL of a pending file or the existing URL.
func (s *Slot) Preview() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.preview
}

// Existing returns the seeded URL.
func (s *Slot) Existing() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.existing
}

// HasFile reports whether a new file is pending.
func (s *Slot) HasFile() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.file != nil
}

// Resolve returns exactly one of the pending file or the existing URL.
func (s *Slot) Resolve() (Selection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sel := Selection{Field: s.field}
	switch {
	case s.file != nil:
		part := s.file.Part(s.field)
		sel.File = &part
	case s.existing != "":
		sel.URL = s.existing
	case s.required:
		return sel, ErrFileRequired
	}
	return sel, nil
}

// Commit replaces the local preview with the canonical URL returned by the
// server after a successful submission.
func (s *Slot) Commit(url string) {
	s.Seed(url)
}
