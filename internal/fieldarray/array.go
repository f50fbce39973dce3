package fieldarray

import (
	"errors"
	"slices"
	"strings"
	"sync"
)

var (
	ErrIndexOutOfRange = errors.New("fieldarray: index out of range")
	ErrMinItems        = errors.New("fieldarray: minimum item count reached")
)

// Item is a sub-record of a parent form. Items loaded from the server carry
// an id; items created locally return "".
type Item interface {
	ItemID() string
}

// Array is an ordered list of sub-records with a pending-deletion set: every
// server item removed locally is remembered until the parent is saved.
type Array[T Item] struct {
	mu       sync.RWMutex
	name     string
	items    []T
	pending  []string
	minItems int
}

// Option configures an Array.
type Option func(*config)

type config struct {
	minItems int
}

// MinItems keeps at least n items in the array.
func MinItems(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.minItems = n
		}
	}
}

// New creates an array named name holding items.
func New[T Item](name string, items []T, opts ...Option) *Array[T] {
	cfg := config{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return &Array[T]{
		name:     name,
		items:    slices.Clone(items),
		minItems: cfg.minItems,
	}
}

// Restore rebuilds an array from posted items and the ids already pending
// deletion.
func Restore[T Item](name string, items []T, pending []string, opts ...Option) *Array[T] {
	arr := New(name, items, opts...)
	for _, id := range pending {
		arr.markPending(id)
	}
	return arr
}

// Name returns the form name of the array.
func (a *Array[T]) Name() string {
	return a.name
}

// Len returns the number of items.
func (a *Array[T]) Len() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.items)
}

// MinItems returns the configured minimum.
func (a *Array[T]) MinItems() int {
	return a.minItems
}

// Items returns a copy of the items in position order.
func (a *Array[T]) Items() []T {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return slices.Clone(a.items)
}

// At returns the item at index.
func (a *Array[T]) At(index int) (T, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	var zero T
	if index < 0 || index >= len(a.items) {
		return zero, ErrIndexOutOfRange
	}
	return a.items[index], nil
}

// Append adds item at the end. Appending a server item that was pending
// deletion cancels the deletion.
func (a *Array[T]) Append(item T) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.items = append(a.items, item)
	if id := strings.TrimSpace(item.ItemID()); id != "" {
		a.pending = slices.DeleteFunc(a.pending, func(v string) bool { return v == id })
	}
}

// AppendBlank adds a zero item at the end.
func (a *Array[T]) AppendBlank() {
	var zero T
	a.Append(zero)
}

// Update applies fn to the item at index.
func (a *Array[T]) Update(index int, fn func(*T)) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if index < 0 || index >= len(a.items) {
		return ErrIndexOutOfRange
	}
	if fn != nil {
		fn(&a.items[index])
	}
	return nil
}

// CanRemove reports whether an item may be removed without going below the
// minimum.
func (a *Array[T]) CanRemove() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.items) > a.minItems
}

// Remove deletes the item at index. A server item's id is added to the
// pending-deletion set; removing the array entry alone never deletes remote
// state.
func (a *Array[T]) Remove(index int) (T, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	var zero T
	if index < 0 || index >= len(a.items) {
		return zero, ErrIndexOutOfRange
	}
	if len(a.items) <= a.minItems {
		return zero, ErrMinItems
	}
	removed := a.items[index]
	a.items = slices.Delete(a.items, index, index+1)
	a.markPendingLocked(removed.ItemID())
	return removed, nil
}

func (a *Array[T]) markPending(id string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.markPendingLocked(id)
}

func (a *Array[T]) markPendingLocked(id string) {
	id = strings.TrimSpace(id)
	if id == "" || slices.Contains(a.pending, id) {
		return
	}
	a.pending = append(a.pending, id)
}

// PendingDeletions returns the ids of removed server items in removal order.
func (a *Array[T]) PendingDeletions() []string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return slices.Clone(a.pending)
}

// Existing returns the items that carry a server id.
func (a *Array[T]) Existing() []T {
	return a.filter(func(item T) bool { return strings.TrimSpace(item.ItemID()) != "" })
}

// Added returns the items created locally.
func (a *Array[T]) Added() []T {
	return a.filter(func(item T) bool { return strings.TrimSpace(item.ItemID()) == "" })
}

func (a *Array[T]) filter(keep func(T) bool) []T {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make([]T, 0, len(a.items))
	for _, item := range a.items {
		if keep(item) {
			out = append(out, item)
		}
	}
	return out
}

// Reset replaces the items with a freshly fetched list and clears the
// pending-deletion set.
func (a *Array[T]) Reset(items []T) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.items = slices.Clone(items)
	a.pending = nil
}
