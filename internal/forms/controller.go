package forms

import (
	"context"
	"maps"
	"sync"

	"github.com/goliatone/go-cms-admin/internal/logging"
	"github.com/goliatone/go-cms-admin/pkg/interfaces"
)

// Draft is the editable state a controller binds. Validate returns ozzo
// validation errors keyed by field.
type Draft interface {
	Validate() error
}

// SubmitFunc performs the network side of a submission.
type SubmitFunc[T Draft] func(ctx context.Context, draft T) error

// Controller holds a typed draft, its defaults, per-field errors and the
// dirty and loading flags of one form.
type Controller[T Draft] struct {
	mu       sync.RWMutex
	name     string
	defaults T
	values   T
	errors   map[string]string
	dirty    bool
	loading  bool
	fetching bool
	logger   interfaces.Logger
	message  string
}

// Option configures a Controller.
type Option func(*options)

type options struct {
	name    string
	logger  interfaces.Logger
	message string
}

// WithName labels the controller in logs.
func WithName(name string) Option {
	return func(o *options) {
		o.name = name
	}
}

// WithLogger sets the controller logger.
func WithLogger(logger interfaces.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithValidationMessage overrides the message of the aggregate validation
// error.
func WithValidationMessage(message string) Option {
	return func(o *options) {
		if message != "" {
			o.message = message
		}
	}
}

// NewController creates a controller seeded with defaults.
func NewController[T Draft](defaults T, opts ...Option) *Controller[T] {
	cfg := options{
		logger:  logging.NoOp(),
		message: "Please correct the highlighted fields",
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return &Controller[T]{
		name:     cfg.name,
		defaults: defaults,
		values:   defaults,
		errors:   map[string]string{},
		logger:   cfg.logger,
		message:  cfg.message,
	}
}

// Values returns the current draft.
func (c *Controller[T]) Values() T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.values
}

// Defaults returns the values the form was last reset to.
func (c *Controller[T]) Defaults() T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.defaults
}

// Set applies fn to the draft and marks the form dirty.
func (c *Controller[T]) Set(fn func(*T)) {
	if fn == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	fn(&c.values)
	c.dirty = true
}

// BeginFetch flags the form as loading its record.
func (c *Controller[T]) BeginFetch() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fetching = true
}

// Reset replaces defaults and values with a freshly fetched record. Edits
// made before the fetch resolved are discarded.
func (c *Controller[T]) Reset(values T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.dirty {
		c.logger.Debug("forms.reset.discarded_edits", "form", c.name)
	}
	c.defaults = values
	c.values = values
	c.errors = map[string]string{}
	c.dirty = false
	c.fetching = false
}

// Validate runs the draft rules and records per-field errors. It returns a
// go-errors validation error when any field fails.
func (c *Controller[T]) Validate() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.validateLocked()
}

func (c *Controller[T]) validateLocked() error {
	err := c.values.Validate()
	if err == nil {
		c.errors = map[string]string{}
		return nil
	}
	fields := FieldErrors(err)
	if len(fields) == 0 {
		c.errors = map[string]string{}
		return err
	}
	c.errors = fields
	return ValidationError(c.message, fields)
}

// Errors returns a copy of the current field errors.
func (c *Controller[T]) Errors() map[string]string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return maps.Clone(c.errors)
}

// FieldError returns the error recorded for name, if any.
func (c *Controller[T]) FieldError(name string) string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.errors[name]
}

// SetFieldErrors merges externally produced field errors, such as backend
// errorSources, into the form.
func (c *Controller[T]) SetFieldErrors(fields map[string]string) {
	if len(fields) == 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	maps.Copy(c.errors, fields)
}

// Dirty reports whether the draft was edited since the last reset.
func (c *Controller[T]) Dirty() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.dirty
}

// Loading reports whether a fetch or submission is in flight.
func (c *Controller[T]) Loading() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loading || c.fetching
}

// Submit validates the draft and hands it to fn. Validation failures block
// the call. Only one submission runs at a time; a concurrent call returns
// ErrSubmitting, and a form whose record is still loading returns ErrLoading. The draft is kept whether fn succeeds or not.
func (c *Controller[T]) Submit(ctx context.Context, fn SubmitFunc[T]) error {
	c.mu.Lock()
	if c.loading {
		c.mu.Unlock()
		return ErrSubmitting
	}
	if c.fetching {
		c.mu.Unlock()
		return ErrLoading
	}
	if err := c.validateLocked(); err != nil {
		c.mu.Unlock()
		c.logger.Debug("forms.submit.invalid", "form", c.name, "fields", len(c.errors))
		return err
	}
	c.loading = true
	draft := c.values
	c.mu.Unlock()

	err := fn(ctx, draft)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.loading = false
	if err != nil {
		if remote := RemoteFieldErrors(err); len(remote) > 0 {
			maps.Copy(c.errors, remote)
		}
		c.logger.Warn("forms.submit.failed", "form", c.name, "error", err)
		return err
	}
	c.dirty = false
	return nil
}
