package apiclient

import (
	"context"
	"net/http"
	"slices"
	"strings"
)

// Resource declares the REST endpoints of one record type: list, read,
// create, update, replace and delete against a base path, with the cache tags
// its reads carry and its mutations invalidate.
type Resource[T any] struct {
	client   *Client
	path     string
	tag      string
	related  []string
	encoding Encoding
}

// ResourceOption configures a Resource.
type ResourceOption func(*resourceConfig)

type resourceConfig struct {
	tag      string
	related  []string
	encoding Encoding
}

// WithTag overrides the cache tag; it defaults to the path without slashes.
func WithTag(tag string) ResourceOption {
	return func(cfg *resourceConfig) {
		cfg.tag = strings.TrimSpace(tag)
	}
}

// WithRelatedTags lists additional tags a mutation invalidates, e.g. the
// parent of a sub-resource.
func WithRelatedTags(tags ...string) ResourceOption {
	return func(cfg *resourceConfig) {
		cfg.related = append(cfg.related, tags...)
	}
}

// WithEncoding sets the default wire encoding for mutations.
func WithEncoding(enc Encoding) ResourceOption {
	return func(cfg *resourceConfig) {
		cfg.encoding = enc
	}
}

// NewResource declares a resource rooted at path.
func NewResource[T any](client *Client, path string, opts ...ResourceOption) *Resource[T] {
	path = "/" + strings.Trim(strings.TrimSpace(path), "/")
	cfg := resourceConfig{tag: strings.Trim(path, "/")}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return &Resource[T]{
		client:   client,
		path:     path,
		tag:      cfg.tag,
		related:  cfg.related,
		encoding: cfg.encoding,
	}
}

// Path returns the collection path, or the item path when id is given.
func (r *Resource[T]) Path(id ...string) string {
	if len(id) == 0 || strings.TrimSpace(id[0]) == "" {
		return r.path
	}
	return r.path + "/" + strings.TrimSpace(id[0])
}

// Tag returns the cache tag of the resource.
func (r *Resource[T]) Tag() string {
	return r.tag
}

func (r *Resource[T]) itemTag(id string) string {
	return r.tag + ":" + id
}

func (r *Resource[T]) invalidates(id string) []string {
	tags := []string{r.tag}
	if id != "" {
		tags = append(tags, r.itemTag(id))
	}
	return append(tags, slices.Clone(r.related)...)
}

// List fetches a page of records.
func (r *Resource[T]) List(ctx context.Context, q ListQuery) (*Page[T], error) {
	page := &Page[T]{}
	_, err := r.client.Do(ctx, Request{
		Method: http.MethodGet,
		Path:   r.path,
		Query:  q.Values(),
		Tags:   []string{r.tag},
	}, page)
	if err != nil {
		return nil, err
	}
	if page.Data == nil {
		page.Data = []T{}
	}
	return page, nil
}

// Get fetches a single record by id.
func (r *Resource[T]) Get(ctx context.Context, id string) (*T, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, ErrIDRequired
	}
	record := new(T)
	if _, err := r.client.Do(ctx, Request{
		Method: http.MethodGet,
		Path:   r.Path(id),
		Tags:   []string{r.tag, r.itemTag(id)},
	}, record); err != nil {
		return nil, err
	}
	return record, nil
}

// Current fetches a singleton section from the collection path.
func (r *Resource[T]) Current(ctx context.Context) (*T, error) {
	record := new(T)
	if _, err := r.client.Do(ctx, Request{
		Method: http.MethodGet,
		Path:   r.path,
		Tags:   []string{r.tag},
	}, record); err != nil {
		return nil, err
	}
	return record, nil
}

// Create posts a new record.
func (r *Resource[T]) Create(ctx context.Context, payload Payload, idempotencyKey string) (*T, error) {
	return r.mutate(ctx, http.MethodPost, "", payload, idempotencyKey)
}

// Update patches an existing record.
func (r *Resource[T]) Update(ctx context.Context, id string, payload Payload, idempotencyKey string) (*T, error) {
	if strings.TrimSpace(id) == "" {
		return nil, ErrIDRequired
	}
	return r.mutate(ctx, http.MethodPatch, id, payload, idempotencyKey)
}

// Replace puts a full record, used by singleton sections.
func (r *Resource[T]) Replace(ctx context.Context, id string, payload Payload, idempotencyKey string) (*T, error) {
	if strings.TrimSpace(id) == "" {
		return nil, ErrIDRequired
	}
	return r.mutate(ctx, http.MethodPut, id, payload, idempotencyKey)
}

// Delete removes a record.
func (r *Resource[T]) Delete(ctx context.Context, id, idempotencyKey string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return ErrIDRequired
	}
	_, err := r.client.Do(ctx, Request{
		Method:         http.MethodDelete,
		Path:           r.Path(id),
		Tags:           r.invalidates(id),
		IdempotencyKey: idempotencyKey,
	}, nil)
	return err
}

// SoftDelete flags a record with isDeleted instead of removing it.
func (r *Resource[T]) SoftDelete(ctx context.Context, id, idempotencyKey string) error {
	_, err := r.Update(ctx, id, r.flagPayload(map[string]any{"isDeleted": true}), idempotencyKey)
	return err
}

// SetVisibility toggles the isVisible flag of a record.
func (r *Resource[T]) SetVisibility(ctx context.Context, id string, visible bool, idempotencyKey string) error {
	_, err := r.Update(ctx, id, r.flagPayload(map[string]any{"isVisible": visible}), idempotencyKey)
	return err
}

func (r *Resource[T]) flagPayload(data map[string]any) Payload {
	if r.encoding == EncodingMultipart {
		return Multipart(data)
	}
	return JSON(data)
}

func (r *Resource[T]) mutate(ctx context.Context, method, id string, payload Payload, idempotencyKey string) (*T, error) {
	id = strings.TrimSpace(id)
	record := new(T)
	env, err := r.client.Do(ctx, Request{
		Method:         method,
		Path:           r.Path(id),
		Payload:        &payload,
		Encoding:       r.encoding,
		Tags:           r.invalidates(id),
		IdempotencyKey: idempotencyKey,
	}, record)
	if err != nil {
		return nil, err
	}
	if len(env.Data) == 0 {
		return nil, nil
	}
	return record, nil
}
