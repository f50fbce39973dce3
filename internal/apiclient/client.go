package apiclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"github.com/goliatone/go-cms-admin/internal/logging"
	"github.com/goliatone/go-cms-admin/pkg/interfaces"
)

const (
	headerIdempotencyKey = "Idempotency-Key"
	headerRequestID      = "X-Request-ID"
	maxResponseBytes     = 8 << 20
)

// Client issues requests against the REST backend and decodes its envelope.
type Client struct {
	base        *url.URL
	http        *http.Client
	tokenSource oauth2.TokenSource
	cache       interfaces.TaggedCache
	cacheTTL    time.Duration
	logger      interfaces.Logger
	userAgent   string
	fallback    string
	requestID   func() string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the underlying http.Client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.http = client
		}
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.http.Timeout = timeout
		}
	}
}

// WithToken authenticates every request with a static bearer token.
func WithToken(token string) Option {
	return func(c *Client) {
		if token = strings.TrimSpace(token); token != "" {
			c.tokenSource = oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"})
		}
	}
}

// WithTokenSource authenticates requests with tokens from source.
func WithTokenSource(source oauth2.TokenSource) Option {
	return func(c *Client) {
		c.tokenSource = source
	}
}

// WithCache enables tag based caching of GET responses.
func WithCache(cache interfaces.TaggedCache, ttl time.Duration) Option {
	return func(c *Client) {
		c.cache = cache
		c.cacheTTL = ttl
	}
}

// WithLogger sets the logger used for request tracing.
func WithLogger(logger interfaces.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(agent string) Option {
	return func(c *Client) {
		c.userAgent = strings.TrimSpace(agent)
	}
}

// WithFallbackMessage overrides the message used when the backend sends none.
func WithFallbackMessage(message string) Option {
	return func(c *Client) {
		if message = strings.TrimSpace(message); message != "" {
			c.fallback = message
		}
	}
}

// WithRequestIDGenerator overrides how X-Request-ID values are produced.
func WithRequestIDGenerator(fn func() string) Option {
	return func(c *Client) {
		if fn != nil {
			c.requestID = fn
		}
	}
}

// New constructs a client for the backend rooted at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	trimmed := strings.TrimSpace(baseURL)
	if trimmed == "" {
		return nil, ErrBaseURLRequired
	}
	base, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("apiclient: parse base url: %w", err)
	}

	c := &Client{
		base:      base,
		http:      &http.Client{Timeout: 15 * time.Second},
		logger:    logging.NoOp(),
		userAgent: "go-cms-admin",
		fallback:  DefaultFallbackMessage,
		requestID: func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}

	if c.tokenSource != nil {
		timeout := c.http.Timeout
		ctx := context.WithValue(context.Background(), oauth2.HTTPClient, c.http)
		c.http = oauth2.NewClient(ctx, c.tokenSource)
		c.http.Timeout = timeout
	}
	return c, nil
}

// FallbackMessage returns the message used when a failure carries none.
func (c *Client) FallbackMessage() string {
	return c.fallback
}

// Request describes a single call.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	// Payload is nil for reads and deletes.
	Payload *Payload
	// Encoding is the resource default applied when Payload.Encoding is auto.
	Encoding Encoding
	// Tags label cached reads; on mutations they are invalidated.
	Tags           []string
	IdempotencyKey string
	NoCache        bool
}

// Do sends req and decodes the envelope's data into out when out is non-nil.
func (c *Client) Do(ctx context.Context, req Request, out any) (*Envelope, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	method := strings.ToUpper(strings.TrimSpace(req.Method))
	if method == "" {
		method = http.MethodGet
	}
	target := c.resolve(req.Path, req.Query)
	cacheable := method == http.MethodGet && c.cache != nil && !req.NoCache
	cacheKey := method + " " + target

	var version uint64
	if cacheable {
		version = c.cache.TagVersion(req.Tags...)
		if cached, _ := c.cache.Get(ctx, cacheKey); cached != nil {
			if raw, ok := cached.([]byte); ok {
				env, err := c.decode(raw, method, req.Path, http.StatusOK, out)
				if err == nil {
					c.logger.Trace("api.cache.hit", "method", method, "path", req.Path)
					return env, nil
				}
			}
		}
	}

	raw, status, err := c.send(ctx, method, target, req)
	if err != nil {
		return nil, err
	}

	env, err := c.decode(raw, method, req.Path, status, out)
	if err != nil {
		return env, err
	}

	switch {
	case cacheable:
		if stored, _ := c.cache.SetTaggedAt(ctx, version, cacheKey, raw, c.cacheTTL, req.Tags...); !stored {
			c.logger.Trace("api.cache.stale", "method", method, "path", req.Path)
		}
	case method != http.MethodGet && c.cache != nil && len(req.Tags) > 0:
		_ = c.cache.InvalidateTags(ctx, req.Tags...)
	}
	return env, nil
}

func (c *Client) send(ctx context.Context, method, target string, req Request) ([]byte, int, error) {
	var (
		body        io.Reader
		contentType string
	)
	if req.Payload != nil {
		var err error
		body, contentType, err = req.Payload.encode(req.Encoding)
		if err != nil {
			return nil, 0, err
		}
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, 0, fmt.Errorf("apiclient: build request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}
	if c.userAgent != "" {
		httpReq.Header.Set("User-Agent", c.userAgent)
	}
	if key := strings.TrimSpace(req.IdempotencyKey); key != "" {
		httpReq.Header.Set(headerIdempotencyKey, key)
	}
	requestID := c.requestID()
	httpReq.Header.Set(headerRequestID, requestID)

	logger := logging.WithFields(c.logger.WithContext(ctx), map[string]any{
		"method":     method,
		"path":       req.Path,
		"request_id": requestID,
	})

	started := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		logger.Warn("api.request.failed", "error", err)
		return nil, 0, transportError(err, method, req.Path)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, resp.StatusCode, transportError(err, method, req.Path)
	}
	logger.Debug("api.request", "status", resp.StatusCode, "duration_ms", time.Since(started).Milliseconds())
	return raw, resp.StatusCode, nil
}

func (c *Client) decode(raw []byte, method, path string, status int, out any) (*Envelope, error) {
	env := &Envelope{}
	if len(strings.TrimSpace(string(raw))) == 0 {
		if status == http.StatusNoContent {
			env.Success = true
			return env, nil
		}
		if status >= http.StatusBadRequest {
			return env, responseError(method, path, status, *env, c.fallback)
		}
		return env, decodeError(io.ErrUnexpectedEOF, method, path, status)
	}

	if err := json.Unmarshal(raw, env); err != nil {
		if status >= http.StatusBadRequest {
			return env, responseError(method, path, status, Envelope{}, c.fallback)
		}
		return env, decodeError(err, method, path, status)
	}

	if status >= http.StatusBadRequest || !env.Success {
		return env, responseError(method, path, status, *env, c.fallback)
	}

	if out != nil && len(env.Data) > 0 && string(env.Data) != "null" {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return env, decodeError(err, method, path, status)
		}
	}
	return env, nil
}

func (c *Client) resolve(path string, query url.Values) string {
	u := c.base.JoinPath(strings.TrimPrefix(strings.TrimSpace(path), "/"))
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String()
}
