package apiclient

import (
	"encoding/json"
	"net/url"
	"strconv"
	"strings"
)

// Envelope is the wrapper every backend response uses.
type Envelope struct {
	Success      bool            `json:"success"`
	Message      string          `json:"message"`
	Data         json.RawMessage `json:"data,omitempty"`
	ErrorSources []ErrorSource   `json:"errorSources,omitempty"`
}

// ErrorSource is a field level error reported by the backend.
type ErrorSource struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

// Meta describes the page returned by a list endpoint.
type Meta struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
}

// TotalPages derives the page count from Total and Limit.
func (m Meta) TotalPages() int {
	if m.Limit <= 0 || m.Total <= 0 {
		return 0
	}
	return (m.Total + m.Limit - 1) / m.Limit
}

// Page is the payload of a list endpoint: `{data: T[], meta: {...}}`.
type Page[T any] struct {
	Data []T  `json:"data"`
	Meta Meta `json:"meta"`
}

// ListQuery carries the pagination and search parameters list endpoints
// accept.
type ListQuery struct {
	Page       int
	Limit      int
	SearchTerm string
	Extra      url.Values
}

// Values encodes the query; zero values are omitted.
func (q ListQuery) Values() url.Values {
	values := url.Values{}
	for key, list := range q.Extra {
		for _, v := range list {
			values.Add(key, v)
		}
	}
	if q.Page > 0 {
		values.Set("page", strconv.Itoa(q.Page))
	}
	if q.Limit > 0 {
		values.Set("limit", strconv.Itoa(q.Limit))
	}
	if term := strings.TrimSpace(q.SearchTerm); term != "" {
		values.Set("searchTerm", term)
	}
	return values
}

// ParseListQuery reads page, limit and searchTerm from query values, applying
// defaultLimit and clamping to maxLimit.
func ParseListQuery(values url.Values, defaultLimit, maxLimit int) ListQuery {
	q := ListQuery{
		Page:       atoiDefault(values.Get("page"), 1),
		Limit:      atoiDefault(values.Get("limit"), defaultLimit),
		SearchTerm: strings.TrimSpace(values.Get("searchTerm")),
	}
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 {
		q.Limit = defaultLimit
	}
	if maxLimit > 0 && q.Limit > maxLimit {
		q.Limit = maxLimit
	}
	return q
}

func atoiDefault(value string, fallback int) int {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return n
}
