package testsupport

import (
	"encoding/json"
	"fmt"
	"maps"
	"net/http"
	"net/http/httptest"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"sync"
	"testing"
)

// CDNBase prefixes the URLs the fake backend assigns to uploaded files.
const CDNBase = "https://cdn.test"

// Call records a request received by the Backend.
type Call struct {
	Method         string
	Path           string
	Query          url.Values
	IdempotencyKey string
	ContentType    string
	Data           map[string]any
	Files          map[string][]string
}

// FieldError mirrors the backend's errorSources entries.
type FieldError struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

type failure struct {
	method  string
	path    string
	status  int
	message string
	sources []FieldError
}

type storedResponse struct {
	status int
	body   []byte
}

// Backend is an in-memory REST backend speaking the envelope contract:
// `{success, message, data}` responses, `{data, meta}` pages, multipart
// mutations with a JSON `data` field plus file parts, and soft deletes via
// isDeleted. Records are keyed by `_id`.
type Backend struct {
	mu         sync.Mutex
	records    map[string]map[string]map[string]any
	order      map[string][]string
	singletons map[string]bool
	calls      []Call
	failures   []failure
	idempotent map[string]storedResponse
	seq        int
}

// NewBackend returns an empty backend.
func NewBackend() *Backend {
	return &Backend{
		records:    make(map[string]map[string]map[string]any),
		order:      make(map[string][]string),
		singletons: make(map[string]bool),
		idempotent: make(map[string]storedResponse),
	}
}

// Server starts an httptest server for the backend and closes it on cleanup.
func (b *Backend) Server(t testing.TB) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(b)
	t.Cleanup(srv.Close)
	return srv
}

// Seed inserts records into collection and returns their ids. Records
// without `_id` get a generated one.
func (b *Backend) Seed(collection string, records ...map[string]any) []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	ids := make([]string, 0, len(records))
	for _, record := range records {
		ids = append(ids, b.insert(collection, maps.Clone(record)))
	}
	return ids
}

// Singleton marks collection as a single-record section and seeds record.
func (b *Backend) Singleton(collection string, record map[string]any) string {
	b.mu.Lock()
	b.singletons[collection] = true
	b.mu.Unlock()
	return b.Seed(collection, record)[0]
}

// Fail makes the next request matching method and path fail with status.
func (b *Backend) Fail(method, path string, status int, message string, sources ...FieldError) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures = append(b.failures, failure{method: method, path: path, status: status, message: message, sources: sources})
}

// Calls returns every request received so far.
func (b *Backend) Calls() []Call {
	b.mu.Lock()
	defer b.mu.Unlock()
	return slices.Clone(b.calls)
}

// CallsTo filters Calls by method and path prefix.
func (b *Backend) CallsTo(method, pathPrefix string) []Call {
	var out []Call
	for _, call := range b.Calls() {
		if call.Method == method && strings.HasPrefix(call.Path, pathPrefix) {
			out = append(out, call)
		}
	}
	return out
}

// ResetCalls clears the recorded calls.
func (b *Backend) ResetCalls() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls = nil
}

// Record returns a copy of a stored record or nil.
func (b *Backend) Record(collection, id string) map[string]any {
	b.mu.Lock()
	defer b.mu.Unlock()
	if rec, ok := b.records[collection][id]; ok {
		return maps.Clone(rec)
	}
	return nil
}

// Records returns copies of every stored record of collection in insertion
// order, including soft-deleted ones.
func (b *Backend) Records(collection string) []map[string]any {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]map[string]any, 0, len(b.order[collection]))
	for _, id := range b.order[collection] {
		if rec, ok := b.records[collection][id]; ok {
			out = append(out, maps.Clone(rec))
		}
	}
	return out
}

func (b *Backend) insert(collection string, record map[string]any) string {
	id, _ := record["_id"].(string)
	if id == "" {
		b.seq++
		id = fmt.Sprintf("%s-%d", strings.TrimSuffix(collection, "s"), b.seq)
		record["_id"] = id
	}
	if b.records[collection] == nil {
		b.records[collection] = make(map[string]map[string]any)
	}
	if _, exists := b.records[collection][id]; !exists {
		b.order[collection] = append(b.order[collection], id)
	}
	b.records[collection][id] = record
	return id
}

func (b *Backend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	segments := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	collection := segments[0]
	id := ""
	if len(segments) > 1 {
		id = segments[1]
	}

	call := Call{
		Method:         r.Method,
		Path:           r.URL.Path,
		Query:          r.URL.Query(),
		IdempotencyKey: r.Header.Get("Idempotency-Key"),
		ContentType:    r.Header.Get("Content-Type"),
	}

	var (
		data  map[string]any
		files map[string][]string
	)
	if r.Method == http.MethodPost || r.Method == http.MethodPatch || r.Method == http.MethodPut {
		var err error
		data, files, err = readBody(r)
		if err != nil {
			b.mu.Lock()
			b.calls = append(b.calls, call)
			b.mu.Unlock()
			writeEnvelope(w, http.StatusBadRequest, false, err.Error(), nil, nil)
			return
		}
		call.Data = data
		call.Files = files
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls = append(b.calls, call)

	if fail, ok := b.takeFailure(r.Method, r.URL.Path); ok {
		writeEnvelope(w, fail.status, false, fail.message, nil, fail.sources)
		return
	}

	if key := call.IdempotencyKey; key != "" && r.Method != http.MethodGet {
		if stored, ok := b.idempotent[key]; ok {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(stored.status)
			_, _ = w.Write(stored.body)
			return
		}
		rec := httptest.NewRecorder()
		b.route(rec, r, collection, id, data, files)
		if rec.Code < http.StatusBadRequest {
			b.idempotent[key] = storedResponse{status: rec.Code, body: rec.Body.Bytes()}
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(rec.Code)
		_, _ = w.Write(rec.Body.Bytes())
		return
	}

	b.route(w, r, collection, id, data, files)
}

func (b *Backend) route(w http.ResponseWriter, r *http.Request, collection, id string, data map[string]any, files map[string][]string) {
	switch r.Method {
	case http.MethodGet:
		if id == "" && b.singletons[collection] {
			ids := b.order[collection]
			if len(ids) == 0 {
				writeEnvelope(w, http.StatusNotFound, false, collection+" not found", nil, nil)
				return
			}
			writeEnvelope(w, http.StatusOK, true, "retrieved", b.records[collection][ids[0]], nil)
			return
		}
		if id == "" {
			b.list(w, r, collection)
			return
		}
		rec, ok := b.records[collection][id]
		if !ok || rec["isDeleted"] == true {
			writeEnvelope(w, http.StatusNotFound, false, collection+" not found", nil, nil)
			return
		}
		writeEnvelope(w, http.StatusOK, true, "retrieved", rec, nil)
	case http.MethodPost:
		record := mergeFiles(maps.Clone(data), files)
		delete(record, "_id")
		newID := b.insert(collection, record)
		writeEnvelope(w, http.StatusCreated, true, "created", b.records[collection][newID], nil)
	case http.MethodPatch, http.MethodPut:
		rec, ok := b.records[collection][id]
		if !ok {
			writeEnvelope(w, http.StatusNotFound, false, collection+" not found", nil, nil)
			return
		}
		if r.Method == http.MethodPut {
			rec = map[string]any{"_id": id}
		}
		maps.Copy(rec, mergeFiles(maps.Clone(data), files))
		rec["_id"] = id
		b.records[collection][id] = rec
		writeEnvelope(w, http.StatusOK, true, "updated", rec, nil)
	case http.MethodDelete:
		if _, ok := b.records[collection][id]; !ok {
			writeEnvelope(w, http.StatusNotFound, false, collection+" not found", nil, nil)
			return
		}
		delete(b.records[collection], id)
		b.order[collection] = slices.DeleteFunc(b.order[collection], func(v string) bool { return v == id })
		writeEnvelope(w, http.StatusOK, true, "deleted", nil, nil)
	default:
		writeEnvelope(w, http.StatusMethodNotAllowed, false, "method not allowed", nil, nil)
	}
}

func (b *Backend) list(w http.ResponseWriter, r *http.Request, collection string) {
	query := r.URL.Query()
	page := atoi(query.Get("page"), 1)
	limit := atoi(query.Get("limit"), 10)
	term := strings.ToLower(strings.TrimSpace(query.Get("searchTerm")))

	matched := make([]map[string]any, 0)
	for _, id := range b.order[collection] {
		rec := b.records[collection][id]
		if rec["isDeleted"] == true {
			continue
		}
		if term != "" && !matches(rec, term) {
			continue
		}
		matched = append(matched, rec)
	}

	start := (page - 1) * limit
	end := start + limit
	if start > len(matched) {
		start = len(matched)
	}
	if end > len(matched) {
		end = len(matched)
	}

	writeEnvelope(w, http.StatusOK, true, "retrieved", map[string]any{
		"data": matched[start:end],
		"meta": map[string]any{"page": page, "limit": limit, "total": len(matched)},
	}, nil)
}

func (b *Backend) takeFailure(method, path string) (failure, bool) {
	for i, f := range b.failures {
		if f.method == method && f.path == path {
			b.failures = append(b.failures[:i], b.failures[i+1:]...)
			return f, true
		}
	}
	return failure{}, false
}

func readBody(r *http.Request) (map[string]any, map[string][]string, error) {
	data := map[string]any{}
	files := map[string][]string{}
	contentType := r.Header.Get("Content-Type")

	if strings.HasPrefix(contentType, "multipart/form-data") {
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			return nil, nil, err
		}
		if raw := r.FormValue("data"); raw != "" {
			if err := json.Unmarshal([]byte(raw), &data); err != nil {
				return nil, nil, fmt.Errorf("invalid data field: %w", err)
			}
		}
		for field, headers := range r.MultipartForm.File {
			for _, header := range headers {
				files[field] = append(files[field], header.Filename)
			}
		}
		return data, files, nil
	}

	if r.Body == nil {
		return data, files, nil
	}
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(&data); err != nil && err.Error() != "EOF" {
		return nil, nil, err
	}
	return data, files, nil
}

func mergeFiles(data map[string]any, files map[string][]string) map[string]any {
	if data == nil {
		data = map[string]any{}
	}
	for field, names := range files {
		urls := make([]any, 0, len(names))
		for _, name := range names {
			urls = append(urls, CDNBase+"/"+field+"/"+name)
		}
		if len(urls) == 1 {
			if existing, ok := data[field].([]any); ok {
				data[field] = append(existing, urls...)
				continue
			}
			data[field] = urls[0]
			continue
		}
		if existing, ok := data[field].([]any); ok {
			urls = append(existing, urls...)
		}
		data[field] = urls
	}
	return data
}

func matches(rec map[string]any, term string) bool {
	for _, v := range rec {
		if s, ok := v.(string); ok && strings.Contains(strings.ToLower(s), term) {
			return true
		}
	}
	return false
}

func atoi(value string, fallback int) int {
	n, err := strconv.Atoi(value)
	if err != nil || n < 1 {
		return fallback
	}
	return n
}

func writeEnvelope(w http.ResponseWriter, status int, success bool, message string, data any, sources []FieldError) {
	body := map[string]any{
		"success": success,
		"message": message,
	}
	if data != nil {
		body["data"] = data
	}
	if len(sources) > 0 {
		body["errorSources"] = sources
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
