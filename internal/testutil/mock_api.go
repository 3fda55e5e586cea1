// Package testutil provides a mock paged JSON API for tests.
package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Record is one item served by MockAPI.
type Record struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// MockResponse overrides the next response of MockAPI.
type MockResponse struct {
	StatusCode int
	Body       string
	Headers    map[string]string
	Delay      time.Duration
}

// MockAPI is a configurable httptest server that pages over a fixed record
// list the way a typical REST collection endpoint does:
//
//	GET  <path>?offset=&limit=[&ids=a,b][&order=-id]  JSON array of records
//	HEAD <path>                                       X-Total-Count header
type MockAPI struct {
	server *httptest.Server
	path   string

	mu        sync.Mutex
	records   []Record
	queued    []MockResponse
	omitCount bool
	rateLimit map[string]string

	// Tracking
	RequestCount int
	HeadCount    int
	LastQuery    map[string]string
	LastHeader   http.Header
}

// NewMockAPI serves n records with ids "001".."n" under path.
func NewMockAPI(path string, n int) *MockAPI {
	records := make([]Record, n)
	for i := range records {
		id := fmt.Sprintf("%03d", i+1)
		records[i] = Record{ID: id, Name: "record-" + id}
	}

	mock := &MockAPI{
		path:    path,
		records: records,
		rateLimit: map[string]string{
			"X-RateLimit-Remaining": "100",
			"X-RateLimit-Reset":     "60",
		},
	}
	mock.server = httptest.NewServer(http.HandlerFunc(mock.handle))
	return mock
}

// URL returns the mock server URL.
func (m *MockAPI) URL() string {
	return m.server.URL
}

// Close shuts down the mock server.
func (m *MockAPI) Close() {
	m.server.Close()
}

// Reset clears all tracking counters and queued responses.
func (m *MockAPI) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RequestCount = 0
	m.HeadCount = 0
	m.LastQuery = nil
	m.LastHeader = nil
	m.queued = nil
}

// Enqueue makes the next requests answer with resp, in order, before the
// normal paging behaviour resumes.
func (m *MockAPI) Enqueue(resp ...MockResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queued = append(m.queued, resp...)
}

// OmitTotalCount stops HEAD responses from carrying X-Total-Count.
func (m *MockAPI) OmitTotalCount() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.omitCount = true
}

// SetRateLimit sets the X-RateLimit-* headers of normal responses.
func (m *MockAPI) SetRateLimit(remaining, resetSeconds int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rateLimit["X-RateLimit-Remaining"] = strconv.Itoa(remaining)
	m.rateLimit["X-RateLimit-Reset"] = strconv.Itoa(resetSeconds)
}

// GetRequestCount returns the number of requests made to the server.
func (m *MockAPI) GetRequestCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.RequestCount
}

// GetHeadCount returns the number of HEAD requests made to the server.
func (m *MockAPI) GetHeadCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.HeadCount
}

// GetLastQuery returns the flattened query of the last request.
func (m *MockAPI) GetLastQuery() map[string]string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.LastQuery
}

func (m *MockAPI) handle(w http.ResponseWriter, r *http.Request) {
	m.mu.Lock()
	m.RequestCount++
	if r.Method == http.MethodHead {
		m.HeadCount++
	}
	m.LastHeader = r.Header.Clone()
	m.LastQuery = map[string]string{}
	for k := range r.URL.Query() {
		m.LastQuery[k] = r.URL.Query().Get(k)
	}

	var override *MockResponse
	if len(m.queued) > 0 {
		override = &m.queued[0]
		m.queued = m.queued[1:]
	}
	for k, v := range m.rateLimit {
		w.Header().Set(k, v)
	}
	omitCount := m.omitCount
	m.mu.Unlock()

	if override != nil {
		writeOverride(w, *override)
		return
	}

	if r.URL.Path != m.path {
		http.NotFound(w, r)
		return
	}

	matched := m.match(r.URL.Query())
	w.Header().Set("Content-Type", "application/json; charset=utf-8")

	switch r.Method {
	case http.MethodHead:
		if !omitCount {
			w.Header().Set("X-Total-Count", strconv.Itoa(len(matched)))
		}
		w.WriteHeader(http.StatusOK)
	case http.MethodGet:
		offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
		limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
		if err != nil || limit <= 0 || offset < 0 {
			http.Error(w, `{"error": "offset and limit are required"}`, http.StatusBadRequest)
			return
		}
		page := []Record{}
		if offset < len(matched) {
			end := min(offset+limit, len(matched))
			page = matched[offset:end]
		}
		json.NewEncoder(w).Encode(page)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// match applies the ids and order parameters to the record list.
func (m *MockAPI) match(query map[string][]string) []Record {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []Record
	if ids, ok := query["ids"]; ok {
		byID := make(map[string]Record, len(m.records))
		for _, rec := range m.records {
			byID[rec.ID] = rec
		}
		for _, id := range strings.Split(ids[0], ",") {
			if rec, ok := byID[id]; ok {
				out = append(out, rec)
			}
		}
		return out
	}

	out = append(out, m.records...)
	if order := query["order"]; len(order) > 0 && strings.HasPrefix(order[0], "-") {
		for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
			out[i], out[j] = out[j], out[i]
		}
	}
	return out
}

func writeOverride(w http.ResponseWriter, resp MockResponse) {
	if resp.Delay > 0 {
		time.Sleep(resp.Delay)
	}
	for key, value := range resp.Headers {
		w.Header().Set(key, value)
	}
	w.WriteHeader(resp.StatusCode)
	if resp.Body != "" {
		w.Write([]byte(resp.Body))
	}
}

// NewServerErrorResponse creates a 500 Internal Server Error response.
func NewServerErrorResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusInternalServerError,
		Body:       `{"error": "Internal server error"}`,
		Headers:    map[string]string{"Content-Type": "application/json; charset=utf-8"},
	}
}

// NewRateLimitResponse creates a 429 Too Many Requests response.
func NewRateLimitResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusTooManyRequests,
		Body:       `{"error": "Rate limit exceeded"}`,
		Headers: map[string]string{
			"X-RateLimit-Remaining": "0",
			"X-RateLimit-Reset":     "30",
			"Retry-After":           "1",
			"Content-Type":          "application/json; charset=utf-8",
		},
	}
}

// NewNotFoundResponse creates a 404 Not Found response.
func NewNotFoundResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusNotFound,
		Body:       `{"error": "Not found"}`,
		Headers:    map[string]string{"Content-Type": "application/json; charset=utf-8"},
	}
}
