package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/hostelctl/hostelctl/internal/api"
)

// Record is one fake API row as it appears on the wire.
type Record map[string]any

// Request is what the fake API saw for one call.
type Request struct {
	Header http.Header
	Query  url.Values
	Body   Record
	Method string
	Path   string
}

// APIServer imitates the PG management API: paginated collections, single
// records, creates and deletes, under one base path.
type APIServer struct {
	server      *httptest.Server
	collections map[string][]Record
	failures    map[string]int
	stats       Record
	requests    []Request
	mu          sync.Mutex
}

// BasePath is where the fake API is mounted.
const BasePath = "/api/v1"

// NewAPIServer starts a fake API that stops with the test.
func NewAPIServer(t *testing.T) *APIServer {
	t.Helper()
	s := &APIServer{
		collections: make(map[string][]Record),
		failures:    make(map[string]int),
	}
	s.server = httptest.NewServer(http.HandlerFunc(s.serve))
	t.Cleanup(s.server.Close)
	return s
}

// URL returns the API base URL.
func (s *APIServer) URL() string {
	return s.server.URL + BasePath
}

// Client returns an api.Client pointed at the fake API.
func (s *APIServer) Client(t *testing.T, pageSize int, opts ...api.Option) *api.Client {
	t.Helper()
	client, err := api.New(api.Config{
		BaseURL:   s.URL(),
		Timeout:   5 * time.Second,
		PageSize:  pageSize,
		UserAgent: "hostelctl-test",
	}, opts...)
	if err != nil {
		t.Fatalf("failed to create API client: %v", err)
	}
	return client
}

// Seed appends records to resource, numbering s_no when missing.
func (s *APIServer) Seed(resource string, records ...Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range records {
		if _, ok := r["s_no"]; !ok {
			r["s_no"] = len(s.collections[resource]) + 1
		}
		s.collections[resource] = append(s.collections[resource], r)
	}
}

// SetStats sets the dashboard statistics body.
func (s *APIServer) SetStats(stats Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stats = stats
}

// FailNext makes the next n requests to resource answer 500.
func (s *APIServer) FailNext(resource string, n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[resource] = n
}

// Requests returns a copy of every request seen so far.
func (s *APIServer) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}

// LastRequest returns the most recent request, or the zero Request.
func (s *APIServer) LastRequest() Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.requests) == 0 {
		return Request{}
	}
	return s.requests[len(s.requests)-1]
}

func (s *APIServer) serve(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	req := Request{Method: r.Method, Path: r.URL.Path, Query: r.URL.Query(), Header: r.Header.Clone()}
	if r.Body != nil && r.Method != http.MethodGet {
		_ = json.NewDecoder(r.Body).Decode(&req.Body)
	}
	s.requests = append(s.requests, req)

	path := strings.Trim(strings.TrimPrefix(r.URL.Path, BasePath), "/")
	resource, id := splitItem(path)

	if s.failures[resource] > 0 {
		s.failures[resource]--
		writeJSON(w, http.StatusInternalServerError, Record{
			"success": false, "statusCode": 500, "message": "internal error", "path": r.URL.Path,
		})
		return
	}

	switch {
	case path == string(api.DashboardStats):
		writeJSON(w, http.StatusOK, Record{"success": true, "data": s.stats})
	case r.Method == http.MethodGet && id == 0:
		s.list(w, resource, req.Query)
	case r.Method == http.MethodGet:
		if rec, _ := s.find(resource, id); rec != nil {
			writeJSON(w, http.StatusOK, Record{"success": true, "data": rec})
			return
		}
		s.notFound(w, r.URL.Path)
	case r.Method == http.MethodPost && id == 0:
		rec := req.Body
		if rec == nil {
			rec = Record{}
		}
		rec["s_no"] = len(s.collections[resource]) + 1
		s.collections[resource] = append(s.collections[resource], rec)
		writeJSON(w, http.StatusCreated, Record{"success": true, "data": rec, "message": "created"})
	case r.Method == http.MethodDelete && id != 0:
		_, idx := s.find(resource, id)
		if idx < 0 {
			s.notFound(w, r.URL.Path)
			return
		}
		s.collections[resource] = append(s.collections[resource][:idx], s.collections[resource][idx+1:]...)
		writeJSON(w, http.StatusOK, Record{"success": true, "message": "deleted"})
	default:
		s.notFound(w, r.URL.Path)
	}
}

func (s *APIServer) list(w http.ResponseWriter, resource string, q url.Values) {
	page, _ := strconv.Atoi(q.Get("page"))
	limit, _ := strconv.Atoi(q.Get("limit"))
	page = max(page, 1)
	if limit < 1 {
		limit = 20
	}

	all := s.collections[resource]
	total := len(all)
	from := min((page-1)*limit, total)
	to := min(page*limit, total)
	data := all[from:to]
	if data == nil {
		data = []Record{}
	}

	writeJSON(w, http.StatusOK, Record{
		"success": true,
		"data":    data,
		"pagination": Record{
			"total":      total,
			"page":       page,
			"limit":      limit,
			"totalPages": (total + limit - 1) / limit,
		},
	})
}

func (s *APIServer) find(resource string, id int64) (Record, int) {
	for i, rec := range s.collections[resource] {
		if toInt64(rec["s_no"]) == id {
			return rec, i
		}
	}
	return nil, -1
}

func (s *APIServer) notFound(w http.ResponseWriter, path string) {
	writeJSON(w, http.StatusNotFound, Record{
		"success": false, "statusCode": 404, "message": "Record not found", "path": path,
	})
}

// splitItem separates a trailing numeric id from a collection path.
func splitItem(path string) (string, int64) {
	i := strings.LastIndex(path, "/")
	if i < 0 {
		return path, 0
	}
	id, err := strconv.ParseInt(path[i+1:], 10, 64)
	if err != nil {
		return path, 0
	}
	return path[:i], id
}

func toInt64(v any) int64 {
	switch n := v.(type) {
	case int:
		return int64(n)
	case int64:
		return n
	case float64:
		return int64(n)
	default:
		return 0
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
