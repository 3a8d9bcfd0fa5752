package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
)

// MockCandidateList is a list served by MockCandidates together with its
// members.
type MockCandidateList struct {
	ID         string
	Name       string
	Candidates []map[string]any
}

// MockCandidates is a mock of the candidate search service. It requires the
// configured bearer token on every request.
type MockCandidates struct {
	server *httptest.Server
	token  string

	mu           sync.RWMutex
	lists        []MockCandidateList
	requestCount int
}

// NewMockCandidates creates a new mock candidate service.
func NewMockCandidates(token string, lists ...MockCandidateList) *MockCandidates {
	m := &MockCandidates{token: token, lists: lists}

	mux := http.NewServeMux()
	mux.HandleFunc("/lists", m.handleLists)
	mux.HandleFunc("/lists/", m.handleCandidates)
	m.server = httptest.NewServer(m.auth(mux))
	return m
}

// URL returns the mock server URL.
func (m *MockCandidates) URL() string {
	return m.server.URL
}

// Close shuts down the mock server.
func (m *MockCandidates) Close() {
	m.server.Close()
}

// GetRequestCount returns the number of requests made to the server.
func (m *MockCandidates) GetRequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.requestCount
}

func (m *MockCandidates) auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.mu.Lock()
		m.requestCount++
		m.mu.Unlock()

		if r.Header.Get("Authorization") != "Bearer "+m.token {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (m *MockCandidates) handleLists(w http.ResponseWriter, r *http.Request) {
	search := strings.ToLower(r.URL.Query().Get("search"))

	m.mu.RLock()
	out := []map[string]string{}
	for _, l := range m.lists {
		if search == "" || strings.Contains(strings.ToLower(l.Name), search) {
			out = append(out, map[string]string{"id": l.ID, "name": l.Name})
		}
	}
	m.mu.RUnlock()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"lists": out})
}

func (m *MockCandidates) handleCandidates(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/lists/")
	id, suffix, ok := strings.Cut(rest, "/")
	if !ok || suffix != "candidates" {
		http.NotFound(w, r)
		return
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, l := range m.lists {
		if l.ID == id {
			hits := l.Candidates
			if hits == nil {
				hits = []map[string]any{}
			}
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]any{"candidates": hits})
			return
		}
	}
	http.Error(w, "list not found", http.StatusNotFound)
}

// NewMockCandidate builds a candidate hit in the service's wire format.
func NewMockCandidate(id, first, last, title, picture string) map[string]any {
	return map[string]any{
		"_id": id,
		"_source": map[string]any{
			"first_name":       first,
			"last_name":        last,
			"title":            title,
			"location":         "Bengaluru",
			"linkedin_profile": "https://linkedin.com/in/" + strings.ToLower(first+last),
			"picture":          picture,
		},
	}
}
