// Package testutil provides httptest doubles for the model API and the
// candidate search service.
package testutil

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"

	"github.com/sagarbabu-mood/AI-Placement-Analyzer/pkg/roster"
)

// studentDataMarker mirrors the marker the placement prompt ends with.
const studentDataMarker = "Student Data:"

// Behavior selects how MockGemini answers requests made with a given key.
type Behavior int

const (
	// BehaviorOK answers with one placement per student.
	BehaviorOK Behavior = iota
	// BehaviorInvalidKey answers 400 with reason API_KEY_INVALID.
	BehaviorInvalidKey
	// BehaviorForbidden answers 403.
	BehaviorForbidden
	// BehaviorRateLimited answers 429 with a Retry-After header.
	BehaviorRateLimited
	// BehaviorServerError answers 500.
	BehaviorServerError
	// BehaviorBadRequest answers 400 without a key-related reason.
	BehaviorBadRequest
	// BehaviorWrongCount answers with one placement fewer than requested.
	BehaviorWrongCount
	// BehaviorGarbage answers 200 with text that is not JSON.
	BehaviorGarbage
	// BehaviorEmpty answers 200 without candidates.
	BehaviorEmpty
)

// Call records one request received by MockGemini.
type Call struct {
	Key      string
	Model    string
	Report   bool
	Students int
	Prompt   string
}

// MockGemini is a configurable mock of the generateContent endpoint.
type MockGemini struct {
	server *httptest.Server

	mu         sync.RWMutex
	behaviors  map[string]Behavior
	fallback   Behavior
	calls      []Call
	delay      time.Duration
	report     string
	placements func(name string, index int) roster.PlacementInfo
}

// DefaultReport is the markdown MockGemini returns in report mode.
const DefaultReport = `# Placement Report: Executive Summary
The season went well.

## Key Placement Statistics
- Total Students Analyzed: 3

## Recruiter Participation
| Company | Number of Hires |
|---|---|
| Acme Corp | 3 |

## Salary Insights
| Salary Bracket (LPA) | Number of Students |
|---|---|
| 8-12 LPA | 3 |

## Concluding Remarks
Keep it up.
`

// DefaultPlacement is the placement MockGemini returns for every student.
func DefaultPlacement(string, int) roster.PlacementInfo {
	return roster.PlacementInfo{
		Role:          "Software Engineer",
		Company:       "Acme Corp",
		Salary:        "8-10 LPA",
		Justification: "First full-time role after graduation.",
		Confidence:    "High",
	}
}

// NewMockGemini creates a new mock model server. Every key behaves as
// BehaviorOK until configured otherwise.
func NewMockGemini() *MockGemini {
	mock := &MockGemini{
		behaviors:  make(map[string]Behavior),
		fallback:   BehaviorOK,
		report:     DefaultReport,
		placements: DefaultPlacement,
	}
	mock.server = httptest.NewServer(http.HandlerFunc(mock.handle))
	return mock
}

// URL returns the mock server URL.
func (m *MockGemini) URL() string {
	return m.server.URL
}

// Close shuts down the mock server.
func (m *MockGemini) Close() {
	m.server.Close()
}

// SetBehavior configures how requests with key are answered.
func (m *MockGemini) SetBehavior(key string, b Behavior) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.behaviors[key] = b
}

// SetDefaultBehavior configures keys without an explicit behavior.
func (m *MockGemini) SetDefaultBehavior(b Behavior) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fallback = b
}

// SetDelay delays every response.
func (m *MockGemini) SetDelay(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.delay = d
}

// SetReport sets the markdown returned in report mode.
func (m *MockGemini) SetReport(markdown string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.report = markdown
}

// SetPlacementFunc sets how each student's placement is produced.
func (m *MockGemini) SetPlacementFunc(fn func(name string, index int) roster.PlacementInfo) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.placements = fn
}

// Calls returns a copy of every request received so far.
func (m *MockGemini) Calls() []Call {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]Call(nil), m.calls...)
}

// KeysUsed returns the key of every request, in order.
func (m *MockGemini) KeysUsed() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := make([]string, len(m.calls))
	for i, c := range m.calls {
		keys[i] = c.Key
	}
	return keys
}

// GetRequestCount returns the number of requests made to the server.
func (m *MockGemini) GetRequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.calls)
}

// Reset clears recorded calls.
func (m *MockGemini) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = nil
}

type mockRequest struct {
	Contents []struct {
		Parts []struct {
			Text string `json:"text"`
		} `json:"parts"`
	} `json:"contents"`
}

type mockProfile struct {
	Name string `json:"name"`
}

func (m *MockGemini) handle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost || !strings.HasSuffix(r.URL.Path, ":generateContent") {
		http.NotFound(w, r)
		return
	}

	raw, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	var req mockRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var prompt strings.Builder
	for _, c := range req.Contents {
		for _, p := range c.Parts {
			prompt.WriteString(p.Text)
		}
	}
	text := prompt.String()

	var profiles []mockProfile
	isReport := true
	if idx := strings.LastIndex(text, studentDataMarker); idx >= 0 {
		isReport = false
		_ = json.Unmarshal([]byte(strings.TrimSpace(text[idx+len(studentDataMarker):])), &profiles)
	}

	key := r.Header.Get("x-goog-api-key")
	model := strings.TrimSuffix(r.URL.Path[strings.LastIndex(r.URL.Path, "/")+1:], ":generateContent")

	m.mu.Lock()
	m.calls = append(m.calls, Call{Key: key, Model: model, Report: isReport, Students: len(profiles), Prompt: text})
	behavior, ok := m.behaviors[key]
	if !ok {
		behavior = m.fallback
	}
	delay := m.delay
	report := m.report
	placements := m.placements
	m.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-r.Context().Done():
			return
		}
	}

	switch behavior {
	case BehaviorInvalidKey:
		writeAPIError(w, http.StatusBadRequest, "INVALID_ARGUMENT",
			"API key not valid. Please pass a valid API key.", "API_KEY_INVALID")
	case BehaviorForbidden:
		writeAPIError(w, http.StatusForbidden, "PERMISSION_DENIED",
			"Permission denied: Consumer has been suspended.", "CONSUMER_SUSPENDED")
	case BehaviorRateLimited:
		w.Header().Set("Retry-After", "30")
		writeAPIError(w, http.StatusTooManyRequests, "RESOURCE_EXHAUSTED",
			"Resource has been exhausted (e.g. check quota).", "RATE_LIMIT_EXCEEDED")
	case BehaviorServerError:
		writeAPIError(w, http.StatusInternalServerError, "INTERNAL",
			"An internal error has occurred.", "")
	case BehaviorBadRequest:
		writeAPIError(w, http.StatusBadRequest, "INVALID_ARGUMENT",
			"Request contains an invalid argument.", "")
	case BehaviorGarbage:
		writeCandidate(w, "Sorry, I cannot help with that.")
	case BehaviorEmpty:
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"candidates":[],"promptFeedback":{"blockReason":"SAFETY"}}`))
	default:
		if isReport {
			writeCandidate(w, report)
			return
		}
		n := len(profiles)
		if behavior == BehaviorWrongCount && n > 0 {
			n--
		}
		out := make([]roster.PlacementInfo, n)
		for i := 0; i < n; i++ {
			out[i] = placements(profiles[i].Name, i)
		}
		data, _ := json.Marshal(out)
		writeCandidate(w, string(data))
	}
}

func writeCandidate(w http.ResponseWriter, text string) {
	resp := map[string]any{
		"candidates": []any{
			map[string]any{
				"content": map[string]any{
					"role":  "model",
					"parts": []any{map[string]any{"text": text}},
				},
				"finishReason": "STOP",
			},
		},
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func writeAPIError(w http.ResponseWriter, status int, code, message, reason string) {
	body := map[string]any{
		"code":    status,
		"message": message,
		"status":  code,
	}
	if reason != "" {
		body["details"] = []any{map[string]any{
			"@type":  "type.googleapis.com/google.rpc.ErrorInfo",
			"reason": reason,
		}}
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{"error": body})
}
