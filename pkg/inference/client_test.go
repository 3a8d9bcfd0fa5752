package inference

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/sagarbabu-mood/AI-Placement-Analyzer/internal/testutil"
	"github.com/sagarbabu-mood/AI-Placement-Analyzer/pkg/roster"
)

func testRetry() RetryConfig {
	return RetryConfig{
		MaxAttempts:       3,
		InitialBackoff:    time.Millisecond,
		MaxBackoff:        5 * time.Millisecond,
		BackoffMultiplier: 2.0,
	}
}

func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	cfg := DefaultConfig()
	cfg.BaseURL = baseURL
	cfg.Model = "test-model"
	cfg.Timeout = 5 * time.Second
	cfg.Retry = testRetry()

	c, err := New(cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return c
}

func students(n int) []roster.Record {
	out := make([]roster.Record, n)
	for i := range out {
		out[i] = roster.Record{FirstName: "Student", LastName: string(rune('A' + i))}
	}
	return out
}

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "missing base url", mutate: func(c *Config) { c.BaseURL = "" }, wantErr: true},
		{name: "missing model", mutate: func(c *Config) { c.Model = "" }, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			_, err := New(cfg)
			if (err != nil) != tt.wantErr {
				t.Errorf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestInferPlacements_Success(t *testing.T) {
	mock := testutil.NewMockGemini()
	defer mock.Close()
	c := newTestClient(t, mock.URL())

	infos, err := c.InferPlacements(context.Background(), "key-ok", students(3))
	if err != nil {
		t.Fatalf("InferPlacements() error = %v", err)
	}
	if len(infos) != 3 {
		t.Fatalf("len(infos) = %d, want 3", len(infos))
	}
	if infos[0].Company != "Acme Corp" || infos[0].Salary != "8-10 LPA" {
		t.Errorf("infos[0] = %+v", infos[0])
	}

	calls := mock.Calls()
	if len(calls) != 1 {
		t.Fatalf("calls = %d, want 1", len(calls))
	}
	if calls[0].Key != "key-ok" || calls[0].Model != "test-model" || calls[0].Students != 3 || calls[0].Report {
		t.Errorf("call = %+v", calls[0])
	}
}

func TestInferPlacements_WrongCountIsReturned(t *testing.T) {
	mock := testutil.NewMockGemini()
	defer mock.Close()
	mock.SetDefaultBehavior(testutil.BehaviorWrongCount)
	c := newTestClient(t, mock.URL())

	infos, err := c.InferPlacements(context.Background(), "k", students(3))
	if err != nil {
		t.Fatalf("InferPlacements() error = %v", err)
	}
	if len(infos) != 2 {
		t.Errorf("len(infos) = %d, want 2", len(infos))
	}
}

func TestInferPlacements_Failures(t *testing.T) {
	tests := []struct {
		name           string
		behavior       testutil.Behavior
		wantClass      ErrorClass
		wantCredential bool
		wantSentinel   error
		wantRequests   int
	}{
		{
			name:           "invalid key",
			behavior:       testutil.BehaviorInvalidKey,
			wantClass:      ErrorClassCredential,
			wantCredential: true,
			wantRequests:   1,
		},
		{
			name:           "forbidden",
			behavior:       testutil.BehaviorForbidden,
			wantClass:      ErrorClassCredential,
			wantCredential: true,
			wantRequests:   1,
		},
		{
			name:           "rate limited",
			behavior:       testutil.BehaviorRateLimited,
			wantClass:      ErrorClassRateLimit,
			wantCredential: true,
			wantRequests:   1,
		},
		{
			name:         "bad request",
			behavior:     testutil.BehaviorBadRequest,
			wantClass:    ErrorClassClient,
			wantRequests: 1,
		},
		{
			name:         "server error is retried",
			behavior:     testutil.BehaviorServerError,
			wantClass:    ErrorClassServer,
			wantSentinel: ErrRetryExhausted,
			wantRequests: 3,
		},
		{
			name:         "garbage",
			behavior:     testutil.BehaviorGarbage,
			wantSentinel: ErrSchemaMismatch,
			wantRequests: 1,
		},
		{
			name:         "empty",
			behavior:     testutil.BehaviorEmpty,
			wantSentinel: ErrEmptyResponse,
			wantRequests: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := testutil.NewMockGemini()
			defer mock.Close()
			mock.SetDefaultBehavior(tt.behavior)
			c := newTestClient(t, mock.URL())

			_, err := c.InferPlacements(context.Background(), "AIzaSyTESTKEY1234", students(2))
			if err == nil {
				t.Fatal("expected error")
			}
			if got := ClassOf(err); got != tt.wantClass {
				t.Errorf("ClassOf() = %q, want %q (err = %v)", got, tt.wantClass, err)
			}
			if got := IsCredentialFailure(err); got != tt.wantCredential {
				t.Errorf("IsCredentialFailure() = %v, want %v", got, tt.wantCredential)
			}
			if tt.wantSentinel != nil && !errors.Is(err, tt.wantSentinel) {
				t.Errorf("error = %v, want %v in chain", err, tt.wantSentinel)
			}
			if got := mock.GetRequestCount(); got != tt.wantRequests {
				t.Errorf("requests = %d, want %d", got, tt.wantRequests)
			}
			if strings.Contains(err.Error(), "AIzaSyTESTKEY1234") {
				t.Error("error message leaks the credential")
			}
		})
	}
}

func TestInferPlacements_NetworkError(t *testing.T) {
	mock := testutil.NewMockGemini()
	url := mock.URL()
	mock.Close()

	c := newTestClient(t, url)
	_, err := c.InferPlacements(context.Background(), "k", students(1))
	if got := ClassOf(err); got != ErrorClassNetwork {
		t.Errorf("ClassOf() = %q, want network (err = %v)", got, err)
	}
	if IsCredentialFailure(err) {
		t.Error("network failure must not count as a credential failure")
	}
}

func TestInferPlacements_EmptyCredential(t *testing.T) {
	mock := testutil.NewMockGemini()
	defer mock.Close()
	c := newTestClient(t, mock.URL())

	_, err := c.InferPlacements(context.Background(), "  ", students(1))
	if !IsCredentialFailure(err) {
		t.Errorf("error = %v, want credential failure", err)
	}
	if mock.GetRequestCount() != 0 {
		t.Error("empty credential must not reach the server")
	}
}

func TestGenerateReport(t *testing.T) {
	mock := testutil.NewMockGemini()
	defer mock.Close()
	c := newTestClient(t, mock.URL())

	records := roster.MergeBatch(students(2), []roster.PlacementInfo{
		{Role: "SDE", Company: "Acme", Salary: "10 LPA"},
		roster.NotPlacedInfo(),
	})

	text, err := c.GenerateReport(context.Background(), "k", records)
	if err != nil {
		t.Fatalf("GenerateReport() error = %v", err)
	}
	if text != strings.TrimSpace(testutil.DefaultReport) {
		t.Errorf("report = %q", text)
	}

	calls := mock.Calls()
	if len(calls) != 1 || !calls[0].Report {
		t.Fatalf("calls = %+v", calls)
	}
	for _, want := range []string{"Total Students Analyzed: 2", "Total Students Placed: 1", "Placement Rate: 50.0%", "| Acme | 1 | 10.0 LPA |"} {
		if !strings.Contains(calls[0].Prompt, want) {
			t.Errorf("report prompt missing %q", want)
		}
	}
}

func TestGenerateReport_InvalidKey(t *testing.T) {
	mock := testutil.NewMockGemini()
	defer mock.Close()
	mock.SetBehavior("bad", testutil.BehaviorInvalidKey)
	c := newTestClient(t, mock.URL())

	_, err := c.GenerateReport(context.Background(), "bad", nil)
	if !IsCredentialFailure(err) {
		t.Errorf("error = %v, want credential failure", err)
	}
	var ie *Error
	if !errors.As(err, &ie) || ie.StatusCode != http.StatusBadRequest {
		t.Errorf("error = %#v, want *Error with status 400", err)
	}
	if !strings.Contains(ie.Message, "API key not valid") {
		t.Errorf("Message = %q", ie.Message)
	}
}

func TestClassifyStatus(t *testing.T) {
	tests := []struct {
		status int
		body   string
		want   ErrorClass
	}{
		{429, "", ErrorClassRateLimit},
		{401, "", ErrorClassCredential},
		{403, "", ErrorClassCredential},
		{400, `{"error":{"details":[{"reason":"API_KEY_INVALID"}]}}`, ErrorClassCredential},
		{400, `{"error":{"message":"API key not valid. Please pass a valid API key."}}`, ErrorClassCredential},
		{400, `{"error":{"message":"Request contains an invalid argument."}}`, ErrorClassClient},
		{404, "", ErrorClassClient},
		{500, "", ErrorClassServer},
		{503, "", ErrorClassServer},
	}
	for _, tt := range tests {
		if got := classifyStatus(tt.status, []byte(tt.body)); got != tt.want {
			t.Errorf("classifyStatus(%d, %q) = %q, want %q", tt.status, tt.body, got, tt.want)
		}
	}
}

func TestStripCodeFence(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{`[{"a":1}]`, `[{"a":1}]`},
		{"```json\n[{\"a\":1}]\n```", `[{"a":1}]`},
		{"```\n[]\n```", `[]`},
		{"  \n[1]\n ", `[1]`},
	}
	for _, tt := range tests {
		if got := stripCodeFence(tt.in); got != tt.want {
			t.Errorf("stripCodeFence(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
