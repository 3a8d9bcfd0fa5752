package server

import (
	"errors"
	"net/http"

	"github.com/go-chi/render"

	"github.com/sagarbabu-mood/AI-Placement-Analyzer/pkg/analyzer"
	"github.com/sagarbabu-mood/AI-Placement-Analyzer/pkg/candidates"
	"github.com/sagarbabu-mood/AI-Placement-Analyzer/pkg/credentials"
	"github.com/sagarbabu-mood/AI-Placement-Analyzer/pkg/inference"
	"github.com/sagarbabu-mood/AI-Placement-Analyzer/pkg/report"
	"github.com/sagarbabu-mood/AI-Placement-Analyzer/pkg/roster"
	"github.com/sagarbabu-mood/AI-Placement-Analyzer/pkg/stats"
)

type ErrorReply struct {
	HTTPStatusCode int    `json:"-"`
	Error          string `json:"error"`
	Message        string `json:"message"`
}

func (e *ErrorReply) Render(_ http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.HTTPStatusCode)
	return nil
}

func errorReply(err error) *ErrorReply {
	return &ErrorReply{
		HTTPStatusCode: statusFor(err),
		Error:          err.Error(),
		Message:        analyzer.FriendlyMessage(err),
	}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, analyzer.ErrRunInProgress), errors.Is(err, analyzer.ErrNothingToResume):
		return http.StatusConflict
	case errors.Is(err, roster.ErrInputInvalid), errors.Is(err, credentials.ErrMissing):
		return http.StatusBadRequest
	case errors.Is(err, analyzer.ErrNoResults), errors.Is(err, report.ErrNoRecords):
		return http.StatusNotFound
	case errors.Is(err, credentials.ErrExhausted), errors.Is(err, candidates.ErrUnauthorized):
		return http.StatusBadGateway
	case inference.ClassOf(err) != "", errors.Is(err, inference.ErrEmptyResponse):
		return http.StatusBadGateway
	}
	var se *candidates.StatusError
	if errors.As(err, &se) {
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

type CredentialReply struct {
	Index           int     `json:"index"`
	Masked          string  `json:"masked"`
	Active          bool    `json:"active"`
	CooldownSeconds float64 `json:"cooldownSeconds,omitempty"`
	RateLimitHits   int     `json:"rateLimitHits,omitempty"`
}

type CredentialsReply struct {
	Credentials []CredentialReply `json:"credentials"`
	Index       int               `json:"index"`
}

func (CredentialsReply) Render(http.ResponseWriter, *http.Request) error { return nil }

type CredentialsRequest struct {
	Credentials []string `json:"credentials"`
}

func (c *CredentialsRequest) Bind(*http.Request) error {
	if c.Credentials == nil {
		return errors.New("credentials field is required")
	}
	return nil
}

type CredentialRequest struct {
	Credential string `json:"credential"`
}

func (c *CredentialRequest) Bind(*http.Request) error {
	if c.Credential == "" {
		return errors.New("credential field is required")
	}
	return nil
}

type RunReply struct {
	Status string `json:"status"`
	Total  int    `json:"total"`
	Done   int    `json:"completed"`
}

func (RunReply) Render(_ http.ResponseWriter, r *http.Request) error {
	render.Status(r, http.StatusAccepted)
	return nil
}

type ProgressReply struct {
	Completed       int     `json:"completed"`
	Total           int     `json:"total"`
	Percent         float64 `json:"percent"`
	Running         bool    `json:"running"`
	Done            bool    `json:"done"`
	CredentialIndex int     `json:"credentialIndex"`
	Error           string  `json:"error,omitempty"`
	Message         string  `json:"message,omitempty"`
}

func (ProgressReply) Render(http.ResponseWriter, *http.Request) error { return nil }

type ResultsReply struct {
	Count   int                      `json:"count"`
	Results []roster.ProcessedRecord `json:"results"`
}

func (ResultsReply) Render(http.ResponseWriter, *http.Request) error { return nil }

type StatsReply struct {
	stats.AggregateStats
}

func (StatsReply) Render(http.ResponseWriter, *http.Request) error { return nil }

type ReportReply struct {
	Markdown string `json:"markdown"`
}

func (ReportReply) Render(http.ResponseWriter, *http.Request) error { return nil }

type CandidateListsReply struct {
	Lists []candidates.List `json:"lists"`
}

func (CandidateListsReply) Render(http.ResponseWriter, *http.Request) error { return nil }

type CandidateReply struct {
	candidates.Candidate
	Name   string `json:"name"`
	Avatar string `json:"avatar"`
}

type CandidatesReply struct {
	Candidates []CandidateReply `json:"candidates"`
}

func (CandidatesReply) Render(http.ResponseWriter, *http.Request) error { return nil }
