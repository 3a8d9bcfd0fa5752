// Package candidates is a thin client for the candidate search service:
// it lists saved candidate lists and fetches the candidates of one list.
// Requests are not retried.
package candidates

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/sagarbabu-mood/AI-Placement-Analyzer/pkg/logging"
)

// ErrUnauthorized is returned when the service rejects the token.
var ErrUnauthorized = errors.New("candidate service rejected the token")

// AvatarBaseURL generates placeholder avatars from a name.
const AvatarBaseURL = "https://ui-avatars.com/api/"

// List is a saved candidate list.
type List struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Profile is the searchable part of a candidate.
type Profile struct {
	FirstName       string `json:"first_name"`
	LastName        string `json:"last_name"`
	Title           string `json:"title"`
	Location        string `json:"location"`
	LinkedInProfile string `json:"linkedin_profile"`
	Picture         string `json:"picture"`
}

// Candidate is one search hit.
type Candidate struct {
	ID     string  `json:"_id"`
	Source Profile `json:"_source"`
}

// Name returns the candidate's full name.
func (c Candidate) Name() string {
	return strings.TrimSpace(c.Source.FirstName + " " + c.Source.LastName)
}

// AvatarURL returns the candidate's picture, or a generated avatar when the
// picture is empty.
func (c Candidate) AvatarURL() string {
	if c.Source.Picture != "" {
		return c.Source.Picture
	}
	name := url.QueryEscape(c.Source.FirstName) + "+" + url.QueryEscape(c.Source.LastName)
	return AvatarBaseURL + "?name=" + name + "&background=random"
}

// StatusError is a non-2xx answer from the service.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("candidate service error (status %d): %s", e.StatusCode, e.Message)
}

// Config holds the client configuration.
type Config struct {
	BaseURL string
	Token   string
	Timeout time.Duration
}

// Client talks to the candidate search service.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
	logger     zerolog.Logger
}

// New creates a new candidate client.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("candidate service base url is required")
	}
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		token:      cfg.Token,
		logger:     logging.NewLogger("candidates"),
	}, nil
}

// ListCandidateLists returns the saved lists whose name matches search.
// An empty search returns every list.
func (c *Client) ListCandidateLists(ctx context.Context, search string) ([]List, error) {
	endpoint := c.baseURL + "/lists"
	if search = strings.TrimSpace(search); search != "" {
		endpoint += "?" + url.Values{"search": {search}}.Encode()
	}

	var out struct {
		Lists []List `json:"lists"`
	}
	if err := c.get(ctx, endpoint, &out); err != nil {
		return nil, err
	}
	return out.Lists, nil
}

// FetchCandidates returns the candidates of list id.
func (c *Client) FetchCandidates(ctx context.Context, id string) ([]Candidate, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("list id is required")
	}
	endpoint := c.baseURL + "/lists/" + url.PathEscape(id) + "/candidates"

	var out struct {
		Candidates []Candidate `json:"candidates"`
	}
	if err := c.get(ctx, endpoint, &out); err != nil {
		return nil, err
	}
	return out.Candidates, nil
}

func (c *Client) get(ctx context.Context, endpoint string, into any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn().Err(err).Str("endpoint", req.URL.Path).Msg("Candidate request failed")
		return fmt.Errorf("candidate request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return ErrUnauthorized
	}
	if resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &StatusError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(msg))}
	}

	if err := json.NewDecoder(resp.Body).Decode(into); err != nil {
		return fmt.Errorf("decode candidate response: %w", err)
	}
	c.logger.Debug().Str("endpoint", req.URL.Path).Int("status_code", resp.StatusCode).Msg("Candidate request succeeded")
	return nil
}
