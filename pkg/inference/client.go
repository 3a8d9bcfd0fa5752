// Package inference is the HTTP client for the generative model that infers
// placements and writes reports. It classifies failures so callers can tell
// a rejected credential from everything else, retries transient failures,
// and optionally caches answers and honors per-credential cooldowns.
package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/sagarbabu-mood/AI-Placement-Analyzer/pkg/cache"
	"github.com/sagarbabu-mood/AI-Placement-Analyzer/pkg/credentials"
	"github.com/sagarbabu-mood/AI-Placement-Analyzer/pkg/ratelimit"
	"github.com/sagarbabu-mood/AI-Placement-Analyzer/pkg/roster"
	"github.com/sagarbabu-mood/AI-Placement-Analyzer/pkg/stats"
)

var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "placement_inference_requests_total",
		Help: "Total model requests by mode and status",
	}, []string{"mode", "status"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "placement_inference_duration_seconds",
		Help:    "Model request duration in seconds by mode",
		Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60},
	}, []string{"mode"})

	errorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "placement_inference_errors_total",
		Help: "Total model errors by class",
	}, []string{"class"})
)

// DefaultBaseURL is the public Generative Language API endpoint.
const DefaultBaseURL = "https://generativelanguage.googleapis.com"

// DefaultModel is the model used when none is configured.
const DefaultModel = "gemini-2.5-flash"

// maxErrorBody bounds how much of an error response is read.
const maxErrorBody = 64 << 10

// Config holds the client configuration.
type Config struct {
	// BaseURL of the model API, without the /v1beta suffix.
	BaseURL string

	// Model name, e.g. "gemini-2.5-flash".
	Model string

	// Timeout per HTTP attempt.
	Timeout time.Duration

	// Retry applies to server and network failures only.
	Retry RetryConfig

	// Cache stores validated answers. Nil disables caching.
	Cache *cache.Manager

	// CacheTTL is how long a cached answer stays valid.
	CacheTTL time.Duration

	// RateLimiter records and honors per-credential cooldowns. Nil disables it.
	RateLimiter *ratelimit.Tracker
}

// DefaultConfig returns a configuration without cache or cooldown tracking.
func DefaultConfig() Config {
	return Config{
		BaseURL:  DefaultBaseURL,
		Model:    DefaultModel,
		Timeout:  120 * time.Second,
		Retry:    DefaultRetryConfig(),
		CacheTTL: 24 * time.Hour,
	}
}

// Client talks to the generateContent endpoint.
type Client struct {
	httpClient *http.Client
	config     Config
	logger     zerolog.Logger
}

// New creates a new inference client.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base url is required")
	}
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("model is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 120 * time.Second
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 24 * time.Hour
	}

	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		config:     cfg,
		logger:     log.With().Str("component", "inference").Logger(),
	}, nil
}

// SetHTTPClient sets a custom HTTP client (for testing).
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}

// Model returns the configured model name.
func (c *Client) Model() string {
	return c.config.Model
}

// InferPlacements asks the model for one PlacementInfo per record. The
// returned slice is whatever the model produced; callers compare its length
// against the batch. Undecodable output yields ErrSchemaMismatch, and an
// answer with no text yields ErrEmptyResponse.
func (c *Client) InferPlacements(ctx context.Context, credential string, records []roster.Record) ([]roster.PlacementInfo, error) {
	prompt, err := BuildPlacementPrompt(records)
	if err != nil {
		return nil, err
	}

	key := cache.NewKey(c.config.Model, cache.ModePlacement, prompt)
	if text, ok := c.lookup(ctx, key); ok {
		if infos, err := decodePlacements(text); err == nil && len(infos) == len(records) {
			return infos, nil
		}
	}

	text, err := c.generate(ctx, credential, cache.ModePlacement, prompt, placementSchema)
	if err != nil {
		return nil, err
	}

	infos, err := decodePlacements(text)
	if err != nil {
		return nil, err
	}
	if len(infos) == len(records) {
		c.store(ctx, key, text)
	}
	return infos, nil
}

// GenerateReport asks the model for a markdown narrative over records.
func (c *Client) GenerateReport(ctx context.Context, credential string, records []roster.ProcessedRecord) (string, error) {
	prompt := BuildReportPrompt(stats.ComputeStats(records))

	key := cache.NewKey(c.config.Model, cache.ModeReport, prompt)
	if text, ok := c.lookup(ctx, key); ok {
		return text, nil
	}

	text, err := c.generate(ctx, credential, cache.ModeReport, prompt, nil)
	if err != nil {
		return "", err
	}
	c.store(ctx, key, text)
	return text, nil
}

func decodePlacements(text string) ([]roster.PlacementInfo, error) {
	var infos []roster.PlacementInfo
	if err := json.Unmarshal([]byte(stripCodeFence(text)), &infos); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSchemaMismatch, err)
	}
	return infos, nil
}

// stripCodeFence removes a surrounding ``` or ```json fence.
func stripCodeFence(text string) string {
	t := strings.TrimSpace(text)
	if !strings.HasPrefix(t, "```") {
		return t
	}
	t = strings.TrimPrefix(t, "```")
	t = strings.TrimPrefix(t, "json")
	t = strings.TrimSuffix(strings.TrimSpace(t), "```")
	return strings.TrimSpace(t)
}

func (c *Client) lookup(ctx context.Context, key cache.CacheKey) (string, bool) {
	if c.config.Cache == nil {
		return "", false
	}
	entry, err := c.config.Cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, cache.ErrCacheMiss) {
			c.logger.Warn().Err(err).Str("mode", string(key.Mode)).Msg("Cache get error")
		}
		return "", false
	}
	c.logger.Debug().Str("mode", string(key.Mode)).Str("digest", key.Digest[:12]).Msg("Cache hit")
	return entry.Text, true
}

func (c *Client) store(ctx context.Context, key cache.CacheKey, text string) {
	if c.config.Cache == nil {
		return
	}
	if err := c.config.Cache.Set(ctx, key, cache.NewEntry(text, c.config.CacheTTL)); err != nil {
		c.logger.Warn().Err(err).Str("mode", string(key.Mode)).Msg("Failed to cache response")
	}
}

// Wire types of the generateContent API.
type (
	part struct {
		Text string `json:"text"`
	}

	content struct {
		Role  string `json:"role,omitempty"`
		Parts []part `json:"parts"`
	}

	// Schema is the subset of the OpenAPI schema object the API accepts as
	// a response schema.
	Schema struct {
		Type        string             `json:"type"`
		Description string             `json:"description,omitempty"`
		Properties  map[string]*Schema `json:"properties,omitempty"`
		Items       *Schema            `json:"items,omitempty"`
		Required    []string           `json:"required,omitempty"`
	}

	generationConfig struct {
		ResponseMimeType string  `json:"responseMimeType,omitempty"`
		ResponseSchema   *Schema `json:"responseSchema,omitempty"`
	}

	generateRequest struct {
		Contents         []content         `json:"contents"`
		GenerationConfig *generationConfig `json:"generationConfig,omitempty"`
	}

	generateResponse struct {
		Candidates []struct {
			Content      content `json:"content"`
			FinishReason string  `json:"finishReason"`
		} `json:"candidates"`
		PromptFeedback *struct {
			BlockReason string `json:"blockReason"`
		} `json:"promptFeedback,omitempty"`
	}

	apiError struct {
		Error struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
			Status  string `json:"status"`
			Details []struct {
				Reason string `json:"reason"`
			} `json:"details"`
		} `json:"error"`
	}
)

// generate performs one logical call: cooldown check, then the HTTP request
// wrapped in retry logic, then text extraction.
func (c *Client) generate(ctx context.Context, credential string, mode cache.Mode, prompt string, schema *Schema) (string, error) {
	logger := c.logger.With().
		Str("mode", string(mode)).
		Str("credential", credentials.Mask(credential)).
		Logger()

	if strings.TrimSpace(credential) == "" {
		return "", &Error{ErrorClass: ErrorClassCredential, Message: "credential is empty"}
	}

	if c.config.RateLimiter != nil {
		allowed, remaining, err := c.config.RateLimiter.ShouldAllowRequest(ctx, credential)
		if err != nil {
			logger.Warn().Err(err).Msg("Rate limit check failed")
		} else if !allowed {
			errorsTotal.WithLabelValues(string(ErrorClassRateLimit)).Inc()
			requestsTotal.WithLabelValues(string(mode), "cooling_down").Inc()
			return "", &Error{
				StatusCode: http.StatusTooManyRequests,
				ErrorClass: ErrorClassRateLimit,
				Message:    fmt.Sprintf("credential cooling down for %s", remaining.Round(time.Second)),
			}
		}
	}

	body := generateRequest{
		Contents: []content{{Role: "user", Parts: []part{{Text: prompt}}}},
	}
	if schema != nil {
		body.GenerationConfig = &generationConfig{
			ResponseMimeType: "application/json",
			ResponseSchema:   schema,
		}
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent",
		strings.TrimRight(c.config.BaseURL, "/"), url.PathEscape(c.config.Model))

	startTime := time.Now()
	defer func() {
		requestDuration.WithLabelValues(string(mode)).Observe(time.Since(startTime).Seconds())
	}()

	var respBody []byte
	retryErr := retryWithBackoff(ctx, c.config.Retry, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")
		req.Header.Set("x-goog-api-key", credential)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			logger.Warn().Err(err).Msg("Model request failed")
			errorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
			requestsTotal.WithLabelValues(string(mode), "network_error").Inc()
			return &Error{ErrorClass: ErrorClassNetwork, Message: "request failed", Err: err}
		}
		defer resp.Body.Close()

		requestsTotal.WithLabelValues(string(mode), strconv.Itoa(resp.StatusCode)).Inc()

		if resp.StatusCode >= 400 {
			errBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
			errClass := classifyStatus(resp.StatusCode, errBody)
			errorsTotal.WithLabelValues(string(errClass)).Inc()

			logger.Warn().
				Int("status_code", resp.StatusCode).
				Str("error_class", string(errClass)).
				Msg("Model request error")

			if errClass == ErrorClassRateLimit && c.config.RateLimiter != nil {
				if _, err := c.config.RateLimiter.RecordRateLimit(ctx, credential, resp.Header); err != nil {
					logger.Warn().Err(err).Msg("Failed to record cooldown")
				}
			}

			return &Error{
				StatusCode: resp.StatusCode,
				ErrorClass: errClass,
				Message:    errorMessage(resp.Status, errBody),
			}
		}

		respBody, err = io.ReadAll(resp.Body)
		if err != nil {
			errorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
			return &Error{StatusCode: resp.StatusCode, ErrorClass: ErrorClassNetwork, Message: "read response", Err: err}
		}
		return nil
	})
	if retryErr != nil {
		return "", retryErr
	}

	text, err := extractText(respBody)
	if err != nil {
		logger.Warn().Err(err).Msg("Unusable model response")
		return "", err
	}

	logger.Debug().
		Dur("duration", time.Since(startTime)).
		Int("response_bytes", len(text)).
		Msg("Model request succeeded")
	return text, nil
}

func extractText(body []byte) (string, error) {
	var resp generateResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("%w: decode envelope: %v", ErrSchemaMismatch, err)
	}
	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
		return "", fmt.Errorf("%w: blocked: %s", ErrEmptyResponse, resp.PromptFeedback.BlockReason)
	}
	if len(resp.Candidates) == 0 {
		return "", ErrEmptyResponse
	}

	var b strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		b.WriteString(p.Text)
	}
	text := strings.TrimSpace(b.String())
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

// classifyStatus maps an HTTP error status to an ErrorClass. The API reports
// a malformed key as 400 with reason API_KEY_INVALID.
func classifyStatus(status int, body []byte) ErrorClass {
	switch {
	case status == http.StatusTooManyRequests:
		return ErrorClassRateLimit
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return ErrorClassCredential
	case status == http.StatusBadRequest && isInvalidKeyBody(body):
		return ErrorClassCredential
	case status >= 400 && status < 500:
		return ErrorClassClient
	case status >= 500:
		return ErrorClassServer
	default:
		return ""
	}
}

func isInvalidKeyBody(body []byte) bool {
	s := string(body)
	return strings.Contains(s, "API_KEY_INVALID") || strings.Contains(s, "API key not valid")
}

func errorMessage(status string, body []byte) string {
	var ae apiError
	if err := json.Unmarshal(body, &ae); err == nil && ae.Error.Message != "" {
		return ae.Error.Message
	}
	return status
}
