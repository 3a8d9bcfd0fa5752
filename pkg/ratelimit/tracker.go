package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/sagarbabu-mood/AI-Placement-Analyzer/pkg/credentials"
)

var (
	cooldownsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "placement_rate_limit_cooldowns_total",
		Help: "Total number of credential cooldowns recorded after a 429",
	})

	cooldownSkipsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "placement_rate_limit_skips_total",
		Help: "Total number of requests skipped because the credential was cooling down",
	})

	cooldownSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "placement_rate_limit_cooldown_seconds",
		Help:    "Cooldown durations taken from Retry-After",
		Buckets: []float64{1, 5, 15, 60, 300, 3600},
	})
)

// ErrInvalidRetryAfter is returned when a Retry-After header cannot be parsed.
var ErrInvalidRetryAfter = errors.New("invalid Retry-After header")

// Tracker records and consults per-credential cooldowns.
type Tracker struct {
	redis  *redis.Client
	logger zerolog.Logger
}

// NewTracker creates a new rate limit tracker.
func NewTracker(redisClient *redis.Client, logger zerolog.Logger) *Tracker {
	return &Tracker{
		redis:  redisClient,
		logger: logger,
	}
}

// ParseRetryAfter reads the Retry-After header as delta-seconds or an HTTP
// date. A missing header yields fallback with no error.
func ParseRetryAfter(headers http.Header, fallback time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(headers.Get("Retry-After"))
	if raw == "" {
		return fallback, nil
	}

	if secs, err := strconv.Atoi(raw); err == nil {
		if secs < 0 {
			return fallback, fmt.Errorf("%w: %q", ErrInvalidRetryAfter, raw)
		}
		return clamp(time.Duration(secs) * time.Second), nil
	}

	if at, err := http.ParseTime(raw); err == nil {
		return clamp(time.Until(at)), nil
	}

	return fallback, fmt.Errorf("%w: %q", ErrInvalidRetryAfter, raw)
}

func clamp(d time.Duration) time.Duration {
	if d < 0 {
		return 0
	}
	if d > MaxCooldown {
		return MaxCooldown
	}
	return d
}

// RecordRateLimit stores a cooldown for credential using the response's
// Retry-After header.
func (t *Tracker) RecordRateLimit(ctx context.Context, credential string, headers http.Header) (*CooldownState, error) {
	cooldown, err := ParseRetryAfter(headers, DefaultCooldown)
	if err != nil {
		t.logger.Warn().Err(err).Msg("Using default cooldown")
	}
	if cooldown <= 0 {
		return nil, nil
	}
	if t.redis == nil {
		return nil, fmt.Errorf("redis client is required")
	}

	fp := credentials.Fingerprint(credential)
	now := time.Now()
	state := &CooldownState{
		Fingerprint: fp,
		Until:       now.Add(cooldown),
		LastUpdate:  now,
	}

	key := StateKey(fp)
	pipe := t.redis.TxPipeline()
	hits := pipe.HIncrBy(ctx, key, "hits", 1)
	pipe.HSet(ctx, key, "until", state.Until.UnixNano(), "last_update", now.UnixNano())
	pipe.Expire(ctx, key, cooldown)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("store cooldown in redis: %w", err)
	}
	state.Hits = int(hits.Val())

	cooldownsTotal.Inc()
	cooldownSeconds.Observe(cooldown.Seconds())

	t.logger.Warn().
		Str("credential", credentials.Mask(credential)).
		Dur("cooldown", cooldown).
		Int("hits", state.Hits).
		Msg("Credential rate limited")

	return state, nil
}

// GetState retrieves the cooldown state for credential.
// Returns an inactive state if nothing is stored.
func (t *Tracker) GetState(ctx context.Context, credential string) (*CooldownState, error) {
	fp := credentials.Fingerprint(credential)
	if t.redis == nil {
		return &CooldownState{Fingerprint: fp, LastUpdate: time.Now()}, nil
	}

	fields, err := t.redis.HGetAll(ctx, StateKey(fp)).Result()
	if err != nil {
		return nil, fmt.Errorf("get cooldown state: %w", err)
	}
	if len(fields) == 0 {
		return &CooldownState{Fingerprint: fp, LastUpdate: time.Now()}, nil
	}

	state := &CooldownState{Fingerprint: fp}
	if v, err := strconv.ParseInt(fields["until"], 10, 64); err == nil {
		state.Until = time.Unix(0, v)
	}
	if v, err := strconv.ParseInt(fields["last_update"], 10, 64); err == nil {
		state.LastUpdate = time.Unix(0, v)
	}
	if v, err := strconv.Atoi(fields["hits"]); err == nil {
		state.Hits = v
	}
	return state, nil
}

// ShouldAllowRequest reports whether credential may be used now. When it
// may not, the remaining cooldown is returned.
func (t *Tracker) ShouldAllowRequest(ctx context.Context, credential string) (bool, time.Duration, error) {
	state, err := t.GetState(ctx, credential)
	if err != nil {
		return false, 0, fmt.Errorf("get rate limit state: %w", err)
	}

	if state.Active() {
		remaining := state.Remaining()
		t.logger.Debug().
			Str("credential", credentials.Mask(credential)).
			Dur("remaining", remaining).
			Msg("Credential cooling down - skipping request")
		cooldownSkipsTotal.Inc()
		return false, remaining, nil
	}

	return true, 0, nil
}

// Clear removes any stored cooldown for credential.
func (t *Tracker) Clear(ctx context.Context, credential string) error {
	if t.redis == nil {
		return nil
	}
	if err := t.redis.Del(ctx, StateKey(credentials.Fingerprint(credential))).Err(); err != nil {
		return fmt.Errorf("clear cooldown: %w", err)
	}
	return nil
}
