package inference

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog/log"
)

var (
	retriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "placement_retries_total",
		Help: "Total number of retry attempts by error class",
	}, []string{"error_class"})

	retryBackoffSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "placement_retry_backoff_seconds",
		Help:    "Backoff duration for retries by error class",
		Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60},
	}, []string{"error_class"})

	retryExhaustedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "placement_retry_exhausted_total",
		Help: "Total number of times retry attempts were exhausted by error class",
	}, []string{"error_class"})
)

// RetryConfig holds the configuration for retry logic.
type RetryConfig struct {
	// MaxAttempts is the maximum number of attempts (including the initial request).
	MaxAttempts int

	// InitialBackoff is the initial backoff duration.
	InitialBackoff time.Duration

	// MaxBackoff is the maximum backoff duration.
	MaxBackoff time.Duration

	// BackoffMultiplier is the multiplier for exponential backoff.
	BackoffMultiplier float64
}

// DefaultRetryConfig returns the default retry configuration.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:       3,
		InitialBackoff:    1 * time.Second,
		MaxBackoff:        30 * time.Second,
		BackoffMultiplier: 2.0,
	}
}

// backoffSchedule yields the wait before each retry of one model call:
// exponential growth capped at max, each wait jittered by ±20%.
type backoffSchedule struct {
	next time.Duration
	max  time.Duration
	mult float64
}

func newBackoffSchedule(config RetryConfig) *backoffSchedule {
	mult := config.BackoffMultiplier
	if mult < 1 {
		mult = 1
	}
	return &backoffSchedule{next: config.InitialBackoff, max: config.MaxBackoff, mult: mult}
}

// wait returns the jittered delay for the upcoming retry and grows the base.
func (b *backoffSchedule) wait() time.Duration {
	d := time.Duration(float64(b.next) * (0.8 + rand.Float64()*0.4))
	b.next = time.Duration(float64(b.next) * b.mult)
	if b.max > 0 && b.next > b.max {
		b.next = b.max
	}
	return d
}

// retryWithBackoff runs one model call, repeating it with the same
// credential while it fails with a server or network error and attempts
// remain. Credential, rate-limit and client failures return on the first
// attempt so the caller can rotate or give up.
func retryWithBackoff(ctx context.Context, config RetryConfig, fn func() error) error {
	attempts := max(config.MaxAttempts, 1)
	schedule := newBackoffSchedule(config)

	var err error
	for attempt := 1; ; attempt++ {
		if err = fn(); err == nil {
			if attempt > 1 {
				log.Info().Int("attempt", attempt).Msg("Model call recovered after retry")
			}
			return nil
		}

		class := ClassOf(err)
		if !shouldRetry(class) || ctx.Err() != nil {
			return err
		}
		if attempt == attempts {
			retryExhaustedTotal.WithLabelValues(string(class)).Inc()
			log.Warn().
				Str("error_class", string(class)).
				Int("max_attempts", attempts).
				Msg("Giving up on model call")
			return fmt.Errorf("%w after %d attempts: %w", ErrRetryExhausted, attempts, err)
		}

		delay := schedule.wait()
		retriesTotal.WithLabelValues(string(class)).Inc()
		retryBackoffSeconds.WithLabelValues(string(class)).Observe(delay.Seconds())
		log.Debug().
			Str("error_class", string(class)).
			Int("attempt", attempt).
			Dur("backoff", delay).
			Msg("Transient model failure, backing off")

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("%w: %w", ErrContextCancelled, ctx.Err())
		case <-timer.C:
		}
	}
}
