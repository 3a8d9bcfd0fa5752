package batch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"

	"github.com/sagarbabu-mood/AI-Placement-Analyzer/pkg/credentials"
	"github.com/sagarbabu-mood/AI-Placement-Analyzer/pkg/inference"
	"github.com/sagarbabu-mood/AI-Placement-Analyzer/pkg/logging"
	"github.com/sagarbabu-mood/AI-Placement-Analyzer/pkg/progress"
	"github.com/sagarbabu-mood/AI-Placement-Analyzer/pkg/results"
	"github.com/sagarbabu-mood/AI-Placement-Analyzer/pkg/roster"
)

var (
	runsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "placement_runs_total",
		Help: "Analysis runs by outcome",
	}, []string{"outcome"})

	batchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "placement_batches_total",
		Help: "Committed batches by outcome",
	}, []string{"outcome"})

	rotationsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "placement_credential_rotations_total",
		Help: "Credential advances after a rejected or rate-limited key",
	})

	recordsProcessedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "placement_records_processed_total",
		Help: "Records committed to the results accumulator",
	})
)

// Run outcomes.
const (
	outcomeCompleted = "completed"
	outcomeExhausted = "exhausted"
	outcomeFailed    = "failed"
	outcomeCancelled = "cancelled"
)

// DefaultBatchSize is the number of records sent per call.
const DefaultBatchSize = 15

// ErrAborted is returned when the caller cancels a run between batches.
var ErrAborted = errors.New("run aborted")

// Config holds dispatcher configuration.
type Config struct {
	// BatchSize is the maximum number of records per call.
	BatchSize int
}

// DefaultConfig returns the default dispatcher configuration.
func DefaultConfig() Config {
	return Config{BatchSize: DefaultBatchSize}
}

// Inferrer is the inference collaborator consumed by the dispatcher.
// It must return one PlacementInfo per record, position-aligned, or a
// classified failure.
type Inferrer interface {
	InferPlacements(ctx context.Context, credential string, records []roster.Record) ([]roster.PlacementInfo, error)
}

// RunError is a terminal run failure. Batch is the index of the batch that
// could not be processed and Completed the number of records committed
// before it.
type RunError struct {
	Batch     int
	Completed int
	Err       error
}

// Error implements the error interface.
func (e *RunError) Error() string {
	return fmt.Sprintf("run stopped at batch %d after %d records: %v", e.Batch, e.Completed, e.Err)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *RunError) Unwrap() error {
	return e.Err
}

// Summary describes a finished or stopped run.
type Summary struct {
	RunID           string
	Records         int
	Batches         int
	Committed       int
	SentinelBatches int
	Rotations       int
	Duration        time.Duration
}

// Partition splits records into contiguous chunks of at most size records.
// A size below 1 uses DefaultBatchSize.
func Partition(records []roster.Record, size int) [][]roster.Record {
	if size < 1 {
		size = DefaultBatchSize
	}
	batches := make([][]roster.Record, 0, (len(records)+size-1)/size)
	for start := 0; start < len(records); start += size {
		end := start + size
		if end > len(records) {
			end = len(records)
		}
		batches = append(batches, records[start:end])
	}
	return batches
}

// Dispatcher runs records through an Inferrer batch by batch.
type Dispatcher struct {
	inferrer Inferrer
	config   Config
	logger   zerolog.Logger
}

// NewDispatcher creates a new dispatcher.
func NewDispatcher(inferrer Inferrer, config Config) *Dispatcher {
	if config.BatchSize < 1 {
		config.BatchSize = DefaultBatchSize
	}
	return &Dispatcher{
		inferrer: inferrer,
		config:   config,
		logger:   logging.NewLogger("dispatcher"),
	}
}

// Run processes records starting at the pool's current cursor. Each
// resolved batch is appended to acc and then advances tracker by its size.
// The tracker is not reset; callers size it before the run. tracker may be
// nil.
func (d *Dispatcher) Run(ctx context.Context, records []roster.Record, pool *credentials.Pool, acc *results.Accumulator, tracker *progress.Tracker) (Summary, error) {
	start := time.Now()
	batches := Partition(records, d.config.BatchSize)
	summary := Summary{
		RunID:   uuid.NewString(),
		Records: len(records),
		Batches: len(batches),
	}
	logger := logging.WithRun(d.logger, summary.RunID)

	logger.Info().
		Int("records", len(records)).
		Int("batches", len(batches)).
		Int("batch_size", d.config.BatchSize).
		Int("credential_index", pool.Index()).
		Msg("Run started")

	fail := func(i int, outcome string, err error) (Summary, error) {
		summary.Duration = time.Since(start)
		runsTotal.WithLabelValues(outcome).Inc()
		logger.Error().
			Err(err).
			Int("batch", i).
			Int("completed", summary.Committed).
			Int("total", len(records)).
			Msg("Run aborted")
		return summary, &RunError{Batch: i, Completed: summary.Committed, Err: err}
	}

	for i, b := range batches {
		if err := ctx.Err(); err != nil {
			return fail(i, outcomeCancelled, fmt.Errorf("%w: %w", ErrAborted, err))
		}

		blog := logging.WithBatch(logger, i, len(b))

		// Cancellation takes effect between batches; the batch in flight
		// runs to completion under the client's own timeout.
		callCtx := context.WithoutCancel(ctx)

		var infos []roster.PlacementInfo
		rotations, err := credentials.Rotate(pool, inference.IsCredentialFailure, func(credential string) error {
			var callErr error
			infos, callErr = d.inferrer.InferPlacements(callCtx, credential, b)
			if callErr != nil && inference.IsCredentialFailure(callErr) {
				blog.Warn().
					Err(callErr).
					Str("credential", credentials.Mask(credential)).
					Int("credential_index", pool.Index()).
					Str("error_class", string(inference.ClassOf(callErr))).
					Msg("Credential failed")
			}
			return callErr
		})
		summary.Rotations += rotations
		rotationsTotal.Add(float64(rotations))

		switch {
		case err == nil && len(infos) == len(b):
			d.commit(acc, tracker, roster.MergeBatch(b, infos), "committed")
		case err == nil:
			blog.Warn().
				Int("expected", len(b)).
				Int("received", len(infos)).
				Msg("Result count mismatch, committing error sentinels")
			d.commit(acc, tracker, roster.ErrorBatch(b, roster.ReasonFormat), "sentinel")
			summary.SentinelBatches++
		case errors.Is(err, inference.ErrSchemaMismatch):
			blog.Warn().Err(err).Msg("Malformed output, committing error sentinels")
			d.commit(acc, tracker, roster.ErrorBatch(b, roster.ReasonFormat), "sentinel")
			summary.SentinelBatches++
		case errors.Is(err, inference.ErrEmptyResponse):
			blog.Warn().Err(err).Msg("Empty output, committing error sentinels")
			d.commit(acc, tracker, roster.ErrorBatch(b, roster.ReasonResponse), "sentinel")
			summary.SentinelBatches++
		case errors.Is(err, credentials.ErrExhausted):
			return fail(i, outcomeExhausted, err)
		case ctx.Err() != nil:
			return fail(i, outcomeCancelled, fmt.Errorf("%w: %w", ErrAborted, err))
		default:
			return fail(i, outcomeFailed, err)
		}

		summary.Committed += len(b)
		blog.Debug().
			Int("completed", summary.Committed).
			Int("total", len(records)).
			Msg("Batch committed")
	}

	summary.Duration = time.Since(start)
	runsTotal.WithLabelValues(outcomeCompleted).Inc()
	logger.Info().
		Int("records", summary.Committed).
		Int("sentinel_batches", summary.SentinelBatches).
		Int("rotations", summary.Rotations).
		Dur("duration", summary.Duration).
		Msg("Run finished")
	return summary, nil
}

// commit appends a resolved batch and then advances progress.
func (d *Dispatcher) commit(acc *results.Accumulator, tracker *progress.Tracker, processed []roster.ProcessedRecord, outcome string) {
	acc.AppendBatch(processed)
	if tracker != nil {
		tracker.Advance(len(processed))
	}
	batchesTotal.WithLabelValues(outcome).Inc()
	recordsProcessedTotal.Add(float64(len(processed)))
}
