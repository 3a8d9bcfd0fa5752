// Package report turns processed records into the narrative placement report
// and the downloadable statistics exports.
package report

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"

	"github.com/sagarbabu-mood/AI-Placement-Analyzer/pkg/credentials"
	"github.com/sagarbabu-mood/AI-Placement-Analyzer/pkg/inference"
	"github.com/sagarbabu-mood/AI-Placement-Analyzer/pkg/logging"
	"github.com/sagarbabu-mood/AI-Placement-Analyzer/pkg/roster"
)

var reportsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "placement_reports_total",
	Help: "Report generations by outcome",
}, []string{"outcome"})

// ErrNoRecords is returned when a report is requested over an empty result set.
var ErrNoRecords = errors.New("no processed records")

// Generator produces the markdown report for records with one credential.
type Generator interface {
	GenerateReport(ctx context.Context, credential string, records []roster.ProcessedRecord) (string, error)
}

// Orchestrator obtains a report, rotating through the credential pool on
// credential failures.
type Orchestrator struct {
	generator Generator
	logger    zerolog.Logger
}

// NewOrchestrator creates an orchestrator over generator.
func NewOrchestrator(generator Generator) *Orchestrator {
	return &Orchestrator{
		generator: generator,
		logger:    logging.NewLogger("report"),
	}
}

// Generate requests the report starting at the pool's current cursor. An
// exhausted pool or any non-credential failure is returned to the caller.
func (o *Orchestrator) Generate(ctx context.Context, records []roster.ProcessedRecord, pool *credentials.Pool) (string, error) {
	if len(records) == 0 {
		reportsTotal.WithLabelValues("failed").Inc()
		return "", ErrNoRecords
	}

	start := time.Now()
	o.logger.Info().
		Int("records", len(records)).
		Int("credential_index", pool.Index()).
		Msg("Report requested")

	var markdown string
	rotations, err := credentials.Rotate(pool, inference.IsCredentialFailure, func(credential string) error {
		var genErr error
		markdown, genErr = o.generator.GenerateReport(ctx, credential, records)
		if genErr != nil && inference.IsCredentialFailure(genErr) {
			o.logger.Warn().
				Err(genErr).
				Str("credential", credentials.Mask(credential)).
				Int("credential_index", pool.Index()).
				Str("error_class", string(inference.ClassOf(genErr))).
				Msg("Credential failed")
		}
		return genErr
	})

	if err != nil {
		outcome := "failed"
		switch {
		case errors.Is(err, credentials.ErrExhausted):
			outcome = "exhausted"
		case ctx.Err() != nil:
			outcome = "cancelled"
		}
		reportsTotal.WithLabelValues(outcome).Inc()
		o.logger.Error().
			Err(err).
			Int("rotations", rotations).
			Str("outcome", outcome).
			Msg("Report failed")
		return "", fmt.Errorf("generate report: %w", err)
	}

	reportsTotal.WithLabelValues("completed").Inc()
	o.logger.Info().
		Int("rotations", rotations).
		Int("length", len(markdown)).
		Dur("duration", time.Since(start)).
		Msg("Report generated")
	return markdown, nil
}
