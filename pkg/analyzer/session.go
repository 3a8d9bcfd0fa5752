// Package analyzer ties the pieces of a placement analysis together into a
// session: one credential pool, the roster being analyzed, its results and
// progress, and the generated report.
//
// A session runs at most one operation at a time. Analyze, Resume and
// GenerateReport return ErrRunInProgress instead of queueing.
package analyzer

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/sagarbabu-mood/AI-Placement-Analyzer/pkg/batch"
	"github.com/sagarbabu-mood/AI-Placement-Analyzer/pkg/credentials"
	"github.com/sagarbabu-mood/AI-Placement-Analyzer/pkg/logging"
	"github.com/sagarbabu-mood/AI-Placement-Analyzer/pkg/progress"
	"github.com/sagarbabu-mood/AI-Placement-Analyzer/pkg/report"
	"github.com/sagarbabu-mood/AI-Placement-Analyzer/pkg/results"
	"github.com/sagarbabu-mood/AI-Placement-Analyzer/pkg/roster"
	"github.com/sagarbabu-mood/AI-Placement-Analyzer/pkg/stats"
)

var (
	// ErrRunInProgress is returned when an operation is requested while
	// another one is active.
	ErrRunInProgress = errors.New("an analysis is already running")

	// ErrNoResults is returned when stats or a report are requested before
	// any record has been processed.
	ErrNoResults = errors.New("no processed results")

	// ErrNothingToResume is returned by Resume when every record of the
	// current roster is already processed, or no roster was analyzed.
	ErrNothingToResume = errors.New("nothing to resume")
)

// Config wires a session to its collaborators.
type Config struct {
	// Inferrer answers batch placement requests.
	Inferrer batch.Inferrer

	// Generator writes the narrative report.
	Generator report.Generator

	// Store persists the credential list. Nil keeps credentials in memory only.
	Store credentials.Store

	// Batch configures the dispatcher.
	Batch batch.Config
}

// Session is one analyst's working state. It is safe for concurrent use.
type Session struct {
	store        credentials.Store
	pool         *credentials.Pool
	dispatcher   *batch.Dispatcher
	orchestrator *report.Orchestrator
	tracker      *progress.Tracker
	logger       zerolog.Logger

	running sync.Mutex

	mu      sync.RWMutex
	roster  *roster.Roster
	acc     *results.Accumulator
	report  string
	lastErr error
}

// NewSession creates an idle session with an empty credential pool.
func NewSession(cfg Config) *Session {
	return &Session{
		store:        cfg.Store,
		pool:         credentials.NewPool(nil),
		dispatcher:   batch.NewDispatcher(cfg.Inferrer, cfg.Batch),
		orchestrator: report.NewOrchestrator(cfg.Generator),
		tracker:      progress.NewTracker(),
		logger:       logging.NewLogger("analyzer"),
		acc:          results.New(),
	}
}

// LoadCredentials replaces the pool with the stored credential list.
func (s *Session) LoadCredentials(ctx context.Context) error {
	if s.store == nil {
		return nil
	}
	keys, err := s.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("load credentials: %w", err)
	}
	s.pool.Replace(keys)
	s.logger.Info().Int("credentials", s.pool.Len()).Msg("Credentials loaded")
	return nil
}

// SetCredentials persists keys and replaces the pool with them. The cursor
// moves back to the first key. Credentials cannot change during a run.
func (s *Session) SetCredentials(ctx context.Context, keys []string) error {
	if !s.running.TryLock() {
		return ErrRunInProgress
	}
	defer s.running.Unlock()

	pool := credentials.NewPool(keys)
	if s.store != nil {
		if err := s.store.Save(ctx, pool.Keys()); err != nil {
			return fmt.Errorf("save credentials: %w", err)
		}
	}
	s.pool.Replace(keys)
	s.logger.Info().Int("credentials", s.pool.Len()).Msg("Credentials updated")
	return nil
}

// Credentials returns the configured credentials in order.
func (s *Session) Credentials() []string {
	return s.pool.Keys()
}

// CredentialIndex returns the pool cursor.
func (s *Session) CredentialIndex() int {
	return s.pool.Index()
}

// Subscribe registers fn for progress changes.
func (s *Session) Subscribe(fn progress.Listener) {
	s.tracker.Subscribe(fn)
}

// Running reports whether an operation is active.
func (s *Session) Running() bool {
	if s.running.TryLock() {
		s.running.Unlock()
		return false
	}
	return true
}

// Analyze processes every record of r into a fresh result set. The previous
// results and report are discarded and the credential cursor starts over.
// When the run stops early the records processed so far stay available.
func (s *Session) Analyze(ctx context.Context, r *roster.Roster) (batch.Summary, error) {
	if err := s.beginAnalyze(r); err != nil {
		return batch.Summary{}, err
	}
	defer s.running.Unlock()
	return s.analyze(ctx, r)
}

// Start is Analyze in the background. Precondition failures are returned
// directly; the run's own outcome is passed to done, which may be nil, after
// the session is free again.
func (s *Session) Start(ctx context.Context, r *roster.Roster, done func(batch.Summary, error)) error {
	if err := s.beginAnalyze(r); err != nil {
		return err
	}
	go func() {
		summary, err := s.analyze(ctx, r)
		s.running.Unlock()
		if done != nil {
			done(summary, err)
		}
	}()
	return nil
}

// beginAnalyze checks preconditions and takes the run lock.
func (s *Session) beginAnalyze(r *roster.Roster) error {
	if r.Len() == 0 {
		return roster.ErrInputInvalid
	}
	if !s.running.TryLock() {
		return ErrRunInProgress
	}
	if s.pool.Len() == 0 {
		s.running.Unlock()
		return credentials.ErrMissing
	}
	return nil
}

func (s *Session) analyze(ctx context.Context, r *roster.Roster) (batch.Summary, error) {
	acc := results.New()
	s.mu.Lock()
	s.roster = r
	s.acc = acc
	s.report = ""
	s.lastErr = nil
	s.mu.Unlock()

	s.pool.Reset()
	s.tracker.Reset(len(r.Records))

	return s.run(ctx, r.Records, acc)
}

// Resume continues the current roster from the first unprocessed record,
// keeping the results collected so far. It is meant to follow a run that
// stopped on exhausted credentials once new ones are configured.
func (s *Session) Resume(ctx context.Context) (batch.Summary, error) {
	pending, acc, err := s.beginResume()
	if err != nil {
		return batch.Summary{}, err
	}
	defer s.running.Unlock()
	return s.run(ctx, pending, acc)
}

// StartResume is Resume in the background, reporting through done like Start.
func (s *Session) StartResume(ctx context.Context, done func(batch.Summary, error)) error {
	pending, acc, err := s.beginResume()
	if err != nil {
		return err
	}
	go func() {
		summary, err := s.run(ctx, pending, acc)
		s.running.Unlock()
		if done != nil {
			done(summary, err)
		}
	}()
	return nil
}

func (s *Session) beginResume() ([]roster.Record, *results.Accumulator, error) {
	if !s.running.TryLock() {
		return nil, nil, ErrRunInProgress
	}

	s.mu.Lock()
	r, acc := s.roster, s.acc
	if r == nil || acc.Len() >= len(r.Records) {
		s.mu.Unlock()
		s.running.Unlock()
		return nil, nil, ErrNothingToResume
	}
	s.lastErr = nil
	s.mu.Unlock()

	if s.pool.Len() == 0 {
		s.running.Unlock()
		return nil, nil, credentials.ErrMissing
	}
	s.pool.Reset()

	pending := r.Records[acc.Len():]
	s.logger.Info().
		Int("completed", acc.Len()).
		Int("pending", len(pending)).
		Msg("Resuming analysis")
	return pending, acc, nil
}

func (s *Session) run(ctx context.Context, records []roster.Record, acc *results.Accumulator) (batch.Summary, error) {
	summary, err := s.dispatcher.Run(ctx, records, s.pool, acc, s.tracker)
	if err != nil {
		s.mu.Lock()
		s.lastErr = err
		s.mu.Unlock()
	}
	return summary, err
}

// GenerateReport writes the narrative report over the current results,
// starting from the credential the last run ended on.
func (s *Session) GenerateReport(ctx context.Context) (string, error) {
	if !s.running.TryLock() {
		return "", ErrRunInProgress
	}
	defer s.running.Unlock()

	records := s.Results()
	if len(records) == 0 {
		return "", ErrNoResults
	}

	md, err := s.orchestrator.Generate(ctx, records, s.pool)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	s.report = md
	s.mu.Unlock()
	return md, nil
}

// Report returns the last generated report, or "" if there is none.
func (s *Session) Report() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.report
}

// Results returns the processed records in roster order.
func (s *Session) Results() []roster.ProcessedRecord {
	s.mu.RLock()
	acc := s.acc
	s.mu.RUnlock()
	return acc.All()
}

// ExtraColumns returns the pass-through column names of the current roster.
func (s *Session) ExtraColumns() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.roster == nil {
		return nil
	}
	return s.roster.ExtraColumns
}

// Progress returns the current progress.
func (s *Session) Progress() progress.State {
	return s.tracker.Snapshot()
}

// LastError returns the error that stopped the most recent run, if any.
func (s *Session) LastError() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastErr
}

// Stats computes statistics over the current results.
func (s *Session) Stats() (stats.AggregateStats, error) {
	records := s.Results()
	if len(records) == 0 {
		return stats.AggregateStats{}, ErrNoResults
	}
	return stats.ComputeStats(records), nil
}
