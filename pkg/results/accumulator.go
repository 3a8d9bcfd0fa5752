// Package results collects processed records as batches complete.
package results

import (
	"sync"

	"github.com/sagarbabu-mood/AI-Placement-Analyzer/pkg/roster"
)

// Accumulator is an append-only, batch-atomic collection of processed
// records. A batch becomes visible all at once or not at all.
type Accumulator struct {
	mu      sync.RWMutex
	records []roster.ProcessedRecord
}

// New creates an empty accumulator.
func New() *Accumulator {
	return &Accumulator{}
}

// AppendBatch appends one batch of records.
func (a *Accumulator) AppendBatch(records []roster.ProcessedRecord) {
	if len(records) == 0 {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.records = append(a.records, records...)
}

// All returns a copy of every record appended so far, in append order.
func (a *Accumulator) All() []roster.ProcessedRecord {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return append([]roster.ProcessedRecord(nil), a.records...)
}

// Len returns the number of records appended so far.
func (a *Accumulator) Len() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.records)
}
