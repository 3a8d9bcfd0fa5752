// Package batch drives a roster through the inference service one batch at
// a time.
//
// Batches are dispatched strictly in input order with one batch in flight.
// A batch becomes visible in the results accumulator and the progress
// tracker only after its call resolved, and always as a whole.
//
// # Failure handling
//
//   - A rejected or rate-limited credential advances the pool cursor and the
//     same batch is tried again. Nothing from the failed attempt is kept.
//   - When the last credential fails the run stops with a RunError wrapping
//     credentials.ErrExhausted. Batches committed earlier remain available.
//   - Output that cannot be decoded, or that has the wrong number of
//     entries, is committed as error sentinels and the run continues.
//   - Any other failure stops the run with a RunError.
//   - Context cancellation is honored between batches (ErrAborted).
//
// # Basic Usage
//
//	d := batch.NewDispatcher(inferenceClient, batch.DefaultConfig())
//	acc := results.New()
//	tracker := progress.NewTracker()
//	tracker.Reset(len(records))
//
//	summary, err := d.Run(ctx, records, pool, acc, tracker)
//	if errors.Is(err, credentials.ErrExhausted) {
//		// acc.All() still holds every committed batch
//	}
package batch
