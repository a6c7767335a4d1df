package ingest

import (
	"sync/atomic"

	"newsdesk/models"
)

// Tracker counts work units through their lifecycle: a feed is pending
// when a run picks it from the listing, in-flight while being
// processed, then completed or failed. Counters accumulate since
// process start and reset only on restart.
//
// Only the pipeline mutates the counters; everyone else reads
// snapshots through Stats.
type Tracker struct {
	pending   atomic.Int64
	inFlight  atomic.Int64
	completed atomic.Int64
	failed    atomic.Int64
}

func NewTracker() *Tracker {
	return &Tracker{}
}

func (t *Tracker) enqueue(n int64) {
	t.pending.Add(n)
}

func (t *Tracker) start() {
	t.pending.Add(-1)
	t.inFlight.Add(1)
}

func (t *Tracker) complete() {
	t.inFlight.Add(-1)
	t.completed.Add(1)
}

func (t *Tracker) fail() {
	t.inFlight.Add(-1)
	t.failed.Add(1)
}

// Stats returns a value snapshot of the counters, safe to call
// concurrently with an in-progress run.
func (t *Tracker) Stats() models.QueueStats {
	return models.QueueStats{
		Pending:   t.pending.Load(),
		InFlight:  t.inFlight.Load(),
		Completed: t.completed.Load(),
		Failed:    t.failed.Load(),
	}
}
