package ingest

import (
	"errors"
	"sync"
	"time"

	"newsdesk/models"

	log "github.com/sirupsen/logrus"
)

// ErrAlreadyRunning is returned when a run is requested while another
// one holds the guard. Expected backpressure, not a fault.
var ErrAlreadyRunning = errors.New("ingestion already running")

// Guard is a process-wide mutual exclusion lock for long jobs. At most
// one holder at a time; an optional run-duration ceiling force-releases
// the guard if the holder never returns, so a hung job cannot wedge the
// scheduler forever.
type Guard struct {
	mu        sync.Mutex
	running   bool
	startedAt time.Time
	ceiling   time.Duration
	onOverrun func(started time.Time)
	timer     *time.Timer
}

// NewGuard creates a guard with no run-duration ceiling.
func NewGuard() *Guard {
	return &Guard{}
}

// NewGuardWithCeiling creates a guard that force-releases after the
// given ceiling, invoking onOverrun for alerting. The overrunning job
// itself is not stopped; its result is simply discarded by whoever
// considers the slot free.
func NewGuardWithCeiling(ceiling time.Duration, onOverrun func(started time.Time)) *Guard {
	return &Guard{ceiling: ceiling, onOverrun: onOverrun}
}

// Acquire attempts the idle -> running transition. Returns true iff the
// transition happened. The test-and-set is atomic under the mutex, which
// is the whole single-flight guarantee.
func (g *Guard) Acquire() bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.running {
		return false
	}

	g.running = true
	g.startedAt = time.Now()

	if g.ceiling > 0 {
		started := g.startedAt
		g.timer = time.AfterFunc(g.ceiling, func() {
			g.forceRelease(started)
		})
	}

	return true
}

// Release returns the guard to idle and cancels any pending
// auto-release timer. Idempotent.
func (g *Guard) Release() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.reset()
}

func (g *Guard) reset() {
	g.running = false
	g.startedAt = time.Time{}
	if g.timer != nil {
		g.timer.Stop()
		g.timer = nil
	}
}

func (g *Guard) forceRelease(started time.Time) {
	g.mu.Lock()
	// The job may have released and a new run started since the timer
	// fired. Only force-release the run the timer belongs to.
	if !g.running || !g.startedAt.Equal(started) {
		g.mu.Unlock()
		return
	}
	g.reset()
	g.mu.Unlock()

	guardOverruns.Inc()
	log.WithFields(log.Fields{
		"startedAt": started,
		"ceiling":   g.ceiling,
	}).Error("Run exceeded its ceiling, force-releasing guard")

	if g.onOverrun != nil {
		g.onOverrun(started)
	}
}

// ExecuteExclusively runs fn under the guard. Returns acquired=false
// without calling fn when the guard is contended. The guard is released
// on every exit path, including panics.
func (g *Guard) ExecuteExclusively(fn func() error) (bool, error) {
	if !g.Acquire() {
		return false, ErrAlreadyRunning
	}
	defer g.Release()
	return true, fn()
}

// Snapshot returns a read-only view of the guard state.
func (g *Guard) Snapshot() models.GuardSnapshot {
	g.mu.Lock()
	defer g.mu.Unlock()

	snap := models.GuardSnapshot{Running: g.running}
	if g.running {
		started := g.startedAt
		snap.StartedAt = &started
	}
	return snap
}
