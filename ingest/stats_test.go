package ingest

import (
	"testing"

	"newsdesk/models"

	"github.com/stretchr/testify/assert"
)

func TestTrackerTransitions(t *testing.T) {
	tracker := NewTracker()

	assert.Equal(t, models.QueueStats{}, tracker.Stats())

	tracker.enqueue(3)
	assert.Equal(t, models.QueueStats{Pending: 3}, tracker.Stats())

	tracker.start()
	assert.Equal(t, models.QueueStats{Pending: 2, InFlight: 1}, tracker.Stats())

	tracker.complete()
	assert.Equal(t, models.QueueStats{Pending: 2, Completed: 1}, tracker.Stats())

	tracker.start()
	tracker.fail()
	assert.Equal(t, models.QueueStats{Pending: 1, Completed: 1, Failed: 1}, tracker.Stats())

	tracker.start()
	tracker.complete()
	assert.Equal(t, models.QueueStats{Completed: 2, Failed: 1}, tracker.Stats())
}

func TestTrackerStatsIsASnapshot(t *testing.T) {
	tracker := NewTracker()
	tracker.enqueue(1)

	snap := tracker.Stats()
	tracker.start()
	tracker.complete()

	// The earlier snapshot must not observe later transitions
	assert.Equal(t, models.QueueStats{Pending: 1}, snap)
}
