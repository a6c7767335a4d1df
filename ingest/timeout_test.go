package ingest_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"newsdesk/ingest"

	"github.com/stretchr/testify/assert"
)

func TestWithTimeoutReturnsResult(t *testing.T) {
	got, err := ingest.WithTimeout(context.Background(), time.Second, func(ctx context.Context) (int, error) {
		return 42, nil
	})
	assert.NoError(t, err)
	assert.Equal(t, 42, got)
}

func TestWithTimeoutPropagatesError(t *testing.T) {
	wantErr := errors.New("fetch failed")
	_, err := ingest.WithTimeout(context.Background(), time.Second, func(ctx context.Context) (int, error) {
		return 0, wantErr
	})
	assert.ErrorIs(t, err, wantErr)

	var timeoutErr *ingest.TimeoutError
	assert.False(t, errors.As(err, &timeoutErr), "operation errors must not look like timeouts")
}

func TestWithTimeoutFiresOnDeadline(t *testing.T) {
	started := time.Now()

	_, err := ingest.WithTimeout(context.Background(), 50*time.Millisecond, func(ctx context.Context) (int, error) {
		// Never settles on its own
		<-make(chan struct{})
		return 0, nil
	})

	elapsed := time.Since(started)

	var timeoutErr *ingest.TimeoutError
	assert.ErrorAs(t, err, &timeoutErr)
	assert.Equal(t, 50*time.Millisecond, timeoutErr.Deadline)
	assert.Less(t, elapsed, time.Second, "timeout must fire near the deadline, not hang")
}

func TestWithTimeoutParentCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := ingest.WithTimeout(ctx, time.Second, func(ctx context.Context) (int, error) {
		<-make(chan struct{})
		return 0, nil
	})

	assert.ErrorIs(t, err, context.Canceled)
}
