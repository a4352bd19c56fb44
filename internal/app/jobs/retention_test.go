package jobs

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPurger struct {
	mu      sync.Mutex
	cutoffs []time.Time
	purged  int64
	err     error
	block   chan struct{}
}

func (p *recordingPurger) PurgeRead(ctx context.Context, cutoff time.Time) (int64, error) {
	if p.block != nil {
		<-p.block
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cutoffs = append(p.cutoffs, cutoff)
	return p.purged, p.err
}

func TestNewRetentionJobValidates(t *testing.T) {
	_, err := NewRetentionJob(&recordingPurger{}, "not a cron", time.Hour, zerolog.Nop())
	assert.Error(t, err)

	_, err = NewRetentionJob(&recordingPurger{}, "0 3 * * *", 0, zerolog.Nop())
	assert.Error(t, err)
}

func TestRunOnceUsesPeriodCutoff(t *testing.T) {
	purger := &recordingPurger{purged: 7}
	job, err := NewRetentionJob(purger, "0 3 * * *", 24*time.Hour, zerolog.Nop())
	require.NoError(t, err)

	now := time.Date(2025, 3, 10, 3, 0, 0, 0, time.UTC)
	job.now = func() time.Time { return now }

	purged, err := job.RunOnce(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 7, purged)
	require.Len(t, purger.cutoffs, 1)
	assert.Equal(t, now.Add(-24*time.Hour), purger.cutoffs[0])
}

func TestRunOnceWrapsErrors(t *testing.T) {
	job, err := NewRetentionJob(&recordingPurger{err: errors.New("db down")}, "@daily", time.Hour, zerolog.Nop())
	require.NoError(t, err)

	_, err = job.RunOnce(context.Background())
	assert.ErrorContains(t, err, "db down")
}

func TestRunOnceSkipsOverlappingRun(t *testing.T) {
	purger := &recordingPurger{block: make(chan struct{})}
	job, err := NewRetentionJob(purger, "@daily", time.Hour, zerolog.Nop())
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = job.RunOnce(context.Background())
	}()

	require.Eventually(t, func() bool {
		job.mu.Lock()
		defer job.mu.Unlock()
		return job.running
	}, time.Second, 5*time.Millisecond)

	purged, err := job.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Zero(t, purged)

	close(purger.block)
	<-done
	assert.Len(t, purger.cutoffs, 1)
}

func TestStartAndStop(t *testing.T) {
	job, err := NewRetentionJob(&recordingPurger{}, "@yearly", time.Hour, zerolog.Nop())
	require.NoError(t, err)

	job.Start(context.Background())
	stopped := make(chan struct{})
	go func() {
		job.Stop()
		close(stopped)
	}()

	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("retention loop did not stop")
	}
}

func TestStartTwiceKeepsOneLoop(t *testing.T) {
	job, err := NewRetentionJob(&recordingPurger{}, "@yearly", time.Hour, zerolog.Nop())
	require.NoError(t, err)

	job.Start(context.Background())
	job.mu.Lock()
	first := job.done
	job.mu.Unlock()

	job.Start(context.Background())
	job.mu.Lock()
	assert.Equal(t, first, job.done)
	job.mu.Unlock()

	job.Stop()
	select {
	case <-first:
	case <-time.After(2 * time.Second):
		t.Fatal("first retention loop was orphaned")
	}

	// a stopped job can be started again
	job.Start(context.Background())
	job.mu.Lock()
	assert.NotNil(t, job.done)
	job.mu.Unlock()
	job.Stop()
}
