// Package jobs runs scheduled maintenance next to the HTTP server.
package jobs

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/adhocore/gronx"
	"github.com/rs/zerolog"
)

// Purger deletes read notifications created before cutoff
type Purger interface {
	PurgeRead(ctx context.Context, cutoff time.Time) (int64, error)
}

// RetentionJob purges old read notifications on a cron schedule
type RetentionJob struct {
	purger  Purger
	cron    string
	period  time.Duration
	timeout time.Duration
	logger  zerolog.Logger
	now     func() time.Time

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewRetentionJob creates a job that keeps read notifications for period
func NewRetentionJob(purger Purger, cron string, period time.Duration, logger zerolog.Logger) (*RetentionJob, error) {
	if !gronx.IsValid(cron) {
		return nil, fmt.Errorf("invalid retention cron expression %q", cron)
	}
	if period <= 0 {
		return nil, fmt.Errorf("retention period must be positive")
	}
	return &RetentionJob{
		purger:  purger,
		cron:    cron,
		period:  period,
		timeout: 5 * time.Minute,
		logger:  logger,
		now:     time.Now,
	}, nil
}

// Start runs the schedule loop until Stop or ctx is canceled. Calling it
// while the loop is running does nothing.
func (j *RetentionJob) Start(ctx context.Context) {
	j.mu.Lock()
	if j.cancel != nil {
		j.mu.Unlock()
		j.logger.Warn().Msg("Retention job already started")
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	j.cancel, j.done = cancel, done
	j.mu.Unlock()

	j.logger.Info().Str("cron", j.cron).Dur("period", j.period).Msg("Retention job scheduled")
	go j.loop(ctx, done)
}

// Stop cancels the loop and waits for it to exit
func (j *RetentionJob) Stop() {
	j.mu.Lock()
	cancel, done := j.cancel, j.done
	j.cancel, j.done = nil, nil
	j.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func (j *RetentionJob) loop(ctx context.Context, done chan struct{}) {
	defer close(done)
	for {
		next, err := gronx.NextTickAfter(j.cron, j.now(), false)
		if err != nil {
			j.logger.Error().Err(err).Str("cron", j.cron).Msg("Failed to compute next retention run")
			select {
			case <-time.After(30 * time.Second):
			case <-ctx.Done():
				return
			}
			continue
		}

		timer := time.NewTimer(time.Until(next))
		select {
		case <-timer.C:
			if _, err := j.RunOnce(ctx); err != nil {
				j.logger.Error().Err(err).Msg("Retention run failed")
			}
		case <-ctx.Done():
			timer.Stop()
			return
		}
	}
}

// RunOnce purges immediately. A run already in progress is not doubled.
func (j *RetentionJob) RunOnce(ctx context.Context) (int64, error) {
	j.mu.Lock()
	if j.running {
		j.mu.Unlock()
		return 0, nil
	}
	j.running = true
	j.mu.Unlock()

	defer func() {
		j.mu.Lock()
		j.running = false
		j.mu.Unlock()
	}()

	ctx, cancel := context.WithTimeout(ctx, j.timeout)
	defer cancel()

	cutoff := j.now().Add(-j.period)
	purged, err := j.purger.PurgeRead(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("purge read notifications: %w", err)
	}
	j.logger.Info().Time("cutoff", cutoff).Int64("purged", purged).Msg("Retention run complete")
	return purged, nil
}
