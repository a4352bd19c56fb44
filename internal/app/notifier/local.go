package notifier

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/yigit/handbook/internal/pkg/metrics"
)

var (
	errQueueFull = errors.New("notification queue is full")
	errClosed    = errors.New("notification dispatcher is closed")
)

// LocalDispatcher runs the handler on a fixed pool of goroutines fed by a
// bounded channel. Events are dropped, not blocked on, when the buffer is full.
type LocalDispatcher struct {
	handler Handler
	events  chan Event
	timeout time.Duration
	logger  zerolog.Logger

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

// NewLocalDispatcher starts workers goroutines reading from a buffer of bufferSize events
func NewLocalDispatcher(handler Handler, workers, bufferSize int, timeout time.Duration, logger zerolog.Logger) *LocalDispatcher {
	if workers <= 0 {
		workers = 1
	}
	if bufferSize < 0 {
		bufferSize = 0
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	d := &LocalDispatcher{
		handler: handler,
		events:  make(chan Event, bufferSize),
		timeout: timeout,
		logger:  logger,
	}
	metrics.RegisterQueueDepth(func() float64 { return float64(d.Len()) })

	d.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go d.worker()
	}
	return d
}

// Dispatch enqueues the event. The request context is not carried over.
func (d *LocalDispatcher) Dispatch(_ context.Context, event Event) {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		reportFailure(d.logger, event, errClosed, "Notification event dropped")
		return
	}

	select {
	case d.events <- event:
	default:
		reportFailure(d.logger, event, errQueueFull, "Notification event dropped")
	}
}

// Len is the number of events waiting for a worker
func (d *LocalDispatcher) Len() int {
	return len(d.events)
}

// Close stops accepting events and waits for the backlog to drain
func (d *LocalDispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	close(d.events)
	d.mu.Unlock()

	d.wg.Wait()
}

func (d *LocalDispatcher) worker() {
	defer d.wg.Done()
	for event := range d.events {
		d.handle(event)
	}
}

func (d *LocalDispatcher) handle(event Event) {
	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			reportFailure(d.logger, event, fmt.Errorf("panic: %v", r), "Notification handler panicked")
		}
	}()

	if err := d.handler.Handle(ctx, event); err != nil {
		reportFailure(d.logger, event, err, "Notification side effect failed")
	}
}
