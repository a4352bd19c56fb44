package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/yigit/handbook/internal/pkg/apperrors"
	"github.com/yigit/handbook/internal/pkg/queue"
)

// TaskType is the asynq task name of notification events
const TaskType = "notification:event"

const enqueueTimeout = 3 * time.Second

// QueueDispatcher publishes events as tasks on the background queue. Events
// wait in an in-process outbox so a slow broker never holds up the caller.
type QueueDispatcher struct {
	client queue.Client
	opts   queue.EnqueueOption
	outbox *LocalDispatcher
	logger zerolog.Logger
}

// NewQueueDispatcher creates a dispatcher publishing through client from
// workers goroutines fed by an outbox of bufferSize events
func NewQueueDispatcher(client queue.Client, opts queue.EnqueueOption, workers, bufferSize int, logger zerolog.Logger) *QueueDispatcher {
	d := &QueueDispatcher{client: client, opts: opts, logger: logger}
	d.outbox = NewLocalDispatcher(HandlerFunc(d.enqueue), workers, bufferSize, enqueueTimeout, logger)
	return d
}

// Dispatch places the event in the outbox and returns at once
func (d *QueueDispatcher) Dispatch(ctx context.Context, event Event) {
	d.outbox.Dispatch(ctx, event)
}

// Len is the number of events not yet handed to the queue
func (d *QueueDispatcher) Len() int {
	return d.outbox.Len()
}

func (d *QueueDispatcher) enqueue(ctx context.Context, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode notification event: %w", err)
	}

	id, err := d.client.Enqueue(ctx, queue.Task{Type: TaskType, Payload: payload}, d.opts)
	if err != nil {
		return fmt.Errorf("enqueue notification event: %w", err)
	}
	d.logger.Debug().Str("taskID", id).Str("eventID", event.ID).Str("kind", string(event.Kind)).Msg("Notification event enqueued")
	return nil
}

// Close flushes the outbox to the queue, then releases the client
func (d *QueueDispatcher) Close() {
	d.outbox.Close()
	if err := d.client.Close(); err != nil {
		d.logger.Warn().Err(err).Msg("Failed to close queue client")
	}
}

// TaskHandler adapts handler to the queue. Only store outages are returned
// for retry; every other failure is reported and dropped.
func TaskHandler(handler Handler, logger zerolog.Logger) queue.Handler {
	return func(ctx context.Context, task queue.Task) error {
		var event Event
		if err := json.Unmarshal(task.Payload, &event); err != nil {
			reportFailure(logger, Event{Kind: Kind(task.Type)}, err, "Malformed notification task")
			return nil
		}

		err := handler.Handle(ctx, event)
		if err == nil {
			return nil
		}
		if errors.Is(err, apperrors.ErrServiceUnavailable) {
			logger.Warn().Err(err).Str("kind", string(event.Kind)).Msg("Notification side effect will be retried")
			return fmt.Errorf("notification %s: %w", event.Kind, err)
		}
		reportFailure(logger, event, err, "Notification side effect failed")
		return nil
	}
}

var (
	_ Dispatcher = (*LocalDispatcher)(nil)
	_ Dispatcher = (*QueueDispatcher)(nil)
)
