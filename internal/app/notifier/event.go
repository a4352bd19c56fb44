// Package notifier moves notification side effects off the request path.
// Writers dispatch an Event and return; a Handler turns it into
// notifications later, either in-process or through the task queue.
package notifier

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/yigit/handbook/internal/pkg/metrics"
)

// Kind names what happened
type Kind string

const (
	KindMessageSent         Kind = "message.sent"
	KindMessageEdited       Kind = "message.edited"
	KindMessageDeleted      Kind = "message.deleted"
	KindMessageReacted      Kind = "message.reacted"
	KindAnnouncementCreated Kind = "announcement.created"
)

// Event is the payload of one side effect. The handler reloads the message,
// so only ids and actor details travel with it. ID is stamped on dispatch and
// stays the same across redeliveries.
type Event struct {
	ID              string   `json:"id,omitempty"`
	Kind            Kind     `json:"kind"`
	MessageID       string   `json:"messageId,omitempty"`
	ActorRef        string   `json:"actorRef,omitempty"`
	ActorName       string   `json:"actorName,omitempty"`
	Emoji           string   `json:"emoji,omitempty"`
	Text            string   `json:"text,omitempty"`
	AnnouncementIDs []string `json:"announcementIds,omitempty"`
}

// Handler turns an event into notifications
type Handler interface {
	Handle(ctx context.Context, event Event) error
}

// HandlerFunc adapts a function to Handler
type HandlerFunc func(ctx context.Context, event Event) error

func (f HandlerFunc) Handle(ctx context.Context, event Event) error { return f(ctx, event) }

// Dispatcher hands events to a Handler without blocking or failing the caller
type Dispatcher interface {
	Dispatch(ctx context.Context, event Event)
	Close()
}

// reportFailure is the single sink of side effect errors
func reportFailure(log zerolog.Logger, event Event, err error, msg string) {
	metrics.SideEffectFailures.WithLabelValues(string(event.Kind)).Inc()
	log.Error().Err(err).
		Str("eventID", event.ID).
		Str("kind", string(event.Kind)).
		Str("messageID", event.MessageID).
		Strs("announcementIDs", event.AnnouncementIDs).
		Msg(msg)
}
