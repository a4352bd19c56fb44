package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/yigit/handbook/internal/app/models"
	"github.com/yigit/handbook/internal/app/notifier"
	"github.com/yigit/handbook/internal/app/repositories"
	"github.com/yigit/handbook/internal/pkg/apperrors"
)

// Excerpt lengths of notification descriptions
const (
	newMessageExcerpt = 100
	eventExcerpt      = 80
)

const attachmentPreview = "sent an attachment"

// NotificationEventHandler turns message and announcement events into notifications
type NotificationEventHandler struct {
	messageRepo      repositories.IMessageRepository
	announcementRepo repositories.IAnnouncementRepository
	participantRepo  repositories.IParticipantRepository
	identity         IdentityService
	notifications    NotificationService
	logger           zerolog.Logger
}

// NewNotificationEventHandler creates the handler run by the notification dispatcher
func NewNotificationEventHandler(
	messageRepo repositories.IMessageRepository,
	announcementRepo repositories.IAnnouncementRepository,
	participantRepo repositories.IParticipantRepository,
	identity IdentityService,
	notifications NotificationService,
	logger zerolog.Logger,
) *NotificationEventHandler {
	return &NotificationEventHandler{
		messageRepo:      messageRepo,
		announcementRepo: announcementRepo,
		participantRepo:  participantRepo,
		identity:         identity,
		notifications:    notifications,
		logger:           logger,
	}
}

// Handle implements notifier.Handler
func (h *NotificationEventHandler) Handle(ctx context.Context, event notifier.Event) error {
	var (
		inputs []EmitInput
		err    error
	)
	switch event.Kind {
	case notifier.KindMessageSent:
		inputs, err = h.messageSent(ctx, event)
	case notifier.KindMessageEdited:
		inputs, err = h.messageEdited(ctx, event)
	case notifier.KindMessageDeleted:
		inputs, err = h.messageDeleted(ctx, event)
	case notifier.KindMessageReacted:
		inputs, err = h.messageReacted(ctx, event)
	case notifier.KindAnnouncementCreated:
		inputs, err = h.announcementCreated(ctx, event)
	default:
		return fmt.Errorf("unknown notification event %q", event.Kind)
	}
	if err != nil {
		return err
	}
	if len(inputs) == 0 {
		return nil
	}
	// a redelivered event maps onto the rows its earlier attempt wrote
	if event.ID != "" {
		for i := range inputs {
			inputs[i].DedupKey = strings.Join([]string{event.ID, inputs[i].RecipientKey, inputs[i].RelatedID, inputs[i].Title}, "|")
		}
	}

	_, err = h.notifications.EmitBatch(ctx, inputs)
	return err
}

func preview(text string, limit int) string {
	if text == "" {
		return attachmentPreview
	}
	return models.Excerpt(text, limit)
}

func (h *NotificationEventHandler) messageSent(ctx context.Context, event notifier.Event) ([]EmitInput, error) {
	message, err := h.messageRepo.GetByID(ctx, event.MessageID)
	if err != nil {
		return nil, err
	}
	sender, err := h.identity.Resolve(ctx, message.SenderID)
	if err != nil {
		return nil, err
	}
	receiver, err := h.identity.Resolve(ctx, message.ReceiverID)
	if err != nil {
		return nil, err
	}

	var inputs []EmitInput
	if sender.Key != receiver.Key {
		name := message.SenderName
		if name == "" {
			name = sender.DisplayName("Someone")
		}
		inputs = append(inputs, EmitInput{
			RecipientKey: receiver.Key,
			Title:        "New Message",
			Description:  fmt.Sprintf("%s: %s", name, preview(message.Text, newMessageExcerpt)),
			Type:         models.NotificationMessage,
			RelatedID:    message.ID,
			BadgeColor:   models.BadgeNewMessage,
		})
	}

	if message.RepliedTo == nil {
		return inputs, nil
	}
	original, err := h.messageRepo.GetByID(ctx, *message.RepliedTo)
	if errors.Is(err, apperrors.ErrMessageNotFound) {
		h.logger.Warn().
			Str("messageID", message.ID).
			Str("repliedTo", *message.RepliedTo).
			Msg("Replied-to message not found, skipping reply notification")
		return inputs, nil
	}
	if err != nil {
		return nil, err
	}
	originalSender, err := h.identity.Resolve(ctx, original.SenderID)
	if err != nil {
		return nil, err
	}
	if originalSender.Key == sender.Key {
		return inputs, nil
	}

	return append(inputs, EmitInput{
		RecipientKey: originalSender.Key,
		Title:        "Message Replied",
		Description: fmt.Sprintf("%s replied to your message: %s",
			sender.DisplayName(message.SenderName), preview(message.Text, eventExcerpt)),
		Type:       models.NotificationMessage,
		RelatedID:  message.ID,
		BadgeColor: models.BadgeReply,
	}), nil
}

func (h *NotificationEventHandler) messageEdited(ctx context.Context, event notifier.Event) ([]EmitInput, error) {
	message, err := h.messageRepo.GetByID(ctx, event.MessageID)
	if err != nil {
		return nil, err
	}
	sender, err := h.identity.Resolve(ctx, message.SenderID)
	if err != nil {
		return nil, err
	}
	receiver, err := h.identity.Resolve(ctx, message.ReceiverID)
	if err != nil {
		return nil, err
	}
	if sender.Key == receiver.Key {
		return nil, nil
	}

	text := event.Text
	if text == "" {
		text = message.Text
	}
	return []EmitInput{{
		RecipientKey: receiver.Key,
		Title:        "Message Edited",
		Description: fmt.Sprintf("%s edited their message: %s",
			sender.DisplayName("Someone"), preview(text, eventExcerpt)),
		Type:       models.NotificationMessage,
		RelatedID:  message.ID,
		BadgeColor: models.BadgeEdited,
	}}, nil
}

func (h *NotificationEventHandler) messageDeleted(ctx context.Context, event notifier.Event) ([]EmitInput, error) {
	message, err := h.messageRepo.GetByID(ctx, event.MessageID)
	if err != nil {
		return nil, err
	}
	sender, err := h.identity.Resolve(ctx, message.SenderID)
	if err != nil {
		return nil, err
	}
	deleter, err := h.identity.Resolve(ctx, event.ActorRef)
	if err != nil {
		return nil, err
	}
	if deleter.Key == sender.Key {
		return nil, nil
	}

	name := event.ActorName
	if name == "" {
		name = "Someone"
	}
	return []EmitInput{{
		RecipientKey: sender.Key,
		Title:        "Message Deleted",
		Description:  fmt.Sprintf("%s deleted your message: %s", name, preview(message.Text, eventExcerpt)),
		Type:         models.NotificationMessage,
		RelatedID:    message.ID,
		BadgeColor:   models.BadgeDeleted,
	}}, nil
}

func (h *NotificationEventHandler) messageReacted(ctx context.Context, event notifier.Event) ([]EmitInput, error) {
	message, err := h.messageRepo.GetByID(ctx, event.MessageID)
	if err != nil {
		return nil, err
	}
	sender, err := h.identity.Resolve(ctx, message.SenderID)
	if err != nil {
		return nil, err
	}
	reactor, err := h.identity.Resolve(ctx, event.ActorRef)
	if err != nil {
		return nil, err
	}
	if reactor.Key == sender.Key {
		return nil, nil
	}

	return []EmitInput{{
		RecipientKey: sender.Key,
		Title:        "Message Reacted",
		Description: fmt.Sprintf("%s reacted %s to your message: %s",
			reactor.DisplayName("Someone"), event.Emoji, preview(message.Text, eventExcerpt)),
		Type:       models.NotificationMessage,
		RelatedID:  message.ID,
		BadgeColor: models.BadgeReacted,
	}}, nil
}

func (h *NotificationEventHandler) announcementCreated(ctx context.Context, event notifier.Event) ([]EmitInput, error) {
	recipients, err := h.participantRepo.ListNonAdminIDs(ctx)
	if err != nil {
		return nil, err
	}
	if len(recipients) == 0 {
		return nil, nil
	}

	var inputs []EmitInput
	for _, id := range event.AnnouncementIDs {
		announcement, err := h.announcementRepo.GetByID(ctx, id)
		if errors.Is(err, apperrors.ErrAnnouncementNotFound) {
			h.logger.Warn().Str("announcementID", id).Msg("Announcement removed before fan-out")
			continue
		}
		if err != nil {
			return nil, err
		}

		description, badge := announcement.Title, models.BadgeAnnouncement
		if announcement.IsImportant {
			description, badge = "🔔 Important: "+announcement.Title, models.BadgeImportant
		}
		for _, recipient := range recipients {
			inputs = append(inputs, EmitInput{
				RecipientKey: recipient,
				Title:        "New Announcement",
				Description:  description,
				Type:         models.NotificationAnnouncement,
				RelatedID:    announcement.ID,
				BadgeColor:   badge,
			})
		}
	}

	h.logger.Info().
		Int("announcements", len(event.AnnouncementIDs)).
		Int("recipients", len(recipients)).
		Msg("Fanning out announcement notifications")
	return inputs, nil
}

var _ notifier.Handler = (*NotificationEventHandler)(nil)
