package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/yigit/handbook/internal/app/models"
	"github.com/yigit/handbook/internal/app/models/dto"
	"github.com/yigit/handbook/internal/app/notifier"
	"github.com/yigit/handbook/internal/app/repositories"
	"github.com/yigit/handbook/internal/pkg/apperrors"
	"github.com/yigit/handbook/internal/pkg/metrics"
)

// ThreadMessage is a stored message framed for one viewer
type ThreadMessage struct {
	Message    *models.Message
	IsOutgoing bool
	FromAdmin  bool
}

// MessageService defines the interface for chat message operations
type MessageService interface {
	Send(ctx context.Context, req *dto.SendMessageRequest) (*dto.MessageResponse, error)
	Edit(ctx context.Context, messageID string, req *dto.EditMessageRequest) (*dto.EditedMessageResponse, error)
	SoftDelete(ctx context.Context, messageID string, req *dto.DeleteMessageRequest) error
	React(ctx context.Context, messageID string, req *dto.ReactRequest) (*dto.ReactionsResponse, error)
	MarkRead(ctx context.Context, req *dto.MarkReadRequest) (int64, error)
	ListConversation(ctx context.Context, userRef, adminRef string, perspective models.Perspective) ([]ThreadMessage, error)
	UnreadCounts(ctx context.Context, adminRef string) (map[string]int64, error)
	LatestTimestamps(ctx context.Context, adminRef string) (map[string]string, error)
}

// messageServiceImpl implements MessageService
type messageServiceImpl struct {
	messageRepo   repositories.IMessageRepository
	identity      IdentityService
	notifications NotificationService
	dispatcher    notifier.Dispatcher
	logger        zerolog.Logger
	now           func() time.Time
}

// NewMessageService creates a new MessageService
func NewMessageService(
	messageRepo repositories.IMessageRepository,
	identity IdentityService,
	notifications NotificationService,
	dispatcher notifier.Dispatcher,
	logger zerolog.Logger,
) MessageService {
	return &messageServiceImpl{
		messageRepo:   messageRepo,
		identity:      identity,
		notifications: notifications,
		dispatcher:    dispatcher,
		logger:        logger,
		now:           time.Now,
	}
}

func parsePerspective(raw string, fallback models.Perspective) (models.Perspective, error) {
	if raw == "" {
		return fallback, nil
	}
	p := models.Perspective(strings.ToLower(strings.TrimSpace(raw)))
	if !p.Valid() {
		return "", apperrors.NewValidationError("perspective", "perspective must be 'user' or 'admin'")
	}
	return p, nil
}

func isOutgoing(fromAdmin bool, perspective models.Perspective) bool {
	if perspective == models.PerspectiveUser {
		return !fromAdmin
	}
	return fromAdmin
}

// Send validates the conversation topology and stores a new message
func (s *messageServiceImpl) Send(ctx context.Context, req *dto.SendMessageRequest) (*dto.MessageResponse, error) {
	senderRef := strings.TrimSpace(req.SenderID)
	receiverRef := strings.TrimSpace(req.ReceiverID)
	if senderRef == "" {
		return nil, apperrors.NewValidationError("senderId", "senderId is required")
	}
	if receiverRef == "" {
		return nil, apperrors.NewValidationError("receiverId", "receiverId is required")
	}

	text := strings.TrimSpace(req.Text)
	if text == "" && len(req.Attachments) == 0 {
		return nil, apperrors.ErrEmptyMessage
	}

	perspective, err := parsePerspective(req.Perspective, models.PerspectiveAdmin)
	if err != nil {
		return nil, err
	}

	sender, err := s.identity.Resolve(ctx, senderRef)
	if err != nil {
		return nil, err
	}
	if !sender.Resolved() {
		return nil, apperrors.ErrInvalidSender
	}
	receiver, err := s.identity.Resolve(ctx, receiverRef)
	if err != nil {
		return nil, err
	}
	if !receiver.Resolved() {
		return nil, apperrors.ErrInvalidReceiver
	}
	// exactly one side of a conversation is the admin
	if sender.IsAdmin == receiver.IsAdmin {
		s.logger.Warn().
			Str("senderID", senderRef).
			Str("receiverID", receiverRef).
			Msg("Rejected message outside a student/admin conversation")
		return nil, apperrors.ErrForbiddenConversation
	}

	message := &models.Message{
		ID:             uuid.NewString(),
		SenderID:       sender.Key,
		ReceiverID:     receiver.Key,
		SenderName:     senderName(req.SenderName, sender),
		SenderInitials: senderInitials(req.SenderInitials, sender),
		Text:           text,
		CreatedAt:      s.now(),
		Reactions:      []models.Reaction{},
		Attachments:    make([]models.Attachment, 0, len(req.Attachments)),
	}
	if req.RepliedTo != nil && strings.TrimSpace(*req.RepliedTo) != "" {
		repliedTo := strings.TrimSpace(*req.RepliedTo)
		message.RepliedTo = &repliedTo
	}
	for _, a := range req.Attachments {
		message.Attachments = append(message.Attachments, models.Attachment{
			FileName: a.FileName,
			FileType: a.FileType,
			FileSize: a.FileSize,
			FileData: a.FileData,
			MimeType: a.MimeType,
		}.Normalize())
	}

	if err := s.messageRepo.Create(ctx, message); err != nil {
		s.logger.Error().Err(err).Str("senderID", sender.Key).Msg("Failed to store message")
		return nil, err
	}
	metrics.MessagesWritten.WithLabelValues("send").Inc()

	s.dispatcher.Dispatch(ctx, notifier.Event{
		Kind:      notifier.KindMessageSent,
		MessageID: message.ID,
		ActorRef:  sender.Key,
		ActorName: message.SenderName,
	})

	s.logger.Info().
		Str("messageID", message.ID).
		Str("senderID", message.SenderID).
		Str("receiverID", message.ReceiverID).
		Msg("Message sent")

	resp := dto.NewMessageResponse(message, isOutgoing(sender.IsAdmin, perspective), false)
	if sender.Participant != nil {
		resp.SenderProfilePicture = sender.Participant.ProfilePicture
	}
	return &resp, nil
}

func senderName(supplied string, sender Identity) string {
	if name := strings.TrimSpace(supplied); name != "" {
		return name
	}
	if name := sender.Participant.FullName(); name != "" {
		return name
	}
	return "Unknown"
}

func senderInitials(supplied string, sender Identity) string {
	if initials := strings.TrimSpace(supplied); initials != "" {
		return initials
	}
	if initials := sender.Participant.Initials(); initials != "" {
		return strings.ToUpper(initials)
	}
	return "U"
}

// Edit replaces the text of a message
func (s *messageServiceImpl) Edit(ctx context.Context, messageID string, req *dto.EditMessageRequest) (*dto.EditedMessageResponse, error) {
	text := strings.TrimSpace(req.Text)
	if text == "" {
		return nil, apperrors.ErrEmptyMessage
	}

	message, err := s.messageRepo.GetByID(ctx, messageID)
	if err != nil {
		return nil, err
	}

	if editor := strings.TrimSpace(req.EditorID); editor != "" {
		same, err := s.identity.Same(ctx, editor, message.SenderID)
		if err != nil {
			return nil, err
		}
		if !same {
			return nil, apperrors.NewForbiddenError("Only the sender can edit this message")
		}
	}
	if message.Deleted {
		return nil, apperrors.NewBadRequestError("Deleted messages cannot be edited")
	}

	if err := s.messageRepo.UpdateText(ctx, messageID, text, s.now()); err != nil {
		s.logger.Error().Err(err).Str("messageID", messageID).Msg("Failed to edit message")
		return nil, err
	}
	metrics.MessagesWritten.WithLabelValues("edit").Inc()

	s.dispatcher.Dispatch(ctx, notifier.Event{
		Kind:      notifier.KindMessageEdited,
		MessageID: messageID,
		ActorRef:  message.SenderID,
		Text:      text,
	})

	return &dto.EditedMessageResponse{ID: messageID, Text: text}, nil
}

// SoftDelete marks a message deleted and keeps its content in storage
func (s *messageServiceImpl) SoftDelete(ctx context.Context, messageID string, req *dto.DeleteMessageRequest) error {
	deleterRef := strings.TrimSpace(req.DeletedBy)
	if deleterRef == "" {
		return apperrors.NewValidationError("deletedBy", "deletedBy is required")
	}

	message, err := s.messageRepo.GetByID(ctx, messageID)
	if err != nil {
		return err
	}
	if message.Deleted {
		return nil
	}

	deleter, err := s.identity.Resolve(ctx, deleterRef)
	if err != nil {
		return err
	}
	name := strings.TrimSpace(req.DeletedByName)
	storedName := name
	if storedName == "" {
		storedName = "Unknown"
	}

	if err := s.messageRepo.SoftDelete(ctx, messageID, deleter.Key, storedName, s.now()); err != nil {
		s.logger.Error().Err(err).Str("messageID", messageID).Msg("Failed to delete message")
		return err
	}
	metrics.MessagesWritten.WithLabelValues("delete").Inc()

	s.dispatcher.Dispatch(ctx, notifier.Event{
		Kind:      notifier.KindMessageDeleted,
		MessageID: messageID,
		ActorRef:  deleter.Key,
		ActorName: name,
	})
	return nil
}

// React toggles the participant's reaction and returns the full reaction list
func (s *messageServiceImpl) React(ctx context.Context, messageID string, req *dto.ReactRequest) (*dto.ReactionsResponse, error) {
	if strings.TrimSpace(messageID) == "" {
		return nil, apperrors.NewValidationError("messageId", "messageId is required")
	}
	reactorRef := strings.TrimSpace(req.UserID)
	if reactorRef == "" {
		return nil, apperrors.NewValidationError("userId", "userId is required")
	}
	emoji := strings.TrimSpace(req.Emoji)
	if emoji == "" {
		return nil, apperrors.NewValidationError("emoji", "emoji is required")
	}

	reactor, err := s.identity.Resolve(ctx, reactorRef)
	if err != nil {
		return nil, err
	}

	reactions, added, err := s.messageRepo.ToggleReaction(ctx, messageID, reactor.Key, emoji)
	if err != nil {
		return nil, err
	}
	metrics.MessagesWritten.WithLabelValues("react").Inc()

	if added {
		s.dispatcher.Dispatch(ctx, notifier.Event{
			Kind:      notifier.KindMessageReacted,
			MessageID: messageID,
			ActorRef:  reactor.Key,
			Emoji:     emoji,
		})
	}

	if reactions == nil {
		reactions = []models.Reaction{}
	}
	return &dto.ReactionsResponse{Reactions: reactions}, nil
}

// adminSide returns the aliases of the admin side of a conversation
func (s *messageServiceImpl) adminSide(ctx context.Context, adminRef string) ([]string, error) {
	adminRef = strings.TrimSpace(adminRef)
	aliases, err := s.identity.AdminAliases(ctx)
	if err != nil {
		return nil, err
	}
	if adminRef == "" || isSentinel(adminRef) {
		return aliases, nil
	}

	admin, err := s.identity.Resolve(ctx, adminRef)
	if err != nil {
		return nil, err
	}
	if !admin.IsAdmin {
		return nil, apperrors.NewValidationError("adminId", "adminId must reference the admin")
	}
	return uniqueNonEmpty(append(aliases, adminRef)...), nil
}

// userSide returns the aliases of the student side of a conversation
func (s *messageServiceImpl) userSide(ctx context.Context, userRef string) ([]string, error) {
	userRef = strings.TrimSpace(userRef)
	if userRef == "" {
		return nil, apperrors.NewValidationError("userId", "userId is required")
	}
	user, err := s.identity.Resolve(ctx, userRef)
	if err != nil {
		return nil, err
	}
	if user.IsAdmin {
		return nil, apperrors.NewValidationError("userId", "userId must reference a student")
	}
	return s.identity.Aliases(ctx, userRef)
}

// MarkRead flips the caller's inbound unread messages of one conversation
// and the message notifications tied to them
func (s *messageServiceImpl) MarkRead(ctx context.Context, req *dto.MarkReadRequest) (int64, error) {
	perspective, err := parsePerspective(req.Perspective, models.PerspectiveAdmin)
	if err != nil {
		return 0, err
	}
	userAliases, err := s.userSide(ctx, req.UserID)
	if err != nil {
		return 0, err
	}
	adminAliases, err := s.adminSide(ctx, req.AdminID)
	if err != nil {
		return 0, err
	}

	senders, receivers := userAliases, adminAliases
	recipientRef := strings.TrimSpace(req.AdminID)
	if recipientRef == "" {
		recipientRef = models.AdminSentinel
	}
	if perspective == models.PerspectiveUser {
		senders, receivers = adminAliases, userAliases
		recipientRef = strings.TrimSpace(req.UserID)
	}

	ids, err := s.messageRepo.MarkRead(ctx, senders, receivers)
	if err != nil {
		s.logger.Error().Err(err).Str("userID", req.UserID).Msg("Failed to mark messages read")
		return 0, err
	}
	if len(ids) > 0 {
		metrics.MessagesWritten.WithLabelValues("read").Add(float64(len(ids)))
	}

	// notifications can land after their message was read, so every inbound
	// message of the conversation is covered, not only the ones flipped now
	s.markNotificationsRead(ctx, recipientRef, senders, receivers)
	return int64(len(ids)), nil
}

func (s *messageServiceImpl) markNotificationsRead(ctx context.Context, recipientRef string, senders, receivers []string) {
	inbound, err := s.messageRepo.InboundIDs(ctx, senders, receivers)
	if err != nil {
		s.logger.Warn().Err(err).Str("recipientID", recipientRef).Msg("Failed to list conversation messages")
		return
	}
	if _, err := s.notifications.MarkRelatedRead(ctx, recipientRef, inbound); err != nil {
		s.logger.Warn().Err(err).
			Str("recipientID", recipientRef).
			Int("messages", len(inbound)).
			Msg("Failed to mark message notifications read")
	}
}

// ListConversation returns every message between the student and the admin, oldest first
func (s *messageServiceImpl) ListConversation(ctx context.Context, userRef, adminRef string, perspective models.Perspective) ([]ThreadMessage, error) {
	if !perspective.Valid() {
		return nil, apperrors.NewValidationError("perspective", "perspective must be 'user' or 'admin'")
	}
	userAliases, err := s.userSide(ctx, userRef)
	if err != nil {
		return nil, err
	}
	adminAliases, err := s.adminSide(ctx, adminRef)
	if err != nil {
		return nil, err
	}

	messages, err := s.messageRepo.ListConversation(ctx, userAliases, adminAliases)
	if err != nil {
		return nil, err
	}

	admins := make(map[string]struct{}, len(adminAliases))
	for _, a := range adminAliases {
		admins[a] = struct{}{}
	}

	thread := make([]ThreadMessage, 0, len(messages))
	for _, m := range messages {
		_, fromAdmin := admins[m.SenderID]
		thread = append(thread, ThreadMessage{
			Message:    m,
			IsOutgoing: isOutgoing(fromAdmin, perspective),
			FromAdmin:  fromAdmin,
		})
	}
	return thread, nil
}

// UnreadCounts returns the admin inbox unread count per sender
func (s *messageServiceImpl) UnreadCounts(ctx context.Context, adminRef string) (map[string]int64, error) {
	adminAliases, err := s.adminSide(ctx, adminRef)
	if err != nil {
		return nil, err
	}
	counts, err := s.messageRepo.UnreadCounts(ctx, adminAliases)
	if err != nil {
		return nil, err
	}

	out := make(map[string]int64, len(counts))
	for _, c := range counts {
		out[c.SenderID] += c.Count
	}
	return out, nil
}

// LatestTimestamps returns the clock time of the newest message per counterpart of the admin
func (s *messageServiceImpl) LatestTimestamps(ctx context.Context, adminRef string) (map[string]string, error) {
	adminAliases, err := s.adminSide(ctx, adminRef)
	if err != nil {
		return nil, err
	}
	latest, err := s.messageRepo.LatestByCounterpart(ctx, adminAliases)
	if err != nil {
		return nil, err
	}

	out := make(map[string]string, len(latest))
	for _, l := range latest {
		out[l.CounterpartID] = l.CreatedAt.In(dto.DisplayLocation).Format(dto.ClockLayout)
	}
	return out, nil
}
