package services

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	"github.com/yigit/handbook/internal/app/models"
	"github.com/yigit/handbook/internal/app/models/dto"
	"github.com/yigit/handbook/internal/app/repositories"
	"github.com/yigit/handbook/internal/pkg/apperrors"
)

// ConversationService renders a conversation thread for the chat screen
type ConversationService interface {
	GetThread(ctx context.Context, query *dto.ConversationQuery) ([]dto.MessageResponse, error)
}

type conversationServiceImpl struct {
	messages        MessageService
	identity        IdentityService
	participantRepo repositories.IParticipantRepository
	logger          zerolog.Logger
}

// NewConversationService creates a new ConversationService
func NewConversationService(
	messages MessageService,
	identity IdentityService,
	participantRepo repositories.IParticipantRepository,
	logger zerolog.Logger,
) ConversationService {
	return &conversationServiceImpl{
		messages:        messages,
		identity:        identity,
		participantRepo: participantRepo,
		logger:          logger,
	}
}

// GetThread lists the conversation with sender pictures attached and deleted messages redacted
func (s *conversationServiceImpl) GetThread(ctx context.Context, query *dto.ConversationQuery) ([]dto.MessageResponse, error) {
	perspective, err := parsePerspective(query.Perspective, models.PerspectiveUser)
	if err != nil {
		return nil, err
	}

	thread, err := s.messages.ListConversation(ctx, query.UserID, query.AdminID, perspective)
	if err != nil {
		return nil, err
	}

	pictures := newPictureLookup(ctx, s)
	out := make([]dto.MessageResponse, 0, len(thread))
	for _, t := range thread {
		resp := dto.NewMessageResponse(t.Message, t.IsOutgoing, true)
		if t.FromAdmin {
			resp.SenderProfilePicture = pictures.admin()
		} else {
			resp.SenderProfilePicture = pictures.user(t.Message.SenderID)
		}
		out = append(out, resp)
	}
	return out, nil
}

// pictureLookup memoizes profile pictures for the duration of one thread render
type pictureLookup struct {
	svc        *conversationServiceImpl
	ctx        context.Context
	users      map[string]*string
	adminDone  bool
	adminValue *string
}

func newPictureLookup(ctx context.Context, svc *conversationServiceImpl) *pictureLookup {
	return &pictureLookup{svc: svc, ctx: ctx, users: make(map[string]*string)}
}

func (p *pictureLookup) admin() *string {
	if p.adminDone {
		return p.adminValue
	}
	p.adminDone = true

	admin, err := p.svc.identity.CanonicalAdmin(p.ctx)
	if err != nil {
		p.svc.logger.Warn().Err(err).Msg("Failed to load admin profile picture")
		return nil
	}
	if admin != nil {
		p.adminValue = admin.ProfilePicture
	}
	return p.adminValue
}

func (p *pictureLookup) user(id string) *string {
	if picture, ok := p.users[id]; ok {
		return picture
	}

	var picture *string
	user, err := p.svc.participantRepo.FindByID(p.ctx, id)
	switch {
	case err == nil:
		picture = user.ProfilePicture
	case errors.Is(err, apperrors.ErrUserNotFound):
	default:
		p.svc.logger.Warn().Err(err).Str("senderID", id).Msg("Failed to load sender profile picture")
	}
	p.users[id] = picture
	return picture
}
