package services

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/yigit/handbook/internal/app/models/dto"
	"github.com/yigit/handbook/internal/app/repositories"
	"github.com/yigit/handbook/internal/pkg/apperrors"
)

// PresenceService tracks student activity for the chat sidebar
type PresenceService interface {
	Touch(ctx context.Context, userRef string) error
	ListChatUsers(ctx context.Context) ([]dto.ChatUserResponse, error)
}

type presenceServiceImpl struct {
	participantRepo repositories.IParticipantRepository
	logger          zerolog.Logger
	now             func() time.Time
}

// NewPresenceService creates a new PresenceService
func NewPresenceService(participantRepo repositories.IParticipantRepository, logger zerolog.Logger) PresenceService {
	return &presenceServiceImpl{
		participantRepo: participantRepo,
		logger:          logger,
		now:             time.Now,
	}
}

// Touch stamps the user as active now
func (s *presenceServiceImpl) Touch(ctx context.Context, userRef string) error {
	userRef = strings.TrimSpace(userRef)
	if userRef == "" {
		return apperrors.NewValidationError("userId", "userId is required")
	}

	updated, err := s.participantRepo.TouchLastActive(ctx, userRef, s.now())
	if err != nil {
		return err
	}
	if updated == 0 {
		return apperrors.ErrUserNotFound
	}
	return nil
}

// ListChatUsers lists every student ordered by first then last name
func (s *presenceServiceImpl) ListChatUsers(ctx context.Context) ([]dto.ChatUserResponse, error) {
	users, err := s.participantRepo.ListNonAdmins(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to list chat users")
		return nil, err
	}

	sort.SliceStable(users, func(i, j int) bool {
		a, b := strings.ToLower(users[i].FirstName), strings.ToLower(users[j].FirstName)
		if a != b {
			return a < b
		}
		return strings.ToLower(users[i].LastName) < strings.ToLower(users[j].LastName)
	})

	now := s.now()
	out := make([]dto.ChatUserResponse, 0, len(users))
	for _, u := range users {
		out = append(out, dto.NewChatUserResponse(u, now))
	}
	return out, nil
}
