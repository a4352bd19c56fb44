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
)

// Announcement defaults
const (
	DefaultAnnouncementLimit   = 100
	DefaultAnnouncementCreator = "admin"
	DefaultAnnouncementName    = "Administrator"
)

// AnnouncementService manages school announcements
type AnnouncementService interface {
	List(ctx context.Context, query *dto.AnnouncementListQuery) ([]dto.AnnouncementResponse, error)
	Create(ctx context.Context, req *dto.CreateAnnouncementsRequest) ([]dto.AnnouncementResponse, error)
	Update(ctx context.Context, id string, req *dto.UpdateAnnouncementRequest) (*dto.AnnouncementResponse, error)
	Delete(ctx context.Context, id string) error
}

type announcementServiceImpl struct {
	announcementRepo repositories.IAnnouncementRepository
	dispatcher       notifier.Dispatcher
	logger           zerolog.Logger
	now              func() time.Time
}

// NewAnnouncementService creates a new AnnouncementService
func NewAnnouncementService(
	announcementRepo repositories.IAnnouncementRepository,
	dispatcher notifier.Dispatcher,
	logger zerolog.Logger,
) AnnouncementService {
	return &announcementServiceImpl{
		announcementRepo: announcementRepo,
		dispatcher:       dispatcher,
		logger:           logger,
		now:              time.Now,
	}
}

// List returns announcements ordered by creation time
func (s *announcementServiceImpl) List(ctx context.Context, query *dto.AnnouncementListQuery) ([]dto.AnnouncementResponse, error) {
	limit := DefaultAnnouncementLimit
	ascending := false
	if query != nil {
		if query.Limit > 0 {
			limit = query.Limit
		}
		ascending = strings.EqualFold(query.Sort, "asc")
	}

	items, err := s.announcementRepo.List(ctx, uint64(limit), ascending)
	if err != nil {
		return nil, err
	}
	return dto.NewAnnouncementListResponse(items), nil
}

// Create stores every announcement with a title and content, then fans out notifications
func (s *announcementServiceImpl) Create(ctx context.Context, req *dto.CreateAnnouncementsRequest) ([]dto.AnnouncementResponse, error) {
	createdBy := strings.TrimSpace(req.CreatedBy)
	if createdBy == "" {
		createdBy = DefaultAnnouncementCreator
	}
	createdByName := strings.TrimSpace(req.CreatedByName)
	if createdByName == "" {
		createdByName = DefaultAnnouncementName
	}

	now := s.now()
	items := make([]*models.Announcement, 0, len(req.Announcements))
	for _, in := range req.Announcements {
		title, content := strings.TrimSpace(in.Title), strings.TrimSpace(in.Content)
		if title == "" || content == "" {
			continue
		}
		items = append(items, &models.Announcement{
			ID:            uuid.NewString(),
			Title:         title,
			Content:       content,
			CreatedBy:     createdBy,
			CreatedByName: createdByName,
			IsImportant:   in.IsImportant,
			CreatedAt:     now,
		})
	}
	if len(items) == 0 {
		return nil, apperrors.NewValidationError("announcements", "No valid announcements provided")
	}

	if err := s.announcementRepo.CreateBatch(ctx, items); err != nil {
		s.logger.Error().Err(err).Int("count", len(items)).Msg("Failed to create announcements")
		return nil, err
	}

	ids := make([]string, 0, len(items))
	for _, a := range items {
		ids = append(ids, a.ID)
	}
	s.dispatcher.Dispatch(ctx, notifier.Event{
		Kind:            notifier.KindAnnouncementCreated,
		ActorRef:        createdBy,
		ActorName:       createdByName,
		AnnouncementIDs: ids,
	})

	s.logger.Info().Int("count", len(items)).Msg("Announcements created")
	return dto.NewAnnouncementListResponse(items), nil
}

// Update replaces the editable fields of an announcement
func (s *announcementServiceImpl) Update(ctx context.Context, id string, req *dto.UpdateAnnouncementRequest) (*dto.AnnouncementResponse, error) {
	title, content := strings.TrimSpace(req.Title), strings.TrimSpace(req.Content)
	if title == "" || content == "" {
		return nil, apperrors.NewValidationError("title", "Title and content are required")
	}

	announcement, err := s.announcementRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	now := s.now()
	announcement.Title = title
	announcement.Content = content
	announcement.IsImportant = req.IsImportant
	announcement.UpdatedAt = &now

	if err := s.announcementRepo.Update(ctx, announcement); err != nil {
		return nil, err
	}

	resp := dto.NewAnnouncementResponse(announcement)
	return &resp, nil
}

// Delete removes an announcement
func (s *announcementServiceImpl) Delete(ctx context.Context, id string) error {
	if err := s.announcementRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info().Str("announcementID", id).Msg("Announcement deleted")
	return nil
}
