package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/yigit/handbook/internal/app/models"
	"github.com/yigit/handbook/internal/app/models/dto"
	"github.com/yigit/handbook/internal/app/repositories"
	"github.com/yigit/handbook/internal/pkg/apperrors"
	"github.com/yigit/handbook/internal/pkg/metrics"
)

// emitBatchSize caps the rows of one multi-row insert
const emitBatchSize = 1000

// notificationNamespace seeds the ids derived from EmitInput.DedupKey
var notificationNamespace = uuid.MustParse("6f1c2b9e-4d4a-5e0b-9b8e-3c1a7d2f5e60")

// EmitInput describes one notification to append
type EmitInput struct {
	RecipientKey string
	Title        string
	Description  string
	Type         models.NotificationType
	RelatedID    string
	BadgeColor   string

	// DedupKey, when set, fixes the notification id so emitting the same
	// input again writes nothing
	DedupKey string
}

// NotificationService manages the per-recipient notification feed
type NotificationService interface {
	Emit(ctx context.Context, input EmitInput) (*models.Notification, error)
	EmitBatch(ctx context.Context, inputs []EmitInput) (int, error)
	List(ctx context.Context, recipientRef string) (*dto.NotificationListResponse, error)
	MarkRead(ctx context.Context, recipientRef string, ids []string, markAll bool) (int64, error)
	MarkRelatedRead(ctx context.Context, recipientRef string, relatedIDs []string) (int64, error)
	DeleteAll(ctx context.Context, recipientRef string) (int64, error)
	PurgeRead(ctx context.Context, cutoff time.Time) (int64, error)
}

type notificationServiceImpl struct {
	notificationRepo repositories.INotificationRepository
	identity         IdentityService
	logger           zerolog.Logger
	now              func() time.Time
}

// NewNotificationService creates a new NotificationService
func NewNotificationService(
	notificationRepo repositories.INotificationRepository,
	identity IdentityService,
	logger zerolog.Logger,
) NotificationService {
	return &notificationServiceImpl{
		notificationRepo: notificationRepo,
		identity:         identity,
		logger:           logger,
		now:              time.Now,
	}
}

func (s *notificationServiceImpl) build(input EmitInput, at time.Time) *models.Notification {
	id := uuid.NewString()
	if input.DedupKey != "" {
		id = uuid.NewSHA1(notificationNamespace, []byte(input.DedupKey)).String()
	}
	n := &models.Notification{
		ID:          id,
		UserID:      input.RecipientKey,
		Title:       input.Title,
		Description: input.Description,
		Type:        models.ParseNotificationType(string(input.Type)),
		CreatedAt:   at,
	}
	if input.RelatedID != "" {
		related := input.RelatedID
		n.RelatedID = &related
	}
	if input.BadgeColor != "" {
		badge := input.BadgeColor
		n.BadgeColor = &badge
	}
	return n
}

// Emit appends one unread notification
func (s *notificationServiceImpl) Emit(ctx context.Context, input EmitInput) (*models.Notification, error) {
	if strings.TrimSpace(input.RecipientKey) == "" {
		return nil, apperrors.NewValidationError("userId", "Notification recipient is required")
	}

	n := s.build(input, s.now())
	if err := s.notificationRepo.Create(ctx, n); err != nil {
		return nil, err
	}
	metrics.NotificationsEmitted.WithLabelValues(string(n.Type)).Inc()
	return n, nil
}

// EmitBatch appends many notifications, chunked into multi-row inserts.
// It returns how many rows were written before any failure; inputs whose
// DedupKey was already stored are not counted.
func (s *notificationServiceImpl) EmitBatch(ctx context.Context, inputs []EmitInput) (int, error) {
	at := s.now()
	batch := make([]*models.Notification, 0, min(len(inputs), emitBatchSize))
	written := 0

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		ids, err := s.notificationRepo.CreateBatch(ctx, batch)
		if err != nil {
			return err
		}
		inserted := make(map[string]struct{}, len(ids))
		for _, id := range ids {
			inserted[id] = struct{}{}
		}
		for _, n := range batch {
			if _, ok := inserted[n.ID]; ok {
				metrics.NotificationsEmitted.WithLabelValues(string(n.Type)).Inc()
			}
		}
		written += len(ids)
		batch = batch[:0]
		return nil
	}

	seen := make(map[string]struct{}, len(inputs))
	for _, input := range inputs {
		if strings.TrimSpace(input.RecipientKey) == "" {
			continue
		}
		n := s.build(input, at)
		if _, dup := seen[n.ID]; dup {
			continue
		}
		seen[n.ID] = struct{}{}
		batch = append(batch, n)
		if len(batch) == emitBatchSize {
			if err := flush(); err != nil {
				return written, err
			}
		}
	}
	if err := flush(); err != nil {
		return written, err
	}

	s.logger.Debug().Int("count", written).Msg("Notifications emitted")
	return written, nil
}

func (s *notificationServiceImpl) recipientAliases(ctx context.Context, recipientRef string) ([]string, error) {
	if strings.TrimSpace(recipientRef) == "" {
		return nil, apperrors.NewValidationError("userId", "userId is required")
	}
	return s.identity.Aliases(ctx, recipientRef)
}

// List returns the recipient's feed, newest first
func (s *notificationServiceImpl) List(ctx context.Context, recipientRef string) (*dto.NotificationListResponse, error) {
	aliases, err := s.recipientAliases(ctx, recipientRef)
	if err != nil {
		return nil, err
	}

	items, err := s.notificationRepo.ListByRecipients(ctx, aliases)
	if err != nil {
		s.logger.Error().Err(err).Str("userID", recipientRef).Msg("Failed to list notifications")
		return nil, err
	}

	resp := dto.NewNotificationListResponse(items)
	return &resp, nil
}

// MarkRead flips either the listed ids or every unread notification of the recipient
func (s *notificationServiceImpl) MarkRead(ctx context.Context, recipientRef string, ids []string, markAll bool) (int64, error) {
	ids = uniqueNonEmpty(ids...)
	if !markAll && len(ids) == 0 {
		return 0, apperrors.NewValidationError("ids", "Either ids or markAll is required")
	}

	aliases, err := s.recipientAliases(ctx, recipientRef)
	if err != nil {
		return 0, err
	}
	if markAll {
		ids = nil
	}
	return s.notificationRepo.MarkRead(ctx, aliases, ids, s.now())
}

// MarkRelatedRead flips the recipient's message notifications tied to the given message ids
func (s *notificationServiceImpl) MarkRelatedRead(ctx context.Context, recipientRef string, relatedIDs []string) (int64, error) {
	if len(relatedIDs) == 0 {
		return 0, nil
	}
	aliases, err := s.recipientAliases(ctx, recipientRef)
	if err != nil {
		return 0, err
	}
	return s.notificationRepo.MarkReadByRelated(ctx, aliases, models.NotificationMessage, relatedIDs, s.now())
}

// DeleteAll purges every notification owned by the recipient
func (s *notificationServiceImpl) DeleteAll(ctx context.Context, recipientRef string) (int64, error) {
	aliases, err := s.recipientAliases(ctx, recipientRef)
	if err != nil {
		return 0, err
	}
	deleted, err := s.notificationRepo.DeleteByRecipients(ctx, aliases)
	if err != nil {
		return 0, err
	}
	s.logger.Info().Str("userID", recipientRef).Int64("deleted", deleted).Msg("Notifications cleared")
	return deleted, nil
}

// PurgeRead deletes read notifications created before cutoff
func (s *notificationServiceImpl) PurgeRead(ctx context.Context, cutoff time.Time) (int64, error) {
	purged, err := s.notificationRepo.DeleteReadBefore(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	metrics.RetentionPurged.Add(float64(purged))
	return purged, nil
}
