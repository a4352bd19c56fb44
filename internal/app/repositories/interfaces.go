package repositories

import (
	"context"
	"time"

	"github.com/yigit/handbook/internal/app/models"
)

// IParticipantRepository reads students from users and the admin from admins or users.
// Lookups return apperrors.ErrUserNotFound when nothing matches.
type IParticipantRepository interface {
	FindCanonicalAdmin(ctx context.Context) (*models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByStudentNumber(ctx context.Context, studentNumber string) (*models.User, error)
	TouchLastActive(ctx context.Context, ref string, at time.Time) (int64, error)
	ListNonAdmins(ctx context.Context) ([]*models.User, error)
	ListNonAdminIDs(ctx context.Context) ([]string, error)
	CreateAdmin(ctx context.Context, admin *models.User) error
}

// UnreadCount is the number of unread messages one sender left in an inbox
type UnreadCount struct {
	SenderID          string
	Count             int64
	LatestMessageTime time.Time
}

// LatestMessage is the newest message time per conversation counterpart
type LatestMessage struct {
	CounterpartID string
	CreatedAt     time.Time
}

// IMessageRepository persists chat messages. Alias slices list every stored
// form of a participant so historical "admin" rows still match.
type IMessageRepository interface {
	Create(ctx context.Context, message *models.Message) error
	GetByID(ctx context.Context, id string) (*models.Message, error)
	UpdateText(ctx context.Context, id, text string, at time.Time) error
	SoftDelete(ctx context.Context, id, deletedBy, deletedByName string, at time.Time) error
	ToggleReaction(ctx context.Context, id, userID, emoji string) ([]models.Reaction, bool, error)
	MarkRead(ctx context.Context, senderAliases, receiverAliases []string) ([]string, error)
	InboundIDs(ctx context.Context, senderAliases, receiverAliases []string) ([]string, error)
	ListConversation(ctx context.Context, userAliases, adminAliases []string) ([]*models.Message, error)
	UnreadCounts(ctx context.Context, receiverAliases []string) ([]UnreadCount, error)
	LatestByCounterpart(ctx context.Context, adminAliases []string) ([]LatestMessage, error)
}

// INotificationRepository persists per-recipient notifications
type INotificationRepository interface {
	Create(ctx context.Context, notification *models.Notification) error
	CreateBatch(ctx context.Context, notifications []*models.Notification) ([]string, error)
	ListByRecipients(ctx context.Context, recipientAliases []string) ([]*models.Notification, error)
	MarkRead(ctx context.Context, recipientAliases, ids []string, at time.Time) (int64, error)
	MarkReadByRelated(ctx context.Context, recipientAliases []string, notificationType models.NotificationType, relatedIDs []string, at time.Time) (int64, error)
	DeleteByRecipients(ctx context.Context, recipientAliases []string) (int64, error)
	DeleteReadBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// IAnnouncementRepository persists announcements
type IAnnouncementRepository interface {
	List(ctx context.Context, limit uint64, ascending bool) ([]*models.Announcement, error)
	GetByID(ctx context.Context, id string) (*models.Announcement, error)
	CreateBatch(ctx context.Context, announcements []*models.Announcement) error
	Update(ctx context.Context, announcement *models.Announcement) error
	Delete(ctx context.Context, id string) error
}

var (
	_ IParticipantRepository  = (*ParticipantRepository)(nil)
	_ IMessageRepository      = (*MessageRepository)(nil)
	_ INotificationRepository = (*NotificationRepository)(nil)
	_ IAnnouncementRepository = (*AnnouncementRepository)(nil)
)
