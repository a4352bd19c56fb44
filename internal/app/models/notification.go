package models

import "time"

// NotificationType is the closed set of notification kinds
type NotificationType string

const (
	NotificationAnnouncement     NotificationType = "announcement"
	NotificationMessage          NotificationType = "message"
	NotificationProfileApproval  NotificationType = "profile_approval"
	NotificationProfileRejection NotificationType = "profile_rejection"
	NotificationOther            NotificationType = "other"
)

// ParseNotificationType maps unknown values to NotificationOther
func ParseNotificationType(s string) NotificationType {
	switch t := NotificationType(s); t {
	case NotificationAnnouncement, NotificationMessage, NotificationProfileApproval, NotificationProfileRejection:
		return t
	default:
		return NotificationOther
	}
}

// Badge colors used by the notification feed
const (
	BadgeNewMessage     = "#10B981"
	BadgeReply          = "#8B5CF6"
	BadgeEdited         = "#6366F1"
	BadgeDeleted        = "#EF4444"
	BadgeReacted        = "#F59E0B"
	BadgeAnnouncement   = "#3B82F6"
	BadgeImportant      = "#EF4444"
	BadgeProfileDecided = "#10B981"
)

// Notification belongs to exactly one recipient
type Notification struct {
	ID          string           `json:"id" db:"id"`
	Seq         int64            `json:"-" db:"seq"`
	UserID      string           `json:"userId" db:"user_id"`
	Title       string           `json:"title" db:"title"`
	Description string           `json:"description" db:"description"`
	Type        NotificationType `json:"type" db:"type"`
	CreatedAt   time.Time        `json:"createdAt" db:"created_at"`
	Read        bool             `json:"read" db:"read"`
	ReadAt      *time.Time       `json:"readAt,omitempty" db:"read_at"`
	RelatedID   *string          `json:"relatedId,omitempty" db:"related_id"`
	BadgeColor  *string          `json:"badgeColor,omitempty" db:"badge_color"`
}
