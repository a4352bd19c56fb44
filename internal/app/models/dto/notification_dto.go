package dto

import (
	"time"

	"github.com/yigit/handbook/internal/app/models"
)

// NotificationQuery selects a recipient's feed
type NotificationQuery struct {
	UserID string `form:"userId" binding:"required"`
}

// MarkNotificationsReadRequest flips either the listed ids or every unread notification
type MarkNotificationsReadRequest struct {
	UserID  string   `json:"userId" binding:"required" example:"2021-00123"`
	IDs     []string `json:"ids,omitempty"`
	MarkAll bool     `json:"markAll,omitempty"`
}

// NotificationResponse is one feed item
type NotificationResponse struct {
	ID          string  `json:"id"`
	Title       string  `json:"title" example:"New Message"`
	Description string  `json:"description" example:"Admin: Hi"`
	Type        string  `json:"type" example:"message"`
	CreatedAt   string  `json:"createdAt"`
	Read        bool    `json:"read"`
	ReadAt      *string `json:"readAt"`
	IsNew       bool    `json:"isNew"`
	RelatedID   *string `json:"relatedId"`
	BadgeColor  *string `json:"badgeColor"`
}

// NotificationListResponse is the feed plus its unread counter
type NotificationListResponse struct {
	Notifications []NotificationResponse `json:"notifications"`
	UnreadCount   int                    `json:"unreadCount"`
}

// NewNotificationListResponse tags each notification as new when unread
func NewNotificationListResponse(items []*models.Notification) NotificationListResponse {
	out := NotificationListResponse{Notifications: make([]NotificationResponse, 0, len(items))}
	for _, n := range items {
		item := NotificationResponse{
			ID:          n.ID,
			Title:       n.Title,
			Description: n.Description,
			Type:        string(n.Type),
			CreatedAt:   n.CreatedAt.UTC().Format(time.RFC3339),
			Read:        n.Read,
			IsNew:       !n.Read,
			RelatedID:   n.RelatedID,
			BadgeColor:  n.BadgeColor,
		}
		if n.ReadAt != nil {
			readAt := n.ReadAt.UTC().Format(time.RFC3339)
			item.ReadAt = &readAt
		}
		if !n.Read {
			out.UnreadCount++
		}
		out.Notifications = append(out.Notifications, item)
	}
	return out
}
