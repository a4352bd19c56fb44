package dto

import (
	"time"

	"github.com/yigit/handbook/internal/app/models"
)

// AnnouncementInput is one announcement of a batch create
type AnnouncementInput struct {
	Title       string `json:"title" example:"Enrollment week"`
	Content     string `json:"content" example:"Enrollment opens on Monday."`
	IsImportant bool   `json:"isImportant"`
}

// CreateAnnouncementsRequest creates one or more announcements
type CreateAnnouncementsRequest struct {
	Announcements []AnnouncementInput `json:"announcements" binding:"required,min=1"`
	CreatedBy     string              `json:"createdBy" example:"admin"`
	CreatedByName string              `json:"createdByName" example:"Administrator"`
}

// UpdateAnnouncementRequest replaces the editable fields
type UpdateAnnouncementRequest struct {
	Title       string `json:"title" example:"Enrollment week"`
	Content     string `json:"content" example:"Enrollment opens on Tuesday."`
	IsImportant bool   `json:"isImportant"`
}

// AnnouncementListQuery filters the announcement list
type AnnouncementListQuery struct {
	Limit int    `form:"limit,default=100" binding:"min=1,max=500"`
	Sort  string `form:"sort,default=desc" binding:"oneof=asc desc"`
}

// AnnouncementDateLayout is the long date shown on announcement cards
const AnnouncementDateLayout = "January 2, 2006"

// AnnouncementResponse is one announcement card
type AnnouncementResponse struct {
	ID            string  `json:"id"`
	Title         string  `json:"title"`
	Content       string  `json:"content"`
	CreatedAt     string  `json:"createdAt"`
	UpdatedAt     *string `json:"updatedAt,omitempty"`
	CreatedBy     string  `json:"createdBy"`
	CreatedByName string  `json:"createdByName"`
	IsImportant   bool    `json:"isImportant"`
	Date          string  `json:"date" example:"March 1, 2025"`
}

// NewAnnouncementResponse converts a stored announcement
func NewAnnouncementResponse(a *models.Announcement) AnnouncementResponse {
	resp := AnnouncementResponse{
		ID:            a.ID,
		Title:         a.Title,
		Content:       a.Content,
		CreatedAt:     a.CreatedAt.UTC().Format(time.RFC3339),
		CreatedBy:     a.CreatedBy,
		CreatedByName: a.CreatedByName,
		IsImportant:   a.IsImportant,
		Date:          a.CreatedAt.In(DisplayLocation).Format(AnnouncementDateLayout),
	}
	if a.UpdatedAt != nil {
		updated := a.UpdatedAt.UTC().Format(time.RFC3339)
		resp.UpdatedAt = &updated
	}
	return resp
}

// NewAnnouncementListResponse converts a list of announcements
func NewAnnouncementListResponse(items []*models.Announcement) []AnnouncementResponse {
	out := make([]AnnouncementResponse, 0, len(items))
	for _, a := range items {
		out = append(out, NewAnnouncementResponse(a))
	}
	return out
}
