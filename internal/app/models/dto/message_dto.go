package dto

import (
	"time"

	"github.com/yigit/handbook/internal/app/models"
)

// DisplayLocation is the time zone chat timestamps are rendered in
var DisplayLocation = time.Local

// DisplayTimeLayout is the chat bubble timestamp format
const DisplayTimeLayout = "Jan 2, 3:04 PM"

// ClockLayout is the short time of day shown in the inbox list
const ClockLayout = "3:04 PM"

// --- Request DTOs ---

// AttachmentRequest is one inline attachment of a new message
type AttachmentRequest struct {
	FileName string `json:"fileName" example:"schedule.pdf"`
	FileType string `json:"fileType" example:"application/pdf"`
	FileSize int64  `json:"fileSize" example:"20480"`
	FileData string `json:"fileData" example:"JVBERi0xLjQK..."`
	MimeType string `json:"mimeType" example:"application/pdf"`
}

// SendMessageRequest represents data for sending a message
type SendMessageRequest struct {
	SenderID       string              `json:"senderId" binding:"required" example:"2021-00123"`
	ReceiverID     string              `json:"receiverId" binding:"required" example:"admin"`
	SenderName     string              `json:"senderName" example:"Ana Cruz"`
	SenderInitials string              `json:"senderInitials" example:"AC"`
	Text           string              `json:"text" example:"Hello"`
	RepliedTo      *string             `json:"repliedTo,omitempty"`
	Attachments    []AttachmentRequest `json:"attachments,omitempty"`
	Perspective    string              `json:"perspective,omitempty" binding:"omitempty,oneof=user admin" example:"admin"`
}

// EditMessageRequest represents a text edit
type EditMessageRequest struct {
	Text     string `json:"text" example:"Hello again"`
	EditorID string `json:"editorId,omitempty" example:"admin"`
}

// DeleteMessageRequest represents a soft delete
type DeleteMessageRequest struct {
	DeletedBy     string `json:"deletedBy" binding:"required" example:"admin"`
	DeletedByName string `json:"deletedByName" example:"Administrator"`
}

// ReactRequest toggles a reaction on a message
type ReactRequest struct {
	UserID string `json:"userId" binding:"required" example:"2021-00123"`
	Emoji  string `json:"emoji" binding:"required" example:"👍"`
}

// MarkReadRequest marks a conversation read
type MarkReadRequest struct {
	UserID      string `json:"userId" binding:"required" example:"2021-00123"`
	AdminID     string `json:"adminId,omitempty" example:"admin"`
	Perspective string `json:"perspective,omitempty" binding:"omitempty,oneof=user admin" example:"admin"`
}

// ConversationQuery selects a conversation thread
type ConversationQuery struct {
	UserID      string `form:"userId" binding:"required"`
	AdminID     string `form:"adminId"`
	Perspective string `form:"perspective" binding:"omitempty,oneof=user admin"`
}

// --- Response DTOs ---

// MessageResponse is a message framed for one viewer
type MessageResponse struct {
	ID                   string              `json:"id"`
	SenderID             string              `json:"senderId"`
	ReceiverID           string              `json:"receiverId"`
	SenderName           string              `json:"senderName"`
	SenderInitials       string              `json:"senderInitials"`
	SenderProfilePicture *string             `json:"senderProfilePicture"`
	Text                 string              `json:"text"`
	Timestamp            string              `json:"timestamp" example:"Mar 1, 9:05 AM"`
	CreatedAt            string              `json:"createdAt" example:"2025-03-01T09:05:00Z"`
	UpdatedAt            *string             `json:"updatedAt,omitempty"`
	IsOutgoing           bool                `json:"isOutgoing"`
	Read                 bool                `json:"read"`
	RepliedTo            *string             `json:"repliedTo"`
	Reactions            []models.Reaction   `json:"reactions"`
	Attachments          []models.Attachment `json:"attachments"`
	Deleted              bool                `json:"deleted"`
	DeletedBy            *string             `json:"deletedBy"`
	DeletedByName        *string             `json:"deletedByName"`
}

// EditedMessageResponse is returned after an edit
type EditedMessageResponse struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// ReactionsResponse carries the full reaction set after a toggle
type ReactionsResponse struct {
	Reactions []models.Reaction `json:"reactions"`
}

// UnreadCountsResponse maps sender ids to their unread message count
type UnreadCountsResponse struct {
	UnreadCounts map[string]int64 `json:"unreadCounts"`
}

// LatestTimestampsResponse maps counterpart ids to the time of the latest message
type LatestTimestampsResponse struct {
	Timestamps map[string]string `json:"timestamps"`
}

// NewMessageResponse converts a stored message into its response shape.
// Deleted messages are redacted when redact is set.
func NewMessageResponse(m *models.Message, isOutgoing, redact bool) MessageResponse {
	resp := MessageResponse{
		ID:             m.ID,
		SenderID:       m.SenderID,
		ReceiverID:     m.ReceiverID,
		SenderName:     m.SenderName,
		SenderInitials: m.SenderInitials,
		Text:           m.Text,
		Timestamp:      m.CreatedAt.In(DisplayLocation).Format(DisplayTimeLayout),
		CreatedAt:      m.CreatedAt.UTC().Format(time.RFC3339),
		IsOutgoing:     isOutgoing,
		Read:           m.Read,
		RepliedTo:      m.RepliedTo,
		Reactions:      m.Reactions,
		Attachments:    m.Attachments,
		Deleted:        m.Deleted,
		DeletedBy:      m.DeletedBy,
		DeletedByName:  m.DeletedByName,
	}
	if m.UpdatedAt != nil {
		updated := m.UpdatedAt.UTC().Format(time.RFC3339)
		resp.UpdatedAt = &updated
	}
	if resp.Reactions == nil {
		resp.Reactions = []models.Reaction{}
	}
	if resp.Attachments == nil {
		resp.Attachments = []models.Attachment{}
	}
	if redact && m.Deleted {
		resp.Text = ""
		resp.Attachments = []models.Attachment{}
	}
	return resp
}
