package models

import (
	"time"
	"unicode/utf8"
)

// Attachment is a file carried inline with a message
type Attachment struct {
	FileName string `json:"fileName"`
	FileType string `json:"fileType"`
	FileSize int64  `json:"fileSize"`
	FileData string `json:"fileData,omitempty"`
	MimeType string `json:"mimeType"`
}

// Attachment defaults
const (
	DefaultAttachmentName = "file"
	DefaultAttachmentType = "application/octet-stream"
)

// Normalize fills in the defaults for missing attachment metadata
func (a Attachment) Normalize() Attachment {
	if a.FileName == "" {
		a.FileName = DefaultAttachmentName
	}
	if a.FileType == "" {
		a.FileType = DefaultAttachmentType
	}
	if a.FileSize < 0 {
		a.FileSize = 0
	}
	if a.MimeType == "" {
		a.MimeType = a.FileType
	}
	return a
}

// Reaction is one participant's emoji on a message
type Reaction struct {
	UserID string `json:"userId"`
	Emoji  string `json:"emoji"`
}

// Message is a chat message between a student and the admin.
// SenderName and SenderInitials are snapshotted at send time.
type Message struct {
	ID             string       `json:"id" db:"id"`
	Seq            int64        `json:"-" db:"seq"`
	SenderID       string       `json:"senderId" db:"sender_id"`
	ReceiverID     string       `json:"receiverId" db:"receiver_id"`
	SenderName     string       `json:"senderName" db:"sender_name"`
	SenderInitials string       `json:"senderInitials" db:"sender_initials"`
	Text           string       `json:"text" db:"text"`
	CreatedAt      time.Time    `json:"createdAt" db:"created_at"`
	UpdatedAt      *time.Time   `json:"updatedAt,omitempty" db:"updated_at"`
	Read           bool         `json:"read" db:"read"`
	RepliedTo      *string      `json:"repliedTo,omitempty" db:"replied_to"`
	Reactions      []Reaction   `json:"reactions" db:"reactions"`
	Attachments    []Attachment `json:"attachments" db:"attachments"`
	Deleted        bool         `json:"deleted" db:"deleted"`
	DeletedBy      *string      `json:"deletedBy,omitempty" db:"deleted_by"`
	DeletedByName  *string      `json:"deletedByName,omitempty" db:"deleted_by_name"`
	DeletedAt      *time.Time   `json:"deletedAt,omitempty" db:"deleted_at"`
}

// ToggleReaction applies the reaction toggle for userID and reports whether
// a reaction was added. The same emoji twice removes it, a different emoji
// replaces the previous one. The input slice is not modified.
func ToggleReaction(reactions []Reaction, userID, emoji string) ([]Reaction, bool) {
	updated := make([]Reaction, 0, len(reactions)+1)
	removedSame := false
	for _, r := range reactions {
		if r.UserID == userID {
			if r.Emoji == emoji {
				removedSame = true
			}
			continue
		}
		updated = append(updated, r)
	}
	if removedSame {
		return updated, false
	}
	return append(updated, Reaction{UserID: userID, Emoji: emoji}), true
}

// Excerpt cuts text to limit runes and appends an ellipsis when it was longer
func Excerpt(text string, limit int) string {
	if utf8.RuneCountInString(text) <= limit {
		return text
	}
	runes := []rune(text)
	return string(runes[:limit]) + "..."
}
