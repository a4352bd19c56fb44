package models

import "time"

// Announcement is a school-wide post created by the admin
type Announcement struct {
	ID            string     `json:"id" db:"id"`
	Title         string     `json:"title" db:"title"`
	Content       string     `json:"content" db:"content"`
	CreatedBy     string     `json:"createdBy" db:"created_by"`
	CreatedByName string     `json:"createdByName" db:"created_by_name"`
	IsImportant   bool       `json:"isImportant" db:"is_important"`
	CreatedAt     time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt     *time.Time `json:"updatedAt,omitempty" db:"updated_at"`
}
