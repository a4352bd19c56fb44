package dto

import (
	"time"

	"github.com/yigit/handbook/internal/app/models"
)

// PresenceRequest stamps the caller as active
type PresenceRequest struct {
	UserID string `json:"userId" binding:"required" example:"2021-00123"`
}

// ChatUserResponse is a student listed in the admin chat sidebar
type ChatUserResponse struct {
	ID             string  `json:"id"`
	Email          string  `json:"email"`
	StudentID      string  `json:"studentId"`
	FirstName      string  `json:"firstName"`
	LastName       string  `json:"lastName"`
	Department     string  `json:"department"`
	YearLevel      string  `json:"yearLevel"`
	ProfilePicture *string `json:"profilePicture"`
	LastActive     *string `json:"lastActive"`
	IsOnline       bool    `json:"isOnline"`
}

// NewChatUserResponse copies the public fields of u and applies the online flag
func NewChatUserResponse(u *models.User, now time.Time) ChatUserResponse {
	resp := ChatUserResponse{
		ID:             u.ID,
		Email:          u.Email,
		StudentID:      u.StudentNumber,
		FirstName:      u.FirstName,
		LastName:       u.LastName,
		Department:     u.Department,
		YearLevel:      u.YearLevel,
		ProfilePicture: u.ProfilePicture,
		IsOnline:       u.IsOnline(now),
	}
	if u.LastActive != nil {
		last := u.LastActive.UTC().Format(time.RFC3339)
		resp.LastActive = &last
	}
	return resp
}
