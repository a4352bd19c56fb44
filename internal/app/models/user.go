package models

import (
	"strings"
	"time"
)

// OnlineThreshold is how recently a user must have been active to count as online
const OnlineThreshold = 5 * time.Minute

// User is a participant record, read from either the users or the admins table
type User struct {
	ID             string     `json:"id" db:"id"`
	Email          string     `json:"email" db:"email"`
	StudentNumber  string     `json:"studentId" db:"student_number"`
	Password       string     `json:"-" db:"password"`
	FirstName      string     `json:"firstName" db:"first_name"`
	LastName       string     `json:"lastName" db:"last_name"`
	Department     string     `json:"department" db:"department"`
	YearLevel      string     `json:"yearLevel" db:"year_level"`
	Role           RoleType   `json:"role" db:"role"`
	ProfilePicture *string    `json:"profilePicture,omitempty" db:"profile_picture"`
	LastActive     *time.Time `json:"lastActive,omitempty" db:"last_active"`
	CreatedAt      time.Time  `json:"createdAt" db:"created_at"`
}

// IsAdmin reports whether the record belongs to the admin
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// FullName joins first and last name, empty when both are missing
func (u *User) FullName() string {
	if u == nil {
		return ""
	}
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// Initials returns the first letter of the first and last name
func (u *User) Initials() string {
	if u == nil {
		return ""
	}
	return firstRune(u.FirstName) + firstRune(u.LastName)
}

// IsOnline applies the presence heuristic at the given instant
func (u *User) IsOnline(now time.Time) bool {
	if u == nil || u.LastActive == nil {
		return false
	}
	return now.Sub(*u.LastActive) < OnlineThreshold
}

func firstRune(s string) string {
	for _, r := range strings.TrimSpace(s) {
		return string(r)
	}
	return ""
}
