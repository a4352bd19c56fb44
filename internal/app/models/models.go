package models

// RoleType defines the participant role
type RoleType string

const (
	RoleUser  RoleType = "user"
	RoleAdmin RoleType = "admin"
)

// AdminSentinel is the fixed reference that always means the canonical admin
const AdminSentinel = "admin"

// Perspective is the viewing side used to frame messages as outgoing or incoming
type Perspective string

const (
	PerspectiveUser  Perspective = "user"
	PerspectiveAdmin Perspective = "admin"
)

// Valid reports whether p is one of the two known perspectives
func (p Perspective) Valid() bool {
	return p == PerspectiveUser || p == PerspectiveAdmin
}
