package entity

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Role is the closed set of roles a user can hold. Values mirror the
// user_role enum in the database.
type Role string

const (
	RoleClient    Role = "client"
	RoleMerchant  Role = "merchant"
	RoleAdmin     Role = "admin"
	RoleModerator Role = "moderator"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleClient, RoleMerchant, RoleAdmin, RoleModerator:
		return true
	}
	return false
}

// User is the aggregate root for the user domain. HashedPassword holds a
// bcrypt hash, never plaintext, and is never serialized outward.
//
// Relationships to other tables (establishments, reviews, badges) are plain
// foreign keys on their side; there is no object graph here.
type User struct {
	ID              uuid.UUID
	Username        string
	Email           string
	HashedPassword  string
	Role            Role
	Points          int
	ProfileImageURL *string
	PreferencesJSON json.RawMessage
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
