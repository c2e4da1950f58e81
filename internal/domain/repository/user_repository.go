package repository

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"

	"github.com/incluiaqui/incluiaqui-server/internal/domain/entity"
)

// CreateUser carries the fields persisted for a new user. The plaintext
// password never appears here; the service hands the hash to Create
// separately.
type CreateUser struct {
	Username        string
	Email           string
	Role            entity.Role
	Points          int
	ProfileImageURL *string
	PreferencesJSON json.RawMessage
}

// Changes is the set of explicitly-provided fields for a partial update,
// keyed by column name. Fields absent from the map are left untouched.
// Recognized keys: username, email, hashed_password, role, points,
// profile_image_url, preferences_json.
type Changes map[string]any

// UserRepository is the data-access contract for the users store.
//
// Lookups return (nil, nil) when no row matches; absence is a business
// condition decided above this layer, not an infrastructure error. Create and
// Update translate store-level unique violations into apperror.AlreadyExists.
type UserRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	GetByUsername(ctx context.Context, username string) (*entity.User, error)
	// List returns up to limit users after skipping skip rows, in store-native
	// order.
	List(ctx context.Context, skip, limit int) ([]*entity.User, error)
	// Create assigns the new user's id before persisting and returns the
	// materialized row with store-generated timestamps.
	Create(ctx context.Context, in CreateUser, hashedPassword string) (*entity.User, error)
	// Update applies only the fields present in changes, refreshes updated_at
	// and returns the updated row.
	Update(ctx context.Context, u *entity.User, changes Changes) (*entity.User, error)
	// Delete removes the row and returns its pre-deletion snapshot, or
	// (nil, nil) when the id does not exist.
	Delete(ctx context.Context, id uuid.UUID) (*entity.User, error)
}
