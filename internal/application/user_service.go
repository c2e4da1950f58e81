package application

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/incluiaqui/incluiaqui-server/internal/domain/entity"
	"github.com/incluiaqui/incluiaqui-server/internal/domain/repository"
	"github.com/incluiaqui/incluiaqui-server/pkg/apperror"
	"github.com/incluiaqui/incluiaqui-server/pkg/hasher"
	"github.com/incluiaqui/incluiaqui-server/pkg/optional"
)

// UserService enforces the user domain's business rules on top of the
// repository: existence on reads, email uniqueness on writes, and password
// hashing. It holds no per-request state; every operation goes straight
// through to the store.
type UserService struct {
	repo   repository.UserRepository
	hasher *hasher.Bcrypt
	logger *logrus.Logger
}

func NewUserService(repo repository.UserRepository, h *hasher.Bcrypt, logger *logrus.Logger) *UserService {
	return &UserService{repo: repo, hasher: h, logger: logger}
}

// CreateUserInput is a validated creation payload. Password is plaintext here
// and nowhere below this layer.
type CreateUserInput struct {
	Username        string
	Email           string
	Password        string
	Role            entity.Role
	Points          int
	ProfileImageURL *string
	PreferencesJSON json.RawMessage
}

// UpdateUserInput is a partial-update payload. A field participates in the
// update only when its wrapper was present in the request; username is
// immutable and has no update path.
type UpdateUserInput struct {
	Email           optional.Value[string]
	Password        optional.Value[string]
	Role            optional.Value[entity.Role]
	Points          optional.Value[int]
	ProfileImageURL optional.Value[string]
	PreferencesJSON optional.Value[json.RawMessage]
}

// GetUser fetches a user by id, failing with NotFound when absent.
func (s *UserService) GetUser(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, apperror.NotFound("User")
	}
	return u, nil
}

// ListUsers returns a page of users in store order.
func (s *UserService) ListUsers(ctx context.Context, skip, limit int) ([]*entity.User, error) {
	return s.repo.List(ctx, skip, limit)
}

// CreateUser registers a new user. The email is pre-checked for uniqueness;
// username collisions are left to the store's constraint, which surfaces as
// the same AlreadyExists condition.
func (s *UserService) CreateUser(ctx context.Context, in CreateUserInput) (*entity.User, error) {
	existing, err := s.repo.GetByEmail(ctx, in.Email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperror.AlreadyExists("User", "email")
	}

	hashed, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	created, err := s.repo.Create(ctx, repository.CreateUser{
		Username:        in.Username,
		Email:           in.Email,
		Role:            in.Role,
		Points:          in.Points,
		ProfileImageURL: in.ProfileImageURL,
		PreferencesJSON: in.PreferencesJSON,
	}, hashed)
	if err != nil {
		return nil, err
	}
	s.logger.WithFields(logrus.Fields{"user_id": created.ID, "username": created.Username}).Info("user created")
	return created, nil
}

// UpdateUser applies the explicitly-provided fields of in to the user. A
// changed email is re-checked for uniqueness; a provided non-empty password is
// hashed and the plaintext dropped before anything reaches the store.
func (s *UserService) UpdateUser(ctx context.Context, id uuid.UUID, in UpdateUserInput) (*entity.User, error) {
	current, err := s.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}

	changes := repository.Changes{}

	if email, ok := in.Email.Get(); ok {
		if email != current.Email {
			owner, err := s.repo.GetByEmail(ctx, email)
			if err != nil {
				return nil, err
			}
			if owner != nil {
				return nil, apperror.AlreadyExists("User", "email")
			}
		}
		changes["email"] = email
	}

	if password, ok := in.Password.Get(); ok && password != "" {
		hashed, err := s.hasher.Hash(password)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		changes["hashed_password"] = hashed
	}

	if role, ok := in.Role.Get(); ok {
		changes["role"] = string(role)
	}
	if points, ok := in.Points.Get(); ok {
		changes["points"] = points
	}
	if in.ProfileImageURL.Set {
		if url, ok := in.ProfileImageURL.Get(); ok {
			changes["profile_image_url"] = url
		} else {
			changes["profile_image_url"] = nil
		}
	}
	if in.PreferencesJSON.Set {
		if prefs, ok := in.PreferencesJSON.Get(); ok {
			changes["preferences_json"] = prefs
		} else {
			changes["preferences_json"] = nil
		}
	}

	updated, err := s.repo.Update(ctx, current, changes)
	if err != nil {
		return nil, err
	}
	s.logger.WithField("user_id", updated.ID).Debug("user updated")
	return updated, nil
}

// DeleteUser removes a user and returns its last known state, failing with
// NotFound when the id does not exist.
func (s *UserService) DeleteUser(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	current, err := s.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	deleted, err := s.repo.Delete(ctx, current.ID)
	if err != nil {
		return nil, err
	}
	if deleted == nil {
		// Removed between the fetch and the delete; the loaded snapshot is
		// still the last known state.
		return current, nil
	}
	s.logger.WithField("user_id", deleted.ID).Info("user deleted")
	return deleted, nil
}
