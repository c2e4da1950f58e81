package memory

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/incluiaqui/incluiaqui-server/internal/domain/entity"
	"github.com/incluiaqui/incluiaqui-server/internal/domain/repository"
	"github.com/incluiaqui/incluiaqui-server/pkg/apperror"
)

// UserRepository is an in-memory repository.UserRepository used by tests and
// local tooling. It enforces the same username/email uniqueness the database
// constraints do and keeps users in insertion order.
type UserRepository struct {
	mu    sync.RWMutex
	users []*entity.User
}

func NewUserRepository() *UserRepository {
	return &UserRepository{}
}

var _ repository.UserRepository = (*UserRepository)(nil)

func clone(u *entity.User) *entity.User {
	if u == nil {
		return nil
	}
	c := *u
	return &c
}

func (r *UserRepository) GetByID(_ context.Context, id uuid.UUID) (*entity.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.users {
		if u.ID == id {
			return clone(u), nil
		}
	}
	return nil, nil
}

func (r *UserRepository) GetByEmail(_ context.Context, email string) (*entity.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.users {
		if u.Email == email {
			return clone(u), nil
		}
	}
	return nil, nil
}

func (r *UserRepository) GetByUsername(_ context.Context, username string) (*entity.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.users {
		if u.Username == username {
			return clone(u), nil
		}
	}
	return nil, nil
}

func (r *UserRepository) List(_ context.Context, skip, limit int) ([]*entity.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if skip >= len(r.users) {
		return []*entity.User{}, nil
	}
	end := skip + limit
	if end > len(r.users) {
		end = len(r.users)
	}
	out := make([]*entity.User, 0, end-skip)
	for _, u := range r.users[skip:end] {
		out = append(out, clone(u))
	}
	return out, nil
}

func (r *UserRepository) Create(_ context.Context, in repository.CreateUser, hashedPassword string) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Username == in.Username {
			return nil, apperror.AlreadyExists("User", "username")
		}
		if u.Email == in.Email {
			return nil, apperror.AlreadyExists("User", "email")
		}
	}
	now := time.Now().UTC()
	u := &entity.User{
		ID:              uuid.New(),
		Username:        in.Username,
		Email:           in.Email,
		HashedPassword:  hashedPassword,
		Role:            in.Role,
		Points:          in.Points,
		ProfileImageURL: in.ProfileImageURL,
		PreferencesJSON: in.PreferencesJSON,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	r.users = append(r.users, u)
	return clone(u), nil
}

func (r *UserRepository) Update(_ context.Context, target *entity.User, changes repository.Changes) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var stored *entity.User
	for _, u := range r.users {
		if u.ID == target.ID {
			stored = u
			break
		}
	}
	if stored == nil {
		return nil, apperror.NotFound("User")
	}

	for column, value := range changes {
		switch column {
		case "username":
			username := value.(string)
			for _, other := range r.users {
				if other.ID != stored.ID && other.Username == username {
					return nil, apperror.AlreadyExists("User", "username")
				}
			}
			stored.Username = username
		case "email":
			email := value.(string)
			for _, other := range r.users {
				if other.ID != stored.ID && other.Email == email {
					return nil, apperror.AlreadyExists("User", "email")
				}
			}
			stored.Email = email
		case "hashed_password":
			stored.HashedPassword = value.(string)
		case "role":
			stored.Role = entity.Role(value.(string))
		case "points":
			stored.Points = value.(int)
		case "profile_image_url":
			if value == nil {
				stored.ProfileImageURL = nil
			} else {
				s := value.(string)
				stored.ProfileImageURL = &s
			}
		case "preferences_json":
			if value == nil {
				stored.PreferencesJSON = nil
			} else {
				stored.PreferencesJSON = value.(json.RawMessage)
			}
		}
	}
	stored.UpdatedAt = time.Now().UTC()
	return clone(stored), nil
}

func (r *UserRepository) Delete(_ context.Context, id uuid.UUID) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, u := range r.users {
		if u.ID == id {
			r.users = append(r.users[:i], r.users[i+1:]...)
			return clone(u), nil
		}
	}
	return nil, nil
}
