package memory

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/incluiaqui/incluiaqui-server/internal/domain/entity"
	"github.com/incluiaqui/incluiaqui-server/internal/domain/repository"
	"github.com/incluiaqui/incluiaqui-server/pkg/apperror"
)

func seed(t *testing.T, r *UserRepository, username, email string) *entity.User {
	t.Helper()
	u, err := r.Create(context.Background(), repository.CreateUser{
		Username: username,
		Email:    email,
		Role:     entity.RoleClient,
	}, "hashed-pw")
	require.NoError(t, err)
	return u
}

func TestAbsentLookupsReturnNilNil(t *testing.T) {
	r := NewUserRepository()
	ctx := context.Background()

	u, err := r.GetByID(ctx, uuid.New())
	assert.NoError(t, err)
	assert.Nil(t, u)

	u, err = r.GetByEmail(ctx, "ghost@x.com")
	assert.NoError(t, err)
	assert.Nil(t, u)

	u, err = r.GetByUsername(ctx, "ghost")
	assert.NoError(t, err)
	assert.Nil(t, u)

	u, err = r.Delete(ctx, uuid.New())
	assert.NoError(t, err)
	assert.Nil(t, u)
}

func TestCreateEnforcesUniqueness(t *testing.T) {
	r := NewUserRepository()
	seed(t, r, "alice", "a@x.com")

	_, err := r.Create(context.Background(), repository.CreateUser{Username: "alice", Email: "other@x.com", Role: entity.RoleClient}, "pw")
	assert.True(t, apperror.IsKind(err, apperror.KindAlreadyExists))

	_, err = r.Create(context.Background(), repository.CreateUser{Username: "other", Email: "a@x.com", Role: entity.RoleClient}, "pw")
	assert.True(t, apperror.IsKind(err, apperror.KindAlreadyExists))
}

func TestUpdateChecksUniquenessAgainstOthers(t *testing.T) {
	r := NewUserRepository()
	alice := seed(t, r, "alice", "a@x.com")
	seed(t, r, "bob", "b@x.com")

	// renaming to your own value is a no-op, not a conflict
	_, err := r.Update(context.Background(), alice, repository.Changes{"email": "a@x.com"})
	assert.NoError(t, err)

	_, err = r.Update(context.Background(), alice, repository.Changes{"email": "b@x.com"})
	assert.True(t, apperror.IsKind(err, apperror.KindAlreadyExists))
}

func TestReturnedUsersAreClones(t *testing.T) {
	r := NewUserRepository()
	alice := seed(t, r, "alice", "a@x.com")

	alice.Email = "mutated@x.com"

	stored, err := r.GetByID(context.Background(), alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", stored.Email)
}

func TestListPreservesInsertionOrder(t *testing.T) {
	r := NewUserRepository()
	seed(t, r, "alice", "a@x.com")
	seed(t, r, "bob", "b@x.com")
	seed(t, r, "carol", "c@x.com")

	users, err := r.List(context.Background(), 1, 10)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "bob", users[0].Username)
	assert.Equal(t, "carol", users[1].Username)

	users, err = r.List(context.Background(), 10, 10)
	require.NoError(t, err)
	assert.Empty(t, users)
}
