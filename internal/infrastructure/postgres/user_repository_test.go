package postgres

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/incluiaqui/incluiaqui-server/internal/domain/entity"
	"github.com/incluiaqui/incluiaqui-server/internal/domain/repository"
	"github.com/incluiaqui/incluiaqui-server/pkg/apperror"
)

var userCols = []string{"id", "username", "email", "hashed_password", "role", "points", "profile_image_url", "preferences_json", "created_at", "updated_at"}

func newMockRepo(t *testing.T) (pgxmock.PgxPoolIface, *UserRepository) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock, newUserRepository(mock)
}

func TestGetByIDFound(t *testing.T) {
	mock, repo := newMockRepo(t)
	id := uuid.New()
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT "+userColumns+" FROM users WHERE id = $1")).
		WithArgs(id).
		WillReturnRows(pgxmock.NewRows(userCols).
			AddRow(id, "alice", "a@x.com", "$2a$hash", "client", 0, nil, nil, now, now))

	u, err := repo.GetByID(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, id, u.ID)
	assert.Equal(t, "alice", u.Username)
	assert.Equal(t, "$2a$hash", u.HashedPassword)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByEmailAbsentIsNotAnError(t *testing.T) {
	mock, repo := newMockRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT "+userColumns+" FROM users WHERE email = $1")).
		WithArgs("missing@x.com").
		WillReturnError(pgx.ErrNoRows)

	u, err := repo.GetByEmail(context.Background(), "missing@x.com")
	require.NoError(t, err)
	assert.Nil(t, u)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListBuildsOffsetLimit(t *testing.T) {
	mock, repo := newMockRepo(t)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT "+userColumns+" FROM users LIMIT 2 OFFSET 1")).
		WillReturnRows(pgxmock.NewRows(userCols).
			AddRow(uuid.New(), "u2", "u2@x.com", "h2", "client", 0, nil, nil, now, now).
			AddRow(uuid.New(), "u3", "u3@x.com", "h3", "merchant", 10, nil, nil, now, now))

	users, err := repo.List(context.Background(), 1, 2)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "u2", users[0].Username)
	assert.Equal(t, "u3", users[1].Username)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateAssignsIDAndReturnsRow(t *testing.T) {
	mock, repo := newMockRepo(t)
	now := time.Now()

	mock.ExpectQuery("INSERT INTO users").
		WithArgs(pgxmock.AnyArg(), "alice", "a@x.com", "hashed-pw", "client", 0, pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows(userCols).
			AddRow(uuid.New(), "alice", "a@x.com", "hashed-pw", "client", 0, nil, nil, now, now))

	u, err := repo.Create(context.Background(), repository.CreateUser{
		Username: "alice",
		Email:    "a@x.com",
		Role:     "client",
	}, "hashed-pw")
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, u.ID)
	assert.Equal(t, "hashed-pw", u.HashedPassword)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateTranslatesUniqueViolation(t *testing.T) {
	mock, repo := newMockRepo(t)

	mock.ExpectQuery("INSERT INTO users").
		WithArgs(pgxmock.AnyArg(), "alice", "a@x.com", "hashed-pw", "client", 0, pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "users_username_key"})

	_, err := repo.Create(context.Background(), repository.CreateUser{
		Username: "alice",
		Email:    "a@x.com",
		Role:     "client",
	}, "hashed-pw")

	ae, ok := apperror.As(err)
	require.True(t, ok)
	assert.Equal(t, apperror.KindAlreadyExists, ae.Kind)
	assert.Equal(t, "username", ae.Field)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateAppliesOnlyProvidedChanges(t *testing.T) {
	mock, repo := newMockRepo(t)
	id := uuid.New()
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("UPDATE users SET email = $1, updated_at = now() WHERE id = $2 RETURNING "+userColumns)).
		WithArgs("a2@x.com", id).
		WillReturnRows(pgxmock.NewRows(userCols).
			AddRow(id, "alice", "a2@x.com", "h", "client", 0, nil, nil, now, now))

	u, err := repo.Update(context.Background(), &entity.User{ID: id},
		repository.Changes{"email": "a2@x.com"})
	require.NoError(t, err)
	assert.Equal(t, "a2@x.com", u.Email)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateTranslatesUniqueViolation(t *testing.T) {
	mock, repo := newMockRepo(t)
	id := uuid.New()

	mock.ExpectQuery(regexp.QuoteMeta("UPDATE users SET email = $1, updated_at = now() WHERE id = $2 RETURNING "+userColumns)).
		WithArgs("taken@x.com", id).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"})

	_, err := repo.Update(context.Background(), &entity.User{ID: id},
		repository.Changes{"email": "taken@x.com"})

	ae, ok := apperror.As(err)
	require.True(t, ok)
	assert.Equal(t, apperror.KindAlreadyExists, ae.Kind)
	assert.Equal(t, "email", ae.Field)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteReturnsSnapshot(t *testing.T) {
	mock, repo := newMockRepo(t)
	id := uuid.New()
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("DELETE FROM users WHERE id = $1 RETURNING "+userColumns)).
		WithArgs(id).
		WillReturnRows(pgxmock.NewRows(userCols).
			AddRow(id, "alice", "a@x.com", "h", "client", 5, nil, nil, now, now))

	u, err := repo.Delete(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, 5, u.Points)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteAbsentReturnsNil(t *testing.T) {
	mock, repo := newMockRepo(t)
	id := uuid.New()

	mock.ExpectQuery(regexp.QuoteMeta("DELETE FROM users WHERE id = $1 RETURNING "+userColumns)).
		WithArgs(id).
		WillReturnError(pgx.ErrNoRows)

	u, err := repo.Delete(context.Background(), id)
	require.NoError(t, err)
	assert.Nil(t, u)
	require.NoError(t, mock.ExpectationsWereMet())
}
