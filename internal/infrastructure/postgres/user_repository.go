package postgres

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/incluiaqui/incluiaqui-server/internal/domain/entity"
	"github.com/incluiaqui/incluiaqui-server/internal/domain/repository"
	"github.com/incluiaqui/incluiaqui-server/pkg/apperror"
)

const userColumns = "id, username, email, hashed_password, role, points, profile_image_url, preferences_json, created_at, updated_at"

// querier is the subset of pgxpool.Pool the repository uses; tests substitute
// a pgxmock pool through it.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// UserRepository implements repository.UserRepository on PostgreSQL. Each
// write commits before returning; the unique constraints on username and
// email are the authoritative uniqueness enforcement.
type UserRepository struct {
	db      querier
	builder sq.StatementBuilderType
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return newUserRepository(pool)
}

func newUserRepository(db querier) *UserRepository {
	return &UserRepository{
		db:      db,
		builder: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

var _ repository.UserRepository = (*UserRepository)(nil)

func scanUser(row pgx.Row) (*entity.User, error) {
	u := &entity.User{}
	var role string
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.HashedPassword, &role, &u.Points,
		&u.ProfileImageURL, &u.PreferencesJSON, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	u.Role = entity.Role(role)
	return u, nil
}

func (r *UserRepository) getBy(ctx context.Context, column string, value any) (*entity.User, error) {
	row := r.db.QueryRow(ctx,
		"SELECT "+userColumns+" FROM users WHERE "+column+" = $1", value)
	u, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user by %s: %w", column, err)
	}
	return u, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	return r.getBy(ctx, "id", id)
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	return r.getBy(ctx, "email", email)
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*entity.User, error) {
	return r.getBy(ctx, "username", username)
}

func (r *UserRepository) List(ctx context.Context, skip, limit int) ([]*entity.User, error) {
	query, args, err := r.builder.
		Select(userColumns).
		From("users").
		Offset(uint64(skip)).
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list query: %w", err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	users := make([]*entity.User, 0, limit)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user row: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

func (r *UserRepository) Create(ctx context.Context, in repository.CreateUser, hashedPassword string) (*entity.User, error) {
	// The id is assigned here, before the row ever reaches the store.
	id := uuid.New()
	row := r.db.QueryRow(ctx, `
		INSERT INTO users (id, username, email, hashed_password, role, points, profile_image_url, preferences_json)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+userColumns,
		id, in.Username, in.Email, hashedPassword, string(in.Role), in.Points,
		in.ProfileImageURL, in.PreferencesJSON)

	u, err := scanUser(row)
	if err != nil {
		if ae := translateUnique(err); ae != nil {
			return nil, ae
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

func (r *UserRepository) Update(ctx context.Context, u *entity.User, changes repository.Changes) (*entity.User, error) {
	b := r.builder.Update("users").Where(sq.Eq{"id": u.ID})
	for column, value := range changes {
		b = b.Set(column, value)
	}
	b = b.Set("updated_at", sq.Expr("now()")).
		Suffix("RETURNING " + userColumns)

	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build update query: %w", err)
	}

	updated, err := scanUser(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NotFound("User")
		}
		if ae := translateUnique(err); ae != nil {
			return nil, ae
		}
		return nil, fmt.Errorf("update user: %w", err)
	}
	return updated, nil
}

func (r *UserRepository) Delete(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	row := r.db.QueryRow(ctx,
		"DELETE FROM users WHERE id = $1 RETURNING "+userColumns, id)
	u, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("delete user: %w", err)
	}
	return u, nil
}

// translateUnique maps a unique-constraint violation to the business error a
// concurrent duplicate write must surface as. Returns nil for other errors.
func translateUnique(err error) *apperror.Error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != "23505" {
		return nil
	}
	field := "identifier"
	switch pgErr.ConstraintName {
	case "users_email_key":
		field = "email"
	case "users_username_key":
		field = "username"
	}
	return apperror.AlreadyExists("User", field)
}
