package postgres

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Barklim/bio/internal/apperr"
	"github.com/Barklim/bio/internal/domain/entity"
	"github.com/Barklim/bio/internal/domain/repository"
)

// pgUniqueViolation is the Postgres error code raised by the unique index
// on lower(email). The index, not the application pre-check, is what makes
// concurrent registrations with the same email resolve to one winner.
const pgUniqueViolation = "23505"

type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

func (r *UserRepository) Create(ctx context.Context, u *entity.User) error {
	u.Email = normalizeEmail(u.Email)
	if u.Role == "" {
		u.Role = entity.RoleUser
	}

	// password_hash is nullable: the administrative create path makes
	// accounts without credentials.
	var hash *string
	if u.PasswordHash != "" {
		hash = &u.PasswordHash
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO users (email, first_name, last_name, password_hash, role, is_active)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`, u.Email, u.FirstName, u.LastName, hash, u.Role, u.IsActive)

	if err := row.Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt); err != nil {
		if isUniqueViolation(err) {
			return apperr.ErrEmailTaken
		}
		return err
	}
	return nil
}

const publicColumns = `id, email, first_name, last_name, role, is_active, email_verified, email_verified_at, last_login_at, created_at, updated_at`

func scanPublic(row pgx.Row) (*entity.User, error) {
	u := &entity.User{}
	err := row.Scan(&u.ID, &u.Email, &u.FirstName, &u.LastName, &u.Role,
		&u.IsActive, &u.EmailVerified, &u.EmailVerifiedAt, &u.LastLoginAt,
		&u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.ErrUserNotFound
		}
		return nil, err
	}
	return u, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*entity.User, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+publicColumns+`
		FROM users
		WHERE id = $1
	`, id)
	return scanPublic(row)
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+publicColumns+`
		FROM users
		WHERE lower(email) = $1
	`, normalizeEmail(email))
	return scanPublic(row)
}

// GetByEmailWithPassword is the only accessor that loads the password hash.
func (r *UserRepository) GetByEmailWithPassword(ctx context.Context, email string) (*entity.User, error) {
	u := &entity.User{}
	var hash *string

	row := r.pool.QueryRow(ctx, `
		SELECT id, email, first_name, last_name, password_hash, role, is_active,
		       email_verified, email_verified_at, last_login_at, created_at, updated_at
		FROM users
		WHERE lower(email) = $1
	`, normalizeEmail(email))

	err := row.Scan(&u.ID, &u.Email, &u.FirstName, &u.LastName, &hash, &u.Role,
		&u.IsActive, &u.EmailVerified, &u.EmailVerifiedAt, &u.LastLoginAt,
		&u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.ErrUserNotFound
		}
		return nil, err
	}
	if hash != nil {
		u.PasswordHash = *hash
	}
	return u, nil
}

func (r *UserRepository) List(ctx context.Context) ([]*entity.User, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+publicColumns+`
		FROM users
		ORDER BY id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []*entity.User
	for rows.Next() {
		u, err := scanPublic(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (r *UserRepository) Update(ctx context.Context, u *entity.User) error {
	u.Email = normalizeEmail(u.Email)
	u.UpdatedAt = time.Now().UTC()

	res, err := r.pool.Exec(ctx, `
		UPDATE users
		SET email = $1, first_name = $2, last_name = $3, role = $4,
		    is_active = $5, email_verified = $6, email_verified_at = $7,
		    updated_at = $8
		WHERE id = $9
	`, u.Email, u.FirstName, u.LastName, u.Role, u.IsActive,
		u.EmailVerified, u.EmailVerifiedAt, u.UpdatedAt, u.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return apperr.ErrEmailTaken
		}
		return err
	}
	if res.RowsAffected() == 0 {
		return apperr.ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return apperr.ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) UpdatePassword(ctx context.Context, id int64, hash string) error {
	res, err := r.pool.Exec(ctx, `
		UPDATE users SET password_hash = $1, updated_at = now() WHERE id = $2
	`, hash, id)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return apperr.ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) TouchLastLogin(ctx context.Context, id int64) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE users SET last_login_at = now() WHERE id = $1
	`, id)
	return err
}

var _ repository.UserRepository = (*UserRepository)(nil)
