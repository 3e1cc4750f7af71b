package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"hunter/internal/domain"
)

// UserRepository defines the persistence contract for users.
type UserRepository interface {
	Create(ctx context.Context, user domain.User) error
	GetByID(ctx context.Context, id string) (domain.User, error)
	GetByEmail(ctx context.Context, email string) (domain.User, error)
	Confirm(ctx context.Context, id string) error
	UpdateUsername(ctx context.Context, id, username string) error
	UpdateConfirmCode(ctx context.Context, id, hash string, expiry time.Time) error
	UpdateResetCode(ctx context.Context, id, hash string, expiry time.Time) error
	UpdatePassword(ctx context.Context, id, passwordHash string) error
}

// PgUserRepository implements UserRepository using pgxpool.
type PgUserRepository struct {
	pool *pgxpool.Pool
}

func NewPgUserRepository(pool *pgxpool.Pool) *PgUserRepository {
	return &PgUserRepository{pool: pool}
}

const userColumns = `id, email, username, password_hash, confirmed, confirm_hash, confirm_expiry, reset_hash, reset_expiry, created_at`

func (r *PgUserRepository) Create(ctx context.Context, user domain.User) error {
	const query = `
		INSERT INTO users (id, email, username, password_hash, confirmed, confirm_hash, confirm_expiry, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.pool.Exec(ctx, query,
		user.ID,
		user.Email,
		user.Username,
		user.PasswordHash,
		user.Confirmed,
		user.ConfirmHash,
		user.ConfirmExpiry,
		user.CreatedAt,
	)
	return err
}

func (r *PgUserRepository) GetByID(ctx context.Context, id string) (domain.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return r.scanUser(r.pool.QueryRow(ctx, query, id))
}

func (r *PgUserRepository) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return r.scanUser(r.pool.QueryRow(ctx, query, email))
}

func (r *PgUserRepository) Confirm(ctx context.Context, id string) error {
	const query = `
		UPDATE users
		SET confirmed = TRUE, confirm_hash = '', confirm_expiry = NULL
		WHERE id = $1
	`
	_, err := r.pool.Exec(ctx, query, id)
	return err
}

func (r *PgUserRepository) UpdateUsername(ctx context.Context, id, username string) error {
	const query = `UPDATE users SET username = $2 WHERE id = $1`
	_, err := r.pool.Exec(ctx, query, id, username)
	return err
}

func (r *PgUserRepository) UpdateConfirmCode(ctx context.Context, id, hash string, expiry time.Time) error {
	const query = `UPDATE users SET confirm_hash = $2, confirm_expiry = $3 WHERE id = $1`
	_, err := r.pool.Exec(ctx, query, id, hash, expiry)
	return err
}

func (r *PgUserRepository) UpdateResetCode(ctx context.Context, id, hash string, expiry time.Time) error {
	const query = `UPDATE users SET reset_hash = $2, reset_expiry = $3 WHERE id = $1`
	_, err := r.pool.Exec(ctx, query, id, hash, expiry)
	return err
}

func (r *PgUserRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	const query = `
		UPDATE users
		SET password_hash = $2, reset_hash = '', reset_expiry = NULL
		WHERE id = $1
	`
	_, err := r.pool.Exec(ctx, query, id, passwordHash)
	return err
}

func (r *PgUserRepository) scanUser(row pgx.Row) (domain.User, error) {
	var u domain.User
	err := row.Scan(
		&u.ID,
		&u.Email,
		&u.Username,
		&u.PasswordHash,
		&u.Confirmed,
		&u.ConfirmHash,
		&u.ConfirmExpiry,
		&u.ResetHash,
		&u.ResetExpiry,
		&u.CreatedAt,
	)
	if err != nil {
		return domain.User{}, err
	}
	return u, nil
}
