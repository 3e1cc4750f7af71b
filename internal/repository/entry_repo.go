package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"hunter/internal/domain"
)

// EntryRepository defines the persistence contract for job entries.
type EntryRepository interface {
	Create(ctx context.Context, entry domain.Entry) error
	GetByID(ctx context.Context, id string) (domain.Entry, error)
	ListByUser(ctx context.Context, userID string, status domain.Status) ([]domain.Entry, error)
	Delete(ctx context.Context, userID, id string) (bool, error)
}

// PgEntryRepository implements EntryRepository using pgxpool.
type PgEntryRepository struct {
	pool *pgxpool.Pool
}

func NewPgEntryRepository(pool *pgxpool.Pool) *PgEntryRepository {
	return &PgEntryRepository{pool: pool}
}

const entryColumns = `id, user_id, title, description, employer, contact, status, submission_date, location, notes, found_where, screenshots, created_at`

func (r *PgEntryRepository) Create(ctx context.Context, entry domain.Entry) error {
	const query = `
		INSERT INTO entries (id, user_id, title, description, employer, contact, status, submission_date, location, notes, found_where, screenshots, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	_, err := r.pool.Exec(ctx, query,
		entry.ID,
		entry.UserID,
		entry.Title,
		entry.Description,
		entry.Employer,
		entry.Contact,
		entry.Status,
		entry.SubmissionDate,
		entry.Location,
		entry.Notes,
		entry.FoundWhere,
		entry.Screenshots,
		entry.CreatedAt,
	)
	return err
}

func (r *PgEntryRepository) GetByID(ctx context.Context, id string) (domain.Entry, error) {
	const query = `SELECT ` + entryColumns + ` FROM entries WHERE id = $1`
	return scanEntry(r.pool.QueryRow(ctx, query, id))
}

func (r *PgEntryRepository) ListByUser(ctx context.Context, userID string, status domain.Status) ([]domain.Entry, error) {
	query := `SELECT ` + entryColumns + ` FROM entries WHERE user_id = $1`
	args := []any{userID}
	if status != "" {
		query += ` AND status = $2`
		args = append(args, status)
	}
	query += ` ORDER BY submission_date DESC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []domain.Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func (r *PgEntryRepository) Delete(ctx context.Context, userID, id string) (bool, error) {
	const query = `DELETE FROM entries WHERE user_id = $1 AND id = $2`
	tag, err := r.pool.Exec(ctx, query, userID, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func scanEntry(row pgx.Row) (domain.Entry, error) {
	var e domain.Entry
	err := row.Scan(
		&e.ID,
		&e.UserID,
		&e.Title,
		&e.Description,
		&e.Employer,
		&e.Contact,
		&e.Status,
		&e.SubmissionDate,
		&e.Location,
		&e.Notes,
		&e.FoundWhere,
		&e.Screenshots,
		&e.CreatedAt,
	)
	if err != nil {
		return domain.Entry{}, err
	}
	return e, nil
}
