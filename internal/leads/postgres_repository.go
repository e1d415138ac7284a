package leads

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DB abstracts the pgx query interface for testing.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresRepository stores leads in the relational database.
type PostgresRepository struct {
	db DB
}

// NewPostgresRepository initializes a repo backed by pgx.
func NewPostgresRepository(db DB) *PostgresRepository {
	if db == nil {
		panic("leads: pgx db required")
	}
	return &PostgresRepository{db: db}
}

const leadColumns = `id, phone, name, email, score, status, last_contact_at, scheduled_class_at, created_at, updated_at`

// Create inserts a new row.
func (r *PostgresRepository) Create(ctx context.Context, lead *Lead) error {
	if lead.Phone == "" {
		return ErrMissingPhone
	}
	if lead.ID == uuid.Nil {
		lead.ID = uuid.New()
	}
	now := time.Now().UTC()
	if lead.CreatedAt.IsZero() {
		lead.CreatedAt = now
	}
	lead.UpdatedAt = now

	_, err := r.db.Exec(ctx, `
		INSERT INTO leads (id, phone, name, email, score, status, last_contact_at, scheduled_class_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		lead.ID, lead.Phone, lead.Name, lead.Email, lead.Score, string(lead.Status),
		lead.LastContactAt, lead.ScheduledClassAt, lead.CreatedAt, lead.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("leads: insert failed: %w", err)
	}
	return nil
}

// GetByID fetches a lead by id.
func (r *PostgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*Lead, error) {
	row := r.db.QueryRow(ctx, `SELECT `+leadColumns+` FROM leads WHERE id = $1`, id)
	return scanLead(row)
}

// GetByPhone fetches a lead by its normalized phone number.
func (r *PostgresRepository) GetByPhone(ctx context.Context, phone string) (*Lead, error) {
	row := r.db.QueryRow(ctx, `SELECT `+leadColumns+` FROM leads WHERE phone = $1`, phone)
	return scanLead(row)
}

// Update overwrites the mutable lead fields.
func (r *PostgresRepository) Update(ctx context.Context, lead *Lead) error {
	lead.UpdatedAt = time.Now().UTC()
	tag, err := r.db.Exec(ctx, `
		UPDATE leads
		SET name = $2, email = $3, score = $4, status = $5, last_contact_at = $6, scheduled_class_at = $7, updated_at = $8
		WHERE id = $1`,
		lead.ID, lead.Name, lead.Email, lead.Score, string(lead.Status),
		lead.LastContactAt, lead.ScheduledClassAt, lead.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("leads: update failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrLeadNotFound
	}
	return nil
}

func scanLead(row pgx.Row) (*Lead, error) {
	var lead Lead
	var status string
	err := row.Scan(
		&lead.ID, &lead.Phone, &lead.Name, &lead.Email, &lead.Score, &status,
		&lead.LastContactAt, &lead.ScheduledClassAt, &lead.CreatedAt, &lead.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrLeadNotFound
		}
		return nil, fmt.Errorf("leads: select failed: %w", err)
	}
	lead.Status = Status(status)
	return &lead, nil
}
