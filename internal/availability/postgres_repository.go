package availability

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresRepository stores availability windows in the relational
// database. It writes the same table the slot resolver reads.
type PostgresRepository struct {
	db querier
}

// NewPostgresRepository initializes a repo backed by pgxpool.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	if pool == nil {
		panic("availability: pgx pool required")
	}
	return &PostgresRepository{db: pool}
}

func newPostgresRepositoryWithQuerier(db querier) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a new window row.
func (r *PostgresRepository) Create(ctx context.Context, req *CreateWindowRequest) (*WindowEntry, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	id := uuid.New()
	query := `
		INSERT INTO doctor_availability (id, doctor_id, branch_code, weekday, on_date, start_time, end_time, is_available)
		VALUES ($1, $2, $3, $4, $5::date, $6::time, $7::time, $8)
		RETURNING created_at
	`
	var createdAt time.Time
	err := r.db.QueryRow(ctx, query,
		id, req.DoctorID, req.Branch, req.Weekday, req.Date, req.Start, req.End, req.IsAvailable(),
	).Scan(&createdAt)
	if err != nil {
		return nil, fmt.Errorf("availability: insert failed: %w", err)
	}

	return &WindowEntry{
		ID:        id.String(),
		DoctorID:  req.DoctorID,
		Branch:    req.Branch,
		Weekday:   req.Weekday,
		Date:      req.Date,
		Start:     req.Start,
		End:       req.End,
		Available: req.IsAvailable(),
		CreatedAt: createdAt,
	}, nil
}

// ListForDoctor returns every window for a doctor, recurring first.
func (r *PostgresRepository) ListForDoctor(ctx context.Context, doctorID string) ([]*WindowEntry, error) {
	query := `
		SELECT id::text, doctor_id::text, branch_code, weekday,
		       to_char(on_date, 'YYYY-MM-DD'), to_char(start_time, 'HH24:MI'), to_char(end_time, 'HH24:MI'),
		       is_available, created_at
		FROM doctor_availability
		WHERE doctor_id = $1
		ORDER BY on_date NULLS FIRST, weekday, start_time
	`
	rows, err := r.db.Query(ctx, query, doctorID)
	if err != nil {
		return nil, fmt.Errorf("availability: list failed: %w", err)
	}
	defer rows.Close()

	var out []*WindowEntry
	for rows.Next() {
		var w WindowEntry
		if err := rows.Scan(&w.ID, &w.DoctorID, &w.Branch, &w.Weekday, &w.Date, &w.Start, &w.End, &w.Available, &w.CreatedAt); err != nil {
			return nil, fmt.Errorf("availability: scan failed: %w", err)
		}
		out = append(out, &w)
	}
	return out, rows.Err()
}

// Delete removes a window owned by the doctor.
func (r *PostgresRepository) Delete(ctx context.Context, doctorID, windowID string) error {
	ct, err := r.db.Exec(ctx, `DELETE FROM doctor_availability WHERE id = $1 AND doctor_id = $2`, windowID, doctorID)
	if err != nil {
		return fmt.Errorf("availability: delete failed: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrWindowNotFound
	}
	return nil
}
