package branches

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresRepository stores branches in the relational database.
type PostgresRepository struct {
	db querier
}

// NewPostgresRepository initializes a repo backed by pgxpool.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	if pool == nil {
		panic("branches: pgx pool required")
	}
	return &PostgresRepository{db: pool}
}

func newPostgresRepositoryWithQuerier(db querier) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Upsert inserts or updates a branch keyed by code.
func (r *PostgresRepository) Upsert(ctx context.Context, req *UpsertBranchRequest) (*Branch, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	query := `
		INSERT INTO branches (code, name, address, phone)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (code) DO UPDATE SET name = $2, address = $3, phone = $4
		RETURNING created_at
	`
	var createdAt time.Time
	if err := r.db.QueryRow(ctx, query, req.Code, req.Name, req.Address, req.Phone).Scan(&createdAt); err != nil {
		return nil, fmt.Errorf("branches: upsert failed: %w", err)
	}
	return &Branch{
		Code:      req.Code,
		Name:      req.Name,
		Address:   req.Address,
		Phone:     req.Phone,
		CreatedAt: createdAt,
	}, nil
}

// GetByCode fetches a branch.
func (r *PostgresRepository) GetByCode(ctx context.Context, code string) (*Branch, error) {
	query := `
		SELECT code, name, address, phone, created_at
		FROM branches
		WHERE code = $1
	`
	var b Branch
	err := r.db.QueryRow(ctx, query, code).Scan(&b.Code, &b.Name, &b.Address, &b.Phone, &b.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrBranchNotFound
		}
		return nil, fmt.Errorf("branches: select failed: %w", err)
	}
	return &b, nil
}

// List returns all branches ordered by code.
func (r *PostgresRepository) List(ctx context.Context) ([]*Branch, error) {
	query := `
		SELECT code, name, address, phone, created_at
		FROM branches
		ORDER BY code
	`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("branches: list failed: %w", err)
	}
	defer rows.Close()

	var out []*Branch
	for rows.Next() {
		var b Branch
		if err := rows.Scan(&b.Code, &b.Name, &b.Address, &b.Phone, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("branches: scan failed: %w", err)
		}
		out = append(out, &b)
	}
	return out, rows.Err()
}

// Hours returns the weekly schedule for a branch. Weekdays without a
// row are omitted; callers treat them as closed.
func (r *PostgresRepository) Hours(ctx context.Context, code string) ([]DaySchedule, error) {
	query := `
		SELECT weekday, coalesce(to_char(open_time, 'HH24:MI'), ''), coalesce(to_char(close_time, 'HH24:MI'), ''), closed
		FROM branch_hours
		WHERE branch_code = $1
		ORDER BY weekday
	`
	rows, err := r.db.Query(ctx, query, code)
	if err != nil {
		return nil, fmt.Errorf("branches: hours select failed: %w", err)
	}
	defer rows.Close()

	var days []DaySchedule
	for rows.Next() {
		var d DaySchedule
		if err := rows.Scan(&d.Weekday, &d.Open, &d.Close, &d.Closed); err != nil {
			return nil, fmt.Errorf("branches: hours scan failed: %w", err)
		}
		days = append(days, d)
	}
	return days, rows.Err()
}

// SetHours replaces the branch's full weekly schedule.
func (r *PostgresRepository) SetHours(ctx context.Context, code string, days []DaySchedule) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM branch_hours WHERE branch_code = $1`, code); err != nil {
		return fmt.Errorf("branches: hours delete failed: %w", err)
	}
	query := `
		INSERT INTO branch_hours (branch_code, weekday, open_time, close_time, closed)
		VALUES ($1, $2, nullif($3, '')::time, nullif($4, '')::time, $5)
	`
	for _, d := range days {
		open, close := d.Open, d.Close
		if d.Closed {
			open, close = "", ""
		}
		if _, err := r.db.Exec(ctx, query, code, d.Weekday, open, close, d.Closed); err != nil {
			return fmt.Errorf("branches: hours insert failed: %w", err)
		}
	}
	return nil
}
