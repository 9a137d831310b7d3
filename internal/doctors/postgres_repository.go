package doctors

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

// PostgresRepository stores doctors in the relational database.
type PostgresRepository struct {
	db querier
}

// NewPostgresRepository initializes a repo backed by pgxpool.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	if pool == nil {
		panic("doctors: pgx pool required")
	}
	return &PostgresRepository{db: pool}
}

func newPostgresRepositoryWithQuerier(db querier) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a new doctor and their branch assignments.
func (r *PostgresRepository) Create(ctx context.Context, req *CreateDoctorRequest) (*Doctor, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	id := uuid.New()
	specialties := NormalizeSpecialties(req.Specialties)
	query := `
		INSERT INTO doctors (id, name, email, specialties, enabled)
		VALUES ($1, $2, $3, $4, true)
		RETURNING created_at
	`
	var createdAt time.Time
	if err := r.db.QueryRow(ctx, query, id, req.Name, req.Email, specialties).Scan(&createdAt); err != nil {
		return nil, fmt.Errorf("doctors: insert failed: %w", err)
	}
	if err := r.replaceBranches(ctx, id.String(), req.Branches); err != nil {
		return nil, err
	}

	return &Doctor{
		ID:          id.String(),
		Name:        req.Name,
		Email:       req.Email,
		Specialties: specialties,
		Branches:    append([]string(nil), req.Branches...),
		Enabled:     true,
		CreatedAt:   createdAt,
	}, nil
}

// GetByID fetches a doctor with branch assignments.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*Doctor, error) {
	query := `
		SELECT d.id::text, d.name, d.email, d.specialties, d.enabled, d.created_at,
		       coalesce(array_agg(db.branch_code ORDER BY db.branch_code) FILTER (WHERE db.branch_code IS NOT NULL), '{}')
		FROM doctors d
		LEFT JOIN doctor_branches db ON db.doctor_id = d.id
		WHERE d.id = $1
		GROUP BY d.id
	`
	var doc Doctor
	err := r.db.QueryRow(ctx, query, id).Scan(
		&doc.ID, &doc.Name, &doc.Email, &doc.Specialties, &doc.Enabled, &doc.CreatedAt, &doc.Branches,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrDoctorNotFound
		}
		return nil, fmt.Errorf("doctors: select failed: %w", err)
	}
	return &doc, nil
}

// List returns doctors, optionally filtered to a branch assignment.
func (r *PostgresRepository) List(ctx context.Context, branch string) ([]*Doctor, error) {
	query := `
		SELECT d.id::text, d.name, d.email, d.specialties, d.enabled, d.created_at,
		       coalesce(array_agg(db.branch_code ORDER BY db.branch_code) FILTER (WHERE db.branch_code IS NOT NULL), '{}')
		FROM doctors d
		LEFT JOIN doctor_branches db ON db.doctor_id = d.id
		WHERE $1 = '' OR EXISTS (
			SELECT 1 FROM doctor_branches f WHERE f.doctor_id = d.id AND f.branch_code = $1
		)
		GROUP BY d.id
		ORDER BY d.name
	`
	rows, err := r.db.Query(ctx, query, branch)
	if err != nil {
		return nil, fmt.Errorf("doctors: list failed: %w", err)
	}
	defer rows.Close()

	var out []*Doctor
	for rows.Next() {
		var doc Doctor
		if err := rows.Scan(&doc.ID, &doc.Name, &doc.Email, &doc.Specialties, &doc.Enabled, &doc.CreatedAt, &doc.Branches); err != nil {
			return nil, fmt.Errorf("doctors: scan failed: %w", err)
		}
		out = append(out, &doc)
	}
	return out, rows.Err()
}

// Update applies a partial update and returns the fresh row.
func (r *PostgresRepository) Update(ctx context.Context, id string, req *UpdateDoctorRequest) (*Doctor, error) {
	query := `
		UPDATE doctors
		SET name = coalesce($2, name),
		    email = coalesce($3, email),
		    specialties = coalesce($4, specialties),
		    enabled = coalesce($5, enabled)
		WHERE id = $1
	`
	var specialties []string
	var specialtiesArg any
	if req.Specialties != nil {
		specialties = NormalizeSpecialties(*req.Specialties)
		specialtiesArg = specialties
	}
	ct, err := r.db.Exec(ctx, query, id, req.Name, req.Email, specialtiesArg, req.Enabled)
	if err != nil {
		return nil, fmt.Errorf("doctors: update failed: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return nil, ErrDoctorNotFound
	}
	if req.Branches != nil {
		if err := r.replaceBranches(ctx, id, *req.Branches); err != nil {
			return nil, err
		}
	}
	return r.GetByID(ctx, id)
}

func (r *PostgresRepository) replaceBranches(ctx context.Context, id string, branchCodes []string) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM doctor_branches WHERE doctor_id = $1`, id); err != nil {
		return fmt.Errorf("doctors: branch unassign failed: %w", err)
	}
	for _, code := range branchCodes {
		if _, err := r.db.Exec(ctx, `INSERT INTO doctor_branches (doctor_id, branch_code) VALUES ($1, $2)`, id, code); err != nil {
			return fmt.Errorf("doctors: branch assign failed: %w", err)
		}
	}
	return nil
}
