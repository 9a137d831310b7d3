package invoices

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

// PostgresRepository stores invoices in the relational database.
type PostgresRepository struct {
	db querier
}

// NewPostgresRepository initializes a repo backed by pgxpool.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	if pool == nil {
		panic("invoices: pgx pool required")
	}
	return &PostgresRepository{db: pool}
}

func newPostgresRepositoryWithQuerier(db querier) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const invoiceColumns = `
	id::text, appointment_id::text, patient_name, patient_email, branch_code,
	total_cents, status, issued_at, paid_at, created_at, updated_at
`

func scanInvoice(row pgx.Row) (*Invoice, error) {
	var inv Invoice
	err := row.Scan(
		&inv.ID, &inv.AppointmentID, &inv.PatientName, &inv.PatientEmail, &inv.Branch,
		&inv.TotalCents, &inv.Status, &inv.IssuedAt, &inv.PaidAt, &inv.CreatedAt, &inv.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

// Create inserts a draft invoice and its line items.
func (r *PostgresRepository) Create(ctx context.Context, inv *Invoice) (*Invoice, error) {
	id := uuid.New()
	query := `
		INSERT INTO invoices
			(id, appointment_id, patient_name, patient_email, branch_code, total_cents, status)
		VALUES ($1, nullif($2, '')::uuid, $3, $4, $5, $6, $7)
		RETURNING ` + invoiceColumns
	created, err := scanInvoice(r.db.QueryRow(ctx, query,
		id, inv.AppointmentID, inv.PatientName, inv.PatientEmail, inv.Branch,
		inv.TotalCents, inv.Status,
	))
	if err != nil {
		return nil, fmt.Errorf("invoices: insert failed: %w", err)
	}

	itemQuery := `
		INSERT INTO invoice_items (id, invoice_id, description, quantity, unit_cents)
		VALUES ($1, $2, $3, $4, $5)
	`
	for _, item := range inv.Items {
		itemID := uuid.New()
		if _, err := r.db.Exec(ctx, itemQuery, itemID, id, item.Description, item.Quantity, item.UnitCents); err != nil {
			return nil, fmt.Errorf("invoices: insert line item failed: %w", err)
		}
		item.ID = itemID.String()
		created.Items = append(created.Items, item)
	}
	return created, nil
}

// GetByID fetches one invoice with its line items.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE id = $1`
	inv, err := scanInvoice(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrInvoiceNotFound
		}
		return nil, fmt.Errorf("invoices: select failed: %w", err)
	}
	if err := r.loadItems(ctx, inv); err != nil {
		return nil, err
	}
	return inv, nil
}

// List returns invoices matching the filter, without line items.
func (r *PostgresRepository) List(ctx context.Context, filter ListFilter) ([]*Invoice, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	query := `
		SELECT ` + invoiceColumns + `
		FROM invoices
		WHERE ($1 = '' OR branch_code = $1)
		  AND ($2 = '' OR appointment_id::text = $2)
		  AND ($3 = '' OR status = $3)
		ORDER BY created_at DESC
		LIMIT $4 OFFSET $5
	`
	rows, err := r.db.Query(ctx, query,
		filter.Branch, filter.AppointmentID, string(filter.Status), limit, filter.Offset)
	if err != nil {
		return nil, fmt.Errorf("invoices: list failed: %w", err)
	}
	defer rows.Close()

	var out []*Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, fmt.Errorf("invoices: scan failed: %w", err)
		}
		out = append(out, inv)
	}
	return out, rows.Err()
}

// UpdateStatus sets a new status and stamps issued_at or paid_at.
func (r *PostgresRepository) UpdateStatus(ctx context.Context, id string, status Status, at time.Time) (*Invoice, error) {
	query := `
		UPDATE invoices
		SET status = $2,
		    issued_at = CASE WHEN $2 = 'issued' THEN $3 ELSE issued_at END,
		    paid_at = CASE WHEN $2 = 'paid' THEN $3 ELSE paid_at END,
		    updated_at = $3
		WHERE id = $1
		RETURNING ` + invoiceColumns
	inv, err := scanInvoice(r.db.QueryRow(ctx, query, id, status, at))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrInvoiceNotFound
		}
		return nil, fmt.Errorf("invoices: status update failed: %w", err)
	}
	if err := r.loadItems(ctx, inv); err != nil {
		return nil, err
	}
	return inv, nil
}

func (r *PostgresRepository) loadItems(ctx context.Context, inv *Invoice) error {
	query := `
		SELECT id::text, description, quantity, unit_cents
		FROM invoice_items
		WHERE invoice_id = $1
		ORDER BY created_at
	`
	rows, err := r.db.Query(ctx, query, inv.ID)
	if err != nil {
		return fmt.Errorf("invoices: load items failed: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item LineItem
		if err := rows.Scan(&item.ID, &item.Description, &item.Quantity, &item.UnitCents); err != nil {
			return fmt.Errorf("invoices: scan item failed: %w", err)
		}
		inv.Items = append(inv.Items, item)
	}
	return rows.Err()
}
