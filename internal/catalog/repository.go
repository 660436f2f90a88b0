package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ProductRepository persists products. Every method except Create and
// ListByCategory is scoped to the owning vendor.
type ProductRepository interface {
	Create(ctx context.Context, p *Product) error
	GetOwned(ctx context.Context, id, vendorID string) (*Product, error)
	UpdateOwned(ctx context.Context, id, vendorID string, u ProductUpdate) (*Product, error)
	ToggleDeleted(ctx context.Context, id, vendorID string) (*Product, error)
	ListByCategory(ctx context.Context, category string) ([]Product, error)
}

// SQLiteProductRepository implements ProductRepository using SQLite.
type SQLiteProductRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteProductRepository creates a product repository.
func NewSQLiteProductRepository(db *sql.DB) *SQLiteProductRepository {
	return &SQLiteProductRepository{db: db, now: time.Now}
}

const productColumns = `id, vendor_id, name, description, price, category, image, deleted, created_at, updated_at`

// timestamp returns the current time truncated to RFC3339 precision, and
// its stored form.
func (r *SQLiteProductRepository) timestamp() (time.Time, string) {
	s := r.now().UTC().Format(time.RFC3339)
	t, _ := time.Parse(time.RFC3339, s) //nolint:errcheck // format is controlled
	return t, s
}

// Create inserts p, assigning its ID and timestamps. Deleted is always
// false on insert.
func (r *SQLiteProductRepository) Create(ctx context.Context, p *Product) error {
	if p.ID == "" {
		p.ID = "prd-" + uuid.NewString()
	}
	p.Deleted = false
	ts, stamp := r.timestamp()
	p.CreatedAt, p.UpdatedAt = ts, ts

	const query = `INSERT INTO products (` + productColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, 0, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		p.ID, p.VendorID, p.Name, p.Description, p.Price, p.Category, p.Image, stamp, stamp)
	if err != nil {
		return fmt.Errorf("inserting product %s: %w", p.ID, err)
	}
	return nil
}

// GetOwned returns the product with id if vendorID owns it. Soft-deleted
// products are still returned so the owner can restore them.
func (r *SQLiteProductRepository) GetOwned(ctx context.Context, id, vendorID string) (*Product, error) {
	return r.getOwned(ctx, r.db, id, vendorID)
}

type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (r *SQLiteProductRepository) getOwned(ctx context.Context, q queryRower, id, vendorID string) (*Product, error) {
	const query = `SELECT ` + productColumns + ` FROM products WHERE id = ? AND vendor_id = ?`

	p, err := scanProduct(q.QueryRowContext(ctx, query, id, vendorID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("getting product %s: %w", id, err)
	}
	return p, nil
}

// UpdateOwned applies u to the product if vendorID owns it and returns the
// updated row. A missing or foreign product is ErrProductNotFound.
func (r *SQLiteProductRepository) UpdateOwned(ctx context.Context, id, vendorID string, u ProductUpdate) (*Product, error) {
	sets := []string{"updated_at = ?"}
	_, stamp := r.timestamp()
	args := []any{stamp}

	if u.Name != nil {
		sets = append(sets, "name = ?")
		args = append(args, *u.Name)
	}
	if u.Description != nil {
		sets = append(sets, "description = ?")
		args = append(args, *u.Description)
	}
	if u.Price != nil {
		sets = append(sets, "price = ?")
		args = append(args, *u.Price)
	}
	if u.Category != nil {
		sets = append(sets, "category = ?")
		args = append(args, *u.Category)
	}
	if u.Image != nil {
		sets = append(sets, "image = ?")
		args = append(args, *u.Image)
	}
	args = append(args, id, vendorID)

	query := "UPDATE products SET " + strings.Join(sets, ", ") + " WHERE id = ? AND vendor_id = ?" //nolint:gosec // SET list is built from fixed column names
	return r.mutateOwned(ctx, id, vendorID, query, args...)
}

// ToggleDeleted flips the soft-delete flag and returns the updated row.
func (r *SQLiteProductRepository) ToggleDeleted(ctx context.Context, id, vendorID string) (*Product, error) {
	_, stamp := r.timestamp()
	const query = `UPDATE products SET deleted = 1 - deleted, updated_at = ? WHERE id = ? AND vendor_id = ?`
	return r.mutateOwned(ctx, id, vendorID, query, stamp, id, vendorID)
}

// mutateOwned runs an owner-filtered UPDATE and reads the row back in the
// same transaction.
func (r *SQLiteProductRepository) mutateOwned(ctx context.Context, id, vendorID, query string, args ...any) (*Product, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("updating product %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("updating product %s: %w", id, err)
	}
	if n == 0 {
		return nil, ErrProductNotFound
	}

	p, err := r.getOwned(ctx, tx, id, vendorID)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing product %s: %w", id, err)
	}
	return p, nil
}

// ListByCategory returns the non-deleted products in category, newest
// first. Products stamped in the same second keep reverse insertion
// order. The match is case-insensitive.
func (r *SQLiteProductRepository) ListByCategory(ctx context.Context, category string) ([]Product, error) {
	const query = `SELECT ` + productColumns + ` FROM products
		WHERE category = ? COLLATE NOCASE AND deleted = 0
		ORDER BY created_at DESC, rowid DESC`

	rows, err := r.db.QueryContext(ctx, query, strings.TrimSpace(category))
	if err != nil {
		return nil, fmt.Errorf("listing products in %q: %w", category, err)
	}
	defer rows.Close()

	products := []Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning product: %w", err)
		}
		products = append(products, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating products: %w", err)
	}
	return products, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanProduct(s scanner) (*Product, error) {
	var p Product
	var deleted int
	var createdAt, updatedAt string

	if err := s.Scan(&p.ID, &p.VendorID, &p.Name, &p.Description, &p.Price,
		&p.Category, &p.Image, &deleted, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	p.Deleted = deleted != 0
	p.CreatedAt, _ = time.Parse(time.RFC3339, createdAt) //nolint:errcheck // format is controlled
	p.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt) //nolint:errcheck // format is controlled
	return &p, nil
}
