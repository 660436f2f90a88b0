package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"
)

// PrincipalRepository persists one collection of principals (users or vendors).
// Every record in a repository carries that repository's Role.
type PrincipalRepository interface {
	Role() Role
	Create(ctx context.Context, p *Principal) error
	GetByID(ctx context.Context, id string) (*Principal, error)
	GetByEmail(ctx context.Context, email string) (*Principal, error)
	GetIdentity(ctx context.Context, id string) (*Identity, error)
	EmailExists(ctx context.Context, email string) (bool, error)
}

// collection describes the table backing a principal kind.
type collection struct {
	table    string
	idPrefix string
	role     Role
	vendor   bool // carries name and store_name columns
}

var (
	usersCollection   = collection{table: "users", idPrefix: "usr-", role: RoleUser}
	vendorsCollection = collection{table: "vendors", idPrefix: "vnd-", role: RoleVendor, vendor: true}
)

func (c collection) columns() string {
	if c.vendor {
		return "id, email, password_hash, role, name, store_name, created_at, updated_at"
	}
	return "id, email, password_hash, role, created_at, updated_at"
}

// SQLitePrincipalRepository implements PrincipalRepository using SQLite.
// The email column is declared UNIQUE COLLATE NOCASE, which is what actually
// prevents duplicate signups racing past the existence check.
type SQLitePrincipalRepository struct {
	db   *sql.DB
	coll collection
}

// NewUserRepository creates a repository over the users table.
func NewUserRepository(db *sql.DB) *SQLitePrincipalRepository {
	return &SQLitePrincipalRepository{db: db, coll: usersCollection}
}

// NewVendorRepository creates a repository over the vendors table.
func NewVendorRepository(db *sql.DB) *SQLitePrincipalRepository {
	return &SQLitePrincipalRepository{db: db, coll: vendorsCollection}
}

// Role returns the role every principal in this collection carries.
func (r *SQLitePrincipalRepository) Role() Role {
	return r.coll.role
}

// Create inserts a new principal. The ID, role and timestamps are assigned
// here; a duplicate email returns ErrEmailInUse.
func (r *SQLitePrincipalRepository) Create(ctx context.Context, p *Principal) error {
	if p.ID == "" {
		p.ID = r.coll.idPrefix + uuid.NewString()
	}
	p.Role = r.coll.role

	now := time.Now().UTC().Format(time.RFC3339)
	p.CreatedAt, _ = time.Parse(time.RFC3339, now) //nolint:errcheck // format is controlled
	p.UpdatedAt = p.CreatedAt

	var err error
	if r.coll.vendor {
		_, err = r.db.ExecContext(ctx,
			`INSERT INTO vendors (id, email, password_hash, role, name, store_name, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			p.ID, p.Email, p.PasswordHash, string(p.Role), p.Name, p.StoreName, now, now,
		)
	} else {
		_, err = r.db.ExecContext(ctx,
			`INSERT INTO users (id, email, password_hash, role, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			p.ID, p.Email, p.PasswordHash, string(p.Role), now, now,
		)
	}
	if err != nil {
		if isUniqueViolation(err) {
			return ErrEmailInUse
		}
		return fmt.Errorf("creating %s: %w", r.coll.role, err)
	}

	return nil
}

// GetByID retrieves a full principal record by ID.
func (r *SQLitePrincipalRepository) GetByID(ctx context.Context, id string) (*Principal, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE id = ?", r.coll.columns(), r.coll.table) //nolint:gosec // table and columns are package constants
	return r.getPrincipal(ctx, query, id)
}

// GetByEmail retrieves a full principal record by email (case-insensitive).
func (r *SQLitePrincipalRepository) GetByEmail(ctx context.Context, email string) (*Principal, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE email = ?", r.coll.columns(), r.coll.table) //nolint:gosec // table and columns are package constants
	return r.getPrincipal(ctx, query, strings.TrimSpace(email))
}

// GetIdentity loads only id, email and role. The auth gate uses this on
// every request so the password hash is never read outside login.
func (r *SQLitePrincipalRepository) GetIdentity(ctx context.Context, id string) (*Identity, error) {
	query := fmt.Sprintf("SELECT id, email, role FROM %s WHERE id = ?", r.coll.table) //nolint:gosec // table is a package constant

	var ident Identity
	var role string
	err := r.db.QueryRowContext(ctx, query, id).Scan(&ident.ID, &ident.Email, &role)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPrincipalNotFound
		}
		return nil, fmt.Errorf("getting %s identity: %w", r.coll.role, err)
	}
	ident.Role = Role(role)
	return &ident, nil
}

// EmailExists reports whether a principal with this email is already stored.
func (r *SQLitePrincipalRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE email = ?", r.coll.table) //nolint:gosec // table is a package constant

	var n int
	if err := r.db.QueryRowContext(ctx, query, strings.TrimSpace(email)).Scan(&n); err != nil {
		return false, fmt.Errorf("checking %s email: %w", r.coll.role, err)
	}
	return n > 0, nil
}

func (r *SQLitePrincipalRepository) getPrincipal(ctx context.Context, query string, arg any) (*Principal, error) {
	p, err := r.scanPrincipal(r.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPrincipalNotFound
		}
		return nil, fmt.Errorf("getting %s: %w", r.coll.role, err)
	}
	return p, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func (r *SQLitePrincipalRepository) scanPrincipal(s scanner) (*Principal, error) {
	var p Principal
	var role, createdAt, updatedAt string

	var err error
	if r.coll.vendor {
		err = s.Scan(&p.ID, &p.Email, &p.PasswordHash, &role, &p.Name, &p.StoreName, &createdAt, &updatedAt)
	} else {
		err = s.Scan(&p.ID, &p.Email, &p.PasswordHash, &role, &createdAt, &updatedAt)
	}
	if err != nil {
		return nil, err
	}

	p.Role = Role(role)
	p.CreatedAt, _ = time.Parse(time.RFC3339, createdAt) //nolint:errcheck // format is controlled
	p.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt) //nolint:errcheck // format is controlled
	return &p, nil
}

// isUniqueViolation reports whether err is a SQLite UNIQUE constraint failure.
func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
	}
	return false
}
