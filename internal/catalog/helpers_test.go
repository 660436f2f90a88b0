package catalog

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/nerrad567/marketplace-core/internal/infrastructure/database"
	_ "github.com/nerrad567/marketplace-core/migrations"
)

// testDB opens a migrated database in a temp dir.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := database.Open(t.Context(), database.Config{
		Path:        filepath.Join(t.TempDir(), "catalog-test.db"),
		WALMode:     true,
		BusyTimeout: 5,
	})
	if err != nil {
		t.Fatalf("opening test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.Migrate(t.Context()); err != nil {
		t.Fatalf("migrating test db: %v", err)
	}
	return db.DB
}

// insertVendor adds a bare vendor row so products can reference it.
func insertVendor(t *testing.T, db *sql.DB, id string) {
	t.Helper()

	now := time.Now().UTC().Format(time.RFC3339)
	_, err := db.ExecContext(context.Background(),
		`INSERT INTO vendors (id, email, password_hash, role, name, store_name, created_at, updated_at)
		 VALUES (?, ?, 'x', 'vendor', 'N', 'S', ?, ?)`,
		id, id+"@example.com", now, now)
	if err != nil {
		t.Fatalf("inserting vendor %s: %v", id, err)
	}
}

// newProduct inserts a product owned by vendorID in category.
func newProduct(t *testing.T, repo *SQLiteProductRepository, vendorID, name, category string) *Product {
	t.Helper()

	p := &Product{
		VendorID:    vendorID,
		Name:        name,
		Description: name + " description",
		Price:       19.99,
		Category:    category,
		Image:       "/uploads/1700000000000-1.png",
	}
	if err := repo.Create(context.Background(), p); err != nil {
		t.Fatalf("Create(%s) error = %v", name, err)
	}
	return p
}

func strPtr(s string) *string { return &s }
