package auth

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/nerrad567/marketplace-core/internal/infrastructure/database"
	_ "github.com/nerrad567/marketplace-core/migrations"
)

// testSecret is a signing key that satisfies the config minimum length.
var testSecret = []byte("test-secret-key-at-least-32-characters-long")

// testDB creates a temporary SQLite database with all migrations applied.
// The database file is removed when the test completes.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := database.Open(t.Context(), database.Config{
		Path:        filepath.Join(t.TempDir(), "auth-test.db"),
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

// testService wires a Service over a fresh database at the minimum bcrypt cost.
func testService(t *testing.T) (*Service, *sql.DB) {
	t.Helper()

	db := testDB(t)
	svc := NewService(
		NewUserRepository(db),
		NewVendorRepository(db),
		NewTokenIssuer(testSecret, DefaultTokenTTL),
		MinBcryptCost,
	)
	return svc, db
}
