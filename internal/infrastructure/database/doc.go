// Package database owns the marketplace's SQLite connection and schema
// migrations.
//
// Repositories take the embedded *sql.DB; this package only opens it,
// applies the embedded migrations and reports health. Migrations are
// forward-only in production; MigrateDown exists for development.
//
// Usage:
//
//	db, err := database.Open(ctx, database.Config{Path: cfg.Database.Path, WALMode: true})
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx); err != nil {
//	    return err
//	}
package database
