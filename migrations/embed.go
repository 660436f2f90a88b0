// Package migrations embeds the SQL migration files into the binary so the
// service can migrate its database without the files on disk.
package migrations

import (
	"embed"

	"github.com/nerrad567/marketplace-core/internal/infrastructure/database"
)

//go:embed *.sql
var migrationsFS embed.FS

// FS exposes the embedded migrations for tests in other packages.
func FS() embed.FS {
	return migrationsFS
}

func init() {
	database.MigrationsFS = migrationsFS
	database.MigrationsDir = "."
}
