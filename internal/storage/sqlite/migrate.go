package sqlite

import (
	"database/sql"
	"embed"
	"fmt"

	msqlite "github.com/golang-migrate/migrate/v4/database/sqlite"

	"tracker/internal/storage"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// RunMigrations brings the schema of the file at dbPath up to date on a
// connection of its own, since the migrator closes what it is given.
func RunMigrations(dbPath string) error {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return fmt.Errorf("open %s for migration: %w", dbPath, err)
	}

	driver, err := msqlite.WithInstance(db, &msqlite.Config{})
	if err != nil {
		db.Close()
		return fmt.Errorf("sqlite migration driver: %w", err)
	}
	return storage.Migrate(migrationsFS, "migrations", "sqlite", driver)
}
