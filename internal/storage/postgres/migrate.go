package postgres

import (
	"embed"
	"fmt"

	mpgx "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"

	"tracker/internal/storage"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// RunMigrations brings the schema up to date over a database/sql handle
// built from the pool's connection settings.
func RunMigrations(pool *pgxpool.Pool) error {
	db := stdlib.OpenDB(*pool.Config().ConnConfig)

	driver, err := mpgx.WithInstance(db, &mpgx.Config{})
	if err != nil {
		db.Close()
		return fmt.Errorf("pgx migration driver: %w", err)
	}
	return storage.Migrate(migrationsFS, "migrations", "pgx5", driver)
}
