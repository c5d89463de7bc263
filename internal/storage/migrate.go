package storage

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

// Migrate applies the pending migrations under dir in fsys through driver.
// Already being at the latest version is not an error. Closing the
// migration also closes driver and the connection it wraps.
func Migrate(fsys fs.FS, dir, databaseName string, driver database.Driver) error {
	src, err := iofs.New(fsys, dir)
	if err != nil {
		return fmt.Errorf("open %s migrations: %w", databaseName, err)
	}

	m, err := migrate.NewWithInstance("iofs", src, databaseName, driver)
	if err != nil {
		return fmt.Errorf("prepare %s migrations: %w", databaseName, err)
	}
	defer m.Close()

	if err := m.Up(); errors.Is(err, migrate.ErrNoChange) {
		return nil
	} else if err != nil {
		return fmt.Errorf("apply %s migrations: %w", databaseName, err)
	}
	return nil
}
