package storage

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	pgxmigrate "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/sqlite/*.sql migrations/postgres/*.sql
var migrationsFS embed.FS

// RunMigrations applies the embedded migrations for the given driver. It opens
// its own connection because the migrate driver closes it when done.
func RunMigrations(driver, dsn string) error {
	sqlDriver := "sqlite"
	if driver == DriverPostgres {
		sqlDriver = "pgx"
	}

	migrateDB, err := sql.Open(sqlDriver, dsn)
	if err != nil {
		return fmt.Errorf("open migration database: %w", err)
	}
	defer migrateDB.Close()

	var dbDriver database.Driver
	switch driver {
	case DriverPostgres:
		dbDriver, err = pgxmigrate.WithInstance(migrateDB, &pgxmigrate.Config{})
	default:
		driver = DriverSQLite
		dbDriver, err = sqlite.WithInstance(migrateDB, &sqlite.Config{})
	}
	if err != nil {
		return fmt.Errorf("create %s migrate driver: %w", driver, err)
	}

	sub, err := fs.Sub(migrationsFS, "migrations/"+driver)
	if err != nil {
		return fmt.Errorf("open %s migrations: %w", driver, err)
	}
	src, err := iofs.New(sub, ".")
	if err != nil {
		return fmt.Errorf("create iofs source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, driver, dbDriver)
	if err != nil {
		return fmt.Errorf("create migrate instance: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("run migrations: %w", err)
	}

	return nil
}
