package storage

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// ErrInMemoryDatabase rejects SQLite paths that name a private in-memory
// database. Each handle to such a path sees its own empty database, so the
// schema applied by the migrator would never reach the repository pool.
var ErrInMemoryDatabase = errors.New("in-memory sqlite database is not supported")

// IsInMemoryPath reports whether path opens an in-memory SQLite database.
func IsInMemoryPath(path string) bool {
	p := strings.TrimSpace(path)
	return p == ":memory:" ||
		strings.HasPrefix(p, "file::memory:") ||
		strings.Contains(p, "mode=memory")
}

// RunMigrations brings the ledger schema at dbPath up to date on a handle of
// its own.
func RunMigrations(dbPath string) error {
	if IsInMemoryPath(dbPath) {
		return fmt.Errorf("%w: %q", ErrInMemoryDatabase, dbPath)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return fmt.Errorf("open migration database: %w", err)
	}
	driver, err := sqlite.WithInstance(db, &sqlite.Config{})
	if err != nil {
		db.Close()
		return fmt.Errorf("create sqlite driver: %w", err)
	}
	return Apply(migrationsFS, "sqlite", driver)
}

// Apply runs the pending migrations under fsys/migrations. The driver, and
// the database handle behind it, is closed on return, so callers hand it a
// handle dedicated to migrating.
func Apply(fsys fs.FS, dbName string, driver database.Driver) (err error) {
	src, err := iofs.New(fsys, "migrations")
	if err != nil {
		driver.Close()
		return fmt.Errorf("read migrations: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, dbName, driver)
	if err != nil {
		src.Close()
		driver.Close()
		return fmt.Errorf("create migrator: %w", err)
	}
	defer func() {
		srcErr, dbErr := m.Close()
		if err == nil {
			err = errors.Join(srcErr, dbErr)
		}
	}()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply %s migrations: %w", dbName, err)
	}
	return nil
}
