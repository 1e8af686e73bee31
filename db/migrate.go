package db

import (
	"embed"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Migrate applies every pending up migration to the database at connString.
// It is a no-op when the schema is already current.
func Migrate(connString string) error {
	dsn, err := migrateURL(connString)
	if err != nil {
		return err
	}

	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("db: open migrations: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", src, dsn)
	if err != nil {
		return fmt.Errorf("db: init migrate: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("db: migrate up: %w", err)
	}
	return nil
}

// migrateURL rewrites a libpq-style URL to the scheme the pgx/v5 migrate
// driver registers.
func migrateURL(connString string) (string, error) {
	switch {
	case connString == "":
		return "", fmt.Errorf("db: empty connection string")
	case strings.HasPrefix(connString, "postgres://"):
		return "pgx5://" + strings.TrimPrefix(connString, "postgres://"), nil
	case strings.HasPrefix(connString, "postgresql://"):
		return "pgx5://" + strings.TrimPrefix(connString, "postgresql://"), nil
	case strings.HasPrefix(connString, "pgx5://"):
		return connString, nil
	default:
		return "", fmt.Errorf("db: unsupported connection string scheme")
	}
}
