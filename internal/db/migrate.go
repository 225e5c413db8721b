package db

import (
	"context"
	"database/sql"
	"embed"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/sirupsen/logrus"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const migrationsDir = "migrations"

var openDB = func(dsn string) (*sql.DB, error) {
	return goose.OpenDBWithDriver("pgx", dsn)
}

func withMigrations(dsn string, fn func(db *sql.DB) error) error {
	conn, err := openDB(dsn)
	if err != nil {
		return fmt.Errorf("open migration connection: %w", err)
	}
	defer conn.Close()

	goose.SetBaseFS(migrationsFS)
	goose.SetLogger(logrus.StandardLogger())
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	return fn(conn)
}

// MigrateUp applies every pending migration.
func MigrateUp(ctx context.Context, dsn string) error {
	return withMigrations(dsn, func(conn *sql.DB) error {
		if err := goose.UpContext(ctx, conn, migrationsDir); err != nil {
			return fmt.Errorf("migrate up: %w", err)
		}
		return nil
	})
}

// MigrateDown rolls back the given number of migrations.
func MigrateDown(ctx context.Context, dsn string, steps int) error {
	if steps <= 0 {
		return fmt.Errorf("steps must be > 0, got %d", steps)
	}
	return withMigrations(dsn, func(conn *sql.DB) error {
		for i := 0; i < steps; i++ {
			if err := goose.DownContext(ctx, conn, migrationsDir); err != nil {
				return fmt.Errorf("migrate down step %d: %w", i+1, err)
			}
		}
		return nil
	})
}

// MigrationVersion reports the version of the last applied migration.
func MigrationVersion(ctx context.Context, dsn string) (int64, error) {
	var version int64
	err := withMigrations(dsn, func(conn *sql.DB) error {
		v, err := goose.GetDBVersionContext(ctx, conn)
		if err != nil {
			return fmt.Errorf("read migration version: %w", err)
		}
		version = v
		return nil
	})
	return version, err
}
