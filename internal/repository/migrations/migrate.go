// Package migrations applies the embedded schema with goose.
//
// Table names are prefixed per environment (dev_, test_, prod_). The SQL files
// use goose ENVSUB, so TABLE_PREFIX is exported to the process environment
// before migrations run.
package migrations

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"os"
	"sync"

	"github.com/pressly/goose/v3"
)

//go:embed postgres/*.sql sqlite/*.sql
var files embed.FS

// Dialect selects the migration directory and goose dialect.
type Dialect string

const (
	Postgres Dialect = "postgres"
	SQLite   Dialect = "sqlite"
)

// goose keeps its settings in package globals
var mu sync.Mutex

// Run applies all pending migrations.
func Run(ctx context.Context, db *sql.DB, dialect Dialect, prefix string) error {
	return withGoose(dialect, prefix, func(dir string) error {
		if err := goose.UpContext(ctx, db, dir); err != nil {
			return fmt.Errorf("apply migrations: %w", err)
		}
		return nil
	})
}

// Reset rolls back every applied migration, dropping all prefixed tables.
func Reset(ctx context.Context, db *sql.DB, dialect Dialect, prefix string) error {
	return withGoose(dialect, prefix, func(dir string) error {
		if err := goose.ResetContext(ctx, db, dir); err != nil {
			return fmt.Errorf("reset migrations: %w", err)
		}
		return nil
	})
}

// Version returns the current schema version.
func Version(ctx context.Context, db *sql.DB, dialect Dialect, prefix string) (int64, error) {
	var version int64
	err := withGoose(dialect, prefix, func(string) error {
		v, err := goose.GetDBVersionContext(ctx, db)
		version = v
		return err
	})
	return version, err
}

func withGoose(dialect Dialect, prefix string, fn func(dir string) error) error {
	mu.Lock()
	defer mu.Unlock()

	var gooseDialect string
	switch dialect {
	case Postgres:
		gooseDialect = "postgres"
	case SQLite:
		gooseDialect = "sqlite3"
	default:
		return fmt.Errorf("unsupported migration dialect %q", dialect)
	}

	if err := os.Setenv("TABLE_PREFIX", prefix); err != nil {
		return fmt.Errorf("export TABLE_PREFIX: %w", err)
	}

	goose.SetBaseFS(files)
	goose.SetTableName(prefix + "goose_db_version")
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect(gooseDialect); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}

	return fn(string(dialect))
}
