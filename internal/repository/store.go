// Package repository opens the configured storage backend and hands out its
// repositories.
package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"

	"voicechat/internal/config"
	"voicechat/internal/domain/repositories"
	"voicechat/internal/repository/migrations"
	"voicechat/internal/repository/postgres"
	"voicechat/internal/repository/sqlite"
)

// Store is an open storage backend.
type Store struct {
	Users repositories.UserRepository
	Chats repositories.ChatRepository

	db      *sql.DB
	pool    *pgxpool.Pool
	dialect migrations.Dialect
	prefix  string
}

// Open connects to the backend selected by DATABASE_DRIVER.
// Migrations are not applied; call Migrate.
func Open(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Store, error) {
	switch cfg.DatabaseDriver {
	case config.DriverPostgres:
		pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		repoConfig := &postgres.RepositoryConfig{
			Pool:   pool,
			Tables: postgres.NewTableNames(cfg.TablePrefix),
			Logger: logger,
		}
		return &Store{
			Users:   postgres.NewUserRepository(repoConfig),
			Chats:   postgres.NewChatRepository(repoConfig),
			db:      stdlib.OpenDBFromPool(pool),
			pool:    pool,
			dialect: migrations.Postgres,
			prefix:  cfg.TablePrefix,
		}, nil

	case config.DriverSQLite:
		db, err := sqlite.Open(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		repoConfig := &sqlite.RepositoryConfig{
			DB:     db,
			Tables: sqlite.NewTableNames(cfg.TablePrefix),
			Logger: logger,
		}
		return &Store{
			Users:   sqlite.NewUserRepository(repoConfig),
			Chats:   sqlite.NewChatRepository(repoConfig),
			db:      db,
			dialect: migrations.SQLite,
			prefix:  cfg.TablePrefix,
		}, nil

	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.DatabaseDriver)
	}
}

// Migrate applies pending schema migrations.
func (s *Store) Migrate(ctx context.Context) error {
	return migrations.Run(ctx, s.db, s.dialect, s.prefix)
}

// Reset drops every table owned by this store's prefix.
func (s *Store) Reset(ctx context.Context) error {
	return migrations.Reset(ctx, s.db, s.dialect, s.prefix)
}

// SchemaVersion reports the applied migration version.
func (s *Store) SchemaVersion(ctx context.Context) (int64, error) {
	return migrations.Version(ctx, s.db, s.dialect, s.prefix)
}

// Driver returns the backend name.
func (s *Store) Driver() string {
	return string(s.dialect)
}

// Close releases the backend's connections.
func (s *Store) Close() error {
	err := s.db.Close()
	if s.pool != nil {
		s.pool.Close()
	}
	return err
}
