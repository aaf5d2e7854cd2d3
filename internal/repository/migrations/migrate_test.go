package migrations

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

func openSQLite(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "migrate.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func tableExists(t *testing.T, db *sql.DB, name string) bool {
	t.Helper()
	var n int
	err := db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?`, name).Scan(&n)
	require.NoError(t, err)
	return n == 1
}

func TestRunAndReset(t *testing.T) {
	db := openSQLite(t)
	ctx := context.Background()

	require.NoError(t, Run(ctx, db, SQLite, "test_"))
	assert.True(t, tableExists(t, db, "test_users"))
	assert.True(t, tableExists(t, db, "test_chats"))
	assert.True(t, tableExists(t, db, "test_goose_db_version"))

	v, err := Version(ctx, db, SQLite, "test_")
	require.NoError(t, err)
	assert.EqualValues(t, 2, v)

	// idempotent
	require.NoError(t, Run(ctx, db, SQLite, "test_"))

	require.NoError(t, Reset(ctx, db, SQLite, "test_"))
	assert.False(t, tableExists(t, db, "test_users"))
	assert.False(t, tableExists(t, db, "test_chats"))
}

func TestPrefixesAreIsolated(t *testing.T) {
	db := openSQLite(t)
	ctx := context.Background()

	require.NoError(t, Run(ctx, db, SQLite, "dev_"))
	require.NoError(t, Run(ctx, db, SQLite, "test_"))

	assert.True(t, tableExists(t, db, "dev_users"))
	assert.True(t, tableExists(t, db, "test_users"))

	require.NoError(t, Reset(ctx, db, SQLite, "test_"))
	assert.True(t, tableExists(t, db, "dev_users"))
}

func TestUnsupportedDialect(t *testing.T) {
	db := openSQLite(t)
	assert.Error(t, Run(context.Background(), db, Dialect("mysql"), "x_"))
}
