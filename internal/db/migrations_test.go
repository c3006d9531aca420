package db

import (
	"path/filepath"
	"testing"

	"github.com/goran-ethernal/SubgraphWatcher/internal/logger"
	"github.com/stretchr/testify/require"
)

var testMigrations = []Migration{
	{
		ID: "001_contracts.sql",
		SQL: `-- +migrate Down
DROP TABLE IF EXISTS contract;

-- +migrate Up
CREATE TABLE contract (address TEXT PRIMARY KEY, kind TEXT NOT NULL);`,
	},
	{
		ID: "002_blocks.sql",
		SQL: `-- +migrate Up
CREATE TABLE block_progress (block_hash TEXT PRIMARY KEY);`,
	},
}

func tableExists(t *testing.T, path, table string) bool {
	t.Helper()

	database, err := NewSQLiteDB(path)
	require.NoError(t, err)
	defer database.Close()

	var count int
	require.NoError(t, database.QueryRow(
		`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&count))
	return count == 1
}

func TestRunMigrations(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "migrations.db")
	log := logger.NewNopLogger()

	require.NoError(t, RunMigrations(log, path, testMigrations))
	require.True(t, tableExists(t, path, "contract"))
	require.True(t, tableExists(t, path, "block_progress"))

	// already applied
	require.NoError(t, RunMigrations(log, path, testMigrations))
}

func TestRollbackMigrations(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "rollback.db")
	log := logger.NewNopLogger()
	require.NoError(t, RunMigrations(log, path, testMigrations[:1]))

	database, err := NewSQLiteDB(path)
	require.NoError(t, err)
	defer database.Close()

	_, err = RollbackMigrations(log, database, testMigrations[:1], 0)
	require.ErrorContains(t, err, "rollback count must be positive")

	n, err := RollbackMigrations(log, database, testMigrations[:1], 1)
	require.NoError(t, err)
	require.Equal(t, 1, n)
	require.False(t, tableExists(t, path, "contract"))
}

func TestMigrationMissingUpSection(t *testing.T) {
	t.Parallel()

	_, err := Migration{ID: "broken.sql", SQL: "CREATE TABLE x (id INTEGER);"}.toSQLMigrate()
	require.EqualError(t, err, `migration broken.sql: missing "-- +migrate Up" section`)

	mig, err := testMigrations[1].toSQLMigrate()
	require.NoError(t, err)
	require.Empty(t, mig.Down)
	require.Equal(t, []string{"CREATE TABLE block_progress (block_hash TEXT PRIMARY KEY);"}, mig.Up)
}
