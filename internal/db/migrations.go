package db

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/goran-ethernal/SubgraphWatcher/internal/logger"
	_ "github.com/mattn/go-sqlite3"
	migrate "github.com/rubenv/sql-migrate"
)

const (
	migrateUpMarker   = "-- +migrate Up"
	migrateDownMarker = "-- +migrate Down"
)

// Migration is one embedded schema file. SQL holds an optional Down section
// followed by a mandatory Up section, both marked with sql-migrate comments.
type Migration struct {
	ID  string
	SQL string
}

// toSQLMigrate splits the file into its Up and Down statements.
func (m Migration) toSQLMigrate() (*migrate.Migration, error) {
	down, up, found := strings.Cut(m.SQL, migrateUpMarker)
	if !found {
		return nil, fmt.Errorf("migration %s: missing %q section", m.ID, migrateUpMarker)
	}
	if _, after, ok := strings.Cut(down, migrateDownMarker); ok {
		down = after
	}

	mig := &migrate.Migration{
		Id: m.ID,
		Up: []string{strings.TrimSpace(up)},
	}
	if down = strings.TrimSpace(down); down != "" {
		mig.Down = []string{down}
	}
	return mig, nil
}

func migrationSource(migrations []Migration) (*migrate.MemoryMigrationSource, []string, error) {
	src := &migrate.MemoryMigrationSource{Migrations: make([]*migrate.Migration, 0, len(migrations))}
	ids := make([]string, 0, len(migrations))
	for _, m := range migrations {
		mig, err := m.toSQLMigrate()
		if err != nil {
			return nil, nil, err
		}
		src.Migrations = append(src.Migrations, mig)
		ids = append(ids, mig.Id)
	}
	return src, ids, nil
}

// RunMigrations opens the database at dbPath, applies every pending
// migration and closes it again.
func RunMigrations(log *logger.Logger, dbPath string, migrations []Migration) error {
	database, err := NewSQLiteDB(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database for migrations: %w", err)
	}
	defer database.Close()

	return RunMigrationsDB(log, database, migrations)
}

// RunMigrationsDB applies every pending migration to an open database.
func RunMigrationsDB(log *logger.Logger, database *sql.DB, migrations []Migration) error {
	_, err := execMigrations(log, database, migrations, migrate.Up, 0)
	return err
}

// RollbackMigrations reverts the last n applied migrations and returns how
// many were reverted.
func RollbackMigrations(log *logger.Logger, database *sql.DB, migrations []Migration, n int) (int, error) {
	if n < 1 {
		return 0, fmt.Errorf("rollback count must be positive, got %d", n)
	}
	return execMigrations(log, database, migrations, migrate.Down, n)
}

func execMigrations(
	log *logger.Logger,
	database *sql.DB,
	migrations []Migration,
	dir migrate.MigrationDirection,
	limit int,
) (int, error) {
	src, ids, err := migrationSource(migrations)
	if err != nil {
		return 0, err
	}

	log.Debugw("running migrations", "direction", dir, "limit", limit, "migrations", ids)

	applied, err := migrate.ExecMax(database, "sqlite3", src, dir, limit)
	if err != nil {
		return applied, fmt.Errorf("failed to execute migrations %s: %w", strings.Join(ids, ", "), err)
	}

	log.Infow("migrations applied", "count", applied, "direction", dir)
	return applied, nil
}
