package migrations

import (
	"database/sql"
	_ "embed"

	"github.com/goran-ethernal/SubgraphWatcher/internal/db"
	"github.com/goran-ethernal/SubgraphWatcher/internal/logger"
)

//go:embed 001_watcher.sql
var mig001 string

//go:embed 002_state.sql
var mig002 string

//go:embed 003_entities.sql
var mig003 string

// All returns the watcher schema migrations in order.
func All() []db.Migration {
	return []db.Migration{
		{ID: "001_watcher.sql", SQL: mig001},
		{ID: "002_state.sql", SQL: mig002},
		{ID: "003_entities.sql", SQL: mig003},
	}
}

// RunMigrations opens the database at dbPath and applies all pending migrations.
func RunMigrations(log *logger.Logger, dbPath string) error {
	return db.RunMigrations(log, dbPath, All())
}

// RunMigrationsDB applies all pending migrations to an open database.
func RunMigrationsDB(log *logger.Logger, database *sql.DB) error {
	return db.RunMigrationsDB(log, database, All())
}
