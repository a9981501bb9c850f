package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

// schemaSQL creates the recipe_history table this package's prepared
// insert statement targets. Grounded on internal/sessions/migrate.go's
// EnsureSchema, simplified to one idempotent statement set: this store
// has exactly one table, appended to only by Save, so there is no
// up/down migration history worth tracking separately.
const schemaSQL = `
CREATE TABLE IF NOT EXISTS recipe_history (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	title TEXT NOT NULL,
	category TEXT NOT NULL,
	source TEXT NOT NULL,
	url TEXT,
	ingredients JSONB,
	image_url TEXT,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS recipe_history_user_id_idx ON recipe_history (user_id);
`

// Migrate ensures the recipe_history table and its supporting index
// exist. Safe to run on every deploy.
func (s *Store) Migrate(ctx context.Context) error {
	return migrateDB(ctx, s.db)
}

func migrateDB(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, schemaSQL)
	return err
}

// MigrateDSN opens dsn directly (no prepared statements, so it works
// even before recipe_history exists, unlike NewStore), applies the
// schema, and closes the connection. Intended for the standalone
// migrate CLI command, which runs before the long-lived Store could be
// constructed.
func MigrateDSN(ctx context.Context, dsn string) error {
	if dsn == "" {
		return fmt.Errorf("history: dsn is required")
	}
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return fmt.Errorf("history: opening database: %w", err)
	}
	defer db.Close()

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		return fmt.Errorf("history: pinging database: %w", err)
	}
	return migrateDB(ctx, db)
}
