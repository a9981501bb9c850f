// Package history is the typed client for the external recipe-history
// collaborator (spec.md §1, §4.12 step 7): a Postgres-backed table
// persisting saved recipes, one row per call to Store.Save. Grounded
// on internal/sessions/cockroach.go: a *sql.DB wrapped in prepared
// statements, opened with a DSN and a connect-timeout ping, one
// exported method per operation. Store satisfies stage.HistoryStore
// without importing internal/stage back.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"

	"github.com/haasonsaas/mealplanner/internal/mealerr"
	"github.com/haasonsaas/mealplanner/internal/mealmodel"
)

// Config holds the Postgres connection settings.
type Config struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnectTimeout  time.Duration
}

// Store persists saved recipes to the recipe_history table.
type Store struct {
	db         *sql.DB
	stmtInsert *sql.Stmt
}

// NewStore opens the database, pings it within cfg.ConnectTimeout, and
// prepares the insert statement.
func NewStore(cfg Config) (*Store, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("history: dsn is required")
	}

	db, err := sql.Open("postgres", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("history: opening database: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	timeout := cfg.ConnectTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("history: pinging database: %w", err)
	}

	store, err := newStoreFromDB(db)
	if err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

// newStoreFromDB prepares the insert statement against an already-open
// db, shared by NewStore and tests driving a mocked *sql.DB.
func newStoreFromDB(db *sql.DB) (*Store, error) {
	stmt, err := db.Prepare(`
		INSERT INTO recipe_history (id, user_id, title, category, source, url, ingredients, image_url, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`)
	if err != nil {
		return nil, fmt.Errorf("history: preparing insert: %w", err)
	}
	return &Store{db: db, stmtInsert: stmt}, nil
}

// Close releases the prepared statement and the underlying connection.
func (s *Store) Close() error {
	if s.stmtInsert != nil {
		if err := s.stmtInsert.Close(); err != nil {
			return err
		}
	}
	return s.db.Close()
}

// Save inserts one saved recipe row and returns its generated id
// (the stage.HistoryStore contract, spec.md §4.12 step 7).
func (s *Store) Save(ctx context.Context, userID, title string, recipe *mealmodel.Recipe) (string, error) {
	if recipe == nil {
		return "", mealerr.New(mealerr.KindInternal, "history: cannot save a nil recipe")
	}

	ingredients, err := json.Marshal(recipe.Ingredients)
	if err != nil {
		return "", mealerr.Wrap(mealerr.KindInternal, "history: marshaling ingredients", err)
	}

	id := uuid.NewString()
	_, err = s.stmtInsert.ExecContext(ctx,
		id,
		userID,
		title,
		string(recipe.Category),
		string(recipe.Source),
		recipe.URL,
		ingredients,
		recipe.ImageURL,
		time.Now(),
	)
	if err != nil {
		return "", mealerr.Wrap(mealerr.KindInternal, "history: inserting recipe_history row", err)
	}
	return id, nil
}
