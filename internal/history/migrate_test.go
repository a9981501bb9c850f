package history

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestStoreMigrate_ExecutesSchema(t *testing.T) {
	store, mock, db := setupMockStore(t)
	defer db.Close()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS recipe_history").WillReturnResult(sqlmock.NewResult(0, 0))

	if err := store.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate() err = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}
