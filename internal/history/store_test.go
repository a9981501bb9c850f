package history

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/haasonsaas/mealplanner/internal/mealmodel"
)

func setupMockStore(t *testing.T) (*Store, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() err = %v", err)
	}
	mock.ExpectPrepare("INSERT INTO recipe_history")
	store, err := newStoreFromDB(db)
	if err != nil {
		t.Fatalf("newStoreFromDB() err = %v", err)
	}
	return store, mock, db
}

func TestSave_InsertsRowAndReturnsID(t *testing.T) {
	store, mock, db := setupMockStore(t)
	defer db.Close()

	mock.ExpectExec("INSERT INTO recipe_history").
		WithArgs(
			sqlmock.AnyArg(), // generated id
			"u1",
			"main: Omelette",
			"main",
			"llm",
			"",
			sqlmock.AnyArg(), // ingredients JSON
			"",
			sqlmock.AnyArg(), // created_at
		).
		WillReturnResult(sqlmock.NewResult(1, 1))

	recipe := &mealmodel.Recipe{
		Title:       "Omelette",
		Category:    mealmodel.StageMain,
		Source:      mealmodel.SourceLLM,
		Ingredients: []string{"egg", "milk"},
	}

	id, err := store.Save(context.Background(), "u1", "main: Omelette", recipe)
	if err != nil {
		t.Fatalf("Save() err = %v", err)
	}
	if id == "" {
		t.Error("Save() returned empty id")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestSave_NilRecipeFails(t *testing.T) {
	store, _, db := setupMockStore(t)
	defer db.Close()

	if _, err := store.Save(context.Background(), "u1", "main: x", nil); err == nil {
		t.Fatal("Save() should fail for a nil recipe")
	}
}

func TestSave_PropagatesExecError(t *testing.T) {
	store, mock, db := setupMockStore(t)
	defer db.Close()

	mock.ExpectExec("INSERT INTO recipe_history").
		WillReturnError(errors.New("connection reset"))

	recipe := &mealmodel.Recipe{Title: "Omelette", Category: mealmodel.StageMain, Source: mealmodel.SourceLLM}
	if _, err := store.Save(context.Background(), "u1", "main: Omelette", recipe); err == nil {
		t.Fatal("Save() should propagate the exec error")
	}
}
