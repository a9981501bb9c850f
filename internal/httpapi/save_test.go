package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/haasonsaas/mealplanner/internal/mealmodel"
	"github.com/haasonsaas/mealplanner/pkg/mealplanapi"
)

func TestHandleSave_InlineRecipes(t *testing.T) {
	h, _ := newTestHandler(t, &fakeOrchestrator{})

	body, _ := json.Marshal(mealplanapi.SaveRequest{
		Recipes: &mealplanapi.SaveRecipeSet{
			Main: &mealplanapi.SaveRecipe{Title: "Teriyaki Chicken", Source: "llm", Ingredients: []string{"chicken"}},
			Soup: &mealplanapi.SaveRecipe{Title: "Miso Soup", Source: "rag"},
		},
	})
	req := httptest.NewRequest(http.MethodPost, "/api/save", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body=%s", rec.Code, rec.Body.String())
	}
	var resp mealplanapi.SaveResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.SavedIDs) != 2 {
		t.Fatalf("SavedIDs = %v, want 2 entries", resp.SavedIDs)
	}
}

func TestHandleSave_SessionSelections(t *testing.T) {
	h, store := newTestHandler(t, &fakeOrchestrator{})

	sess, err := store.GetOrCreate(context.Background(), "", "u1")
	if err != nil {
		t.Fatalf("GetOrCreate() err = %v", err)
	}
	_, err = store.Update(context.Background(), sess.ID, func(s *mealmodel.Session) error {
		s.SelectedRecipes[mealmodel.StageMain] = &mealmodel.Recipe{Title: "Teriyaki Chicken"}
		return nil
	})
	if err != nil {
		t.Fatalf("Update() err = %v", err)
	}

	body, _ := json.Marshal(mealplanapi.SaveRequest{SSESessionID: sess.ID})
	req := httptest.NewRequest(http.MethodPost, "/api/save", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body=%s", rec.Code, rec.Body.String())
	}
	var resp mealplanapi.SaveResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.SavedIDs) != 1 {
		t.Fatalf("SavedIDs = %v, want 1 entry", resp.SavedIDs)
	}
}

func TestHandleSave_BothFormsRejected(t *testing.T) {
	h, store := newTestHandler(t, &fakeOrchestrator{})
	sess, err := store.GetOrCreate(context.Background(), "", "u1")
	if err != nil {
		t.Fatalf("GetOrCreate() err = %v", err)
	}

	body, _ := json.Marshal(mealplanapi.SaveRequest{
		SSESessionID: sess.ID,
		Recipes:      &mealplanapi.SaveRecipeSet{Main: &mealplanapi.SaveRecipe{Title: "x", Source: "manual"}},
	})
	req := httptest.NewRequest(http.MethodPost, "/api/save", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestHandleSave_NeitherFormRejected(t *testing.T) {
	h, _ := newTestHandler(t, &fakeOrchestrator{})

	req := httptest.NewRequest(http.MethodPost, "/api/save", bytes.NewReader([]byte(`{}`)))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}
