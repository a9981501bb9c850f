package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/haasonsaas/mealplanner/internal/mealmodel"
	"github.com/haasonsaas/mealplanner/pkg/mealplanapi"
)

func TestHandleChat_ReturnsFormattedResponse(t *testing.T) {
	orch := &fakeOrchestrator{out: map[string]any{
		"response":      "here's your menu",
		"current_stage": mealmodel.StageSub,
		"menu_category": mealmodel.MenuJapanese,
	}}
	h, _ := newTestHandler(t, orch)

	body, _ := json.Marshal(mealplanapi.ChatRequest{Message: "suggest a menu", SSESessionID: "s1"})
	req := httptest.NewRequest(http.MethodPost, "/api/chat", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body=%s", rec.Code, rec.Body.String())
	}
	var resp mealplanapi.ChatResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Response != "here's your menu" {
		t.Errorf("Response = %q", resp.Response)
	}
	if resp.ModelUsed != "test-model" {
		t.Errorf("ModelUsed = %q", resp.ModelUsed)
	}
	if resp.CurrentStage != "sub" {
		t.Errorf("CurrentStage = %q, want sub", resp.CurrentStage)
	}
	if orch.calls != 1 {
		t.Errorf("orchestrator.calls = %d, want 1", orch.calls)
	}
}

func TestHandleChat_RejectsWrongMethod(t *testing.T) {
	h, _ := newTestHandler(t, &fakeOrchestrator{out: map[string]any{}})

	req := httptest.NewRequest(http.MethodGet, "/api/chat", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", rec.Code)
	}
}

func TestHandleChat_RejectsUnknownFields(t *testing.T) {
	h, _ := newTestHandler(t, &fakeOrchestrator{out: map[string]any{}})

	req := httptest.NewRequest(http.MethodPost, "/api/chat", bytes.NewReader([]byte(`{"message":"hi","bogus":true}`)))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}
