package httpapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/haasonsaas/mealplanner/internal/mealmodel"
)

func TestHandleStream_MissingSessionIDRejected(t *testing.T) {
	h, _ := newTestHandler(t, &fakeOrchestrator{})

	req := httptest.NewRequest(http.MethodGet, "/api/stream", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestHandleStream_FramesEventsAsSSE(t *testing.T) {
	h, _ := newTestHandler(t, &fakeOrchestrator{})

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodGet, "/api/stream?session_id=s1", nil).WithContext(ctx)
	rec := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		h.ServeHTTP(rec, req)
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	h.cfg.Progress.Publish("s1", mealmodel.ProgressEvent{Kind: mealmodel.EventComplete, Payload: map[string]any{"result": "ok"}})

	select {
	case <-done:
	case <-time.After(time.Second):
		cancel()
		t.Fatal("handler did not terminate after a complete event")
	}

	body := rec.Body.String()
	if !strings.Contains(body, `"kind":"connected"`) {
		t.Errorf("body missing connected event: %s", body)
	}
	if !strings.Contains(body, `"kind":"complete"`) {
		t.Errorf("body missing complete event: %s", body)
	}
	if !strings.HasPrefix(body, "data: ") {
		t.Errorf("body does not start with SSE framing: %q", body)
	}
}
