package httpapi

import (
	"context"
	"testing"
	"time"

	"github.com/haasonsaas/mealplanner/internal/classifier"
	"github.com/haasonsaas/mealplanner/internal/mealmodel"
	"github.com/haasonsaas/mealplanner/internal/progress"
	"github.com/haasonsaas/mealplanner/internal/session"
	"github.com/haasonsaas/mealplanner/internal/stage"
)

type fakeOrchestrator struct {
	out   map[string]any
	err   error
	calls int
	last  mealmodel.UserMessage
}

func (f *fakeOrchestrator) Handle(ctx context.Context, msg mealmodel.UserMessage, authToken string) (map[string]any, error) {
	f.calls++
	f.last = msg
	return f.out, f.err
}

type fakeHistory struct {
	saved []string
}

func (f *fakeHistory) Save(ctx context.Context, userID, title string, recipe *mealmodel.Recipe) (string, error) {
	id := "history-" + title
	f.saved = append(f.saved, id)
	return id, nil
}

func newTestHandler(t *testing.T, orch *fakeOrchestrator) (*Handler, session.Store) {
	t.Helper()
	store := session.NewMemoryStore(time.Hour)
	cfg := Config{
		Orchestrator: orch,
		Sessions:     store,
		Stage:        stage.New(&fakeHistory{}, classifier.DefaultMarkerTable()),
		Progress:     progress.New(),
		ModelUsed:    "test-model",
	}
	return NewHandler(cfg), store
}
