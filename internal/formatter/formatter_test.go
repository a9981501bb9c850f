package formatter

import (
	"testing"
	"time"

	"github.com/haasonsaas/mealplanner/internal/mealmodel"
)

func newSession() *mealmodel.Session {
	return mealmodel.NewSession("s1", "u1", time.Now())
}

func TestFormat_InventoryAdd(t *testing.T) {
	sess := newSession()
	graph := &mealmodel.TaskGraph{Tasks: []*mealmodel.Task{
		{ID: "task1", Description: "add pepper", Service: "inventory_service", Method: "add_inventory",
			Parameters: map[string]any{"item_name": "green pepper"}, State: mealmodel.TaskSucceeded},
	}}

	out := New().Format(sess, graph)
	if out["response"] != "Added green pepper to your inventory." {
		t.Errorf("response = %q", out["response"])
	}
	if out["requires_selection"] == true {
		t.Error("requires_selection should not be set for inventory ops")
	}
}

func TestFormat_ProposalRequiresSelectionWithURLs(t *testing.T) {
	sess := newSession()
	graph := &mealmodel.TaskGraph{Tasks: []*mealmodel.Task{
		{ID: "task1", Service: "inventory_service", Method: "get_inventory", State: mealmodel.TaskSucceeded,
			Result: map[string]any{"data": []any{"milk", "egg"}}},
		{ID: "task2", Service: "proposal_service", Method: "generate_menu_plan", Dependencies: []string{"task1"},
			State: mealmodel.TaskSucceeded,
			Result: map[string]any{"data": []any{
				map[string]any{"title": "Omelette"},
			}}},
		{ID: "task3", Service: "proposal_service", Method: "search_menu_from_rag", Dependencies: []string{"task1"},
			State: mealmodel.TaskSucceeded,
			Result: map[string]any{"data": []any{
				map[string]any{"title": "Omelette"},
				map[string]any{"title": "Pancakes"},
			}}},
		{ID: "task4", Service: "proposal_service", Method: "search_recipes_from_web", Dependencies: []string{"task2", "task3"},
			State: mealmodel.TaskSucceeded,
			Result: map[string]any{"data": []any{
				map[string]any{"url": "https://example.com/omelette"},
				map[string]any{"url": "https://example.com/pancakes"},
			}}},
	}}

	out := New().Format(sess, graph)
	if out["requires_selection"] != true {
		t.Fatalf("requires_selection = %v, want true", out["requires_selection"])
	}
	candidates, ok := out["candidates"].([]map[string]any)
	if !ok {
		t.Fatalf("candidates type = %T", out["candidates"])
	}
	if len(candidates) != 2 {
		t.Fatalf("len(candidates) = %d, want 2 (deduped)", len(candidates))
	}
	if candidates[0]["title"] != "Omelette" || candidates[0]["url"] != "https://example.com/omelette" {
		t.Errorf("candidates[0] = %v", candidates[0])
	}
	if candidates[1]["title"] != "Pancakes" || candidates[1]["url"] != "https://example.com/pancakes" {
		t.Errorf("candidates[1] = %v", candidates[1])
	}
	if out["task_id"] != "task4" {
		t.Errorf("task_id = %v, want task4", out["task_id"])
	}
}

func TestFormat_AwaitingConfirmation(t *testing.T) {
	sess := newSession()
	sess.Confirmation = &mealmodel.Confirmation{Question: "Which milk did you mean?"}
	graph := &mealmodel.TaskGraph{}

	out := New().Format(sess, graph)
	if out["requires_confirmation"] != true {
		t.Errorf("requires_confirmation = %v", out["requires_confirmation"])
	}
	if out["response"] != "Which milk did you mean?" {
		t.Errorf("response = %q", out["response"])
	}
}

func TestFormat_UsedIngredientsExcludesConsumed(t *testing.T) {
	sess := newSession()
	sess.Context["inventory_items"] = []string{"Milk", "Egg", "Bread"}
	sess.UsedIngredients = []string{"milk"}
	graph := &mealmodel.TaskGraph{}

	out := New().Format(sess, graph)
	remaining, ok := out["used_ingredients"].([]string)
	if !ok {
		t.Fatalf("used_ingredients type = %T", out["used_ingredients"])
	}
	if len(remaining) != 2 || remaining[0] != "Egg" || remaining[1] != "Bread" {
		t.Errorf("remaining = %v", remaining)
	}
}

func TestFormat_FailedTaskSurfacesError(t *testing.T) {
	sess := newSession()
	graph := &mealmodel.TaskGraph{Tasks: []*mealmodel.Task{
		{ID: "task1", Description: "do a thing", State: mealmodel.TaskFailed},
	}}
	graph.Tasks[0].Error = errTest{"boom"}

	out := New().Format(sess, graph)
	resp, _ := out["response"].(string)
	if resp == "" {
		t.Error("response should describe the failure")
	}
}

type errTest struct{ msg string }

func (e errTest) Error() string { return e.msg }
