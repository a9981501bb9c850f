package ambiguity

import (
	"strings"
	"testing"

	"github.com/haasonsaas/mealplanner/internal/mealmodel"
)

func TestInspect_DetectsMarker(t *testing.T) {
	d := New()
	result := mealmodel.ToolResult{
		Success: false,
		Error:   "AMBIGUITY_DETECTED",
		Items: []map[string]any{
			{"id": "1", "name": "milk"},
			{"id": "2", "name": "milk"},
		},
	}
	amb := d.Inspect(result)
	if amb == nil {
		t.Fatal("Inspect() = nil, want an Ambiguity")
	}
	if len(amb.Items) != 2 {
		t.Errorf("len(Items) = %d, want 2", len(amb.Items))
	}
	if !strings.Contains(amb.Question, "oldest") || !strings.Contains(amb.Question, "latest") {
		t.Errorf("Question = %q, missing strategy options", amb.Question)
	}
}

func TestInspect_OrdinaryFailureIsNotAmbiguity(t *testing.T) {
	d := New()
	result := mealmodel.ToolResult{Success: false, Error: "not found"}
	if amb := d.Inspect(result); amb != nil {
		t.Errorf("Inspect() = %v, want nil for a non-ambiguity failure", amb)
	}
}

func TestInspect_SuccessIsNotAmbiguity(t *testing.T) {
	d := New()
	result := mealmodel.ToolResult{Success: true}
	if amb := d.Inspect(result); amb != nil {
		t.Errorf("Inspect() = %v, want nil for a success result", amb)
	}
}

func TestResolveReply_All(t *testing.T) {
	strat, ok, rejected := ResolveReply("all of them please")
	if !ok || rejected || strat.Kind != "all" {
		t.Errorf("ResolveReply() = %v, %v, %v", strat, ok, rejected)
	}
}

func TestResolveReply_Oldest(t *testing.T) {
	strat, ok, rejected := ResolveReply("the oldest one")
	if !ok || rejected || strat.Kind != "oldest" {
		t.Errorf("ResolveReply() = %v, %v, %v", strat, ok, rejected)
	}
}

func TestResolveReply_Latest(t *testing.T) {
	strat, ok, rejected := ResolveReply("the latest")
	if !ok || rejected || strat.Kind != "latest" {
		t.Errorf("ResolveReply() = %v, %v, %v", strat, ok, rejected)
	}
}

func TestResolveReply_ByID(t *testing.T) {
	strat, ok, rejected := ResolveReply("by_id:42")
	if !ok || rejected || strat.Kind != "by_id" || strat.ID != "42" {
		t.Errorf("ResolveReply() = %v, %v, %v", strat, ok, rejected)
	}
	if strat.String() != "by_id:42" {
		t.Errorf("String() = %q", strat.String())
	}
}

func TestResolveReply_NumericOnly(t *testing.T) {
	strat, ok, rejected := ResolveReply("number 2")
	if !ok || rejected || strat.Kind != "by_id" || strat.ID != "2" {
		t.Errorf("ResolveReply() = %v, %v, %v", strat, ok, rejected)
	}
}

func TestResolveReply_Rejection(t *testing.T) {
	_, ok, rejected := ResolveReply("never mind, cancel that")
	if ok || !rejected {
		t.Errorf("ResolveReply() ok=%v rejected=%v, want rejected", ok, rejected)
	}
}

func TestResolveReply_Unrecognized(t *testing.T) {
	_, ok, rejected := ResolveReply("what do you mean?")
	if ok || rejected {
		t.Errorf("ResolveReply() ok=%v rejected=%v, want neither", ok, rejected)
	}
}
