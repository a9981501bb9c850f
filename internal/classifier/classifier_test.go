package classifier

import (
	"testing"
	"time"

	"github.com/haasonsaas/mealplanner/internal/mealmodel"
)

func newSession(stage mealmodel.Stage) *mealmodel.Session {
	s := mealmodel.NewSession("s1", "u1", time.Now())
	s.Stage = stage
	return s
}

func TestClassify_ConfirmationReplyTakesPrecedence(t *testing.T) {
	c := NewDefault()
	sess := newSession(mealmodel.StageMain)
	sess.Confirmation = &mealmodel.Confirmation{Kind: mealmodel.ConfirmAmbiguity}

	got := c.Classify("more please", sess)
	if got.Pattern != PatternConfirmationReply {
		t.Fatalf("Pattern = %q, want confirmation_reply", got.Pattern)
	}
}

func TestClassify_AdditionalProposal(t *testing.T) {
	c := NewDefault()
	sess := newSession(mealmodel.StageSub)

	got := c.Classify("show me another option", sess)
	if got.Pattern != PatternSubAdditional {
		t.Fatalf("Pattern = %q, want sub_additional", got.Pattern)
	}
}

func TestClassify_AdditionalIgnoredWhenCompleted(t *testing.T) {
	c := NewDefault()
	sess := newSession(mealmodel.StageCompleted)

	got := c.Classify("something else", sess)
	if got.Pattern == PatternMainAdditional || got.Pattern == PatternSubAdditional || got.Pattern == PatternSoupAdditional {
		t.Fatalf("Pattern = %q, should not be an additional pattern once completed", got.Pattern)
	}
}

func TestClassify_StageProposal(t *testing.T) {
	c := NewDefault()
	sess := newSession(mealmodel.StageMain)

	got := c.Classify("what soup should I make", sess)
	if got.Pattern != PatternSoupProposal {
		t.Fatalf("Pattern = %q, want soup_proposal", got.Pattern)
	}
}

func TestClassify_MenuPlan(t *testing.T) {
	c := NewDefault()
	sess := newSession(mealmodel.StageMain)

	got := c.Classify("Suggest a menu.", sess)
	if got.Pattern != PatternMenuPlan {
		t.Fatalf("Pattern = %q, want menu_plan", got.Pattern)
	}
}

func TestClassify_InventoryOp_Add(t *testing.T) {
	c := NewDefault()
	sess := newSession(mealmodel.StageMain)

	got := c.Classify("Add 4 green peppers", sess)
	if got.Pattern != PatternInventoryOp {
		t.Fatalf("Pattern = %q, want inventory_op", got.Pattern)
	}
	if got.StrategyHint != "by_name" {
		t.Errorf("StrategyHint = %q, want by_name (default)", got.StrategyHint)
	}
}

func TestClassify_InventoryOp_ChangeToIsSingleUpdate(t *testing.T) {
	c := NewDefault()
	sess := newSession(mealmodel.StageMain)

	got := c.Classify("change milk to 1 bottle", sess)
	if got.Pattern != PatternInventoryOp {
		t.Fatalf("Pattern = %q, want inventory_op (single update, not delete+add)", got.Pattern)
	}
}

func TestClassify_InventoryOp_AllQualifier(t *testing.T) {
	c := NewDefault()
	sess := newSession(mealmodel.StageMain)

	got := c.Classify("delete all milk", sess)
	if got.Pattern != PatternInventoryOp {
		t.Fatalf("Pattern = %q, want inventory_op", got.Pattern)
	}
	if got.StrategyHint != "by_name_all" {
		t.Errorf("StrategyHint = %q, want by_name_all", got.StrategyHint)
	}
}

func TestClassify_InventoryViewRequest(t *testing.T) {
	c := NewDefault()
	sess := newSession(mealmodel.StageCompleted)

	got := c.Classify("list my inventory", sess)
	if got.Pattern != PatternInventoryOp {
		t.Fatalf("Pattern = %q, want inventory_op", got.Pattern)
	}
	if !got.IsViewRequest {
		t.Error("IsViewRequest = false, want true for a listing verb")
	}
}

func TestClassify_InventoryMutationIsNotAViewRequest(t *testing.T) {
	c := NewDefault()
	sess := newSession(mealmodel.StageCompleted)

	got := c.Classify("add 2 eggs", sess)
	if got.Pattern != PatternInventoryOp {
		t.Fatalf("Pattern = %q, want inventory_op", got.Pattern)
	}
	if got.IsViewRequest {
		t.Error("IsViewRequest = true, want false for a mutating verb")
	}
}

func TestClassify_GreetingOrUnknown(t *testing.T) {
	c := NewDefault()
	sess := newSession(mealmodel.StageMain)

	got := c.Classify("hello", sess)
	if got.Pattern != PatternGreetingOrUnknown {
		t.Fatalf("Pattern = %q, want greeting_or_unknown", got.Pattern)
	}
}

func TestClassify_Deterministic(t *testing.T) {
	c := NewDefault()
	sess := newSession(mealmodel.StageMain)

	first := c.Classify("Suggest a menu.", sess)
	for i := 0; i < 20; i++ {
		got := c.Classify("Suggest a menu.", sess)
		if got.Pattern != first.Pattern {
			t.Fatalf("classification not deterministic: run %d = %q, want %q", i, got.Pattern, first.Pattern)
		}
	}
}
