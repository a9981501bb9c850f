// Package classifier implements the Pattern Classifier (C5): keyword-
// and rule-driven routing of a user message (plus session context) to
// one of a fixed set of patterns, evaluated in a documented precedence
// order. Classification is deterministic: the same message and session
// state always return the same pattern.
package classifier

import "github.com/haasonsaas/mealplanner/internal/mealmodel"

// Pattern is the classification result.
type Pattern string

const (
	PatternInventoryOp        Pattern = "inventory_op"
	PatternMenuPlan           Pattern = "menu_plan"
	PatternMainProposal       Pattern = "main_proposal"
	PatternSubProposal        Pattern = "sub_proposal"
	PatternSoupProposal       Pattern = "soup_proposal"
	PatternMainAdditional     Pattern = "main_additional"
	PatternSubAdditional      Pattern = "sub_additional"
	PatternSoupAdditional     Pattern = "soup_additional"
	PatternConfirmationReply  Pattern = "confirmation_reply"
	PatternGreetingOrUnknown  Pattern = "greeting_or_unknown"
)

// additionalPatternFor maps the session's current stage onto the
// matching "{stage}_additional" pattern. Only called when stage is not
// completed.
func additionalPatternFor(stage mealmodel.Stage) Pattern {
	switch stage {
	case mealmodel.StageMain:
		return PatternMainAdditional
	case mealmodel.StageSub:
		return PatternSubAdditional
	case mealmodel.StageSoup:
		return PatternSoupAdditional
	default:
		return PatternGreetingOrUnknown
	}
}

// proposalPatternForStage maps a stage onto its base (non-additional)
// proposal pattern.
func proposalPatternForStage(stage mealmodel.Stage) Pattern {
	switch stage {
	case mealmodel.StageMain:
		return PatternMainProposal
	case mealmodel.StageSub:
		return PatternSubProposal
	case mealmodel.StageSoup:
		return PatternSoupProposal
	default:
		return PatternGreetingOrUnknown
	}
}

// Classification is the full output: the pattern plus whatever
// parameters were extracted while matching it.
type Classification struct {
	Pattern        Pattern
	StrategyHint   string // by_name, by_name_all, by_name_oldest, by_name_latest
	MenuCategory   mealmodel.MenuCategory
	HasMenuCategory bool
	MainIngredient string
	// IsViewRequest is set on PatternInventoryOp when the matched verb
	// names a read-only listing rather than a mutation, marking this
	// turn as a candidate for the inventory-view planner bypass.
	IsViewRequest bool
}
