// Package promptbuilder implements the Prompt Builder (C6): given a
// classified pattern and its extracted parameters, produce a
// deterministic planning prompt. The mapping from pattern to prompt
// shape is a switch over a sealed set of patterns rather than a
// runtime-populated table, so an unhandled pattern is a compile-time
// enumeration gap the Go compiler's exhaustiveness linting (and the
// default branch below) catches, not a missing map entry discovered at
// runtime.
package promptbuilder

import (
	"fmt"
	"strings"

	"github.com/haasonsaas/mealplanner/internal/classifier"
	"github.com/haasonsaas/mealplanner/internal/mealerr"
	"github.com/haasonsaas/mealplanner/internal/mealmodel"
)

// Params are the explicit, fully-resolved inputs a builder may use. No
// builder reads session or global state directly: whatever it needs is
// passed in here, so the same pattern+params always produces the same
// prompt.
type Params struct {
	Message        string
	SessionID      string
	MainIngredient string
	StrategyHint   string
	MenuCategory   mealmodel.MenuCategory
	HasMenuCategory bool
	UsedIngredients []string
	InventoryItems  []string
	// ProposedTitles are titles already offered for this stage this
	// session (Session.ProposedTitles), excluded from additional-
	// proposal requests alongside history and used ingredients.
	ProposedTitles []string
}

// Build produces the prompt for the given pattern.
func Build(pattern classifier.Pattern, p Params) (string, error) {
	switch pattern {
	case classifier.PatternGreetingOrUnknown:
		return buildGreetingPrompt(p), nil
	case classifier.PatternInventoryOp:
		return buildInventoryPrompt(p), nil
	case classifier.PatternMenuPlan:
		return buildMenuPlanPrompt(p), nil
	case classifier.PatternMainProposal:
		return buildStageProposalPrompt(p, mealmodel.StageMain, false), nil
	case classifier.PatternMainAdditional:
		return buildStageProposalPrompt(p, mealmodel.StageMain, true), nil
	case classifier.PatternSubProposal:
		return buildStageProposalPrompt(p, mealmodel.StageSub, false), nil
	case classifier.PatternSubAdditional:
		return buildStageProposalPrompt(p, mealmodel.StageSub, true), nil
	case classifier.PatternSoupProposal:
		return buildStageProposalPrompt(p, mealmodel.StageSoup, false), nil
	case classifier.PatternSoupAdditional:
		return buildStageProposalPrompt(p, mealmodel.StageSoup, true), nil
	default:
		return "", mealerr.New(mealerr.KindInternal, fmt.Sprintf("promptbuilder: no builder for pattern %q", pattern))
	}
}

// toolCatalogSection renders the base section every non-greeting
// prompt shares: the tool names relevant to the pattern, their
// required parameters, and the strict output shape.
func toolCatalogSection(tools ...toolContract) string {
	var b strings.Builder
	b.WriteString("You are a meal-planning task-graph planner. ")
	b.WriteString("Available tools:\n")
	for _, t := range tools {
		fmt.Fprintf(&b, "- %s(%s)\n", t.name, strings.Join(t.params, ", "))
	}
	b.WriteString("\nRespond with exactly one JSON document of shape ")
	b.WriteString(`{"tasks": [{"id": "task1", "description": "...", "service": "...", "method": "...", "parameters": {...}, "dependencies": []}, ...]}`)
	b.WriteString(". No prose outside the JSON document.\n")
	return b.String()
}

type toolContract struct {
	name   string
	params []string
}

var (
	toolGetInventory      = toolContract{"inventory_service.get_inventory", []string{"user_id"}}
	toolAddInventory      = toolContract{"inventory_service.add_inventory", []string{"user_id", "item_name", "quantity", "unit"}}
	toolUpdateInventory   = toolContract{"inventory_service.update_inventory", []string{"user_id", "item_identifier", "updates", "strategy?"}}
	toolDeleteInventory   = toolContract{"inventory_service.delete_inventory", []string{"user_id", "item_identifier", "strategy?"}}
	toolGenerateMenuPlan  = toolContract{"proposal_service.generate_menu_plan", []string{"inventory", "menu_category?", "exclude?"}}
	toolSearchMenuFromRAG = toolContract{"proposal_service.search_menu_from_rag", []string{"inventory", "menu_category?", "exclude?"}}
	toolSearchRecipesWeb  = toolContract{"proposal_service.search_recipes_from_web", []string{"titles"}}
)

func buildGreetingPrompt(p Params) string {
	return fmt.Sprintf("The user sent a greeting or an unrecognized request: %q. "+
		`Respond with exactly {"tasks": []} and nothing else.`, p.Message)
}

func buildInventoryPrompt(p Params) string {
	var b strings.Builder
	b.WriteString(toolCatalogSection(toolAddInventory, toolUpdateInventory, toolDeleteInventory))
	b.WriteString("\nThis request is an inventory operation. Produce a single task calling the ")
	b.WriteString("add, update, or delete tool as appropriate for the request. ")
	b.WriteString("Do NOT split an update into a delete followed by an add: \"change X to Y\" is one ")
	b.WriteString("update_inventory call. ")
	if p.StrategyHint != "" {
		fmt.Fprintf(&b, "The detected match strategy is %q; pass it as the strategy parameter when applicable. ", p.StrategyHint)
	}
	if p.MainIngredient != "" {
		fmt.Fprintf(&b, "The detected item is %q. ", p.MainIngredient)
	}
	fmt.Fprintf(&b, "\nUser message: %q\nSession: %s\n", p.Message, p.SessionID)
	return b.String()
}

func buildMenuPlanPrompt(p Params) string {
	var b strings.Builder
	b.WriteString(toolCatalogSection(toolGetInventory, toolGenerateMenuPlan, toolSearchMenuFromRAG, toolSearchRecipesWeb))
	b.WriteString("\nThis request asks for a full menu. Produce exactly four tasks: " +
		"task1 = get_inventory (no dependencies); " +
		"task2 = generate_menu_plan depending on task1, parameters.inventory = \"task1.result\"; " +
		"task3 = search_menu_from_rag depending on task1, parameters.inventory = \"task1.result\" (runs in parallel with task2); " +
		"task4 = search_recipes_from_web depending on [task2, task3], parameters.titles = \"task2.result.data + task3.result.data\".\n")
	if len(p.UsedIngredients) > 0 {
		fmt.Fprintf(&b, "Exclude already-used ingredients: %s\n", strings.Join(p.UsedIngredients, ", "))
	}
	if p.HasMenuCategory {
		fmt.Fprintf(&b, "Menu category: %s\n", p.MenuCategory)
	}
	fmt.Fprintf(&b, "User message: %q\nSession: %s\n", p.Message, p.SessionID)
	return b.String()
}

// buildStageProposalPrompt builds a proposal prompt for stage. additional
// distinguishes a plain first-round proposal from an "additional" request
// for more candidates of the same stage: the original's
// additional_proposal.py task chain drops the inventory-fetch task
// entirely (the inventory gathered earlier in the session is reused from
// context) and excludes titles already proposed this stage on top of the
// recent-history exclusion every proposal applies.
func buildStageProposalPrompt(p Params, stage mealmodel.Stage, additional bool) string {
	var b strings.Builder
	if additional {
		b.WriteString(toolCatalogSection(toolGenerateMenuPlan, toolSearchMenuFromRAG, toolSearchRecipesWeb))
		fmt.Fprintf(&b, "\nThis is an additional-proposal request for more %s course candidates. "+
			"Reuse the inventory already gathered earlier this session; do NOT add a get_inventory task. "+
			"Exclude already-used ingredients, recent history, and titles already proposed for this stage.\n", stage)
	} else {
		b.WriteString(toolCatalogSection(toolGetInventory, toolGenerateMenuPlan, toolSearchMenuFromRAG, toolSearchRecipesWeb))
		fmt.Fprintf(&b, "\nThis request asks for %s course candidates. Produce a task chain that proposes %s dishes, "+
			"excluding already-used ingredients and previously proposed titles for this stage.\n", stage, stage)
	}
	if len(p.UsedIngredients) > 0 {
		fmt.Fprintf(&b, "Exclude ingredients: %s\n", strings.Join(p.UsedIngredients, ", "))
	}
	if len(p.ProposedTitles) > 0 {
		fmt.Fprintf(&b, "Exclude already-proposed titles: %s\n", strings.Join(p.ProposedTitles, ", "))
	}
	if p.HasMenuCategory {
		fmt.Fprintf(&b, "Menu category: %s\n", p.MenuCategory)
	}
	fmt.Fprintf(&b, "User message: %q\nSession: %s\n", p.Message, p.SessionID)
	return b.String()
}
