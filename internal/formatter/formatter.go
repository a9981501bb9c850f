// Package formatter implements the Response Formatter (C11): turns a
// graph the executor has finished (or suspended) running into the
// response payload a chat turn returns, merging downstream web-search
// URL metadata into proposal candidates by position and deduplicating
// the result by title. Grounded on internal/web/api_types.go's
// response-struct shape (a fixed optional-field envelope populated
// from whatever the handler actually produced, not templated per
// request type).
package formatter

import (
	"fmt"
	"strings"

	"github.com/haasonsaas/mealplanner/internal/ingredient"
	"github.com/haasonsaas/mealplanner/internal/mealmodel"
)

// proposalMethods are the service.method names whose terminal result is
// a set of candidates rather than free text (spec.md §4.11).
var proposalMethods = map[string]bool{
	"proposal_service.generate_menu_plan":       true,
	"proposal_service.search_menu_from_rag":     true,
	"proposal_service.search_recipes_from_web":  true,
}

// Formatter has no state; every input is passed explicitly.
type Formatter struct{}

// New builds a Formatter.
func New() *Formatter { return &Formatter{} }

// Format builds the response payload for sess's current graph.
func (f *Formatter) Format(sess *mealmodel.Session, graph *mealmodel.TaskGraph) map[string]any {
	out := map[string]any{
		"current_stage": sess.Stage,
		"menu_category":  sess.MenuCategory,
	}

	if used := remainingIngredients(sess); used != nil {
		out["used_ingredients"] = used
	}

	if sess.AwaitingConfirmation() {
		out["requires_confirmation"] = true
		out["confirmation_session_id"] = sess.ID
		out["response"] = sess.Confirmation.Question
		return out
	}

	terminal := terminalTasks(graph)

	if candidates, webTask, ok := proposalCandidates(graph, terminal); ok {
		out["requires_selection"] = true
		out["candidates"] = candidates
		if webTask != nil {
			out["task_id"] = webTask.ID
		} else if len(terminal) > 0 {
			out["task_id"] = terminal[0].ID
		}
		out["response"] = ""
		return out
	}

	out["response"] = summarize(terminal)
	return out
}

// terminalTasks returns the tasks no other task in the graph declares
// as a dependency: the graph's "leaves".
func terminalTasks(graph *mealmodel.TaskGraph) []*mealmodel.Task {
	if graph == nil {
		return nil
	}
	referenced := make(map[string]bool, graph.Len())
	for _, t := range graph.Tasks {
		for _, dep := range t.Dependencies {
			referenced[dep] = true
		}
	}
	var leaves []*mealmodel.Task
	for _, t := range graph.Tasks {
		if !referenced[t.ID] {
			leaves = append(leaves, t)
		}
	}
	return leaves
}

// proposalCandidates builds the deduplicated candidate list for a
// terminal proposal task, merging URL metadata from a downstream
// web-search task by position when one is present.
func proposalCandidates(graph *mealmodel.TaskGraph, terminal []*mealmodel.Task) ([]map[string]any, *mealmodel.Task, bool) {
	var proposal *mealmodel.Task
	for _, t := range terminal {
		if proposalMethods[t.ServiceMethod()] && t.State == mealmodel.TaskSucceeded {
			proposal = t
			break
		}
	}
	if proposal == nil {
		return nil, nil, false
	}

	var base []map[string]any
	var webTask *mealmodel.Task

	if proposal.ServiceMethod() == "proposal_service.search_recipes_from_web" {
		webTask = proposal
		for _, depID := range proposal.Dependencies {
			dep := graph.ByID(depID)
			if dep == nil || dep.State != mealmodel.TaskSucceeded {
				continue
			}
			base = append(base, extractCandidates(dep.Result)...)
		}
	} else {
		base = extractCandidates(proposal.Result)
	}

	deduped := dedupeByTitle(base)

	if webTask != nil {
		urls := extractCandidates(webTask.Result)
		for i := range deduped {
			if i >= len(urls) {
				break
			}
			if url, ok := urls[i]["url"].(string); ok && url != "" {
				deduped[i]["url"] = url
			}
			if img, ok := urls[i]["image_url"].(string); ok && img != "" {
				deduped[i]["image_url"] = img
			}
		}
	}

	return deduped, webTask, true
}

// extractCandidates normalizes a tool result's Data into a sequence of
// candidate-shaped maps, looking under a "data" key first since that is
// the shape proposal_service results use.
func extractCandidates(result any) []map[string]any {
	obj, ok := result.(map[string]any)
	if !ok {
		return nil
	}
	seq, ok := obj["data"].([]any)
	if !ok {
		if direct, ok := obj["items"].([]any); ok {
			seq = direct
		} else {
			return nil
		}
	}
	out := make([]map[string]any, 0, len(seq))
	for _, item := range seq {
		if m, ok := item.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out
}

// dedupeByTitle removes later entries whose "title" matches an earlier
// one, preserving the first occurrence (spec.md §4.11). Each returned
// map is a copy so later URL merging does not mutate shared state.
func dedupeByTitle(items []map[string]any) []map[string]any {
	seen := make(map[string]bool, len(items))
	out := make([]map[string]any, 0, len(items))
	for _, item := range items {
		title, _ := item["title"].(string)
		key := title
		if key == "" {
			key = fmt.Sprintf("%v", item)
		}
		if seen[key] {
			continue
		}
		seen[key] = true
		cp := make(map[string]any, len(item))
		for k, v := range item {
			cp[k] = v
		}
		out = append(out, cp)
	}
	return out
}

// summarize builds the human-facing text for a non-proposal terminal
// task set (inventory operations and menu plans).
func summarize(terminal []*mealmodel.Task) string {
	if len(terminal) == 0 {
		return ""
	}
	var lines []string
	for _, t := range terminal {
		switch {
		case t.State == mealmodel.TaskFailed:
			lines = append(lines, fmt.Sprintf("%s failed: %v", t.Description, t.Error))
		case strings.HasPrefix(t.Service, "inventory_service"):
			lines = append(lines, summarizeInventoryTask(t))
		default:
			lines = append(lines, t.Description)
		}
	}
	return strings.Join(lines, "\n")
}

func summarizeInventoryTask(t *mealmodel.Task) string {
	item, _ := t.Parameters["item_name"].(string)
	if item == "" {
		item, _ = t.Parameters["item_identifier"].(string)
	}
	switch t.Method {
	case "add_inventory":
		return fmt.Sprintf("Added %s to your inventory.", item)
	case "update_inventory":
		return fmt.Sprintf("Updated %s in your inventory.", item)
	case "delete_inventory":
		return fmt.Sprintf("Removed %s from your inventory.", item)
	case "get_inventory":
		return "Here is your current inventory."
	default:
		return t.Description
	}
}

// remainingIngredients computes the inventory items not yet consumed
// by the session's selected recipes (spec.md §4.11), normalizing both
// sides through C4 so script/casing variants are not treated as
// distinct leftovers.
func remainingIngredients(sess *mealmodel.Session) []string {
	raw, ok := sess.Context["inventory_items"].([]string)
	if !ok {
		return nil
	}
	consumed := make(map[string]bool, len(sess.UsedIngredients))
	for _, u := range sess.UsedIngredients {
		consumed[ingredient.Normalize(u)] = true
	}
	var remaining []string
	for _, item := range raw {
		if !consumed[ingredient.Normalize(item)] {
			remaining = append(remaining, item)
		}
	}
	return remaining
}
