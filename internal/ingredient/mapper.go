package ingredient

import "strings"

// MapRecipeToInventory normalizes both sides and, for each recipe
// ingredient, prefers an exact normalized match, else the first
// inventory entry whose normalized form is a substring of, or a
// superstring of, the recipe ingredient's normalized form. Unmatched
// recipe ingredients are dropped. Output preserves insertion order and
// removes duplicates (spec.md §4.4).
func MapRecipeToInventory(recipeIngredients, inventoryIngredients []string) []string {
	type normalized struct {
		raw  string
		norm string
	}

	normInventory := make([]normalized, 0, len(inventoryIngredients))
	for _, inv := range inventoryIngredients {
		normInventory = append(normInventory, normalized{raw: inv, norm: Normalize(inv)})
	}

	seen := make(map[string]bool, len(recipeIngredients))
	var out []string

	for _, ri := range recipeIngredients {
		riNorm := Normalize(ri)
		if riNorm == "" {
			continue
		}

		match := findMatch(riNorm, normInventory)
		if match == "" {
			continue
		}
		if seen[match] {
			continue
		}
		seen[match] = true
		out = append(out, match)
	}
	return out
}

func findMatch(riNorm string, inventory []struct {
	raw  string
	norm string
}) string {
	// Exact match first.
	for _, inv := range inventory {
		if inv.norm == riNorm {
			return inv.raw
		}
	}
	// Substring/superstring match, first hit wins.
	for _, inv := range inventory {
		if inv.norm == "" {
			continue
		}
		if strings.Contains(riNorm, inv.norm) || strings.Contains(inv.norm, riNorm) {
			return inv.raw
		}
	}
	return ""
}

// UsedIngredientsUnion folds the ingredients of every non-nil recipe in
// selectedRecipes (keyed by stage, in map iteration order does NOT
// matter for the result set since output is a deduplicated union) onto
// inventoryIngredients, returning the combined, order-preserving,
// deduplicated list spec.md §3 calls used_ingredients.
//
// stageOrder fixes the iteration order over selectedRecipes so the
// resulting slice is deterministic across calls.
func UsedIngredientsUnion(selectedRecipes map[string][]string, stageOrder []string, inventoryIngredients []string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, stage := range stageOrder {
		ings, ok := selectedRecipes[stage]
		if !ok {
			continue
		}
		for _, mapped := range MapRecipeToInventory(ings, inventoryIngredients) {
			key := Normalize(mapped)
			if seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, mapped)
		}
	}
	return out
}
