package httpapi

import (
	"net/http"

	"github.com/haasonsaas/mealplanner/internal/auth"
	"github.com/haasonsaas/mealplanner/internal/mealmodel"
	"github.com/haasonsaas/mealplanner/pkg/mealplanapi"
)

// handleSave serves POST /api/save (spec.md §6 "Menu save"). A request
// names either an existing session (its selected recipes are read off
// the session) or supplies recipes inline; the two forms are mutually
// exclusive.
func (h *Handler) handleSave(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var req mealplanapi.SaveRequest
	if status, err := decodeJSONRequest(w, r, &req); err != nil {
		h.jsonError(w, err.Error(), status)
		return
	}

	var (
		ids []string
		err error
	)
	switch {
	case req.Recipes != nil && req.SSESessionID != "":
		h.jsonError(w, "recipes and sse_session_id are mutually exclusive", http.StatusBadRequest)
		return
	case req.Recipes != nil:
		ids, err = h.saveInlineRecipes(r, req.Recipes)
	case req.SSESessionID != "":
		ids, err = h.saveSessionRecipes(r, req.SSESessionID)
	default:
		h.jsonError(w, "one of recipes or sse_session_id is required", http.StatusBadRequest)
		return
	}
	if err != nil {
		h.writePipelineError(w, r, err)
		return
	}

	h.jsonResponse(w, mealplanapi.SaveResponse{SavedIDs: ids})
}

func (h *Handler) saveSessionRecipes(r *http.Request, sessionID string) ([]string, error) {
	sess, err := h.cfg.Sessions.Get(r.Context(), sessionID)
	if err != nil {
		return nil, err
	}
	return h.cfg.Stage.Save(r.Context(), sess)
}

func (h *Handler) saveInlineRecipes(r *http.Request, set *mealplanapi.SaveRecipeSet) ([]string, error) {
	identity, _ := auth.IdentityFromContext(r.Context())
	recipes := map[mealmodel.Stage]*mealmodel.Recipe{}
	if set.Main != nil {
		recipes[mealmodel.StageMain] = toMealRecipe(mealmodel.StageMain, set.Main)
	}
	if set.Sub != nil {
		recipes[mealmodel.StageSub] = toMealRecipe(mealmodel.StageSub, set.Sub)
	}
	if set.Soup != nil {
		recipes[mealmodel.StageSoup] = toMealRecipe(mealmodel.StageSoup, set.Soup)
	}
	return h.cfg.Stage.SaveRecipes(r.Context(), identity.ID, recipes)
}

func toMealRecipe(stage mealmodel.Stage, r *mealplanapi.SaveRecipe) *mealmodel.Recipe {
	return &mealmodel.Recipe{
		Title:       r.Title,
		Category:    stage,
		Source:      mealmodel.RecipeSource(r.Source),
		URL:         r.URL,
		Ingredients: r.Ingredients,
	}
}
