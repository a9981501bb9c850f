// Package stage implements the Stage Controller (C12): the per-session
// main->sub->soup->completed menu-selection state machine, the only
// writer of Session.Stage outside of session creation. Grounded on
// internal/sessions/cockroach.go's single-writer mutation pattern
// (validate against current state, then apply exactly one state
// transition) adapted from a session-row update to a stage advance.
package stage

import (
	"context"
	"fmt"
	"strings"

	"github.com/haasonsaas/mealplanner/internal/classifier"
	"github.com/haasonsaas/mealplanner/internal/ingredient"
	"github.com/haasonsaas/mealplanner/internal/mealerr"
	"github.com/haasonsaas/mealplanner/internal/mealmodel"
)

// stageOrder fixes the iteration order C4's cross-stage union needs
// (spec.md §4.12 step 3); map iteration order is never relied on.
var stageOrder = []string{
	string(mealmodel.StageMain),
	string(mealmodel.StageSub),
	string(mealmodel.StageSoup),
}

// HistoryStore is the external collaborator the save step (spec.md
// §4.12 step 7) persists completed selections to. internal/history
// implements it; the controller only depends on the narrow shape.
type HistoryStore interface {
	Save(ctx context.Context, userID string, title string, recipe *mealmodel.Recipe) (string, error)
}

// Controller drives the stage state machine for one session per call.
type Controller struct {
	history HistoryStore
	table   classifier.MarkerTable
}

// New builds a Controller. table supplies the menu-category keyword
// markers used to infer a selected main dish's cuisine (spec.md §4.12
// step 4); pass classifier.DefaultMarkerTable() for the recommended
// bilingual set.
func New(history HistoryStore, table classifier.MarkerTable) *Controller {
	return &Controller{history: history, table: table}
}

// Select validates and applies a client's selection POST against sess,
// advancing its stage (spec.md §4.12).
func (c *Controller) Select(sess *mealmodel.Session, selectionIndex int) error {
	stage := sess.Stage
	if stage == mealmodel.StageCompleted {
		return mealerr.New(mealerr.KindInternal, "stage: session has no open selection stage")
	}

	candidates := sess.Candidates[stage]
	if selectionIndex < 0 || selectionIndex >= len(candidates) {
		return mealerr.New(mealerr.KindInternal, fmt.Sprintf("stage: selection index %d out of range for stage %s", selectionIndex, stage))
	}

	selected := candidates[selectionIndex]
	selected.Category = stage
	sess.SelectedRecipes[stage] = &selected

	c.updateUsedIngredients(sess)

	if stage == mealmodel.StageMain {
		c.inferMenuCategory(sess, &selected)
	}

	sess.Stage = stage.NextStage()
	return nil
}

// updateUsedIngredients recomputes session.used_ingredients via C4
// across every stage selected so far, in the fixed stage order.
func (c *Controller) updateUsedIngredients(sess *mealmodel.Session) {
	inventory, _ := sess.Context["inventory_items"].([]string)

	byStage := make(map[string][]string, len(sess.SelectedRecipes))
	for st, recipe := range sess.SelectedRecipes {
		if recipe == nil {
			continue
		}
		byStage[string(st)] = recipe.Ingredients
	}

	sess.UsedIngredients = ingredient.UsedIngredientsUnion(byStage, stageOrder, inventory)
}

// inferMenuCategory stores the cuisine the recipe's title names, if
// any of the configured markers match; otherwise the session's default
// category is left untouched (spec.md §4.12 step 4).
func (c *Controller) inferMenuCategory(sess *mealmodel.Session, recipe *mealmodel.Recipe) {
	lower := strings.ToLower(recipe.Title)
	for token, category := range c.table.MenuCategoryMarkers {
		if strings.Contains(lower, strings.ToLower(token)) {
			sess.MenuCategory = category
			return
		}
	}
}

// Save persists every non-nil selected recipe into the history store,
// prefixing each title with its stage category, and returns the saved
// ids in stage order (spec.md §4.12 step 7).
func (c *Controller) Save(ctx context.Context, sess *mealmodel.Session) ([]string, error) {
	return c.SaveRecipes(ctx, sess.UserID, sess.SelectedRecipes)
}

// SaveRecipes persists every non-nil recipe in recipes into the history
// store, prefixing each title with its stage category, and returns the
// saved ids in stage order. Used both by Save (recipes read from a
// session) and directly by a menu-save request that supplies the
// recipes inline instead of by session id (spec.md §6 "Menu save").
func (c *Controller) SaveRecipes(ctx context.Context, userID string, recipes map[mealmodel.Stage]*mealmodel.Recipe) ([]string, error) {
	var ids []string
	for _, st := range []mealmodel.Stage{mealmodel.StageMain, mealmodel.StageSub, mealmodel.StageSoup} {
		recipe := recipes[st]
		if recipe == nil {
			continue
		}
		title := fmt.Sprintf("%s: %s", st, recipe.Title)
		id, err := c.history.Save(ctx, userID, title, recipe)
		if err != nil {
			return nil, mealerr.Wrap(mealerr.KindInternal, "stage: saving "+title, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
