package classifier

import (
	"strings"

	"github.com/haasonsaas/mealplanner/internal/mealmodel"
)

// stageCheckOrder fixes iteration order over MarkerTable.StageMarkers so
// matching is deterministic regardless of Go's randomized map order.
var stageCheckOrder = []mealmodel.Stage{
	mealmodel.StageMain,
	mealmodel.StageSub,
	mealmodel.StageSoup,
}

// Classifier applies a MarkerTable to incoming messages.
type Classifier struct {
	table MarkerTable
}

// New builds a Classifier from the given table.
func New(table MarkerTable) *Classifier {
	return &Classifier{table: table}
}

// NewDefault builds a Classifier using DefaultMarkerTable.
func NewDefault() *Classifier {
	return New(DefaultMarkerTable())
}

// Classify routes message against the session's current state,
// following the documented precedence order (spec.md §4.5):
//
//  1. an open confirmation always wins
//  2. additional-proposal markers, if the session isn't completed
//  3. stage-specific proposal markers
//  4. menu-plan markers
//  5. inventory verbs
//  6. otherwise greeting_or_unknown
func (c *Classifier) Classify(message string, sess *mealmodel.Session) Classification {
	lower := strings.ToLower(message)

	if sess != nil && sess.AwaitingConfirmation() {
		return Classification{Pattern: PatternConfirmationReply}
	}

	if sess != nil && sess.Stage != mealmodel.StageCompleted && containsAny(lower, c.table.AdditionalMarkers) {
		return Classification{Pattern: additionalPatternFor(sess.Stage)}
	}

	for _, stage := range stageCheckOrder {
		if containsAny(lower, c.table.StageMarkers[stage]) {
			cls := Classification{Pattern: proposalPatternForStage(stage)}
			c.attachMenuCategory(lower, &cls)
			return cls
		}
	}

	if containsAny(lower, c.table.MenuPlanMarkers) {
		cls := Classification{Pattern: PatternMenuPlan}
		c.attachMenuCategory(lower, &cls)
		return cls
	}

	if verb, ok := matchFirst(lower, c.table.InventoryVerbs); ok {
		cls := Classification{Pattern: PatternInventoryOp}
		cls.StrategyHint = c.strategyHint(lower)
		cls.MainIngredient = extractMainIngredient(lower, verb)
		_, cls.IsViewRequest = matchFirst(lower, c.table.ViewVerbs)
		return cls
	}

	return Classification{Pattern: PatternGreetingOrUnknown}
}

// strategyHint scans for the first qualifier token present and returns
// its mapped strategy, defaulting to "by_name" (a single-item update,
// never decomposed into delete-plus-add: "change to" is one verb like
// any other in InventoryVerbs).
func (c *Classifier) strategyHint(lower string) string {
	for token, strategy := range c.table.QualifierStrategies {
		if strings.Contains(lower, token) {
			return strategy
		}
	}
	return "by_name"
}

func (c *Classifier) attachMenuCategory(lower string, cls *Classification) {
	for token, category := range c.table.MenuCategoryMarkers {
		if strings.Contains(lower, token) {
			cls.MenuCategory = category
			cls.HasMenuCategory = true
			return
		}
	}
}

func containsAny(haystack string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(haystack, m) {
			return true
		}
	}
	return false
}

func matchFirst(haystack string, markers []string) (string, bool) {
	for _, m := range markers {
		if strings.Contains(haystack, m) {
			return m, true
		}
	}
	return "", false
}

// extractMainIngredient takes the first noun phrase following the
// matched verb. This is a best-effort heuristic the planner's prompt
// builder treats as a hint, not ground truth: the LLM still produces
// the final item_name parameter from the full message.
func extractMainIngredient(lower, verb string) string {
	idx := strings.Index(lower, verb)
	if idx < 0 {
		return ""
	}
	rest := strings.TrimSpace(lower[idx+len(verb):])
	fields := strings.Fields(rest)
	var kept []string
	for _, f := range fields {
		if isQuantityWord(f) {
			continue
		}
		kept = append(kept, f)
	}
	return strings.Join(kept, " ")
}

func isQuantityWord(f string) bool {
	if f == "" {
		return false
	}
	for _, r := range f {
		if r >= '0' && r <= '9' {
			return true
		}
	}
	return false
}
