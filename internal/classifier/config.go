package classifier

import "github.com/haasonsaas/mealplanner/internal/mealmodel"

// MarkerTable holds the keyword lists the classifier matches against.
// It is intentionally data, not code: the set of tokens that mean
// "more"/"other" in a given deployment's language is configurable
// rather than compiled in, so operators can extend it without a
// redeploy (internal/config loads this from the process config file).
type MarkerTable struct {
	// AdditionalMarkers are tokens equivalent to "more"/"other"/"additional".
	AdditionalMarkers []string `yaml:"additional_markers"`

	// StageMarkers name, per stage, tokens that indicate the user is
	// talking about that specific course.
	StageMarkers map[mealmodel.Stage][]string `yaml:"stage_markers"`

	// MenuPlanMarkers indicate a request for a full menu ("menu",
	// "recipes", "what can I make").
	MenuPlanMarkers []string `yaml:"menu_plan_markers"`

	// InventoryVerbs indicate the message is an inventory mutation or
	// listing ("add", "remove", "change to", "list").
	InventoryVerbs []string `yaml:"inventory_verbs"`

	// ViewVerbs is the subset of InventoryVerbs that names a read-only
	// listing rather than a mutation ("list", "show what I have"). A
	// matched view verb marks a Classification as a candidate for the
	// inventory-view planner bypass (spec.md §9 Open Questions, third
	// bullet).
	ViewVerbs []string `yaml:"view_verbs"`

	// QualifierStrategies maps a qualifier token to the strategy hint
	// it implies for an inventory operation.
	QualifierStrategies map[string]string `yaml:"qualifier_strategies"`

	// MenuCategoryMarkers maps a token to the menu category it names.
	MenuCategoryMarkers map[string]mealmodel.MenuCategory `yaml:"menu_category_markers"`
}

// DefaultMarkerTable is the recommended table, covering both English
// and Japanese tokens since the domain (ingredient normalization,
// katakana/hiragana folding) is bilingual.
func DefaultMarkerTable() MarkerTable {
	return MarkerTable{
		AdditionalMarkers: []string{
			"more", "another", "other", "additional", "else",
			"他の", "別の", "もっと", "追加",
		},
		StageMarkers: map[mealmodel.Stage][]string{
			mealmodel.StageMain: {"main dish", "main course", "entree", "主菜", "メイン"},
			mealmodel.StageSub:  {"side dish", "side", "副菜", "サイド"},
			mealmodel.StageSoup: {"soup", "スープ", "汁物", "味噌汁"},
		},
		MenuPlanMarkers: []string{
			"menu", "recipes", "what can i make", "what can we make",
			"献立", "レシピ",
		},
		InventoryVerbs: []string{
			"add", "remove", "delete", "change", "update", "list", "show", "view",
			"what do i have", "what's in my",
			"追加", "削除", "変更", "一覧", "在庫",
		},
		ViewVerbs: []string{
			"list", "show", "view", "what do i have", "what's in my",
			"一覧", "在庫",
		},
		QualifierStrategies: map[string]string{
			"all":    "by_name_all",
			"every":  "by_name_all",
			"oldest": "by_name_oldest",
			"latest": "by_name_latest",
			"newest": "by_name_latest",
			"すべて":  "by_name_all",
			"全部":   "by_name_all",
			"一番古い": "by_name_oldest",
			"最新":   "by_name_latest",
		},
		MenuCategoryMarkers: map[string]mealmodel.MenuCategory{
			"japanese":  mealmodel.MenuJapanese,
			"western":   mealmodel.MenuWestern,
			"chinese":   mealmodel.MenuChinese,
			"和食":      mealmodel.MenuJapanese,
			"洋食":      mealmodel.MenuWestern,
			"中華":      mealmodel.MenuChinese,
		},
	}
}
