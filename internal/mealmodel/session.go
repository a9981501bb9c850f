package mealmodel

import "time"

// Stage is the position in the main->sub->soup->completed menu-selection
// state machine (C12).
type Stage string

const (
	StageMain      Stage = "main"
	StageSub       Stage = "sub"
	StageSoup      Stage = "soup"
	StageCompleted Stage = "completed"
)

// NextStage returns the stage that follows s, or s itself if s is
// already terminal.
func (s Stage) NextStage() Stage {
	switch s {
	case StageMain:
		return StageSub
	case StageSub:
		return StageSoup
	case StageSoup:
		return StageCompleted
	default:
		return s
	}
}

// MenuCategory is the cuisine family driving menu proposals.
type MenuCategory string

const (
	MenuJapanese MenuCategory = "japanese"
	MenuWestern  MenuCategory = "western"
	MenuChinese  MenuCategory = "chinese"
)

// RecipeSource identifies where a Recipe/Candidate originated.
type RecipeSource string

const (
	SourceLLM    RecipeSource = "llm"
	SourceRAG    RecipeSource = "rag"
	SourceWeb    RecipeSource = "web"
	SourceManual RecipeSource = "manual"
)

// Recipe is a concrete dish, selected or saved. Candidate is its
// proposal-stage counterpart; the two share the same fields so a
// Candidate can be promoted to a Recipe without copying by hand.
type Recipe struct {
	Title       string       `json:"title"`
	Category    Stage        `json:"category"`
	Source      RecipeSource `json:"source"`
	URL         string       `json:"url,omitempty"`
	Ingredients []string     `json:"ingredients"`
	ImageURL    string       `json:"image_url,omitempty"`
}

// Candidate is an offered choice during a proposal; identical shape to
// Recipe per spec.md §3.
type Candidate = Recipe

// ConfirmationKind distinguishes the reasons a session can be suspended
// awaiting a user reply.
type ConfirmationKind string

const (
	ConfirmAmbiguity      ConfirmationKind = "ambiguity"
	ConfirmStageSelection ConfirmationKind = "stage_selection"
)

// DetectedAmbiguity carries the candidates an ambiguous tool call
// reported, so the orchestrator can turn a follow-up reply into a
// concrete strategy (C10).
type DetectedAmbiguity struct {
	TaskID string           `json:"task_id"`
	Items  []map[string]any `json:"items"`
}

// Confirmation is non-nil exactly when a session is awaiting a reply to
// a question raised mid-graph (spec.md §3, §4.10).
type Confirmation struct {
	Kind               ConfirmationKind   `json:"kind"`
	OriginalRequest    string             `json:"original_request"`
	Question           string             `json:"question"`
	DetectedAmbiguity  *DetectedAmbiguity `json:"detected_ambiguity,omitempty"`
	Timestamp          time.Time          `json:"timestamp"`
	PendingGraph       *TaskGraph         `json:"-"`
}

// Session is per-conversation state: the multi-stage menu dialog,
// proposed/selected recipes, ingredient accounting, and confirmation
// state (C2/§3).
type Session struct {
	ID        string `json:"id"`
	UserID    string `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
	LastAccessed time.Time `json:"last_accessed"`

	Stage           Stage                    `json:"stage"`
	SelectedRecipes map[Stage]*Recipe        `json:"selected_recipes"`
	UsedIngredients []string                 `json:"used_ingredients"`
	MenuCategory    MenuCategory             `json:"menu_category"`
	ProposedTitles  map[Stage][]string       `json:"proposed_titles"`
	Candidates      map[Stage][]Candidate    `json:"candidates"`
	Context         map[string]any           `json:"context"`
	Confirmation    *Confirmation            `json:"confirmation,omitempty"`
}

// NewSession constructs a fresh session with the invariants spec.md §3
// names as defaults: stage=main, menu_category=japanese, empty maps.
func NewSession(id, userID string, now time.Time) *Session {
	return &Session{
		ID:              id,
		UserID:          userID,
		CreatedAt:       now,
		LastAccessed:    now,
		Stage:           StageMain,
		SelectedRecipes: map[Stage]*Recipe{},
		UsedIngredients: nil,
		MenuCategory:    MenuJapanese,
		ProposedTitles:  map[Stage][]string{},
		Candidates:      map[Stage][]Candidate{},
		Context:         map[string]any{},
	}
}

// AwaitingConfirmation reports whether the session is suspended pending
// a user reply.
func (s *Session) AwaitingConfirmation() bool {
	return s != nil && s.Confirmation != nil
}

// Clone returns a deep-enough copy of the session suitable for handing
// to a caller outside the store's lock (C2 invariant: the store owns
// the canonical copy).
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	clone := *s
	clone.SelectedRecipes = make(map[Stage]*Recipe, len(s.SelectedRecipes))
	for k, v := range s.SelectedRecipes {
		if v == nil {
			clone.SelectedRecipes[k] = nil
			continue
		}
		r := *v
		r.Ingredients = append([]string(nil), v.Ingredients...)
		clone.SelectedRecipes[k] = &r
	}
	clone.UsedIngredients = append([]string(nil), s.UsedIngredients...)
	clone.ProposedTitles = make(map[Stage][]string, len(s.ProposedTitles))
	for k, v := range s.ProposedTitles {
		clone.ProposedTitles[k] = append([]string(nil), v...)
	}
	clone.Candidates = make(map[Stage][]Candidate, len(s.Candidates))
	for k, v := range s.Candidates {
		clone.Candidates[k] = append([]Candidate(nil), v...)
	}
	clone.Context = make(map[string]any, len(s.Context))
	for k, v := range s.Context {
		clone.Context[k] = v
	}
	if s.Confirmation != nil {
		c := *s.Confirmation
		clone.Confirmation = &c
	}
	return &clone
}
