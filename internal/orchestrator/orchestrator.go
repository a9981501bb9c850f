// Package orchestrator implements the Chat Orchestrator (C13): the
// single top-level entry point one chat turn goes through, wiring the
// classifier (C5), prompt builder (C6), planner (C7), executor (C9),
// and formatter (C11) together, and enforcing that at most one graph
// runs per session at a time. Grounded on
// internal/multiagent/orchestrator.go's role as the single façade a
// caller drives a turn through, and its session-store field wiring,
// adapted here from agent selection/handoff to pattern-to-plan-to-
// execution dispatch.
package orchestrator

import (
	"context"
	"sync"
	"time"

	"github.com/haasonsaas/mealplanner/internal/ambiguity"
	"github.com/haasonsaas/mealplanner/internal/classifier"
	"github.com/haasonsaas/mealplanner/internal/mealerr"
	"github.com/haasonsaas/mealplanner/internal/mealmodel"
	"github.com/haasonsaas/mealplanner/internal/promptbuilder"
	"github.com/haasonsaas/mealplanner/internal/session"
)

const cannedGreeting = "Hi! Tell me what's in your kitchen, or ask me for a menu."

// Planner is the narrow shape orchestrator needs from C7.
type Planner interface {
	Plan(ctx context.Context, sessionID, prompt string) (*mealmodel.TaskGraph, error)
}

// Executor is the narrow shape orchestrator needs from C9.
type Executor interface {
	Execute(ctx context.Context, sess *mealmodel.Session, graph *mealmodel.TaskGraph, authToken string) error
}

// Formatter is the narrow shape orchestrator needs from C11.
type Formatter interface {
	Format(sess *mealmodel.Session, graph *mealmodel.TaskGraph) map[string]any
}

// InventoryViewer is the narrow shape of the inventory collaborator
// client the inventory-view bypass needs: a direct read, skipping the
// planner entirely (SPEC_FULL.md §D "Bypass path for inventory
// listing", grounded on internal/tasks/executor.go's RoutingExecutor
// routing some task kinds around the full agent runtime).
type InventoryViewer interface {
	GetInventory(ctx context.Context, params map[string]any, authToken string) (mealmodel.ToolResult, error)
}

// Orchestrator drives one turn at a time per session (spec.md §4.13).
type Orchestrator struct {
	sessions  session.Store
	classify  *classifier.Classifier
	planner   Planner
	executor  Executor
	formatter Formatter
	busy      *busyTable
	now       func() time.Time

	inventoryView       InventoryViewer
	bypassInventoryView bool
}

// New builds an Orchestrator from its collaborators.
func New(sessions session.Store, classify *classifier.Classifier, planner Planner, executor Executor, formatter Formatter) *Orchestrator {
	return &Orchestrator{
		sessions:  sessions,
		classify:  classify,
		planner:   planner,
		executor:  executor,
		formatter: formatter,
		busy:      newBusyTable(),
		now:       time.Now,
	}
}

// SetInventoryBypass attaches the direct inventory-read client and
// enables the PatternInventoryOp view bypass (config
// classifier.bypass_inventory_view, default on). Leaving it unset or
// calling with enabled=false keeps every inventory-view request on the
// full plan-then-execute path.
func (o *Orchestrator) SetInventoryBypass(viewer InventoryViewer, enabled bool) {
	o.inventoryView = viewer
	o.bypassInventoryView = enabled
}

// busyTable tracks which sessions currently have a Handle call in
// flight, the mechanism behind BusySession (spec.md §4.13). A session
// is only ever "busy" for the duration of one Handle call; a suspended
// graph (awaiting confirmation) has already returned and released its
// slot, so the next message for that session is never rejected.
type busyTable struct {
	mu  sync.Mutex
	ids map[string]bool
}

func newBusyTable() *busyTable { return &busyTable{ids: make(map[string]bool)} }

func (b *busyTable) tryAcquire(id string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.ids[id] {
		return false
	}
	b.ids[id] = true
	return true
}

func (b *busyTable) release(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.ids, id)
}

// Handle runs one chat turn to completion and returns the formatted
// response (spec.md §4.13).
func (o *Orchestrator) Handle(ctx context.Context, msg mealmodel.UserMessage, authToken string) (map[string]any, error) {
	sess, err := o.sessions.GetOrCreate(ctx, msg.SessionID, msg.UserID)
	if err != nil {
		return nil, err
	}

	if !o.busy.tryAcquire(sess.ID) {
		return nil, mealerr.New(mealerr.KindBusySession, "orchestrator: a graph is already running for session "+sess.ID)
	}
	defer o.busy.release(sess.ID)

	cls := o.classify.Classify(msg.Text, sess)

	switch {
	case cls.Pattern == classifier.PatternConfirmationReply:
		return o.handleConfirmationReply(ctx, sess, msg.Text, authToken)
	case cls.Pattern == classifier.PatternGreetingOrUnknown:
		return map[string]any{
			"response":      cannedGreeting,
			"current_stage": sess.Stage,
			"menu_category": sess.MenuCategory,
		}, nil
	case cls.Pattern == classifier.PatternInventoryOp && cls.IsViewRequest && o.bypassInventoryView && o.inventoryView != nil:
		return o.handleInventoryView(ctx, sess, authToken)
	default:
		return o.handlePlannedTurn(ctx, sess, cls, msg.Text, authToken)
	}
}

// handleInventoryView serves a read-only inventory listing directly
// from the inventory collaborator, skipping the classifier's proposal
// patterns entirely, the planner, and the executor (SPEC_FULL.md §D).
func (o *Orchestrator) handleInventoryView(ctx context.Context, sess *mealmodel.Session, authToken string) (map[string]any, error) {
	result, err := o.inventoryView.GetInventory(ctx, map[string]any{"user_id": sess.UserID}, authToken)
	if err != nil {
		return nil, mealerr.Wrap(mealerr.KindToolFailed, "orchestrator: inventory view bypass", err)
	}
	if !result.Success {
		return nil, mealerr.New(mealerr.KindToolFailed, result.Error)
	}

	return map[string]any{
		"response":      "Here is your current inventory.",
		"current_stage": sess.Stage,
		"menu_category": sess.MenuCategory,
		"inventory":     result.Data,
	}, nil
}

// handlePlannedTurn builds a prompt for cls, plans a graph from it, and
// runs it to completion.
func (o *Orchestrator) handlePlannedTurn(ctx context.Context, sess *mealmodel.Session, cls classifier.Classification, message, authToken string) (map[string]any, error) {
	prompt, err := promptbuilder.Build(cls.Pattern, promptbuilder.Params{
		Message:         message,
		SessionID:       sess.ID,
		MainIngredient:  cls.MainIngredient,
		StrategyHint:    cls.StrategyHint,
		MenuCategory:    cls.MenuCategory,
		HasMenuCategory: cls.HasMenuCategory,
		UsedIngredients: sess.UsedIngredients,
		InventoryItems:  inventoryItems(sess),
		ProposedTitles:  sess.ProposedTitles[sess.Stage],
	})
	if err != nil {
		return nil, err
	}

	graph, err := o.planner.Plan(ctx, sess.ID, prompt)
	if err != nil {
		return nil, err
	}

	return o.runAndPersist(ctx, sess, graph, authToken)
}

// handleConfirmationReply converts a confirmation_reply message into a
// retry strategy and resumes the suspended graph (spec.md §4.10, §4.13).
func (o *Orchestrator) handleConfirmationReply(ctx context.Context, sess *mealmodel.Session, reply, authToken string) (map[string]any, error) {
	confirmation := sess.Confirmation
	if confirmation == nil || confirmation.DetectedAmbiguity == nil {
		return nil, mealerr.New(mealerr.KindInternal, "orchestrator: confirmation_reply with no pending ambiguity")
	}

	strategy, ok, rejected := ambiguity.ResolveReply(reply)

	if rejected {
		sess.Confirmation = nil
		if err := o.persist(ctx, sess); err != nil {
			return nil, err
		}
		return map[string]any{
			"response":      "Okay, I've cancelled that.",
			"current_stage": sess.Stage,
			"menu_category": sess.MenuCategory,
		}, nil
	}

	if !ok {
		return map[string]any{
			"response":                confirmation.Question,
			"requires_confirmation":   true,
			"confirmation_session_id": sess.ID,
		}, nil
	}

	graph := confirmation.PendingGraph
	task := graph.ByID(confirmation.DetectedAmbiguity.TaskID)
	if task == nil {
		return nil, mealerr.New(mealerr.KindInternal, "orchestrator: pending ambiguity task missing from its own graph")
	}
	task.Parameters = resumeParameters(task.Parameters, strategy)
	task.State = mealmodel.TaskPending
	task.Error = nil

	sess.Confirmation = nil

	return o.runAndPersist(ctx, sess, graph, authToken)
}

// runAndPersist executes graph against sess, formats the response, and
// writes the session's final state back to the store.
func (o *Orchestrator) runAndPersist(ctx context.Context, sess *mealmodel.Session, graph *mealmodel.TaskGraph, authToken string) (map[string]any, error) {
	if err := o.executor.Execute(ctx, sess, graph, authToken); err != nil {
		return nil, err
	}
	out := o.formatter.Format(sess, graph)
	recordCandidates(sess, out)
	if err := o.persist(ctx, sess); err != nil {
		return nil, err
	}
	return out, nil
}

// recordCandidates writes a proposal turn's offered candidates onto
// sess.Candidates[sess.Stage], the slice stage.Controller.Select
// validates a selection POST against (spec.md §4.12 step 1), and
// appends their titles to sess.ProposedTitles[sess.Stage] so a later
// "_additional" request excludes what was already offered (spec.md
// §3, §4.8).
func recordCandidates(sess *mealmodel.Session, out map[string]any) {
	requiresSelection, _ := out["requires_selection"].(bool)
	if !requiresSelection {
		return
	}
	raw, _ := out["candidates"].([]map[string]any)
	if raw == nil {
		return
	}

	candidates := make([]mealmodel.Candidate, 0, len(raw))
	seen := make(map[string]bool, len(sess.ProposedTitles[sess.Stage]))
	for _, t := range sess.ProposedTitles[sess.Stage] {
		seen[t] = true
	}
	titles := append([]string(nil), sess.ProposedTitles[sess.Stage]...)

	for _, m := range raw {
		c := candidateFromMap(m)
		candidates = append(candidates, c)
		if c.Title != "" && !seen[c.Title] {
			seen[c.Title] = true
			titles = append(titles, c.Title)
		}
	}

	sess.Candidates[sess.Stage] = candidates
	sess.ProposedTitles[sess.Stage] = titles
}

// candidateFromMap reconstructs a Candidate from the formatter's
// response-shaped map (it works in map[string]any since it merges
// fields from two different tool results by position).
func candidateFromMap(m map[string]any) mealmodel.Candidate {
	var c mealmodel.Candidate
	c.Title, _ = m["title"].(string)
	if v, ok := m["category"].(string); ok {
		c.Category = mealmodel.Stage(v)
	}
	if v, ok := m["source"].(string); ok {
		c.Source = mealmodel.RecipeSource(v)
	}
	c.URL, _ = m["url"].(string)
	c.ImageURL, _ = m["image_url"].(string)
	switch ings := m["ingredients"].(type) {
	case []string:
		c.Ingredients = ings
	case []any:
		for _, v := range ings {
			if s, ok := v.(string); ok {
				c.Ingredients = append(c.Ingredients, s)
			}
		}
	}
	return c
}

// persist writes sess's current in-memory state back to the session
// store, which owns the canonical copy (C2 invariant).
func (o *Orchestrator) persist(ctx context.Context, sess *mealmodel.Session) error {
	_, err := o.sessions.Update(ctx, sess.ID, func(s *mealmodel.Session) error {
		*s = *sess
		return nil
	})
	return err
}

// resumeParameters substitutes the retry strategy into an ambiguous
// task's parameters without mutating the caller's map.
func resumeParameters(params map[string]any, strategy ambiguity.Strategy) map[string]any {
	out := make(map[string]any, len(params)+1)
	for k, v := range params {
		out[k] = v
	}
	if strategy.Kind == "by_id" {
		out["item_identifier"] = strategy.ID
		out["strategy"] = "by_id"
		return out
	}
	out["strategy"] = "by_name_" + strategy.Kind
	return out
}

// inventoryItems best-effort reads the session's tracked inventory
// item names out of its context bag (spec.md §3).
func inventoryItems(sess *mealmodel.Session) []string {
	items, _ := sess.Context["inventory_items"].([]string)
	return items
}
