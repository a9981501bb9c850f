// Package ambiguity implements the Ambiguity Detector (C10): the small
// rule set that decides whether a tool result is the distinguished
// "multiple matches" signal, builds the clarification question shown
// to the user, and turns a follow-up confirmation reply into a
// concrete retry strategy. Grounded on internal/agent/tool_result_guard.go's
// shape (apply an ordered set of checks to one tool result and act),
// here deciding ambiguous-or-not instead of redact-or-not.
package ambiguity

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/haasonsaas/mealplanner/internal/mealmodel"
)

// markerError is the distinguished error string a tool uses to signal
// ambiguity rather than failure (spec.md §4.10, §6).
const markerError = "AMBIGUITY_DETECTED"

// Ambiguity carries what the detector found in one tool result, ready
// to be stored on session.confirmation.
type Ambiguity struct {
	Items    []map[string]any
	Question string
}

// Detector has no state; every input is passed explicitly.
type Detector struct{}

// New builds a Detector.
func New() *Detector { return &Detector{} }

// Inspect applies the rule set to one tool result. It returns nil when
// the result is not ambiguous: a successful result, or a failure with
// any error other than the AMBIGUITY_DETECTED marker, are both left to
// the executor's ordinary success/failure handling.
func (d *Detector) Inspect(result mealmodel.ToolResult) *Ambiguity {
	if !result.IsAmbiguityMarker() {
		return nil
	}
	return &Ambiguity{
		Items:    result.Items,
		Question: BuildQuestion(result.Items),
	}
}

// BuildQuestion renders the candidate list the user is asked to
// disambiguate between, plus the fixed set of strategies they may
// reply with.
func BuildQuestion(items []map[string]any) string {
	var b strings.Builder
	b.WriteString("I found multiple matching items:\n")
	for i, item := range items {
		b.WriteString(fmt.Sprintf("%d. %s\n", i+1, describeItem(item)))
	}
	b.WriteString("Which one did you mean? Reply with \"all\", \"oldest\", \"latest\", or the item's id.")
	return b.String()
}

func describeItem(item map[string]any) string {
	if name, ok := item["name"].(string); ok {
		if id, ok := item["id"]; ok {
			return fmt.Sprintf("%s (id: %v)", name, id)
		}
		return name
	}
	return fmt.Sprintf("%v", item)
}

// Strategy is the concrete retry instruction a confirmation reply
// resolves to, substituted into the re-planned task's "strategy"
// parameter (spec.md §4.10).
type Strategy struct {
	Kind string // "all", "oldest", "latest", "by_id"
	ID   string // populated only when Kind == "by_id"
}

// String renders the strategy the way tool parameters expect it:
// "all", "oldest", "latest", or "by_id:<id>".
func (s Strategy) String() string {
	if s.Kind == "by_id" {
		return "by_id:" + s.ID
	}
	return s.Kind
}

// rejectionWords are replies that decline to disambiguate and cancel
// the suspended graph instead of resuming it.
var rejectionWords = []string{"cancel", "never mind", "nevermind", "stop", "forget it", "no thanks"}

// ResolveReply converts a confirmation_reply message into a Strategy.
// ok is false when the message is a rejection (the caller should
// cancel the graph) or matches none of the recognized forms.
func ResolveReply(message string) (strategy Strategy, ok bool, rejected bool) {
	lower := strings.ToLower(strings.TrimSpace(message))

	for _, w := range rejectionWords {
		if strings.Contains(lower, w) {
			return Strategy{}, false, true
		}
	}

	switch {
	case strings.Contains(lower, "all"):
		return Strategy{Kind: "all"}, true, false
	case strings.Contains(lower, "oldest"):
		return Strategy{Kind: "oldest"}, true, false
	case strings.Contains(lower, "latest"), strings.Contains(lower, "newest"):
		return Strategy{Kind: "latest"}, true, false
	}

	if id, found := extractID(lower); found {
		return Strategy{Kind: "by_id", ID: id}, true, false
	}

	return Strategy{}, false, false
}

// extractID pulls a trailing numeric or "by_id:<id>" token out of a
// reply like "the second one" or "by_id:42" or just "42".
func extractID(lower string) (string, bool) {
	if idx := strings.Index(lower, "by_id:"); idx >= 0 {
		rest := strings.TrimSpace(lower[idx+len("by_id:"):])
		fields := strings.Fields(rest)
		if len(fields) > 0 {
			return fields[0], true
		}
	}
	for _, field := range strings.Fields(lower) {
		field = strings.Trim(field, ".,!?")
		if _, err := strconv.Atoi(field); err == nil {
			return field, true
		}
	}
	return "", false
}
