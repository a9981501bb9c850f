// Package planner implements the Planner (C7): calls the configured
// chat model with a built prompt, parses its reply as a strict task
// graph document, and validates it against the tool registry and the
// DAG invariants before handing it to the executor.
package planner

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/trace"

	"github.com/haasonsaas/mealplanner/internal/llm"
	"github.com/haasonsaas/mealplanner/internal/mealerr"
	"github.com/haasonsaas/mealplanner/internal/mealmodel"
	"github.com/haasonsaas/mealplanner/internal/registry"
)

// Metrics is the subset of *observability.Metrics the planner needs,
// narrowed so tests don't have to construct a real Prometheus registry.
type Metrics interface {
	RecordPlanValidationFailure(reason string)
}

// Tracer is the subset of *observability.Tracer the planner needs.
type Tracer interface {
	TracePlannerCall(ctx context.Context, sessionID string) (context.Context, trace.Span)
}

// Planner drives one LLM call (plus, on validation failure, exactly
// one corrective retry) into a validated TaskGraph.
type Planner struct {
	provider llm.Provider
	registry *registry.Registry
	model    string
	metrics  Metrics
	tracer   Tracer
}

// New builds a Planner. model may be empty to use the provider's default.
func New(provider llm.Provider, reg *registry.Registry, model string) *Planner {
	return &Planner{provider: provider, registry: reg, model: model}
}

// SetMetrics attaches a metrics sink for plan validation failures.
func (p *Planner) SetMetrics(m Metrics) { p.metrics = m }

// SetTracer attaches a tracer for spans around the LLM call.
func (p *Planner) SetTracer(t Tracer) { p.tracer = t }

// wireTask mirrors the planner<->executor wire shape (spec.md §6).
type wireTask struct {
	ID           string          `json:"id"`
	Description  string          `json:"description"`
	Service      string          `json:"service"`
	Method       string          `json:"method"`
	Parameters   map[string]any  `json:"parameters"`
	Dependencies []string        `json:"dependencies"`
}

type wireDocument struct {
	Tasks []wireTask `json:"tasks"`
}

// Plan calls the model with prompt and returns a validated graph,
// retrying once with a corrective instruction if the first reply fails
// to parse or validate. sessionID is used only for the trace span.
func (p *Planner) Plan(ctx context.Context, sessionID, prompt string) (*mealmodel.TaskGraph, error) {
	if p.tracer != nil {
		var span trace.Span
		ctx, span = p.tracer.TracePlannerCall(ctx, sessionID)
		defer span.End()
	}

	graph, err := p.attempt(ctx, prompt)
	if err == nil {
		return graph, nil
	}

	corrected := prompt + "\n\nYour previous reply was rejected: " + err.Error() +
		"\nReply again with a single corrected JSON document of the same shape."
	graph, err2 := p.attempt(ctx, corrected)
	if err2 == nil {
		return graph, nil
	}

	if p.metrics != nil {
		p.metrics.RecordPlanValidationFailure(validationFailureReason(err2))
	}
	if kind, ok := mealerr.KindOf(err2); ok && kind == mealerr.KindMalformedPlan {
		return nil, err2
	}
	return nil, mealerr.Wrap(mealerr.KindPlanInvalid, "planner: validation failed after retry", err2)
}

// validationFailureReason buckets a validation error into the reason
// label reported on the plan_validation_failures metric.
func validationFailureReason(err error) string {
	kind, ok := mealerr.KindOf(err)
	if !ok {
		return "unknown"
	}
	switch kind {
	case mealerr.KindMalformedPlan:
		return "malformed"
	case mealerr.KindUnknownTool:
		return "unknown_tool"
	case mealerr.KindPlanInvalid:
		return "plan_invalid"
	default:
		return "unknown"
	}
}

// attempt performs one call-and-validate cycle without retrying.
func (p *Planner) attempt(ctx context.Context, prompt string) (*mealmodel.TaskGraph, error) {
	chunks, err := p.provider.Complete(ctx, &llm.CompletionRequest{
		Model:    p.model,
		System:   "You are a strict JSON-only task graph planner.",
		Messages: []llm.Message{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return nil, mealerr.Wrap(mealerr.KindInternal, "planner: llm call failed", err)
	}
	text, err := llm.Collect(chunks)
	if err != nil {
		return nil, mealerr.Wrap(mealerr.KindInternal, "planner: llm stream failed", err)
	}

	doc, err := parseDocument(text)
	if err != nil {
		return nil, err
	}

	graph, err := buildGraph(doc)
	if err != nil {
		return nil, err
	}

	if err := mealmodel.ValidateDAG(graph); err != nil {
		return nil, mealerr.Wrap(mealerr.KindPlanInvalid, "planner: invalid dependency graph", err)
	}
	if err := p.validateAgainstRegistry(graph); err != nil {
		return nil, err
	}
	if err := validateReferences(graph); err != nil {
		return nil, err
	}

	return graph, nil
}

// parseDocument extracts the JSON object from text (tolerating
// surrounding prose the model may have added despite instructions) and
// strictly checks every task's required keys.
func parseDocument(text string) (*wireDocument, error) {
	jsonText := extractJSONObject(text)
	if jsonText == "" {
		return nil, mealerr.New(mealerr.KindMalformedPlan, "planner: no JSON document found in reply")
	}

	var doc wireDocument
	if err := json.Unmarshal([]byte(jsonText), &doc); err != nil {
		return nil, mealerr.Wrap(mealerr.KindMalformedPlan, "planner: reply is not valid JSON", err)
	}

	for i, t := range doc.Tasks {
		if t.ID == "" || t.Service == "" || t.Method == "" {
			return nil, mealerr.New(mealerr.KindMalformedPlan, fmt.Sprintf("planner: task at index %d missing id/service/method", i))
		}
	}
	return &doc, nil
}

// extractJSONObject returns the substring of text spanning the first
// "{" to the matching last "}", or "" if text contains no braces.
func extractJSONObject(text string) string {
	start := strings.IndexByte(text, '{')
	end := strings.LastIndexByte(text, '}')
	if start < 0 || end < 0 || end < start {
		return ""
	}
	return text[start : end+1]
}

func buildGraph(doc *wireDocument) (*mealmodel.TaskGraph, error) {
	tasks := make([]*mealmodel.Task, 0, len(doc.Tasks))
	for _, wt := range doc.Tasks {
		if !mealmodel.ValidTaskID(wt.ID) {
			return nil, mealerr.New(mealerr.KindMalformedPlan, fmt.Sprintf("planner: invalid task id %q", wt.ID))
		}
		tasks = append(tasks, &mealmodel.Task{
			ID:           wt.ID,
			Description:  wt.Description,
			Service:      wt.Service,
			Method:       wt.Method,
			Parameters:   wt.Parameters,
			Dependencies: wt.Dependencies,
			State:        mealmodel.TaskPending,
		})
	}
	return &mealmodel.TaskGraph{Tasks: tasks}, nil
}

// validateAgainstRegistry checks every task's service.method exists and
// that its parameters cover the tool's required names (reference
// strings are checked for presence only; types are resolved later).
func (p *Planner) validateAgainstRegistry(graph *mealmodel.TaskGraph) error {
	for _, t := range graph.Tasks {
		name := t.ServiceMethod()
		desc, err := p.registry.Lookup(name)
		if err != nil {
			return mealerr.Wrap(mealerr.KindPlanInvalid, fmt.Sprintf("planner: task %s references unknown tool %q", t.ID, name), err)
		}
		for paramName, spec := range desc.Parameters {
			if !spec.Required {
				continue
			}
			if _, ok := t.Parameters[paramName]; !ok {
				return mealerr.New(mealerr.KindPlanInvalid, fmt.Sprintf("planner: task %s missing required parameter %q for %s", t.ID, paramName, name))
			}
		}
	}
	return nil
}

// validateReferences ensures every "taskK.result…" reference string in
// a task's parameters names a task that is in that task's own
// dependencies (spec.md §4.7).
func validateReferences(graph *mealmodel.TaskGraph) error {
	for _, t := range graph.Tasks {
		deps := make(map[string]bool, len(t.Dependencies))
		for _, d := range t.Dependencies {
			deps[d] = true
		}
		for paramName, v := range t.Parameters {
			for _, ref := range referencedTaskIDs(v) {
				if !deps[ref] {
					return mealerr.New(mealerr.KindPlanInvalid,
						fmt.Sprintf("planner: task %s parameter %q references %s, which is not a declared dependency", t.ID, paramName, ref))
				}
			}
		}
	}
	return nil
}

// referencedTaskIDs scans a parameter value for task-result reference
// strings (possibly combined with the "+" concatenation form) and
// returns the task ids they name.
func referencedTaskIDs(v any) []string {
	s, ok := v.(string)
	if !ok || !strings.HasPrefix(s, "task") {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, "+") {
		part = strings.TrimSpace(part)
		dot := strings.Index(part, ".result")
		if dot <= 0 {
			continue
		}
		id := part[:dot]
		if mealmodel.ValidTaskID(id) {
			out = append(out, id)
		}
	}
	return out
}
