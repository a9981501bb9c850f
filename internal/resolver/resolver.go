// Package resolver implements the Parameter Resolver (C8): expands a
// task's parameter map — literals and reference strings alike — into
// concrete values ready for dispatch. A reference string is parsed
// once into a clear shape rather than branched on repeatedly: a plain
// task result path, a session-context path, or the two-operand "+"
// concatenation form.
package resolver

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/haasonsaas/mealplanner/internal/mealerr"
	"github.com/haasonsaas/mealplanner/internal/mealmodel"
)

// Resolver has no state of its own; every input is passed explicitly.
type Resolver struct{}

// New builds a Resolver.
func New() *Resolver { return &Resolver{} }

// ResolveParameters converts every value in params into a concrete
// call-ready value against graph (for taskK.result… references) and
// sess (for session.context.X references). desc supplies the expected
// parameter types used for the "obvious type mismatch" coercion the
// spec calls for (numeric strings into numbers); it does not otherwise
// constrain resolution.
func (r *Resolver) ResolveParameters(graph *mealmodel.TaskGraph, sess *mealmodel.Session, desc mealmodel.ToolDescriptor, params map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(params))
	for name, v := range params {
		resolved, err := r.resolveValue(graph, sess, v)
		if err != nil {
			return nil, mealerr.Wrap(mealerr.KindParameterResolve, "resolver: parameter "+name, err)
		}
		out[name] = coerce(resolved, desc.Parameters[name].Type)
	}
	return out, nil
}

func (r *Resolver) resolveValue(graph *mealmodel.TaskGraph, sess *mealmodel.Session, v any) (any, error) {
	s, ok := v.(string)
	if !ok {
		return v, nil
	}
	if !strings.HasPrefix(s, "task") && !strings.HasPrefix(s, "session.") {
		return v, nil
	}

	if operands := splitConcat(s); operands != nil {
		return r.resolveConcat(graph, sess, operands)
	}

	if strings.HasPrefix(s, "session.") {
		return r.resolveSessionRef(sess, s)
	}
	return r.resolveTaskRef(graph, s)
}

// splitConcat recognizes exactly the documented "A + B" form (spec.md
// §4.8): two operands joined by " + ", each itself a reference. Any
// other use of "+" (e.g. inside a literal string) is left alone.
func splitConcat(s string) []string {
	if !strings.Contains(s, " + ") {
		return nil
	}
	parts := strings.Split(s, " + ")
	if len(parts) != 2 {
		return nil
	}
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if !strings.HasPrefix(p, "task") && !strings.HasPrefix(p, "session.") {
			return nil
		}
	}
	return []string{strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])}
}

func (r *Resolver) resolveConcat(graph *mealmodel.TaskGraph, sess *mealmodel.Session, operands []string) (any, error) {
	var combined []any
	seen := make(map[string]bool)
	for _, op := range operands {
		val, err := r.resolveValue(graph, sess, op)
		if err != nil {
			return nil, err
		}
		seq, ok := val.([]any)
		if !ok {
			return nil, mealerr.New(mealerr.KindParameterResolve, "resolver: \"+\" operand did not resolve to a sequence: "+op)
		}
		for _, item := range seq {
			k := dedupeKey(item)
			if seen[k] {
				continue
			}
			seen[k] = true
			combined = append(combined, item)
		}
	}
	return combined, nil
}

func dedupeKey(item any) string {
	if m, ok := item.(map[string]any); ok {
		if title, ok := m["title"].(string); ok {
			return title
		}
	}
	return toString(item)
}

func (r *Resolver) resolveSessionRef(sess *mealmodel.Session, s string) (any, error) {
	const prefix = "session.context."
	if !strings.HasPrefix(s, prefix) {
		return nil, mealerr.New(mealerr.KindParameterResolve, "resolver: unsupported session reference: "+s)
	}
	if sess == nil {
		return nil, mealerr.New(mealerr.KindParameterResolve, "resolver: no session available for: "+s)
	}
	path := strings.Split(strings.TrimPrefix(s, prefix), ".")
	var cur any = sess.Context
	for _, seg := range path {
		next, err := accessSegment(cur, seg)
		if err != nil {
			return nil, mealerr.Wrap(mealerr.KindParameterResolve, "resolver: "+s, err)
		}
		cur = next
	}
	return cur, nil
}

func (r *Resolver) resolveTaskRef(graph *mealmodel.TaskGraph, s string) (any, error) {
	parts := strings.Split(s, ".")
	if len(parts) < 2 || parts[1] != "result" {
		return nil, mealerr.New(mealerr.KindParameterResolve, "resolver: malformed task reference: "+s)
	}
	taskID := parts[0]
	task := graph.ByID(taskID)
	if task == nil {
		return nil, mealerr.New(mealerr.KindParameterResolve, "resolver: unknown task in reference: "+s)
	}

	cur := task.Result
	segments := parts[2:]
	for i := 0; i < len(segments); i++ {
		if segments[i] == "data" && i+1 < len(segments) && segments[i+1] == "candidates" {
			titles, ok, err := extractCandidateTitles(cur)
			if err != nil {
				return nil, mealerr.Wrap(mealerr.KindParameterResolve, "resolver: "+s, err)
			}
			if ok {
				cur = titles
				i++
				continue
			}
		}
		next, err := accessSegment(cur, segments[i])
		if err != nil {
			return nil, mealerr.Wrap(mealerr.KindParameterResolve, "resolver: "+s, err)
		}
		cur = next
	}
	return cur, nil
}

// extractCandidateTitles implements the one documented shortcut
// (spec.md §4.8): when the host value is an object with a "data" key
// whose "candidates" is a sequence of objects containing "title", the
// reference extracts the sequence of titles instead of the raw
// candidate objects.
func extractCandidateTitles(host any) ([]any, bool, error) {
	obj, ok := host.(map[string]any)
	if !ok {
		return nil, false, nil
	}
	data, ok := obj["data"]
	if !ok {
		return nil, false, nil
	}
	dataObj, ok := data.(map[string]any)
	if !ok {
		return nil, false, nil
	}
	candidates, ok := dataObj["candidates"]
	if !ok {
		return nil, false, nil
	}
	seq, ok := candidates.([]any)
	if !ok {
		return nil, false, nil
	}
	titles := make([]any, 0, len(seq))
	for _, item := range seq {
		m, ok := item.(map[string]any)
		if !ok {
			return nil, false, mealerr.New(mealerr.KindParameterResolve, "resolver: candidate entry is not an object")
		}
		title, ok := m["title"]
		if !ok {
			return nil, false, mealerr.New(mealerr.KindParameterResolve, "resolver: candidate entry missing title")
		}
		titles = append(titles, title)
	}
	return titles, true, nil
}

func accessSegment(cur any, seg string) (any, error) {
	switch c := cur.(type) {
	case map[string]any:
		v, ok := c[seg]
		if !ok {
			return nil, mealerr.New(mealerr.KindParameterResolve, "resolver: missing field "+seg)
		}
		return v, nil
	case []any:
		idx, err := strconv.Atoi(seg)
		if err != nil {
			return nil, mealerr.New(mealerr.KindParameterResolve, "resolver: non-numeric index "+seg)
		}
		if idx < 0 || idx >= len(c) {
			return nil, mealerr.New(mealerr.KindParameterResolve, "resolver: index out of range "+seg)
		}
		return c[idx], nil
	default:
		return nil, mealerr.New(mealerr.KindParameterResolve, "resolver: cannot index into value at "+seg)
	}
}

// coerce applies the "obvious type mismatch" rule spec.md §4.8 names:
// a numeric-looking string is converted when a number is expected.
// Anything else is left untouched — the resolver does not paper over
// genuine type errors.
func coerce(v any, wantType string) any {
	if wantType != "number" {
		return v
	}
	s, ok := v.(string)
	if !ok {
		return v
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return v
	}
	return f
}

func toString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}
