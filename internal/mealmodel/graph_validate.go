package mealmodel

import "fmt"

// ValidateDAG checks the structural invariants spec.md §3 requires of a
// TaskGraph: unique, well-formed ids, dependencies referencing only
// earlier-declared tasks that exist, and no cycles. It does not check
// service/method existence or parameter references; that is the
// planner's job against the tool registry (C7) and the resolver's job
// at execution time (C8).
func ValidateDAG(g *TaskGraph) error {
	if g == nil || len(g.Tasks) == 0 {
		return nil
	}

	seen := make(map[string]int, len(g.Tasks))
	for i, t := range g.Tasks {
		if !ValidTaskID(t.ID) {
			return fmt.Errorf("task %d: invalid id %q", i, t.ID)
		}
		if _, dup := seen[t.ID]; dup {
			return fmt.Errorf("duplicate task id %q", t.ID)
		}
		seen[t.ID] = i
	}

	for _, t := range g.Tasks {
		for _, dep := range t.Dependencies {
			depIdx, ok := seen[dep]
			if !ok {
				return fmt.Errorf("task %q depends on unknown task %q", t.ID, dep)
			}
			if depIdx >= seen[t.ID] {
				return fmt.Errorf("task %q depends on %q which is not declared earlier", t.ID, dep)
			}
		}
	}

	return detectCycle(g)
}

// detectCycle runs a standard white/gray/black DFS. Because dependencies
// are required to reference earlier-declared tasks (enforced above), a
// cycle is already structurally impossible; this remains as an explicit,
// independent check per spec.md's "dependencies graph is a DAG"
// invariant, and protects callers who construct a TaskGraph without
// going through the planner's validation path.
func detectCycle(g *TaskGraph) error {
	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := make(map[string]int, len(g.Tasks))
	var visit func(id string) error
	visit = func(id string) error {
		switch color[id] {
		case gray:
			return fmt.Errorf("dependency cycle detected at task %q", id)
		case black:
			return nil
		}
		color[id] = gray
		t := g.ByID(id)
		if t != nil {
			for _, dep := range t.Dependencies {
				if err := visit(dep); err != nil {
					return err
				}
			}
		}
		color[id] = black
		return nil
	}
	for _, t := range g.Tasks {
		if err := visit(t.ID); err != nil {
			return err
		}
	}
	return nil
}

// ReadySet returns the ids of tasks whose dependencies have all
// succeeded and which are not yet terminal or running.
func ReadySet(g *TaskGraph) []string {
	var ready []string
	for _, t := range g.Tasks {
		switch t.State {
		case TaskPending, TaskReady:
		default:
			continue
		}
		if allSucceeded(g, t.Dependencies) {
			ready = append(ready, t.ID)
		}
	}
	return ready
}

func allSucceeded(g *TaskGraph, ids []string) bool {
	for _, id := range ids {
		dep := g.ByID(id)
		if dep == nil || dep.State != TaskSucceeded {
			return false
		}
	}
	return true
}
