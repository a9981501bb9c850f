// Package mealmodel holds the data model shared by every stage of the
// request-to-plan-to-execution pipeline: the task graph the planner
// produces, the session state the stage controller drives, and the
// recipe/candidate types the formatter renders.
package mealmodel

import (
	"fmt"
	"regexp"
)

// TaskState is the runtime lifecycle of a Task within a TaskGraph.
type TaskState string

const (
	TaskPending   TaskState = "pending"
	TaskReady     TaskState = "ready"
	TaskRunning   TaskState = "running"
	TaskSucceeded TaskState = "succeeded"
	TaskFailed    TaskState = "failed"
	TaskSkipped   TaskState = "skipped"
)

// taskIDPattern matches the required `task\d+` shape (spec.md §3).
var taskIDPattern = regexp.MustCompile(`^task\d+$`)

// ValidTaskID reports whether id matches the required task-id shape.
func ValidTaskID(id string) bool {
	return taskIDPattern.MatchString(id)
}

// Task is one node of a TaskGraph: a single typed service call, its
// dependencies, and (once executed) its runtime state and result.
type Task struct {
	ID          string         `json:"id"`
	Description string         `json:"description"`
	Service     string         `json:"service"`
	Method      string         `json:"method"`
	Parameters  map[string]any `json:"parameters"`
	Dependencies []string      `json:"dependencies"`

	// Runtime fields, populated by the executor. Never set by the planner.
	State  TaskState `json:"state,omitempty"`
	Result any       `json:"result,omitempty"`
	Error  error     `json:"-"`
}

// ServiceMethod returns the canonical "service.method" name used to look
// the task's tool up in the registry.
func (t *Task) ServiceMethod() string {
	return fmt.Sprintf("%s.%s", t.Service, t.Method)
}

// DependsOn reports whether the task declares depID as a dependency.
func (t *Task) DependsOn(depID string) bool {
	for _, d := range t.Dependencies {
		if d == depID {
			return true
		}
	}
	return false
}

// TaskGraph is an ordered set of Tasks produced by the planner (C7) and
// consumed/mutated only by the executor (C9).
type TaskGraph struct {
	Tasks []*Task
}

// ByID returns the task with the given id, or nil.
func (g *TaskGraph) ByID(id string) *Task {
	if g == nil {
		return nil
	}
	for _, t := range g.Tasks {
		if t.ID == id {
			return t
		}
	}
	return nil
}

// Len returns the number of tasks in the graph.
func (g *TaskGraph) Len() int {
	if g == nil {
		return 0
	}
	return len(g.Tasks)
}

// AllTerminal reports whether every task in the graph has reached a
// terminal state (succeeded, failed, or skipped).
func (g *TaskGraph) AllTerminal() bool {
	for _, t := range g.Tasks {
		switch t.State {
		case TaskSucceeded, TaskFailed, TaskSkipped:
		default:
			return false
		}
	}
	return true
}

// Completed returns the percentage (0..100) of tasks in a terminal state.
func (g *TaskGraph) CompletedPercent() int {
	if g.Len() == 0 {
		return 100
	}
	done := 0
	for _, t := range g.Tasks {
		switch t.State {
		case TaskSucceeded, TaskFailed, TaskSkipped:
			done++
		}
	}
	return done * 100 / g.Len()
}
