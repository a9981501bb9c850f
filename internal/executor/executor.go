// Package executor implements the Task Executor (C9): topological
// execution of a validated TaskGraph with a bounded-parallelism wave
// schedule, dependency-aware readiness, fail-stop downstream
// cancellation, and ambiguity-driven suspension. Grounded on
// internal/multiagent/swarm.go's Swarm.Execute (stage-by-stage,
// semaphore-bounded goroutines publishing into a shared context) and
// internal/tasks/executor.go's RoutingExecutor (one dispatch call per
// task through a registry keyed by name).
package executor

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/haasonsaas/mealplanner/internal/ambiguity"
	"github.com/haasonsaas/mealplanner/internal/mealerr"
	"github.com/haasonsaas/mealplanner/internal/mealmodel"
	"github.com/haasonsaas/mealplanner/internal/progress"
)

// Metrics is the subset of *observability.Metrics the executor needs,
// narrowed so tests don't have to construct a real Prometheus registry.
type Metrics interface {
	RecordTaskExecution(taskType, status string, durationSeconds float64)
	RecordAmbiguitySuspension(taskType string)
}

// Tracer is the subset of *observability.Tracer the executor needs.
type Tracer interface {
	TraceGraphExecution(ctx context.Context, sessionID string, taskCount int) (context.Context, trace.Span)
	TraceToolExecution(ctx context.Context, toolName string) (context.Context, trace.Span)
}

// DefaultParallelism is the recommended per-session concurrency cap
// (spec.md §4.9).
const DefaultParallelism = 4

// Dispatcher is the subset of *registry.Registry the executor needs,
// narrowed so tests can fake dispatch without a full registry.
type Dispatcher interface {
	Lookup(name string) (mealmodel.ToolDescriptor, error)
	Dispatch(ctx context.Context, name string, params map[string]any, authToken string) (mealmodel.ToolResult, error)
}

// ParameterResolver is the subset of *resolver.Resolver the executor
// needs.
type ParameterResolver interface {
	ResolveParameters(graph *mealmodel.TaskGraph, sess *mealmodel.Session, desc mealmodel.ToolDescriptor, params map[string]any) (map[string]any, error)
}

// Formatter turns a finished (or halted) graph into the response
// payload the complete event carries. internal/formatter implements
// this; the executor only depends on the shape so it does not need to
// import a package that in turn wants nothing from it.
type Formatter interface {
	Format(sess *mealmodel.Session, graph *mealmodel.TaskGraph) map[string]any
}

// Executor runs one TaskGraph per call, publishing progress to a
// session's Progress Channel as it goes.
type Executor struct {
	registry    Dispatcher
	resolver    ParameterResolver
	channel     *progress.Channel
	detector    *ambiguity.Detector
	formatter   Formatter
	parallelism int
	now         func() time.Time
	metrics     Metrics
	tracer      Tracer
}

// New builds an Executor. parallelism <= 0 uses DefaultParallelism.
func New(reg Dispatcher, res ParameterResolver, ch *progress.Channel, det *ambiguity.Detector, f Formatter, parallelism int) *Executor {
	if parallelism <= 0 {
		parallelism = DefaultParallelism
	}
	return &Executor{
		registry:    reg,
		resolver:    res,
		channel:     ch,
		detector:    det,
		formatter:   f,
		parallelism: parallelism,
		now:         time.Now,
	}
}

// SetMetrics attaches a metrics sink for task executions and ambiguity
// suspensions.
func (e *Executor) SetMetrics(m Metrics) { e.metrics = m }

// SetTracer attaches a tracer for spans around graph execution and
// tool dispatch.
func (e *Executor) SetTracer(t Tracer) { e.tracer = t }

// Execute drives graph to completion (or suspension) for sess,
// dispatching tool calls with authToken. It returns only on an
// internal error; task-level failures and ambiguity are reported via
// progress events and session state, not as a returned error.
func (e *Executor) Execute(ctx context.Context, sess *mealmodel.Session, graph *mealmodel.TaskGraph, authToken string) error {
	if e.tracer != nil {
		var span trace.Span
		ctx, span = e.tracer.TraceGraphExecution(ctx, sess.ID, graph.Len())
		defer span.End()
	}

	if graph.Len() == 0 {
		e.publishComplete(sess, graph)
		return nil
	}

	var mu sync.Mutex

	for {
		ready := mealmodel.ReadySet(graph)
		if len(ready) == 0 {
			break
		}

		halted, err := e.runWave(ctx, sess, graph, authToken, ready, &mu)
		if err != nil {
			return err
		}
		if halted {
			return nil
		}
	}

	e.publishComplete(sess, graph)
	return nil
}

// runWave runs every ready task id concurrently, bounded by the
// configured parallelism cap, and reports whether the graph was
// halted by an ambiguity mid-wave.
func (e *Executor) runWave(ctx context.Context, sess *mealmodel.Session, graph *mealmodel.TaskGraph, authToken string, ready []string, mu *sync.Mutex) (bool, error) {
	sem := make(chan struct{}, e.parallelism)
	var wg sync.WaitGroup

	var halt struct {
		sync.Mutex
		amb    *ambiguity.Ambiguity
		taskID string
	}
	var failed []string

	for _, id := range ready {
		id := id
		mu.Lock()
		task := graph.ByID(id)
		task.State = mealmodel.TaskRunning
		mu.Unlock()

		wg.Add(1)
		go func() {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				mu.Lock()
				task.State = mealmodel.TaskFailed
				task.Error = ctx.Err()
				mu.Unlock()
				return
			}
			defer func() { <-sem }()

			mu.Lock()
			percent := graph.CompletedPercent()
			mu.Unlock()
			e.publishProgress(sess.ID, id, percent, "starting "+task.Description)

			taskType := task.ServiceMethod()
			start := e.now()
			result, ambig, err := e.runOne(ctx, sess, graph, task, authToken)
			duration := e.now().Sub(start).Seconds()

			mu.Lock()
			if err != nil {
				task.State = mealmodel.TaskFailed
				task.Error = err
			} else {
				task.State = mealmodel.TaskSucceeded
				task.Result = result.Data
				if !result.Success && !ambig {
					task.State = mealmodel.TaskFailed
					task.Error = mealerr.New(mealerr.KindToolFailed, result.Error)
				}
			}
			percent = graph.CompletedPercent()
			mu.Unlock()
			e.publishProgress(sess.ID, id, percent, "finished "+task.Description)

			if e.metrics != nil {
				e.metrics.RecordTaskExecution(taskType, taskExecutionStatus(task.State, ambig), duration)
			}

			if ambig {
				amb := e.detector.Inspect(result)
				halt.Lock()
				if halt.amb == nil {
					halt.amb = amb
					halt.taskID = id
				}
				halt.Unlock()
				return
			}
			if task.State == mealmodel.TaskFailed {
				mu.Lock()
				failed = append(failed, id)
				mu.Unlock()
			}
		}()
	}

	wg.Wait()

	if halt.amb != nil {
		e.suspendForAmbiguity(sess, graph, halt.taskID, halt.amb)
		return true, nil
	}

	for _, id := range failed {
		e.skipDownstream(graph, id, mu)
	}

	return false, nil
}

// runOne resolves parameters, dispatches the tool call, and reports
// whether the result was the ambiguity marker.
func (e *Executor) runOne(ctx context.Context, sess *mealmodel.Session, graph *mealmodel.TaskGraph, task *mealmodel.Task, authToken string) (mealmodel.ToolResult, bool, error) {
	name := task.ServiceMethod()
	desc, err := e.registry.Lookup(name)
	if err != nil {
		return mealmodel.ToolResult{}, false, err
	}

	params, err := e.resolver.ResolveParameters(graph, sess, desc, task.Parameters)
	if err != nil {
		return mealmodel.ToolResult{}, false, err
	}

	if e.tracer != nil {
		var span trace.Span
		ctx, span = e.tracer.TraceToolExecution(ctx, name)
		defer span.End()
	}

	result, err := e.registry.Dispatch(ctx, name, params, authToken)
	if err != nil {
		return mealmodel.ToolResult{}, false, err
	}
	return result, result.IsAmbiguityMarker(), nil
}

// taskExecutionStatus buckets a finished task's terminal state into the
// status label reported on the task_executions metric.
func taskExecutionStatus(state mealmodel.TaskState, ambiguous bool) string {
	if ambiguous {
		return "ambiguous"
	}
	switch state {
	case mealmodel.TaskSucceeded:
		return "success"
	case mealmodel.TaskFailed:
		return "error"
	default:
		return "unknown"
	}
}

// skipDownstream marks every not-yet-started task transitively
// depending on failedID as skipped (spec.md §4.9 fail-stop).
func (e *Executor) skipDownstream(graph *mealmodel.TaskGraph, failedID string, mu *sync.Mutex) {
	mu.Lock()
	defer mu.Unlock()

	affected := map[string]bool{failedID: true}
	changed := true
	for changed {
		changed = false
		for _, t := range graph.Tasks {
			if affected[t.ID] {
				continue
			}
			for _, dep := range t.Dependencies {
				if affected[dep] {
					affected[t.ID] = true
					changed = true
					break
				}
			}
		}
	}

	for _, t := range graph.Tasks {
		if t.ID == failedID {
			continue
		}
		if affected[t.ID] && (t.State == mealmodel.TaskPending || t.State == mealmodel.TaskReady) {
			t.State = mealmodel.TaskSkipped
		}
	}
}

// suspendForAmbiguity persists the halted graph into session state and
// publishes the terminal event carrying the clarification question
// (spec.md §4.9 step 2e, §4.10).
func (e *Executor) suspendForAmbiguity(sess *mealmodel.Session, graph *mealmodel.TaskGraph, taskID string, amb *ambiguity.Ambiguity) {
	if e.metrics != nil {
		if task := graph.ByID(taskID); task != nil {
			e.metrics.RecordAmbiguitySuspension(task.ServiceMethod())
		}
	}

	sess.Confirmation = &mealmodel.Confirmation{
		Kind:            mealmodel.ConfirmAmbiguity,
		Question:        amb.Question,
		Timestamp:       e.now(),
		PendingGraph:    graph,
		DetectedAmbiguity: &mealmodel.DetectedAmbiguity{
			TaskID: taskID,
			Items:  amb.Items,
		},
	}

	e.channel.Publish(sess.ID, mealmodel.ProgressEvent{
		Kind: mealmodel.EventComplete,
		Payload: map[string]any{
			"requires_confirmation":   true,
			"confirmation_session_id": sess.ID,
			"question":                amb.Question,
			"task_id":                 taskID,
		},
	})
}

func (e *Executor) publishProgress(sessionID, taskID string, percent int, message string) {
	e.channel.Publish(sessionID, mealmodel.ProgressEvent{
		Kind: mealmodel.EventProgress,
		Payload: map[string]any{
			"task_id": taskID,
			"percent": percent,
			"message": message,
		},
	})
}

func (e *Executor) publishComplete(sess *mealmodel.Session, graph *mealmodel.TaskGraph) {
	var payload map[string]any
	if e.formatter != nil {
		payload = e.formatter.Format(sess, graph)
	} else {
		payload = map[string]any{}
	}
	e.channel.Publish(sess.ID, mealmodel.ProgressEvent{Kind: mealmodel.EventComplete, Payload: payload})
}
