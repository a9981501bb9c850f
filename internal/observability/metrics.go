package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides a centralized interface for collecting application metrics.
//
// The metrics system is built on Prometheus and tracks:
//   - Task graph execution outcomes and latency
//   - Plan validation failures, by reason
//   - Ambiguity-driven suspensions, by task type
//   - LLM request performance and response times
//   - Tool execution patterns and latencies
//   - Error rates categorized by type and component
//   - HTTP and database request performance
//
// Usage:
//
//	metrics := observability.NewMetrics()
//	metrics.RecordTaskExecution("inventory.add_item", "success", time.Since(start).Seconds())
type Metrics struct {
	// TaskExecutionCounter counts executed tasks by tool name and
	// outcome.
	// Labels: task_type, status (success|error|skipped)
	TaskExecutionCounter *prometheus.CounterVec

	// TaskExecutionDuration measures task dispatch latency in seconds.
	// Labels: task_type
	TaskExecutionDuration *prometheus.HistogramVec

	// PlanValidationFailures counts planner replies rejected during
	// validation, by the reason they were rejected.
	// Labels: reason (malformed|dag_invalid|unknown_tool|missing_param|bad_reference)
	PlanValidationFailures *prometheus.CounterVec

	// AmbiguitySuspensions counts executions suspended waiting on user
	// clarification, by the task type that raised the ambiguity.
	// Labels: task_type
	AmbiguitySuspensions *prometheus.CounterVec

	// LLMRequestDuration measures LLM API call latency in seconds.
	// Labels: provider (anthropic|openai|bedrock), model
	LLMRequestDuration *prometheus.HistogramVec

	// LLMRequestCounter counts LLM requests by provider and model.
	// Labels: provider, model, status (success|error)
	LLMRequestCounter *prometheus.CounterVec

	// LLMTokensUsed tracks token consumption.
	// Labels: provider, model, type (prompt|completion)
	LLMTokensUsed *prometheus.CounterVec

	// ToolExecutionCounter counts tool invocations.
	// Labels: tool_name, status (success|error)
	ToolExecutionCounter *prometheus.CounterVec

	// ToolExecutionDuration measures tool execution time in seconds.
	// Labels: tool_name
	ToolExecutionDuration *prometheus.HistogramVec

	// ErrorCounter tracks errors by type and component.
	// Labels: component (planner|executor|httpapi|session), error_type
	ErrorCounter *prometheus.CounterVec

	// HTTPRequestDuration measures HTTP API request latency.
	// Labels: method, path, status_code
	HTTPRequestDuration *prometheus.HistogramVec

	// HTTPRequestCounter counts HTTP requests.
	// Labels: method, path, status_code
	HTTPRequestCounter *prometheus.CounterVec

	// DatabaseQueryDuration measures database query latency.
	// Labels: operation (select|insert|update|delete), table
	DatabaseQueryDuration *prometheus.HistogramVec

	// DatabaseQueryCounter counts database queries.
	// Labels: operation, table, status (success|error)
	DatabaseQueryCounter *prometheus.CounterVec
}

// NewMetrics creates and registers all Prometheus metrics.
// This should be called once at application startup; all metrics
// register with Prometheus's default registry and are available at the
// /metrics endpoint when using the prometheus HTTP handler.
func NewMetrics() *Metrics {
	return &Metrics{
		TaskExecutionCounter: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mealplanner_task_executions_total",
				Help: "Total number of task executions by task type and outcome",
			},
			[]string{"task_type", "status"},
		),

		TaskExecutionDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "mealplanner_task_execution_duration_seconds",
				Help:    "Duration of task executions in seconds",
				Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60},
			},
			[]string{"task_type"},
		),

		PlanValidationFailures: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mealplanner_plan_validation_failures_total",
				Help: "Total number of planner replies rejected during validation, by reason",
			},
			[]string{"reason"},
		),

		AmbiguitySuspensions: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mealplanner_ambiguity_suspensions_total",
				Help: "Total number of task executions suspended for ambiguity resolution, by task type",
			},
			[]string{"task_type"},
		),

		LLMRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "mealplanner_llm_request_duration_seconds",
				Help:    "Duration of LLM API requests in seconds",
				Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
			},
			[]string{"provider", "model"},
		),

		LLMRequestCounter: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mealplanner_llm_requests_total",
				Help: "Total number of LLM requests by provider, model, and status",
			},
			[]string{"provider", "model", "status"},
		),

		LLMTokensUsed: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mealplanner_llm_tokens_total",
				Help: "Total number of tokens used by provider, model, and type",
			},
			[]string{"provider", "model", "type"},
		),

		ToolExecutionCounter: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mealplanner_tool_executions_total",
				Help: "Total number of tool executions by tool name and status",
			},
			[]string{"tool_name", "status"},
		),

		ToolExecutionDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "mealplanner_tool_execution_duration_seconds",
				Help:    "Duration of tool executions in seconds",
				Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60},
			},
			[]string{"tool_name"},
		),

		ErrorCounter: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mealplanner_errors_total",
				Help: "Total number of errors by component and error type",
			},
			[]string{"component", "error_type"},
		),

		HTTPRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "mealplanner_http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
			},
			[]string{"method", "path", "status_code"},
		),

		HTTPRequestCounter: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mealplanner_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status_code"},
		),

		DatabaseQueryDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "mealplanner_database_query_duration_seconds",
				Help:    "Duration of database queries in seconds",
				Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
			},
			[]string{"operation", "table"},
		),

		DatabaseQueryCounter: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mealplanner_database_queries_total",
				Help: "Total number of database queries",
			},
			[]string{"operation", "table", "status"},
		),
	}
}

// RecordTaskExecution records one task dispatch outcome. Called by the
// executor once per task, whether it succeeded, failed, or was skipped
// by fail-stop downstream cancellation.
func (m *Metrics) RecordTaskExecution(taskType, status string, durationSeconds float64) {
	m.TaskExecutionCounter.WithLabelValues(taskType, status).Inc()
	m.TaskExecutionDuration.WithLabelValues(taskType).Observe(durationSeconds)
}

// RecordPlanValidationFailure records one planner reply rejected during
// validation (malformed JSON, invalid DAG, unknown tool, missing
// parameter, or a dangling task-result reference).
func (m *Metrics) RecordPlanValidationFailure(reason string) {
	m.PlanValidationFailures.WithLabelValues(reason).Inc()
}

// RecordAmbiguitySuspension records one execution suspended waiting on
// user clarification.
func (m *Metrics) RecordAmbiguitySuspension(taskType string) {
	m.AmbiguitySuspensions.WithLabelValues(taskType).Inc()
}

// RecordLLMRequest records metrics for an LLM API request.
func (m *Metrics) RecordLLMRequest(provider, model, status string, durationSeconds float64, promptTokens, completionTokens int) {
	m.LLMRequestCounter.WithLabelValues(provider, model, status).Inc()
	m.LLMRequestDuration.WithLabelValues(provider, model).Observe(durationSeconds)
	if promptTokens > 0 {
		m.LLMTokensUsed.WithLabelValues(provider, model, "prompt").Add(float64(promptTokens))
	}
	if completionTokens > 0 {
		m.LLMTokensUsed.WithLabelValues(provider, model, "completion").Add(float64(completionTokens))
	}
}

// RecordToolExecution records metrics for a tool execution.
func (m *Metrics) RecordToolExecution(toolName, status string, durationSeconds float64) {
	m.ToolExecutionCounter.WithLabelValues(toolName, status).Inc()
	m.ToolExecutionDuration.WithLabelValues(toolName).Observe(durationSeconds)
}

// RecordError increments the error counter for a given component and error type.
func (m *Metrics) RecordError(component, errorType string) {
	m.ErrorCounter.WithLabelValues(component, errorType).Inc()
}

// RecordHTTPRequest records metrics for an HTTP request.
func (m *Metrics) RecordHTTPRequest(method, path, statusCode string, durationSeconds float64) {
	m.HTTPRequestCounter.WithLabelValues(method, path, statusCode).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path, statusCode).Observe(durationSeconds)
}

// RecordDatabaseQuery records metrics for a database query.
func (m *Metrics) RecordDatabaseQuery(operation, table, status string, durationSeconds float64) {
	m.DatabaseQueryCounter.WithLabelValues(operation, table, status).Inc()
	m.DatabaseQueryDuration.WithLabelValues(operation, table).Observe(durationSeconds)
}
