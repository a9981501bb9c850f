// Package observability provides structured logging, Prometheus
// metrics, and OpenTelemetry tracing for mealplanner's
// request-to-plan-to-execution pipeline.
//
// # Overview
//
// The package implements the three pillars of observability:
//
//  1. Metrics - Quantitative measurements using Prometheus
//  2. Logging - Structured logs with sensitive data redaction
//  3. Tracing - Distributed request tracing with OpenTelemetry
//
// # Metrics
//
// Metrics track task executions, plan validation failures, ambiguity
// suspensions, LLM request latency and token usage, tool execution
// performance, and HTTP/database request performance.
//
// Example usage:
//
//	metrics := observability.NewMetrics()
//
//	start := time.Now()
//	// ... dispatch a task ...
//	metrics.RecordTaskExecution("inventory.add_item", "success", time.Since(start).Seconds())
//
//	// A planner reply failed validation
//	metrics.RecordPlanValidationFailure("unknown_tool")
//
//	// An executor run suspended for user clarification
//	metrics.RecordAmbiguitySuspension("inventory.remove_item")
//
// # Logging
//
// Logging is built on Go's slog package with enhancements for:
//   - Automatic request ID correlation from context
//   - Sensitive data redaction (API keys, passwords, tokens)
//   - JSON output for production, text for development
//   - Configurable log levels
//
// Example usage:
//
//	logger := observability.NewLogger(observability.LogConfig{
//	    Level:     "info",
//	    Format:    "json",
//	    AddSource: true,
//	})
//
//	ctx := observability.AddRequestID(ctx, requestID)
//	ctx = observability.AddSessionID(ctx, sessionID)
//
//	logger.Info(ctx, "dispatching task",
//	    "task_id", task.ID,
//	    "service_method", task.ServiceMethod(),
//	)
//
//	logger.Error(ctx, "llm request failed",
//	    "error", err,
//	    "provider", "anthropic",
//	    "api_key", apiKey, // Automatically redacted
//	)
//
// # Tracing
//
// Distributed tracing uses OpenTelemetry to trace requests across the
// pipeline: one span per chat request, one around each planner call,
// one around each task graph execution, and one around each tool
// dispatch.
//
// Example usage:
//
//	tracer, shutdown := observability.NewTracer(observability.TraceConfig{
//	    ServiceName:    "mealplanner",
//	    ServiceVersion: "1.0.0",
//	    Environment:    "production",
//	    Endpoint:       "localhost:4317", // OTLP collector
//	    SamplingRate:   0.1,
//	})
//	defer shutdown(context.Background())
//
//	ctx, span := tracer.TracePlannerCall(ctx, sess.ID)
//	defer span.End()
//
//	ctx, toolSpan := tracer.TraceToolExecution(ctx, task.ServiceMethod())
//	defer toolSpan.End()
//	if err != nil {
//	    tracer.RecordError(toolSpan, err)
//	}
//
// # Context Propagation
//
//	ctx = observability.AddRequestID(ctx, "req-123")
//	ctx = observability.AddSessionID(ctx, "sess-456")
//	ctx = observability.AddUserID(ctx, "user-789")
//
//	logger.Info(ctx, "processing") // Includes request_id, session_id, etc.
//
// # Security Considerations
//
// The logging component automatically redacts:
//   - API keys (Anthropic, OpenAI, generic)
//   - Passwords and secrets
//   - JWT tokens
//   - Bearer tokens
//   - Custom patterns via configuration
package observability
