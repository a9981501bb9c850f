// Package httpapi implements the inbound HTTP/SSE surface (spec.md §6):
// chat, selection, menu-save, and progress streaming, sitting in front
// of the orchestrator (C13), stage controller (C12), and progress
// channel (C3). Grounded on internal/web/web.go's Config-struct,
// http.ServeMux-based Handler (NewHandler, setupRoutes), adapted here
// from a dashboard UI to a pure JSON/SSE API.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/haasonsaas/mealplanner/internal/auth"
	"github.com/haasonsaas/mealplanner/internal/mealerr"
	"github.com/haasonsaas/mealplanner/internal/mealmodel"
	"github.com/haasonsaas/mealplanner/internal/progress"
	"github.com/haasonsaas/mealplanner/internal/session"
	"github.com/haasonsaas/mealplanner/internal/stage"
)

var maxRequestBodyBytes int64 = 1 << 20

// Orchestrator is the narrow shape Handler needs from C13.
type Orchestrator interface {
	Handle(ctx context.Context, msg mealmodel.UserMessage, authToken string) (map[string]any, error)
}

// Metrics is the narrow shape Handler reports HTTP-level observations
// through, satisfied by *observability.Metrics.
type Metrics interface {
	RecordHTTPRequest(method, path, statusCode string, durationSeconds float64)
}

// Tracer is the narrow shape Handler opens HTTP spans through,
// satisfied by *observability.Tracer.
type Tracer interface {
	TraceHTTPRequest(ctx context.Context, method, path string) (context.Context, trace.Span)
}

// Config configures a Handler.
type Config struct {
	Orchestrator Orchestrator
	Sessions     session.Store
	Stage        *stage.Controller
	Progress     *progress.Channel
	AuthService  *auth.Service
	Logger       *slog.Logger
	Metrics      Metrics
	Tracer       Tracer
	// LogMiddleware wraps the whole mux when set, e.g.
	// (*observability.Logger).LogMiddleware.
	LogMiddleware func(http.Handler) http.Handler
	ModelUsed     string
}

// Handler is the mealplanner HTTP/SSE API.
type Handler struct {
	cfg     Config
	mux     *http.ServeMux
	wrapped http.Handler
}

// NewHandler builds a Handler and registers its routes.
func NewHandler(cfg Config) *Handler {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	h := &Handler{cfg: cfg, mux: http.NewServeMux()}
	h.setupRoutes()
	h.wrapped = http.Handler(http.HandlerFunc(h.serveInstrumented))
	if cfg.LogMiddleware != nil {
		h.wrapped = cfg.LogMiddleware(h.wrapped)
	}
	return h
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.wrapped.ServeHTTP(w, r)
}

// serveInstrumented instruments every request with the configured
// Metrics/Tracer before dispatch (SPEC_FULL.md ambient stack
// requirement on the HTTP surface).
func (h *Handler) serveInstrumented(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()
	if h.cfg.Tracer != nil {
		var span trace.Span
		ctx, span = h.cfg.Tracer.TraceHTTPRequest(ctx, r.Method, r.URL.Path)
		defer span.End()
		r = r.WithContext(ctx)
	}
	sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
	h.mux.ServeHTTP(sw, r)
	if h.cfg.Metrics != nil {
		h.cfg.Metrics.RecordHTTPRequest(r.Method, r.URL.Path, statusCodeLabel(sw.status), instrument(start))
	}
}

func (h *Handler) setupRoutes() {
	h.mux.HandleFunc("/api/chat", h.handleChat)
	h.mux.HandleFunc("/api/stream", h.handleStream)
	h.mux.HandleFunc("/api/selection", auth.Middleware(h.cfg.AuthService, http.HandlerFunc(h.handleSelection)).ServeHTTP)
	h.mux.HandleFunc("/api/save", auth.Middleware(h.cfg.AuthService, http.HandlerFunc(h.handleSave)).ServeHTTP)
}

// statusWriter wraps http.ResponseWriter to capture the written status
// code for the HTTP metric, grounded on internal/web/middleware.go's
// responseWriter.
type statusWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (w *statusWriter) WriteHeader(code int) {
	if !w.wroteHeader {
		w.status = code
		w.wroteHeader = true
		w.ResponseWriter.WriteHeader(code)
	}
}

func (w *statusWriter) Write(b []byte) (int, error) {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}
	return w.ResponseWriter.Write(b)
}

func statusCodeLabel(code int) string {
	switch {
	case code >= 500:
		return "5xx"
	case code >= 400:
		return "4xx"
	case code >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}

func decodeJSONRequest(w http.ResponseWriter, r *http.Request, dst any) (int, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodyBytes)
	defer r.Body.Close()

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return http.StatusRequestEntityTooLarge, err
		}
		return http.StatusBadRequest, err
	}
	return 0, nil
}

func (h *Handler) jsonResponse(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.cfg.Logger.Error("json encode error", "error", err)
	}
}

func (h *Handler) jsonError(w http.ResponseWriter, message string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(map[string]string{"error": message}); err != nil {
		h.cfg.Logger.Error("json encode error", "error", err)
	}
}

// writePipelineError maps a pipeline error's Kind to an HTTP status and
// writes a JSON body that never leaks the cause (spec.md §7): an
// Internal error is logged with its full chain server-side and
// answered with a generic message.
func (h *Handler) writePipelineError(w http.ResponseWriter, r *http.Request, err error) {
	kind, ok := mealerr.KindOf(err)
	if !ok {
		h.cfg.Logger.Error("unclassified error", "error", err, "path", r.URL.Path)
		h.jsonError(w, "internal error", http.StatusInternalServerError)
		return
	}

	switch kind {
	case mealerr.KindAuthRequired, mealerr.KindAuthFailed:
		w.WriteHeader(http.StatusUnauthorized)
		return
	case mealerr.KindBusySession:
		h.jsonError(w, "a request is already in progress for this session", http.StatusConflict)
	case mealerr.KindSessionOwnership:
		h.jsonError(w, "session does not belong to this user", http.StatusForbidden)
	case mealerr.KindSessionExpired:
		h.jsonError(w, "session expired", http.StatusGone)
	case mealerr.KindMalformedPlan, mealerr.KindPlanInvalid, mealerr.KindParameterResolve, mealerr.KindUnknownTool:
		h.jsonError(w, "request could not be processed", http.StatusBadRequest)
	case mealerr.KindToolFailed, mealerr.KindToolTimeout:
		h.jsonError(w, "a downstream service failed", http.StatusBadGateway)
	default:
		h.cfg.Logger.Error("internal pipeline error", "error", err, "path", r.URL.Path)
		h.jsonError(w, "internal error", http.StatusInternalServerError)
	}
}

// resolveToken returns the bearer token for a request that may carry
// it in the Authorization header or, for the chat endpoint only, in
// the JSON body (spec.md §6): the body is consulted only when the
// header is absent.
func resolveToken(r *http.Request, bodyToken string) string {
	if token := auth.ExtractBearer(r.Header.Get("Authorization")); token != "" {
		return token
	}
	return bodyToken
}

func (h *Handler) authenticate(w http.ResponseWriter, token string) (auth.Identity, bool) {
	if h.cfg.AuthService == nil || !h.cfg.AuthService.Enabled() {
		return auth.Identity{}, true
	}
	identity, err := h.cfg.AuthService.Validate(token)
	if err != nil {
		w.WriteHeader(http.StatusUnauthorized)
		return auth.Identity{}, false
	}
	return identity, true
}

func instrument(start time.Time) float64 {
	return time.Since(start).Seconds()
}
