package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/haasonsaas/mealplanner/internal/auth"
	"github.com/haasonsaas/mealplanner/internal/mealmodel"
)

// handleStream serves GET /api/stream?session_id=...: the Progress
// Channel's (C3) SSE feed for one session. EventSource cannot set a
// custom Authorization header, so the token is also accepted as a
// "token" query parameter, falling back to the header when absent.
func (h *Handler) handleStream(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	sessionID := r.URL.Query().Get("session_id")
	if sessionID == "" {
		h.jsonError(w, "session_id is required", http.StatusBadRequest)
		return
	}

	token := auth.ExtractBearer(r.Header.Get("Authorization"))
	if token == "" {
		token = r.URL.Query().Get("token")
	}
	if _, ok := h.authenticate(w, token); !ok {
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		h.jsonError(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	writeSSE(w, mealmodel.ProgressEvent{Kind: mealmodel.EventConnected})
	flusher.Flush()

	sub := h.cfg.Progress.Subscribe(r.Context(), sessionID)
	defer sub.Cancel()

	for {
		select {
		case <-r.Context().Done():
			return
		case event, ok := <-sub.Events:
			if !ok {
				return
			}
			writeSSE(w, event)
			flusher.Flush()
			if event.Kind == mealmodel.EventClose {
				return
			}
		}
	}
}

// writeSSE frames event on the wire as "data: <json>\n\n" (grounded on
// the client-side "data:"-prefixed parsing internal/agent/providers
// treats as the SSE convention already in use across this codebase).
func writeSSE(w http.ResponseWriter, event mealmodel.ProgressEvent) {
	body, err := json.Marshal(event)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "data: %s\n\n", body)
}
