package httpapi

import (
	"net/http"

	"github.com/haasonsaas/mealplanner/internal/mealmodel"
	"github.com/haasonsaas/mealplanner/pkg/mealplanapi"
)

// handleSelection serves POST /api/selection (spec.md §6, §4.12):
// applies a client's menu-candidate choice and advances the session's
// stage. Runs behind auth.Middleware; the bearer token only identifies
// the caller here, it plays no role in the stage transition itself.
func (h *Handler) handleSelection(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var req mealplanapi.SelectionRequest
	if status, err := decodeJSONRequest(w, r, &req); err != nil {
		h.jsonError(w, err.Error(), status)
		return
	}

	var current mealmodel.Stage
	updated, err := h.cfg.Sessions.Update(r.Context(), req.SSESessionID, func(s *mealmodel.Session) error {
		if err := h.cfg.Stage.Select(s, req.SelectionIndex); err != nil {
			return err
		}
		current = s.Stage
		return nil
	})
	if err != nil {
		h.writePipelineError(w, r, err)
		return
	}

	h.jsonResponse(w, mealplanapi.SelectionResponse{
		Success:           true,
		CurrentStage:      string(current),
		RequiresNextStage: current != mealmodel.StageCompleted && len(updated.Candidates[current]) == 0,
	})
}
