package httpapi

import (
	"net/http"

	"github.com/haasonsaas/mealplanner/internal/auth"
	"github.com/haasonsaas/mealplanner/internal/mealmodel"
	"github.com/haasonsaas/mealplanner/pkg/mealplanapi"
)

// handleChat serves POST /api/chat (spec.md §6). Unlike every other
// route, the bearer token may arrive in the JSON body instead of the
// Authorization header, so this handler authenticates itself rather
// than running behind auth.Middleware.
func (h *Handler) handleChat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var req mealplanapi.ChatRequest
	if status, err := decodeJSONRequest(w, r, &req); err != nil {
		h.jsonError(w, err.Error(), status)
		return
	}

	token := resolveToken(r, req.Token)
	identity, ok := h.authenticate(w, token)
	if !ok {
		return
	}

	userID := identity.ID
	if userID == "" {
		userID = req.SSESessionID
	}

	msg := mealmodel.UserMessage{
		Text:      req.Message,
		SessionID: req.SSESessionID,
		UserID:    userID,
	}

	ctx := auth.WithToken(r.Context(), token)
	out, err := h.cfg.Orchestrator.Handle(ctx, msg, token)
	if err != nil {
		h.writePipelineError(w, r, err)
		return
	}

	h.jsonResponse(w, chatResponseFrom(out, userID, h.cfg.ModelUsed))
}

// chatResponseFrom maps the orchestrator's loosely-typed turn result
// into the fixed ChatResponse envelope, populating only the optional
// fields the turn actually produced.
func chatResponseFrom(out map[string]any, userID, modelUsed string) mealplanapi.ChatResponse {
	resp := mealplanapi.ChatResponse{
		Success:   true,
		ModelUsed: modelUsed,
		UserID:    userID,
	}
	if v, ok := out["response"].(string); ok {
		resp.Response = v
	}
	if v, ok := out["requires_confirmation"].(bool); ok {
		resp.RequiresConfirmation = v
	}
	if v, ok := out["confirmation_session_id"].(string); ok {
		resp.ConfirmationSessionID = v
	}
	if v, ok := out["requires_selection"].(bool); ok {
		resp.RequiresSelection = v
	}
	if v, ok := out["candidates"].([]map[string]any); ok {
		resp.Candidates = make([]any, len(v))
		for i, c := range v {
			resp.Candidates[i] = c
		}
	}
	if v, ok := out["task_id"].(string); ok {
		resp.TaskID = v
	}
	if v, ok := out["current_stage"].(mealmodel.Stage); ok {
		resp.CurrentStage = string(v)
	}
	if v, ok := out["used_ingredients"].([]string); ok {
		resp.UsedIngredients = v
	}
	if v, ok := out["menu_category"].(mealmodel.MenuCategory); ok {
		resp.MenuCategory = string(v)
	}
	if v, ok := out["requires_next_stage"].(bool); ok {
		resp.RequiresNextStage = v
	}
	return resp
}
