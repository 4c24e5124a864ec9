package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"labelops-backend/internal/telemetry"
)

type PresenceHandler struct {
	evaluator *telemetry.PresenceEvaluator
}

func NewPresenceHandler(evaluator *telemetry.PresenceEvaluator) *PresenceHandler {
	return &PresenceHandler{evaluator: evaluator}
}

// List returns the online/offline classification for every known user.
func (h *PresenceHandler) List(w http.ResponseWriter, r *http.Request) {
	statuses, err := h.evaluator.Evaluate(r.Context(), time.Now())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to evaluate presence", r))
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"presence": statuses,
	})
}

// Get returns one user's status plus the human-readable last-seen label.
func (h *PresenceHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	if userID == "" {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Missing user ID", r))
		return
	}
	ctx := r.Context()

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"user_id":   userID,
		"is_online": h.evaluator.IsOnline(ctx, userID),
		"last_seen": h.evaluator.LastSeenLabel(ctx, userID),
	})
}
