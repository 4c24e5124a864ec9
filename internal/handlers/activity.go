package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"labelops-backend/internal/middleware"
	"labelops-backend/internal/telemetry"
)

type ActivityHandler struct {
	activity *telemetry.ActivityLog
}

func NewActivityHandler(activity *telemetry.ActivityLog) *ActivityHandler {
	return &ActivityHandler{activity: activity}
}

// Create appends one audit entry for the authenticated user.
func (h *ActivityHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req struct {
		ActionType  string                 `json:"action_type"`
		Description string                 `json:"description"`
		Metadata    map[string]interface{} `json:"metadata"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}
	if req.ActionType == "" {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "action_type is required", r))
		return
	}

	if err := h.activity.Log(r.Context(), userID, req.ActionType, req.Description, req.Metadata); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to log activity", r))
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"message": "Activity logged"})
}

func (h *ActivityHandler) List(w http.ResponseWriter, r *http.Request) {
	entries, err := h.activity.Logs(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to load activity log", r))
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"entries": entries,
	})
}

func (h *ActivityHandler) ByUser(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	if userID == "" {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Missing user ID", r))
		return
	}

	entries, err := h.activity.UserLogs(r.Context(), userID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to load activity log", r))
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"entries": entries,
	})
}

func (h *ActivityHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.activity.Stats(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to compute activity stats", r))
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"stats": stats,
	})
}
