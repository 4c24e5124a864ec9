package handlers

import (
	"net/http"

	"labelops-backend/internal/middleware"
	"labelops-backend/internal/telemetry"
)

// TelemetryHandler is the write surface dashboard tabs report through:
// became-active, graceful stop, and foreground visibility regained.
type TelemetryHandler struct {
	publisher *telemetry.HeartbeatPublisher
	tracker   *telemetry.SessionTracker
	activity  *telemetry.ActivityLog
}

func NewTelemetryHandler(publisher *telemetry.HeartbeatPublisher, tracker *telemetry.SessionTracker, activity *telemetry.ActivityLog) *TelemetryHandler {
	return &TelemetryHandler{publisher: publisher, tracker: tracker, activity: activity}
}

// Online starts the heartbeat loop and opens a session for the caller.
func (h *TelemetryHandler) Online(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	ctx := r.Context()

	if err := h.publisher.Start(ctx, userID); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to record presence", r))
		return
	}

	session, err := h.tracker.StartSession(ctx, userID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to start session", r))
		return
	}

	// Best effort; the audit trail never blocks the lifecycle.
	_ = h.activity.Log(ctx, userID, "login", "User came online", nil)

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"session": session,
	})
}

// Offline is the graceful shutdown path: close the session, retract the
// heartbeat. Crashed tabs never call this and age out instead.
func (h *TelemetryHandler) Offline(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	ctx := r.Context()

	if err := h.tracker.CloseSession(ctx, userID); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to close session", r))
		return
	}
	if err := h.publisher.Stop(ctx, userID); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to clear presence", r))
		return
	}

	_ = h.activity.Log(ctx, userID, "logout", "User went offline", nil)

	writeJSON(w, http.StatusOK, map[string]string{"message": "Session closed"})
}

// Visibility restamps last-seen when the tab regains foreground focus.
// Debounced inside the publisher.
func (h *TelemetryHandler) Visibility(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	if err := h.publisher.Refresh(r.Context(), userID); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to refresh presence", r))
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Presence refreshed"})
}
