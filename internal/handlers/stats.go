package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"labelops-backend/internal/telemetry"
)

type StatsHandler struct {
	aggregator *telemetry.ActivityAggregator
}

func NewStatsHandler(aggregator *telemetry.ActivityAggregator) *StatsHandler {
	return &StatsHandler{aggregator: aggregator}
}

// List serves the last polled aggregate map for all users.
func (h *StatsHandler) List(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"stats": h.aggregator.Snapshots(),
	})
}

// Get recomputes on demand for one user.
func (h *StatsHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	if userID == "" {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Missing user ID", r))
		return
	}

	snap, err := h.aggregator.UserStats(r.Context(), userID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to compute stats", r))
		return
	}
	if snap == nil {
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "No activity recorded for user", r))
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"stats":       snap,
		"today_label": telemetry.FormatMinutes(snap.TodayMinutes),
		"week_label":  telemetry.FormatMinutes(snap.WeekMinutes),
	})
}
