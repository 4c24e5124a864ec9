package models

import (
	"time"

	"github.com/google/uuid"
)

// ActivityLogEntry is one discrete user action (login, created-ticket, ...)
// in the bounded audit log. Orthogonal to the session model.
type ActivityLogEntry struct {
	ID          uuid.UUID              `json:"id"`
	UserID      string                 `json:"user_id"`
	ActionType  string                 `json:"action_type"`
	Description string                 `json:"description"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
	Timestamp   time.Time              `json:"timestamp"`
}

// ActivityStats summarizes the audit log in a single scan.
type ActivityStats struct {
	TotalEntries  int            `json:"total_entries"`
	DistinctUsers int            `json:"distinct_users"`
	ByActionType  map[string]int `json:"by_action_type"`
	Last24Hours   int            `json:"last_24_hours"`
}
