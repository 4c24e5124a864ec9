package models

import (
	"time"

	"github.com/google/uuid"
)

// Heartbeat is the liveness stamp for a user. One record per user,
// overwritten in place; only the latest timestamp matters.
type Heartbeat struct {
	UserID     string    `json:"user_id"`
	LastSeenAt time.Time `json:"last_seen_at"`
}

// Session is one continuous period of presence. EndTime is nil while the
// session is open; duration is always recomputed from StartTime against the
// wall clock, never accumulated from deltas.
type Session struct {
	ID              uuid.UUID  `json:"id"`
	UserID          string     `json:"user_id"`
	StartTime       time.Time  `json:"start_time"`
	EndTime         *time.Time `json:"end_time,omitempty"`
	DurationMinutes int        `json:"duration_minutes"`
}

// PresenceStatus is the computed online/offline classification for a user.
type PresenceStatus struct {
	UserID     string    `json:"user_id"`
	IsOnline   bool      `json:"is_online"`
	LastSeenAt time.Time `json:"last_seen_at"`
}

// DailyBucket holds one calendar day of usage for one user. Derived, never
// stored.
type DailyBucket struct {
	Date         string `json:"date"` // YYYY-MM-DD, local time
	TotalMinutes int    `json:"total_minutes"`
	SessionCount int    `json:"session_count"`
}

// UserActivitySnapshot is the read model served to dashboards: today's and
// the trailing week's minutes plus exactly seven daily buckets, oldest first.
type UserActivitySnapshot struct {
	UserID       string        `json:"user_id"`
	TodayMinutes int           `json:"today_minutes"`
	WeekMinutes  int           `json:"week_minutes"`
	DailyBuckets []DailyBucket `json:"daily_buckets"`
	OpenSession  *Session      `json:"open_session,omitempty"`
}
