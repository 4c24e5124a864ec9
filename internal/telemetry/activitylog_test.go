package telemetry

import (
	"context"
	"fmt"
	"testing"
	"time"

	"labelops-backend/internal/repository"
	"labelops-backend/internal/store"
)

func newActivityFixture(t *testing.T, capacity int64) *ActivityLog {
	t.Helper()
	s := store.NewMemoryStore()
	return NewActivityLog(repository.NewActivityLogRepo(s, capacity))
}

func TestActivityLog_AppendAndQuery(t *testing.T) {
	ctx := context.Background()
	activity := newActivityFixture(t, 1000)

	if err := activity.Log(ctx, "u1", "login", "User came online", nil); err != nil {
		t.Fatalf("Log failed: %v", err)
	}
	activity.Log(ctx, "u1", "created-ticket", "Opened ticket #42", map[string]interface{}{"ticket_id": 42})
	activity.Log(ctx, "u2", "login", "User came online", nil)

	entries, err := activity.Logs(ctx)
	if err != nil {
		t.Fatalf("Logs failed: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("Expected 3 entries, got %d", len(entries))
	}
	if entries[0].ActionType != "login" || entries[0].UserID != "u1" {
		t.Errorf("Insertion order broken: first entry %+v", entries[0])
	}

	u1Entries, err := activity.UserLogs(ctx, "u1")
	if err != nil {
		t.Fatalf("UserLogs failed: %v", err)
	}
	if len(u1Entries) != 2 {
		t.Errorf("Expected 2 entries for u1, got %d", len(u1Entries))
	}
}

func TestActivityLog_RingBufferEviction(t *testing.T) {
	ctx := context.Background()
	activity := newActivityFixture(t, 1000)

	// 1000 + k entries leave exactly the most recent 1000 in order.
	const k = 5
	for i := 0; i < 1000+k; i++ {
		if err := activity.Log(ctx, "u1", "tick", fmt.Sprintf("entry %d", i), nil); err != nil {
			t.Fatalf("Log %d failed: %v", i, err)
		}
	}

	entries, err := activity.Logs(ctx)
	if err != nil {
		t.Fatalf("Logs failed: %v", err)
	}
	if len(entries) != 1000 {
		t.Fatalf("Expected exactly 1000 entries, got %d", len(entries))
	}
	if entries[0].Description != fmt.Sprintf("entry %d", k) {
		t.Errorf("Eviction should drop from the front: first entry is %q", entries[0].Description)
	}
	if entries[999].Description != fmt.Sprintf("entry %d", 999+k) {
		t.Errorf("Newest entry must never be dropped: last entry is %q", entries[999].Description)
	}
}

func TestActivityLog_Stats(t *testing.T) {
	ctx := context.Background()
	activity := newActivityFixture(t, 1000)

	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	activity.now = func() time.Time { return now.Add(-48 * time.Hour) }
	activity.Log(ctx, "u1", "login", "", nil)

	activity.now = func() time.Time { return now.Add(-1 * time.Hour) }
	activity.Log(ctx, "u1", "created-ticket", "", nil)
	activity.Log(ctx, "u2", "login", "", nil)
	activity.Log(ctx, "u3", "logout", "", nil)

	activity.now = func() time.Time { return now }
	stats, err := activity.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}

	if stats.TotalEntries != 4 {
		t.Errorf("Expected 4 total entries, got %d", stats.TotalEntries)
	}
	if stats.DistinctUsers != 3 {
		t.Errorf("Expected 3 distinct users, got %d", stats.DistinctUsers)
	}
	if stats.ByActionType["login"] != 2 {
		t.Errorf("Expected 2 logins, got %d", stats.ByActionType["login"])
	}
	if stats.Last24Hours != 3 {
		t.Errorf("Expected 3 entries within 24h, got %d", stats.Last24Hours)
	}
}
