package telemetry

import (
	"context"
	"testing"
	"time"

	"labelops-backend/internal/repository"
	"labelops-backend/internal/store"
)

func newPublisherFixture(t *testing.T) (*repository.HeartbeatRepo, *HeartbeatPublisher) {
	t.Helper()
	s := store.NewMemoryStore()
	repo := repository.NewHeartbeatRepo(s)
	return repo, NewHeartbeatPublisher(repo, 30*time.Second)
}

func TestStart_WritesImmediately(t *testing.T) {
	ctx := context.Background()
	repo, publisher := newPublisherFixture(t)
	defer publisher.StopAll(ctx)

	at := time.Date(2026, 8, 28, 9, 0, 0, 0, time.UTC)
	publisher.now = func() time.Time { return at }

	if err := publisher.Start(ctx, "u1"); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	beat, err := repo.Get(ctx, "u1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if beat == nil {
		t.Fatal("Start must stamp the heartbeat before the first tick")
	}
	if !beat.LastSeenAt.Equal(at) {
		t.Errorf("Expected last seen %v, got %v", at, beat.LastSeenAt)
	}
}

func TestStop_DeletesHeartbeat(t *testing.T) {
	ctx := context.Background()
	repo, publisher := newPublisherFixture(t)

	if err := publisher.Start(ctx, "u1"); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if err := publisher.Stop(ctx, "u1"); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}

	beat, err := repo.Get(ctx, "u1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if beat != nil {
		t.Error("Heartbeat record must be deleted on graceful stop")
	}
}

func TestRefresh_DebouncedWithinInterval(t *testing.T) {
	ctx := context.Background()
	repo, publisher := newPublisherFixture(t)
	defer publisher.StopAll(ctx)

	base := time.Date(2026, 8, 28, 9, 0, 0, 0, time.UTC)
	publisher.now = func() time.Time { return base }
	publisher.Start(ctx, "u1")

	// 10s later: within the interval, the stamp must not move.
	publisher.now = func() time.Time { return base.Add(10 * time.Second) }
	if err := publisher.Refresh(ctx, "u1"); err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}
	beat, _ := repo.Get(ctx, "u1")
	if !beat.LastSeenAt.Equal(base) {
		t.Errorf("Debounced refresh moved the stamp to %v", beat.LastSeenAt)
	}

	// 40s later: past the interval, the stamp advances.
	publisher.now = func() time.Time { return base.Add(40 * time.Second) }
	if err := publisher.Refresh(ctx, "u1"); err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}
	beat, _ = repo.Get(ctx, "u1")
	if !beat.LastSeenAt.Equal(base.Add(40 * time.Second)) {
		t.Errorf("Expected stamp at +40s, got %v", beat.LastSeenAt)
	}
}

func TestRefresh_UntrackedUserStamps(t *testing.T) {
	ctx := context.Background()
	repo, publisher := newPublisherFixture(t)

	at := time.Date(2026, 8, 28, 9, 0, 0, 0, time.UTC)
	publisher.now = func() time.Time { return at }

	if err := publisher.Refresh(ctx, "cold"); err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}
	beat, _ := repo.Get(ctx, "cold")
	if beat == nil || !beat.LastSeenAt.Equal(at) {
		t.Errorf("Refresh without prior Start should still stamp, got %+v", beat)
	}
}
