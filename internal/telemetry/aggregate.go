package telemetry

import (
	"context"
	"log"
	"sync"
	"time"

	"labelops-backend/internal/models"
	"labelops-backend/internal/repository"
)

const dateLayout = "2006-01-02"

// ActivityAggregator reduces the full session log plus any open sessions
// into per-user daily and weekly usage. Pure read over the store, idempotent
// between writes.
type ActivityAggregator struct {
	repo         *repository.SessionRepo
	pollInterval time.Duration
	maxLive      time.Duration
	now          func() time.Time

	mu       sync.RWMutex
	snapshot map[string]*models.UserActivitySnapshot
}

// NewActivityAggregator builds an aggregator. maxLive caps the live duration
// attributed to an open session, so a marker abandoned by a crashed process
// cannot accumulate unbounded minutes before it is superseded.
func NewActivityAggregator(repo *repository.SessionRepo, pollInterval, maxLive time.Duration) *ActivityAggregator {
	return &ActivityAggregator{
		repo:         repo,
		pollInterval: pollInterval,
		maxLive:      maxLive,
		now:          time.Now,
		snapshot:     make(map[string]*models.UserActivitySnapshot),
	}
}

// CalculateAggregates builds a snapshot for every user appearing in the
// session log or holding an open-session marker. Buckets are local calendar
// days; a session belongs entirely to its start date even when it crosses
// midnight.
func (a *ActivityAggregator) CalculateAggregates(ctx context.Context, now time.Time) (map[string]*models.UserActivitySnapshot, error) {
	closed, err := a.repo.ClosedSessions(ctx)
	if err != nil {
		return nil, err
	}
	open, err := a.repo.OpenSessions(ctx)
	if err != nil {
		return nil, err
	}

	snapshots := make(map[string]*models.UserActivitySnapshot)
	ensure := func(userID string) *models.UserActivitySnapshot {
		if snap, ok := snapshots[userID]; ok {
			return snap
		}
		snap := &models.UserActivitySnapshot{
			UserID:       userID,
			DailyBuckets: emptyWeekBuckets(now),
		}
		snapshots[userID] = snap
		return snap
	}

	for i := range closed {
		s := closed[i]
		addToSnapshot(ensure(s.UserID), &s, s.DurationMinutes, now)
	}

	for i := range open {
		s := open[i]
		live := now.Sub(s.StartTime)
		if live < 0 {
			live = 0
		}
		if live > a.maxLive {
			live = a.maxLive
		}
		s.DurationMinutes = int(live / time.Minute)

		snap := ensure(s.UserID)
		snap.OpenSession = &s
		addToSnapshot(snap, &s, s.DurationMinutes, now)
	}

	return snapshots, nil
}

// emptyWeekBuckets returns exactly seven buckets spanning today and the six
// prior days, oldest first.
func emptyWeekBuckets(now time.Time) []models.DailyBucket {
	buckets := make([]models.DailyBucket, 7)
	for i := 0; i < 7; i++ {
		buckets[i] = models.DailyBucket{Date: now.AddDate(0, 0, i-6).Format(dateLayout)}
	}
	return buckets
}

func addToSnapshot(snap *models.UserActivitySnapshot, s *models.Session, minutes int, now time.Time) {
	startDate := s.StartTime.Format(dateLayout)
	if startDate == now.Format(dateLayout) {
		snap.TodayMinutes += minutes
	}
	for i := range snap.DailyBuckets {
		if snap.DailyBuckets[i].Date == startDate {
			snap.DailyBuckets[i].TotalMinutes += minutes
			snap.DailyBuckets[i].SessionCount++
			snap.WeekMinutes += minutes
			break
		}
	}
}

// UserStats recomputes on demand and returns the snapshot for one user, or
// nil when the user has no recorded sessions.
func (a *ActivityAggregator) UserStats(ctx context.Context, userID string) (*models.UserActivitySnapshot, error) {
	snapshots, err := a.CalculateAggregates(ctx, a.now())
	if err != nil {
		return nil, err
	}
	return snapshots[userID], nil
}

// Run refreshes the cached snapshots once immediately and then on a fixed
// poll. Blocks until ctx is cancelled.
func (a *ActivityAggregator) Run(ctx context.Context) {
	a.refresh(ctx)

	ticker := time.NewTicker(a.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.refresh(ctx)
		}
	}
}

func (a *ActivityAggregator) refresh(ctx context.Context) {
	snapshots, err := a.CalculateAggregates(ctx, a.now())
	if err != nil {
		log.Printf("aggregator: recompute failed: %v", err)
		return
	}

	a.mu.Lock()
	a.snapshot = snapshots
	a.mu.Unlock()
}

// Snapshots returns the last polled aggregate map.
func (a *ActivityAggregator) Snapshots() map[string]*models.UserActivitySnapshot {
	a.mu.RLock()
	defer a.mu.RUnlock()

	out := make(map[string]*models.UserActivitySnapshot, len(a.snapshot))
	for userID, snap := range a.snapshot {
		out[userID] = snap
	}
	return out
}
