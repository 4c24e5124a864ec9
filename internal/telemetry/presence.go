package telemetry

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"labelops-backend/internal/models"
	"labelops-backend/internal/monitoring"
	"labelops-backend/internal/repository"
)

// PresenceEvaluator classifies every user with a heartbeat record as online
// or offline. The threshold is strictly greater than the heartbeat interval
// so one missed tick does not flip a live user to offline.
type PresenceEvaluator struct {
	repo         *repository.HeartbeatRepo
	threshold    time.Duration
	pollInterval time.Duration
	now          func() time.Time

	mu       sync.RWMutex
	snapshot map[string]models.PresenceStatus

	publish func(ctx context.Context, changed []models.PresenceStatus)
}

func NewPresenceEvaluator(repo *repository.HeartbeatRepo, threshold, pollInterval time.Duration) *PresenceEvaluator {
	return &PresenceEvaluator{
		repo:         repo,
		threshold:    threshold,
		pollInterval: pollInterval,
		now:          time.Now,
		snapshot:     make(map[string]models.PresenceStatus),
	}
}

// OnChange registers a hook invoked with the statuses that changed between
// two poll cycles. Used to push live presence to dashboard clients.
func (e *PresenceEvaluator) OnChange(fn func(ctx context.Context, changed []models.PresenceStatus)) {
	e.publish = fn
}

// Evaluate scans every heartbeat record in the store and classifies each
// user against the staleness threshold.
func (e *PresenceEvaluator) Evaluate(ctx context.Context, now time.Time) (map[string]models.PresenceStatus, error) {
	beats, err := e.repo.All(ctx)
	if err != nil {
		return nil, err
	}

	result := make(map[string]models.PresenceStatus, len(beats))
	for _, hb := range beats {
		result[hb.UserID] = models.PresenceStatus{
			UserID:     hb.UserID,
			IsOnline:   now.Sub(hb.LastSeenAt) < e.threshold,
			LastSeenAt: hb.LastSeenAt,
		}
	}

	monitoring.PresenceEvaluations.Inc()
	return result, nil
}

// Run re-evaluates on a fixed poll, independent of the heartbeat cycle, so
// staleness is detected even when no request traffic arrives. Blocks until
// ctx is cancelled.
func (e *PresenceEvaluator) Run(ctx context.Context) {
	e.refresh(ctx)

	ticker := time.NewTicker(e.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.refresh(ctx)
		}
	}
}

func (e *PresenceEvaluator) refresh(ctx context.Context) {
	statuses, err := e.Evaluate(ctx, e.now())
	if err != nil {
		log.Printf("presence: evaluation failed: %v", err)
		return
	}

	e.mu.Lock()
	var changed []models.PresenceStatus
	for userID, status := range statuses {
		prev, seen := e.snapshot[userID]
		if !seen || prev.IsOnline != status.IsOnline {
			changed = append(changed, status)
		}
	}
	for userID, prev := range e.snapshot {
		if _, still := statuses[userID]; !still && prev.IsOnline {
			prev.IsOnline = false
			changed = append(changed, prev)
		}
	}
	e.snapshot = statuses
	e.mu.Unlock()

	if e.publish != nil && len(changed) > 0 {
		e.publish(ctx, changed)
	}
}

// IsOnline answers from the store directly so request paths observe writes
// immediately rather than waiting for the next poll.
func (e *PresenceEvaluator) IsOnline(ctx context.Context, userID string) bool {
	hb, err := e.repo.Get(ctx, userID)
	if err != nil || hb == nil {
		return false
	}
	return e.now().Sub(hb.LastSeenAt) < e.threshold
}

// LastSeenLabel renders the human-readable "last seen" string: "never" for
// unknown users, "online" within the threshold, then relative-time buckets
// rounding down.
func (e *PresenceEvaluator) LastSeenLabel(ctx context.Context, userID string) string {
	hb, err := e.repo.Get(ctx, userID)
	if err != nil || hb == nil {
		return "never"
	}

	elapsed := e.now().Sub(hb.LastSeenAt)
	switch {
	case elapsed < e.threshold:
		return "online"
	case elapsed < time.Minute:
		return "just now"
	case elapsed < time.Hour:
		return fmt.Sprintf("%d min ago", int(elapsed/time.Minute))
	case elapsed < 24*time.Hour:
		return fmt.Sprintf("%d hours ago", int(elapsed/time.Hour))
	default:
		return fmt.Sprintf("%d days ago", int(elapsed/(24*time.Hour)))
	}
}
