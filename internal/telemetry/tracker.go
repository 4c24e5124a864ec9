package telemetry

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"labelops-backend/internal/models"
	"labelops-backend/internal/monitoring"
	"labelops-backend/internal/repository"
)

// SessionTracker runs the per-user session lifecycle: NoSession -> Open ->
// Closed. Closed sessions are immutable; the open-session marker is the only
// racy shared state and is last-write-wins, since duration is always
// recomputed from absolute timestamps.
type SessionTracker struct {
	repo     *repository.SessionRepo
	interval time.Duration
	now      func() time.Time

	mu      sync.Mutex
	cancels map[string]context.CancelFunc
}

func NewSessionTracker(repo *repository.SessionRepo, interval time.Duration) *SessionTracker {
	return &SessionTracker{
		repo:     repo,
		interval: interval,
		now:      time.Now,
		cancels:  make(map[string]context.CancelFunc),
	}
}

// StartSession opens a session and begins the periodic extend loop. If this
// tracker already drives a session for the user, the existing one is
// returned untouched. A marker left in the store by a crashed process is
// simply overwritten: the new session takes over, last write wins.
func (t *SessionTracker) StartSession(ctx context.Context, userID string) (*models.Session, error) {
	t.mu.Lock()
	_, running := t.cancels[userID]
	t.mu.Unlock()

	if running {
		if existing, err := t.repo.GetOpen(ctx, userID); err == nil && existing != nil {
			return existing, nil
		}
	}

	s := &models.Session{
		ID:        uuid.New(),
		UserID:    userID,
		StartTime: t.now(),
	}
	if err := t.repo.PutOpen(ctx, s); err != nil {
		return nil, err
	}

	t.mu.Lock()
	if _, running := t.cancels[userID]; !running {
		loopCtx, cancel := context.WithCancel(context.Background())
		t.cancels[userID] = cancel
		go t.loop(loopCtx, userID)
	}
	t.mu.Unlock()

	return s, nil
}

func (t *SessionTracker) loop(ctx context.Context, userID string) {
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := t.ExtendSession(ctx, userID); err != nil {
				log.Printf("tracker: extend failed for user %s: %v", userID, err)
			}
		}
	}
}

// ExtendSession recomputes the open session's duration in place. Silent
// no-op when no open session exists.
func (t *SessionTracker) ExtendSession(ctx context.Context, userID string) error {
	s, err := t.repo.GetOpen(ctx, userID)
	if err != nil || s == nil {
		return err
	}

	minutes := int(t.now().Sub(s.StartTime) / time.Minute)
	if minutes < 0 {
		minutes = 0
	}
	s.DurationMinutes = minutes
	return t.repo.PutOpen(ctx, s)
}

// CloseSession finalizes the open session, appends it to the session log and
// removes the open marker. Silent no-op when nothing is open.
func (t *SessionTracker) CloseSession(ctx context.Context, userID string) error {
	t.stopLoop(userID)

	s, err := t.repo.GetOpen(ctx, userID)
	if err != nil {
		return err
	}
	if s == nil {
		return nil
	}

	end := t.now()
	minutes := int(end.Sub(s.StartTime) / time.Minute)
	if minutes < 0 {
		minutes = 0
	}
	s.EndTime = &end
	s.DurationMinutes = minutes

	if err := t.repo.AppendClosed(ctx, s); err != nil {
		return err
	}
	if err := t.repo.DeleteOpen(ctx, userID); err != nil {
		return err
	}

	monitoring.SessionsClosed.Inc()
	return nil
}

func (t *SessionTracker) stopLoop(userID string) {
	t.mu.Lock()
	if cancel, ok := t.cancels[userID]; ok {
		cancel()
		delete(t.cancels, userID)
	}
	t.mu.Unlock()
}

// StopAll closes every session this tracker drives. Called once on graceful
// shutdown; a crash skips this, which is the designed failure mode.
func (t *SessionTracker) StopAll(ctx context.Context) {
	t.mu.Lock()
	userIDs := make([]string, 0, len(t.cancels))
	for userID := range t.cancels {
		userIDs = append(userIDs, userID)
	}
	t.mu.Unlock()

	for _, userID := range userIDs {
		if err := t.CloseSession(ctx, userID); err != nil {
			log.Printf("tracker: close failed for user %s: %v", userID, err)
		}
	}
}
