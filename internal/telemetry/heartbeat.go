package telemetry

import (
	"context"
	"log"
	"sync"
	"time"

	"labelops-backend/internal/monitoring"
	"labelops-backend/internal/repository"
)

// HeartbeatPublisher declares "this user is alive" at a fixed interval and
// retracts the declaration on graceful stop. Crash paths never retract; the
// staleness threshold in the evaluator handles those.
type HeartbeatPublisher struct {
	repo     *repository.HeartbeatRepo
	interval time.Duration
	now      func() time.Time

	mu        sync.Mutex
	cancels   map[string]context.CancelFunc
	lastWrite map[string]time.Time
}

func NewHeartbeatPublisher(repo *repository.HeartbeatRepo, interval time.Duration) *HeartbeatPublisher {
	return &HeartbeatPublisher{
		repo:      repo,
		interval:  interval,
		now:       time.Now,
		cancels:   make(map[string]context.CancelFunc),
		lastWrite: make(map[string]time.Time),
	}
}

// Start stamps last-seen immediately and begins the periodic refresh loop.
// Idempotent: repeated calls for an already-tracked user just restamp.
func (p *HeartbeatPublisher) Start(ctx context.Context, userID string) error {
	if err := p.touch(ctx, userID); err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if _, running := p.cancels[userID]; running {
		return nil
	}
	loopCtx, cancel := context.WithCancel(context.Background())
	p.cancels[userID] = cancel
	go p.loop(loopCtx, userID)
	return nil
}

func (p *HeartbeatPublisher) loop(ctx context.Context, userID string) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := p.touch(ctx, userID); err != nil {
				log.Printf("heartbeat: refresh failed for user %s: %v", userID, err)
			}
		}
	}
}

// Refresh restamps out of band when the client regains foreground
// visibility. Debounced: a write within the heartbeat interval is a no-op.
func (p *HeartbeatPublisher) Refresh(ctx context.Context, userID string) error {
	p.mu.Lock()
	last, ok := p.lastWrite[userID]
	p.mu.Unlock()

	if ok && p.now().Sub(last) < p.interval {
		return nil
	}
	return p.touch(ctx, userID)
}

func (p *HeartbeatPublisher) touch(ctx context.Context, userID string) error {
	at := p.now()
	if err := p.repo.Touch(ctx, userID, at); err != nil {
		return err
	}

	p.mu.Lock()
	p.lastWrite[userID] = at
	p.mu.Unlock()

	monitoring.HeartbeatsWritten.Inc()
	return nil
}

// Stop cancels the refresh loop and deletes the heartbeat record so peers
// see the user go offline without waiting out the threshold.
func (p *HeartbeatPublisher) Stop(ctx context.Context, userID string) error {
	p.mu.Lock()
	if cancel, ok := p.cancels[userID]; ok {
		cancel()
		delete(p.cancels, userID)
	}
	delete(p.lastWrite, userID)
	p.mu.Unlock()

	return p.repo.Delete(ctx, userID)
}

// StopAll tears down every loop on service shutdown.
func (p *HeartbeatPublisher) StopAll(ctx context.Context) {
	p.mu.Lock()
	userIDs := make([]string, 0, len(p.cancels))
	for userID := range p.cancels {
		userIDs = append(userIDs, userID)
	}
	p.mu.Unlock()

	for _, userID := range userIDs {
		if err := p.Stop(ctx, userID); err != nil {
			log.Printf("heartbeat: stop failed for user %s: %v", userID, err)
		}
	}
}
