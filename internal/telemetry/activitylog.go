package telemetry

import (
	"context"
	"time"

	"github.com/google/uuid"

	"labelops-backend/internal/models"
	"labelops-backend/internal/monitoring"
	"labelops-backend/internal/repository"
)

// ActivityLog records discrete user actions (login, logout, created-ticket)
// for display and monitoring. Bounded, not time-bucketed.
type ActivityLog struct {
	repo *repository.ActivityLogRepo
	now  func() time.Time
}

func NewActivityLog(repo *repository.ActivityLogRepo) *ActivityLog {
	return &ActivityLog{repo: repo, now: time.Now}
}

func (l *ActivityLog) Log(ctx context.Context, userID, actionType, description string, metadata map[string]interface{}) error {
	entry := models.ActivityLogEntry{
		ID:          uuid.New(),
		UserID:      userID,
		ActionType:  actionType,
		Description: description,
		Metadata:    metadata,
		Timestamp:   l.now(),
	}
	if err := l.repo.Append(ctx, &entry); err != nil {
		return err
	}
	monitoring.ActivityEntriesLogged.Inc()
	return nil
}

// Logs returns the whole audit log, oldest first.
func (l *ActivityLog) Logs(ctx context.Context) ([]models.ActivityLogEntry, error) {
	return l.repo.All(ctx)
}

// UserLogs returns one user's entries in chronological order.
func (l *ActivityLog) UserLogs(ctx context.Context, userID string) ([]models.ActivityLogEntry, error) {
	entries, err := l.repo.All(ctx)
	if err != nil {
		return nil, err
	}

	filtered := make([]models.ActivityLogEntry, 0, len(entries))
	for _, entry := range entries {
		if entry.UserID == userID {
			filtered = append(filtered, entry)
		}
	}
	return filtered, nil
}

// Stats summarizes the log with a single linear scan; no stored counters.
func (l *ActivityLog) Stats(ctx context.Context) (*models.ActivityStats, error) {
	entries, err := l.repo.All(ctx)
	if err != nil {
		return nil, err
	}

	stats := &models.ActivityStats{
		TotalEntries: len(entries),
		ByActionType: make(map[string]int),
	}
	users := make(map[string]struct{})
	cutoff := l.now().Add(-24 * time.Hour)

	for _, entry := range entries {
		users[entry.UserID] = struct{}{}
		stats.ByActionType[entry.ActionType]++
		if entry.Timestamp.After(cutoff) {
			stats.Last24Hours++
		}
	}
	stats.DistinctUsers = len(users)
	return stats, nil
}
