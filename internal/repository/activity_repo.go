package repository

import (
	"context"
	"encoding/json"

	"labelops-backend/internal/models"
	"labelops-backend/internal/store"
)

const activityLogKey = "activity:log"

// ActivityLogRepo keeps the bounded audit log. Eviction is strictly from the
// front: the newest entry is never the one dropped.
type ActivityLogRepo struct {
	store store.Store
	cap   int64
}

func NewActivityLogRepo(s store.Store, capacity int64) *ActivityLogRepo {
	return &ActivityLogRepo{store: s, cap: capacity}
}

// Append pushes an entry and trims the log back to the cap.
func (r *ActivityLogRepo) Append(ctx context.Context, entry *models.ActivityLogEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	if err := r.store.Append(ctx, activityLogKey, data); err != nil {
		return err
	}
	return r.store.Trim(ctx, activityLogKey, r.cap)
}

// All returns the log oldest-first, skipping unparseable entries.
func (r *ActivityLogRepo) All(ctx context.Context) ([]models.ActivityLogEntry, error) {
	raw, err := r.store.Range(ctx, activityLogKey)
	if err != nil {
		return nil, err
	}

	entries := make([]models.ActivityLogEntry, 0, len(raw))
	for _, data := range raw {
		var entry models.ActivityLogEntry
		if err := json.Unmarshal(data, &entry); err != nil {
			continue
		}
		entries = append(entries, entry)
	}
	return entries, nil
}
