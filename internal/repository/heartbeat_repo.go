package repository

import (
	"context"
	"encoding/json"
	"time"

	"labelops-backend/internal/models"
	"labelops-backend/internal/store"
)

const heartbeatKeyPrefix = "heartbeat:"

// HeartbeatRepo reads and writes per-user liveness stamps. A corrupt record
// is reported as absent, never as an error.
type HeartbeatRepo struct {
	store store.Store
}

func NewHeartbeatRepo(s store.Store) *HeartbeatRepo {
	return &HeartbeatRepo{store: s}
}

// Touch stamps last-seen for the user, overwriting any previous record.
func (r *HeartbeatRepo) Touch(ctx context.Context, userID string, at time.Time) error {
	data, err := json.Marshal(models.Heartbeat{UserID: userID, LastSeenAt: at})
	if err != nil {
		return err
	}
	return r.store.Set(ctx, heartbeatKeyPrefix+userID, data)
}

// Get returns the user's heartbeat, or nil when the user was never seen.
func (r *HeartbeatRepo) Get(ctx context.Context, userID string) (*models.Heartbeat, error) {
	data, err := r.store.Get(ctx, heartbeatKeyPrefix+userID)
	if err == store.ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var hb models.Heartbeat
	if err := json.Unmarshal(data, &hb); err != nil {
		return nil, nil
	}
	return &hb, nil
}

func (r *HeartbeatRepo) Delete(ctx context.Context, userID string) error {
	return r.store.Delete(ctx, heartbeatKeyPrefix+userID)
}

// All returns every user's heartbeat record, skipping unparseable entries.
func (r *HeartbeatRepo) All(ctx context.Context) ([]models.Heartbeat, error) {
	keys, err := r.store.Keys(ctx, heartbeatKeyPrefix)
	if err != nil {
		return nil, err
	}

	beats := make([]models.Heartbeat, 0, len(keys))
	for _, key := range keys {
		data, err := r.store.Get(ctx, key)
		if err != nil {
			continue
		}
		var hb models.Heartbeat
		if err := json.Unmarshal(data, &hb); err != nil {
			continue
		}
		beats = append(beats, hb)
	}
	return beats, nil
}
