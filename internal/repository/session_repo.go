package repository

import (
	"context"
	"encoding/json"

	"labelops-backend/internal/models"
	"labelops-backend/internal/store"
)

const (
	openSessionKeyPrefix = "session:open:"
	sessionLogKey        = "session:log"
)

// SessionRepo owns the single open-session marker per user (last-write-wins)
// and the shared append-only log of closed sessions.
type SessionRepo struct {
	store store.Store
}

func NewSessionRepo(s store.Store) *SessionRepo {
	return &SessionRepo{store: s}
}

// GetOpen returns the user's open session, or nil when there is none. A
// corrupt marker counts as none.
func (r *SessionRepo) GetOpen(ctx context.Context, userID string) (*models.Session, error) {
	data, err := r.store.Get(ctx, openSessionKeyPrefix+userID)
	if err == store.ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var s models.Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, nil
	}
	return &s, nil
}

// PutOpen overwrites the user's open-session marker.
func (r *SessionRepo) PutOpen(ctx context.Context, s *models.Session) error {
	data, err := json.Marshal(s)
	if err != nil {
		return err
	}
	return r.store.Set(ctx, openSessionKeyPrefix+s.UserID, data)
}

func (r *SessionRepo) DeleteOpen(ctx context.Context, userID string) error {
	return r.store.Delete(ctx, openSessionKeyPrefix+userID)
}

// OpenSessions returns every user's open session across the whole store.
func (r *SessionRepo) OpenSessions(ctx context.Context) ([]models.Session, error) {
	keys, err := r.store.Keys(ctx, openSessionKeyPrefix)
	if err != nil {
		return nil, err
	}

	sessions := make([]models.Session, 0, len(keys))
	for _, key := range keys {
		data, err := r.store.Get(ctx, key)
		if err != nil {
			continue
		}
		var s models.Session
		if err := json.Unmarshal(data, &s); err != nil {
			continue
		}
		sessions = append(sessions, s)
	}
	return sessions, nil
}

// AppendClosed appends a finalized session to the shared session log.
func (r *SessionRepo) AppendClosed(ctx context.Context, s *models.Session) error {
	data, err := json.Marshal(s)
	if err != nil {
		return err
	}
	return r.store.Append(ctx, sessionLogKey, data)
}

// ClosedSessions returns the full session log in append order, skipping
// unparseable entries.
func (r *SessionRepo) ClosedSessions(ctx context.Context) ([]models.Session, error) {
	entries, err := r.store.Range(ctx, sessionLogKey)
	if err != nil {
		return nil, err
	}

	sessions := make([]models.Session, 0, len(entries))
	for _, data := range entries {
		var s models.Session
		if err := json.Unmarshal(data, &s); err != nil {
			continue
		}
		sessions = append(sessions, s)
	}
	return sessions, nil
}
