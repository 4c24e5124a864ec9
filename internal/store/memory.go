package store

import (
	"context"
	"strings"
	"sync"
)

// MemoryStore is a mutex-guarded in-process Store. Used in tests and for
// single-node development without external services.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string][]byte
	logs    map[string][][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[string][]byte),
		logs:    make(map[string][][]byte),
	}
}

func (s *MemoryStore) Get(ctx context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	value, ok := s.records[key]
	if !ok {
		return nil, ErrNotFound
	}
	out := make([]byte, len(value))
	copy(out, value)
	return out, nil
}

func (s *MemoryStore) Set(ctx context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := make([]byte, len(value))
	copy(stored, value)
	s.records[key] = stored
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.records, key)
	return nil
}

func (s *MemoryStore) Keys(ctx context.Context, prefix string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var keys []string
	for key := range s.records {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	return keys, nil
}

func (s *MemoryStore) Append(ctx context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := make([]byte, len(value))
	copy(stored, value)
	s.logs[key] = append(s.logs[key], stored)
	return nil
}

func (s *MemoryStore) Range(ctx context.Context, key string) ([][]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := s.logs[key]
	out := make([][]byte, len(entries))
	for i, entry := range entries {
		value := make([]byte, len(entry))
		copy(value, entry)
		out[i] = value
	}
	return out, nil
}

func (s *MemoryStore) Trim(ctx context.Context, key string, max int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := s.logs[key]
	if int64(len(entries)) <= max {
		return nil
	}
	trimmed := entries[int64(len(entries))-max:]
	s.logs[key] = append([][]byte(nil), trimmed...)
	return nil
}
