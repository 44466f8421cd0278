package revocation

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is a process-local [Store].
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]Record
}

// NewMemoryStore creates an empty [MemoryStore].
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]Record)}
}

// Insert implements [Store].
func (s *MemoryStore) Insert(_ context.Context, rec Record) error {
	key := Fingerprint(rec.Token)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[key]; ok {
		return ErrAlreadyRevoked
	}
	rec.Token = ""
	s.records[key] = rec
	return nil
}

// Exists implements [Store].
func (s *MemoryStore) Exists(_ context.Context, token string) (bool, error) {
	key := Fingerprint(token)

	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.records[key]
	return ok, nil
}

// DeleteExpired implements [Store].
func (s *MemoryStore) DeleteExpired(_ context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for key, rec := range s.records {
		if rec.ExpiresAt.Before(now) {
			delete(s.records, key)
			removed++
		}
	}
	return removed, nil
}

// Len returns the number of stored records.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}
