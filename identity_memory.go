package schoolGuard

import (
	"context"
	"strings"
	"sync"
	"time"
)

// MemoryIdentityStore is a process-local [IdentityStore] for tests and
// single-node development. Emails are matched case-insensitively.
type MemoryIdentityStore struct {
	mu      sync.RWMutex
	byID    map[string]*Identity
	byEmail map[string]string
}

// NewMemoryIdentityStore returns an empty store.
func NewMemoryIdentityStore() *MemoryIdentityStore {
	return &MemoryIdentityStore{
		byID:    make(map[string]*Identity),
		byEmail: make(map[string]string),
	}
}

// Put inserts or replaces identity.
func (s *MemoryIdentityStore) Put(identity Identity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if prev, ok := s.byID[identity.ID]; ok {
		delete(s.byEmail, strings.ToLower(prev.Email))
	}
	cp := cloneIdentity(&identity)
	s.byID[identity.ID] = cp
	s.byEmail[strings.ToLower(identity.Email)] = identity.ID
}

// Delete removes the identity with id.
func (s *MemoryIdentityStore) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if prev, ok := s.byID[id]; ok {
		delete(s.byEmail, strings.ToLower(prev.Email))
		delete(s.byID, id)
	}
}

func (s *MemoryIdentityStore) FindByID(_ context.Context, id string) (*Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	identity, ok := s.byID[id]
	if !ok {
		return nil, ErrIdentityNotFound
	}
	return cloneIdentity(identity), nil
}

func (s *MemoryIdentityStore) FindByEmail(_ context.Context, email string) (*Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byEmail[strings.ToLower(email)]
	if !ok {
		return nil, ErrIdentityNotFound
	}
	return cloneIdentity(s.byID[id]), nil
}

// UpdateLockoutState writes all three lockout fields together.
func (s *MemoryIdentityStore) UpdateLockoutState(_ context.Context, id string, state LockoutState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	identity, ok := s.byID[id]
	if !ok {
		return ErrIdentityNotFound
	}
	identity.FailedLoginAttempts = state.FailedLoginAttempts
	identity.LastFailedLoginAt = cloneTime(state.LastFailedLoginAt)
	identity.LockoutUntil = cloneTime(state.LockoutUntil)
	return nil
}

func cloneIdentity(in *Identity) *Identity {
	out := *in
	out.LastFailedLoginAt = cloneTime(in.LastFailedLoginAt)
	out.LockoutUntil = cloneTime(in.LockoutUntil)
	return &out
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
