package session

import (
	"context"
	"sync"
	"time"
)

// Store records live session ids. A session exists until it expires or is
// deleted on logout.
type Store interface {
	Save(ctx context.Context, id, username string, ttl time.Duration) error
	Exists(ctx context.Context, id string) (bool, error)
	Delete(ctx context.Context, id string) error
}

// MemoryStore keeps sessions in process. Sessions do not survive a restart
// and are not shared between instances.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]time.Time
	now     func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]time.Time),
		now:     time.Now,
	}
}

func (s *MemoryStore) Save(ctx context.Context, id, username string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for k, exp := range s.entries {
		if !now.Before(exp) {
			delete(s.entries, k)
		}
	}
	s.entries[id] = now.Add(ttl)
	return nil
}

func (s *MemoryStore) Exists(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	exp, ok := s.entries[id]
	if !ok {
		return false, nil
	}
	if !s.now().Before(exp) {
		delete(s.entries, id)
		return false, nil
	}
	return true, nil
}

func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, id)
	return nil
}
