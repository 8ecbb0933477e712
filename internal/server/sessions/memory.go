package sessions

import (
	"context"
	"sync"
	"time"

	"github.com/recipehub/recipehub/internal/common"
)

type memoryEntry struct {
	token     string
	expiresAt time.Time
}

// MemoryStore keeps sessions in process memory. Expired entries are hidden
// on read and removed by Sweep.
type MemoryStore struct {
	mu    sync.RWMutex
	items map[string]memoryEntry
	now   func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		items: make(map[string]memoryEntry),
		now:   time.Now,
	}
}

func (s *MemoryStore) Put(_ context.Context, subjectID, token string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items[Key(subjectID)] = memoryEntry{token: token, expiresAt: s.now().Add(ttl)}
	return nil
}

func (s *MemoryStore) Get(_ context.Context, subjectID string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.items[Key(subjectID)]
	if !ok || !s.now().Before(e.expiresAt) {
		return "", common.ErrorNotFound
	}
	return e.token, nil
}

func (s *MemoryStore) Delete(_ context.Context, subjectID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.items, Key(subjectID))
	return nil
}

func (s *MemoryStore) Ping(context.Context) error { return nil }

// Sweep removes expired entries and returns how many were dropped.
func (s *MemoryStore) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	n := 0
	for k, e := range s.items {
		if !now.Before(e.expiresAt) {
			delete(s.items, k)
			n++
		}
	}
	return n
}

// RunSweeper calls Sweep every interval until ctx is done.
func (s *MemoryStore) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep()
		}
	}
}
