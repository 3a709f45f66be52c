package abtest

import (
	"context"
	"sync"
)

// Store persists test documents. Active and completed tests live in
// separate keyspaces; a conclusion moves the document between them.
type Store interface {
	SaveActive(ctx context.Context, test *Test) error
	SaveCompleted(ctx context.Context, test *Test) error
	DeleteActive(ctx context.Context, name string) error
	LoadActive(ctx context.Context) ([]*Test, error)
	LoadCompleted(ctx context.Context) ([]*Test, error)
	AppendHistory(ctx context.Context, entry HistoryEntry) error
	History(ctx context.Context, limit int) ([]HistoryEntry, error)
}

// MemoryStore is an in-process Store for tests and no-database runs
type MemoryStore struct {
	mu        sync.Mutex
	active    map[string]*Test
	completed map[string]*Test
	history   []HistoryEntry
}

// NewMemoryStore creates an empty MemoryStore
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		active:    make(map[string]*Test),
		completed: make(map[string]*Test),
	}
}

func (s *MemoryStore) SaveActive(_ context.Context, test *Test) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active[test.TestName] = test
	return nil
}

func (s *MemoryStore) SaveCompleted(_ context.Context, test *Test) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.completed[test.TestName] = test
	return nil
}

func (s *MemoryStore) DeleteActive(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.active, name)
	return nil
}

func (s *MemoryStore) LoadActive(_ context.Context) ([]*Test, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Test, 0, len(s.active))
	for _, t := range s.active {
		out = append(out, t)
	}
	return out, nil
}

func (s *MemoryStore) LoadCompleted(_ context.Context) ([]*Test, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Test, 0, len(s.completed))
	for _, t := range s.completed {
		out = append(out, t)
	}
	return out, nil
}

func (s *MemoryStore) AppendHistory(_ context.Context, entry HistoryEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = append(s.history, entry)
	return nil
}

func (s *MemoryStore) History(_ context.Context, limit int) ([]HistoryEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entries := s.history
	if limit > 0 && len(entries) > limit {
		entries = entries[len(entries)-limit:]
	}
	out := make([]HistoryEntry, len(entries))
	copy(out, entries)
	return out, nil
}
