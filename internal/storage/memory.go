package storage

import (
	"context"
	"sort"
	"sync"
)

type memoryStore struct {
	mu    sync.Mutex
	audit []AuditEntry
	subs  map[int64]struct{}
}

// NewMemory returns a Store that keeps everything in process memory.
func NewMemory() Store {
	return &memoryStore{subs: map[int64]struct{}{}}
}

func (s *memoryStore) AppendAudit(_ context.Context, e AuditEntry) error {
	s.mu.Lock()
	s.audit = append(s.audit, e)
	s.mu.Unlock()
	return nil
}

func (s *memoryStore) AddSubscriber(_ context.Context, chatID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return addSub(s.subs, chatID), nil
}

func (s *memoryStore) RemoveSubscriber(_ context.Context, chatID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return removeSub(s.subs, chatID), nil
}

func (s *memoryStore) Subscribers(context.Context) ([]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return sortedIDs(s.subs), nil
}

// Audit returns a copy of the recorded entries. Used by tests.
func (s *memoryStore) Audit() []AuditEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]AuditEntry(nil), s.audit...)
}

func (s *memoryStore) Close() error { return nil }

func addSub(m map[int64]struct{}, id int64) bool {
	if _, ok := m[id]; ok {
		return false
	}
	m[id] = struct{}{}
	return true
}

func removeSub(m map[int64]struct{}, id int64) bool {
	if _, ok := m[id]; !ok {
		return false
	}
	delete(m, id)
	return true
}

func sortedIDs(m map[int64]struct{}) []int64 {
	out := make([]int64, 0, len(m))
	for id := range m {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
