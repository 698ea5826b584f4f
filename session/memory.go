package session

import (
	"context"
	"sync"
)

// MemoryStore is an in-process Store. Two engines sharing one MemoryStore
// see each other's writes, which is how tests model a process restart.
type MemoryStore struct {
	mu   sync.Mutex
	data []byte
	ok   bool
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Load(context.Context) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), s.data...), nil
}

func (s *MemoryStore) Save(_ context.Context, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data = append(s.data[:0], data...)
	s.ok = true
	return nil
}

func (s *MemoryStore) Delete(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data = nil
	s.ok = false
	return nil
}

// Put stores raw bytes without encoding, for seeding corrupt handles.
func (s *MemoryStore) Put(data []byte) {
	_ = s.Save(context.Background(), data)
}
