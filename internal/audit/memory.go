package audit

import (
	"context"
	"sync"
)

// MemoryStore is an in-memory RecordStore for tests and for deployments
// that opt out of durable auditing.
type MemoryStore struct {
	mu      sync.Mutex
	records map[string]*Record
	order   []string
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]*Record)}
}

func (s *MemoryStore) Create(_ context.Context, rec *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *rec
	s.records[rec.ID] = &cp
	s.order = append(s.order, rec.ID)
	return nil
}

func (s *MemoryStore) Complete(_ context.Context, id string, comp Completion) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[id]
	if !ok {
		return nil // record gone, completion is a no-op
	}
	rec.Status = comp.Status
	completedAt := comp.CompletedAt
	rec.CompletedAt = &completedAt
	rec.DurationMs = comp.DurationMs
	rec.Output = comp.Output
	rec.Error = comp.Error
	rec.ErrorType = comp.ErrorType
	return nil
}

// Get returns a copy of the record with the given id, or nil.
func (s *MemoryStore) Get(id string) *Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[id]
	if !ok {
		return nil
	}
	cp := *rec
	return &cp
}

// Len returns the number of records created.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.order)
}
