package consent

import (
	"context"
	"sync"
)

// InMemoryRecordStore keeps consent records in a map. Suitable for tests and
// single-instance deployments without Redis.
type InMemoryRecordStore struct {
	mu      sync.RWMutex
	records map[string]StoredRecord
}

func NewInMemoryRecordStore() *InMemoryRecordStore {
	return &InMemoryRecordStore{records: make(map[string]StoredRecord)}
}

func (s *InMemoryRecordStore) Get(_ context.Context, deviceID string) (StoredRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.records[deviceID]
	return record, ok, nil
}

func (s *InMemoryRecordStore) Put(_ context.Context, deviceID string, record StoredRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[deviceID] = record
	return nil
}

func (s *InMemoryRecordStore) Delete(_ context.Context, deviceID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, deviceID)
	return nil
}
