package subscription

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"bullishbrief/pkg/requestcontext"
)

// InMemoryStore keeps subscriptions in a slice guarded by a mutex. Used in
// tests and when no database is configured.
type InMemoryStore struct {
	mu   sync.RWMutex
	rows []Subscription
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

func (s *InMemoryStore) Exists(_ context.Context, email string, scope Scope) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, row := range s.rows {
		if row.Email == email && row.Scope() == scope {
			return true, nil
		}
	}
	return false, nil
}

func (s *InMemoryStore) Insert(ctx context.Context, sub *Subscription) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sub.ID = uuid.New()
	sub.CreatedAt = requestcontext.Now(ctx)
	s.rows = append(s.rows, *sub)
	return nil
}

// All returns a copy of every stored row, oldest first.
func (s *InMemoryStore) All() []Subscription {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Subscription, len(s.rows))
	copy(out, s.rows)
	return out
}
