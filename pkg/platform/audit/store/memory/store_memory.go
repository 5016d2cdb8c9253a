package memory

import (
	"context"
	"sync"
	"time"

	id "arho/pkg/domain"
	audit "arho/pkg/platform/audit"
)

// InMemoryStore keeps events in append order. Used when no database is
// configured and by service tests.
type InMemoryStore struct {
	mu     sync.RWMutex
	events []audit.Event
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

// Append stores event with its category derived from the action, matching
// the postgres store.
func (s *InMemoryStore) Append(_ context.Context, event audit.Event) error {
	event.Category = event.Action.Category()
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *InMemoryStore) ListByEntity(_ context.Context, entityID id.ID) ([]audit.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []audit.Event
	for _, e := range s.events {
		if e.EntityID == entityID || e.TargetID == entityID {
			out = append(out, e)
		}
	}
	return out, nil
}

// ListAll returns every event in append order.
func (s *InMemoryStore) ListAll(_ context.Context) ([]audit.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]audit.Event{}, s.events...), nil
}
