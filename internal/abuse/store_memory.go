package abuse

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"inkgate/internal/auth/models"
)

// InMemoryStore keeps blocked-IP records in process memory.
type InMemoryStore struct {
	mu      sync.RWMutex
	records map[uuid.UUID]*models.BlockedIP
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		records: make(map[uuid.UUID]*models.BlockedIP),
	}
}

func (s *InMemoryStore) FindByIP(_ context.Context, ip string) ([]*models.BlockedIP, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.BlockedIP
	for _, r := range s.records {
		if r.IP == ip {
			cp := *r
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *InMemoryStore) Save(_ context.Context, record *models.BlockedIP) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *record
	s.records[record.ID] = &cp
	return nil
}
