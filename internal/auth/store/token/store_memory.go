package token

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"inkgate/internal/auth/models"
)

// InMemoryTokenStore keeps credential records in process memory.
type InMemoryTokenStore struct {
	mu      sync.RWMutex
	records map[uuid.UUID]*models.Token
}

func New() *InMemoryTokenStore {
	return &InMemoryTokenStore{
		records: make(map[uuid.UUID]*models.Token),
	}
}

// Save upserts a credential record.
func (s *InMemoryTokenStore) Save(_ context.Context, t *models.Token) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *t
	s.records[t.ID] = &cp
	return nil
}

// FindByUser returns every record for the user, live or not.
func (s *InMemoryTokenStore) FindByUser(_ context.Context, userID uuid.UUID) ([]*models.Token, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.Token
	for _, t := range s.records {
		if t.UserID == userID {
			cp := *t
			out = append(out, &cp)
		}
	}
	return out, nil
}

// FindByValue returns the record holding the exact signed value.
func (s *InMemoryTokenStore) FindByValue(_ context.Context, value string) (*models.Token, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, t := range s.records {
		if t.Value == value {
			cp := *t
			return &cp, nil
		}
	}
	return nil, nil
}

// DeleteByUser hard-deletes every record for the user. Used only when a new
// pair is about to replace them.
func (s *InMemoryTokenStore) DeleteByUser(_ context.Context, userID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, t := range s.records {
		if t.UserID == userID {
			delete(s.records, id)
		}
	}
	return nil
}
