// Package denylist stores invalidated credential values. A value on the list
// never validates again, even while its signature and expiry would pass.
// Entries are append-only: nothing here ever deletes one.
package denylist

import (
	"context"
	"sync"
	"time"

	"inkgate/internal/auth/models"
)

// InMemoryDenylist keeps invalidated credential values in process memory.
type InMemoryDenylist struct {
	mu      sync.RWMutex
	entries map[string]models.InvalidatedToken
}

func New() *InMemoryDenylist {
	return &InMemoryDenylist{
		entries: make(map[string]models.InvalidatedToken),
	}
}

// Add records a credential value as permanently invalid. Re-adding an already
// listed value is a no-op.
func (s *InMemoryDenylist) Add(_ context.Context, value string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.entries[value]; !exists {
		s.entries[value] = models.InvalidatedToken{Value: value, InvalidatedAt: at}
	}
	return nil
}

// Contains reports whether the value has been invalidated.
func (s *InMemoryDenylist) Contains(_ context.Context, value string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, exists := s.entries[value]
	return exists, nil
}
