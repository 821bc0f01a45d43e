package user

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"

	"inkgate/internal/auth/models"
	"inkgate/internal/auth/store"
)

// InMemoryUserStore keeps users in process memory. It backs tests and
// database-less runs; the Postgres store is the production implementation.
type InMemoryUserStore struct {
	mu      sync.RWMutex
	byID    map[uuid.UUID]*models.User
	byEmail map[string]uuid.UUID
}

func New() *InMemoryUserStore {
	return &InMemoryUserStore{
		byID:    make(map[uuid.UUID]*models.User),
		byEmail: make(map[string]uuid.UUID),
	}
}

// Create inserts a new user. Duplicate emails conflict.
func (s *InMemoryUserStore) Create(_ context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := normalizeEmail(u.Email)
	if _, exists := s.byEmail[key]; exists {
		return ErrDuplicateEmail
	}
	cp := *u
	s.byID[u.ID] = &cp
	s.byEmail[key] = u.ID
	return nil
}

// Save persists lock-state mutations for an existing user.
func (s *InMemoryUserStore) Save(_ context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byID[u.ID]; !exists {
		return store.ErrNotFound
	}
	cp := *u
	s.byID[u.ID] = &cp
	s.byEmail[normalizeEmail(u.Email)] = u.ID
	return nil
}

func (s *InMemoryUserStore) FindByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, exists := s.byID[id]
	if !exists {
		return nil, store.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *InMemoryUserStore) FindByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, exists := s.byEmail[normalizeEmail(email)]
	if !exists {
		return nil, store.ErrNotFound
	}
	cp := *s.byID[id]
	return &cp, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
