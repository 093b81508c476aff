// Package store persists the marketplace aggregate.
package store

import (
	"context"
	"sync"

	"charitydrive/internal/marketplace/models"
	id "charitydrive/pkg/domain"
)

// InMemoryStore serializes mutations with a mutex. Execute hands the
// callback a clone and swaps it in only on success, so readers never see a
// half-applied change.
type InMemoryStore struct {
	mu    sync.RWMutex
	state *models.State
}

func NewInMemory(operator, account id.AccountID) *InMemoryStore {
	return &InMemoryStore{state: models.NewState(operator, account)}
}

func (s *InMemoryStore) Load(_ context.Context) (*models.State, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Clone(), nil
}

func (s *InMemoryStore) Execute(ctx context.Context, fn func(txCtx context.Context, st *models.State) error) (*models.State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	draft := s.state.Clone()
	if err := fn(ctx, draft); err != nil {
		return nil, err
	}
	s.state = draft
	return draft.Clone(), nil
}
