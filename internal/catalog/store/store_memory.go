package store

import (
	"context"
	"sync"

	"charitydrive/internal/catalog/models"
	id "charitydrive/pkg/domain"
	"charitydrive/pkg/platform/sentinel"
)

// InMemoryStore keeps categories and items in insertion order.
type InMemoryStore struct {
	mu         sync.RWMutex
	categories []string
	items      []*models.Item
	index      map[string]int
	ownership  models.Ownership
}

// NewInMemory creates a catalog owned by owner.
func NewInMemory(owner id.AccountID) *InMemoryStore {
	return &InMemoryStore{
		index:     make(map[string]int),
		ownership: models.Ownership{Owner: owner},
	}
}

func (s *InMemoryStore) hasCategory(name string) bool {
	for _, c := range s.categories {
		if c == name {
			return true
		}
	}
	return false
}

func (s *InMemoryStore) AddCategory(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.hasCategory(name) {
		return sentinel.ErrConflict
	}
	s.categories = append(s.categories, name)
	return nil
}

func (s *InMemoryStore) ListCategories(_ context.Context) ([]models.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Category, len(s.categories))
	for i, c := range s.categories {
		out[i] = models.Category{Name: c}
	}
	return out, nil
}

func (s *InMemoryStore) AddItem(_ context.Context, item models.Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.hasCategory(item.Category) {
		return sentinel.ErrNotFound
	}
	if _, ok := s.index[item.Name]; ok {
		return sentinel.ErrConflict
	}
	s.index[item.Name] = len(s.items)
	s.items = append(s.items, &item)
	return nil
}

func (s *InMemoryStore) UpdateItem(_ context.Context, name string, update models.ItemUpdate) (*models.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	pos, ok := s.index[name]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if update.NewName != "" && update.NewName != name {
		if _, taken := s.index[update.NewName]; taken {
			return nil, sentinel.ErrConflict
		}
	}

	item := s.items[pos]
	item.Price = update.Price
	item.Valid = update.Valid
	if update.NewName != "" && update.NewName != name {
		delete(s.index, name)
		item.Name = update.NewName
		s.index[item.Name] = pos
	}
	updated := *item
	return &updated, nil
}

func (s *InMemoryStore) GetItem(_ context.Context, name string) (*models.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	pos, ok := s.index[name]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	item := *s.items[pos]
	return &item, nil
}

func (s *InMemoryStore) ListItems(_ context.Context) ([]models.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Item, len(s.items))
	for i, item := range s.items {
		out[i] = *item
	}
	return out, nil
}

func (s *InMemoryStore) GetOwnership(_ context.Context) (models.Ownership, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ownership, nil
}

// TransferOwnership moves ownership to newOwner if from is still the owner.
func (s *InMemoryStore) TransferOwnership(_ context.Context, from, newOwner id.AccountID) (models.Ownership, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ownership.Owner != from {
		return models.Ownership{}, sentinel.ErrInvalidState
	}
	s.ownership = models.Ownership{
		Owner:         newOwner,
		PreviousOwner: from,
		Transferred:   true,
	}
	return s.ownership, nil
}
