package inventory

import (
	"context"
	"sort"
	"sync"
	"time"
)

// memStore is an in-memory Store. All operations run under one mutex, so
// Decrement's check-and-subtract is atomic.
type memStore struct {
	mu    sync.Mutex
	items map[string]*Item
}

func NewMemStore() Store {
	return &memStore{items: make(map[string]*Item)}
}

// NewSeededMemStore returns a memory store preloaded with the legacy
// starting stock. Used by tests and dev mode.
func NewSeededMemStore(now time.Time) Store {
	s := &memStore{items: make(map[string]*Item)}
	for _, item := range SeedItems(now) {
		cp := *item
		s.items[cp.DrugKey] = &cp
	}
	return s
}

func (s *memStore) Get(_ context.Context, key string) (*Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.items[normalizeKey(key)]
	if !ok {
		return nil, ErrItemNotFound
	}
	cp := *item
	return &cp, nil
}

func (s *memStore) List(_ context.Context) ([]*Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Item, 0, len(s.items))
	for _, item := range s.items {
		cp := *item
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DrugKey < out[j].DrugKey })
	return out, nil
}

func (s *memStore) Put(_ context.Context, item *Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *item
	cp.DrugKey = normalizeKey(cp.DrugKey)
	cp.UpdatedAt = time.Now().UTC()
	s.items[cp.DrugKey] = &cp
	return nil
}

func (s *memStore) Decrement(_ context.Context, key string, qty int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.items[normalizeKey(key)]
	if !ok {
		return 0, ErrItemNotFound
	}
	if item.QuantityOnHand < qty {
		return item.QuantityOnHand, ErrInsufficientStock
	}
	item.QuantityOnHand -= qty
	item.UpdatedAt = time.Now().UTC()
	return item.QuantityOnHand, nil
}

func (s *memStore) Increment(_ context.Context, key string, qty int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.items[normalizeKey(key)]
	if !ok {
		return 0, ErrItemNotFound
	}
	item.QuantityOnHand += qty
	item.UpdatedAt = time.Now().UTC()
	return item.QuantityOnHand, nil
}
