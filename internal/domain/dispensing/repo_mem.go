package dispensing

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// memOrderRepo is an in-memory OrderRepository. Used by tests and dev mode
// when no database is configured.
type memOrderRepo struct {
	mu     sync.RWMutex
	orders map[uuid.UUID]*Order
}

func NewMemOrderRepo() OrderRepository {
	return &memOrderRepo{orders: make(map[uuid.UUID]*Order)}
}

func (r *memOrderRepo) Get(_ context.Context, id uuid.UUID) (*Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	o, ok := r.orders[id]
	if !ok {
		return nil, ErrOrderNotFound
	}
	return copyOrder(o), nil
}

func (r *memOrderRepo) List(_ context.Context, limit, offset int) ([]*Order, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	all := make([]*Order, 0, len(r.orders))
	for _, o := range r.orders {
		all = append(all, copyOrder(o))
	}
	sort.Slice(all, func(i, j int) bool { return all[i].SubmittedAt.Before(all[j].SubmittedAt) })
	total := len(all)
	if offset >= total {
		return nil, total, nil
	}
	end := offset + limit
	if limit <= 0 || end > total {
		end = total
	}
	return all[offset:end], total, nil
}

func (r *memOrderRepo) Create(_ context.Context, order *Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.orders[order.ID] = copyOrder(order)
	return nil
}

func (r *memOrderRepo) Update(_ context.Context, order *Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.orders[order.ID]; !ok {
		return ErrOrderNotFound
	}
	r.orders[order.ID] = copyOrder(order)
	return nil
}

func copyOrder(o *Order) *Order {
	cp := *o
	cp.Lines = append([]OrderLine(nil), o.Lines...)
	if o.AssignedTo != nil {
		assigned := *o.AssignedTo
		cp.AssignedTo = &assigned
	}
	return &cp
}
