package dispensing

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/rxguard/rxguard/internal/domain/drugref"
)

var (
	ErrOrderNotFound     = errors.New("order not found")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrUnknownQueue      = errors.New("unknown work queue")
)

func normalizeKey(key string) string { return drugref.NormalizeKey(key) }

// OrderRepository persists orders.
type OrderRepository interface {
	Get(ctx context.Context, id uuid.UUID) (*Order, error)
	List(ctx context.Context, limit, offset int) ([]*Order, int, error)
	Create(ctx context.Context, order *Order) error
	Update(ctx context.Context, order *Order) error
}
