package inventory

import (
	"context"
	"errors"
)

// ErrItemNotFound is returned when no inventory record exists for a key.
var ErrItemNotFound = errors.New("inventory item not found")

// ErrInsufficientStock is an expected business outcome, not a fault: the
// requested quantity exceeds what is on hand.
var ErrInsufficientStock = errors.New("insufficient stock")

// ErrConflict signals a concurrent modification lost a guarded update race.
// The ledger retries the sequence once before surfacing ErrInsufficientStock.
var ErrConflict = errors.New("concurrent inventory modification")

// Store is the persistence interface behind the Ledger. Decrement and
// Increment are the only quantity mutators and must be atomic per key.
type Store interface {
	Get(ctx context.Context, key string) (*Item, error)
	List(ctx context.Context) ([]*Item, error)
	Put(ctx context.Context, item *Item) error
	// Decrement subtracts qty if quantity_on_hand >= qty, returning the new
	// quantity. Fails with ErrInsufficientStock otherwise; never goes
	// negative.
	Decrement(ctx context.Context, key string, qty int) (int, error)
	// Increment adds qty, returning the new quantity.
	Increment(ctx context.Context, key string, qty int) (int, error)
}
