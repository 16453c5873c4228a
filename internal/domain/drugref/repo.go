package drugref

import (
	"context"
	"errors"
)

// ErrDrugNotFound is returned when no drug exists for a key.
var ErrDrugNotFound = errors.New("drug not found")

// ErrRuleNotFound is returned when no interaction rule exists for a pair.
var ErrRuleNotFound = errors.New("interaction rule not found")

type DrugRepository interface {
	GetByKey(ctx context.Context, key string) (*Drug, error)
	List(ctx context.Context, limit, offset int) ([]*Drug, int, error)
	Upsert(ctx context.Context, d *Drug) error
}

type InteractionRepository interface {
	// GetByPair resolves the rule for an unordered pair of normalized keys.
	GetByPair(ctx context.Context, a, b string) (*InteractionRule, error)
	List(ctx context.Context, limit, offset int) ([]*InteractionRule, int, error)
	Upsert(ctx context.Context, r *InteractionRule) error
}
