// Package drugref is the canonical drug reference store: drug identity,
// dosage ranges, pairwise interaction rules, and controlled-substance
// classification. It replaces the per-module drug tables the legacy
// services each carried their own copy of. Read-only after seeding.
package drugref

import "context"

// Store is the read interface the verification and dispensing components
// consume.
type Store interface {
	LookupDrug(ctx context.Context, key string) (*Drug, error)
	// LookupInteraction resolves the rule for an unordered drug pair.
	// Returns ErrRuleNotFound when no rule is known.
	LookupInteraction(ctx context.Context, a, b string) (*InteractionRule, error)
	IsControlled(ctx context.Context, key string) (ControlledStatus, error)
}

type Service struct {
	drugs        DrugRepository
	interactions InteractionRepository
}

var _ Store = (*Service)(nil)

func NewService(drugs DrugRepository, interactions InteractionRepository) *Service {
	return &Service{drugs: drugs, interactions: interactions}
}

func (s *Service) LookupDrug(ctx context.Context, key string) (*Drug, error) {
	return s.drugs.GetByKey(ctx, NormalizeKey(key))
}

// LookupInteraction checks the pair in canonical order; the repositories
// already store pairs normalized, so a single lookup covers both directions.
func (s *Service) LookupInteraction(ctx context.Context, a, b string) (*InteractionRule, error) {
	return s.interactions.GetByPair(ctx, a, b)
}

// IsControlled reports the DEA classification for a drug. Unknown drugs are
// reported as not controlled: absence of reference data is not a violation.
func (s *Service) IsControlled(ctx context.Context, key string) (ControlledStatus, error) {
	d, err := s.drugs.GetByKey(ctx, NormalizeKey(key))
	if err == ErrDrugNotFound {
		return ControlledStatus{}, nil
	}
	if err != nil {
		return ControlledStatus{}, err
	}
	if !d.Controlled {
		return ControlledStatus{}, nil
	}
	return ControlledStatus{IsControlled: true, Schedule: d.Schedule}, nil
}

func (s *Service) ListDrugs(ctx context.Context, limit, offset int) ([]*Drug, int, error) {
	return s.drugs.List(ctx, limit, offset)
}

func (s *Service) ListInteractions(ctx context.Context, limit, offset int) ([]*InteractionRule, int, error) {
	return s.interactions.List(ctx, limit, offset)
}
