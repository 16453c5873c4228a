package drugref

import (
	"context"
	"sort"
	"sync"
)

// memDrugRepo is an in-memory DrugRepository. Used by tests, the seed
// command, and dev mode when no database is configured.
type memDrugRepo struct {
	mu    sync.RWMutex
	drugs map[string]*Drug
}

func NewMemDrugRepo() DrugRepository {
	return &memDrugRepo{drugs: make(map[string]*Drug)}
}

func (r *memDrugRepo) GetByKey(_ context.Context, key string) (*Drug, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.drugs[NormalizeKey(key)]
	if !ok {
		return nil, ErrDrugNotFound
	}
	cp := *d
	return &cp, nil
}

func (r *memDrugRepo) List(_ context.Context, limit, offset int) ([]*Drug, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	keys := make([]string, 0, len(r.drugs))
	for k := range r.drugs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	total := len(keys)
	if offset >= total {
		return nil, total, nil
	}
	end := offset + limit
	if limit <= 0 || end > total {
		end = total
	}
	out := make([]*Drug, 0, end-offset)
	for _, k := range keys[offset:end] {
		cp := *r.drugs[k]
		out = append(out, &cp)
	}
	return out, total, nil
}

func (r *memDrugRepo) Upsert(_ context.Context, d *Drug) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	d.Key = NormalizeKey(d.Key)
	cp := *d
	r.drugs[cp.Key] = &cp
	return nil
}

// memInteractionRepo is an in-memory InteractionRepository keyed by the
// canonical (lexicographic) pair.
type memInteractionRepo struct {
	mu    sync.RWMutex
	rules map[[2]string]*InteractionRule
}

func NewMemInteractionRepo() InteractionRepository {
	return &memInteractionRepo{rules: make(map[[2]string]*InteractionRule)}
}

func (r *memInteractionRepo) GetByPair(_ context.Context, a, b string) (*InteractionRule, error) {
	ka, kb := PairKey(a, b)
	r.mu.RLock()
	defer r.mu.RUnlock()
	rule, ok := r.rules[[2]string{ka, kb}]
	if !ok {
		return nil, ErrRuleNotFound
	}
	cp := *rule
	return &cp, nil
}

func (r *memInteractionRepo) List(_ context.Context, limit, offset int) ([]*InteractionRule, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	all := make([]*InteractionRule, 0, len(r.rules))
	for _, rule := range r.rules {
		cp := *rule
		all = append(all, &cp)
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].DrugA != all[j].DrugA {
			return all[i].DrugA < all[j].DrugA
		}
		return all[i].DrugB < all[j].DrugB
	})
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

func (r *memInteractionRepo) Upsert(_ context.Context, rule *InteractionRule) error {
	ka, kb := PairKey(rule.DrugA, rule.DrugB)
	rule.DrugA, rule.DrugB = ka, kb
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *rule
	r.rules[[2]string{ka, kb}] = &cp
	return nil
}
