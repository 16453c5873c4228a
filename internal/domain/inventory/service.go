// Package inventory tracks on-hand stock per drug. The Ledger is the single
// writer of quantities: dispensing and replenishment go through it, per-key
// serialization keeps quantities from underflowing, and every successful
// dispense that lands at or below the reorder level emits a best-effort
// procurement signal.
package inventory

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// ProcurementSink receives reorder notifications. Best-effort: failures are
// logged and never fail the dispense that triggered them.
type ProcurementSink interface {
	OnReorderTriggered(ctx context.Context, drugKey string, currentQty, reorderLevel int)
}

// NopProcurementSink discards reorder signals.
type NopProcurementSink struct{}

func (NopProcurementSink) OnReorderTriggered(context.Context, string, int, int) {}

// Default expiry-scan horizons.
const (
	DefaultExpiryHorizonDays      = 7
	DefaultHighPriorityExpiryDays = 2
	defaultStockoutReorderDays    = 3
	defaultStockoutWarnDays       = 7
)

type Ledger struct {
	store       Store
	procurement ProcurementSink
	log         zerolog.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewLedger(store Store, procurement ProcurementSink, log zerolog.Logger) *Ledger {
	if procurement == nil {
		procurement = NopProcurementSink{}
	}
	return &Ledger{
		store:       store,
		procurement: procurement,
		log:         log,
		locks:       make(map[string]*sync.Mutex),
	}
}

// keyLock returns the mutex serializing mutations for one drug key.
// Different keys mutate fully in parallel.
func (l *Ledger) keyLock(key string) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	m, ok := l.locks[key]
	if !ok {
		m = &sync.Mutex{}
		l.locks[key] = m
	}
	return m
}

// CheckAvailability is a pure read; it never mutates stock.
func (l *Ledger) CheckAvailability(ctx context.Context, drugKey string, quantity int) (Availability, error) {
	av := Availability{DrugKey: drugKey, Requested: quantity}
	item, err := l.store.Get(ctx, drugKey)
	if err == ErrItemNotFound {
		return av, nil
	}
	if err != nil {
		return av, err
	}
	av.Available = item.QuantityOnHand
	av.Sufficient = item.QuantityOnHand >= quantity
	return av, nil
}

// Dispense atomically subtracts quantity from one drug's stock. A lost
// guarded-update race (ErrConflict) is retried once; a second failure
// surfaces as ErrInsufficientStock since the stock may legitimately be gone.
func (l *Ledger) Dispense(ctx context.Context, drugKey string, quantity int) (int, error) {
	key := normalizeKey(drugKey)
	lock := l.keyLock(key)
	lock.Lock()
	defer lock.Unlock()
	return l.dispenseLocked(ctx, key, quantity)
}

func (l *Ledger) dispenseLocked(ctx context.Context, key string, quantity int) (int, error) {
	remaining, err := l.store.Decrement(ctx, key, quantity)
	if errors.Is(err, ErrConflict) {
		remaining, err = l.store.Decrement(ctx, key, quantity)
		if errors.Is(err, ErrConflict) {
			return remaining, ErrInsufficientStock
		}
	}
	if err != nil {
		return remaining, err
	}
	l.maybeSignalReorder(ctx, key, remaining)
	return remaining, nil
}

func (l *Ledger) maybeSignalReorder(ctx context.Context, key string, remaining int) {
	item, err := l.store.Get(ctx, key)
	if err != nil {
		return
	}
	if remaining <= item.ReorderLevel {
		l.log.Info().Str("drug", key).Int("remaining", remaining).
			Int("reorder_level", item.ReorderLevel).Msg("reorder threshold reached")
		l.procurement.OnReorderTriggered(ctx, key, remaining, item.ReorderLevel)
	}
}

// DispenseAll commits every line or none. Keys are locked in sorted order,
// availability is verified up front, and a mid-flight failure compensates
// the decrements already applied.
func (l *Ledger) DispenseAll(ctx context.Context, lines []Line) error {
	keys := make([]string, 0, len(lines))
	seen := make(map[string]bool, len(lines))
	for _, line := range lines {
		key := normalizeKey(line.DrugKey)
		if !seen[key] {
			seen[key] = true
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	for _, key := range keys {
		lock := l.keyLock(key)
		lock.Lock()
		defer lock.Unlock()
	}

	for _, line := range lines {
		av, err := l.CheckAvailability(ctx, line.DrugKey, line.Quantity)
		if err != nil {
			return err
		}
		if !av.Sufficient {
			return ErrInsufficientStock
		}
	}

	applied := make([]Line, 0, len(lines))
	for _, line := range lines {
		if _, err := l.store.Decrement(ctx, normalizeKey(line.DrugKey), line.Quantity); err != nil {
			l.rollback(ctx, applied)
			if errors.Is(err, ErrConflict) {
				return ErrInsufficientStock
			}
			return err
		}
		applied = append(applied, line)
	}

	for _, line := range lines {
		item, err := l.store.Get(ctx, line.DrugKey)
		if err != nil {
			continue
		}
		if item.QuantityOnHand <= item.ReorderLevel {
			l.procurement.OnReorderTriggered(ctx, item.DrugKey, item.QuantityOnHand, item.ReorderLevel)
		}
	}
	return nil
}

func (l *Ledger) rollback(ctx context.Context, applied []Line) {
	for _, line := range applied {
		if _, err := l.store.Increment(ctx, normalizeKey(line.DrugKey), line.Quantity); err != nil {
			l.log.Error().Err(err).Str("drug", line.DrugKey).Int("quantity", line.Quantity).
				Msg("failed to roll back partial dispense")
		}
	}
}

// Replenish adds stock, used by reorder fulfillment.
func (l *Ledger) Replenish(ctx context.Context, drugKey string, quantity int) (int, error) {
	key := normalizeKey(drugKey)
	lock := l.keyLock(key)
	lock.Lock()
	defer lock.Unlock()
	return l.store.Increment(ctx, key, quantity)
}

// Get returns the inventory record for one drug.
func (l *Ledger) Get(ctx context.Context, drugKey string) (*Item, error) {
	return l.store.Get(ctx, drugKey)
}

// List returns all inventory records.
func (l *Ledger) List(ctx context.Context) ([]*Item, error) {
	return l.store.List(ctx)
}

// Upsert creates or replaces an inventory record. Administrative path, not
// part of the dispense flow.
func (l *Ledger) Upsert(ctx context.Context, item *Item) error {
	return l.store.Put(ctx, item)
}

// ExpiryAlerts scans for items expiring within the given horizons. A zero
// horizon selects the default.
func (l *Ledger) ExpiryAlerts(ctx context.Context, now time.Time, soonDays, highDays int) ([]ExpiryAlert, error) {
	if soonDays <= 0 {
		soonDays = DefaultExpiryHorizonDays
	}
	if highDays <= 0 {
		highDays = DefaultHighPriorityExpiryDays
	}
	items, err := l.store.List(ctx)
	if err != nil {
		return nil, err
	}
	var alerts []ExpiryAlert
	for _, item := range items {
		if item.ExpirationDate.IsZero() {
			continue
		}
		days := int(item.ExpirationDate.Sub(now).Hours() / 24)
		if days > soonDays {
			continue
		}
		priority := ExpiringSoon
		if days <= highDays {
			priority = HighPriorityExpiry
		}
		alerts = append(alerts, ExpiryAlert{
			DrugKey:        item.DrugKey,
			QuantityOnHand: item.QuantityOnHand,
			ExpiresInDays:  days,
			Priority:       priority,
		})
	}
	return alerts, nil
}

// Forecast projects days until stockout from each item's average daily use
// and recommends reorders.
func (l *Ledger) Forecast(ctx context.Context) ([]ForecastEntry, error) {
	items, err := l.store.List(ctx)
	if err != nil {
		return nil, err
	}
	var entries []ForecastEntry
	for _, item := range items {
		entry := ForecastEntry{
			DrugKey:           item.DrugKey,
			QuantityOnHand:    item.QuantityOnHand,
			PredictedDailyUse: item.AvgDailyUse,
			Priority:          "low",
		}
		if item.AvgDailyUse > 0 {
			entry.DaysUntilStockout = int(float64(item.QuantityOnHand) / item.AvgDailyUse)
		}
		switch {
		case item.AvgDailyUse > 0 && entry.DaysUntilStockout <= defaultStockoutReorderDays,
			item.QuantityOnHand <= item.ReorderLevel:
			entry.Priority = "high"
			entry.ReorderRecommended = true
		case item.AvgDailyUse > 0 && entry.DaysUntilStockout <= defaultStockoutWarnDays:
			entry.Priority = "medium"
			entry.ReorderRecommended = true
		}
		entries = append(entries, entry)
	}
	return entries, nil
}
