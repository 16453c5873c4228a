package events

import (
	"context"
	"time"

	"github.com/rxguard/rxguard/internal/platform/audit"
	"github.com/rxguard/rxguard/internal/platform/metrics"
)

// ReorderEvent is the payload published when stock hits the reorder level.
type ReorderEvent struct {
	DrugKey      string    `json:"drug_key"`
	CurrentQty   int       `json:"current_qty"`
	ReorderLevel int       `json:"reorder_level"`
	At           time.Time `json:"at"`
}

// ReorderNotifier forwards inventory reorder signals to the event stream,
// the audit trail, and metrics. Implements the ledger's procurement sink.
type ReorderNotifier struct {
	publisher Publisher
	audit     audit.Sink
	metrics   *metrics.Metrics
}

func NewReorderNotifier(publisher Publisher, sink audit.Sink, m *metrics.Metrics) *ReorderNotifier {
	if sink == nil {
		sink = audit.Nop{}
	}
	return &ReorderNotifier{publisher: publisher, audit: sink, metrics: m}
}

func (n *ReorderNotifier) OnReorderTriggered(ctx context.Context, drugKey string, currentQty, reorderLevel int) {
	n.metrics.ReorderTriggered()
	n.audit.Record(audit.Event{
		Type: audit.EventReorder,
		Detail: map[string]any{
			"drug_key":      drugKey,
			"current_qty":   currentQty,
			"reorder_level": reorderLevel,
		},
	})
	n.publisher.Publish(ctx, TopicReorder, drugKey, ReorderEvent{
		DrugKey:      drugKey,
		CurrentQty:   currentQty,
		ReorderLevel: reorderLevel,
		At:           time.Now().UTC(),
	})
}
