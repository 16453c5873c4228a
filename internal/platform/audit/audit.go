// Package audit records verification and dispense events. Recording is
// fire-and-forget: entries are buffered and persisted by a background
// worker, and a full buffer drops the entry rather than blocking or failing
// the clinical decision that produced it.
package audit

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Event types recorded by the engine.
const (
	EventOrderVerified  = "order.verified"
	EventOrderDispensed = "order.dispensed"
	EventOrderCancelled = "order.cancelled"
	EventReorder        = "inventory.reorder"
)

// Event is one audit entry.
type Event struct {
	Type    string         `json:"type"`
	OrderID string         `json:"order_id,omitempty"`
	Actor   string         `json:"actor,omitempty"`
	Detail  map[string]any `json:"detail,omitempty"`
	At      time.Time      `json:"at"`
}

// Sink accepts audit events. Implementations must never block the caller.
type Sink interface {
	Record(event Event)
}

// Nop discards events.
type Nop struct{}

func (Nop) Record(Event) {}

const bufferSize = 10_000

// Service buffers events and writes them on a background worker.
type Service struct {
	log     zerolog.Logger
	entries chan Event
	done    chan struct{}

	mu     sync.Mutex
	closed bool
}

func NewService(log zerolog.Logger) *Service {
	s := &Service{
		log:     log,
		entries: make(chan Event, bufferSize),
		done:    make(chan struct{}),
	}
	go s.worker()
	return s
}

// Record enqueues an event. A full buffer drops the event with a warning, and
// an event recorded after Shutdown is dropped rather than sent on the closed
// channel.
func (s *Service) Record(event Event) {
	if event.At.IsZero() {
		event.At = time.Now().UTC()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		s.log.Warn().Str("type", event.Type).Str("order_id", event.OrderID).
			Msg("audit service shut down, dropping entry")
		return
	}
	select {
	case s.entries <- event:
	default:
		s.log.Warn().Str("type", event.Type).Str("order_id", event.OrderID).
			Msg("audit buffer full, dropping entry")
	}
}

// Shutdown drains the buffer, waiting up to ten seconds. Safe to call more
// than once.
func (s *Service) Shutdown() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	close(s.entries)
	s.mu.Unlock()
	select {
	case <-s.done:
	case <-time.After(10 * time.Second):
		s.log.Warn().Msg("audit shutdown timed out; some entries may be lost")
	}
}

func (s *Service) worker() {
	defer close(s.done)
	for event := range s.entries {
		s.log.Info().
			Str("audit_type", event.Type).
			Str("order_id", event.OrderID).
			Str("actor", event.Actor).
			Time("at", event.At).
			Interface("detail", event.Detail).
			Msg("audit")
	}
}
