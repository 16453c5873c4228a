package audit

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestServiceRecordsEvents(t *testing.T) {
	var buf bytes.Buffer
	log := zerolog.New(&buf)
	s := NewService(log)

	s.Record(Event{Type: EventOrderVerified, OrderID: "order-1"})
	s.Record(Event{Type: EventOrderDispensed, OrderID: "order-1", Actor: "rph-7"})
	s.Shutdown()

	out := buf.String()
	if !strings.Contains(out, EventOrderVerified) {
		t.Errorf("missing verified event in output: %s", out)
	}
	if !strings.Contains(out, EventOrderDispensed) {
		t.Errorf("missing dispensed event in output: %s", out)
	}
	if !strings.Contains(out, "rph-7") {
		t.Errorf("missing actor in output: %s", out)
	}
}

func TestRecordStampsTime(t *testing.T) {
	var buf bytes.Buffer
	s := NewService(zerolog.New(&buf))

	s.Record(Event{Type: EventReorder})
	s.Shutdown()

	if !strings.Contains(buf.String(), `"at"`) {
		t.Fatalf("expected timestamp field, got: %s", buf.String())
	}
}

func TestRecordNeverBlocks(t *testing.T) {
	// Unstarted worker cannot drain; overfilling must drop, not block.
	s := &Service{
		log:     zerolog.Nop(),
		entries: make(chan Event, 1),
		done:    make(chan struct{}),
	}
	done := make(chan struct{})
	go func() {
		for i := 0; i < 10; i++ {
			s.Record(Event{Type: EventOrderVerified})
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Record blocked on full buffer")
	}
}

func TestRecordAfterShutdownDropsEntry(t *testing.T) {
	var buf bytes.Buffer
	s := NewService(zerolog.New(&buf))
	s.Shutdown()

	// Must drop without panicking on the closed channel.
	s.Record(Event{Type: EventOrderVerified, OrderID: "order-late"})

	if strings.Contains(buf.String(), "order-late") {
		t.Fatalf("late entry must not be persisted: %s", buf.String())
	}
	if !strings.Contains(buf.String(), "dropping entry") {
		t.Fatalf("expected drop warning, got: %s", buf.String())
	}
}

func TestShutdownIsIdempotent(t *testing.T) {
	s := NewService(zerolog.Nop())
	s.Shutdown()
	s.Shutdown()
}
