package dispensing

import (
	"container/heap"
	"sync"
	"time"

	"github.com/google/uuid"
)

// queueEntry is one order waiting in a work queue.
type queueEntry struct {
	OrderID     uuid.UUID
	Priority    Priority
	SubmittedAt time.Time
	AssignedTo  *string
	index       int
}

// entryHeap orders by priority descending, then submission time ascending.
type entryHeap []*queueEntry

func (h entryHeap) Len() int { return len(h) }

func (h entryHeap) Less(i, j int) bool {
	if h[i].Priority != h[j].Priority {
		return h[i].Priority.Before(h[j].Priority)
	}
	return h[i].SubmittedAt.Before(h[j].SubmittedAt)
}

func (h entryHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *entryHeap) Push(x any) {
	e := x.(*queueEntry)
	e.index = len(*h)
	*h = append(*h, e)
}

func (h *entryHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return e
}

// WorkQueue is a mutex-guarded priority queue. Next is atomic: under
// concurrent pharmacist clients the head is handed to exactly one caller.
type WorkQueue struct {
	name string

	mu      sync.Mutex
	entries entryHeap
	byID    map[uuid.UUID]*queueEntry
}

func NewWorkQueue(name string) *WorkQueue {
	return &WorkQueue{name: name, byID: make(map[uuid.UUID]*queueEntry)}
}

func (q *WorkQueue) Name() string { return q.name }

// Enqueue adds an order; re-enqueueing an already queued order is a no-op.
func (q *WorkQueue) Enqueue(order *Order) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if _, ok := q.byID[order.ID]; ok {
		return
	}
	e := &queueEntry{
		OrderID:     order.ID,
		Priority:    order.Priority,
		SubmittedAt: order.SubmittedAt,
		AssignedTo:  order.AssignedTo,
	}
	heap.Push(&q.entries, e)
	q.byID[order.ID] = e
}

// Next removes and returns the highest-priority order id. Exactly one
// concurrent caller receives any given head. Returns false when empty.
func (q *WorkQueue) Next() (uuid.UUID, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.entries.Len() == 0 {
		return uuid.Nil, false
	}
	e := heap.Pop(&q.entries).(*queueEntry)
	delete(q.byID, e.OrderID)
	return e.OrderID, true
}

// Remove drops an order from the queue, e.g. on cancellation.
func (q *WorkQueue) Remove(orderID uuid.UUID) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	e, ok := q.byID[orderID]
	if !ok {
		return false
	}
	heap.Remove(&q.entries, e.index)
	delete(q.byID, orderID)
	return true
}

// Snapshot returns the queued order ids in priority order without removing
// them, filtered to orders that are unassigned or assigned to operatorID.
func (q *WorkQueue) Snapshot(operatorID string) []uuid.UUID {
	q.mu.Lock()
	cp := make(entryHeap, 0, len(q.entries))
	for _, e := range q.entries {
		if e.AssignedTo != nil && *e.AssignedTo != operatorID {
			continue
		}
		ec := *e
		cp = append(cp, &ec)
	}
	q.mu.Unlock()

	heap.Init(&cp)
	out := make([]uuid.UUID, 0, len(cp))
	for cp.Len() > 0 {
		out = append(out, heap.Pop(&cp).(*queueEntry).OrderID)
	}
	return out
}

// Len reports the number of queued orders.
func (q *WorkQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.entries)
}

// Queues holds the fixed set of named work queues.
type Queues struct {
	byName map[string]*WorkQueue
}

func NewQueues() *Queues {
	qs := &Queues{byName: make(map[string]*WorkQueue)}
	for _, name := range []string{QueueVerification, QueueDispensing, QueueClinical, QueueBilling} {
		qs.byName[name] = NewWorkQueue(name)
	}
	return qs
}

// Get returns the named queue or ErrUnknownQueue.
func (qs *Queues) Get(name string) (*WorkQueue, error) {
	q, ok := qs.byName[name]
	if !ok {
		return nil, ErrUnknownQueue
	}
	return q, nil
}

// Names lists the registered queue names.
func (qs *Queues) Names() []string {
	names := make([]string, 0, len(qs.byName))
	for name := range qs.byName {
		names = append(names, name)
	}
	return names
}

// Depths reports per-queue lengths, used by metrics collection.
func (qs *Queues) Depths() map[string]int {
	depths := make(map[string]int, len(qs.byName))
	for name, q := range qs.byName {
		depths[name] = q.Len()
	}
	return depths
}
