// Package dispensing owns pharmacy orders from submission to fulfillment:
// the order state machine, the verification-driven decision policy, and the
// priority work queues pharmacists pull from.
package dispensing

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Status is the order lifecycle state.
type Status string

const (
	StatusSubmitted       Status = "submitted"
	StatusVerifying       Status = "verifying"
	StatusClinicalReview  Status = "clinical_review"
	StatusReadyToDispense Status = "ready_to_dispense"
	StatusDispensed       Status = "dispensed"
	StatusCancelled       Status = "cancelled"
)

// validTransitions is the closed transition table. Cancellation is handled
// separately since it is reachable from every non-terminal state.
var validTransitions = map[Status][]Status{
	StatusSubmitted:       {StatusVerifying},
	StatusVerifying:       {StatusSubmitted, StatusClinicalReview, StatusReadyToDispense},
	StatusClinicalReview:  {StatusReadyToDispense, StatusVerifying},
	StatusReadyToDispense: {StatusDispensed, StatusVerifying},
}

// Terminal reports whether no further transitions are allowed.
func (s Status) Terminal() bool {
	return s == StatusDispensed || s == StatusCancelled
}

// CanTransition reports whether moving to next is allowed.
func (s Status) CanTransition(next Status) bool {
	if next == StatusCancelled {
		return !s.Terminal()
	}
	for _, allowed := range validTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Priority orders work queues: STAT ahead of Urgent ahead of Routine.
type Priority string

const (
	PriorityRoutine Priority = "routine"
	PriorityUrgent  Priority = "urgent"
	PrioritySTAT    Priority = "stat"
)

func (p Priority) rank() int {
	switch p {
	case PrioritySTAT:
		return 2
	case PriorityUrgent:
		return 1
	default:
		return 0
	}
}

// Before reports whether p outranks other in queue ordering.
func (p Priority) Before(other Priority) bool { return p.rank() > other.rank() }

// highRiskDrugs force at least Urgent priority regardless of flags.
var highRiskDrugs = map[string]bool{
	"warfarin": true,
	"insulin":  true,
	"digoxin":  true,
	"lithium":  true,
}

// ComputePriority resolves the effective priority at submission time.
func ComputePriority(stat, urgent bool, lines []OrderLine) Priority {
	if stat {
		return PrioritySTAT
	}
	if urgent {
		return PriorityUrgent
	}
	for _, line := range lines {
		if highRiskDrugs[normalizeKey(line.DrugKey)] {
			return PriorityUrgent
		}
	}
	return PriorityRoutine
}

// OrderLine is one prescribed item on an order.
type OrderLine struct {
	DrugKey    string  `json:"drug_key"`
	Quantity   int     `json:"quantity"`
	Dose       float64 `json:"dose"`
	Frequency  string  `json:"frequency"`
	DaysSupply int     `json:"days_supply"`
}

// Order is the aggregate root for one prescription order.
type Order struct {
	ID           uuid.UUID   `db:"id" json:"id"`
	PatientID    string      `db:"patient_id" json:"patient_id"`
	PrescriberID string      `db:"prescriber_id" json:"prescriber_id"`
	Lines        []OrderLine `db:"lines" json:"lines"`
	Priority     Priority    `db:"priority" json:"priority"`
	Status       Status      `db:"status" json:"status"`
	AssignedTo   *string     `db:"assigned_to" json:"assigned_to,omitempty"`
	SubmittedAt  time.Time   `db:"submitted_at" json:"submitted_at"`
	UpdatedAt    time.Time   `db:"updated_at" json:"updated_at"`
}

// Transition moves the order to next, enforcing the state machine.
func (o *Order) Transition(next Status) error {
	if !o.Status.CanTransition(next) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, o.Status, next)
	}
	o.Status = next
	o.UpdatedAt = time.Now().UTC()
	return nil
}

// AlertType distinguishes blocking from advisory alerts.
type AlertType string

const (
	AlertCritical AlertType = "critical"
	AlertWarning  AlertType = "warning"
)

// Alert is one structured reason attached to a decision.
type Alert struct {
	Type    AlertType `json:"type"`
	Message string    `json:"message"`
	Action  string    `json:"action"`
}

// Decision is the outcome of processing one order.
type Decision struct {
	OrderID  uuid.UUID `json:"order_id"`
	Status   Status    `json:"status"`
	Approved bool      `json:"approved"`
	Alerts   []Alert   `json:"alerts"`
}

// Label is printable packaging output for one dispensed line.
type Label struct {
	DrugKey      string    `json:"drug_key"`
	Quantity     int       `json:"quantity"`
	Dose         float64   `json:"dose"`
	Frequency    string    `json:"frequency"`
	DaysSupply   int       `json:"days_supply"`
	PatientID    string    `json:"patient_id"`
	PrescriberID string    `json:"prescriber_id"`
	DispensedAt  time.Time `json:"dispensed_at"`
}

// DispensingRecord is the durable record of a completed fulfillment.
type DispensingRecord struct {
	OrderID     uuid.UUID   `json:"order_id"`
	OperatorID  string      `json:"operator_id"`
	Lines       []OrderLine `json:"lines"`
	DispensedAt time.Time   `json:"dispensed_at"`
}

// DispenseResult is returned by the fulfillment step.
type DispenseResult struct {
	Success bool              `json:"success"`
	Labels  []Label           `json:"labels,omitempty"`
	Record  *DispensingRecord `json:"dispensing_record,omitempty"`
	Error   string            `json:"error,omitempty"`
}

// Work queue names.
const (
	QueueVerification = "verification"
	QueueDispensing   = "dispensing"
	QueueClinical     = "clinical"
	QueueBilling      = "billing"
)
