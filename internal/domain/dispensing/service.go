package dispensing

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/rxguard/rxguard/internal/domain/inventory"
	"github.com/rxguard/rxguard/internal/domain/verification"
	"github.com/rxguard/rxguard/internal/platform/audit"
	"github.com/rxguard/rxguard/internal/platform/emr"
	"github.com/rxguard/rxguard/internal/platform/events"
	"github.com/rxguard/rxguard/internal/platform/metrics"
)

// ErrValidation marks malformed order input, rejected before any check runs.
var ErrValidation = errors.New("validation error")

// Alert text is fixed so downstream systems can match on it.
const (
	msgInteractions    = "High severity drug interactions detected"
	actionInteractions = "Pharmacist consultation required"
	msgAllergy         = "Patient allergy detected"
	actionAllergy      = "Alternative medication required"
	msgInventory       = "Insufficient inventory"
	actionInventory    = "Partial fill or alternative suggested"
	actionAdvisoryOnly = "Review advised"
	actionDEA          = "DEA verification required before dispensing"
)

// Engine runs verification, applies the decision policy, and owns the order
// state machine and work queues.
type Engine struct {
	orders   OrderRepository
	queues   *Queues
	checker  *verification.Checker
	ledger   *inventory.Ledger
	patients emr.PatientDataProvider
	audit    audit.Sink
	events   events.Publisher
	metrics  *metrics.Metrics
	log      zerolog.Logger
}

// EngineConfig collects the engine's collaborators. Audit, Events, and
// Metrics may be nil; the engine then runs without recording.
type EngineConfig struct {
	Orders   OrderRepository
	Queues   *Queues
	Checker  *verification.Checker
	Ledger   *inventory.Ledger
	Patients emr.PatientDataProvider
	Audit    audit.Sink
	Events   events.Publisher
	Metrics  *metrics.Metrics
	Log      zerolog.Logger
}

func NewEngine(cfg EngineConfig) *Engine {
	if cfg.Audit == nil {
		cfg.Audit = audit.Nop{}
	}
	return &Engine{
		orders:   cfg.Orders,
		queues:   cfg.Queues,
		checker:  cfg.Checker,
		ledger:   cfg.Ledger,
		patients: cfg.Patients,
		audit:    cfg.Audit,
		events:   cfg.Events,
		metrics:  cfg.Metrics,
		log:      cfg.Log,
	}
}

// WorkQueues exposes the engine's queues, e.g. for metrics collection.
func (e *Engine) WorkQueues() *Queues { return e.queues }

// SubmitOrderRequest is the inbound shape for a new order.
type SubmitOrderRequest struct {
	PatientID    string      `json:"patient_id"`
	PrescriberID string      `json:"prescriber_id"`
	Lines        []OrderLine `json:"lines"`
	STAT         bool        `json:"stat"`
	Urgent       bool        `json:"urgent"`
}

func (r *SubmitOrderRequest) validate() error {
	if r.PatientID == "" {
		return fmt.Errorf("%w: patient_id is required", ErrValidation)
	}
	if r.PrescriberID == "" {
		return fmt.Errorf("%w: prescriber_id is required", ErrValidation)
	}
	if len(r.Lines) == 0 {
		return fmt.Errorf("%w: at least one order line is required", ErrValidation)
	}
	for i, line := range r.Lines {
		if line.DrugKey == "" {
			return fmt.Errorf("%w: line %d: drug_key is required", ErrValidation, i)
		}
		if line.Quantity <= 0 {
			return fmt.Errorf("%w: line %d: quantity must be positive", ErrValidation, i)
		}
		if line.Dose <= 0 {
			return fmt.Errorf("%w: line %d: dose must be positive", ErrValidation, i)
		}
	}
	return nil
}

// SubmitOrder validates, persists, and immediately processes a new order.
// Malformed input is rejected before any verification runs.
func (e *Engine) SubmitOrder(ctx context.Context, req SubmitOrderRequest) (*Order, *Decision, error) {
	if err := req.validate(); err != nil {
		return nil, nil, err
	}
	now := time.Now().UTC()
	order := &Order{
		ID:           uuid.New(),
		PatientID:    req.PatientID,
		PrescriberID: req.PrescriberID,
		Lines:        req.Lines,
		Priority:     ComputePriority(req.STAT, req.Urgent, req.Lines),
		Status:       StatusSubmitted,
		SubmittedAt:  now,
		UpdatedAt:    now,
	}
	if err := e.orders.Create(ctx, order); err != nil {
		return nil, nil, err
	}
	decision, err := e.ProcessOrder(ctx, order)
	if err != nil {
		return nil, nil, err
	}
	return order, decision, nil
}

// ProcessOrder runs the full verification pass and applies the decision
// policy. All checks always run; all findings are collected before deciding.
func (e *Engine) ProcessOrder(ctx context.Context, order *Order) (*Decision, error) {
	if err := order.Transition(StatusVerifying); err != nil {
		return nil, err
	}
	if err := e.orders.Update(ctx, order); err != nil {
		return nil, err
	}

	start := time.Now()
	result := e.verify(ctx, order)
	e.metrics.ObserveVerification(time.Since(start))

	decision := e.decide(order, result)

	switch {
	case decision.Approved:
		if err := order.Transition(StatusReadyToDispense); err != nil {
			return nil, err
		}
		e.enqueue(QueueDispensing, order)
	case result.HasBlockingInteraction() || result.Allergies.HasAllergies:
		if err := order.Transition(StatusClinicalReview); err != nil {
			return nil, err
		}
		e.enqueue(QueueClinical, order)
	default:
		// Supply problem only: the order goes back to the requester, it is
		// not a clinical review case.
		if err := order.Transition(StatusSubmitted); err != nil {
			return nil, err
		}
	}
	if err := e.orders.Update(ctx, order); err != nil {
		return nil, err
	}
	decision.Status = order.Status

	e.metrics.OrderProcessed(decision.Approved)
	e.audit.Record(audit.Event{
		Type:    audit.EventOrderVerified,
		OrderID: order.ID.String(),
		Detail: map[string]any{
			"approved":     decision.Approved,
			"status":       order.Status,
			"alerts":       decision.Alerts,
			"verification": result,
		},
	})
	e.log.Info().
		Str("order_id", order.ID.String()).
		Str("status", string(order.Status)).
		Bool("approved", decision.Approved).
		Int("alerts", len(decision.Alerts)).
		Msg("order processed")
	return decision, nil
}

// verify runs every check and collects every finding. Lookup failures inside
// individual checks degrade to "no finding"; positive findings always
// surface.
func (e *Engine) verify(ctx context.Context, order *Order) *verification.Result {
	patient := e.patientData(ctx, order.PatientID)

	result := &verification.Result{}
	orderDrugs := make([]string, 0, len(order.Lines))
	for _, line := range order.Lines {
		orderDrugs = append(orderDrugs, line.DrugKey)
		result.Dosage = append(result.Dosage,
			e.checker.ValidateDosage(ctx, line.DrugKey, line.Dose, line.Frequency))
	}

	combined := append(append([]string{}, orderDrugs...), patient.CurrentMedications...)
	result.Interactions = e.checker.CheckInteractions(ctx, combined)
	result.Allergies = verification.ScreenAllergies(patient.Allergies, orderDrugs)
	result.Regulatory = e.checker.CheckRegulatory(ctx, orderDrugs)
	result.Duplicates = verification.CheckDuplicateTherapy(orderDrugs, patient.CurrentMedications)

	for _, line := range order.Lines {
		av, err := e.ledger.CheckAvailability(ctx, line.DrugKey, line.Quantity)
		if err != nil {
			e.log.Warn().Err(err).Str("drug", line.DrugKey).Msg("availability check failed")
			continue
		}
		result.Inventory = append(result.Inventory, verification.InventoryFinding{
			Drug:       line.DrugKey,
			Requested:  av.Requested,
			Available:  av.Available,
			Sufficient: av.Sufficient,
		})
	}
	return result
}

// patientData fetches the patient profile, degrading to an empty profile on
// failure. Missing patient data produces no findings rather than aborting
// the pipeline.
func (e *Engine) patientData(ctx context.Context, patientID string) emr.PatientData {
	if e.patients == nil {
		return emr.PatientData{}
	}
	data, err := e.patients.GetPatientData(ctx, patientID)
	if err != nil {
		e.log.Warn().Err(err).Str("patient_id", patientID).
			Msg("patient data unavailable, screening without profile")
		return emr.PatientData{}
	}
	return *data
}

// decide applies the deterministic policy: blocking reasons first, then every
// advisory finding, interactions sorted most severe first.
func (e *Engine) decide(order *Order, result *verification.Result) *Decision {
	decision := &Decision{OrderID: order.ID, Approved: true}

	if result.HasBlockingInteraction() {
		decision.Approved = false
		decision.Alerts = append(decision.Alerts, Alert{
			Type: AlertCritical, Message: msgInteractions, Action: actionInteractions,
		})
	}
	if result.Allergies.HasAllergies {
		decision.Approved = false
		decision.Alerts = append(decision.Alerts, Alert{
			Type: AlertCritical, Message: msgAllergy, Action: actionAllergy,
		})
	}
	if result.HasInsufficientStock() {
		decision.Approved = false
		decision.Alerts = append(decision.Alerts, Alert{
			Type: AlertWarning, Message: msgInventory, Action: actionInventory,
		})
	}

	advisory := make([]verification.InteractionFinding, 0, len(result.Interactions))
	for _, f := range result.Interactions {
		if !f.Severity.Blocking() {
			advisory = append(advisory, f)
		}
	}
	sort.SliceStable(advisory, func(i, j int) bool {
		return advisory[i].Severity.Worse(advisory[j].Severity)
	})
	for _, f := range advisory {
		decision.Alerts = append(decision.Alerts, Alert{
			Type:    AlertWarning,
			Message: fmt.Sprintf("%s interaction: %s + %s: %s", f.Severity, f.DrugA, f.DrugB, f.Description),
			Action:  actionAdvisoryOnly,
		})
	}
	for _, f := range result.Dosage {
		if !f.Valid {
			decision.Alerts = append(decision.Alerts, Alert{
				Type:    AlertWarning,
				Message: fmt.Sprintf("Dosage alert for %s: %s", f.Drug, f.Recommendation),
				Action:  actionAdvisoryOnly,
			})
		}
	}
	for _, f := range result.Regulatory {
		decision.Alerts = append(decision.Alerts, Alert{
			Type:    AlertWarning,
			Message: fmt.Sprintf("%s is a schedule %s controlled substance", f.Drug, f.Schedule),
			Action:  actionDEA,
		})
	}
	for _, f := range result.Duplicates {
		decision.Alerts = append(decision.Alerts, Alert{
			Type:    AlertWarning,
			Message: fmt.Sprintf("Duplicate therapy: %s already in current medications", f.Drug),
			Action:  actionAdvisoryOnly,
		})
	}
	return decision
}

// DispenseOrder fulfills a ready order. A final verification pass guards
// against drift between queueing and fulfillment, and the inventory commit
// is all-or-nothing across lines.
func (e *Engine) DispenseOrder(ctx context.Context, orderID uuid.UUID, operatorID string) (*DispenseResult, error) {
	order, err := e.orders.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status != StatusReadyToDispense {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, order.Status, StatusDispensed)
	}

	result := e.verify(ctx, order)
	decision := e.decide(order, result)
	if !decision.Approved {
		// State drifted since queueing. Route the order again.
		if result.HasBlockingInteraction() || result.Allergies.HasAllergies {
			if err := order.Transition(StatusVerifying); err != nil {
				return nil, err
			}
			if err := order.Transition(StatusClinicalReview); err != nil {
				return nil, err
			}
			e.dequeue(QueueDispensing, order.ID)
			e.enqueue(QueueClinical, order)
			if err := e.orders.Update(ctx, order); err != nil {
				return nil, err
			}
		}
		e.metrics.OrderDispensed(false)
		return &DispenseResult{Success: false, Error: "order failed final verification"}, nil
	}

	lines := make([]inventory.Line, 0, len(order.Lines))
	for _, line := range order.Lines {
		lines = append(lines, inventory.Line{DrugKey: line.DrugKey, Quantity: line.Quantity})
	}
	if err := e.ledger.DispenseAll(ctx, lines); err != nil {
		e.metrics.OrderDispensed(false)
		if errors.Is(err, inventory.ErrInsufficientStock) {
			return &DispenseResult{Success: false, Error: "insufficient stock"}, nil
		}
		return nil, err
	}

	if err := order.Transition(StatusDispensed); err != nil {
		return nil, err
	}
	order.AssignedTo = &operatorID
	if err := e.orders.Update(ctx, order); err != nil {
		return nil, err
	}
	// Dispensing without claiming through Next must not leave a stale entry
	// for another operator to pick up.
	e.dequeue(QueueDispensing, order.ID)

	now := time.Now().UTC()
	labels := make([]Label, 0, len(order.Lines))
	for _, line := range order.Lines {
		labels = append(labels, Label{
			DrugKey:      line.DrugKey,
			Quantity:     line.Quantity,
			Dose:         line.Dose,
			Frequency:    line.Frequency,
			DaysSupply:   line.DaysSupply,
			PatientID:    order.PatientID,
			PrescriberID: order.PrescriberID,
			DispensedAt:  now,
		})
	}
	record := &DispensingRecord{
		OrderID:     order.ID,
		OperatorID:  operatorID,
		Lines:       order.Lines,
		DispensedAt: now,
	}
	e.enqueue(QueueBilling, order)

	e.metrics.OrderDispensed(true)
	if e.events != nil {
		e.events.Publish(ctx, events.TopicDispense, order.ID.String(), record)
	}
	e.audit.Record(audit.Event{
		Type:    audit.EventOrderDispensed,
		OrderID: order.ID.String(),
		Actor:   operatorID,
		Detail:  map[string]any{"lines": order.Lines},
	})
	e.log.Info().Str("order_id", order.ID.String()).Str("operator_id", operatorID).
		Int("lines", len(order.Lines)).Msg("order dispensed")

	return &DispenseResult{Success: true, Labels: labels, Record: record}, nil
}

// CancelOrder moves a non-terminal order to cancelled and drops it from any
// work queue it sits in.
func (e *Engine) CancelOrder(ctx context.Context, orderID uuid.UUID) (*Order, error) {
	order, err := e.orders.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err := order.Transition(StatusCancelled); err != nil {
		return nil, err
	}
	for _, name := range e.queues.Names() {
		if q, err := e.queues.Get(name); err == nil {
			q.Remove(orderID)
		}
	}
	if err := e.orders.Update(ctx, order); err != nil {
		return nil, err
	}
	e.audit.Record(audit.Event{Type: audit.EventOrderCancelled, OrderID: order.ID.String()})
	return order, nil
}

// GetOrder loads one order.
func (e *Engine) GetOrder(ctx context.Context, orderID uuid.UUID) (*Order, error) {
	return e.orders.Get(ctx, orderID)
}

// ListOrders pages through all orders by submission time.
func (e *Engine) ListOrders(ctx context.Context, limit, offset int) ([]*Order, int, error) {
	return e.orders.List(ctx, limit, offset)
}

// GetWorkQueue returns the named queue's orders in priority order, filtered
// to unassigned or self-assigned entries.
func (e *Engine) GetWorkQueue(ctx context.Context, name, operatorID string) ([]*Order, error) {
	q, err := e.queues.Get(name)
	if err != nil {
		return nil, err
	}
	ids := q.Snapshot(operatorID)
	orders := make([]*Order, 0, len(ids))
	for _, id := range ids {
		order, err := e.orders.Get(ctx, id)
		if err != nil {
			continue
		}
		orders = append(orders, order)
	}
	return orders, nil
}

// NextInQueue atomically takes the head of the named queue and assigns it to
// the operator. Returns ErrOrderNotFound when the queue is empty.
func (e *Engine) NextInQueue(ctx context.Context, name, operatorID string) (*Order, error) {
	q, err := e.queues.Get(name)
	if err != nil {
		return nil, err
	}
	id, ok := q.Next()
	if !ok {
		return nil, ErrOrderNotFound
	}
	order, err := e.orders.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	order.AssignedTo = &operatorID
	order.UpdatedAt = time.Now().UTC()
	if err := e.orders.Update(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

// CheckInteractions runs a standalone interaction check over a drug set,
// without an order.
func (e *Engine) CheckInteractions(ctx context.Context, drugs []string) []verification.InteractionFinding {
	return e.checker.CheckInteractions(ctx, drugs)
}

func (e *Engine) enqueue(name string, order *Order) {
	if q, err := e.queues.Get(name); err == nil {
		q.Enqueue(order)
	}
}

func (e *Engine) dequeue(name string, orderID uuid.UUID) {
	if q, err := e.queues.Get(name); err == nil {
		q.Remove(orderID)
	}
}
