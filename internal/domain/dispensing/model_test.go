package dispensing

import (
	"errors"
	"testing"
)

func TestStatusTransitions(t *testing.T) {
	tests := []struct {
		from    Status
		to      Status
		allowed bool
	}{
		{StatusSubmitted, StatusVerifying, true},
		{StatusVerifying, StatusClinicalReview, true},
		{StatusVerifying, StatusReadyToDispense, true},
		{StatusVerifying, StatusSubmitted, true},
		{StatusClinicalReview, StatusReadyToDispense, true},
		{StatusReadyToDispense, StatusDispensed, true},
		{StatusSubmitted, StatusDispensed, false},
		{StatusSubmitted, StatusReadyToDispense, false},
		{StatusDispensed, StatusVerifying, false},
		{StatusCancelled, StatusVerifying, false},
	}
	for _, tt := range tests {
		if got := tt.from.CanTransition(tt.to); got != tt.allowed {
			t.Errorf("CanTransition(%s -> %s) = %v, want %v", tt.from, tt.to, got, tt.allowed)
		}
	}
}

func TestCancelReachableFromNonTerminal(t *testing.T) {
	for _, s := range []Status{StatusSubmitted, StatusVerifying, StatusClinicalReview, StatusReadyToDispense} {
		if !s.CanTransition(StatusCancelled) {
			t.Errorf("expected %s -> cancelled to be allowed", s)
		}
	}
	for _, s := range []Status{StatusDispensed, StatusCancelled} {
		if s.CanTransition(StatusCancelled) {
			t.Errorf("expected %s -> cancelled to be rejected", s)
		}
	}
}

func TestOrderTransitionRejectsInvalid(t *testing.T) {
	o := &Order{Status: StatusSubmitted}
	if err := o.Transition(StatusDispensed); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
	if o.Status != StatusSubmitted {
		t.Fatalf("failed transition must not change status, got %s", o.Status)
	}
}

func TestComputePriority(t *testing.T) {
	routine := []OrderLine{{DrugKey: "metformin"}}
	highRisk := []OrderLine{{DrugKey: "Warfarin"}}

	if p := ComputePriority(true, false, routine); p != PrioritySTAT {
		t.Errorf("stat flag: got %s", p)
	}
	if p := ComputePriority(false, true, routine); p != PriorityUrgent {
		t.Errorf("urgent flag: got %s", p)
	}
	if p := ComputePriority(false, false, highRisk); p != PriorityUrgent {
		t.Errorf("high-risk drug: got %s", p)
	}
	if p := ComputePriority(false, false, routine); p != PriorityRoutine {
		t.Errorf("default: got %s", p)
	}
	// STAT wins over high-risk escalation.
	if p := ComputePriority(true, false, highRisk); p != PrioritySTAT {
		t.Errorf("stat with high-risk drug: got %s", p)
	}
}

func TestPriorityOrdering(t *testing.T) {
	if !PrioritySTAT.Before(PriorityUrgent) || !PriorityUrgent.Before(PriorityRoutine) {
		t.Fatal("expected STAT > Urgent > Routine")
	}
	if PriorityRoutine.Before(PrioritySTAT) {
		t.Fatal("routine must not outrank stat")
	}
}
