package drugref

import (
	"context"
	"testing"
)

func TestService_LookupDrug_Normalizes(t *testing.T) {
	svc := NewSeededService()
	d, err := svc.LookupDrug(context.Background(), "  Metformin ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Key != "metformin" {
		t.Errorf("expected key metformin, got %s", d.Key)
	}
	if d.MaxDailyDose != 2000 {
		t.Errorf("expected max daily 2000, got %v", d.MaxDailyDose)
	}
}

func TestService_LookupDrug_NotFound(t *testing.T) {
	svc := NewSeededService()
	if _, err := svc.LookupDrug(context.Background(), "unobtainium"); err != ErrDrugNotFound {
		t.Errorf("expected ErrDrugNotFound, got %v", err)
	}
}

func TestService_LookupInteraction_Symmetric(t *testing.T) {
	svc := NewSeededService()
	ab, err := svc.LookupInteraction(context.Background(), "warfarin", "aspirin")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ba, err := svc.LookupInteraction(context.Background(), "aspirin", "warfarin")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ab.Severity != ba.Severity || ab.Description != ba.Description {
		t.Errorf("lookup not symmetric: %+v vs %+v", ab, ba)
	}
	if ab.Severity != SeverityMajor {
		t.Errorf("expected major, got %s", ab.Severity)
	}
}

func TestService_LookupInteraction_CaseInsensitive(t *testing.T) {
	svc := NewSeededService()
	rule, err := svc.LookupInteraction(context.Background(), "Warfarin", "ASPIRIN")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rule.Severity != SeverityMajor {
		t.Errorf("expected major, got %s", rule.Severity)
	}
}

func TestService_LookupInteraction_NoRule(t *testing.T) {
	svc := NewSeededService()
	if _, err := svc.LookupInteraction(context.Background(), "metformin", "lisinopril"); err != ErrRuleNotFound {
		t.Errorf("expected ErrRuleNotFound, got %v", err)
	}
}

func TestService_IsControlled(t *testing.T) {
	svc := NewSeededService()
	status, err := svc.IsControlled(context.Background(), "Oxycodone")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !status.IsControlled {
		t.Error("expected oxycodone to be controlled")
	}
	if status.Schedule != ScheduleII {
		t.Errorf("expected schedule II, got %s", status.Schedule)
	}
}

func TestService_IsControlled_NotControlled(t *testing.T) {
	svc := NewSeededService()
	status, err := svc.IsControlled(context.Background(), "metformin")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if status.IsControlled {
		t.Error("metformin should not be controlled")
	}
}

func TestService_IsControlled_UnknownDrug(t *testing.T) {
	svc := NewSeededService()
	status, err := svc.IsControlled(context.Background(), "unobtainium")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if status.IsControlled {
		t.Error("unknown drug should not report controlled")
	}
}

func TestSeed_AllPairsResolveBothDirections(t *testing.T) {
	svc := NewSeededService()
	for _, rule := range SeedInteractions() {
		if _, err := svc.LookupInteraction(context.Background(), rule.DrugB, rule.DrugA); err != nil {
			t.Errorf("pair (%s,%s) not resolvable reversed: %v", rule.DrugA, rule.DrugB, err)
		}
	}
}
