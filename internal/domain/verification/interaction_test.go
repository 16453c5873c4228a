package verification

import (
	"context"
	"testing"
)

func TestCheckInteractions_FindsKnownPair(t *testing.T) {
	c := newTestChecker()
	findings := c.CheckInteractions(context.Background(), []string{"warfarin", "aspirin"})
	if len(findings) != 1 {
		t.Fatalf("expected 1 finding, got %d", len(findings))
	}
	f := findings[0]
	if f.DrugA != "warfarin" || f.DrugB != "aspirin" {
		t.Errorf("finding should carry original names, got %s/%s", f.DrugA, f.DrugB)
	}
	if !f.Severity.Blocking() {
		t.Errorf("warfarin+aspirin should be blocking, got %s", f.Severity)
	}
}

func TestCheckInteractions_Symmetry(t *testing.T) {
	c := newTestChecker()
	ab := c.CheckInteractions(context.Background(), []string{"warfarin", "aspirin"})
	ba := c.CheckInteractions(context.Background(), []string{"aspirin", "warfarin"})
	if len(ab) != 1 || len(ba) != 1 {
		t.Fatalf("expected 1 finding each, got %d and %d", len(ab), len(ba))
	}
	if ab[0].Severity != ba[0].Severity || ab[0].Description != ba[0].Description {
		t.Error("findings must be identical regardless of input order")
	}
}

func TestCheckInteractions_NoDoubleCounting(t *testing.T) {
	c := newTestChecker()
	drugs := []string{"warfarin", "aspirin", "ibuprofen", "lisinopril"}
	findings := c.CheckInteractions(context.Background(), drugs)
	n := len(drugs)
	if len(findings) > n*(n-1)/2 {
		t.Errorf("more findings (%d) than unordered pairs (%d)", len(findings), n*(n-1)/2)
	}
	seen := make(map[[2]string]bool)
	for _, f := range findings {
		a, b := f.DrugA, f.DrugB
		if a > b {
			a, b = b, a
		}
		if seen[[2]string{a, b}] {
			t.Errorf("pair (%s,%s) reported twice", f.DrugA, f.DrugB)
		}
		seen[[2]string{a, b}] = true
	}
}

func TestCheckInteractions_DuplicateInputNotSelfPaired(t *testing.T) {
	c := newTestChecker()
	findings := c.CheckInteractions(context.Background(), []string{"warfarin", "Warfarin"})
	if len(findings) != 0 {
		t.Errorf("same drug twice should produce no interaction, got %d", len(findings))
	}
}

func TestCheckInteractions_CaseInsensitive(t *testing.T) {
	c := newTestChecker()
	findings := c.CheckInteractions(context.Background(), []string{"Warfarin", "ASPIRIN"})
	if len(findings) != 1 {
		t.Fatalf("expected 1 finding, got %d", len(findings))
	}
	if findings[0].DrugA != "Warfarin" {
		t.Errorf("original casing should be preserved, got %s", findings[0].DrugA)
	}
}

func TestCheckInteractions_NoKnownRules(t *testing.T) {
	c := newTestChecker()
	findings := c.CheckInteractions(context.Background(), []string{"metformin", "simvastatin"})
	if len(findings) != 0 {
		t.Errorf("expected no findings, got %d", len(findings))
	}
}

func TestCheckDuplicateTherapy(t *testing.T) {
	findings := CheckDuplicateTherapy([]string{"metformin"}, []string{"Metformin", "lisinopril"})
	if len(findings) != 1 {
		t.Fatalf("expected 1 duplicate, got %d", len(findings))
	}
	if findings[0].Drug != "metformin" {
		t.Errorf("expected metformin, got %s", findings[0].Drug)
	}
}

func TestCheckDuplicateTherapy_WithinOrder(t *testing.T) {
	findings := CheckDuplicateTherapy([]string{"metformin", "Metformin"}, nil)
	if len(findings) != 1 {
		t.Errorf("expected 1 duplicate within order, got %d", len(findings))
	}
}

func TestCheckDuplicateTherapy_None(t *testing.T) {
	findings := CheckDuplicateTherapy([]string{"metformin"}, []string{"lisinopril"})
	if len(findings) != 0 {
		t.Errorf("expected no duplicates, got %d", len(findings))
	}
}
