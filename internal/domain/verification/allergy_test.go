package verification

import (
	"context"
	"testing"
)

func TestScreenAllergies_SubstringMatch(t *testing.T) {
	result := ScreenAllergies([]string{"sulfa"}, []string{"Sulfamethoxazole"})
	if !result.HasAllergies {
		t.Fatal("sulfa allergen should match Sulfamethoxazole")
	}
	if result.Alerts[0].Allergen != "sulfa" {
		t.Errorf("expected allergen sulfa, got %s", result.Alerts[0].Allergen)
	}
}

func TestScreenAllergies_ClassExpansion(t *testing.T) {
	result := ScreenAllergies([]string{"penicillin"}, []string{"Amoxicillin"})
	if !result.HasAllergies {
		t.Fatal("penicillin allergy should flag Amoxicillin")
	}
	if result.Alerts[0].Drug != "Amoxicillin" {
		t.Errorf("expected Amoxicillin, got %s", result.Alerts[0].Drug)
	}
}

func TestScreenAllergies_NoMatch(t *testing.T) {
	result := ScreenAllergies([]string{"penicillin", "sulfa"}, []string{"metformin", "lisinopril"})
	if result.HasAllergies {
		t.Errorf("expected no allergies, got %+v", result.Alerts)
	}
}

func TestScreenAllergies_CaseInsensitive(t *testing.T) {
	result := ScreenAllergies([]string{"PENICILLIN"}, []string{"penicillin v"})
	if !result.HasAllergies {
		t.Error("matching must be case-insensitive")
	}
}

func TestScreenAllergies_OneAlertPerDrug(t *testing.T) {
	result := ScreenAllergies([]string{"codeine", "oxycodone"}, []string{"oxycodone"})
	if len(result.Alerts) != 1 {
		t.Errorf("expected a single alert per drug, got %d", len(result.Alerts))
	}
}

func TestScreenAllergies_EmptyInputs(t *testing.T) {
	if ScreenAllergies(nil, []string{"metformin"}).HasAllergies {
		t.Error("no allergens should mean no alerts")
	}
	if ScreenAllergies([]string{"sulfa"}, nil).HasAllergies {
		t.Error("no drugs should mean no alerts")
	}
}

func TestCheckRegulatory_Controlled(t *testing.T) {
	c := newTestChecker()
	findings := c.CheckRegulatory(context.Background(), []string{"oxycodone", "metformin"})
	if len(findings) != 1 {
		t.Fatalf("expected 1 regulatory finding, got %d", len(findings))
	}
	f := findings[0]
	if f.Drug != "oxycodone" {
		t.Errorf("expected oxycodone, got %s", f.Drug)
	}
	if f.Schedule != "II" {
		t.Errorf("expected schedule II, got %s", f.Schedule)
	}
}

func TestCheckRegulatory_UnknownDrugIgnored(t *testing.T) {
	c := newTestChecker()
	findings := c.CheckRegulatory(context.Background(), []string{"unobtainium"})
	if len(findings) != 0 {
		t.Errorf("unknown drug should produce no regulatory finding, got %d", len(findings))
	}
}
