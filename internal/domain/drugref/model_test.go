package drugref

import "testing"

func TestParseSeverity(t *testing.T) {
	cases := map[string]Severity{
		"minor":           SeverityMinor,
		"low":             SeverityMinor,
		"moderate":        SeverityModerate,
		"medium":          SeverityModerate,
		"major":           SeverityMajor,
		"high":            SeverityMajor,
		"HIGH":            SeverityMajor,
		"contraindicated": SeverityContraindicated,
	}
	for raw, want := range cases {
		got, err := ParseSeverity(raw)
		if err != nil {
			t.Errorf("ParseSeverity(%q): unexpected error: %v", raw, err)
			continue
		}
		if got != want {
			t.Errorf("ParseSeverity(%q) = %s, want %s", raw, got, want)
		}
	}
}

func TestParseSeverity_Unknown(t *testing.T) {
	if _, err := ParseSeverity("catastrophic"); err == nil {
		t.Error("expected error for unknown severity")
	}
}

func TestSeverity_Blocking(t *testing.T) {
	if SeverityModerate.Blocking() || SeverityMinor.Blocking() {
		t.Error("minor/moderate must not block")
	}
	if !SeverityMajor.Blocking() || !SeverityContraindicated.Blocking() {
		t.Error("major/contraindicated must block")
	}
}

func TestSeverity_Worse(t *testing.T) {
	if !SeverityContraindicated.Worse(SeverityMajor) {
		t.Error("contraindicated should outrank major")
	}
	if SeverityMinor.Worse(SeverityModerate) {
		t.Error("minor should not outrank moderate")
	}
}

func TestPairKey_Ordering(t *testing.T) {
	a, b := PairKey("Warfarin", "aspirin")
	if a != "aspirin" || b != "warfarin" {
		t.Errorf("expected (aspirin, warfarin), got (%s, %s)", a, b)
	}
	a2, b2 := PairKey("aspirin", "warfarin")
	if a != a2 || b != b2 {
		t.Error("pair key must be order independent")
	}
}
