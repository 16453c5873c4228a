package drugref

import (
	"fmt"
	"strings"
	"time"
)

// Severity is the closed set of interaction risk levels. Legacy data uses
// free-form strings ("high", "medium"); ParseSeverity maps those onto the
// canonical values.
type Severity string

const (
	SeverityMinor           Severity = "minor"
	SeverityModerate        Severity = "moderate"
	SeverityMajor           Severity = "major"
	SeverityContraindicated Severity = "contraindicated"
)

// Blocking reports whether an interaction of this severity blocks dispensing.
func (s Severity) Blocking() bool {
	return s == SeverityMajor || s == SeverityContraindicated
}

// rank orders severities for alert sorting. Higher is worse.
func (s Severity) rank() int {
	switch s {
	case SeverityContraindicated:
		return 4
	case SeverityMajor:
		return 3
	case SeverityModerate:
		return 2
	case SeverityMinor:
		return 1
	}
	return 0
}

// Worse reports whether s is more severe than other.
func (s Severity) Worse(other Severity) bool {
	return s.rank() > other.rank()
}

// ParseSeverity normalizes a severity string, accepting both canonical and
// legacy values.
func ParseSeverity(raw string) (Severity, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "minor", "low":
		return SeverityMinor, nil
	case "moderate", "medium":
		return SeverityModerate, nil
	case "major", "high":
		return SeverityMajor, nil
	case "contraindicated":
		return SeverityContraindicated, nil
	}
	return "", fmt.Errorf("unknown severity %q", raw)
}

// Schedule is a DEA controlled-substance schedule.
type Schedule string

const (
	ScheduleI   Schedule = "I"
	ScheduleII  Schedule = "II"
	ScheduleIII Schedule = "III"
	ScheduleIV  Schedule = "IV"
	ScheduleV   Schedule = "V"
)

// Drug is immutable reference data describing one medication.
type Drug struct {
	Key          string    `db:"drug_key" json:"drug_key"`
	Name         string    `db:"name" json:"name"`
	NDC          *string   `db:"ndc" json:"ndc,omitempty"`
	DoseMin      float64   `db:"dose_min" json:"dose_min"`
	DoseMax      float64   `db:"dose_max" json:"dose_max"`
	DoseUnit     string    `db:"dose_unit" json:"dose_unit"`
	MaxDailyDose float64   `db:"max_daily_dose" json:"max_daily_dose"`
	Controlled   bool      `db:"controlled" json:"controlled"`
	Schedule     Schedule  `db:"schedule" json:"schedule,omitempty"`
	Active       bool      `db:"active" json:"active"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// HasDosageRange reports whether the drug carries usable dosage reference
// data. Drugs without a range are treated as "standard dosing" by the
// validator.
func (d *Drug) HasDosageRange() bool {
	return d.DoseMax > 0 && d.MaxDailyDose > 0
}

// InteractionRule describes one known pairwise drug-drug interaction.
// DrugA and DrugB are normalized keys stored in lexicographic order so
// that (A,B) and (B,A) resolve to the same row.
type InteractionRule struct {
	DrugA       string    `db:"drug_a" json:"drug_a"`
	DrugB       string    `db:"drug_b" json:"drug_b"`
	Severity    Severity  `db:"severity" json:"severity"`
	Description string    `db:"description" json:"description"`
	Management  *string   `db:"management" json:"management,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// ControlledStatus is the result of a controlled-substance check.
type ControlledStatus struct {
	IsControlled bool     `json:"is_controlled"`
	Schedule     Schedule `json:"schedule,omitempty"`
}

// NormalizeKey canonicalizes a drug identifier for lookup: lower-case,
// trimmed. All store queries go through this.
func NormalizeKey(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}

// PairKey returns the two keys in canonical (lexicographic) order.
func PairKey(a, b string) (string, string) {
	a, b = NormalizeKey(a), NormalizeKey(b)
	if a > b {
		a, b = b, a
	}
	return a, b
}
