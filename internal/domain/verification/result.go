// Package verification implements the pure clinical checks that run before
// any order is dispensed: dosage validation, drug-drug interaction lookup,
// allergy screening, duplicate-therapy detection, and the controlled-substance
// regulatory check. Every check is side-effect-free; missing reference data
// degrades to "no finding" while any positive finding is always reported.
package verification

import "github.com/rxguard/rxguard/internal/domain/drugref"

// InteractionFinding is one detected pairwise interaction. DrugA and DrugB
// carry the caller's original (non-normalized) names.
type InteractionFinding struct {
	DrugA       string          `json:"drug_a"`
	DrugB       string          `json:"drug_b"`
	Severity    drugref.Severity `json:"severity"`
	Description string          `json:"description"`
}

// DosageFinding is the outcome of validating one prescribed line.
type DosageFinding struct {
	Drug           string  `json:"drug"`
	Valid          bool    `json:"valid"`
	DailyDose      float64 `json:"daily_dose"`
	Recommendation string  `json:"recommendation"`
	// Unverified marks a pass that is only the absence of reference data,
	// not a positive confirmation the dose is safe.
	Unverified bool `json:"unverified,omitempty"`
	// UnknownFrequency marks that the frequency string was not recognized
	// and the lenient multiplier-1 fallback was applied.
	UnknownFrequency bool `json:"unknown_frequency,omitempty"`
}

// AllergyAlert is one allergen match against a proposed drug.
type AllergyAlert struct {
	Drug     string `json:"drug"`
	Allergen string `json:"allergen"`
}

// AllergyResult aggregates allergy screening over a whole order.
type AllergyResult struct {
	HasAllergies bool           `json:"has_allergies"`
	Alerts       []AllergyAlert `json:"alerts"`
}

// RegulatoryFinding annotates a controlled-substance line. Never blocking on
// its own; dispensing requires DEA verification downstream.
type RegulatoryFinding struct {
	Drug     string           `json:"drug"`
	Schedule drugref.Schedule `json:"schedule"`
	Note     string           `json:"note"`
}

// DuplicateFinding flags the same drug appearing in the order and the
// patient's current medication list (or twice within the order).
type DuplicateFinding struct {
	Drug string `json:"drug"`
}

// InventoryFinding is the availability snapshot for one line, produced by
// the inventory ledger and carried here so a verification pass is one
// self-contained record.
type InventoryFinding struct {
	Drug       string `json:"drug"`
	Requested  int    `json:"requested"`
	Available  int    `json:"available"`
	Sufficient bool   `json:"sufficient"`
}

// Result is one full verification pass over an order. Ephemeral: consumed by
// the decision engine and the audit sink, never stored as state.
type Result struct {
	Interactions []InteractionFinding `json:"interactions"`
	Dosage       []DosageFinding      `json:"dosage"`
	Allergies    AllergyResult        `json:"allergies"`
	Inventory    []InventoryFinding   `json:"inventory"`
	Regulatory   []RegulatoryFinding  `json:"regulatory"`
	Duplicates   []DuplicateFinding   `json:"duplicates"`
}

// HasBlockingInteraction reports whether any interaction finding is severe
// enough to block dispensing.
func (r *Result) HasBlockingInteraction() bool {
	for _, f := range r.Interactions {
		if f.Severity.Blocking() {
			return true
		}
	}
	return false
}

// HasInsufficientStock reports whether any line cannot be filled.
func (r *Result) HasInsufficientStock() bool {
	for _, f := range r.Inventory {
		if !f.Sufficient {
			return true
		}
	}
	return false
}
