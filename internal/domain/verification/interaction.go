package verification

import (
	"context"

	"github.com/rxguard/rxguard/internal/domain/drugref"
)

// CheckInteractions scans every unordered pair of the given drugs against
// the reference store. The set is expected to be small (an order's lines
// plus current medications), so the O(n²) pass is fine. Findings keep the
// caller's original drug names and come back in pair-iteration order; the
// decision engine sorts by severity, not the checker.
//
// A lookup error for one pair degrades to "no finding" for that pair:
// missing reference data never aborts the pipeline.
func (c *Checker) CheckInteractions(ctx context.Context, drugs []string) []InteractionFinding {
	var findings []InteractionFinding
	seen := make(map[[2]string]bool)
	for i := 0; i < len(drugs); i++ {
		for j := i + 1; j < len(drugs); j++ {
			ka, kb := drugref.PairKey(drugs[i], drugs[j])
			if ka == kb || seen[[2]string{ka, kb}] {
				continue
			}
			seen[[2]string{ka, kb}] = true

			rule, err := c.store.LookupInteraction(ctx, drugs[i], drugs[j])
			if err != nil {
				continue
			}
			findings = append(findings, InteractionFinding{
				DrugA:       drugs[i],
				DrugB:       drugs[j],
				Severity:    rule.Severity,
				Description: rule.Description,
			})
		}
	}
	return findings
}

// CheckDuplicateTherapy flags drugs that appear more than once across the
// combined order and current-medication list.
func CheckDuplicateTherapy(orderDrugs, currentMeds []string) []DuplicateFinding {
	current := make(map[string]bool, len(currentMeds))
	for _, m := range currentMeds {
		current[drugref.NormalizeKey(m)] = true
	}
	var findings []DuplicateFinding
	inOrder := make(map[string]bool, len(orderDrugs))
	for _, d := range orderDrugs {
		key := drugref.NormalizeKey(d)
		if current[key] || inOrder[key] {
			findings = append(findings, DuplicateFinding{Drug: d})
			continue
		}
		inOrder[key] = true
	}
	return findings
}
