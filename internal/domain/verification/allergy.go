package verification

import "strings"

// allergenClasses expands an allergen to the drug-name fragments it covers.
// Substring matching alone misses class relationships (a "penicillin"
// allergy must flag amoxicillin), so known classes carry their member
// fragments explicitly.
var allergenClasses = map[string][]string{
	"penicillin": {"penicillin", "amoxicillin", "ampicillin", "piperacillin"},
	"sulfa":      {"sulfa", "sulfamethoxazole", "sulfasalazine"},
	"aspirin":    {"aspirin", "salicylate"},
	"codeine":    {"codeine", "hydrocodone", "oxycodone"},
}

// ScreenAllergies matches a patient's recorded allergens against proposed
// drug names. Matching is case-insensitive substring containment, expanded
// by allergen class. Deliberately permissive: a false positive costs one
// pharmacist review, a false negative harms a patient.
func ScreenAllergies(patientAllergens, proposedDrugs []string) AllergyResult {
	result := AllergyResult{}
	for _, drug := range proposedDrugs {
		name := strings.ToLower(strings.TrimSpace(drug))
		for _, allergen := range patientAllergens {
			if matchesAllergen(name, allergen) {
				result.Alerts = append(result.Alerts, AllergyAlert{Drug: drug, Allergen: allergen})
				break
			}
		}
	}
	result.HasAllergies = len(result.Alerts) > 0
	return result
}

func matchesAllergen(drugName, allergen string) bool {
	token := strings.ToLower(strings.TrimSpace(allergen))
	if token == "" {
		return false
	}
	fragments, ok := allergenClasses[token]
	if !ok {
		fragments = []string{token}
	}
	for _, f := range fragments {
		if strings.Contains(drugName, f) {
			return true
		}
	}
	return false
}
