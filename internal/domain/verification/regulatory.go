package verification

import "context"

// CheckRegulatory annotates controlled-substance lines. Findings are
// advisory: they require DEA verification at dispensing time but never block
// approval on their own.
func (c *Checker) CheckRegulatory(ctx context.Context, drugs []string) []RegulatoryFinding {
	var findings []RegulatoryFinding
	for _, drug := range drugs {
		status, err := c.store.IsControlled(ctx, drug)
		if err != nil || !status.IsControlled {
			continue
		}
		findings = append(findings, RegulatoryFinding{
			Drug:     drug,
			Schedule: status.Schedule,
			Note:     "Controlled substance - requires DEA verification",
		})
	}
	return findings
}
