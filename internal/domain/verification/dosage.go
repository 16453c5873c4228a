package verification

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/rxguard/rxguard/internal/domain/drugref"
)

// frequencyMultipliers maps administration frequency to doses per day.
// The table is fixed; anything else falls back to 1 (see ValidateDosage).
var frequencyMultipliers = map[string]float64{
	"once daily":        1,
	"twice daily":       2,
	"three times daily": 3,
	"four times daily":  4,
	"every 6 hours":     4,
	"every 8 hours":     3,
	"every 12 hours":    2,
}

// DailyDose computes dose * frequency multiplier. The second return reports
// whether the frequency was recognized; unrecognized frequencies use
// multiplier 1.
func DailyDose(dose float64, frequency string) (float64, bool) {
	m, ok := frequencyMultipliers[strings.ToLower(strings.TrimSpace(frequency))]
	if !ok {
		m = 1
	}
	return dose * m, ok
}

type Checker struct {
	store drugref.Store
	log   zerolog.Logger
}

func NewChecker(store drugref.Store, log zerolog.Logger) *Checker {
	return &Checker{store: store, log: log}
}

// ValidateDosage classifies a prescribed dose against the drug's reference
// range. Fail-open on missing data: an unknown drug validates with a
// "standard dosing" note and is marked Unverified. An unrecognized frequency
// defaults to multiplier 1; the fallback is flagged on the finding and
// logged so data-entry errors stay visible.
func (c *Checker) ValidateDosage(ctx context.Context, drugKey string, dose float64, frequency string) DosageFinding {
	daily, knownFreq := DailyDose(dose, frequency)
	finding := DosageFinding{
		Drug:             drugKey,
		DailyDose:        daily,
		UnknownFrequency: !knownFreq,
	}
	if !knownFreq {
		c.log.Warn().Str("drug", drugKey).Str("frequency", frequency).
			Msg("unrecognized frequency, defaulting to once daily")
	}

	d, err := c.store.LookupDrug(ctx, drugKey)
	if err != nil || !d.HasDosageRange() {
		finding.Valid = true
		finding.Unverified = true
		finding.Recommendation = "Standard dosing"
		return finding
	}

	if daily > d.MaxDailyDose {
		finding.Valid = false
		finding.Recommendation = fmt.Sprintf("Exceeds maximum daily dose of %g%s", d.MaxDailyDose, d.DoseUnit)
		return finding
	}
	if dose < d.DoseMin || dose > d.DoseMax {
		finding.Valid = false
		finding.Recommendation = fmt.Sprintf("Recommended range: %g-%g%s", d.DoseMin, d.DoseMax, d.DoseUnit)
		return finding
	}
	finding.Valid = true
	finding.Recommendation = "Within therapeutic range"
	return finding
}
