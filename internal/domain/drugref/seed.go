package drugref

import "context"

func strPtr(s string) *string { return &s }

// SeedDrugs is the reference formulary consolidated from the legacy
// pharmacy modules.
func SeedDrugs() []*Drug {
	return []*Drug{
		{Key: "metformin", Name: "Metformin", NDC: strPtr("00093-1048"), DoseMin: 500, DoseMax: 2000, DoseUnit: "mg", MaxDailyDose: 2000, Active: true},
		{Key: "lisinopril", Name: "Lisinopril", NDC: strPtr("00093-1049"), DoseMin: 2.5, DoseMax: 40, DoseUnit: "mg", MaxDailyDose: 40, Active: true},
		{Key: "warfarin", Name: "Warfarin", NDC: strPtr("00056-0170"), DoseMin: 1, DoseMax: 10, DoseUnit: "mg", MaxDailyDose: 10, Active: true},
		{Key: "insulin", Name: "Insulin", NDC: strPtr("00002-8215"), DoseMin: 10, DoseMax: 100, DoseUnit: "units", MaxDailyDose: 200, Active: true},
		{Key: "simvastatin", Name: "Simvastatin", NDC: strPtr("00006-0740"), DoseMin: 10, DoseMax: 80, DoseUnit: "mg", MaxDailyDose: 80, Active: true},
		{Key: "metoprolol", Name: "Metoprolol", DoseMin: 25, DoseMax: 200, DoseUnit: "mg", MaxDailyDose: 400, Active: true},
		{Key: "aspirin", Name: "Aspirin", DoseMin: 81, DoseMax: 650, DoseUnit: "mg", MaxDailyDose: 4000, Active: true},
		{Key: "ibuprofen", Name: "Ibuprofen", DoseMin: 200, DoseMax: 800, DoseUnit: "mg", MaxDailyDose: 3200, Active: true},
		{Key: "ciprofloxacin", Name: "Ciprofloxacin", DoseMin: 250, DoseMax: 750, DoseUnit: "mg", MaxDailyDose: 1500, Active: true},
		{Key: "digoxin", Name: "Digoxin", DoseMin: 0.125, DoseMax: 0.25, DoseUnit: "mg", MaxDailyDose: 0.5, Active: true},
		{Key: "lithium", Name: "Lithium", DoseMin: 300, DoseMax: 600, DoseUnit: "mg", MaxDailyDose: 1800, Active: true},
		{Key: "sertraline", Name: "Sertraline", DoseMin: 25, DoseMax: 200, DoseUnit: "mg", MaxDailyDose: 200, Active: true},
		// Controlled substances.
		{Key: "oxycodone", Name: "Oxycodone", Controlled: true, Schedule: ScheduleII, DoseMin: 5, DoseMax: 30, DoseUnit: "mg", MaxDailyDose: 120, Active: true},
		{Key: "morphine", Name: "Morphine", Controlled: true, Schedule: ScheduleII, Active: true},
		{Key: "fentanyl", Name: "Fentanyl", Controlled: true, Schedule: ScheduleII, Active: true},
		{Key: "adderall", Name: "Adderall", Controlled: true, Schedule: ScheduleII, Active: true},
		{Key: "tramadol", Name: "Tramadol", Controlled: true, Schedule: ScheduleIV, DoseMin: 50, DoseMax: 100, DoseUnit: "mg", MaxDailyDose: 400, Active: true},
		{Key: "alprazolam", Name: "Alprazolam", Controlled: true, Schedule: ScheduleIV, Active: true},
	}
}

// SeedInteractions is the consolidated pairwise interaction table.
func SeedInteractions() []*InteractionRule {
	return []*InteractionRule{
		{DrugA: "warfarin", DrugB: "aspirin", Severity: SeverityMajor, Description: "Increased bleeding risk - monitor INR closely"},
		{DrugA: "warfarin", DrugB: "ibuprofen", Severity: SeverityMajor, Description: "Increased bleeding and reduced warfarin effectiveness"},
		{DrugA: "warfarin", DrugB: "amiodarone", Severity: SeverityMajor, Description: "Significantly increases warfarin effect"},
		{DrugA: "warfarin", DrugB: "simvastatin", Severity: SeverityModerate, Description: "May increase bleeding risk"},
		{DrugA: "lisinopril", DrugB: "ibuprofen", Severity: SeverityModerate, Description: "NSAIDs reduce ACE inhibitor effectiveness"},
		{DrugA: "lisinopril", DrugB: "potassium", Severity: SeverityModerate, Description: "Risk of hyperkalemia"},
		{DrugA: "lisinopril", DrugB: "lithium", Severity: SeverityMajor, Description: "Increased lithium toxicity risk"},
		{DrugA: "metoprolol", DrugB: "verapamil", Severity: SeverityMajor, Description: "Risk of severe bradycardia and heart block"},
		{DrugA: "metoprolol", DrugB: "insulin", Severity: SeverityModerate, Description: "Beta-blockers may mask hypoglycemia symptoms"},
		{DrugA: "metformin", DrugB: "alcohol", Severity: SeverityModerate, Description: "Increased lactic acidosis risk"},
		{DrugA: "metformin", DrugB: "contrast", Severity: SeverityMajor, Description: "Hold before contrast procedures"},
		{DrugA: "insulin", DrugB: "prednisone", Severity: SeverityModerate, Description: "Steroids increase blood glucose"},
		{DrugA: "ciprofloxacin", DrugB: "warfarin", Severity: SeverityMajor, Description: "Significantly increases warfarin effect"},
		{DrugA: "ciprofloxacin", DrugB: "theophylline", Severity: SeverityMajor, Description: "Increases theophylline toxicity"},
		{DrugA: "tramadol", DrugB: "sertraline", Severity: SeverityMajor, Description: "Increased serotonin syndrome risk"},
		{DrugA: "tramadol", DrugB: "warfarin", Severity: SeverityModerate, Description: "May increase bleeding risk"},
	}
}

// Seed loads the reference data into the given repositories.
func Seed(ctx context.Context, drugs DrugRepository, interactions InteractionRepository) error {
	for _, d := range SeedDrugs() {
		if err := drugs.Upsert(ctx, d); err != nil {
			return err
		}
	}
	for _, rule := range SeedInteractions() {
		if err := interactions.Upsert(ctx, rule); err != nil {
			return err
		}
	}
	return nil
}

// NewSeededService returns a Store backed by in-memory repositories
// preloaded with the reference data. Used by tests and dev mode.
func NewSeededService() *Service {
	drugs := NewMemDrugRepo()
	interactions := NewMemInteractionRepo()
	if err := Seed(context.Background(), drugs, interactions); err != nil {
		// In-memory seeding cannot fail with static data.
		panic(err)
	}
	return NewService(drugs, interactions)
}
