package inventory

import (
	"time"

	"github.com/rxguard/rxguard/internal/domain/drugref"
)

// Item is the on-hand stock record for one drug. QuantityOnHand is mutated
// only through the Ledger's dispense/replenish operations.
type Item struct {
	DrugKey        string    `db:"drug_key" json:"drug_key"`
	QuantityOnHand int       `db:"quantity_on_hand" json:"quantity_on_hand"`
	ReorderLevel   int       `db:"reorder_level" json:"reorder_level"`
	ExpirationDate time.Time `db:"expiration_date" json:"expiration_date"`
	// AvgDailyUse is the historical daily consumption rate used by the
	// demand forecast. Zero disables forecasting for the item.
	AvgDailyUse float64   `db:"avg_daily_use" json:"avg_daily_use"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// Availability is the result of a read-only stock check.
type Availability struct {
	DrugKey    string `json:"drug_key"`
	Requested  int    `json:"requested"`
	Available  int    `json:"available"`
	Sufficient bool   `json:"sufficient"`
}

// ExpiryPriority classifies how urgently an expiring lot needs attention.
type ExpiryPriority string

const (
	ExpiringSoon       ExpiryPriority = "expiring_soon"
	HighPriorityExpiry ExpiryPriority = "high_priority_expiry"
)

// ExpiryAlert flags an item inside one of the expiry horizons.
type ExpiryAlert struct {
	DrugKey        string         `json:"drug_key"`
	QuantityOnHand int            `json:"quantity_on_hand"`
	ExpiresInDays  int            `json:"expires_in_days"`
	Priority       ExpiryPriority `json:"priority"`
}

// ForecastEntry is the demand projection for one item.
type ForecastEntry struct {
	DrugKey            string  `json:"drug_key"`
	QuantityOnHand     int     `json:"quantity_on_hand"`
	PredictedDailyUse  float64 `json:"predicted_daily_use"`
	DaysUntilStockout  int     `json:"days_until_stockout"`
	ReorderRecommended bool    `json:"reorder_recommended"`
	Priority           string  `json:"priority"`
}

// Line is one dispense request against the ledger.
type Line struct {
	DrugKey  string
	Quantity int
}

// SeedItems is the starting stock carried over from the legacy inventory.
func SeedItems(now time.Time) []*Item {
	day := 24 * time.Hour
	return []*Item{
		{DrugKey: "metformin", QuantityOnHand: 450, ReorderLevel: 100, ExpirationDate: now.Add(180 * day), AvgDailyUse: 45},
		{DrugKey: "lisinopril", QuantityOnHand: 320, ReorderLevel: 80, ExpirationDate: now.Add(365 * day), AvgDailyUse: 32},
		{DrugKey: "warfarin", QuantityOnHand: 47, ReorderLevel: 50, ExpirationDate: now.Add(2 * day), AvgDailyUse: 8},
		{DrugKey: "insulin", QuantityOnHand: 180, ReorderLevel: 40, ExpirationDate: now.Add(90 * day), AvgDailyUse: 25},
		{DrugKey: "simvastatin", QuantityOnHand: 280, ReorderLevel: 75, ExpirationDate: now.Add(240 * day), AvgDailyUse: 38},
	}
}

func normalizeKey(key string) string { return drugref.NormalizeKey(key) }
