package drugref

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rxguard/rxguard/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

// =========== Drug Repository ===========

type drugRepoPG struct{ pool *pgxpool.Pool }

func NewDrugRepoPG(pool *pgxpool.Pool) DrugRepository { return &drugRepoPG{pool: pool} }

func (r *drugRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const drugCols = `drug_key, name, ndc, dose_min, dose_max, dose_unit,
	max_daily_dose, controlled, schedule, active, created_at, updated_at`

func scanDrug(row pgx.Row) (*Drug, error) {
	var d Drug
	err := row.Scan(&d.Key, &d.Name, &d.NDC, &d.DoseMin, &d.DoseMax, &d.DoseUnit,
		&d.MaxDailyDose, &d.Controlled, &d.Schedule, &d.Active, &d.CreatedAt, &d.UpdatedAt)
	return &d, err
}

func (r *drugRepoPG) GetByKey(ctx context.Context, key string) (*Drug, error) {
	d, err := scanDrug(r.conn(ctx).QueryRow(ctx,
		`SELECT `+drugCols+` FROM drug WHERE drug_key = $1`, NormalizeKey(key)))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrDrugNotFound
	}
	if err != nil {
		return nil, err
	}
	return d, nil
}

func (r *drugRepoPG) List(ctx context.Context, limit, offset int) ([]*Drug, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM drug`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+drugCols+` FROM drug ORDER BY drug_key LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Drug
	for rows.Next() {
		d, err := scanDrug(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, d)
	}
	return items, total, rows.Err()
}

func (r *drugRepoPG) Upsert(ctx context.Context, d *Drug) error {
	d.Key = NormalizeKey(d.Key)
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO drug (drug_key, name, ndc, dose_min, dose_max, dose_unit,
			max_daily_dose, controlled, schedule, active)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		ON CONFLICT (drug_key) DO UPDATE SET
			name=$2, ndc=$3, dose_min=$4, dose_max=$5, dose_unit=$6,
			max_daily_dose=$7, controlled=$8, schedule=$9, active=$10, updated_at=NOW()`,
		d.Key, d.Name, d.NDC, d.DoseMin, d.DoseMax, d.DoseUnit,
		d.MaxDailyDose, d.Controlled, d.Schedule, d.Active)
	return err
}

// =========== Interaction Repository ===========

type interactionRepoPG struct{ pool *pgxpool.Pool }

func NewInteractionRepoPG(pool *pgxpool.Pool) InteractionRepository {
	return &interactionRepoPG{pool: pool}
}

func (r *interactionRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const ruleCols = `drug_a, drug_b, severity, description, management, created_at`

func scanRule(row pgx.Row) (*InteractionRule, error) {
	var rule InteractionRule
	err := row.Scan(&rule.DrugA, &rule.DrugB, &rule.Severity,
		&rule.Description, &rule.Management, &rule.CreatedAt)
	return &rule, err
}

func (r *interactionRepoPG) GetByPair(ctx context.Context, a, b string) (*InteractionRule, error) {
	ka, kb := PairKey(a, b)
	rule, err := scanRule(r.conn(ctx).QueryRow(ctx,
		`SELECT `+ruleCols+` FROM drug_interaction WHERE drug_a = $1 AND drug_b = $2`, ka, kb))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrRuleNotFound
	}
	if err != nil {
		return nil, err
	}
	return rule, nil
}

func (r *interactionRepoPG) List(ctx context.Context, limit, offset int) ([]*InteractionRule, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM drug_interaction`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+ruleCols+` FROM drug_interaction ORDER BY drug_a, drug_b LIMIT $1 OFFSET $2`,
		limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*InteractionRule
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, rule)
	}
	return items, total, rows.Err()
}

func (r *interactionRepoPG) Upsert(ctx context.Context, rule *InteractionRule) error {
	rule.DrugA, rule.DrugB = PairKey(rule.DrugA, rule.DrugB)
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO drug_interaction (drug_a, drug_b, severity, description, management)
		VALUES ($1,$2,$3,$4,$5)
		ON CONFLICT (drug_a, drug_b) DO UPDATE SET
			severity=$3, description=$4, management=$5`,
		rule.DrugA, rule.DrugB, rule.Severity, rule.Description, rule.Management)
	return err
}
