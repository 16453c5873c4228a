package inventory

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

type pgStore struct{ pool *pgxpool.Pool }

func NewPGStore(pool *pgxpool.Pool) Store { return &pgStore{pool: pool} }

func (s *pgStore) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return s.pool
}

const itemCols = `drug_key, quantity_on_hand, reorder_level, expiration_date, avg_daily_use, updated_at`

func scanItem(row pgx.Row) (*Item, error) {
	var item Item
	err := row.Scan(&item.DrugKey, &item.QuantityOnHand, &item.ReorderLevel,
		&item.ExpirationDate, &item.AvgDailyUse, &item.UpdatedAt)
	return &item, err
}

func (s *pgStore) Get(ctx context.Context, key string) (*Item, error) {
	item, err := scanItem(s.conn(ctx).QueryRow(ctx,
		`SELECT `+itemCols+` FROM inventory_item WHERE drug_key = $1`, normalizeKey(key)))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrItemNotFound
	}
	if err != nil {
		return nil, err
	}
	return item, nil
}

func (s *pgStore) List(ctx context.Context) ([]*Item, error) {
	rows, err := s.conn(ctx).Query(ctx,
		`SELECT `+itemCols+` FROM inventory_item ORDER BY drug_key`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (s *pgStore) Put(ctx context.Context, item *Item) error {
	item.DrugKey = normalizeKey(item.DrugKey)
	_, err := s.conn(ctx).Exec(ctx, `
		INSERT INTO inventory_item (drug_key, quantity_on_hand, reorder_level, expiration_date, avg_daily_use)
		VALUES ($1,$2,$3,$4,$5)
		ON CONFLICT (drug_key) DO UPDATE SET
			quantity_on_hand=$2, reorder_level=$3, expiration_date=$4, avg_daily_use=$5, updated_at=NOW()`,
		item.DrugKey, item.QuantityOnHand, item.ReorderLevel, item.ExpirationDate, item.AvgDailyUse)
	return err
}

// Decrement uses a guarded UPDATE so the check and subtract happen in one
// statement; two racing dispenses can never both take the last unit.
func (s *pgStore) Decrement(ctx context.Context, key string, qty int) (int, error) {
	var remaining int
	err := s.conn(ctx).QueryRow(ctx, `
		UPDATE inventory_item
		SET quantity_on_hand = quantity_on_hand - $2, updated_at = NOW()
		WHERE drug_key = $1 AND quantity_on_hand >= $2
		RETURNING quantity_on_hand`,
		normalizeKey(key), qty).Scan(&remaining)
	if errors.Is(err, pgx.ErrNoRows) {
		// Guard failed: distinguish a missing row from insufficient stock.
		item, getErr := s.Get(ctx, key)
		if getErr != nil {
			return 0, getErr
		}
		return item.QuantityOnHand, ErrInsufficientStock
	}
	if err != nil {
		return 0, err
	}
	return remaining, nil
}

func (s *pgStore) Increment(ctx context.Context, key string, qty int) (int, error) {
	var remaining int
	err := s.conn(ctx).QueryRow(ctx, `
		UPDATE inventory_item
		SET quantity_on_hand = quantity_on_hand + $2, updated_at = NOW()
		WHERE drug_key = $1
		RETURNING quantity_on_hand`,
		normalizeKey(key), qty).Scan(&remaining)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, ErrItemNotFound
	}
	if err != nil {
		return 0, err
	}
	return remaining, nil
}
