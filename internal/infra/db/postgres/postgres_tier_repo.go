package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"telegram-merchant-commerce/internal/domain"
	"telegram-merchant-commerce/internal/domain/model"
	"telegram-merchant-commerce/internal/domain/ports/repository"
)

var _ repository.TierRepository = (*tierRepo)(nil)

type tierRepo struct{ pool *pgxpool.Pool }

func NewTierRepo(pool *pgxpool.Pool) *tierRepo {
	return &tierRepo{pool: pool}
}

const tierColumns = `id, service_id, merchant_id, name, price, currency, interval_unit, interval_count, created_at`

func (r *tierRepo) Save(ctx context.Context, tx repository.Tx, t *model.Tier) error {
	const q = `
INSERT INTO tiers (
  id, service_id, merchant_id, name, price, currency, interval_unit, interval_count, created_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
ON CONFLICT (id) DO UPDATE SET
  name=$4, price=$5, currency=$6, interval_unit=$7, interval_count=$8;`

	_, err := execSQL(ctx, r.pool, tx, q, t.ID, t.ServiceID, t.MerchantID, t.Name, t.Price, t.Currency, t.IntervalUnit, t.IntervalCount, t.CreatedAt)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidArgument), errors.Is(err, domain.ErrInvalidExecContext), errors.Is(err, domain.ErrUnavailable):
			return err
		default:
			return domain.ErrOperationFailed
		}
	}
	return nil
}

func (r *tierRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Tier, error) {
	const q = `SELECT ` + tierColumns + ` FROM tiers WHERE id=$1;`
	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}
	return scanTier(row)
}

func (r *tierRepo) ListByService(ctx context.Context, tx repository.Tx, serviceID string) ([]*model.Tier, error) {
	const q = `SELECT ` + tierColumns + ` FROM tiers WHERE service_id=$1 ORDER BY price ASC;`
	rows, err := queryRows(ctx, r.pool, tx, q, serviceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*model.Tier
	for rows.Next() {
		t, err := scanTier(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, scanError(err)
	}
	return out, nil
}

func scanTier(row pgx.Row) (*model.Tier, error) {
	t := &model.Tier{}
	if err := row.Scan(&t.ID, &t.ServiceID, &t.MerchantID, &t.Name, &t.Price, &t.Currency, &t.IntervalUnit, &t.IntervalCount, &t.CreatedAt); err != nil {
		return nil, scanError(err)
	}
	return t, nil
}
