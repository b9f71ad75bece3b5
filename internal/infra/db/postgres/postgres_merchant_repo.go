package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v4/pgxpool"

	"telegram-merchant-commerce/internal/domain"
	"telegram-merchant-commerce/internal/domain/model"
	"telegram-merchant-commerce/internal/domain/ports/repository"
)

var _ repository.MerchantRepository = (*merchantRepo)(nil)

type merchantRepo struct{ pool *pgxpool.Pool }

func NewMerchantRepo(pool *pgxpool.Pool) *merchantRepo {
	return &merchantRepo{pool: pool}
}

func (r *merchantRepo) Save(ctx context.Context, tx repository.Tx, m *model.Merchant) error {
	const q = `
INSERT INTO merchants (id, name, plan_id, created_at)
VALUES ($1,$2,$3,$4)
ON CONFLICT (id) DO UPDATE SET name=$2, plan_id=$3;`
	_, err := execSQL(ctx, r.pool, tx, q, m.ID, m.Name, m.PlanID, m.CreatedAt)
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

func (r *merchantRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Merchant, error) {
	const q = `SELECT id, name, plan_id, created_at FROM merchants WHERE id=$1;`
	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}
	m := &model.Merchant{}
	if err := row.Scan(&m.ID, &m.Name, &m.PlanID, &m.CreatedAt); err != nil {
		return nil, scanError(err)
	}
	return m, nil
}

func (r *merchantRepo) FindPlan(ctx context.Context, tx repository.Tx, planID string) (*model.MerchantPlan, error) {
	const q = `SELECT id, name, fee_percent, created_at FROM merchant_plans WHERE id=$1;`
	row, err := pickRow(ctx, r.pool, tx, q, planID)
	if err != nil {
		return nil, err
	}
	p := &model.MerchantPlan{}
	if err := row.Scan(&p.ID, &p.Name, &p.FeePercent, &p.CreatedAt); err != nil {
		return nil, scanError(err)
	}
	return p, nil
}
