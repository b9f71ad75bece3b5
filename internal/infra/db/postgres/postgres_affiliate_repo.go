package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v4/pgxpool"

	"telegram-merchant-commerce/internal/domain"
	"telegram-merchant-commerce/internal/domain/model"
	"telegram-merchant-commerce/internal/domain/ports/repository"
)

var _ repository.AffiliateRepository = (*affiliateRepo)(nil)

type affiliateRepo struct{ pool *pgxpool.Pool }

func NewAffiliateRepo(pool *pgxpool.Pool) *affiliateRepo {
	return &affiliateRepo{pool: pool}
}

func (r *affiliateRepo) FindAttribution(ctx context.Context, tx repository.Tx, paymentID string) (*model.AffiliateAttribution, error) {
	const q = `SELECT payment_id, link_id, affiliate_id, commission_percent, created_at FROM affiliate_attributions WHERE payment_id=$1;`
	row, err := pickRow(ctx, r.pool, tx, q, paymentID)
	if err != nil {
		return nil, err
	}
	a := &model.AffiliateAttribution{}
	if err := row.Scan(&a.PaymentID, &a.LinkID, &a.AffiliateID, &a.CommissionPercent, &a.CreatedAt); err != nil {
		return nil, scanError(err)
	}
	return a, nil
}

// SaveConversion relies on the unique constraint on payment_id: a duplicate
// write surfaces as domain.ErrAlreadyExists and the caller treats the
// payment as already converted.
func (r *affiliateRepo) SaveConversion(ctx context.Context, tx repository.Tx, c *model.AffiliateConversion) error {
	const q = `
INSERT INTO affiliate_conversions (
  id, payment_id, link_id, affiliate_id, commission, currency, status, created_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8);`
	_, err := execSQL(ctx, r.pool, tx, q, c.ID, c.PaymentID, c.LinkID, c.AffiliateID, c.Commission, c.Currency, c.Status, c.CreatedAt)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidArgument), errors.Is(err, domain.ErrInvalidExecContext), errors.Is(err, domain.ErrUnavailable), errors.Is(err, domain.ErrAlreadyExists):
			return err
		default:
			return domain.ErrOperationFailed
		}
	}
	return nil
}

func (r *affiliateRepo) ListConversionsByAffiliate(ctx context.Context, tx repository.Tx, affiliateID string, limit int) ([]*model.AffiliateConversion, error) {
	if limit <= 0 {
		limit = 100
	}
	const q = `
SELECT id, payment_id, link_id, affiliate_id, commission, currency, status, created_at
  FROM affiliate_conversions
 WHERE affiliate_id=$1
 ORDER BY created_at DESC
 LIMIT $2;`
	rows, err := queryRows(ctx, r.pool, tx, q, affiliateID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*model.AffiliateConversion
	for rows.Next() {
		c := &model.AffiliateConversion{}
		if err := rows.Scan(&c.ID, &c.PaymentID, &c.LinkID, &c.AffiliateID, &c.Commission, &c.Currency, &c.Status, &c.CreatedAt); err != nil {
			return nil, scanError(err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, scanError(err)
	}
	return out, nil
}
