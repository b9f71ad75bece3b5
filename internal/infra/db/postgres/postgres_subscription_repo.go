package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"telegram-merchant-commerce/internal/domain"
	"telegram-merchant-commerce/internal/domain/model"
	"telegram-merchant-commerce/internal/domain/ports/repository"
)

// Ensure subscriptionRepo implements repository.SubscriptionRepository
var _ repository.SubscriptionRepository = (*subscriptionRepo)(nil)

type subscriptionRepo struct {
	pool *pgxpool.Pool
}

func NewSubscriptionRepo(pool *pgxpool.Pool) *subscriptionRepo {
	return &subscriptionRepo{pool: pool}
}

const subscriptionColumns = `id, user_id, service_id, merchant_id, tier_id, status, expires_at, renewals, created_at, updated_at`

// Upsert keys on the (user_id, service_id) uniqueness constraint: the pair
// owns exactly one row and renewals update it in place.
func (r *subscriptionRepo) Upsert(ctx context.Context, tx repository.Tx, s *model.Subscription) error {
	const q = `
INSERT INTO subscriptions (
  id, user_id, service_id, merchant_id, tier_id, status, expires_at, renewals, created_at, updated_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
ON CONFLICT (user_id, service_id) DO UPDATE SET
  tier_id=$5, status=$6, expires_at=$7, renewals=$8, updated_at=$10;`

	_, err := execSQL(ctx, r.pool, tx, q, s.ID, s.UserID, s.ServiceID, s.MerchantID, s.TierID, s.Status, s.ExpiresAt, s.Renewals, s.CreatedAt, s.UpdatedAt)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidArgument), errors.Is(err, domain.ErrInvalidExecContext), errors.Is(err, domain.ErrUnavailable):
			return err
		case errors.Is(err, domain.ErrAlreadyExists):
			return domain.ErrAlreadyExists
		default:
			return domain.ErrOperationFailed
		}
	}
	return nil
}

func (r *subscriptionRepo) FindByUserAndService(ctx context.Context, tx repository.Tx, userID, serviceID string) (*model.Subscription, error) {
	q := `SELECT ` + subscriptionColumns + ` FROM subscriptions WHERE user_id=$1 AND service_id=$2`
	if _, ok := tx.(pgx.Tx); ok {
		q += " FOR UPDATE"
	}
	q += ";"
	row, err := pickRow(ctx, r.pool, tx, q, userID, serviceID)
	if err != nil {
		return nil, err
	}
	return scanSubscription(row)
}

func (r *subscriptionRepo) ListExpired(ctx context.Context, tx repository.Tx, asOf time.Time, limit int) ([]*model.Subscription, error) {
	if limit <= 0 {
		limit = 200
	}
	const q = `
SELECT ` + subscriptionColumns + `
  FROM subscriptions
 WHERE status='active' AND expires_at IS NOT NULL AND expires_at <= $1
 ORDER BY expires_at ASC
 LIMIT $2;`
	rows, err := queryRows(ctx, r.pool, tx, q, asOf, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*model.Subscription
	for rows.Next() {
		s, err := scanSubscription(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, scanError(err)
	}
	return out, nil
}

func (r *subscriptionRepo) MarkExpired(ctx context.Context, tx repository.Tx, ids []string, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	const q = `UPDATE subscriptions SET status='expired', updated_at=$2 WHERE id = ANY($1) AND status='active';`
	_, err := execSQL(ctx, r.pool, tx, q, ids, at)
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

func scanSubscription(row pgx.Row) (*model.Subscription, error) {
	s := &model.Subscription{}
	if err := row.Scan(&s.ID, &s.UserID, &s.ServiceID, &s.MerchantID, &s.TierID, &s.Status, &s.ExpiresAt, &s.Renewals, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return nil, scanError(err)
	}
	return s, nil
}
