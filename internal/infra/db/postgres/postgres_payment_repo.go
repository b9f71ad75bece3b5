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

var _ repository.PaymentRepository = (*paymentRepo)(nil)

type paymentRepo struct{ pool *pgxpool.Pool }

func NewPaymentRepo(pool *pgxpool.Pool) *paymentRepo {
	return &paymentRepo{pool: pool}
}

const paymentColumns = `id, user_id, service_id, tier_id, merchant_id, amount, currency, status, provider_ref, created_at, updated_at, paid_at`

func (r *paymentRepo) Save(ctx context.Context, tx repository.Tx, p *model.Payment) error {
	const q = `
INSERT INTO payments (
  id, user_id, service_id, tier_id, merchant_id, amount, currency, status, provider_ref, created_at, updated_at, paid_at
) VALUES (
  $1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12
) ON CONFLICT (id) DO UPDATE SET
  status=$8, provider_ref=$9, updated_at=$11, paid_at=$12;`

	_, err := execSQL(ctx, r.pool, tx, q, p.ID, p.UserID, p.ServiceID, p.TierID, p.MerchantID, p.Amount, p.Currency, p.Status, p.ProviderRef, p.CreatedAt, p.UpdatedAt, p.PaidAt)
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

func (r *paymentRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Payment, error) {
	q := `SELECT ` + paymentColumns + ` FROM payments WHERE id=$1`
	if _, ok := tx.(pgx.Tx); ok {
		q += " FOR UPDATE"
	}
	q += ";"
	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}
	return scanPayment(row)
}

func (r *paymentRepo) FindPendingForPurchase(ctx context.Context, tx repository.Tx, userID, tierID string) (*model.Payment, error) {
	q := `SELECT ` + paymentColumns + ` FROM payments WHERE user_id=$1 AND tier_id=$2 AND status='pending' ORDER BY created_at DESC LIMIT 1`
	if _, ok := tx.(pgx.Tx); ok {
		q += " FOR UPDATE"
	}
	q += ";"
	row, err := pickRow(ctx, r.pool, tx, q, userID, tierID)
	if err != nil {
		return nil, err
	}
	return scanPayment(row)
}

func (r *paymentRepo) UpdateStatus(ctx context.Context, tx repository.Tx, id string, status model.PaymentStatus, providerRef *string, paidAt *time.Time) error {
	const q = `UPDATE payments SET status=$2, provider_ref=COALESCE($3, provider_ref), paid_at=COALESCE($4, paid_at), updated_at=NOW() WHERE id=$1;`
	_, err := execSQL(ctx, r.pool, tx, q, id, status, providerRef, paidAt)
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

// UpdateStatusIfPending atomically updates status only when the row is still pending.
func (r *paymentRepo) UpdateStatusIfPending(
	ctx context.Context, tx repository.Tx, id string, status model.PaymentStatus, providerRef *string, paidAt *time.Time,
) (bool, error) {
	const q = `
    UPDATE payments
       SET status = $2,
           provider_ref = $3,
           paid_at = $4,
           updated_at = NOW()
     WHERE id = $1
       AND status = 'pending';`

	cmd, err := execSQL(ctx, r.pool, tx, q, id, string(status), providerRef, paidAt)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidArgument), errors.Is(err, domain.ErrInvalidExecContext), errors.Is(err, domain.ErrUnavailable):
			return false, err
		default:
			return false, domain.ErrOperationFailed
		}
	}
	return cmd.RowsAffected() >= 1, nil
}

func (r *paymentRepo) ListPendingOlderThan(ctx context.Context, tx repository.Tx, olderThan time.Time, limit int) ([]*model.Payment, error) {
	if limit <= 0 {
		limit = 100
	}
	const q = `SELECT ` + paymentColumns + ` FROM payments WHERE status='pending' AND created_at < $1 ORDER BY created_at ASC LIMIT $2;`
	rows, err := queryRows(ctx, r.pool, tx, q, olderThan, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, scanError(err)
	}
	return out, nil
}

func scanPayment(row pgx.Row) (*model.Payment, error) {
	p := &model.Payment{}
	if err := row.Scan(&p.ID, &p.UserID, &p.ServiceID, &p.TierID, &p.MerchantID, &p.Amount, &p.Currency, &p.Status, &p.ProviderRef, &p.CreatedAt, &p.UpdatedAt, &p.PaidAt); err != nil {
		return nil, scanError(err)
	}
	return p, nil
}
