package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v4/pgxpool"

	"telegram-merchant-commerce/internal/domain"
	"telegram-merchant-commerce/internal/domain/model"
	"telegram-merchant-commerce/internal/domain/ports/repository"
)

var _ repository.WebhookEventRepository = (*webhookEventRepo)(nil)

type webhookEventRepo struct{ pool *pgxpool.Pool }

func NewWebhookEventRepo(pool *pgxpool.Pool) *webhookEventRepo {
	return &webhookEventRepo{pool: pool}
}

// Insert writes the idempotency marker. The unique (provider, charge_ref)
// constraint converts a re-delivery into domain.ErrDuplicateEvent; written
// in the same transaction as the payment transition, this is what makes
// processing exactly-once.
func (r *webhookEventRepo) Insert(ctx context.Context, tx repository.Tx, e *model.WebhookEvent) error {
	const q = `
INSERT INTO webhook_events (id, provider, charge_ref, payment_id, processed_at)
VALUES ($1,$2,$3,$4,$5);`
	_, err := execSQL(ctx, r.pool, tx, q, e.ID, e.Provider, e.ChargeRef, e.PaymentID, e.ProcessedAt)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrAlreadyExists):
			return domain.ErrDuplicateEvent
		case errors.Is(err, domain.ErrInvalidArgument), errors.Is(err, domain.ErrInvalidExecContext), errors.Is(err, domain.ErrUnavailable):
			return err
		default:
			return domain.ErrOperationFailed
		}
	}
	return nil
}

func (r *webhookEventRepo) Seen(ctx context.Context, tx repository.Tx, provider, chargeRef string) (bool, error) {
	const q = `SELECT EXISTS(SELECT 1 FROM webhook_events WHERE provider=$1 AND charge_ref=$2);`
	row, err := pickRow(ctx, r.pool, tx, q, provider, chargeRef)
	if err != nil {
		return false, err
	}
	var seen bool
	if err := row.Scan(&seen); err != nil {
		return false, scanError(err)
	}
	return seen, nil
}
