package repository

import (
	"context"

	"telegram-merchant-commerce/internal/domain/model"
)

type WebhookEventRepository interface {
	// Insert persists the idempotency marker. A re-delivered charge
	// reference hits the unique (provider, charge_ref) constraint and
	// surfaces as domain.ErrDuplicateEvent.
	Insert(ctx context.Context, tx Tx, e *model.WebhookEvent) error
	Seen(ctx context.Context, tx Tx, provider, chargeRef string) (bool, error)
}
