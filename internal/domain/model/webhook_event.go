package model

import "time"

// WebhookEvent is the persisted idempotency marker for one provider
// delivery. The unique constraint on (provider, charge_ref) is what turns a
// re-delivered webhook into a no-op: the marker is written in the same
// transaction as the payment transition, so either both exist or neither.
type WebhookEvent struct {
	ID          string // ULID
	Provider    string
	ChargeRef   string
	PaymentID   string // UUID of the payment the delivery applied to
	ProcessedAt time.Time
}
