package model

import (
	"time"

	"github.com/shopspring/decimal"

	"telegram-merchant-commerce/internal/domain"
)

type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"  // checkout created; awaiting provider notification
	PaymentStatusSuccess  PaymentStatus = "success"  // provider confirmed; subscription and ledger applied
	PaymentStatusFailed   PaymentStatus = "failed"   // provider reported failure or payment went stale
	PaymentStatusRefunded PaymentStatus = "refunded" // refunded after success
)

// Payment records one purchase attempt. The amount is fixed at creation;
// only status, provider reference and timestamps move afterwards.
type Payment struct {
	ID          string // UUID
	UserID      string // UUID of the purchasing user
	ServiceID   string // UUID of the merchant service
	TierID      string // UUID of the purchased tier
	MerchantID  string // UUID of the owning merchant
	Amount      decimal.Decimal
	Currency    string
	Status      PaymentStatus
	ProviderRef *string // provider charge reference, set on confirmation
	CreatedAt   time.Time
	UpdatedAt   time.Time
	PaidAt      *time.Time
}

// CanTransition reports whether moving to the given status is legal.
// Transitions are monotonic: pending -> success|failed, success -> refunded.
func (p *Payment) CanTransition(to PaymentStatus) bool {
	switch p.Status {
	case PaymentStatusPending:
		return to == PaymentStatusSuccess || to == PaymentStatusFailed
	case PaymentStatusSuccess:
		return to == PaymentStatusRefunded
	default:
		return false
	}
}

// MarkSuccess applies the pending -> success transition.
func (p *Payment) MarkSuccess(providerRef string, at time.Time) error {
	if !p.CanTransition(PaymentStatusSuccess) {
		return domain.ErrInvalidTransition
	}
	p.Status = PaymentStatusSuccess
	p.ProviderRef = &providerRef
	p.PaidAt = &at
	p.UpdatedAt = at
	return nil
}

// MarkRefunded applies the success -> refunded transition.
func (p *Payment) MarkRefunded(at time.Time) error {
	if !p.CanTransition(PaymentStatusRefunded) {
		return domain.ErrInvalidTransition
	}
	p.Status = PaymentStatusRefunded
	p.UpdatedAt = at
	return nil
}
