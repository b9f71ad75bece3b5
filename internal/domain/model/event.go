package model

import (
	"github.com/shopspring/decimal"

	"telegram-merchant-commerce/internal/domain"
)

// PaymentEvent is the provider's payment-completed notification after
// transport-level verification. ChargeRef is the provider's unique charge
// reference and doubles as the idempotency key.
type PaymentEvent struct {
	ChargeRef   string
	UserID      string
	ServiceID   string
	TierID      string
	MerchantID  string
	GrossAmount decimal.Decimal
	Currency    string
}

// Validate checks structural completeness. A malformed event must be
// rejected before any storage access.
func (e *PaymentEvent) Validate() error {
	if e == nil {
		return domain.ErrMalformedEvent
	}
	if e.ChargeRef == "" || e.UserID == "" || e.ServiceID == "" || e.TierID == "" || e.MerchantID == "" {
		return domain.ErrMalformedEvent
	}
	if e.Currency == "" || e.GrossAmount.IsNegative() {
		return domain.ErrMalformedEvent
	}
	return nil
}
