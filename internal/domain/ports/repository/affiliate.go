package repository

import (
	"context"

	"telegram-merchant-commerce/internal/domain/model"
)

type AffiliateRepository interface {
	// FindAttribution returns the checkout-time attribution for a payment,
	// or domain.ErrNotFound when the purchase was not referred.
	FindAttribution(ctx context.Context, tx Tx, paymentID string) (*model.AffiliateAttribution, error)
	// SaveConversion writes the commission record; the unique constraint on
	// payment_id keeps it at most-once per payment.
	SaveConversion(ctx context.Context, tx Tx, c *model.AffiliateConversion) error
	ListConversionsByAffiliate(ctx context.Context, tx Tx, affiliateID string, limit int) ([]*model.AffiliateConversion, error)
}
