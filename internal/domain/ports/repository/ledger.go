package repository

import (
	"context"

	"github.com/shopspring/decimal"

	"telegram-merchant-commerce/internal/domain/model"
)

type LedgerRepository interface {
	// Append writes one movement and fills in BalanceAfter, computed from the
	// previous entry inside the same transaction. Implementations must
	// serialize appends per merchant so two concurrent movements can never
	// derive from the same stale balance.
	Append(ctx context.Context, tx Tx, e *model.LedgerEntry) (*model.LedgerEntry, error)
	Balance(ctx context.Context, tx Tx, merchantID string) (decimal.Decimal, error)
	// FindCreditByPayment returns the credit entry originated by a payment.
	FindCreditByPayment(ctx context.Context, tx Tx, paymentID string) (*model.LedgerEntry, error)
	ListByMerchant(ctx context.Context, tx Tx, merchantID string, limit int) ([]*model.LedgerEntry, error)
}
