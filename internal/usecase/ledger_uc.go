// File: internal/usecase/ledger_uc.go
package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"telegram-merchant-commerce/internal/domain"
	"telegram-merchant-commerce/internal/domain/model"
	"telegram-merchant-commerce/internal/domain/ports/repository"
	"telegram-merchant-commerce/internal/infra/logging"
	"telegram-merchant-commerce/internal/infra/metrics"
)

// Compile-time check
var _ LedgerUseCase = (*ledgerUC)(nil)

type LedgerUseCase interface {
	// Credit appends the merchant's share of a gross payment amount. The
	// platform fee is deducted per the merchant's plan percentage and the
	// split is recorded in the entry description; it is never stored as a
	// separate mutable column.
	Credit(ctx context.Context, tx repository.Tx, merchantID string, gross decimal.Decimal, currency string, paymentID string) (*model.LedgerEntry, error)
	// Debit appends a negative movement compensating an earlier credit.
	Debit(ctx context.Context, tx repository.Tx, merchantID string, amount decimal.Decimal, currency, description string, paymentID *string) (*model.LedgerEntry, error)
	// CreditFor returns the credit entry a payment originally produced.
	CreditFor(ctx context.Context, tx repository.Tx, paymentID string) (*model.LedgerEntry, error)
	Balance(ctx context.Context, merchantID string) (decimal.Decimal, error)
	Entries(ctx context.Context, merchantID string, limit int) ([]*model.LedgerEntry, error)
}

type ledgerUC struct {
	ledger            repository.LedgerRepository
	merchants         repository.MerchantRepository
	defaultFeePercent decimal.Decimal
	log               *zerolog.Logger
}

func NewLedgerUseCase(ledger repository.LedgerRepository, merchants repository.MerchantRepository, defaultFeePercent decimal.Decimal, logger *zerolog.Logger) *ledgerUC {
	return &ledgerUC{ledger: ledger, merchants: merchants, defaultFeePercent: defaultFeePercent, log: logger}
}

var oneHundred = decimal.NewFromInt(100)

// feePercentFor resolves the platform fee: the merchant-plan value is
// authoritative, the configured default only covers merchants without a plan.
func (u *ledgerUC) feePercentFor(ctx context.Context, tx repository.Tx, merchantID string) (decimal.Decimal, error) {
	m, err := u.merchants.FindByID(ctx, tx, merchantID)
	if err != nil {
		return decimal.Zero, err
	}
	if m.PlanID == nil {
		return u.defaultFeePercent, nil
	}
	plan, err := u.merchants.FindPlan(ctx, tx, *m.PlanID)
	if err == domain.ErrNotFound {
		return u.defaultFeePercent, nil
	}
	if err != nil {
		return decimal.Zero, err
	}
	return plan.FeePercent, nil
}

func (u *ledgerUC) Credit(ctx context.Context, tx repository.Tx, merchantID string, gross decimal.Decimal, currency string, paymentID string) (*model.LedgerEntry, error) {
	defer logging.TraceDuration(u.log, "LedgerUC.Credit")()
	feePercent, err := u.feePercentFor(ctx, tx, merchantID)
	if err != nil {
		return nil, err
	}
	fee := gross.Mul(feePercent).Div(oneHundred).Round(2)
	net := gross.Sub(fee)

	entry := &model.LedgerEntry{
		ID:          ulid.Make().String(),
		MerchantID:  merchantID,
		Amount:      net,
		Type:        model.MovementCredit,
		Description: fmt.Sprintf("payment credit %s %s (gross %s, platform fee %s%%)", net.StringFixed(2), currency, gross.StringFixed(2), feePercent.String()),
		PaymentID:   &paymentID,
		CreatedAt:   time.Now(),
	}
	// A zero or negative net (full-discount voucher) is still recorded for
	// audit completeness.
	out, err := u.ledger.Append(ctx, tx, entry)
	if err != nil {
		return nil, err
	}
	metrics.IncLedgerMovement(string(model.MovementCredit))
	vol, _ := net.Float64()
	metrics.AddLedgerCreditVolume(currency, vol)
	return out, nil
}

func (u *ledgerUC) Debit(ctx context.Context, tx repository.Tx, merchantID string, amount decimal.Decimal, currency, description string, paymentID *string) (*model.LedgerEntry, error) {
	defer logging.TraceDuration(u.log, "LedgerUC.Debit")()
	if amount.IsNegative() {
		return nil, domain.ErrInvalidArgument
	}
	entry := &model.LedgerEntry{
		ID:          ulid.Make().String(),
		MerchantID:  merchantID,
		Amount:      amount.Neg(),
		Type:        model.MovementDebit,
		Description: description,
		PaymentID:   paymentID,
		CreatedAt:   time.Now(),
	}
	out, err := u.ledger.Append(ctx, tx, entry)
	if err != nil {
		return nil, err
	}
	metrics.IncLedgerMovement(string(model.MovementDebit))
	vol, _ := amount.Float64()
	metrics.AddLedgerCreditVolume(currency, -vol)
	return out, nil
}

func (u *ledgerUC) CreditFor(ctx context.Context, tx repository.Tx, paymentID string) (*model.LedgerEntry, error) {
	return u.ledger.FindCreditByPayment(ctx, tx, paymentID)
}

func (u *ledgerUC) Balance(ctx context.Context, merchantID string) (decimal.Decimal, error) {
	return u.ledger.Balance(ctx, repository.NoTX, merchantID)
}

func (u *ledgerUC) Entries(ctx context.Context, merchantID string, limit int) ([]*model.LedgerEntry, error) {
	return u.ledger.ListByMerchant(ctx, repository.NoTX, merchantID, limit)
}
