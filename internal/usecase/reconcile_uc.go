// File: internal/usecase/reconcile_uc.go
package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"telegram-merchant-commerce/internal/domain"
	"telegram-merchant-commerce/internal/domain/model"
	"telegram-merchant-commerce/internal/domain/ports/adapter"
	"telegram-merchant-commerce/internal/domain/ports/repository"
	"telegram-merchant-commerce/internal/infra/logging"
	"telegram-merchant-commerce/internal/infra/metrics"
	"telegram-merchant-commerce/internal/infra/retry"
)

type ReconcileResult string

const (
	ResultApplied   ReconcileResult = "applied"
	ResultDuplicate ReconcileResult = "duplicate"
	ResultRejected  ReconcileResult = "rejected"
)

const (
	ReasonMalformed         = "malformed"
	ReasonNoMatchingPayment = "no_matching_payment"
	ReasonAmountMismatch    = "amount_mismatch"
)

// ReconcileOutcome is the caller-visible verdict on one provider event.
type ReconcileOutcome struct {
	Result  ReconcileResult
	Reason  string // set when Result == ResultRejected
	Payment *model.Payment
}

// Compile-time check
var _ ReconcileUseCase = (*reconcileUC)(nil)

type ReconcileUseCase interface {
	// Reconcile converts one verified payment-completed event into durable
	// state: payment success, subscription grant/renewal, ledger credit and
	// (when attributed) an affiliate conversion, all in one transaction.
	// Re-delivered events return a duplicate outcome without side effects.
	Reconcile(ctx context.Context, ev *model.PaymentEvent) (*ReconcileOutcome, error)
	// Refund transitions a successful payment to refunded and appends the
	// compensating ledger debit in one transaction.
	Refund(ctx context.Context, paymentID string) (*model.Payment, error)
}

type reconcileUC struct {
	tm                repository.TransactionManager
	events            repository.WebhookEventRepository
	payments          repository.PaymentRepository
	tiers             repository.TierRepository
	subs              repository.SubscriptionRepository
	affiliates        repository.AffiliateRepository
	ledger            LedgerUseCase
	notifier          adapter.Notifier
	provider          string
	defaultCommission decimal.Decimal
	retryPolicy       retry.Policy
	log               *zerolog.Logger
}

func NewReconcileUseCase(
	tm repository.TransactionManager,
	events repository.WebhookEventRepository,
	payments repository.PaymentRepository,
	tiers repository.TierRepository,
	subs repository.SubscriptionRepository,
	affiliates repository.AffiliateRepository,
	ledger LedgerUseCase,
	notifier adapter.Notifier,
	provider string,
	defaultCommission decimal.Decimal,
	retryPolicy retry.Policy,
	logger *zerolog.Logger,
) *reconcileUC {
	return &reconcileUC{
		tm:                tm,
		events:            events,
		payments:          payments,
		tiers:             tiers,
		subs:              subs,
		affiliates:        affiliates,
		ledger:            ledger,
		notifier:          notifier,
		provider:          provider,
		defaultCommission: defaultCommission,
		retryPolicy:       retryPolicy,
		log:               logger,
	}
}

// errAmountMismatch stays internal; it maps onto a rejected outcome.
var errAmountMismatch = errors.New("event amount does not match pending payment")

func (u *reconcileUC) Reconcile(ctx context.Context, ev *model.PaymentEvent) (*ReconcileOutcome, error) {
	start := time.Now()
	defer func() {
		metrics.ObserveReconcileDuration(float64(time.Since(start).Milliseconds()))
	}()

	// Step 1: structural validation, before any storage access.
	if err := ev.Validate(); err != nil {
		metrics.IncReconcileOutcome(string(ResultRejected))
		return &ReconcileOutcome{Result: ResultRejected, Reason: ReasonMalformed}, nil
	}

	// Step 2: cheap duplicate pre-check. The authoritative guard is the
	// unique constraint hit inside the transaction; this read only saves a
	// transaction for the common slow-ack redelivery case.
	var seen bool
	err := retry.Do(ctx, u.retryPolicy, u.log, "webhook_event.seen", func() error {
		var err error
		seen, err = u.events.Seen(ctx, repository.NoTX, u.provider, ev.ChargeRef)
		return err
	})
	if err != nil {
		return nil, err
	}
	if seen {
		metrics.IncWebhookDuplicate()
		metrics.IncReconcileOutcome(string(ResultDuplicate))
		return &ReconcileOutcome{Result: ResultDuplicate}, nil
	}

	// Steps 3-9: one atomic transaction around payment, subscription,
	// ledger and affiliate writes. The idempotency marker is written inside
	// the same transaction, so a crash between marking and side-effecting
	// cannot happen.
	var applied *model.Payment
	txErr := retry.Do(ctx, u.retryPolicy, u.log, "reconcile.tx", func() error {
		return u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
			return u.apply(ctx, tx, ev, &applied)
		})
	})

	switch {
	case txErr == nil:
		metrics.IncReconcileOutcome(string(ResultApplied))
		// Post-commit hand-off to the messaging collaborator. Best-effort:
		// a full queue is logged, never propagated.
		if ok := u.notifier.Enqueue(adapter.NotificationIntent{
			Kind:      "payment_applied",
			UserID:    ev.UserID,
			ServiceID: ev.ServiceID,
			ChargeRef: ev.ChargeRef,
		}); !ok {
			u.log.Warn().Str("charge_ref", ev.ChargeRef).Msg("notification queue full, confirmation dropped")
		}
		return &ReconcileOutcome{Result: ResultApplied, Payment: applied}, nil

	case errors.Is(txErr, domain.ErrDuplicateEvent):
		// A concurrent delivery won the race; the constraint turned this
		// one into a no-op. Duplicate-success, not an error.
		metrics.IncWebhookDuplicate()
		metrics.IncReconcileOutcome(string(ResultDuplicate))
		return &ReconcileOutcome{Result: ResultDuplicate}, nil

	case errors.Is(txErr, domain.ErrNoMatchingPayment):
		u.log.Warn().
			Str("charge_ref", ev.ChargeRef).
			Str("user_id", ev.UserID).
			Str("tier_id", ev.TierID).
			Msg("reconciliation anomaly: no matching pending payment")
		metrics.IncReconcileOutcome(string(ResultRejected))
		return &ReconcileOutcome{Result: ResultRejected, Reason: ReasonNoMatchingPayment}, nil

	case errors.Is(txErr, errAmountMismatch):
		u.log.Warn().
			Str("charge_ref", ev.ChargeRef).
			Str("amount", ev.GrossAmount.String()).
			Msg("reconciliation anomaly: event amount differs from pending payment")
		metrics.IncReconcileOutcome(string(ResultRejected))
		return &ReconcileOutcome{Result: ResultRejected, Reason: ReasonAmountMismatch}, nil

	default:
		metrics.IncReconcileOutcome("failed")
		return nil, fmt.Errorf("reconcile %s: %w", ev.ChargeRef, txErr)
	}
}

// apply runs steps 4-8 inside the open transaction.
func (u *reconcileUC) apply(ctx context.Context, tx repository.Tx, ev *model.PaymentEvent, out **model.Payment) error {
	now := time.Now()

	// Step 4: the matching PENDING payment, locked FOR UPDATE. Absence is
	// an anomaly: the event is never allowed to fabricate a payment row.
	p, err := u.payments.FindPendingForPurchase(ctx, tx, ev.UserID, ev.TierID)
	if err == domain.ErrNotFound {
		// A concurrent delivery may have consumed the pending row after the
		// fast-path check; its marker distinguishes that from a true anomaly.
		seen, seenErr := u.events.Seen(ctx, tx, u.provider, ev.ChargeRef)
		if seenErr != nil {
			return seenErr
		}
		if seen {
			return domain.ErrDuplicateEvent
		}
		return domain.ErrNoMatchingPayment
	}
	if err != nil {
		return err
	}
	if !p.Amount.Equal(ev.GrossAmount) {
		return errAmountMismatch
	}

	// Idempotency marker, same transaction as the status transition.
	if err := u.events.Insert(ctx, tx, &model.WebhookEvent{
		ID:          ulid.Make().String(),
		Provider:    u.provider,
		ChargeRef:   ev.ChargeRef,
		PaymentID:   p.ID,
		ProcessedAt: now,
	}); err != nil {
		return err
	}

	// Step 5: pending -> success, guarded against concurrent consumption.
	ref := ev.ChargeRef
	moved, err := u.payments.UpdateStatusIfPending(ctx, tx, p.ID, model.PaymentStatusSuccess, &ref, &now)
	if err != nil {
		return err
	}
	if !moved {
		return domain.ErrNoMatchingPayment
	}
	p.Status = model.PaymentStatusSuccess
	p.ProviderRef = &ref
	p.PaidAt = &now
	p.UpdatedAt = now

	// Step 6: tier interval metadata, then subscription upsert.
	tier, err := u.tiers.FindByID(ctx, tx, ev.TierID)
	if err != nil {
		return err
	}
	if err := u.grantSubscription(ctx, tx, ev, tier, now); err != nil {
		return err
	}

	// Step 7: merchant ledger credit.
	entry, err := u.ledger.Credit(ctx, tx, ev.MerchantID, ev.GrossAmount, ev.Currency, p.ID)
	if err != nil {
		return err
	}
	if !entry.Amount.IsPositive() {
		// Full-discount voucher: the audit record above stands and the
		// grant already went through as an instant-access grant.
		u.log.Info().Str("payment_id", p.ID).Str("net", entry.Amount.String()).Msg("non-positive credit recorded, instant access granted")
	}

	// Step 8: affiliate commission, only when attributed at checkout.
	if err := u.recordConversion(ctx, tx, p, ev, now); err != nil {
		return err
	}

	*out = p
	return nil
}

func (u *reconcileUC) grantSubscription(ctx context.Context, tx repository.Tx, ev *model.PaymentEvent, tier *model.Tier, now time.Time) error {
	existing, err := u.subs.FindByUserAndService(ctx, tx, ev.UserID, ev.ServiceID)
	switch {
	case err == domain.ErrNotFound:
		sub, err := model.NewSubscription(uuid.NewString(), ev.UserID, ev.ServiceID, ev.MerchantID, tier, now)
		if err != nil {
			return err
		}
		if err := u.subs.Upsert(ctx, tx, sub); err != nil {
			return err
		}
		metrics.IncSubscriptionRenewal("first")
		return nil
	case err != nil:
		return err
	default:
		if err := existing.Renew(tier, now); err != nil {
			return err
		}
		if err := u.subs.Upsert(ctx, tx, existing); err != nil {
			return err
		}
		metrics.IncSubscriptionRenewal("renewal")
		return nil
	}
}

func (u *reconcileUC) recordConversion(ctx context.Context, tx repository.Tx, p *model.Payment, ev *model.PaymentEvent, now time.Time) error {
	attr, err := u.affiliates.FindAttribution(ctx, tx, p.ID)
	if err == domain.ErrNotFound {
		return nil
	}
	if err != nil {
		return err
	}
	rate := u.defaultCommission
	if attr.CommissionPercent != nil {
		rate = *attr.CommissionPercent
	}
	commission := ev.GrossAmount.Mul(rate).Div(oneHundred).Round(2)
	if err := u.affiliates.SaveConversion(ctx, tx, &model.AffiliateConversion{
		ID:          uuid.NewString(),
		PaymentID:   p.ID,
		LinkID:      attr.LinkID,
		AffiliateID: attr.AffiliateID,
		Commission:  commission,
		Currency:    ev.Currency,
		Status:      model.ConversionStatusPending,
		CreatedAt:   now,
	}); err != nil {
		return err
	}
	metrics.IncAffiliateConversion()
	return nil
}

func (u *reconcileUC) Refund(ctx context.Context, paymentID string) (*model.Payment, error) {
	defer logging.TraceDuration(u.log, "ReconcileUC.Refund")()
	var refunded *model.Payment
	err := retry.Do(ctx, u.retryPolicy, u.log, "refund.tx", func() error {
		return u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
			p, err := u.payments.FindByID(ctx, tx, paymentID)
			if err != nil {
				return err
			}
			now := time.Now()
			if err := p.MarkRefunded(now); err != nil {
				return err
			}
			if err := u.payments.UpdateStatus(ctx, tx, p.ID, model.PaymentStatusRefunded, nil, nil); err != nil {
				return err
			}
			// Compensate exactly what the original credit moved.
			credit, err := u.ledger.CreditFor(ctx, tx, p.ID)
			if err != nil {
				return err
			}
			if credit.Amount.IsPositive() {
				desc := fmt.Sprintf("refund of payment %s", p.ID)
				if _, err := u.ledger.Debit(ctx, tx, p.MerchantID, credit.Amount, p.Currency, desc, &p.ID); err != nil {
					return err
				}
			}
			refunded = p
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	chargeRef := ""
	if refunded.ProviderRef != nil {
		chargeRef = *refunded.ProviderRef
	}
	if ok := u.notifier.Enqueue(adapter.NotificationIntent{
		Kind:      "payment_refunded",
		UserID:    refunded.UserID,
		ServiceID: refunded.ServiceID,
		ChargeRef: chargeRef,
	}); !ok {
		u.log.Warn().Str("payment_id", refunded.ID).Msg("notification queue full, refund notice dropped")
	}
	return refunded, nil
}
