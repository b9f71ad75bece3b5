//go:build integration

package usecase

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"telegram-merchant-commerce/internal/domain"
	"telegram-merchant-commerce/internal/domain/model"
	"telegram-merchant-commerce/internal/domain/ports/adapter"
	"telegram-merchant-commerce/internal/domain/ports/repository"
	"telegram-merchant-commerce/internal/infra/db/postgres"
	"telegram-merchant-commerce/internal/infra/retry"
)

// flakyLedger fails the first n Credit calls with a transient error, then
// delegates. It stands in for an unreachable ledger partition mid-apply.
type flakyLedger struct {
	LedgerUseCase
	failures int32
}

func (f *flakyLedger) Credit(ctx context.Context, tx repository.Tx, merchantID string, gross decimal.Decimal, currency string, paymentID string) (*model.LedgerEntry, error) {
	if atomic.AddInt32(&f.failures, -1) >= 0 {
		return nil, domain.ErrUnavailable
	}
	return f.LedgerUseCase.Credit(ctx, tx, merchantID, gross, currency, paymentID)
}

type intentRecorder struct{ intents []adapter.NotificationIntent }

func (r *intentRecorder) Enqueue(i adapter.NotificationIntent) bool {
	r.intents = append(r.intents, i)
	return true
}

func TestReconcile_LedgerFaultRollsBackTransaction_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode.")
	}
	ctx := context.Background()
	cleanup(t)
	logger := zerolog.Nop()

	merchantID := uuid.NewString()
	userID := uuid.NewString()
	tierID := uuid.NewString()
	serviceID := uuid.NewString()

	merchantRepo := postgres.NewMerchantRepo(testPool)
	userRepo := postgres.NewUserRepo(testPool)
	tierRepo := postgres.NewTierRepo(testPool)
	paymentRepo := postgres.NewPaymentRepo(testPool)
	subRepo := postgres.NewSubscriptionRepo(testPool)
	ledgerRepo := postgres.NewLedgerRepo(testPool)
	affiliateRepo := postgres.NewAffiliateRepo(testPool)
	eventRepo := postgres.NewWebhookEventRepo(testPool)
	tm := postgres.NewTxManager(testPool)

	if err := merchantRepo.Save(ctx, nil, &model.Merchant{ID: merchantID, Name: "Acme Signals", CreatedAt: time.Now()}); err != nil {
		t.Fatalf("seed merchant: %v", err)
	}
	if err := userRepo.Save(ctx, nil, &model.User{ID: userID, TelegramID: 111222333, CreatedAt: time.Now()}); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	tier, err := model.NewTier(tierID, serviceID, merchantID, "Monthly", decimal.RequireFromString("50.00"), "USD", model.IntervalMonth, 1)
	if err != nil {
		t.Fatalf("new tier: %v", err)
	}
	if err := tierRepo.Save(ctx, nil, tier); err != nil {
		t.Fatalf("seed tier: %v", err)
	}
	now := time.Now()
	payment := &model.Payment{
		ID: uuid.NewString(), UserID: userID, ServiceID: serviceID,
		TierID: tierID, MerchantID: merchantID,
		Amount: decimal.RequireFromString("50.00"), Currency: "USD",
		Status: model.PaymentStatusPending, CreatedAt: now, UpdatedAt: now,
	}
	if err := paymentRepo.Save(ctx, nil, payment); err != nil {
		t.Fatalf("seed payment: %v", err)
	}

	realLedger := NewLedgerUseCase(ledgerRepo, merchantRepo, decimal.RequireFromString("10"), &logger)
	flaky := &flakyLedger{LedgerUseCase: realLedger, failures: 10}
	notifier := &intentRecorder{}
	policy := retry.Policy{BaseDelay: time.Millisecond, MaxAttempts: 2}
	uc := NewReconcileUseCase(tm, eventRepo, paymentRepo, tierRepo, subRepo, affiliateRepo,
		flaky, notifier, "stripe", decimal.RequireFromString("20"), policy, &logger)

	ev := &model.PaymentEvent{
		ChargeRef: "charge-rollback-001", UserID: userID, ServiceID: serviceID,
		TierID: tierID, MerchantID: merchantID,
		GrossAmount: decimal.RequireFromString("50.00"), Currency: "USD",
	}

	// Every attempt dies on the ledger write; the whole apply transaction
	// must roll back each time.
	if _, err := uc.Reconcile(ctx, ev); !errors.Is(err, domain.ErrUnavailable) {
		t.Fatalf("reconcile error = %v, want ErrUnavailable", err)
	}

	found, err := paymentRepo.FindByID(ctx, nil, payment.ID)
	if err != nil {
		t.Fatalf("find payment: %v", err)
	}
	if found.Status != model.PaymentStatusPending {
		t.Errorf("payment status = %s, want pending after rollback", found.Status)
	}
	seen, err := eventRepo.Seen(ctx, nil, "stripe", ev.ChargeRef)
	if err != nil {
		t.Fatalf("seen: %v", err)
	}
	if seen {
		t.Error("idempotency marker survived the rollback")
	}
	if _, err := subRepo.FindByUserAndService(ctx, nil, userID, serviceID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("subscription lookup = %v, want ErrNotFound", err)
	}
	if bal, _ := ledgerRepo.Balance(ctx, nil, merchantID); !bal.IsZero() {
		t.Errorf("merchant balance = %s, want 0", bal)
	}
	if len(notifier.intents) != 0 {
		t.Errorf("intents enqueued = %d, want 0", len(notifier.intents))
	}

	// A redelivery after the ledger recovers lands the payment.
	atomic.StoreInt32(&flaky.failures, 0)
	out, err := uc.Reconcile(ctx, ev)
	if err != nil {
		t.Fatalf("redelivery: %v", err)
	}
	if out.Result != ResultApplied {
		t.Fatalf("redelivery result = %s, want applied", out.Result)
	}
	found, _ = paymentRepo.FindByID(ctx, nil, payment.ID)
	if found.Status != model.PaymentStatusSuccess {
		t.Errorf("payment status = %s, want success", found.Status)
	}
	if bal, _ := ledgerRepo.Balance(ctx, nil, merchantID); !bal.Equal(decimal.RequireFromString("45.00")) {
		t.Errorf("merchant balance = %s, want 45.00", bal)
	}
}
