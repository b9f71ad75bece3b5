//go:build !integration

// File: internal/usecase/mocks_test.go
package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"telegram-merchant-commerce/internal/domain"
	"telegram-merchant-commerce/internal/domain/model"
	"telegram-merchant-commerce/internal/domain/ports/adapter"
	"telegram-merchant-commerce/internal/domain/ports/repository"
	"telegram-merchant-commerce/internal/infra/retry"
)

func newTestLogger() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}

// fastRetry keeps unit tests quick while still exercising the retry path.
func fastRetry() retry.Policy {
	return retry.Policy{BaseDelay: time.Millisecond, MaxAttempts: 3}
}

// mockTxManager runs the callback without a real database transaction. Tests
// that need rollback semantics assert on the absence of writes instead.
type mockTxManager struct{}

func (m *mockTxManager) WithTx(ctx context.Context, _ pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	return fn(ctx, repository.NoTX)
}

// mockNotifier records enqueued intents; Full simulates a saturated queue.
type mockNotifier struct {
	mu      sync.Mutex
	Intents []adapter.NotificationIntent
	Full    bool
}

func (m *mockNotifier) Enqueue(intent adapter.NotificationIntent) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Full {
		return false
	}
	m.Intents = append(m.Intents, intent)
	return true
}

type memPaymentRepo struct {
	mu    sync.Mutex
	store map[string]*model.Payment

	UpdateStatusIfPendingFunc func(ctx context.Context, tx repository.Tx, id string, status model.PaymentStatus, providerRef *string, paidAt *time.Time) (bool, error)
}

func newMemPaymentRepo() *memPaymentRepo {
	return &memPaymentRepo{store: make(map[string]*model.Payment)}
}

func (m *memPaymentRepo) Save(ctx context.Context, tx repository.Tx, p *model.Payment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	m.store[p.ID] = &cp
	return nil
}

func (m *memPaymentRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.store[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *memPaymentRepo) FindPendingForPurchase(ctx context.Context, tx repository.Tx, userID, tierID string) (*model.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var latest *model.Payment
	for _, p := range m.store {
		if p.UserID == userID && p.TierID == tierID && p.Status == model.PaymentStatusPending {
			if latest == nil || p.CreatedAt.After(latest.CreatedAt) {
				latest = p
			}
		}
	}
	if latest == nil {
		return nil, domain.ErrNotFound
	}
	cp := *latest
	return &cp, nil
}

func (m *memPaymentRepo) UpdateStatusIfPending(ctx context.Context, tx repository.Tx, id string, status model.PaymentStatus, providerRef *string, paidAt *time.Time) (bool, error) {
	if m.UpdateStatusIfPendingFunc != nil {
		return m.UpdateStatusIfPendingFunc(ctx, tx, id, status, providerRef, paidAt)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.store[id]
	if !ok || p.Status != model.PaymentStatusPending {
		return false, nil
	}
	p.Status = status
	if providerRef != nil {
		p.ProviderRef = providerRef
	}
	if paidAt != nil {
		p.PaidAt = paidAt
	}
	p.UpdatedAt = time.Now()
	return true, nil
}

func (m *memPaymentRepo) UpdateStatus(ctx context.Context, tx repository.Tx, id string, status model.PaymentStatus, providerRef *string, paidAt *time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.store[id]
	if !ok {
		return domain.ErrNotFound
	}
	p.Status = status
	if providerRef != nil {
		p.ProviderRef = providerRef
	}
	if paidAt != nil {
		p.PaidAt = paidAt
	}
	p.UpdatedAt = time.Now()
	return nil
}

func (m *memPaymentRepo) ListPendingOlderThan(ctx context.Context, tx repository.Tx, olderThan time.Time, limit int) ([]*model.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Payment
	for _, p := range m.store {
		if p.Status == model.PaymentStatusPending && p.CreatedAt.Before(olderThan) {
			cp := *p
			out = append(out, &cp)
			if limit > 0 && len(out) >= limit {
				break
			}
		}
	}
	return out, nil
}

type memWebhookEventRepo struct {
	mu    sync.Mutex
	store map[string]*model.WebhookEvent // keyed provider + "|" + charge_ref

	InsertFunc func(ctx context.Context, tx repository.Tx, e *model.WebhookEvent) error
}

func newMemWebhookEventRepo() *memWebhookEventRepo {
	return &memWebhookEventRepo{store: make(map[string]*model.WebhookEvent)}
}

func (m *memWebhookEventRepo) Insert(ctx context.Context, tx repository.Tx, e *model.WebhookEvent) error {
	if m.InsertFunc != nil {
		return m.InsertFunc(ctx, tx, e)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	key := e.Provider + "|" + e.ChargeRef
	if _, ok := m.store[key]; ok {
		return domain.ErrDuplicateEvent
	}
	cp := *e
	m.store[key] = &cp
	return nil
}

func (m *memWebhookEventRepo) Seen(ctx context.Context, tx repository.Tx, provider, chargeRef string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.store[provider+"|"+chargeRef]
	return ok, nil
}

func (m *memWebhookEventRepo) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.store)
}

type memSubscriptionRepo struct {
	mu    sync.Mutex
	store map[string]*model.Subscription // keyed user_id + "|" + service_id
}

func newMemSubscriptionRepo() *memSubscriptionRepo {
	return &memSubscriptionRepo{store: make(map[string]*model.Subscription)}
}

func (m *memSubscriptionRepo) Upsert(ctx context.Context, tx repository.Tx, s *model.Subscription) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *s
	m.store[s.UserID+"|"+s.ServiceID] = &cp
	return nil
}

func (m *memSubscriptionRepo) FindByUserAndService(ctx context.Context, tx repository.Tx, userID, serviceID string) (*model.Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.store[userID+"|"+serviceID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (m *memSubscriptionRepo) ListExpired(ctx context.Context, tx repository.Tx, asOf time.Time, limit int) ([]*model.Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Subscription
	for _, s := range m.store {
		if s.Status == model.SubscriptionStatusActive && s.Expired(asOf) {
			cp := *s
			out = append(out, &cp)
			if limit > 0 && len(out) >= limit {
				break
			}
		}
	}
	return out, nil
}

func (m *memSubscriptionRepo) MarkExpired(ctx context.Context, tx repository.Tx, ids []string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	want := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
	}
	for _, s := range m.store {
		if _, ok := want[s.ID]; ok && s.Status == model.SubscriptionStatusActive {
			s.Status = model.SubscriptionStatusExpired
			s.UpdatedAt = at
		}
	}
	return nil
}

type memTierRepo struct {
	mu    sync.Mutex
	store map[string]*model.Tier
}

func newMemTierRepo() *memTierRepo {
	return &memTierRepo{store: make(map[string]*model.Tier)}
}

func (m *memTierRepo) Save(ctx context.Context, tx repository.Tx, t *model.Tier) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *t
	m.store[t.ID] = &cp
	return nil
}

func (m *memTierRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Tier, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.store[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (m *memTierRepo) ListByService(ctx context.Context, tx repository.Tx, serviceID string) ([]*model.Tier, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Tier
	for _, t := range m.store {
		if t.ServiceID == serviceID {
			cp := *t
			out = append(out, &cp)
		}
	}
	return out, nil
}

type memMerchantRepo struct {
	mu        sync.Mutex
	merchants map[string]*model.Merchant
	plans     map[string]*model.MerchantPlan
}

func newMemMerchantRepo() *memMerchantRepo {
	return &memMerchantRepo{
		merchants: make(map[string]*model.Merchant),
		plans:     make(map[string]*model.MerchantPlan),
	}
}

func (m *memMerchantRepo) Save(ctx context.Context, tx repository.Tx, mc *model.Merchant) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *mc
	m.merchants[mc.ID] = &cp
	return nil
}

func (m *memMerchantRepo) SavePlan(p *model.MerchantPlan) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	m.plans[p.ID] = &cp
}

func (m *memMerchantRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Merchant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	mc, ok := m.merchants[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *mc
	return &cp, nil
}

func (m *memMerchantRepo) FindPlan(ctx context.Context, tx repository.Tx, planID string) (*model.MerchantPlan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.plans[planID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

// memLedgerRepo serializes appends with its mutex, mirroring the per-merchant
// advisory lock the real implementation takes.
type memLedgerRepo struct {
	mu      sync.Mutex
	entries []*model.LedgerEntry

	AppendFunc func(ctx context.Context, tx repository.Tx, e *model.LedgerEntry) (*model.LedgerEntry, error)
}

func newMemLedgerRepo() *memLedgerRepo {
	return &memLedgerRepo{}
}

func (m *memLedgerRepo) Append(ctx context.Context, tx repository.Tx, e *model.LedgerEntry) (*model.LedgerEntry, error) {
	if m.AppendFunc != nil {
		return m.AppendFunc(ctx, tx, e)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	balance := m.balanceLocked(e.MerchantID)
	cp := *e
	cp.Seq = int64(len(m.entries) + 1)
	cp.BalanceAfter = balance.Add(e.Amount)
	m.entries = append(m.entries, &cp)
	out := cp
	return &out, nil
}

func (m *memLedgerRepo) balanceLocked(merchantID string) decimal.Decimal {
	balance := decimal.Zero
	for _, e := range m.entries {
		if e.MerchantID == merchantID {
			balance = e.BalanceAfter
		}
	}
	return balance
}

func (m *memLedgerRepo) Balance(ctx context.Context, tx repository.Tx, merchantID string) (decimal.Decimal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.balanceLocked(merchantID), nil
}

func (m *memLedgerRepo) FindCreditByPayment(ctx context.Context, tx repository.Tx, paymentID string) (*model.LedgerEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.entries {
		if e.PaymentID != nil && *e.PaymentID == paymentID && e.Type == model.MovementCredit {
			cp := *e
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memLedgerRepo) ListByMerchant(ctx context.Context, tx repository.Tx, merchantID string, limit int) ([]*model.LedgerEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.LedgerEntry
	for i := len(m.entries) - 1; i >= 0; i-- {
		if m.entries[i].MerchantID == merchantID {
			cp := *m.entries[i]
			out = append(out, &cp)
			if limit > 0 && len(out) >= limit {
				break
			}
		}
	}
	return out, nil
}

func (m *memLedgerRepo) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

type memAffiliateRepo struct {
	mu           sync.Mutex
	attributions map[string]*model.AffiliateAttribution // keyed by payment_id
	conversions  map[string]*model.AffiliateConversion  // keyed by payment_id
}

func newMemAffiliateRepo() *memAffiliateRepo {
	return &memAffiliateRepo{
		attributions: make(map[string]*model.AffiliateAttribution),
		conversions:  make(map[string]*model.AffiliateConversion),
	}
}

func (m *memAffiliateRepo) SaveAttribution(a *model.AffiliateAttribution) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *a
	m.attributions[a.PaymentID] = &cp
}

func (m *memAffiliateRepo) FindAttribution(ctx context.Context, tx repository.Tx, paymentID string) (*model.AffiliateAttribution, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.attributions[paymentID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (m *memAffiliateRepo) SaveConversion(ctx context.Context, tx repository.Tx, c *model.AffiliateConversion) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.conversions[c.PaymentID]; ok {
		return domain.ErrAlreadyExists
	}
	cp := *c
	m.conversions[c.PaymentID] = &cp
	return nil
}

func (m *memAffiliateRepo) ListConversionsByAffiliate(ctx context.Context, tx repository.Tx, affiliateID string, limit int) ([]*model.AffiliateConversion, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.AffiliateConversion
	for _, c := range m.conversions {
		if c.AffiliateID == affiliateID {
			cp := *c
			out = append(out, &cp)
			if limit > 0 && len(out) >= limit {
				break
			}
		}
	}
	return out, nil
}
