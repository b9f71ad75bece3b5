// File: internal/usecase/subscription_uc.go
package usecase

import (
	"context"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"telegram-merchant-commerce/internal/domain/model"
	"telegram-merchant-commerce/internal/domain/ports/adapter"
	"telegram-merchant-commerce/internal/domain/ports/repository"
	"telegram-merchant-commerce/internal/infra/logging"
	"telegram-merchant-commerce/internal/infra/metrics"
	"telegram-merchant-commerce/internal/infra/retry"
)

// Compile-time check
var _ SubscriptionQueryUseCase = (*subscriptionUC)(nil)

// SubscriptionQueryUseCase serves reads for the staff API and drives the
// expiry sweep. Grant/renewal writes belong to the reconciler alone.
type SubscriptionQueryUseCase interface {
	Get(ctx context.Context, userID, serviceID string) (*model.Subscription, error)
	// ExpireDue transitions past-due active grants to expired and returns
	// how many were swept.
	ExpireDue(ctx context.Context, now time.Time, limit int) (int, error)
}

type subscriptionUC struct {
	subs        repository.SubscriptionRepository
	tm          repository.TransactionManager
	notifier    adapter.Notifier
	retryPolicy retry.Policy
	log         *zerolog.Logger
}

func NewSubscriptionQueryUseCase(subs repository.SubscriptionRepository, tm repository.TransactionManager, notifier adapter.Notifier, retryPolicy retry.Policy, logger *zerolog.Logger) *subscriptionUC {
	return &subscriptionUC{subs: subs, tm: tm, notifier: notifier, retryPolicy: retryPolicy, log: logger}
}

func (u *subscriptionUC) Get(ctx context.Context, userID, serviceID string) (*model.Subscription, error) {
	defer logging.TraceDuration(u.log, "SubscriptionUC.Get")()
	var sub *model.Subscription
	err := retry.Do(ctx, u.retryPolicy, u.log, "subscription.get", func() error {
		var err error
		sub, err = u.subs.FindByUserAndService(ctx, repository.NoTX, userID, serviceID)
		return err
	})
	return sub, err
}

func (u *subscriptionUC) ExpireDue(ctx context.Context, now time.Time, limit int) (int, error) {
	defer logging.TraceDuration(u.log, "SubscriptionUC.ExpireDue")()
	var expired []*model.Subscription
	err := retry.Do(ctx, u.retryPolicy, u.log, "subscription.expire", func() error {
		return u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
			due, err := u.subs.ListExpired(ctx, tx, now, limit)
			if err != nil {
				return err
			}
			if len(due) == 0 {
				expired = nil
				return nil
			}
			ids := make([]string, 0, len(due))
			for _, s := range due {
				ids = append(ids, s.ID)
			}
			if err := u.subs.MarkExpired(ctx, tx, ids, now); err != nil {
				return err
			}
			expired = due
			return nil
		})
	})
	if err != nil {
		return 0, err
	}
	for _, s := range expired {
		u.notifier.Enqueue(adapter.NotificationIntent{
			Kind:      "subscription_expired",
			UserID:    s.UserID,
			ServiceID: s.ServiceID,
		})
	}
	metrics.IncSubscriptionsExpired(len(expired))
	return len(expired), nil
}
