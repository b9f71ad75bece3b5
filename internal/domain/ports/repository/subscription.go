package repository

import (
	"context"
	"time"

	"telegram-merchant-commerce/internal/domain/model"
)

type SubscriptionRepository interface {
	// Upsert inserts or updates the single row for (user_id, service_id).
	// The unique constraint on that pair is what keeps concurrent first
	// purchases from creating siblings.
	Upsert(ctx context.Context, tx Tx, s *model.Subscription) error
	FindByUserAndService(ctx context.Context, tx Tx, userID, serviceID string) (*model.Subscription, error)
	ListExpired(ctx context.Context, tx Tx, asOf time.Time, limit int) ([]*model.Subscription, error)
	MarkExpired(ctx context.Context, tx Tx, ids []string, at time.Time) error
}
