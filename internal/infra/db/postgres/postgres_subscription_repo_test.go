//go:build integration

package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"telegram-merchant-commerce/internal/domain/model"
)

func TestSubscriptionRepo_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode.")
	}
	ctx := context.Background()
	repo := NewSubscriptionRepo(testPool)

	newActiveSub := func(userID, serviceID, merchantID, tierID string, expiresAt *time.Time) *model.Subscription {
		now := time.Now()
		return &model.Subscription{
			ID:         uuid.NewString(),
			UserID:     userID,
			ServiceID:  serviceID,
			MerchantID: merchantID,
			TierID:     tierID,
			Status:     model.SubscriptionStatusActive,
			ExpiresAt:  expiresAt,
			Renewals:   1,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
	}

	t.Run("upsert keeps one row per user and service", func(t *testing.T) {
		merchantID, userID, tierID, serviceID := seedCommerce(t, ctx)
		exp := time.Now().AddDate(0, 1, 0)
		sub := newActiveSub(userID, serviceID, merchantID, tierID, &exp)
		if err := repo.Upsert(ctx, nil, sub); err != nil {
			t.Fatalf("first upsert: %v", err)
		}

		// A renewal writes through the same row even with a fresh ID.
		renewed := newActiveSub(userID, serviceID, merchantID, tierID, nil)
		renewed.Renewals = 2
		if err := repo.Upsert(ctx, nil, renewed); err != nil {
			t.Fatalf("second upsert: %v", err)
		}

		found, err := repo.FindByUserAndService(ctx, nil, userID, serviceID)
		if err != nil {
			t.Fatalf("find: %v", err)
		}
		if found.ID != sub.ID {
			t.Errorf("row id changed to %s, must stay %s", found.ID, sub.ID)
		}
		if found.Renewals != 2 || found.ExpiresAt != nil {
			t.Errorf("renewal fields not applied: renewals=%d expires=%v", found.Renewals, found.ExpiresAt)
		}
	})

	t.Run("ListExpired and MarkExpired sweep only past-due active rows", func(t *testing.T) {
		merchantID, userID, tierID, serviceID := seedCommerce(t, ctx)

		userRepo := NewUserRepo(testPool)
		user2 := uuid.NewString()
		user3 := uuid.NewString()
		userRepo.Save(ctx, nil, &model.User{ID: user2, TelegramID: 222, CreatedAt: time.Now()})
		userRepo.Save(ctx, nil, &model.User{ID: user3, TelegramID: 333, CreatedAt: time.Now()})

		past := time.Now().Add(-time.Hour)
		future := time.Now().Add(time.Hour)
		due := newActiveSub(userID, serviceID, merchantID, tierID, &past)
		live := newActiveSub(user2, serviceID, merchantID, tierID, &future)
		unlimited := newActiveSub(user3, serviceID, merchantID, tierID, nil)
		for _, s := range []*model.Subscription{due, live, unlimited} {
			if err := repo.Upsert(ctx, nil, s); err != nil {
				t.Fatalf("upsert: %v", err)
			}
		}

		expired, err := repo.ListExpired(ctx, nil, time.Now(), 100)
		if err != nil {
			t.Fatalf("list expired: %v", err)
		}
		if len(expired) != 1 || expired[0].ID != due.ID {
			t.Fatalf("expected only the past-due row, got %d", len(expired))
		}

		if err := repo.MarkExpired(ctx, nil, []string{due.ID}, time.Now()); err != nil {
			t.Fatalf("mark expired: %v", err)
		}

		found, _ := repo.FindByUserAndService(ctx, nil, userID, serviceID)
		if found.Status != model.SubscriptionStatusExpired {
			t.Errorf("status = %s, want expired", found.Status)
		}
		still, _ := repo.FindByUserAndService(ctx, nil, user2, serviceID)
		if still.Status != model.SubscriptionStatusActive {
			t.Errorf("future-dated row swept: %s", still.Status)
		}
	})
}
