//go:build !integration

package postgres

import (
	"context"
	"time"

	"telegram-merchant-commerce/internal/domain/model"
	"telegram-merchant-commerce/internal/domain/ports/repository"
	red "telegram-merchant-commerce/internal/infra/redis"
)

// --- Mocks for cache decorator tests ---

type mockInnerTierRepo struct {
	SaveFunc          func(ctx context.Context, tx repository.Tx, t *model.Tier) error
	FindByIDFunc      func(ctx context.Context, tx repository.Tx, id string) (*model.Tier, error)
	ListByServiceFunc func(ctx context.Context, tx repository.Tx, serviceID string) ([]*model.Tier, error)
}

func (m *mockInnerTierRepo) Save(ctx context.Context, tx repository.Tx, t *model.Tier) error {
	return m.SaveFunc(ctx, tx, t)
}
func (m *mockInnerTierRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Tier, error) {
	return m.FindByIDFunc(ctx, tx, id)
}
func (m *mockInnerTierRepo) ListByService(ctx context.Context, tx repository.Tx, serviceID string) ([]*model.Tier, error) {
	return m.ListByServiceFunc(ctx, tx, serviceID)
}

var _ repository.TierRepository = (*mockInnerTierRepo)(nil)

type mockRedisClient struct {
	PingFunc   func(ctx context.Context) error
	SetFunc    func(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	GetFunc    func(ctx context.Context, key string) (string, error)
	IncrFunc   func(ctx context.Context, key string) (int64, error)
	ExpireFunc func(ctx context.Context, key string, expiration time.Duration) error
	DelFunc    func(ctx context.Context, keys ...string) error
}

func (m *mockRedisClient) Ping(ctx context.Context) error {
	if m.PingFunc != nil {
		return m.PingFunc(ctx)
	}
	return nil
}
func (m *mockRedisClient) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	if m.SetFunc != nil {
		return m.SetFunc(ctx, key, value, expiration)
	}
	return nil
}
func (m *mockRedisClient) Get(ctx context.Context, key string) (string, error) {
	return m.GetFunc(ctx, key)
}
func (m *mockRedisClient) Incr(ctx context.Context, key string) (int64, error) {
	if m.IncrFunc != nil {
		return m.IncrFunc(ctx, key)
	}
	return 0, nil
}
func (m *mockRedisClient) Expire(ctx context.Context, key string, expiration time.Duration) error {
	if m.ExpireFunc != nil {
		return m.ExpireFunc(ctx, key, expiration)
	}
	return nil
}
func (m *mockRedisClient) Del(ctx context.Context, keys ...string) error {
	if m.DelFunc != nil {
		return m.DelFunc(ctx, keys...)
	}
	return nil
}
func (m *mockRedisClient) Close() error { return nil }

var _ red.RedisClient = (*mockRedisClient)(nil)
