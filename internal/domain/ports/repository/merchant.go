package repository

import (
	"context"

	"telegram-merchant-commerce/internal/domain/model"
)

type MerchantRepository interface {
	Save(ctx context.Context, tx Tx, m *model.Merchant) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.Merchant, error)
	FindPlan(ctx context.Context, tx Tx, planID string) (*model.MerchantPlan, error)
}
