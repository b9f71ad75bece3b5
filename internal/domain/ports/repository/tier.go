package repository

import (
	"context"

	"telegram-merchant-commerce/internal/domain/model"
)

type TierRepository interface {
	Save(ctx context.Context, tx Tx, t *model.Tier) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.Tier, error)
	ListByService(ctx context.Context, tx Tx, serviceID string) ([]*model.Tier, error)
}
