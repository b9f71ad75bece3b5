package repository

import (
	"context"
	"time"

	"telegram-merchant-commerce/internal/domain/model"
)

type PaymentRepository interface {
	Save(ctx context.Context, tx Tx, p *model.Payment) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.Payment, error)
	// FindPendingForPurchase locates the open purchase attempt the event
	// refers to. Inside a transaction the row is locked FOR UPDATE.
	FindPendingForPurchase(ctx context.Context, tx Tx, userID, tierID string) (*model.Payment, error)
	// UpdateStatusIfPending atomically transitions status only when the row
	// is still pending; reports whether a row was actually moved.
	UpdateStatusIfPending(ctx context.Context, tx Tx, id string, status model.PaymentStatus, providerRef *string, paidAt *time.Time) (bool, error)
	UpdateStatus(ctx context.Context, tx Tx, id string, status model.PaymentStatus, providerRef *string, paidAt *time.Time) error
	ListPendingOlderThan(ctx context.Context, tx Tx, olderThan time.Time, limit int) ([]*model.Payment, error)
}
