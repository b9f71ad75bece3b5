package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v4/pgxpool"

	"telegram-merchant-commerce/internal/domain"
	"telegram-merchant-commerce/internal/domain/model"
	"telegram-merchant-commerce/internal/domain/ports/repository"
)

var _ repository.UserRepository = (*userRepo)(nil)

type userRepo struct{ pool *pgxpool.Pool }

func NewUserRepo(pool *pgxpool.Pool) *userRepo {
	return &userRepo{pool: pool}
}

func (r *userRepo) Save(ctx context.Context, tx repository.Tx, u *model.User) error {
	const q = `
INSERT INTO users (id, telegram_id, created_at)
VALUES ($1,$2,$3)
ON CONFLICT (id) DO UPDATE SET telegram_id=$2;`
	_, err := execSQL(ctx, r.pool, tx, q, u.ID, u.TelegramID, u.CreatedAt)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidArgument), errors.Is(err, domain.ErrInvalidExecContext), errors.Is(err, domain.ErrUnavailable):
			return err
		default:
			return domain.ErrOperationFailed
		}
	}
	return nil
}

func (r *userRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.User, error) {
	const q = `SELECT id, telegram_id, created_at FROM users WHERE id=$1;`
	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}
	u := &model.User{}
	if err := row.Scan(&u.ID, &u.TelegramID, &u.CreatedAt); err != nil {
		return nil, scanError(err)
	}
	return u, nil
}
