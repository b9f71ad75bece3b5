package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/shopspring/decimal"

	"telegram-merchant-commerce/internal/domain"
	"telegram-merchant-commerce/internal/domain/model"
	"telegram-merchant-commerce/internal/domain/ports/repository"
)

var _ repository.LedgerRepository = (*ledgerRepo)(nil)

type ledgerRepo struct{ pool *pgxpool.Pool }

func NewLedgerRepo(pool *pgxpool.Pool) *ledgerRepo {
	return &ledgerRepo{pool: pool}
}

const ledgerColumns = `id, seq, merchant_id, amount, type, description, balance_after, payment_id, created_at`

// Append serializes per merchant with a transaction-scoped advisory lock, so
// the balance snapshot can never be computed from a stale prior value. It
// therefore requires a live transaction; the lock releases on commit/abort.
func (r *ledgerRepo) Append(ctx context.Context, tx repository.Tx, e *model.LedgerEntry) (*model.LedgerEntry, error) {
	pgtx, ok := tx.(pgx.Tx)
	if !ok {
		return nil, domain.ErrInvalidExecContext
	}

	if _, err := pgtx.Exec(ctx, `SELECT pg_advisory_xact_lock($1);`, hashToInt64(e.MerchantID)); err != nil {
		return nil, classifyError(err)
	}

	prev, err := r.Balance(ctx, tx, e.MerchantID)
	if err != nil {
		return nil, err
	}
	e.BalanceAfter = prev.Add(e.Amount)

	// seq is assigned here, while the lock is held, so "last entry" lookups
	// follow lock order even when callers stamped id/created_at earlier.
	const q = `
INSERT INTO ledger_entries (
  id, merchant_id, amount, type, description, balance_after, payment_id, created_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
RETURNING seq;`

	row, err := pickRow(ctx, r.pool, tx, q, e.ID, e.MerchantID, e.Amount, e.Type, e.Description, e.BalanceAfter, e.PaymentID, e.CreatedAt)
	if err != nil {
		return nil, err
	}
	if err := row.Scan(&e.Seq); err != nil {
		err = classifyError(err)
		switch {
		case errors.Is(err, domain.ErrInvalidArgument), errors.Is(err, domain.ErrInvalidExecContext), errors.Is(err, domain.ErrUnavailable), errors.Is(err, domain.ErrAlreadyExists):
			return nil, err
		default:
			return nil, domain.ErrOperationFailed
		}
	}
	return e, nil
}

func (r *ledgerRepo) Balance(ctx context.Context, tx repository.Tx, merchantID string) (decimal.Decimal, error) {
	const q = `
SELECT COALESCE((
  SELECT balance_after
    FROM ledger_entries
   WHERE merchant_id=$1
   ORDER BY seq DESC
   LIMIT 1
), 0);`
	row, err := pickRow(ctx, r.pool, tx, q, merchantID)
	if err != nil {
		return decimal.Zero, err
	}
	var bal decimal.Decimal
	if err := row.Scan(&bal); err != nil {
		return decimal.Zero, scanError(err)
	}
	return bal, nil
}

func (r *ledgerRepo) FindCreditByPayment(ctx context.Context, tx repository.Tx, paymentID string) (*model.LedgerEntry, error) {
	const q = `SELECT ` + ledgerColumns + ` FROM ledger_entries WHERE payment_id=$1 AND type='credit' LIMIT 1;`
	row, err := pickRow(ctx, r.pool, tx, q, paymentID)
	if err != nil {
		return nil, err
	}
	return scanLedgerEntry(row)
}

func (r *ledgerRepo) ListByMerchant(ctx context.Context, tx repository.Tx, merchantID string, limit int) ([]*model.LedgerEntry, error) {
	if limit <= 0 {
		limit = 100
	}
	const q = `SELECT ` + ledgerColumns + ` FROM ledger_entries WHERE merchant_id=$1 ORDER BY seq DESC LIMIT $2;`
	rows, err := queryRows(ctx, r.pool, tx, q, merchantID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*model.LedgerEntry
	for rows.Next() {
		e, err := scanLedgerEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, scanError(err)
	}
	return out, nil
}

func scanLedgerEntry(row pgx.Row) (*model.LedgerEntry, error) {
	e := &model.LedgerEntry{}
	if err := row.Scan(&e.ID, &e.Seq, &e.MerchantID, &e.Amount, &e.Type, &e.Description, &e.BalanceAfter, &e.PaymentID, &e.CreatedAt); err != nil {
		return nil, scanError(err)
	}
	return e, nil
}
