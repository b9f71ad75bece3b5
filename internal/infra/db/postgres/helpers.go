package postgres

import (
	"context"
	"errors"
	"hash/fnv"
	"net"
	"strings"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"telegram-merchant-commerce/internal/domain"
)

// classifyError maps driver failures onto domain sentinels so callers (and
// the retry decorator) can tell a transient outage from a constraint hit.
func classifyError(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == "23505":
			return domain.ErrAlreadyExists
		case strings.HasPrefix(pgErr.Code, "08"), // connection exceptions
			strings.HasPrefix(pgErr.Code, "53"), // insufficient resources
			pgErr.Code == "57P03",               // cannot_connect_now
			pgErr.Code == "40001",               // serialization_failure
			pgErr.Code == "40P01":               // deadlock_detected
			return domain.ErrUnavailable
		}
		return err
	}
	var netErr net.Error
	if errors.As(err, &netErr) || pgconn.Timeout(err) {
		return domain.ErrUnavailable
	}
	return err
}

// execSQL runs a statement against the tx when one is live, the pool otherwise.
func execSQL(ctx context.Context, pool *pgxpool.Pool, tx interface{}, sql string, args ...interface{}) (pgconn.CommandTag, error) {
	exec, err := getExecutor(pool, tx)
	if err != nil {
		return nil, err
	}
	tag, err := exec.Exec(ctx, sql, args...)
	if err != nil {
		return nil, classifyError(err)
	}
	return tag, nil
}

// pickRow returns a single-row query handle bound to the tx or pool.
func pickRow(ctx context.Context, pool *pgxpool.Pool, tx interface{}, sql string, args ...interface{}) (pgx.Row, error) {
	exec, err := getExecutor(pool, tx)
	if err != nil {
		return nil, err
	}
	return exec.QueryRow(ctx, sql, args...), nil
}

// queryRows returns a multi-row result bound to the tx or pool.
func queryRows(ctx context.Context, pool *pgxpool.Pool, tx interface{}, sql string, args ...interface{}) (pgx.Rows, error) {
	exec, err := getExecutor(pool, tx)
	if err != nil {
		return nil, err
	}
	rows, err := exec.Query(ctx, sql, args...)
	if err != nil {
		return nil, classifyError(err)
	}
	return rows, nil
}

// scanError normalizes Scan failures: missing rows become ErrNotFound,
// transient faults keep their class, everything else is a read failure.
func scanError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrNotFound
	}
	if c := classifyError(err); errors.Is(c, domain.ErrUnavailable) {
		return c
	}
	return domain.ErrReadDatabaseRow
}

func hashToInt64(s string) int64 {
	h := fnv.New64a()
	h.Write([]byte(s))
	return int64(h.Sum64() & ((1 << 63) - 1))
}
