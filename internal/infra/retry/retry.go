package retry

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"

	"telegram-merchant-commerce/internal/domain"
	"telegram-merchant-commerce/internal/infra/metrics"
)

// Policy bounds the exponential backoff applied to transient storage
// faults: BaseDelay doubles on each attempt up to MaxAttempts total tries.
type Policy struct {
	BaseDelay   time.Duration `yaml:"base_delay"`
	MaxAttempts int           `yaml:"max_attempts"`
}

func (p Policy) normalized() Policy {
	if p.BaseDelay <= 0 {
		p.BaseDelay = 100 * time.Millisecond
	}
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = 4
	}
	return p
}

// Do runs fn, retrying transient storage errors (domain.IsTransient) with
// exponential backoff. Non-transient errors propagate immediately. This is
// the single decorator applied around every storage operation the
// reconciliation core performs; once the attempt ceiling is exceeded the
// last error is surfaced to the caller.
func Do(ctx context.Context, p Policy, logger *zerolog.Logger, op string, fn func() error) error {
	p = p.normalized()

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.BaseDelay
	b.Multiplier = 2
	b.RandomizationFactor = 0
	b.MaxElapsedTime = 0

	attempt := 0
	wrapped := func() error {
		attempt++
		err := fn()
		if err == nil {
			return nil
		}
		if !domain.IsTransient(err) {
			return backoff.Permanent(err)
		}
		metrics.IncStorageRetry(op)
		if logger != nil {
			logger.Warn().Str("op", op).Int("attempt", attempt).Err(err).Msg("transient storage fault, backing off")
		}
		return err
	}

	return backoff.Retry(wrapped, backoff.WithContext(backoff.WithMaxRetries(b, uint64(p.MaxAttempts-1)), ctx))
}
