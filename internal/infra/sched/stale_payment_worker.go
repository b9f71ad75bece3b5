package sched

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"telegram-merchant-commerce/internal/domain/model"
	"telegram-merchant-commerce/internal/domain/ports/repository"
)

// StalePaymentWorker scans for pending payments older than staleAfter and
// marks them failed. Covers checkouts whose provider webhook never arrived
// or where the process crashed before the event was applied. A late webhook
// for a failed payment is rejected by the pending-only status transition,
// so the sweep never races a live confirmation.
type StalePaymentWorker struct {
	payments   repository.PaymentRepository
	interval   time.Duration
	staleAfter time.Duration
	log        *zerolog.Logger
}

func NewStalePaymentWorker(payments repository.PaymentRepository, interval, staleAfter time.Duration, logger *zerolog.Logger) *StalePaymentWorker {
	if interval <= 0 {
		interval = 15 * time.Minute
	}
	if staleAfter <= 0 {
		staleAfter = 24 * time.Hour
	}
	compLog := logger.With().Str("component", "StalePaymentWorker").Logger()
	return &StalePaymentWorker{payments: payments, interval: interval, staleAfter: staleAfter, log: &compLog}
}

func (w *StalePaymentWorker) Run(ctx context.Context) error {
	w.log.Info().Msg("Starting stale payment worker")
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Stopping stale payment worker")
			return ctx.Err()
		case <-ticker.C:
			w.tick(ctx)
		}
	}
}

func (w *StalePaymentWorker) tick(ctx context.Context) {
	cutoff := time.Now().Add(-w.staleAfter)
	pending, err := w.payments.ListPendingOlderThan(ctx, repository.NoTX, cutoff, 200)
	if err != nil {
		w.log.Error().Err(err).Msg("list stale pending payments failed")
		return
	}
	for _, p := range pending {
		ok, err := w.payments.UpdateStatusIfPending(ctx, repository.NoTX, p.ID, model.PaymentStatusFailed, nil, nil)
		if err != nil {
			w.log.Error().Err(err).Str("payment_id", p.ID).Msg("mark stale payment failed")
			continue
		}
		if ok {
			w.log.Info().Str("payment_id", p.ID).Time("created_at", p.CreatedAt).Msg("stale pending payment marked failed")
		}
	}
}
