package sched

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"telegram-merchant-commerce/internal/usecase"
)

// ExpiryWorker periodically sweeps past-due active subscriptions to expired.
type ExpiryWorker struct {
	interval  time.Duration
	batchSize int
	subsUC    usecase.SubscriptionQueryUseCase
	log       *zerolog.Logger
}

func NewExpiryWorker(interval time.Duration, batchSize int, subsUC usecase.SubscriptionQueryUseCase, logger *zerolog.Logger) *ExpiryWorker {
	if interval <= 0 {
		interval = time.Hour
	}
	if batchSize <= 0 {
		batchSize = 500
	}
	exprLog := logger.With().Str("component", "ExpiryWorker").Logger()
	return &ExpiryWorker{
		interval:  interval,
		batchSize: batchSize,
		subsUC:    subsUC,
		log:       &exprLog,
	}
}

func (w *ExpiryWorker) Run(ctx context.Context) error {
	w.log.Info().Msg("Starting expiry worker")
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Stopping expiry worker")
			return ctx.Err()
		case <-ticker.C:
			n, err := w.subsUC.ExpireDue(ctx, time.Now(), w.batchSize)
			if err != nil {
				w.log.Error().Err(err).Msg("expiry sweep failed")
				continue
			}
			if n > 0 {
				w.log.Info().Int("count", n).Msg("subscriptions expired")
			}
		}
	}
}
