// File: internal/infra/worker/pool.go
package worker

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"telegram-merchant-commerce/internal/domain/ports/adapter"
	"telegram-merchant-commerce/internal/domain/ports/repository"
)

// DispatchPool drains post-commit notification intents into a MessageSender.
// Enqueue never blocks: when the buffer is full the intent is dropped and
// counted, because committed financial state must not wait on Telegram.
type DispatchPool struct {
	intents chan adapter.NotificationIntent
	sender  adapter.MessageSender
	users   repository.UserRepository
	workers int
	wg      sync.WaitGroup
	log     *zerolog.Logger
}

var _ adapter.Notifier = (*DispatchPool)(nil)

func NewDispatchPool(workers, buffer int, sender adapter.MessageSender, users repository.UserRepository, logger *zerolog.Logger) *DispatchPool {
	if workers <= 0 {
		workers = 2
	}
	if buffer <= 0 {
		buffer = 256
	}
	poolLog := logger.With().Str("component", "DispatchPool").Logger()
	return &DispatchPool{
		intents: make(chan adapter.NotificationIntent, buffer),
		sender:  sender,
		users:   users,
		workers: workers,
		log:     &poolLog,
	}
}

func (p *DispatchPool) Start(ctx context.Context) {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case intent := <-p.intents:
					p.dispatch(ctx, intent)
				}
			}
		}()
	}
}

func (p *DispatchPool) Stop() {
	p.wg.Wait()
}

func (p *DispatchPool) Enqueue(intent adapter.NotificationIntent) bool {
	select {
	case p.intents <- intent:
		return true
	default:
		p.log.Warn().Str("kind", intent.Kind).Str("user_id", intent.UserID).Msg("notification queue full, intent dropped")
		return false
	}
}

func (p *DispatchPool) dispatch(ctx context.Context, intent adapter.NotificationIntent) {
	user, err := p.users.FindByID(ctx, repository.NoTX, intent.UserID)
	if err != nil {
		p.log.Error().Err(err).Str("user_id", intent.UserID).Msg("resolve user for notification failed")
		return
	}
	text := composeMessage(intent)
	if text == "" {
		p.log.Warn().Str("kind", intent.Kind).Msg("unknown notification kind")
		return
	}
	if err := p.sender.Send(ctx, user.TelegramID, text); err != nil {
		p.log.Error().Err(err).Str("kind", intent.Kind).Str("user_id", intent.UserID).Msg("notification send failed")
	}
}

func composeMessage(intent adapter.NotificationIntent) string {
	switch intent.Kind {
	case "payment_applied":
		return fmt.Sprintf("✅ Payment received (ref %s). Your subscription is active.", intent.ChargeRef)
	case "payment_refunded":
		return fmt.Sprintf("↩️ Your payment (ref %s) was refunded.", intent.ChargeRef)
	case "subscription_expired":
		return "⏰ Your subscription has expired. Renew any time to regain access."
	default:
		return ""
	}
}
