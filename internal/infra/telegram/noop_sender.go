package telegram

import (
	"context"

	"github.com/rs/zerolog"

	"telegram-merchant-commerce/internal/domain/ports/adapter"
)

// NoopSender logs instead of sending. Used when no bot token is configured,
// so the reconciler can run headless in tests and local setups.
type NoopSender struct {
	log *zerolog.Logger
}

var _ adapter.MessageSender = (*NoopSender)(nil)

func NewNoopSender(logger *zerolog.Logger) *NoopSender {
	noopLog := logger.With().Str("component", "NoopSender").Logger()
	return &NoopSender{log: &noopLog}
}

func (s *NoopSender) Send(_ context.Context, chatID int64, text string) error {
	s.log.Debug().Int64("chat_id", chatID).Str("text", text).Msg("notification suppressed")
	return nil
}
