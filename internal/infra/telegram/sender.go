package telegram

import (
	"context"
	"errors"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"telegram-merchant-commerce/internal/config"
	"telegram-merchant-commerce/internal/domain/ports/adapter"
)

// Sender pushes notification text to Telegram chats via the Bot API.
type Sender struct {
	bot *tgbotapi.BotAPI
	log *zerolog.Logger
}

var _ adapter.MessageSender = (*Sender)(nil)

func NewSender(cfg *config.BotConfig, logger *zerolog.Logger) (*Sender, error) {
	if cfg == nil || cfg.Token == "" {
		return nil, errors.New("telegram: bot token is required")
	}
	bot, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, err
	}
	sendLog := logger.With().Str("component", "TelegramSender").Logger()
	sendLog.Info().Str("bot", bot.Self.UserName).Msg("telegram sender ready")
	return &Sender{bot: bot, log: &sendLog}, nil
}

func (s *Sender) Send(ctx context.Context, chatID int64, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := tgbotapi.NewMessage(chatID, text)
	_, err := s.bot.Send(msg)
	return err
}
