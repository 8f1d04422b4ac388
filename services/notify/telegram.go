package notify

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/pkg/errors"
)

type telegramSender struct {
	bot     *tgbotapi.BotAPI
	chatIDs []int64
}

var _ Sender = (*telegramSender)(nil)

func NewTelegramSender(token string, chatIDs []int64) (Sender, error) {
	return NewTelegramSenderWithEndpoint(token, tgbotapi.APIEndpoint, chatIDs)
}

// NewTelegramSenderWithEndpoint talks to a custom Bot API server; endpoint has the form ".../bot%s/%s".
func NewTelegramSenderWithEndpoint(token, endpoint string, chatIDs []int64) (Sender, error) {
	bot, err := tgbotapi.NewBotAPIWithAPIEndpoint(token, endpoint)
	if err != nil {
		return nil, errors.Wrap(err, "connecting telegram bot")
	}
	return &telegramSender{bot: bot, chatIDs: chatIDs}, nil
}

func (s *telegramSender) Name() string { return "telegram" }

func (s *telegramSender) Send(text string) error {
	for _, id := range s.chatIDs {
		if _, err := s.bot.Send(tgbotapi.NewMessage(id, text)); err != nil {
			return errors.Wrapf(err, "chat %d", id)
		}
	}
	return nil
}
