package push

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/Badsnus/festival-booking/internal/domain/dto"
	"github.com/Badsnus/festival-booking/pkg/logger/types"
	"go.uber.org/zap/zapcore"
	tele "gopkg.in/telebot.v3"
)

// Telegram sends messages through a bot that is never polled.
type Telegram struct {
	bot    *tele.Bot
	logger *types.Logger
}

func NewTelegram(token string, logger *types.Logger) (*Telegram, error) {
	bot, err := tele.NewBot(tele.Settings{
		Token:   token,
		Offline: true,
	})
	if err != nil {
		return nil, err
	}
	return &Telegram{bot: bot, logger: logger}, nil
}

// Send delivers to the chat id stored as the subscription token.
func (t *Telegram) Send(_ context.Context, token string, message dto.PushMessage) error {
	chatID, err := strconv.ParseInt(token, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid chat id %q: %w", token, err)
	}
	_, err = t.bot.Send(tele.ChatID(chatID), fmt.Sprintf("%s\n\n%s", message.Title, message.Body))
	return err
}

// LogHook returns a log hook for the specified channel
//
// Parameters:
//   - channelID is the channel to send the log to
//   - level is the minimum log level to send
func (t *Telegram) LogHook(channelID int64, level zapcore.Level) types.LogHook {
	chat := tele.ChatID(channelID)
	return func(log types.Log) {
		if log.Level < level {
			return
		}
		_, err := t.bot.Send(chat, log.String())
		if err != nil && !strings.Contains(log.Message, "failed to send log to channel") {
			t.logger.Errorf("failed to send log to channel %d: %v", channelID, err)
		}
	}
}
