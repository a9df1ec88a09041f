package error_notificator

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// sender — то, что нужно от *tgbotapi.BotAPI
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

type Infra struct {
	bot     sender
	chatIDs []int64
}

// NewTelegramInfra поднимает бота для алертов. tgbotapi.NewBotAPI сразу ходит в getMe.
func NewTelegramInfra(token string, chatIDs []int64) (*Infra, error) {
	if token == "" {
		return nil, fmt.Errorf("telegram token is empty")
	}
	if len(chatIDs) == 0 {
		return nil, fmt.Errorf("no telegram chat ids for alerts")
	}

	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("init telegram bot: %w", err)
	}

	return newInfra(bot, chatIDs), nil
}

func newInfra(bot sender, chatIDs []int64) *Infra {
	return &Infra{bot: bot, chatIDs: chatIDs}
}

func (i *Infra) Notify(ctx context.Context, source string, err error, details string) error {
	text := fmt.Sprintf(
		"❗ Ошибка в tartarus_chat (%s)\n\nОшибка: %v\n\nДетали: %s",
		source,
		err,
		details,
	)

	for _, chatID := range i.chatIDs {
		if _, sendErr := i.bot.Send(tgbotapi.NewMessage(chatID, text)); sendErr != nil {
			log.Printf("[error_notificator] send fail to %d: %v", chatID, sendErr)
			return sendErr
		}
	}

	return nil
}

// ParseChatIDs разбирает "123,456" из env
func ParseChatIDs(raw string) ([]int64, error) {
	var ids []int64
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid chat id %q: %w", part, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
