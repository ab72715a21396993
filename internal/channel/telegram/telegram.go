package telegram

import (
	"context"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/clinichub/clinic-gateway/internal/channel"
)

type TelegramAdapter struct {
	bot      *tgbotapi.BotAPI
	token    string
	incoming chan *channel.Message
}

func NewTelegramAdapter(token string) *TelegramAdapter {
	return &TelegramAdapter{
		token:    token,
		incoming: make(chan *channel.Message, 100),
	}
}

func (t *TelegramAdapter) Name() string {
	return "telegram"
}

func (t *TelegramAdapter) IsEnabled() bool {
	return t.token != ""
}

func (t *TelegramAdapter) Start(ctx context.Context) error {
	bot, err := tgbotapi.NewBotAPI(t.token)
	if err != nil {
		return err
	}
	t.bot = bot
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := t.bot.GetUpdatesChan(u)
	go func() {
		for update := range updates {
			msg := toMessage(update)
			if msg != nil {
				t.incoming <- msg
			}
		}
	}()
	return nil
}

func toMessage(update tgbotapi.Update) *channel.Message {
	switch {
	case update.CallbackQuery != nil:
		cq := update.CallbackQuery
		return &channel.Message{
			ID:        cq.ID,
			Channel:   "telegram",
			UserID:    strconv.FormatInt(cq.Message.Chat.ID, 10),
			Postback:  cq.Data,
			Metadata:  map[string]string{"from_id": strconv.FormatInt(cq.From.ID, 10)},
			Timestamp: int64(cq.Message.Date),
		}
	case update.Message != nil:
		m := update.Message
		return &channel.Message{
			ID:        strconv.Itoa(m.MessageID),
			Channel:   "telegram",
			UserID:    strconv.FormatInt(m.Chat.ID, 10),
			Content:   m.Text,
			Metadata:  map[string]string{"from_id": strconv.FormatInt(m.From.ID, 10)},
			Timestamp: int64(m.Date),
		}
	default:
		return nil
	}
}

// Stop halts the update poller. The incoming channel is never closed; the
// read goroutine drains to the end of the updates stream and exits.
func (t *TelegramAdapter) Stop() error {
	if t.bot != nil {
		t.bot.StopReceivingUpdates()
	}
	return nil
}

func (t *TelegramAdapter) SendMessage(userID string, resp *channel.Response) error {
	chatID, err := strconv.ParseInt(userID, 10, 64)
	if err != nil {
		return err
	}
	reply := tgbotapi.NewMessage(chatID, resp.Content)
	if len(resp.QuickReplies) > 0 {
		reply.ReplyMarkup = quickReplyKeyboard(resp.QuickReplies)
	}
	_, err = t.bot.Send(reply)
	return err
}

// Quick replies map onto an inline keyboard, one button per row.
func quickReplyKeyboard(qrs []channel.QuickReply) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(qrs))
	for _, qr := range qrs {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(qr.Title, qr.Payload),
		))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func (t *TelegramAdapter) SendTyping(userID string, on bool) error {
	if !on {
		return nil // Telegram typing indicators expire on their own
	}
	chatID, err := strconv.ParseInt(userID, 10, 64)
	if err != nil {
		return err
	}
	action := tgbotapi.NewChatAction(chatID, tgbotapi.ChatTyping)
	_, err = t.bot.Request(action)
	return err
}

func (t *TelegramAdapter) Incoming() <-chan *channel.Message {
	return t.incoming
}
