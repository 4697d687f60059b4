package admin

import (
	"context"
	"fmt"
	"strconv"

	"github.com/felixgeelhaar/reserva/internal/reservation/application/services"
	"github.com/felixgeelhaar/reserva/internal/telegram"
)

// Sender delivers admin notifications through the admin bot.
type Sender struct {
	api Messenger
}

// NewSender creates a new Sender.
func NewSender(api Messenger) *Sender {
	return &Sender{api: api}
}

// Send implements services.Sender. Buttons share one keyboard row.
func (s *Sender) Send(ctx context.Context, chatID string, notification services.Notification) error {
	id, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid admin chat id %q: %w", chatID, err)
	}

	req := telegram.SendMessageRequest{ChatID: id, Text: notification.Text}
	if len(notification.Buttons) > 0 {
		row := make([]telegram.InlineKeyboardButton, 0, len(notification.Buttons))
		for _, button := range notification.Buttons {
			row = append(row, telegram.InlineKeyboardButton{Text: button.Text, CallbackData: button.Data})
		}
		req.ReplyMarkup = &telegram.InlineKeyboardMarkup{InlineKeyboard: [][]telegram.InlineKeyboardButton{row}}
	}

	_, err = s.api.SendMessage(ctx, req)
	return err
}
