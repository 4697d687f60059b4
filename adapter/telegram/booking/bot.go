// Package booking connects the customer-facing Telegram bot to the booking
// conversation.
package booking

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/felixgeelhaar/reserva/internal/conversation/application"
	conversation "github.com/felixgeelhaar/reserva/internal/conversation/domain"
	"github.com/felixgeelhaar/reserva/internal/telegram"
	"github.com/felixgeelhaar/reserva/pkg/observability"
)

// Messenger is the part of the Bot API the bot uses.
type Messenger interface {
	SendMessage(ctx context.Context, req telegram.SendMessageRequest) (*telegram.Message, error)
	EditMessageText(ctx context.Context, req telegram.EditMessageTextRequest) error
	AnswerCallbackQuery(ctx context.Context, callbackID, text string) error
}

// Conversation runs booking steps.
type Conversation interface {
	Handle(ctx context.Context, userID int64, username string, action conversation.Action) (application.Reply, error)
	Welcome() application.Reply
	Info() application.Reply
}

// Bot turns updates into conversation actions and sends the replies.
type Bot struct {
	api    Messenger
	conv   Conversation
	logger *slog.Logger
}

// NewBot creates a new Bot.
func NewBot(api Messenger, conv Conversation, logger *slog.Logger) *Bot {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bot{api: api, conv: conv, logger: logger}
}

// HandleUpdate implements telegram.Handler.
func (b *Bot) HandleUpdate(ctx context.Context, update telegram.Update) {
	ctx = observability.NewRequestContext(ctx, "")
	switch {
	case update.CallbackQuery != nil:
		b.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil:
		b.handleMessage(ctx, update.Message)
	}
}

func (b *Bot) handleMessage(ctx context.Context, msg *telegram.Message) {
	chatID := msg.Chat.ID
	ctx = observability.WithChatID(ctx, strconv.FormatInt(chatID, 10))
	userID, username := chatID, ""
	if msg.From != nil {
		userID, username = msg.From.ID, msg.From.Username
	}

	command, _ := msg.Command()
	switch command {
	case "":
		b.step(ctx, chatID, 0, userID, username, conversation.ContactAction(msg.Text))
	case "/start":
		b.send(ctx, chatID, b.conv.Welcome())
	case "/info":
		b.send(ctx, chatID, b.conv.Info())
	case "/cancel":
		b.step(ctx, chatID, 0, userID, username, conversation.CancelAction())
	}
}

func (b *Bot) handleCallback(ctx context.Context, query *telegram.CallbackQuery) {
	if err := b.api.AnswerCallbackQuery(ctx, query.ID, ""); err != nil {
		b.logger.WarnContext(ctx, "answer callback failed", observability.ErrorKey, err)
	}
	if query.Message == nil {
		return
	}
	chatID := query.Message.Chat.ID
	ctx = observability.WithChatID(ctx, strconv.FormatInt(chatID, 10))

	action, err := conversation.ParseCallback(query.Data)
	if err != nil {
		b.logger.WarnContext(ctx, "ignoring callback", "data", query.Data, observability.ErrorKey, err)
		return
	}
	b.step(ctx, chatID, query.Message.MessageID, query.From.ID, query.From.Username, action)
}

func (b *Bot) step(ctx context.Context, chatID, messageID, userID int64, username string, action conversation.Action) {
	reply, err := b.conv.Handle(ctx, userID, username, action)
	if err != nil {
		if !application.IsInterrupted(err) {
			b.logger.ErrorContext(ctx, "conversation step failed", "action", string(action.Kind), observability.ErrorKey, err)
		}
		return
	}

	if reply.Edit && messageID != 0 {
		err := b.api.EditMessageText(ctx, telegram.EditMessageTextRequest{
			ChatID:      chatID,
			MessageID:   messageID,
			Text:        reply.Text,
			ParseMode:   reply.ParseMode,
			ReplyMarkup: Keyboard(reply.Keyboard),
		})
		if err == nil || telegram.IsNotModified(err) {
			return
		}
		b.logger.WarnContext(ctx, "edit failed, sending instead", observability.ErrorKey, err)
	}
	b.send(ctx, chatID, reply)
}

func (b *Bot) send(ctx context.Context, chatID int64, reply application.Reply) {
	_, err := b.api.SendMessage(ctx, telegram.SendMessageRequest{
		ChatID:      chatID,
		Text:        reply.Text,
		ParseMode:   reply.ParseMode,
		ReplyMarkup: Keyboard(reply.Keyboard),
	})
	if err != nil {
		b.logger.ErrorContext(ctx, "send reply failed", observability.ErrorKey, err)
	}
}

// Keyboard converts reply buttons to an inline keyboard; nil for none.
func Keyboard(rows [][]application.Button) *telegram.InlineKeyboardMarkup {
	if len(rows) == 0 {
		return nil
	}
	markup := &telegram.InlineKeyboardMarkup{InlineKeyboard: make([][]telegram.InlineKeyboardButton, 0, len(rows))}
	for _, row := range rows {
		buttons := make([]telegram.InlineKeyboardButton, 0, len(row))
		for _, button := range row {
			buttons = append(buttons, telegram.InlineKeyboardButton{Text: button.Text, CallbackData: button.Data})
		}
		markup.InlineKeyboard = append(markup.InlineKeyboard, buttons)
	}
	return markup
}
