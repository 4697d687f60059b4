// Package admin connects the administrators' Telegram bot to login and the
// confirm/cancel workflow.
package admin

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	adminApplication "github.com/felixgeelhaar/reserva/internal/admin/application"
	adminDomain "github.com/felixgeelhaar/reserva/internal/admin/domain"
	"github.com/felixgeelhaar/reserva/internal/reservation/application/commands"
	"github.com/felixgeelhaar/reserva/internal/reservation/domain"
	"github.com/felixgeelhaar/reserva/internal/telegram"
	"github.com/felixgeelhaar/reserva/pkg/observability"
)

const (
	textLoginUsage  = "Usage: /login <username> <password>"
	textLoginOK     = "Login successful!"
	textLoginFailed = "Login failed. Invalid credentials."
	textLoginFirst  = "Please log in first using /login."
	textTryAgain    = "Something went wrong. Please try again."
)

// Messenger is the part of the Bot API the bot uses.
type Messenger interface {
	SendMessage(ctx context.Context, req telegram.SendMessageRequest) (*telegram.Message, error)
	EditMessageText(ctx context.Context, req telegram.EditMessageTextRequest) error
	AnswerCallbackQuery(ctx context.Context, callbackID, text string) error
}

// LoginHandler authenticates a chat.
type LoginHandler interface {
	Handle(ctx context.Context, cmd adminApplication.LoginCommand) (*adminDomain.Session, error)
}

// DecisionHandler applies a confirm or cancel.
type DecisionHandler interface {
	Handle(ctx context.Context, cmd commands.DecideReservationCommand) (*commands.DecideReservationResult, error)
}

// Bot serves the admin chat commands and notification buttons.
type Bot struct {
	api    Messenger
	login  LoginHandler
	decide DecisionHandler
	logger *slog.Logger
}

// NewBot creates a new Bot.
func NewBot(api Messenger, login LoginHandler, decide DecisionHandler, logger *slog.Logger) *Bot {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bot{api: api, login: login, decide: decide, logger: logger}
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
	chatID := strconv.FormatInt(msg.Chat.ID, 10)
	ctx = observability.WithChatID(ctx, chatID)

	command, args := msg.Command()
	switch command {
	case "/login":
		b.reply(ctx, msg.Chat.ID, b.handleLogin(ctx, chatID, args))
	case "/confirm":
		b.reply(ctx, msg.Chat.ID, b.handleDecisionCommand(ctx, chatID, commands.DecisionConfirm, args))
	case "/cancel":
		b.reply(ctx, msg.Chat.ID, b.handleDecisionCommand(ctx, chatID, commands.DecisionCancel, args))
	}
}

func (b *Bot) handleLogin(ctx context.Context, chatID string, args []string) string {
	if len(args) != 2 {
		return textLoginUsage
	}
	_, err := b.login.Handle(ctx, adminApplication.LoginCommand{ChatID: chatID, Username: args[0], Password: args[1]})
	switch {
	case err == nil:
		return textLoginOK
	case errors.Is(err, adminDomain.ErrInvalidCredentials):
		return textLoginFailed
	default:
		b.logger.ErrorContext(ctx, "admin login failed", observability.ErrorKey, err)
		return textTryAgain
	}
}

func (b *Bot) handleDecisionCommand(ctx context.Context, chatID string, decision commands.Decision, args []string) string {
	if len(args) != 1 {
		return fmt.Sprintf("Usage: /%s <reservation_id>", decision)
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || id <= 0 {
		return fmt.Sprintf("Usage: /%s <reservation_id>", decision)
	}
	text, _ := b.apply(ctx, chatID, decision, id)
	return text
}

func (b *Bot) handleCallback(ctx context.Context, query *telegram.CallbackQuery) {
	if query.Message == nil {
		b.answer(ctx, query.ID, "")
		return
	}
	chatID := strconv.FormatInt(query.Message.Chat.ID, 10)
	ctx = observability.WithChatID(ctx, chatID)

	decision, id, err := commands.ParseActionData(query.Data)
	if err != nil {
		b.logger.WarnContext(ctx, "ignoring callback", "data", query.Data, observability.ErrorKey, err)
		b.answer(ctx, query.ID, "")
		return
	}

	text, ok := b.apply(ctx, chatID, decision, id)
	if !ok {
		b.answer(ctx, query.ID, text)
		return
	}
	b.answer(ctx, query.ID, toast(decision))

	err = b.api.EditMessageText(ctx, telegram.EditMessageTextRequest{
		ChatID:    query.Message.Chat.ID,
		MessageID: query.Message.MessageID,
		Text:      text,
	})
	if err != nil && !telegram.IsNotModified(err) {
		b.logger.WarnContext(ctx, "edit notification failed", "reservation_id", id, observability.ErrorKey, err)
	}
}

// apply runs the decision and returns the text to show. ok is false when
// nothing was applied.
func (b *Bot) apply(ctx context.Context, chatID string, decision commands.Decision, id int64) (string, bool) {
	_, err := b.decide.Handle(ctx, commands.DecideReservationCommand{ChatID: chatID, ReservationID: id, Decision: decision})
	switch {
	case err == nil:
		return fmt.Sprintf("Reservation %d has been %s.", id, pastTense(decision)), true
	case errors.Is(err, adminDomain.ErrNotAuthenticated):
		return textLoginFirst, false
	case errors.Is(err, domain.ErrReservationNotFound):
		return fmt.Sprintf("Reservation %d not found.", id), false
	default:
		b.logger.ErrorContext(ctx, "reservation decision failed", "reservation_id", id, observability.ErrorKey, err)
		return textTryAgain, false
	}
}

func (b *Bot) reply(ctx context.Context, chatID int64, text string) {
	if _, err := b.api.SendMessage(ctx, telegram.SendMessageRequest{ChatID: chatID, Text: text}); err != nil {
		b.logger.ErrorContext(ctx, "send reply failed", observability.ErrorKey, err)
	}
}

func (b *Bot) answer(ctx context.Context, callbackID, text string) {
	if err := b.api.AnswerCallbackQuery(ctx, callbackID, text); err != nil {
		b.logger.WarnContext(ctx, "answer callback failed", observability.ErrorKey, err)
	}
}

func pastTense(decision commands.Decision) string {
	if decision == commands.DecisionConfirm {
		return "confirmed"
	}
	return "cancelled"
}

func toast(decision commands.Decision) string {
	return "Reservation " + pastTense(decision) + "."
}
