package telegram

import (
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Update is the part of a Bot API update the bots act on. Only messages and
// callback queries are requested.
type Update struct {
	UpdateID      int64
	Message       *Message
	CallbackQuery *CallbackQuery
}

// User is a Telegram account.
type User struct {
	ID        int64
	IsBot     bool
	FirstName string
	Username  string
}

// Chat identifies the conversation a message belongs to.
type Chat struct {
	ID   int64
	Type string
}

// Message is a chat message.
type Message struct {
	MessageID int64
	From      *User
	Chat      Chat
	Date      int64
	Text      string
}

// Command splits a "/command arg arg" message. It returns an empty command
// for plain text. A "@botname" suffix on the command is dropped.
func (m *Message) Command() (string, []string) {
	if m == nil || !strings.HasPrefix(m.Text, "/") {
		return "", nil
	}
	fields := strings.Fields(m.Text)
	command, _, _ := strings.Cut(fields[0], "@")
	return command, fields[1:]
}

// CallbackQuery is a press of an inline keyboard button.
type CallbackQuery struct {
	ID      string
	From    User
	Message *Message
	Data    string
}

// InlineKeyboardButton is a button that sends callback data when pressed.
type InlineKeyboardButton struct {
	Text         string
	CallbackData string
}

// InlineKeyboardMarkup is an inline keyboard attached to a message.
type InlineKeyboardMarkup struct {
	InlineKeyboard [][]InlineKeyboardButton
}

// SendMessageRequest describes an outgoing message.
type SendMessageRequest struct {
	ChatID      int64
	Text        string
	ParseMode   string
	ReplyMarkup *InlineKeyboardMarkup
}

// EditMessageTextRequest describes an edit of a message the bot sent.
type EditMessageTextRequest struct {
	ChatID      int64
	MessageID   int64
	Text        string
	ParseMode   string
	ReplyMarkup *InlineKeyboardMarkup
}

var allowedUpdates = []string{"message", "callback_query"}

func fromAPIUpdate(u tgbotapi.Update) Update {
	return Update{
		UpdateID:      int64(u.UpdateID),
		Message:       fromAPIMessage(u.Message),
		CallbackQuery: fromAPICallback(u.CallbackQuery),
	}
}

func fromAPIMessage(m *tgbotapi.Message) *Message {
	if m == nil {
		return nil
	}
	msg := &Message{
		MessageID: int64(m.MessageID),
		From:      fromAPIUser(m.From),
		Date:      int64(m.Date),
		Text:      m.Text,
	}
	if m.Chat != nil {
		msg.Chat = Chat{ID: m.Chat.ID, Type: m.Chat.Type}
	}
	return msg
}

func fromAPICallback(q *tgbotapi.CallbackQuery) *CallbackQuery {
	if q == nil {
		return nil
	}
	query := &CallbackQuery{ID: q.ID, Message: fromAPIMessage(q.Message), Data: q.Data}
	if from := fromAPIUser(q.From); from != nil {
		query.From = *from
	}
	return query
}

func fromAPIUser(u *tgbotapi.User) *User {
	if u == nil {
		return nil
	}
	return &User{ID: u.ID, IsBot: u.IsBot, FirstName: u.FirstName, Username: u.UserName}
}

func toAPIMarkup(m *InlineKeyboardMarkup) *tgbotapi.InlineKeyboardMarkup {
	if m == nil {
		return nil
	}
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(m.InlineKeyboard))
	for _, row := range m.InlineKeyboard {
		buttons := make([]tgbotapi.InlineKeyboardButton, len(row))
		for i, b := range row {
			buttons[i] = tgbotapi.NewInlineKeyboardButtonData(b.Text, b.CallbackData)
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(buttons...))
	}
	markup := tgbotapi.NewInlineKeyboardMarkup(rows...)
	return &markup
}
