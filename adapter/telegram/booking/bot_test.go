package booking_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/felixgeelhaar/reserva/adapter/telegram/booking"
	"github.com/felixgeelhaar/reserva/internal/conversation/application"
	conversation "github.com/felixgeelhaar/reserva/internal/conversation/domain"
	"github.com/felixgeelhaar/reserva/internal/telegram"
)

type mockMessenger struct {
	mock.Mock
}

func (m *mockMessenger) SendMessage(ctx context.Context, req telegram.SendMessageRequest) (*telegram.Message, error) {
	args := m.Called(ctx, req)
	if msg, ok := args.Get(0).(*telegram.Message); ok {
		return msg, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockMessenger) EditMessageText(ctx context.Context, req telegram.EditMessageTextRequest) error {
	return m.Called(ctx, req).Error(0)
}

func (m *mockMessenger) AnswerCallbackQuery(ctx context.Context, callbackID, text string) error {
	return m.Called(ctx, callbackID, text).Error(0)
}

type mockConversation struct {
	mock.Mock
}

func (m *mockConversation) Handle(ctx context.Context, userID int64, username string, action conversation.Action) (application.Reply, error) {
	args := m.Called(ctx, userID, username, action)
	return args.Get(0).(application.Reply), args.Error(1)
}

func (m *mockConversation) Welcome() application.Reply {
	return m.Called().Get(0).(application.Reply)
}

func (m *mockConversation) Info() application.Reply {
	return m.Called().Get(0).(application.Reply)
}

func message(text string) telegram.Update {
	return telegram.Update{Message: &telegram.Message{
		MessageID: 10,
		From:      &telegram.User{ID: 5, Username: "olena"},
		Chat:      telegram.Chat{ID: 5},
		Text:      text,
	}}
}

func callback(data string) telegram.Update {
	return telegram.Update{CallbackQuery: &telegram.CallbackQuery{
		ID:      "cb1",
		From:    telegram.User{ID: 5, Username: "olena"},
		Message: &telegram.Message{MessageID: 77, Chat: telegram.Chat{ID: 5}},
		Data:    data,
	}}
}

func TestBot_Start(t *testing.T) {
	api := new(mockMessenger)
	conv := new(mockConversation)
	welcome := application.Reply{Text: "hi", Keyboard: [][]application.Button{{{Text: "Book", Data: "book"}}}}
	conv.On("Welcome").Return(welcome)
	api.On("SendMessage", mock.Anything, mock.MatchedBy(func(req telegram.SendMessageRequest) bool {
		return req.ChatID == 5 && req.Text == "hi" && req.ReplyMarkup.InlineKeyboard[0][0].CallbackData == "book"
	})).Return(&telegram.Message{}, nil)

	booking.NewBot(api, conv, nil).HandleUpdate(context.Background(), message("/start"))

	api.AssertExpectations(t)
	conv.AssertNotCalled(t, "Handle", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestBot_TextIsContact(t *testing.T) {
	api := new(mockMessenger)
	conv := new(mockConversation)
	conv.On("Handle", mock.Anything, int64(5), "olena", conversation.ContactAction("Олена, +380501234567")).
		Return(application.Reply{Text: "done", ParseMode: application.ParseModeHTML}, nil)
	api.On("SendMessage", mock.Anything, telegram.SendMessageRequest{ChatID: 5, Text: "done", ParseMode: "HTML"}).
		Return(&telegram.Message{}, nil)

	booking.NewBot(api, conv, nil).HandleUpdate(context.Background(), message("Олена, +380501234567"))

	api.AssertExpectations(t)
	conv.AssertExpectations(t)
}

func TestBot_Cancel(t *testing.T) {
	api := new(mockMessenger)
	conv := new(mockConversation)
	conv.On("Handle", mock.Anything, int64(5), "olena", conversation.CancelAction()).
		Return(application.Reply{Text: "cancelled"}, nil)
	api.On("SendMessage", mock.Anything, mock.Anything).Return(&telegram.Message{}, nil)

	booking.NewBot(api, conv, nil).HandleUpdate(context.Background(), message("/cancel"))

	conv.AssertExpectations(t)
	api.AssertNumberOfCalls(t, "SendMessage", 1)
}

func TestBot_CallbackEditsMessage(t *testing.T) {
	api := new(mockMessenger)
	conv := new(mockConversation)
	api.On("AnswerCallbackQuery", mock.Anything, "cb1", "").Return(nil)
	conv.On("Handle", mock.Anything, int64(5), "olena", conversation.PickDuration(90)).
		Return(application.Reply{Text: "dates", Edit: true}, nil)
	api.On("EditMessageText", mock.Anything, telegram.EditMessageTextRequest{ChatID: 5, MessageID: 77, Text: "dates"}).
		Return(nil)

	booking.NewBot(api, conv, nil).HandleUpdate(context.Background(), callback("duration:90"))

	api.AssertExpectations(t)
	api.AssertNotCalled(t, "SendMessage", mock.Anything, mock.Anything)
}

func TestBot_EditFailureFallsBackToSend(t *testing.T) {
	api := new(mockMessenger)
	conv := new(mockConversation)
	api.On("AnswerCallbackQuery", mock.Anything, "cb1", "").Return(nil)
	conv.On("Handle", mock.Anything, int64(5), "olena", conversation.BackAction()).
		Return(application.Reply{Text: "menu", Edit: true}, nil)
	api.On("EditMessageText", mock.Anything, mock.Anything).
		Return(&telegram.APIError{Method: "editMessageText", Code: 400, Description: "Bad Request: message to edit not found"})
	api.On("SendMessage", mock.Anything, telegram.SendMessageRequest{ChatID: 5, Text: "menu"}).Return(&telegram.Message{}, nil)

	booking.NewBot(api, conv, nil).HandleUpdate(context.Background(), callback("back"))

	api.AssertExpectations(t)
}

func TestBot_InterruptedStepSendsNothing(t *testing.T) {
	api := new(mockMessenger)
	conv := new(mockConversation)
	conv.On("Handle", mock.Anything, int64(5), "olena", mock.Anything).Return(application.Reply{}, context.Canceled)

	booking.NewBot(api, conv, nil).HandleUpdate(context.Background(), message("Олена"))

	api.AssertNotCalled(t, "SendMessage", mock.Anything, mock.Anything)
}

func TestBot_UnknownCallbackIgnored(t *testing.T) {
	api := new(mockMessenger)
	conv := new(mockConversation)
	api.On("AnswerCallbackQuery", mock.Anything, "cb1", "").Return(errors.New("too late"))

	booking.NewBot(api, conv, nil).HandleUpdate(context.Background(), callback("confirm:7"))

	api.AssertExpectations(t)
	conv.AssertNotCalled(t, "Handle", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestKeyboard(t *testing.T) {
	assert.Nil(t, booking.Keyboard(nil))

	markup := booking.Keyboard([][]application.Button{
		{{Text: "18:00", Data: "time:18:00"}, {Text: "18:30", Data: "time:18:30"}},
		{{Text: "⬅️ Назад", Data: "back"}},
	})

	assert.Len(t, markup.InlineKeyboard, 2)
	assert.Equal(t, telegram.InlineKeyboardButton{Text: "18:30", CallbackData: "time:18:30"}, markup.InlineKeyboard[0][1])
}
