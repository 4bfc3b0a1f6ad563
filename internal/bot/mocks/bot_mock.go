// Package mocks records Telegram calls so bot handlers and notification
// delivery can be tested without the network.
package mocks

import (
	"context"
	"io"
	"sync"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// TelegramAPI is the subset of the Telegram client used by the bot. It lives
// here so both bot and its tests can depend on it without a cycle.
type TelegramAPI interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
	SendPhoto(ctx context.Context, params *bot.SendPhotoParams) (*models.Message, error)
	EditMessageReplyMarkup(ctx context.Context, params *bot.EditMessageReplyMarkupParams) (*models.Message, error)
	AnswerCallbackQuery(ctx context.Context, params *bot.AnswerCallbackQueryParams) (bool, error)
}

// SentMessage is one recorded SendMessage call.
type SentMessage struct {
	ChatID              any
	Text                string
	ParseMode           models.ParseMode
	ReplyMarkup         models.ReplyMarkup
	DisableNotification bool
}

// SentPhoto is one recorded SendPhoto call. Size is the uploaded byte count.
type SentPhoto struct {
	ChatID      any
	Filename    string
	Size        int
	Caption     string
	ParseMode   models.ParseMode
	ReplyMarkup models.ReplyMarkup
}

// EditedMarkup is one recorded EditMessageReplyMarkup call.
type EditedMarkup struct {
	ChatID      any
	MessageID   int
	ReplyMarkup models.ReplyMarkup
}

// AnsweredCallback is one recorded AnswerCallbackQuery call.
type AnsweredCallback struct {
	CallbackQueryID string
	Text            string
	ShowAlert       bool
}

var _ TelegramAPI = (*MockBot)(nil)

// FirstMessageID is the ID given to the first message a MockBot sends.
const FirstMessageID = 1000

// MockBot is an in-memory TelegramAPI. It is safe for concurrent use, since
// notification delivery runs outside the handler goroutine.
type MockBot struct {
	mu sync.RWMutex

	SentMessages      []SentMessage
	SentPhotos        []SentPhoto
	EditedMarkups     []EditedMarkup
	AnsweredCallbacks []AnsweredCallback

	// Injected failures, returned before anything is recorded.
	SendMessageError error
	SendPhotoError   error
	EditMarkupError  error

	NextMessageID int
}

// NewMockBot returns a MockBot with no recorded calls.
func NewMockBot() *MockBot {
	return &MockBot{NextMessageID: FirstMessageID}
}

// reply allocates the next message ID. Callers hold m.mu.
func (m *MockBot) reply(chatID any) *models.Message {
	msg := &models.Message{ID: m.NextMessageID, Chat: models.Chat{ID: chatIDToInt64(chatID)}}
	m.NextMessageID++
	return msg
}

// SendMessage records params and returns a message with a fresh ID.
func (m *MockBot) SendMessage(_ context.Context, params *bot.SendMessageParams) (*models.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.SendMessageError != nil {
		return nil, m.SendMessageError
	}

	m.SentMessages = append(m.SentMessages, SentMessage{
		ChatID:              params.ChatID,
		Text:                params.Text,
		ParseMode:           params.ParseMode,
		ReplyMarkup:         params.ReplyMarkup,
		DisableNotification: params.DisableNotification,
	})

	msg := m.reply(params.ChatID)
	msg.Text = params.Text
	return msg, nil
}

// SendPhoto records params. Uploaded bytes are drained and counted.
func (m *MockBot) SendPhoto(_ context.Context, params *bot.SendPhotoParams) (*models.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.SendPhotoError != nil {
		return nil, m.SendPhotoError
	}

	photo := SentPhoto{
		ChatID:      params.ChatID,
		Caption:     params.Caption,
		ParseMode:   params.ParseMode,
		ReplyMarkup: params.ReplyMarkup,
	}
	if upload, ok := params.Photo.(*models.InputFileUpload); ok {
		photo.Filename = upload.Filename
		if upload.Data != nil {
			n, _ := io.Copy(io.Discard, upload.Data)
			photo.Size = int(n)
		}
	}
	m.SentPhotos = append(m.SentPhotos, photo)

	msg := m.reply(params.ChatID)
	msg.Caption = params.Caption
	return msg, nil
}

// EditMessageReplyMarkup records a keyboard replacement.
func (m *MockBot) EditMessageReplyMarkup(_ context.Context, params *bot.EditMessageReplyMarkupParams) (*models.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.EditMarkupError != nil {
		return nil, m.EditMarkupError
	}

	m.EditedMarkups = append(m.EditedMarkups, EditedMarkup{
		ChatID:      params.ChatID,
		MessageID:   params.MessageID,
		ReplyMarkup: params.ReplyMarkup,
	})
	return &models.Message{ID: params.MessageID, Chat: models.Chat{ID: chatIDToInt64(params.ChatID)}}, nil
}

// AnswerCallbackQuery records the answer. It never fails.
func (m *MockBot) AnswerCallbackQuery(_ context.Context, params *bot.AnswerCallbackQueryParams) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.AnsweredCallbacks = append(m.AnsweredCallbacks, AnsweredCallback{
		CallbackQueryID: params.CallbackQueryID,
		Text:            params.Text,
		ShowAlert:       params.ShowAlert,
	})
	return true, nil
}

// Reset forgets recorded calls and injected errors. Message IDs keep counting.
func (m *MockBot) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.SentMessages = nil
	m.SentPhotos = nil
	m.EditedMarkups = nil
	m.AnsweredCallbacks = nil
	m.SendMessageError = nil
	m.SendPhotoError = nil
	m.EditMarkupError = nil
}

func last[T any](items []T) *T {
	if len(items) == 0 {
		return nil
	}
	return &items[len(items)-1]
}

// LastSentMessage returns the most recent message, or nil.
func (m *MockBot) LastSentMessage() *SentMessage {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return last(m.SentMessages)
}

// LastSentPhoto returns the most recent photo, or nil.
func (m *MockBot) LastSentPhoto() *SentPhoto {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return last(m.SentPhotos)
}

// LastAnsweredCallback returns the most recent callback answer, or nil.
func (m *MockBot) LastAnsweredCallback() *AnsweredCallback {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return last(m.AnsweredCallbacks)
}

// SentMessageCount returns the number of messages sent.
func (m *MockBot) SentMessageCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.SentMessages)
}

// SentPhotoCount returns the number of photos sent.
func (m *MockBot) SentPhotoCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.SentPhotos)
}

// EditedMarkupCount returns the number of keyboard edits.
func (m *MockBot) EditedMarkupCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.EditedMarkups)
}

func chatIDToInt64(chatID any) int64 {
	switch v := chatID.(type) {
	case int64:
		return v
	case int:
		return int64(v)
	default:
		return 0
	}
}
