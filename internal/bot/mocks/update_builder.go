package mocks

import (
	"github.com/go-telegram/bot/models"
)

// DefaultCallbackID is the callback query ID used by CallbackQueryUpdate.
const DefaultCallbackID = "callback-query-id"

// UpdateBuilder assembles Updates for handler tests.
type UpdateBuilder struct {
	update models.Update
}

// NewUpdateBuilder returns an empty builder.
func NewUpdateBuilder() *UpdateBuilder {
	return &UpdateBuilder{}
}

func privateChat(chatID int64) models.Chat {
	return models.Chat{ID: chatID, Type: "private"}
}

func owner(userID int64) models.User {
	return models.User{ID: userID, FirstName: "Sub", Username: "sub_owner"}
}

// WithMessage attaches a text message sent by userID in chatID.
func (b *UpdateBuilder) WithMessage(chatID, userID int64, text string) *UpdateBuilder {
	from := owner(userID)
	b.update.Message = &models.Message{
		ID:   1,
		Chat: privateChat(chatID),
		From: &from,
		Text: text,
	}
	return b
}

// WithMessageID overrides the ID of a message added by WithMessage.
func (b *UpdateBuilder) WithMessageID(messageID int) *UpdateBuilder {
	if b.update.Message != nil {
		b.update.Message.ID = messageID
	}
	return b
}

// WithCallbackQuery attaches an inline button press on messageID.
func (b *UpdateBuilder) WithCallbackQuery(callbackID string, chatID, userID int64, messageID int, data string) *UpdateBuilder {
	b.update.CallbackQuery = &models.CallbackQuery{
		ID:   callbackID,
		From: owner(userID),
		Data: data,
		Message: models.MaybeInaccessibleMessage{
			Message: &models.Message{ID: messageID, Chat: privateChat(chatID)},
		},
	}
	return b
}

// Build returns a copy of the assembled Update.
func (b *UpdateBuilder) Build() *models.Update {
	u := b.update
	return &u
}

// CommandUpdate is a message update carrying a command such as "/budget".
func CommandUpdate(chatID, userID int64, command string) *models.Update {
	return NewUpdateBuilder().WithMessage(chatID, userID, command).Build()
}

// CallbackQueryUpdate is a button press with DefaultCallbackID.
func CallbackQueryUpdate(chatID, userID int64, messageID int, data string) *models.Update {
	return NewUpdateBuilder().WithCallbackQuery(DefaultCallbackID, chatID, userID, messageID, data).Build()
}
