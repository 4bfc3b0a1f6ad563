package mocks

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestUpdateBuilder_WithMessage(t *testing.T) {
	t.Parallel()

	update := NewUpdateBuilder().
		WithMessage(12345, 67890, "Hello").
		WithMessageID(999).
		Build()

	require.NotNil(t, update.Message)
	require.Equal(t, int64(12345), update.Message.Chat.ID)
	require.Equal(t, int64(67890), update.Message.From.ID)
	require.Equal(t, "Hello", update.Message.Text)
	require.Equal(t, 999, update.Message.ID)
}

func TestCommandUpdate(t *testing.T) {
	t.Parallel()

	update := CommandUpdate(1, 2, "/budget")
	require.Equal(t, "/budget", update.Message.Text)
	require.Nil(t, update.CallbackQuery)
}

func TestCallbackQueryUpdate(t *testing.T) {
	t.Parallel()

	update := CallbackQueryUpdate(1, 2, 42, "ntf:d:budget-75-2026-03")

	require.NotNil(t, update.CallbackQuery)
	require.Equal(t, DefaultCallbackID, update.CallbackQuery.ID)
	require.Equal(t, int64(2), update.CallbackQuery.From.ID)
	require.Equal(t, "ntf:d:budget-75-2026-03", update.CallbackQuery.Data)
	require.NotNil(t, update.CallbackQuery.Message.Message)
	require.Equal(t, int64(1), update.CallbackQuery.Message.Message.Chat.ID)
	require.Equal(t, 42, update.CallbackQuery.Message.Message.ID)
}
