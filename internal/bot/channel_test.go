package bot

import (
	"context"
	"errors"
	"strings"
	"testing"

	tgmodels "github.com/go-telegram/bot/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/yelinaung/subscription-bot/internal/engine"
	"gitlab.com/yelinaung/subscription-bot/internal/models"
)

func TestCallbackData(t *testing.T) {
	t.Parallel()

	t.Run("round trips every effect", func(t *testing.T) {
		t.Parallel()

		for effect := range effectCodes {
			data, ok := callbackData(effect, "budget-75-2026-03")
			require.True(t, ok, effect)
			require.True(t, strings.HasPrefix(data, callbackPrefix))

			gotEffect, gotID, ok := parseCallbackData(data)
			require.True(t, ok, effect)
			assert.Equal(t, effect, gotEffect)
			assert.Equal(t, "budget-75-2026-03", gotID)
		}
	})

	t.Run("ids may contain colons", func(t *testing.T) {
		t.Parallel()

		effect, id, ok := parseCallbackData("ntf:d:a:b")
		require.True(t, ok)
		assert.Equal(t, models.EffectDismiss, effect)
		assert.Equal(t, "a:b", id)
	})

	t.Run("rejects unknown effects and empty ids", func(t *testing.T) {
		t.Parallel()

		_, ok := callbackData("explode", "x")
		assert.False(t, ok)
		_, ok = callbackData(models.EffectDismiss, "")
		assert.False(t, ok)
	})

	t.Run("hashes ids over the telegram limit", func(t *testing.T) {
		t.Parallel()

		id := "upcoming-7f1c2e4a-93b5-4d7e-a1f0-5c3b9e2d8a64-14-2026-03-19"
		data, ok := callbackData(models.EffectMarkPaid, id)
		require.True(t, ok)
		assert.LessOrEqual(t, len(data), maxCallbackDataLen)

		effect, got, ok := parseCallbackData(data)
		require.True(t, ok)
		assert.Equal(t, models.EffectMarkPaid, effect)
		assert.Equal(t, hashedID(id), got)
		assert.True(t, strings.HasPrefix(got, hashedIDMarker))
	})

	t.Run("rejects malformed data", func(t *testing.T) {
		t.Parallel()

		for _, data := range []string{"", "ntf:", "ntf:d", "ntf:d:", "ntf:z:id", "other:d:id"} {
			_, _, ok := parseCallbackData(data)
			assert.False(t, ok, data)
		}
	})
}

func TestActionKeyboard(t *testing.T) {
	t.Parallel()

	t.Run("lays out two buttons per row", func(t *testing.T) {
		t.Parallel()

		kb := actionKeyboard("n-1", []models.NotificationAction{
			{Label: "Mark as paid", Effect: models.EffectMarkPaid},
			{Label: "View details", Effect: models.EffectViewDetails},
			{Label: "Remind me tomorrow", Effect: models.EffectSnooze},
		})

		require.NotNil(t, kb)
		require.Len(t, kb.InlineKeyboard, 2)
		require.Len(t, kb.InlineKeyboard[0], 2)
		require.Len(t, kb.InlineKeyboard[1], 1)
		assert.Equal(t, "ntf:p:n-1", kb.InlineKeyboard[0][0].CallbackData)
		assert.Equal(t, "Remind me tomorrow", kb.InlineKeyboard[1][0].Text)
	})

	t.Run("skips unknown effects", func(t *testing.T) {
		t.Parallel()

		kb := actionKeyboard("n-1", []models.NotificationAction{
			{Label: "Teleport", Effect: "teleport"},
			{Label: "Dismiss", Effect: models.EffectDismiss},
		})
		require.NotNil(t, kb)
		require.Len(t, kb.InlineKeyboard, 1)
		require.Len(t, kb.InlineKeyboard[0], 1)
	})

	t.Run("keeps buttons for long ids", func(t *testing.T) {
		t.Parallel()

		id := "upcoming-" + strings.Repeat("a", 60) + "-14-2026-03-19"
		kb := actionKeyboard(id, []models.NotificationAction{
			{Label: "Mark as paid", Effect: models.EffectMarkPaid},
			{Label: "Remind me tomorrow", Effect: models.EffectSnooze},
		})
		require.NotNil(t, kb)
		require.Len(t, kb.InlineKeyboard[0], 2)
		for _, btn := range kb.InlineKeyboard[0] {
			assert.LessOrEqual(t, len(btn.CallbackData), maxCallbackDataLen)
		}
	})

	t.Run("nil without encodable actions", func(t *testing.T) {
		t.Parallel()

		assert.Nil(t, actionKeyboard("n-1", nil))
		assert.Nil(t, actionKeyboard("n-1", []models.NotificationAction{{Label: "?", Effect: "nope"}}))
	})
}

func TestDeliver(t *testing.T) {
	t.Parallel()

	delivery := engine.Delivery{
		ID:       "budget-75-2026-03",
		Type:     models.NotificationBudgetAlert,
		Priority: models.PriorityUrgent,
		Title:    "Budget 75% reached",
		Message:  "You're at 75% <of> your budget",
		Actions: []models.NotificationAction{
			{Label: "Review budget", Effect: models.EffectOpenBudget},
			{Label: "Dismiss", Effect: models.EffectDismiss},
		},
		RequireInteraction: true,
	}

	t.Run("sends message with buttons to the configured chat", func(t *testing.T) {
		t.Parallel()

		tb := newTestBot(t)
		require.NoError(t, tb.bot.Deliver(context.Background(), delivery))

		msg := tb.api.LastSentMessage()
		require.NotNil(t, msg)
		assert.Equal(t, testChatID, msg.ChatID)
		assert.Equal(t, tgmodels.ParseModeHTML, msg.ParseMode)
		assert.Contains(t, msg.Text, "🚨 <b>Budget 75% reached</b>")
		assert.Contains(t, msg.Text, "&lt;of&gt;")
		assert.False(t, msg.DisableNotification)

		kb, ok := msg.ReplyMarkup.(*tgmodels.InlineKeyboardMarkup)
		require.True(t, ok)
		assert.Equal(t, "ntf:b:budget-75-2026-03", kb.InlineKeyboard[0][0].CallbackData)
		assert.Equal(t, "ntf:d:budget-75-2026-03", kb.InlineKeyboard[0][1].CallbackData)
	})

	t.Run("low priority is silent and has no markup without actions", func(t *testing.T) {
		t.Parallel()

		tb := newTestBot(t)
		require.NoError(t, tb.bot.Deliver(context.Background(), engine.Delivery{
			ID:       "suggestion-x-2026-03",
			Priority: models.PriorityLow,
			Title:    "Save on X",
		}))

		msg := tb.api.LastSentMessage()
		require.NotNil(t, msg)
		assert.True(t, msg.DisableNotification)
		assert.Nil(t, msg.ReplyMarkup)
	})

	t.Run("image is sent as photo with caption and buttons", func(t *testing.T) {
		t.Parallel()

		tb := newTestBot(t)
		d := delivery
		d.Image = []byte{0x89, 'P', 'N', 'G'}
		require.NoError(t, tb.bot.Deliver(context.Background(), d))

		require.Equal(t, 0, tb.api.SentMessageCount())
		photo := tb.api.LastSentPhoto()
		require.NotNil(t, photo)
		assert.Equal(t, chartFilename, photo.Filename)
		assert.Equal(t, 4, photo.Size)
		assert.Contains(t, photo.Caption, "Budget 75% reached")
		assert.NotNil(t, photo.ReplyMarkup)
	})

	t.Run("long text goes in a follow-up message", func(t *testing.T) {
		t.Parallel()

		tb := newTestBot(t)
		d := delivery
		d.Image = []byte{1}
		d.Message = strings.Repeat("a", maxCaptionLen)
		require.NoError(t, tb.bot.Deliver(context.Background(), d))

		photo := tb.api.LastSentPhoto()
		require.NotNil(t, photo)
		assert.Nil(t, photo.ReplyMarkup)
		assert.NotContains(t, photo.Caption, "aaaa")

		msg := tb.api.LastSentMessage()
		require.NotNil(t, msg)
		assert.NotNil(t, msg.ReplyMarkup)
	})

	t.Run("wraps send errors", func(t *testing.T) {
		t.Parallel()

		tb := newTestBot(t)
		tb.api.SendMessageError = errors.New("telegram down")
		err := tb.bot.Deliver(context.Background(), delivery)
		require.ErrorContains(t, err, "failed to send notification")

		tb.api.SendPhotoError = errors.New("upload failed")
		d := delivery
		d.Image = []byte{1}
		err = tb.bot.Deliver(context.Background(), d)
		require.ErrorContains(t, err, "failed to send notification photo")
	})
}
