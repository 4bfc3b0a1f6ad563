package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-telegram/bot"
	tgmodels "github.com/go-telegram/bot/models"
	"gitlab.com/yelinaung/subscription-bot/internal/engine"
	"gitlab.com/yelinaung/subscription-bot/internal/logger"
	"gitlab.com/yelinaung/subscription-bot/internal/models"
)

const (
	answerDismissed    = "Dismissed."
	answerSnoozed      = "OK, I'll remind you tomorrow."
	answerMarkedPaid   = "Marked as paid."
	answerGone         = "This notification is no longer available."
	answerFailed       = "Something went wrong. Please try again."
	answerUnknown      = "Unknown action."
	logFieldNotifID    = "notification_id"
	logFieldEffect     = "effect"
	subscriptionIDData = "subscription_id"
)

var errNoSubscription = errors.New("notification has no subscription")

// handleNotificationCallback handles inline buttons attached to notifications.
func (b *Bot) handleNotificationCallback(ctx context.Context, tgBot *bot.Bot, update *tgmodels.Update) {
	b.handleNotificationCallbackCore(ctx, tgBot, update)
}

// handleNotificationCallbackCore is the testable implementation of handleNotificationCallback.
func (b *Bot) handleNotificationCallbackCore(ctx context.Context, tg TelegramAPI, update *tgmodels.Update) {
	cq := update.CallbackQuery
	if cq == nil {
		return
	}

	effect, id, ok := parseCallbackData(cq.Data)
	if !ok {
		answerCallback(ctx, tg, cq.ID, answerUnknown)
		return
	}

	id, err := b.resolveNotificationID(ctx, id)
	if err != nil {
		answerCallback(ctx, tg, cq.ID, answerGone)
		clearKeyboard(ctx, tg, cq)
		return
	}

	reply, done, err := b.applyEffect(ctx, tg, effect, id)
	switch {
	case errors.Is(err, engine.ErrNotFound):
		answerCallback(ctx, tg, cq.ID, answerGone)
		clearKeyboard(ctx, tg, cq)
		return
	case err != nil:
		logger.Log.Error().
			Err(err).
			Str(logFieldNotifID, id).
			Str(logFieldEffect, effect).
			Msg("Failed to apply notification action")
		answerCallback(ctx, tg, cq.ID, answerFailed)
		return
	}

	answerCallback(ctx, tg, cq.ID, reply)
	if done {
		clearKeyboard(ctx, tg, cq)
	}

	logger.Log.Info().
		Str(logFieldNotifID, id).
		Str(logFieldEffect, effect).
		Msg("Notification action applied")
}

// resolveNotificationID maps a hashedID from callback data back to the full
// notification ID. Plain IDs are returned unchanged.
func (b *Bot) resolveNotificationID(ctx context.Context, id string) (string, error) {
	if !strings.HasPrefix(id, hashedIDMarker) {
		return id, nil
	}
	for _, n := range b.deps.Notifications.Notifications(ctx) {
		if hashedID(n.ID) == id {
			return n.ID, nil
		}
	}
	return "", engine.ErrNotFound
}

// applyEffect runs the action and returns the callback answer. done reports
// whether the notification's buttons should be removed.
func (b *Bot) applyEffect(ctx context.Context, tg TelegramAPI, effect, id string) (reply string, done bool, err error) {
	n := b.deps.Notifications

	switch effect {
	case models.EffectDismiss:
		return answerDismissed, true, n.Dismiss(ctx, id)

	case models.EffectSnooze:
		return answerSnoozed, true, n.Snooze(ctx, id, engine.DefaultSnoozeDuration)

	case models.EffectMarkPaid:
		return answerMarkedPaid, true, n.MarkViewed(ctx, id)

	case models.EffectViewDetails:
		ntf, err := n.Notification(ctx, id)
		if err != nil {
			return "", false, err
		}
		if err := n.MarkViewed(ctx, id); err != nil {
			return "", false, err
		}
		b.sendDetails(ctx, tg, ntf)
		return "", false, nil

	case models.EffectOpenBudget:
		if err := n.MarkViewed(ctx, id); err != nil {
			return "", false, err
		}
		b.sendBudget(ctx, tg, b.cfg.TelegramChatID)
		return "", false, nil

	case models.EffectCancel:
		return b.cancelSubscription(ctx, id)
	}

	return answerUnknown, false, nil
}

// cancelSubscription marks the notification's subscription as cancelled and
// dismisses the notification.
func (b *Bot) cancelSubscription(ctx context.Context, id string) (string, bool, error) {
	ntf, err := b.deps.Notifications.Notification(ctx, id)
	if err != nil {
		return "", false, err
	}

	subID := ntf.Data[subscriptionIDData]
	if subID == "" {
		return "", false, errNoSubscription
	}

	sub, err := b.deps.Subscriptions.GetByID(ctx, subID)
	if err != nil {
		return "", false, fmt.Errorf("failed to load subscription: %w", err)
	}

	if err := b.deps.Subscriptions.SetStatus(ctx, subID, models.SubscriptionStatusCancelled); err != nil {
		return "", false, fmt.Errorf("failed to cancel subscription: %w", err)
	}

	if err := b.deps.Notifications.Dismiss(ctx, id); err != nil && !errors.Is(err, engine.ErrNotFound) {
		return "", false, err
	}

	logger.Log.Info().
		Str("subscription_hash", logger.HashSubscriptionID(subID)).
		Msg("Subscription cancelled from notification")

	return fmt.Sprintf("Cancelled %s.", sub.Name), true, nil
}

// sendDetails posts the notification body, plus the subscription when it
// refers to one.
func (b *Bot) sendDetails(ctx context.Context, tg TelegramAPI, ntf models.SmartNotification) {
	text := fmt.Sprintf("%s <b>%s</b>\n\n%s", priorityIcon(ntf.Priority), escapeHTML(ntf.Title), escapeHTML(ntf.Message))

	if subID := ntf.Data[subscriptionIDData]; subID != "" {
		sub, err := b.deps.Subscriptions.GetByID(ctx, subID)
		if err != nil {
			logger.Log.Warn().Err(err).Str(logFieldNotifID, ntf.ID).Msg("Failed to load subscription details")
		} else {
			text += "\n\n" + formatSubscription(sub)
		}
	}

	_, err := tg.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:    b.cfg.TelegramChatID,
		Text:      text,
		ParseMode: tgmodels.ParseModeHTML,
	})
	if err != nil {
		logger.Log.Error().Err(err).Msg("Failed to send notification details")
	}
}

func formatSubscription(sub *models.Subscription) string {
	return fmt.Sprintf("<b>%s</b>\nAmount: %s (%s)\nPayment day: %d\nCategory: %s\nStatus: %s",
		escapeHTML(sub.Name),
		models.FormatMoney(sub.Amount, sub.Currency),
		sub.BillingCycle,
		sub.PaymentDate,
		escapeHTML(sub.CategoryKey()),
		subscriptionStatus(sub),
	)
}

func subscriptionStatus(sub *models.Subscription) string {
	if sub.Status == "" {
		return models.SubscriptionStatusActive
	}
	return sub.Status
}

func answerCallback(ctx context.Context, tg TelegramAPI, id, text string) {
	_, err := tg.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{
		CallbackQueryID: id,
		Text:            text,
	})
	if err != nil {
		logger.Log.Error().Err(err).Msg("Failed to answer callback query")
	}
}

// clearKeyboard removes the inline buttons from the message the callback came from.
func clearKeyboard(ctx context.Context, tg TelegramAPI, cq *tgmodels.CallbackQuery) {
	msg := cq.Message.Message
	if msg == nil {
		return
	}
	_, err := tg.EditMessageReplyMarkup(ctx, &bot.EditMessageReplyMarkupParams{
		ChatID:      msg.Chat.ID,
		MessageID:   msg.ID,
		ReplyMarkup: &tgmodels.InlineKeyboardMarkup{InlineKeyboard: [][]tgmodels.InlineKeyboardButton{}},
	})
	if err != nil {
		logger.Log.Warn().Err(err).Msg("Failed to clear notification buttons")
	}
}
