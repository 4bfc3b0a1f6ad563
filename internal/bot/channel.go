package bot

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/go-telegram/bot"
	tgmodels "github.com/go-telegram/bot/models"
	"gitlab.com/yelinaung/subscription-bot/internal/engine"
	"gitlab.com/yelinaung/subscription-bot/internal/logger"
	"gitlab.com/yelinaung/subscription-bot/internal/models"
)

const (
	callbackPrefix = "ntf:"
	// hashedIDMarker starts a callback ID that stands for a longer
	// notification ID. Generated IDs never start with it.
	hashedIDMarker = "#"
	// Telegram rejects callback data longer than 64 bytes.
	maxCallbackDataLen = 64
	// Telegram limits photo captions to 1024 characters.
	maxCaptionLen = 1024
	buttonsPerRow = 2
	chartFilename = "chart.png"
)

// Short effect codes keep callback data under the Telegram limit.
var effectCodes = map[string]string{
	models.EffectMarkPaid:    "p",
	models.EffectViewDetails: "v",
	models.EffectSnooze:      "s",
	models.EffectDismiss:     "d",
	models.EffectCancel:      "c",
	models.EffectOpenBudget:  "b",
}

var codeEffects = func() map[string]string {
	out := make(map[string]string, len(effectCodes))
	for effect, code := range effectCodes {
		out[code] = effect
	}
	return out
}()

// callbackData encodes an action button as ntf:<code>:<notification id>. IDs
// too long for the Telegram limit are replaced by their hashedID.
func callbackData(effect, id string) (string, bool) {
	code, ok := effectCodes[effect]
	if !ok || id == "" {
		return "", false
	}
	data := callbackPrefix + code + ":" + id
	if len(data) > maxCallbackDataLen {
		data = callbackPrefix + code + ":" + hashedID(id)
	}
	return data, true
}

// hashedID is a short stand-in for id, resolved back through the log.
func hashedID(id string) string {
	return hashedIDMarker + strconv.FormatUint(xxhash.Sum64String(id), 16)
}

// parseCallbackData is the inverse of callbackData.
func parseCallbackData(data string) (effect, id string, ok bool) {
	rest, found := strings.CutPrefix(data, callbackPrefix)
	if !found {
		return "", "", false
	}
	code, id, found := strings.Cut(rest, ":")
	if !found || id == "" {
		return "", "", false
	}
	effect, ok = codeEffects[code]
	return effect, id, ok
}

// actionKeyboard lays out the notification actions as inline buttons. It returns
// nil when no action can be encoded.
func actionKeyboard(id string, actions []models.NotificationAction) *tgmodels.InlineKeyboardMarkup {
	var (
		rows [][]tgmodels.InlineKeyboardButton
		row  []tgmodels.InlineKeyboardButton
	)
	for _, a := range actions {
		data, ok := callbackData(a.Effect, id)
		if !ok {
			logger.Log.Warn().
				Str("notification_id", id).
				Str("effect", a.Effect).
				Msg("Skipping action button that cannot be encoded")
			continue
		}
		row = append(row, tgmodels.InlineKeyboardButton{Text: a.Label, CallbackData: data})
		if len(row) == buttonsPerRow {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}
	if len(rows) == 0 {
		return nil
	}
	return &tgmodels.InlineKeyboardMarkup{InlineKeyboard: rows}
}

func priorityIcon(p models.Priority) string {
	switch p {
	case models.PriorityUrgent:
		return "🚨"
	case models.PriorityHigh:
		return "⚠️"
	case models.PriorityMedium:
		return "🔔"
	default:
		return "💡"
	}
}

// formatDelivery renders a notification as Telegram HTML.
func formatDelivery(d engine.Delivery) string {
	return fmt.Sprintf("%s <b>%s</b>\n\n%s", priorityIcon(d.Priority), escapeHTML(d.Title), escapeHTML(d.Message))
}

// Deliver sends a notification to the configured chat. Low priority
// notifications that do not require interaction are sent silently.
func (b *Bot) Deliver(ctx context.Context, d engine.Delivery) error {
	chatID := b.cfg.TelegramChatID
	text := formatDelivery(d)
	silent := d.Priority == models.PriorityLow && !d.RequireInteraction

	var markup tgmodels.ReplyMarkup
	if kb := actionKeyboard(d.ID, d.Actions); kb != nil {
		markup = kb
	}

	if len(d.Image) > 0 {
		caption := text
		if len([]rune(caption)) > maxCaptionLen {
			caption = fmt.Sprintf("%s <b>%s</b>", priorityIcon(d.Priority), escapeHTML(d.Title))
		}
		params := &bot.SendPhotoParams{
			ChatID:              chatID,
			Photo:               &tgmodels.InputFileUpload{Filename: chartFilename, Data: bytes.NewReader(d.Image)},
			Caption:             caption,
			ParseMode:           tgmodels.ParseModeHTML,
			DisableNotification: silent,
		}
		if caption == text {
			params.ReplyMarkup = markup
		}
		if _, err := b.api.SendPhoto(ctx, params); err != nil {
			return fmt.Errorf("failed to send notification photo: %w", err)
		}
		if caption == text {
			return nil
		}
	}

	params := &bot.SendMessageParams{
		ChatID:              chatID,
		Text:                text,
		ParseMode:           tgmodels.ParseModeHTML,
		DisableNotification: silent,
		ReplyMarkup:         markup,
	}
	if _, err := b.api.SendMessage(ctx, params); err != nil {
		return fmt.Errorf("failed to send notification: %w", err)
	}

	logger.Log.Debug().
		Str("notification_id", d.ID).
		Str("type", string(d.Type)).
		Str("priority", string(d.Priority)).
		Msg("Notification sent")
	return nil
}
