package bot

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/go-telegram/bot"
	tgmodels "github.com/go-telegram/bot/models"
	"gitlab.com/yelinaung/subscription-bot/internal/budget"
	"gitlab.com/yelinaung/subscription-bot/internal/engine"
	"gitlab.com/yelinaung/subscription-bot/internal/logger"
	"gitlab.com/yelinaung/subscription-bot/internal/models"
)

const (
	maxListedNotifications = 10
	listDateLayout         = "Mon, 2 Jan"
)

const helpText = `📚 <b>Available Commands</b>

• <code>/budget</code> - Monthly spend against your budget
• <code>/notifications</code> - Recent notifications
• <code>/notify on</code> or <code>/notify off</code> - Turn notifications on or off
• <code>/help</code> - Show this help message

Use the buttons under each notification to dismiss, snooze or act on it.`

// handleStart handles the /start command.
func (b *Bot) handleStart(ctx context.Context, tgBot *bot.Bot, update *tgmodels.Update) {
	b.handleStartCore(ctx, tgBot, update)
}

// handleStartCore is the testable implementation of handleStart.
func (b *Bot) handleStartCore(ctx context.Context, tg TelegramAPI, update *tgmodels.Update) {
	if update.Message == nil {
		return
	}

	text := "👋 Welcome! I keep an eye on your subscriptions and remind you before they charge.\n\n" + helpText
	b.reply(ctx, tg, update.Message.Chat.ID, text, "/start")
}

// handleHelp handles the /help command.
func (b *Bot) handleHelp(ctx context.Context, tgBot *bot.Bot, update *tgmodels.Update) {
	b.handleHelpCore(ctx, tgBot, update)
}

// handleHelpCore is the testable implementation of handleHelp.
func (b *Bot) handleHelpCore(ctx context.Context, tg TelegramAPI, update *tgmodels.Update) {
	if update.Message == nil {
		return
	}
	b.reply(ctx, tg, update.Message.Chat.ID, helpText, "/help")
}

// handleNotifications handles the /notifications command.
func (b *Bot) handleNotifications(ctx context.Context, tgBot *bot.Bot, update *tgmodels.Update) {
	b.handleNotificationsCore(ctx, tgBot, update)
}

// handleNotificationsCore is the testable implementation of handleNotifications.
func (b *Bot) handleNotificationsCore(ctx context.Context, tg TelegramAPI, update *tgmodels.Update) {
	if update.Message == nil {
		return
	}

	log := b.deps.Notifications.Notifications(ctx)
	if len(log) == 0 {
		b.reply(ctx, tg, update.Message.Chat.ID, "📭 No notifications yet.", "/notifications")
		return
	}

	var sb strings.Builder
	sb.WriteString("🔔 <b>Recent notifications</b>\n")
	for i, n := range log {
		if i == maxListedNotifications {
			break
		}
		fmt.Fprintf(&sb, "\n%s %s <i>(%s, %s)</i>",
			priorityIcon(n.Priority), escapeHTML(n.Title), n.Status(), n.ScheduledFor.Format(listDateLayout))
	}

	b.reply(ctx, tg, update.Message.Chat.ID, sb.String(), "/notifications")
}

// handleNotify handles the /notify command.
func (b *Bot) handleNotify(ctx context.Context, tgBot *bot.Bot, update *tgmodels.Update) {
	b.handleNotifyCore(ctx, tgBot, update)
}

// handleNotifyCore is the testable implementation of handleNotify.
func (b *Bot) handleNotifyCore(ctx context.Context, tg TelegramAPI, update *tgmodels.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID

	var enabled bool
	switch strings.ToLower(extractCommandArgs(update.Message.Text, "/notify")) {
	case "":
		state := "off"
		if b.deps.Settings.Load(ctx).Enabled {
			state = "on"
		}
		b.reply(ctx, tg, chatID, fmt.Sprintf("Notifications are <b>%s</b>. Use <code>/notify on</code> or <code>/notify off</code>.", state), "/notify")
		return
	case "on":
		enabled = true
	case "off":
		enabled = false
	default:
		b.reply(ctx, tg, chatID, "❌ Usage: <code>/notify on</code> or <code>/notify off</code>", "/notify")
		return
	}

	if err := b.deps.Settings.SetEnabled(ctx, enabled); err != nil {
		logger.Log.Error().Err(err).Bool("enabled", enabled).Msg("Failed to update notification settings")
		b.reply(ctx, tg, chatID, "❌ Failed to update settings. Please try again.", "/notify")
		return
	}

	text := "🔕 Notifications turned off."
	if enabled {
		text = "🔔 Notifications turned on."
	}
	b.reply(ctx, tg, chatID, text, "/notify")
}

// handleBudget handles the /budget command.
func (b *Bot) handleBudget(ctx context.Context, tgBot *bot.Bot, update *tgmodels.Update) {
	b.handleBudgetCore(ctx, tgBot, update)
}

// handleBudgetCore is the testable implementation of handleBudget.
func (b *Bot) handleBudgetCore(ctx context.Context, tg TelegramAPI, update *tgmodels.Update) {
	if update.Message == nil {
		return
	}
	b.sendBudget(ctx, tg, update.Message.Chat.ID)
}

// budgetState aggregates the current snapshot in the display currency.
func (b *Bot) budgetState(ctx context.Context) (models.BudgetState, string, error) {
	snap, err := b.deps.Snapshots.Snapshot(ctx)
	if err != nil {
		return models.BudgetState{}, "", fmt.Errorf("failed to load snapshot: %w", err)
	}

	snap, currency, err := engine.Normalize(ctx, b.deps.Converter, snap, b.cfg.BaseCurrency)
	if err != nil {
		logger.Log.Warn().Err(err).Msg("Some amounts could not be converted")
	}

	settings := b.deps.Settings.Load(ctx)
	return budget.Aggregate(snap.Subscriptions, snap.MonthlyBudget, b.deps.Clock.Now(), settings.LookaheadDays), currency, nil
}

// sendBudget posts the budget summary, with the category chart when there is
// anything to chart.
func (b *Bot) sendBudget(ctx context.Context, tg TelegramAPI, chatID int64) {
	state, currency, err := b.budgetState(ctx)
	if err != nil {
		logger.Log.Error().Err(err).Msg("Failed to build budget summary")
		b.reply(ctx, tg, chatID, "❌ Failed to load your budget. Please try again.", "/budget")
		return
	}

	text := formatBudget(state, currency)

	chart, err := GenerateBudgetChart(state, currency)
	if err == nil && len([]rune(text)) <= maxCaptionLen {
		_, err = tg.SendPhoto(ctx, &bot.SendPhotoParams{
			ChatID:    chatID,
			Photo:     &tgmodels.InputFileUpload{Filename: chartFilename, Data: bytes.NewReader(chart)},
			Caption:   text,
			ParseMode: tgmodels.ParseModeHTML,
		})
		if err == nil {
			return
		}
		logger.Log.Error().Err(err).Msg("Failed to send budget chart")
	}

	b.reply(ctx, tg, chatID, text, "/budget")
}

// formatBudget renders the budget summary as Telegram HTML.
func formatBudget(state models.BudgetState, currency string) string {
	var sb strings.Builder
	sb.WriteString("📊 <b>Budget</b>\n\n")

	fmt.Fprintf(&sb, "Monthly spend: %s", models.FormatMoney(state.MonthlyTotal, currency))
	if pct, ok := budget.Usage(state); ok {
		fmt.Fprintf(&sb, " of %s (%s%%)\n", models.FormatMoney(state.Budget, currency), pct.Round(0).String())
		fmt.Fprintf(&sb, "Left this month: %s\n", models.FormatMoney(budget.Headroom(state), currency))
	} else {
		sb.WriteString("\nNo monthly budget set.\n")
	}
	fmt.Fprintf(&sb, "Yearly: %s\n", models.FormatMoney(state.YearlyTotal, currency))
	fmt.Fprintf(&sb, "Active subscriptions: %d\n", state.ActiveCount)

	if keys := budget.Categories(state); len(keys) > 0 {
		sb.WriteString("\n<b>By category</b>\n")
		for _, k := range keys {
			cat := state.CategoryBreakdown[k]
			fmt.Fprintf(&sb, "• %s: %s (%d)\n", escapeHTML(k), models.FormatMoney(cat.MonthlyTotal, currency), cat.Count)
		}
	}

	if len(state.Upcoming) > 0 {
		sb.WriteString("\n<b>Upcoming</b>\n")
		for _, u := range state.Upcoming {
			fmt.Fprintf(&sb, "• %s: %s on %s\n",
				escapeHTML(u.Subscription.Name),
				models.FormatMoney(u.Subscription.Amount, currency),
				u.Date.Format(listDateLayout))
		}
	}

	return strings.TrimRight(sb.String(), "\n")
}

func (b *Bot) reply(ctx context.Context, tg TelegramAPI, chatID int64, text, command string) {
	_, err := tg.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:    chatID,
		Text:      text,
		ParseMode: tgmodels.ParseModeHTML,
	})
	if err != nil {
		logger.Log.Error().Err(err).Str("command", command).Msg("Failed to send response")
	}
}
