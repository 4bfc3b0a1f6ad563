// Package bot provides the Telegram bot: notification delivery, inline action
// callbacks and a handful of commands.
package bot

import (
	"context"
	"fmt"
	"time"

	"github.com/go-telegram/bot"
	tgmodels "github.com/go-telegram/bot/models"
	"gitlab.com/yelinaung/subscription-bot/internal/config"
	"gitlab.com/yelinaung/subscription-bot/internal/engine"
	"gitlab.com/yelinaung/subscription-bot/internal/logger"
	"gitlab.com/yelinaung/subscription-bot/internal/models"
)

// Notifications is the slice of the engine the bot drives from callbacks.
type Notifications interface {
	MarkViewed(ctx context.Context, id string) error
	Dismiss(ctx context.Context, id string) error
	Snooze(ctx context.Context, id string, d time.Duration) error
	Notification(ctx context.Context, id string) (models.SmartNotification, error)
	Notifications(ctx context.Context) []models.SmartNotification
}

// Subscriptions reads and updates tracked subscriptions.
type Subscriptions interface {
	GetByID(ctx context.Context, id string) (*models.Subscription, error)
	SetStatus(ctx context.Context, id, status string) error
}

// Settings reads and toggles notification settings.
type Settings interface {
	Load(ctx context.Context) models.NotificationSettings
	SetEnabled(ctx context.Context, enabled bool) error
}

// Deps are the collaborators of a Bot. Converter is optional.
type Deps struct {
	Notifications Notifications
	Subscriptions Subscriptions
	Settings      Settings
	Snapshots     engine.SnapshotSource
	Converter     engine.Converter
	Clock         engine.Clock
}

// Bot wraps the Telegram bot with application dependencies.
type Bot struct {
	bot  *bot.Bot
	api  TelegramAPI
	cfg  *config.Config
	deps Deps
}

// Compile-time check that Bot can be used as the engine's delivery channel.
var _ engine.Channel = (*Bot)(nil)

// New creates a new Bot instance.
func New(cfg *config.Config, deps Deps) (*Bot, error) {
	b := newBot(cfg, deps, nil)

	opts := []bot.Option{
		bot.WithMiddlewares(b.chatMiddleware),
		bot.WithDefaultHandler(b.defaultHandler),
	}

	telegramBot, err := bot.New(cfg.TelegramBotToken, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	b.bot = telegramBot
	b.api = telegramBot
	b.registerHandlers()

	return b, nil
}

// newBot builds a Bot around api without contacting Telegram.
func newBot(cfg *config.Config, deps Deps, api TelegramAPI) *Bot {
	if deps.Clock == nil {
		deps.Clock = engine.SystemClock(cfg.Location)
	}
	return &Bot{cfg: cfg, deps: deps, api: api}
}

// Start begins polling for updates.
func (b *Bot) Start(ctx context.Context) {
	logger.Log.Info().Msg("Bot started polling")
	b.bot.Start(ctx)
}

// registerHandlers sets up command and callback handlers.
func (b *Bot) registerHandlers() {
	b.bot.RegisterHandler(bot.HandlerTypeMessageText, "/start", bot.MatchTypePrefix, b.handleStart)
	b.bot.RegisterHandler(bot.HandlerTypeMessageText, "/help", bot.MatchTypePrefix, b.handleHelp)
	b.bot.RegisterHandler(bot.HandlerTypeMessageText, "/notifications", bot.MatchTypePrefix, b.handleNotifications)
	b.bot.RegisterHandler(bot.HandlerTypeMessageText, "/budget", bot.MatchTypePrefix, b.handleBudget)
	b.bot.RegisterHandler(bot.HandlerTypeMessageText, "/notify", bot.MatchTypePrefix, b.handleNotify)
	b.bot.RegisterHandler(bot.HandlerTypeCallbackQueryData, callbackPrefix, bot.MatchTypePrefix, b.handleNotificationCallback)
}

// chatMiddleware drops updates that do not come from the configured chat.
func (b *Bot) chatMiddleware(next bot.HandlerFunc) bot.HandlerFunc {
	return func(ctx context.Context, tgBot *bot.Bot, update *tgmodels.Update) {
		chatID := extractChatID(update)
		if !b.cfg.IsAuthorizedChat(chatID) {
			logger.Log.Warn().
				Str("chat_hash", logger.HashChatID(chatID)).
				Msg("Blocked update from unknown chat")
			return
		}

		logUpdate(chatID, update)
		next(ctx, tgBot, update)
	}
}

// logUpdate logs the incoming command or callback without message content.
func logUpdate(chatID int64, update *tgmodels.Update) {
	event := logger.Log.Info().Str("chat_hash", logger.HashChatID(chatID))
	switch {
	case update.Message != nil:
		event.Str("command", commandName(update.Message.Text)).Msg("User input")
	case update.CallbackQuery != nil:
		event.Str("data", update.CallbackQuery.Data).Msg("Callback query")
	}
}

// extractChatID gets the chat ID from various update types.
func extractChatID(update *tgmodels.Update) int64 {
	if update.Message != nil {
		return update.Message.Chat.ID
	}
	if update.CallbackQuery != nil && update.CallbackQuery.Message.Message != nil {
		return update.CallbackQuery.Message.Message.Chat.ID
	}
	return 0
}

// defaultHandler answers anything that is not a known command.
func (b *Bot) defaultHandler(ctx context.Context, tgBot *bot.Bot, update *tgmodels.Update) {
	if update.Message == nil {
		return
	}

	_, err := tgBot.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: update.Message.Chat.ID,
		Text:   "I didn't understand that. Use /help to see available commands.",
	})
	if err != nil {
		logger.Log.Error().Err(err).Msg("Failed to send default response")
	}
}
