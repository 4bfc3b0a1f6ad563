package bot

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"gitlab.com/yelinaung/subscription-bot/internal/bot/mocks"
	"gitlab.com/yelinaung/subscription-bot/internal/config"
	"gitlab.com/yelinaung/subscription-bot/internal/engine"
	"gitlab.com/yelinaung/subscription-bot/internal/models"
	"gitlab.com/yelinaung/subscription-bot/internal/repository"
)

const testChatID int64 = 424242

var testNow = time.Date(2026, 3, 3, 9, 0, 0, 0, time.UTC)

type fakeNotifications struct {
	mu        sync.Mutex
	log       []models.SmartNotification
	viewed    []string
	dismissed []string
	snoozed   map[string]time.Duration
	err       error
}

func (f *fakeNotifications) find(id string) (models.SmartNotification, bool) {
	for _, n := range f.log {
		if n.ID == id {
			return n, true
		}
	}
	return models.SmartNotification{}, false
}

func (f *fakeNotifications) MarkViewed(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	if _, ok := f.find(id); !ok {
		return engine.ErrNotFound
	}
	f.viewed = append(f.viewed, id)
	return nil
}

func (f *fakeNotifications) Dismiss(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	if _, ok := f.find(id); !ok {
		return engine.ErrNotFound
	}
	f.dismissed = append(f.dismissed, id)
	return nil
}

func (f *fakeNotifications) Snooze(_ context.Context, id string, d time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	if _, ok := f.find(id); !ok {
		return engine.ErrNotFound
	}
	if f.snoozed == nil {
		f.snoozed = make(map[string]time.Duration)
	}
	f.snoozed[id] = d
	return nil
}

func (f *fakeNotifications) Notification(_ context.Context, id string) (models.SmartNotification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n, ok := f.find(id)
	if !ok {
		return models.SmartNotification{}, engine.ErrNotFound
	}
	return n, nil
}

func (f *fakeNotifications) Notifications(context.Context) []models.SmartNotification {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.SmartNotification(nil), f.log...)
}

type fakeSubscriptions struct {
	mu       sync.Mutex
	subs     map[string]*models.Subscription
	setErr   error
	statuses map[string]string
}

func (f *fakeSubscriptions) GetByID(_ context.Context, id string) (*models.Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	sub, ok := f.subs[id]
	if !ok {
		return nil, repository.ErrSubscriptionNotFound
	}
	cp := *sub
	return &cp, nil
}

func (f *fakeSubscriptions) SetStatus(_ context.Context, id, status string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.setErr != nil {
		return f.setErr
	}
	if _, ok := f.subs[id]; !ok {
		return repository.ErrSubscriptionNotFound
	}
	if f.statuses == nil {
		f.statuses = make(map[string]string)
	}
	f.statuses[id] = status
	return nil
}

type fakeSettings struct {
	mu       sync.Mutex
	settings models.NotificationSettings
	err      error
}

func (f *fakeSettings) Load(context.Context) models.NotificationSettings {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.settings
}

func (f *fakeSettings) SetEnabled(_ context.Context, enabled bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.settings.Enabled = enabled
	return nil
}

type fakeSnapshots struct {
	snap engine.Snapshot
	err  error
}

func (f *fakeSnapshots) Snapshot(context.Context) (engine.Snapshot, error) {
	return f.snap, f.err
}

type doubleConverter struct{}

func (doubleConverter) Base() string { return "USD" }

func (doubleConverter) Convert(_ context.Context, subs []models.Subscription) ([]models.Subscription, error) {
	out := make([]models.Subscription, len(subs))
	for i, s := range subs {
		s.Amount = s.Amount.Mul(decimal.NewFromInt(2))
		s.Currency = "USD"
		out[i] = s
	}
	return out, errors.New("rate for JPY missing")
}

func (doubleConverter) ConvertAmount(_ context.Context, amount decimal.Decimal, _ string) (decimal.Decimal, error) {
	return amount.Mul(decimal.NewFromInt(2)), nil
}

type testBot struct {
	bot      *Bot
	api      *mocks.MockBot
	notifs   *fakeNotifications
	subs     *fakeSubscriptions
	settings *fakeSettings
	snaps    *fakeSnapshots
}

func netflix() *models.Subscription {
	return &models.Subscription{
		ID:           "sub-netflix",
		Name:         "Netflix",
		Amount:       decimal.RequireFromString("15.99"),
		Currency:     "SGD",
		BillingCycle: models.CycleMonthly,
		PaymentDate:  5,
		Category:     "entertainment",
	}
}

func spotify() *models.Subscription {
	return &models.Subscription{
		ID:           "sub-spotify",
		Name:         "Spotify",
		Amount:       decimal.RequireFromString("9.99"),
		Currency:     "SGD",
		BillingCycle: models.CycleMonthly,
		PaymentDate:  20,
		Category:     "music",
	}
}

func newTestBot(t *testing.T) *testBot {
	t.Helper()

	tb := &testBot{
		api:      mocks.NewMockBot(),
		notifs:   &fakeNotifications{},
		subs:     &fakeSubscriptions{subs: map[string]*models.Subscription{"sub-netflix": netflix(), "sub-spotify": spotify()}},
		settings: &fakeSettings{settings: models.DefaultNotificationSettings()},
		snaps: &fakeSnapshots{snap: engine.Snapshot{
			Subscriptions: []models.Subscription{*netflix(), *spotify()},
			MonthlyBudget: decimal.NewFromInt(100),
		}},
	}

	cfg := &config.Config{
		TelegramChatID: testChatID,
		BaseCurrency:   "SGD",
		Location:       time.UTC,
	}
	tb.bot = newBot(cfg, Deps{
		Notifications: tb.notifs,
		Subscriptions: tb.subs,
		Settings:      tb.settings,
		Snapshots:     tb.snaps,
		Clock:         engine.ClockFunc(func() time.Time { return testNow }),
	}, tb.api)

	return tb
}

func upcomingNotification() models.SmartNotification {
	return models.SmartNotification{
		ID:           "upcoming-sub-netflix-1-2026-03-05",
		Type:         models.NotificationUpcomingPayment,
		Title:        "Netflix renews tomorrow",
		Message:      "S$15.99 will be charged on Thu, 5 Mar.",
		Priority:     models.PriorityHigh,
		ScheduledFor: testNow,
		Data:         map[string]string{"subscription_id": "sub-netflix"},
	}
}

func unusedNotification() models.SmartNotification {
	return models.SmartNotification{
		ID:           "unused-sub-spotify",
		Type:         models.NotificationUnusedSubscription,
		Title:        "Still using Spotify?",
		Priority:     models.PriorityLow,
		ScheduledFor: testNow,
		Data:         map[string]string{"subscription_id": "sub-spotify"},
	}
}
