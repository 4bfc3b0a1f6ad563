// Package engine runs evaluation passes: it reads the subscription snapshot,
// evaluates the notification rules, schedules the candidates and hands due
// notifications to a delivery channel.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"
	"gitlab.com/yelinaung/subscription-bot/internal/budget"
	"gitlab.com/yelinaung/subscription-bot/internal/logger"
	"gitlab.com/yelinaung/subscription-bot/internal/metrics"
	"gitlab.com/yelinaung/subscription-bot/internal/models"
	"gitlab.com/yelinaung/subscription-bot/internal/rules"
	"gitlab.com/yelinaung/subscription-bot/internal/scheduler"
	"gitlab.com/yelinaung/subscription-bot/internal/store"
)

const (
	// DefaultDeliveryTimeout bounds a single Channel.Deliver call.
	DefaultDeliveryTimeout = 10 * time.Second
	// DefaultSnoozeDuration is used when Snooze is given a non-positive duration.
	DefaultSnoozeDuration = 24 * time.Hour
)

var (
	// ErrPassInFlight is returned when RunPass is called while another pass runs.
	ErrPassInFlight = errors.New("evaluation pass already in progress")
	// ErrNotFound is returned by the notification actions for unknown IDs.
	ErrNotFound = scheduler.ErrNotFound
)

// Clock supplies the current time. It is read once per pass.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to Clock.
type ClockFunc func() time.Time

// Now implements Clock.
func (f ClockFunc) Now() time.Time { return f() }

// SystemClock returns the wall clock in loc.
func SystemClock(loc *time.Location) Clock {
	if loc == nil {
		loc = time.Local
	}
	return ClockFunc(func() time.Time { return time.Now().In(loc) })
}

// Snapshot is the data a pass evaluates.
type Snapshot struct {
	Subscriptions []models.Subscription
	MonthlyBudget decimal.Decimal
	// BudgetCurrency is the currency of MonthlyBudget. Empty means the
	// display currency.
	BudgetCurrency string
}

// SnapshotSource loads the current subscriptions and budget.
type SnapshotSource interface {
	Snapshot(ctx context.Context) (Snapshot, error)
}

// SettingsLoader returns the current notification settings. Implementations
// fall back to defaults instead of failing.
type SettingsLoader interface {
	Load(ctx context.Context) models.NotificationSettings
}

// Converter rewrites amounts into a single currency.
type Converter interface {
	Convert(ctx context.Context, subs []models.Subscription) ([]models.Subscription, error)
	ConvertAmount(ctx context.Context, amount decimal.Decimal, from string) (decimal.Decimal, error)
	Base() string
}

// Normalize expresses snap in conv's base currency and returns that currency.
// With a nil conv, snap is returned as is with fallback. Amounts that cannot
// be converted are kept and the errors joined.
func Normalize(ctx context.Context, conv Converter, snap Snapshot, fallback string) (Snapshot, string, error) {
	if conv == nil {
		return snap, fallback, nil
	}

	base := conv.Base()
	var errs []error

	subs, err := conv.Convert(ctx, snap.Subscriptions)
	if err != nil {
		errs = append(errs, err)
	}
	if subs != nil {
		snap.Subscriptions = subs
	}

	if snap.BudgetCurrency != "" && snap.BudgetCurrency != base && snap.MonthlyBudget.IsPositive() {
		amount, err := conv.ConvertAmount(ctx, snap.MonthlyBudget, snap.BudgetCurrency)
		if err != nil {
			errs = append(errs, fmt.Errorf("failed to convert budget: %w", err))
		} else {
			snap.MonthlyBudget = amount
			snap.BudgetCurrency = base
		}
	}
	return snap, base, errors.Join(errs...)
}

// ChartRenderer draws a PNG for the weekly digest.
type ChartRenderer func(state models.BudgetState, currency string) ([]byte, error)

// Delivery is what a Channel receives for one notification.
type Delivery struct {
	ID                 string
	Type               models.NotificationType
	Priority           models.Priority
	Title              string
	Message            string
	Data               map[string]string
	Actions            []models.NotificationAction
	RequireInteraction bool
	// Image is an optional PNG sent alongside the message.
	Image []byte
}

// Channel delivers notifications to the user.
type Channel interface {
	Deliver(ctx context.Context, d Delivery) error
}

// ChannelFunc adapts a function to Channel.
type ChannelFunc func(ctx context.Context, d Delivery) error

// Deliver calls f.
func (f ChannelFunc) Deliver(ctx context.Context, d Delivery) error { return f(ctx, d) }

// Config tunes the engine.
type Config struct {
	Cooldown        time.Duration
	DeliveryTimeout time.Duration
	LogCap          int
	// Currency is used for display when no Converter is configured.
	Currency string
}

// Deps are the collaborators of an Engine. Converter, Charts, Registry and
// Metrics are optional.
type Deps struct {
	Clock     Clock
	Snapshots SnapshotSource
	Settings  SettingsLoader
	Store     store.Store
	Channel   Channel
	Registry  *rules.Registry
	Converter Converter
	Charts    ChartRenderer
	Metrics   *metrics.Metrics
}

// PassResult summarises a call to RunPass.
type PassResult struct {
	// Skipped is set when the pass stopped early; Reason says why.
	Skipped   bool
	Reason    string
	Added     int
	Delivered []models.SmartNotification
}

// Engine coordinates evaluation passes. It is safe for concurrent use.
type Engine struct {
	deps Deps
	cfg  Config

	inFlight   atomic.Bool
	dispatches sync.WaitGroup

	// stateMu serialises read-modify-write cycles of the engine state.
	stateMu  sync.Mutex
	state    models.EngineState
	hasState bool
}

// New creates an Engine.
func New(deps Deps, cfg Config) *Engine {
	if deps.Clock == nil {
		deps.Clock = SystemClock(time.Local)
	}
	if deps.Registry == nil {
		deps.Registry = rules.Default()
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = scheduler.DefaultCooldown
	}
	if cfg.DeliveryTimeout <= 0 {
		cfg.DeliveryTimeout = DefaultDeliveryTimeout
	}
	if cfg.LogCap <= 0 {
		cfg.LogCap = scheduler.DefaultLogCap
	}
	if cfg.Currency == "" {
		cfg.Currency = models.DefaultCurrency
	}
	return &Engine{deps: deps, cfg: cfg}
}

// RunPass evaluates the rules once and dispatches due notifications in the
// background. Only one pass runs at a time.
func (e *Engine) RunPass(ctx context.Context) (PassResult, error) {
	if !e.inFlight.CompareAndSwap(false, true) {
		e.deps.Metrics.Pass(metrics.PassInFlight, 0)
		return PassResult{}, ErrPassInFlight
	}
	defer e.inFlight.Store(false)

	started := time.Now()
	now := e.deps.Clock.Now()

	settings := e.deps.Settings.Load(ctx)
	if !settings.Enabled {
		e.deps.Metrics.Pass(metrics.PassDisabled, 0)
		logger.Log.Debug().Msg("Notifications disabled, skipping pass")
		return PassResult{Skipped: true, Reason: metrics.PassDisabled}, nil
	}

	e.stateMu.Lock()
	defer e.stateMu.Unlock()

	state := e.loadStateLocked(ctx)
	if scheduler.InCooldown(state.LastProcessed, now, e.cfg.Cooldown) {
		e.deps.Metrics.Pass(metrics.PassCooldown, 0)
		logger.Log.Debug().
			Time("last_processed", state.LastProcessed).
			Dur("cooldown", e.cfg.Cooldown).
			Msg("Pass skipped, cooldown active")
		return PassResult{Skipped: true, Reason: metrics.PassCooldown}, nil
	}

	snap, err := e.deps.Snapshots.Snapshot(ctx)
	if err != nil {
		e.deps.Metrics.Pass(metrics.PassFailed, 0)
		return PassResult{}, fmt.Errorf("failed to load snapshot: %w", err)
	}

	snap, currency, err := Normalize(ctx, e.deps.Converter, snap, e.cfg.Currency)
	if err != nil {
		logger.Log.Warn().Err(err).Msg("Some amounts could not be converted to the base currency")
	}
	subs := snap.Subscriptions

	budgetState := budget.Aggregate(subs, snap.MonthlyBudget, now, settings.LookaheadDays)
	results := e.deps.Registry.EvaluateByRule(rules.Input{
		Subscriptions: subs,
		State:         budgetState,
		Settings:      settings,
		Now:           now,
		Currency:      currency,
	})
	for _, r := range results {
		e.deps.Metrics.Evaluated(r.Rule, len(r.Candidates))
		logger.Log.Debug().Str("rule", r.Rule).Int("candidates", len(r.Candidates)).Msg("Rule evaluated")
	}
	candidates := rules.Flatten(results)

	res := scheduler.Process(scheduler.Input{
		Candidates: candidates,
		State:      state,
		Now:        now,
		Cooldown:   e.cfg.Cooldown,
		LogCap:     e.cfg.LogCap,
	})
	e.saveStateLocked(ctx, res.State)

	deliveries := make([]Delivery, 0, len(res.ToDeliver))
	for _, n := range res.ToDeliver {
		deliveries = append(deliveries, e.delivery(n, budgetState, currency))
	}
	e.dispatch(ctx, deliveries)

	e.deps.Metrics.Added(res.Added)
	e.deps.Metrics.SetLogSize(len(res.State.Log))
	e.deps.Metrics.Pass(metrics.PassCompleted, time.Since(started))

	logger.Log.Info().
		Int("subscriptions", len(subs)).
		Int("candidates", len(candidates)).
		Int("added", len(res.Added)).
		Int("due", len(res.ToDeliver)).
		Int("log_size", len(res.State.Log)).
		Msg("Evaluation pass completed")

	return PassResult{Added: len(res.Added), Delivered: res.ToDeliver}, nil
}

// Wait blocks until every background dispatch has finished.
func (e *Engine) Wait() {
	e.dispatches.Wait()
}

func (e *Engine) delivery(n models.SmartNotification, state models.BudgetState, currency string) Delivery {
	d := Delivery{
		ID:                 n.ID,
		Type:               n.Type,
		Priority:           n.Priority,
		Title:              n.Title,
		Message:            n.Message,
		Data:               n.Data,
		Actions:            n.Actions,
		RequireInteraction: n.RequiresInteraction(),
	}
	if n.Type == models.NotificationWeeklyDigest && e.deps.Charts != nil && len(state.CategoryBreakdown) > 0 {
		img, err := e.deps.Charts(state, currency)
		if err != nil {
			logger.Log.Warn().Err(err).Msg("Failed to render digest chart, sending text only")
		} else {
			d.Image = img
		}
	}
	return d
}

// dispatch delivers sequentially in a tracked goroutine. Deliveries are
// detached from ctx cancellation and bounded by DeliveryTimeout each.
func (e *Engine) dispatch(ctx context.Context, deliveries []Delivery) {
	if len(deliveries) == 0 || e.deps.Channel == nil {
		return
	}

	base := context.WithoutCancel(ctx)
	e.dispatches.Add(1)
	go func() {
		defer e.dispatches.Done()
		for _, d := range deliveries {
			e.deliver(base, d)
		}
	}()
}

func (e *Engine) deliver(ctx context.Context, d Delivery) {
	dctx, cancel := context.WithTimeout(ctx, e.cfg.DeliveryTimeout)
	defer cancel()

	err := e.deps.Channel.Deliver(dctx, d)
	e.deps.Metrics.Delivered(d.Type, err)
	if err != nil {
		logger.Log.Warn().
			Err(err).
			Str("notification_id", d.ID).
			Str("type", string(d.Type)).
			Msg("Failed to deliver notification")
		return
	}
	logger.Log.Debug().
		Str("notification_id", d.ID).
		Str("priority", string(d.Priority)).
		Msg("Delivered notification")
}

// loadStateLocked reads the persisted state. Read failures fall back to the
// last state this engine saved, then to an empty state.
func (e *Engine) loadStateLocked(ctx context.Context) models.EngineState {
	var st models.EngineState
	err := e.deps.Store.Get(ctx, store.KeyEngineState, &st)
	switch {
	case err == nil:
		return st
	case errors.Is(err, store.ErrNotFound):
	default:
		e.deps.Metrics.PersistenceError("read")
		logger.Log.Warn().Err(err).Msg("Failed to load engine state, using last known state")
	}
	if e.hasState {
		return e.state.Clone()
	}
	return models.EngineState{}
}

// saveStateLocked keeps st in memory and persists it. A failed write is
// logged; the in-memory copy stays authoritative until the next success.
func (e *Engine) saveStateLocked(ctx context.Context, st models.EngineState) {
	e.state = st.Clone()
	e.hasState = true
	if err := e.deps.Store.Set(ctx, store.KeyEngineState, st); err != nil {
		e.deps.Metrics.PersistenceError("write")
		logger.Log.Warn().Err(err).Msg("Failed to persist engine state")
	}
}
