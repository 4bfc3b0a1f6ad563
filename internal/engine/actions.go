package engine

import (
	"context"
	"time"

	"gitlab.com/yelinaung/subscription-bot/internal/logger"
	"gitlab.com/yelinaung/subscription-bot/internal/models"
	"gitlab.com/yelinaung/subscription-bot/internal/scheduler"
)

// MarkViewed flags a logged notification as viewed.
func (e *Engine) MarkViewed(ctx context.Context, id string) error {
	return e.update(ctx, id, "viewed", func(st models.EngineState) (models.EngineState, error) {
		return scheduler.MarkViewed(st, id)
	})
}

// Dismiss removes a notification from the log and suppresses its ID.
func (e *Engine) Dismiss(ctx context.Context, id string) error {
	return e.update(ctx, id, "dismissed", func(st models.EngineState) (models.EngineState, error) {
		return scheduler.Dismiss(st, id)
	})
}

// Snooze re-queues a notification for delivery after d.
func (e *Engine) Snooze(ctx context.Context, id string, d time.Duration) error {
	if d <= 0 {
		d = DefaultSnoozeDuration
	}
	until := e.deps.Clock.Now().Add(d)
	return e.update(ctx, id, "snoozed", func(st models.EngineState) (models.EngineState, error) {
		return scheduler.Snooze(st, id, until)
	})
}

// Notification returns a logged notification by ID.
func (e *Engine) Notification(ctx context.Context, id string) (models.SmartNotification, error) {
	e.stateMu.Lock()
	defer e.stateMu.Unlock()

	n, ok := scheduler.Find(e.loadStateLocked(ctx), id)
	if !ok {
		return models.SmartNotification{}, ErrNotFound
	}
	return n, nil
}

// Notifications returns the retained log, most recent first.
func (e *Engine) Notifications(ctx context.Context) []models.SmartNotification {
	e.stateMu.Lock()
	defer e.stateMu.Unlock()

	return e.loadStateLocked(ctx).Clone().Log
}

func (e *Engine) update(
	ctx context.Context,
	id, verb string,
	apply func(models.EngineState) (models.EngineState, error),
) error {
	e.stateMu.Lock()
	defer e.stateMu.Unlock()

	next, err := apply(e.loadStateLocked(ctx))
	if err != nil {
		return err
	}
	e.saveStateLocked(ctx, next)

	logger.Log.Info().Str("notification_id", id).Msgf("Notification %s", verb)
	return nil
}
