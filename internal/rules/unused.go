package rules

import (
	"fmt"
	"strconv"
	"time"

	"gitlab.com/yelinaung/subscription-bot/internal/billing"
	"gitlab.com/yelinaung/subscription-bot/internal/models"
)

// UnusedSubscription suggests cancelling subscriptions older than the configured
// number of days.
//
// There is no usage telemetry, so StartDate stands in for the last known
// activity. Every subscription past the threshold is reported once.
func UnusedSubscription(in Input) []models.SmartNotification {
	cfg := in.Settings.UnusedSubscriptions
	if !cfg.Enabled || cfg.DaysThreshold <= 0 {
		return nil
	}

	limit := time.Duration(cfg.DaysThreshold) * 24 * time.Hour

	var out []models.SmartNotification
	for _, sub := range activeSubscriptions(in.Subscriptions) {
		if sub.StartDate.IsZero() || in.Now.Sub(sub.StartDate) <= limit {
			continue
		}

		days := billing.DaysUntil(sub.StartDate, in.Now)
		monthly := billing.NormalizeToMonthly(sub.Amount, sub.BillingCycle)

		out = append(out, models.SmartNotification{
			ID:    "unused-" + sub.ID,
			Type:  models.NotificationUnusedSubscription,
			Title: "Still using " + sub.Name + "?",
			Message: fmt.Sprintf("You've had %s for %d days. Cancelling it would save %s a month.",
				sub.Name, days, models.FormatMoney(monthly, in.Currency)),
			Priority:     models.PriorityLow,
			ScheduledFor: in.Now,
			Data: map[string]string{
				"subscription_id": sub.ID,
				"days_since":      strconv.Itoa(days),
				"monthly_amount":  monthly.StringFixed(2),
			},
			Actions: []models.NotificationAction{
				{ID: "cancel", Label: "Cancel it", Effect: models.EffectCancel},
				{ID: "keep", Label: "Keep", Effect: models.EffectDismiss},
			},
			CreatedAt: in.Now,
		})
	}
	return out
}
