package rules

import (
	"fmt"
	"strconv"
	"time"

	"gitlab.com/yelinaung/subscription-bot/internal/billing"
	"gitlab.com/yelinaung/subscription-bot/internal/models"
)

// UpcomingWindow is how far ahead of now a reminder instant may lie to be emitted.
const UpcomingWindow = 24 * time.Hour

// UpcomingPayment emits a reminder for every subscription and configured lead time
// whose reminder instant (next payment minus daysBefore days) falls within the
// next 24 hours. The reminder is scheduled for that instant.
func UpcomingPayment(in Input) []models.SmartNotification {
	cfg := in.Settings.UpcomingPayments
	if !cfg.Enabled || len(cfg.DaysBefore) == 0 {
		return nil
	}

	var out []models.SmartNotification
	for _, sub := range activeSubscriptions(in.Subscriptions) {
		next := billing.NextPaymentDate(sub.PaymentDate, sub.BillingCycle, in.Now)

		for _, days := range cfg.DaysBefore {
			notifyAt := next.AddDate(0, 0, -days)
			if notifyAt.Before(in.Now) || notifyAt.Sub(in.Now) > UpcomingWindow {
				continue
			}

			priority := models.PriorityMedium
			if days == 1 {
				priority = models.PriorityHigh
			}

			out = append(out, models.SmartNotification{
				ID:           fmt.Sprintf("upcoming-%s-%d-%s", sub.ID, days, next.Format(dayKeyLayout)),
				Type:         models.NotificationUpcomingPayment,
				Title:        upcomingTitle(sub.Name, days),
				Message:      fmt.Sprintf("%s will be charged on %s.", models.FormatMoney(sub.Amount, in.Currency), next.Format(displayLayout)),
				Priority:     priority,
				ScheduledFor: notifyAt,
				Data: map[string]string{
					"subscription_id": sub.ID,
					"amount":          sub.Amount.StringFixed(2),
					"payment_date":    next.Format(dayKeyLayout),
					"days_before":     strconv.Itoa(days),
				},
				Actions:   snoozeActions(),
				CreatedAt: in.Now,
			})
		}
	}
	return out
}

func upcomingTitle(name string, days int) string {
	switch days {
	case 0:
		return name + " payment due today"
	case 1:
		return name + " payment due tomorrow"
	default:
		return fmt.Sprintf("%s payment due in %d days", name, days)
	}
}
