package rules

import (
	"fmt"
	"sort"

	"gitlab.com/yelinaung/subscription-bot/internal/billing"
	"gitlab.com/yelinaung/subscription-bot/internal/models"
)

// Suggestion nudges the user to review their most expensive subscriptions.
// At most TopN subscriptions with an amount above MinAmount are reported,
// once per subscription per month.
func Suggestion(in Input) []models.SmartNotification {
	cfg := in.Settings.Suggestions
	if !cfg.Enabled || cfg.TopN <= 0 {
		return nil
	}

	subs := activeSubscriptions(in.Subscriptions)
	sort.SliceStable(subs, func(i, j int) bool {
		if !subs[i].Amount.Equal(subs[j].Amount) {
			return subs[i].Amount.GreaterThan(subs[j].Amount)
		}
		return subs[i].ID < subs[j].ID
	})

	month := in.Now.Format(monthKeyLayout)

	var out []models.SmartNotification
	for _, sub := range subs {
		if len(out) == cfg.TopN {
			break
		}
		if !sub.Amount.GreaterThan(cfg.MinAmount) {
			break
		}

		monthly := billing.NormalizeToMonthly(sub.Amount, sub.BillingCycle)
		yearly := monthly.Mul(twelveMonths)

		out = append(out, models.SmartNotification{
			ID:    fmt.Sprintf("suggestion-%s-%s", sub.ID, month),
			Type:  models.NotificationSuggestion,
			Title: "Save on " + sub.Name,
			Message: fmt.Sprintf("%s costs you %s a month, %s a year. A cheaper plan or annual billing could lower that.",
				sub.Name, models.FormatMoney(monthly, in.Currency), models.FormatMoney(yearly, in.Currency)),
			Priority:     models.PriorityLow,
			ScheduledFor: in.Now,
			Data: map[string]string{
				"subscription_id": sub.ID,
				"monthly_amount":  monthly.StringFixed(2),
				"yearly_amount":   yearly.StringFixed(2),
			},
			Actions: []models.NotificationAction{
				{ID: "view-details", Label: "View details", Effect: models.EffectViewDetails},
				{ID: "dismiss", Label: "Not now", Effect: models.EffectDismiss},
			},
			CreatedAt: in.Now,
		})
	}
	return out
}
