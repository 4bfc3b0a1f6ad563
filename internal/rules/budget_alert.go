package rules

import (
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"
	"gitlab.com/yelinaung/subscription-bot/internal/budget"
	"gitlab.com/yelinaung/subscription-bot/internal/models"
)

var (
	urgentUsage = decimal.NewFromInt(100)
	highUsage   = decimal.NewFromInt(90)
)

// BudgetAlert emits one alert per configured threshold that monthly spend has
// reached. IDs carry the threshold and the month, so a crossing is reported
// once per calendar month no matter how many passes observe it.
func BudgetAlert(in Input) []models.SmartNotification {
	cfg := in.Settings.BudgetAlerts
	if !cfg.Enabled {
		return nil
	}

	usage, ok := budget.Usage(in.State)
	if !ok {
		return nil
	}

	priority := budgetPriority(usage)
	month := in.Now.Format(monthKeyLayout)

	var out []models.SmartNotification
	for _, threshold := range cfg.Thresholds {
		if usage.LessThan(decimal.NewFromInt(int64(threshold))) {
			continue
		}

		out = append(out, models.SmartNotification{
			ID:       fmt.Sprintf("budget-%d-%s", threshold, month),
			Type:     models.NotificationBudgetAlert,
			Title:    fmt.Sprintf("Budget %d%% reached", threshold),
			Priority: priority,
			Message: fmt.Sprintf("Your subscriptions cost %s a month, %s%% of your %s budget.",
				models.FormatMoney(in.State.MonthlyTotal, in.Currency),
				usage.StringFixed(1),
				models.FormatMoney(in.State.Budget, in.Currency),
			),
			ScheduledFor: in.Now,
			Data: map[string]string{
				"threshold":     strconv.Itoa(threshold),
				"usage":         usage.StringFixed(1),
				"monthly_total": in.State.MonthlyTotal.StringFixed(2),
				"budget":        in.State.Budget.StringFixed(2),
			},
			Actions: []models.NotificationAction{
				{ID: "review-budget", Label: "Review budget", Effect: models.EffectOpenBudget},
				{ID: "dismiss", Label: "Dismiss", Effect: models.EffectDismiss},
			},
			CreatedAt: in.Now,
		})
	}
	return out
}

func budgetPriority(usage decimal.Decimal) models.Priority {
	switch {
	case usage.GreaterThanOrEqual(urgentUsage):
		return models.PriorityUrgent
	case usage.GreaterThanOrEqual(highUsage):
		return models.PriorityHigh
	default:
		return models.PriorityMedium
	}
}
