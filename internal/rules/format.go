package rules

import (
	"github.com/shopspring/decimal"
	"gitlab.com/yelinaung/subscription-bot/internal/models"
)

const (
	dayKeyLayout   = "2006-01-02"
	monthKeyLayout = "2006-01"
	displayLayout  = "Mon, 2 Jan"
)

var twelveMonths = decimal.NewFromInt(12)

func snoozeActions() []models.NotificationAction {
	return []models.NotificationAction{
		{ID: "mark-paid", Label: "Mark as paid", Effect: models.EffectMarkPaid},
		{ID: "view-details", Label: "View details", Effect: models.EffectViewDetails},
		{ID: "snooze-1d", Label: "Remind me tomorrow", Effect: models.EffectSnooze},
	}
}
