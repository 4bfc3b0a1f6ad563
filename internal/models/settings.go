package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// UpcomingPaymentSettings configures payment reminders.
type UpcomingPaymentSettings struct {
	Enabled    bool  `json:"enabled"`
	DaysBefore []int `json:"days_before" validate:"dive,min=0,max=30"`
}

// BudgetAlertSettings configures budget threshold alerts. Thresholds are percentages.
type BudgetAlertSettings struct {
	Enabled    bool  `json:"enabled"`
	Thresholds []int `json:"thresholds" validate:"dive,min=1,max=1000"`
}

// UnusedSubscriptionSettings configures the unused-subscription heuristic.
type UnusedSubscriptionSettings struct {
	Enabled       bool `json:"enabled"`
	DaysThreshold int  `json:"days_threshold" validate:"min=1,max=3650"`
}

// WeeklyDigestSettings configures the weekly summary.
type WeeklyDigestSettings struct {
	Enabled bool         `json:"enabled"`
	Day     time.Weekday `json:"day" validate:"min=0,max=6"`
	Time    string       `json:"time" validate:"required,datetime=15:04"`
}

// SuggestionSettings configures cost-saving suggestions.
type SuggestionSettings struct {
	Enabled   bool            `json:"enabled"`
	TopN      int             `json:"top_n" validate:"min=1,max=20"`
	MinAmount decimal.Decimal `json:"min_amount" validate:"gte=0"`
}

// NotificationSettings is the user-authored notification configuration.
type NotificationSettings struct {
	Enabled             bool                       `json:"enabled"`
	LookaheadDays       int                        `json:"lookahead_days" validate:"min=1,max=60"`
	UpcomingPayments    UpcomingPaymentSettings    `json:"upcoming_payments"`
	BudgetAlerts        BudgetAlertSettings        `json:"budget_alerts"`
	UnusedSubscriptions UnusedSubscriptionSettings `json:"unused_subscriptions"`
	WeeklyDigest        WeeklyDigestSettings       `json:"weekly_digest"`
	Suggestions         SuggestionSettings         `json:"suggestions"`
}

// DefaultNotificationSettings returns the settings created on first use.
func DefaultNotificationSettings() NotificationSettings {
	return NotificationSettings{
		Enabled:       true,
		LookaheadDays: 7,
		UpcomingPayments: UpcomingPaymentSettings{
			Enabled:    true,
			DaysBefore: []int{1, 3, 7},
		},
		BudgetAlerts: BudgetAlertSettings{
			Enabled:    true,
			Thresholds: []int{75, 90, 100},
		},
		UnusedSubscriptions: UnusedSubscriptionSettings{
			Enabled:       true,
			DaysThreshold: 30,
		},
		WeeklyDigest: WeeklyDigestSettings{
			Enabled: true,
			Day:     time.Sunday,
			Time:    "09:00",
		},
		Suggestions: SuggestionSettings{
			Enabled:   true,
			TopN:      3,
			MinAmount: decimal.NewFromInt(20),
		},
	}
}

// DigestHour returns the hour component of the weekly digest time.
// Falls back to 9 when the time cannot be parsed.
func (s WeeklyDigestSettings) DigestHour() int {
	t, err := time.Parse("15:04", s.Time)
	if err != nil {
		return 9
	}
	return t.Hour()
}
