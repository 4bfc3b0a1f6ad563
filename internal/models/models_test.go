package models

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestSubscription(t *testing.T) {
	t.Parallel()

	t.Run("empty status counts as active", func(t *testing.T) {
		t.Parallel()
		sub := Subscription{ID: "netflix", Amount: decimal.NewFromFloat(15.99)}
		require.True(t, sub.IsActive())
	})

	t.Run("paused and cancelled are inactive", func(t *testing.T) {
		t.Parallel()
		require.False(t, Subscription{Status: SubscriptionStatusPaused}.IsActive())
		require.False(t, Subscription{Status: SubscriptionStatusCancelled}.IsActive())
		require.True(t, Subscription{Status: SubscriptionStatusActive}.IsActive())
	})

	t.Run("category defaults to other", func(t *testing.T) {
		t.Parallel()
		require.Equal(t, DefaultCategory, Subscription{}.CategoryKey())
		require.Equal(t, "music", Subscription{Category: "music"}.CategoryKey())
	})
}

func TestBillingCycle_Valid(t *testing.T) {
	t.Parallel()

	for _, c := range []BillingCycle{CycleWeekly, CycleMonthly, CycleQuarterly, CycleYearly} {
		require.True(t, c.Valid(), string(c))
	}
	require.False(t, BillingCycle("daily").Valid())
	require.False(t, BillingCycle("").Valid())
}

func TestPriority_Rank(t *testing.T) {
	t.Parallel()

	require.Greater(t, PriorityUrgent.Rank(), PriorityHigh.Rank())
	require.Greater(t, PriorityHigh.Rank(), PriorityMedium.Rank())
	require.Greater(t, PriorityMedium.Rank(), PriorityLow.Rank())
	require.Greater(t, PriorityLow.Rank(), Priority("bogus").Rank())
}

func TestSmartNotification_Status(t *testing.T) {
	t.Parallel()

	at := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	t.Run("queued until delivered", func(t *testing.T) {
		t.Parallel()
		require.Equal(t, StatusQueued, SmartNotification{}.Status())
		require.Equal(t, StatusDelivered, SmartNotification{DeliveredAt: &at}.Status())
	})

	t.Run("dismissed wins over viewed", func(t *testing.T) {
		t.Parallel()
		n := SmartNotification{DeliveredAt: &at, Viewed: true, Dismissed: true}
		require.Equal(t, StatusDismissed, n.Status())
		n.Dismissed = false
		require.Equal(t, StatusViewed, n.Status())
	})
}

func TestEngineState_Clone(t *testing.T) {
	t.Parallel()

	at := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	orig := EngineState{
		LastProcessed: at,
		Log: []SmartNotification{{
			ID:          "budget-75-2026-03",
			Data:        map[string]string{"threshold": "75"},
			Actions:     []NotificationAction{{ID: "open", Label: "Open", Effect: EffectOpenBudget}},
			DeliveredAt: &at,
		}},
		DismissedIDs: []string{"unused-1"},
		EmittedIDs:   []string{"budget-75-2026-03"},
	}

	clone := orig.Clone()
	clone.Log[0].Data["threshold"] = "90"
	clone.Log[0].Actions[0].Label = "changed"
	*clone.Log[0].DeliveredAt = at.Add(time.Hour)
	clone.DismissedIDs[0] = "other"
	clone.EmittedIDs[0] = "other"

	require.Equal(t, "75", orig.Log[0].Data["threshold"])
	require.Equal(t, "Open", orig.Log[0].Actions[0].Label)
	require.Equal(t, at, *orig.Log[0].DeliveredAt)
	require.Equal(t, "unused-1", orig.DismissedIDs[0])
	require.Equal(t, "budget-75-2026-03", orig.EmittedIDs[0])
}

func TestDefaultNotificationSettings(t *testing.T) {
	t.Parallel()

	s := DefaultNotificationSettings()
	require.True(t, s.Enabled)
	require.Equal(t, []int{1, 3, 7}, s.UpcomingPayments.DaysBefore)
	require.Equal(t, []int{75, 90, 100}, s.BudgetAlerts.Thresholds)
	require.Equal(t, time.Sunday, s.WeeklyDigest.Day)
	require.Equal(t, 9, s.WeeklyDigest.DigestHour())
	require.True(t, decimal.NewFromInt(20).Equal(s.Suggestions.MinAmount))
}

func TestWeeklyDigestSettings_DigestHour(t *testing.T) {
	t.Parallel()

	require.Equal(t, 18, WeeklyDigestSettings{Time: "18:30"}.DigestHour())
	require.Equal(t, 9, WeeklyDigestSettings{Time: "late"}.DigestHour())
}

func TestFormatMoney(t *testing.T) {
	t.Parallel()

	tests := []struct {
		amount   string
		currency string
		want     string
	}{
		{"15.99", "SGD", "S$15.99"},
		{"9.5", "USD", "$9.50"},
		{"1200", "", "S$1200.00"},
		{"3", "CHF", "3.00 CHF"},
	}

	for _, tt := range tests {
		t.Run(tt.currency, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tt.want, FormatMoney(decimal.RequireFromString(tt.amount), tt.currency))
		})
	}
}
