package rules

import (
	"fmt"
	"strconv"
	"strings"

	"gitlab.com/yelinaung/subscription-bot/internal/budget"
	"gitlab.com/yelinaung/subscription-bot/internal/models"
)

// WeeklyDigest summarises the snapshot on the configured weekday, at any pass
// from the configured hour onwards. The per-day ID keeps it to one a week.
func WeeklyDigest(in Input) []models.SmartNotification {
	cfg := in.Settings.WeeklyDigest
	if !cfg.Enabled {
		return nil
	}
	if in.Now.Weekday() != cfg.Day || in.Now.Hour() < cfg.DigestHour() {
		return nil
	}

	state := in.State
	headroom := budget.Headroom(state)

	var msg strings.Builder
	fmt.Fprintf(&msg, "%d active subscriptions cost %s a month (%s a year).",
		state.ActiveCount,
		models.FormatMoney(state.MonthlyTotal, in.Currency),
		models.FormatMoney(state.YearlyTotal, in.Currency),
	)
	if state.Budget.IsPositive() {
		fmt.Fprintf(&msg, " %s left in your %s budget.", models.FormatMoney(headroom, in.Currency), models.FormatMoney(state.Budget, in.Currency))
	} else {
		msg.WriteString(" No monthly budget set.")
	}
	if n := len(state.Upcoming); n > 0 {
		fmt.Fprintf(&msg, " %d payments due this week.", n)
	}

	return []models.SmartNotification{{
		ID:           "digest-" + in.Now.Format(dayKeyLayout),
		Type:         models.NotificationWeeklyDigest,
		Title:        "Your weekly subscription digest",
		Message:      msg.String(),
		Priority:     models.PriorityLow,
		ScheduledFor: in.Now,
		Data: map[string]string{
			"subscription_count": strconv.Itoa(state.ActiveCount),
			"monthly_total":      state.MonthlyTotal.StringFixed(2),
			"headroom":           headroom.StringFixed(2),
			"upcoming_count":     strconv.Itoa(len(state.Upcoming)),
		},
		Actions: []models.NotificationAction{
			{ID: "view-details", Label: "View details", Effect: models.EffectViewDetails},
		},
		CreatedAt: in.Now,
	}}
}
