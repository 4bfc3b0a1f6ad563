// Package billing converts billing cycles to a monthly basis and computes
// upcoming payment dates.
package billing

import (
	"math"
	"time"

	"github.com/shopspring/decimal"
	"gitlab.com/yelinaung/subscription-bot/internal/models"
)

// WeeksPerMonth is the average number of weeks in a month.
var WeeksPerMonth = decimal.RequireFromString("4.33")

var (
	three  = decimal.NewFromInt(3)
	twelve = decimal.NewFromInt(12)
)

// NormalizeToMonthly returns the monthly equivalent of amount billed every cycle.
// Unknown cycles are treated as monthly.
func NormalizeToMonthly(amount decimal.Decimal, cycle models.BillingCycle) decimal.Decimal {
	switch cycle {
	case models.CycleWeekly:
		return amount.Mul(WeeksPerMonth)
	case models.CycleQuarterly:
		return amount.Div(three)
	case models.CycleYearly:
		return amount.Div(twelve)
	default:
		return amount
	}
}

// NextPaymentDate returns the first payment strictly after ref for a charge
// anchored on day paymentDate of the month.
//
// Days past the end of a short month are clamped to its last day, so day 31
// lands on April 30 and on February 28 or 29. The returned time is midnight in
// ref's location.
func NextPaymentDate(paymentDate int, cycle models.BillingCycle, ref time.Time) time.Time {
	day := clampDay(paymentDate)
	loc := ref.Location()

	candidate := dateIn(ref.Year(), ref.Month(), day, loc)
	if candidate.After(ref) {
		return candidate
	}

	switch cycle {
	case models.CycleWeekly:
		for !candidate.After(ref) {
			candidate = candidate.AddDate(0, 0, 7)
		}
		return candidate
	case models.CycleQuarterly:
		return dateIn(ref.Year(), ref.Month()+3, day, loc)
	case models.CycleYearly:
		return dateIn(ref.Year()+1, ref.Month(), day, loc)
	default:
		return dateIn(ref.Year(), ref.Month()+1, day, loc)
	}
}

// DaysUntil returns the number of calendar days from the day of from to the day of to.
// Negative when to is on an earlier day.
func DaysUntil(from, to time.Time) int {
	loc := from.Location()
	start := StartOfDay(from)
	end := StartOfDay(to.In(loc))
	return int(math.Round(end.Sub(start).Hours() / 24))
}

// StartOfDay truncates t to midnight in its own location.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// DaysInMonth returns the number of days in the given month.
func DaysInMonth(year int, month time.Month, loc *time.Location) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, loc).Day()
}

// dateIn builds the date for day in the given month, normalising month overflow
// first and then clamping the day to the month length.
func dateIn(year int, month time.Month, day int, loc *time.Location) time.Time {
	first := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	last := DaysInMonth(first.Year(), first.Month(), loc)
	if day > last {
		day = last
	}
	return time.Date(first.Year(), first.Month(), day, 0, 0, 0, 0, loc)
}

func clampDay(day int) int {
	if day < 1 {
		return 1
	}
	if day > 31 {
		return 31
	}
	return day
}
