// Package budget folds a subscription snapshot into monthly totals, a category
// breakdown and the set of payments due soon.
package budget

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"gitlab.com/yelinaung/subscription-bot/internal/billing"
	"gitlab.com/yelinaung/subscription-bot/internal/models"
)

// DefaultLookaheadDays is used when the caller passes a non-positive window.
const DefaultLookaheadDays = 7

var (
	hundred    = decimal.NewFromInt(100)
	monthsYear = decimal.NewFromInt(12)
)

// Aggregate computes the budget state for subs at now. Inactive subscriptions
// are ignored. Upcoming holds active subscriptions whose next payment is
// between 0 and lookaheadDays calendar days away, earliest first.
func Aggregate(subs []models.Subscription, budget decimal.Decimal, now time.Time, lookaheadDays int) models.BudgetState {
	if lookaheadDays <= 0 {
		lookaheadDays = DefaultLookaheadDays
	}

	state := models.BudgetState{
		Budget:            budget,
		MonthlyTotal:      decimal.Zero,
		CategoryBreakdown: make(map[string]models.CategoryTotal),
	}

	for _, sub := range subs {
		if !sub.IsActive() {
			continue
		}

		monthly := billing.NormalizeToMonthly(sub.Amount, sub.BillingCycle)
		state.MonthlyTotal = state.MonthlyTotal.Add(monthly)
		state.ActiveCount++

		key := sub.CategoryKey()
		cat := state.CategoryBreakdown[key]
		cat.Count++
		cat.MonthlyTotal = cat.MonthlyTotal.Add(monthly)
		state.CategoryBreakdown[key] = cat

		next := billing.NextPaymentDate(sub.PaymentDate, sub.BillingCycle, now)
		days := billing.DaysUntil(now, next)
		if days >= 0 && days <= lookaheadDays {
			state.Upcoming = append(state.Upcoming, models.UpcomingPayment{
				Subscription: sub,
				Date:         next,
				DaysUntil:    days,
			})
		}
	}

	state.YearlyTotal = state.MonthlyTotal.Mul(monthsYear)

	sort.SliceStable(state.Upcoming, func(i, j int) bool {
		a, b := state.Upcoming[i], state.Upcoming[j]
		if !a.Date.Equal(b.Date) {
			return a.Date.Before(b.Date)
		}
		return a.Subscription.Name < b.Subscription.Name
	})

	return state
}

// Usage returns monthly spend as a percentage of the budget.
// ok is false when no budget is set.
func Usage(state models.BudgetState) (percent decimal.Decimal, ok bool) {
	if !state.Budget.IsPositive() {
		return decimal.Zero, false
	}
	return state.MonthlyTotal.Div(state.Budget).Mul(hundred), true
}

// Headroom returns how much of the budget is left, never below zero.
func Headroom(state models.BudgetState) decimal.Decimal {
	left := state.Budget.Sub(state.MonthlyTotal)
	if left.IsNegative() {
		return decimal.Zero
	}
	return left
}

// Categories returns the breakdown keys sorted by monthly spend, highest first.
func Categories(state models.BudgetState) []string {
	keys := make([]string, 0, len(state.CategoryBreakdown))
	for k := range state.CategoryBreakdown {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		a := state.CategoryBreakdown[keys[i]].MonthlyTotal
		b := state.CategoryBreakdown[keys[j]].MonthlyTotal
		if !a.Equal(b) {
			return a.GreaterThan(b)
		}
		return keys[i] < keys[j]
	})
	return keys
}
