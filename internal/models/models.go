// Package models defines the domain entities for the subscription tracker.
package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// DefaultCurrency is the base currency used when none is configured.
const DefaultCurrency = "SGD"

// DefaultCategory is the category key for subscriptions without one.
const DefaultCategory = "other"

// MaxSubscriptionNameLength is the maximum allowed length for subscription names.
const MaxSubscriptionNameLength = 80

// SupportedCurrencies lists all supported currency codes.
var SupportedCurrencies = map[string]string{
	"SGD": "S$",
	"USD": "$",
	"EUR": "€",
	"GBP": "£",
	"JPY": "¥",
	"CNY": "¥",
	"MYR": "RM",
	"THB": "฿",
	"IDR": "Rp",
	"PHP": "₱",
	"VND": "₫",
	"KRW": "₩",
	"INR": "₹",
	"AUD": "A$",
	"NZD": "NZ$",
	"HKD": "HK$",
	"TWD": "NT$",
}

// FormatMoney renders amount with the currency symbol, e.g. "S$15.99".
// Unknown codes are appended instead; an empty code means DefaultCurrency.
func FormatMoney(amount decimal.Decimal, currency string) string {
	if currency == "" {
		currency = DefaultCurrency
	}
	if symbol, ok := SupportedCurrencies[currency]; ok {
		return symbol + amount.StringFixed(2)
	}
	return amount.StringFixed(2) + " " + currency
}

// Budget is the monthly spending limit in its own currency. A zero Amount
// means no budget.
type Budget struct {
	Amount   decimal.Decimal
	Currency string
}

// BillingCycle is the recurrence pattern of a subscription charge.
type BillingCycle string

// Billing cycles.
const (
	CycleWeekly    BillingCycle = "weekly"
	CycleMonthly   BillingCycle = "monthly"
	CycleQuarterly BillingCycle = "quarterly"
	CycleYearly    BillingCycle = "yearly"
)

// Valid reports whether c is one of the known cycles.
func (c BillingCycle) Valid() bool {
	switch c {
	case CycleWeekly, CycleMonthly, CycleQuarterly, CycleYearly:
		return true
	default:
		return false
	}
}

// SubscriptionStatus values.
const (
	SubscriptionStatusActive    = "active"
	SubscriptionStatusPaused    = "paused"
	SubscriptionStatusCancelled = "cancelled"
)

// Subscription represents a recurring charge tracked by the user.
type Subscription struct {
	ID           string
	Name         string
	Amount       decimal.Decimal
	Currency     string
	BillingCycle BillingCycle
	PaymentDate  int
	Category     string
	StartDate    time.Time
	Status       string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// IsActive reports whether the subscription counts towards totals.
// An empty status is treated as active.
func (s Subscription) IsActive() bool {
	return s.Status == "" || s.Status == SubscriptionStatusActive
}

// CategoryKey returns the category used for breakdowns.
func (s Subscription) CategoryKey() string {
	if s.Category == "" {
		return DefaultCategory
	}
	return s.Category
}

// CategoryTotal is the per-category slice of a budget breakdown.
type CategoryTotal struct {
	Count        int
	MonthlyTotal decimal.Decimal
}

// UpcomingPayment is a subscription whose next charge falls inside the lookahead window.
type UpcomingPayment struct {
	Subscription Subscription
	Date         time.Time
	DaysUntil    int
}

// BudgetState is the derived view of a subscription snapshot against a budget.
type BudgetState struct {
	Budget            decimal.Decimal
	MonthlyTotal      decimal.Decimal
	YearlyTotal       decimal.Decimal
	ActiveCount       int
	CategoryBreakdown map[string]CategoryTotal
	Upcoming          []UpcomingPayment
}
