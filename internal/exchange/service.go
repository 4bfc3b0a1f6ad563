// Package exchange looks up currency exchange rates and converts subscription
// amounts into the configured base currency.
package exchange

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var (
	errRateMissing            = errors.New("conversion rate missing in response")
	errInvalidNonPositiveRate = errors.New("conversion rate must be positive")
	errCurrencyRequired       = errors.New("from and to currencies are required")
)

// Rate is the price of one unit of From expressed in To.
type Rate struct {
	From  string
	To    string
	Value decimal.Decimal
	Date  time.Time
}

// Apply converts amount with the rate, rounded to cents.
func (r Rate) Apply(amount decimal.Decimal) decimal.Decimal {
	return amount.Mul(r.Value).Round(2)
}

// RateSource returns exchange rates between two currencies.
type RateSource interface {
	Rate(ctx context.Context, fromCurrency, toCurrency string) (Rate, error)
}

func normalizeCurrency(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func identityRate(currency string) Rate {
	return Rate{
		From:  currency,
		To:    currency,
		Value: decimal.NewFromInt(1),
		Date:  time.Now().UTC(),
	}
}

func validateConversionRate(rate decimal.Decimal) error {
	if !rate.IsPositive() {
		return errInvalidNonPositiveRate
	}
	return nil
}
