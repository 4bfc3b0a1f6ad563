package exchange

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"gitlab.com/yelinaung/subscription-bot/internal/logger"
	"gitlab.com/yelinaung/subscription-bot/internal/models"
)

// Normalizer converts subscription amounts into a single base currency.
type Normalizer struct {
	rates RateSource
	base  string
}

// NewNormalizer creates a Normalizer targeting base.
func NewNormalizer(rates RateSource, base string) *Normalizer {
	base = normalizeCurrency(base)
	if base == "" {
		base = models.DefaultCurrency
	}
	return &Normalizer{rates: rates, base: base}
}

// Base returns the target currency.
func (n *Normalizer) Base() string {
	return n.base
}

// Convert returns a copy of subs with every amount expressed in the base
// currency. Subscriptions whose rate cannot be fetched keep their original
// amount; the joined lookup errors are returned alongside the result.
func (n *Normalizer) Convert(ctx context.Context, subs []models.Subscription) ([]models.Subscription, error) {
	out := make([]models.Subscription, len(subs))
	copy(out, subs)

	var errs []error
	for i := range out {
		from := normalizeCurrency(out[i].Currency)
		if from == "" || from == n.base {
			out[i].Currency = n.base
			continue
		}

		rate, err := n.rates.Rate(ctx, from, n.base)
		if err != nil {
			logger.Log.Warn().
				Err(err).
				Str("subscription", logger.HashSubscriptionID(out[i].ID)).
				Str("from", from).
				Str("to", n.base).
				Msg("Failed to convert subscription amount, keeping original")
			errs = append(errs, fmt.Errorf("failed to convert %s: %w", out[i].ID, err))
			continue
		}
		out[i].Amount = rate.Apply(out[i].Amount)
		out[i].Currency = n.base
	}
	return out, errors.Join(errs...)
}

// ConvertAmount expresses amount, given in from, in the base currency. An
// empty from is taken to be the base already.
func (n *Normalizer) ConvertAmount(ctx context.Context, amount decimal.Decimal, from string) (decimal.Decimal, error) {
	from = normalizeCurrency(from)
	if from == "" || from == n.base {
		return amount, nil
	}
	rate, err := n.rates.Rate(ctx, from, n.base)
	if err != nil {
		return amount, fmt.Errorf("failed to convert %s to %s: %w", from, n.base, err)
	}
	return rate.Apply(amount), nil
}
