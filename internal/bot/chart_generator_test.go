package bot

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"gitlab.com/yelinaung/subscription-bot/internal/budget"
	"gitlab.com/yelinaung/subscription-bot/internal/models"
)

func TestGenerateBudgetChart(t *testing.T) {
	now := time.Date(2026, 3, 3, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		name        string
		subs        []models.Subscription
		expectError bool
	}{
		{
			name: "generates chart with multiple categories",
			subs: []models.Subscription{
				{ID: "1", Name: "Netflix", Amount: decimal.NewFromFloat(15.99), BillingCycle: models.CycleMonthly, PaymentDate: 5, Category: "entertainment"},
				{ID: "2", Name: "Spotify", Amount: decimal.NewFromFloat(9.99), BillingCycle: models.CycleMonthly, PaymentDate: 12, Category: "entertainment"},
				{ID: "3", Name: "iCloud", Amount: decimal.NewFromFloat(35.88), BillingCycle: models.CycleYearly, PaymentDate: 20, Category: "cloud"},
			},
		},
		{
			name: "handles uncategorized subscriptions",
			subs: []models.Subscription{
				{ID: "1", Name: "Gym", Amount: decimal.NewFromInt(60), BillingCycle: models.CycleMonthly, PaymentDate: 1},
			},
		},
		{
			name: "ignores inactive subscriptions",
			subs: []models.Subscription{
				{ID: "1", Name: "Old", Amount: decimal.NewFromInt(10), BillingCycle: models.CycleMonthly, PaymentDate: 1, Status: models.SubscriptionStatusCancelled},
			},
			expectError: true,
		},
		{
			name:        "handles empty subscription list",
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state := budget.Aggregate(tt.subs, decimal.NewFromInt(100), now, 7)
			buf, err := GenerateBudgetChart(state, "SGD")

			if tt.expectError {
				if !errors.Is(err, errNoCategories) {
					t.Errorf("expected errNoCategories, got %v", err)
				}
				return
			}

			if err != nil {
				t.Errorf("unexpected error: %v", err)
				return
			}

			if len(buf) == 0 {
				t.Errorf("expected non-empty PNG data")
			}

			// PNG files start with magic bytes: 89 50 4E 47
			if len(buf) >= 4 && (buf[0] != 0x89 || buf[1] != 0x50 || buf[2] != 0x4E || buf[3] != 0x47) {
				t.Errorf("output does not appear to be a PNG file")
			}
		})
	}
}
