//go:build ignore
// +build ignore

package main

import (
	"fmt"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"gitlab.com/yelinaung/subscription-bot/internal/bot"
	"gitlab.com/yelinaung/subscription-bot/internal/budget"
	"gitlab.com/yelinaung/subscription-bot/internal/models"
)

func main() {
	subs := []models.Subscription{
		{Name: "Netflix", Amount: decimal.NewFromFloat(19.98), BillingCycle: models.CycleMonthly, PaymentDate: 5, Category: "entertainment"},
		{Name: "Spotify", Amount: decimal.NewFromFloat(10.98), BillingCycle: models.CycleMonthly, PaymentDate: 12, Category: "music"},
		{Name: "iCloud", Amount: decimal.NewFromFloat(3.98), BillingCycle: models.CycleMonthly, PaymentDate: 20, Category: "cloud"},
		{Name: "Adobe", Amount: decimal.NewFromFloat(359.88), BillingCycle: models.CycleYearly, PaymentDate: 1, Category: "software"},
		{Name: "Gym", Amount: decimal.NewFromFloat(180), BillingCycle: models.CycleQuarterly, PaymentDate: 15, Category: "health"},
	}

	state := budget.Aggregate(subs, decimal.NewFromInt(150), time.Now(), 7)

	chartData, err := bot.GenerateBudgetChart(state, models.DefaultCurrency)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := os.WriteFile("graph.png", chartData, 0600); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing file: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("✓ Created graph.png - Example monthly spend by category chart")
}
