package repository

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gitlab.com/yelinaung/subscription-bot/internal/database"
	"gitlab.com/yelinaung/subscription-bot/internal/models"
)

func TestSubscriptionRepository_Upsert(t *testing.T) {
	tx := database.TestTx(t)
	ctx := context.Background()
	repo := NewSubscriptionRepository(tx)

	t.Run("creates subscription with defaults", func(t *testing.T) {
		sub := &models.Subscription{
			ID:          "netflix",
			Name:        "Netflix",
			Amount:      decimal.RequireFromString("15.99"),
			PaymentDate: 5,
		}
		require.NoError(t, repo.Upsert(ctx, sub))
		require.False(t, sub.CreatedAt.IsZero())

		fetched, err := repo.GetByID(ctx, "netflix")
		require.NoError(t, err)
		require.Equal(t, "Netflix", fetched.Name)
		require.True(t, decimal.RequireFromString("15.99").Equal(fetched.Amount))
		require.Equal(t, models.DefaultCurrency, fetched.Currency)
		require.Equal(t, models.CycleMonthly, fetched.BillingCycle)
		require.Equal(t, models.DefaultCategory, fetched.Category)
		require.Equal(t, models.SubscriptionStatusActive, fetched.Status)
		require.True(t, fetched.StartDate.IsZero())
	})

	t.Run("updates existing subscription", func(t *testing.T) {
		start := time.Date(2025, 11, 1, 0, 0, 0, 0, time.UTC)
		sub := &models.Subscription{
			ID:           "netflix",
			Name:         "Netflix Premium",
			Amount:       decimal.RequireFromString("25.98"),
			Currency:     "SGD",
			BillingCycle: models.CycleYearly,
			PaymentDate:  31,
			Category:     "entertainment",
			StartDate:    start,
		}
		require.NoError(t, repo.Upsert(ctx, sub))

		fetched, err := repo.GetByID(ctx, "netflix")
		require.NoError(t, err)
		require.Equal(t, "Netflix Premium", fetched.Name)
		require.Equal(t, models.CycleYearly, fetched.BillingCycle)
		require.Equal(t, 31, fetched.PaymentDate)
		require.Equal(t, "entertainment", fetched.Category)
		require.Equal(t, "2025-11-01", fetched.StartDate.Format("2006-01-02"))
	})
}

func TestSubscriptionRepository_GetByID_NotFound(t *testing.T) {
	tx := database.TestTx(t)
	_, err := NewSubscriptionRepository(tx).GetByID(context.Background(), "missing")
	require.ErrorIs(t, err, ErrSubscriptionNotFound)
}

func TestSubscriptionRepository_List(t *testing.T) {
	tx := database.TestTx(t)
	ctx := context.Background()
	repo := NewSubscriptionRepository(tx)

	_, err := tx.Exec(ctx, "DELETE FROM subscriptions")
	require.NoError(t, err)

	t.Run("returns empty when none exist", func(t *testing.T) {
		subs, err := repo.List(ctx)
		require.NoError(t, err)
		require.Empty(t, subs)
	})

	t.Run("orders by name", func(t *testing.T) {
		for _, s := range []models.Subscription{
			{ID: "s", Name: "Spotify", Amount: decimal.RequireFromString("9.99"), PaymentDate: 12},
			{ID: "a", Name: "Apple One", Amount: decimal.RequireFromString("19.95"), PaymentDate: 1},
			{ID: "g", Name: "Gym", Amount: decimal.RequireFromString("120"), PaymentDate: 20, Status: models.SubscriptionStatusPaused},
		} {
			require.NoError(t, repo.Upsert(ctx, &s))
		}

		subs, err := repo.List(ctx)
		require.NoError(t, err)
		require.Len(t, subs, 3)
		require.Equal(t, "Apple One", subs[0].Name)
		require.Equal(t, "Gym", subs[1].Name)
		require.False(t, subs[1].IsActive())
		require.Equal(t, "Spotify", subs[2].Name)
	})
}

func TestSubscriptionRepository_SetStatusAndDelete(t *testing.T) {
	tx := database.TestTx(t)
	ctx := context.Background()
	repo := NewSubscriptionRepository(tx)

	sub := &models.Subscription{ID: "cloud", Name: "Cloud", Amount: decimal.RequireFromString("2.99"), PaymentDate: 8}
	require.NoError(t, repo.Upsert(ctx, sub))

	require.NoError(t, repo.SetStatus(ctx, "cloud", models.SubscriptionStatusCancelled))
	fetched, err := repo.GetByID(ctx, "cloud")
	require.NoError(t, err)
	require.Equal(t, models.SubscriptionStatusCancelled, fetched.Status)

	require.ErrorIs(t, repo.SetStatus(ctx, "missing", models.SubscriptionStatusPaused), ErrSubscriptionNotFound)

	require.NoError(t, repo.Delete(ctx, "cloud"))
	require.ErrorIs(t, repo.Delete(ctx, "cloud"), ErrSubscriptionNotFound)
}
