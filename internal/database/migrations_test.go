package database

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func tableExists(t *testing.T, db PGXDB, table string) bool {
	t.Helper()

	var exists bool
	err := db.QueryRow(context.Background(), `
		SELECT EXISTS (
			SELECT FROM information_schema.tables
			WHERE table_name = $1
		)
	`, table).Scan(&exists)
	require.NoError(t, err)
	return exists
}

func TestRunMigrations(t *testing.T) {
	pool := TestPool(t)
	ctx := context.Background()

	require.NoError(t, RunMigrations(ctx, pool))

	for _, table := range []string{"subscriptions", "budgets", "engine_state"} {
		require.True(t, tableExists(t, pool, table), table)
	}
}

func TestRunMigrations_Idempotent(t *testing.T) {
	pool := TestPool(t)
	ctx := context.Background()

	require.NoError(t, RunMigrations(ctx, pool))
	require.NoError(t, RunMigrations(ctx, pool))
}

func TestSeedBudget(t *testing.T) {
	db := TestTx(t)
	ctx := context.Background()

	_, err := db.Exec(ctx, "DELETE FROM budgets")
	require.NoError(t, err)

	require.NoError(t, SeedBudget(ctx, db))
	require.NoError(t, SeedBudget(ctx, db))

	var count int
	require.NoError(t, db.QueryRow(ctx, "SELECT COUNT(*) FROM budgets").Scan(&count))
	require.Equal(t, 1, count)

	var amount string
	require.NoError(t, db.QueryRow(ctx, "SELECT monthly_amount::text FROM budgets WHERE id = $1", BudgetRowID).Scan(&amount))
	require.Equal(t, "0.00", amount)
}

func TestMigrations_Constraints(t *testing.T) {
	db := TestTx(t)
	ctx := context.Background()

	t.Run("payment date must be a day of month", func(t *testing.T) {
		_, err := db.Exec(ctx, "SAVEPOINT bad_day")
		require.NoError(t, err)
		_, err = db.Exec(ctx,
			`INSERT INTO subscriptions (id, name, amount, payment_date) VALUES ('x', 'X', 1, 32)`)
		require.Error(t, err)
		_, err = db.Exec(ctx, "ROLLBACK TO SAVEPOINT bad_day")
		require.NoError(t, err)
	})

	t.Run("defaults", func(t *testing.T) {
		_, err := db.Exec(ctx,
			`INSERT INTO subscriptions (id, name, amount, payment_date) VALUES ('y', 'Y', 1, 5)`)
		require.NoError(t, err)

		var currency, cycle, category, status string
		err = db.QueryRow(ctx,
			`SELECT currency, billing_cycle, category, status FROM subscriptions WHERE id = 'y'`,
		).Scan(&currency, &cycle, &category, &status)
		require.NoError(t, err)
		require.Equal(t, "SGD", currency)
		require.Equal(t, "monthly", cycle)
		require.Equal(t, "other", category)
		require.Equal(t, "active", status)
	})
}
