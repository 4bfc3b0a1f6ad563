package database

import (
	"context"
	"fmt"
)

// BudgetRowID is the primary key of the single budget row.
const BudgetRowID = 1

// RunMigrations creates the database schema. Every statement is idempotent.
func RunMigrations(ctx context.Context, db PGXDB) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS subscriptions (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			amount DECIMAL(12, 2) NOT NULL CHECK (amount >= 0),
			currency TEXT NOT NULL DEFAULT 'SGD',
			billing_cycle TEXT NOT NULL DEFAULT 'monthly',
			payment_date SMALLINT NOT NULL CHECK (payment_date BETWEEN 1 AND 31),
			category TEXT NOT NULL DEFAULT 'other',
			start_date DATE,
			status TEXT NOT NULL DEFAULT 'active',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE INDEX IF NOT EXISTS idx_subscriptions_status ON subscriptions(status)`,

		`CREATE TABLE IF NOT EXISTS budgets (
			id SMALLINT PRIMARY KEY,
			monthly_amount DECIMAL(12, 2) NOT NULL DEFAULT 0 CHECK (monthly_amount >= 0),
			currency TEXT NOT NULL DEFAULT 'SGD',
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS engine_state (
			key TEXT PRIMARY KEY,
			value JSONB NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
	}

	for i, migration := range migrations {
		if _, err := db.Exec(ctx, migration); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}

	return nil
}

// SeedBudget inserts the budget row with no budget set.
func SeedBudget(ctx context.Context, db PGXDB) error {
	_, err := db.Exec(ctx,
		`INSERT INTO budgets (id, monthly_amount) VALUES ($1, 0) ON CONFLICT (id) DO NOTHING`,
		BudgetRowID,
	)
	if err != nil {
		return fmt.Errorf("failed to seed budget: %w", err)
	}
	return nil
}
