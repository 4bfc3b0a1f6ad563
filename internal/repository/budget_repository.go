package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"gitlab.com/yelinaung/subscription-bot/internal/database"
	"gitlab.com/yelinaung/subscription-bot/internal/models"
)

// ErrNegativeBudget is returned when setting a budget below zero.
var ErrNegativeBudget = errors.New("budget must not be negative")

// BudgetRepository stores the single monthly budget.
type BudgetRepository struct {
	db database.PGXDB
}

// NewBudgetRepository creates a new BudgetRepository.
func NewBudgetRepository(db database.PGXDB) *BudgetRepository {
	return &BudgetRepository{db: db}
}

// Get returns the monthly budget. A missing row means no budget.
func (r *BudgetRepository) Get(ctx context.Context) (models.Budget, error) {
	var b models.Budget
	err := r.db.QueryRow(ctx,
		`SELECT monthly_amount, currency FROM budgets WHERE id = $1`, database.BudgetRowID,
	).Scan(&b.Amount, &b.Currency)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Budget{Currency: models.DefaultCurrency}, nil
	}
	if err != nil {
		return models.Budget{}, fmt.Errorf("failed to get budget: %w", err)
	}
	return b, nil
}

// Set stores the monthly budget. A zero amount clears it; an empty currency
// means models.DefaultCurrency.
func (r *BudgetRepository) Set(ctx context.Context, b models.Budget) error {
	if b.Amount.IsNegative() {
		return ErrNegativeBudget
	}
	currency := strings.ToUpper(strings.TrimSpace(b.Currency))
	if currency == "" {
		currency = models.DefaultCurrency
	}
	_, err := r.db.Exec(ctx, `
		INSERT INTO budgets (id, monthly_amount, currency) VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET
			monthly_amount = EXCLUDED.monthly_amount,
			currency = EXCLUDED.currency,
			updated_at = NOW()
	`, database.BudgetRowID, b.Amount, currency)
	if err != nil {
		return fmt.Errorf("failed to set budget: %w", err)
	}
	return nil
}
