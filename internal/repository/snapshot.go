package repository

import (
	"context"

	"gitlab.com/yelinaung/subscription-bot/internal/engine"
)

// SnapshotSource reads the engine snapshot from the subscription and budget tables.
type SnapshotSource struct {
	subs    *SubscriptionRepository
	budgets *BudgetRepository
}

// NewSnapshotSource creates a SnapshotSource.
func NewSnapshotSource(subs *SubscriptionRepository, budgets *BudgetRepository) *SnapshotSource {
	return &SnapshotSource{subs: subs, budgets: budgets}
}

// Snapshot implements engine.SnapshotSource.
func (s *SnapshotSource) Snapshot(ctx context.Context) (engine.Snapshot, error) {
	subs, err := s.subs.List(ctx)
	if err != nil {
		return engine.Snapshot{}, err
	}
	budget, err := s.budgets.Get(ctx)
	if err != nil {
		return engine.Snapshot{}, err
	}
	return engine.Snapshot{
		Subscriptions:  subs,
		MonthlyBudget:  budget.Amount,
		BudgetCurrency: budget.Currency,
	}, nil
}

var _ engine.SnapshotSource = (*SnapshotSource)(nil)
