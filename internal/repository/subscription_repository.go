package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"gitlab.com/yelinaung/subscription-bot/internal/database"
	"gitlab.com/yelinaung/subscription-bot/internal/models"
)

// ErrSubscriptionNotFound is returned when no subscription has the given ID.
var ErrSubscriptionNotFound = errors.New("subscription not found")

const subscriptionColumns = `id, name, amount, currency, billing_cycle, payment_date, category, start_date, status, created_at, updated_at`

// SubscriptionRepository handles subscription database operations.
type SubscriptionRepository struct {
	db database.PGXDB
}

// NewSubscriptionRepository creates a new SubscriptionRepository.
func NewSubscriptionRepository(db database.PGXDB) *SubscriptionRepository {
	return &SubscriptionRepository{db: db}
}

// Upsert inserts sub or replaces the row with the same ID.
func (r *SubscriptionRepository) Upsert(ctx context.Context, sub *models.Subscription) error {
	if sub.Status == "" {
		sub.Status = models.SubscriptionStatusActive
	}
	if sub.Currency == "" {
		sub.Currency = models.DefaultCurrency
	}
	if sub.BillingCycle == "" {
		sub.BillingCycle = models.CycleMonthly
	}

	err := r.db.QueryRow(ctx, `
		INSERT INTO subscriptions (id, name, amount, currency, billing_cycle, payment_date, category, start_date, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			amount = EXCLUDED.amount,
			currency = EXCLUDED.currency,
			billing_cycle = EXCLUDED.billing_cycle,
			payment_date = EXCLUDED.payment_date,
			category = EXCLUDED.category,
			start_date = EXCLUDED.start_date,
			status = EXCLUDED.status,
			updated_at = NOW()
		RETURNING created_at, updated_at
	`, sub.ID, sub.Name, sub.Amount, sub.Currency, string(sub.BillingCycle), sub.PaymentDate,
		sub.CategoryKey(), nullableDate(sub.StartDate), sub.Status,
	).Scan(&sub.CreatedAt, &sub.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert subscription: %w", err)
	}
	return nil
}

// GetByID retrieves a subscription by ID.
func (r *SubscriptionRepository) GetByID(ctx context.Context, id string) (*models.Subscription, error) {
	row := r.db.QueryRow(ctx, `SELECT `+subscriptionColumns+` FROM subscriptions WHERE id = $1`, id)
	sub, err := scanSubscription(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrSubscriptionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get subscription: %w", err)
	}
	return &sub, nil
}

// List returns every subscription ordered by name.
func (r *SubscriptionRepository) List(ctx context.Context) ([]models.Subscription, error) {
	rows, err := r.db.Query(ctx, `SELECT `+subscriptionColumns+` FROM subscriptions ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query subscriptions: %w", err)
	}
	defer rows.Close()

	var subs []models.Subscription
	for rows.Next() {
		sub, err := scanSubscription(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan subscription: %w", err)
		}
		subs = append(subs, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate subscriptions: %w", err)
	}
	return subs, nil
}

// SetStatus changes the status of a subscription.
func (r *SubscriptionRepository) SetStatus(ctx context.Context, id, status string) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE subscriptions SET status = $2, updated_at = NOW() WHERE id = $1`, id, status)
	if err != nil {
		return fmt.Errorf("failed to update subscription status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrSubscriptionNotFound
	}
	return nil
}

// Delete removes a subscription.
func (r *SubscriptionRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM subscriptions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete subscription: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrSubscriptionNotFound
	}
	return nil
}

func scanSubscription(row pgx.Row) (models.Subscription, error) {
	var (
		sub       models.Subscription
		cycle     string
		startDate *time.Time
	)
	err := row.Scan(&sub.ID, &sub.Name, &sub.Amount, &sub.Currency, &cycle, &sub.PaymentDate,
		&sub.Category, &startDate, &sub.Status, &sub.CreatedAt, &sub.UpdatedAt)
	if err != nil {
		return models.Subscription{}, err
	}
	sub.BillingCycle = models.BillingCycle(cycle)
	if startDate != nil {
		sub.StartDate = *startDate
	}
	return sub, nil
}

func nullableDate(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
