package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"gitlab.com/yelinaung/subscription-bot/internal/database"
	"gitlab.com/yelinaung/subscription-bot/internal/store"
)

// StateRepository is a store.Store backed by the engine_state table.
type StateRepository struct {
	db database.PGXDB
}

// NewStateRepository creates a new StateRepository.
func NewStateRepository(db database.PGXDB) *StateRepository {
	return &StateRepository{db: db}
}

// Get implements store.Store.
func (r *StateRepository) Get(ctx context.Context, key string, dst any) error {
	var raw []byte
	err := r.db.QueryRow(ctx, `SELECT value FROM engine_state WHERE key = $1`, key).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return store.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to get %s: %w", key, err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return nil
}

// Set implements store.Store.
func (r *StateRepository) Set(ctx context.Context, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	_, err = r.db.Exec(ctx, `
		INSERT INTO engine_state (key, value) VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()
	`, key, raw)
	if err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}
	return nil
}

var _ store.Store = (*StateRepository)(nil)
