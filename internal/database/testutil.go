package database

import (
	"context"
	"os"
	"sync"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
)

// TestDatabaseURLEnv names the variable that enables integration tests.
const TestDatabaseURLEnv = "TEST_DATABASE_URL"

var shared struct {
	once sync.Once
	pool *pgxpool.Pool
	err  error
}

func setupShared(ctx context.Context, url string) (*pgxpool.Pool, error) {
	pool, err := Connect(ctx, url)
	if err != nil {
		return nil, err
	}
	if err := RunMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}
	if err := SeedBudget(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}

// TestPool returns a migrated, seeded pool shared by every test in the
// process. The test is skipped when TEST_DATABASE_URL is unset.
func TestPool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	url := os.Getenv(TestDatabaseURLEnv)
	if url == "" {
		t.Skipf("%s not set, skipping integration test", TestDatabaseURLEnv)
	}

	shared.once.Do(func() {
		shared.pool, shared.err = setupShared(context.Background(), url)
	})
	if shared.err != nil {
		t.Fatalf("failed to setup test database: %v", shared.err)
	}
	return shared.pool
}

// TestTx opens a transaction on the shared pool and rolls it back when the
// test ends, so repository tests can run in parallel:
//
//	subs := repository.NewSubscriptionRepository(database.TestTx(t))
func TestTx(t *testing.T) PGXDB {
	t.Helper()

	tx, err := TestPool(t).Begin(context.Background())
	if err != nil {
		t.Fatalf("failed to begin transaction: %v", err)
	}
	t.Cleanup(func() {
		_ = tx.Rollback(context.Background())
	})
	return tx
}
