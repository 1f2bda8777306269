package database

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

func setupTestDB(t *testing.T) (*pgxpool.Pool, func()) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	ctx := context.Background()

	container, err := postgres.Run(ctx, "postgres:16-alpine",
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	require.NoError(t, err, "Failed to start postgres container")

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err, "Failed to get connection string")

	config, err := pgxpool.ParseConfig(connStr)
	require.NoError(t, err)

	pool, err := pgxpool.NewWithConfig(ctx, config)
	require.NoError(t, err, "Failed to create connection pool")

	err = runTestMigrations(ctx, pool)
	require.NoError(t, err, "Failed to run migrations")

	cleanup := func() {
		pool.Close()
		testcontainers.TerminateContainer(container)
	}

	return pool, cleanup
}

// runTestMigrations creates the minimal schema the store tests need.
func runTestMigrations(ctx context.Context, db *pgxpool.Pool) error {
	schema := `
	CREATE TABLE IF NOT EXISTS places (
		address TEXT PRIMARY KEY,
		latitude DOUBLE PRECISION NOT NULL,
		longitude DOUBLE PRECISION NOT NULL,
		resolved_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);
	`
	_, err := db.Exec(ctx, schema)
	return err
}

func TestPlaceStoreGetMissing(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewPlaceStore(pool)

	_, err := store.Get(context.Background(), "never resolved")
	assert.ErrorIs(t, err, ErrPlaceNotFound)
}

func TestPlaceStoreUpsertThenGet(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewPlaceStore(pool)
	ctx := context.Background()

	created, err := store.Upsert(ctx, "Moscow, Arbat 1", 55.76, 37.61)
	require.NoError(t, err)
	assert.Equal(t, 55.76, created.Latitude)
	assert.Equal(t, 37.61, created.Longitude)

	got, err := store.Get(ctx, "Moscow, Arbat 1")
	require.NoError(t, err)
	assert.Equal(t, created.Latitude, got.Latitude)
	assert.Equal(t, created.Longitude, got.Longitude)
}

func TestPlaceStoreUpsertKeepsFirstRow(t *testing.T) {
	// Get-or-create: a second resolution with different coordinates must
	// not overwrite what the first one stored.
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewPlaceStore(pool)
	ctx := context.Background()

	_, err := store.Upsert(ctx, "Moscow, Arbat 1", 55.76, 37.61)
	require.NoError(t, err)

	second, err := store.Upsert(ctx, "Moscow, Arbat 1", 99.0, 99.0)
	require.NoError(t, err)
	assert.Equal(t, 55.76, second.Latitude)
	assert.Equal(t, 37.61, second.Longitude)
}

func TestPlaceStoreConcurrentUpsertsConverge(t *testing.T) {
	// The unique constraint makes concurrent resolutions of a new address
	// converge on a single row no matter who wins the insert.
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewPlaceStore(pool)
	ctx := context.Background()

	const writers = 8
	var wg sync.WaitGroup
	results := make([]*Place, writers)
	errs := make([]error, writers)

	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = store.Upsert(ctx, "Moscow, Tverskaya 1", 55.76+float64(i), 37.61)
		}(i)
	}
	wg.Wait()

	for i := 0; i < writers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, results[0].Latitude, results[i].Latitude)
		assert.Equal(t, results[0].Longitude, results[i].Longitude)
	}

	var count int
	err := pool.QueryRow(ctx, `SELECT COUNT(*) FROM places WHERE address = $1`, "Moscow, Tverskaya 1").Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestPlaceStoreDelete(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewPlaceStore(pool)
	ctx := context.Background()

	_, err := store.Upsert(ctx, "Moscow, Arbat 1", 55.76, 37.61)
	require.NoError(t, err)

	require.NoError(t, store.Delete(ctx, "Moscow, Arbat 1"))

	_, err = store.Get(ctx, "Moscow, Arbat 1")
	assert.ErrorIs(t, err, ErrPlaceNotFound)
}
