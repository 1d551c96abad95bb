package ch

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	clickhouseTC "github.com/testcontainers/testcontainers-go/modules/clickhouse"

	"ghexplorer/internal/models"
)

// runMigrations manually creates the journal table, mirroring migrations/
func runMigrations(ctx context.Context, db *ClickHouseDB) error {
	_ = db.conn.Exec(ctx, "DROP TABLE IF EXISTS interactions")

	return db.conn.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS interactions (
			created_at DateTime64(3),
			conversation_id Int64,
			action String,
			entity_kind LowCardinality(String),
			entity String,
			outcome LowCardinality(String),
			duration_ms UInt32
		) ENGINE = MergeTree()
		ORDER BY (entity_kind, created_at)
	`)
}

// setupTestDB creates a test ClickHouse instance using testcontainers
func setupTestDB(t *testing.T) (*ClickHouseDB, func()) {
	if testing.Short() {
		t.Skip("skipping ClickHouse integration test in short mode")
	}
	ctx := context.Background()

	clickhouseContainer, err := clickhouseTC.Run(ctx,
		"clickhouse/clickhouse-server:24.3.3.102-alpine",
		clickhouseTC.WithUsername("default"),
		clickhouseTC.WithPassword(""),
		clickhouseTC.WithDatabase("default"),
	)
	require.NoError(t, err, "Failed to start ClickHouse container")

	host, err := clickhouseContainer.Host(ctx)
	require.NoError(t, err)

	port, err := clickhouseContainer.MappedPort(ctx, "9000/tcp")
	require.NoError(t, err)

	db, err := NewClickHouseDB(host, port.Int(), "default", "default", "", false)
	require.NoError(t, err, "Failed to connect to ClickHouse")

	// Run migrations manually (goose doesn't work well with ClickHouse)
	err = runMigrations(ctx, db)
	require.NoError(t, err, "Failed to run migrations")

	cleanup := func() {
		db.Close()
		clickhouseContainer.Terminate(ctx)
	}

	return db, cleanup
}

func TestClickHouseDB_RecordInteraction(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	err := db.RecordInteraction(ctx, models.Interaction{
		ConversationID: 42,
		Action:         "show_profile",
		Kind:           models.EntityProfile,
		Entity:         "octocat",
		Outcome:        models.OutcomeOK,
		Duration:       350 * time.Millisecond,
	})
	require.NoError(t, err)

	count, err := db.CountInteractions(ctx, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestClickHouseDB_TopEntities(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	now := time.Now()

	record := func(kind models.EntityKind, entity, outcome string, at time.Time) {
		err := db.RecordInteraction(ctx, models.Interaction{
			Action:    "show",
			Kind:      kind,
			Entity:    entity,
			Outcome:   outcome,
			CreatedAt: at,
		})
		require.NoError(t, err)
	}

	record(models.EntityRepository, "golang/go", models.OutcomeOK, now.Add(-time.Hour))
	record(models.EntityRepository, "golang/go", models.OutcomeOK, now.Add(-2*time.Hour))
	record(models.EntityRepository, "rust-lang/rust", models.OutcomeOK, now.Add(-time.Minute))
	record(models.EntityRepository, "missing/repo", models.OutcomeError, now)
	record(models.EntityRepository, "old/repo", models.OutcomeOK, now.Add(-30*24*time.Hour))
	record(models.EntityProfile, "octocat", models.OutcomeOK, now)

	t.Run("orders by views", func(t *testing.T) {
		stats, err := db.TopEntities(ctx, models.EntityRepository, 10, now.Add(-7*24*time.Hour))
		require.NoError(t, err)
		require.Len(t, stats, 2)
		assert.Equal(t, "golang/go", stats[0].Entity)
		assert.Equal(t, 2, stats[0].Views)
		assert.Equal(t, models.EntityRepository, stats[0].Kind)
		assert.Equal(t, "rust-lang/rust", stats[1].Entity)
	})

	t.Run("applies limit", func(t *testing.T) {
		stats, err := db.TopEntities(ctx, models.EntityRepository, 1, now.Add(-7*24*time.Hour))
		require.NoError(t, err)
		assert.Len(t, stats, 1)
	})

	t.Run("filters by kind", func(t *testing.T) {
		stats, err := db.TopEntities(ctx, models.EntityProfile, 10, now.Add(-time.Hour))
		require.NoError(t, err)
		require.Len(t, stats, 1)
		assert.Equal(t, "octocat", stats[0].Entity)
	})
}

// TestClickHouseDB_ConcurrentOperations tests concurrent access
func TestClickHouseDB_ConcurrentOperations(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	numGoroutines := 10
	done := make(chan bool, numGoroutines)

	for i := 0; i < numGoroutines; i++ {
		go func(idx int) {
			err := db.RecordInteraction(ctx, models.Interaction{
				ConversationID: int64(idx),
				Action:         "show_repository",
				Kind:           models.EntityRepository,
				Entity:         "golang/go",
				Outcome:        models.OutcomeOK,
			})
			assert.NoError(t, err)
			done <- true
		}(i)
	}

	for i := 0; i < numGoroutines; i++ {
		<-done
	}

	stats, err := db.TopEntities(ctx, models.EntityRepository, 10, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	require.Len(t, stats, 1)
	assert.Equal(t, numGoroutines, stats[0].Views)
}

// TestClickHouseDB_Close tests connection closing
func TestClickHouseDB_Close(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	err := db.Close()
	assert.NoError(t, err)

	// Second close should not panic
	err = db.Close()
	assert.NoError(t, err)
}
