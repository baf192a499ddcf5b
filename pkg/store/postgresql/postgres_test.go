package postgresql_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/landdiv/landflow/pkg/store"
	"github.com/landdiv/landflow/pkg/store/postgresql"
)

var postgresContainer *postgres.PostgresContainer

func dropDb(ctx context.Context, t *testing.T, databaseURL string) {
	t.Helper()

	db, err := sql.Open("postgres", databaseURL)
	require.NoError(t, err)

	for _, table := range []string{"documents", "schema_migrations"} {
		_, err = db.ExecContext(ctx, "DROP TABLE IF EXISTS "+table+" CASCADE")
		require.NoError(t, err)
	}

	err = db.Close()
	require.NoError(t, err)
}

func setupTestStore(t *testing.T) (*postgresql.Store, context.Context, string) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)

	if postgresContainer == nil || !postgresContainer.IsRunning() {
		var err error

		postgresContainer, err = postgres.Run(ctx,
			"postgres:16-alpine",
			postgres.WithDatabase("landflow_test"),
			postgres.WithUsername("landflow"),
			postgres.WithPassword("landflow"),
			postgres.BasicWaitStrategies(),
		)
		require.NoError(t, err)
	}

	databaseURL, err := postgresContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	dropDb(ctx, t, databaseURL)

	s, err := postgresql.NewStore(ctx, databaseURL)
	require.NoError(t, err)

	t.Cleanup(func() {
		dropDb(ctx, t, databaseURL)

		err = s.Close(ctx)
		require.NoError(t, err)

		cancel()
	})

	return s, ctx, databaseURL
}

func TestNewStore_Migrations(t *testing.T) {
	_, ctx, databaseURL := setupTestStore(t)

	db, err := sql.Open("postgres", databaseURL)
	require.NoError(t, err)

	defer func() {
		err := db.Close()
		require.NoError(t, err)
	}()

	var exists bool

	err = db.QueryRowContext(ctx, `SELECT EXISTS (SELECT FROM
information_schema.tables WHERE table_name = 'documents')`).Scan(&exists)
	require.NoError(t, err)
	assert.True(t, exists, "documents table should exist")

	var version int

	err = db.QueryRowContext(ctx, "SELECT version FROM schema_migrations WHERE version = 1").Scan(&version)
	require.NoError(t, err)
	assert.Equal(t, 1, version)
}

func TestNewStore_HealthCheck(t *testing.T) {
	s, ctx, _ := setupTestStore(t)

	err := s.HealthCheck(ctx)
	assert.NoError(t, err)
}

func TestNewStore_CreateAndGet(t *testing.T) {
	s, ctx, _ := setupTestStore(t)

	id, err := s.Create(ctx, store.CollectionApplications, map[string]any{
		"status":      "Pending",
		"currentNode": 0,
	})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	var doc map[string]any

	err = s.Get(ctx, store.CollectionApplications, id, &doc)
	require.NoError(t, err)
	assert.Equal(t, "Pending", doc["status"])
	assert.Equal(t, float64(0), doc["currentNode"])
	assert.Equal(t, id, doc["id"])

	err = s.Get(ctx, store.CollectionApplications, "missing", &doc)
	require.Error(t, err)
	assert.True(t, store.IsNotFound(err))
}

func TestNewStore_UpdateOps(t *testing.T) {
	s, ctx, _ := setupTestStore(t)

	id, err := s.Create(ctx, store.CollectionApplications, map[string]any{
		"status":      "Pending",
		"currentNode": 0,
		"updates":     map[string]any{"total": 3},
	})
	require.NoError(t, err)

	err = s.Update(ctx, store.CollectionApplications, id, []store.Op{
		store.Set("status", "Application Submitted"),
		store.Set("updates.total", 4),
		store.Increment("currentNode", 1),
		store.ArrayAppend("history", map[string]any{"node": "Submission", "status": "Started"}),
		store.ArrayAppend("history", map[string]any{"node": "Township Review", "status": "Started"}),
	})
	require.NoError(t, err)

	var doc map[string]any

	err = s.Get(ctx, store.CollectionApplications, id, &doc)
	require.NoError(t, err)
	assert.Equal(t, "Application Submitted", doc["status"])
	assert.Equal(t, float64(1), doc["currentNode"])

	updates, ok := doc["updates"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(4), updates["total"])

	history, ok := doc["history"].([]any)
	require.True(t, ok)
	require.Len(t, history, 2)

	first, ok := history[0].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Submission", first["node"])
}

func TestNewStore_UpdateCreatesMissingParents(t *testing.T) {
	s, ctx, _ := setupTestStore(t)

	// No parcelInfo key at all, as on a freshly submitted application.
	id, err := s.Create(ctx, store.CollectionApplications, map[string]any{
		"status":      "Pending",
		"currentNode": 2,
	})
	require.NoError(t, err)

	err = s.Update(ctx, store.CollectionApplications, id, []store.Op{
		store.Set("parcelInfo.addressValidation", map[string]any{
			"valid":   true,
			"address": "1 Main St",
		}),
		store.Increment("counters.validations", 1),
	})
	require.NoError(t, err)

	var doc map[string]any

	err = s.Get(ctx, store.CollectionApplications, id, &doc)
	require.NoError(t, err)

	parcelInfo, ok := doc["parcelInfo"].(map[string]any)
	require.True(t, ok, "parcelInfo should have been created")

	validation, ok := parcelInfo["addressValidation"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, true, validation["valid"])
	assert.Equal(t, "1 Main St", validation["address"])

	counters, ok := doc["counters"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(1), counters["validations"])
}

func TestNewStore_UpdateUnset(t *testing.T) {
	s, ctx, _ := setupTestStore(t)

	id, err := s.Create(ctx, store.CollectionApplications, map[string]any{
		"status": "ERROR: Too many updates per hour - possible infinite loop detected",
		"error":  map[string]any{"type": "SAFETY_LIMIT"},
	})
	require.NoError(t, err)

	err = s.Update(ctx, store.CollectionApplications, id, []store.Op{
		store.Unset("error"),
		store.Set("status", "Pending"),
	})
	require.NoError(t, err)

	var doc map[string]any

	err = s.Get(ctx, store.CollectionApplications, id, &doc)
	require.NoError(t, err)
	assert.NotContains(t, doc, "error")
	assert.Equal(t, "Pending", doc["status"])

	// Unsetting a missing path is not an error.
	err = s.Update(ctx, store.CollectionApplications, id, []store.Op{
		store.Unset("error"),
	})
	assert.NoError(t, err)
}

func TestNewStore_UpdateMissingDocument(t *testing.T) {
	s, ctx, _ := setupTestStore(t)

	err := s.Update(ctx, store.CollectionApplications, "missing", []store.Op{
		store.Set("status", "Pending"),
	})
	require.Error(t, err)
	assert.True(t, store.IsNotFound(err))
}

func TestNewStore_List(t *testing.T) {
	s, ctx, _ := setupTestStore(t)

	for _, doc := range []map[string]any{
		{"status": "Pending", "createdAt": "2025-06-01T10:00:00Z"},
		{"status": "Application Complete", "createdAt": "2025-06-01T12:00:00Z"},
		{"status": "Pending", "createdAt": "2025-06-01T11:00:00Z"},
	} {
		_, err := s.Create(ctx, store.CollectionApplications, doc)
		require.NoError(t, err)
	}

	var all []map[string]any

	err := s.List(ctx, store.CollectionApplications, store.ListOptions{
		OrderBy: "createdAt",
		Desc:    true,
	}, &all)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "Application Complete", all[0]["status"])

	var pending []map[string]any

	err = s.List(ctx, store.CollectionApplications, store.ListOptions{
		Filters: map[string]any{"status": "Pending"},
		OrderBy: "createdAt",
	}, &pending)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, "2025-06-01T10:00:00Z", pending[0]["createdAt"])
}

func TestNewStore_Delete(t *testing.T) {
	s, ctx, _ := setupTestStore(t)

	id, err := s.Create(ctx, store.CollectionWorkflows, map[string]any{"name": "Doomed"})
	require.NoError(t, err)

	err = s.Delete(ctx, store.CollectionWorkflows, id)
	require.NoError(t, err)

	var doc map[string]any

	err = s.Get(ctx, store.CollectionWorkflows, id, &doc)
	assert.True(t, store.IsNotFound(err))

	// Deleting again is idempotent.
	err = s.Delete(ctx, store.CollectionWorkflows, id)
	assert.NoError(t, err)
}
