package history

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/mikeboe/tutor-ai/pkg/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	pgmodule "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupTestStore starts a PostgreSQL container and returns a Store with the
// schema applied. Tests are skipped when no container runtime is available.
func setupTestStore(t *testing.T) *Store {
	t.Helper()

	if os.Getenv("SKIP_INTEGRATION") == "true" || testing.Short() {
		t.Skip("skipping PostgreSQL integration tests")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()

	container, err := pgmodule.Run(ctx,
		"postgres:16-alpine",
		pgmodule.WithDatabase("tutor_test"),
		pgmodule.WithUsername("test"),
		pgmodule.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		t.Skipf("skipping: could not start PostgreSQL container: %v", err)
	}
	t.Cleanup(func() {
		_ = container.Terminate(context.Background())
	})

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := database.NewPostgresDB(ctx, connStr, 5)
	require.NoError(t, err)
	t.Cleanup(db.Close)

	require.NoError(t, db.InitSchema(ctx))

	return NewStore(db)
}

func TestStoreLifecycle(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	id, err := store.Start(ctx, "¿Qué es la fotosíntesis?")
	require.NoError(t, err)

	in, err := store.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, in.Status)
	assert.Nil(t, in.ThreadID)
	assert.Nil(t, in.Answer)

	require.NoError(t, store.MarkStreaming(ctx, id, "thread_1"))
	in, err = store.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, StatusStreaming, in.Status)
	require.NotNil(t, in.ThreadID)
	assert.Equal(t, "thread_1", *in.ThreadID)

	require.NoError(t, store.Complete(ctx, id, "thread_1", "La conversión de luz en energía."))
	in, err = store.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, in.Status)
	require.NotNil(t, in.Answer)
	assert.Equal(t, "La conversión de luz en energía.", *in.Answer)

	failedID, err := store.Start(ctx, "second")
	require.NoError(t, err)
	require.NoError(t, store.Fail(ctx, failedID, "", "no hay respuesta del asistente"))

	failed, err := store.Get(ctx, failedID)
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, failed.Status)
	assert.Nil(t, failed.ThreadID)
	require.NotNil(t, failed.Error)
	assert.Equal(t, "no hay respuesta del asistente", *failed.Error)

	list, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, failedID, list[0].ID, "newest first")
}

func TestStoreGetUnknown(t *testing.T) {
	store := setupTestStore(t)

	_, err := store.Get(context.Background(), uuid.New())
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestStoreLogger(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	id, err := store.Start(ctx, "q")
	require.NoError(t, err)

	logger := store.Logger(id).With("request_id", "req-1")
	logger.Info("Thread created", "thread_id", "thread_1")
	logger.Error("Interaction failed", "error", errors.New("boom"))

	logs, err := store.Logs(ctx, id)
	require.NoError(t, err)
	require.Len(t, logs, 2)

	assert.Equal(t, "INFO", logs[0].Level)
	assert.Equal(t, "Thread created", logs[0].Message)

	var meta map[string]any
	require.NoError(t, json.Unmarshal(logs[0].Metadata, &meta))
	assert.Equal(t, "thread_1", meta["thread_id"])
	assert.Equal(t, "req-1", meta["request_id"])

	assert.Equal(t, slog.LevelError.String(), logs[1].Level)
	require.NoError(t, json.Unmarshal(logs[1].Metadata, &meta))
	assert.Equal(t, "boom", meta["error"])
}
