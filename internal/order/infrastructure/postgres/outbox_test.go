package postgres

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orderflow/order-service/test/integration"
)

func seedOutboxEvent(t *testing.T, ctx context.Context, env *integration.PostgresEnv, aggregateID string) int64 {
	t.Helper()
	var id int64
	err := env.Pool.QueryRow(ctx,
		`INSERT INTO outbox (aggregate_type, aggregate_id, type, payload, traceparent, status)
		 VALUES ('order', $1, 'OrderCreated', '{}', '00-abc-def-01', 'pending')
		 RETURNING id`, aggregateID).Scan(&id)
	require.NoError(t, err)
	return id
}

func TestOutboxStoreIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("integration test, requires docker")
	}

	ctx := context.Background()
	env, err := integration.SetupPostgres(ctx)
	require.NoError(t, err)
	t.Cleanup(func() { env.Teardown(context.Background()) })

	store := NewOutboxStore(slog.New(slog.NewTextHandler(io.Discard, nil)), env.Pool)

	t.Run("lock batch claims pending events once", func(t *testing.T) {
		first := seedOutboxEvent(t, ctx, env, "1")
		second := seedOutboxEvent(t, ctx, env, "2")

		events, err := store.LockBatch(ctx, "relay-a", 10, 5*time.Second)
		require.NoError(t, err)
		require.Len(t, events, 2)
		assert.Equal(t, first, events[0].ID)
		assert.Equal(t, second, events[1].ID)
		assert.Equal(t, "00-abc-def-01", events[0].Traceparent)

		// Already in_progress, so a second relay sees nothing.
		again, err := store.LockBatch(ctx, "relay-b", 10, 5*time.Second)
		require.NoError(t, err)
		assert.Empty(t, again)

		require.NoError(t, store.MarkSent(ctx, []int64{first, second}))
		var status string
		require.NoError(t, env.Pool.QueryRow(ctx,
			`SELECT status FROM outbox WHERE id = $1`, first).Scan(&status))
		assert.Equal(t, "sent", status)
	})

	t.Run("mark failed records the error and bumps retries", func(t *testing.T) {
		id := seedOutboxEvent(t, ctx, env, "3")
		_, err := store.LockBatch(ctx, "relay-a", 10, 5*time.Second)
		require.NoError(t, err)

		require.NoError(t, store.MarkFailed(ctx, id, "broker down"))

		var status, lastError string
		var retries int
		require.NoError(t, env.Pool.QueryRow(ctx,
			`SELECT status, last_error, retry_count FROM outbox WHERE id = $1`, id,
		).Scan(&status, &lastError, &retries))
		assert.Equal(t, "failed", status)
		assert.Equal(t, "broker down", lastError)
		assert.Equal(t, 1, retries)
	})
}
