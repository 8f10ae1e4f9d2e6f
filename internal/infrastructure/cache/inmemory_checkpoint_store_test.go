package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryCheckpointStoreEntities(t *testing.T) {
	store := NewInMemoryCheckpointStore()
	ctx := context.Background()

	t.Run("empty store has no checkpoints", func(t *testing.T) {
		checkpoints, err := store.EntityCheckpoints(ctx)
		require.NoError(t, err)
		assert.Empty(t, checkpoints)
	})

	t.Run("checkpoints come back sorted by entity", func(t *testing.T) {
		now := time.Now()
		require.NoError(t, store.SaveEntityCheckpoint(ctx, EntityCheckpoint{Entity: "Offer", SyncedAt: now, Rows: 42}))
		require.NoError(t, store.SaveEntityCheckpoint(ctx, EntityCheckpoint{Entity: "Broker", SyncedAt: now, Rows: 7}))

		checkpoints, err := store.EntityCheckpoints(ctx)
		require.NoError(t, err)
		require.Len(t, checkpoints, 2)
		assert.Equal(t, "Broker", checkpoints[0].Entity)
		assert.Equal(t, "Offer", checkpoints[1].Entity)
	})

	t.Run("re-saving an entity replaces its checkpoint", func(t *testing.T) {
		require.NoError(t, store.SaveEntityCheckpoint(ctx, EntityCheckpoint{Entity: "Broker", Rows: 9}))

		checkpoints, err := store.EntityCheckpoints(ctx)
		require.NoError(t, err)
		require.Len(t, checkpoints, 2)
		assert.Equal(t, 9, checkpoints[0].Rows)
	})
}

func TestInMemoryCheckpointStoreCycleSummary(t *testing.T) {
	store := NewInMemoryCheckpointStore()
	ctx := context.Background()

	summary, err := store.LastCycleSummary(ctx)
	require.NoError(t, err)
	assert.Nil(t, summary)

	saved := CycleSummary{
		CycleID:   "cycle-1",
		Status:    "SUCCESS",
		StartedAt: time.Now().Add(-time.Minute),
		Steps: []StepCheckpoint{
			{Entity: "Broker", Status: "SUCCESS", Rows: 12},
		},
	}
	require.NoError(t, store.SaveCycleSummary(ctx, saved))

	summary, err = store.LastCycleSummary(ctx)
	require.NoError(t, err)
	require.NotNil(t, summary)
	assert.Equal(t, "cycle-1", summary.CycleID)
	require.Len(t, summary.Steps, 1)
	assert.Equal(t, 12, summary.Steps[0].Rows)

	// A newer cycle replaces the older one
	require.NoError(t, store.SaveCycleSummary(ctx, CycleSummary{CycleID: "cycle-2", Status: "FAILED"}))
	summary, err = store.LastCycleSummary(ctx)
	require.NoError(t, err)
	assert.Equal(t, "cycle-2", summary.CycleID)
}
