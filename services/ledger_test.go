package services

import (
	"encoding/json"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLedger(t *testing.T) (*LedgerService, *PostgresService) {
	t.Helper()

	store := newTestStore(t)
	ledger := &LedgerService{}
	ledger.SetStore(store)
	return ledger, store
}

func TestLedgerMarkCompleted(t *testing.T) {
	ledger, store := newTestLedger(t)
	userID := seedUser(t, store)

	t.Run("first completion inserts", func(t *testing.T) {
		assert.False(t, ledger.IsCompleted(userID, "vid1"))

		inserted, err := ledger.MarkCompleted(userID, "vid1", 25, 44)
		require.NoError(t, err)
		assert.True(t, inserted)
		assert.True(t, ledger.IsCompleted(userID, "vid1"))
	})

	t.Run("repeat completion is rejected without writing", func(t *testing.T) {
		inserted, err := ledger.MarkCompleted(userID, "vid1", 25, 44)
		require.NoError(t, err)
		assert.False(t, inserted)

		count, err := store.CountCompletions(userID, "vid1")
		require.NoError(t, err)
		assert.EqualValues(t, 1, count)
	})

	t.Run("stats are bumped exactly once", func(t *testing.T) {
		progress, err := store.GetUserProgress(userID)
		require.NoError(t, err)
		assert.Equal(t, 1, progress.VideosWatched)
		assert.Equal(t, 44, progress.TotalWatchTime)

		var completed []string
		require.NoError(t, json.Unmarshal(progress.CompletedVideos, &completed))
		assert.Equal(t, []string{"vid1"}, completed)
	})

	t.Run("other videos are unaffected", func(t *testing.T) {
		assert.False(t, ledger.IsCompleted(userID, "vid2"))
	})
}

func TestLedgerConcurrentCompletion(t *testing.T) {
	ledger, store := newTestLedger(t)
	userID := seedUser(t, store)

	var wins int64
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			inserted, err := ledger.MarkCompleted(userID, "vid1", 25, 40)
			if err == nil && inserted {
				atomic.AddInt64(&wins, 1)
			}
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 1, wins, "exactly one completion must win")

	count, err := store.CountCompletions(userID, "vid1")
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)

	progress, err := store.GetUserProgress(userID)
	require.NoError(t, err)
	assert.Equal(t, 1, progress.VideosWatched)
}
