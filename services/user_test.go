package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wiz-rewards/wiz_api/shared"
)

func newTestUserService(t *testing.T) (*UserService, *PostgresService) {
	t.Helper()

	store := newTestStore(t)
	xpSvc := &XPService{}
	xpSvc.SetDeps(store, &stubMetadata{duration: 45})

	userSvc := &UserService{}
	userSvc.SetDeps(store, xpSvc)
	return userSvc, store
}

func TestInitializeUserProgress(t *testing.T) {
	userSvc, store := newTestUserService(t)
	userID := seedUser(t, store)

	// seedUser already created a progress row; a second init must not fail
	// or duplicate it.
	require.NoError(t, userSvc.InitializeUserProgress(userID))

	progress, err := store.GetUserProgress(userID)
	require.NoError(t, err)
	assert.Equal(t, 0, progress.TotalXP)
	assert.Equal(t, 1, progress.Level)
}

func TestGetUserProgress(t *testing.T) {
	userSvc, store := newTestUserService(t)
	userID := seedUser(t, store)

	resp, err := userSvc.GetUserProgress(userID)
	require.NoError(t, err)
	assert.Equal(t, 0, resp.TotalXP)
	assert.Equal(t, 1, resp.Level)
	assert.Equal(t, shared.XPPerLevel, resp.XPToNextLevel)
	assert.Empty(t, resp.CompletedVideos)

	t.Run("unknown user maps to not found", func(t *testing.T) {
		_, err := userSvc.GetUserProgress("missing")
		require.Error(t, err)
		appErr, ok := shared.GetAppError(err)
		require.True(t, ok)
		assert.Equal(t, 404, appErr.StatusCode)
	})
}

func TestClaimDailyBonus(t *testing.T) {
	userSvc, store := newTestUserService(t)
	userID := seedUser(t, store)

	t.Run("first claim grants the bonus", func(t *testing.T) {
		resp, err := userSvc.ClaimDailyBonus(userID)
		require.NoError(t, err)
		assert.True(t, resp.Granted)
		assert.Equal(t, shared.XPDailyBonus, resp.XPGained)
	})

	t.Run("second claim the same day is refused", func(t *testing.T) {
		resp, err := userSvc.ClaimDailyBonus(userID)
		require.NoError(t, err)
		assert.False(t, resp.Granted)
		assert.Equal(t, 0, resp.XPGained)

		progress, err := store.GetUserProgress(userID)
		require.NoError(t, err)
		assert.Equal(t, shared.XPDailyBonus, progress.TotalXP)
	})

	t.Run("streak starts at one", func(t *testing.T) {
		progress, err := store.GetUserProgress(userID)
		require.NoError(t, err)
		assert.Equal(t, 1, progress.Streak)
	})
}

func TestNextStreak(t *testing.T) {
	today := time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC)

	t.Run("no history starts at one", func(t *testing.T) {
		assert.Equal(t, 1, nextStreak(nil, today, 0))
	})

	t.Run("consecutive day extends", func(t *testing.T) {
		yesterday := today.AddDate(0, 0, -1)
		assert.Equal(t, 4, nextStreak(&yesterday, today, 3))
	})

	t.Run("gap resets", func(t *testing.T) {
		lastWeek := today.AddDate(0, 0, -7)
		assert.Equal(t, 1, nextStreak(&lastWeek, today, 9))
	})
}
