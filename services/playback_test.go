package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wiz-rewards/wiz_api/dto"
	"github.com/wiz-rewards/wiz_api/shared"
)

func newTestPlayback(t *testing.T, duration int) (*PlaybackService, *PostgresService) {
	t.Helper()

	store := newTestStore(t)
	meta := &stubMetadata{duration: duration}

	xpSvc := &XPService{}
	xpSvc.SetDeps(store, meta)

	ledger := &LedgerService{}
	ledger.SetStore(store)

	playback := &PlaybackService{}
	playback.SetDeps(xpSvc, ledger, meta)
	return playback, store
}

func progressEvent(sessionID, videoID string, position float64) dto.PlaybackEventRequest {
	return dto.PlaybackEventRequest{
		SessionID: sessionID,
		VideoID:   videoID,
		Type:      shared.EventProgress,
		Position:  position,
	}
}

func TestPlaybackStateMachine(t *testing.T) {
	playback, store := newTestPlayback(t, 120)
	userID := seedUser(t, store)

	t.Run("progress starts the session watching", func(t *testing.T) {
		resp, err := playback.HandleEvent(userID, progressEvent("s1", "vid1", 5))
		require.NoError(t, err)
		assert.Equal(t, shared.StateWatching, resp.State)
	})

	t.Run("paused and resumed toggle state", func(t *testing.T) {
		resp, err := playback.HandleEvent(userID, dto.PlaybackEventRequest{
			SessionID: "s1", VideoID: "vid1", Type: shared.EventPaused,
		})
		require.NoError(t, err)
		assert.Equal(t, shared.StatePaused, resp.State)

		resp, err = playback.HandleEvent(userID, dto.PlaybackEventRequest{
			SessionID: "s1", VideoID: "vid1", Type: shared.EventResumed,
		})
		require.NoError(t, err)
		assert.Equal(t, shared.StateWatching, resp.State)
	})

	t.Run("resumed while watching is a no-op", func(t *testing.T) {
		resp, err := playback.HandleEvent(userID, dto.PlaybackEventRequest{
			SessionID: "s1", VideoID: "vid1", Type: shared.EventResumed,
		})
		require.NoError(t, err)
		assert.Equal(t, shared.StateWatching, resp.State)
	})

	t.Run("ended is terminal", func(t *testing.T) {
		resp, err := playback.HandleEvent(userID, dto.PlaybackEventRequest{
			SessionID: "s1", VideoID: "vid1", Type: shared.EventEnded,
		})
		require.NoError(t, err)
		assert.Equal(t, shared.StateEnded, resp.State)

		// Late events carry no rewards.
		resp, err = playback.HandleEvent(userID, progressEvent("s1", "vid1", 60))
		require.NoError(t, err)
		assert.Equal(t, shared.StateEnded, resp.State)
		assert.Equal(t, 0, resp.XPGained)
	})

	t.Run("missing user is a no-op, not an error", func(t *testing.T) {
		resp, err := playback.HandleEvent("", progressEvent("s2", "vid1", 10))
		require.NoError(t, err)
		assert.Equal(t, shared.StateNotStarted, resp.State)
	})
}

func TestPlaybackFullWatchRewards(t *testing.T) {
	// 45s video watched end to end: 4 milestone ticks, the 5 XP completion
	// bonus at 90%, and the 25 XP completion reward on ended.
	playback, store := newTestPlayback(t, 45)
	userID := seedUser(t, store)

	total := 0
	for _, pos := range []float64{10, 20, 30, 40} {
		resp, err := playback.HandleEvent(userID, progressEvent("s1", "vid1", pos))
		require.NoError(t, err)
		total += resp.XPGained
	}
	assert.Equal(t, 4, total, "one tick per 10s boundary")

	resp, err := playback.HandleEvent(userID, progressEvent("s1", "vid1", 44))
	require.NoError(t, err)
	assert.True(t, resp.BonusGranted)
	assert.Equal(t, 5, resp.XPGained)
	total += resp.XPGained

	resp, err = playback.HandleEvent(userID, dto.PlaybackEventRequest{
		SessionID: "s1", VideoID: "vid1", Type: shared.EventEnded,
	})
	require.NoError(t, err)
	assert.True(t, resp.Completed)
	assert.Equal(t, 25, resp.XPGained)
	total += resp.XPGained

	assert.Equal(t, 34, total)

	progress, err := store.GetUserProgress(userID)
	require.NoError(t, err)
	assert.Equal(t, 34, progress.TotalXP)
	assert.Equal(t, 1, progress.VideosWatched)
}

func TestPlaybackBonusOncePerSession(t *testing.T) {
	// The session flag alone gates repeat bonuses: no ended event fires, so
	// the ledger stays empty and cannot be the gate here.
	playback, store := newTestPlayback(t, 45)
	userID := seedUser(t, store)

	resp, err := playback.HandleEvent(userID, progressEvent("s1", "vid1", 41))
	require.NoError(t, err)
	assert.True(t, resp.BonusGranted)
	assert.Equal(t, 9, resp.XPGained, "4 milestone ticks plus the 5 XP bonus")

	resp, err = playback.HandleEvent(userID, progressEvent("s1", "vid1", 44))
	require.NoError(t, err)
	assert.False(t, resp.BonusGranted, "bonus must not repeat within the session")
	assert.Equal(t, 0, resp.XPGained)
}

func TestPlaybackRewatchDripsMilestonesOnly(t *testing.T) {
	playback, store := newTestPlayback(t, 45)
	userID := seedUser(t, store)

	// First full watch.
	for _, pos := range []float64{10, 20, 30, 40, 44} {
		_, err := playback.HandleEvent(userID, progressEvent("s1", "vid1", pos))
		require.NoError(t, err)
	}
	_, err := playback.HandleEvent(userID, dto.PlaybackEventRequest{
		SessionID: "s1", VideoID: "vid1", Type: shared.EventEnded,
	})
	require.NoError(t, err)

	before, err := store.GetUserProgress(userID)
	require.NoError(t, err)

	// Rewatch in a fresh session: milestones reset, bonus and completion
	// reward stay ledger-gated.
	rewatch := 0
	for _, pos := range []float64{10, 20, 30, 40, 44} {
		resp, err := playback.HandleEvent(userID, progressEvent("s2", "vid1", pos))
		require.NoError(t, err)
		rewatch += resp.XPGained
		assert.False(t, resp.BonusGranted)
	}
	resp, err := playback.HandleEvent(userID, dto.PlaybackEventRequest{
		SessionID: "s2", VideoID: "vid1", Type: shared.EventEnded,
	})
	require.NoError(t, err)
	assert.False(t, resp.Completed)
	rewatch += resp.XPGained

	assert.Equal(t, 4, rewatch, "rewatch earns milestone drip only")

	after, err := store.GetUserProgress(userID)
	require.NoError(t, err)
	assert.Equal(t, before.TotalXP+4, after.TotalXP)
	assert.Equal(t, 1, after.VideosWatched, "completion counted once")
}

func TestPlaybackLongVideoMilestones(t *testing.T) {
	playback, store := newTestPlayback(t, 300)
	userID := seedUser(t, store)

	resp, err := playback.HandleEvent(userID, progressEvent("s1", "vid1", 95))
	require.NoError(t, err)
	assert.Equal(t, 3, resp.MilestoneTicks, "30s cadence for long videos")
	assert.Equal(t, 3, resp.XPGained)
}

func TestClaimWatchEngagement(t *testing.T) {
	playback, store := newTestPlayback(t, 300)
	userID := seedUser(t, store)

	t.Run("unknown session claims nothing", func(t *testing.T) {
		assert.False(t, playback.ClaimWatchEngagement(userID, "vid1", "nope"))
	})

	t.Run("under 30 seconds is not claimable", func(t *testing.T) {
		_, err := playback.HandleEvent(userID, progressEvent("s1", "vid1", 15))
		require.NoError(t, err)
		assert.False(t, playback.ClaimWatchEngagement(userID, "vid1", "s1"))
	})

	t.Run("claims once past 30 seconds", func(t *testing.T) {
		_, err := playback.HandleEvent(userID, progressEvent("s1", "vid1", 35))
		require.NoError(t, err)

		assert.True(t, playback.ClaimWatchEngagement(userID, "vid1", "s1"))
		assert.False(t, playback.ClaimWatchEngagement(userID, "vid1", "s1"), "second claim must fail")
	})
}
