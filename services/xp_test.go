package services

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/wiz-rewards/wiz_api/dto"
	"github.com/wiz-rewards/wiz_api/model"
	"github.com/wiz-rewards/wiz_api/shared"
)

func newTestStore(t *testing.T) *PostgresService {
	t.Helper()

	name := strings.ReplaceAll(t.Name(), "/", "_")
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_busy_timeout=5000", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	store := NewPostgresServiceWithDB(db)
	require.NoError(t, store.Migrate())
	return store
}

func seedUser(t *testing.T, store *PostgresService) string {
	t.Helper()

	userID, _ := uuid.NewV7()
	_, err := store.CreateUser(&model.User{
		ID:       userID.String(),
		Email:    userID.String() + "@example.com",
		Username: "u" + userID.String()[:8],
		IsActive: true,
	})
	require.NoError(t, err)

	progressID, _ := uuid.NewV7()
	_, err = store.CreateUserProgress(&model.UserProgress{
		ID:              progressID.String(),
		UserID:          userID.String(),
		Level:           1,
		CompletedVideos: json.RawMessage("[]"),
	})
	require.NoError(t, err)

	return userID.String()
}

type stubMetadata struct {
	duration int
}

func (m *stubMetadata) GetVideoMetadata(videoID string) (*dto.VideoMetadataResponse, error) {
	return &dto.VideoMetadataResponse{
		VideoID:  videoID,
		Title:    "stub",
		Duration: m.duration,
		Source:   "local",
	}, nil
}

func TestMilestoneInterval(t *testing.T) {
	t.Run("short video uses 10s cadence", func(t *testing.T) {
		assert.Equal(t, 10, MilestoneInterval(45))
		assert.Equal(t, 10, MilestoneInterval(60))
	})

	t.Run("long video uses 30s cadence", func(t *testing.T) {
		assert.Equal(t, 30, MilestoneInterval(61))
		assert.Equal(t, 30, MilestoneInterval(600))
	})

	t.Run("unknown duration is treated as long", func(t *testing.T) {
		assert.Equal(t, 30, MilestoneInterval(0))
	})
}

func TestMilestonesCrossed(t *testing.T) {
	t.Run("counts boundaries since the last one", func(t *testing.T) {
		ticks, last := MilestonesCrossed(0, 25, 45)
		assert.Equal(t, 2, ticks)
		assert.Equal(t, 20, last)
	})

	t.Run("no double counting on repeated positions", func(t *testing.T) {
		ticks, last := MilestonesCrossed(20, 25, 45)
		assert.Equal(t, 0, ticks)
		assert.Equal(t, 20, last)
	})

	t.Run("full short video yields duration/interval ticks", func(t *testing.T) {
		ticks, last := MilestonesCrossed(0, 44, 45)
		assert.Equal(t, 4, ticks)
		assert.Equal(t, 40, last)
	})

	t.Run("position past duration is capped", func(t *testing.T) {
		ticks, _ := MilestonesCrossed(0, 500, 45)
		assert.Equal(t, 4, ticks)
	})

	t.Run("long video cadence", func(t *testing.T) {
		ticks, last := MilestonesCrossed(0, 95, 120)
		assert.Equal(t, 3, ticks)
		assert.Equal(t, 90, last)
	})
}

func TestCompletionBonus(t *testing.T) {
	t.Run("short video scales with duration", func(t *testing.T) {
		assert.Equal(t, 5, CompletionBonus(45, 44))
		assert.Equal(t, 6, CompletionBonus(60, 58))
	})

	t.Run("short video floor is 5", func(t *testing.T) {
		assert.Equal(t, 5, CompletionBonus(20, 19))
	})

	t.Run("long video scales with elapsed time", func(t *testing.T) {
		assert.Equal(t, 10, CompletionBonus(600, 580))
		assert.Equal(t, 20, CompletionBonus(3600, 1200))
	})

	t.Run("long video floor is 10", func(t *testing.T) {
		assert.Equal(t, 10, CompletionBonus(120, 110))
	})
}

func TestLevelForXP(t *testing.T) {
	assert.Equal(t, 1, LevelForXP(0))
	assert.Equal(t, 1, LevelForXP(999))
	assert.Equal(t, 2, LevelForXP(1000))
	assert.Equal(t, 3, LevelForXP(2500))
	assert.Equal(t, 1, LevelForXP(-5))

	assert.Equal(t, 1000, XPToNextLevel(0))
	assert.Equal(t, 1, XPToNextLevel(999))
	assert.Equal(t, 1000, XPToNextLevel(1000))
}

func TestAward(t *testing.T) {
	store := newTestStore(t)
	userID := seedUser(t, store)

	xpSvc := &XPService{}
	xpSvc.SetDeps(store, &stubMetadata{duration: 45})

	t.Run("increments total and recomputes level", func(t *testing.T) {
		granted := xpSvc.Award(userID, "vid1", shared.SourceWatch, 10)
		assert.Equal(t, 10, granted)

		progress, err := store.GetUserProgress(userID)
		require.NoError(t, err)
		assert.Equal(t, 10, progress.TotalXP)
		assert.Equal(t, 1, progress.Level)
	})

	t.Run("level rolls over at the boundary", func(t *testing.T) {
		granted := xpSvc.Award(userID, "vid1", shared.SourceCompletion, 995)
		assert.Equal(t, 995, granted)

		progress, err := store.GetUserProgress(userID)
		require.NoError(t, err)
		assert.Equal(t, 1005, progress.TotalXP)
		assert.Equal(t, 2, progress.Level)
	})

	t.Run("logs a transaction per award", func(t *testing.T) {
		txns, err := store.GetXPTransactions(userID, 10)
		require.NoError(t, err)
		assert.Len(t, txns, 2)
	})

	t.Run("zero or negative amounts are no-ops", func(t *testing.T) {
		assert.Equal(t, 0, xpSvc.Award(userID, "vid1", shared.SourceWatch, 0))
		assert.Equal(t, 0, xpSvc.Award(userID, "vid1", shared.SourceWatch, -3))
	})
}

func TestAwardFirstEngagement(t *testing.T) {
	store := newTestStore(t)
	userID := seedUser(t, store)

	xpSvc := &XPService{}
	xpSvc.SetDeps(store, &stubMetadata{duration: 45})

	t.Run("like pays once per pair", func(t *testing.T) {
		granted, first := xpSvc.AwardFirstEngagement(userID, "vid1", shared.EngagementLike)
		assert.True(t, first)
		assert.Equal(t, shared.XPLike, granted)

		granted, first = xpSvc.AwardFirstEngagement(userID, "vid1", shared.EngagementLike)
		assert.False(t, first)
		assert.Equal(t, 0, granted)
	})

	t.Run("comment is gated independently of like", func(t *testing.T) {
		granted, first := xpSvc.AwardFirstEngagement(userID, "vid1", shared.EngagementComment)
		assert.True(t, first)
		assert.Equal(t, shared.XPComment, granted)
	})

	t.Run("another video pays again", func(t *testing.T) {
		granted, first := xpSvc.AwardFirstEngagement(userID, "vid2", shared.EngagementLike)
		assert.True(t, first)
		assert.Equal(t, shared.XPLike, granted)
	})
}

func TestRecordView(t *testing.T) {
	t.Run("long video pays per crossed threshold", func(t *testing.T) {
		store := newTestStore(t)
		userID := seedUser(t, store)
		xpSvc := &XPService{}
		xpSvc.SetDeps(store, &stubMetadata{duration: 600})

		resp, err := xpSvc.RecordView(userID, "vid1", 55, 330)
		require.NoError(t, err)
		assert.Equal(t, 2*shared.XPViewThreshold, resp.XPGained)
		assert.Equal(t, []float64{25, 50}, resp.ThresholdsCrossed)

		// Second view at 95% only pays the newly crossed 75 and 90.
		resp, err = xpSvc.RecordView(userID, "vid1", 95, 570)
		require.NoError(t, err)
		assert.Equal(t, 2*shared.XPViewThreshold, resp.XPGained)
		assert.Equal(t, []float64{75, 90}, resp.ThresholdsCrossed)

		// Nothing left to cross.
		resp, err = xpSvc.RecordView(userID, "vid1", 100, 600)
		require.NoError(t, err)
		assert.Equal(t, 0, resp.XPGained)
	})

	t.Run("short video pays the flat reward at 80 percent", func(t *testing.T) {
		store := newTestStore(t)
		userID := seedUser(t, store)
		xpSvc := &XPService{}
		xpSvc.SetDeps(store, &stubMetadata{duration: 45})

		resp, err := xpSvc.RecordView(userID, "vid1", 85, 38)
		require.NoError(t, err)
		assert.Equal(t, shared.XPShortViewFlat, resp.XPGained)

		resp, err = xpSvc.RecordView(userID, "vid1", 100, 45)
		require.NoError(t, err)
		assert.Equal(t, 0, resp.XPGained)
	})

	t.Run("short video below 80 percent pays nothing", func(t *testing.T) {
		store := newTestStore(t)
		userID := seedUser(t, store)
		xpSvc := &XPService{}
		xpSvc.SetDeps(store, &stubMetadata{duration: 45})

		resp, err := xpSvc.RecordView(userID, "vid1", 60, 27)
		require.NoError(t, err)
		assert.Equal(t, 0, resp.XPGained)
	})
}
