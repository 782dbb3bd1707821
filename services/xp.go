// services/xp.go
package services

import (
	"context"
	"fmt"
	"time"

	appContext "github.com/alphabatem/common/context"
	log "github.com/sirupsen/logrus"

	"github.com/wiz-rewards/wiz_api/dto"
	"github.com/wiz-rewards/wiz_api/model"
	"github.com/wiz-rewards/wiz_api/shared"
)

// XPService owns the award policy table and every XP write. There is one
// policy module; the API-backed and local modes differ only in which
// VideoMetadataProvider is plugged in.
type XPService struct {
	appContext.DefaultService

	sqlSvc   *PostgresService
	redisSvc *RedisService
	metadata VideoMetadataProvider
}

const XP_SVC = "xp_svc"

func (svc XPService) Id() string {
	return XP_SVC
}

func (svc *XPService) Configure(ctx *appContext.Context) error {
	return svc.DefaultService.Configure(ctx)
}

func (svc *XPService) Start() error {
	svc.sqlSvc = svc.Service(POSTGRES_SVC).(*PostgresService)
	svc.redisSvc = svc.Service(REDIS_SVC).(*RedisService)

	if shared.UseYouTubeAPI() {
		svc.metadata = svc.Service(YOUTUBE_SVC).(*YouTubeService)
	} else {
		svc.metadata = svc.Service(LOCAL_METADATA_SVC).(*LocalMetadataService)
	}
	return nil
}

// SetDeps wires the storage and metadata provider directly. Test hook.
func (svc *XPService) SetDeps(sqlSvc *PostgresService, metadata VideoMetadataProvider) {
	svc.sqlSvc = sqlSvc
	svc.metadata = metadata
}

// ==================== POLICY TABLE ====================

// MilestoneInterval returns the watch-time milestone cadence in seconds.
// 60s videos count as short; 61s and up use the long interval. A zero or
// unknown duration gets the long interval so drip XP stays conservative.
func MilestoneInterval(duration int) int {
	if duration > 0 && duration <= shared.ShortVideoMaxSeconds {
		return shared.ShortMilestoneStep
	}
	return shared.LongMilestoneStep
}

// MilestonesCrossed counts milestone boundaries in (lastMilestone, position]
// capped to the video duration when known. Milestones are bounded per
// session only; the ledger does not apply to them.
func MilestonesCrossed(lastMilestone int, position float64, duration int) (int, int) {
	interval := MilestoneInterval(duration)

	limit := position
	if duration > 0 && float64(duration) < limit {
		limit = float64(duration)
	}

	ticks := 0
	next := lastMilestone + interval
	for float64(next) <= limit {
		ticks++
		lastMilestone = next
		next += interval
	}
	return ticks, lastMilestone
}

// CompletionBonus is the lump-sum bonus at >= 90% watched. Short videos
// scale with duration, long ones with elapsed watch time.
func CompletionBonus(duration, elapsed int) int {
	if duration > 0 && duration <= shared.ShortVideoMaxSeconds {
		bonus := duration / 10
		if bonus < 5 {
			bonus = 5
		}
		return bonus
	}
	bonus := elapsed / shared.LongMilestoneStep / 2
	if bonus < 10 {
		bonus = 10
	}
	return bonus
}

// LevelForXP derives the level from lifetime XP.
func LevelForXP(totalXP int) int {
	if totalXP < 0 {
		return 1
	}
	return totalXP/shared.XPPerLevel + 1
}

// XPToNextLevel is how much more XP reaches the next level boundary.
func XPToNextLevel(totalXP int) int {
	return LevelForXP(totalXP)*shared.XPPerLevel - totalXP
}

func engagementXP(kind string) int {
	switch kind {
	case shared.EngagementWatch:
		return shared.XPWatchEngagement
	case shared.EngagementLike:
		return shared.XPLike
	case shared.EngagementComment:
		return shared.XPComment
	}
	return 0
}

// ==================== AWARD PATHS ====================

// Award persists one XP grant: atomic total_xp increment with level
// recompute, an append-only transaction row, a leaderboard bump, and
// metrics. Failures are logged and yield 0 — an award must never surface
// an error into the playback path.
func (svc *XPService) Award(userID, videoID, source string, amount int) int {
	if userID == "" || amount <= 0 {
		return 0
	}

	if err := svc.sqlSvc.AddXP(userID, amount); err != nil {
		log.Printf("Failed to add %d XP for user %s: %v", amount, userID, err)
		return 0
	}

	txn := &model.XPTransaction{
		UserID:  userID,
		Amount:  amount,
		Source:  source,
		VideoID: videoID,
	}
	if err := svc.sqlSvc.CreateXPTransaction(txn); err != nil {
		log.Printf("Failed to log XP transaction for user %s: %v", userID, err)
	}

	svc.bumpLeaderboards(userID, amount)
	RecordXPAward(source, amount)
	return amount
}

// AwardFirstEngagement grants like/comment XP once per (user, video) pair.
// The unique engagement row is the gate; repeats are silent no-ops.
func (svc *XPService) AwardFirstEngagement(userID, videoID, kind string) (int, bool) {
	amount := engagementXP(kind)
	engagement := &model.VideoEngagement{
		UserID:   userID,
		VideoID:  videoID,
		Kind:     kind,
		XPEarned: amount,
	}

	first, err := svc.sqlSvc.FirstEngagementInsert(engagement)
	if err != nil {
		log.Printf("Failed to record %s engagement for user %s video %s: %v", kind, userID, videoID, err)
		return 0, false
	}
	if !first {
		return 0, false
	}

	return svc.Award(userID, videoID, engagementSource(kind), amount), true
}

func engagementSource(kind string) string {
	switch kind {
	case shared.EngagementLike:
		return shared.SourceLike
	case shared.EngagementComment:
		return shared.SourceComment
	}
	return shared.SourceWatch
}

// RecordView is the milestone-based view recording path: +15 XP per
// newly crossed threshold (25/50/75/90%), or a flat 25 for short videos
// at >= 80%. Crossings are measured against the highest percentage
// previously recorded for the pair.
func (svc *XPService) RecordView(userID, videoID string, completionPct float64, watchTime int) (*dto.RecordViewResponse, error) {
	if userID == "" || videoID == "" {
		return nil, shared.NewBadRequestError(fmt.Errorf("missing user or video"), "Invalid view")
	}

	meta, err := svc.metadata.GetVideoMetadata(videoID)
	if err != nil {
		log.Printf("Metadata lookup failed for video %s: %v", videoID, err)
		meta = &dto.VideoMetadataResponse{VideoID: videoID}
	}

	prevPct, err := svc.sqlSvc.MaxViewCompletionPct(userID, videoID)
	if err != nil {
		log.Printf("Failed to read view history for user %s video %s: %v", userID, videoID, err)
		prevPct = completionPct // fail toward no award rather than re-granting
	}

	amount := 0
	var crossed []float64

	// Short videos use only the flat rule; the threshold grid applies to
	// long or unknown-duration videos.
	shortVideo := meta.Duration > 0 && meta.Duration <= shared.ShortVideoMaxSeconds
	if shortVideo {
		if completionPct >= shared.ShortViewFlatPct && prevPct < shared.ShortViewFlatPct {
			amount = shared.XPShortViewFlat
			crossed = append(crossed, shared.ShortViewFlatPct)
		}
	} else {
		for _, threshold := range shared.ViewThresholds {
			if completionPct >= threshold && prevPct < threshold {
				amount += shared.XPViewThreshold
				crossed = append(crossed, threshold)
			}
		}
	}

	view := &model.VideoView{
		UserID:        userID,
		VideoID:       videoID,
		CompletionPct: completionPct,
		WatchTime:     watchTime,
		XPEarned:      amount,
	}
	if err := svc.sqlSvc.CreateVideoView(view); err != nil {
		log.Printf("Failed to record view for user %s video %s: %v", userID, videoID, err)
		return &dto.RecordViewResponse{RecordedAt: time.Now()}, nil
	}

	granted := 0
	if amount > 0 {
		granted = svc.Award(userID, videoID, shared.SourceViewMilestone, amount)
	}

	return &dto.RecordViewResponse{
		XPGained:          granted,
		ThresholdsCrossed: crossed,
		RecordedAt:        view.CreatedAt,
	}, nil
}

// ==================== LEADERBOARD WRITES ====================

func leaderboardAllTimeKey() string {
	return "wiz:lb:alltime"
}

func leaderboardWeeklyKey(t time.Time) string {
	year, week := t.ISOWeek()
	return fmt.Sprintf("wiz:lb:weekly:%04d-W%02d", year, week)
}

func leaderboardMonthlyKey(t time.Time) string {
	return "wiz:lb:monthly:" + t.Format("2006-01")
}

// bumpLeaderboards mirrors the award onto the Redis boards. Best effort:
// Postgres stays the fallback source of truth for rankings.
func (svc *XPService) bumpLeaderboards(userID string, amount int) {
	if svc.redisSvc == nil {
		return
	}

	ctx := context.Background()
	now := time.Now()

	boards := []struct {
		key string
		ttl time.Duration
	}{
		{leaderboardAllTimeKey(), 0},
		{leaderboardWeeklyKey(now), 14 * 24 * time.Hour},
		{leaderboardMonthlyKey(now), 62 * 24 * time.Hour},
	}
	for _, board := range boards {
		if err := svc.redisSvc.ZIncrLeaderboard(ctx, board.key, userID, amount, board.ttl); err != nil {
			log.Printf("Failed to bump leaderboard %s for user %s: %v", board.key, userID, err)
			return
		}
	}
}
