// services/user.go
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	appContext "github.com/alphabatem/common/context"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/wiz-rewards/wiz_api/dto"
	"github.com/wiz-rewards/wiz_api/model"
	"github.com/wiz-rewards/wiz_api/shared"
)

// UserService owns the progress read model, the daily bonus, streaks and
// the leaderboard reads. Leaderboards serve from the Redis sorted sets and
// fall back to Postgres when the board is missing or Redis is down.
type UserService struct {
	appContext.DefaultService

	sqlSvc   *PostgresService
	redisSvc *RedisService
	xpSvc    *XPService
}

const USER_SVC = "user_svc"

func (svc UserService) Id() string {
	return USER_SVC
}

func (svc *UserService) Configure(ctx *appContext.Context) error {
	return svc.DefaultService.Configure(ctx)
}

func (svc *UserService) Start() error {
	svc.sqlSvc = svc.Service(POSTGRES_SVC).(*PostgresService)
	svc.redisSvc = svc.Service(REDIS_SVC).(*RedisService)
	svc.xpSvc = svc.Service(XP_SVC).(*XPService)
	return nil
}

// SetDeps wires dependencies directly. Test hook.
func (svc *UserService) SetDeps(sqlSvc *PostgresService, xpSvc *XPService) {
	svc.sqlSvc = sqlSvc
	svc.xpSvc = xpSvc
}

// InitializeUserProgress creates the zero-state progress record for a new
// account. Idempotent: an existing record is left alone.
func (svc *UserService) InitializeUserProgress(userID string) error {
	if _, err := svc.sqlSvc.GetUserProgress(userID); err == nil {
		return nil
	} else if err != gorm.ErrRecordNotFound {
		return err
	}

	id, _ := uuid.NewV7()
	progress := &model.UserProgress{
		ID:              id.String(),
		UserID:          userID,
		Level:           1,
		CompletedVideos: json.RawMessage("[]"),
	}
	_, err := svc.sqlSvc.CreateUserProgress(progress)
	return err
}

func (svc *UserService) GetUserProgress(userID string) (*dto.UserProgressResponse, error) {
	progress, err := svc.sqlSvc.GetUserProgress(userID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, shared.NewNotFoundError(err, "Progress not found")
		}
		return nil, shared.NewInternalError(err, "Failed to load progress")
	}

	completed := []string{}
	if len(progress.CompletedVideos) > 0 {
		if err := json.Unmarshal(progress.CompletedVideos, &completed); err != nil {
			log.Printf("Failed to parse completed videos for user %s: %v", userID, err)
		}
	}

	return &dto.UserProgressResponse{
		UserID:          progress.UserID,
		TotalXP:         progress.TotalXP,
		Level:           progress.Level,
		XPToNextLevel:   XPToNextLevel(progress.TotalXP),
		CompletedVideos: completed,
		VideosWatched:   progress.VideosWatched,
		TotalWatchTime:  progress.TotalWatchTime,
		Streak:          progress.Streak,
		LastActivity:    progress.LastActivityDate,
	}, nil
}

func (svc *UserService) UpdateProfile(userID string, req dto.UpdateProfileRequest) error {
	if req.Username == "" {
		return nil
	}

	if existing, err := svc.sqlSvc.GetUserByUsername(req.Username); err == nil && existing.ID != userID {
		return shared.NewConflictError(fmt.Errorf("username taken"), "Username is already taken")
	}

	if err := svc.sqlSvc.UpdateUser(userID, map[string]interface{}{"username": req.Username}); err != nil {
		return shared.NewInternalError(err, "Failed to update profile")
	}
	return nil
}

// ClaimDailyBonus grants the daily login bonus once per UTC day and advances
// the streak counter.
func (svc *UserService) ClaimDailyBonus(userID string) (*dto.DailyBonusResponse, error) {
	progress, err := svc.sqlSvc.GetUserProgress(userID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, shared.NewNotFoundError(err, "Progress not found")
		}
		return nil, shared.NewInternalError(err, "Failed to load progress")
	}

	today := time.Now().UTC().Truncate(24 * time.Hour)
	if progress.LastBonusDate != nil && !progress.LastBonusDate.UTC().Truncate(24*time.Hour).Before(today) {
		return &dto.DailyBonusResponse{
			Granted: false,
			TotalXP: progress.TotalXP,
			Level:   progress.Level,
		}, nil
	}

	progress.Streak = nextStreak(progress.LastBonusDate, today, progress.Streak)
	progress.LastBonusDate = &today
	now := time.Now()
	progress.LastActivityDate = &now
	if err := svc.sqlSvc.UpdateUserProgress(progress); err != nil {
		return nil, shared.NewInternalError(err, "Failed to claim bonus")
	}

	granted := svc.xpSvc.Award(userID, "", shared.SourceDailyBonus, shared.XPDailyBonus)

	return &dto.DailyBonusResponse{
		Granted:  granted > 0,
		XPGained: granted,
		TotalXP:  progress.TotalXP + granted,
		Level:    LevelForXP(progress.TotalXP + granted),
	}, nil
}

// nextStreak continues the streak when the previous claim was yesterday and
// resets it otherwise.
func nextStreak(lastBonus *time.Time, today time.Time, streak int) int {
	if lastBonus == nil {
		return 1
	}
	if lastBonus.UTC().Truncate(24 * time.Hour).Equal(today.AddDate(0, 0, -1)) {
		return streak + 1
	}
	return 1
}

// TouchActivity stamps the last activity date. Called from the engagement
// and playback paths; failures only lose the timestamp.
func (svc *UserService) TouchActivity(userID string) {
	progress, err := svc.sqlSvc.GetUserProgress(userID)
	if err != nil {
		return
	}
	now := time.Now()
	progress.LastActivityDate = &now
	if err := svc.sqlSvc.UpdateUserProgress(progress); err != nil {
		log.Printf("Failed to touch activity for user %s: %v", userID, err)
	}
}

// ==================== LEADERBOARDS ====================

const leaderboardLimit = 50

func leaderboardKeyForPeriod(period string, now time.Time) string {
	switch period {
	case "weekly":
		return leaderboardWeeklyKey(now)
	case "monthly":
		return leaderboardMonthlyKey(now)
	}
	return leaderboardAllTimeKey()
}

func periodStart(period string, now time.Time) time.Time {
	switch period {
	case "weekly":
		day := now.UTC().Truncate(24 * time.Hour)
		offset := (int(day.Weekday()) + 6) % 7 // Monday start
		return day.AddDate(0, 0, -offset)
	case "monthly":
		return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	}
	return time.Time{}
}

func (svc *UserService) GetLeaderboard(period, currentUserID string) (*dto.LeaderboardResponse, error) {
	if period != "weekly" && period != "monthly" {
		period = "alltime"
	}

	resp, err := svc.leaderboardFromRedis(period, currentUserID)
	if err == nil {
		return resp, nil
	}
	log.Printf("Redis leaderboard %s unavailable, falling back to SQL: %v", period, err)

	return svc.leaderboardFromSQL(period, currentUserID)
}

func (svc *UserService) leaderboardFromRedis(period, currentUserID string) (*dto.LeaderboardResponse, error) {
	if svc.redisSvc == nil {
		return nil, fmt.Errorf("redis not configured")
	}

	ctx := context.Background()
	key := leaderboardKeyForPeriod(period, time.Now())

	entries, err := svc.redisSvc.ZTopUsers(ctx, key, leaderboardLimit)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("board %s empty", key)
	}

	resp := &dto.LeaderboardResponse{Period: period, TopUsers: make([]dto.LeaderboardUserResponse, 0, len(entries))}
	for i, entry := range entries {
		userID, _ := entry.Member.(string)
		resp.TopUsers = append(resp.TopUsers, svc.leaderboardEntry(userID, int(entry.Score), i+1))
	}

	if currentUserID != "" {
		rank, err := svc.redisSvc.ZUserRank(ctx, key, currentUserID)
		if err == nil && rank > 0 {
			score := 0
			if client := svc.redisSvc.GetClient(); client != nil {
				if s, err := client.ZScore(ctx, key, currentUserID).Result(); err == nil {
					score = int(s)
				}
			}
			resp.CurrentUser = svc.leaderboardEntry(currentUserID, score, rank)
		}
	}
	return resp, nil
}

func (svc *UserService) leaderboardFromSQL(period, currentUserID string) (*dto.LeaderboardResponse, error) {
	var (
		rows []model.UserProgress
		err  error
	)
	if period == "alltime" {
		rows, err = svc.sqlSvc.GetAllTimeLeaderboard(leaderboardLimit)
	} else {
		rows, err = svc.sqlSvc.GetLeaderboardSince(periodStart(period, time.Now()), leaderboardLimit)
	}
	if err != nil {
		return nil, shared.NewInternalError(err, "Failed to load leaderboard")
	}

	resp := &dto.LeaderboardResponse{Period: period, TopUsers: make([]dto.LeaderboardUserResponse, 0, len(rows))}
	for i, row := range rows {
		resp.TopUsers = append(resp.TopUsers, svc.leaderboardEntry(row.UserID, row.TotalXP, i+1))
	}

	if currentUserID != "" && period == "alltime" {
		if rank, err := svc.sqlSvc.GetUserRank(currentUserID); err == nil {
			if progress, err := svc.sqlSvc.GetUserProgress(currentUserID); err == nil {
				resp.CurrentUser = svc.leaderboardEntry(currentUserID, progress.TotalXP, rank)
			}
		}
	}
	return resp, nil
}

func (svc *UserService) leaderboardEntry(userID string, xp, rank int) dto.LeaderboardUserResponse {
	entry := dto.LeaderboardUserResponse{
		UserID: userID,
		XP:     xp,
		Rank:   rank,
	}
	if user, err := svc.sqlSvc.GetUser(userID); err == nil {
		entry.Username = user.Username
	}
	// Level is always the lifetime level, even on period boards where XP is
	// the windowed score.
	if progress, err := svc.sqlSvc.GetUserProgress(userID); err == nil {
		entry.Level = progress.Level
	} else {
		entry.Level = LevelForXP(xp)
	}
	return entry
}
