// services/postgres.go
package services

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/alphabatem/common/context"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/wiz-rewards/wiz_api/model"
	"github.com/wiz-rewards/wiz_api/shared"
)

type PostgresService struct {
	context.DefaultService
	db *gorm.DB

	database string
}

const POSTGRES_SVC = "postgres_svc"

func (ds PostgresService) Id() string {
	return POSTGRES_SVC
}

func (ds PostgresService) Db() *gorm.DB {
	return ds.db
}

// NewPostgresServiceWithDB wraps an already-open gorm connection. Used by
// tests to run the storage layer against in-memory SQLite.
func NewPostgresServiceWithDB(db *gorm.DB) *PostgresService {
	svc := &PostgresService{db: db}
	return svc
}

func (ds *PostgresService) Configure(ctx *context.Context) error {
	ds.database = os.Getenv("DATABASE_URL")
	if ds.database == "" {
		host := envOr("DB_HOST", "localhost")
		port := envOr("DB_PORT", "5432")
		user := envOr("DB_USER", "postgres")
		password := envOr("DB_PASSWORD", "postgres")
		dbname := envOr("DB_NAME", "wiz_api")
		sslmode := envOr("DB_SSLMODE", "disable")

		ds.database = fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
			host, user, password, dbname, port, sslmode)
	}

	return ds.DefaultService.Configure(ctx)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func (ds *PostgresService) Start() (err error) {
	maxRetries := 10
	retryDelay := time.Second

	for attempt := 1; attempt <= maxRetries; attempt++ {
		ds.db, err = gorm.Open(postgres.Open(ds.database), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Error),
		})
		if err == nil {
			sqlDB, dbErr := ds.db.DB()
			if dbErr == nil {
				if pingErr := sqlDB.Ping(); pingErr == nil {
					break
				} else {
					err = pingErr
				}
			} else {
				err = dbErr
			}
		}

		if attempt == maxRetries {
			log.Printf("Failed to connect to database after %d attempts: %v", maxRetries, err)
			return err
		}

		log.Printf("Database connection failed (attempt %d/%d): %v. Retrying in %v...", attempt, maxRetries, err, retryDelay)
		time.Sleep(retryDelay)
		retryDelay *= 2
		if retryDelay > 10*time.Second {
			retryDelay = 10 * time.Second
		}
	}

	if err := ds.Migrate(); err != nil {
		return err
	}

	log.Println("Database connected and migrated successfully")
	return nil
}

// Migrate runs AutoMigrate for every model. Exported so tests can prepare
// a SQLite schema through the same path.
func (ds *PostgresService) Migrate() error {
	return ds.db.AutoMigrate(
		&model.User{},
		&model.UserProgress{},
		&model.XPTransaction{},
		&model.Video{},
		&model.VideoCompletion{},
		&model.VideoEngagement{},
		&model.VideoView{},
	)
}

func (ds *PostgresService) Shutdown() {
}

// ==================== USERS ====================

func (ds *PostgresService) CreateUser(user *model.User) (*model.User, error) {
	if err := ds.db.Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

func (ds *PostgresService) GetUser(userID string) (*model.User, error) {
	var user model.User
	if err := ds.db.First(&user, "id = ?", userID).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (ds *PostgresService) GetUserByEmail(email string) (*model.User, error) {
	var user model.User
	if err := ds.db.First(&user, "LOWER(email) = LOWER(?)", email).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (ds *PostgresService) GetUserByUsername(username string) (*model.User, error) {
	var user model.User
	if err := ds.db.First(&user, "LOWER(username) = LOWER(?)", username).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (ds *PostgresService) UpdateUser(userID string, updates map[string]interface{}) error {
	return ds.db.Model(&model.User{}).Where("id = ?", userID).Updates(updates).Error
}

// ==================== PROGRESS ====================

func (ds *PostgresService) CreateUserProgress(progress *model.UserProgress) (*model.UserProgress, error) {
	if err := ds.db.Create(progress).Error; err != nil {
		return nil, err
	}
	return progress, nil
}

func (ds *PostgresService) GetUserProgress(userID string) (*model.UserProgress, error) {
	var progress model.UserProgress
	if err := ds.db.First(&progress, "user_id = ?", userID).Error; err != nil {
		return nil, err
	}
	return &progress, nil
}

func (ds *PostgresService) UpdateUserProgress(progress *model.UserProgress) error {
	progress.UpdatedAt = time.Now()
	return ds.db.Save(progress).Error
}

// AddXP applies an atomic XP increment and recomputes the level in the same
// UPDATE. Both expressions read the pre-update total, so the level matches
// the new total under concurrent increments.
func (ds *PostgresService) AddXP(userID string, amount int) error {
	if amount <= 0 {
		return nil
	}
	return ds.addXPTx(ds.db, userID, amount)
}

func (ds *PostgresService) addXPTx(tx *gorm.DB, userID string, amount int) error {
	return tx.Model(&model.UserProgress{}).Where("user_id = ?", userID).
		Updates(map[string]interface{}{
			"total_xp":   gorm.Expr("total_xp + ?", amount),
			"level":      gorm.Expr("(total_xp + ?) / ? + 1", amount, shared.XPPerLevel),
			"updated_at": time.Now(),
		}).Error
}

// ==================== XP TRANSACTIONS ====================

func (ds *PostgresService) CreateXPTransaction(txn *model.XPTransaction) error {
	if txn.ID == "" {
		id, _ := uuid.NewV7()
		txn.ID = id.String()
	}
	if txn.CreatedAt.IsZero() {
		txn.CreatedAt = time.Now()
	}
	return ds.db.Create(txn).Error
}

func (ds *PostgresService) GetXPTransactions(userID string, limit int) ([]model.XPTransaction, error) {
	var txns []model.XPTransaction
	err := ds.db.Where("user_id = ?", userID).
		Order("created_at DESC").Limit(limit).Find(&txns).Error
	return txns, err
}

// ==================== COMPLETIONS ====================

// InsertCompletionIfAbsent performs the atomic "insert if absent" that backs
// the completion ledger. Returns true when this call created the record; a
// concurrent or repeated call for the same (user, video) pair gets false.
// On first insert it also unions the video into the progress record's
// completed set and bumps the additive watch stats, in one transaction.
func (ds *PostgresService) InsertCompletionIfAbsent(completion *model.VideoCompletion) (bool, error) {
	if completion.ID == "" {
		id, _ := uuid.NewV7()
		completion.ID = id.String()
	}
	now := time.Now()
	if completion.CompletedAt.IsZero() {
		completion.CompletedAt = now
	}
	completion.CreatedAt = now

	inserted := false
	err := ds.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "video_id"}},
			DoNothing: true,
		}).Create(completion)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		inserted = true

		if err := ds.appendCompletedVideoTx(tx, completion.UserID, completion.VideoID); err != nil {
			return err
		}

		return tx.Model(&model.UserProgress{}).Where("user_id = ?", completion.UserID).
			Updates(map[string]interface{}{
				"videos_watched":   gorm.Expr("videos_watched + 1"),
				"total_watch_time": gorm.Expr("total_watch_time + ?", completion.WatchTime),
				"updated_at":       now,
			}).Error
	})
	return inserted, err
}

// appendCompletedVideoTx unions videoID into the completed_videos JSON set.
// The conditional completion insert is the real duplicate gate; this column
// is a denormalized read model maintained in the same transaction.
func (ds *PostgresService) appendCompletedVideoTx(tx *gorm.DB, userID, videoID string) error {
	var progress model.UserProgress
	if err := tx.First(&progress, "user_id = ?", userID).Error; err != nil {
		return err
	}

	var completed []string
	if len(progress.CompletedVideos) > 0 {
		if err := json.Unmarshal(progress.CompletedVideos, &completed); err != nil {
			log.Printf("Failed to parse completed videos for user %s: %v", userID, err)
			completed = []string{}
		}
	}
	for _, id := range completed {
		if id == videoID {
			return nil
		}
	}
	completed = append(completed, videoID)

	raw, err := json.Marshal(completed)
	if err != nil {
		return err
	}
	return tx.Model(&model.UserProgress{}).Where("user_id = ?", userID).
		Update("completed_videos", json.RawMessage(raw)).Error
}

func (ds *PostgresService) GetCompletion(userID, videoID string) (*model.VideoCompletion, error) {
	var completion model.VideoCompletion
	if err := ds.db.First(&completion, "user_id = ? AND video_id = ?", userID, videoID).Error; err != nil {
		return nil, err
	}
	return &completion, nil
}

func (ds *PostgresService) CountCompletions(userID, videoID string) (int64, error) {
	var count int64
	err := ds.db.Model(&model.VideoCompletion{}).
		Where("user_id = ? AND video_id = ?", userID, videoID).Count(&count).Error
	return count, err
}

// ==================== ENGAGEMENTS ====================

// FirstEngagementInsert records a (user, video, kind) engagement once.
// Returns true only for the first insert of that triple.
func (ds *PostgresService) FirstEngagementInsert(engagement *model.VideoEngagement) (bool, error) {
	if engagement.ID == "" {
		id, _ := uuid.NewV7()
		engagement.ID = id.String()
	}
	engagement.CreatedAt = time.Now()

	res := ds.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "video_id"}, {Name: "kind"}},
		DoNothing: true,
	}).Create(engagement)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// ==================== VIEWS ====================

func (ds *PostgresService) CreateVideoView(view *model.VideoView) error {
	if view.ID == "" {
		id, _ := uuid.NewV7()
		view.ID = id.String()
	}
	view.CreatedAt = time.Now()
	return ds.db.Create(view).Error
}

// MaxViewCompletionPct returns the highest completion percentage previously
// recorded for the pair; 0 when no view exists yet.
func (ds *PostgresService) MaxViewCompletionPct(userID, videoID string) (float64, error) {
	var maxPct *float64
	err := ds.db.Model(&model.VideoView{}).
		Where("user_id = ? AND video_id = ?", userID, videoID).
		Select("MAX(completion_pct)").Scan(&maxPct).Error
	if err != nil {
		return 0, err
	}
	if maxPct == nil {
		return 0, nil
	}
	return *maxPct, nil
}

// ==================== VIDEOS ====================

func (ds *PostgresService) CreateVideo(video *model.Video) (*model.Video, error) {
	if err := ds.db.Create(video).Error; err != nil {
		return nil, err
	}
	return video, nil
}

func (ds *PostgresService) GetVideo(videoID string) (*model.Video, error) {
	var video model.Video
	if err := ds.db.First(&video, "id = ?", videoID).Error; err != nil {
		return nil, err
	}
	return &video, nil
}

func (ds *PostgresService) UpdateVideoThumbnail(videoID, url string) error {
	return ds.db.Model(&model.Video{}).Where("id = ?", videoID).
		Update("thumbnail_url", url).Error
}

func (ds *PostgresService) ListVideos(channelID string, limit int) ([]model.Video, error) {
	var videos []model.Video
	q := ds.db.Where("is_active = ?", true)
	if channelID != "" {
		q = q.Where("channel_id = ?", channelID)
	}
	err := q.Order("created_at DESC").Limit(limit).Find(&videos).Error
	return videos, err
}

// ==================== LEADERBOARD ====================

func (ds *PostgresService) GetAllTimeLeaderboard(limit int) ([]model.UserProgress, error) {
	var users []model.UserProgress
	err := ds.db.Order("total_xp DESC").Limit(limit).Find(&users).Error
	return users, err
}

func (ds *PostgresService) GetLeaderboardSince(since time.Time, limit int) ([]model.UserProgress, error) {
	// Period boards rank by XP transacted inside the window, not lifetime XP.
	type row struct {
		UserID string
		Earned int
	}
	var rows []row
	err := ds.db.Model(&model.XPTransaction{}).
		Select("user_id, SUM(amount) AS earned").
		Where("created_at >= ?", since).
		Group("user_id").Order("earned DESC").Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	users := make([]model.UserProgress, 0, len(rows))
	for _, r := range rows {
		progress, err := ds.GetUserProgress(r.UserID)
		if err != nil {
			log.Printf("Failed to load progress for leaderboard user %s: %v", r.UserID, err)
			continue
		}
		entry := *progress
		entry.TotalXP = r.Earned
		users = append(users, entry)
	}
	return users, nil
}

func (ds *PostgresService) GetUserRank(userID string) (int, error) {
	progress, err := ds.GetUserProgress(userID)
	if err != nil {
		return 0, err
	}

	var ahead int64
	err = ds.db.Model(&model.UserProgress{}).
		Where("total_xp > ?", progress.TotalXP).Count(&ahead).Error
	if err != nil {
		return 0, err
	}
	return int(ahead) + 1, nil
}
