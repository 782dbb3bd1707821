// model/progress.go
package model

import (
	"encoding/json"
	"time"
)

// UserProgress is the per-user rewards record. TotalXP only grows through
// watch/engagement events; Level is derived from TotalXP and recomputed in
// the same statement that increments it.
type UserProgress struct {
	ID              string          `json:"id" gorm:"primaryKey"`
	UserID          string          `json:"user_id" gorm:"uniqueIndex;not null"`
	TotalXP         int             `json:"total_xp" gorm:"default:0"`
	Level           int             `json:"level" gorm:"default:1"`
	CompletedVideos json.RawMessage `json:"completed_videos" gorm:"type:text"` // JSON array of video IDs, union-insert only

	// Additive stats counters; never recomputed from history.
	VideosWatched  int `json:"videos_watched" gorm:"default:0"`
	TotalWatchTime int `json:"total_watch_time" gorm:"default:0"` // in seconds

	Streak           int        `json:"streak" gorm:"default:0"`
	LastActivityDate *time.Time `json:"last_activity_date"`
	LastBonusDate    *time.Time `json:"last_bonus_date"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// XPTransaction is the append-only award log. Rows are never mutated or
// deleted; they exist for analytics and audit.
type XPTransaction struct {
	ID        string    `json:"id" gorm:"primaryKey"`
	UserID    string    `json:"user_id" gorm:"index;not null"`
	Amount    int       `json:"amount" gorm:"not null"`
	Source    string    `json:"source" gorm:"index;not null"`
	VideoID   string    `json:"video_id" gorm:"index"`
	CreatedAt time.Time `json:"created_at"`
}
