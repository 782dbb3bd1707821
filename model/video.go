// model/video.go
package model

import "time"

// Video is a catalog entry. Duration may come from the platform API or be
// client-measured when the API flag is off.
type Video struct {
	ID           string    `json:"id" gorm:"primaryKey"`
	Title        string    `json:"title" gorm:"not null"`
	ChannelID    string    `json:"channel_id" gorm:"index"`
	ChannelName  string    `json:"channel_name"`
	Duration     int       `json:"duration"` // seconds
	ThumbnailURL string    `json:"thumbnail_url"`
	IsActive     bool      `json:"is_active" gorm:"default:true"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// VideoCompletion is the authoritative "already rewarded" record for a
// (user, video) pair. The composite unique index backs the conditional
// insert that makes completion rewards race-safe.
type VideoCompletion struct {
	ID          string    `json:"id" gorm:"primaryKey"`
	UserID      string    `json:"user_id" gorm:"uniqueIndex:idx_user_video;not null"`
	VideoID     string    `json:"video_id" gorm:"uniqueIndex:idx_user_video;not null"`
	XPEarned    int       `json:"xp_earned" gorm:"not null"`
	WatchTime   int       `json:"watch_time" gorm:"not null"` // seconds
	CompletedAt time.Time `json:"completed_at"`
	CreatedAt   time.Time `json:"created_at"`
}

// VideoEngagement records the first like/comment/watch engagement per
// (user, video, kind). The unique index is the first-occurrence gate.
type VideoEngagement struct {
	ID        string    `json:"id" gorm:"primaryKey"`
	UserID    string    `json:"user_id" gorm:"uniqueIndex:idx_user_video_kind;not null"`
	VideoID   string    `json:"video_id" gorm:"uniqueIndex:idx_user_video_kind;not null"`
	Kind      string    `json:"kind" gorm:"uniqueIndex:idx_user_video_kind;not null"`
	XPEarned  int       `json:"xp_earned"`
	CreatedAt time.Time `json:"created_at"`
}

// VideoView is one milestone-based view record on the alternate recording
// path. CompletionPct is the highest percentage reported in that request.
type VideoView struct {
	ID            string    `json:"id" gorm:"primaryKey"`
	UserID        string    `json:"user_id" gorm:"index:idx_view_user_video;not null"`
	VideoID       string    `json:"video_id" gorm:"index:idx_view_user_video;not null"`
	CompletionPct float64   `json:"completion_pct"`
	WatchTime     int       `json:"watch_time"` // seconds
	XPEarned      int       `json:"xp_earned"`
	CreatedAt     time.Time `json:"created_at"`
}
