// dto/video.go
package dto

import "time"

type VideoResponse struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	ChannelID    string `json:"channel_id,omitempty"`
	ChannelName  string `json:"channel_name,omitempty"`
	Duration     int    `json:"duration"`
	ThumbnailURL string `json:"thumbnail_url,omitempty"`
	IsCompleted  bool   `json:"is_completed"`
}

type VideoCollectionResponse struct {
	Videos []VideoResponse `json:"videos"`
	Total  int             `json:"total"`
}

type CreateVideoRequest struct {
	ID           string `json:"id" validate:"required"`
	Title        string `json:"title" validate:"required"`
	ChannelID    string `json:"channel_id"`
	ChannelName  string `json:"channel_name"`
	Duration     int    `json:"duration" validate:"gte=0"`
	ThumbnailURL string `json:"thumbnail_url" validate:"omitempty,url"`
}

func (r CreateVideoRequest) Validate() error {
	return GetValidator().Struct(r)
}

type EngagementRequest struct {
	Kind      string `json:"kind" validate:"required,oneof=watch like comment"`
	SessionID string `json:"session_id"`
}

func (r EngagementRequest) Validate() error {
	return GetValidator().Struct(r)
}

type EngagementResponse struct {
	Kind     string `json:"kind"`
	XPGained int    `json:"xp_gained"`
	First    bool   `json:"first"`
}

type RecordViewRequest struct {
	CompletionPct float64 `json:"completion_pct" validate:"gte=0,lte=100"`
	WatchTime     int     `json:"watch_time" validate:"gte=0"`
}

func (r RecordViewRequest) Validate() error {
	return GetValidator().Struct(r)
}

type RecordViewResponse struct {
	XPGained          int       `json:"xp_gained"`
	ThresholdsCrossed []float64 `json:"thresholds_crossed,omitempty"`
	RecordedAt        time.Time `json:"recorded_at"`
}

type VideoMetadataResponse struct {
	VideoID     string `json:"video_id"`
	Title       string `json:"title"`
	ChannelID   string `json:"channel_id,omitempty"`
	ChannelName string `json:"channel_name,omitempty"`
	Duration    int    `json:"duration"`
	Source      string `json:"source"` // "api" or "local"
}
