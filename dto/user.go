// dto/user.go
package dto

import "time"

type UserProgressResponse struct {
	UserID          string     `json:"user_id"`
	TotalXP         int        `json:"total_xp"`
	Level           int        `json:"level"`
	XPToNextLevel   int        `json:"xp_to_next_level"`
	CompletedVideos []string   `json:"completed_videos"`
	VideosWatched   int        `json:"videos_watched"`
	TotalWatchTime  int        `json:"total_watch_time"`
	Streak          int        `json:"streak"`
	LastActivity    *time.Time `json:"last_activity,omitempty"`
}

type UpdateProfileRequest struct {
	Username string `json:"username" validate:"omitempty,min=3,max=30,alphanum"`
}

func (r UpdateProfileRequest) Validate() error {
	return GetValidator().Struct(r)
}

type DailyBonusResponse struct {
	Granted  bool `json:"granted"`
	XPGained int  `json:"xp_gained"`
	TotalXP  int  `json:"total_xp"`
	Level    int  `json:"level"`
}

type LeaderboardUserResponse struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Level    int    `json:"level"`
	XP       int    `json:"xp"`
	Rank     int    `json:"rank"`
}

type LeaderboardResponse struct {
	Period      string                    `json:"period"`
	CurrentUser LeaderboardUserResponse   `json:"current_user,omitempty"`
	TopUsers    []LeaderboardUserResponse `json:"top_users"`
}

type MediaUploadResponse struct {
	ObjectName string `json:"object_name"`
	URL        string `json:"url"`
	Size       int64  `json:"size"`
}
