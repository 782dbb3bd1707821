// dto/playback.go
package dto

type PlaybackEventRequest struct {
	SessionID string  `json:"session_id" validate:"required"`
	VideoID   string  `json:"video_id" validate:"required"`
	Type      string  `json:"type" validate:"required,oneof=progress paused resumed ended"`
	Position  float64 `json:"position" validate:"gte=0"` // seconds into the video
	Duration  float64 `json:"duration" validate:"gte=0"` // client-measured, used when the catalog has none
}

func (r PlaybackEventRequest) Validate() error {
	return GetValidator().Struct(r)
}

// PlaybackEventResponse reports what the event was worth so clients can
// update the displayed XP optimistically before the next full refresh.
type PlaybackEventResponse struct {
	State          string `json:"state"`
	XPGained       int    `json:"xp_gained"`
	MilestoneTicks int    `json:"milestone_ticks"`
	BonusGranted   bool   `json:"bonus_granted"`
	Completed      bool   `json:"completed"`
	WatchSeconds   int    `json:"watch_seconds"`
}
