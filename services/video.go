// services/video.go
package services

import (
	"fmt"

	appContext "github.com/alphabatem/common/context"
	"gorm.io/gorm"

	"github.com/wiz-rewards/wiz_api/dto"
	"github.com/wiz-rewards/wiz_api/model"
	"github.com/wiz-rewards/wiz_api/shared"
)

// VideoService fronts the catalog and routes engagement rewards: watch goes
// through the session gate, like and comment through the first-engagement
// gate.
type VideoService struct {
	appContext.DefaultService

	sqlSvc      *PostgresService
	xpSvc       *XPService
	ledgerSvc   *LedgerService
	playbackSvc *PlaybackService
	userSvc     *UserService
	metadata    VideoMetadataProvider
}

const VIDEO_SVC = "video_svc"

func (svc VideoService) Id() string {
	return VIDEO_SVC
}

func (svc *VideoService) Configure(ctx *appContext.Context) error {
	return svc.DefaultService.Configure(ctx)
}

func (svc *VideoService) Start() error {
	svc.sqlSvc = svc.Service(POSTGRES_SVC).(*PostgresService)
	svc.xpSvc = svc.Service(XP_SVC).(*XPService)
	svc.ledgerSvc = svc.Service(LEDGER_SVC).(*LedgerService)
	svc.playbackSvc = svc.Service(PLAYBACK_SVC).(*PlaybackService)
	svc.userSvc = svc.Service(USER_SVC).(*UserService)

	if shared.UseYouTubeAPI() {
		svc.metadata = svc.Service(YOUTUBE_SVC).(*YouTubeService)
	} else {
		svc.metadata = svc.Service(LOCAL_METADATA_SVC).(*LocalMetadataService)
	}
	return nil
}

// SetDeps wires dependencies directly. Test hook.
func (svc *VideoService) SetDeps(sqlSvc *PostgresService, xpSvc *XPService, ledgerSvc *LedgerService, playbackSvc *PlaybackService) {
	svc.sqlSvc = sqlSvc
	svc.xpSvc = xpSvc
	svc.ledgerSvc = ledgerSvc
	svc.playbackSvc = playbackSvc
}

// ==================== CATALOG ====================

func (svc *VideoService) CreateVideo(req dto.CreateVideoRequest) (*dto.VideoResponse, error) {
	if _, err := svc.sqlSvc.GetVideo(req.ID); err == nil {
		return nil, shared.NewConflictError(fmt.Errorf("video exists"), "Video is already in the catalog")
	}

	video := &model.Video{
		ID:           req.ID,
		Title:        req.Title,
		ChannelID:    req.ChannelID,
		ChannelName:  req.ChannelName,
		Duration:     req.Duration,
		ThumbnailURL: req.ThumbnailURL,
		IsActive:     true,
	}
	if _, err := svc.sqlSvc.CreateVideo(video); err != nil {
		return nil, shared.NewInternalError(err, "Failed to add video")
	}

	return svc.toVideoResponse(video, ""), nil
}

func (svc *VideoService) GetVideo(videoID, userID string) (*dto.VideoResponse, error) {
	video, err := svc.sqlSvc.GetVideo(videoID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, shared.NewNotFoundError(err, "Video not found")
		}
		return nil, shared.NewInternalError(err, "Failed to load video")
	}
	return svc.toVideoResponse(video, userID), nil
}

func (svc *VideoService) ListVideos(channelID, userID string, limit int) (*dto.VideoCollectionResponse, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	videos, err := svc.sqlSvc.ListVideos(channelID, limit)
	if err != nil {
		return nil, shared.NewInternalError(err, "Failed to list videos")
	}

	resp := &dto.VideoCollectionResponse{Videos: make([]dto.VideoResponse, 0, len(videos))}
	for i := range videos {
		resp.Videos = append(resp.Videos, *svc.toVideoResponse(&videos[i], userID))
	}
	resp.Total = len(resp.Videos)
	return resp, nil
}

func (svc *VideoService) toVideoResponse(video *model.Video, userID string) *dto.VideoResponse {
	resp := &dto.VideoResponse{
		ID:           video.ID,
		Title:        video.Title,
		ChannelID:    video.ChannelID,
		ChannelName:  video.ChannelName,
		Duration:     video.Duration,
		ThumbnailURL: video.ThumbnailURL,
	}
	if userID != "" {
		resp.IsCompleted = svc.ledgerSvc.IsCompleted(userID, video.ID)
	}
	return resp
}

func (svc *VideoService) GetVideoMetadata(videoID string) (*dto.VideoMetadataResponse, error) {
	meta, err := svc.metadata.GetVideoMetadata(videoID)
	if err != nil {
		return nil, shared.NewNotFoundError(err, "Video metadata unavailable")
	}
	return meta, nil
}

// ==================== ENGAGEMENT ====================

// RecordEngagement applies one engagement reward. Watch is gated by the
// playback session (over 30s watched, once per session); like and comment by
// the unique first-engagement row.
func (svc *VideoService) RecordEngagement(userID, videoID string, req dto.EngagementRequest) (*dto.EngagementResponse, error) {
	if userID == "" || videoID == "" {
		return nil, shared.NewBadRequestError(fmt.Errorf("missing user or video"), "Invalid engagement")
	}

	resp := &dto.EngagementResponse{Kind: req.Kind}

	switch req.Kind {
	case shared.EngagementWatch:
		if !svc.playbackSvc.ClaimWatchEngagement(userID, videoID, req.SessionID) {
			return resp, nil
		}
		resp.XPGained = svc.xpSvc.Award(userID, videoID, shared.SourceWatch, shared.XPWatchEngagement)
		resp.First = true
	case shared.EngagementLike, shared.EngagementComment:
		granted, first := svc.xpSvc.AwardFirstEngagement(userID, videoID, req.Kind)
		resp.XPGained = granted
		resp.First = first
	default:
		return nil, shared.NewBadRequestError(fmt.Errorf("unknown kind %q", req.Kind), "Unknown engagement kind")
	}

	if svc.userSvc != nil {
		svc.userSvc.TouchActivity(userID)
	}
	return resp, nil
}

// RecordView is the threshold-based view recording path.
func (svc *VideoService) RecordView(userID, videoID string, req dto.RecordViewRequest) (*dto.RecordViewResponse, error) {
	resp, err := svc.xpSvc.RecordView(userID, videoID, req.CompletionPct, req.WatchTime)
	if err != nil {
		return nil, err
	}
	if svc.userSvc != nil {
		svc.userSvc.TouchActivity(userID)
	}
	return resp, nil
}
