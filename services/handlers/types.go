package handlers

import (
	"mime/multipart"

	"github.com/wiz-rewards/wiz_api/dto"
)

type AuthServiceInterface interface {
	Register(req dto.RegisterRequest) (*dto.RegisterResponse, error)
	Login(req dto.LoginRequest) (*dto.LoginResponse, error)
	LoginWithGoogle(req dto.GoogleLoginRequest) (*dto.LoginResponse, error)
}

type JWTServiceInterface interface {
	ExtractTokenFromHeader(authHeader string) (string, error)
	VerifyJWTToken(token string) (string, error)
}

type UserServiceInterface interface {
	GetUserProgress(userID string) (*dto.UserProgressResponse, error)
	UpdateProfile(userID string, req dto.UpdateProfileRequest) error
	ClaimDailyBonus(userID string) (*dto.DailyBonusResponse, error)
	GetLeaderboard(period, currentUserID string) (*dto.LeaderboardResponse, error)
}

type VideoServiceInterface interface {
	CreateVideo(req dto.CreateVideoRequest) (*dto.VideoResponse, error)
	GetVideo(videoID, userID string) (*dto.VideoResponse, error)
	ListVideos(channelID, userID string, limit int) (*dto.VideoCollectionResponse, error)
	GetVideoMetadata(videoID string) (*dto.VideoMetadataResponse, error)
	RecordEngagement(userID, videoID string, req dto.EngagementRequest) (*dto.EngagementResponse, error)
	RecordView(userID, videoID string, req dto.RecordViewRequest) (*dto.RecordViewResponse, error)
}

type PlaybackServiceInterface interface {
	HandleEvent(userID string, req dto.PlaybackEventRequest) (*dto.PlaybackEventResponse, error)
}

type MediaServiceInterface interface {
	UploadAvatar(userID string, file *multipart.FileHeader) (*dto.MediaUploadResponse, error)
	UploadThumbnail(videoID string, file *multipart.FileHeader) (*dto.MediaUploadResponse, error)
}
