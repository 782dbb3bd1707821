// services/metadata.go
package services

import (
	"github.com/alphabatem/common/context"
	log "github.com/sirupsen/logrus"

	"github.com/wiz-rewards/wiz_api/dto"
)

// VideoMetadataProvider abstracts where video metadata (most importantly the
// duration) comes from. The award policy is written against this interface
// once; the API-backed and local providers are interchangeable behind it.
type VideoMetadataProvider interface {
	GetVideoMetadata(videoID string) (*dto.VideoMetadataResponse, error)
}

// LocalMetadataService is the fallback provider used when the platform API
// flag is off. It answers from the catalog and synthesizes a placeholder
// when the video is unknown; playback then relies on client-measured
// duration.
type LocalMetadataService struct {
	context.DefaultService

	sqlSvc *PostgresService
}

const LOCAL_METADATA_SVC = "local_metadata_svc"

func (svc LocalMetadataService) Id() string {
	return LOCAL_METADATA_SVC
}

func (svc *LocalMetadataService) Configure(ctx *context.Context) error {
	return svc.DefaultService.Configure(ctx)
}

func (svc *LocalMetadataService) Start() error {
	svc.sqlSvc = svc.Service(POSTGRES_SVC).(*PostgresService)
	return nil
}

func (svc *LocalMetadataService) GetVideoMetadata(videoID string) (*dto.VideoMetadataResponse, error) {
	video, err := svc.sqlSvc.GetVideo(videoID)
	if err != nil {
		log.Printf("Video %s not in catalog, using placeholder metadata: %v", videoID, err)
		return &dto.VideoMetadataResponse{
			VideoID: videoID,
			Title:   "Video " + videoID,
			Source:  "local",
		}, nil
	}

	return &dto.VideoMetadataResponse{
		VideoID:     video.ID,
		Title:       video.Title,
		ChannelID:   video.ChannelID,
		ChannelName: video.ChannelName,
		Duration:    video.Duration,
		Source:      "local",
	}, nil
}
