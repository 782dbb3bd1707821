package services

import (
	"fmt"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/alphabatem/common/context"
	log "github.com/sirupsen/logrus"

	"github.com/wiz-rewards/wiz_api/dto"
	"github.com/wiz-rewards/wiz_api/shared"
)

// MediaService handles the two uploads the app needs: user avatars and video
// thumbnails for locally cataloged videos. Files live in MinIO; clients get
// presigned URLs.
type MediaService struct {
	context.DefaultService
	sqlSvc   *PostgresService
	minioSvc *MinIOService
	baseURL  string
}

const MEDIA_SVC = "media_svc"

func (svc MediaService) Id() string {
	return MEDIA_SVC
}

func (svc *MediaService) Configure(ctx *context.Context) error {
	svc.baseURL = os.Getenv("BASE_URL")
	if svc.baseURL == "" {
		svc.baseURL = "http://localhost:8000"
	}

	return svc.DefaultService.Configure(ctx)
}

func (svc *MediaService) Start() error {
	svc.sqlSvc = svc.Service(POSTGRES_SVC).(*PostgresService)
	svc.minioSvc = svc.Service(MINIO_SVC).(*MinIOService)
	return nil
}

func (svc *MediaService) UploadAvatar(userID string, file *multipart.FileHeader) (*dto.MediaUploadResponse, error) {
	if !svc.isValidImageFile(file.Filename) {
		return nil, shared.NewBadRequestError(nil, "Invalid image file format. Supported: JPG, PNG, WEBP")
	}

	if file.Size > 2*1024*1024 {
		return nil, shared.NewBadRequestError(nil, "Avatar file too large. Maximum size: 2MB")
	}

	resp, err := svc.uploadFile(file, "avatars", userID)
	if err != nil {
		return nil, err
	}

	if err := svc.sqlSvc.UpdateUser(userID, map[string]interface{}{"avatar_url": resp.URL}); err != nil {
		log.Printf("Failed to store avatar URL for user %s: %v", userID, err)
	}
	return resp, nil
}

func (svc *MediaService) UploadThumbnail(videoID string, file *multipart.FileHeader) (*dto.MediaUploadResponse, error) {
	if !svc.isValidImageFile(file.Filename) {
		return nil, shared.NewBadRequestError(nil, "Invalid image file format. Supported: JPG, PNG, WEBP")
	}

	if file.Size > 2*1024*1024 {
		return nil, shared.NewBadRequestError(nil, "Thumbnail file too large. Maximum size: 2MB")
	}

	if _, err := svc.sqlSvc.GetVideo(videoID); err != nil {
		return nil, shared.NewNotFoundError(err, "Video not found")
	}

	resp, err := svc.uploadFile(file, "thumbnails", videoID)
	if err != nil {
		return nil, err
	}

	if err := svc.sqlSvc.UpdateVideoThumbnail(videoID, resp.URL); err != nil {
		log.Printf("Failed to store thumbnail URL for video %s: %v", videoID, err)
	}
	return resp, nil
}

func (svc *MediaService) uploadFile(file *multipart.FileHeader, subDir, ownerID string) (*dto.MediaUploadResponse, error) {
	ext := filepath.Ext(file.Filename)
	objectName := fmt.Sprintf("%s/%s_%d%s", subDir, ownerID, time.Now().Unix(), ext)

	src, err := file.Open()
	if err != nil {
		return nil, shared.NewInternalError(err, "Failed to open uploaded file")
	}
	defer src.Close()

	uploadInfo, err := svc.minioSvc.UploadFile(objectName, src, file.Size, file.Header.Get("Content-Type"))
	if err != nil {
		return nil, shared.NewInternalError(err, "Failed to upload file to storage")
	}

	// Presigned URL valid for 24 hours; fall back to the direct path when
	// presigning fails.
	fileURL, err := svc.minioSvc.GetFileURL(objectName, 24*time.Hour)
	if err != nil {
		log.Printf("Failed to generate presigned URL: %v", err)
		fileURL = fmt.Sprintf("%s/%s/%s", svc.baseURL, svc.minioSvc.GetBucketName(), objectName)
	}

	log.Printf("Uploaded %s to MinIO: %s", file.Filename, uploadInfo.Key)

	return &dto.MediaUploadResponse{
		ObjectName: objectName,
		URL:        fileURL,
		Size:       file.Size,
	}, nil
}

func (svc *MediaService) isValidImageFile(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	validExts := []string{".jpg", ".jpeg", ".png", ".webp"}

	for _, validExt := range validExts {
		if ext == validExt {
			return true
		}
	}
	return false
}
