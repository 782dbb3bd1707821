// services/youtube.go
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	appContext "github.com/alphabatem/common/context"
	log "github.com/sirupsen/logrus"

	"github.com/wiz-rewards/wiz_api/dto"
)

// YouTubeService is the API-backed metadata provider, active when
// USE_YOUTUBE_API is on. Responses are cached in Redis since durations
// never change.
type YouTubeService struct {
	appContext.DefaultService

	redisSvc *RedisService

	apiKey     string
	baseURL    string
	httpClient *http.Client
}

const YOUTUBE_SVC = "youtube_svc"

const metadataCacheTTL = 24 * time.Hour

func (svc YouTubeService) Id() string {
	return YOUTUBE_SVC
}

func (svc *YouTubeService) Configure(ctx *appContext.Context) error {
	svc.apiKey = os.Getenv("YOUTUBE_API_KEY")
	svc.baseURL = os.Getenv("YOUTUBE_API_BASE_URL")
	if svc.baseURL == "" {
		svc.baseURL = "https://www.googleapis.com/youtube/v3"
	}
	svc.httpClient = &http.Client{Timeout: 10 * time.Second}
	return svc.DefaultService.Configure(ctx)
}

func (svc *YouTubeService) Start() error {
	svc.redisSvc = svc.Service(REDIS_SVC).(*RedisService)
	return nil
}

type youtubeVideoList struct {
	Items []struct {
		ID      string `json:"id"`
		Snippet struct {
			Title        string `json:"title"`
			ChannelID    string `json:"channelId"`
			ChannelTitle string `json:"channelTitle"`
		} `json:"snippet"`
		ContentDetails struct {
			Duration string `json:"duration"`
		} `json:"contentDetails"`
	} `json:"items"`
}

func (svc *YouTubeService) GetVideoMetadata(videoID string) (*dto.VideoMetadataResponse, error) {
	ctx := context.Background()
	cacheKey := "wiz:video_meta:" + videoID

	var cached dto.VideoMetadataResponse
	if found, err := svc.redisSvc.GetJSON(ctx, cacheKey, &cached); err == nil && found {
		return &cached, nil
	}

	reqURL := fmt.Sprintf("%s/videos?part=snippet,contentDetails&id=%s&key=%s",
		svc.baseURL, url.QueryEscape(videoID), url.QueryEscape(svc.apiKey))

	resp, err := svc.httpClient.Get(reqURL)
	if err != nil {
		return nil, fmt.Errorf("youtube api request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("youtube api returned status %d", resp.StatusCode)
	}

	var list youtubeVideoList
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		return nil, fmt.Errorf("failed to decode youtube response: %w", err)
	}
	if len(list.Items) == 0 {
		return nil, fmt.Errorf("video %s not found", videoID)
	}

	item := list.Items[0]
	meta := &dto.VideoMetadataResponse{
		VideoID:     item.ID,
		Title:       item.Snippet.Title,
		ChannelID:   item.Snippet.ChannelID,
		ChannelName: item.Snippet.ChannelTitle,
		Duration:    parseISO8601Duration(item.ContentDetails.Duration),
		Source:      "api",
	}

	if err := svc.redisSvc.SetJSON(ctx, cacheKey, meta, metadataCacheTTL); err != nil {
		log.Printf("Failed to cache metadata for video %s: %v", videoID, err)
	}

	return meta, nil
}

// parseISO8601Duration converts YouTube's PT#H#M#S format to seconds.
// Malformed input yields 0, which downstream code treats as unknown.
func parseISO8601Duration(s string) int {
	s = strings.TrimPrefix(s, "P")
	s = strings.TrimPrefix(s, "T")

	total := 0
	num := ""
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			num += string(r)
		case r == 'H' || r == 'M' || r == 'S':
			n, err := strconv.Atoi(num)
			if err != nil {
				return 0
			}
			switch r {
			case 'H':
				total += n * 3600
			case 'M':
				total += n * 60
			case 'S':
				total += n
			}
			num = ""
		case r == 'T':
			// date part ended, keep going
			num = ""
		default:
			return 0
		}
	}
	return total
}
