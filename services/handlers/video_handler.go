package handlers

import (
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/wiz-rewards/wiz_api/dto"
	"github.com/wiz-rewards/wiz_api/shared"
)

type VideoHandler struct {
	videoSvc VideoServiceInterface
}

func NewVideoHandler(videoSvc VideoServiceInterface) *VideoHandler {
	return &VideoHandler{
		videoSvc: videoSvc,
	}
}

// @Summary Add video to catalog
// @Description Register a video so the local metadata provider can answer for it
// @Tags videos
// @Accept json
// @Produce json
// @Security Bearer
// @Param Authorization header string true "User Bearer Token" default(Bearer <user_token>)
// @Param createVideoRequest body dto.CreateVideoRequest true "Video details"
// @Success 201 {object} shared.Response{data=dto.VideoResponse}
// @Router /api/v1/videos [post]
func (h *VideoHandler) CreateVideo(c *fiber.Ctx) error {
	var req dto.CreateVideoRequest
	if err := c.BodyParser(&req); err != nil {
		return err
	}

	if err := req.Validate(); err != nil {
		validationResp := dto.CreateValidationErrorResponse(err)
		return c.Status(fiber.StatusBadRequest).JSON(validationResp)
	}

	resp, err := h.videoSvc.CreateVideo(req)
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, http.StatusCreated, "Video added", resp)
}

// @Summary List videos
// @Description Active catalog videos, optionally filtered by channel
// @Tags videos
// @Accept json
// @Produce json
// @Security Bearer
// @Param Authorization header string true "User Bearer Token" default(Bearer <user_token>)
// @Param channel_id query string false "Channel filter"
// @Param limit query int false "Max results"
// @Success 200 {object} shared.Response{data=dto.VideoCollectionResponse}
// @Router /api/v1/videos [get]
func (h *VideoHandler) ListVideos(c *fiber.Ctx) error {
	userID := c.Locals(shared.UserID).(string)
	limit, _ := strconv.Atoi(c.Query("limit", "50"))

	resp, err := h.videoSvc.ListVideos(c.Query("channel_id"), userID, limit)
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, http.StatusOK, "Success", resp)
}

// @Summary Get video
// @Description One catalog video with the caller's completion status
// @Tags videos
// @Accept json
// @Produce json
// @Security Bearer
// @Param Authorization header string true "User Bearer Token" default(Bearer <user_token>)
// @Param videoId path string true "Video ID"
// @Success 200 {object} shared.Response{data=dto.VideoResponse}
// @Router /api/v1/videos/{videoId} [get]
func (h *VideoHandler) GetVideo(c *fiber.Ctx) error {
	userID := c.Locals(shared.UserID).(string)

	resp, err := h.videoSvc.GetVideo(c.Params("videoId"), userID)
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, http.StatusOK, "Success", resp)
}

// @Summary Get video metadata
// @Description Duration and channel info from the active metadata provider
// @Tags videos
// @Accept json
// @Produce json
// @Security Bearer
// @Param Authorization header string true "User Bearer Token" default(Bearer <user_token>)
// @Param videoId path string true "Video ID"
// @Success 200 {object} shared.Response{data=dto.VideoMetadataResponse}
// @Router /api/v1/videos/{videoId}/metadata [get]
func (h *VideoHandler) GetVideoMetadata(c *fiber.Ctx) error {
	resp, err := h.videoSvc.GetVideoMetadata(c.Params("videoId"))
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, http.StatusOK, "Success", resp)
}

// @Summary Record engagement
// @Description Watch, like or comment engagement for XP. Each pays out once per (user, video); watch additionally requires 30 seconds into the current session.
// @Tags videos
// @Accept json
// @Produce json
// @Security Bearer
// @Param Authorization header string true "User Bearer Token" default(Bearer <user_token>)
// @Param videoId path string true "Video ID"
// @Param engagementRequest body dto.EngagementRequest true "Engagement kind"
// @Success 200 {object} shared.Response{data=dto.EngagementResponse}
// @Router /api/v1/videos/{videoId}/engage [post]
func (h *VideoHandler) RecordEngagement(c *fiber.Ctx) error {
	userID := c.Locals(shared.UserID).(string)

	var req dto.EngagementRequest
	if err := c.BodyParser(&req); err != nil {
		return err
	}

	if err := req.Validate(); err != nil {
		validationResp := dto.CreateValidationErrorResponse(err)
		return c.Status(fiber.StatusBadRequest).JSON(validationResp)
	}

	resp, err := h.videoSvc.RecordEngagement(userID, c.Params("videoId"), req)
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, http.StatusOK, "Success", resp)
}

// @Summary Record a view
// @Description Record a view with its completion percentage; XP is granted per newly crossed threshold
// @Tags videos
// @Accept json
// @Produce json
// @Security Bearer
// @Param Authorization header string true "User Bearer Token" default(Bearer <user_token>)
// @Param videoId path string true "Video ID"
// @Param recordViewRequest body dto.RecordViewRequest true "View details"
// @Success 200 {object} shared.Response{data=dto.RecordViewResponse}
// @Router /api/v1/videos/{videoId}/view [post]
func (h *VideoHandler) RecordView(c *fiber.Ctx) error {
	userID := c.Locals(shared.UserID).(string)

	var req dto.RecordViewRequest
	if err := c.BodyParser(&req); err != nil {
		return err
	}

	if err := req.Validate(); err != nil {
		validationResp := dto.CreateValidationErrorResponse(err)
		return c.Status(fiber.StatusBadRequest).JSON(validationResp)
	}

	resp, err := h.videoSvc.RecordView(userID, c.Params("videoId"), req)
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, http.StatusOK, "Success", resp)
}
