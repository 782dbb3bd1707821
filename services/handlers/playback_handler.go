package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/wiz-rewards/wiz_api/dto"
	"github.com/wiz-rewards/wiz_api/shared"
)

type PlaybackHandler struct {
	playbackSvc PlaybackServiceInterface
}

func NewPlaybackHandler(playbackSvc PlaybackServiceInterface) *PlaybackHandler {
	return &PlaybackHandler{
		playbackSvc: playbackSvc,
	}
}

// @Summary Submit playback event
// @Description Progress, paused, resumed or ended event for the current playback session. Returns the XP the event was worth.
// @Tags playback
// @Accept json
// @Produce json
// @Security Bearer
// @Param Authorization header string true "User Bearer Token" default(Bearer <user_token>)
// @Param playbackEventRequest body dto.PlaybackEventRequest true "Playback event"
// @Success 200 {object} shared.Response{data=dto.PlaybackEventResponse}
// @Router /api/v1/playback/events [post]
func (h *PlaybackHandler) HandleEvent(c *fiber.Ctx) error {
	userID := c.Locals(shared.UserID).(string)

	var req dto.PlaybackEventRequest
	if err := c.BodyParser(&req); err != nil {
		return err
	}

	if err := req.Validate(); err != nil {
		validationResp := dto.CreateValidationErrorResponse(err)
		return c.Status(fiber.StatusBadRequest).JSON(validationResp)
	}

	resp, err := h.playbackSvc.HandleEvent(userID, req)
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, http.StatusOK, "Success", resp)
}
