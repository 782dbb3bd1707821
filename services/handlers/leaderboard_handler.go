package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/wiz-rewards/wiz_api/shared"
)

type LeaderboardHandler struct {
	userSvc UserServiceInterface
}

func NewLeaderboardHandler(userSvc UserServiceInterface) *LeaderboardHandler {
	return &LeaderboardHandler{
		userSvc: userSvc,
	}
}

// @Summary Get leaderboard
// @Description Top users by XP for the requested period plus the caller's own rank
// @Tags leaderboard
// @Accept json
// @Produce json
// @Security Bearer
// @Param Authorization header string true "User Bearer Token" default(Bearer <user_token>)
// @Param period query string false "alltime, weekly or monthly" default(alltime)
// @Success 200 {object} shared.Response{data=dto.LeaderboardResponse}
// @Router /api/v1/leaderboard [get]
func (h *LeaderboardHandler) GetLeaderboard(c *fiber.Ctx) error {
	userID := c.Locals(shared.UserID).(string)

	resp, err := h.userSvc.GetLeaderboard(c.Query("period", "alltime"), userID)
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, http.StatusOK, "Success", resp)
}
