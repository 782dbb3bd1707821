package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/wiz-rewards/wiz_api/dto"
	"github.com/wiz-rewards/wiz_api/shared"
)

type UserHandler struct {
	userSvc UserServiceInterface
}

func NewUserHandler(userSvc UserServiceInterface) *UserHandler {
	return &UserHandler{
		userSvc: userSvc,
	}
}

// @Summary Get user progress
// @Description Current XP, level, streak and completed videos for the authenticated user
// @Tags user
// @Accept json
// @Produce json
// @Security Bearer
// @Param Authorization header string true "User Bearer Token" default(Bearer <user_token>)
// @Success 200 {object} shared.Response{data=dto.UserProgressResponse}
// @Router /api/v1/user/progress [get]
func (h *UserHandler) GetProgress(c *fiber.Ctx) error {
	userID := c.Locals(shared.UserID).(string)

	resp, err := h.userSvc.GetUserProgress(userID)
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, http.StatusOK, "Success", resp)
}

// @Summary Update profile
// @Description Update the authenticated user's profile
// @Tags user
// @Accept json
// @Produce json
// @Security Bearer
// @Param Authorization header string true "User Bearer Token" default(Bearer <user_token>)
// @Param updateProfileRequest body dto.UpdateProfileRequest true "Profile fields"
// @Success 200 {object} shared.Response{data=nil}
// @Router /api/v1/user/profile [put]
func (h *UserHandler) UpdateProfile(c *fiber.Ctx) error {
	userID := c.Locals(shared.UserID).(string)

	var req dto.UpdateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return err
	}

	if err := req.Validate(); err != nil {
		validationResp := dto.CreateValidationErrorResponse(err)
		return c.Status(fiber.StatusBadRequest).JSON(validationResp)
	}

	if err := h.userSvc.UpdateProfile(userID, req); err != nil {
		return err
	}

	return shared.ResponseJSON(c, http.StatusOK, "Profile updated", nil)
}

// @Summary Claim daily bonus
// @Description Grant the once-per-day login bonus
// @Tags user
// @Accept json
// @Produce json
// @Security Bearer
// @Param Authorization header string true "User Bearer Token" default(Bearer <user_token>)
// @Success 200 {object} shared.Response{data=dto.DailyBonusResponse}
// @Router /api/v1/user/daily-bonus [post]
func (h *UserHandler) ClaimDailyBonus(c *fiber.Ctx) error {
	userID := c.Locals(shared.UserID).(string)

	resp, err := h.userSvc.ClaimDailyBonus(userID)
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, http.StatusOK, "Success", resp)
}
