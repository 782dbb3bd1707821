package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/wiz-rewards/wiz_api/shared"
)

type MediaHandler struct {
	mediaSvc MediaServiceInterface
}

func NewMediaHandler(mediaSvc MediaServiceInterface) *MediaHandler {
	return &MediaHandler{
		mediaSvc: mediaSvc,
	}
}

// @Summary Upload avatar
// @Description Upload a profile picture for the authenticated user
// @Tags media
// @Accept multipart/form-data
// @Produce json
// @Security Bearer
// @Param Authorization header string true "User Bearer Token" default(Bearer <user_token>)
// @Param file formData file true "Image file"
// @Success 200 {object} shared.Response{data=dto.MediaUploadResponse}
// @Router /api/v1/media/avatar [post]
func (h *MediaHandler) UploadAvatar(c *fiber.Ctx) error {
	userID := c.Locals(shared.UserID).(string)

	file, err := c.FormFile("file")
	if err != nil {
		return shared.NewBadRequestError(err, "Missing file")
	}

	resp, err := h.mediaSvc.UploadAvatar(userID, file)
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, http.StatusOK, "Avatar uploaded", resp)
}

// @Summary Upload video thumbnail
// @Description Upload a thumbnail for a cataloged video
// @Tags media
// @Accept multipart/form-data
// @Produce json
// @Security Bearer
// @Param Authorization header string true "User Bearer Token" default(Bearer <user_token>)
// @Param videoId path string true "Video ID"
// @Param file formData file true "Image file"
// @Success 200 {object} shared.Response{data=dto.MediaUploadResponse}
// @Router /api/v1/media/videos/{videoId}/thumbnail [post]
func (h *MediaHandler) UploadThumbnail(c *fiber.Ctx) error {
	file, err := c.FormFile("file")
	if err != nil {
		return shared.NewBadRequestError(err, "Missing file")
	}

	resp, err := h.mediaSvc.UploadThumbnail(c.Params("videoId"), file)
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, http.StatusOK, "Thumbnail uploaded", resp)
}
