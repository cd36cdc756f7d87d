package server

import (
	"fmt"
	"io"

	"mesto/internal/models"
	"mesto/internal/service"

	"github.com/gofiber/fiber/v2"
)

// UploadImage handles POST /uploads
// @Summary Upload an image
// @Description Stores JPEG and WebP masters of the image and returns their public URLs.
// @Tags media
// @Accept mpfd
// @Produce json
// @Param image formData file true "Image (jpeg, png, gif or webp)"
// @Success 201 {object} service.UploadResult
// @Failure 400 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /uploads [post]
func (s *Server) UploadImage(c *fiber.Ctx) error {
	file, err := c.FormFile("image")
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest, models.NewValidationError("No file uploaded"))
	}
	if file.Size > service.MaxUploadBytes {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError(fmt.Sprintf("File too large (max %dMB)", service.MaxUploadBytes/(1024*1024))))
	}

	src, err := file.Open()
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest, models.NewValidationError("Unable to read uploaded file"))
	}
	defer func() { _ = src.Close() }()

	content, err := io.ReadAll(src)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest, models.NewValidationError("Unable to read uploaded file"))
	}

	uploaded, err := s.mediaService.Upload(c.UserContext(), service.UploadImageInput{
		UserID:      currentUserID(c),
		Filename:    file.Filename,
		ContentType: file.Header.Get("Content-Type"),
		Content:     content,
	})
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}

	return c.Status(fiber.StatusCreated).JSON(uploaded)
}
