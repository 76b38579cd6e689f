package handlers

import (
	"errors"
	"io"

	"github.com/gofiber/fiber/v2"

	"crosspost/internal/service"
)

type UploadHandler struct {
	s *service.StorageService
}

func NewUploadHandler(s *service.StorageService) *UploadHandler {
	return &UploadHandler{s: s}
}

func (h *UploadHandler) Upload(c *fiber.Ctx) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "No file provided",
		})
	}

	file, err := fileHeader.Open()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to open file",
		})
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Unable to read file",
		})
	}

	url, err := h.s.Upload(c.Context(), data)
	if err != nil {
		if errors.Is(err, service.ErrUnsupportedFileType) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Upload failed",
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"url": url})
}
