package Controllers

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const evidenceDir = "./Evidence"

// UploadEvidence stores one task photo and returns the path the client
// attaches to the draft. Files are renamed to a UUID so concurrent uploads
// from different devices cannot collide.
func UploadEvidence(c *fiber.Ctx) error {
	file, err := c.FormFile("photo")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Missing photo file"})
	}
	contentType := file.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Evidence must be an image"})
	}

	if err := os.MkdirAll(evidenceDir, 0755); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Failed to store photo"})
	}

	ext := filepath.Ext(file.Filename)
	if ext == "" {
		ext = ".jpg"
	}
	name := uuid.New().String() + ext
	if err := c.SaveFile(file, filepath.Join(evidenceDir, name)); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Failed to store photo"})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"path": "/Evidence/" + name})
}
