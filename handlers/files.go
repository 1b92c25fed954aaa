package handlers

import (
	"github.com/gofiber/fiber/v2"

	"vidfetch/errors"
	"vidfetch/files"
	"vidfetch/metrics"
)

type FileHandler struct {
	store *files.Store
}

func NewFileHandler(store *files.Store) *FileHandler {
	return &FileHandler{store: store}
}

// Serve streams a finished file as an attachment.
func (h *FileHandler) Serve(c *fiber.Ctx) error {
	const op = "FileHandler.Serve"

	filename := c.Params("filename")
	if filename == "" {
		return errors.InvalidInput(op, nil, "Filename is required")
	}

	path, err := h.store.Path(filename)
	if err != nil {
		return err
	}

	return c.Download(path, filename)
}

// List returns all files in the download directory, newest first.
func (h *FileHandler) List(c *fiber.Ctx) error {
	list, err := h.store.List()
	if err != nil {
		return errors.Internal("FileHandler.List", err, "Failed to list files")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"files":   list,
	})
}

// Delete removes a single file.
func (h *FileHandler) Delete(c *fiber.Ctx) error {
	const op = "FileHandler.Delete"

	filename := c.Params("filename")
	if filename == "" {
		return errors.InvalidInput(op, nil, "Filename is required")
	}

	if err := h.store.Delete(filename); err != nil {
		return err
	}

	metrics.FilesDeleted.WithLabelValues("api").Inc()

	return c.JSON(fiber.Map{
		"success": true,
		"message": "File deleted",
	})
}
