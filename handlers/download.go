package handlers

import (
	"github.com/gofiber/fiber/v2"

	"vidfetch/errors"
	"vidfetch/files"
	"vidfetch/models"
	"vidfetch/services/download"
)

type DownloadHandler struct {
	service download.Service
	store   *files.Store
}

func NewDownloadHandler(service download.Service, store *files.Store) *DownloadHandler {
	return &DownloadHandler{service: service, store: store}
}

// DownloadRequest is the body of POST /api/download.
type DownloadRequest struct {
	URL    string        `json:"url"`
	Format models.Format `json:"format"`
}

// Start launches an asynchronous download job.
func (h *DownloadHandler) Start(c *fiber.Ctx) error {
	const op = "DownloadHandler.Start"

	var req DownloadRequest
	if err := c.BodyParser(&req); err != nil {
		return errors.InvalidInput(op, err, "Invalid request body")
	}

	if req.URL == "" {
		return errors.InvalidInput(op, nil, "URL is required")
	}
	if req.Format == "" {
		req.Format = models.FormatMP4
	}

	d, err := h.service.Start(c.Context(), req.URL, req.Format)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success":     true,
		"download_id": d.ID,
	})
}

// Progress reports the status of a download job.
func (h *DownloadHandler) Progress(c *fiber.Ctx) error {
	const op = "DownloadHandler.Progress"

	id := c.Params("id")
	if id == "" {
		return errors.InvalidInput(op, nil, "ID is required")
	}

	d, err := h.service.Get(c.Context(), id)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    models.NewDownloadResponse(d),
	})
}

// Sync handles the form-based synchronous endpoint. mode=direct streams the
// finished file back; mode=json returns its metadata.
func (h *DownloadHandler) Sync(c *fiber.Ctx) error {
	const op = "DownloadHandler.Sync"

	url := c.FormValue("url")
	if url == "" {
		return errors.InvalidInput(op, nil, "URL is required")
	}

	format := models.Format(c.FormValue("format"))
	if !format.Valid() {
		return errors.InvalidInput(op, nil, "Format must be 'mp3' or 'mp4'")
	}

	mode := c.Query("mode", "direct")

	d, err := h.service.StartAndWait(c.Context(), url, format)
	if err != nil {
		return err
	}

	if d.IsFailed() {
		return errors.Internal(op, nil, "Download failed: "+d.Error)
	}

	// A matching job can still be running (started by an earlier request
	// and not joinable); there is no file to serve yet.
	if !d.IsCompleted() {
		return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
			"success":     true,
			"message":     "Download in progress",
			"download_id": d.ID,
		})
	}

	if mode == "json" {
		return c.JSON(fiber.Map{
			"success":   true,
			"message":   "Download complete",
			"file_url":  "/api/download/" + d.Filename,
			"file_name": d.Filename,
		})
	}

	path, err := h.store.Path(d.Filename)
	if err != nil {
		return err
	}
	return c.Download(path, d.Filename)
}
