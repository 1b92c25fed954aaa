package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"vidfetch/ffmpeg"
	"vidfetch/ytdlp"
)

type HealthHandler struct {
	binaries *ffmpeg.Binaries
	runner   *ytdlp.Runner
	version  string
}

func NewHealthHandler(binaries *ffmpeg.Binaries, runner *ytdlp.Runner, version string) *HealthHandler {
	return &HealthHandler{binaries: binaries, runner: runner, version: version}
}

// Check reports service health including external binary availability.
func (h *HealthHandler) Check(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 5*time.Second)
	defer cancel()

	status := "ok"
	binaries := fiber.Map{}

	if v, err := ffmpeg.Version(ctx, h.binaries.FFmpeg); err != nil {
		status = "degraded"
		binaries["ffmpeg"] = "unavailable"
	} else {
		binaries["ffmpeg"] = v
	}

	if v, err := ffmpeg.Version(ctx, h.binaries.FFprobe); err != nil {
		status = "degraded"
		binaries["ffprobe"] = "unavailable"
	} else {
		binaries["ffprobe"] = v
	}

	if v, err := h.runner.Version(ctx); err != nil {
		status = "degraded"
		binaries["yt-dlp"] = "unavailable"
	} else {
		binaries["yt-dlp"] = v
	}

	code := fiber.StatusOK
	if status != "ok" {
		code = fiber.StatusServiceUnavailable
	}

	return c.Status(code).JSON(fiber.Map{
		"status":    status,
		"version":   h.version,
		"binaries":  binaries,
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

// Root returns the service banner.
func Root(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"message": "Video Downloader API is running",
		"endpoints": fiber.Map{
			"download": "/api/download",
			"progress": "/api/progress/:id",
			"files":    "/api/files",
		},
	})
}
