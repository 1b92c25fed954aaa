// Package ytdlp shells out to the yt-dlp binary for media metadata and
// downloads. yt-dlp in turn drives ffmpeg for mp3 extraction and mp4 merging,
// so the resolved ffmpeg location is forwarded on every download.
package ytdlp

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"vidfetch/models"
)

// Config holds the configuration for the Runner
type Config struct {
	// Path to the yt-dlp binary ("yt-dlp" resolves via PATH).
	Path string

	// FFmpegLocation is forwarded as --ffmpeg-location when non-empty.
	FFmpegLocation string

	// AudioQuality for the mp3 postprocessor, in kbit/s ("192").
	AudioQuality string

	Environment []string
}

// VideoInfo is the metadata subset read from `yt-dlp -J`.
type VideoInfo struct {
	ID        string  `json:"id"`
	Title     string  `json:"title"`
	Duration  float64 `json:"duration"`
	Extractor string  `json:"extractor"`
	IsLive    bool    `json:"is_live"`
}

type Runner struct {
	config Config
	logger *logrus.Logger
}

func NewRunner(cfg Config) (*Runner, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("yt-dlp path is required")
	}
	if cfg.AudioQuality == "" {
		cfg.AudioQuality = "192"
	}
	return &Runner{
		config: cfg,
		logger: logrus.StandardLogger(),
	}, nil
}

// Version returns the yt-dlp version string.
func (r *Runner) Version(ctx context.Context) (string, error) {
	cmd := exec.CommandContext(ctx, r.config.Path, "--version")

	var stdout bytes.Buffer
	cmd.Stdout = &stdout

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("yt-dlp version check failed: %w", err)
	}
	return strings.TrimSpace(stdout.String()), nil
}

// FetchInfo retrieves metadata for a URL without downloading.
func (r *Runner) FetchInfo(ctx context.Context, url string) (*VideoInfo, error) {
	args := []string{"-J", "--no-warnings", "--no-playlist", url}

	cmd := exec.CommandContext(ctx, r.config.Path, args...)
	cmd.Env = append(os.Environ(), r.config.Environment...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		r.logger.WithFields(logrus.Fields{
			"url":    url,
			"stderr": tail(stderr.String(), 500),
		}).WithError(err).Error("Metadata fetch failed")
		return nil, fmt.Errorf("metadata fetch failed: %v (stderr: %s)", err, tail(stderr.String(), 500))
	}

	var info VideoInfo
	if err := json.Unmarshal(stdout.Bytes(), &info); err != nil {
		return nil, fmt.Errorf("failed to parse video info: %w", err)
	}

	return &info, nil
}

// Download fetches the URL into destDir in the requested format and returns
// the path of the produced file. Progress events parsed from yt-dlp output
// are delivered to onProgress when non-nil.
func (r *Runner) Download(
	ctx context.Context,
	url string,
	format models.Format,
	destDir string,
	onProgress func(Event),
) (string, error) {
	if err := os.MkdirAll(destDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create destination directory: %w", err)
	}

	args := r.buildArgs(url, format, destDir)

	r.logger.WithFields(logrus.Fields{
		"url":    url,
		"format": format,
		"args":   args,
	}).Debug("Executing yt-dlp")

	cmd := exec.CommandContext(ctx, r.config.Path, args...)
	cmd.Env = append(os.Environ(), r.config.Environment...)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return "", fmt.Errorf("failed to create stdout pipe: %w", err)
	}

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		return "", fmt.Errorf("failed to start yt-dlp: %w", err)
	}

	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		if event, ok := ParseProgressLine(scanner.Text()); ok && onProgress != nil {
			onProgress(event)
		}
	}
	if err := scanner.Err(); err != nil {
		// An oversized line stops the scanner; keep draining stdout so the
		// process is not blocked on a full pipe.
		r.logger.WithField("url", url).WithError(err).Warn("Progress stream read failed")
		io.Copy(io.Discard, stdout)
	}

	if err := cmd.Wait(); err != nil {
		stderrOutput := tail(stderr.String(), 500)
		r.logger.WithFields(logrus.Fields{
			"url":    url,
			"stderr": stderrOutput,
		}).WithError(err).Error("yt-dlp execution failed")
		return "", fmt.Errorf("download failed: %v (stderr: %s)", err, stderrOutput)
	}

	return findOutputFile(destDir, format)
}

func (r *Runner) buildArgs(url string, format models.Format, destDir string) []string {
	args := []string{
		"--newline",
		"--progress",
		"--no-warnings",
		"--no-playlist",
		"-o", filepath.Join(destDir, "%(title)s.%(ext)s"),
	}

	switch format {
	case models.FormatMP3:
		args = append(args,
			"-x",
			"--audio-format", "mp3",
			"--audio-quality", r.config.AudioQuality,
		)
	default:
		args = append(args,
			"-f", "bestvideo+bestaudio/best",
			"--merge-output-format", "mp4",
		)
	}

	if r.config.FFmpegLocation != "" {
		args = append(args, "--ffmpeg-location", r.config.FFmpegLocation)
	}

	return append(args, url)
}

// findOutputFile locates the produced file in the per-job directory. The
// output template makes the exact name unpredictable, so the newest file with
// the expected extension wins, falling back to any file present.
func findOutputFile(destDir string, format models.Format) (string, error) {
	entries, err := os.ReadDir(destDir)
	if err != nil {
		return "", fmt.Errorf("failed to read destination directory: %w", err)
	}

	var fallback string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.EqualFold(filepath.Ext(name), format.Ext()) {
			return filepath.Join(destDir, name), nil
		}
		if fallback == "" {
			fallback = filepath.Join(destDir, name)
		}
	}

	if fallback != "" {
		return fallback, nil
	}
	return "", fmt.Errorf("download completed but no file found in %s", destDir)
}

func tail(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return "..." + s[len(s)-n:]
}
