// Package ffmpeg locates and wraps the external ffmpeg/ffprobe binaries.
//
// Resolution order for ffmpeg:
//  1. explicit location (FFMPEG_LOCATION) — either the binary itself or the
//     directory containing it, matching yt-dlp's --ffmpeg-location semantics
//  2. ffmpeg found on PATH
//
// ffprobe is derived from the resolved ffmpeg path when it lives beside it,
// otherwise found on PATH.
package ffmpeg

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

type Binaries struct {
	FFmpeg  string
	FFprobe string

	// Location is the value to forward to yt-dlp's --ffmpeg-location,
	// empty when ffmpeg was found on PATH.
	Location string
}

// Resolve locates the ffmpeg and ffprobe binaries.
func Resolve(location string) (*Binaries, error) {
	return resolve(location, os.Stat, exec.LookPath)
}

type statFunc func(string) (os.FileInfo, error)
type lookPathFunc func(string) (string, error)

func resolve(location string, stat statFunc, lookPath lookPathFunc) (*Binaries, error) {
	location = strings.TrimSpace(location)

	if location != "" {
		ffmpegPath, err := resolveExplicit(location, stat)
		if err != nil {
			return nil, err
		}
		return &Binaries{
			FFmpeg:   ffmpegPath,
			FFprobe:  deriveFFprobe(ffmpegPath, stat, lookPath),
			Location: location,
		}, nil
	}

	ffmpegPath, err := lookPath("ffmpeg")
	if err != nil {
		return nil, fmt.Errorf("ffmpeg not found on PATH; set FFMPEG_LOCATION")
	}

	ffprobePath, err := lookPath("ffprobe")
	if err != nil {
		ffprobePath = deriveFFprobe(ffmpegPath, stat, lookPath)
	}

	return &Binaries{FFmpeg: ffmpegPath, FFprobe: ffprobePath}, nil
}

func resolveExplicit(location string, stat statFunc) (string, error) {
	fi, err := stat(location)
	if err != nil {
		return "", fmt.Errorf("FFMPEG_LOCATION does not exist: %s", location)
	}

	if fi.IsDir() {
		candidate := filepath.Join(location, "ffmpeg")
		if fi, err := stat(candidate); err == nil && !fi.IsDir() {
			return candidate, nil
		}
		return "", fmt.Errorf("no ffmpeg binary in directory: %s", location)
	}

	return location, nil
}

// deriveFFprobe looks for ffprobe next to ffmpeg, falling back to PATH.
func deriveFFprobe(ffmpegPath string, stat statFunc, lookPath lookPathFunc) string {
	if strings.ContainsRune(ffmpegPath, os.PathSeparator) {
		candidate := filepath.Join(filepath.Dir(ffmpegPath), "ffprobe")
		if fi, err := stat(candidate); err == nil && !fi.IsDir() {
			return candidate
		}
	}

	if p, err := lookPath("ffprobe"); err == nil {
		return p
	}
	return ""
}

// Version runs a binary with -version and returns the first output line.
func Version(ctx context.Context, binPath string) (string, error) {
	if binPath == "" {
		return "", fmt.Errorf("binary path is empty")
	}

	cmd := exec.CommandContext(ctx, binPath, "-version")

	var stdout bytes.Buffer
	cmd.Stdout = &stdout

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("version check failed for %s: %w", binPath, err)
	}

	line := stdout.String()
	if i := strings.IndexByte(line, '\n'); i >= 0 {
		line = line[:i]
	}
	return strings.TrimSpace(line), nil
}
