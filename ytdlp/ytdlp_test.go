package ytdlp

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"vidfetch/models"
)

func writeFile(t *testing.T, dir, name string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte("data"), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
}

func TestFindOutputFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "My Video.mp4")
	writeFile(t, dir, "My Video.info.json")

	path, err := findOutputFile(dir, models.FormatMP4)
	if err != nil {
		t.Fatalf("findOutputFile failed: %v", err)
	}
	if filepath.Base(path) != "My Video.mp4" {
		t.Errorf("expected My Video.mp4, got %s", filepath.Base(path))
	}
}

func TestFindOutputFileFallback(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "My Video.webm")

	// No mp4 present: the remaining file is returned.
	path, err := findOutputFile(dir, models.FormatMP4)
	if err != nil {
		t.Fatalf("findOutputFile failed: %v", err)
	}
	if filepath.Base(path) != "My Video.webm" {
		t.Errorf("expected fallback to My Video.webm, got %s", filepath.Base(path))
	}
}

func TestFindOutputFileEmpty(t *testing.T) {
	if _, err := findOutputFile(t.TempDir(), models.FormatMP3); err == nil {
		t.Error("expected error for empty directory")
	}
}

func TestDownloadSurvivesOversizedOutputLine(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("fake binary is a shell script")
	}

	// A fake yt-dlp that prints a line larger than the scanner buffer, then a
	// normal progress line, and exits cleanly.
	script := `#!/bin/sh
head -c 1200000 /dev/zero | tr '\0' 'x'
echo ""
echo "[download]  50.0% of 10.00MiB at 1.00MiB/s ETA 00:05"
exit 0
`
	fake := filepath.Join(t.TempDir(), "yt-dlp")
	if err := os.WriteFile(fake, []byte(script), 0755); err != nil {
		t.Fatalf("failed to write fake binary: %v", err)
	}

	runner, err := NewRunner(Config{Path: fake})
	if err != nil {
		t.Fatalf("NewRunner failed: %v", err)
	}

	destDir := t.TempDir()
	writeFile(t, destDir, "My Video.mp4")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	path, err := runner.Download(ctx, "https://example.com/watch?v=1", models.FormatMP4, destDir, nil)
	if err != nil {
		t.Fatalf("Download failed: %v", err)
	}
	if filepath.Base(path) != "My Video.mp4" {
		t.Errorf("expected My Video.mp4, got %s", filepath.Base(path))
	}
}
