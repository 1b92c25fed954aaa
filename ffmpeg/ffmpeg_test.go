package ffmpeg

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"
)

type fakeFileInfo struct {
	name string
	dir  bool
}

func (f fakeFileInfo) Name() string       { return f.name }
func (f fakeFileInfo) Size() int64        { return 0 }
func (f fakeFileInfo) Mode() os.FileMode  { return 0755 }
func (f fakeFileInfo) ModTime() time.Time { return time.Time{} }
func (f fakeFileInfo) IsDir() bool        { return f.dir }
func (f fakeFileInfo) Sys() interface{}   { return nil }

// fakeFS maps paths to dir/file entries for the injected stat.
func fakeFS(entries map[string]bool) statFunc {
	return func(path string) (os.FileInfo, error) {
		if dir, ok := entries[path]; ok {
			return fakeFileInfo{name: filepath.Base(path), dir: dir}, nil
		}
		return nil, os.ErrNotExist
	}
}

func noLookPath(string) (string, error) {
	return "", fmt.Errorf("not found")
}

func TestResolveExplicitBinary(t *testing.T) {
	stat := fakeFS(map[string]bool{
		"/opt/ff/ffmpeg":  false,
		"/opt/ff/ffprobe": false,
	})

	bins, err := resolve("/opt/ff/ffmpeg", stat, noLookPath)
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}

	if bins.FFmpeg != "/opt/ff/ffmpeg" {
		t.Errorf("unexpected ffmpeg path: %s", bins.FFmpeg)
	}
	if bins.FFprobe != "/opt/ff/ffprobe" {
		t.Errorf("expected ffprobe derived beside ffmpeg, got %s", bins.FFprobe)
	}
	if bins.Location != "/opt/ff/ffmpeg" {
		t.Errorf("unexpected location: %s", bins.Location)
	}
}

func TestResolveExplicitDirectory(t *testing.T) {
	stat := fakeFS(map[string]bool{
		"/opt/ff":        true,
		"/opt/ff/ffmpeg": false,
	})

	bins, err := resolve("/opt/ff", stat, noLookPath)
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}

	if bins.FFmpeg != "/opt/ff/ffmpeg" {
		t.Errorf("unexpected ffmpeg path: %s", bins.FFmpeg)
	}
	// No ffprobe beside ffmpeg and none on PATH.
	if bins.FFprobe != "" {
		t.Errorf("expected empty ffprobe, got %s", bins.FFprobe)
	}
}

func TestResolveExplicitMissing(t *testing.T) {
	stat := fakeFS(map[string]bool{})

	if _, err := resolve("/nonexistent/ffmpeg", stat, noLookPath); err == nil {
		t.Error("expected error for missing FFMPEG_LOCATION")
	}

	// Directory without the binary inside.
	stat = fakeFS(map[string]bool{"/opt/empty": true})
	if _, err := resolve("/opt/empty", stat, noLookPath); err == nil {
		t.Error("expected error for directory without ffmpeg")
	}
}

func TestResolvePathFallback(t *testing.T) {
	lookPath := func(name string) (string, error) {
		return "/usr/bin/" + name, nil
	}

	bins, err := resolve("", fakeFS(nil), lookPath)
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}

	if bins.FFmpeg != "/usr/bin/ffmpeg" {
		t.Errorf("unexpected ffmpeg path: %s", bins.FFmpeg)
	}
	if bins.FFprobe != "/usr/bin/ffprobe" {
		t.Errorf("unexpected ffprobe path: %s", bins.FFprobe)
	}
	if bins.Location != "" {
		t.Errorf("expected empty location for PATH lookup, got %s", bins.Location)
	}
}

func TestResolveNothingFound(t *testing.T) {
	if _, err := resolve("", fakeFS(nil), noLookPath); err == nil {
		t.Error("expected error when ffmpeg is nowhere to be found")
	}
}

func TestParseProbeOutput(t *testing.T) {
	raw := `{
		"streams": [
			{"codec_name": "h264", "codec_type": "video", "width": 1920, "height": 1080, "duration": "123.45"},
			{"codec_name": "aac", "codec_type": "audio"}
		],
		"format": {"format_name": "mov,mp4,m4a", "duration": "123.50", "bit_rate": "1500000"}
	}`

	var data ffprobeOutput
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		t.Fatalf("failed to unmarshal fixture: %v", err)
	}

	result := parseProbeOutput(&data)

	if result.VideoCodec != "h264" {
		t.Errorf("expected h264, got %s", result.VideoCodec)
	}
	if result.AudioCodec != "aac" {
		t.Errorf("expected aac, got %s", result.AudioCodec)
	}
	if result.Width != 1920 || result.Height != 1080 {
		t.Errorf("unexpected dimensions: %dx%d", result.Width, result.Height)
	}
	if result.Duration != 123.45 {
		t.Errorf("expected stream duration 123.45, got %f", result.Duration)
	}
	if result.Bitrate != 1500000 {
		t.Errorf("expected bitrate 1500000, got %d", result.Bitrate)
	}
}

func TestParseProbeOutputAudioOnly(t *testing.T) {
	raw := `{
		"streams": [{"codec_name": "mp3", "codec_type": "audio"}],
		"format": {"format_name": "mp3", "duration": "210.00", "bit_rate": "192000"}
	}`

	var data ffprobeOutput
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		t.Fatalf("failed to unmarshal fixture: %v", err)
	}

	result := parseProbeOutput(&data)

	if result.VideoCodec != "" {
		t.Errorf("expected no video codec, got %s", result.VideoCodec)
	}
	if result.Duration != 210 {
		t.Errorf("expected format duration fallback 210, got %f", result.Duration)
	}
}
