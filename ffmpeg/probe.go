package ffmpeg

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
)

// ProbeResult holds the subset of ffprobe output the service records on
// finished downloads.
type ProbeResult struct {
	Duration   float64
	Bitrate    int64
	FormatName string
	VideoCodec string
	AudioCodec string
	Width      int
	Height     int
}

// ffprobeOutput is the top-level JSON structure from ffprobe -show_streams -show_format.
type ffprobeOutput struct {
	Streams []struct {
		CodecName string `json:"codec_name"`
		CodecType string `json:"codec_type"`
		Width     int    `json:"width"`
		Height    int    `json:"height"`
		Duration  string `json:"duration"`
	} `json:"streams"`
	Format struct {
		FormatName string `json:"format_name"`
		Duration   string `json:"duration"`
		BitRate    string `json:"bit_rate"`
	} `json:"format"`
}

// Probe inspects a local media file with ffprobe.
func (b *Binaries) Probe(ctx context.Context, filePath string) (*ProbeResult, error) {
	if b.FFprobe == "" {
		return nil, fmt.Errorf("ffprobe is not available")
	}

	cmd := exec.CommandContext(ctx, b.FFprobe,
		"-v", "quiet",
		"-print_format", "json",
		"-show_streams",
		"-show_format",
		filePath,
	)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("ffprobe exec: %w (stderr: %s)", err, stderr.String())
	}

	var data ffprobeOutput
	if err := json.Unmarshal(stdout.Bytes(), &data); err != nil {
		return nil, fmt.Errorf("ffprobe parse: %w", err)
	}

	return parseProbeOutput(&data), nil
}

func parseProbeOutput(data *ffprobeOutput) *ProbeResult {
	result := &ProbeResult{FormatName: data.Format.FormatName}

	for _, s := range data.Streams {
		switch s.CodecType {
		case "video":
			result.VideoCodec = s.CodecName
			result.Width = s.Width
			result.Height = s.Height
			if dur, err := strconv.ParseFloat(s.Duration, 64); err == nil && dur > 0 {
				result.Duration = dur
			}
		case "audio":
			result.AudioCodec = s.CodecName
		}
	}

	// Format-level duration wins when stream-level was absent.
	if result.Duration == 0 {
		if dur, err := strconv.ParseFloat(data.Format.Duration, 64); err == nil {
			result.Duration = dur
		}
	}

	if br, err := strconv.ParseInt(data.Format.BitRate, 10, 64); err == nil {
		result.Bitrate = br
	}

	return result
}
