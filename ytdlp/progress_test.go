package ytdlp

import (
	"strings"
	"testing"
)

func TestParseProgressLine(t *testing.T) {
	tests := []struct {
		name    string
		line    string
		want    Event
		matched bool
	}{
		{
			name:    "mid download",
			line:    "[download]  42.1% of 10.00MiB at 1.23MiB/s ETA 00:05",
			want:    Event{Stage: StageDownloading, Percent: 42.1},
			matched: true,
		},
		{
			name:    "start",
			line:    "[download]   0.0% of ~25.00MiB at Unknown speed ETA Unknown",
			want:    Event{Stage: StageDownloading, Percent: 0},
			matched: true,
		},
		{
			name:    "finished download",
			line:    "[download] 100% of 10.00MiB in 00:08",
			want:    Event{Stage: StageProcessing, Percent: 100},
			matched: true,
		},
		{
			name:    "extract audio step",
			line:    "[ExtractAudio] Destination: /tmp/job/video.mp3",
			want:    Event{Stage: StageProcessing, Percent: 100},
			matched: true,
		},
		{
			name:    "merger step",
			line:    `[Merger] Merging formats into "/tmp/job/video.mp4"`,
			want:    Event{Stage: StageProcessing, Percent: 100},
			matched: true,
		},
		{
			name:    "destination line",
			line:    "[download] Destination: /tmp/job/video.webm",
			matched: false,
		},
		{
			name:    "unrelated line",
			line:    "[youtube] abc123: Downloading webpage",
			matched: false,
		},
		{
			name:    "empty line",
			line:    "",
			matched: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseProgressLine(tt.line)
			if ok != tt.matched {
				t.Fatalf("ParseProgressLine(%q) matched = %v, want %v", tt.line, ok, tt.matched)
			}
			if !ok {
				return
			}
			if got != tt.want {
				t.Errorf("ParseProgressLine(%q) = %+v, want %+v", tt.line, got, tt.want)
			}
		})
	}
}

func TestBuildArgs(t *testing.T) {
	r, err := NewRunner(Config{Path: "yt-dlp", FFmpegLocation: "/opt/ff", AudioQuality: "192"})
	if err != nil {
		t.Fatalf("NewRunner failed: %v", err)
	}

	args := r.buildArgs("https://youtu.be/abc", "mp3", "/tmp/job")
	joined := " " + strings.Join(args, " ") + " "

	for _, want := range []string{" -x ", " --audio-format mp3 ", " --ffmpeg-location /opt/ff ", " --no-playlist "} {
		if !strings.Contains(joined, want) {
			t.Errorf("mp3 args missing %q: %v", want, args)
		}
	}
	if args[len(args)-1] != "https://youtu.be/abc" {
		t.Errorf("URL must be the final argument, got %v", args)
	}

	args = r.buildArgs("https://youtu.be/abc", "mp4", "/tmp/job")
	joined = " " + strings.Join(args, " ") + " "
	for _, want := range []string{" -f bestvideo+bestaudio/best ", " --merge-output-format mp4 "} {
		if !strings.Contains(joined, want) {
			t.Errorf("mp4 args missing %q: %v", want, args)
		}
	}
}

func TestNewRunnerRequiresPath(t *testing.T) {
	if _, err := NewRunner(Config{}); err == nil {
		t.Error("expected error for empty yt-dlp path")
	}
}
