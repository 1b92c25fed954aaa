package ytdlp

import (
	"regexp"
	"strconv"
	"strings"
)

// Stage mirrors the yt-dlp progress-hook vocabulary.
type Stage string

const (
	StageDownloading Stage = "downloading"
	StageProcessing  Stage = "processing"
)

// Event is one progress update parsed from yt-dlp output.
type Event struct {
	Stage   Stage
	Percent float64
}

// downloadLineRe matches lines like
// "[download]  42.1% of 10.00MiB at 1.23MiB/s ETA 00:05".
var downloadLineRe = regexp.MustCompile(`^\[download\]\s+([0-9.]+)%`)

// Postprocessor step markers emitted once downloading is done.
var postprocessPrefixes = []string{
	"[ExtractAudio]",
	"[Merger]",
	"[FixupM3u8]",
	"[VideoConvertor]",
}

// ParseProgressLine extracts a progress event from one line of yt-dlp output.
// Returns false for lines that carry no progress information.
func ParseProgressLine(line string) (Event, bool) {
	line = strings.TrimSpace(line)

	if m := downloadLineRe.FindStringSubmatch(line); m != nil {
		percent, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			return Event{}, false
		}
		stage := StageDownloading
		if percent >= 100 {
			// Download finished, postprocessing comes next.
			stage = StageProcessing
		}
		return Event{Stage: stage, Percent: percent}, true
	}

	for _, prefix := range postprocessPrefixes {
		if strings.HasPrefix(line, prefix) {
			return Event{Stage: StageProcessing, Percent: 100}, true
		}
	}

	return Event{}, false
}
