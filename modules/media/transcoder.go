// Package media wraps ffmpeg/ffprobe as the audio intelligence pipeline's
// media-processing collaborator: duration discovery, window extraction for
// chunked transcription, and container-to-WAV transcoding for live session
// finalization. Processor is a concrete type: the chunk driver reaches it
// through its AudioAnalyzer interface, other callers hold a *Processor.
package media

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
)

// Processor is the media-processing collaborator: duration
// probing, window extraction (for C2) and single-shot transcoding to 16 kHz
// mono WAV (for C5/C6 single-shot paths).
type Processor struct {
	ffmpegPath  string
	ffprobePath string
}

// NewProcessor creates a processor that shells out to the "ffmpeg"/"ffprobe"
// binaries on PATH. Override paths are accepted for environments that vendor
// their own binaries.
func NewProcessor(ffmpegPath, ffprobePath string) *Processor {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}
	return &Processor{ffmpegPath: ffmpegPath, ffprobePath: ffprobePath}
}

// Duration probes audioPath's length in seconds via ffprobe. ok is false if
// the probe fails or the duration can't be parsed, in which case callers
// fall back to duration-unknown handling.
func (p *Processor) Duration(ctx context.Context, audioPath string) (seconds float64, ok bool) {
	cmd := exec.CommandContext(ctx, p.ffprobePath,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		audioPath,
	)
	out, err := cmd.Output()
	if err != nil {
		return 0, false
	}
	d, err := strconv.ParseFloat(strings.TrimSpace(string(out)), 64)
	if err != nil || d < 0 {
		return 0, false
	}
	return d, true
}

// ExtractWindow cuts [startSec, startSec+lengthSec) out of audioPath into a
// new 16 kHz mono WAV file and returns its path. Satisfies C2's
// AudioAnalyzer seam.
func (p *Processor) ExtractWindow(ctx context.Context, audioPath string, startSec, lengthSec float64) (string, error) {
	out, err := os.CreateTemp("", "window-*.wav")
	if err != nil {
		return "", fmt.Errorf("create window temp file: %w", err)
	}
	windowPath := out.Name()
	out.Close()

	cmd := exec.CommandContext(ctx, p.ffmpegPath,
		"-y",
		"-ss", strconv.FormatFloat(startSec, 'f', -1, 64),
		"-t", strconv.FormatFloat(lengthSec, 'f', -1, 64),
		"-i", audioPath,
		"-ar", "16000",
		"-ac", "1",
		"-f", "wav",
		windowPath,
	)
	if err := cmd.Run(); err != nil {
		os.Remove(windowPath)
		return "", fmt.Errorf("ffmpeg window extraction failed: %w", err)
	}

	info, err := os.Stat(windowPath)
	if err != nil || info.Size() == 0 {
		os.Remove(windowPath)
		return "", fmt.Errorf("ffmpeg produced an empty window")
	}
	return windowPath, nil
}

// TranscodeToWAV converts inputPath (any container ffmpeg understands) to a
// 16 kHz mono WAV file and returns the new file's path. Used for the
// single-shot upload path and live-session batch finalization.
func (p *Processor) TranscodeToWAV(ctx context.Context, inputPath string) (string, error) {
	out, err := os.CreateTemp("", "transcode-*.wav")
	if err != nil {
		return "", fmt.Errorf("create transcode temp file: %w", err)
	}
	wavPath := out.Name()
	out.Close()

	cmd := exec.CommandContext(ctx, p.ffmpegPath,
		"-y",
		"-i", inputPath,
		"-ar", "16000",
		"-ac", "1",
		"-f", "wav",
		wavPath,
	)
	if err := cmd.Run(); err != nil {
		os.Remove(wavPath)
		return "", fmt.Errorf("ffmpeg transcode failed: %w", err)
	}
	return wavPath, nil
}
