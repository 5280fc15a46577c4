package services

import (
	"context"
	"log"
	"math"
	"os"
	"strings"
	"time"

	"transcriptai/server/modules/transcription/domain/entities"
	"transcriptai/server/modules/transcription/infrastructure/providers"
)

// AudioAnalyzer is the media-processing collaborator's duration-discovery
// seam (out of scope per the audio intelligence pipeline's own boundary;
// wraps a standard media tool).
type AudioAnalyzer interface {
	Duration(ctx context.Context, audioPath string) (seconds float64, ok bool)
	// ExtractWindow cuts [startSec, startSec+lengthSec) out of audioPath into
	// a new WAV file and returns its path. The chunk driver always deletes
	// the returned path on exit.
	ExtractWindow(ctx context.Context, audioPath string, startSec, lengthSec float64) (windowPath string, err error)
}

// PartialEvent is emitted after each window is transcribed.
type PartialEvent struct {
	ChunkIndex int     `json:"chunk_index"`
	StartSec   float64 `json:"start_sec"`
	EndSec     float64 `json:"end_sec"`
	Text       string  `json:"text"`
}

// ChunkedResult is the final summary returned once all windows are
// processed. Segments carries one entities.Segment per non-empty window, in
// chunk-index order, assembled as the windows complete; Confidence is their
// length-weighted average (0-100), 0 if no window produced one.
type ChunkedResult struct {
	AudioPath  string
	Ok         bool
	Text       string
	Language   string
	ChunkCount int
	Confidence float64
	Segments   []entities.Segment
	Timestamp  time.Time
}

// ChunkDriver cuts long audio into overlapping windows, drives the
// transcription client per window, deduplicates, and assembles the final
// transcript (C2).
type ChunkDriver struct {
	client   *providers.Client
	analyzer AudioAnalyzer
}

// NewChunkDriver creates a chunk driver over client/analyzer.
func NewChunkDriver(client *providers.Client, analyzer AudioAnalyzer) *ChunkDriver {
	return &ChunkDriver{client: client, analyzer: analyzer}
}

// TranscribeInChunks iterates overlapping windows sequentially: language is
// detected from the first successful window and then held fixed, so windows
// cannot be processed concurrently with each other. onPartial is called
// (if non-nil) after every window in chunk-index order.
func (d *ChunkDriver) TranscribeInChunks(ctx context.Context, audioPath string, chunkSec, strideSec float64, forcedLanguage string, onPartial func(PartialEvent)) ChunkedResult {
	step := chunkSec - strideSec
	if step < 0.1 {
		step = 0.1
	}

	duration, haveDuration := d.analyzer.Duration(ctx, audioPath)

	language := forcedLanguage
	languageLocked := forcedLanguage != ""

	var texts []string
	var segments []entities.Segment
	chunkIndex := 0
	start := 0.0

	for {
		if haveDuration && start >= duration {
			break
		}

		windowPath, err := d.analyzer.ExtractWindow(ctx, audioPath, start, chunkSec)
		if err != nil {
			log.Printf("chunk driver: window %d extraction failed at %.1fs: %v", chunkIndex, start, err)
			if !haveDuration {
				// Unknown total duration: tolerate until extraction fails
				// and treat that as the end of the stream.
				break
			}
			start += step
			chunkIndex++
			continue
		}

		result := d.client.Transcribe(ctx, windowPath, providers.TranscribeOptions{Language: language})
		os.Remove(windowPath)

		text := ""
		if result.Ok {
			text = strings.TrimSpace(result.Text)
			if !languageLocked {
				if text != "" {
					language = result.Language
					languageLocked = true
				}
			}
		} else {
			log.Printf("chunk driver: window %d transcription failed: %s", chunkIndex, result.Error)
		}

		if onPartial != nil {
			onPartial(PartialEvent{
				ChunkIndex: chunkIndex,
				StartSec:   start,
				EndSec:     start + chunkSec,
				Text:       text,
			})
		}
		if text != "" {
			texts = append(texts, text)
			segments = append(segments, entities.Segment{
				Text:       text,
				StartSec:   start,
				EndSec:     start + chunkSec,
				Confidence: result.Confidence,
			})
		}

		chunkIndex++
		start += step

		if !haveDuration && !result.Ok {
			break
		}
	}

	if language == "" {
		language = "unknown"
	}

	return ChunkedResult{
		AudioPath:  audioPath,
		Ok:         true,
		Text:       strings.Join(texts, " "),
		Language:   language,
		ChunkCount: chunkIndex,
		Confidence: averageConfidence(segments),
		Segments:   segments,
		Timestamp:  time.Now(),
	}
}

// averageConfidence length-weights each segment's confidence by its text
// length, so a long, confident window outweighs a short, noisy one.
func averageConfidence(segments []entities.Segment) float64 {
	var weightedTotal, totalLen float64
	for _, s := range segments {
		weight := float64(len(s.Text))
		weightedTotal += s.Confidence * weight
		totalLen += weight
	}
	if totalLen == 0 {
		return 0
	}
	return weightedTotal / totalLen
}

// WindowOffsets is exposed for tests: computes the sequence of window start
// offsets for a given duration, chunkSec and strideSec, matching the
// advance-step clamping rule (max(0.1, chunk_sec - stride_sec)).
func WindowOffsets(duration, chunkSec, strideSec float64) []float64 {
	step := chunkSec - strideSec
	if step < 0.1 {
		step = 0.1
	}
	if duration <= 0 {
		return nil
	}
	n := int(math.Ceil(duration/step)) + 1
	offsets := make([]float64, 0, n)
	for s := 0.0; s < duration; s += step {
		offsets = append(offsets, s)
	}
	return offsets
}
