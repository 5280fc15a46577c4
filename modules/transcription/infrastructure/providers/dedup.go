package providers

import (
	"log"
	"strings"
)

const ngramWindow = 8

// DedupStats reports how much a Dedup call removed, so a caller can decide
// whether to surface the ratio (logging, diagnostics) without recomputing
// the before/after lengths itself.
type DedupStats struct {
	OriginalChars int
	RemovedChars  int
	Ratio         float64 // RemovedChars / OriginalChars, 0 if OriginalChars == 0
}

// Dedup is the always-on safety net applied to every transcription
// response before it reaches a caller. It removes two shapes of
// pathological repetition the upstream server occasionally emits:
// consecutive duplicate/contained segments, and repeated 8-word n-grams in
// the concatenated text.
func Dedup(text string, segments []Segment) (string, []Segment, DedupStats) {
	originalLen := len(text)

	dedupedSegments := dedupSegments(segments)

	joined := make([]string, 0, len(dedupedSegments))
	for _, s := range dedupedSegments {
		if strings.TrimSpace(s.Text) != "" {
			joined = append(joined, strings.TrimSpace(s.Text))
		}
	}
	candidate := text
	if len(joined) > 0 {
		candidate = strings.Join(joined, " ")
	}

	deduped := dedupNgrams(candidate)

	stats := DedupStats{OriginalChars: originalLen, RemovedChars: originalLen - len(deduped)}
	if originalLen > 0 {
		stats.Ratio = float64(stats.RemovedChars) / float64(originalLen)
		if stats.Ratio > 0.10 {
			log.Printf("dedup: removed %d of %d chars (%.1f%%) of pathological repetition", stats.RemovedChars, originalLen, 100*stats.Ratio)
		}
	}

	return deduped, dedupedSegments, stats
}

// dedupSegments drops any consecutive segment whose normalized text equals
// the previous segment's, or whose text (if >= 10 chars) is contained in
// the previous segment's text.
func dedupSegments(segments []Segment) []Segment {
	if len(segments) == 0 {
		return segments
	}
	result := make([]Segment, 0, len(segments))
	var prevNorm string
	for _, s := range segments {
		norm := normalize(s.Text)
		if norm == prevNorm {
			continue
		}
		if len(norm) >= 10 && prevNorm != "" && strings.Contains(prevNorm, norm) {
			continue
		}
		result = append(result, s)
		prevNorm = norm
	}
	return result
}

// dedupNgrams scans the concatenated text with an 8-word sliding window; on
// the second occurrence of an identical lowercased 8-gram it skips the
// whole window. Idempotent: dedupNgrams(dedupNgrams(x)) == dedupNgrams(x).
func dedupNgrams(text string) string {
	words := strings.Fields(text)
	if len(words) < 2*ngramWindow {
		return text
	}

	seen := make(map[string]bool)
	var out []string
	i := 0
	for i < len(words) {
		if i+ngramWindow <= len(words) {
			gram := strings.ToLower(strings.Join(words[i:i+ngramWindow], " "))
			if seen[gram] {
				i += ngramWindow
				continue
			}
			seen[gram] = true
		}
		out = append(out, words[i])
		i++
	}
	return strings.Join(out, " ")
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// confidenceFromSegments averages each segment's avg_logprob into a 0-100
// confidence score, skipping segments the server didn't attach one to.
// Mirrors the original processor's log-probability-to-confidence mapping:
// per segment, clamp((avg_logprob+1.0)/2.0, 0, 1), then average and scale
// to 0-100. Returns 0 if no segment carries an avg_logprob.
func confidenceFromSegments(segments []Segment) float64 {
	var total float64
	var n int
	for _, s := range segments {
		if s.AvgLogprob == nil {
			continue
		}
		c := (*s.AvgLogprob + 1.0) / 2.0
		if c < 0 {
			c = 0
		} else if c > 1 {
			c = 1
		}
		total += c
		n++
	}
	if n == 0 {
		return 0
	}
	return 100 * total / float64(n)
}
