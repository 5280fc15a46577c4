package live

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	callservices "transcriptai/server/modules/calls/application/services"
	callentities "transcriptai/server/modules/calls/domain/entities"
	"transcriptai/server/modules/events"
	"transcriptai/server/modules/media"
	transcriptservices "transcriptai/server/modules/transcription/application/services"
	"transcriptai/server/modules/transcription/infrastructure/providers"
	"transcriptai/server/seedwork/domain"
)

const (
	quiescenceWindow = 1500 * time.Millisecond
	quiescencePoll   = 100 * time.Millisecond
)

// Analyzer is the NLP collaborator's seam for live-session finalization.
// Analyze persists whatever Analysis row it produces itself; a failure is
// logged and otherwise ignored, matching the rest of the pipeline's
// NLP-failure isolation.
type Analyzer interface {
	Analyze(ctx context.Context, callID, text string) error
}

// Config mirrors config.LiveConfig without importing the seedwork config
// package directly, keeping this module's dependency graph shallow.
type Config struct {
	ProgressiveEnabled bool
	BatchOnly          bool
	ChunkSec           float64
	StrideSec          float64
	ForceLanguage      string
}

// StopResult is returned from Stop.
type StopResult struct {
	FinalText       string
	DurationSeconds float64
	CallID          string
}

// Manager is the live microphone session manager (C5).
type Manager struct {
	cfg     Config
	dataDir string

	client      *providers.Client
	processor   *media.Processor
	bus         *events.Bus
	calls       *callservices.CallService
	transcripts *transcriptservices.TranscriptService
	analyzer    Analyzer // may be nil: NLP is best-effort

	mu       sync.Mutex
	sessions map[string]*session
}

// NewManager creates a live session manager. analyzer may be nil if NLP
// analysis is not wired (finalize then skips the Analysis row).
func NewManager(cfg Config, dataDir string, client *providers.Client, processor *media.Processor, bus *events.Bus, calls *callservices.CallService, transcripts *transcriptservices.TranscriptService, analyzer Analyzer) *Manager {
	return &Manager{
		cfg:         cfg,
		dataDir:     dataDir,
		client:      client,
		processor:   processor,
		bus:         bus,
		calls:       calls,
		transcripts: transcripts,
		analyzer:    analyzer,
		sessions:    make(map[string]*session),
	}
}

// Start creates a fresh session and returns its ID.
func (m *Manager) Start(ctx context.Context) (string, error) {
	s, err := newSession(m.dataDir)
	if err != nil {
		return "", err
	}

	m.mu.Lock()
	m.sessions[s.id] = s
	m.mu.Unlock()

	return s.id, nil
}

func (m *Manager) lookup(sessionID string) (*session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[sessionID]
	return s, ok
}

// Push appends a chunk to sessionID and, in progressive mode, drives
// single-shot transcription + SSE publication for it. Returns the new
// chunk's index.
func (m *Manager) Push(ctx context.Context, sessionID string, raw []byte, contentType string) (int, error) {
	s, ok := m.lookup(sessionID)
	if !ok {
		return 0, domain.NewDomainError(domain.ErrNotFound, fmt.Sprintf("no live session %s", sessionID), nil)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != sessionOpen {
		return 0, domain.NewDomainError(domain.ErrConflict, "live session already stopped", nil)
	}

	idx := len(s.chunks)
	ext := extensionForContentType(contentType)
	path := s.chunkPath(idx, ext)
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return 0, fmt.Errorf("write chunk %d: %w", idx, err)
	}
	s.chunks = append(s.chunks, chunkRecord{path: path})
	s.pushCount++
	s.lastPushAt = time.Now()

	if m.cfg.ProgressiveEnabled && !m.cfg.BatchOnly {
		m.transcribeChunkLocked(ctx, s, idx)
	}

	return idx, nil
}

// transcribeChunkLocked runs progressive per-chunk transcription. Caller
// holds s.mu. Transcode failures are logged and swallowed: the push is
// still acknowledged with no SSE traffic for that chunk, per spec.
func (m *Manager) transcribeChunkLocked(ctx context.Context, s *session, idx int) {
	var containerPath string
	var cleanup func()

	if idx == 0 {
		containerPath = s.chunks[0].path
		cleanup = func() {}
	} else {
		concatPath, err := concatFiles(s.dir, s.chunks[0].path, s.chunks[idx].path)
		if err != nil {
			log.Printf("live session %s: concat chunk %d failed: %v", s.id, idx, err)
			return
		}
		containerPath = concatPath
		cleanup = func() { os.Remove(concatPath) }
	}
	defer cleanup()

	wavPath, err := m.processor.TranscodeToWAV(ctx, containerPath)
	if err != nil {
		log.Printf("live session %s: transcode chunk %d failed: %v", s.id, idx, err)
		return
	}
	defer os.Remove(wavPath)

	result := m.client.Transcribe(ctx, wavPath, providers.TranscribeOptions{Language: m.cfg.ForceLanguage})
	if !result.Ok {
		log.Printf("live session %s: transcribe chunk %d failed: %s", s.id, idx, result.Error)
		return
	}

	text := strings.TrimSpace(result.Text)
	var newText string
	if idx == 0 {
		s.headerBaseline = text
		newText = text
	} else {
		newText = stripBaselinePrefix(s.headerBaseline, text)
	}

	if newText == "" {
		return
	}
	if s.headerBaseline == "" && idx == 0 {
		s.headerBaseline = text
	}

	m.bus.Publish(s.id, events.Event{
		Type: "partial",
		Data: map[string]interface{}{
			"chunk_index": idx,
			"call_id":     s.id,
			"text":        newText,
		},
	})
}

// Stop finalizes sessionID: in batch-only mode it waits for in-flight
// pushes to quiesce, then transcodes/transcribes once; in progressive mode
// it transcribes the reassembled stream once more, falling back to chunk 0's
// baseline text if that transcription fails. Either way
// it persists Call + Transcript (+ Analysis, if non-empty) rows and
// publishes a terminal complete event. The response is only returned after
// persistence completes, per the ordering guarantee.
func (m *Manager) Stop(ctx context.Context, sessionID string) (StopResult, error) {
	s, ok := m.lookup(sessionID)
	if !ok {
		return StopResult{}, domain.NewDomainError(domain.ErrNotFound, fmt.Sprintf("no live session %s", sessionID), nil)
	}

	if m.cfg.BatchOnly || !m.cfg.ProgressiveEnabled {
		m.awaitQuiescence(s)
	}

	s.mu.Lock()
	s.status = sessionClosed
	chunks := append([]chunkRecord(nil), s.chunks...)
	baseline := s.headerBaseline
	s.mu.Unlock()

	defer s.cleanup()
	defer func() {
		m.mu.Lock()
		delete(m.sessions, sessionID)
		m.mu.Unlock()
	}()

	if len(chunks) == 0 {
		m.bus.Complete(sessionID)
		return StopResult{CallID: sessionID}, nil
	}

	finalContainer, err := concatAll(s.dir, chunks)
	if err != nil {
		m.bus.Complete(sessionID)
		return StopResult{}, fmt.Errorf("concatenate chunks: %w", err)
	}
	defer os.Remove(finalContainer)

	wavPath, err := m.processor.TranscodeToWAV(ctx, finalContainer)
	if err != nil {
		m.bus.Complete(sessionID)
		return StopResult{}, fmt.Errorf("final transcode: %w", err)
	}
	defer os.Remove(wavPath)

	durationSeconds, _ := m.processor.Duration(ctx, wavPath)

	var finalText string
	var confidence float64
	if m.cfg.BatchOnly || !m.cfg.ProgressiveEnabled {
		result := m.client.Transcribe(ctx, wavPath, providers.TranscribeOptions{Language: m.cfg.ForceLanguage})
		if result.Ok {
			finalText = strings.TrimSpace(result.Text)
			confidence = result.Confidence
		} else {
			log.Printf("live session %s: final transcription failed: %s", s.id, result.Error)
		}
	} else {
		// Progressive mode: re-transcribe the whole reassembled stream once
		// more for the canonical stored transcript, rather than trusting
		// the prefix-stripped partials' concatenation (which can drift from
		// a from-scratch transcription when the baseline heuristic misses).
		result := m.client.Transcribe(ctx, wavPath, providers.TranscribeOptions{Language: m.cfg.ForceLanguage})
		if result.Ok {
			finalText = strings.TrimSpace(result.Text)
			confidence = result.Confidence
		} else if baseline != "" {
			finalText = baseline
		}
	}

	if err := m.finalize(ctx, sessionID, finalText, durationSeconds, confidence); err != nil {
		m.bus.Complete(sessionID)
		return StopResult{}, err
	}

	m.bus.Complete(sessionID)
	return StopResult{FinalText: finalText, DurationSeconds: durationSeconds, CallID: sessionID}, nil
}

func (m *Manager) finalize(ctx context.Context, sessionID, text string, durationSeconds, confidence float64) error {
	// call_id must equal sessionID: results/pipeline queries key a live
	// session's row by the id the caller started the session with.
	if _, err := m.calls.CreateCallWithID(ctx, sessionID, "", fmt.Sprintf("live-%s", sessionID), 0); err != nil {
		return fmt.Errorf("create call row: %w", err)
	}
	callID := sessionID

	if _, err := m.transcripts.Save(ctx, callID, text, "", confidence); err != nil {
		return fmt.Errorf("persist transcript: %w", err)
	}

	if strings.TrimSpace(text) != "" && m.analyzer != nil {
		if err := m.analyzer.Analyze(ctx, callID, text); err != nil {
			log.Printf("live session %s: analysis failed: %v", sessionID, err)
		}
	}

	return m.calls.UpdateStatus(ctx, callID, func(c *callentities.Call) {
		c.StartProcessing()
		c.StartTranscribing()
		c.MarkTranscribed()
		c.SetDuration(durationSeconds)
		c.Complete()
	})
}

// awaitQuiescence waits for pushes to stop arriving (push count unchanged
// across a 100 ms poll) or for the 1.5 s cap, whichever comes first.
func (m *Manager) awaitQuiescence(s *session) {
	deadline := time.Now().Add(quiescenceWindow)
	for time.Now().Before(deadline) {
		s.mu.Lock()
		before := s.pushCount
		s.mu.Unlock()

		time.Sleep(quiescencePoll)

		s.mu.Lock()
		after := s.pushCount
		s.mu.Unlock()

		if before == after {
			return
		}
	}
}

func extensionForContentType(contentType string) string {
	switch {
	case strings.Contains(contentType, "webm"):
		return "webm"
	case strings.Contains(contentType, "ogg"):
		return "ogg"
	case strings.Contains(contentType, "wav"):
		return "wav"
	default:
		return "bin"
	}
}

// concatFiles binary-concatenates a header (chunk 0) and one later chunk
// into a new temp file under dir and returns its path.
func concatFiles(dir, headerPath, chunkPath string) (string, error) {
	out, err := os.CreateTemp(dir, "concat-*"+filepath.Ext(headerPath))
	if err != nil {
		return "", err
	}
	defer out.Close()

	for _, p := range []string{headerPath, chunkPath} {
		if err := appendFile(out, p); err != nil {
			os.Remove(out.Name())
			return "", err
		}
	}
	return out.Name(), nil
}

// concatAll binary-concatenates every chunk, in arrival order, into a new
// temp file under dir.
func concatAll(dir string, chunks []chunkRecord) (string, error) {
	ext := "bin"
	if len(chunks) > 0 {
		ext = strings.TrimPrefix(filepath.Ext(chunks[0].path), ".")
	}
	out, err := os.CreateTemp(dir, "final-*."+ext)
	if err != nil {
		return "", err
	}
	defer out.Close()

	for _, c := range chunks {
		if err := appendFile(out, c.path); err != nil {
			os.Remove(out.Name())
			return "", err
		}
	}
	return out.Name(), nil
}

func appendFile(dst *os.File, path string) error {
	src, err := os.Open(path)
	if err != nil {
		return err
	}
	defer src.Close()
	_, err = io.Copy(dst, src)
	return err
}

// stripBaselinePrefix removes baseline from the start of text using
// longest-common-prefix matching over whitespace tokens, falling back to
// the full text if the tokens don't share a prefix at all. Byte-exact
// prefix matching is too brittle here: re-transcoding the header alongside
// a new cluster routinely shifts whisper's tokenization at the boundary.
func stripBaselinePrefix(baseline, text string) string {
	if baseline == "" {
		return text
	}

	baseTokens := strings.Fields(baseline)
	textTokens := strings.Fields(text)

	n := 0
	for n < len(baseTokens) && n < len(textTokens) && baseTokens[n] == textTokens[n] {
		n++
	}
	if n == 0 {
		return text
	}
	return strings.TrimSpace(strings.Join(textTokens[n:], " "))
}
