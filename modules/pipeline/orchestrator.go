package pipeline

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"golang.org/x/sync/errgroup"

	"transcriptai/server/modules/analysis"
	callservices "transcriptai/server/modules/calls/application/services"
	callentities "transcriptai/server/modules/calls/domain/entities"
	"transcriptai/server/modules/events"
	"transcriptai/server/modules/media"
	transcriptionservices "transcriptai/server/modules/transcription/application/services"
	"transcriptai/server/modules/transcription/infrastructure/providers"
	"transcriptai/server/seedwork/domain"
)

const (
	uploadBlockSize   = 8 << 20 // 8 MiB
	maxUploadBytes    = 1 << 30 // 1 GiB; spec names no exact ceiling, this guards disk exhaustion
	singleShotRetries = 2
	audioRetries      = 3
	storageRetries    = 3
)

var allowedExtensions = map[string]bool{
	".wav": true, ".mp3": true, ".m4a": true, ".flac": true, ".ogg": true, ".webm": true,
}

// Config controls stage behavior that mirrors live.Config: whether
// progressive (chunked) transcription is used for uploads, and at what
// chunk/stride/language settings.
type Config struct {
	ProgressiveEnabled bool
	BatchOnly          bool
	ChunkSec           float64
	StrideSec          float64
	ForceLanguage      string
}

// Orchestrator drives a stored audio file through the five-stage pipeline
// (C6): upload, audio_processing, transcription, nlp_analysis,
// database_storage. Stages run strictly sequentially for a given call_id;
// only database_storage fans out internally (three independent persists).
type Orchestrator struct {
	cfg         Config
	uploadRoot  string
	client      *providers.Client
	processor   *media.Processor
	chunkDriver *transcriptionservices.ChunkDriver
	bus         *events.Bus
	calls       *callservices.CallService
	transcripts *transcriptionservices.TranscriptService
	analyzer    *analysis.Service
	monitor     *Monitor
}

// NewOrchestrator wires the orchestrator's collaborators.
func NewOrchestrator(
	cfg Config,
	uploadRoot string,
	client *providers.Client,
	processor *media.Processor,
	chunkDriver *transcriptionservices.ChunkDriver,
	bus *events.Bus,
	calls *callservices.CallService,
	transcripts *transcriptionservices.TranscriptService,
	analyzer *analysis.Service,
	monitor *Monitor,
) *Orchestrator {
	return &Orchestrator{
		cfg:         cfg,
		uploadRoot:  uploadRoot,
		client:      client,
		processor:   processor,
		chunkDriver: chunkDriver,
		bus:         bus,
		calls:       calls,
		transcripts: transcripts,
		analyzer:    analyzer,
		monitor:     monitor,
	}
}

// stage wraps fn with a timer, monitor recording, and the retry helper.
// maxAttempts of 0 runs fn exactly once with no retry.
func (o *Orchestrator) stage(ctx context.Context, callID, name string, maxAttempts int, fn func(ctx context.Context) error) error {
	start := time.Now()
	err := withRetry(ctx, maxAttempts, fn)
	o.monitor.RecordStage(ctx, callID, name, start, err)
	return err
}

// withRetry invokes fn; on failure it waits 2^attempt seconds and retries,
// up to maxAttempts additional tries, re-raising the final error.
func withRetry(ctx context.Context, maxAttempts int, fn func(ctx context.Context) error) error {
	var lastErr error
	for attempt := 0; attempt <= maxAttempts; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(1<<uint(attempt-1)) * time.Second
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		if err := fn(ctx); err != nil {
			lastErr = err
			continue
		}
		return nil
	}
	return lastErr
}

// Upload runs only the upload stage: validate, stream to disk, create the
// Call row in status=uploaded. Used by POST /upload, which stores audio
// without driving the rest of the pipeline.
func (o *Orchestrator) Upload(ctx context.Context, src io.Reader, declaredSize int64, originalFilename string) (*callentities.Call, error) {
	callID, _, err := o.doUpload(ctx, src, declaredSize, originalFilename)
	if err != nil {
		return nil, err
	}
	return o.calls.GetByID(ctx, callID)
}

// RunUpload validates and streams a multipart upload to disk, creates the
// Call row, then runs the rest of the pipeline against it. Returns the
// final Call (status completed or failed). Used by POST /pipeline/upload.
func (o *Orchestrator) RunUpload(ctx context.Context, src io.Reader, declaredSize int64, originalFilename string) (*callentities.Call, error) {
	callID, filePath, err := o.doUpload(ctx, src, declaredSize, originalFilename)
	if err != nil {
		return nil, err
	}
	return o.runPipeline(ctx, callID, filePath)
}

// doUpload is the upload stage shared by Upload and RunUpload: validate
// filename/size, stream to disk in uploadBlockSize blocks, create the Call
// row. Returns the generated call_id and the stored file's path.
func (o *Orchestrator) doUpload(ctx context.Context, src io.Reader, declaredSize int64, originalFilename string) (string, string, error) {
	if strings.ContainsAny(originalFilename, "/\\") || strings.Contains(originalFilename, "..") {
		return "", "", domain.NewDomainError(domain.ErrValidation, "filename contains path traversal characters", nil)
	}
	ext := strings.ToLower(filepath.Ext(originalFilename))
	if !allowedExtensions[ext] {
		return "", "", domain.NewDomainError(domain.ErrValidation, fmt.Sprintf("unsupported file extension %q", ext), nil)
	}
	if declaredSize > maxUploadBytes {
		return "", "", domain.NewDomainError(domain.ErrValidation, "upload exceeds the maximum accepted size", nil)
	}

	callID := domain.GenerateID()
	o.monitor.Start(ctx, callID)

	var filePath string
	err := o.stage(ctx, callID, "upload", 0, func(ctx context.Context) error {
		path, size, err := o.streamUpload(callID, ext, src)
		if err != nil {
			return err
		}
		filePath = path
		_, err = o.calls.CreateCallWithID(ctx, callID, filePath, originalFilename, size)
		return err
	})
	if err != nil {
		return "", "", fmt.Errorf("upload stage: %w", err)
	}
	return callID, filePath, nil
}

// streamUpload copies src to uploads/YYYY/MM/DD/<call_id>.<ext> in
// uploadBlockSize chunks.
func (o *Orchestrator) streamUpload(callID, ext string, src io.Reader) (string, int64, error) {
	now := time.Now()
	dir := filepath.Join(o.uploadRoot, now.Format("2006"), now.Format("01"), now.Format("02"))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", 0, fmt.Errorf("create upload directory: %w", err)
	}
	path := filepath.Join(dir, callID+ext)

	out, err := os.Create(path)
	if err != nil {
		return "", 0, fmt.Errorf("create upload file: %w", err)
	}
	defer out.Close()

	buf := make([]byte, uploadBlockSize)
	var total int64
	for {
		n, readErr := src.Read(buf)
		if n > 0 {
			if _, writeErr := out.Write(buf[:n]); writeErr != nil {
				return "", 0, fmt.Errorf("write upload block: %w", writeErr)
			}
			total += int64(n)
			if total > maxUploadBytes {
				return "", 0, domain.NewDomainError(domain.ErrValidation, "upload exceeds the maximum accepted size", nil)
			}
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return "", 0, fmt.Errorf("read upload stream: %w", readErr)
		}
	}

	if kind, err := mimetype.DetectFile(path); err == nil && !strings.HasPrefix(kind.String(), "audio/") && !strings.HasPrefix(kind.String(), "video/") {
		os.Remove(path)
		return "", 0, domain.NewDomainError(domain.ErrValidation, fmt.Sprintf("uploaded file does not look like audio (detected %s)", kind.String()), nil)
	}

	return path, total, nil
}

// runPipeline drives an already-uploaded Call through audio_processing,
// transcription, nlp_analysis and database_storage.
func (o *Orchestrator) runPipeline(ctx context.Context, callID, filePath string) (*callentities.Call, error) {
	fail := func(stageErr error) (*callentities.Call, error) {
		_ = o.calls.UpdateStatus(ctx, callID, func(c *callentities.Call) { c.Fail() })
		o.monitor.Finish(ctx, callID, true)
		call, _ := o.calls.GetByID(ctx, callID)
		return call, stageErr
	}

	var durationSeconds float64
	err := o.stage(ctx, callID, "audio_processing", audioRetries, func(ctx context.Context) error {
		if err := o.calls.UpdateStatus(ctx, callID, func(c *callentities.Call) { c.StartProcessing() }); err != nil {
			return err
		}
		if seconds, ok := o.processor.Duration(ctx, filePath); ok {
			durationSeconds = seconds
		}
		return nil
	})
	if err != nil {
		return fail(fmt.Errorf("audio_processing stage: %w", err))
	}

	var transcriptText, language string
	var confidence float64
	progressive := o.cfg.ProgressiveEnabled && !o.cfg.BatchOnly
	transcribeAttempts := singleShotRetries
	if progressive {
		transcribeAttempts = 0
	}
	err = o.stage(ctx, callID, "transcription", transcribeAttempts, func(ctx context.Context) error {
		if err := o.calls.UpdateStatus(ctx, callID, func(c *callentities.Call) { c.StartTranscribing() }); err != nil {
			return err
		}
		if progressive {
			result := o.chunkDriver.TranscribeInChunks(ctx, filePath, o.cfg.ChunkSec, o.cfg.StrideSec, o.cfg.ForceLanguage, func(p transcriptionservices.PartialEvent) {
				o.bus.Publish(callID, events.Event{Type: "partial", Data: p})
			})
			o.bus.Complete(callID)
			transcriptText, language, confidence = result.Text, result.Language, result.Confidence
			return nil
		}

		wavPath, err := o.processor.TranscodeToWAV(ctx, filePath)
		if err != nil {
			return fmt.Errorf("transcode to wav: %w", err)
		}
		defer os.Remove(wavPath)

		result := o.client.Transcribe(ctx, wavPath, providers.TranscribeOptions{Language: o.cfg.ForceLanguage})
		if !result.Ok {
			return domain.NewDomainError(domain.ErrUnavailable, result.Error, nil)
		}
		transcriptText, language, confidence = result.Text, result.Language, result.Confidence
		return nil
	})
	if err != nil {
		return fail(fmt.Errorf("transcription stage: %w", err))
	}
	_ = o.calls.UpdateStatus(ctx, callID, func(c *callentities.Call) { c.MarkTranscribed() })

	var analysisResult analysis.Result
	haveAnalysis := false
	_ = o.stage(ctx, callID, "nlp_analysis", 0, func(ctx context.Context) error {
		if strings.TrimSpace(transcriptText) == "" {
			log.Printf("pipeline: call %s has an empty transcript; skipping nlp_analysis", callID)
			return nil // empty transcript: skip with a warning, never fails the pipeline
		}
		analysisResult = o.analyzer.Run(transcriptText)
		haveAnalysis = true
		return nil
	})

	err = o.stage(ctx, callID, "database_storage", 0, func(ctx context.Context) error {
		eg, egCtx := errgroup.WithContext(ctx)

		eg.Go(func() error {
			return withRetry(egCtx, storageRetries, func(ctx context.Context) error {
				_, err := o.transcripts.Save(ctx, callID, transcriptText, language, confidence)
				return err
			})
		})

		eg.Go(func() error {
			return withRetry(egCtx, storageRetries, func(ctx context.Context) error {
				return o.calls.SetDuration(ctx, callID, durationSeconds)
			})
		})

		if haveAnalysis {
			eg.Go(func() error {
				return withRetry(egCtx, storageRetries, func(ctx context.Context) error {
					return o.analyzer.Persist(ctx, callID, analysisResult)
				})
			})
		}

		if err := eg.Wait(); err != nil {
			return err
		}
		return o.calls.UpdateStatus(ctx, callID, func(c *callentities.Call) { c.Complete() })
	})
	if err != nil {
		return fail(fmt.Errorf("database_storage stage: %w", err))
	}

	o.monitor.Finish(ctx, callID, false)
	call, err := o.calls.GetByID(ctx, callID)
	if err != nil {
		return nil, err
	}
	return call, nil
}

// Reanalyze re-runs only the nlp_analysis stage for an existing call,
// appending a new Analysis row. Used by POST /pipeline/reanalyze/{id}.
func (o *Orchestrator) Reanalyze(ctx context.Context, callID string) error {
	transcript, err := o.transcripts.GetByCallID(ctx, callID)
	if err != nil {
		return domain.NewDomainError(domain.ErrNotFound, "no transcript for call", err)
	}
	start := time.Now()
	analyzeErr := o.analyzer.Analyze(ctx, callID, transcript.Text)
	o.monitor.RecordStage(ctx, callID, "nlp_analysis", start, analyzeErr)
	return analyzeErr
}
