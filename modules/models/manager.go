package models

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"transcriptai/server/seedwork/domain"

	"golang.org/x/sync/semaphore"
)

const (
	defaultGlobalCap    = 2
	perModelLockTimeout = 1 * time.Second
	downloadBudget      = 15 * time.Minute
	heartbeatInterval   = 5 * time.Second
	downloadChunkBytes  = 1 << 20 // 1 MiB
)

// TranscriptionBackend is the seam the Manager uses to hot-swap the active
// model on the transcription server (C1).
type TranscriptionBackend interface {
	LoadModel(ctx context.Context, absolutePath string) (ok bool, errMsg string)
}

// Manager is the Model Registry & Download Manager (C3): enumerates the
// supported models, owns the per-model state machine, and runs background
// downloads under a global concurrency cap plus per-model locks. It holds
// no module-global state — every caller gets an explicit instance.
type Manager struct {
	modelsDir      string
	preferencePath string
	jobs           *JobStateStore
	backend        TranscriptionBackend

	globalSem *semaphore.Weighted
	modelLock map[string]chan struct{} // size-1 channel acting as a timeout-able mutex
	lockGuard sync.Mutex               // guards modelLock map creation

	inFlight   map[string]bool
	inFlightMu sync.Mutex
}

// NewManager creates a Manager rooted at dataDir (models live under
// dataDir/models, job state at dataDir/model_jobs.json, preference at
// dataDir/model_preference.json).
func NewManager(dataDir string, backend TranscriptionBackend) *Manager {
	return &Manager{
		modelsDir:      filepath.Join(dataDir, "models"),
		preferencePath: filepath.Join(dataDir, "model_preference.json"),
		jobs:           NewJobStateStore(filepath.Join(dataDir, "model_jobs.json")),
		backend:        backend,
		globalSem:      semaphore.NewWeighted(defaultGlobalCap),
		modelLock:      make(map[string]chan struct{}),
		inFlight:       make(map[string]bool),
	}
}

// lockFor returns the per-model lock channel, creating it on first use. The
// lock is not reentrant: a holder that acquires it again blocks until the
// timeout.
func (m *Manager) lockFor(name string) chan struct{} {
	m.lockGuard.Lock()
	defer m.lockGuard.Unlock()
	l, ok := m.modelLock[name]
	if !ok {
		l = make(chan struct{}, 1)
		m.modelLock[name] = l
	}
	return l
}

// acquireLock attempts to take lock within perModelLockTimeout.
func acquireLock(lock chan struct{}) bool {
	select {
	case lock <- struct{}{}:
		return true
	case <-time.After(perModelLockTimeout):
		return false
	}
}

func releaseLock(lock chan struct{}) {
	<-lock
}

// ListEntry is one row of list()'s output.
type ListEntry struct {
	Name         string    `json:"name"`
	SizeMB       int       `json:"size_mb"`
	IsDownloaded bool      `json:"is_downloaded"`
	IsActive     bool      `json:"is_active"`
	Status       Status    `json:"status"`
	Progress     *float64  `json:"progress"`
	Message      string    `json:"message"`
	Version      string    `json:"version"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// List returns the overlay of on-disk presence and persisted job state for
// every supported model, normalizing (and persisting the normalization of)
// any stale `downloading` entry to `error`.
func (m *Manager) List(ctx context.Context) ([]ListEntry, error) {
	records, err := m.jobs.Load()
	if err != nil {
		return nil, fmt.Errorf("load model job state: %w", err)
	}

	active, _ := m.readPreference()

	entries := make([]ListEntry, 0, len(SupportedModels))
	for _, spec := range SupportedModels {
		rec, hasRecord := records[spec.Name]
		onDisk := m.fileExists(spec)

		status := rec.Status
		switch {
		case onDisk && (status == "" || status == StatusIdle):
			status = StatusDownloaded
		case status == "":
			status = StatusIdle
		}
		if status == StatusDownloaded && !onDisk {
			// invariant 3: downloaded implies the file exists; if it
			// doesn't, the record is stale relative to disk.
			status = StatusError
			rec.Message = "Model file missing on disk; please retry download."
		}

		// Persist any state we just derived here (on-disk->downloaded,
		// missing-on-disk->error) so future reads see the corrected state;
		// the load step has already persisted any stale->error
		// normalization itself.
		if status != rec.Status {
			rec.Status = status
			rec.UpdatedAt = time.Now()
			_ = m.jobs.Update(spec.Name, func(r *JobRecord) { *r = rec })
		}

		entries = append(entries, ListEntry{
			Name:         spec.Name,
			SizeMB:       spec.SizeMB,
			IsDownloaded: status == StatusDownloaded,
			IsActive:     active == spec.Name,
			Status:       status,
			Progress:     rec.Progress,
			Message:      rec.Message,
			Version:      rec.Version,
			UpdatedAt:    rec.UpdatedAt,
		})
		_ = hasRecord
	}
	return entries, nil
}

func (m *Manager) fileExists(spec ModelSpec) bool {
	_, err := os.Stat(filepath.Join(m.modelsDir, spec.Filename))
	return err == nil
}

// Download validates name, then either returns immediately (already
// downloaded and not in error/needs_update) or acquires the global
// semaphore (zero-wait) and a per-model lock (1s timeout) and schedules the
// background worker. Refuses with a Conflict error under contention.
func (m *Manager) Download(ctx context.Context, name string) (Status, error) {
	spec, ok := Lookup(name)
	if !ok {
		return "", domain.NewDomainError(domain.ErrValidation, fmt.Sprintf("unknown model %q", name), nil)
	}

	rec, err := m.jobs.Get(name)
	if err != nil {
		return "", domain.NewDomainError(domain.ErrFatal, "read model job state", err)
	}
	if rec.Status == StatusDownloaded && m.fileExists(spec) {
		return StatusDownloaded, nil
	}

	m.inFlightMu.Lock()
	if m.inFlight[name] {
		m.inFlightMu.Unlock()
		return "", domain.NewDomainError(domain.ErrConflict, "a download for this model is already in flight", nil)
	}
	if !m.globalSem.TryAcquire(1) {
		m.inFlightMu.Unlock()
		return "", domain.NewDomainError(domain.ErrConflict, "global download concurrency limit reached", nil)
	}
	m.inFlight[name] = true
	m.inFlightMu.Unlock()

	lock := m.lockFor(name)
	if !acquireLock(lock) {
		m.globalSem.Release(1)
		m.inFlightMu.Lock()
		delete(m.inFlight, name)
		m.inFlightMu.Unlock()
		return "", domain.NewDomainError(domain.ErrConflict, "model state is locked by another operation", nil)
	}

	progress := 0.0
	_ = m.jobs.Update(name, func(r *JobRecord) {
		r.Status = StatusDownloading
		r.Progress = &progress
		r.Message = ""
		r.Version = spec.Version
	})
	releaseLock(lock)

	go m.runDownload(spec)

	return StatusDownloading, nil
}

// runDownload is the background worker. It always releases the global
// semaphore exactly once and clears the in-flight flag, regardless of path.
func (m *Manager) runDownload(spec ModelSpec) {
	defer func() {
		m.globalSem.Release(1)
		m.inFlightMu.Lock()
		delete(m.inFlight, spec.Name)
		m.inFlightMu.Unlock()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), downloadBudget)
	defer cancel()

	heartbeatDone := make(chan struct{})
	go m.heartbeat(spec.Name, heartbeatDone)
	defer close(heartbeatDone)

	if err := m.download(ctx, spec); err != nil {
		log.Printf("model download %s failed: %v", spec.Name, err)
		msg := "Download failed; please retry."
		if ctx.Err() == context.DeadlineExceeded {
			msg = "Download timed out; please retry."
		}
		lock := m.lockFor(spec.Name)
		acquireLock(lock)
		_ = m.jobs.Update(spec.Name, func(r *JobRecord) {
			r.Status = StatusError
			r.Progress = nil
			r.Message = msg
		})
		releaseLock(lock)
		return
	}

	lock := m.lockFor(spec.Name)
	acquireLock(lock)
	done := 1.0
	_ = m.jobs.Update(spec.Name, func(r *JobRecord) {
		r.Status = StatusDownloaded
		r.Progress = &done
		r.Message = ""
		r.Version = spec.Version
	})
	releaseLock(lock)
}

// heartbeat updates updated_at every 5s so stale detection works even when
// progress is unknown.
func (m *Manager) heartbeat(name string, done <-chan struct{}) {
	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			_ = m.jobs.Update(name, func(r *JobRecord) {
				// touch only; Update already bumps UpdatedAt.
			})
		}
	}
}

// download streams spec.URL to a temporary sibling file and atomically
// renames it into place on completion.
func (m *Manager) download(ctx context.Context, spec ModelSpec) error {
	if err := os.MkdirAll(m.modelsDir, 0o755); err != nil {
		return fmt.Errorf("create models dir: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, spec.URL, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("download request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return fmt.Errorf("download server returned %d", resp.StatusCode)
	}

	finalPath := filepath.Join(m.modelsDir, spec.Filename)
	tmpPath := finalPath + ".tmp"

	out, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}

	buf := make([]byte, downloadChunkBytes)
	var written int64
	for {
		n, readErr := resp.Body.Read(buf)
		if n > 0 {
			if _, werr := out.Write(buf[:n]); werr != nil {
				out.Close()
				os.Remove(tmpPath)
				return fmt.Errorf("write chunk: %w", werr)
			}
			written += int64(n)
			frac := 0.0
			if spec.SizeMB > 0 {
				frac = float64(written) / float64(spec.SizeMB<<20)
				if frac > 0.99 {
					frac = 0.99
				}
			}
			_ = m.jobs.Update(spec.Name, func(r *JobRecord) { r.Progress = &frac })
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			out.Close()
			os.Remove(tmpPath)
			return fmt.Errorf("read response body: %w", readErr)
		}
	}
	if err := out.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, finalPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("atomic rename: %w", err)
	}
	return nil
}

// Select requires name is downloaded, persists the preference atomically,
// then hot-swaps the transcription server. A failed hot-swap does not
// unwind the persisted preference.
func (m *Manager) Select(ctx context.Context, name string) error {
	spec, ok := Lookup(name)
	if !ok {
		return domain.NewDomainError(domain.ErrValidation, fmt.Sprintf("unknown model %q", name), nil)
	}
	rec, err := m.jobs.Get(name)
	if err != nil {
		return domain.NewDomainError(domain.ErrFatal, "read model job state", err)
	}
	if rec.Status != StatusDownloaded || !m.fileExists(spec) {
		return domain.NewDomainError(domain.ErrValidation, fmt.Sprintf("model %q is not downloaded", name), nil)
	}

	if err := m.writePreference(name); err != nil {
		return domain.NewDomainError(domain.ErrFatal, "persist model preference", err)
	}

	absPath, err := filepath.Abs(filepath.Join(m.modelsDir, spec.Filename))
	if err != nil {
		return domain.NewDomainError(domain.ErrFatal, "resolve model path", err)
	}
	if ok, errMsg := m.backend.LoadModel(ctx, absPath); !ok {
		return domain.NewDomainError(domain.ErrUnavailable, fmt.Sprintf("hot swap failed: %s", errMsg), nil)
	}
	return nil
}

func (m *Manager) readPreference() (string, error) {
	raw, err := os.ReadFile(m.preferencePath)
	if err != nil {
		return "", err
	}
	var pref struct {
		Active string `json:"active"`
	}
	if err := json.Unmarshal(raw, &pref); err != nil {
		return "", err
	}
	return pref.Active, nil
}

func (m *Manager) writePreference(name string) error {
	payload, err := json.Marshal(struct {
		Active string `json:"active"`
	}{Active: name})
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(m.preferencePath), 0o755); err != nil {
		return err
	}
	tmp := m.preferencePath + ".tmp"
	if err := os.WriteFile(tmp, payload, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, m.preferencePath)
}
