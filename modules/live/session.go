// Package live implements the microphone session manager (C5): a stateless
// HTTP surface (start/push/stop) in front of ordered chunk reassembly,
// progressive or batch-only transcription, and SSE event publication.
package live

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"transcriptai/server/seedwork/domain"
)

type sessionStatus string

const (
	sessionOpen   sessionStatus = "open"
	sessionClosed sessionStatus = "closed"
)

// chunkRecord is one pushed chunk, in arrival order.
type chunkRecord struct {
	path string
}

// session is one live microphone capture's mutable state. All pushes for a
// session are serialized through mu, which is what gives the "single writer
// per session" ordering guarantee spec §4.5 requires.
type session struct {
	id  string
	dir string

	mu             sync.Mutex
	status         sessionStatus
	chunks         []chunkRecord
	headerBaseline string // chunk 0's transcribed text, progressive mode only
	pushCount      int
	lastPushAt     time.Time
}

func newSession(baseDir string) (*session, error) {
	id := domain.GenerateID()
	dir := filepath.Join(baseDir, "live", id)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create session directory: %w", err)
	}
	return &session{id: id, dir: dir, status: sessionOpen}, nil
}

// chunkPath returns the path a new chunk at index idx should be written to.
func (s *session) chunkPath(idx int, ext string) string {
	if ext == "" {
		ext = "bin"
	}
	return filepath.Join(s.dir, fmt.Sprintf("chunk-%04d.%s", idx, ext))
}

func (s *session) cleanup() {
	os.RemoveAll(s.dir)
}
