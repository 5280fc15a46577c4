package repositories

import (
	"context"

	"transcriptai/server/seedwork/domain"
)

// Transcript is the persistence-facing shape of a Transcript.
type Transcript struct {
	domain.BaseRepositoryModel
	CallID     string  `json:"call_id"`
	Text       string  `json:"text"`
	Language   string  `json:"language"`
	Confidence float64 `json:"confidence"`
}

// TableName returns the database table name for transcripts.
func (Transcript) TableName() string {
	return "transcripts"
}

// TranscriptRepository persists Transcript rows, one per call.
type TranscriptRepository interface {
	Save(ctx context.Context, t *Transcript) error
	FindByCallID(ctx context.Context, callID string) (*Transcript, error)
	// Upsert replaces the transcript for callID, satisfying "immutable
	// thereafter except via explicit re-run" (§3).
	Upsert(ctx context.Context, t *Transcript) error
	DeleteByCallID(ctx context.Context, callID string) error
	DeleteAll(ctx context.Context) error
}
