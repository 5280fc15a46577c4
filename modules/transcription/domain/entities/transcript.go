package entities

import (
	"transcriptai/server/seedwork/domain"
)

// Transcript is the persisted transcription result for a Call. At most one
// exists per call; a re-run replaces it rather than appending (Analysis,
// in contrast, appends on re-analyze).
type Transcript struct {
	domain.BaseEntity
	CallID     string  `json:"call_id" gorm:"column:call_id;not null;uniqueIndex"`
	Text       string  `json:"text" gorm:"column:text;type:text"`
	Language   string  `json:"language" gorm:"column:language"`
	Confidence float64 `json:"confidence" gorm:"column:confidence"` // 0-100
}

// NewTranscript creates a Transcript for callID.
func NewTranscript(callID, text, language string, confidence float64) Transcript {
	t := Transcript{
		CallID:     callID,
		Text:       text,
		Language:   language,
		Confidence: confidence,
	}
	t.SetID(domain.GenerateID())
	return t
}

// IsEmpty reports whether the transcript carries no usable text, which
// governs whether the nlp_analysis stage runs or is skipped with a warning.
func (t *Transcript) IsEmpty() bool {
	return t.Text == ""
}

// TableName sets the table name for GORM.
func (Transcript) TableName() string {
	return "transcripts"
}

// Segment is a window-level partial transcription result. It is never
// persisted on its own; C2 uses it to assemble the final Transcript and to
// publish partial SSE events.
type Segment struct {
	Text       string  `json:"text"`
	StartSec   float64 `json:"start_sec"`
	EndSec     float64 `json:"end_sec"`
	Confidence float64 `json:"confidence"`
}
