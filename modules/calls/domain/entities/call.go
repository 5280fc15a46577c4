package entities

import (
	"transcriptai/server/seedwork/domain"
)

type CallStatus string

const (
	CallUploaded     CallStatus = "uploaded"
	CallProcessing   CallStatus = "processing"
	CallTranscribing CallStatus = "transcribing"
	CallTranscribed  CallStatus = "transcribed"
	CallCompleted    CallStatus = "completed"
	CallFailed       CallStatus = "failed"
)

// Call is one ingested audio item tracked through the pipeline.
type Call struct {
	domain.BaseEntity
	FilePath         string     `json:"file_path" gorm:"column:file_path;not null"`
	OriginalFilename string     `json:"original_filename" gorm:"column:original_filename;not null"`
	FileSizeBytes    int64      `json:"file_size_bytes" gorm:"column:file_size_bytes"`
	DurationSeconds  *float64   `json:"duration_seconds,omitempty" gorm:"column:duration_seconds"`
	Status           CallStatus `json:"status" gorm:"column:status;not null"`
}

// NewCall creates a Call entity in the uploaded state.
func NewCall(filePath, originalFilename string, fileSizeBytes int64) Call {
	return NewCallWithID(domain.GenerateID(), filePath, originalFilename, fileSizeBytes)
}

// NewCallWithID creates a Call entity with a caller-supplied ID. The
// pipeline orchestrator and the live session manager both need the call's
// ID before the row is persisted (to name the on-disk upload path, or to
// make call_id equal the live session_id per the streaming contract), so
// they generate the ID up front and pass it through here rather than
// relying on NewCall's internal domain.GenerateID().
func NewCallWithID(id, filePath, originalFilename string, fileSizeBytes int64) Call {
	call := Call{
		FilePath:         filePath,
		OriginalFilename: originalFilename,
		FileSizeBytes:    fileSizeBytes,
		Status:           CallUploaded,
	}
	call.SetID(id)
	return call
}

// StartProcessing transitions the call into audio_processing.
func (c *Call) StartProcessing() {
	c.Status = CallProcessing
}

// StartTranscribing transitions the call into transcription.
func (c *Call) StartTranscribing() {
	c.Status = CallTranscribing
}

// MarkTranscribed records that a transcript now exists for this call.
func (c *Call) MarkTranscribed() {
	c.Status = CallTranscribed
}

// Complete transitions the call to completed once storage has finished.
func (c *Call) Complete() {
	c.Status = CallCompleted
}

// Fail transitions the call to failed. Callers are expected to also record
// the failing stage and error in the pipeline status tracker (C6/C7); the
// entity itself only carries the terminal status.
func (c *Call) Fail() {
	c.Status = CallFailed
}

// IsTerminal returns true once the call can no longer be mutated by the
// orchestrator.
func (c *Call) IsTerminal() bool {
	return c.Status == CallCompleted || c.Status == CallFailed
}

// SetDuration records the duration measured by the audio-processing stage.
func (c *Call) SetDuration(seconds float64) {
	c.DurationSeconds = &seconds
}

// TableName sets the table name for GORM.
func (Call) TableName() string {
	return "calls"
}
