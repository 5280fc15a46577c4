package repositories

import (
	"context"
	"time"

	"transcriptai/server/seedwork/domain"
)

// Call is the persistence-facing shape of a Call.
type Call struct {
	domain.BaseRepositoryModel
	FilePath         string   `json:"file_path"`
	OriginalFilename string   `json:"original_filename"`
	FileSizeBytes    int64    `json:"file_size_bytes"`
	DurationSeconds  *float64 `json:"duration_seconds,omitempty"`
	Status           string   `json:"status"`
}

// TableName returns the database table name for calls.
func (Call) TableName() string {
	return "calls"
}

// CallRepository persists Call aggregates.
type CallRepository interface {
	Save(ctx context.Context, call *Call) error
	FindByID(ctx context.Context, id string) (*Call, error)
	Update(ctx context.Context, call *Call) error
	Delete(ctx context.Context, id string) error

	FindByStatus(ctx context.Context, status string) ([]*Call, error)
	FindByTimeRange(ctx context.Context, startTime, endTime time.Time) ([]*Call, error)

	// List implements the filter/sort/pagination contract of the Results
	// Query Layer (C8): status and date-range filters, sort restricted to
	// created_at, stable (created_at, id) tiebreak ordering.
	List(ctx context.Context, filter ListFilter) ([]*Call, int64, error)

	// DeleteAll removes every call row; used by clear_all alongside the
	// results layer's filesystem cleanup.
	DeleteAll(ctx context.Context) error
}

// ListFilter is the query shape backing Results Query Layer listings.
type ListFilter struct {
	Status    string
	DateFrom  *time.Time
	DateTo    *time.Time
	Direction string // "asc" | "desc", default "desc"
	Limit     int
	Offset    int
}

// Call status constants mirrored from the domain entity's CallStatus.
const (
	StatusUploaded     = "uploaded"
	StatusProcessing   = "processing"
	StatusTranscribing = "transcribing"
	StatusTranscribed  = "transcribed"
	StatusCompleted    = "completed"
	StatusFailed       = "failed"
)
