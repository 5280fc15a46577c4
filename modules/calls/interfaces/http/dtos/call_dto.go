package dtos

import (
	"time"

	"transcriptai/server/modules/calls/domain/entities"
)

// CallStatusResponse answers GET /calls/{call_id}/status.
type CallStatusResponse struct {
	ID               string             `json:"id"`
	Status           entities.CallStatus `json:"status"`
	OriginalFilename string             `json:"original_filename"`
	FileSizeBytes    int64              `json:"file_size_bytes"`
	DurationSeconds  *float64           `json:"duration_seconds,omitempty"`
	CreatedAt        time.Time          `json:"created_at"`
	UpdatedAt        time.Time          `json:"updated_at"`
}

// ToCallStatusResponse converts a Call entity to its status DTO.
func ToCallStatusResponse(call *entities.Call) CallStatusResponse {
	return CallStatusResponse{
		ID:               call.GetID(),
		Status:           call.Status,
		OriginalFilename: call.OriginalFilename,
		FileSizeBytes:    call.FileSizeBytes,
		DurationSeconds:  call.DurationSeconds,
		CreatedAt:        call.GetCreatedAt(),
		UpdatedAt:        call.GetUpdatedAt(),
	}
}
