package dtos

import "transcriptai/server/modules/models"

// ListEntryResponse is one row of GET /models.
type ListEntryResponse struct {
	Name         string         `json:"name"`
	SizeMB       int            `json:"size_mb"`
	IsDownloaded bool           `json:"is_downloaded"`
	IsActive     bool           `json:"is_active"`
	Status       models.Status  `json:"status"`
	Progress     *float64       `json:"progress"`
	Message      string         `json:"message,omitempty"`
	Version      string         `json:"version"`
}

// ToListEntryResponses converts a slice of models.ListEntry.
func ToListEntryResponses(entries []models.ListEntry) []ListEntryResponse {
	out := make([]ListEntryResponse, len(entries))
	for i, e := range entries {
		out[i] = ListEntryResponse{
			Name:         e.Name,
			SizeMB:       e.SizeMB,
			IsDownloaded: e.IsDownloaded,
			IsActive:     e.IsActive,
			Status:       e.Status,
			Progress:     e.Progress,
			Message:      e.Message,
			Version:      e.Version,
		}
	}
	return out
}

// ModelNameRequest is the body of POST /models/download and
// POST /models/select.
type ModelNameRequest struct {
	Name string `json:"name" binding:"required"`
}

// DownloadResponse answers POST /models/download.
type DownloadResponse struct {
	Status models.Status `json:"status"`
}
