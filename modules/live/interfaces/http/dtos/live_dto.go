package dtos

import "transcriptai/server/modules/live"

// StartResponse answers POST /live/start.
type StartResponse struct {
	SessionID string `json:"session_id"`
}

// ChunkResponse answers POST /live/chunk.
type ChunkResponse struct {
	ChunkIndex int `json:"chunk_index"`
}

// StopResponse answers POST /live/stop.
type StopResponse struct {
	CallID          string  `json:"call_id"`
	FinalText       string  `json:"final_text"`
	DurationSeconds float64 `json:"duration_seconds"`
}

// ToStopResponse converts a live.StopResult to its DTO.
func ToStopResponse(r live.StopResult) StopResponse {
	return StopResponse{
		CallID:          r.CallID,
		FinalText:       r.FinalText,
		DurationSeconds: r.DurationSeconds,
	}
}
