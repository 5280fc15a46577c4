package services

import (
	"context"
	"fmt"

	"transcriptai/server/modules/transcription/domain/entities"
	"transcriptai/server/modules/transcription/domain/repositories"
)

// TranscriptService owns persistence of the single Transcript per call.
type TranscriptService struct {
	repo   repositories.TranscriptRepository
	mapper *TranscriptMapper
}

// NewTranscriptService creates a new transcript service.
func NewTranscriptService(repo repositories.TranscriptRepository) *TranscriptService {
	return &TranscriptService{repo: repo, mapper: NewTranscriptMapper()}
}

// Save replaces the transcript for callID (explicit re-run semantics).
func (s *TranscriptService) Save(ctx context.Context, callID, text, language string, confidence float64) (*entities.Transcript, error) {
	t := entities.NewTranscript(callID, text, language, confidence)
	repo := s.mapper.ToRepository(&t)
	if err := s.repo.Upsert(ctx, &repo); err != nil {
		return nil, fmt.Errorf("failed to persist transcript: %w", err)
	}
	return &t, nil
}

// GetByCallID loads the transcript for a call, if any.
func (s *TranscriptService) GetByCallID(ctx context.Context, callID string) (*entities.Transcript, error) {
	repo, err := s.repo.FindByCallID(ctx, callID)
	if err != nil {
		return nil, err
	}
	return s.mapper.ToDomain(*repo), nil
}

// DeleteByCallID removes the transcript row for callID, if any. Used by the
// results layer's cascading delete.
func (s *TranscriptService) DeleteByCallID(ctx context.Context, callID string) error {
	return s.repo.DeleteByCallID(ctx, callID)
}

// DeleteAll removes every transcript row. Used by clear_all.
func (s *TranscriptService) DeleteAll(ctx context.Context) error {
	return s.repo.DeleteAll(ctx)
}
