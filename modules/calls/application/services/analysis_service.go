package services

import (
	"context"
	"fmt"

	"transcriptai/server/modules/calls/domain/entities"
	"transcriptai/server/modules/calls/domain/repositories"
)

// AnalysisService owns persistence of the append-only Analysis history for
// a call.
type AnalysisService struct {
	repo   repositories.AnalysisRepository
	mapper *AnalysisMapper
}

// NewAnalysisService creates a new analysis service.
func NewAnalysisService(repo repositories.AnalysisRepository) *AnalysisService {
	return &AnalysisService{repo: repo, mapper: NewAnalysisMapper()}
}

// Save persists a fresh analysis row (re-analysis appends, never replaces).
func (s *AnalysisService) Save(ctx context.Context, a *entities.Analysis) error {
	repo := s.mapper.ToRepository(a)
	if err := s.repo.Save(ctx, &repo); err != nil {
		return fmt.Errorf("failed to persist analysis: %w", err)
	}
	a.SetID(repo.GetID())
	return nil
}

// History returns every analysis row for callID, oldest first.
func (s *AnalysisService) History(ctx context.Context, callID string) ([]*entities.Analysis, error) {
	rows, err := s.repo.FindByCallID(ctx, callID)
	if err != nil {
		return nil, err
	}
	return s.mapper.ToDomainList(rows), nil
}

// Latest returns the most recent analysis row for callID, if any.
func (s *AnalysisService) Latest(ctx context.Context, callID string) (*entities.Analysis, error) {
	row, err := s.repo.FindLatestByCallID(ctx, callID)
	if err != nil {
		return nil, err
	}
	return s.mapper.ToDomain(*row), nil
}

// DeleteByCallID removes every analysis row for callID. Used by the
// results layer's cascading delete.
func (s *AnalysisService) DeleteByCallID(ctx context.Context, callID string) error {
	return s.repo.DeleteByCallID(ctx, callID)
}

// DeleteAll removes every analysis row across all calls. Used by clear_all.
func (s *AnalysisService) DeleteAll(ctx context.Context) error {
	return s.repo.DeleteAll(ctx)
}
