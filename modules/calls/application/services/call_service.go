package services

import (
	"context"
	"fmt"

	"transcriptai/server/modules/calls/domain/entities"
	"transcriptai/server/modules/calls/domain/repositories"
	"transcriptai/server/seedwork/domain"
)

// CallService owns the Call aggregate's lifecycle: creation on upload,
// status transitions driven by the pipeline orchestrator, and lookups used
// by the results query layer.
type CallService struct {
	callRepo   repositories.CallRepository
	callMapper *CallMapper
}

// NewCallService creates a new call service.
func NewCallService(callRepo repositories.CallRepository) *CallService {
	return &CallService{
		callRepo:   callRepo,
		callMapper: NewCallMapper(),
	}
}

// CreateCall persists a new Call in the uploaded state.
func (s *CallService) CreateCall(ctx context.Context, filePath, originalFilename string, fileSizeBytes int64) (*entities.Call, error) {
	call := entities.NewCall(filePath, originalFilename, fileSizeBytes)
	return s.persistNewCall(ctx, call)
}

// CreateCallWithID persists a new Call using a caller-supplied ID, so the
// row's id matches an ID the caller already handed out elsewhere (the
// orchestrator's upload path, the live session's id).
func (s *CallService) CreateCallWithID(ctx context.Context, id, filePath, originalFilename string, fileSizeBytes int64) (*entities.Call, error) {
	call := entities.NewCallWithID(id, filePath, originalFilename, fileSizeBytes)
	return s.persistNewCall(ctx, call)
}

func (s *CallService) persistNewCall(ctx context.Context, call entities.Call) (*entities.Call, error) {
	repoCall := s.callMapper.ToRepository(&call)
	if err := s.callRepo.Save(ctx, &repoCall); err != nil {
		return nil, fmt.Errorf("failed to persist call: %w", err)
	}
	return &call, nil
}

// GetByID loads a call aggregate by ID.
func (s *CallService) GetByID(ctx context.Context, callID string) (*entities.Call, error) {
	repoCall, err := s.callRepo.FindByID(ctx, callID)
	if err != nil {
		return nil, domain.NewDomainError(domain.ErrNotFound, "call not found", err)
	}
	return s.callMapper.ToDomain(*repoCall), nil
}

// UpdateStatus applies a status transition function to the aggregate and
// persists the result. fn is one of the domain methods on *entities.Call
// (StartProcessing, StartTranscribing, MarkTranscribed, Complete, Fail).
func (s *CallService) UpdateStatus(ctx context.Context, callID string, fn func(*entities.Call)) error {
	call, err := s.GetByID(ctx, callID)
	if err != nil {
		return err
	}
	fn(call)
	repoCall := s.callMapper.ToRepository(call)
	return s.callRepo.Update(ctx, &repoCall)
}

// SetDuration records the duration measured by the audio-processing stage.
func (s *CallService) SetDuration(ctx context.Context, callID string, seconds float64) error {
	return s.UpdateStatus(ctx, callID, func(c *entities.Call) {
		c.SetDuration(seconds)
	})
}

// Delete removes a call row. Callers (the results layer) are responsible
// for removing dependent files/rows first.
func (s *CallService) Delete(ctx context.Context, callID string) error {
	return s.callRepo.Delete(ctx, callID)
}
