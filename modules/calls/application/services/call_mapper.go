package services

import (
	"transcriptai/server/modules/calls/domain/entities"
	"transcriptai/server/modules/calls/domain/repositories"
	"transcriptai/server/seedwork/domain"
)

// CallMapper implements DomainMapper for Call entities.
type CallMapper struct {
	domain.BaseDomainMapper
}

// NewCallMapper creates a new call mapper.
func NewCallMapper() *CallMapper {
	return &CallMapper{}
}

func (m *CallMapper) ToRepository(call *entities.Call) repositories.Call {
	repo := repositories.Call{
		FilePath:         call.FilePath,
		OriginalFilename: call.OriginalFilename,
		FileSizeBytes:    call.FileSizeBytes,
		DurationSeconds:  call.DurationSeconds,
		Status:           string(call.Status),
	}
	repo.SetID(call.GetID())
	repo.CreatedAt = call.GetCreatedAt()
	repo.UpdatedAt = call.GetUpdatedAt()
	return repo
}

func (m *CallMapper) ToDomain(repo repositories.Call) *entities.Call {
	call := &entities.Call{
		FilePath:         repo.FilePath,
		OriginalFilename: repo.OriginalFilename,
		FileSizeBytes:    repo.FileSizeBytes,
		DurationSeconds:  repo.DurationSeconds,
		Status:           entities.CallStatus(repo.Status),
	}
	call.SetID(repo.GetID())
	call.CreatedAt = repo.CreatedAt
	call.UpdatedAt = repo.UpdatedAt
	return call
}

func (m *CallMapper) ToRepositoryList(calls []*entities.Call) []repositories.Call {
	result := make([]repositories.Call, len(calls))
	for i, c := range calls {
		result[i] = m.ToRepository(c)
	}
	return result
}

func (m *CallMapper) ToDomainList(repos []repositories.Call) []*entities.Call {
	result := make([]*entities.Call, len(repos))
	for i := range repos {
		result[i] = m.ToDomain(repos[i])
	}
	return result
}
