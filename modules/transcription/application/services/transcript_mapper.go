package services

import (
	"transcriptai/server/modules/transcription/domain/entities"
	"transcriptai/server/modules/transcription/domain/repositories"
	"transcriptai/server/seedwork/domain"
)

// TranscriptMapper implements DomainMapper for Transcript entities.
type TranscriptMapper struct {
	domain.BaseDomainMapper
}

// NewTranscriptMapper creates a new transcript mapper.
func NewTranscriptMapper() *TranscriptMapper {
	return &TranscriptMapper{}
}

func (m *TranscriptMapper) ToRepository(t *entities.Transcript) repositories.Transcript {
	repo := repositories.Transcript{
		CallID:     t.CallID,
		Text:       t.Text,
		Language:   t.Language,
		Confidence: t.Confidence,
	}
	repo.SetID(t.GetID())
	repo.CreatedAt = t.GetCreatedAt()
	repo.UpdatedAt = t.GetUpdatedAt()
	return repo
}

func (m *TranscriptMapper) ToDomain(repo repositories.Transcript) *entities.Transcript {
	t := &entities.Transcript{
		CallID:     repo.CallID,
		Text:       repo.Text,
		Language:   repo.Language,
		Confidence: repo.Confidence,
	}
	t.SetID(repo.GetID())
	t.CreatedAt = repo.CreatedAt
	t.UpdatedAt = repo.UpdatedAt
	return t
}

func (m *TranscriptMapper) ToRepositoryList(ts []*entities.Transcript) []repositories.Transcript {
	result := make([]repositories.Transcript, len(ts))
	for i, t := range ts {
		result[i] = m.ToRepository(t)
	}
	return result
}

func (m *TranscriptMapper) ToDomainList(repos []repositories.Transcript) []*entities.Transcript {
	result := make([]*entities.Transcript, len(repos))
	for i := range repos {
		result[i] = m.ToDomain(repos[i])
	}
	return result
}
