package services

import (
	"encoding/json"

	"transcriptai/server/modules/calls/domain/entities"
	"transcriptai/server/modules/calls/domain/repositories"
	"transcriptai/server/seedwork/domain"
)

// AnalysisMapper implements DomainMapper for Analysis entities, JSON-encoding
// the Keywords/Topics ordered sequences into their repository text columns.
type AnalysisMapper struct {
	domain.BaseDomainMapper
}

// NewAnalysisMapper creates a new analysis mapper.
func NewAnalysisMapper() *AnalysisMapper {
	return &AnalysisMapper{}
}

func (m *AnalysisMapper) ToRepository(a *entities.Analysis) repositories.Analysis {
	keywordsJSON, _ := json.Marshal(a.Keywords)
	topicsJSON, _ := json.Marshal(a.Topics)

	repo := repositories.Analysis{
		CallID:           a.CallID,
		Intent:           a.Intent,
		IntentConfidence: a.IntentConfidence,
		Sentiment:        string(a.Sentiment),
		SentimentScore:   a.SentimentScore,
		EscalationRisk:   string(a.EscalationRisk),
		RiskScore:        a.RiskScore,
		UrgencyLevel:     a.UrgencyLevel,
		ComplianceRisk:   a.ComplianceRisk,
		KeywordsJSON:     string(keywordsJSON),
		TopicsJSON:       string(topicsJSON),
	}
	repo.SetID(a.GetID())
	repo.CreatedAt = a.GetCreatedAt()
	repo.UpdatedAt = a.GetUpdatedAt()
	return repo
}

func (m *AnalysisMapper) ToDomain(repo repositories.Analysis) *entities.Analysis {
	var keywords, topics []string
	json.Unmarshal([]byte(repo.KeywordsJSON), &keywords)
	json.Unmarshal([]byte(repo.TopicsJSON), &topics)

	a := &entities.Analysis{
		CallID:           repo.CallID,
		Intent:           repo.Intent,
		IntentConfidence: repo.IntentConfidence,
		Sentiment:        entities.Sentiment(repo.Sentiment),
		SentimentScore:   repo.SentimentScore,
		EscalationRisk:   entities.EscalationRisk(repo.EscalationRisk),
		RiskScore:        repo.RiskScore,
		UrgencyLevel:     repo.UrgencyLevel,
		ComplianceRisk:   repo.ComplianceRisk,
		Keywords:         keywords,
		Topics:           topics,
	}
	a.SetID(repo.GetID())
	a.CreatedAt = repo.CreatedAt
	a.UpdatedAt = repo.UpdatedAt
	return a
}

func (m *AnalysisMapper) ToDomainList(repos []*repositories.Analysis) []*entities.Analysis {
	result := make([]*entities.Analysis, len(repos))
	for i, r := range repos {
		result[i] = m.ToDomain(*r)
	}
	return result
}
