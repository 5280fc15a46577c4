package repositories

import (
	"context"

	"transcriptai/server/seedwork/domain"
)

// Analysis is the persistence-facing shape of an Analysis row. Keywords and
// Topics are stored as JSON-encoded text columns since the ordered-sequence
// shape spec §3 names doesn't map to a native SQLite array type.
type Analysis struct {
	domain.BaseRepositoryModel
	CallID           string `json:"call_id"`
	Intent           string `json:"intent"`
	IntentConfidence float64 `json:"intent_confidence"`
	Sentiment        string `json:"sentiment"`
	SentimentScore   int    `json:"sentiment_score"`
	EscalationRisk   string `json:"escalation_risk"`
	RiskScore        int    `json:"risk_score"`
	UrgencyLevel     string `json:"urgency_level"`
	ComplianceRisk   string `json:"compliance_risk"`
	KeywordsJSON     string `json:"-" gorm:"column:keywords_json;type:text"`
	TopicsJSON       string `json:"-" gorm:"column:topics_json;type:text"`
}

// TableName returns the database table name for analyses.
func (Analysis) TableName() string {
	return "analyses"
}

// AnalysisRepository persists Analysis rows. Re-analysis appends rather
// than replacing, so every method is additive or read-only except the
// cascading deletes used by the results layer.
type AnalysisRepository interface {
	Save(ctx context.Context, analysis *Analysis) error
	FindByCallID(ctx context.Context, callID string) ([]*Analysis, error)
	FindLatestByCallID(ctx context.Context, callID string) (*Analysis, error)
	DeleteByCallID(ctx context.Context, callID string) error
	DeleteAll(ctx context.Context) error
}
