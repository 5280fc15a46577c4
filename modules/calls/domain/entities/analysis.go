package entities

import "transcriptai/server/seedwork/domain"

// Sentiment classifies the compound NLP sentiment score.
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNegative Sentiment = "negative"
	SentimentNeutral  Sentiment = "neutral"
)

// EscalationRisk classifies the rule-based risk score.
type EscalationRisk string

const (
	RiskLow    EscalationRisk = "low"
	RiskMedium EscalationRisk = "medium"
	RiskHigh   EscalationRisk = "high"
)

// Analysis is one NLP pass over a call's transcript. Unlike Transcript,
// re-analysis appends a new row rather than replacing the existing one, so
// a call's analysis history is fully retained.
type Analysis struct {
	domain.BaseEntity
	CallID           string  `gorm:"column:call_id;not null;index"`
	Intent           string  `gorm:"column:intent"`
	IntentConfidence float64 `gorm:"column:intent_confidence"` // 0-100
	Sentiment        Sentiment `gorm:"column:sentiment"`
	SentimentScore   int     `gorm:"column:sentiment_score"` // -100..100
	EscalationRisk   EscalationRisk `gorm:"column:escalation_risk"`
	RiskScore        int     `gorm:"column:risk_score"` // 0-100
	UrgencyLevel     string  `gorm:"column:urgency_level"`
	ComplianceRisk   string  `gorm:"column:compliance_risk"`
	Keywords         []string `gorm:"-"` // serialized by the repository mapper
	Topics           []string `gorm:"-"`
}

// NewAnalysis creates a fresh Analysis row for callID.
func NewAnalysis(callID string) Analysis {
	a := Analysis{CallID: callID}
	a.SetID(domain.GenerateID())
	return a
}

// TableName sets the table name for GORM.
func (Analysis) TableName() string {
	return "analyses"
}
