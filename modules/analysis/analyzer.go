package analysis

import (
	"context"
	"fmt"

	callentities "transcriptai/server/modules/calls/domain/entities"
	callservices "transcriptai/server/modules/calls/application/services"
)

// Service runs the rule-based NLP engine over a transcript and persists the
// resulting Analysis row. It implements both modules/live.Analyzer and the
// pipeline orchestrator's nlp_analysis stage seam.
type Service struct {
	analyses *callservices.AnalysisService
}

// NewService creates an NLP analysis service backed by analyses for
// persistence.
func NewService(analyses *callservices.AnalysisService) *Service {
	return &Service{analyses: analyses}
}

// Analyze runs keyword/sentiment/intent/risk classification over text and
// persists a new Analysis row for callID. Re-analysis appends a new row
// rather than replacing any prior one.
func (s *Service) Analyze(ctx context.Context, callID, text string) error {
	return s.Persist(ctx, callID, s.Run(text))
}

// Persist saves a result already produced by Run, without recomputing it.
// Callers that need the result's fields for their own stage bookkeeping
// (the orchestrator's nlp_analysis stage) call Run once and pass it here
// instead of paying for a second classification pass.
func (s *Service) Persist(ctx context.Context, callID string, result Result) error {
	a := callentities.NewAnalysis(callID)
	a.Intent = result.Intent.Label
	a.IntentConfidence = result.Intent.Confidence
	a.Sentiment = callentities.Sentiment(result.Sentiment.Label)
	a.SentimentScore = result.Sentiment.Score
	a.EscalationRisk = callentities.EscalationRisk(result.Risk.EscalationRisk)
	a.RiskScore = result.Risk.RiskScore
	a.UrgencyLevel = result.Risk.UrgencyLevel
	a.ComplianceRisk = result.Risk.ComplianceRisk
	a.Keywords = result.Keywords
	a.Topics = result.Keywords // no distinct topic model; keywords double as topics

	if err := s.analyses.Save(ctx, &a); err != nil {
		return fmt.Errorf("persist analysis for call %s: %w", callID, err)
	}
	return nil
}

// Result bundles every classifier's output for one transcript.
type Result struct {
	Keywords  []string
	Sentiment SentimentResult
	Intent    IntentResult
	Risk      RiskResult
}

// Run executes the full NLP pipeline over text without touching
// persistence, useful for tests and for callers that want the raw result.
func (s *Service) Run(text string) Result {
	sentiment := AnalyzeSentiment(text)
	return Result{
		Keywords:  ExtractKeywords(text),
		Sentiment: sentiment,
		Intent:    ClassifyIntent(text),
		Risk:      ClassifyRisk(text, sentiment),
	}
}
