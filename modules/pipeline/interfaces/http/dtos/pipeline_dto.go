package dtos

import (
	"time"

	callentities "transcriptai/server/modules/calls/domain/entities"
	"transcriptai/server/modules/pipeline"
	"transcriptai/server/modules/results"
)

// CallResponse is the shape returned for upload/run-pipeline calls.
type CallResponse struct {
	ID               string                      `json:"id"`
	Status           callentities.CallStatus     `json:"status"`
	OriginalFilename string                      `json:"original_filename"`
	FileSizeBytes    int64                       `json:"file_size_bytes"`
	DurationSeconds  *float64                    `json:"duration_seconds,omitempty"`
	CreatedAt        time.Time                   `json:"created_at"`
	UpdatedAt        time.Time                   `json:"updated_at"`
}

// ToCallResponse converts a Call entity to its response DTO.
func ToCallResponse(call *callentities.Call) CallResponse {
	return CallResponse{
		ID:               call.GetID(),
		Status:           call.Status,
		OriginalFilename: call.OriginalFilename,
		FileSizeBytes:    call.FileSizeBytes,
		DurationSeconds:  call.DurationSeconds,
		CreatedAt:        call.GetCreatedAt(),
		UpdatedAt:        call.GetUpdatedAt(),
	}
}

// ResultSummary is one row of the results list.
type ResultSummary struct {
	Call       CallResponse `json:"call"`
	Language   string       `json:"language,omitempty"`
	Preview    string       `json:"preview,omitempty"`
	Sentiment  string       `json:"sentiment,omitempty"`
	Risk       string       `json:"risk,omitempty"`
	HasResults bool         `json:"has_results"`
}

// ResultsListResponse answers GET /pipeline/results.
type ResultsListResponse struct {
	Results  []ResultSummary `json:"results"`
	Total    int64           `json:"total"`
	Page     int             `json:"page"`
	PageSize int             `json:"page_size"`
}

// ToResultsListResponse converts a results.ListResult to its DTO.
func ToResultsListResponse(r *results.ListResult) ResultsListResponse {
	rows := make([]ResultSummary, len(r.Results))
	for i, s := range r.Results {
		rows[i] = ResultSummary{
			Call:       ToCallResponse(s.Call),
			Language:   s.Language,
			Preview:    s.Preview,
			Sentiment:  s.Sentiment,
			Risk:       s.Risk,
			HasResults: s.HasResults,
		}
	}
	return ResultsListResponse{Results: rows, Total: r.Total, Page: r.Page, PageSize: r.PageSize}
}

// AnalysisEntry is one row of a call's analysis history.
type AnalysisEntry struct {
	ID               string   `json:"id"`
	Intent           string   `json:"intent"`
	IntentConfidence float64  `json:"intent_confidence"`
	Sentiment        string   `json:"sentiment"`
	SentimentScore   int      `json:"sentiment_score"`
	EscalationRisk   string   `json:"escalation_risk"`
	RiskScore        int      `json:"risk_score"`
	UrgencyLevel     string   `json:"urgency_level"`
	ComplianceRisk   string   `json:"compliance_risk"`
	Keywords         []string `json:"keywords"`
	Topics           []string `json:"topics"`
	CreatedAt        time.Time `json:"created_at"`
}

func toAnalysisEntry(a *callentities.Analysis) AnalysisEntry {
	return AnalysisEntry{
		ID:               a.GetID(),
		Intent:           a.Intent,
		IntentConfidence: a.IntentConfidence,
		Sentiment:        string(a.Sentiment),
		SentimentScore:   a.SentimentScore,
		EscalationRisk:   string(a.EscalationRisk),
		RiskScore:        a.RiskScore,
		UrgencyLevel:     a.UrgencyLevel,
		ComplianceRisk:   a.ComplianceRisk,
		Keywords:         a.Keywords,
		Topics:           a.Topics,
		CreatedAt:        a.GetCreatedAt(),
	}
}

// DetailResponse answers GET /pipeline/results/{id}.
type DetailResponse struct {
	Call       CallResponse    `json:"call"`
	Transcript *TranscriptView `json:"transcript,omitempty"`
	Analyses   []AnalysisEntry `json:"analyses"`
}

// TranscriptView is the transcript portion of a call's detail view.
type TranscriptView struct {
	Text       string  `json:"text"`
	Language   string  `json:"language"`
	Confidence float64 `json:"confidence"`
}

// ToDetailResponse converts a results.Detail to its DTO.
func ToDetailResponse(d *results.Detail) DetailResponse {
	resp := DetailResponse{
		Call:     ToCallResponse(d.Call),
		Analyses: make([]AnalysisEntry, len(d.Analyses)),
	}
	for i, a := range d.Analyses {
		resp.Analyses[i] = toAnalysisEntry(a)
	}
	if d.Transcript != nil {
		resp.Transcript = &TranscriptView{
			Text:       d.Transcript.Text,
			Language:   d.Transcript.Language,
			Confidence: d.Transcript.Confidence,
		}
	}
	return resp
}

// StageRecordView mirrors pipeline.StageRecord for JSON responses.
type StageRecordView struct {
	Stage           string    `json:"stage"`
	StartedAt       time.Time `json:"started_at"`
	EndedAt         time.Time `json:"ended_at"`
	DurationSeconds float64   `json:"duration_seconds"`
	Outcome         string    `json:"outcome"`
	Error           string    `json:"error,omitempty"`
}

// RunView mirrors pipeline.Run for JSON responses.
type RunView struct {
	CallID     string            `json:"call_id"`
	StartedAt  time.Time         `json:"started_at"`
	EndedAt    time.Time         `json:"ended_at,omitempty"`
	Status     string            `json:"status"`
	FailedStep string            `json:"failed_step,omitempty"`
	Stages     []StageRecordView `json:"stages"`
}

func toRunView(r *pipeline.Run) RunView {
	stages := make([]StageRecordView, len(r.Stages))
	for i, st := range r.Stages {
		stages[i] = StageRecordView{
			Stage:           st.Stage,
			StartedAt:       st.StartedAt,
			EndedAt:         st.EndedAt,
			DurationSeconds: st.DurationSeconds,
			Outcome:         st.Outcome,
			Error:           st.Error,
		}
	}
	return RunView{
		CallID:     r.CallID,
		StartedAt:  r.StartedAt,
		EndedAt:    r.EndedAt,
		Status:     r.Status,
		FailedStep: r.FailedStep,
		Stages:     stages,
	}
}

// ToRunViews converts a slice of *pipeline.Run.
func ToRunViews(runs []*pipeline.Run) []RunView {
	out := make([]RunView, len(runs))
	for i, r := range runs {
		out[i] = toRunView(r)
	}
	return out
}

// AlertView mirrors pipeline.Alert.
type AlertView struct {
	CallID  string    `json:"call_id"`
	Rule    string    `json:"rule"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

// ToAlertViews converts a slice of pipeline.Alert.
func ToAlertViews(alerts []pipeline.Alert) []AlertView {
	out := make([]AlertView, len(alerts))
	for i, a := range alerts {
		out[i] = AlertView{CallID: a.CallID, Rule: a.Rule, Message: a.Message, At: a.At}
	}
	return out
}

// StagePerformanceView mirrors pipeline.StagePerformance.
type StagePerformanceView struct {
	Count       int       `json:"count"`
	AvgSeconds  float64   `json:"avg_seconds"`
	MinSeconds  float64   `json:"min_seconds"`
	MaxSeconds  float64   `json:"max_seconds"`
	SuccessRate float64   `json:"success_rate"`
	Recent      []float64 `json:"recent"`
}

// PerformanceResponse answers GET /monitor/performance.
type PerformanceResponse struct {
	Stages       map[string]StagePerformanceView `json:"stages"`
	ActiveCount  int                             `json:"active_count"`
	RecentAlerts []AlertView                     `json:"recent_alerts"`
}

// ToPerformanceResponse converts a pipeline.PerformanceSummary to its DTO.
func ToPerformanceResponse(p pipeline.PerformanceSummary) PerformanceResponse {
	stages := make(map[string]StagePerformanceView, len(p.Stages))
	for k, v := range p.Stages {
		stages[k] = StagePerformanceView{
			Count:       v.Count,
			AvgSeconds:  v.AvgSeconds,
			MinSeconds:  v.MinSeconds,
			MaxSeconds:  v.MaxSeconds,
			SuccessRate: v.SuccessRate,
			Recent:      v.Recent,
		}
	}
	return PerformanceResponse{
		Stages:       stages,
		ActiveCount:  p.ActiveCount,
		RecentAlerts: ToAlertViews(p.RecentAlerts),
	}
}
